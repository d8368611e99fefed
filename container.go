package usher

import (
	"reflect"
	"sort"
	"sync"

	"go.uber.org/zap"
)

// Phase tags a point in the application lifecycle. Hooks subscribe to
// a phase and run in subscription order when the phase fires.
type Phase int

const (
	// PhaseInit wires components; actions are not yet routable.
	PhaseInit Phase = iota
	// PhaseStart installs deferred registrations from the scanner and
	// the manual DSL.
	PhaseStart
	// PhaseReady marks the app as serving traffic.
	PhaseReady
	// PhaseStop tears components down in reverse order.
	PhaseStop
)

func (p Phase) String() string {
	switch p {
	case PhaseInit:
		return "INIT"
	case PhaseStart:
		return "START"
	case PhaseReady:
		return "READY"
	case PhaseStop:
		return "STOP"
	}
	return "UNKNOWN"
}

// Components may implement these to take part in the lifecycle.
// Register subscribes them automatically.
type Initializer interface{ Init() error }
type Starter interface{ Start() error }
type Stopper interface{ Stop() error }

type phaseHook struct {
	name string
	fn   func() error
}

// Container holds named components and their lifecycle hooks.
type Container struct {
	mu         sync.RWMutex
	log        *zap.Logger
	components map[string]any
	order      []string
	hooks      map[Phase][]phaseHook
	fired      map[Phase]bool
}

func NewContainer(log *zap.Logger) *Container {
	if log == nil {
		log = zap.NewNop()
	}
	return &Container{
		log:        log,
		components: make(map[string]any),
		hooks:      make(map[Phase][]phaseHook),
		fired:      make(map[Phase]bool),
	}
}

// Register adds a named component. Re-registering the same value under
// the same name is a no-op; a different value is a conflict.
func (c *Container) Register(name string, component any) error {
	if name == "" {
		return configErr("component name is empty")
	}
	if component == nil {
		return configErr("component %q is nil", name)
	}
	c.mu.Lock()
	if prev, ok := c.components[name]; ok {
		c.mu.Unlock()
		if sameComponent(prev, component) {
			return nil
		}
		return configErr("component %q already registered as %T", name, prev)
	}
	c.components[name] = component
	c.order = append(c.order, name)
	c.mu.Unlock()

	var err error
	if ini, ok := component.(Initializer); ok {
		err = c.Subscribe(PhaseInit, name, ini.Init)
	}
	if st, ok := component.(Starter); ok && err == nil {
		err = c.Subscribe(PhaseStart, name, st.Start)
	}
	if sp, ok := component.(Stopper); ok && err == nil {
		err = c.Subscribe(PhaseStop, name, sp.Stop)
	}
	return err
}

// sameComponent reports whether two registered values are the same.
// Values of non-comparable types never are, which keeps the duplicate
// check from panicking on them.
func sameComponent(a, b any) bool {
	if !reflect.TypeOf(a).Comparable() || !reflect.TypeOf(b).Comparable() {
		return false
	}
	return a == b
}

// Lookup finds a component by name.
func (c *Container) Lookup(name string) (any, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	v, ok := c.components[name]
	return v, ok
}

// Names lists registered component names, sorted.
func (c *Container) Names() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]string, len(c.order))
	copy(out, c.order)
	sort.Strings(out)
	return out
}

// Each visits components in registration order. The snapshot is taken
// up front, so fn may register more without deadlocking.
func (c *Container) Each(fn func(name string, component any)) {
	c.mu.RLock()
	names := make([]string, len(c.order))
	copy(names, c.order)
	c.mu.RUnlock()
	for _, n := range names {
		if v, ok := c.Lookup(n); ok {
			fn(n, v)
		}
	}
}

// ComponentOf looks a component up and asserts its type.
func ComponentOf[T any](c *Container, name string) (T, error) {
	var zero T
	v, ok := c.Lookup(name)
	if !ok {
		return zero, configErr("component %q not registered", name)
	}
	t, ok := v.(T)
	if !ok {
		return zero, configErr("component %q is %T, not %T", name, v, zero)
	}
	return t, nil
}

// Subscribe attaches a hook to a phase. Subscribing after the phase
// already fired runs the hook immediately, so late components still
// initialize.
func (c *Container) Subscribe(p Phase, name string, fn func() error) error {
	c.mu.Lock()
	if c.fired[p] {
		c.mu.Unlock()
		c.log.Debug("late lifecycle hook, running now",
			zap.Stringer("phase", p), zap.String("hook", name))
		return fn()
	}
	c.hooks[p] = append(c.hooks[p], phaseHook{name: name, fn: fn})
	c.mu.Unlock()
	return nil
}

// fire runs a phase's hooks. INIT, START and READY abort on the first
// failure; STOP runs every hook in reverse order and reports the first
// error after all have run.
func (c *Container) fire(p Phase) error {
	c.mu.Lock()
	if c.fired[p] {
		c.mu.Unlock()
		return nil
	}
	c.fired[p] = true
	hooks := make([]phaseHook, len(c.hooks[p]))
	copy(hooks, c.hooks[p])
	c.mu.Unlock()

	c.log.Debug("lifecycle phase", zap.Stringer("phase", p), zap.Int("hooks", len(hooks)))

	if p == PhaseStop {
		var first error
		for i := len(hooks) - 1; i >= 0; i-- {
			if err := hooks[i].fn(); err != nil {
				c.log.Error("stop hook failed",
					zap.String("hook", hooks[i].name), zap.Error(err))
				if first == nil {
					first = err
				}
			}
		}
		return first
	}
	for _, h := range hooks {
		if err := h.fn(); err != nil {
			return configWrap(err, "%s hook %q failed", p, h.name)
		}
	}
	return nil
}

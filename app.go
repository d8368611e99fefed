package usher

import (
	"go.uber.org/zap"
)

// App is the configuration facade handed to registration consumers.
// It wraps the live registries, so everything bound through it is
// validated on the spot.
type App struct {
	registry  *Registry
	results   *ResultRegistry
	chains    *ChainBuilder
	container *Container
	log       *zap.Logger
}

// Action starts a manual route registration.
//
//	app.Action().Path("/hello").Method("GET").MapTo(target, "World").Bind()
func (a *App) Action() *ActionBuilder {
	return &ActionBuilder{app: a}
}

// Result installs a custom result renderer.
func (a *App) Result(r ResultRenderer) error {
	return a.results.Register(r)
}

// Interceptor shares an interceptor instance app-wide. Actions naming
// its concrete type reuse this instance instead of their own.
func (a *App) Interceptor(ic Interceptor) error {
	return a.chains.Share(ic)
}

// ShareInterceptor is Interceptor with a configuration step typed to
// the concrete interceptor. The step runs once, before sharing.
func ShareInterceptor[T Interceptor](a *App, ic T, configure func(T)) error {
	if configure != nil {
		configure(ic)
	}
	return a.chains.Share(ic)
}

// Component registers a named component with the container.
func (a *App) Component(name string, c any) error {
	return a.container.Register(name, c)
}

// Lookup finds a registered component.
func (a *App) Lookup(name string) (any, bool) {
	return a.container.Lookup(name)
}

// ActionBuilder accumulates one route registration. Bind validates
// and installs it; until then nothing is shared.
type ActionBuilder struct {
	app *App
	def ActionDef
}

// Path sets the route pattern, macros included.
func (b *ActionBuilder) Path(p string) *ActionBuilder {
	b.def.Path = p
	return b
}

// Method restricts the route to one HTTP verb. Unset means any verb.
func (b *ActionBuilder) Method(verb string) *ActionBuilder {
	b.def.Method = verb
	return b
}

// MapTo points the route at a method on the target value.
func (b *ActionBuilder) MapTo(target any, methodName string) *ActionBuilder {
	b.def.Target = target
	b.def.MethodName = methodName
	return b
}

// InterceptBy replaces the default interceptor stack for this action.
// Include DefaultStack in the list to splice the defaults back in.
func (b *ActionBuilder) InterceptBy(ics ...any) *ActionBuilder {
	b.def.Interceptors = append(b.def.Interceptors, ics...)
	return b
}

// FilterBy replaces the default filter stack for this action.
func (b *ActionBuilder) FilterBy(fs ...any) *ActionBuilder {
	b.def.Filters = append(b.def.Filters, fs...)
	return b
}

// RenderWith picks a named result renderer for this action's return
// value instead of type-based resolution.
func (b *ActionBuilder) RenderWith(name string) *ActionBuilder {
	b.def.Result = name
	return b
}

// Bind validates the accumulated descriptor and registers the action.
func (b *ActionBuilder) Bind() error {
	_, err := b.app.registry.Register(b.def)
	return err
}

// MustBind is Bind for wiring code that treats a bad route as fatal.
func (b *ActionBuilder) MustBind() {
	if err := b.Bind(); err != nil {
		panic(err)
	}
}

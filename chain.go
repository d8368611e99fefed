package usher

import (
	"reflect"
	"sync"
)

// Interceptor wraps action invocation. An implementation continues the
// chain by calling next, or short-circuits by returning without it.
// Shared instances serve every request concurrently and must keep no
// per-request state in fields.
type Interceptor interface {
	Intercept(ar *ActionRequest, next func() (any, error)) (any, error)
}

// Filter wraps the whole request pipeline, rendering included. Same
// sharing rules as Interceptor.
type Filter interface {
	Filter(ar *ActionRequest, next func() error) error
}

// DefaultStack is the marker spliced into a per-action list to pull the
// global default stack in at that position. Without it an explicit list
// fully replaces the defaults.
var DefaultStack = defaultStackMarker{}

type defaultStackMarker struct{}

// InterceptorSpec carries a dedicated, per-use configured instance.
type InterceptorSpec struct {
	instance Interceptor
}

// FilterSpec carries a dedicated, per-use configured filter instance.
type FilterSpec struct {
	instance Filter
}

// Configured applies per-use configuration and returns a spec holding a
// dedicated instance. The configuration runs once, here, at registration;
// the instance is reused for every request afterwards.
func Configured[T Interceptor](ic T, configure func(T)) InterceptorSpec {
	if configure != nil {
		configure(ic)
	}
	return InterceptorSpec{instance: ic}
}

// ConfiguredFilter is Configured for filters.
func ConfiguredFilter[T Filter](f T, configure func(T)) FilterSpec {
	if configure != nil {
		configure(f)
	}
	return FilterSpec{instance: f}
}

// ChainBuilder resolves interceptor/filter specs into ordered chains.
// Plain instances resolve to one shared instance per concrete type; the
// first instance seen for a type becomes the shared one.
type ChainBuilder struct {
	mu             sync.Mutex
	sharedIc       map[reflect.Type]Interceptor
	sharedF        map[reflect.Type]Filter
	defaults       []any
	defaultFilters []any
}

func NewChainBuilder() *ChainBuilder {
	return &ChainBuilder{
		sharedIc: map[reflect.Type]Interceptor{},
		sharedF:  map[reflect.Type]Filter{},
	}
}

// SetDefaults installs the global default interceptor stack.
func (b *ChainBuilder) SetDefaults(specs ...any) error {
	for _, s := range specs {
		if _, ok := s.(defaultStackMarker); ok {
			return configErr("default stack cannot include itself")
		}
	}
	b.defaults = specs
	return nil
}

// SetDefaultFilters installs the global default filter stack.
func (b *ChainBuilder) SetDefaultFilters(specs ...any) error {
	for _, s := range specs {
		if _, ok := s.(defaultStackMarker); ok {
			return configErr("default stack cannot include itself")
		}
	}
	b.defaultFilters = specs
	return nil
}

// Share configures and installs the application-wide shared instance for
// the interceptor's concrete type.
func (b *ChainBuilder) Share(ic Interceptor) error {
	t := reflect.TypeOf(ic)
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.sharedIc[t]; ok {
		return configErr("interceptor %s configured twice", t)
	}
	b.sharedIc[t] = ic
	return nil
}

// merge applies the default-stack rule: an empty per-action list means
// the defaults; an explicit list replaces them unless it carries the
// DefaultStack marker, which splices them in place.
func merge(specs, defaults []any) []any {
	if len(specs) == 0 {
		return defaults
	}
	out := make([]any, 0, len(specs)+len(defaults))
	for _, s := range specs {
		if _, ok := s.(defaultStackMarker); ok {
			out = append(out, defaults...)
			continue
		}
		out = append(out, s)
	}
	return out
}

// BuildInterceptors resolves a per-action spec list into the chain for
// one ActionConfig. Called once at registration.
func (b *ChainBuilder) BuildInterceptors(specs []any) ([]Interceptor, error) {
	merged := merge(specs, b.defaults)
	out := make([]Interceptor, 0, len(merged))
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, s := range merged {
		switch v := s.(type) {
		case InterceptorSpec:
			out = append(out, v.instance)
		case Interceptor:
			t := reflect.TypeOf(v)
			shared, ok := b.sharedIc[t]
			if !ok {
				b.sharedIc[t] = v
				shared = v
			}
			out = append(out, shared)
		default:
			return nil, configErr("cannot use %T as interceptor", s)
		}
	}
	return out, nil
}

// BuildFilters is BuildInterceptors for the filter chain.
func (b *ChainBuilder) BuildFilters(specs []any) ([]Filter, error) {
	merged := merge(specs, b.defaultFilters)
	out := make([]Filter, 0, len(merged))
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, s := range merged {
		switch v := s.(type) {
		case FilterSpec:
			out = append(out, v.instance)
		case Filter:
			t := reflect.TypeOf(v)
			shared, ok := b.sharedF[t]
			if !ok {
				b.sharedF[t] = v
				shared = v
			}
			out = append(out, shared)
		default:
			return nil, configErr("cannot use %T as filter", s)
		}
	}
	return out, nil
}

// runChain executes interceptors in list order around invoke. A link that
// returns without calling next short-circuits the rest of the chain.
func runChain(ics []Interceptor, ar *ActionRequest, invoke func() (any, error)) (any, error) {
	var step func(i int) (any, error)
	step = func(i int) (any, error) {
		if i == len(ics) {
			return invoke()
		}
		return ics[i].Intercept(ar, func() (any, error) {
			return step(i + 1)
		})
	}
	return step(0)
}

// runFilters executes filters in list order around the dispatch pipeline.
func runFilters(fs []Filter, ar *ActionRequest, next func() error) error {
	var step func(i int) error
	step = func(i int) error {
		if i == len(fs) {
			return next()
		}
		return fs[i].Filter(ar, func() error {
			return step(i + 1)
		})
	}
	return step(0)
}

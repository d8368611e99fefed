package usher

import (
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strings"
	"sync"

	"go.uber.org/zap"
)

// errRouteConflict marks registration failures caused by another
// route already owning the key, as opposed to a malformed descriptor.
// Startup treats conflicts as fatal even where it would skip a bad
// candidate.
var errRouteConflict = errors.New("route conflict")

func conflictErr(format string, args ...any) error {
	return &ConfigError{Reason: fmt.Sprintf(format, args...), Err: errRouteConflict}
}

// ============================================================
// action registry
//
// Two-level lookup: fully literal routes live in a hash index and
// resolve in one probe; macro routes are bucketed by segment count
// and scanned most-literal-first. Patterns and request paths go
// through the same normalizer, so a route registers and resolves
// under one canonical form.
// ============================================================

type routeKey struct {
	path string
	verb string
}

type normalizer struct {
	foldCase     bool
	keepTrailing bool
	extensions   []string
}

func newNormalizer(p Params) normalizer {
	return normalizer{
		foldCase:     p.FoldCase,
		keepTrailing: p.KeepTrailing,
		extensions:   p.StripExtensions,
	}
}

func (n normalizer) path(p string) string {
	if p == "" {
		return "/"
	}
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	if n.foldCase {
		p = strings.ToLower(p)
	}
	if !n.keepTrailing {
		for len(p) > 1 && strings.HasSuffix(p, "/") {
			p = p[:len(p)-1]
		}
	}
	p = n.stripExtension(p)
	return p
}

// stripExtension removes a configured suffix from the last segment.
// Segments holding a macro keep their suffix untouched, so patterns
// like /img-{id}.png survive normalization.
func (n normalizer) stripExtension(p string) string {
	last := p[strings.LastIndexByte(p, '/')+1:]
	if strings.IndexByte(last, '{') >= 0 {
		return p
	}
	for _, ext := range n.extensions {
		if ext != "" && strings.HasSuffix(last, ext) && len(last) > len(ext) {
			return p[:len(p)-len(ext)]
		}
	}
	return p
}

// Registry maps request paths to registered actions.
type Registry struct {
	mu     sync.RWMutex
	norm   normalizer
	chains *ChainBuilder
	log    *zap.Logger

	exact     map[routeKey]*ActionConfig
	byPattern map[routeKey]*ActionConfig
	buckets   map[int][]*ActionConfig
	all       []*ActionConfig
}

func NewRegistry(params Params, chains *ChainBuilder, log *zap.Logger) *Registry {
	if log == nil {
		log = zap.NewNop()
	}
	return &Registry{
		norm:      newNormalizer(params),
		chains:    chains,
		log:       log,
		exact:     make(map[routeKey]*ActionConfig),
		byPattern: make(map[routeKey]*ActionConfig),
		buckets:   make(map[int][]*ActionConfig),
	}
}

// Register validates a descriptor, compiles its path and chain, and
// installs the resulting ActionConfig. Registering the exact same
// descriptor twice is a no-op; a different descriptor under the same
// route key fails.
func (r *Registry) Register(def ActionDef) (*ActionConfig, error) {
	if def.Target == nil {
		return nil, configErr("action %q: target is nil", def.Path)
	}
	verb := normalizeVerb(def.Method)
	path := r.norm.path(def.Path)

	compiled, err := CompilePath(path)
	if err != nil {
		return nil, err
	}
	ics, err := r.chains.BuildInterceptors(def.Interceptors)
	if err != nil {
		return nil, configWrap(err, "action %s %s", verb, path)
	}
	fs, err := r.chains.BuildFilters(def.Filters)
	if err != nil {
		return nil, configWrap(err, "action %s %s", verb, path)
	}
	inv, err := newInvoker(def.Target, def.MethodName)
	if err != nil {
		return nil, configWrap(err, "action %s %s", verb, path)
	}

	targetType := reflect.TypeOf(def.Target)
	cfg := &ActionConfig{
		Path:         path,
		Method:       verb,
		Target:       def.Target,
		TargetType:   targetType,
		MethodName:   def.MethodName,
		Interceptors: ics,
		Filters:      fs,
		ResultHint:   def.Result,
		MacroNames:   compiled.Names(),
		compiled:     compiled,
		invoke:       inv,
		fingerprint:  fingerprintDef(path, verb, targetType, def.MethodName, ics, fs, def.Result),
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	return r.install(cfg)
}

func (r *Registry) install(cfg *ActionConfig) (*ActionConfig, error) {
	key := routeKey{path: cfg.Path, verb: cfg.Method}

	if cfg.compiled.IsLiteral() {
		if prev, ok := r.exact[key]; ok {
			if prev.fingerprint == cfg.fingerprint {
				return prev, nil
			}
			return nil, conflictErr("route %s %s already mapped to %s.%s",
				cfg.Method, cfg.Path, prev.TargetType, prev.MethodName)
		}
		r.exact[key] = cfg
		r.all = append(r.all, cfg)
		r.log.Debug("action registered",
			zap.String("method", cfg.Method),
			zap.String("path", cfg.Path),
			zap.String("target", cfg.TargetType.String()+"."+cfg.MethodName))
		return cfg, nil
	}

	if prev, ok := r.byPattern[key]; ok {
		if prev.fingerprint == cfg.fingerprint {
			return prev, nil
		}
		return nil, conflictErr("route %s %s already mapped to %s.%s",
			cfg.Method, cfg.Path, prev.TargetType, prev.MethodName)
	}

	n := cfg.compiled.segCount()
	for _, other := range r.buckets[n] {
		if !verbsIntersect(cfg.Method, other.Method) {
			continue
		}
		if other.compiled.Literals() == cfg.compiled.Literals() && cfg.compiled.overlaps(other.compiled) {
			return nil, conflictErr("route %s %s is ambiguous with %s %s: equal specificity",
				cfg.Method, cfg.Path, other.Method, other.Path)
		}
	}

	bucket := append(r.buckets[n], cfg)
	sort.SliceStable(bucket, func(i, j int) bool {
		return bucket[i].compiled.Literals() > bucket[j].compiled.Literals()
	})
	r.buckets[n] = bucket
	r.byPattern[key] = cfg
	r.all = append(r.all, cfg)
	r.log.Debug("action registered",
		zap.String("method", cfg.Method),
		zap.String("path", cfg.Path),
		zap.String("target", cfg.TargetType.String()+"."+cfg.MethodName))
	return cfg, nil
}

// Lookup resolves a request path and verb to an action, or nil.
func (r *Registry) Lookup(path, verb string) *ActionConfig {
	cfg, _ := r.match(path, verb)
	return cfg
}

// match resolves a request and returns the captured macro values.
// Literal routes win over macro routes; a verb-specific route wins
// over an any-verb one at the same level.
func (r *Registry) match(path, verb string) (*ActionConfig, map[string]string) {
	p := r.norm.path(path)
	v := normalizeVerb(verb)

	r.mu.RLock()
	defer r.mu.RUnlock()

	if cfg, ok := r.exact[routeKey{path: p, verb: v}]; ok {
		return cfg, nil
	}
	if cfg, ok := r.exact[routeKey{path: p, verb: AnyMethod}]; ok {
		return cfg, nil
	}

	segs := splitPath(p)
	var anyCfg *ActionConfig
	var anyVars map[string]string
	for _, cfg := range r.buckets[len(segs)] {
		if !verbsIntersect(v, cfg.Method) {
			continue
		}
		vars, ok := cfg.compiled.Match(segs)
		if !ok {
			continue
		}
		if cfg.Method == v {
			return cfg, vars
		}
		if anyCfg == nil {
			anyCfg, anyVars = cfg, vars
		}
	}
	return anyCfg, anyVars
}

// Count reports how many actions are registered.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.all)
}

// Actions returns the registered configs in registration order.
func (r *Registry) Actions() []*ActionConfig {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*ActionConfig, len(r.all))
	copy(out, r.all)
	return out
}

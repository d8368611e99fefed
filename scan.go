package usher

import (
	"fmt"
	"reflect"
	"strings"

	"go.uber.org/zap"
)

// ============================================================
// candidate scanning
//
// The scanner inspects candidate values and derives route
// descriptors from them. A candidate either declares its routes
// (RouteDeclarer), or gets convention routes from its exported
// methods. Scanning is resilient: a bad candidate is logged and
// skipped, the rest still register.
// ============================================================

// Mapping is one route contributed by a scanned candidate. Method
// names the Go method on the candidate; a relative Path is joined
// under the candidate's prefix.
type Mapping struct {
	Method    string
	Path      string
	Verb      string
	Intercept []any
	Filter    []any
	Result    string
}

// RouteDeclarer lets a candidate spell its routes out explicitly.
type RouteDeclarer interface {
	Routes() []Mapping
}

// Prefixed overrides the path prefix a candidate's routes mount
// under. Without it the prefix derives from the type name.
type Prefixed interface {
	RoutePrefix() string
}

// TypePredicate decides whether a type is eligible for scanning.
type TypePredicate func(t reflect.Type) bool

// MethodRule derives a convention route from an exported method.
// Returning false skips the method.
type MethodRule func(t reflect.Type, m reflect.Method) (Mapping, bool)

// ScanReport is the outcome of one scan pass.
type ScanReport struct {
	Defs      []ActionDef
	Renderers []ResultRenderer
	Skipped   int
}

// Scanner turns candidate values into action descriptors.
type Scanner struct {
	suffix     string
	predicates []TypePredicate
	rules      []MethodRule
	log        *zap.Logger
}

func NewScanner(params Params, log *zap.Logger) *Scanner {
	if log == nil {
		log = zap.NewNop()
	}
	s := &Scanner{suffix: params.ActionSuffix, log: log}
	s.predicates = []TypePredicate{namedStructPredicate, s.suffixPredicate}
	s.rules = []MethodRule{verbPrefixRule}
	return s
}

// AddPredicate narrows candidate eligibility further.
func (s *Scanner) AddPredicate(p TypePredicate) { s.predicates = append(s.predicates, p) }

// AddRule installs an extra convention rule. Rules run in order; the
// first one claiming a method wins.
func (s *Scanner) AddRule(r MethodRule) { s.rules = append([]MethodRule{r}, s.rules...) }

// Scan walks the candidates. Renderer candidates land in
// ScanReport.Renderers; action candidates contribute Defs.
func (s *Scanner) Scan(candidates []any) ScanReport {
	var rep ScanReport
	for _, cand := range candidates {
		if r, ok := cand.(ResultRenderer); ok {
			rep.Renderers = append(rep.Renderers, r)
			continue
		}
		defs, err := s.scanOne(cand)
		if err != nil {
			rep.Skipped++
			s.log.Warn("candidate skipped", zap.String("candidate", fmt.Sprintf("%T", cand)), zap.Error(err))
			continue
		}
		if defs == nil {
			rep.Skipped++
			s.log.Debug("candidate not eligible", zap.String("candidate", fmt.Sprintf("%T", cand)))
			continue
		}
		rep.Defs = append(rep.Defs, defs...)
	}
	return rep
}

// scanOne derives the routes of a single candidate. A nil slice with
// a nil error means the candidate failed the eligibility predicates.
func (s *Scanner) scanOne(cand any) (defs []ActionDef, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			defs, err = nil, fmt.Errorf("panic while scanning: %v", rec)
		}
	}()

	if cand == nil {
		return nil, fmt.Errorf("candidate is nil")
	}
	t := reflect.TypeOf(cand)
	for _, pred := range s.predicates {
		if !pred(t) {
			return nil, nil
		}
	}

	prefix := s.prefixOf(cand, t)

	if rd, ok := cand.(RouteDeclarer); ok {
		for _, m := range rd.Routes() {
			if m.Method == "" {
				return nil, fmt.Errorf("%s: mapping with empty method name", t)
			}
			if !reflect.ValueOf(cand).MethodByName(m.Method).IsValid() {
				return nil, fmt.Errorf("%s has no method %s", t, m.Method)
			}
			path := m.Path
			if path == "" {
				path = prefix + "/" + strings.ToLower(m.Method)
			} else if !strings.HasPrefix(path, "/") {
				path = prefix + "/" + path
			}
			defs = append(defs, ActionDef{
				Path:         path,
				Method:       m.Verb,
				Target:       cand,
				MethodName:   m.Method,
				Interceptors: m.Intercept,
				Filters:      m.Filter,
				Result:       m.Result,
			})
		}
		return defs, nil
	}

	for i := 0; i < t.NumMethod(); i++ {
		m := t.Method(i)
		if reservedMethod(m.Name) {
			continue
		}
		for _, rule := range s.rules {
			mapping, ok := rule(t, m)
			if !ok {
				continue
			}
			path := prefix
			if mapping.Path != "" {
				path = prefix + "/" + mapping.Path
			}
			defs = append(defs, ActionDef{
				Path:       path,
				Method:     mapping.Verb,
				Target:     cand,
				MethodName: m.Name,
				Result:     mapping.Result,
			})
			break
		}
	}
	if len(defs) == 0 {
		return nil, fmt.Errorf("%s declares no routes", t)
	}
	return defs, nil
}

func (s *Scanner) prefixOf(cand any, t reflect.Type) string {
	if p, ok := cand.(Prefixed); ok {
		prefix := strings.TrimSuffix(p.RoutePrefix(), "/")
		if !strings.HasPrefix(prefix, "/") {
			prefix = "/" + prefix
		}
		return prefix
	}
	name := t.Elem().Name()
	name = strings.TrimSuffix(name, s.suffix)
	return "/" + strings.ToLower(name)
}

// namedStructPredicate keeps pointer-to-named-struct candidates and
// rejects everything a route cannot hang off: funcs, channels, maps,
// slices and anonymous types.
func namedStructPredicate(t reflect.Type) bool {
	if t.Kind() != reflect.Ptr {
		return false
	}
	e := t.Elem()
	return e.Kind() == reflect.Struct && e.Name() != ""
}

func (s *Scanner) suffixPredicate(t reflect.Type) bool {
	name := t.Elem().Name()
	return strings.HasSuffix(name, s.suffix) && len(name) > len(s.suffix)
}

var verbWords = []string{"Get", "Post", "Put", "Patch", "Delete", "Head", "Options"}

// verbPrefixRule maps GetProfile to GET <prefix>/profile, PostLogin
// to POST <prefix>/login, and so on. A bare verb name or Index maps
// to the prefix root; anything else becomes a GET route.
func verbPrefixRule(t reflect.Type, m reflect.Method) (Mapping, bool) {
	name := m.Name
	verb := "GET"
	rest := name
	for _, w := range verbWords {
		if name == w {
			verb, rest = strings.ToUpper(w), ""
			break
		}
		if strings.HasPrefix(name, w) && name[len(w)] >= 'A' && name[len(w)] <= 'Z' {
			verb, rest = strings.ToUpper(w), name[len(w):]
			break
		}
	}
	if rest == "Index" {
		rest = ""
	}
	return Mapping{Verb: verb, Path: strings.ToLower(rest)}, true
}

func reservedMethod(name string) bool {
	switch name {
	case "Routes", "RoutePrefix", "Init", "Start", "Stop":
		return true
	}
	return false
}

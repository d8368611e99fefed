package usher

import (
	"encoding/json"
	"net/http"
	"reflect"
	"sync"
)

// ResultRenderer turns an action's return value into an HTTP
// response. A renderer is picked by the action's result hint, or by
// the concrete type of the returned value when no hint is set.
type ResultRenderer interface {
	Name() string
	ResultType() reflect.Type
	Render(ar *ActionRequest, value any) error
}

// Redirect tells the default renderer set to answer with an HTTP
// redirect. A zero Code means 302.
type Redirect struct {
	URL  string
	Code int
}

// Raw is written to the response as-is.
type Raw struct {
	ContentType string
	Data        []byte
}

// Status answers with a bare status code and no body.
type Status int

type envelope struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

func writeJSON(ar *ActionRequest, status int, v any) error {
	ar.W.Header().Set("Content-Type", "application/json; charset=utf-8")
	ar.W.WriteHeader(status)
	return json.NewEncoder(ar.W).Encode(v)
}

// ResultRegistry holds the installed renderers.
type ResultRegistry struct {
	mu     sync.RWMutex
	dev    bool
	byName map[string]ResultRenderer
	byType map[reflect.Type]ResultRenderer
}

func NewResultRegistry(dev bool) *ResultRegistry {
	rr := &ResultRegistry{
		dev:    dev,
		byName: make(map[string]ResultRenderer),
		byType: make(map[reflect.Type]ResultRenderer),
	}
	for _, r := range []ResultRenderer{jsonRenderer{}, textRenderer{}, redirectRenderer{}, rawRenderer{}, statusRenderer{}} {
		rr.byName[r.Name()] = r
		if t := r.ResultType(); t != nil {
			rr.byType[t] = r
		}
	}
	return rr
}

// Register installs a renderer. Re-registering the same instance is a
// no-op; a custom renderer claiming a built-in's name or type displaces
// the built-in; two custom renderers on one name or type conflict.
func (rr *ResultRegistry) Register(r ResultRenderer) error {
	if r.Name() == "" {
		return configErr("result renderer %T has an empty name", r)
	}
	rr.mu.Lock()
	defer rr.mu.Unlock()
	if prev, ok := rr.byName[r.Name()]; ok && !sameComponent(prev, r) {
		if !builtinRenderer(prev) {
			return configErr("result renderer %q already registered as %T", r.Name(), prev)
		}
		rr.displace(prev)
	}
	if t := r.ResultType(); t != nil {
		if prev, ok := rr.byType[t]; ok && !sameComponent(prev, r) {
			if !builtinRenderer(prev) {
				return configErr("result type %s already rendered by %q", t, prev.Name())
			}
			rr.displace(prev)
		}
		rr.byType[t] = r
	}
	rr.byName[r.Name()] = r
	return nil
}

func builtinRenderer(r ResultRenderer) bool {
	switch r.(type) {
	case jsonRenderer, textRenderer, redirectRenderer, rawRenderer, statusRenderer:
		return true
	}
	return false
}

// displace drops every entry routing to an overridden built-in, so no
// stale name or type keeps reaching it.
func (rr *ResultRegistry) displace(prev ResultRenderer) {
	delete(rr.byName, prev.Name())
	for t, rd := range rr.byType {
		if rd == prev {
			delete(rr.byType, t)
		}
	}
}

// Lookup finds a renderer by name.
func (rr *ResultRegistry) Lookup(name string) (ResultRenderer, bool) {
	rr.mu.RLock()
	defer rr.mu.RUnlock()
	r, ok := rr.byName[name]
	return r, ok
}

// Render writes the action's return value. Resolution order: the
// action's hint, the value's concrete type, then the JSON envelope.
// A nil value with nothing written yet answers 204.
func (rr *ResultRegistry) Render(ar *ActionRequest, hint string, value any) error {
	if hint != "" {
		r, ok := rr.Lookup(hint)
		if !ok {
			return Internal("no result renderer named " + hint)
		}
		return r.Render(ar, value)
	}
	if value == nil {
		if !ar.written() {
			ar.W.WriteHeader(http.StatusNoContent)
		}
		return nil
	}
	if r, deref, ok := rr.forType(reflect.TypeOf(value)); ok {
		if deref {
			value = reflect.ValueOf(value).Elem().Interface()
		}
		return r.Render(ar, value)
	}
	return jsonRenderer{}.Render(ar, value)
}

func (rr *ResultRegistry) forType(t reflect.Type) (ResultRenderer, bool, bool) {
	rr.mu.RLock()
	defer rr.mu.RUnlock()
	if r, ok := rr.byType[t]; ok {
		return r, false, true
	}
	if t.Kind() == reflect.Ptr {
		if r, ok := rr.byType[t.Elem()]; ok {
			return r, true, true
		}
	}
	return nil, false, false
}

// RenderError writes the failure envelope. StatusError carries its
// own HTTP status; anything else is a 500, with the message hidden
// outside dev mode.
func (rr *ResultRegistry) RenderError(ar *ActionRequest, err error) {
	if ar.written() {
		return
	}
	status := statusOf(err)
	msg := "internal server error"
	if se, ok := asStatusError(err); ok {
		msg = se.Message
	} else if rr.dev {
		msg = err.Error()
	}
	_ = writeJSON(ar, status, envelope{Code: status, Message: msg})
}

type jsonRenderer struct{}

func (jsonRenderer) Name() string             { return "json" }
func (jsonRenderer) ResultType() reflect.Type { return nil }
func (jsonRenderer) Render(ar *ActionRequest, value any) error {
	return writeJSON(ar, http.StatusOK, envelope{Code: 0, Message: "ok", Data: value})
}

type textRenderer struct{}

func (textRenderer) Name() string             { return "text" }
func (textRenderer) ResultType() reflect.Type { return reflect.TypeOf("") }
func (textRenderer) Render(ar *ActionRequest, value any) error {
	ar.W.Header().Set("Content-Type", "text/plain; charset=utf-8")
	s, _ := value.(string)
	_, err := ar.W.Write([]byte(s))
	return err
}

type redirectRenderer struct{}

func (redirectRenderer) Name() string             { return "redirect" }
func (redirectRenderer) ResultType() reflect.Type { return reflect.TypeOf(Redirect{}) }
func (redirectRenderer) Render(ar *ActionRequest, value any) error {
	rd, ok := value.(Redirect)
	if !ok {
		return Internal("redirect renderer needs a Redirect value")
	}
	code := rd.Code
	if code == 0 {
		code = http.StatusFound
	}
	http.Redirect(ar.W, ar.R, rd.URL, code)
	return nil
}

type rawRenderer struct{}

func (rawRenderer) Name() string             { return "raw" }
func (rawRenderer) ResultType() reflect.Type { return reflect.TypeOf(Raw{}) }
func (rawRenderer) Render(ar *ActionRequest, value any) error {
	rw, ok := value.(Raw)
	if !ok {
		return Internal("raw renderer needs a Raw value")
	}
	ct := rw.ContentType
	if ct == "" {
		ct = "application/octet-stream"
	}
	ar.W.Header().Set("Content-Type", ct)
	_, err := ar.W.Write(rw.Data)
	return err
}

type statusRenderer struct{}

func (statusRenderer) Name() string             { return "status" }
func (statusRenderer) ResultType() reflect.Type { return reflect.TypeOf(Status(0)) }
func (statusRenderer) Render(ar *ActionRequest, value any) error {
	st, ok := value.(Status)
	if !ok {
		return Internal("status renderer needs a Status value")
	}
	ar.W.WriteHeader(int(st))
	return nil
}

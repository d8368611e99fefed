package usher

import (
	"net/http"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// DispatchState tracks where a request is in the pipeline.
type DispatchState int

const (
	StateMatch DispatchState = iota
	StateBind
	StateChain
	StateRender
	StateDone
	StateFailed
)

func (s DispatchState) String() string {
	switch s {
	case StateMatch:
		return "match"
	case StateBind:
		return "bind"
	case StateChain:
		return "chain"
	case StateRender:
		return "render"
	case StateDone:
		return "done"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// statusWriter records what was written so the failure path and the access
// log can see the outcome.
type statusWriter struct {
	http.ResponseWriter
	status int
	wrote  bool
}

func (w *statusWriter) WriteHeader(code int) {
	if !w.wrote {
		w.status = code
		w.wrote = true
	}
	w.ResponseWriter.WriteHeader(code)
}

func (w *statusWriter) Write(b []byte) (int, error) {
	if !w.wrote {
		w.status = http.StatusOK
		w.wrote = true
	}
	return w.ResponseWriter.Write(b)
}

// ActionRequest is the per-request invocation context. It is owned by the
// goroutine serving the request and must not be retained after dispatch.
type ActionRequest struct {
	W http.ResponseWriter
	R *http.Request

	ID     string
	Config *ActionConfig
	State  DispatchState

	// PathVars holds the raw macro bindings from the matched pattern.
	PathVars map[string]string

	// Result is the raw action return value, set after invocation.
	Result any

	sw     *statusWriter
	log    *zap.Logger
	values map[string]any
}

func newActionRequest(w http.ResponseWriter, r *http.Request, log *zap.Logger) *ActionRequest {
	sw := &statusWriter{ResponseWriter: w}
	return &ActionRequest{
		W:     sw,
		R:     r,
		ID:    uuid.NewString(),
		State: StateMatch,
		sw:    sw,
		log:   log,
	}
}

// Logger returns the framework logger scoped with the request id.
func (ar *ActionRequest) Logger() *zap.Logger {
	return ar.log.With(zap.String("request_id", ar.ID))
}

// PathVar returns one macro binding as its raw string.
func (ar *ActionRequest) PathVar(name string) string {
	return ar.PathVars[name]
}

// Query returns one query parameter.
func (ar *ActionRequest) Query(name string) string {
	return ar.R.URL.Query().Get(name)
}

// Set stores a request-scoped value for later links in the chain.
func (ar *ActionRequest) Set(key string, v any) {
	if ar.values == nil {
		ar.values = map[string]any{}
	}
	ar.values[key] = v
}

// Get reads a request-scoped value stored by an earlier link.
func (ar *ActionRequest) Get(key string) (any, bool) {
	v, ok := ar.values[key]
	return v, ok
}

// Status reports the written response status, 0 before any write.
func (ar *ActionRequest) Status() int {
	return ar.sw.status
}

func (ar *ActionRequest) written() bool {
	return ar.sw.wrote
}

package usher

import (
	"net/http"
	"runtime/debug"
	"time"

	"go.uber.org/zap"
)

// ============================================================
// request dispatch
//
// Each request walks a short pipeline: MATCH resolves the action,
// BIND prepares its arguments, the filter and interceptor chains
// wrap the invocation, RENDER writes the result. Any failure drops
// the request into FAILED and renders an error envelope instead.
// A bind failure still enters the interceptor chain, as a failing
// innermost call, so auth and logging links observe the request.
// ============================================================

// Dispatcher routes HTTP requests to registered actions. It is a
// plain http.Handler, so it mounts on any server or mux.
type Dispatcher struct {
	registry *Registry
	results  *ResultRegistry
	binder   *Binder
	log      *zap.Logger
}

func NewDispatcher(registry *Registry, results *ResultRegistry, binder *Binder, log *zap.Logger) *Dispatcher {
	if log == nil {
		log = zap.NewNop()
	}
	return &Dispatcher{registry: registry, results: results, binder: binder, log: log}
}

func (d *Dispatcher) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	ar := newActionRequest(w, r, d.log)

	defer func() {
		if rec := recover(); rec != nil {
			ar.State = StateFailed
			d.log.Error("panic during dispatch",
				zap.String("request_id", ar.ID),
				zap.String("path", r.URL.Path),
				zap.Any("panic", rec),
				zap.ByteString("stack", debug.Stack()))
			d.results.RenderError(ar, Internal("internal server error"))
		}
		d.log.Debug("dispatch complete",
			zap.String("request_id", ar.ID),
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Stringer("state", ar.State),
			zap.Int("status", ar.Status()),
			zap.Duration("took", time.Since(start)))
	}()

	ar.State = StateMatch
	cfg, vars := d.registry.match(r.URL.Path, r.Method)
	if cfg == nil {
		ar.State = StateFailed
		d.results.RenderError(ar, NotFound("not found"))
		return
	}
	ar.Config = cfg
	ar.PathVars = vars

	err := runFilters(cfg.Filters, ar, func() error {
		d.handle(ar)
		return nil
	})
	if err != nil {
		ar.State = StateFailed
		d.results.RenderError(ar, err)
	}
}

func (d *Dispatcher) handle(ar *ActionRequest) {
	cfg := ar.Config

	ar.State = StateBind
	args, bindErr := cfg.invoke.prepare(ar, d.binder)

	invoke := func() (any, error) {
		if bindErr != nil {
			return nil, bindErr
		}
		return cfg.invoke.call(args)
	}

	ar.State = StateChain
	value, err := runChain(cfg.Interceptors, ar, invoke)
	if err != nil {
		ar.State = StateFailed
		d.logFailure(ar, err)
		d.results.RenderError(ar, err)
		return
	}
	ar.Result = value

	ar.State = StateRender
	if rerr := d.results.Render(ar, cfg.ResultHint, value); rerr != nil {
		ar.State = StateFailed
		d.logFailure(ar, rerr)
		d.results.RenderError(ar, rerr)
		return
	}
	ar.State = StateDone
}

func (d *Dispatcher) logFailure(ar *ActionRequest, err error) {
	fields := []zap.Field{
		zap.String("request_id", ar.ID),
		zap.String("path", ar.R.URL.Path),
		zap.String("action", ar.Config.TargetType.String()+"."+ar.Config.MethodName),
		zap.Error(err),
	}
	if statusOf(err) >= http.StatusInternalServerError {
		d.log.Error("action failed", fields...)
		return
	}
	d.log.Info("action rejected", fields...)
}

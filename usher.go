package usher

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"go.uber.org/zap"

	"usher/internal/infra/logger"
)

// ============================================================
// web app lifecycle
//
// A WebApp owns the registries and walks them through the phases:
// INIT wires components, START installs scanned and declared
// routes, READY opens the doors, STOP tears down in reverse. Any
// configuration error aborts startup; nothing half-configured ever
// serves traffic.
// ============================================================

type namedComponent struct {
	name  string
	value any
}

// WebApp is the assembled framework instance. It implements
// http.Handler, so it can serve directly, sit behind httptest, or
// mount inside another router.
type WebApp struct {
	mu      sync.Mutex
	started bool
	loadErr error

	params     Params
	log        *zap.Logger
	container  *Container
	chains     *ChainBuilder
	registry   *Registry
	results    *ResultRegistry
	binder     *Binder
	scanner    *Scanner
	dispatcher *Dispatcher
	app        *App

	components []namedComponent
	candidates []any
	scanned    ScanReport
	consumers  []func(*App) error
	defaultIcs []any
	defaultFs  []any

	srv *http.Server
}

// Option configures a WebApp before Start.
type Option func(*WebApp)

// WithParams replaces the default parameters.
func WithParams(p Params) Option {
	return func(w *WebApp) { w.params = p }
}

// WithConfigFile loads parameters from a file on top of the defaults.
func WithConfigFile(path string) Option {
	return func(w *WebApp) {
		p, err := LoadParams(path)
		if err != nil {
			w.loadErr = configWrap(err, "config file %s", path)
			return
		}
		w.params = p
	}
}

// WithLogger supplies a prebuilt logger instead of the file-rotating
// default.
func WithLogger(l *zap.Logger) Option {
	return func(w *WebApp) { w.log = l }
}

// WithComponent registers a named component before INIT fires.
func WithComponent(name string, c any) Option {
	return func(w *WebApp) {
		w.components = append(w.components, namedComponent{name: name, value: c})
	}
}

// WithCandidates hands values to the scanner. Eligible ones become
// actions or renderers at START.
func WithCandidates(cands ...any) Option {
	return func(w *WebApp) { w.candidates = append(w.candidates, cands...) }
}

// WithApp queues a registration consumer. Consumers run after START,
// so manual routes may refer to scanned ones, and a clash between the
// two is caught before READY.
func WithApp(fn func(*App) error) Option {
	return func(w *WebApp) { w.consumers = append(w.consumers, fn) }
}

// WithDefaultInterceptors sets the stack actions get when they name
// none of their own.
func WithDefaultInterceptors(ics ...any) Option {
	return func(w *WebApp) { w.defaultIcs = append(w.defaultIcs, ics...) }
}

// WithDefaultFilters sets the default filter stack.
func WithDefaultFilters(fs ...any) Option {
	return func(w *WebApp) { w.defaultFs = append(w.defaultFs, fs...) }
}

// New builds an unstarted WebApp. Nothing is wired until Start runs.
func New(opts ...Option) *WebApp {
	w := &WebApp{params: DefaultParams()}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Start wires the registries and fires INIT, START and READY. It
// returns the first configuration error and leaves the app stopped in
// that case.
func (w *WebApp) Start() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.started {
		return nil
	}
	if w.loadErr != nil {
		return w.loadErr
	}

	if w.log == nil {
		log, err := logger.New(logger.Config{
			Dir:   w.params.Log.Dir,
			Level: w.params.Log.Level,
			Dev:   w.params.DevMode,
		})
		if err != nil {
			return configWrap(err, "logger setup")
		}
		w.log = log
	}

	w.container = NewContainer(w.log)
	w.chains = NewChainBuilder()
	w.registry = NewRegistry(w.params, w.chains, w.log)
	w.results = NewResultRegistry(w.params.DevMode)
	w.binder = NewBinder()
	w.scanner = NewScanner(w.params, w.log)
	w.dispatcher = NewDispatcher(w.registry, w.results, w.binder, w.log)
	w.app = &App{
		registry:  w.registry,
		results:   w.results,
		chains:    w.chains,
		container: w.container,
		log:       w.log,
	}

	if err := w.chains.SetDefaults(w.defaultIcs...); err != nil {
		return err
	}
	defaultFs := w.defaultFs
	if w.params.AccessLog.Enabled {
		access, err := NewAccessLogFilter(w.params.AccessLog.Dir)
		if err != nil {
			return configWrap(err, "access log setup")
		}
		defaultFs = append([]any{access}, defaultFs...)
	}
	if err := w.chains.SetDefaultFilters(defaultFs...); err != nil {
		return err
	}

	core := []namedComponent{
		{"usher.params", &w.params},
		{"usher.logger", w.log},
		{"usher.chains", w.chains},
		{"usher.registry", w.registry},
		{"usher.results", w.results},
		{"usher.binder", w.binder},
		{"usher.scanner", w.scanner},
		{"usher.dispatcher", w.dispatcher},
	}
	for _, nc := range append(core, w.components...) {
		if err := w.container.Register(nc.name, nc.value); err != nil {
			return err
		}
	}
	if err := w.container.Subscribe(PhaseInit, "usher.scan", w.collectScanned); err != nil {
		return err
	}
	if err := w.container.Subscribe(PhaseStart, "usher.install", w.installScanned); err != nil {
		return err
	}

	if err := w.container.fire(PhaseInit); err != nil {
		w.abort()
		return err
	}
	if err := w.container.fire(PhaseStart); err != nil {
		w.abort()
		return err
	}
	for _, consume := range w.consumers {
		if err := consume(w.app); err != nil {
			w.abort()
			return err
		}
	}
	if err := w.container.fire(PhaseReady); err != nil {
		w.abort()
		return err
	}

	w.started = true
	w.log.Info("web app ready",
		zap.Int("actions", w.registry.Count()),
		zap.Strings("components", w.container.Names()))
	return nil
}

// collectScanned is the INIT hook: candidates are inspected while
// components come up, but nothing routes yet.
func (w *WebApp) collectScanned() error {
	w.scanned = w.scanner.Scan(w.candidates)
	return nil
}

// installScanned is the START hook: the collected renderers and routes
// land in the registries, now that every component exists. A malformed
// candidate is skipped, a route conflict aborts startup.
func (w *WebApp) installScanned() error {
	for _, r := range w.scanned.Renderers {
		if err := w.results.Register(r); err != nil {
			return err
		}
	}
	for _, def := range w.scanned.Defs {
		if _, err := w.registry.Register(def); err != nil {
			if isRouteConflict(err) {
				return err
			}
			w.log.Warn("scanned route skipped",
				zap.String("path", def.Path),
				zap.String("method", def.MethodName),
				zap.Error(err))
		}
	}
	return nil
}

func (w *WebApp) abort() {
	_ = w.container.fire(PhaseStop)
}

// Shutdown stops the HTTP server, if one is running, and fires STOP.
func (w *WebApp) Shutdown(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.started {
		return nil
	}
	w.started = false
	if w.srv != nil {
		if err := w.srv.Shutdown(ctx); err != nil {
			w.log.Error("server shutdown", zap.Error(err))
		}
		w.srv = nil
	}
	return w.container.fire(PhaseStop)
}

func (w *WebApp) ServeHTTP(rw http.ResponseWriter, r *http.Request) {
	w.mu.Lock()
	d := w.dispatcher
	ready := w.started
	w.mu.Unlock()
	if !ready || d == nil {
		http.Error(rw, "server not ready", http.StatusServiceUnavailable)
		return
	}
	d.ServeHTTP(rw, r)
}

// ListenAndServe starts the app if needed, serves on the configured
// address and blocks until SIGINT or SIGTERM, then drains with a
// short grace period.
func (w *WebApp) ListenAndServe() error {
	if err := w.Start(); err != nil {
		return err
	}

	w.mu.Lock()
	w.srv = &http.Server{Addr: w.params.Addr, Handler: w}
	srv := w.srv
	w.mu.Unlock()

	errCh := make(chan error, 1)
	go func() {
		w.log.Info("listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-errCh:
		_ = w.Shutdown(context.Background())
		return err
	case sig := <-quit:
		w.log.Info("shutting down", zap.String("signal", sig.String()))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return w.Shutdown(ctx)
}

// App exposes the registration facade. Valid once Start succeeded;
// later registrations take effect immediately.
func (w *WebApp) App() *App {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.app
}

// Registry exposes the action registry for inspection.
func (w *WebApp) Registry() *Registry {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.registry
}

// Container exposes the component container.
func (w *WebApp) Container() *Container {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.container
}

// Logger exposes the app logger.
func (w *WebApp) Logger() *zap.Logger {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.log
}

func isRouteConflict(err error) bool {
	return errors.Is(err, errRouteConflict)
}

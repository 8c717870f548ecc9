// Package app wires configuration, logging, metrics, tracing and Lua
// commands around engine documents.
package app

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"github.com/dshills/undotree/internal/config"
	"github.com/dshills/undotree/internal/engine"
	"github.com/dshills/undotree/internal/plugin/lua"
)

// Application owns the components shared by all open documents.
type Application struct {
	mu sync.RWMutex

	cfg    config.Config
	opts   Options
	logger *slog.Logger

	// Observability
	registry       *prometheus.Registry
	metrics        *Metrics
	tracerProvider *sdktrace.TracerProvider

	// Extension components
	lua *lua.Registry

	// Document management
	documents *DocumentManager

	closed bool
}

// Options configures the application.
type Options struct {
	// Config is the loaded configuration.
	Config config.Config

	// LogOutput receives log records. Defaults to os.Stderr.
	LogOutput io.Writer

	// TraceOutput receives exported spans when tracing is enabled.
	// Defaults to os.Stderr.
	TraceOutput io.Writer

	// LuaScripts are loaded after the scripts named in Config.
	LuaScripts []string
}

// New creates a new Application with the given options.
func New(opts Options) (*Application, error) {
	if err := opts.Config.Validate(); err != nil {
		return nil, &InitError{Component: "config", Err: err}
	}

	app := &Application{
		cfg:  opts.Config,
		opts: opts,
	}
	if err := newBootstrapper(app, opts).bootstrap(); err != nil {
		return nil, err
	}
	return app, nil
}

// Config returns the configuration the application was built with.
func (app *Application) Config() config.Config {
	return app.cfg
}

// Logger returns the application logger.
func (app *Application) Logger() *slog.Logger {
	return app.logger
}

// Registry returns the Prometheus registry holding the application's
// collectors. It is empty when metrics are disabled.
func (app *Application) Registry() *prometheus.Registry {
	return app.registry
}

// Metrics returns the collectors, or nil when metrics are disabled.
func (app *Application) Metrics() *Metrics {
	return app.metrics
}

// Lua returns the registry of Lua commands.
func (app *Application) Lua() *lua.Registry {
	return app.lua
}

// Documents returns the document manager.
func (app *Application) Documents() *DocumentManager {
	return app.documents
}

// NewDocument opens a document holding content and makes it active.
func (app *Application) NewDocument(name, content string, opts ...engine.Option) (*Document, error) {
	app.mu.RLock()
	defer app.mu.RUnlock()
	if app.closed {
		return nil, ErrClosed
	}

	eopts := append(app.engineOptions(name), engine.WithContent(content))
	eopts = append(eopts, opts...)
	doc := &Document{
		Name:   name,
		Engine: engine.New(eopts...),
	}
	app.documents.Add(doc)

	app.logger.Debug("document opened",
		slog.String("document", name),
		slog.String("id", doc.ID().String()),
		slog.Int("len", len(content)))
	return doc, nil
}

// engineOptions returns the options shared by every document's engine.
func (app *Application) engineOptions(name string) []engine.Option {
	logger := app.logger.With(slog.String("document", name))
	opts := []engine.Option{
		engine.WithLogger(logger),
		engine.WithCompressThreshold(app.cfg.Snapshot.CompressThreshold),
	}
	if app.cfg.History.DebugMoves {
		debug := newLogger(app.cfg.Log.Format, slog.LevelDebug, app.opts.LogOutput)
		opts = append(opts, engine.WithHistoryLogger(debug.With(slog.String("document", name))))
	}
	if app.metrics != nil {
		opts = append(opts,
			engine.WithHistoryObserver(app.metrics),
			engine.WithTransactionObserver(app.metrics))
	}
	if app.tracerProvider != nil {
		opts = append(opts, engine.WithTracer(app.tracerProvider.Tracer("undotree.engine")))
	}
	return opts
}

// CloseDocument closes a document by ID.
func (app *Application) CloseDocument(id uuid.UUID) error {
	if err := app.documents.Close(id); err != nil {
		return &OperationError{Op: "close", Target: id.String(), Err: err}
	}
	return nil
}

// forget is called by the document manager when a document closes.
func (app *Application) forget(doc *Document) {
	if app.metrics != nil {
		app.metrics.Forget(doc.Engine.History())
	}
	app.logger.Debug("document closed", slog.String("document", doc.Name))
}

// RunLua runs the named Lua command against doc as one undoable step.
// args are passed to the command as ctx.args.
func (app *Application) RunLua(ctx context.Context, doc *Document, name string, args ...string) (engine.NodeID, error) {
	app.mu.RLock()
	defer app.mu.RUnlock()
	if app.closed {
		return engine.NoNode, ErrClosed
	}

	id, err := doc.Engine.Apply(ctx, name, app.lua.Edit(name, args...))
	if err != nil {
		return engine.NoNode, &OperationError{Op: "lua " + name, Target: doc.Name, Err: err}
	}
	return id, nil
}

// Shutdown closes every document, flushes pending spans and releases the
// Lua state. Calling Shutdown more than once is a no-op.
func (app *Application) Shutdown(ctx context.Context) error {
	app.mu.Lock()
	defer app.mu.Unlock()
	if app.closed {
		return nil
	}
	app.closed = true

	if dirty := app.documents.DirtyDocuments(); len(dirty) > 0 {
		app.logger.Warn("closing modified documents", slog.Int("count", len(dirty)))
	}
	app.documents.CloseAll()

	var errs []error
	if app.tracerProvider != nil {
		if err := app.tracerProvider.Shutdown(ctx); err != nil {
			errs = append(errs, &OperationError{Op: "shutdown", Target: "tracing", Err: err})
		}
	}
	if err := app.lua.Close(); err != nil {
		errs = append(errs, &OperationError{Op: "shutdown", Target: "lua", Err: err})
	}

	app.logger.Info("application stopped")
	return errors.Join(errs...)
}

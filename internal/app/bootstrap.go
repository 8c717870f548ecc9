package app

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"github.com/dshills/undotree/internal/plugin/lua"
)

// bootstrapper handles component initialization with proper cleanup on failure.
type bootstrapper struct {
	app       *Application
	opts      Options
	initOrder []string
}

// newBootstrapper creates a new bootstrapper for the application.
func newBootstrapper(app *Application, opts Options) *bootstrapper {
	return &bootstrapper{
		app:       app,
		opts:      opts,
		initOrder: make([]string, 0, 5),
	}
}

// bootstrap initializes all components in dependency order.
// On failure, it cleans up already-initialized components.
func (b *bootstrapper) bootstrap() error {
	steps := []func() error{
		b.initLogger,
		b.initMetrics,
		b.initTracing,
		b.initLua,
		b.initDocuments,
	}
	for _, step := range steps {
		if err := step(); err != nil {
			b.cleanup()
			return err
		}
	}
	b.app.logger.Info("application started",
		slog.Bool("metrics", b.app.metrics != nil),
		slog.Bool("tracing", b.app.tracerProvider != nil),
		slog.Int("lua_commands", len(b.app.lua.Names())))
	return nil
}

// initLogger creates the application logger.
func (b *bootstrapper) initLogger() error {
	b.app.logger = NewLogger(b.app.cfg.Log, b.opts.LogOutput)
	b.initOrder = append(b.initOrder, "logger")
	return nil
}

// initMetrics creates the Prometheus registry and, if enabled, the
// collectors attached to every document.
func (b *bootstrapper) initMetrics() error {
	b.app.registry = prometheus.NewRegistry()
	if b.app.cfg.Metrics.Enabled {
		m, err := NewMetrics(b.app.cfg.Metrics.Namespace, b.app.registry)
		if err != nil {
			return &InitError{Component: "metrics", Err: err}
		}
		b.app.metrics = m
	}
	b.initOrder = append(b.initOrder, "metrics")
	return nil
}

// initTracing creates a tracer provider exporting spans as JSON to the
// trace output.
func (b *bootstrapper) initTracing() error {
	if !b.app.cfg.Tracing.Enabled {
		return nil
	}

	w := b.opts.TraceOutput
	if w == nil {
		w = os.Stderr
	}
	exporter, err := stdouttrace.New(stdouttrace.WithWriter(w), stdouttrace.WithPrettyPrint())
	if err != nil {
		return &InitError{Component: "tracing", Err: err}
	}

	res := resource.NewWithAttributes(
		"",
		attribute.String("service.name", b.app.cfg.Tracing.ServiceName),
	)
	b.app.tracerProvider = sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
	)
	b.initOrder = append(b.initOrder, "tracing")
	return nil
}

// initLua creates the Lua state and loads configured scripts followed by
// scripts passed in Options.
func (b *bootstrapper) initLua() error {
	state := lua.NewState(lua.WithCallStackSize(b.app.cfg.Lua.CallStackSize))
	b.app.lua = lua.NewRegistry(state, lua.WithLogger(b.app.logger.With(slog.String("component", "lua"))))
	b.initOrder = append(b.initOrder, "lua")

	scripts := append(append([]string(nil), b.app.cfg.Lua.Scripts...), b.opts.LuaScripts...)
	for _, path := range scripts {
		if err := b.app.lua.LoadFile(path); err != nil {
			return &InitError{Component: "lua", Err: err}
		}
		b.app.logger.Debug("lua script loaded", slog.String("path", path))
	}
	return nil
}

// initDocuments creates the document manager.
func (b *bootstrapper) initDocuments() error {
	b.app.documents = NewDocumentManager(b.app.forget)
	b.initOrder = append(b.initOrder, "documents")
	return nil
}

// cleanup performs cleanup in reverse initialization order.
// Called when bootstrap fails partway through.
func (b *bootstrapper) cleanup() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	for i := len(b.initOrder) - 1; i >= 0; i-- {
		b.cleanupComponent(ctx, b.initOrder[i])
	}
}

// cleanupComponent cleans up a single component.
func (b *bootstrapper) cleanupComponent(ctx context.Context, component string) {
	switch component {
	case "tracing":
		if b.app.tracerProvider != nil {
			_ = b.app.tracerProvider.Shutdown(ctx)
			b.app.tracerProvider = nil
		}
	case "lua":
		if b.app.lua != nil {
			_ = b.app.lua.Close()
			b.app.lua = nil
		}
	case "metrics":
		b.app.metrics = nil
		b.app.registry = nil
	case "documents":
		b.app.documents = nil
	}
}

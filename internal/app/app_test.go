package app

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/undotree/internal/config"
	"github.com/dshills/undotree/internal/engine"
	"github.com/dshills/undotree/internal/plugin/lua"
)

const reverseScript = `
undotree.command("reverse", {
	label = "Reverse",
	execute = function(ctx)
		ctx.before = ctx.doc.text()
		ctx.doc.delete(0, ctx.doc.len())
		ctx.doc.insert(0, string.reverse(ctx.before))
	end,
	undo = function(ctx)
		ctx.doc.delete(0, ctx.doc.len())
		ctx.doc.insert(0, ctx.before)
	end,
})

undotree.command("fail", {
	execute = function(ctx)
		ctx.doc.insert(0, "partial")
		error("refused")
	end,
	undo = function(ctx) end,
})
`

func newTestApp(t *testing.T, mutate func(*config.Config)) (*Application, *bytes.Buffer) {
	t.Helper()

	script := filepath.Join(t.TempDir(), "reverse.lua")
	require.NoError(t, os.WriteFile(script, []byte(reverseScript), 0o600))

	cfg := config.Default()
	cfg.Log.Level = "debug"
	if mutate != nil {
		mutate(&cfg)
	}

	var logs bytes.Buffer
	app, err := New(Options{Config: cfg, LogOutput: &logs, LuaScripts: []string{script}})
	require.NoError(t, err)
	t.Cleanup(func() { _ = app.Shutdown(context.Background()) })
	return app, &logs
}

func TestNewApplication(t *testing.T) {
	app, logs := newTestApp(t, nil)

	assert.NotNil(t, app.Logger())
	assert.NotNil(t, app.Registry())
	assert.NotNil(t, app.Metrics())
	assert.NotNil(t, app.Documents())
	assert.Equal(t, []string{"fail", "reverse"}, app.Lua().Names())
	assert.Contains(t, logs.String(), "application started")
}

func TestNewApplicationInvalidConfig(t *testing.T) {
	cfg := config.Default()
	cfg.Log.Level = "loud"

	_, err := New(Options{Config: cfg})
	var ie *InitError
	require.ErrorAs(t, err, &ie)
	assert.Equal(t, "config", ie.Component)
	assert.ErrorIs(t, err, config.ErrValidationFailed)
}

func TestNewApplicationMissingScript(t *testing.T) {
	cfg := config.Default()
	cfg.Lua.Scripts = []string{filepath.Join(t.TempDir(), "missing.lua")}

	_, err := New(Options{Config: cfg, LogOutput: &bytes.Buffer{}})
	var ie *InitError
	require.ErrorAs(t, err, &ie)
	assert.Equal(t, "lua", ie.Component)
}

func TestApplicationMetricsDisabled(t *testing.T) {
	app, _ := newTestApp(t, func(c *config.Config) { c.Metrics.Enabled = false })

	assert.Nil(t, app.Metrics())
	families, err := app.Registry().Gather()
	require.NoError(t, err)
	assert.Empty(t, families)

	doc, err := app.NewDocument("a", "text")
	require.NoError(t, err)
	_, err = doc.Engine.Insert(context.Background(), 0, "x")
	require.NoError(t, err)
}

func TestApplicationDocuments(t *testing.T) {
	app, _ := newTestApp(t, nil)
	ctx := context.Background()

	a, err := app.NewDocument("a", "alpha")
	require.NoError(t, err)
	b, err := app.NewDocument("b", "beta")
	require.NoError(t, err)

	assert.Equal(t, 2, app.Documents().Count())
	assert.Same(t, b, app.Documents().Active())
	assert.Equal(t, []*Document{a, b}, app.Documents().All())

	found, ok := app.Documents().Find("a")
	require.True(t, ok)
	assert.Same(t, a, found)

	assert.Empty(t, app.Documents().DirtyDocuments())
	_, err = a.Engine.Insert(ctx, 0, ">")
	require.NoError(t, err)
	assert.Equal(t, []*Document{a}, app.Documents().DirtyDocuments())
	assert.True(t, app.Documents().HasDirty())

	m := app.Metrics()
	assert.Equal(t, 1.0, testutil.ToFloat64(m.nodes))

	require.NoError(t, app.CloseDocument(a.ID()))
	assert.Equal(t, 1, app.Documents().Count())
	assert.Equal(t, 0.0, testutil.ToFloat64(m.nodes))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.memory))

	err = app.CloseDocument(a.ID())
	assert.ErrorIs(t, err, ErrDocumentNotFound)
	assert.ErrorIs(t, app.Documents().SetActive(uuid.New()), ErrDocumentNotFound)
}

func TestDocumentManagerActiveAfterClose(t *testing.T) {
	var closed []string
	dm := NewDocumentManager(func(d *Document) { closed = append(closed, d.Name) })

	docs := make([]*Document, 3)
	for i, name := range []string{"a", "b", "c"} {
		docs[i] = &Document{Name: name, Engine: engine.New()}
		dm.Add(docs[i])
	}
	require.NoError(t, dm.SetActive(docs[0].ID()))

	require.NoError(t, dm.Close(docs[0].ID()))
	assert.Same(t, docs[2], dm.Active())

	require.NoError(t, dm.Close(docs[1].ID()))
	assert.Same(t, docs[2], dm.Active())

	dm.CloseAll()
	assert.Nil(t, dm.Active())
	assert.Zero(t, dm.Count())
	assert.Equal(t, []string{"a", "b", "c"}, closed)
}

func TestApplicationRunLua(t *testing.T) {
	app, _ := newTestApp(t, nil)
	ctx := context.Background()

	doc, err := app.NewDocument("a", "abc")
	require.NoError(t, err)

	id, err := app.RunLua(ctx, doc, "reverse")
	require.NoError(t, err)
	assert.NotEqual(t, engine.NoNode, id)
	assert.Equal(t, "cba", doc.Content())

	require.NoError(t, doc.Engine.Undo(ctx))
	assert.Equal(t, "abc", doc.Content())
	require.NoError(t, doc.Engine.Redo(ctx))
	assert.Equal(t, "cba", doc.Content())
}

func TestApplicationRunLuaErrors(t *testing.T) {
	app, _ := newTestApp(t, nil)
	ctx := context.Background()

	doc, err := app.NewDocument("a", "abc")
	require.NoError(t, err)

	_, err = app.RunLua(ctx, doc, "missing")
	var oe *OperationError
	require.ErrorAs(t, err, &oe)
	assert.Equal(t, "a", oe.Target)
	assert.ErrorIs(t, err, lua.ErrUnknownCommand)

	_, err = app.RunLua(ctx, doc, "fail")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "refused")
	assert.Equal(t, "abc", doc.Content())
	assert.False(t, doc.Engine.CanUndo())
	assert.False(t, doc.IsModified())
	// Both aborted edits opened a transaction and rolled it back.
	assert.Equal(t, 2.0, testutil.ToFloat64(app.Metrics().rollbacks))
	assert.Equal(t, 0.0, testutil.ToFloat64(app.Metrics().commits))
}

func TestApplicationDebugMoves(t *testing.T) {
	app, logs := newTestApp(t, func(c *config.Config) {
		c.Log.Level = "error"
		c.History.DebugMoves = true
	})
	ctx := context.Background()

	doc, err := app.NewDocument("a", "")
	require.NoError(t, err)
	_, err = doc.Engine.Insert(ctx, 0, "x")
	require.NoError(t, err)
	require.NoError(t, doc.Engine.Undo(ctx))

	assert.Contains(t, logs.String(), "history move")
	assert.NotContains(t, logs.String(), "application started")
}

func TestApplicationTracing(t *testing.T) {
	var traces bytes.Buffer
	cfg := config.Default()
	cfg.Tracing.Enabled = true
	cfg.Tracing.ServiceName = "undotree-test"

	app, err := New(Options{Config: cfg, LogOutput: &bytes.Buffer{}, TraceOutput: &traces})
	require.NoError(t, err)

	doc, err := app.NewDocument("a", "")
	require.NoError(t, err)
	_, err = doc.Engine.Insert(context.Background(), 0, "x")
	require.NoError(t, err)

	require.NoError(t, app.Shutdown(context.Background()))
	assert.Contains(t, traces.String(), "engine.Apply")
	assert.Contains(t, traces.String(), "undotree-test")
}

func TestApplicationShutdown(t *testing.T) {
	app, _ := newTestApp(t, nil)

	_, err := app.NewDocument("a", "")
	require.NoError(t, err)

	require.NoError(t, app.Shutdown(context.Background()))
	require.NoError(t, app.Shutdown(context.Background()))
	assert.Zero(t, app.Documents().Count())

	_, err = app.NewDocument("b", "")
	assert.ErrorIs(t, err, ErrClosed)
}

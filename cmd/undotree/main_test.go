package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/undotree/internal/engine"
	"github.com/dshills/undotree/internal/script"
)

func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	cmd := newRootCmd(&stdout, &stderr)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

const branchYAML = `
name: branch
steps:
  - insert: {at: 0, text: "a"}
  - insert: {at: 1, text: "b"}
  - undo: 1
  - insert: {at: 1, text: "c"}
  - expect: "ac"
`

func TestVersion(t *testing.T) {
	out, _, err := execute(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "undotree dev")
}

func TestRunTreeAndMetrics(t *testing.T) {
	path := writeFile(t, "branch.yaml", branchYAML)

	out, _, err := execute(t, "run", path, "--tree", "--metrics", "--log-level", "error")
	require.NoError(t, err)

	assert.Contains(t, out, "branch: 5/5 steps, 3 nodes created")
	assert.Contains(t, out, `text: "ac"`)
	assert.Contains(t, out, "root (saved)\n└── 1 Insert\n    ├── 2 Insert\n    └── 3 Insert *\n")
	assert.Contains(t, out, "undotree_transaction_commits_total 3")
	assert.Contains(t, out, "undotree_history_nodes 3")
}

func TestRunLuaFlag(t *testing.T) {
	lua := writeFile(t, "upper.lua", `
undotree.command("upper", {
	execute = function(ctx)
		ctx.before = ctx.doc.text()
		ctx.doc.delete(0, ctx.doc.len())
		ctx.doc.insert(0, string.upper(ctx.before))
	end,
	undo = function(ctx)
		ctx.doc.delete(0, ctx.doc.len())
		ctx.doc.insert(0, ctx.before)
	end,
})
`)
	path := writeFile(t, "upper.yaml", "text: shout\nsteps:\n  - lua: upper\n  - expect: SHOUT\n")

	out, _, err := execute(t, "run", path, "--lua", lua, "--log-level", "error")
	require.NoError(t, err)
	assert.Contains(t, out, `text: "SHOUT"`)
}

func TestRunFailingExpectation(t *testing.T) {
	path := writeFile(t, "bad.yaml", "steps:\n  - insert: {at: 0, text: x}\n  - expect: y\n")

	out, _, err := execute(t, "run", path, "--log-level", "error")
	require.Error(t, err)
	assert.ErrorIs(t, err, script.ErrExpectation)
	assert.Contains(t, out, "1/2 steps")
}

func TestRunErrors(t *testing.T) {
	_, _, err := execute(t, "run")
	assert.Error(t, err)

	_, _, err = execute(t, "run", filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)

	path := writeFile(t, "ok.yaml", branchYAML)
	_, _, err = execute(t, "run", path, "--log-level", "loud")
	assert.Error(t, err)
}

func TestRunConfigFile(t *testing.T) {
	cfg := writeFile(t, "undotree.toml", "[metrics]\nenabled = true\nnamespace = \"custom\"\n\n[log]\nlevel = \"error\"\n")
	path := writeFile(t, "branch.yaml", branchYAML)

	out, _, err := execute(t, "run", path, "--config", cfg, "--metrics")
	require.NoError(t, err)
	assert.Contains(t, out, "custom_transaction_commits_total 3")
}

func TestWriteTree(t *testing.T) {
	e := engine.New()
	ctx := context.Background()

	_, err := e.Insert(ctx, 0, "a")
	require.NoError(t, err)
	e.MarkSaved()
	_, err = e.Insert(ctx, 1, "b")
	require.NoError(t, err)
	require.NoError(t, e.GoTo(ctx, engine.NoNode))
	_, err = e.Insert(ctx, 0, "z")
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, writeTree(&buf, e.History()))
	assert.Equal(t, `root
├── 1 Insert (saved)
│   └── 2 Insert
└── 3 Insert *
`, buf.String())
}

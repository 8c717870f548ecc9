package lua

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/undotree/internal/engine"
	"github.com/dshills/undotree/internal/engine/history"
)

var errBounds = errors.New("out of bounds")

// textDoc is a minimal Document.
type textDoc struct {
	text string
}

func (d *textDoc) Text() string { return d.text }

func (d *textDoc) Len() int { return len(d.text) }

func (d *textDoc) Insert(at int, s string) error {
	if at < 0 || at > len(d.text) {
		return errBounds
	}
	d.text = d.text[:at] + s + d.text[at:]
	return nil
}

func (d *textDoc) Delete(from, to int) error {
	if from < 0 || to > len(d.text) || from > to {
		return errBounds
	}
	d.text = d.text[:from] + d.text[to:]
	return nil
}

const upperScript = `
undotree.command("upper", {
	label = "Uppercase",
	size = 12,
	execute = function(ctx)
		ctx.before = ctx.doc.text()
		ctx.doc.delete(0, ctx.doc.len())
		ctx.doc.insert(0, string.upper(ctx.before))
	end,
	undo = function(ctx)
		ctx.doc:delete(0, ctx.doc:len())
		ctx.doc:insert(0, ctx.before)
	end,
})

undotree.command("append", {
	execute = function(ctx)
		ctx.at = ctx.doc.len()
		ctx.doc.insert(ctx.at, ctx.args[1])
	end,
	undo = function(ctx)
		ctx.doc.delete(ctx.at, ctx.at + string.len(ctx.args[1]))
	end,
	redo = function(ctx)
		ctx.doc.insert(ctx.at, ctx.args[1])
		ctx.redone = true
	end,
})

undotree.command("mark", {
	changes_saved = false,
	execute = function(ctx) end,
	undo = function(ctx) end,
})

undotree.command("broken", {
	execute = function(ctx) ctx.doc.insert(999, "x") end,
	undo = function(ctx) end,
})
`

func newTestRegistry(t *testing.T) *Registry {
	t.Helper()
	reg := NewRegistry(NewState())
	t.Cleanup(func() { _ = reg.Close() })
	require.NoError(t, reg.LoadString("test", upperScript))
	return reg
}

func TestRegistryNames(t *testing.T) {
	reg := newTestRegistry(t)
	assert.Equal(t, []string{"append", "broken", "mark", "upper"}, reg.Names())
}

func TestCommandLifecycle(t *testing.T) {
	reg := newTestRegistry(t)
	doc := &textDoc{text: "hello"}

	cmd, err := reg.Command("upper", doc)
	require.NoError(t, err)
	assert.Equal(t, "Uppercase", cmd.Label())
	assert.Equal(t, "upper", cmd.Name())
	assert.Equal(t, 12, cmd.MemorySize())
	assert.True(t, cmd.ChangesSavedState())

	require.NoError(t, cmd.Execute())
	assert.Equal(t, "HELLO", doc.text)
	require.NoError(t, cmd.Undo())
	assert.Equal(t, "hello", doc.text)
	require.NoError(t, cmd.Redo())
	assert.Equal(t, "HELLO", doc.text)
}

func TestCommandArgsAndRedo(t *testing.T) {
	reg := newTestRegistry(t)
	doc := &textDoc{text: "ab"}

	cmd, err := reg.Command("append", doc, "cd")
	require.NoError(t, err)
	assert.Equal(t, "append", cmd.Label(), "label defaults to the name")
	assert.Equal(t, defaultCommandSize, cmd.MemorySize())

	require.NoError(t, cmd.Execute())
	assert.Equal(t, "abcd", doc.text)
	require.NoError(t, cmd.Undo())
	assert.Equal(t, "ab", doc.text)
	require.NoError(t, cmd.Redo())
	assert.Equal(t, "abcd", doc.text)
}

func TestCommandInstancesAreIndependent(t *testing.T) {
	reg := newTestRegistry(t)
	doc := &textDoc{text: ""}

	first, err := reg.Command("append", doc, "x")
	require.NoError(t, err)
	second, err := reg.Command("append", doc, "yy")
	require.NoError(t, err)

	require.NoError(t, first.Execute())
	require.NoError(t, second.Execute())
	assert.Equal(t, "xyy", doc.text)

	require.NoError(t, second.Undo())
	require.NoError(t, first.Undo())
	assert.Equal(t, "", doc.text)
}

func TestCommandInHistory(t *testing.T) {
	reg := newTestRegistry(t)
	doc := &textDoc{text: "abc"}
	h := history.New()

	cmd, err := reg.Command("upper", doc)
	require.NoError(t, err)
	require.NoError(t, cmd.Execute())
	h.Add(cmd)

	mark, err := reg.Command("mark", doc)
	require.NoError(t, err)
	assert.False(t, mark.ChangesSavedState())

	require.NoError(t, h.Undo())
	assert.Equal(t, "abc", doc.text)
	require.NoError(t, h.Redo())
	assert.Equal(t, "ABC", doc.text)
}

func TestCommandErrors(t *testing.T) {
	reg := newTestRegistry(t)
	doc := &textDoc{text: "abc"}

	_, err := reg.Command("missing", doc)
	assert.ErrorIs(t, err, ErrUnknownCommand)

	broken, err := reg.Command("broken", doc)
	require.NoError(t, err)
	err = broken.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), errBounds.Error())
	assert.Equal(t, history.StatePending, broken.State())
	assert.Equal(t, "abc", doc.text)
}

func TestCommandContract(t *testing.T) {
	reg := newTestRegistry(t)
	cmd, err := reg.Command("upper", &textDoc{text: "a"})
	require.NoError(t, err)

	assert.PanicsWithError(t, `command "Uppercase": undo called in state pending`, func() { _ = cmd.Undo() })
}

func TestRegisterInvalidDefinition(t *testing.T) {
	tests := map[string]string{
		"missing undo": `undotree.command("x", { execute = function() end })`,
		"bad redo":     `undotree.command("x", { execute = function() end, undo = function() end, redo = 1 })`,
		"no table":     `undotree.command("x", 5)`,
	}
	for name, code := range tests {
		t.Run(name, func(t *testing.T) {
			reg := NewRegistry(NewState())
			defer reg.Close()
			assert.Error(t, reg.LoadString(name, code))
			assert.Empty(t, reg.Names())
		})
	}

	t.Run("bad label", func(t *testing.T) {
		reg := NewRegistry(NewState())
		defer reg.Close()
		require.NoError(t, reg.LoadString("x", `undotree.command("x", { label = {}, execute = function() end, undo = function() end })`))
		_, err := reg.Command("x", &textDoc{})
		assert.ErrorIs(t, err, ErrInvalidCommand)
	})
}

func TestRegistryLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "commands.lua")
	require.NoError(t, os.WriteFile(path, []byte(upperScript), 0o600))

	reg := NewRegistry(NewState())
	defer reg.Close()
	require.NoError(t, reg.LoadFile(path))
	assert.Contains(t, reg.Names(), "upper")

	err := reg.LoadFile(filepath.Join(t.TempDir(), "missing.lua"))
	assert.Error(t, err)
}

const partialScript = `
undotree.command("wipe", {
	execute = function(ctx)
		ctx.doc.delete(0, ctx.doc.len())
		ctx.doc.insert(0, "gone")
		error("boom")
	end,
	undo = function(ctx) end,
})

undotree.command("flaky", {
	execute = function(ctx) ctx.doc.insert(0, ">") end,
	undo = function(ctx) ctx.doc.delete(0, 1) end,
	redo = function(ctx)
		ctx.doc.insert(0, ">")
		ctx.doc.insert(0, ">")
		error("boom")
	end,
})
`

func TestCommandFailureRevertsEdits(t *testing.T) {
	reg := newTestRegistry(t)
	require.NoError(t, reg.LoadString("partial", partialScript))

	doc := &textDoc{text: "hello"}
	wipe, err := reg.Command("wipe", doc)
	require.NoError(t, err)
	err = wipe.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "boom")
	assert.Equal(t, "hello", doc.text)
	assert.Equal(t, history.StatePending, wipe.State())

	flaky, err := reg.Command("flaky", doc)
	require.NoError(t, err)
	require.NoError(t, flaky.Execute())
	require.NoError(t, flaky.Undo())
	require.Error(t, flaky.Redo())
	assert.Equal(t, "hello", doc.text)
	assert.Equal(t, history.StateUndone, flaky.State())
}

func TestCommandFailureInsideApply(t *testing.T) {
	reg := newTestRegistry(t)
	require.NoError(t, reg.LoadString("partial", partialScript))
	ctx := context.Background()

	e := engine.New(engine.WithContent("hello"))
	_, err := e.Apply(ctx, "Wipe", reg.Edit("wipe"))
	require.Error(t, err)
	assert.Equal(t, "hello", e.Text())
	assert.False(t, e.CanUndo())

	_, err = e.Apply(ctx, "Both", func(ed *engine.Edit) error {
		if err := ed.Insert(5, "!"); err != nil {
			return err
		}
		return reg.Edit("wipe")(ed)
	})
	require.Error(t, err)
	assert.Equal(t, "hello", e.Text())
	assert.False(t, e.CanUndo())
}

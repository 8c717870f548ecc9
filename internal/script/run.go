package script

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/dshills/undotree/internal/engine"
	"github.com/dshills/undotree/internal/plugin/lua"
)

// Runner replays scripts.
type Runner struct {
	lua    *lua.Registry
	logger *slog.Logger
}

// Option configures a Runner.
type Option func(*Runner)

// WithLua sets the registry lua steps draw commands from.
func WithLua(reg *lua.Registry) Option {
	return func(r *Runner) {
		r.lua = reg
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Runner) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// NewRunner creates a Runner.
func NewRunner(opts ...Option) *Runner {
	r := &Runner{
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Result summarizes a run.
type Result struct {
	// Steps is the number of top-level steps that completed.
	Steps int
	// Nodes lists the history nodes created by edit steps, in order.
	Nodes []engine.NodeID
}

// Run replays s against e with a Runner built from opts.
func Run(ctx context.Context, e *engine.Engine, s *Script, opts ...Option) (*Result, error) {
	return NewRunner(opts...).Run(ctx, e, s)
}

// Run applies the steps of s to e in order. Each edit step, and each group,
// becomes one history node. Run stops at the first failing step and
// returns a *StepError along with the partial result.
func (r *Runner) Run(ctx context.Context, e *engine.Engine, s *Script) (*Result, error) {
	res := &Result{}
	for i, step := range s.Steps {
		if err := ctx.Err(); err != nil {
			return res, err
		}

		kind := step.Kind()
		id, err := r.step(ctx, e, step)
		if err != nil {
			r.logger.Debug("script step failed",
				slog.String("script", s.Name),
				slog.Int("step", i),
				slog.String("kind", kind),
				slog.Any("error", err))
			return res, &StepError{Index: i, Kind: kind, Err: err}
		}
		if id != engine.NoNode {
			res.Nodes = append(res.Nodes, id)
		}
		res.Steps++

		r.logger.Debug("script step",
			slog.String("script", s.Name),
			slog.Int("step", i),
			slog.String("kind", kind),
			slog.Int("current", int(e.Current())))
	}
	return res, nil
}

func (r *Runner) step(ctx context.Context, e *engine.Engine, step Step) (engine.NodeID, error) {
	switch kind := step.Kind(); kind {
	case "insert", "delete", "replace", "select", "lua":
		return e.Apply(ctx, label(step), func(ed *engine.Edit) error {
			return r.edit(ed, step)
		})
	case "group":
		name := step.Group.Label
		if name == "" {
			name = "Group"
		}
		return e.Apply(ctx, name, func(ed *engine.Edit) error {
			for i, sub := range step.Group.Steps {
				if err := r.edit(ed, sub); err != nil {
					return &StepError{Index: i, Kind: sub.Kind(), Err: err}
				}
			}
			return nil
		})
	case "undo":
		for i := 0; i < step.Undo; i++ {
			if err := e.Undo(ctx); err != nil {
				return engine.NoNode, err
			}
		}
	case "redo":
		for i := 0; i < step.Redo; i++ {
			if err := e.Redo(ctx); err != nil {
				return engine.NoNode, err
			}
		}
	case "goto":
		return engine.NoNode, e.GoTo(ctx, engine.NodeID(*step.GoTo))
	case "clear_redo":
		return engine.NoNode, e.ClearRedo()
	case "save":
		e.MarkSaved()
	case "expect":
		return engine.NoNode, check(e, step.Expect)
	default:
		return engine.NoNode, ErrInvalidStep
	}
	return engine.NoNode, nil
}

// edit performs one edit step inside an Apply callback.
func (r *Runner) edit(ed *engine.Edit, step Step) error {
	switch {
	case step.Insert != nil:
		return ed.Insert(step.Insert.At, step.Insert.Text)
	case step.Delete != nil:
		return ed.Delete(step.Delete.From, step.Delete.To)
	case step.Replace != nil:
		return ed.Replace(step.Replace.From, step.Replace.To, step.Replace.Text)
	case step.Select != nil:
		return ed.Select(step.Select.Anchor, step.Select.Head)
	case step.Lua != nil:
		if r.lua == nil {
			return ErrNoLua
		}
		return r.lua.Edit(step.Lua.Name, step.Lua.Args...)(ed)
	}
	return ErrInvalidStep
}

func label(step Step) string {
	switch {
	case step.Insert != nil:
		return "Insert"
	case step.Delete != nil:
		return "Delete"
	case step.Replace != nil:
		return "Replace"
	case step.Select != nil:
		return "Select"
	case step.Lua != nil:
		return step.Lua.Name
	}
	return ""
}

// check compares e against exp and reports every mismatch at once.
func check(e *engine.Engine, exp *Expect) error {
	var diffs []string
	if exp.Text != nil {
		if got := e.Text(); got != *exp.Text {
			diffs = append(diffs, fmt.Sprintf("text = %q, want %q", got, *exp.Text))
		}
	}
	if exp.Selection != nil {
		if got := e.Selection().String(); got != *exp.Selection {
			diffs = append(diffs, fmt.Sprintf("selection = %s, want %s", got, *exp.Selection))
		}
	}
	if exp.Current != nil {
		if got := int(e.Current()); got != *exp.Current {
			diffs = append(diffs, fmt.Sprintf("current = %d, want %d", got, *exp.Current))
		}
	}
	if exp.CanUndo != nil {
		if got := e.CanUndo(); got != *exp.CanUndo {
			diffs = append(diffs, fmt.Sprintf("can_undo = %t, want %t", got, *exp.CanUndo))
		}
	}
	if exp.CanRedo != nil {
		if got := e.CanRedo(); got != *exp.CanRedo {
			diffs = append(diffs, fmt.Sprintf("can_redo = %t, want %t", got, *exp.CanRedo))
		}
	}
	if exp.Modified != nil {
		if got := e.IsModified(); got != *exp.Modified {
			diffs = append(diffs, fmt.Sprintf("modified = %t, want %t", got, *exp.Modified))
		}
	}
	if len(diffs) > 0 {
		return fmt.Errorf("%w: %s", ErrExpectation, strings.Join(diffs, "; "))
	}
	return nil
}

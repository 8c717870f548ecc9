package engine

import (
	"context"
	"strings"
	"testing"
)

// ============================================================================
// Setup Helpers
// ============================================================================

func setupEditedEngine(b *testing.B, edits int) *Engine {
	b.Helper()
	ctx := context.Background()
	e := New(WithContent(strings.Repeat("x", 80)))
	for i := 0; i < edits; i++ {
		if _, err := e.Insert(ctx, i%80, "y"); err != nil {
			b.Fatal(err)
		}
	}
	return e
}

// ============================================================================
// Edit Benchmarks
// ============================================================================

func BenchmarkEngineInsert(b *testing.B) {
	ctx := context.Background()
	e := New()
	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		_, _ = e.Insert(ctx, 0, "x")
	}
}

func BenchmarkEngineApplyGroup(b *testing.B) {
	ctx := context.Background()
	e := New()
	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		_, _ = e.Apply(ctx, "group", func(ed *Edit) error {
			for j := 0; j < 10; j++ {
				if err := ed.Insert(0, "x"); err != nil {
					return err
				}
			}
			return nil
		})
	}
}

// ============================================================================
// History Benchmarks
// ============================================================================

func BenchmarkEngineUndoRedo(b *testing.B) {
	ctx := context.Background()
	e := setupEditedEngine(b, 1000)
	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		_ = e.Undo(ctx)
		_ = e.Redo(ctx)
	}
}

func BenchmarkEngineGoToRoot(b *testing.B) {
	ctx := context.Background()
	e := setupEditedEngine(b, 1000)
	last := e.Current()
	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		_ = e.GoTo(ctx, NoNode)
		_ = e.GoTo(ctx, last)
	}
}

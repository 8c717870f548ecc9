package main

import (
	"bytes"
	"context"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func TestWatchReruns(t *testing.T) {
	path := writeFile(t, "watch.yaml", "steps:\n  - insert: {at: 0, text: one}\n")

	ctx, cancel := context.WithCancel(context.Background())
	var out, errOut syncBuffer
	done := make(chan error, 1)
	go func() {
		done <- watchScript(ctx, &out, &errOut, path, runFlags{logLevel: "error"}, 20*time.Millisecond)
	}()

	require.Eventually(t, func() bool {
		return strings.Contains(out.String(), "watching for changes")
	}, 5*time.Second, 10*time.Millisecond)

	require.NoError(t, os.WriteFile(path, []byte("steps:\n  - insert: {at: 0, text: two}\n  - expect: three\n"), 0o600))

	require.Eventually(t, func() bool {
		return strings.Contains(out.String(), `text: "two"`)
	}, 5*time.Second, 10*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("watch did not stop")
	}

	got := out.String()
	assert.Contains(t, got, `text: "one"`)
	assert.Contains(t, got, "changed: [")
	assert.Contains(t, got, "1/2 steps")
	assert.Contains(t, got, "error: ")
}

func TestWatchMissingFile(t *testing.T) {
	_, _, err := execute(t, "watch", "does-not-exist.yaml")
	assert.ErrorIs(t, err, os.ErrNotExist)
}

package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/dshills/undotree/internal/watch"
)

func newWatchCmd() *cobra.Command {
	var (
		flags    runFlags
		debounce time.Duration
	)
	cmd := &cobra.Command{
		Use:   "watch SCRIPT",
		Short: "Re-run an edit script whenever it changes",
		Long: `Watch runs the script once and then again each time the script, the
configuration file or one of the --lua files is saved. A failing run is
reported and watching continues. Stop with Ctrl-C.`,
		Example: `  undotree watch branch.yaml --tree
  undotree watch wrap.yaml --lua commands.lua --debounce 250ms`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return watchScript(ctx, cmd.OutOrStdout(), cmd.ErrOrStderr(), args[0], flags, debounce)
		},
	}
	bindRunFlags(cmd, &flags)
	cmd.Flags().DurationVar(&debounce, "debounce", watch.DefaultDelay, "Quiet period before a change triggers a run")
	return cmd
}

// watchScript runs the script, then re-runs it for every batch of changes
// until ctx is done.
func watchScript(ctx context.Context, out, errOut io.Writer, path string, flags runFlags, debounce time.Duration) error {
	files := append([]string{path}, flags.lua...)
	if flags.configPath != "" {
		files = append(files, flags.configPath)
	}

	logger := slog.New(slog.NewTextHandler(errOut, &slog.HandlerOptions{Level: slog.LevelWarn}))
	w, err := watch.New(files, watch.WithDelay(debounce), watch.WithLogger(logger))
	if err != nil {
		return err
	}
	defer w.Close()

	rerun := func() {
		if err := runScript(ctx, out, errOut, path, flags); err != nil && !errors.Is(err, context.Canceled) {
			fmt.Fprintf(out, "error: %v\n", err)
		}
		fmt.Fprintln(out, "watching for changes...")
	}

	rerun()
	for {
		select {
		case <-ctx.Done():
			return nil
		case changed, ok := <-w.Changes():
			if !ok {
				return nil
			}
			fmt.Fprintf(out, "\nchanged: %v\n", changed)
			rerun()
		}
	}
}

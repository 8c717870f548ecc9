package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"
	"github.com/spf13/cobra"

	"github.com/dshills/undotree/internal/app"
	"github.com/dshills/undotree/internal/config"
	"github.com/dshills/undotree/internal/script"
)

type runFlags struct {
	configPath string
	logLevel   string
	lua        []string
	tree       bool
	metrics    bool
	trace      bool
}

func newRunCmd() *cobra.Command {
	var flags runFlags
	cmd := &cobra.Command{
		Use:   "run SCRIPT",
		Short: "Run an edit script",
		Long: `Run applies the steps of a YAML edit script to a new document and
prints the resulting text. The command fails if any step fails, including
an expect step whose check does not match.`,
		Example: `  undotree run branch.yaml --tree
  undotree run wrap.yaml --lua commands.lua --metrics`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runScript(ctx, cmd.OutOrStdout(), cmd.ErrOrStderr(), args[0], flags)
		},
	}
	bindRunFlags(cmd, &flags)
	return cmd
}

func bindRunFlags(cmd *cobra.Command, flags *runFlags) {
	f := cmd.Flags()
	f.StringVarP(&flags.configPath, "config", "c", "", "Path to configuration file (.toml, .yaml)")
	f.StringVar(&flags.logLevel, "log-level", "", "Log level (debug, info, warn, error); overrides config")
	f.StringSliceVar(&flags.lua, "lua", nil, "Lua script defining commands (repeatable)")
	f.BoolVar(&flags.tree, "tree", false, "Print the history tree after the run")
	f.BoolVar(&flags.metrics, "metrics", false, "Print metrics in Prometheus text format after the run")
	f.BoolVar(&flags.trace, "trace", false, "Export spans to stderr")
}

// runScript loads the config and script at path, runs the script against a
// fresh application and reports the outcome to out.
func runScript(ctx context.Context, out, errOut io.Writer, path string, flags runFlags) error {
	cfg, err := config.Load(flags.configPath)
	if err != nil {
		return err
	}
	if flags.logLevel != "" {
		cfg.Log.Level = flags.logLevel
	}
	if flags.metrics {
		cfg.Metrics.Enabled = true
	}
	if flags.trace {
		cfg.Tracing.Enabled = true
	}

	s, err := script.Load(path)
	if err != nil {
		return err
	}

	application, err := app.New(app.Options{
		Config:      cfg,
		LogOutput:   errOut,
		TraceOutput: errOut,
		LuaScripts:  flags.lua,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize: %w", err)
	}
	defer func() { _ = application.Shutdown(context.Background()) }()

	doc, err := application.NewDocument(s.Name, s.Text)
	if err != nil {
		return err
	}
	res, runErr := script.Run(ctx, doc.Engine, s,
		script.WithLua(application.Lua()),
		script.WithLogger(application.Logger()))

	fmt.Fprintf(out, "%s: %d/%d steps, %d nodes created\n", s.Name, res.Steps, len(s.Steps), len(res.Nodes))
	fmt.Fprintf(out, "text: %q\n", doc.Content())
	if flags.tree {
		if err := writeTree(out, doc.Engine.History()); err != nil {
			return err
		}
	}
	if flags.metrics {
		if err := writeMetrics(out, application.Registry()); err != nil {
			return err
		}
	}
	return runErr
}

// writeMetrics prints every gathered family in the Prometheus text format.
func writeMetrics(w io.Writer, g prometheus.Gatherer) error {
	families, err := g.Gather()
	if err != nil {
		return fmt.Errorf("gather metrics: %w", err)
	}
	for _, mf := range families {
		if _, err := expfmt.MetricFamilyToText(w, mf); err != nil {
			return err
		}
	}
	return nil
}

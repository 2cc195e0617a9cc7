// Command eda runs the fraud, movies and sales analyses and prints their
// reports.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/cuthie/Data-Science-Portfolio/pkg/analysis"
	"github.com/cuthie/Data-Science-Portfolio/pkg/config"
	"github.com/cuthie/Data-Science-Portfolio/pkg/logging"
)

type options struct {
	envFile  string
	logLevel string
	plotDir  string
	threads  int
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		stop()
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &options{}
	root := &cobra.Command{
		Use:           "eda",
		Short:         "Run the tabular analysis pipelines",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	flags := root.PersistentFlags()
	flags.StringVar(&opts.envFile, "env", ".env", "optional .env file")
	flags.StringVar(&opts.logLevel, "log-level", "", "override LOG_LEVEL")
	flags.StringVar(&opts.plotDir, "plots", "", "override PLOT_DIR")
	flags.IntVar(&opts.threads, "threads", 0, "override ENGINE_THREADS")

	for _, name := range analysis.Names() {
		root.AddCommand(&cobra.Command{
			Use:   name,
			Short: "Run the " + name + " analysis",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return run(cmd, opts, name)
			},
		})
	}
	root.AddCommand(&cobra.Command{
		Use:   "all",
		Short: "Run every analysis in turn",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd, opts, analysis.Names()...)
		},
	})
	return root
}

func run(cmd *cobra.Command, opts *options, names ...string) error {
	cfg, err := config.Load(opts.envFile)
	if err != nil {
		return err
	}
	if opts.logLevel != "" {
		cfg.LogLevel = opts.logLevel
	}
	if opts.plotDir != "" {
		cfg.PlotDir = opts.plotDir
	}
	if cmd.Flags().Changed("threads") {
		cfg.EngineThreads = opts.threads
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	log, err := logging.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	for _, name := range names {
		rep, err := analysis.Run(cmd.Context(), name, cfg, log)
		if err != nil {
			return err
		}
		if err := rep.Print(cmd.OutOrStdout()); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout())
		log.Info("Report written", zap.String("pipeline", name), zap.String("report_id", rep.ID.String()))
	}
	return nil
}

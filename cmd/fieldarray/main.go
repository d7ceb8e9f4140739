// Command fieldarray builds, inspects and publishes field array snapshots.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/hupe1980/fieldarray"
)

// app carries the state shared by all subcommands.
type app struct {
	configPath  string
	logLevel    string
	compression string

	cfg    *Config
	logger *fieldarray.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:   "fieldarray",
		Short: "Build, inspect and publish field array snapshots",
		Long: `fieldarray manages snapshots of fixed-width field arrays.

Snapshots are built from CSV files of "index,value" lines, inspected locally
and published as numbered versions to a blob store (local directory, SQLite,
S3 or MinIO) selected in the YAML config file.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.init(cmd)
		},
	}

	root.PersistentFlags().StringVarP(&a.configPath, "config", "c", "fieldarray.yaml", "config file")
	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "log level (debug, info, warn, error)")
	root.PersistentFlags().StringVar(&a.compression, "compression", "", "snapshot compression (none, lz4, zstd)")

	root.AddCommand(
		newBuildCmd(a),
		newGetCmd(a),
		newInspectCmd(a),
		newMatchCmd(a),
		newPublishCmd(a),
		newLatestCmd(a),
		newVersionsCmd(a),
		newPruneCmd(a),
	)
	return root
}

func (a *app) init(cmd *cobra.Command) error {
	cfg, err := LoadConfig(a.configPath)
	if err != nil {
		return err
	}
	if a.logLevel != "" {
		cfg.LogLevel = a.logLevel
	}
	if a.compression != "" {
		cfg.Compression = a.compression
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	level, err := cfg.Level()
	if err != nil {
		return err
	}
	a.cfg = cfg
	a.logger = fieldarray.NewLogger(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))
	return nil
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

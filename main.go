package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"

	"github.com/nconklindev/tabjson/internal/batch"
	"github.com/nconklindev/tabjson/internal/config"
	"github.com/nconklindev/tabjson/internal/converter"
	"github.com/nconklindev/tabjson/internal/ui"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

type runOptions struct {
	configPath string
	plain      bool
	dryRun     bool
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var opts runOptions

	cmd := &cobra.Command{
		Use:   "tabjson",
		Short: "Convert CSV and XLSX tables into JSON documents",
		Long: `tabjson converts each configured table into a JSON array holding one
object per data row, keyed by the table's header row. Every value is kept
as a string.

With no configuration it converts ny_data.csv, nj_data.csv and pa_data.csv
in the working directory into the matching .json files.`,
		Args:          cobra.NoArgs,
		Version:       fmt.Sprintf("%s\ncommit: %s\nbuilt: %s", version, commit, date),
		SilenceUsage:  true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), opts, cmd.OutOrStdout(), cmd.ErrOrStderr())
		},
	}
	cmd.SetVersionTemplate("tabjson {{.Version}}\n")

	cmd.Flags().StringVar(&opts.configPath, "config", "", "config file (default: ./"+config.DefaultFile+" if present)")
	cmd.Flags().BoolVar(&opts.plain, "plain", false, "print plain status lines instead of the progress view")
	cmd.Flags().BoolVar(&opts.dryRun, "dry-run", false, "parse every source without writing any destination")

	return cmd
}

func run(ctx context.Context, opts runOptions, stdout, stderr io.Writer) error {
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return err
	}

	useView := !opts.plain && isTerminal(stdout)
	setupLogging(cfg, stderr, useView)

	jobs := cfg.ResolvedJobs()
	batchOpts := batch.Options{
		Converter:   converter.Options{OverflowKey: cfg.OverflowKey},
		StopOnError: cfg.StopOnError,
		DryRun:      opts.dryRun,
	}

	var summary batch.Summary
	if useView {
		p := tea.NewProgram(ui.NewModel(ctx, batch.NewRunner(batchOpts), jobs), tea.WithOutput(stdout))
		final, err := p.Run()
		if err != nil {
			return fmt.Errorf("progress view: %w", err)
		}
		summary = final.(ui.Model).Summary()
	} else {
		summary = batch.Run(ctx, jobs, batchOpts)
		summary.Print(stdout)
	}

	if err := summary.Err(); err != nil {
		return err
	}
	if summary.Cancelled() {
		return fmt.Errorf("run interrupted after %d of %d jobs: %w",
			summary.Total()-summary.Skipped, summary.Total(), context.Canceled)
	}
	return nil
}

// setupLogging installs the default slog logger. While the progress view owns
// the terminal, log output is dropped; failures are still reported on exit.
func setupLogging(cfg *config.Config, w io.Writer, quiet bool) {
	level, _ := config.ParseLevel(cfg.LogLevel)
	if quiet {
		w = io.Discard
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if cfg.LogFormat == "json" {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}
	slog.SetDefault(slog.New(handler))
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// Command venuequery builds a venue performance report from the command line.
//
// Usage:
//
//	venuequery report --player "Aaron Judge" --venue "Dodger Stadium" --season 2023 --season 2024
//	venuequery report --player Ohtani --venue Fenway --season 2024 --pitch-detail --pretty
//	venuequery get 0192f1a4-...
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/bytedance/sonic"
	"github.com/joho/godotenv"
	"github.com/riskibarqy/venue-insights/internal/app"
	"github.com/riskibarqy/venue-insights/internal/config"
	"github.com/riskibarqy/venue-insights/internal/domain/venueperf"
	"github.com/riskibarqy/venue-insights/internal/platform/logging"
	"github.com/spf13/cobra"
)

func main() {
	_ = godotenv.Load(".env")

	if err := rootCmd(os.Stdout).Execute(); err != nil {
		os.Exit(1)
	}
}

func rootCmd(out io.Writer) *cobra.Command {
	root := &cobra.Command{
		Use:           "venuequery",
		Short:         "Per-venue performance reports from the MLB Stats API",
		SilenceUsage:  true,
	}
	root.AddCommand(reportCmd(out))
	root.AddCommand(getCmd(out))
	return root
}

type reportOptions struct {
	player      string
	venue       string
	seasons     []int
	pitchDetail bool
	pretty      bool
	strict      bool
	archive     bool
}

func reportCmd(out io.Writer) *cobra.Command {
	var opts reportOptions
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Build one report and print it as JSON",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withContainer(cmd.Context(), func(ctx context.Context, c *app.Container) error {
				return runReport(ctx, c, opts, out)
			})
		},
	}
	cmd.Flags().StringVar(&opts.player, "player", "", "Player name (substring match)")
	cmd.Flags().StringVar(&opts.venue, "venue", "", "Venue name (substring match)")
	cmd.Flags().IntSliceVar(&opts.seasons, "season", nil, "Season year; repeat or comma separate")
	cmd.Flags().BoolVar(&opts.pitchDetail, "pitch-detail", false, "Include per-pitch events")
	cmd.Flags().BoolVar(&opts.pretty, "pretty", false, "Indent the JSON output")
	cmd.Flags().BoolVar(&opts.strict, "strict", false, "Exit non-zero when any sub-query failed")
	cmd.Flags().BoolVar(&opts.archive, "archive", false, "Store the report in the configured report store")
	_ = cmd.MarkFlagRequired("player")
	_ = cmd.MarkFlagRequired("venue")
	_ = cmd.MarkFlagRequired("season")
	return cmd
}

func runReport(ctx context.Context, c *app.Container, opts reportOptions, out io.Writer) error {
	report, err := c.Performance.BuildReport(ctx, venueperf.Query{
		PlayerName:         opts.player,
		VenueName:          opts.venue,
		Seasons:            opts.seasons,
		IncludePitchDetail: opts.pitchDetail,
	})
	if err != nil {
		return err
	}

	d := report.Diagnostics
	c.Logger.Info("report built",
		"state", string(report.State),
		"games", len(report.GamesAtVenue),
		"plate_appearances", len(report.PlateAppearances),
		"errors", len(report.Errors),
		"provider_calls", d.NetworkCalls,
		"provider_cache_hits", d.CacheHits,
		"provider_retries", d.Retries,
		"elapsed", d.Elapsed,
	)

	if opts.archive {
		archived, err := c.Archive.Archive(ctx, report)
		if err != nil {
			return fmt.Errorf("archive report: %w", err)
		}
		c.Logger.Info("report archived", "report_id", archived.ID, "key", archived.Key)
	}

	if err := writeJSON(out, report, opts.pretty); err != nil {
		return err
	}
	if opts.strict && report.Partial() {
		if summary := report.PerformanceSummary; summary != nil {
			return fmt.Errorf("report is partial: %s", summary.Message)
		}
		return fmt.Errorf("report is partial")
	}
	return nil
}

func getCmd(out io.Writer) *cobra.Command {
	var pretty bool
	cmd := &cobra.Command{
		Use:   "get <report-id>",
		Short: "Print an archived report",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withContainer(cmd.Context(), func(ctx context.Context, c *app.Container) error {
				item, err := c.Archive.Get(ctx, args[0])
				if err != nil {
					return err
				}
				return writeJSON(out, item.Report, pretty)
			})
		},
	}
	cmd.Flags().BoolVar(&pretty, "pretty", false, "Indent the JSON output")
	return cmd
}

func withContainer(parent context.Context, fn func(context.Context, *app.Container) error) error {
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	// stdout carries the report; logs go to stderr.
	logger := logging.New(logging.Options{Level: cfg.LogLevel, Format: logging.FormatConsole, Output: os.Stderr})
	logging.SetDefault(logger)
	defer func() { _ = logger.Sync() }()

	c, err := app.NewContainer(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := c.Close(); err != nil {
			logger.Warn("close container failed", "error", err)
		}
	}()

	return fn(ctx, c)
}

func writeJSON(out io.Writer, report venueperf.Report, pretty bool) error {
	var (
		raw []byte
		err error
	)
	if pretty {
		raw, err = sonic.ConfigStd.MarshalIndent(report, "", "  ")
	} else {
		raw, err = venueperf.EncodeReport(report)
	}
	if err != nil {
		return fmt.Errorf("encode report: %w", err)
	}
	raw = append(raw, '\n')
	_, err = out.Write(raw)
	return err
}

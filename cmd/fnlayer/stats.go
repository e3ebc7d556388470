package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/verte-zerg/fnlayer/internal/model"
	"github.com/verte-zerg/fnlayer/internal/stats"
	"github.com/verte-zerg/fnlayer/internal/store"
)

var (
	statsSource string
	statsSince  string
	statsLast   int
)

func newStatsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show gesture stats from journaled runs",
		Args:  cobra.NoArgs,
		RunE:  runStatsCmd,
	}
	cmd.Flags().StringVar(&statsSource, "source", "", "only runs from this trace file name")
	cmd.Flags().StringVar(&statsSince, "since", "", "start date (YYYY-MM-DD)")
	cmd.Flags().IntVar(&statsLast, "last", 0, "limit to last N runs")
	return cmd
}

func runStatsCmd(cmd *cobra.Command, _ []string) error {
	var sinceTime *time.Time
	if statsSince != "" {
		parsed, err := time.ParseInLocation("2006-01-02", statsSince, time.Local)
		if err != nil {
			return fmt.Errorf("invalid --since value: %w", err)
		}
		sinceTime = &parsed
	}
	if statsLast < 0 {
		return fmt.Errorf("--last must be >= 0")
	}

	cfg := model.StatsConfig{
		Source: statsSource,
		Since:  sinceTime,
		Last:   statsLast,
	}

	st, err := store.Open(dbPath)
	if err != nil {
		return fmt.Errorf("failed to open db: %w", err)
	}
	defer func() {
		if cerr := st.Close(); cerr != nil {
			logErrf("failed to close db: %v\n", cerr)
		}
	}()

	report, err := stats.BuildReport(cmd.Context(), st, cfg)
	if err != nil {
		return fmt.Errorf("failed to build report: %w", err)
	}
	out := cmd.OutOrStdout()
	if err := stats.RenderRuns(out, report.Runs); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	if len(report.Runs) == 0 {
		return nil
	}
	if err := stats.RenderSummary(out, report.Total); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	latest := report.Runs[len(report.Runs)-1]
	timeline := stats.LayerTimeline(report.Latest, latest.Run.Cycles, terminalWidth())
	if _, err := fmt.Fprintf(out, "Layers, run %d (' ' undecided … '@' double-click)\n%s\n", latest.Run.ID, timeline); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

// Package stats contains gesture statistics and reporting.
package stats

import (
	"context"

	"github.com/verte-zerg/fnlayer/internal/gesture"
	"github.com/verte-zerg/fnlayer/internal/model"
	"github.com/verte-zerg/fnlayer/internal/store"
)

// Report contains precomputed data for stats rendering.
type Report struct {
	Runs  []RunSummary
	Total Summary
	// Latest holds the transitions of the most recent run, for its timeline.
	Latest []gesture.Transition
}

// BuildReport loads runs matching cfg and summarizes each of them.
func BuildReport(ctx context.Context, st *store.Store, cfg model.StatsConfig) (Report, error) {
	runs, err := st.ListRuns(ctx, cfg)
	if err != nil {
		return Report{}, err
	}
	report := Report{Total: Summary{Dwell: map[gesture.Layer]uint64{}}}
	for _, run := range runs {
		transitions, err := st.ListTransitions(ctx, run.ID)
		if err != nil {
			return Report{}, err
		}
		summary := Summarize(transitions, run.Cycles)
		report.Runs = append(report.Runs, RunSummary{Run: run, Summary: summary})
		report.Total.add(summary)
		report.Latest = transitions
	}
	return report, nil
}

func (s *Summary) add(o Summary) {
	s.Cycles += o.Cycles
	s.Transitions += o.Transitions
	s.Holds += o.Holds
	s.Clicks += o.Clicks
	s.DoubleClicks += o.DoubleClicks
	s.TrackedClosed += o.TrackedClosed
	s.LateDismissals += o.LateDismissals
	s.Resets += o.Resets
	s.Faults += o.Faults
	for layer, n := range o.Dwell {
		s.Dwell[layer] += n
	}
}

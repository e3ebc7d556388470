// Package stats contains gesture statistics and reporting.
package stats

import (
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/verte-zerg/fnlayer/internal/gesture"
	"github.com/verte-zerg/fnlayer/internal/model"
)

const sparkChars = " .:-=+*#%@"

// Summary counts the gestures recognized during a run.
type Summary struct {
	Cycles         uint64
	Transitions    int
	Holds          int
	Clicks         int
	DoubleClicks   int
	TrackedClosed  int
	LateDismissals int
	Resets         int
	Faults         int
	// Dwell is the number of cycles spent on each layer, undecided included.
	Dwell map[gesture.Layer]uint64
}

// Summarize folds a run's transitions into gesture counts. cycles is the
// length of the run; the classifier starts idle on cycle 1.
func Summarize(transitions []gesture.Transition, cycles uint64) Summary {
	s := Summary{
		Cycles:      cycles,
		Transitions: len(transitions),
		Dwell:       map[gesture.Layer]uint64{},
	}
	layer := gesture.LayerBase
	from := uint64(1)
	for _, tr := range transitions {
		if tr.Cycle > from && tr.Cycle <= cycles+1 {
			s.Dwell[layer] += tr.Cycle - from
		}
		layer, from = tr.Layer, tr.Cycle
		if tr.Fault {
			s.Faults++
			continue
		}
		if tr.Reset {
			s.Resets++
			continue
		}
		switch {
		case tr.To == gesture.StateHoldActive || tr.To == gesture.StateHoldActive2:
			s.Holds++
		case tr.To == gesture.StateClickActive && tr.From == gesture.StateArming:
			s.Clicks++
		case tr.To == gesture.StateDoubleClickActive && tr.From == gesture.StateRearmFromClick:
			s.DoubleClicks++
		case tr.From == gesture.StateTrackKey && tr.To == gesture.StateIdle:
			s.TrackedClosed++
		case tr.From == gesture.StateRearmLate && tr.To == gesture.StateIdle:
			s.LateDismissals++
		}
	}
	if cycles+1 > from {
		s.Dwell[layer] += cycles + 1 - from
	}
	return s
}

// LayerAt returns the layer shown on the given cycle.
func LayerAt(transitions []gesture.Transition, cycle uint64) gesture.Layer {
	layer := gesture.LayerBase
	for _, tr := range transitions {
		if tr.Cycle > cycle {
			break
		}
		layer = tr.Layer
	}
	return layer
}

// LayerTimeline renders the layer over the run as a sparkline of the given
// width. Each column shows the layer at the start of its span of cycles.
func LayerTimeline(transitions []gesture.Transition, cycles uint64, width int) string {
	if cycles == 0 || width <= 0 {
		return ""
	}
	if uint64(width) > cycles {
		width = int(cycles)
	}
	values := make([]float64, width)
	for i := range values {
		cycle := 1 + uint64(i)*cycles/uint64(width)
		values[i] = float64(LayerAt(transitions, cycle))
	}
	return sparklineRange(values, float64(gesture.LayerUndecided), float64(gesture.LayerDoubleClick))
}

// Sparkline renders a single-line ASCII sparkline for the values.
func Sparkline(values []float64) string {
	if len(values) == 0 {
		return ""
	}
	minVal := values[0]
	maxVal := values[0]
	for _, v := range values[1:] {
		if v < minVal {
			minVal = v
		}
		if v > maxVal {
			maxVal = v
		}
	}
	if math.Abs(maxVal-minVal) < 1e-9 {
		return strings.Repeat(string(sparkChars[len(sparkChars)/2]), len(values))
	}
	return sparklineRange(values, minVal, maxVal)
}

func sparklineRange(values []float64, minVal, maxVal float64) string {
	var b strings.Builder
	for _, v := range values {
		pos := (v - minVal) / (maxVal - minVal)
		idx := int(math.Round(pos * float64(len(sparkChars)-1)))
		if idx < 0 {
			idx = 0
		}
		if idx >= len(sparkChars) {
			idx = len(sparkChars) - 1
		}
		b.WriteByte(sparkChars[idx])
	}
	return b.String()
}

// RenderSummary prints gesture counts and per-layer dwell for a summary.
func RenderSummary(w io.Writer, s Summary) error {
	if _, err := fmt.Fprintln(w, "Summary"); err != nil {
		return err
	}
	lines := []string{
		fmt.Sprintf("Cycles: %d", s.Cycles),
		fmt.Sprintf("Holds: %d", s.Holds),
		fmt.Sprintf("Clicks: %d", s.Clicks),
		fmt.Sprintf("Double clicks: %d", s.DoubleClicks),
		fmt.Sprintf("Tracked keys closed: %d", s.TrackedClosed),
		fmt.Sprintf("Late dismissals: %d", s.LateDismissals),
		fmt.Sprintf("Resets: %d", s.Resets),
		fmt.Sprintf("Faults: %d", s.Faults),
	}
	for _, line := range lines {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	if _, err := fmt.Fprintln(w, ""); err != nil {
		return err
	}

	headers := []string{"Layer", "Cycles", "Share"}
	rows := make([][]string, 0, gesture.LayerCount+1)
	for layer := gesture.LayerUndecided; layer <= gesture.LayerDoubleClick; layer++ {
		n := s.Dwell[layer]
		share := 0.0
		if s.Cycles > 0 {
			share = float64(n) / float64(s.Cycles)
		}
		rows = append(rows, []string{layer.String(), fmt.Sprintf("%d", n), fmt.Sprintf("%.1f%%", share*100)})
	}
	return WriteTable(w, headers, rows, map[int]bool{1: true, 2: true})
}

// RunSummary pairs a stored run with its computed summary.
type RunSummary struct {
	Run     model.RunRecord
	Summary Summary
}

// RenderRuns prints one row per run.
func RenderRuns(w io.Writer, runs []RunSummary) error {
	if len(runs) == 0 {
		_, err := fmt.Fprintln(w, "No runs found.")
		return err
	}
	if _, err := fmt.Fprintln(w, "Runs"); err != nil {
		return err
	}
	headers := []string{"ID", "Started", "Source", "Hold/Dbl", "Cycles", "Holds", "Clicks", "Doubles", "Faults"}
	rows := make([][]string, 0, len(runs))
	for _, r := range runs {
		rows = append(rows, []string{
			fmt.Sprintf("%d", r.Run.ID),
			r.Run.StartedAt.Local().Format("2006-01-02 15:04"),
			r.Run.Source,
			fmt.Sprintf("%d/%d", r.Run.MinHoldCycles, r.Run.MaxDoubleClickCycles),
			fmt.Sprintf("%d", r.Run.Cycles),
			fmt.Sprintf("%d", r.Summary.Holds),
			fmt.Sprintf("%d", r.Summary.Clicks),
			fmt.Sprintf("%d", r.Summary.DoubleClicks),
			fmt.Sprintf("%d", r.Run.Faults),
		})
	}
	return WriteTable(w, headers, rows, map[int]bool{0: true, 4: true, 5: true, 6: true, 7: true, 8: true})
}

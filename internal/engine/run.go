package engine

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"
)

// Source yields the pressed matrix positions for each cycle. It returns io.EOF
// when there is nothing more to scan.
type Source interface {
	Scan(ctx context.Context) ([]int, error)
}

// Sink receives every frame the driver produces.
type Sink interface {
	Send(ctx context.Context, frame Frame) error
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(ctx context.Context, frame Frame) error

// Send implements Sink.
func (f SinkFunc) Send(ctx context.Context, frame Frame) error {
	return f(ctx, frame)
}

// Replay is a Source over a fixed list of cycles.
type Replay struct {
	cycles [][]int
	next   int
}

// NewReplay returns a Source that plays cycles in order.
func NewReplay(cycles [][]int) *Replay {
	return &Replay{cycles: cycles}
}

// Scan implements Source.
func (r *Replay) Scan(_ context.Context) ([]int, error) {
	if r.next >= len(r.cycles) {
		return nil, io.EOF
	}
	pressed := r.cycles[r.next]
	r.next++
	return pressed, nil
}

// Run scans, classifies and dispatches once per period until ctx is done or
// the source is exhausted. A zero period runs cycles back to back.
func (d *Driver) Run(ctx context.Context, src Source, sink Sink, period time.Duration) error {
	var tick <-chan time.Time
	if period > 0 {
		ticker := time.NewTicker(period)
		defer ticker.Stop()
		tick = ticker.C
	}
	for {
		if tick != nil {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-tick:
			}
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		pressed, err := src.Scan(ctx)
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return fmt.Errorf("failed to scan matrix: %w", err)
		}
		frame, err := d.Cycle(pressed)
		if err != nil {
			d.log.WithError(err).WithField("cycle", frame.Cycle).Error("cycle failed")
		}
		if err := sink.Send(ctx, frame); err != nil {
			return fmt.Errorf("failed to send report: %w", err)
		}
	}
}

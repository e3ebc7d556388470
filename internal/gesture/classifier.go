package gesture

import (
	"errors"
	"fmt"
	"io"

	"github.com/sirupsen/logrus"
)

// Thresholds used by the original firmware.
const (
	DefaultMinHoldCycles        = 40
	DefaultMaxDoubleClickCycles = 40
)

// ErrThreshold is returned when a cycle threshold is below one.
var ErrThreshold = errors.New("gesture: thresholds must be at least 1 cycle")

// Options configures a Classifier.
type Options struct {
	// MinHoldCycles is the number of consecutive cycles the modifier must stay
	// down to count as a hold.
	MinHoldCycles int
	// MaxDoubleClickCycles bounds how long after a click a second modifier
	// press still counts towards a double click.
	MaxDoubleClickCycles int
	// DoubleClickLatch keeps the double-click layer until the modifier is
	// pressed again instead of dropping it once everything is released.
	DoubleClickLatch bool

	Logger       logrus.FieldLogger
	OnTransition func(Transition)
}

// DefaultOptions returns the firmware thresholds.
func DefaultOptions() Options {
	return Options{
		MinHoldCycles:        DefaultMinHoldCycles,
		MaxDoubleClickCycles: DefaultMaxDoubleClickCycles,
	}
}

// Transition describes a classifying transition, reported after it fires.
type Transition struct {
	Cycle   uint64
	From    State
	To      State
	Symbol  Symbol
	Key     Keycode
	Layer   Layer
	Timer   int
	Tracked Keycode
	Fault   bool
	// Reset marks a transition forced by Reset rather than by a symbol.
	Reset bool
}

// Classifier is the Fn gesture state machine. It is not safe for concurrent use;
// exactly one control loop owns it and calls Advance once per scan cycle.
type Classifier struct {
	minHold        int
	maxDoubleClick int
	latch          bool
	log            logrus.FieldLogger
	onTransition   func(Transition)

	state   State
	layer   Layer
	timer   Timer
	tracked Keycode
	cycle   uint64
	faults  int
}

// New returns a classifier in the idle state.
func New(opts Options) (*Classifier, error) {
	if opts.MinHoldCycles < 1 || opts.MaxDoubleClickCycles < 1 {
		return nil, fmt.Errorf("%w (min-hold=%d, max-double-click=%d)", ErrThreshold, opts.MinHoldCycles, opts.MaxDoubleClickCycles)
	}
	log := opts.Logger
	if log == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		log = l
	}
	return &Classifier{
		minHold:        opts.MinHoldCycles,
		maxDoubleClick: opts.MaxDoubleClickCycles,
		latch:          opts.DoubleClickLatch,
		log:            log,
		onTransition:   opts.OnTransition,
		state:          StateIdle,
		layer:          LayerBase,
	}, nil
}

// Advance consumes one cycle's symbol and returns the layer in effect afterwards.
// key is the first non-modifier key pressed this cycle and is ignored unless the
// symbol carries the other-key bit.
func (c *Classifier) Advance(sym Symbol, key Keycode) Layer {
	c.cycle++
	if !sym.HasKey() {
		key = 0
	}
	if !sym.Valid() || c.state >= stateCount {
		c.fault(sym, key)
		return c.layer
	}
	from := c.state
	next := transitions[from][sym](c, key)
	if next != from {
		c.moveTo(next)
		c.emit(Transition{Cycle: c.cycle, From: from, Symbol: sym, Key: key})
	}
	return c.layer
}

// Reset forces the classifier back to idle without counting a fault. It is
// called while the next cycle is being scanned, so the reported transition
// carries that cycle's number.
func (c *Classifier) Reset() {
	from := c.state
	c.moveTo(StateIdle)
	if from != StateIdle {
		c.emit(Transition{Cycle: c.cycle + 1, From: from, Reset: true})
	}
}

// Layer returns the current layer index.
func (c *Classifier) Layer() Layer { return c.layer }

// State returns the current state.
func (c *Classifier) State() State { return c.state }

// Timer returns the remaining timer count.
func (c *Classifier) Timer() int { return c.timer.Remaining() }

// Tracked returns the key being tracked in the click layer, or 0.
func (c *Classifier) Tracked() Keycode { return c.tracked }

// Cycle returns the number of cycles consumed so far.
func (c *Classifier) Cycle() uint64 { return c.cycle }

// Faults returns how many undefined transitions forced a reset.
func (c *Classifier) Faults() int { return c.faults }

// Thresholds returns the configured hold and double-click thresholds.
func (c *Classifier) Thresholds() (minHold, maxDoubleClick int) {
	return c.minHold, c.maxDoubleClick
}

// rearm seeds the hold contest. The cycle that starts the press counts as the
// first held cycle, so a threshold of 1 resolves to hold immediately.
func (c *Classifier) rearm(contest, expired State) State {
	c.timer.Arm(c.minHold)
	if c.timer.Tick() {
		return expired
	}
	return contest
}

func (c *Classifier) moveTo(next State) {
	c.state = next
	c.layer = next.Layer()
	if next == StateIdle {
		c.tracked = 0
		c.timer.Clear()
	}
}

func (c *Classifier) fault(sym Symbol, key Keycode) {
	from := c.state
	c.faults++
	c.log.WithFields(logrus.Fields{
		"cycle":  c.cycle,
		"state":  from.String(),
		"symbol": sym.String(),
	}).Error("undefined gesture transition; resetting to idle")
	c.moveTo(StateIdle)
	c.emit(Transition{Cycle: c.cycle, From: from, Symbol: sym, Key: key, Fault: true})
}

func (c *Classifier) emit(tr Transition) {
	tr.To = c.state
	tr.Layer = c.layer
	tr.Timer = c.timer.Remaining()
	tr.Tracked = c.tracked
	c.log.WithFields(logrus.Fields{
		"cycle": tr.Cycle,
		"from":  tr.From.String(),
		"to":    tr.To.String(),
		"layer": int(tr.Layer),
	}).Debug("gesture transition")
	if c.onTransition != nil {
		c.onTransition(tr)
	}
}

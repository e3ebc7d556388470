package engine

import (
	"errors"
	"fmt"
	"io"

	"github.com/sirupsen/logrus"

	"github.com/verte-zerg/fnlayer/internal/gesture"
	"github.com/verte-zerg/fnlayer/internal/hid"
	"github.com/verte-zerg/fnlayer/internal/keymap"
)

// buildReport is swapped in tests.
var buildReport = hid.Build

// ActionFunc is invoked when a FUNCTION(n) position is pressed on an active layer.
type ActionFunc func() error

// Options configures a Driver.
type Options struct {
	Logger logrus.FieldLogger
	// OnReset runs after the reset action has returned the classifier to idle.
	OnReset func()
}

// Frame is the outcome of one scan cycle.
type Frame struct {
	Cycle   uint64
	Pressed []int
	Symbol  gesture.Symbol
	Key     keymap.Keycode
	// ScanLayer is the layer the matrix was resolved with.
	ScanLayer gesture.Layer
	// Layer is the classifier output after this cycle.
	Layer   gesture.Layer
	State   gesture.State
	Report  hid.Report
	Actions []int
}

// Driver owns the classifier and the layer dispatch for one keyboard.
type Driver struct {
	keymap     *keymap.Keymap
	classifier *gesture.Classifier
	log        logrus.FieldLogger
	onReset    func()

	actions map[int]ActionFunc
	held    map[int]bool
}

// New builds a driver. Function slot 0 is bound to reset.
func New(km *keymap.Keymap, classifier *gesture.Classifier, opts Options) *Driver {
	log := opts.Logger
	if log == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		log = l
	}
	d := &Driver{
		keymap:     km,
		classifier: classifier,
		log:        log,
		onReset:    opts.OnReset,
		actions:    map[int]ActionFunc{},
		held:       map[int]bool{},
	}
	d.Bind(keymap.FuncReset, d.reset)
	return d
}

// Bind attaches fn to function slot n, replacing any previous binding.
func (d *Driver) Bind(n int, fn ActionFunc) {
	d.actions[n] = fn
}

// SetKeymap swaps the layer tables. The classifier state is kept.
func (d *Driver) SetKeymap(km *keymap.Keymap) {
	d.keymap = km
}

// Keymap returns the layer tables in use.
func (d *Driver) Keymap() *keymap.Keymap {
	return d.keymap
}

// Classifier returns the owned classifier.
func (d *Driver) Classifier() *gesture.Classifier {
	return d.classifier
}

// Cycle runs one scan cycle: sample, fire actions, classify, build the report.
// Output is suppressed while the layer in effect at scan time is undecided.
func (d *Driver) Cycle(pressed []int) (Frame, error) {
	scanLayer := d.classifier.Layer()
	s := Sample(d.keymap, scanLayer, pressed)

	var errs []error
	var fired []int
	held := make(map[int]bool, len(s.Actions))
	for _, n := range s.Actions {
		held[n] = true
		if d.held[n] || !scanLayer.Active() {
			continue
		}
		fired = append(fired, n)
		if err := d.fire(n); err != nil {
			errs = append(errs, err)
		}
	}
	d.held = held

	layer := d.classifier.Advance(s.Symbol, gesture.Keycode(s.Key))

	frame := Frame{
		Cycle:     d.classifier.Cycle(),
		Pressed:   pressed,
		Symbol:    s.Symbol,
		Key:       s.Key,
		ScanLayer: scanLayer,
		Layer:     layer,
		State:     d.classifier.State(),
		Actions:   fired,
	}
	if scanLayer.Active() {
		report, err := buildReport(s.Codes)
		if err != nil {
			if !errors.Is(err, hid.ErrRollover) {
				return frame, errors.Join(append(errs, err)...)
			}
			d.log.WithField("keys", len(s.Codes)).Warn("key rollover")
		}
		frame.Report = report
	}
	return frame, errors.Join(errs...)
}

func (d *Driver) fire(n int) error {
	fn, ok := d.actions[n]
	if !ok {
		d.log.WithField("function", n).Warn("no action bound")
		return nil
	}
	d.log.WithField("function", n).Debug("invoking action")
	if err := fn(); err != nil {
		return fmt.Errorf("action %d failed: %w", n, err)
	}
	return nil
}

func (d *Driver) reset() error {
	d.log.Info("reset requested")
	d.classifier.Reset()
	if d.onReset != nil {
		d.onReset()
	}
	return nil
}

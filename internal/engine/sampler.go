// Package engine drives the gesture classifier once per scan cycle and
// dispatches the selected layer into HID reports and bound actions.
package engine

import (
	"sort"

	"github.com/verte-zerg/fnlayer/internal/gesture"
	"github.com/verte-zerg/fnlayer/internal/keymap"
)

// Sampling is one cycle's matrix state reduced for the classifier.
type Sampling struct {
	Symbol gesture.Symbol
	// Key is the first non-modifier keycode pressed, 0 if none.
	Key keymap.Keycode
	// Codes holds every keycode resolved this cycle, in position order.
	Codes []keymap.Keycode
	// Actions holds the function slots pressed this cycle.
	Actions []int
}

// Sample resolves the pressed positions against layer. While the layer is
// undecided the base layer is used, for detection only.
func Sample(km *keymap.Keymap, layer gesture.Layer, pressed []int) Sampling {
	lookup := layer
	if !lookup.Active() {
		lookup = gesture.LayerBase
	}
	positions := append([]int(nil), pressed...)
	sort.Ints(positions)

	var (
		s   Sampling
		mod bool
	)
	for i, pos := range positions {
		if i > 0 && positions[i-1] == pos {
			continue
		}
		b := km.Lookup(lookup, pos)
		switch b.Kind {
		case keymap.KindPreFunction:
			if b.IsFn() {
				mod = true
			}
		case keymap.KindFunction:
			s.Actions = append(s.Actions, b.Func)
		case keymap.KindKey:
			if s.Key == 0 {
				s.Key = b.Code
			}
			s.Codes = append(s.Codes, b.Code)
		}
	}
	s.Symbol = gesture.SymbolOf(mod, len(s.Codes) > 0)
	return s
}

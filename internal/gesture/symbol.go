// Package gesture classifies Fn-key gestures (hold, click, double click) into layer selections.
package gesture

import (
	"fmt"
	"strings"
)

// Symbol is the per-cycle input: bit 0 is the modifier, bit 1 is any other key.
type Symbol uint8

const (
	SymbolNone Symbol = iota
	SymbolMod
	SymbolKey
	SymbolBoth
	symbolCount
)

// Keycode identifies the first non-modifier key pressed in a cycle. Zero means none.
type Keycode uint16

// SymbolOf builds a symbol from the two sampled booleans.
func SymbolOf(mod, key bool) Symbol {
	var s Symbol
	if mod {
		s |= SymbolMod
	}
	if key {
		s |= SymbolKey
	}
	return s
}

// HasMod reports whether the modifier bit is set.
func (s Symbol) HasMod() bool {
	return s&SymbolMod != 0
}

// HasKey reports whether the other-key bit is set.
func (s Symbol) HasKey() bool {
	return s&SymbolKey != 0
}

// Valid reports whether s is one of the four defined symbols.
func (s Symbol) Valid() bool {
	return s < symbolCount
}

func (s Symbol) String() string {
	switch s {
	case SymbolNone:
		return "NONE"
	case SymbolMod:
		return "MOD"
	case SymbolKey:
		return "KEY"
	case SymbolBoth:
		return "BOTH"
	default:
		return fmt.Sprintf("Symbol(%d)", uint8(s))
	}
}

// ParseSymbol parses NONE, MOD, KEY or BOTH (case-insensitive).
func ParseSymbol(s string) (Symbol, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "NONE":
		return SymbolNone, nil
	case "MOD":
		return SymbolMod, nil
	case "KEY":
		return SymbolKey, nil
	case "BOTH":
		return SymbolBoth, nil
	}
	return 0, fmt.Errorf("unknown symbol %q", s)
}

// Layer is the classifier output. -1 suppresses all keys while a gesture is undecided.
type Layer int8

const (
	LayerUndecided   Layer = -1
	LayerBase        Layer = 0
	LayerHold        Layer = 1
	LayerClick       Layer = 2
	LayerDoubleClick Layer = 3
)

// LayerCount is the number of keycode tables a keymap carries.
const LayerCount = 4

// Active reports whether keys may be emitted on this layer.
func (l Layer) Active() bool {
	return l >= LayerBase && l < LayerCount
}

func (l Layer) String() string {
	switch l {
	case LayerUndecided:
		return "undecided"
	case LayerBase:
		return "base"
	case LayerHold:
		return "hold"
	case LayerClick:
		return "click"
	case LayerDoubleClick:
		return "double-click"
	default:
		return fmt.Sprintf("Layer(%d)", int8(l))
	}
}

// Package hid builds USB HID boot-protocol keyboard reports.
package hid

import (
	"encoding/hex"
	"errors"

	"github.com/verte-zerg/fnlayer/internal/keymap"
)

// MaxKeys is the number of key slots in a boot report.
const MaxKeys = 6

// usageErrorRollOver fills every key slot when too many keys are down.
const usageErrorRollOver byte = 0x01

// ErrRollover is returned when more than MaxKeys non-modifier usages are pressed.
var ErrRollover = errors.New("hid: too many keys pressed")

// Report is an 8-byte boot keyboard report without the reserved byte.
type Report struct {
	Modifiers byte
	Keys      [MaxKeys]byte
}

// Build folds keycodes into a report. Modifier masks and modifier usages are
// OR-ed into the modifier byte; duplicate usages are sent once.
func Build(codes []keymap.Keycode) (Report, error) {
	var r Report
	n := 0
	for _, code := range codes {
		if code == 0 {
			continue
		}
		r.Modifiers |= code.Mods()
		if code.IsModifierUsage() {
			r.Modifiers |= 1 << (code.Usage() - keymap.UsageLeftCtrl)
			continue
		}
		if r.has(code.Usage()) {
			continue
		}
		if n == MaxKeys {
			for i := range r.Keys {
				r.Keys[i] = usageErrorRollOver
			}
			return r, ErrRollover
		}
		r.Keys[n] = code.Usage()
		n++
	}
	return r, nil
}

func (r Report) has(usage byte) bool {
	for _, k := range r.Keys {
		if k == usage {
			return true
		}
	}
	return false
}

// IsEmpty reports whether nothing is pressed.
func (r Report) IsEmpty() bool {
	return r == Report{}
}

// Bytes returns the wire form: modifiers, reserved, six key slots.
func (r Report) Bytes() []byte {
	out := make([]byte, 0, 2+MaxKeys)
	out = append(out, r.Modifiers, 0)
	return append(out, r.Keys[:]...)
}

func (r Report) String() string {
	return hex.EncodeToString(r.Bytes())
}

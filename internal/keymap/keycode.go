// Package keymap holds the per-layer keycode tables and their file formats.
package keymap

import (
	"fmt"
	"sort"
	"strings"
)

// Keycode packs a HID keyboard usage (low byte) with a modifier mask (high byte).
type Keycode uint16

// Modifier mask bits, in HID report order.
const (
	ModLeftCtrl   byte = 1 << 0
	ModLeftShift  byte = 1 << 1
	ModLeftAlt    byte = 1 << 2
	ModLeftGUI    byte = 1 << 3
	ModRightCtrl  byte = 1 << 4
	ModRightShift byte = 1 << 5
	ModRightAlt   byte = 1 << 6
	ModRightGUI   byte = 1 << 7
)

// UsageLeftCtrl is the first of the eight modifier usages (0xE0-0xE7).
const UsageLeftCtrl byte = 0xE0

// NewKeycode combines a usage with a modifier mask.
func NewKeycode(usage, mods byte) Keycode {
	return Keycode(uint16(mods)<<8 | uint16(usage))
}

// Usage returns the HID usage id.
func (k Keycode) Usage() byte { return byte(k) }

// Mods returns the modifier mask applied with the usage.
func (k Keycode) Mods() byte { return byte(k >> 8) }

// IsModifierUsage reports whether the usage itself is a modifier key.
func (k Keycode) IsModifierUsage() bool {
	return k.Usage() >= UsageLeftCtrl && k.Usage() <= UsageLeftCtrl+7
}

// wrappers mirror the firmware macros SHIFT(x), ALTGR(x), ... outermost first.
var wrappers = []struct {
	name string
	mask byte
}{
	{"CTRL", ModLeftCtrl},
	{"SHIFT", ModLeftShift},
	{"ALT", ModLeftAlt},
	{"GUI", ModLeftGUI},
	{"RCTRL", ModRightCtrl},
	{"RSHIFT", ModRightShift},
	{"ALTGR", ModRightAlt},
	{"RGUI", ModRightGUI},
}

func wrapperMask(name string) (byte, bool) {
	for _, w := range wrappers {
		if w.name == name {
			return w.mask, true
		}
	}
	return 0, false
}

var usageNames = map[string]byte{
	"KEY_ENTER":            0x28,
	"KEY_ESC":              0x29,
	"KEY_BACKSPACE":        0x2A,
	"KEY_TAB":              0x2B,
	"KEY_SPACE":            0x2C,
	"KEY_MINUS":            0x2D,
	"KEY_EQUAL":            0x2E,
	"KEY_LEFT_BRACE":       0x2F,
	"KEY_RIGHT_BRACE":      0x30,
	"KEY_BACKSLASH":        0x31,
	"KEY_NON_US_NUM":       0x32,
	"KEY_SEMICOLON":        0x33,
	"KEY_QUOTE":            0x34,
	"KEY_TILDE":            0x35,
	"KEY_COMMA":            0x36,
	"KEY_PERIOD":           0x37,
	"KEY_SLASH":            0x38,
	"KEY_CAPS_LOCK":        0x39,
	"KEY_PRINTSCREEN":      0x46,
	"KEY_SCROLL_LOCK":      0x47,
	"KEY_PAUSE":            0x48,
	"KEY_INSERT":           0x49,
	"KEY_HOME":             0x4A,
	"KEY_PAGE_UP":          0x4B,
	"KEY_DELETE":           0x4C,
	"KEY_END":              0x4D,
	"KEY_PAGE_DOWN":        0x4E,
	"KEY_RIGHT":            0x4F,
	"KEY_LEFT":             0x50,
	"KEY_DOWN":             0x51,
	"KEY_UP":               0x52,
	"KEY_NUM_LOCK":         0x53,
	"KEY_MENU":             0x65,
	"KEYBOARD_POWER":       0x66,
	"KEYBOARD_MUTE":        0x7F,
	"KEYBOARD_VOLUME_UP":   0x80,
	"KEYBOARD_VOLUME_DOWN": 0x81,
	"KEYBOARD_LEFT_CTRL":   0xE0,
	"KEYBOARD_LEFT_SHIFT":  0xE1,
	"KEYBOARD_LEFT_ALT":    0xE2,
	"KEYBOARD_LEFT_GUI":    0xE3,
	"KEYBOARD_RIGHT_CTRL":  0xE4,
	"KEYBOARD_RIGHT_SHIFT": 0xE5,
	"KEYBOARD_RIGHT_ALT":   0xE6,
	"KEYBOARD_RIGHT_GUI":   0xE7,
}

var usageLabels map[byte]string

func init() {
	for i := 0; i < 26; i++ {
		usageNames["KEY_"+string(rune('A'+i))] = byte(0x04 + i)
	}
	for i := 1; i <= 9; i++ {
		usageNames[fmt.Sprintf("KEY_%d", i)] = byte(0x1E + i - 1)
	}
	usageNames["KEY_0"] = 0x27
	for i := 1; i <= 12; i++ {
		usageNames[fmt.Sprintf("KEY_F%d", i)] = byte(0x3A + i - 1)
	}

	usageLabels = make(map[byte]string, len(usageNames))
	names := make([]string, 0, len(usageNames))
	for name := range usageNames {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		usage := usageNames[name]
		if _, ok := usageLabels[usage]; !ok {
			usageLabels[usage] = name
		}
	}
}

// LookupUsage resolves a usage name. The KEY_ and KEYBOARD_ prefixes are optional.
func LookupUsage(name string) (byte, bool) {
	name = strings.ToUpper(strings.TrimSpace(name))
	for _, candidate := range []string{name, "KEY_" + name, "KEYBOARD_" + name} {
		if usage, ok := usageNames[candidate]; ok {
			return usage, true
		}
	}
	return 0, false
}

// UsageName returns the canonical name of a usage, or its hex value.
func UsageName(usage byte) string {
	if name, ok := usageLabels[usage]; ok {
		return name
	}
	return fmt.Sprintf("0x%02X", usage)
}

func (k Keycode) String() string {
	if k == 0 {
		return "0"
	}
	s := UsageName(k.Usage())
	mods := k.Mods()
	for i := len(wrappers) - 1; i >= 0; i-- {
		if mods&wrappers[i].mask != 0 {
			s = wrappers[i].name + "(" + s + ")"
		}
	}
	return s
}

// Label is a compact rendering for grids: the usage name without prefixes,
// preceded by one marker per modifier.
func (k Keycode) Label() string {
	if k == 0 {
		return ""
	}
	name := UsageName(k.Usage())
	name = strings.TrimPrefix(name, "KEYBOARD_")
	name = strings.TrimPrefix(name, "KEY_")
	var prefix strings.Builder
	for _, w := range wrappers {
		if k.Mods()&w.mask == 0 {
			continue
		}
		switch w.mask {
		case ModLeftShift, ModRightShift:
			prefix.WriteString("⇧")
		case ModLeftCtrl, ModRightCtrl:
			prefix.WriteString("⌃")
		case ModLeftAlt:
			prefix.WriteString("⌥")
		case ModRightAlt:
			prefix.WriteString("Ⓡ")
		default:
			prefix.WriteString("◆")
		}
	}
	return prefix.String() + name
}

package keymap

import (
	"fmt"
	"strconv"
	"strings"
)

// Kind distinguishes what a keymap position does when pressed.
type Kind uint8

const (
	// KindNone sends nothing.
	KindNone Kind = iota
	// KindKey sends a keycode to the host.
	KindKey
	// KindFunction invokes a bound action on press.
	KindFunction
	// KindPreFunction runs before classification; PRE_FUNCTION(1) is the Fn modifier.
	KindPreFunction
)

// Reserved function slots.
const (
	FuncReset = 0
	FuncFn    = 1
)

// Binding is one entry of a layer table.
type Binding struct {
	Kind Kind
	Code Keycode
	Func int
}

// Key binds a plain keycode.
func Key(code Keycode) Binding {
	if code == 0 {
		return Binding{}
	}
	return Binding{Kind: KindKey, Code: code}
}

// Function binds action n.
func Function(n int) Binding {
	return Binding{Kind: KindFunction, Func: n}
}

// PreFunction binds pre-classification action n.
func PreFunction(n int) Binding {
	return Binding{Kind: KindPreFunction, Func: n}
}

// Fn is the modifier binding.
var Fn = PreFunction(FuncFn)

// IsFn reports whether b is the Fn modifier.
func (b Binding) IsFn() bool {
	return b.Kind == KindPreFunction && b.Func == FuncFn
}

func (b Binding) String() string {
	switch b.Kind {
	case KindKey:
		return b.Code.String()
	case KindFunction:
		if b.Func == FuncReset {
			return "RESET"
		}
		return fmt.Sprintf("FUNCTION(%d)", b.Func)
	case KindPreFunction:
		if b.Func == FuncFn {
			return "FN"
		}
		return fmt.Sprintf("PRE_FUNCTION(%d)", b.Func)
	default:
		return "0"
	}
}

// Label is a compact rendering for layer grids.
func (b Binding) Label() string {
	switch b.Kind {
	case KindKey:
		return b.Code.Label()
	case KindNone:
		return ""
	default:
		return b.String()
	}
}

// ParseBinding parses a key expression using the firmware macro syntax, e.g.
// KEY_A, SHIFT(KEY_2), ALTGR(SHIFT(KEY_4)), FUNCTION(0), PRE_FUNCTION(1), FN, RESET.
func ParseBinding(expr string) (Binding, error) {
	s := strings.ToUpper(strings.TrimSpace(expr))
	switch s {
	case "", "_", "0":
		return Binding{}, nil
	case "FN":
		return Fn, nil
	case "RESET":
		return Function(FuncReset), nil
	}

	if open := strings.IndexByte(s, '('); open >= 0 {
		if !strings.HasSuffix(s, ")") {
			return Binding{}, fmt.Errorf("unbalanced parentheses in %q", expr)
		}
		name := strings.TrimSpace(s[:open])
		inner := s[open+1 : len(s)-1]
		switch name {
		case "FUNCTION", "PRE_FUNCTION":
			n, err := strconv.Atoi(strings.TrimSpace(inner))
			if err != nil || n < 0 {
				return Binding{}, fmt.Errorf("invalid function index in %q", expr)
			}
			if name == "FUNCTION" {
				return Function(n), nil
			}
			return PreFunction(n), nil
		}
		mask, ok := wrapperMask(name)
		if !ok {
			return Binding{}, fmt.Errorf("unknown modifier %q in %q", name, expr)
		}
		b, err := ParseBinding(inner)
		if err != nil {
			return Binding{}, err
		}
		if b.Kind != KindKey {
			return Binding{}, fmt.Errorf("%s() must wrap a key in %q", name, expr)
		}
		b.Code |= Keycode(uint16(mask) << 8)
		return b, nil
	}

	if usage, ok := LookupUsage(s); ok {
		return Key(NewKeycode(usage, 0)), nil
	}
	if strings.HasPrefix(s, "0X") {
		v, err := strconv.ParseUint(s[2:], 16, 16)
		if err != nil {
			return Binding{}, fmt.Errorf("invalid keycode %q: %w", expr, err)
		}
		return Key(Keycode(v)), nil
	}
	return Binding{}, fmt.Errorf("unknown key %q", expr)
}

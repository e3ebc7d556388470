// Package trace reads and writes cycle-by-cycle input recordings.
package trace

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/verte-zerg/fnlayer/internal/gesture"
	"github.com/verte-zerg/fnlayer/internal/keymap"
)

// maxRepeat bounds a single line's *N so a typo cannot allocate without limit.
const maxRepeat = 1 << 20

// Step is one cycle of a symbol trace.
type Step struct {
	Symbol gesture.Symbol
	Key    gesture.Keycode
}

func (s Step) String() string {
	if s.Symbol.HasKey() {
		return fmt.Sprintf("%s %d", s.Symbol, s.Key)
	}
	return s.Symbol.String()
}

// LoadSymbols reads a symbol trace file.
func LoadSymbols(path string) ([]Step, error) {
	var steps []Step
	err := withFile(path, func(r io.Reader) error {
		var err error
		steps, err = ParseSymbols(r)
		return err
	})
	return steps, err
}

// ParseSymbols reads a symbol trace: one of NONE, MOD, KEY <code>, BOTH <code>
// per line, with an optional *N repeat. The code is a number or a key expression.
func ParseSymbols(r io.Reader) ([]Step, error) {
	var steps []Step
	err := scanLines(r, func(lineNo int, body string, n int) error {
		step, err := parseStep(body)
		if err != nil {
			return fmt.Errorf("line %d: %w", lineNo, err)
		}
		for i := 0; i < n; i++ {
			steps = append(steps, step)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return steps, nil
}

// LoadMatrix reads a matrix trace file.
func LoadMatrix(path string) ([][]int, error) {
	var cycles [][]int
	err := withFile(path, func(r io.Reader) error {
		var err error
		cycles, err = ParseMatrix(r)
		return err
	})
	return cycles, err
}

// ParseMatrix reads a matrix trace: "-" for nothing pressed, otherwise
// comma-separated positions, with an optional *N repeat.
func ParseMatrix(r io.Reader) ([][]int, error) {
	var cycles [][]int
	err := scanLines(r, func(lineNo int, body string, n int) error {
		pressed, err := parsePositions(body)
		if err != nil {
			return fmt.Errorf("line %d: %w", lineNo, err)
		}
		for i := 0; i < n; i++ {
			cycles = append(cycles, pressed)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return cycles, nil
}

// WriteSymbols writes steps, run-length encoded.
func WriteSymbols(w io.Writer, steps []Step) error {
	for i := 0; i < len(steps); {
		j := i + 1
		for j < len(steps) && steps[j] == steps[i] {
			j++
		}
		line := steps[i].String()
		if n := j - i; n > 1 {
			line = fmt.Sprintf("%s *%d", line, n)
		}
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
		i = j
	}
	return nil
}

func withFile(path string, fn func(io.Reader) error) error {
	file, err := os.Open(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := file.Close(); cerr != nil {
			// Best-effort close for read-only trace.
			_ = cerr
		}
	}()
	return fn(file)
}

func scanLines(r io.Reader, fn func(lineNo int, body string, n int) error) error {
	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := scanner.Text()
		if idx := strings.IndexByte(line, '#'); idx >= 0 {
			line = line[:idx]
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		body, n, err := splitRepeat(line)
		if err != nil {
			return fmt.Errorf("line %d: %w", lineNo, err)
		}
		if err := fn(lineNo, body, n); err != nil {
			return err
		}
	}
	return scanner.Err()
}

func splitRepeat(line string) (string, int, error) {
	idx := strings.LastIndexByte(line, '*')
	if idx < 0 {
		return line, 1, nil
	}
	n, err := strconv.Atoi(strings.TrimSpace(line[idx+1:]))
	if err != nil || n < 1 || n > maxRepeat {
		return "", 0, fmt.Errorf("invalid repeat %q", line[idx:])
	}
	return strings.TrimSpace(line[:idx]), n, nil
}

func parseStep(body string) (Step, error) {
	fields := strings.Fields(body)
	if len(fields) == 0 {
		return Step{}, fmt.Errorf("empty step")
	}
	sym, err := gesture.ParseSymbol(fields[0])
	if err != nil {
		return Step{}, err
	}
	step := Step{Symbol: sym}
	if len(fields) == 1 {
		return step, nil
	}
	if !sym.HasKey() {
		return Step{}, fmt.Errorf("%s does not take a keycode", sym)
	}
	if len(fields) > 2 {
		return Step{}, fmt.Errorf("unexpected fields after keycode in %q", body)
	}
	code, err := parseKeycode(fields[1])
	if err != nil {
		return Step{}, err
	}
	step.Key = code
	return step, nil
}

func parseKeycode(s string) (gesture.Keycode, error) {
	if v, err := strconv.ParseUint(s, 0, 16); err == nil {
		return gesture.Keycode(v), nil
	}
	b, err := keymap.ParseBinding(s)
	if err != nil {
		return 0, err
	}
	if b.Kind != keymap.KindKey {
		return 0, fmt.Errorf("%q is not a key", s)
	}
	return gesture.Keycode(b.Code), nil
}

func parsePositions(body string) ([]int, error) {
	if body == "-" {
		return nil, nil
	}
	parts := strings.FieldsFunc(body, func(r rune) bool {
		return r == ',' || r == ' ' || r == '\t'
	})
	pressed := make([]int, 0, len(parts))
	for _, part := range parts {
		pos, err := strconv.Atoi(part)
		if err != nil || pos < 0 {
			return nil, fmt.Errorf("invalid position %q", part)
		}
		pressed = append(pressed, pos)
	}
	return pressed, nil
}

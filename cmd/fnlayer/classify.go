package main

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/verte-zerg/fnlayer/internal/gesture"
	"github.com/verte-zerg/fnlayer/internal/keymap"
	"github.com/verte-zerg/fnlayer/internal/stats"
	"github.com/verte-zerg/fnlayer/internal/trace"
)

var (
	classifyTable bool
	classifySave  bool
)

func newClassifyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "classify [trace]",
		Short: "Classify a symbol trace and print the layer after each cycle",
		Long: `Classify reads a symbol trace (one of NONE, MOD, KEY <code>, BOTH <code> per
line, with optional *N repeats) from a file or stdin and prints the layer in
effect after every cycle.`,
		Args: cobra.MaximumNArgs(1),
		RunE: runClassifyCmd,
	}
	cmd.Flags().BoolVar(&classifyTable, "table", false, "print one row per cycle with state, timer and tracked key")
	cmd.Flags().BoolVar(&classifySave, "save", false, "journal the run and its transitions")
	return cmd
}

func runClassifyCmd(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}
	log := newLogger(cfg.LogLevel, os.Stderr)

	path := argOrStdin(args)
	in, err := openInput(path)
	if err != nil {
		return err
	}
	steps, err := trace.ParseSymbols(in)
	closeInput(in)
	if err != nil {
		return fmt.Errorf("failed to read trace: %w", err)
	}

	rec := &recorder{}
	c, err := newClassifier(cfg, log, rec.record)
	if err != nil {
		return err
	}
	startedAt := time.Now()

	out := cmd.OutOrStdout()
	layers := make([]string, 0, len(steps))
	rows := make([][]string, 0, len(steps))
	for _, s := range steps {
		layer := c.Advance(s.Symbol, s.Key)
		layers = append(layers, fmt.Sprintf("%d", layer))
		if classifyTable {
			rows = append(rows, classifyRow(c, s))
		}
	}

	if classifyTable {
		headers := []string{"Cycle", "Symbol", "Key", "State", "Layer", "Timer", "Tracked"}
		if err := stats.WriteTable(out, headers, rows, map[int]bool{0: true, 4: true, 5: true}); err != nil {
			return fmt.Errorf("failed to write output: %w", err)
		}
	} else if _, err := fmt.Fprintln(out, strings.Join(layers, " ")); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	if c.Faults() > 0 {
		log.WithField("faults", c.Faults()).Warn("trace hit undefined transitions")
	}
	if classifySave {
		id, err := saveRun(cmd.Context(), sourceName(path), startedAt, cfg, c, rec.transitions)
		if err != nil {
			return err
		}
		log.WithField("run", id).Info("run saved")
	}
	return nil
}

func classifyRow(c *gesture.Classifier, s trace.Step) []string {
	code, tracked := "", ""
	if s.Symbol.HasKey() {
		code = keymap.Keycode(s.Key).String()
	}
	if t := c.Tracked(); t != 0 {
		tracked = keymap.Keycode(t).String()
	}
	return []string{
		fmt.Sprintf("%d", c.Cycle()),
		s.Symbol.String(),
		code,
		c.State().String(),
		fmt.Sprintf("%d", c.Layer()),
		fmt.Sprintf("%d", c.Timer()),
		tracked,
	}
}

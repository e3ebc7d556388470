package main

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/verte-zerg/fnlayer/internal/trace"
)

const defaultGenCount = 20

var (
	genCount int
	genSeed  int64
	genKinds string
	genOut   string
)

func newGenCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "gen",
		Short: "Generate a synthetic symbol trace of Fn gestures",
		Args:  cobra.NoArgs,
		RunE:  runGenCmd,
	}
	cmd.Flags().IntVar(&genCount, "count", defaultGenCount, "number of gestures")
	cmd.Flags().Int64Var(&genSeed, "seed", 0, "random seed (default: current time)")
	cmd.Flags().StringVar(&genKinds, "kinds", "", "comma-separated gestures: typing, hold, click, double-click (default: all)")
	cmd.Flags().StringVarP(&genOut, "out", "o", "", "output file (default: stdout)")
	return cmd
}

func runGenCmd(cmd *cobra.Command, _ []string) error {
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}
	if genCount <= 0 {
		return fmt.Errorf("--count must be > 0")
	}
	kinds, err := parseGestures(genKinds)
	if err != nil {
		return err
	}
	seed := genSeed
	if !cmd.Flags().Changed("seed") {
		seed = time.Now().UnixNano()
	}
	gen, err := trace.NewGenerator(seed, cfg.MinHoldCycles, cfg.MaxDoubleClickCycles)
	if err != nil {
		return err
	}
	steps, picked := gen.Generate(genCount, kinds)

	if genOut == "" {
		w := bufio.NewWriter(cmd.OutOrStdout())
		if err := writeTrace(w, seed, picked, steps); err != nil {
			return err
		}
		return w.Flush()
	}
	return writeTraceFile(genOut, seed, picked, steps)
}

func parseGestures(s string) ([]trace.Gesture, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	var kinds []trace.Gesture
	for _, part := range strings.Split(s, ",") {
		if strings.TrimSpace(part) == "" {
			continue
		}
		g, err := trace.ParseGesture(part)
		if err != nil {
			return nil, err
		}
		kinds = append(kinds, g)
	}
	return kinds, nil
}

func writeTrace(w *bufio.Writer, seed int64, picked []trace.Gesture, steps []trace.Step) error {
	names := make([]string, len(picked))
	for i, g := range picked {
		names[i] = g.String()
	}
	if _, err := fmt.Fprintf(w, "# seed %d: %s\n", seed, strings.Join(names, " ")); err != nil {
		return fmt.Errorf("failed to write trace: %w", err)
	}
	if err := trace.WriteSymbols(w, steps); err != nil {
		return fmt.Errorf("failed to write trace: %w", err)
	}
	return nil
}

func writeTraceFile(path string, seed int64, picked []trace.Gesture, steps []trace.Step) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create trace dir: %w", err)
	}
	tmpFile, err := os.CreateTemp(filepath.Dir(path), "trace-*.txt")
	if err != nil {
		return fmt.Errorf("failed to create temp trace: %w", err)
	}
	tmpPath := tmpFile.Name()
	defer func() {
		_ = tmpFile.Close()
		_ = os.Remove(tmpPath)
	}()

	writer := bufio.NewWriter(tmpFile)
	if err := writeTrace(writer, seed, picked, steps); err != nil {
		return err
	}
	if err := writer.Flush(); err != nil {
		return fmt.Errorf("failed to flush trace: %w", err)
	}
	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("failed to close trace: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("failed to write trace: %w", err)
	}
	return nil
}

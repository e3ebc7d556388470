// Package main provides the CLI entrypoint for fnlayer.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/verte-zerg/fnlayer/internal/config"
	"github.com/verte-zerg/fnlayer/internal/gesture"
	"github.com/verte-zerg/fnlayer/internal/model"
	"github.com/verte-zerg/fnlayer/internal/store"
)

var (
	configPath           string
	dbPath               string
	minHoldCycles        int
	maxDoubleClickCycles int
	doubleClickLatch     bool
	keymapPath           string
	cyclePeriod          time.Duration
	logLevel             string
)

func main() {
	rootCmd := newRootCmd()
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	defaults := config.Defaults()
	rootCmd := &cobra.Command{
		Use:           "fnlayer",
		Short:         "Fn-key gesture classifier and layer dispatcher",
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&configPath, "config", config.DefaultConfigPath(), "config file path")
	flags.StringVar(&dbPath, "db", config.DefaultDBPath(), "run journal database path")
	flags.IntVar(&minHoldCycles, "min-hold-cycles", defaults.MinHoldCycles, "cycles the Fn key must stay down to count as a hold")
	flags.IntVar(&maxDoubleClickCycles, "max-double-click-cycles", defaults.MaxDoubleClickCycles, "cycles after a click in which a second press is a double click")
	flags.BoolVar(&doubleClickLatch, "double-click-latch", defaults.DoubleClickLatch, "keep the double-click layer until Fn is pressed again")
	flags.StringVar(&keymapPath, "keymap", defaults.KeymapPath, "keymap file (.toml or .yaml); the built-in keymap is used if missing")
	flags.DurationVar(&cyclePeriod, "cycle-period", defaults.CyclePeriod, "scan cycle period for run (0 runs unpaced)")
	flags.StringVar(&logLevel, "log-level", defaults.LogLevel, "log level (trace, debug, info, warn, error)")

	rootCmd.AddCommand(newClassifyCmd())
	rootCmd.AddCommand(newRunCmd())
	rootCmd.AddCommand(newStepCmd())
	rootCmd.AddCommand(newKeymapCmd())
	rootCmd.AddCommand(newGenCmd())
	rootCmd.AddCommand(newStatsCmd())
	rootCmd.AddCommand(newConfigCmd())

	return rootCmd
}

// resolveConfig merges the config file under the command-line flags.
func resolveConfig(cmd *cobra.Command) (model.Config, error) {
	fileCfg, err := config.LoadConfig(configPath)
	if err != nil {
		return model.Config{}, fmt.Errorf("failed to load config: %w", err)
	}
	applyIntConfig(cmd, "min-hold-cycles", &minHoldCycles, fileCfg.Classifier.MinHoldCycles)
	applyIntConfig(cmd, "max-double-click-cycles", &maxDoubleClickCycles, fileCfg.Classifier.MaxDoubleClickCycles)
	applyBoolConfig(cmd, "double-click-latch", &doubleClickLatch, fileCfg.Classifier.DoubleClickLatch)
	applyStringConfig(cmd, "keymap", &keymapPath, fileCfg.Engine.Keymap)
	applyStringConfig(cmd, "log-level", &logLevel, fileCfg.Log.Level)
	if err := applyDurationConfig(cmd, "cycle-period", &cyclePeriod, fileCfg.Engine.CyclePeriod); err != nil {
		return model.Config{}, err
	}

	cfg := model.Config{
		MinHoldCycles:        minHoldCycles,
		MaxDoubleClickCycles: maxDoubleClickCycles,
		DoubleClickLatch:     doubleClickLatch,
		CyclePeriod:          cyclePeriod,
		KeymapPath:           keymapPath,
		LogLevel:             logLevel,
	}
	if err := validateConfig(cfg); err != nil {
		return model.Config{}, err
	}
	return cfg, nil
}

func validateConfig(cfg model.Config) error {
	if cfg.MinHoldCycles < 1 {
		return fmt.Errorf("--min-hold-cycles must be >= 1")
	}
	if cfg.MaxDoubleClickCycles < 1 {
		return fmt.Errorf("--max-double-click-cycles must be >= 1")
	}
	if cfg.CyclePeriod < 0 {
		return fmt.Errorf("--cycle-period must not be negative")
	}
	if _, err := logrus.ParseLevel(cfg.LogLevel); err != nil {
		return fmt.Errorf("--log-level: %w", err)
	}
	return nil
}

func newLogger(level string, out io.Writer) *logrus.Logger {
	log := logrus.New()
	log.SetOutput(out)
	if lvl, err := logrus.ParseLevel(level); err == nil {
		log.SetLevel(lvl)
	}
	forceColors := false
	if f, ok := out.(*os.File); ok {
		forceColors = term.IsTerminal(int(f.Fd()))
	}
	log.SetFormatter(&logrus.TextFormatter{
		DisableTimestamp: true,
		ForceColors:      forceColors,
	})
	return log
}

func newClassifier(cfg model.Config, log logrus.FieldLogger, onTransition func(gesture.Transition)) (*gesture.Classifier, error) {
	c, err := gesture.New(gesture.Options{
		MinHoldCycles:        cfg.MinHoldCycles,
		MaxDoubleClickCycles: cfg.MaxDoubleClickCycles,
		DoubleClickLatch:     cfg.DoubleClickLatch,
		Logger:               log,
		OnTransition:         onTransition,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create classifier: %w", err)
	}
	return c, nil
}

// recorder collects classifier transitions for the run journal.
type recorder struct {
	transitions []gesture.Transition
}

func (r *recorder) record(tr gesture.Transition) {
	r.transitions = append(r.transitions, tr)
}

func saveRun(ctx context.Context, source string, startedAt time.Time, cfg model.Config, c *gesture.Classifier, transitions []gesture.Transition) (int64, error) {
	st, err := store.Open(dbPath)
	if err != nil {
		return 0, fmt.Errorf("failed to open db: %w", err)
	}
	defer func() {
		if cerr := st.Close(); cerr != nil {
			logErrf("failed to close db: %v\n", cerr)
		}
	}()
	run := model.RunRecord{
		StartedAt:            startedAt,
		Source:               source,
		MinHoldCycles:        cfg.MinHoldCycles,
		MaxDoubleClickCycles: cfg.MaxDoubleClickCycles,
		Cycles:               c.Cycle(),
		Faults:               c.Faults(),
	}
	id, err := st.InsertRun(ctx, run, transitions)
	if err != nil {
		return 0, fmt.Errorf("failed to save run: %w", err)
	}
	return id, nil
}

// sourceName labels a run in the journal.
func sourceName(path string) string {
	if path == "" || path == "-" {
		return "stdin"
	}
	return filepath.Base(path)
}

func openInput(path string) (io.ReadCloser, error) {
	if path == "" || path == "-" {
		return io.NopCloser(os.Stdin), nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	return f, nil
}

func closeInput(r io.Closer) {
	if err := r.Close(); err != nil {
		// Best-effort close for read-only input.
		_ = err
	}
}

func argOrStdin(args []string) string {
	if len(args) == 0 {
		return "-"
	}
	return args[0]
}

func newConfigCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Create/open config file",
		Args:  cobra.NoArgs,
		RunE:  runConfigCmd,
	}
}

func runConfigCmd(_ *cobra.Command, _ []string) error {
	path := configPath
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if _, err := os.Stat(path); err != nil {
		if !os.IsNotExist(err) {
			return fmt.Errorf("failed to stat config: %w", err)
		}
		if err := os.WriteFile(path, []byte(defaultConfigTemplate()), 0o644); err != nil {
			return fmt.Errorf("failed to write config: %w", err)
		}
	}

	editor := strings.TrimSpace(os.Getenv("EDITOR"))
	if editor == "" {
		editor = "vi"
	}
	parts := strings.Fields(editor)
	if len(parts) == 0 {
		return fmt.Errorf("editor command is empty")
	}
	cmd := exec.Command(parts[0], append(parts[1:], path)...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("failed to open editor: %w", err)
	}
	return nil
}

func defaultConfigTemplate() string {
	d := config.Defaults()
	return fmt.Sprintf(`# fnlayer configuration
# Uncomment a value to enable it. CLI flags override config values.

[classifier]
# min-hold-cycles = %d          # Cycles Fn must stay down to count as a hold
# max-double-click-cycles = %d  # Cycles after a click in which a second press is a double click
# double-click-latch = false    # Keep the double-click layer until Fn is pressed again

[engine]
# cycle-period = %q             # Scan cycle period ("0" runs unpaced)
# keymap = %q

[log]
# level = %q                 # trace, debug, info, warn, error
`,
		d.MinHoldCycles,
		d.MaxDoubleClickCycles,
		d.CyclePeriod.String(),
		d.KeymapPath,
		d.LogLevel,
	)
}

func applyStringConfig(cmd *cobra.Command, name string, target, value *string) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func applyIntConfig(cmd *cobra.Command, name string, target, value *int) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func applyBoolConfig(cmd *cobra.Command, name string, target, value *bool) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func applyDurationConfig(cmd *cobra.Command, name string, target *time.Duration, value *string) error {
	if value == nil {
		return nil
	}
	if cmd.Flags().Changed(name) {
		return nil
	}
	d, err := config.ParsePeriod(*value)
	if err != nil {
		return fmt.Errorf("invalid %s in config: %w", name, err)
	}
	*target = d
	return nil
}

func terminalWidth() int {
	width, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || width <= 0 {
		return 80
	}
	return width
}

func logErrf(format string, args ...any) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		// Best-effort logging to stderr.
		_ = err
	}
}

package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/san-kum/rdsim/internal/compute"
	"github.com/san-kum/rdsim/internal/config"
	"github.com/san-kum/rdsim/internal/sim"
)

var (
	dataDir    string
	configFile string
	logLevel   string

	width      int
	height     int
	resolution int
	feed       float64
	kill       float64
	steps      int
	dt         float64
	backend    string
	preset     string
	seed       string
	validate   bool

	runTicks      int
	benchTicks    int
	validateSteps int
	cols          int
	rows          int
	theme         string
	gridSizes     []int

	snapTicks   int
	snapCell    float64
	snapBraille bool

	sweepFeeds  []float64
	sweepKills  []float64
	sweepPoints int
	sweepTicks  int
	sweepGrid   int
	sweepMetric string
	sweepTop    int
)

// main registers the rdsim commands. With no subcommand the window host starts.
func main() {
	rootCmd := &cobra.Command{
		Use:          "rdsim",
		Short:        "gray-scott reaction-diffusion simulator",
		SilenceUsage: true,
		RunE:         runGUI,
	}
	rootCmd.PersistentFlags().StringVar(&dataDir, "data", "", "telemetry directory (default from config)")
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "config file path (yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "debug, info, warn or error")
	addSimFlags(rootCmd)

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "run headless and record telemetry",
		RunE:  runHeadless,
	}
	addSimFlags(runCmd)
	runCmd.Flags().IntVar(&runTicks, "ticks", 1000, "number of ticks")

	liveCmd := &cobra.Command{
		Use:   "live",
		Short: "run in the terminal",
		RunE:  runLive,
	}
	addSimFlags(liveCmd)
	liveCmd.Flags().IntVar(&cols, "cols", 120, "terminal columns")
	liveCmd.Flags().IntVar(&rows, "rows", 40, "terminal rows")
	liveCmd.Flags().StringVar(&theme, "theme", "cyberpunk", "color theme")

	guiCmd := &cobra.Command{
		Use:   "gui",
		Short: "run in a window",
		RunE:  runGUI,
	}
	addSimFlags(guiCmd)

	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "list parameter presets",
		RunE:  listPresets,
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list recorded runs",
		RunE:  listRuns,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot run telemetry",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}

	exportCmd := &cobra.Command{
		Use:   "export [run_id]",
		Short: "print run metadata as json",
		Args:  cobra.ExactArgs(1),
		RunE:  exportRun,
	}

	benchCmd := &cobra.Command{
		Use:   "bench",
		Short: "measure ticks per second per backend and grid size",
		RunE:  benchBackends,
	}
	addSimFlags(benchCmd)
	benchCmd.Flags().IntVar(&benchTicks, "ticks", 50, "ticks per measurement")
	benchCmd.Flags().IntSliceVar(&gridSizes, "sizes", []int{64, 128, 256}, "square grid sizes")

	validateCmd := &cobra.Command{
		Use:   "validate",
		Short: "compare float32 paths against the float64 reference",
		RunE:  validatePaths,
	}
	addSimFlags(validateCmd)
	validateCmd.Flags().IntVar(&validateSteps, "steps", 200, "number of steps")

	configCmd := &cobra.Command{
		Use:   "config [path]",
		Short: "write the effective configuration as yaml",
		Args:  cobra.MaximumNArgs(1),
		RunE:  writeConfig,
	}
	addSimFlags(configCmd)

	snapshotCmd := &cobra.Command{
		Use:   "snapshot [out.svg]",
		Short: "run headless and write the final field as svg",
		Args:  cobra.ExactArgs(1),
		RunE:  writeSnapshot,
	}
	addSimFlags(snapshotCmd)
	snapshotCmd.Flags().IntVar(&snapTicks, "ticks", 1000, "ticks before the snapshot")
	snapshotCmd.Flags().Float64Var(&snapCell, "cell", 4, "svg pixels per cell")
	snapshotCmd.Flags().BoolVar(&snapBraille, "braille", false, "draw braille dots instead of shaded cells")
	snapshotCmd.Flags().StringVar(&theme, "theme", "cyberpunk", "color theme")

	sweepCmd := &cobra.Command{
		Use:   "sweep",
		Short: "score patterns across a grid of F and k values",
		RunE:  runSweep,
	}
	addSimFlags(sweepCmd)
	sweepCmd.Flags().Float64SliceVar(&sweepFeeds, "feed-range", []float64{0.01, 0.09}, "min,max feed rate")
	sweepCmd.Flags().Float64SliceVar(&sweepKills, "kill-range", []float64{0.04, 0.07}, "min,max kill rate")
	sweepCmd.Flags().IntVar(&sweepPoints, "points", 5, "values per axis")
	sweepCmd.Flags().IntVar(&sweepTicks, "ticks", 200, "ticks per point")
	sweepCmd.Flags().IntVar(&sweepGrid, "grid", 64, "square grid size per point")
	sweepCmd.Flags().StringVar(&sweepMetric, "metric", "coverage", "coverage, mean_v, std_v or wavelength")
	sweepCmd.Flags().IntVar(&sweepTop, "top", 10, "rows to print")

	rootCmd.AddCommand(runCmd, liveCmd, guiCmd, presetsCmd, listCmd, plotCmd, exportCmd, benchCmd, validateCmd, configCmd, snapshotCmd, sweepCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func addSimFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.IntVar(&width, "width", config.DefaultViewportW, "viewport width in pixels")
	f.IntVar(&height, "height", config.DefaultViewportH, "viewport height in pixels")
	f.IntVar(&resolution, "resolution", config.DefaultResolution, "pixels per grid cell")
	f.Float64Var(&feed, "feed", 0, "feed rate F")
	f.Float64Var(&kill, "kill", 0, "kill rate k")
	f.IntVar(&steps, "steps-per-tick", 0, "integrator steps per tick")
	f.Float64Var(&dt, "dt", 0, "time step")
	f.StringVar(&backend, "backend", "", fmt.Sprintf("executor %v", compute.Names()))
	f.StringVar(&preset, "preset", "", "preset name")
	f.StringVar(&seed, "seed", "", "seed strategy (uniform or center)")
	f.BoolVar(&validate, "validate", true, "fail on NaN/Inf")
}

// loadConfig reads the config file, then applies the flags that were set.
func loadConfig(cmd *cobra.Command) (*config.Config, int, error) {
	cfg := config.DefaultConfig()
	if configFile != "" {
		loaded, err := config.Load(configFile)
		if err != nil {
			return nil, -1, fmt.Errorf("failed to load config: %w", err)
		}
		cfg = loaded
	}

	flags := cmd.Flags()
	if flags.Changed("width") {
		cfg.Viewport.Width = width
	}
	if flags.Changed("height") {
		cfg.Viewport.Height = height
	}
	if flags.Changed("resolution") {
		cfg.Resolution = resolution
	}
	if flags.Changed("steps-per-tick") {
		cfg.StepsPerTick = steps
	}
	if flags.Changed("dt") {
		cfg.Dt = float32(dt)
	}
	if flags.Changed("backend") {
		cfg.Backend = backend
	}
	if flags.Changed("seed") {
		cfg.Seed.Strategy = seed
	}
	if flags.Changed("validate") {
		cfg.ValidateState = validate
	}
	if dataDir != "" {
		cfg.Telemetry.Dir = dataDir
	}
	if logLevel != "" {
		cfg.LogLevel = logLevel
	}

	presetIdx := -1
	if preset != "" {
		idx, p, ok := config.PresetByName(preset)
		if !ok {
			return nil, -1, fmt.Errorf("unknown preset: %s (available: %v)", preset, config.ListPresets())
		}
		cfg.ApplyPreset(p)
		presetIdx = idx
	}
	if flags.Changed("feed") {
		cfg.Feed = float32(feed)
		presetIdx = -1
	}
	if flags.Changed("kill") {
		cfg.Kill = float32(kill)
		presetIdx = -1
	}

	if err := cfg.Validate(); err != nil {
		return nil, -1, err
	}
	return cfg, presetIdx, nil
}

func newLogger(cfg *config.Config) *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.SlogLevel()}))
}

// newController builds and initializes a controller for cfg. The backend is
// created here, so GL must only be requested once a context exists.
func newController(cfg *config.Config, presetIdx int, log *slog.Logger, opts ...sim.Option) (*sim.Controller, error) {
	b, err := compute.New(cfg.Backend)
	if err != nil {
		return nil, err
	}
	opts = append([]sim.Option{
		sim.WithLogger(log),
		sim.WithSeed(cfg.Seed),
		sim.WithBackend(b),
		sim.WithValidation(cfg.ValidateState),
	}, opts...)

	ctrl, err := sim.New(cfg.Params(), opts...)
	if err != nil {
		return nil, err
	}
	if presetIdx >= 0 {
		if err := ctrl.SelectPreset(presetIdx); err != nil {
			return nil, err
		}
	}
	if err := ctrl.Initialize(cfg.Viewport.Width, cfg.Viewport.Height, cfg.Resolution); err != nil {
		ctrl.Close()
		return nil, err
	}
	return ctrl, nil
}

package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/guptarohit/asciigraph"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/san-kum/rdsim/internal/analysis"
	"github.com/san-kum/rdsim/internal/compute"
	"github.com/san-kum/rdsim/internal/config"
	"github.com/san-kum/rdsim/internal/dynamo"
	"github.com/san-kum/rdsim/internal/export"
	"github.com/san-kum/rdsim/internal/gui"
	"github.com/san-kum/rdsim/internal/integrators"
	"github.com/san-kum/rdsim/internal/metrics"
	"github.com/san-kum/rdsim/internal/optim"
	"github.com/san-kum/rdsim/internal/sim"
	"github.com/san-kum/rdsim/internal/storage"
	"github.com/san-kum/rdsim/internal/viz"
)

// validationTolerance is the largest per-step error accepted between the
// float32 paths and the float64 reference, measured by
// analysis.MaxRelativeError (absolute for values up to 1).
const validationTolerance = 1e-4

func runHeadless(cmd *cobra.Command, args []string) error {
	cfg, presetIdx, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	log := newLogger(cfg)

	rec := storage.NewRecorder(cfg.Telemetry.Every)
	ctrl, err := newController(cfg, presetIdx, log, sim.WithObserver(rec))
	if err != nil {
		return err
	}
	defer ctrl.Close()

	presetName := "custom"
	if _, p, ok := ctrl.CurrentPreset(); ok {
		presetName = p.Name
	}
	fmt.Printf("running %s on %s (%s)...\n", presetName, ctrl.Layout(), ctrl.BackendName())

	prof := metrics.NewProfiler()
	start := time.Now()
	var tickErr error
	for i := 0; i < runTicks && tickErr == nil; i++ {
		func() {
			defer prof.Scope("tick").End()
			tickErr = ctrl.Tick(cfg.Dt)
		}()
	}
	elapsed := time.Since(start)
	if tickErr != nil {
		log.Error("run stopped", "tick", ctrl.Ticks(), "err", tickErr)
	}

	final := metrics.Measure(ctrl.Field())
	summary := map[string]float64{
		"mean_u":   final.MeanU,
		"mean_v":   final.MeanV,
		"max_v":    final.MaxV,
		"std_v":    final.StdV,
		"coverage": final.Coverage,
	}
	if s, ok := prof.Section("tick"); ok {
		summary["tick_ms"] = s.AvgMs
	}
	wavelength, hasWavelength := analysis.DominantWavelength(ctrl.Field())
	if hasWavelength {
		summary["wavelength"] = wavelength
	}

	l := ctrl.Layout()
	p := ctrl.Params()
	meta := storage.RunMetadata{
		Preset:       presetName,
		GridW:        l.GridW,
		GridH:        l.GridH,
		Resolution:   l.Resolution,
		Feed:         p.Feed,
		Kill:         p.Kill,
		DiffU:        p.DiffU,
		DiffV:        p.DiffV,
		Dt:           cfg.Dt,
		StepsPerTick: p.SubSteps,
		Backend:      ctrl.BackendName(),
		Seed:         cfg.Seed.Strategy,
		Ticks:        ctrl.Ticks(),
		ElapsedSec:   elapsed.Seconds(),
		Summary:      summary,
	}

	fmt.Printf("completed in %v\n", elapsed)
	fmt.Printf("ticks: %d\n", ctrl.Ticks())
	fmt.Println("\nsummary:")
	fmt.Printf("  mean v:   %.6f\n", final.MeanV)
	fmt.Printf("  coverage: %.2f%%\n", final.Coverage*100)
	if hasWavelength {
		fmt.Printf("  wavelength: %.2f cells\n", wavelength)
	}

	st := storage.New(cfg.Telemetry.Dir)
	runID, saveErr := st.Save(meta, rec.Samples())
	if saveErr == nil {
		fmt.Printf("run id: %s\n", runID)
	}
	if tickErr != nil {
		return errors.Join(tickErr, saveErr)
	}
	return saveErr
}

func runLive(cmd *cobra.Command, args []string) error {
	cfg, presetIdx, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if cfg.Backend == compute.BackendGL {
		// no GL context in a terminal
		cfg.Backend = compute.BackendParallel
	}
	cfg.Viewport.Width, cfg.Viewport.Height = viz.FitGrid(cols, rows, cfg.Resolution)

	// the terminal owns stdout and stderr while running
	cfg.LogLevel = "error"
	ctrl, err := newController(cfg, presetIdx, newLogger(cfg))
	if err != nil {
		return err
	}
	defer ctrl.Close()

	return viz.Run(ctrl, viz.Options{Dt: cfg.Dt, Theme: theme})
}

func runGUI(cmd *cobra.Command, args []string) error {
	cfg, presetIdx, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	log := newLogger(cfg)

	// a GL executor needs the window's context, so it is attached by the host
	startGL := cfg.Backend == compute.BackendGL
	if startGL {
		cfg.Backend = compute.BackendCPU
	}
	ctrl, err := newController(cfg, presetIdx, log)
	if err != nil {
		return err
	}

	return gui.Run(ctrl, gui.Options{
		Dt:               cfg.Dt,
		Accelerated:      compute.BackendGL,
		StartAccelerated: startGL,
		Logger:           log,
	})
}

func listPresets(cmd *cobra.Command, args []string) error {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "KEY\tNAME\tF\tK")
	for i, p := range config.Presets() {
		fmt.Fprintf(w, "%d\t%s\t%.3f\t%.3f\n", i+1, p.Name, p.F, p.K)
	}
	return w.Flush()
}

func listRuns(cmd *cobra.Command, args []string) error {
	st := storage.New(telemetryDir(cmd))
	runs, err := st.List()
	if err != nil {
		return err
	}

	if len(runs) == 0 {
		fmt.Println("no runs found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tPRESET\tTIME\tGRID\tF\tK\tTICKS\tBACKEND\tELAPSED")
	for _, run := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%dx%d\t%.4f\t%.4f\t%d\t%s\t%.2fs\n",
			run.ID,
			run.Preset,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.GridW, run.GridH,
			run.Feed,
			run.Kill,
			run.Ticks,
			run.Backend,
			run.ElapsedSec,
		)
	}
	return w.Flush()
}

func plotRun(cmd *cobra.Command, args []string) error {
	runID := args[0]

	st := storage.New(telemetryDir(cmd))
	meta, err := st.Load(runID)
	if err != nil {
		return err
	}
	samples, err := st.LoadSamples(runID)
	if err != nil {
		return err
	}
	if len(samples) < 2 {
		return fmt.Errorf("no data to plot")
	}

	fmt.Printf("run: %s\n", meta.ID)
	fmt.Printf("preset: %s (F=%.4f k=%.4f)\n", meta.Preset, meta.Feed, meta.Kill)
	fmt.Printf("samples: %d\n\n", len(samples))

	series := []struct {
		caption string
		value   func(storage.Sample) float64
	}{
		{"mean v", func(s storage.Sample) float64 { return s.MeanV }},
		{"mean u", func(s storage.Sample) float64 { return s.MeanU }},
		{"coverage", func(s storage.Sample) float64 { return s.Coverage }},
		{"tick ms", func(s storage.Sample) float64 { return s.TickMs }},
	}
	for _, sr := range series {
		data := make([]float64, len(samples))
		for i, s := range samples {
			data[i] = sr.value(s)
		}
		graph := asciigraph.Plot(data,
			asciigraph.Height(10),
			asciigraph.Width(80),
			asciigraph.Caption(sr.caption),
		)
		fmt.Println(graph)
		fmt.Println()
	}
	return nil
}

func exportRun(cmd *cobra.Command, args []string) error {
	st := storage.New(telemetryDir(cmd))
	meta, err := st.Load(args[0])
	if err != nil {
		return err
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(meta)
}

// telemetryDir resolves --data, then the config file, then the default.
func telemetryDir(cmd *cobra.Command) string {
	if dataDir != "" {
		return dataDir
	}
	if configFile != "" {
		if cfg, err := config.Load(configFile); err == nil {
			return cfg.Telemetry.Dir
		}
	}
	return config.DefaultTelemetryDir
}

func benchBackends(cmd *cobra.Command, args []string) error {
	cfg, presetIdx, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	cfg.Seed.Strategy = config.SeedCenter
	log := newLogger(cfg)

	fmt.Printf("benchmarking %d ticks x %d steps\n\n", benchTicks, cfg.StepsPerTick)
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "BACKEND\tGRID\tTICKS\tTIME\tTICKS/SEC\tCELL-STEPS/SEC")

	for _, name := range []string{compute.BackendCPU, compute.BackendParallel} {
		for _, n := range gridSizes {
			run := *cfg
			run.Backend = name
			run.Viewport.Width, run.Viewport.Height, run.Resolution = n, n, 1

			ctrl, err := newController(&run, presetIdx, log)
			if err != nil {
				return err
			}

			start := time.Now()
			for i := 0; i < benchTicks; i++ {
				if err := ctrl.Tick(run.Dt); err != nil {
					ctrl.Close()
					return err
				}
			}
			elapsed := time.Since(start)
			ctrl.Close()

			tps := float64(benchTicks) / elapsed.Seconds()
			cellSteps := tps * float64(n*n*run.StepsPerTick)
			fmt.Fprintf(w, "%s\t%dx%d\t%d\t%v\t%.1f\t%.3g\n",
				name, n, n, benchTicks, elapsed.Round(time.Microsecond), tps, cellSteps)
		}
	}
	return w.Flush()
}

// validatePaths steps one field with the sequential integrator and checks every
// step against the float64 reference, then runs the parallel executor alongside
// and checks it matches.
func validatePaths(cmd *cobra.Command, args []string) error {
	cfg, _, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	p := cfg.Params()

	seq, err := dynamo.NewPingPong(cfg.Viewport.Width/cfg.Resolution, cfg.Viewport.Height/cfg.Resolution)
	if err != nil {
		return err
	}
	seq.Src.SeedUniform(dynamo.BaselineU, dynamo.BaselineV)
	seq.Src.SeedCenterPatch(cfg.Seed.CenterU, cfg.Seed.CenterV, cfg.Seed.HalfSize)

	par := compute.NewCPUBackend()
	defer par.Cleanup()
	if err := par.Load(seq.Src); err != nil {
		return err
	}
	parField := seq.Src.Clone()

	euler := integrators.NewEuler()
	uniforms := compute.NewUniforms(p, cfg.Dt, compute.Pointer{})
	var worstRef, worstPar float64

	for i := 0; i < validateSteps; i++ {
		wantU, wantV := integrators.Reference(seq.Src, p, float64(cfg.Dt))
		if err := euler.Step(seq.Src, seq.Dst, p, cfg.Dt); err != nil {
			return err
		}
		seq.Swap()

		eu, _ := analysis.MaxRelativeError(seq.Src.U, wantU)
		ev, _ := analysis.MaxRelativeError(seq.Src.V, wantV)
		worstRef = max(worstRef, eu, ev)

		if err := par.Step(uniforms); err != nil {
			return err
		}
		if err := par.Store(parField); err != nil {
			return err
		}
		worstPar = max(worstPar, analysis.FieldError(parField, seq.Src))
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "grid\t%dx%d\n", seq.Src.W, seq.Src.H)
	fmt.Fprintf(w, "steps\t%d\n", validateSteps)
	fmt.Fprintln(w, "metric\t|got-want| / max(1, |want|)")
	fmt.Fprintf(w, "float32 vs float64\t%.3e\n", worstRef)
	fmt.Fprintf(w, "parallel vs sequential\t%.3e\n", worstPar)
	if err := w.Flush(); err != nil {
		return err
	}

	if worstRef > validationTolerance || worstPar > validationTolerance {
		return fmt.Errorf("validation failed: error above %g (relative, floored at 1)", validationTolerance)
	}
	fmt.Println("ok")
	return nil
}

func writeConfig(cmd *cobra.Command, args []string) error {
	cfg, _, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if len(args) == 1 {
		if err := config.Save(args[0], cfg); err != nil {
			return err
		}
		fmt.Printf("wrote %s\n", args[0])
		return nil
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	_, err = os.Stdout.Write(data)
	return err
}

func writeSnapshot(cmd *cobra.Command, args []string) error {
	cfg, presetIdx, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if cfg.Backend == compute.BackendGL {
		cfg.Backend = compute.BackendParallel
	}
	ctrl, err := newController(cfg, presetIdx, newLogger(cfg))
	if err != nil {
		return err
	}
	defer ctrl.Close()

	for i := 0; i < snapTicks; i++ {
		if err := ctrl.Tick(cfg.Dt); err != nil {
			return err
		}
	}

	t := viz.GetTheme(theme)
	var svg string
	if snapBraille {
		f := ctrl.Field()
		canvas := viz.NewCanvas(viz.BrailleSize(f.W, f.H))
		canvas.DrawField(f)
		svg = export.CanvasToSVG(canvas, snapCell, string(t.High))
	} else {
		svg = export.FieldToSVG(ctrl.Field(), snapCell, viz.RGBA(t.Low), viz.RGBA(t.High))
	}

	if err := os.WriteFile(args[0], []byte(svg), 0644); err != nil {
		return err
	}
	fmt.Printf("wrote %s after %d ticks (%s)\n", args[0], ctrl.Ticks(), ctrl.Layout())
	return nil
}

func runSweep(cmd *cobra.Command, args []string) error {
	cfg, _, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if len(sweepFeeds) != 2 || len(sweepKills) != 2 {
		return errors.New("--feed-range and --kill-range take min,max")
	}

	s := optim.NewSweep(
		optim.Range(float32(sweepFeeds[0]), float32(sweepFeeds[1]), sweepPoints),
		optim.Range(float32(sweepKills[0]), float32(sweepKills[1]), sweepPoints),
	)
	s.Base = cfg.Params()
	s.GridW, s.GridH = sweepGrid, sweepGrid
	s.Ticks = sweepTicks
	s.Dt = cfg.Dt

	fmt.Printf("sweeping %d points on %dx%d for %d ticks...\n", len(s.Feeds)*len(s.Kills), sweepGrid, sweepGrid, sweepTicks)
	start := time.Now()
	points, err := s.Run(context.Background())
	if err != nil {
		return err
	}
	if err := optim.Rank(points, sweepMetric); err != nil {
		return err
	}
	fmt.Printf("completed in %v\n\n", time.Since(start).Round(time.Millisecond))

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "F\tK\tCOVERAGE\tMEAN V\tSTD V\tWAVELENGTH\tSTATUS")
	for i, p := range points {
		if i >= sweepTop {
			break
		}
		status := "ok"
		if p.Err != nil {
			status = "unstable"
		}
		fmt.Fprintf(w, "%.4f\t%.4f\t%.3f\t%.4f\t%.4f\t%.2f\t%s\n",
			p.Feed, p.Kill, p.Stats.Coverage, p.Stats.MeanV, p.Stats.StdV, p.Wavelength, status)
	}
	return w.Flush()
}

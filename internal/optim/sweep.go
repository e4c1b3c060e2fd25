// Package optim sweeps the (F, k) plane and scores the patterns each point
// settles into.
package optim

import (
	"context"
	"fmt"
	"math"
	"runtime"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/san-kum/rdsim/internal/analysis"
	"github.com/san-kum/rdsim/internal/config"
	"github.com/san-kum/rdsim/internal/dynamo"
	"github.com/san-kum/rdsim/internal/metrics"
	"github.com/san-kum/rdsim/internal/sim"
)

// Metric names accepted by Best.
const (
	MetricCoverage   = "coverage"
	MetricMeanV      = "mean_v"
	MetricStdV       = "std_v"
	MetricWavelength = "wavelength"
)

// Point is the outcome of one (F, k) combination.
type Point struct {
	Feed, Kill float32
	Stats      metrics.Stats
	Wavelength float64 // 0 when the field has no dominant wavelength
	Err        error   // set when the run went unstable
}

// Metric returns the named score of p.
func (p Point) Metric(name string) (float64, error) {
	switch name {
	case MetricCoverage:
		return p.Stats.Coverage, nil
	case MetricMeanV:
		return p.Stats.MeanV, nil
	case MetricStdV:
		return p.Stats.StdV, nil
	case MetricWavelength:
		return p.Wavelength, nil
	}
	return 0, fmt.Errorf("unknown metric: %s", name)
}

// Sweep runs a small center-seeded grid for every combination of Feeds and
// Kills.
type Sweep struct {
	Feeds, Kills []float32
	Base         dynamo.Params
	GridW, GridH int
	Ticks        int
	Dt           float32
	Workers      int
}

func NewSweep(feeds, kills []float32) *Sweep {
	return &Sweep{
		Feeds:   feeds,
		Kills:   kills,
		Base:    dynamo.DefaultParams(),
		GridW:   64,
		GridH:   64,
		Ticks:   200,
		Dt:      dynamo.DefaultDt,
		Workers: runtime.NumCPU(),
	}
}

// Range returns n evenly spaced values from lo to hi inclusive.
func Range(lo, hi float32, n int) []float32 {
	if n <= 1 {
		return []float32{lo}
	}
	out := make([]float32, n)
	step := (hi - lo) / float32(n-1)
	for i := range out {
		out[i] = lo + step*float32(i)
	}
	return out
}

// Run evaluates every point, feeds-major. An unstable point records its error
// and does not stop the sweep. Cancelling ctx does.
func (s *Sweep) Run(ctx context.Context) ([]Point, error) {
	points := make([]Point, 0, len(s.Feeds)*len(s.Kills))
	for _, f := range s.Feeds {
		for _, k := range s.Kills {
			points = append(points, Point{Feed: f, Kill: k})
		}
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(max(1, s.Workers))
	for i := range points {
		i := i
		g.Go(func() error {
			return s.evaluate(ctx, &points[i])
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return points, nil
}

func (s *Sweep) evaluate(ctx context.Context, pt *Point) error {
	p := s.Base
	p.Feed, p.Kill = pt.Feed, pt.Kill

	ctrl, err := sim.New(p,
		sim.WithSeed(config.SeedConfig{
			Strategy: config.SeedCenter,
			CenterU:  config.DefaultCenterU,
			CenterV:  config.DefaultCenterV,
			HalfSize: config.DefaultCenterHalf,
		}),
		sim.WithValidation(true),
	)
	if err != nil {
		return err
	}
	defer ctrl.Close()
	if err := ctrl.Initialize(s.GridW, s.GridH, 1); err != nil {
		return err
	}

	for i := 0; i < s.Ticks; i++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := ctrl.Tick(s.Dt); err != nil {
			pt.Err = err
			return nil
		}
	}

	pt.Stats = metrics.Measure(ctrl.Field())
	if w, ok := analysis.DominantWavelength(ctrl.Field()); ok {
		pt.Wavelength = w
	}
	return nil
}

// Best returns the stable point with the highest value of metric.
func Best(points []Point, metric string) (Point, float64, error) {
	best := math.Inf(-1)
	var bestPoint Point
	found := false
	for _, p := range points {
		if p.Err != nil {
			continue
		}
		v, err := p.Metric(metric)
		if err != nil {
			return Point{}, 0, err
		}
		if v > best {
			best, bestPoint, found = v, p, true
		}
	}
	if !found {
		return Point{}, 0, fmt.Errorf("no stable points")
	}
	return bestPoint, best, nil
}

// Rank sorts points by metric, highest first. Unstable points go last.
func Rank(points []Point, metric string) error {
	if _, err := (Point{}).Metric(metric); err != nil {
		return err
	}
	sort.SliceStable(points, func(i, j int) bool {
		a, b := points[i], points[j]
		if (a.Err == nil) != (b.Err == nil) {
			return a.Err == nil
		}
		va, _ := a.Metric(metric)
		vb, _ := b.Metric(metric)
		return va > vb
	})
	return nil
}

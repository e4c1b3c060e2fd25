package metrics

import (
	"math"
	"testing"
	"time"

	"github.com/san-kum/rdsim/internal/dynamo"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time          { return c.t }
func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestProfiler() (*Profiler, *fakeClock) {
	clk := &fakeClock{t: time.Unix(0, 0)}
	p := NewProfiler()
	p.now = clk.now
	return p, clk
}

func TestProfilerFrames(t *testing.T) {
	p, clk := newTestProfiler()

	for _, d := range []time.Duration{10 * time.Millisecond, 30 * time.Millisecond} {
		p.BeginFrame()
		clk.advance(d)
		p.EndFrame()
	}

	if p.FrameMs() != 30 {
		t.Errorf("expected last frame 30ms, got %f", p.FrameMs())
	}
	if math.Abs(p.FPS()-1000.0/30) > 1e-9 {
		t.Errorf("unexpected fps %f", p.FPS())
	}
	// two frames in 40ms
	if math.Abs(p.AvgFPS()-50) > 1e-9 {
		t.Errorf("expected avg fps 50, got %f", p.AvgFPS())
	}

	h := p.FrameHistory()
	if len(h) != History {
		t.Fatalf("expected %d history slots, got %d", History, len(h))
	}
	if h[History-2] != 10 || h[History-1] != 30 {
		t.Errorf("history not ordered oldest first: %v", h[History-2:])
	}
}

func TestProfilerHistoryWraps(t *testing.T) {
	p, clk := newTestProfiler()
	for i := 1; i <= History+5; i++ {
		p.BeginFrame()
		clk.advance(time.Duration(i) * time.Millisecond)
		p.EndFrame()
	}

	h := p.FrameHistory()
	if h[0] != 6 || h[History-1] != float64(History+5) {
		t.Errorf("unexpected wrapped history ends: %f %f", h[0], h[History-1])
	}
	if p.Frames() != History+5 {
		t.Errorf("expected %d frames, got %d", History+5, p.Frames())
	}
}

func TestProfilerScopes(t *testing.T) {
	p, clk := newTestProfiler()

	for _, d := range []time.Duration{2 * time.Millisecond, 4 * time.Millisecond} {
		func() {
			defer p.Scope("tick").End()
			clk.advance(d)
		}()
	}
	func() {
		defer p.Scope("render").End()
		clk.advance(time.Millisecond)
	}()

	s, ok := p.Section("tick")
	if !ok {
		t.Fatal("tick scope missing")
	}
	if s.Count != 2 || s.LastMs != 4 || s.AvgMs != 3 {
		t.Errorf("unexpected tick stat %+v", s)
	}

	names := p.Sections()
	if len(names) != 2 || names[0] != "render" || names[1] != "tick" {
		t.Errorf("expected sorted sections, got %v", names)
	}
}

func TestProfilerRestart(t *testing.T) {
	p, clk := newTestProfiler()
	p.BeginFrame()
	clk.advance(5 * time.Millisecond)
	p.EndFrame()
	p.Scope("x").End()

	p.Restart()

	if p.Frames() != 0 || p.AvgFPS() != 0 || p.FPS() != 0 {
		t.Error("frame stats not cleared")
	}
	if len(p.Sections()) != 0 {
		t.Error("scopes not cleared")
	}
	for _, v := range p.FrameHistory() {
		if v != 0 {
			t.Fatal("history not cleared")
		}
	}
}

func TestMeasureUniform(t *testing.T) {
	f, _ := dynamo.NewField(10, 10)
	f.SeedUniform(1, 0)

	s := Measure(f)
	if s.MeanU != 1 || s.MinU != 1 || s.MeanV != 0 || s.MaxV != 0 || s.StdV != 0 || s.Coverage != 0 {
		t.Errorf("unexpected stats for baseline field: %+v", s)
	}
}

func TestMeasurePatch(t *testing.T) {
	f, _ := dynamo.NewField(10, 10)
	f.SeedUniform(1, 0)
	f.SeedCenterPatch(0.5, 1, 1) // 9 cells

	s := Measure(f)
	if math.Abs(s.Coverage-0.09) > 1e-12 {
		t.Errorf("expected coverage 0.09, got %f", s.Coverage)
	}
	if math.Abs(s.MeanV-0.09) > 1e-12 {
		t.Errorf("expected mean v 0.09, got %f", s.MeanV)
	}
	if s.MaxV != 1 || s.MinU != 0.5 {
		t.Errorf("unexpected extremes: %+v", s)
	}
	wantStd := math.Sqrt(0.09 * 0.91)
	if math.Abs(s.StdV-wantStd) > 1e-9 {
		t.Errorf("expected std %f, got %f", wantStd, s.StdV)
	}
}

func TestMeasureNil(t *testing.T) {
	if s := Measure(nil); s != (Stats{}) {
		t.Errorf("expected zero stats, got %+v", s)
	}
}

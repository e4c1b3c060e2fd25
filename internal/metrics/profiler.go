package metrics

import (
	"sort"
	"time"
)

// History is the number of frametimes kept, four seconds at 60 fps.
const History = 240

// Stat summarizes one named scope.
type Stat struct {
	LastMs float64
	AvgMs  float64
	Count  int
}

// Profiler records frame times and named code sections. It is not safe for
// concurrent use.
type Profiler struct {
	history [History]float32
	idx     int

	frameStart time.Time
	frameMs    float64
	accumMs    float64
	frames     int
	avgFPS     float64

	scopes map[string]*Stat
	now    func() time.Time
}

func NewProfiler() *Profiler {
	return &Profiler{scopes: make(map[string]*Stat), now: time.Now}
}

func (p *Profiler) BeginFrame() { p.frameStart = p.now() }

// EndFrame records the time since BeginFrame and updates the running average.
func (p *Profiler) EndFrame() {
	p.frameMs = ms(p.now().Sub(p.frameStart))
	p.history[p.idx] = float32(p.frameMs)
	p.idx = (p.idx + 1) % History

	p.accumMs += p.frameMs
	p.frames++
	if p.accumMs > 0 {
		p.avgFPS = float64(p.frames) / (p.accumMs / 1000)
	}
}

// Restart clears frame history and every scope.
func (p *Profiler) Restart() {
	p.frameStart = p.now()
	p.history = [History]float32{}
	p.idx = 0
	p.frameMs, p.accumMs, p.avgFPS = 0, 0, 0
	p.frames = 0
	p.scopes = make(map[string]*Stat)
}

// FrameMs is the duration of the last completed frame.
func (p *Profiler) FrameMs() float64 { return p.frameMs }

// FPS is derived from the last frame only.
func (p *Profiler) FPS() float64 {
	if p.frameMs <= 0 {
		return 0
	}
	return 1000 / p.frameMs
}

func (p *Profiler) AvgFPS() float64 { return p.avgFPS }
func (p *Profiler) Frames() int     { return p.frames }

// FrameHistory returns frametimes oldest first. Slots never written are zero.
func (p *Profiler) FrameHistory() []float64 {
	out := make([]float64, 0, History)
	for i := 0; i < History; i++ {
		out = append(out, float64(p.history[(p.idx+i)%History]))
	}
	return out
}

// Scope starts timing a named section; call End on the returned handle, usually
// with defer.
func (p *Profiler) Scope(name string) ScopeTimer {
	return ScopeTimer{p: p, name: name, t0: p.now()}
}

// Section returns the stats recorded for name.
func (p *Profiler) Section(name string) (Stat, bool) {
	s, ok := p.scopes[name]
	if !ok {
		return Stat{}, false
	}
	return *s, true
}

// Sections lists recorded scope names in sorted order.
func (p *Profiler) Sections() []string {
	names := make([]string, 0, len(p.scopes))
	for n := range p.scopes {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

type ScopeTimer struct {
	p    *Profiler
	name string
	t0   time.Time
}

func (s ScopeTimer) End() {
	dt := ms(s.p.now().Sub(s.t0))
	st, ok := s.p.scopes[s.name]
	if !ok {
		st = &Stat{}
		s.p.scopes[s.name] = st
	}
	st.LastMs = dt
	st.Count++
	st.AvgMs += (dt - st.AvgMs) / float64(st.Count)
}

func ms(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}

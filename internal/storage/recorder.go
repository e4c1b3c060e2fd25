package storage

import (
	"time"

	"github.com/san-kum/rdsim/internal/dynamo"
	"github.com/san-kum/rdsim/internal/metrics"
)

// Recorder collects a Sample every N ticks. Attach it to a controller as an
// observer.
type Recorder struct {
	every   int
	samples []Sample

	lastTick int
	lastAt   time.Time
	now      func() time.Time
}

func NewRecorder(every int) *Recorder {
	if every < 1 {
		every = 1
	}
	return &Recorder{every: every, now: time.Now}
}

func (r *Recorder) OnTick(f *dynamo.Field, tick int) {
	now := r.now()
	if r.lastAt.IsZero() {
		r.lastAt = now
	}
	if tick%r.every != 0 {
		return
	}

	var tickMs float64
	if n := tick - r.lastTick; n > 0 {
		tickMs = float64(now.Sub(r.lastAt)) / float64(time.Millisecond) / float64(n)
	}
	r.lastTick, r.lastAt = tick, now

	st := metrics.Measure(f)
	r.samples = append(r.samples, Sample{
		Tick:     tick,
		MeanU:    st.MeanU,
		MeanV:    st.MeanV,
		MaxV:     st.MaxV,
		Coverage: st.Coverage,
		TickMs:   tickMs,
	})
}

func (r *Recorder) Samples() []Sample { return r.samples }

func (r *Recorder) Last() (Sample, bool) {
	if len(r.samples) == 0 {
		return Sample{}, false
	}
	return r.samples[len(r.samples)-1], true
}

package viz

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"

	"github.com/san-kum/rdsim/internal/analysis"
	"github.com/san-kum/rdsim/internal/compute"
	"github.com/san-kum/rdsim/internal/metrics"
	"github.com/san-kum/rdsim/internal/sim"
)

const (
	historyCapacity = 120
	frameInterval   = time.Second / 30
	// wavelength is recomputed every this many ticks
	spectrumEvery = 30
)

// liveBackends are the executors the B key cycles through.
var liveBackends = []string{compute.BackendCPU, compute.BackendParallel}

type TickMsg time.Time

type Options struct {
	Dt    float32
	Theme string
}

// Model drives a controller from bubbletea frames. The controller must already
// be initialized; its layout is interpreted as one grid cell per character.
type Model struct {
	ctrl *sim.Controller
	prof *metrics.Profiler
	dt   float32

	running  bool
	braille  bool
	showProf bool
	theme    Theme
	ramp     []lipgloss.Style
	canvas   *Canvas

	meanV      []float64
	stats      metrics.Stats
	wavelength float64
	err        error
}

func NewModel(ctrl *sim.Controller, opts Options) *Model {
	if opts.Dt <= 0 {
		opts.Dt = 1
	}
	theme := GetTheme(opts.Theme)
	l := ctrl.Layout()
	return &Model{
		ctrl:    ctrl,
		prof:    metrics.NewProfiler(),
		dt:      opts.Dt,
		running: true,
		theme:   theme,
		ramp:    RampStyles(theme, len(shadeRamp)),
		canvas:  NewCanvas(BrailleSize(l.GridW, l.GridH)),
		meanV:   make([]float64, 0, historyCapacity),
	}
}

func tick() tea.Cmd {
	return tea.Tick(frameInterval, func(t time.Time) tea.Msg { return TickMsg(t) })
}

func (m *Model) Init() tea.Cmd { return tick() }

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m, m.handleKey(msg)
	case tea.MouseMsg:
		if msg.Button == tea.MouseButtonLeft &&
			(msg.Action == tea.MouseActionPress || msg.Action == tea.MouseActionMotion) {
			m.perturbAt(msg.X, msg.Y)
		}
	case TickMsg:
		m.prof.BeginFrame()
		if m.running && m.err == nil {
			m.step()
		}
		m.prof.EndFrame()
		return m, tick()
	}
	return m, nil
}

func (m *Model) handleKey(msg tea.KeyMsg) tea.Cmd {
	switch key := msg.String(); key {
	case "q", "ctrl+c":
		return tea.Quit
	case " ":
		m.running = !m.running
	case "r":
		m.err = m.ctrl.Reset()
		m.meanV = m.meanV[:0]
	case "1", "2", "3", "4", "5", "6":
		m.err = m.ctrl.SelectPreset(int(key[0] - '1'))
	case "+", "=":
		m.err = m.ctrl.SetSubSteps(m.ctrl.SubSteps() + 1)
	case "-", "_":
		if n := m.ctrl.SubSteps(); n > 1 {
			m.err = m.ctrl.SetSubSteps(n - 1)
		}
	case "b":
		m.cycleBackend()
	case "p":
		m.showProf = !m.showProf
	case "v":
		m.braille = !m.braille
	case "t":
		m.theme = NextTheme(m.theme.Name)
		m.ramp = RampStyles(m.theme, len(shadeRamp))
	}
	return nil
}

func (m *Model) cycleBackend() {
	next := liveBackends[0]
	for i, name := range liveBackends {
		if name == m.ctrl.BackendName() {
			next = liveBackends[(i+1)%len(liveBackends)]
		}
	}
	b, err := compute.New(next)
	if err != nil {
		m.err = err
		return
	}
	m.err = m.ctrl.SetBackend(b)
}

func (m *Model) step() {
	func() {
		defer m.prof.Scope("tick").End()
		m.err = m.ctrl.Tick(m.dt)
	}()
	if m.err != nil {
		return
	}

	m.stats = metrics.Measure(m.ctrl.Field())
	m.meanV = append(m.meanV, m.stats.MeanV)
	if len(m.meanV) > historyCapacity {
		m.meanV = m.meanV[1:]
	}
	if m.ctrl.Ticks()%spectrumEvery == 0 {
		defer m.prof.Scope("spectrum").End()
		if w, ok := analysis.DominantWavelength(m.ctrl.Field()); ok {
			m.wavelength = w
		}
	}
}

// perturbAt converts a terminal cell to window coordinates at the center of
// the grid cell it shows and forwards them to the controller.
func (m *Model) perturbAt(col, row int) bool {
	l := m.ctrl.Layout()
	// the canvas sits inside a one-cell frame
	col, row = col-1, row-1

	cx, cy := col, row
	if m.braille {
		cx, cy = col*2, row*4
	}
	if cx < 0 || cy < 0 || cx >= l.GridW || cy >= l.GridH {
		return false
	}
	res := float64(l.Resolution)
	wx := (float64(cx) + 0.5) * res
	wy := (float64(cy) + 0.5) * res
	return m.ctrl.Perturb(wx, wy)
}

func (m *Model) View() string {
	defer m.prof.Scope("render").End()

	field := lipgloss.NewStyle().
		Border(lipgloss.NormalBorder()).
		BorderForeground(m.theme.Muted).
		Render(strings.TrimSuffix(m.renderField(), "\n"))

	return lipgloss.JoinHorizontal(lipgloss.Top, field, m.renderPanel())
}

func (m *Model) renderField() string {
	f := m.ctrl.Field()
	if f == nil {
		return ""
	}
	if m.braille {
		m.canvas.DrawField(f)
		return lipgloss.NewStyle().Foreground(m.theme.High).Render(m.canvas.String())
	}

	scale := float32(m.stats.MaxV)
	if scale < 0.25 {
		scale = 0.25
	}
	var b strings.Builder
	for _, row := range ShadeLevels(f, scale) {
		// one Render per run of equal levels
		start := 0
		for x := 1; x <= len(row); x++ {
			if x < len(row) && row[x] == row[start] {
				continue
			}
			run := make([]rune, x-start)
			for i := range run {
				run[i] = ShadeGlyph(row[start])
			}
			b.WriteString(m.ramp[row[start]].Render(string(run)))
			start = x
		}
		b.WriteByte('\n')
	}
	return b.String()
}

func (m *Model) renderPanel() string {
	var s strings.Builder
	p := m.ctrl.Params()

	name := "custom"
	if _, preset, ok := m.ctrl.CurrentPreset(); ok {
		name = preset.Name
	}
	s.WriteString(headerStyle.Render("GRAY-SCOTT · "+strings.ToUpper(name)) + "\n")

	switch {
	case m.err != nil:
		s.WriteString(statusError.Render("ERROR "+m.err.Error()) + "\n\n")
	case m.running:
		s.WriteString(statusRunning.Render("RUNNING") + "\n\n")
	default:
		s.WriteString(statusPaused.Render("PAUSED") + "\n\n")
	}

	row := func(label, value string) {
		s.WriteString(metricLabel.Render(label) + metricValue.Render(value) + "\n")
	}
	row("F / k", fmt.Sprintf("%.4f / %.4f", p.Feed, p.Kill))
	row("Du / Dv", fmt.Sprintf("%.3f / %.3f", p.DiffU, p.DiffV))
	row("Steps", fmt.Sprintf("%d per tick", p.SubSteps))
	row("Backend", m.ctrl.BackendName())
	row("Grid", fmt.Sprintf("%dx%d", m.ctrl.Layout().GridW, m.ctrl.Layout().GridH))
	row("Tick", fmt.Sprintf("%d", m.ctrl.Ticks()))
	row("Mean v", fmt.Sprintf("%.4f", m.stats.MeanV))
	if m.wavelength > 0 {
		row("Wavelength", fmt.Sprintf("%.1f cells", m.wavelength))
	}
	s.WriteString(metricLabel.Render("Coverage") + ProgressBar(m.stats.Coverage, 20) + "\n")

	if len(m.meanV) > 1 {
		chart := asciigraph.Plot(m.meanV, asciigraph.Height(4), asciigraph.Width(30), asciigraph.Caption("mean v"))
		s.WriteString("\n" + chart + "\n")
	}

	if m.showProf {
		s.WriteString("\n" + Separator(30) + "\n")
		row("FPS", fmt.Sprintf("%.1f (avg %.1f)", m.prof.FPS(), m.prof.AvgFPS()))
		s.WriteString(SparklineChart(m.prof.FrameHistory(), 30) + "\n")
		for _, name := range m.prof.Sections() {
			st, _ := m.prof.Section(name)
			row(name, fmt.Sprintf("%.2fms avg %.2f n=%d", st.LastMs, st.AvgMs, st.Count))
		}
	}

	s.WriteString("\n" + keyHint.Render("SP:Pause R:Reset 1-6:Preset\n+/-:Steps B:Backend P:Prof\nV:View T:Theme click:Seed Q:Quit"))
	return panelStyle.BorderForeground(m.theme.Accent).Render(s.String())
}

// Run starts the terminal host on the alternate screen with mouse tracking.
func Run(ctrl *sim.Controller, opts Options) error {
	_, err := tea.NewProgram(NewModel(ctrl, opts), tea.WithAltScreen(), tea.WithMouseCellMotion()).Run()
	return err
}

// FitGrid returns a viewport and resolution that give one grid cell per
// character for a terminal of cols x rows, leaving room for the side panel.
func FitGrid(cols, rows, resolution int) (viewportW, viewportH int) {
	w := cols - 44
	h := rows - 2
	if w < 8 {
		w = 8
	}
	if h < 8 {
		h = 8
	}
	return w * resolution, h * resolution
}


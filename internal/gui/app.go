// Package gui is the raylib window host.
package gui

import (
	"fmt"
	"image/color"
	"log/slog"

	"github.com/gen2brain/raylib-go/raygui"
	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/san-kum/rdsim/internal/compute"
	"github.com/san-kum/rdsim/internal/config"
	"github.com/san-kum/rdsim/internal/metrics"
	"github.com/san-kum/rdsim/internal/sim"
)

var (
	ColBg      = rl.NewColor(10, 10, 10, 255)
	ColPanel   = rl.NewColor(20, 20, 24, 220)
	ColSelect  = rl.NewColor(255, 255, 255, 255)
	ColText    = rl.NewColor(160, 160, 160, 255)
	ColTextDim = rl.NewColor(90, 90, 90, 255)
	ColAccent  = rl.NewColor(0, 204, 255, 255)
)

// Parameter ranges exposed by the controls.
const (
	minFeed, maxFeed   = 0.01, 0.09
	minKill, maxKill   = 0.04, 0.07
	paramStep          = 0.001
	minSteps, maxSteps = 1, 24
)

type Options struct {
	Title string
	Dt    float32
	// Accelerated is the executor G switches to, "gl" or "parallel".
	Accelerated string
	// StartAccelerated attaches the accelerated executor once the window exists.
	StartAccelerated bool
	Logger           *slog.Logger
}

type App struct {
	ctrl *sim.Controller
	prof *metrics.Profiler
	opts Options
	log  *slog.Logger

	tex    rl.Texture2D
	texW   int
	texH   int
	pixels []color.RGBA

	running  bool
	showUI   bool
	showProf bool
	status   string
}

// Run opens a window matching the controller's viewport and blocks until it is
// closed. The controller must be initialized.
func Run(ctrl *sim.Controller, opts Options) error {
	if opts.Title == "" {
		opts.Title = "rdsim"
	}
	if opts.Dt <= 0 {
		opts.Dt = 1
	}
	if opts.Accelerated == "" {
		opts.Accelerated = compute.BackendGL
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	l := ctrl.Layout()
	rl.SetConfigFlags(rl.FlagWindowResizable)
	rl.InitWindow(int32(l.ViewportW), int32(l.ViewportH), opts.Title)
	defer rl.CloseWindow()
	rl.SetTargetFPS(60)
	rl.SetExitKey(0)

	a := &App{
		ctrl:    ctrl,
		prof:    metrics.NewProfiler(),
		opts:    opts,
		log:     opts.Logger,
		running: true,
		showUI:  true,
	}
	defer a.unload()
	defer ctrl.Close()
	if opts.StartAccelerated {
		a.toggleBackend()
	}

	for !rl.WindowShouldClose() {
		if rl.IsKeyPressed(rl.KeyQ) {
			break
		}
		a.prof.BeginFrame()
		a.Update()
		a.Draw()
		a.prof.EndFrame()
	}
	return nil
}

func (a *App) Update() {
	if rl.IsWindowResized() {
		w, h := int(rl.GetScreenWidth()), int(rl.GetScreenHeight())
		if err := a.ctrl.Resize(w, h); err != nil {
			a.status = err.Error()
		}
	}

	a.handleKeys()

	if rl.IsMouseButtonDown(rl.MouseLeftButton) && !a.overPanel() {
		pos := rl.GetMousePosition()
		a.ctrl.Perturb(float64(pos.X), float64(pos.Y))
	}

	if a.running {
		func() {
			defer a.prof.Scope("tick").End()
			if err := a.ctrl.Tick(a.opts.Dt); err != nil {
				a.running = false
				a.status = err.Error()
				a.log.Error("tick failed", "tick", a.ctrl.Ticks(), "err", err)
			}
		}()
	}
}

func (a *App) handleKeys() {
	switch {
	case rl.IsKeyPressed(rl.KeySpace):
		a.running = !a.running
	case rl.IsKeyPressed(rl.KeyI):
		a.showUI = !a.showUI
	case rl.IsKeyPressed(rl.KeyP):
		a.showProf = !a.showProf
		if a.showProf {
			a.prof.Restart()
		}
	case rl.IsKeyPressed(rl.KeyG):
		a.toggleBackend()
	case rl.IsKeyPressed(rl.KeyR):
		a.setStatus(a.ctrl.Reset())
		a.running = true
	case rl.IsKeyPressed(rl.KeyLeftBracket):
		if n := a.ctrl.SubSteps(); n > minSteps {
			a.setStatus(a.ctrl.SetSubSteps(n - 1))
		}
	case rl.IsKeyPressed(rl.KeyRightBracket):
		if n := a.ctrl.SubSteps(); n < maxSteps {
			a.setStatus(a.ctrl.SetSubSteps(n + 1))
		}
	}

	for i := int32(0); i < 6; i++ {
		if rl.IsKeyPressed(rl.KeyOne + i) {
			a.setStatus(a.ctrl.SelectPreset(int(i)))
		}
	}

	p := a.ctrl.Params()
	feed, kill := p.Feed, p.Kill
	if rl.IsKeyDown(rl.KeyUp) {
		feed += paramStep
	}
	if rl.IsKeyDown(rl.KeyDown) {
		feed -= paramStep
	}
	if rl.IsKeyDown(rl.KeyRight) {
		kill += paramStep
	}
	if rl.IsKeyDown(rl.KeyLeft) {
		kill -= paramStep
	}
	if feed != p.Feed || kill != p.Kill {
		feed = rl.Clamp(feed, minFeed, maxFeed)
		kill = rl.Clamp(kill, minKill, maxKill)
		a.setStatus(a.ctrl.SetParameters(feed, kill))
	}
}

// toggleBackend flips between the sequential integrator and the accelerated
// executor, falling back to the parallel CPU executor when GL is missing.
func (a *App) toggleBackend() {
	if a.ctrl.BackendName() != compute.BackendCPU {
		a.setStatus(a.ctrl.SetBackend(nil))
		return
	}
	b, err := compute.New(a.opts.Accelerated)
	if err != nil {
		a.log.Warn("backend unavailable, using parallel", "backend", a.opts.Accelerated, "err", err)
		b = compute.NewCPUBackend()
	}
	a.setStatus(a.ctrl.SetBackend(b))
}

func (a *App) setStatus(err error) {
	if err != nil {
		a.status = err.Error()
		return
	}
	a.status = ""
}

func (a *App) Draw() {
	rl.BeginDrawing()
	rl.ClearBackground(ColBg)

	func() {
		defer a.prof.Scope("render").End()
		a.drawField()
	}()
	if a.showUI {
		a.drawControls()
	}
	if a.showProf {
		a.drawProfiler()
	}

	rl.EndDrawing()
}

func (a *App) drawField() {
	f := a.ctrl.Field()
	if f == nil {
		return
	}
	if f.W != a.texW || f.H != a.texH {
		a.unload()
		img := rl.GenImageColor(f.W, f.H, rl.Black)
		a.tex = rl.LoadTextureFromImage(img)
		rl.SetTextureFilter(a.tex, rl.FilterPoint)
		rl.UnloadImage(img)
		a.texW, a.texH = f.W, f.H
		a.pixels = make([]color.RGBA, f.Len())
	}

	Colorize(f, a.pixels)
	rl.UpdateTexture(a.tex, a.pixels)

	l := a.ctrl.Layout()
	src := rl.Rectangle{Width: float32(f.W), Height: float32(f.H)}
	dst := rl.Rectangle{
		// the grid covers the bottom-left of the viewport
		Y:      float32(l.ViewportH - l.GridH*l.Resolution),
		Width:  float32(l.GridW * l.Resolution),
		Height: float32(l.GridH * l.Resolution),
	}
	rl.DrawTexturePro(a.tex, src, dst, rl.Vector2{}, 0, rl.White)
}

func (a *App) unload() {
	if a.texW > 0 {
		rl.UnloadTexture(a.tex)
		a.texW, a.texH = 0, 0
	}
}

const panelX, panelY, panelW, panelH = 10, 10, 340, 360

func (a *App) overPanel() bool {
	if !a.showUI {
		return false
	}
	pos := rl.GetMousePosition()
	return pos.X >= panelX && pos.X <= panelX+panelW && pos.Y >= panelY && pos.Y <= panelY+panelH
}

// drawControls draws the parameter panel. Slider and button changes are
// applied immediately.
func (a *App) drawControls() {
	rl.DrawRectangle(panelX, panelY, panelW, panelH, ColPanel)

	p := a.ctrl.Params()
	name := "custom"
	if _, preset, ok := a.ctrl.CurrentPreset(); ok {
		name = preset.Name
	}

	x := float32(panelX + 10)
	y := float32(panelY + 10)
	text := func(s string, size int32, col rl.Color) {
		rl.DrawText(s, int32(x), int32(y), size, col)
		y += float32(size) + 6
	}
	slider := func(value, lo, hi float32, format string) float32 {
		v := raygui.SliderBar(rl.Rectangle{X: x + 40, Y: y, Width: panelW - 130, Height: 18},
			fmt.Sprintf(format, lo), fmt.Sprintf(format, hi), value, lo, hi)
		rl.DrawText(fmt.Sprintf(format, value), int32(x+panelW-80), int32(y+2), 14, ColText)
		y += 28
		return v
	}

	text("Simulation controls", 20, ColSelect)
	text(fmt.Sprintf("preset %s", name), 16, ColAccent)

	feed := slider(p.Feed, minFeed, maxFeed, "%.3f")
	kill := slider(p.Kill, minKill, maxKill, "%.3f")
	if feed != p.Feed || kill != p.Kill {
		a.setStatus(a.ctrl.SetParameters(feed, kill))
	}
	if n := int(slider(float32(p.SubSteps), minSteps, maxSteps, "%.0f")); n != p.SubSteps {
		a.setStatus(a.ctrl.SetSubSteps(n))
	}

	const bw, bh = 100, 24
	for i, preset := range config.Presets() {
		bx := x + float32(i%3)*(bw+10)
		by := y + float32(i/3)*(bh+6)
		if raygui.Button(rl.Rectangle{X: bx, Y: by, Width: bw, Height: bh}, preset.Name) {
			a.setStatus(a.ctrl.SelectPreset(i))
		}
	}
	y += 2 * (bh + 6)
	if raygui.Button(rl.Rectangle{X: x, Y: y, Width: bw, Height: bh}, "Reset") {
		a.setStatus(a.ctrl.Reset())
		a.running = true
	}
	if raygui.Button(rl.Rectangle{X: x + bw + 10, Y: y, Width: bw, Height: bh}, toggleText(a.running, "Pause", "Run")) {
		a.running = !a.running
	}
	y += bh + 10

	text(fmt.Sprintf("backend  %s  (G)", a.ctrl.BackendName()), 16, ColText)
	text(fmt.Sprintf("grid     %s", a.ctrl.Layout()), 16, ColText)
	text("1-6 presets  arrows F/k  [ ] steps", 14, ColTextDim)
	text("P profiler  I hide UI  Q quit", 14, ColTextDim)
	if a.status != "" {
		text(a.status, 14, rl.Red)
	}
}

func toggleText(on bool, onText, offText string) string {
	if on {
		return onText
	}
	return offText
}

func (a *App) drawProfiler() {
	const w, h = 280, 60
	x := int32(rl.GetScreenWidth()) - w - 20
	y := int32(10)

	rl.DrawRectangle(x-10, y, w+20, 170+int32(len(a.prof.Sections()))*18, ColPanel)
	y += 10
	rl.DrawText(fmt.Sprintf("FPS: %.1f  (avg %.1f)", a.prof.FPS(), a.prof.AvgFPS()), x, y, 16, ColSelect)
	y += 22
	rl.DrawText(fmt.Sprintf("Frametime: %.2f ms", a.prof.FrameMs()), x, y, 16, ColText)
	y += 26

	hist := a.prof.FrameHistory()
	points := make([]rl.Vector2, len(hist))
	for i, ms := range hist {
		// 0-50 ms plotted over the panel height
		norm := float32(ms / 50)
		if norm > 1 {
			norm = 1
		}
		points[i] = rl.NewVector2(float32(x)+float32(i)/float32(len(hist))*w, float32(y+h)-norm*h)
	}
	rl.DrawLineStrip(points, ColAccent)
	y += h + 10

	for _, name := range a.prof.Sections() {
		s, _ := a.prof.Section(name)
		rl.DrawText(fmt.Sprintf("%-8s last %6.2f ms  avg %6.2f (n=%d)", name, s.LastMs, s.AvgMs, s.Count), x, y, 14, ColText)
		y += 18
	}
}

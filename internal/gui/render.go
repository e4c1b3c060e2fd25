package gui

import (
	"image/color"

	"github.com/san-kum/rdsim/internal/dynamo"
)

var (
	colLow  = color.RGBA{R: 10, G: 10, B: 10, A: 255}
	colHigh = color.RGBA{R: 235, G: 235, B: 235, A: 255}
)

// Colorize writes one pixel per cell into px, top image row first. Cells are
// shaded by u - v, so patterned regions (low u, high v) are dark.
func Colorize(f *dynamo.Field, px []color.RGBA) {
	for y := 0; y < f.H; y++ {
		src := (f.H - 1 - y) * f.W
		dst := y * f.W
		for x := 0; x < f.W; x++ {
			t := f.U[src+x] - f.V[src+x]
			if t < 0 || t != t {
				t = 0
			}
			if t > 1 {
				t = 1
			}
			px[dst+x] = lerp(colLow, colHigh, t)
		}
	}
}

func lerp(a, b color.RGBA, t float32) color.RGBA {
	mix := func(x, y uint8) uint8 { return uint8(float32(x) + t*(float32(y)-float32(x))) }
	return color.RGBA{R: mix(a.R, b.R), G: mix(a.G, b.G), B: mix(a.B, b.B), A: 255}
}

package viz

import (
	"strings"

	"github.com/san-kum/rdsim/internal/dynamo"
)

// Braille Patterns: 2x4 dots
// 1 4
// 2 5
// 3 6
// 7 8
//
// Unicode offset 0x2800
var pixelMap = [4][2]int{
	{0x1, 0x8},
	{0x2, 0x10},
	{0x4, 0x20},
	{0x40, 0x80},
}

const brailleBlank = 0x2800

// shadeRamp runs from empty to dense.
var shadeRamp = []rune(" .:-=+*#%@")

// BrailleThreshold is the v level at which a braille dot is lit.
const BrailleThreshold = 0.2

type Canvas struct {
	Width, Height int
	Grid          [][]rune
}

func NewCanvas(w, h int) *Canvas {
	c := &Canvas{
		Width:  w,
		Height: h,
		Grid:   make([][]rune, h),
	}
	for i := range c.Grid {
		c.Grid[i] = make([]rune, w)
		for j := range c.Grid[i] {
			c.Grid[i][j] = brailleBlank
		}
	}
	return c
}

// Set lights a dot at sub-pixel (x, y). The canvas is (Width*2) x (Height*4)
// sub-pixels.
func (c *Canvas) Set(x, y int) {
	if x < 0 || y < 0 {
		return
	}

	col := x / 2
	row := y / 4
	if col >= c.Width || row >= c.Height {
		return
	}

	c.Grid[row][col] |= rune(pixelMap[y%4][x%2])
}

func (c *Canvas) Clear() {
	for i := range c.Grid {
		for j := range c.Grid[i] {
			c.Grid[i][j] = brailleBlank
		}
	}
}

func (c *Canvas) String() string {
	var b strings.Builder
	for _, row := range c.Grid {
		b.WriteString(string(row) + "\n")
	}
	return b.String()
}

// DrawField lights one dot per cell with v above BrailleThreshold. Field row 0
// is the bottom of the canvas.
func (c *Canvas) DrawField(f *dynamo.Field) {
	c.Clear()
	for y := 0; y < f.H; y++ {
		sy := f.H - 1 - y
		for x := 0; x < f.W; x++ {
			if f.V[f.Index(x, y)] > BrailleThreshold {
				c.Set(x, sy)
			}
		}
	}
}

// BrailleSize is the canvas needed to hold a w x h field.
func BrailleSize(w, h int) (cols, rows int) {
	return (w + 1) / 2, (h + 3) / 4
}

// ShadeLevels maps every cell to an index into the shade ramp, top row first.
// scale is the v value drawn with the densest glyph.
func ShadeLevels(f *dynamo.Field, scale float32) [][]int {
	if scale <= 0 {
		scale = 1
	}
	top := len(shadeRamp) - 1
	rows := make([][]int, f.H)
	for y := 0; y < f.H; y++ {
		row := make([]int, f.W)
		src := f.H - 1 - y
		for x := 0; x < f.W; x++ {
			l := int(f.V[f.Index(x, src)] / scale * float32(top))
			if l < 0 {
				l = 0
			}
			if l > top {
				l = top
			}
			row[x] = l
		}
		rows[y] = row
	}
	return rows
}

func ShadeGlyph(level int) rune { return shadeRamp[level] }

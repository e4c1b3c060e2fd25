// Package interaction maps window-space pointer positions onto grid cells and
// applies the local perturbation that seeds pattern growth.
package interaction

import (
	"math"

	"github.com/san-kum/rdsim/internal/dynamo"
	"github.com/san-kum/rdsim/internal/layout"
)

// PerturbationValue is written into v at the perturbed cell.
const PerturbationValue = dynamo.PerturbationV

// Cell is a grid coordinate.
type Cell struct {
	X, Y int
}

// MapPointerToCell converts a window position to a grid cell. Window Y grows
// downward and grid Y grows upward, so the vertical axis is flipped against
// the viewport height. ok is false when the cell lies outside the grid.
func MapPointerToCell(windowX, windowY float64, l layout.Layout) (c Cell, ok bool) {
	if l.Resolution < 1 {
		return Cell{}, false
	}
	res := float64(l.Resolution)
	fx := math.Floor(windowX / res)
	fy := math.Floor((float64(l.ViewportH) - windowY) / res)
	if math.IsNaN(fx) || math.IsNaN(fy) {
		return Cell{}, false
	}
	if fx < 0 || fy < 0 || fx >= float64(l.GridW) || fy >= float64(l.GridH) {
		return Cell{}, false
	}
	return Cell{X: int(fx), Y: int(fy)}, true
}

// ApplyPerturbation sets v = PerturbationValue at c. Cells outside the field
// are ignored and reported with false.
func ApplyPerturbation(f *dynamo.Field, c Cell) bool {
	if f == nil || !f.Contains(c.X, c.Y) {
		return false
	}
	f.V[f.Index(c.X, c.Y)] = PerturbationValue
	return true
}

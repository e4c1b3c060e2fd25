// Package layout derives grid dimensions from a viewport and a cell size.
package layout

import (
	"fmt"

	"github.com/san-kum/rdsim/internal/dynamo"
)

// Layout records the viewport, the cell size and the grid they produce.
type Layout struct {
	ViewportW, ViewportH int
	Resolution           int
	GridW, GridH         int
}

// Recompute returns viewport/resolution with integer truncation. The grid may
// under-cover the viewport by a fractional cell.
func Recompute(viewportW, viewportH, resolution int) (gridW, gridH int, err error) {
	if resolution < 1 {
		return 0, 0, fmt.Errorf("resolution %d: %w", resolution, dynamo.ErrInvalidDimension)
	}
	if viewportW <= 0 || viewportH <= 0 {
		return 0, 0, fmt.Errorf("viewport %dx%d: %w", viewportW, viewportH, dynamo.ErrInvalidDimension)
	}
	gridW, gridH = viewportW/resolution, viewportH/resolution
	if gridW == 0 || gridH == 0 {
		return 0, 0, fmt.Errorf("viewport %dx%d smaller than one cell of %d: %w",
			viewportW, viewportH, resolution, dynamo.ErrInvalidDimension)
	}
	return gridW, gridH, nil
}

// New builds a Layout from its three inputs.
func New(viewportW, viewportH, resolution int) (Layout, error) {
	gw, gh, err := Recompute(viewportW, viewportH, resolution)
	if err != nil {
		return Layout{}, err
	}
	return Layout{
		ViewportW:  viewportW,
		ViewportH:  viewportH,
		Resolution: resolution,
		GridW:      gw,
		GridH:      gh,
	}, nil
}

// WithViewport returns a copy of l recomputed for a new viewport size.
func (l Layout) WithViewport(viewportW, viewportH int) (Layout, error) {
	return New(viewportW, viewportH, l.Resolution)
}

// WithResolution returns a copy of l recomputed for a new cell size.
func (l Layout) WithResolution(resolution int) (Layout, error) {
	return New(l.ViewportW, l.ViewportH, resolution)
}

func (l Layout) String() string {
	return fmt.Sprintf("%dx%d@%d -> %dx%d", l.ViewportW, l.ViewportH, l.Resolution, l.GridW, l.GridH)
}

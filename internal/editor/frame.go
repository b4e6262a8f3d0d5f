package editor

import (
	"fmt"

	"github.com/pders01/sitephoto/internal/models"
)

// Frame is the on-screen size the photo overlay was rendered at.
// Annotation coordinates are only meaningful relative to it.
type Frame struct {
	Width  float64 `json:"width" toml:"width"`
	Height float64 `json:"height" toml:"height"`
}

// Unbounded reports whether no frame was recorded
func (f Frame) Unbounded() bool {
	return f.Width <= 0 || f.Height <= 0
}

// Validate rejects negative, non-finite or half-specified frames
func (f Frame) Validate() error {
	if !(models.Point{X: f.Width, Y: f.Height}).Finite() {
		return fmt.Errorf("frame dimensions must be finite: %gx%g", f.Width, f.Height)
	}
	if f.Width < 0 || f.Height < 0 {
		return fmt.Errorf("frame dimensions cannot be negative: %gx%g", f.Width, f.Height)
	}
	if (f.Width == 0) != (f.Height == 0) {
		return fmt.Errorf("frame needs both width and height: %gx%g", f.Width, f.Height)
	}
	return nil
}

// Contains reports whether p lies on the overlay. An unbounded frame contains every point.
func (f Frame) Contains(p models.Point) bool {
	if f.Unbounded() {
		return true
	}
	return p.X >= 0 && p.Y >= 0 && p.X <= f.Width && p.Y <= f.Height
}

// Project maps p from frame f into frame to
func (f Frame) Project(p models.Point, to Frame) models.Point {
	if f.Unbounded() || to.Unbounded() {
		return p
	}
	return models.Point{
		X: p.X * to.Width / f.Width,
		Y: p.Y * to.Height / f.Height,
	}
}

// ProjectAnnotation re-projects both coordinate pairs of a into frame to
func (f Frame) ProjectAnnotation(a *models.Annotation, to Frame) {
	start := f.Project(a.Start(), to)
	a.X, a.Y = start.X, start.Y
	if end, ok := a.End(); ok {
		a.SetEnd(f.Project(end, to))
	}
}

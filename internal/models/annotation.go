package models

import (
	"errors"
	"fmt"
	"math"
	"strings"
)

// AnnotationType is the closed set of marks that can be placed on a photo
type AnnotationType string

const (
	TypeMarker      AnnotationType = "marker"
	TypeArrow       AnnotationType = "arrow"
	TypeCircle      AnnotationType = "circle"
	TypeText        AnnotationType = "text"
	TypeMeasurement AnnotationType = "measurement"
)

// AllTypes lists every annotation type in toolbar order
var AllTypes = []AnnotationType{TypeMarker, TypeArrow, TypeCircle, TypeText, TypeMeasurement}

// ErrIncomplete is returned by Complete for annotations that may not be committed
var ErrIncomplete = errors.New("annotation is incomplete")

// Valid reports whether t is one of the known annotation types
func (t AnnotationType) Valid() bool {
	switch t {
	case TypeMarker, TypeArrow, TypeCircle, TypeText, TypeMeasurement:
		return true
	default:
		return false
	}
}

// TwoPoint reports whether the type needs a secondary coordinate
func (t AnnotationType) TwoPoint() bool {
	return t == TypeArrow || t == TypeMeasurement
}

// RequiresText reports whether the type needs a non-empty text before commit
func (t AnnotationType) RequiresText() bool {
	return t == TypeText || t == TypeMeasurement
}

// Point is a coordinate in overlay-local pixel space
type Point struct {
	X float64 `json:"x" toml:"x"`
	Y float64 `json:"y" toml:"y"`
}

// Finite reports whether both coordinates are real numbers
func (p Point) Finite() bool {
	return !math.IsNaN(p.X) && !math.IsInf(p.X, 0) && !math.IsNaN(p.Y) && !math.IsInf(p.Y, 0)
}

// Annotation is a single graphical mark on a photo.
// Coordinates are relative to the overlay frame the photo was rendered at.
type Annotation struct {
	ID    string         `json:"id"`
	Type  AnnotationType `json:"type"`
	X     float64        `json:"x"`
	Y     float64        `json:"y"`
	X2    *float64       `json:"x2,omitempty"`
	Y2    *float64       `json:"y2,omitempty"`
	Text  string         `json:"text,omitempty"`
	Color string         `json:"color"`
}

// NewAnnotation builds a single-point annotation
func NewAnnotation(id string, typ AnnotationType, at Point, color string) Annotation {
	return Annotation{
		ID:    id,
		Type:  typ,
		X:     at.X,
		Y:     at.Y,
		Color: color,
	}
}

// NewSegment builds a two-point annotation from start to end
func NewSegment(id string, typ AnnotationType, start, end Point, color string) Annotation {
	a := NewAnnotation(id, typ, start, color)
	a.SetEnd(end)
	return a
}

// Start returns the primary coordinate
func (a Annotation) Start() Point {
	return Point{X: a.X, Y: a.Y}
}

// End returns the secondary coordinate, if set
func (a Annotation) End() (Point, bool) {
	if a.X2 == nil || a.Y2 == nil {
		return Point{}, false
	}
	return Point{X: *a.X2, Y: *a.Y2}, true
}

// SetEnd sets the secondary coordinate
func (a *Annotation) SetEnd(p Point) {
	x, y := p.X, p.Y
	a.X2 = &x
	a.Y2 = &y
}

// Clone returns a deep copy so callers cannot alias the coordinate pointers
func (a Annotation) Clone() Annotation {
	c := a
	if end, ok := a.End(); ok {
		c.SetEnd(end)
	}
	return c
}

// Complete checks that every field required by the annotation type is present
func (a Annotation) Complete() error {
	if !a.Type.Valid() {
		return fmt.Errorf("%w: unknown type %q", ErrIncomplete, a.Type)
	}
	if !a.Start().Finite() {
		return fmt.Errorf("%w: %s has a non-finite position", ErrIncomplete, a.Type)
	}
	if a.Type.TwoPoint() {
		end, ok := a.End()
		if !ok {
			return fmt.Errorf("%w: %s needs a second point", ErrIncomplete, a.Type)
		}
		if !end.Finite() {
			return fmt.Errorf("%w: %s has a non-finite end point", ErrIncomplete, a.Type)
		}
	}
	if a.Type.RequiresText() && strings.TrimSpace(a.Text) == "" {
		return fmt.Errorf("%w: %s needs text", ErrIncomplete, a.Type)
	}
	return nil
}

package editor

import (
	"fmt"
	"strings"

	"github.com/pders01/sitephoto/internal/models"
)

// Tool is the drawing tool the next canvas tap will use
type Tool string

const (
	ToolNone        Tool = "none"
	ToolMarker      Tool = Tool(models.TypeMarker)
	ToolArrow       Tool = Tool(models.TypeArrow)
	ToolCircle      Tool = Tool(models.TypeCircle)
	ToolText        Tool = Tool(models.TypeText)
	ToolMeasurement Tool = Tool(models.TypeMeasurement)
)

// AllTools lists every drawing tool in toolbar order
var AllTools = []Tool{ToolMarker, ToolArrow, ToolCircle, ToolText, ToolMeasurement}

// ParseTool converts a user supplied name into a Tool
func ParseTool(name string) (Tool, error) {
	t := Tool(strings.ToLower(strings.TrimSpace(name)))
	if t == ToolNone || t == "" {
		return ToolNone, nil
	}
	if !models.AnnotationType(t).Valid() {
		return ToolNone, fmt.Errorf("unknown tool: %s (must be: marker, arrow, circle, text, measurement)", name)
	}
	return t, nil
}

// Type returns the annotation type the tool creates
func (t Tool) Type() models.AnnotationType {
	return models.AnnotationType(t)
}

// Phase tracks progress through a two-point gesture
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseAwaitingSecondPoint
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseAwaitingSecondPoint:
		return "awaiting_second_point"
	default:
		return fmt.Sprintf("phase(%d)", int(p))
	}
}

// Policy configures which tools an editor offers and which of them
// fall back to ToolNone once they produced an annotation.
type Policy struct {
	Toolset      []Tool
	AutoDeselect []Tool
}

// DefaultPolicy offers every tool; two-point tools deselect after use,
// single-tap tools stay active for repeated placement.
func DefaultPolicy() Policy {
	return Policy{
		Toolset:      append([]Tool(nil), AllTools...),
		AutoDeselect: []Tool{ToolArrow, ToolMeasurement},
	}
}

// Validate rejects policies referencing unknown tools
func (p Policy) Validate() error {
	if len(p.Toolset) == 0 {
		return fmt.Errorf("toolset cannot be empty")
	}
	for _, t := range p.Toolset {
		if t == ToolNone || !t.Type().Valid() {
			return fmt.Errorf("invalid tool in toolset: %q", t)
		}
	}
	for _, t := range p.AutoDeselect {
		if t == ToolNone || !t.Type().Valid() {
			return fmt.Errorf("invalid tool in auto-deselect list: %q", t)
		}
	}
	return nil
}

// Offers reports whether the tool is part of the toolset
func (p Policy) Offers(t Tool) bool {
	return containsTool(p.Toolset, t)
}

// Deselects reports whether the tool returns to ToolNone after use
func (p Policy) Deselects(t Tool) bool {
	return containsTool(p.AutoDeselect, t)
}

func containsTool(tools []Tool, t Tool) bool {
	for _, candidate := range tools {
		if candidate == t {
			return true
		}
	}
	return false
}

// Package editor implements the photo annotation session: tool selection,
// canvas tap routing, text confirmation for labelled marks and the
// committed annotation list.
//
// An Editor is owned by exactly one editing session for one photo and is not
// safe for concurrent use; events are expected one at a time.
package editor

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/pders01/sitephoto/internal/models"
)

var (
	// ErrToolUnavailable is returned when selecting a tool outside the toolset
	ErrToolUnavailable = errors.New("tool not available")
	// ErrColorNotInPalette is returned when selecting a color outside the palette
	ErrColorNotInPalette = errors.New("color is not part of the palette")
	// ErrNoPending is returned when editing text without a pending annotation
	ErrNoPending = errors.New("no pending annotation")
)

// OutcomeKind describes what a canvas tap did
type OutcomeKind int

const (
	// OutcomeIgnored means no tool was active or the tap missed the overlay
	OutcomeIgnored OutcomeKind = iota
	// OutcomeCommitted means an annotation was appended to the list
	OutcomeCommitted
	// OutcomeFirstPoint means the first point of a two-point gesture was buffered
	OutcomeFirstPoint
	// OutcomePending means an annotation now waits for its text
	OutcomePending
	// OutcomeBlocked means a pending annotation must be resolved first
	OutcomeBlocked
)

func (k OutcomeKind) String() string {
	switch k {
	case OutcomeIgnored:
		return "ignored"
	case OutcomeCommitted:
		return "committed"
	case OutcomeFirstPoint:
		return "first_point"
	case OutcomePending:
		return "pending"
	case OutcomeBlocked:
		return "blocked"
	default:
		return fmt.Sprintf("outcome(%d)", int(k))
	}
}

// Outcome is the result of routing a single tap
type Outcome struct {
	Kind       OutcomeKind
	Annotation *models.Annotation
}

// Editor holds the annotation state for one photo
type Editor struct {
	policy  Policy
	palette models.Palette
	color   string
	frame   Frame
	newID   func() string

	tool  Tool
	phase Phase
	first models.Point

	pending *models.Annotation
	text    string

	list List
}

// Option modifies an Editor during creation
type Option func(*Editor)

// WithPolicy sets the toolset and auto-deselect policy
func WithPolicy(p Policy) Option { return func(e *Editor) { e.policy = p } }

// WithPalette sets the palette colors are chosen from
func WithPalette(p models.Palette) Option { return func(e *Editor) { e.palette = p } }

// WithColor sets the initial active color
func WithColor(color string) Option { return func(e *Editor) { e.color = color } }

// WithFrame records the overlay size taps are expressed in
func WithFrame(f Frame) Option { return func(e *Editor) { e.frame = f } }

// WithIDGenerator replaces the annotation ID source
func WithIDGenerator(fn func() string) Option { return func(e *Editor) { e.newID = fn } }

// New creates an Editor with no active tool and an empty annotation list
func New(opts ...Option) (*Editor, error) {
	e := &Editor{
		policy:  DefaultPolicy(),
		palette: models.DefaultPalette,
		newID:   NewID,
		tool:    ToolNone,
		phase:   PhaseIdle,
	}
	for _, o := range opts {
		o(e)
	}

	if err := e.policy.Validate(); err != nil {
		return nil, fmt.Errorf("invalid policy: %w", err)
	}
	if err := e.palette.Validate(); err != nil {
		return nil, fmt.Errorf("invalid palette: %w", err)
	}
	if err := e.frame.Validate(); err != nil {
		return nil, err
	}
	if e.newID == nil {
		e.newID = NewID
	}
	if e.color == "" {
		e.color = e.palette.At(0)
	}
	if !e.palette.Contains(e.color) {
		return nil, fmt.Errorf("%w: %s", ErrColorNotInPalette, e.color)
	}

	return e, nil
}

// NewID returns a time-ordered unique identifier
func NewID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}

// Tool returns the active tool
func (e *Editor) Tool() Tool { return e.tool }

// Phase returns the drawing phase of the active tool
func (e *Editor) Phase() Phase { return e.phase }

// FirstPoint returns the buffered first point while a two-point gesture is in progress
func (e *Editor) FirstPoint() (models.Point, bool) {
	if e.phase != PhaseAwaitingSecondPoint {
		return models.Point{}, false
	}
	return e.first, true
}

// Color returns the active color
func (e *Editor) Color() string { return e.color }

// Palette returns the palette colors are chosen from
func (e *Editor) Palette() models.Palette { return e.palette }

// Frame returns the overlay frame taps are expressed in
func (e *Editor) Frame() Frame { return e.frame }

// Policy returns the tool policy
func (e *Editor) Policy() Policy { return e.policy }

// SetColor changes the color used for annotations created from now on
func (e *Editor) SetColor(color string) error {
	if !e.palette.Contains(color) {
		return fmt.Errorf("%w: %s", ErrColorNotInPalette, color)
	}
	for _, c := range e.palette {
		if strings.EqualFold(c, color) {
			e.color = c
			break
		}
	}
	return nil
}

// SelectTool activates t. Selecting the active tool again deselects it.
// Any half-finished two-point gesture is abandoned.
func (e *Editor) SelectTool(t Tool) error {
	if t != ToolNone && !e.policy.Offers(t) {
		return fmt.Errorf("%w: %s", ErrToolUnavailable, t)
	}

	if t == e.tool {
		e.tool = ToolNone
	} else {
		e.tool = t
	}
	e.resetPhase()
	return nil
}

// Tap routes a single canvas tap at p, expressed in overlay coordinates
func (e *Editor) Tap(p models.Point) Outcome {
	if e.pending != nil {
		return Outcome{Kind: OutcomeBlocked}
	}
	if e.tool == ToolNone || !p.Finite() || !e.frame.Contains(p) {
		return Outcome{Kind: OutcomeIgnored}
	}

	switch e.tool {
	case ToolMarker, ToolCircle:
		a := models.NewAnnotation(e.newID(), e.tool.Type(), p, e.color)
		e.list.Append(a)
		e.afterUse()
		return committed(a)

	case ToolText:
		a := models.NewAnnotation(e.newID(), models.TypeText, p, e.color)
		e.openPending(a)
		e.afterUse()
		return e.pendingOutcome()

	case ToolArrow, ToolMeasurement:
		if e.phase == PhaseIdle {
			e.first = p
			e.phase = PhaseAwaitingSecondPoint
			return Outcome{Kind: OutcomeFirstPoint}
		}

		a := models.NewSegment(e.newID(), e.tool.Type(), e.first, p, e.color)
		e.resetPhase()
		if e.tool == ToolArrow {
			e.list.Append(a)
			e.afterUse()
			return committed(a)
		}
		e.openPending(a)
		e.afterUse()
		return e.pendingOutcome()
	}

	return Outcome{Kind: OutcomeIgnored}
}

// Pending returns the annotation waiting for its text, if any
func (e *Editor) Pending() (models.Annotation, bool) {
	if e.pending == nil {
		return models.Annotation{}, false
	}
	return e.pending.Clone(), true
}

// Text returns the text input buffer of the pending annotation
func (e *Editor) Text() string { return e.text }

// SetText replaces the text input buffer of the pending annotation
func (e *Editor) SetText(text string) error {
	if e.pending == nil {
		return ErrNoPending
	}
	e.text = text
	return nil
}

// Confirm resolves the pending annotation. A non-blank text commits it;
// a blank one discards it silently. The returned flag reports whether
// anything was appended.
func (e *Editor) Confirm() (models.Annotation, bool) {
	if e.pending == nil {
		return models.Annotation{}, false
	}

	a := *e.pending
	a.Text = e.text
	e.closePending()

	if a.Complete() != nil {
		return models.Annotation{}, false
	}
	e.list.Append(a)
	return a.Clone(), true
}

// ConfirmText sets the text buffer and confirms in one step
func (e *Editor) ConfirmText(text string) (models.Annotation, bool, error) {
	if err := e.SetText(text); err != nil {
		return models.Annotation{}, false, err
	}
	a, ok := e.Confirm()
	return a, ok, nil
}

// Cancel drops the pending annotation and its text, reporting whether there was one
func (e *Editor) Cancel() bool {
	if e.pending == nil {
		return false
	}
	e.closePending()
	return true
}

// Annotations returns the committed annotations in draw order
func (e *Editor) Annotations() []models.Annotation { return e.list.Items() }

// Len returns the number of committed annotations
func (e *Editor) Len() int { return e.list.Len() }

// Remove deletes a committed annotation by id
func (e *Editor) Remove(id string) bool { return e.list.Remove(id) }

// Clear removes every committed annotation. There is no undo.
func (e *Editor) Clear() { e.list.Clear() }

// Resize re-projects every stored coordinate onto a new overlay frame
func (e *Editor) Resize(to Frame) error {
	if err := to.Validate(); err != nil {
		return err
	}

	from := e.frame
	e.list.each(func(a *models.Annotation) {
		from.ProjectAnnotation(a, to)
	})
	if e.pending != nil {
		from.ProjectAnnotation(e.pending, to)
	}
	if e.phase == PhaseAwaitingSecondPoint {
		e.first = from.Project(e.first, to)
	}
	e.frame = to
	return nil
}

// Reset returns the editor to its initial state for a new photo
func (e *Editor) Reset() {
	e.tool = ToolNone
	e.resetPhase()
	e.closePending()
	e.list.Clear()
}

func (e *Editor) resetPhase() {
	e.phase = PhaseIdle
	e.first = models.Point{}
}

func (e *Editor) afterUse() {
	if e.policy.Deselects(e.tool) {
		e.tool = ToolNone
	}
}

func (e *Editor) openPending(a models.Annotation) {
	e.pending = &a
	e.text = ""
}

func (e *Editor) closePending() {
	e.pending = nil
	e.text = ""
}

func (e *Editor) pendingOutcome() Outcome {
	a := e.pending.Clone()
	return Outcome{Kind: OutcomePending, Annotation: &a}
}

func committed(a models.Annotation) Outcome {
	c := a.Clone()
	return Outcome{Kind: OutcomeCommitted, Annotation: &c}
}

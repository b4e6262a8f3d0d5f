// Package script replays a recorded annotation session, described in TOML,
// into an editor. A script lets the CLI drive the same tool and tap events a
// touch screen would produce.
//
//	frame = { width = 400, height = 300 }
//	color = "#FF3B30"
//	tags  = ["Leak"]
//
//	[[step]]
//	tool = "arrow"
//	[[step]]
//	tap = { x = 10, y = 20 }
package script

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/pders01/sitephoto/internal/editor"
	"github.com/pders01/sitephoto/internal/models"
)

// Step is a single user event. Exactly one field is set.
type Step struct {
	Tool    *string       `toml:"tool"`
	Tap     *models.Point `toml:"tap"`
	Color   *string       `toml:"color"`
	Text    *string       `toml:"text"`
	Confirm bool          `toml:"confirm"`
	Cancel  bool          `toml:"cancel"`
	Remove  *int          `toml:"remove"`
	Clear   bool          `toml:"clear"`
	Resize  *editor.Frame `toml:"resize"`
	Tag     *string       `toml:"tag"`
	Untag   *string       `toml:"untag"`
}

// Action names the event a step carries
func (s Step) Action() string {
	actions := s.actions()
	if len(actions) != 1 {
		return ""
	}
	return actions[0]
}

func (s Step) actions() []string {
	var out []string
	add := func(set bool, name string) {
		if set {
			out = append(out, name)
		}
	}
	add(s.Tool != nil, "tool")
	add(s.Tap != nil, "tap")
	add(s.Color != nil, "color")
	add(s.Text != nil, "text")
	add(s.Confirm, "confirm")
	add(s.Cancel, "cancel")
	add(s.Remove != nil, "remove")
	add(s.Clear, "clear")
	add(s.Resize != nil, "resize")
	add(s.Tag != nil, "tag")
	add(s.Untag != nil, "untag")
	return out
}

// Script is a decoded editing session
type Script struct {
	Frame editor.Frame `toml:"frame"`
	Color string       `toml:"color"`
	Tags  []string     `toml:"tags"`
	Steps []Step       `toml:"step"`
}

// Load reads a script file
func Load(path string) (*Script, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open script: %w", err)
	}
	defer f.Close()

	s, err := Decode(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return s, nil
}

// Decode parses a script and rejects unknown keys
func Decode(r io.Reader) (*Script, error) {
	var s Script
	md, err := toml.NewDecoder(r).Decode(&s)
	if err != nil {
		return nil, fmt.Errorf("failed to parse script: %w", err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return nil, fmt.Errorf("unknown keys in script: %s", strings.Join(keys, ", "))
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

// Validate checks every step carries exactly one event
func (s *Script) Validate() error {
	if err := s.Frame.Validate(); err != nil {
		return err
	}
	for i, step := range s.Steps {
		switch actions := step.actions(); len(actions) {
		case 0:
			return fmt.Errorf("step %d: no action", i+1)
		case 1:
		default:
			return fmt.Errorf("step %d: more than one action (%s)", i+1, strings.Join(actions, ", "))
		}
	}
	return nil
}

// Options used to build the editor for a script
type Options struct {
	Policy  editor.Policy
	Palette models.Palette
	// Tags are added before the script's own tags
	Tags []string
}

// NewSession builds an editor and tag set primed with the script's frame, color and tags
func (s *Script) NewSession(opts Options) (*editor.Editor, *editor.TagSet, error) {
	editorOpts := []editor.Option{editor.WithFrame(s.Frame)}
	if len(opts.Policy.Toolset) > 0 {
		editorOpts = append(editorOpts, editor.WithPolicy(opts.Policy))
	}
	if len(opts.Palette) > 0 {
		editorOpts = append(editorOpts, editor.WithPalette(opts.Palette))
	}
	if s.Color != "" {
		editorOpts = append(editorOpts, editor.WithColor(s.Color))
	}

	e, err := editor.New(editorOpts...)
	if err != nil {
		return nil, nil, err
	}

	tags := editor.NewTagSet(opts.Palette)
	for _, label := range append(append([]string(nil), opts.Tags...), s.Tags...) {
		tags.Add(label)
	}
	return e, tags, nil
}

// Result reports what one step did
type Result struct {
	Step       int                `json:"step"`
	Action     string             `json:"action"`
	Outcome    string             `json:"outcome,omitempty"`
	Annotation *models.Annotation `json:"annotation,omitempty"`
	Tag        *models.Tag        `json:"tag,omitempty"`
	Tool       editor.Tool        `json:"tool"`
}

// Apply replays the steps one at a time. It stops at the first step the
// editor rejects; results for the steps before it are still returned.
func (s *Script) Apply(e *editor.Editor, tags *editor.TagSet) ([]Result, error) {
	results := make([]Result, 0, len(s.Steps))
	for i, step := range s.Steps {
		res, err := applyStep(e, tags, step)
		res.Step = i + 1
		res.Action = step.Action()
		res.Tool = e.Tool()
		if err != nil {
			return results, fmt.Errorf("step %d (%s): %w", i+1, res.Action, err)
		}
		results = append(results, res)
	}
	return results, nil
}

func applyStep(e *editor.Editor, tags *editor.TagSet, step Step) (Result, error) {
	var res Result

	switch {
	case step.Tool != nil:
		t, err := editor.ParseTool(*step.Tool)
		if err != nil {
			return res, err
		}
		return res, e.SelectTool(t)

	case step.Tap != nil:
		out := e.Tap(*step.Tap)
		res.Outcome = out.Kind.String()
		res.Annotation = out.Annotation

	case step.Color != nil:
		return res, e.SetColor(*step.Color)

	case step.Text != nil:
		return res, e.SetText(*step.Text)

	case step.Confirm:
		if _, pending := e.Pending(); !pending {
			break
		}
		a, ok := e.Confirm()
		if ok {
			res.Outcome = editor.OutcomeCommitted.String()
			res.Annotation = &a
		} else {
			res.Outcome = "discarded"
		}

	case step.Cancel:
		if e.Cancel() {
			res.Outcome = "cancelled"
		}

	case step.Remove != nil:
		items := e.Annotations()
		n := *step.Remove
		if n < 1 || n > len(items) {
			return res, fmt.Errorf("no annotation #%d (have %d)", n, len(items))
		}
		e.Remove(items[n-1].ID)
		res.Annotation = &items[n-1]

	case step.Clear:
		e.Clear()

	case step.Resize != nil:
		return res, e.Resize(*step.Resize)

	case step.Tag != nil:
		if tag, ok := tags.Add(*step.Tag); ok {
			res.Tag = &tag
		}

	case step.Untag != nil:
		if !tags.RemoveLabel(*step.Untag) {
			return res, fmt.Errorf("no tag %q", *step.Untag)
		}
	}

	return res, nil
}

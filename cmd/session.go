package cmd

import (
	"fmt"
	"os"

	"github.com/pders01/sitephoto/internal/config"
	"github.com/pders01/sitephoto/internal/editor"
	"github.com/pders01/sitephoto/internal/models"
	"github.com/pders01/sitephoto/internal/script"
)

// session is the outcome of replaying a gesture script for one photo
type session struct {
	Frame       editor.Frame        `json:"frame"`
	Steps       []script.Result     `json:"steps"`
	Annotations []models.Annotation `json:"annotations"`
	Tags        []models.Tag        `json:"tags"`
	Dropped     *models.Annotation  `json:"dropped,omitempty"`
}

// Labels returns the tag labels sent to the backend
func (s *session) Labels() []string {
	labels := make([]string, len(s.Tags))
	for i, t := range s.Tags {
		labels[i] = t.Label
	}
	return labels
}

// replay loads the script at path and runs it in a fresh editor configured from
// the editor.* settings. baseTags are the tags recorded at capture time.
func replay(path string, baseTags []string) (*session, error) {
	s, err := script.Load(path)
	if err != nil {
		return nil, err
	}

	policy, err := config.GetEditorPolicy()
	if err != nil {
		return nil, err
	}
	palette, err := config.GetPalette()
	if err != nil {
		return nil, err
	}

	ed, tags, err := s.NewSession(script.Options{Policy: policy, Palette: palette, Tags: baseTags})
	if err != nil {
		return nil, fmt.Errorf("failed to start editor: %w", err)
	}

	steps, err := s.Apply(ed, tags)
	if err != nil {
		return nil, err
	}

	out := &session{
		Frame:       ed.Frame(),
		Steps:       steps,
		Annotations: ed.Annotations(),
		Tags:        tags.Tags(),
	}

	// only committed annotations leave the editor
	if pending, ok := ed.Pending(); ok {
		pending.Text = ed.Text()
		out.Dropped = &pending
		fmt.Fprintf(os.Stderr, "Warning: script ends with an unconfirmed %s annotation; it is not included\n", pending.Type)
	}

	return out, nil
}

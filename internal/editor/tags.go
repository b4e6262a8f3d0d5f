package editor

import (
	"strings"

	"github.com/pders01/sitephoto/internal/models"
)

// TagSet is the flat set of labels attached to the photo being edited.
// Colors are assigned round-robin by insertion index and never reassigned.
type TagSet struct {
	palette models.Palette
	newID   func() string
	added   int
	tags    []models.Tag
}

// NewTagSet creates an empty tag set coloring tags from palette
func NewTagSet(palette models.Palette) *TagSet {
	if len(palette) == 0 {
		palette = models.DefaultPalette
	}
	return &TagSet{palette: palette, newID: NewID}
}

// Add appends a tag. Blank labels are ignored; duplicate labels are allowed.
func (s *TagSet) Add(label string) (models.Tag, bool) {
	label = strings.TrimSpace(label)
	if label == "" {
		return models.Tag{}, false
	}
	tag := models.Tag{
		ID:    s.newID(),
		Label: label,
		Color: s.palette.At(s.added),
	}
	s.added++
	s.tags = append(s.tags, tag)
	return tag, true
}

// Remove deletes the tag with the given id
func (s *TagSet) Remove(id string) bool {
	for i := range s.tags {
		if s.tags[i].ID == id {
			s.tags = append(s.tags[:i], s.tags[i+1:]...)
			return true
		}
	}
	return false
}

// RemoveLabel deletes the first tag carrying label
func (s *TagSet) RemoveLabel(label string) bool {
	for _, t := range s.tags {
		if t.Label == label {
			return s.Remove(t.ID)
		}
	}
	return false
}

// Tags returns a copy of the tags in insertion order
func (s *TagSet) Tags() []models.Tag {
	return append([]models.Tag(nil), s.tags...)
}

// Labels returns just the tag labels, which is all the backend receives
func (s *TagSet) Labels() []string {
	labels := make([]string, len(s.tags))
	for i, t := range s.tags {
		labels[i] = t.Label
	}
	return labels
}

// Len returns the number of tags
func (s *TagSet) Len() int {
	return len(s.tags)
}

package editor

import "github.com/pders01/sitephoto/internal/models"

// List is the ordered collection of committed annotations.
// Insertion order is draw order: later annotations render on top.
type List struct {
	items []models.Annotation
}

// Append adds an annotation to the end of the list
func (l *List) Append(a models.Annotation) {
	l.items = append(l.items, a.Clone())
}

// Remove deletes the annotation with the given id, reporting whether it existed
func (l *List) Remove(id string) bool {
	for i := range l.items {
		if l.items[i].ID == id {
			l.items = append(l.items[:i], l.items[i+1:]...)
			return true
		}
	}
	return false
}

// Clear empties the list
func (l *List) Clear() {
	l.items = nil
}

// Len returns the number of committed annotations
func (l *List) Len() int {
	return len(l.items)
}

// Items returns a copy of the annotations in insertion order
func (l *List) Items() []models.Annotation {
	out := make([]models.Annotation, len(l.items))
	for i, a := range l.items {
		out[i] = a.Clone()
	}
	return out
}

func (l *List) each(fn func(*models.Annotation)) {
	for i := range l.items {
		fn(&l.items[i])
	}
}

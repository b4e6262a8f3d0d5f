package models

import (
	"fmt"
	"strings"
)

// Tag is a short label attached to a photo
type Tag struct {
	ID    string `json:"id"`
	Label string `json:"label"`
	Color string `json:"color"`
}

// Palette is the fixed set of colors annotations and tags are drawn in
type Palette []string

// DefaultPalette is used when no palette is configured
var DefaultPalette = Palette{
	"#FF3B30", // red
	"#FF9500", // orange
	"#FFCC00", // yellow
	"#34C759", // green
	"#007AFF", // blue
	"#AF52DE", // purple
	"#FFFFFF",
	"#000000",
}

// At returns the color at index i, wrapping around the palette
func (p Palette) At(i int) string {
	if len(p) == 0 {
		return ""
	}
	if i < 0 {
		i = -i
	}
	return p[i%len(p)]
}

// Contains checks if color is part of the palette (case-insensitive)
func (p Palette) Contains(color string) bool {
	for _, c := range p {
		if strings.EqualFold(c, color) {
			return true
		}
	}
	return false
}

// Validate checks every entry is a #RRGGBB hex color
func (p Palette) Validate() error {
	if len(p) == 0 {
		return fmt.Errorf("palette cannot be empty")
	}
	for i, c := range p {
		if !IsHexColor(c) {
			return fmt.Errorf("palette entry %d is not a #RRGGBB color: %q", i, c)
		}
	}
	return nil
}

// IsHexColor reports whether s has the form #RRGGBB
func IsHexColor(s string) bool {
	if len(s) != 7 || s[0] != '#' {
		return false
	}
	for _, r := range s[1:] {
		switch {
		case r >= '0' && r <= '9', r >= 'a' && r <= 'f', r >= 'A' && r <= 'F':
		default:
			return false
		}
	}
	return true
}

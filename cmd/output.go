package cmd

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/alpkeskin/gotoon"
	"github.com/pders01/sitephoto/internal/models"
)

// printStructured writes v as JSON or toon when requested and reports whether it did
func printStructured(v any, asJSON, asToon bool) (bool, error) {
	switch {
	case asJSON:
		output, err := json.MarshalIndent(v, "", "  ")
		if err != nil {
			return true, fmt.Errorf("failed to marshal JSON: %w", err)
		}
		fmt.Println(string(output))
		return true, nil
	case asToon:
		output, err := gotoon.Encode(v)
		if err != nil {
			return true, fmt.Errorf("failed to encode Toon: %w", err)
		}
		fmt.Println(output)
		return true, nil
	}
	return false, nil
}

// captureRow is the flat form of a capture used for list output
type captureRow struct {
	ID       string `json:"id"`
	Project  string `json:"project"`
	Status   string `json:"status"`
	TakenAt  string `json:"taken_at"`
	Caption  string `json:"caption"`
	Trade    string `json:"trade"`
	Tags     string `json:"tags"`
	Error    string `json:"error,omitempty"`
	PhotoURI string `json:"uri"`
}

func toCaptureRow(p models.CapturedPhoto) captureRow {
	return captureRow{
		ID:       p.ID,
		Project:  p.ProjectID,
		Status:   string(p.Status),
		TakenAt:  p.TakenAt.Format(time.RFC3339),
		Caption:  p.Caption,
		Trade:    p.TradeCategory,
		Tags:     strings.Join(p.Tags, ","),
		Error:    p.Error,
		PhotoURI: p.URI,
	}
}

// shortID abbreviates a UUIDv7 past its millisecond timestamp so it stays unique in practice
func shortID(id string) string {
	if len(id) > 18 {
		return id[:18]
	}
	return id
}

func truncate(s string, n int) string {
	if len(s) > n {
		return s[:n] + "..."
	}
	return s
}

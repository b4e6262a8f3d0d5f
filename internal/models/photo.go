package models

import (
	"fmt"
	"time"
)

// UploadStatus tracks a captured photo through the upload queue
type UploadStatus string

const (
	StatusPending   UploadStatus = "pending"
	StatusUploading UploadStatus = "uploading"
	StatusUploaded  UploadStatus = "uploaded"
	StatusFailed    UploadStatus = "failed"
)

// Valid reports whether s is a known upload status
func (s UploadStatus) Valid() bool {
	switch s {
	case StatusPending, StatusUploading, StatusUploaded, StatusFailed:
		return true
	default:
		return false
	}
}

// GPS is the device location at capture time
type GPS struct {
	Latitude  float64  `json:"latitude"`
	Longitude float64  `json:"longitude"`
	Accuracy  *float64 `json:"accuracy,omitempty"`
}

// Validate checks the coordinates are on the globe
func (g GPS) Validate() error {
	if g.Latitude < -90 || g.Latitude > 90 {
		return fmt.Errorf("latitude out of range: %f", g.Latitude)
	}
	if g.Longitude < -180 || g.Longitude > 180 {
		return fmt.Errorf("longitude out of range: %f", g.Longitude)
	}
	if g.Accuracy != nil && *g.Accuracy < 0 {
		return fmt.Errorf("accuracy cannot be negative: %f", *g.Accuracy)
	}
	return nil
}

// CapturedPhoto is a photo taken on site that has not been handed to the backend yet
type CapturedPhoto struct {
	ID            string       `json:"id"`
	ProjectID     string       `json:"project_id"`
	URI           string       `json:"uri"`
	Caption       string       `json:"caption,omitempty"`
	Notes         string       `json:"notes,omitempty"`
	Tags          []string     `json:"tags,omitempty"`
	TradeCategory string       `json:"trade_category,omitempty"`
	RoomArea      string       `json:"room_area,omitempty"`
	GPS           *GPS         `json:"gps,omitempty"`
	TakenAt       time.Time    `json:"taken_at"`
	Status        UploadStatus `json:"status"`
	Error         string       `json:"error,omitempty"`
	RemotePath    string       `json:"remote_path,omitempty"`
	UpdatedAt     time.Time    `json:"updated_at"`
}

// Uploaded reports whether the backend already owns this photo
func (p CapturedPhoto) Uploaded() bool {
	return p.Status == StatusUploaded
}

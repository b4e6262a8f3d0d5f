package upload

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/textproto"
	"os"
	"strconv"
	"time"

	"github.com/pders01/sitephoto/internal/models"
)

const (
	// PhotoField is the multipart field carrying the image
	PhotoField = "photo"
	// PhotoContentType is sent for every photo regardless of the source file
	PhotoContentType = "image/jpeg"

	// isoLayout matches the millisecond ISO-8601 form the backend parses
	isoLayout = "2006-01-02T15:04:05.000Z07:00"
)

// Metadata describes the photo being submitted
type Metadata struct {
	Caption       string
	Notes         string
	TradeCategory string
	RoomArea      string
	GPS           *models.GPS
	TakenAt       time.Time
}

// Submission is everything sent for one photo
type Submission struct {
	// PhotoID identifies the local capture; uploads are single-flight per ID
	PhotoID     string
	PhotoPath   string
	Annotations []models.Annotation
	Tags        []string
	Metadata
}

// Filename returns the timestamp-derived name the photo is uploaded under
func (s Submission) Filename() string {
	return fmt.Sprintf("photo_%d.jpg", s.TakenAt.UnixMilli())
}

// Validate checks the submission can be serialized
func (s Submission) Validate() error {
	if s.PhotoPath == "" {
		return fmt.Errorf("photo path cannot be empty")
	}
	if s.TakenAt.IsZero() {
		return fmt.Errorf("capture time is required")
	}
	for i, a := range s.Annotations {
		if err := a.Complete(); err != nil {
			return fmt.Errorf("annotation %d (%s): %w", i, a.ID, err)
		}
	}
	if s.GPS != nil {
		if err := s.GPS.Validate(); err != nil {
			return fmt.Errorf("invalid gps: %w", err)
		}
	}
	return nil
}

// Encode reads the photo from disk and builds the multipart body.
// It returns the body and the Content-Type header value including the boundary.
func Encode(s Submission) (*bytes.Buffer, string, error) {
	if err := s.Validate(); err != nil {
		return nil, "", err
	}

	file, err := os.Open(s.PhotoPath)
	if err != nil {
		return nil, "", fmt.Errorf("failed to open photo: %w", err)
	}
	defer file.Close()

	body := &bytes.Buffer{}
	mw := multipart.NewWriter(body)
	if err := WriteForm(mw, s, file); err != nil {
		return nil, "", err
	}
	if err := mw.Close(); err != nil {
		return nil, "", fmt.Errorf("failed to finish multipart body: %w", err)
	}

	return body, mw.FormDataContentType(), nil
}

// WriteForm writes the photo and all metadata fields to mw. It does not close mw.
func WriteForm(mw *multipart.Writer, s Submission, photo io.Reader) error {
	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition",
		fmt.Sprintf(`form-data; name="%s"; filename="%s"`, PhotoField, s.Filename()))
	header.Set("Content-Type", PhotoContentType)

	part, err := mw.CreatePart(header)
	if err != nil {
		return fmt.Errorf("failed to create photo part: %w", err)
	}
	if _, err := io.Copy(part, photo); err != nil {
		return fmt.Errorf("failed to write photo: %w", err)
	}

	tags := s.Tags
	if tags == nil {
		tags = []string{}
	}
	tagsJSON, err := json.Marshal(tags)
	if err != nil {
		return fmt.Errorf("failed to marshal tags: %w", err)
	}

	annotations := s.Annotations
	if annotations == nil {
		annotations = []models.Annotation{}
	}
	annotationsJSON, err := json.Marshal(annotations)
	if err != nil {
		return fmt.Errorf("failed to marshal annotations: %w", err)
	}

	fields := []formField{
		{name: "caption", value: s.Caption},
		{name: "tags", value: string(tagsJSON)},
		{name: "tradeCategory", value: s.TradeCategory},
		{name: "annotationsData", value: string(annotationsJSON)},
		{name: "takenAt", value: s.TakenAt.UTC().Format(isoLayout)},
		{name: "roomArea", value: s.RoomArea, optional: true},
		{name: "notes", value: s.Notes, optional: true},
	}
	if s.GPS != nil {
		fields = append(fields,
			formField{name: "latitude", value: formatFloat(s.GPS.Latitude)},
			formField{name: "longitude", value: formatFloat(s.GPS.Longitude)},
		)
		if s.GPS.Accuracy != nil {
			fields = append(fields, formField{name: "accuracy", value: formatFloat(*s.GPS.Accuracy)})
		}
	}

	for _, f := range fields {
		if f.optional && f.value == "" {
			continue
		}
		if err := mw.WriteField(f.name, f.value); err != nil {
			return fmt.Errorf("failed to write field %s: %w", f.name, err)
		}
	}

	return nil
}

type formField struct {
	name     string
	value    string
	optional bool
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

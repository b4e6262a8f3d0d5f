package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/pders01/sitephoto/internal/config"
	"github.com/pders01/sitephoto/internal/editor"
	"github.com/pders01/sitephoto/internal/models"
	"github.com/pders01/sitephoto/internal/render"
	"github.com/spf13/cobra"
)

var (
	captureProject  string
	captureCaption  string
	captureNotes    string
	captureTags     []string
	captureTrade    string
	captureRoom     string
	captureLat      string
	captureLon      string
	captureAccuracy string
	captureTakenAt  string
)

var captureCmd = &cobra.Command{
	Use:   "capture <photo>",
	Short: "Add a photo to the upload queue",
	Long: `Queue a photo taken on site together with its capture metadata.

The photo file stays where it is; the queue only records its location.
Annotations are not stored with the capture: they are drawn at upload time
from a gesture script (see: sitephoto annotate).

Examples:
  sitephoto capture IMG_0042.jpg --project 42 --caption "Kitchen wall"
  sitephoto capture IMG_0043.jpg --project 42 --trade plumbing --tag Leak --tag "Water damage"
  sitephoto capture IMG_0044.jpg --project 42 --lat 47.6062 --lon -122.3321 --accuracy 5`,
	Args: cobra.ExactArgs(1),
	RunE: runCapture,
}

func init() {
	rootCmd.AddCommand(captureCmd)

	captureCmd.Flags().StringVar(&captureProject, "project", "", "Project the photo belongs to (required)")
	captureCmd.Flags().StringVar(&captureCaption, "caption", "", "Photo caption")
	captureCmd.Flags().StringVar(&captureNotes, "notes", "", "Optional notes")
	captureCmd.Flags().StringSliceVar(&captureTags, "tag", []string{}, "Add a tag (repeatable)")
	captureCmd.Flags().StringVar(&captureTrade, "trade", "", "Trade category")
	captureCmd.Flags().StringVar(&captureRoom, "room", "", "Room or area")
	captureCmd.Flags().StringVar(&captureLat, "lat", "", "Latitude in decimal degrees")
	captureCmd.Flags().StringVar(&captureLon, "lon", "", "Longitude in decimal degrees")
	captureCmd.Flags().StringVar(&captureAccuracy, "accuracy", "", "GPS accuracy in meters")
	captureCmd.Flags().StringVar(&captureTakenAt, "taken-at", "", "Capture time (RFC3339, default now)")
}

func runCapture(cmd *cobra.Command, args []string) error {
	if captureProject == "" {
		return fmt.Errorf("--project is required")
	}

	path, err := filepath.Abs(args[0])
	if err != nil {
		return fmt.Errorf("failed to resolve photo path: %w", err)
	}
	if _, err := os.Stat(path); err != nil {
		return fmt.Errorf("photo not found: %w", err)
	}
	size, err := render.Size(path)
	if err != nil {
		return err
	}

	trade, err := config.NormalizeTrade(captureTrade)
	if err != nil {
		return err
	}

	gps, err := parseGPS(captureLat, captureLon, captureAccuracy)
	if err != nil {
		return err
	}

	var takenAt time.Time
	if captureTakenAt != "" {
		takenAt, err = time.Parse(time.RFC3339, captureTakenAt)
		if err != nil {
			return fmt.Errorf("invalid --taken-at (use RFC3339, e.g. 2026-10-18T09:30:00Z): %w", err)
		}
	}

	palette, err := config.GetPalette()
	if err != nil {
		return err
	}
	tags := editor.NewTagSet(palette)
	for _, label := range captureTags {
		tags.Add(label)
	}

	photo := &models.CapturedPhoto{
		ProjectID:     captureProject,
		URI:           path,
		Caption:       strings.TrimSpace(captureCaption),
		Notes:         strings.TrimSpace(captureNotes),
		Tags:          tags.Labels(),
		TradeCategory: trade,
		RoomArea:      strings.TrimSpace(captureRoom),
		GPS:           gps,
		TakenAt:       takenAt,
	}

	queue, err := openQueue()
	if err != nil {
		return err
	}
	defer queue.Close()

	if err := queue.Add(photo); err != nil {
		return fmt.Errorf("failed to queue photo: %w", err)
	}

	fmt.Printf("✓ Queued %s\n", photo.ID)
	fmt.Printf("  Photo:   %s (%dx%d)\n", photo.URI, size.X, size.Y)
	fmt.Printf("  Project: %s\n", photo.ProjectID)
	if len(photo.Tags) > 0 {
		fmt.Printf("  Tags:    %s\n", strings.Join(photo.Tags, ", "))
	}

	return nil
}

// parseGPS builds a GPS fix from flag values. Latitude and longitude go together;
// accuracy is only meaningful with a fix.
func parseGPS(lat, lon, accuracy string) (*models.GPS, error) {
	if lat == "" && lon == "" {
		if accuracy != "" {
			return nil, fmt.Errorf("--accuracy requires --lat and --lon")
		}
		return nil, nil
	}
	if lat == "" || lon == "" {
		return nil, fmt.Errorf("--lat and --lon must be given together")
	}

	gps := &models.GPS{}
	var err error
	if gps.Latitude, err = strconv.ParseFloat(lat, 64); err != nil {
		return nil, fmt.Errorf("invalid --lat: %w", err)
	}
	if gps.Longitude, err = strconv.ParseFloat(lon, 64); err != nil {
		return nil, fmt.Errorf("invalid --lon: %w", err)
	}
	if accuracy != "" {
		acc, err := strconv.ParseFloat(accuracy, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid --accuracy: %w", err)
		}
		gps.Accuracy = &acc
	}
	if err := gps.Validate(); err != nil {
		return nil, err
	}
	return gps, nil
}

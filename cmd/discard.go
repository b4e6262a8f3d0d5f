package cmd

import (
	"fmt"
	"time"

	"github.com/pders01/sitephoto/internal/models"
	"github.com/pders01/sitephoto/internal/store"
	"github.com/spf13/cobra"
)

var (
	discardUploaded  bool
	discardOlderThan int
	discardForce     bool
)

var discardCmd = &cobra.Command{
	Use:   "discard [id...]",
	Short: "Remove photos from the upload queue",
	Long: `Remove captured photos from the queue. Photo files on disk are left alone.

Select photos by id, or clear out everything already uploaded.
Without --force this only shows what would be removed.

Examples:
  sitephoto discard 0192a4c1-7d2e-7b3f          # Show what would be removed
  sitephoto discard 0192a4c1-7d2e-7b3f --force  # Remove it
  sitephoto discard --uploaded --older-than 30 --force`,
	RunE: runDiscard,
}

func init() {
	rootCmd.AddCommand(discardCmd)

	discardCmd.Flags().BoolVar(&discardUploaded, "uploaded", false, "Select every uploaded photo")
	discardCmd.Flags().IntVar(&discardOlderThan, "older-than", 0, "With --uploaded, only photos taken more than N days ago")
	discardCmd.Flags().BoolVar(&discardForce, "force", false, "Actually remove photos")
}

func runDiscard(cmd *cobra.Command, args []string) error {
	if len(args) == 0 && !discardUploaded {
		return fmt.Errorf("specify photo ids or --uploaded")
	}
	if discardOlderThan < 0 {
		return fmt.Errorf("--older-than cannot be negative")
	}

	queue, err := openQueue()
	if err != nil {
		return err
	}
	defer queue.Close()

	var selected []models.CapturedPhoto
	for _, id := range args {
		p, err := queue.Get(id)
		if err != nil {
			return err
		}
		selected = append(selected, *p)
	}

	if discardUploaded {
		uploaded, err := queue.List(store.Filter{Status: models.StatusUploaded})
		if err != nil {
			return err
		}
		cutoff := time.Now().AddDate(0, 0, -discardOlderThan)
		for _, p := range uploaded {
			if discardOlderThan > 0 && !p.TakenAt.Before(cutoff) {
				continue
			}
			selected = append(selected, p)
		}
	}

	if len(selected) == 0 {
		fmt.Println("No photos to discard")
		return nil
	}

	fmt.Printf("Photos to discard (%d):\n\n", len(selected))
	for _, p := range selected {
		fmt.Printf("  %s  [%s]\n", shortID(p.ID), p.Status)
		fmt.Printf("    Age:  %s\n", formatDuration(time.Since(p.TakenAt)))
		if p.Status != models.StatusUploaded {
			fmt.Printf("    Note: not uploaded yet, the photo will not reach the project\n")
		}
		fmt.Println()
	}

	if !discardForce {
		fmt.Println("This is a dry run. Use --force to actually discard photos.")
		return nil
	}

	removed := 0
	seen := make(map[string]bool, len(selected))
	for _, p := range selected {
		if seen[p.ID] {
			continue
		}
		seen[p.ID] = true
		if err := queue.Remove(p.ID); err != nil {
			fmt.Printf("  Error discarding %s: %v\n", shortID(p.ID), err)
			continue
		}
		removed++
	}
	fmt.Printf("✓ Discarded %d photo(s)\n", removed)

	return nil
}

func formatDuration(d time.Duration) string {
	days := int(d.Hours() / 24)
	if days == 0 {
		return "< 1 day"
	}
	if days == 1 {
		return "1 day"
	}
	return fmt.Sprintf("%d days", days)
}

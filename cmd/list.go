package cmd

import (
	"fmt"
	"strings"
	"time"

	"github.com/pders01/sitephoto/internal/models"
	"github.com/pders01/sitephoto/internal/store"
	"github.com/spf13/cobra"
)

var (
	listProject string
	listStatus  string
	listToday   bool
	listSince   string
	listJSON    bool
	listToon    bool
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List queued photos",
	Long: `List captured photos in the upload queue with optional filtering.

Examples:
  sitephoto list
  sitephoto list --project 42
  sitephoto list --status failed
  sitephoto list --today
  sitephoto list --since 2026-10-01 --json`,
	RunE: runList,
}

func init() {
	rootCmd.AddCommand(listCmd)

	listCmd.Flags().StringVar(&listProject, "project", "", "Filter by project")
	listCmd.Flags().StringVar(&listStatus, "status", "", "Filter by status: pending|uploading|uploaded|failed")
	listCmd.Flags().BoolVar(&listToday, "today", false, "Show only today's photos")
	listCmd.Flags().StringVar(&listSince, "since", "", "Show photos taken since date (YYYY-MM-DD)")
	listCmd.Flags().BoolVar(&listJSON, "json", false, "Output as JSON")
	listCmd.Flags().BoolVar(&listToon, "toon", false, "Output in LLM-friendly toon format")
}

func runList(cmd *cobra.Command, args []string) error {
	filter := store.Filter{ProjectID: listProject}

	if listStatus != "" {
		status := models.UploadStatus(strings.ToLower(listStatus))
		if !status.Valid() {
			return fmt.Errorf("invalid status: %s (must be: pending, uploading, uploaded, failed)", listStatus)
		}
		filter.Status = status
	}

	if listSince != "" {
		since, err := time.ParseInLocation("2006-01-02", listSince, time.Local)
		if err != nil {
			return fmt.Errorf("invalid --since date format (use YYYY-MM-DD): %w", err)
		}
		filter.Since = since
	}
	if listToday {
		now := time.Now()
		filter.Since = time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	}

	queue, err := openQueue()
	if err != nil {
		return err
	}
	defer queue.Close()

	photos, err := queue.List(filter)
	if err != nil {
		return err
	}

	rows := make([]captureRow, len(photos))
	for i, p := range photos {
		rows[i] = toCaptureRow(p)
	}
	if done, err := printStructured(rows, listJSON, listToon); done {
		return err
	}

	if len(photos) == 0 {
		fmt.Println("No photos match the filter criteria")
		return nil
	}

	fmt.Printf("Found %d photo(s):\n\n", len(photos))
	for _, p := range photos {
		fmt.Printf("  %s  [%s]\n", shortID(p.ID), p.Status)
		fmt.Printf("    Project: %s\n", p.ProjectID)
		fmt.Printf("    Taken:   %s\n", p.TakenAt.Local().Format("2006-01-02 15:04"))
		if p.Caption != "" {
			fmt.Printf("    Caption: %s\n", truncate(p.Caption, 60))
		}
		if p.TradeCategory != "" {
			fmt.Printf("    Trade:   %s\n", p.TradeCategory)
		}
		if len(p.Tags) > 0 {
			fmt.Printf("    Tags:    %s\n", strings.Join(p.Tags, ", "))
		}
		if p.Error != "" {
			fmt.Printf("    Error:   %s\n", p.Error)
		}
		fmt.Println()
	}

	return nil
}

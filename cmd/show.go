package cmd

import (
	"fmt"
	"strings"

	"github.com/pders01/sitephoto/internal/render"
	"github.com/spf13/cobra"
)

var showJSON bool

var showCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show a queued photo",
	Long: `Display everything recorded for one captured photo.
The id may be abbreviated to any unique prefix.

Example:
  sitephoto show 0192a4c1-7d2e-7b3f`,
	Args: cobra.ExactArgs(1),
	RunE: runShow,
}

func init() {
	rootCmd.AddCommand(showCmd)

	showCmd.Flags().BoolVar(&showJSON, "json", false, "Output as JSON")
}

func runShow(cmd *cobra.Command, args []string) error {
	queue, err := openQueue()
	if err != nil {
		return err
	}
	defer queue.Close()

	p, err := queue.Get(args[0])
	if err != nil {
		return err
	}

	if done, err := printStructured(p, showJSON, false); done {
		return err
	}

	fmt.Printf("Photo: %s\n\n", p.ID)
	fmt.Printf("Project:  %s\n", p.ProjectID)
	fmt.Printf("File:     %s\n", p.URI)
	if size, err := render.Size(p.URI); err == nil {
		fmt.Printf("Size:     %dx%d\n", size.X, size.Y)
	} else {
		fmt.Printf("Size:     unavailable (%v)\n", err)
	}
	fmt.Printf("Taken:    %s\n", p.TakenAt.Local().Format("2006-01-02 15:04:05"))
	fmt.Printf("Status:   %s\n", p.Status)
	if p.Error != "" {
		fmt.Printf("Error:    %s\n", p.Error)
	}
	if p.RemotePath != "" {
		fmt.Printf("Dropbox:  %s\n", p.RemotePath)
	}

	if p.Caption != "" {
		fmt.Printf("Caption:  %s\n", p.Caption)
	}
	if p.TradeCategory != "" {
		fmt.Printf("Trade:    %s\n", p.TradeCategory)
	}
	if p.RoomArea != "" {
		fmt.Printf("Room:     %s\n", p.RoomArea)
	}
	if len(p.Tags) > 0 {
		fmt.Printf("Tags:     %s\n", strings.Join(p.Tags, ", "))
	}
	if p.GPS != nil {
		fmt.Printf("Location: %.6f, %.6f", p.GPS.Latitude, p.GPS.Longitude)
		if p.GPS.Accuracy != nil {
			fmt.Printf(" (±%.0fm)", *p.GPS.Accuracy)
		}
		fmt.Println()
	}

	if p.Notes != "" {
		fmt.Printf("\nNotes:\n%s\n", p.Notes)
	}

	return nil
}

package cmd

import (
	"fmt"
	"sort"

	"github.com/pders01/sitephoto/internal/config"
	"github.com/pders01/sitephoto/internal/editor"
	"github.com/pders01/sitephoto/internal/store"
	"github.com/spf13/cobra"
)

var (
	tagsProject string
	tagsJSON    bool
	tagsToon    bool
)

var tagsCmd = &cobra.Command{
	Use:   "tags",
	Short: "List tags used across queued photos",
	Long: `List every tag attached to queued photos with usage counts.

Colors are assigned the way the editor does: in order of first use,
cycling through the palette.

Examples:
  sitephoto tags
  sitephoto tags --project 42
  sitephoto tags --json`,
	Args: cobra.NoArgs,
	RunE: runTags,
}

func init() {
	rootCmd.AddCommand(tagsCmd)

	tagsCmd.Flags().StringVar(&tagsProject, "project", "", "Only photos of this project")
	tagsCmd.Flags().BoolVar(&tagsJSON, "json", false, "Output as JSON")
	tagsCmd.Flags().BoolVar(&tagsToon, "toon", false, "Output in LLM-friendly toon format")
}

type tagInfo struct {
	Tag   string `json:"tag"`
	Color string `json:"color"`
	Count int    `json:"count"`
}

func runTags(cmd *cobra.Command, args []string) error {
	queue, err := openQueue()
	if err != nil {
		return err
	}
	defer queue.Close()

	photos, err := queue.List(store.Filter{ProjectID: tagsProject})
	if err != nil {
		return err
	}

	palette, err := config.GetPalette()
	if err != nil {
		return err
	}

	// List is newest first; colors follow first use, so walk oldest first
	set := editor.NewTagSet(palette)
	counts := make(map[string]int)
	for i := len(photos) - 1; i >= 0; i-- {
		for _, label := range photos[i].Tags {
			if counts[label] == 0 {
				set.Add(label)
			}
			counts[label]++
		}
	}

	if set.Len() == 0 {
		fmt.Println("No tags found")
		return nil
	}

	tags := make([]tagInfo, 0, set.Len())
	for _, t := range set.Tags() {
		tags = append(tags, tagInfo{Tag: t.Label, Color: t.Color, Count: counts[t.Label]})
	}
	sort.SliceStable(tags, func(i, j int) bool {
		return tags[i].Count > tags[j].Count
	})

	if done, err := printStructured(tags, tagsJSON, tagsToon); done {
		return err
	}

	fmt.Printf("Found %d tag(s):\n\n", len(tags))
	for _, t := range tags {
		fmt.Printf("  %-30s %s %3d\n", t.Tag, t.Color, t.Count)
	}

	return nil
}

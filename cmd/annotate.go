package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/pders01/sitephoto/internal/render"
	"github.com/spf13/cobra"
)

var (
	annotateScript   string
	annotateRender   string
	annotateMaxWidth int
	annotateJSON     bool
	annotateToon     bool
)

var annotateCmd = &cobra.Command{
	Use:   "annotate <id|photo>",
	Short: "Replay a gesture script and preview the annotations",
	Long: `Replay an annotation session against a queued photo (by id) or a photo file
and show the resulting annotation list. Nothing is stored: pass the same script
to "sitephoto upload --script" to send the annotations.

A script is a TOML file of editor events:

  frame = { width = 390.0, height = 520.0 }   # overlay size the taps refer to
  color = "#FF3B30"
  tags  = ["Leak"]

  [[step]]
  tool = "arrow"
  [[step]]
  tap = { x = 40.0, y = 80.0 }
  [[step]]
  tap = { x = 200.0, y = 310.0 }

  [[step]]
  tool = "text"
  [[step]]
  tap = { x = 120.0, y = 60.0 }
  [[step]]
  text = "Crack in drywall"
  [[step]]
  confirm = true

Other steps: color, cancel, remove = <n>, clear, resize = {width, height},
tag = "label", untag = "label".

Examples:
  sitephoto annotate 0192a4c1-7d2e-7b3f --script kitchen.toml
  sitephoto annotate IMG_0042.jpg --script kitchen.toml --render preview.jpg`,
	Args: cobra.ExactArgs(1),
	RunE: runAnnotate,
}

func init() {
	rootCmd.AddCommand(annotateCmd)

	annotateCmd.Flags().StringVar(&annotateScript, "script", "", "Gesture script to replay (required)")
	annotateCmd.Flags().StringVar(&annotateRender, "render", "", "Write the annotated photo to this file (.jpg or .png)")
	annotateCmd.Flags().IntVar(&annotateMaxWidth, "max-width", 0, "Downscale the rendered photo to this width")
	annotateCmd.Flags().BoolVar(&annotateJSON, "json", false, "Output as JSON")
	annotateCmd.Flags().BoolVar(&annotateToon, "toon", false, "Output in LLM-friendly toon format")
}

func runAnnotate(cmd *cobra.Command, args []string) error {
	if annotateScript == "" {
		return fmt.Errorf("--script is required")
	}

	photoPath, baseTags, err := resolvePhoto(args[0])
	if err != nil {
		return err
	}

	sess, err := replay(annotateScript, baseTags)
	if err != nil {
		return err
	}

	if annotateRender != "" {
		opts := render.Options{MaxWidth: annotateMaxWidth}
		if err := render.File(photoPath, annotateRender, sess.Frame, sess.Annotations, opts); err != nil {
			return fmt.Errorf("failed to render annotations: %w", err)
		}
	}

	if done, err := printStructured(sess, annotateJSON, annotateToon); done {
		return err
	}

	fmt.Printf("Replayed %d step(s) on %s\n\n", len(sess.Steps), photoPath)

	if len(sess.Annotations) == 0 {
		fmt.Println("No annotations")
	} else {
		fmt.Printf("Annotations (%d):\n", len(sess.Annotations))
		for i, a := range sess.Annotations {
			fmt.Printf("  %2d. %-11s %s  (%.0f, %.0f)", i+1, a.Type, a.Color, a.X, a.Y)
			if end, ok := a.End(); ok {
				fmt.Printf(" → (%.0f, %.0f)", end.X, end.Y)
			}
			if a.Text != "" {
				fmt.Printf("  %q", a.Text)
			}
			fmt.Println()
		}
	}

	if len(sess.Tags) > 0 {
		fmt.Printf("\nTags: %s\n", strings.Join(sess.Labels(), ", "))
	}
	if annotateRender != "" {
		fmt.Printf("\n✓ Rendered: %s\n", annotateRender)
	}

	return nil
}

// resolvePhoto accepts a queued photo id or a path to a photo file
func resolvePhoto(ref string) (string, []string, error) {
	if info, err := os.Stat(ref); err == nil && !info.IsDir() {
		return ref, nil, nil
	}

	queue, err := openQueue()
	if err != nil {
		return "", nil, err
	}
	defer queue.Close()

	p, err := queue.Get(ref)
	if err != nil {
		return "", nil, err
	}
	return p.URI, p.Tags, nil
}

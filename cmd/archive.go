package cmd

import (
	"archive/tar"
	"compress/gzip"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/pders01/sitephoto/internal/models"
	"github.com/pders01/sitephoto/internal/store"
	"github.com/spf13/cobra"
)

var (
	archiveOutput  string
	archiveProject string
)

var archiveCmd = &cobra.Command{
	Use:   "archive <year|YYYY-MM|all>",
	Short: "Bundle queued photos for transfer",
	Long: `Create a tar.gz archive of queued photos and their capture metadata,
for handing photos over when the device cannot reach the photo API.

Each photo is stored as <id>/<file> next to <id>/capture.json.

Examples:
  sitephoto archive 2026            # Photos taken in 2026
  sitephoto archive 2026-10         # Photos taken in October 2026
  sitephoto archive all --project 42
  sitephoto archive all --output site-photos.tar.gz`,
	Args: cobra.ExactArgs(1),
	RunE: runArchive,
}

func init() {
	rootCmd.AddCommand(archiveCmd)

	archiveCmd.Flags().StringVar(&archiveOutput, "output", "", "Output file path (default: sitephoto-<period>.tar.gz)")
	archiveCmd.Flags().StringVar(&archiveProject, "project", "", "Filter by project")
}

func runArchive(cmd *cobra.Command, args []string) error {
	period := args[0]

	queue, err := openQueue()
	if err != nil {
		return err
	}
	defer queue.Close()

	photos, err := queue.List(store.Filter{ProjectID: archiveProject})
	if err != nil {
		return err
	}

	var selected []models.CapturedPhoto
	for _, p := range photos {
		if period != "all" && !strings.HasPrefix(p.TakenAt.Local().Format("2006-01-02"), period) {
			continue
		}
		selected = append(selected, p)
	}

	if len(selected) == 0 {
		fmt.Println("No photos match the filter criteria")
		return nil
	}

	outputFile := archiveOutput
	if outputFile == "" {
		outputFile = fmt.Sprintf("sitephoto-%s.tar.gz", strings.ReplaceAll(period, "/", "-"))
	}

	fmt.Printf("Archiving %d photo(s) to: %s\n", len(selected), outputFile)
	fmt.Println()

	if err := createArchive(outputFile, selected); err != nil {
		return fmt.Errorf("failed to create archive: %w", err)
	}

	fileInfo, err := os.Stat(outputFile)
	if err == nil {
		fmt.Printf("\n✓ Archive created: %s (%.2f KB)\n", outputFile, float64(fileInfo.Size())/1024)
	} else {
		fmt.Printf("\n✓ Archive created: %s\n", outputFile)
	}

	return nil
}

func createArchive(filename string, photos []models.CapturedPhoto) error {
	outFile, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer outFile.Close()

	gzWriter := gzip.NewWriter(outFile)
	defer gzWriter.Close()

	tarWriter := tar.NewWriter(gzWriter)
	defer tarWriter.Close()

	for i, p := range photos {
		fmt.Printf("  [%d/%d] %s  %s\n", i+1, len(photos), shortID(p.ID), filepath.Base(p.URI))

		if err := addFile(tarWriter, p.URI, filepath.Join(p.ID, filepath.Base(p.URI))); err != nil {
			return fmt.Errorf("failed to archive %s: %w", p.ID, err)
		}

		meta, err := json.MarshalIndent(p, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal capture %s: %w", p.ID, err)
		}
		header := &tar.Header{
			Name:    filepath.Join(p.ID, "capture.json"),
			Mode:    0644,
			Size:    int64(len(meta)),
			ModTime: p.UpdatedAt,
		}
		if err := tarWriter.WriteHeader(header); err != nil {
			return err
		}
		if _, err := tarWriter.Write(meta); err != nil {
			return err
		}
	}

	return nil
}

func addFile(tw *tar.Writer, path, name string) error {
	file, err := os.Open(path)
	if err != nil {
		return err
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return err
	}

	header, err := tar.FileInfoHeader(info, "")
	if err != nil {
		return err
	}
	header.Name = name

	if err := tw.WriteHeader(header); err != nil {
		return err
	}
	_, err = io.Copy(tw, file)
	return err
}

package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"

	"github.com/pders01/sitephoto/internal/config"
	"github.com/pders01/sitephoto/internal/models"
	"github.com/pders01/sitephoto/internal/store"
	"github.com/pders01/sitephoto/internal/upload"
	"github.com/sourcegraph/conc/pool"
	"github.com/spf13/cobra"
)

var (
	uploadScript   string
	uploadAll      bool
	uploadProject  string
	uploadVariant  string
	uploadUpdateID string
)

var uploadCmd = &cobra.Command{
	Use:   "upload [id]",
	Short: "Send queued photos to the project photo API",
	Long: `Upload a queued photo with its annotations, tags and capture metadata.

Annotations come from a gesture script replayed at upload time (--script).
A failed upload keeps the photo queued with status "failed"; run upload
again to retry. Nothing is retried automatically. A photo left "uploading"
by a run that died is picked up again once upload.timeout has passed.

Endpoints:
  mobile (default)  POST /api/mobile/projects/{project}/photos
  survey            POST /api/projects/{project}/updates/{update}/survey-photos

Examples:
  sitephoto upload 0192a4c1-7d2e-7b3f --script kitchen.toml
  sitephoto upload --all
  sitephoto upload --all --project 42 --variant survey --update-id 7`,
	Args: cobra.MaximumNArgs(1),
	RunE: runUpload,
}

func init() {
	rootCmd.AddCommand(uploadCmd)

	uploadCmd.Flags().StringVar(&uploadScript, "script", "", "Gesture script providing the annotations")
	uploadCmd.Flags().BoolVar(&uploadAll, "all", false, "Upload every pending, failed or interrupted photo")
	uploadCmd.Flags().StringVar(&uploadProject, "project", "", "With --all, only photos of this project")
	uploadCmd.Flags().StringVar(&uploadVariant, "variant", "", "Endpoint: mobile|survey (default from upload.variant)")
	uploadCmd.Flags().StringVar(&uploadUpdateID, "update-id", "", "Project update for survey uploads (default from upload.update_id)")
}

func runUpload(cmd *cobra.Command, args []string) error {
	switch {
	case uploadAll && len(args) > 0:
		return fmt.Errorf("give either a photo id or --all, not both")
	case !uploadAll && len(args) == 0:
		return fmt.Errorf("photo id required (or use --all)")
	case uploadAll && uploadScript != "":
		return fmt.Errorf("--script applies to a single photo")
	}

	client, err := upload.NewClient(config.GetServerURL(), config.GetAuthToken(),
		upload.WithTimeout(config.GetUploadTimeout()))
	if err != nil {
		return err
	}

	queue, err := openQueue()
	if err != nil {
		return err
	}
	defer queue.Close()

	ctx := commandContext(cmd)

	if !uploadAll {
		p, err := queue.Get(args[0])
		if err != nil {
			return err
		}
		result, err := uploadCapture(ctx, client, queue, *p, uploadScript)
		if err != nil {
			return errors.New(failureMessage(err))
		}
		fmt.Printf("✓ %s (%s)\n", result.Message(), shortID(p.ID))
		if result.DropboxPath != "" {
			fmt.Printf("  Dropbox: %s\n", result.DropboxPath)
		}
		return nil
	}

	return uploadBatch(ctx, client, queue)
}

// uploadBatch sends every pending and failed photo, plus photos whose upload
// was interrupted, a few at a time
func uploadBatch(ctx context.Context, client *upload.Client, queue *store.Store) error {
	var photos []models.CapturedPhoto
	for _, status := range []models.UploadStatus{models.StatusPending, models.StatusFailed} {
		batch, err := queue.List(store.Filter{ProjectID: uploadProject, Status: status})
		if err != nil {
			return err
		}
		photos = append(photos, batch...)
	}

	stale, err := queue.Stale(uploadProject)
	if err != nil {
		return err
	}
	if len(stale) > 0 {
		fmt.Printf("Resuming %d interrupted upload(s)\n", len(stale))
	}
	photos = append(photos, stale...)

	if len(photos) == 0 {
		fmt.Println("Nothing to upload")
		return nil
	}

	if !upload.IsAvailable(client.BaseURL()) {
		return fmt.Errorf("photo API is not reachable at %s", client.BaseURL())
	}

	concurrency := config.GetUploadConcurrency()
	fmt.Printf("Uploading %d photo(s) to %s (%d at a time)...\n\n", len(photos), client.BaseURL(), concurrency)

	var mu sync.Mutex
	p := pool.New().WithErrors().WithMaxGoroutines(concurrency)
	for _, photo := range photos {
		p.Go(func() error {
			result, err := uploadCapture(ctx, client, queue, photo, "")

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				fmt.Printf("  ✗ %s  %s\n", shortID(photo.ID), failureMessage(err))
				return fmt.Errorf("%s: %w", photo.ID, err)
			}
			fmt.Printf("  ✓ %s  %s\n", shortID(photo.ID), result.Message())
			return nil
		})
	}

	if err := p.Wait(); err != nil {
		failed := countJoined(err)
		fmt.Printf("\n%d of %d upload(s) failed; they stay queued for retry\n", failed, len(photos))
		return fmt.Errorf("%d upload(s) failed", failed)
	}

	fmt.Printf("\n✓ Uploaded %d photo(s)\n", len(photos))
	return nil
}

// uploadCapture sends one photo and records the outcome in the queue
func uploadCapture(ctx context.Context, client *upload.Client, queue *store.Store, p models.CapturedPhoto, scriptPath string) (*upload.Result, error) {
	if p.Uploaded() {
		return nil, fmt.Errorf("photo %s is already uploaded", p.ID)
	}

	sub := upload.Submission{
		PhotoID:   p.ID,
		PhotoPath: p.URI,
		Tags:      p.Tags,
		Metadata: upload.Metadata{
			Caption:       p.Caption,
			Notes:         p.Notes,
			TradeCategory: p.TradeCategory,
			RoomArea:      p.RoomArea,
			GPS:           p.GPS,
			TakenAt:       p.TakenAt,
		},
	}

	if scriptPath != "" {
		sess, err := replay(scriptPath, p.Tags)
		if err != nil {
			return nil, err
		}
		sub.Annotations = sess.Annotations
		sub.Tags = sess.Labels()
	}

	endpoint := upload.Endpoint{
		Variant:   config.GetUploadVariant(),
		ProjectID: p.ProjectID,
		UpdateID:  config.GetUpdateID(),
	}
	if uploadVariant != "" {
		endpoint.Variant = upload.Variant(uploadVariant)
	}
	if uploadUpdateID != "" {
		endpoint.UpdateID = uploadUpdateID
	}
	if _, err := endpoint.Path(); err != nil {
		return nil, err
	}

	if err := queue.MarkUploading(p.ID); err != nil {
		return nil, err
	}

	result, err := client.Upload(ctx, endpoint, sub)
	if err != nil {
		if errors.Is(err, upload.ErrUploadInProgress) {
			return nil, err
		}
		if markErr := queue.MarkFailed(p.ID, upload.UserMessage(err)); markErr != nil {
			slog.Error("Failed to record upload failure", "photo", p.ID, "error", markErr)
		}
		return nil, err
	}

	if err := queue.MarkUploaded(p.ID, result.DropboxPath); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: photo was uploaded but the queue could not be updated: %v\n", err)
	}
	return result, nil
}

// failureMessage shows upload failures the way the user sees them in the app;
// anything that went wrong before a request was sent is reported as is
func failureMessage(err error) string {
	var ue *upload.UploadError
	if errors.As(err, &ue) || errors.Is(err, upload.ErrUploadInProgress) {
		return upload.UserMessage(err)
	}
	return err.Error()
}

// countJoined counts the errors combined by the pool
func countJoined(err error) int {
	if joined, ok := err.(interface{ Unwrap() []error }); ok {
		return len(joined.Unwrap())
	}
	return 1
}

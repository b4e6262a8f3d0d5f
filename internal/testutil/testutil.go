package testutil

import (
	"image"
	"image/color"
	"image/jpeg"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
)

// TempWorkspace is an isolated directory with its own config and queue database
type TempWorkspace struct {
	Path string
	T    *testing.T
}

// NewTempWorkspace creates a temporary workspace and points viper at it.
// Viper state is reset when the test finishes.
func NewTempWorkspace(t *testing.T) *TempWorkspace {
	t.Helper()

	tmpDir, err := os.MkdirTemp("", "sitephoto-test-*")
	if err != nil {
		t.Fatalf("failed to create temp dir: %v", err)
	}

	viper.Reset()
	viper.Set("queue.path", filepath.Join(tmpDir, "queue.db"))

	w := &TempWorkspace{
		Path: tmpDir,
		T:    t,
	}
	t.Cleanup(func() {
		viper.Reset()
	})

	return w
}

// Cleanup removes the temporary workspace
func (w *TempWorkspace) Cleanup() {
	w.T.Helper()
	if err := os.RemoveAll(w.Path); err != nil {
		w.T.Errorf("failed to cleanup temp workspace: %v", err)
	}
}

// QueuePath returns the queue database path of the workspace
func (w *TempWorkspace) QueuePath() string {
	return filepath.Join(w.Path, "queue.db")
}

// CreateFile creates a file in the workspace and returns its path
func (w *TempWorkspace) CreateFile(name, content string) string {
	w.T.Helper()
	path := filepath.Join(w.Path, name)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		w.T.Fatalf("failed to create directory: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		w.T.Fatalf("failed to create file: %v", err)
	}
	return path
}

// CreateJPEG writes a solid gray JPEG of the given size and returns its path
func (w *TempWorkspace) CreateJPEG(name string, width, height int) string {
	w.T.Helper()
	return WriteJPEG(w.T, filepath.Join(w.Path, name), width, height)
}

// WriteJPEG writes a solid gray JPEG of the given size to path
func WriteJPEG(t *testing.T, path string, width, height int) string {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, width, height))
	gray := color.RGBA{R: 128, G: 128, B: 128, A: 255}
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, gray)
		}
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatalf("failed to create directory: %v", err)
	}
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("failed to create jpeg: %v", err)
	}
	defer f.Close()

	if err := jpeg.Encode(f, img, &jpeg.Options{Quality: 90}); err != nil {
		t.Fatalf("failed to encode jpeg: %v", err)
	}
	return path
}

// Chdir switches into the workspace for the rest of the test
func (w *TempWorkspace) Chdir() {
	w.T.Helper()

	oldWd, err := os.Getwd()
	if err != nil {
		w.T.Fatalf("failed to get working directory: %v", err)
	}
	if err := os.Chdir(w.Path); err != nil {
		w.T.Fatalf("failed to change directory: %v", err)
	}
	w.T.Cleanup(func() {
		_ = os.Chdir(oldWd)
	})
}

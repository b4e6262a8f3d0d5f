package cmd

import (
	"archive/tar"
	"compress/gzip"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/pders01/sitephoto/internal/models"
	"github.com/pders01/sitephoto/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestArchiveNoPhotos(t *testing.T) {
	ws := testutil.NewTempWorkspace(t)
	defer ws.Cleanup()

	archiveOutput = filepath.Join(ws.Path, "out.tar.gz")
	archiveProject = ""
	defer func() { archiveOutput, archiveProject = "", "" }()

	require.NoError(t, runArchive(nil, []string{"all"}))

	_, err := os.Stat(archiveOutput)
	assert.True(t, os.IsNotExist(err), "archive should not be created for an empty selection")
}

func TestArchivePhotos(t *testing.T) {
	ws := testutil.NewTempWorkspace(t)
	defer ws.Cleanup()

	p := queuePhoto(t, ws, "wall.jpg", "42", "Leak")
	queuePhoto(t, ws, "other.jpg", "7")

	archiveOutput = filepath.Join(ws.Path, "out.tar.gz")
	archiveProject = "42"
	defer func() { archiveOutput, archiveProject = "", "" }()

	require.NoError(t, runArchive(nil, []string{"2026-10"}))

	entries := readArchive(t, archiveOutput)
	require.Len(t, entries, 2)

	photo, ok := entries[filepath.Join(p.ID, "wall.jpg")]
	require.True(t, ok, "photo missing from archive")
	original, err := os.ReadFile(p.URI)
	require.NoError(t, err)
	assert.Equal(t, original, photo)

	var got models.CapturedPhoto
	require.NoError(t, json.Unmarshal(entries[filepath.Join(p.ID, "capture.json")], &got))
	assert.Equal(t, p.ID, got.ID)
	assert.Equal(t, []string{"Leak"}, got.Tags)
}

func TestArchivePeriodFilter(t *testing.T) {
	ws := testutil.NewTempWorkspace(t)
	defer ws.Cleanup()

	queuePhoto(t, ws, "wall.jpg", "42")

	archiveOutput = filepath.Join(ws.Path, "out.tar.gz")
	archiveProject = ""
	defer func() { archiveOutput, archiveProject = "", "" }()

	require.NoError(t, runArchive(nil, []string{"2025"}))

	_, err := os.Stat(archiveOutput)
	assert.True(t, os.IsNotExist(err))
}

func readArchive(t *testing.T, path string) map[string][]byte {
	t.Helper()

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	gz, err := gzip.NewReader(f)
	require.NoError(t, err)
	tr := tar.NewReader(gz)

	entries := make(map[string][]byte)
	for {
		header, err := tr.Next()
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
		data, err := io.ReadAll(tr)
		require.NoError(t, err)
		entries[header.Name] = data
	}
	return entries
}

package cmd

import (
	"testing"
	"time"

	"github.com/pders01/sitephoto/internal/models"
	"github.com/pders01/sitephoto/internal/store"
	"github.com/pders01/sitephoto/internal/testutil"
	"github.com/stretchr/testify/require"
)

// queuePhoto writes a JPEG into the workspace and queues it directly
func queuePhoto(t *testing.T, ws *testutil.TempWorkspace, name, project string, tags ...string) models.CapturedPhoto {
	t.Helper()

	queue, err := store.Open(ws.QueuePath())
	require.NoError(t, err)
	defer queue.Close()

	p := &models.CapturedPhoto{
		ProjectID: project,
		URI:       ws.CreateJPEG(name, 64, 48),
		Caption:   "Caption for " + name,
		Tags:      tags,
		TakenAt:   time.Date(2026, 10, 18, 9, 30, 0, 0, time.UTC),
	}
	require.NoError(t, queue.Add(p))
	return *p
}

// loadPhoto reads the current queue entry for id
func loadPhoto(t *testing.T, ws *testutil.TempWorkspace, id string) models.CapturedPhoto {
	t.Helper()

	queue, err := store.Open(ws.QueuePath())
	require.NoError(t, err)
	defer queue.Close()

	p, err := queue.Get(id)
	require.NoError(t, err)
	return *p
}

// listAll returns every queued photo, newest first
func listAll(t *testing.T, ws *testutil.TempWorkspace) []models.CapturedPhoto {
	t.Helper()

	queue, err := store.Open(ws.QueuePath())
	require.NoError(t, err)
	defer queue.Close()

	photos, err := queue.List(store.Filter{})
	require.NoError(t, err)
	return photos
}

func queueLen(t *testing.T, ws *testutil.TempWorkspace) int {
	t.Helper()
	return len(listAll(t, ws))
}

const markerScript = `
frame = { width = 64.0, height = 48.0 }
tags  = ["Leak"]

[[step]]
tool = "marker"
[[step]]
tap = { x = 10.0, y = 20.0 }
`

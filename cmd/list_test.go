package cmd

import (
	"testing"

	"github.com/pders01/sitephoto/internal/store"
	"github.com/pders01/sitephoto/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func resetListFlags() {
	listProject = ""
	listStatus = ""
	listToday = false
	listSince = ""
	listJSON = false
	listToon = false
}

func TestListEmptyQueue(t *testing.T) {
	ws := testutil.NewTempWorkspace(t)
	defer ws.Cleanup()

	resetListFlags()
	defer resetListFlags()

	assert.NoError(t, runList(nil, []string{}))
}

func TestListWithFilters(t *testing.T) {
	ws := testutil.NewTempWorkspace(t)
	defer ws.Cleanup()

	queuePhoto(t, ws, "a.jpg", "42", "Leak")
	failed := queuePhoto(t, ws, "b.jpg", "42")
	queuePhoto(t, ws, "c.jpg", "7")

	queue, err := store.Open(ws.QueuePath())
	require.NoError(t, err)
	require.NoError(t, queue.MarkFailed(failed.ID, "Could not save photo: upload failed"))
	queue.Close()

	tests := []struct {
		name  string
		setup func()
	}{
		{"all", func() {}},
		{"project", func() { listProject = "42" }},
		{"status", func() { listStatus = "FAILED" }},
		{"since", func() { listSince = "2026-01-01" }},
		{"today", func() { listToday = true }},
		{"json", func() { listJSON = true }},
		{"toon", func() { listToon = true }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resetListFlags()
			defer resetListFlags()
			tt.setup()

			assert.NoError(t, runList(nil, []string{}))
		})
	}
}

func TestListRejectsBadFilters(t *testing.T) {
	ws := testutil.NewTempWorkspace(t)
	defer ws.Cleanup()

	resetListFlags()
	defer resetListFlags()

	listStatus = "lost"
	err := runList(nil, []string{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid status")

	resetListFlags()
	listSince = "18/10/2026"
	err = runList(nil, []string{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid --since")
}

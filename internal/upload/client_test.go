package upload

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/pders01/sitephoto/internal/models"
	"github.com/pders01/sitephoto/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// receivedUpload captures what the mock photo API saw
type receivedUpload struct {
	ProjectID   string
	UpdateID    string
	Auth        string
	Fields      map[string]string
	Filename    string
	ContentType string
	PhotoBytes  int
}

func newMockAPI(t *testing.T, respond func(w http.ResponseWriter, r *http.Request)) (*httptest.Server, chan receivedUpload) {
	t.Helper()

	got := make(chan receivedUpload, 4)
	capture := func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseMultipartForm(10<<20))

		rec := receivedUpload{
			ProjectID: mux.Vars(r)["projectId"],
			UpdateID:  mux.Vars(r)["updateId"],
			Auth:      r.Header.Get("Authorization"),
			Fields:    make(map[string]string),
		}
		for name, values := range r.MultipartForm.Value {
			rec.Fields[name] = values[0]
		}
		if files := r.MultipartForm.File[PhotoField]; len(files) > 0 {
			rec.Filename = files[0].Filename
			rec.ContentType = files[0].Header.Get("Content-Type")
			f, err := files[0].Open()
			require.NoError(t, err)
			data, _ := io.ReadAll(f)
			f.Close()
			rec.PhotoBytes = len(data)
		}
		got <- rec
		respond(w, r)
	}

	router := mux.NewRouter()
	router.HandleFunc("/api/mobile/projects/{projectId}/photos", capture).Methods(http.MethodPost)
	router.HandleFunc("/api/projects/{projectId}/updates/{updateId}/survey-photos", capture).Methods(http.MethodPost)

	server := httptest.NewServer(router)
	t.Cleanup(server.Close)
	return server, got
}

func respondJSON(status int, body any) func(http.ResponseWriter, *http.Request) {
	return func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(body)
	}
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestClient(t *testing.T, url string) *Client {
	t.Helper()
	c, err := NewClient(url, "secret-token", WithLogger(quietLogger()))
	require.NoError(t, err)
	return c
}

func testSubmission(t *testing.T) Submission {
	t.Helper()
	ws := testutil.NewTempWorkspace(t)
	t.Cleanup(ws.Cleanup)

	measurement := models.NewSegment("a2", models.TypeMeasurement, models.Point{}, models.Point{X: 100}, "#34C759")
	measurement.Text = "10 ft"
	text := models.NewAnnotation("a4", models.TypeText, models.Point{X: 3, Y: 4}, "#FFFFFF")
	text.Text = "Crack in drywall"

	return Submission{
		PhotoID:   "cap-1",
		PhotoPath: ws.CreateJPEG("photo.jpg", 32, 24),
		Annotations: []models.Annotation{
			models.NewAnnotation("a1", models.TypeMarker, models.Point{X: 1.5, Y: 2.25}, "#FF3B30"),
			measurement,
			models.NewSegment("a3", models.TypeArrow, models.Point{X: 10, Y: 10}, models.Point{X: 50, Y: 60}, "#007AFF"),
			text,
			models.NewAnnotation("a5", models.TypeCircle, models.Point{X: 7, Y: 8}, "#FF9500"),
		},
		Tags: []string{"Electrical", "Leak"},
		Metadata: Metadata{
			Caption:       "Kitchen wall",
			TradeCategory: "Drywall",
			TakenAt:       time.Date(2026, 3, 4, 5, 6, 7, 8_000_000, time.UTC),
		},
	}
}

func TestNewClient(t *testing.T) {
	tests := []struct {
		name    string
		url     string
		wantURL string
		wantErr bool
	}{
		{name: "custom url", url: "https://api.example.com/", wantURL: "https://api.example.com"},
		{name: "default url", url: "", wantURL: DefaultURL},
		{name: "bad scheme", url: "ftp://example.com", wantErr: true},
		{name: "unparseable", url: "http://[::1", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := NewClient(tt.url, "")
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantURL, c.BaseURL())
		})
	}
}

func TestEndpointPath(t *testing.T) {
	tests := []struct {
		name    string
		ep      Endpoint
		want    string
		wantErr bool
	}{
		{name: "mobile", ep: Endpoint{Variant: VariantMobile, ProjectID: "42"}, want: "/api/mobile/projects/42/photos"},
		{name: "default variant", ep: Endpoint{ProjectID: "42"}, want: "/api/mobile/projects/42/photos"},
		{name: "survey", ep: Endpoint{Variant: VariantSurvey, ProjectID: "42", UpdateID: "7"}, want: "/api/projects/42/updates/7/survey-photos"},
		{name: "escaped", ep: Endpoint{ProjectID: "a/b"}, want: "/api/mobile/projects/a%2Fb/photos"},
		{name: "missing project", ep: Endpoint{}, wantErr: true},
		{name: "survey without update", ep: Endpoint{Variant: VariantSurvey, ProjectID: "42"}, wantErr: true},
		{name: "unknown variant", ep: Endpoint{Variant: "web", ProjectID: "42"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.ep.Path()
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestUploadSendsMultipartForm(t *testing.T) {
	server, got := newMockAPI(t, respondJSON(http.StatusCreated, map[string]any{"id": 99}))
	client := newTestClient(t, server.URL)
	sub := testSubmission(t)

	result, err := client.Upload(t.Context(), Endpoint{ProjectID: "proj-1"}, sub)
	require.NoError(t, err)
	assert.Equal(t, http.StatusCreated, result.StatusCode)
	assert.Equal(t, "Photo saved", result.Message())

	rec := <-got
	assert.Equal(t, "proj-1", rec.ProjectID)
	assert.Equal(t, "Bearer secret-token", rec.Auth)
	assert.Equal(t, sub.Filename(), rec.Filename)
	assert.Equal(t, PhotoContentType, rec.ContentType)
	assert.Positive(t, rec.PhotoBytes)

	assert.Equal(t, "Kitchen wall", rec.Fields["caption"])
	assert.Equal(t, "Drywall", rec.Fields["tradeCategory"])
	assert.Equal(t, "2026-03-04T05:06:07.008Z", rec.Fields["takenAt"])
	assert.JSONEq(t, `["Electrical","Leak"]`, rec.Fields["tags"])

	for _, optional := range []string{"roomArea", "notes", "latitude", "longitude", "accuracy"} {
		assert.NotContains(t, rec.Fields, optional)
	}
}

func TestAnnotationsRoundTrip(t *testing.T) {
	server, got := newMockAPI(t, respondJSON(http.StatusOK, map[string]any{}))
	client := newTestClient(t, server.URL)
	sub := testSubmission(t)

	_, err := client.Upload(t.Context(), Endpoint{ProjectID: "p"}, sub)
	require.NoError(t, err)

	rec := <-got
	var decoded []models.Annotation
	require.NoError(t, json.Unmarshal([]byte(rec.Fields["annotationsData"]), &decoded))
	require.Len(t, decoded, len(sub.Annotations))

	for i, want := range sub.Annotations {
		have := decoded[i]
		assert.Equal(t, want.Type, have.Type)
		assert.Equal(t, want.Color, have.Color)
		assert.Equal(t, want.Start(), have.Start())
		wantEnd, wantHas := want.End()
		haveEnd, haveHas := have.End()
		assert.Equal(t, wantHas, haveHas)
		assert.Equal(t, wantEnd, haveEnd)
		assert.Equal(t, want.Text, have.Text)
	}
}

func TestUploadOptionalFields(t *testing.T) {
	server, got := newMockAPI(t, respondJSON(http.StatusOK, map[string]any{}))
	client := newTestClient(t, server.URL)

	accuracy := 4.5
	sub := testSubmission(t)
	sub.RoomArea = "Kitchen"
	sub.Notes = "North wall"
	sub.GPS = &models.GPS{Latitude: 47.6062, Longitude: -122.3321, Accuracy: &accuracy}
	sub.Tags = nil
	sub.Annotations = nil

	_, err := client.Upload(t.Context(), Endpoint{Variant: VariantSurvey, ProjectID: "p", UpdateID: "u9"}, sub)
	require.NoError(t, err)

	rec := <-got
	assert.Equal(t, "u9", rec.UpdateID)
	assert.Equal(t, "Kitchen", rec.Fields["roomArea"])
	assert.Equal(t, "North wall", rec.Fields["notes"])
	assert.Equal(t, "47.6062", rec.Fields["latitude"])
	assert.Equal(t, "-122.3321", rec.Fields["longitude"])
	assert.Equal(t, "4.5", rec.Fields["accuracy"])
	assert.Equal(t, "[]", rec.Fields["tags"])
	assert.Equal(t, "[]", rec.Fields["annotationsData"])
}

func TestUploadDropboxConfirmation(t *testing.T) {
	server, _ := newMockAPI(t, respondJSON(http.StatusOK, map[string]any{"dropboxPath": "/Projects/p/photo.jpg"}))
	client := newTestClient(t, server.URL)

	result, err := client.Upload(t.Context(), Endpoint{ProjectID: "p"}, testSubmission(t))
	require.NoError(t, err)
	assert.Equal(t, "/Projects/p/photo.jpg", result.DropboxPath)
	assert.Equal(t, "Photo saved and synced to Dropbox", result.Message())
}

func TestUploadFailures(t *testing.T) {
	tests := []struct {
		name        string
		respond     func(http.ResponseWriter, *http.Request)
		wantStatus  int
		wantMessage string
	}{
		{
			name:        "error field surfaced",
			respond:     respondJSON(http.StatusBadRequest, map[string]string{"error": "Project is archived"}),
			wantStatus:  http.StatusBadRequest,
			wantMessage: "Could not save photo: Project is archived",
		},
		{
			name:        "json without error field",
			respond:     respondJSON(http.StatusInternalServerError, map[string]string{"message": "boom"}),
			wantStatus:  http.StatusInternalServerError,
			wantMessage: "Could not save photo: upload failed",
		},
		{
			name: "non json body",
			respond: func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(http.StatusBadGateway)
				_, _ = w.Write([]byte("<html>bad gateway</html>"))
			},
			wantStatus:  http.StatusBadGateway,
			wantMessage: "Could not save photo: upload failed",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server, _ := newMockAPI(t, tt.respond)
			client := newTestClient(t, server.URL)

			result, err := client.Upload(t.Context(), Endpoint{ProjectID: "p"}, testSubmission(t))
			require.Error(t, err)
			assert.Nil(t, result)

			var ue *UploadError
			require.ErrorAs(t, err, &ue)
			assert.Equal(t, tt.wantStatus, ue.StatusCode)
			assert.False(t, ue.Network())
			assert.Equal(t, tt.wantMessage, UserMessage(err))
		})
	}
}

func TestUploadNetworkFailure(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	url := server.URL
	server.Close()

	client := newTestClient(t, url)
	_, err := client.Upload(t.Context(), Endpoint{ProjectID: "p"}, testSubmission(t))
	require.Error(t, err)

	var ue *UploadError
	require.ErrorAs(t, err, &ue)
	assert.True(t, ue.Network())
	assert.Equal(t, "Could not save photo: upload failed", UserMessage(err))
}

func TestUploadIsSingleFlightPerPhoto(t *testing.T) {
	entered := make(chan struct{})
	release := make(chan struct{})
	var once sync.Once

	server, _ := newMockAPI(t, func(w http.ResponseWriter, r *http.Request) {
		once.Do(func() { close(entered) })
		<-release
		respondJSON(http.StatusOK, map[string]any{})(w, r)
	})
	client := newTestClient(t, server.URL)
	sub := testSubmission(t)

	done := make(chan error, 1)
	go func() {
		_, err := client.Upload(context.Background(), Endpoint{ProjectID: "p"}, sub)
		done <- err
	}()

	<-entered
	_, err := client.Upload(t.Context(), Endpoint{ProjectID: "p"}, sub)
	require.ErrorIs(t, err, ErrUploadInProgress)
	assert.Equal(t, "This photo is already being saved", UserMessage(err))

	close(release)
	require.NoError(t, <-done)

	// Once the first upload finished the photo can be saved again.
	_, err = client.Upload(t.Context(), Endpoint{ProjectID: "p"}, sub)
	assert.NoError(t, err)
}

func TestUploadStampsMissingCaptureTime(t *testing.T) {
	server, got := newMockAPI(t, respondJSON(http.StatusOK, map[string]any{}))
	fixed := time.Date(2026, 10, 18, 12, 0, 0, 0, time.UTC)
	client, err := NewClient(server.URL, "", WithLogger(quietLogger()), WithClock(func() time.Time { return fixed }))
	require.NoError(t, err)

	sub := testSubmission(t)
	sub.TakenAt = time.Time{}
	_, err = client.Upload(t.Context(), Endpoint{ProjectID: "p"}, sub)
	require.NoError(t, err)

	rec := <-got
	assert.Equal(t, "2026-10-18T12:00:00.000Z", rec.Fields["takenAt"])
	assert.Equal(t, "photo_1792324800000.jpg", rec.Filename)
	assert.Empty(t, rec.Auth, "no token means no Authorization header")
}

func TestUploadRejectsIncompleteAnnotations(t *testing.T) {
	server, got := newMockAPI(t, respondJSON(http.StatusOK, map[string]any{}))
	client := newTestClient(t, server.URL)

	sub := testSubmission(t)
	sub.Annotations = append(sub.Annotations, models.NewAnnotation("bad", models.TypeArrow, models.Point{}, "#FF3B30"))

	_, err := client.Upload(t.Context(), Endpoint{ProjectID: "p"}, sub)
	require.ErrorIs(t, err, models.ErrIncomplete)
	assert.Empty(t, got, "nothing should reach the server")
}

func TestIsAvailable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	assert.True(t, IsAvailable(server.URL))
	assert.False(t, IsAvailable("http://localhost:99999"))
}

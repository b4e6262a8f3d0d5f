// Package upload sends annotated site photos to the photo API.
package upload

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"
)

const (
	// DefaultURL is the default photo API base URL
	DefaultURL = "http://localhost:3000"
	// DefaultTimeout bounds a single upload including the photo body
	DefaultTimeout = 60 * time.Second

	maxResponseBytes = 1 << 20
)

// Variant selects which photo endpoint receives the upload
type Variant string

const (
	// VariantMobile posts to the mobile capture endpoint
	VariantMobile Variant = "mobile"
	// VariantSurvey posts to a project update's survey photos
	VariantSurvey Variant = "survey"
)

// Endpoint identifies where a photo is uploaded to
type Endpoint struct {
	Variant   Variant
	ProjectID string
	UpdateID  string
}

// Path returns the request path for the endpoint
func (e Endpoint) Path() (string, error) {
	if e.ProjectID == "" {
		return "", fmt.Errorf("project id is required")
	}
	project := url.PathEscape(e.ProjectID)

	switch e.Variant {
	case VariantMobile, "":
		return fmt.Sprintf("/api/mobile/projects/%s/photos", project), nil
	case VariantSurvey:
		if e.UpdateID == "" {
			return "", fmt.Errorf("update id is required for survey uploads")
		}
		return fmt.Sprintf("/api/projects/%s/updates/%s/survey-photos", project, url.PathEscape(e.UpdateID)), nil
	default:
		return "", fmt.Errorf("unknown upload variant: %s (must be: mobile, survey)", e.Variant)
	}
}

// Result is the backend's confirmation of a stored photo
type Result struct {
	StatusCode  int
	DropboxPath string
	Body        map[string]any
}

// Message returns the confirmation shown to the user
func (r *Result) Message() string {
	if r.DropboxPath != "" {
		return "Photo saved and synced to Dropbox"
	}
	return "Photo saved"
}

// Client uploads photos to the photo API
type Client struct {
	baseURL string
	token   string
	http    *http.Client
	logger  *slog.Logger
	now     func() time.Time

	mu       sync.Mutex
	inflight map[string]struct{}
}

// Option configures a Client
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client
func WithHTTPClient(hc *http.Client) Option { return func(c *Client) { c.http = hc } }

// WithTimeout sets the per-upload timeout
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.http.Timeout = d
		}
	}
}

// WithLogger sets the logger used for diagnostics
func WithLogger(l *slog.Logger) Option { return func(c *Client) { c.logger = l } }

// WithClock replaces time.Now, used to stamp photos without a capture time
func WithClock(now func() time.Time) Option { return func(c *Client) { c.now = now } }

// NewClient creates a new photo API client
func NewClient(baseURL, token string, opts ...Option) (*Client, error) {
	if baseURL == "" {
		baseURL = DefaultURL
	}
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid server url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("invalid server url scheme: %q", u.Scheme)
	}

	c := &Client{
		baseURL:  strings.TrimRight(baseURL, "/"),
		token:    token,
		http:     &http.Client{Timeout: DefaultTimeout},
		now:      time.Now,
		inflight: make(map[string]struct{}),
	}
	for _, o := range opts {
		o(c)
	}
	if c.logger == nil {
		c.logger = slog.Default().With("service", "upload")
	}

	return c, nil
}

// IsAvailable checks if the photo API answers at all
func IsAvailable(baseURL string) bool {
	if baseURL == "" {
		baseURL = DefaultURL
	}

	client := &http.Client{
		Timeout: 2 * time.Second,
	}

	resp, err := client.Get(baseURL)
	if err != nil {
		return false
	}
	defer resp.Body.Close()

	return resp.StatusCode < http.StatusInternalServerError
}

// BaseURL returns the server the client talks to
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Upload submits one photo with its annotations and metadata.
// A second Upload for the same photo while the first is running fails with
// ErrUploadInProgress without sending anything. Nothing is retried.
func (c *Client) Upload(ctx context.Context, ep Endpoint, sub Submission) (*Result, error) {
	key := sub.PhotoID
	if key == "" {
		key = sub.PhotoPath
	}
	if !c.acquire(key) {
		c.logger.Warn("Upload already in flight", "photo", key)
		return nil, ErrUploadInProgress
	}
	defer c.release(key)

	path, err := ep.Path()
	if err != nil {
		return nil, err
	}
	if sub.TakenAt.IsZero() {
		sub.TakenAt = c.now()
	}

	if c.token != "" {
		if err := CheckToken(c.token, c.now()); errors.Is(err, ErrTokenExpired) {
			c.logger.Warn("Auth token looks expired, sending anyway", "error", err)
		}
	}

	body, contentType, err := Encode(sub)
	if err != nil {
		return nil, fmt.Errorf("failed to encode upload: %w", err)
	}

	endpoint := c.baseURL + path
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	c.logger.Info("Uploading photo",
		"photo", key,
		"endpoint", endpoint,
		"annotations", len(sub.Annotations),
		"tags", len(sub.Tags),
		"bytes", body.Len())

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Error("Upload request failed", "photo", key, "error", err)
		return nil, &UploadError{Err: networkError(err)}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, &UploadError{StatusCode: resp.StatusCode, Err: fmt.Errorf("failed to read response: %w", err)}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		reason := errorReason(data)
		c.logger.Error("Upload rejected",
			"photo", key, "status", resp.StatusCode, "reason", reason)
		return nil, &UploadError{StatusCode: resp.StatusCode, Reason: reason}
	}

	result := &Result{StatusCode: resp.StatusCode}
	if len(data) > 0 {
		if err := json.Unmarshal(data, &result.Body); err != nil {
			c.logger.Debug("Upload response is not a JSON object", "photo", key, "error", err)
		}
	}
	if p, ok := result.Body["dropboxPath"].(string); ok {
		result.DropboxPath = p
	}

	c.logger.Info("Photo uploaded",
		"photo", key, "status", resp.StatusCode, "duration", time.Since(start), "dropbox", result.DropboxPath != "")

	return result, nil
}

func (c *Client) acquire(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, busy := c.inflight[key]; busy {
		return false
	}
	c.inflight[key] = struct{}{}
	return true
}

func (c *Client) release(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.inflight, key)
}

// errorReason extracts the "error" field of a failure body, if any
func errorReason(data []byte) string {
	var body struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(data, &body); err != nil {
		return ""
	}
	return strings.TrimSpace(body.Error)
}

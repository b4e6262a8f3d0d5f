// Package store keeps captured photos in a local SQLite queue until they are
// uploaded. Only capture metadata is stored; annotations live in the editor
// for the duration of one session and are never persisted here.
package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3" // registers the sqlite3 driver

	"github.com/pders01/sitephoto/internal/models"
)

var (
	// ErrNotFound is returned when no capture has the requested ID
	ErrNotFound = errors.New("capture not found")
	// ErrUploadInProgress is returned when a capture is already claimed by a
	// running upload, possibly in another process
	ErrUploadInProgress = errors.New("capture is already being uploaded")
)

// DefaultStaleAfter is how long a capture may stay "uploading" before the
// upload is presumed dead and the capture can be claimed again
const DefaultStaleAfter = time.Minute

const schema = `
CREATE TABLE IF NOT EXISTS captures (
	id             TEXT PRIMARY KEY,
	project_id     TEXT NOT NULL,
	uri            TEXT NOT NULL,
	caption        TEXT NOT NULL DEFAULT '',
	notes          TEXT NOT NULL DEFAULT '',
	tags           TEXT NOT NULL DEFAULT '[]',
	trade_category TEXT NOT NULL DEFAULT '',
	room_area      TEXT NOT NULL DEFAULT '',
	latitude       REAL,
	longitude      REAL,
	accuracy       REAL,
	taken_at       DATETIME NOT NULL,
	status         TEXT NOT NULL DEFAULT 'pending',
	error          TEXT NOT NULL DEFAULT '',
	remote_path    TEXT NOT NULL DEFAULT '',
	updated_at     DATETIME NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_captures_project ON captures(project_id);
CREATE INDEX IF NOT EXISTS idx_captures_status ON captures(status);
`

// row mirrors the captures table
type row struct {
	ID            string          `db:"id"`
	ProjectID     string          `db:"project_id"`
	URI           string          `db:"uri"`
	Caption       string          `db:"caption"`
	Notes         string          `db:"notes"`
	Tags          string          `db:"tags"`
	TradeCategory string          `db:"trade_category"`
	RoomArea      string          `db:"room_area"`
	Latitude      sql.NullFloat64 `db:"latitude"`
	Longitude     sql.NullFloat64 `db:"longitude"`
	Accuracy      sql.NullFloat64 `db:"accuracy"`
	TakenAt       time.Time       `db:"taken_at"`
	Status        string          `db:"status"`
	Error         string          `db:"error"`
	RemotePath    string          `db:"remote_path"`
	UpdatedAt     time.Time       `db:"updated_at"`
}

func toRow(p *models.CapturedPhoto) (row, error) {
	tags := p.Tags
	if tags == nil {
		tags = []string{}
	}
	tagsJSON, err := json.Marshal(tags)
	if err != nil {
		return row{}, fmt.Errorf("failed to marshal tags: %w", err)
	}

	r := row{
		ID:            p.ID,
		ProjectID:     p.ProjectID,
		URI:           p.URI,
		Caption:       p.Caption,
		Notes:         p.Notes,
		Tags:          string(tagsJSON),
		TradeCategory: p.TradeCategory,
		RoomArea:      p.RoomArea,
		TakenAt:       p.TakenAt.UTC(),
		Status:        string(p.Status),
		Error:         p.Error,
		RemotePath:    p.RemotePath,
		UpdatedAt:     p.UpdatedAt.UTC(),
	}
	if p.GPS != nil {
		r.Latitude = sql.NullFloat64{Float64: p.GPS.Latitude, Valid: true}
		r.Longitude = sql.NullFloat64{Float64: p.GPS.Longitude, Valid: true}
		if p.GPS.Accuracy != nil {
			r.Accuracy = sql.NullFloat64{Float64: *p.GPS.Accuracy, Valid: true}
		}
	}
	return r, nil
}

func (r row) photo() (models.CapturedPhoto, error) {
	p := models.CapturedPhoto{
		ID:            r.ID,
		ProjectID:     r.ProjectID,
		URI:           r.URI,
		Caption:       r.Caption,
		Notes:         r.Notes,
		TradeCategory: r.TradeCategory,
		RoomArea:      r.RoomArea,
		TakenAt:       r.TakenAt.UTC(),
		Status:        models.UploadStatus(r.Status),
		Error:         r.Error,
		RemotePath:    r.RemotePath,
		UpdatedAt:     r.UpdatedAt.UTC(),
	}
	if err := json.Unmarshal([]byte(r.Tags), &p.Tags); err != nil {
		return p, fmt.Errorf("failed to parse tags of %s: %w", r.ID, err)
	}
	if r.Latitude.Valid && r.Longitude.Valid {
		p.GPS = &models.GPS{Latitude: r.Latitude.Float64, Longitude: r.Longitude.Float64}
		if r.Accuracy.Valid {
			acc := r.Accuracy.Float64
			p.GPS.Accuracy = &acc
		}
	}
	return p, nil
}

// Store is the captured-photo queue
type Store struct {
	db         *sqlx.DB
	logger     *slog.Logger
	now        func() time.Time
	staleAfter time.Duration
}

// Option configures a Store
type Option func(*Store)

// WithStaleAfter sets how long an upload may run before its capture is reclaimable
func WithStaleAfter(d time.Duration) Option {
	return func(s *Store) {
		if d > 0 {
			s.staleAfter = d
		}
	}
}

// WithClock replaces the time source used for timestamps
func WithClock(now func() time.Time) Option { return func(s *Store) { s.now = now } }

// Open connects to the queue database at path, creating it and its schema if needed
func Open(path string, opts ...Option) (*Store, error) {
	if path == "" {
		return nil, fmt.Errorf("queue path cannot be empty")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create queue directory: %w", err)
	}

	db, err := sqlx.Connect("sqlite3", path+"?_foreign_keys=on&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open queue database: %w", err)
	}
	// sqlite serializes writers; one connection avoids SQLITE_BUSY from the batch uploader
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create queue schema: %w", err)
	}

	s := &Store{
		db:         db,
		logger:     slog.Default().With("service", "store"),
		now:        time.Now,
		staleAfter: DefaultStaleAfter,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger.Debug("Opened capture queue", "path", path)
	return s, nil
}

// Close releases the database
func (s *Store) Close() error {
	return s.db.Close()
}

// NewID returns a fresh time-ordered capture ID
func NewID() string {
	return uuid.Must(uuid.NewV7()).String()
}

// Add enqueues a captured photo. Missing ID, status and timestamps are filled in.
func (s *Store) Add(p *models.CapturedPhoto) error {
	if p.ProjectID == "" {
		return fmt.Errorf("project id cannot be empty")
	}
	if p.URI == "" {
		return fmt.Errorf("photo uri cannot be empty")
	}
	if p.GPS != nil {
		if err := p.GPS.Validate(); err != nil {
			return fmt.Errorf("invalid gps: %w", err)
		}
	}
	if p.ID == "" {
		p.ID = NewID()
	}
	if p.Status == "" {
		p.Status = models.StatusPending
	}
	if !p.Status.Valid() {
		return fmt.Errorf("invalid upload status: %s", p.Status)
	}
	now := s.now()
	if p.TakenAt.IsZero() {
		p.TakenAt = now
	}
	p.UpdatedAt = now

	r, err := toRow(p)
	if err != nil {
		return err
	}

	query := `INSERT INTO captures (id, project_id, uri, caption, notes, tags, trade_category, room_area,
	            latitude, longitude, accuracy, taken_at, status, error, remote_path, updated_at)
	          VALUES (:id, :project_id, :uri, :caption, :notes, :tags, :trade_category, :room_area,
	            :latitude, :longitude, :accuracy, :taken_at, :status, :error, :remote_path, :updated_at)`
	if _, err := s.db.NamedExec(query, r); err != nil {
		return fmt.Errorf("failed to insert capture: %w", err)
	}

	s.logger.Info("Capture queued", "id", p.ID, "project", p.ProjectID)
	return nil
}

// Get returns the capture with the given ID. IDs may be abbreviated to any
// unique prefix.
func (s *Store) Get(id string) (*models.CapturedPhoto, error) {
	if id == "" {
		return nil, ErrNotFound
	}

	var rows []row
	if err := s.db.Select(&rows, `SELECT * FROM captures WHERE id = ? OR id LIKE ? ORDER BY id LIMIT 2`,
		id, stripWildcards(id)+"%"); err != nil {
		return nil, fmt.Errorf("failed to load capture %s: %w", id, err)
	}

	switch {
	case len(rows) == 0:
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	case len(rows) > 1 && rows[0].ID != id:
		return nil, fmt.Errorf("capture id %q is ambiguous", id)
	}

	p, err := rows[0].photo()
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// Filter narrows List results. Zero values match everything.
type Filter struct {
	ProjectID string
	Status    models.UploadStatus
	Since     time.Time
	// UpdatedBefore keeps captures whose status last changed before it
	UpdatedBefore time.Time
}

// List returns matching captures, newest first
func (s *Store) List(f Filter) ([]models.CapturedPhoto, error) {
	var (
		where []string
		args  []any
	)
	if f.ProjectID != "" {
		where = append(where, "project_id = ?")
		args = append(args, f.ProjectID)
	}
	if f.Status != "" {
		where = append(where, "status = ?")
		args = append(args, string(f.Status))
	}
	if !f.Since.IsZero() {
		where = append(where, "taken_at >= ?")
		args = append(args, f.Since.UTC())
	}
	if !f.UpdatedBefore.IsZero() {
		where = append(where, "updated_at < ?")
		args = append(args, f.UpdatedBefore.UTC())
	}

	query := "SELECT * FROM captures"
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY taken_at DESC, id DESC"

	var rows []row
	if err := s.db.Select(&rows, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list captures: %w", err)
	}

	photos := make([]models.CapturedPhoto, 0, len(rows))
	for _, r := range rows {
		p, err := r.photo()
		if err != nil {
			return nil, err
		}
		photos = append(photos, p)
	}
	return photos, nil
}

// Remove discards a capture from the queue. The photo file is left alone.
func (s *Store) Remove(id string) error {
	res, err := s.db.Exec(`DELETE FROM captures WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete capture %s: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	s.logger.Info("Capture discarded", "id", id)
	return nil
}

// MarkUploading claims a capture for sending. Only pending and failed
// captures can be claimed, plus uploading ones whose upload went stale; the
// check and the update are a single statement, so concurrent processes
// sharing the queue cannot both claim the same capture.
func (s *Store) MarkUploading(id string) error {
	now := s.now().UTC()
	res, err := s.db.Exec(`UPDATE captures SET status = ?, error = '', updated_at = ?
		WHERE id = ? AND (status IN (?, ?) OR (status = ? AND updated_at < ?))`,
		models.StatusUploading, now, id,
		models.StatusPending, models.StatusFailed,
		models.StatusUploading, now.Add(-s.staleAfter))
	if err != nil {
		return fmt.Errorf("failed to update capture %s: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n > 0 {
		return nil
	}

	p, err := s.Get(id)
	if err != nil {
		return err
	}
	switch p.Status {
	case models.StatusUploaded:
		return fmt.Errorf("capture %s is already uploaded", id)
	case models.StatusUploading:
		return fmt.Errorf("%w: %s (started %s ago)", ErrUploadInProgress, id, now.Sub(p.UpdatedAt).Round(time.Second))
	}
	return fmt.Errorf("capture %s cannot be uploaded from status %s", id, p.Status)
}

// Stale returns captures left "uploading" longer than the stale window,
// typically by a process that exited mid-upload. An empty projectID matches all.
func (s *Store) Stale(projectID string) ([]models.CapturedPhoto, error) {
	return s.List(Filter{
		ProjectID:     projectID,
		Status:        models.StatusUploading,
		UpdatedBefore: s.now().Add(-s.staleAfter),
	})
}

// MarkUploaded records a successful upload and the backend's storage path, if any
func (s *Store) MarkUploaded(id, remotePath string) error {
	return s.setStatus(id, models.StatusUploaded, "", remotePath)
}

// MarkFailed records a failed upload so it can be retried later
func (s *Store) MarkFailed(id, reason string) error {
	return s.setStatus(id, models.StatusFailed, reason, "")
}

func (s *Store) setStatus(id string, status models.UploadStatus, reason, remotePath string) error {
	res, err := s.db.Exec(`UPDATE captures SET status = ?, error = ?, remote_path = ?, updated_at = ? WHERE id = ?`,
		status, reason, remotePath, s.now().UTC(), id)
	if err != nil {
		return fmt.Errorf("failed to update capture %s: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	s.logger.Debug("Capture status changed", "id", id, "status", status)
	return nil
}

// Counts returns the number of captures per upload status
func (s *Store) Counts() (map[models.UploadStatus]int, error) {
	var rows []struct {
		Status string `db:"status"`
		N      int    `db:"n"`
	}
	if err := s.db.Select(&rows, `SELECT status, COUNT(*) AS n FROM captures GROUP BY status`); err != nil {
		return nil, fmt.Errorf("failed to count captures: %w", err)
	}

	counts := make(map[models.UploadStatus]int, len(rows))
	for _, r := range rows {
		counts[models.UploadStatus(r.Status)] = r.N
	}
	return counts, nil
}

// stripWildcards drops LIKE metacharacters so a user-typed prefix matches literally
func stripWildcards(s string) string {
	return strings.NewReplacer(`%`, ``, `_`, ``).Replace(s)
}

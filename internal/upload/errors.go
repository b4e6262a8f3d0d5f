package upload

import (
	"errors"
	"fmt"
	"net"
	"net/url"
)

// GenericFailure is shown when the server gave no usable reason
const GenericFailure = "upload failed"

var (
	// ErrUploadInProgress is returned when the same photo is already being uploaded
	ErrUploadInProgress = errors.New("upload already in progress for this photo")
	// ErrTokenExpired marks a bearer token whose exp claim is in the past
	ErrTokenExpired = errors.New("auth token expired")
)

// UploadError describes a failed upload. StatusCode is zero when no
// response was received at all.
type UploadError struct {
	StatusCode int
	Reason     string
	Err        error
}

func (e *UploadError) Error() string {
	switch {
	case e.StatusCode != 0 && e.Reason != "":
		return fmt.Sprintf("upload rejected (HTTP %d): %s", e.StatusCode, e.Reason)
	case e.StatusCode != 0:
		return fmt.Sprintf("upload rejected (HTTP %d)", e.StatusCode)
	case e.Err != nil:
		return fmt.Sprintf("upload failed: %v", e.Err)
	default:
		return GenericFailure
	}
}

func (e *UploadError) Unwrap() error {
	return e.Err
}

// Network reports whether the request never got a response
func (e *UploadError) Network() bool {
	return e.StatusCode == 0
}

// UserMessage collapses any upload failure into the single message shown to
// the user: the server's reason when it sent one, a generic one otherwise.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	if errors.Is(err, ErrUploadInProgress) {
		return "This photo is already being saved"
	}

	reason := GenericFailure
	var ue *UploadError
	if errors.As(err, &ue) && ue.Reason != "" {
		reason = ue.Reason
	}
	return "Could not save photo: " + reason
}

// networkError wraps transport failures with a short description of what went wrong
func networkError(err error) error {
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return fmt.Errorf("request timed out: %w", err)
	}
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		var dnsErr *net.DNSError
		if errors.As(urlErr.Err, &dnsErr) {
			return fmt.Errorf("DNS resolution failed: %w", err)
		}
	}
	return fmt.Errorf("network error: %w", err)
}

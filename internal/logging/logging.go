// Package logging configures the process-wide slog logger.
package logging

import (
	"io"
	"log/slog"
	"regexp"
	"strings"
)

// Config selects the log handler
type Config struct {
	Level string
	JSON  bool
}

var bearerPattern = regexp.MustCompile(`(?i)(bearer\s+)([A-Za-z0-9\-._~+/]+=*)`)

var sensitiveKeys = []string{"token", "authorization", "password", "secret"}

// ParseLevel maps a level name to a slog level; unknown names mean info
func ParseLevel(name string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// New builds a logger writing to w. Attributes that look like credentials are redacted.
func New(w io.Writer, cfg Config) *slog.Logger {
	opts := &slog.HandlerOptions{
		Level:       ParseLevel(cfg.Level),
		ReplaceAttr: redact,
	}

	var handler slog.Handler
	if cfg.JSON {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}
	return slog.New(handler)
}

// Setup installs a logger built from cfg as the slog default
func Setup(w io.Writer, cfg Config) *slog.Logger {
	l := New(w, cfg)
	slog.SetDefault(l)
	return l
}

func redact(_ []string, a slog.Attr) slog.Attr {
	key := strings.ToLower(a.Key)
	for _, s := range sensitiveKeys {
		if strings.Contains(key, s) {
			return slog.String(a.Key, "[REDACTED]")
		}
	}
	if a.Value.Kind() == slog.KindString {
		if v := a.Value.String(); bearerPattern.MatchString(v) {
			return slog.String(a.Key, bearerPattern.ReplaceAllString(v, "${1}[REDACTED]"))
		}
	}
	return a
}

package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pders01/sitephoto/internal/editor"
	"github.com/pders01/sitephoto/internal/models"
	"github.com/pders01/sitephoto/internal/upload"
	"github.com/spf13/viper"
)

// DefaultTrades is the trade vocabulary offered when none is configured
var DefaultTrades = []string{
	"Electrical", "Plumbing", "HVAC", "Framing", "Drywall", "Roofing", "Flooring", "General",
}

// Dir returns the directory holding the config file and the queue database
func Dir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to find home directory: %w", err)
	}
	return filepath.Join(home, ".config", "sitephoto"), nil
}

// SetDefaults registers the default value of every key
func SetDefaults() {
	viper.SetDefault("server.url", upload.DefaultURL)
	viper.SetDefault("auth.token", "")
	viper.SetDefault("upload.variant", string(upload.VariantMobile))
	viper.SetDefault("upload.update_id", "")
	viper.SetDefault("upload.timeout", upload.DefaultTimeout.String())
	viper.SetDefault("upload.concurrency", 2)
	viper.SetDefault("editor.toolset", toolNames(editor.AllTools))
	viper.SetDefault("editor.auto_deselect", toolNames(editor.DefaultPolicy().AutoDeselect))
	viper.SetDefault("editor.palette", []string(models.DefaultPalette))
	viper.SetDefault("trades", DefaultTrades)
	viper.SetDefault("log.level", "info")
	viper.SetDefault("log.json", false)

	if dir, err := Dir(); err == nil {
		viper.SetDefault("queue.path", filepath.Join(dir, "queue.db"))
	}
}

// GetServerURL returns the photo API base URL
func GetServerURL() string {
	return viper.GetString("server.url")
}

// GetAuthToken returns the bearer token sent with uploads
func GetAuthToken() string {
	return viper.GetString("auth.token")
}

// GetUploadVariant returns which endpoint photos are sent to
func GetUploadVariant() upload.Variant {
	return upload.Variant(viper.GetString("upload.variant"))
}

// GetUpdateID returns the project update survey photos are attached to
func GetUpdateID() string {
	return viper.GetString("upload.update_id")
}

// GetUploadTimeout returns the per-upload timeout
func GetUploadTimeout() time.Duration {
	d := viper.GetDuration("upload.timeout")
	if d <= 0 {
		return upload.DefaultTimeout
	}
	return d
}

// GetUploadConcurrency returns how many photos a batch upload sends at once
func GetUploadConcurrency() int {
	n := viper.GetInt("upload.concurrency")
	if n < 1 {
		return 1
	}
	return n
}

// GetQueuePath returns the location of the capture queue database
func GetQueuePath() string {
	return viper.GetString("queue.path")
}

// GetPalette returns the configured annotation palette
func GetPalette() (models.Palette, error) {
	colors := viper.GetStringSlice("editor.palette")
	if len(colors) == 0 {
		return models.DefaultPalette, nil
	}
	p := models.Palette(colors)
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return p, nil
}

// GetEditorPolicy builds the tool policy from editor.toolset and editor.auto_deselect
func GetEditorPolicy() (editor.Policy, error) {
	toolset, err := parseTools(viper.GetStringSlice("editor.toolset"))
	if err != nil {
		return editor.Policy{}, fmt.Errorf("editor.toolset: %w", err)
	}
	if len(toolset) == 0 {
		toolset = append([]editor.Tool(nil), editor.AllTools...)
	}
	deselect, err := parseTools(viper.GetStringSlice("editor.auto_deselect"))
	if err != nil {
		return editor.Policy{}, fmt.Errorf("editor.auto_deselect: %w", err)
	}

	p := editor.Policy{Toolset: toolset, AutoDeselect: deselect}
	if err := p.Validate(); err != nil {
		return editor.Policy{}, err
	}
	return p, nil
}

// GetTrades returns the trade categories photos may be filed under
func GetTrades() []string {
	trades := viper.GetStringSlice("trades")
	if len(trades) == 0 {
		return DefaultTrades
	}
	return trades
}

// NormalizeTrade matches name against the trade vocabulary, ignoring case.
// An empty name is allowed and stays empty.
func NormalizeTrade(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", nil
	}
	trades := GetTrades()
	for _, t := range trades {
		if strings.EqualFold(t, name) {
			return t, nil
		}
	}
	return "", fmt.Errorf("unknown trade: %s (must be one of: %s)", name, strings.Join(trades, ", "))
}

// GetLogLevel returns the configured log level name
func GetLogLevel() string {
	return viper.GetString("log.level")
}

// GetLogJSON reports whether logs are written as JSON
func GetLogJSON() bool {
	return viper.GetBool("log.json")
}

func parseTools(names []string) ([]editor.Tool, error) {
	tools := make([]editor.Tool, 0, len(names))
	for _, name := range names {
		t, err := editor.ParseTool(name)
		if err != nil {
			return nil, err
		}
		if t == editor.ToolNone {
			continue
		}
		tools = append(tools, t)
	}
	return tools, nil
}

func toolNames(tools []editor.Tool) []string {
	names := make([]string, len(tools))
	for i, t := range tools {
		names[i] = string(t)
	}
	return names
}

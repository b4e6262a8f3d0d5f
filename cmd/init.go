package cmd

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/pders01/sitephoto/internal/config"
	"github.com/pders01/sitephoto/internal/upload"
	"github.com/spf13/cobra"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create the configuration and the upload queue",
	Long: `Set up sitephoto for this user.

This command:
  - Creates a default config file if it doesn't exist
  - Creates the local upload queue database

Edit the config afterwards to set server.url and auth.token.`,
	Args: cobra.NoArgs,
	RunE: runInit,
}

func init() {
	rootCmd.AddCommand(initCmd)
}

const defaultConfig = `[server]
url = %q

[auth]
token = ""

[upload]
variant = "mobile"   # mobile | survey
update_id = ""       # required for survey uploads
timeout = "60s"
concurrency = 2

[editor]
toolset = ["marker", "arrow", "circle", "text", "measurement"]
auto_deselect = ["arrow", "measurement"]
palette = ["#FF3B30", "#FF9500", "#FFCC00", "#34C759", "#007AFF", "#AF52DE", "#FFFFFF", "#000000"]

[log]
level = "info"
json = false
`

func runInit(cmd *cobra.Command, args []string) error {
	configDir, err := config.Dir()
	if err != nil {
		return err
	}
	configPath := filepath.Join(configDir, "config.toml")

	if _, err := os.Stat(configPath); errors.Is(err, os.ErrNotExist) {
		if err := os.MkdirAll(configDir, 0755); err != nil {
			return fmt.Errorf("failed to create config directory: %w", err)
		}
		// the token ends up in here
		if err := os.WriteFile(configPath, []byte(fmt.Sprintf(defaultConfig, upload.DefaultURL)), 0600); err != nil {
			return fmt.Errorf("failed to create config file: %w", err)
		}
		fmt.Printf("✓ Created default config: %s\n", configPath)
	} else if err != nil {
		return fmt.Errorf("failed to check config file: %w", err)
	} else {
		fmt.Printf("Config already exists: %s\n", configPath)
	}

	queue, err := openQueue()
	if err != nil {
		return err
	}
	defer queue.Close()

	fmt.Printf("✓ Upload queue ready: %s\n", config.GetQueuePath())
	fmt.Println("\n✓ sitephoto initialized successfully!")
	fmt.Println("  You can now use: sitephoto capture <photo> --project <id>")

	return nil
}

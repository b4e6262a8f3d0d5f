package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/pders01/sitephoto/internal/config"
	"github.com/pders01/sitephoto/internal/logging"
	"github.com/pders01/sitephoto/internal/store"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	cfgFile string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "sitephoto",
	Short: "Capture, annotate and upload construction site photos",
	Long: `sitephoto keeps a local queue of photos taken on site and sends them,
with their annotations, tags and capture metadata, to the project photo API.

Photos are captured into the queue, annotated by replaying a gesture script
(the same tool and tap events the touch editor produces), and uploaded.
Failed uploads stay queued so they can be retried.`,
	SilenceUsage: true,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.config/sitephoto/config.toml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		configDir, err := config.Dir()
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}

		viper.AddConfigPath(configDir)
		viper.SetConfigType("toml")
		viper.SetConfigName("config")
	}

	viper.SetEnvPrefix("SITEPHOTO")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	config.SetDefaults()

	configErr := viper.ReadInConfig()

	level := config.GetLogLevel()
	if verbose {
		level = "debug"
	}
	logging.Setup(os.Stderr, logging.Config{Level: level, JSON: config.GetLogJSON()})

	if configErr == nil {
		slog.Debug("Using config file", "path", viper.ConfigFileUsed())
	} else if cfgFile != "" {
		fmt.Fprintf(os.Stderr, "Warning: failed to read config %s: %v\n", cfgFile, configErr)
	}
}

// openQueue opens the capture queue configured in queue.path
func openQueue() (*store.Store, error) {
	path := config.GetQueuePath()
	if path == "" {
		return nil, fmt.Errorf("queue.path is not configured (run: sitephoto init)")
	}
	// an upload still marked running after its timeout has expired belongs to a dead process
	s, err := store.Open(filepath.Clean(path), store.WithStaleAfter(config.GetUploadTimeout()))
	if err != nil {
		return nil, err
	}
	return s, nil
}

// commandContext returns the command's context; tests call run functions with a nil command
func commandContext(cmd *cobra.Command) context.Context {
	if cmd != nil && cmd.Context() != nil {
		return cmd.Context()
	}
	return context.Background()
}

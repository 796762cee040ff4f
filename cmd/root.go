package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/kozaktomas/lora-person/internal/config"
)

var (
	captureDir string
	apiURL     string
	logger     = slog.Default()
)

var rootCmd = &cobra.Command{
	Use:   "lora-person",
	Short: "Upload training photos of a person and start LoRA preprocessing",
	Long: `lora-person talks to the LoRA training backend. It creates person profiles,
uploads photos through presigned storage URLs, shows the processing status of
uploaded photos and starts preprocessing runs once enough photos are uploaded.

It can also run an operator console (lora-person serve) exposing the same
operations over HTTP.`,
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
	rootCmd.PersistentFlags().StringVar(&captureDir, "capture", "", "Directory to save API responses for testing")
	rootCmd.PersistentFlags().StringVar(&apiURL, "api-url", "", "Backend base URL (overrides LORA_API_URL)")
}

func initConfig() {
	// .env file is optional, don't fail if not found
	_ = godotenv.Load()

	logger = newLogger(config.Load().Log)
	slog.SetDefault(logger)
}

// newLogger builds the process logger. Logs go to stderr so command output
// on stdout stays clean.
func newLogger(cfg config.LogConfig) *slog.Logger {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn", "warning":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}
	if cfg.Format == "json" {
		return slog.New(slog.NewJSONHandler(os.Stderr, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stderr, opts))
}

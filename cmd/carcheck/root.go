package main

import (
	"io"
	"log"
	"os"

	"github.com/nvr-ai/carcheck/config"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "carcheck",
	Short: "Car damage dataset tooling and inspection",
	Long: `carcheck consolidates YOLO-format damage datasets into one training set and
runs the part, damage and dirt models over car photos, from the command line or
as an HTTP API.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

var (
	configPath string
	quiet      bool
)

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "YAML job file")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "Suppress log output and progress bars")
}

// loadConfig reads the job file, or returns the defaults when none is given.
func loadConfig() (*config.Config, error) {
	if configPath == "" {
		cfg := config.Default()
		cfg.Inspect.ApplyDefaults()
		return &cfg, nil
	}
	return config.Load(configPath)
}

// newLogger returns the stderr logger shared by a command, or a discarding one
// under --quiet.
func newLogger() *log.Logger {
	if quiet {
		return log.New(io.Discard, "", 0)
	}
	return log.New(os.Stderr, "", log.LstdFlags)
}

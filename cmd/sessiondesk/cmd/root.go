// Package cmd provides the CLI commands for sessiondesk.
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/session-desk/sessiondesk/internal/config"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "sessiondesk",
	Short: "SessionDesk - session lifecycle admin service",
	Long: `SessionDesk is the backend for a session administration console.

It exposes a JSON API for creating, inspecting, and transitioning
sessions, with bearer-token authentication, per-operation rate limiting,
idempotent creation, and recoverable deletion.

Quick start:
  1. Create a config file: sessiondesk.yaml
  2. Run: sessiondesk start

Configuration:
  Config is loaded from sessiondesk.yaml in the current directory,
  $HOME/.sessiondesk/, or /etc/sessiondesk/.

  Environment variables can override config values with the SESSIONDESK_ prefix.
  Example: SESSIONDESK_SERVER_HTTP_ADDR=:9090

Commands:
  start       Start the API server
  config      Manage configuration (init)
  hash-key    Hash an API key for use in config
  version     Print version information`,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ./sessiondesk.yaml)")
}

func initConfig() {
	config.InitViper(cfgFile)
}

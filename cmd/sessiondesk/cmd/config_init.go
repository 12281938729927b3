package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/session-desk/sessiondesk/internal/config"
)

var configInitForce bool

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration",
}

var configInitCmd = &cobra.Command{
	Use:   "init [path]",
	Short: "Write a starter config file",
	Long: `Write a starter sessiondesk.yaml with the default settings.

The generated file has no API keys; add one with:
  sessiondesk hash-key "my-secret-api-key"

Example:
  sessiondesk config init
  sessiondesk config init /etc/sessiondesk/sessiondesk.yaml`,
	Args: cobra.MaximumNArgs(1),
	RunE: runConfigInit,
}

func init() {
	configInitCmd.Flags().BoolVar(&configInitForce, "force", false, "overwrite an existing file")
	configCmd.AddCommand(configInitCmd)
	rootCmd.AddCommand(configCmd)
}

// starterConfig mirrors config.Config with string durations so the
// generated YAML reads "24h" instead of nanosecond integers.
type starterConfig struct {
	Server struct {
		HTTPAddr string `yaml:"http_addr"`
		LogLevel string `yaml:"log_level"`
	} `yaml:"server"`
	Store struct {
		Backend        string `yaml:"backend"`
		Path           string `yaml:"path"`
		DeletedTTL     string `yaml:"deleted_ttl"`
		IdempotencyTTL string `yaml:"idempotency_ttl"`
	} `yaml:"store"`
	Auth struct {
		Mode string `yaml:"mode"`
		Keys []struct {
			Subject string `yaml:"subject"`
			KeyHash string `yaml:"key_hash"`
		} `yaml:"keys"`
	} `yaml:"auth"`
	RateLimit struct {
		Enabled      bool   `yaml:"enabled"`
		Window       string `yaml:"window"`
		Create       int    `yaml:"create"`
		Update       int    `yaml:"update"`
		UpdateStatus int    `yaml:"update_status"`
		Complete     int    `yaml:"complete"`
		Fail         int    `yaml:"fail"`
		Delete       int    `yaml:"delete"`
	} `yaml:"rate_limit"`
	CORS struct {
		AllowedOrigins []string `yaml:"allowed_origins"`
	} `yaml:"cors"`
}

func runConfigInit(cmd *cobra.Command, args []string) error {
	path := "sessiondesk.yaml"
	if len(args) == 1 {
		path = args[0]
	}

	if !configInitForce {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("%s already exists (use --force to overwrite)", path)
		}
	}

	var sc starterConfig
	sc.Server.HTTPAddr = config.DefaultHTTPAddr
	sc.Server.LogLevel = config.DefaultLogLevel
	sc.Store.Backend = config.DefaultStoreBackend
	sc.Store.Path = config.DefaultStorePath
	sc.Store.DeletedTTL = config.DefaultTTL.String()
	sc.Store.IdempotencyTTL = config.DefaultTTL.String()
	sc.Auth.Mode = "static"
	sc.RateLimit.Enabled = true
	sc.RateLimit.Window = config.DefaultWindow.String()
	sc.RateLimit.Create = config.DefaultCreateMax
	sc.RateLimit.Update = config.DefaultUpdateMax
	sc.RateLimit.UpdateStatus = config.DefaultUpdateStatusMax
	sc.RateLimit.Complete = config.DefaultCompleteMax
	sc.RateLimit.Fail = config.DefaultFailMax
	sc.RateLimit.Delete = config.DefaultDeleteMax

	data, err := yaml.Marshal(&sc)
	if err != nil {
		return fmt.Errorf("failed to render config: %w", err)
	}

	header := []byte("# sessiondesk configuration\n# Add API keys under auth.keys; generate hashes with: sessiondesk hash-key <key>\n")
	if err := os.WriteFile(path, append(header, data...), 0600); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}

	fmt.Printf("wrote %s\n", path)
	return nil
}

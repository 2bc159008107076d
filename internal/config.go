package internal

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	DefaultBaseURL          = "https://tesourogerencial.tesouro.gov.br/"
	DefaultProject          = "TESOURO%20GERENCIAL%20-%20DES"
	DefaultTimeout          = 2 * time.Minute
	DefaultDocstoreDatabase = "tesouro_gerencial"
)

// Config holds the process-wide settings. It is built once by LoadConfig
// and handed to the components that need it.
type Config struct {
	BaseURL          string        `mapstructure:"base_url"`
	Project          string        `mapstructure:"project"`
	Timeout          time.Duration `mapstructure:"timeout"`
	VerifyTLS        bool          `mapstructure:"verify_tls"`
	CredentialsFile  string        `mapstructure:"credentials_file"`
	LogLevel         string        `mapstructure:"log_level"`
	DocstoreURI      string        `mapstructure:"docstore_uri"`
	DocstoreDatabase string        `mapstructure:"docstore_database"`
}

// DefaultConfig returns the settings used when nothing is configured.
// Certificate verification stays off, as the portal has historically
// served a chain that does not validate.
func DefaultConfig() Config {
	return Config{
		BaseURL:          DefaultBaseURL,
		Project:          DefaultProject,
		Timeout:          DefaultTimeout,
		VerifyTLS:        false,
		CredentialsFile:  defaultCredentialsFile(),
		LogLevel:         "info",
		DocstoreDatabase: DefaultDocstoreDatabase,
	}
}

func defaultCredentialsFile() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "accounts.yaml"
	}
	return filepath.Join(dir, "tesouro-gerencial", "accounts.yaml")
}

// LoadConfig reads configuration from an optional YAML file and TG_*
// environment variables. Environment variables take precedence over the file.
func LoadConfig(path string) (*Config, error) {
	v := viper.New()

	defaults := DefaultConfig()
	v.SetDefault("base_url", defaults.BaseURL)
	v.SetDefault("project", defaults.Project)
	v.SetDefault("timeout", defaults.Timeout)
	v.SetDefault("verify_tls", defaults.VerifyTLS)
	v.SetDefault("credentials_file", defaults.CredentialsFile)
	v.SetDefault("log_level", defaults.LogLevel)
	v.SetDefault("docstore_uri", defaults.DocstoreURI)
	v.SetDefault("docstore_database", defaults.DocstoreDatabase)

	v.SetEnvPrefix("TG")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("could not read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("could not unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the fields that have no usable zero value
func (c *Config) Validate() error {
	if c.BaseURL == "" {
		return fmt.Errorf("missing required config field: base_url")
	}
	if c.Timeout < 0 {
		return fmt.Errorf("invalid timeout: %s", c.Timeout)
	}
	if _, err := ParseLogLevel(c.LogLevel); err != nil {
		return err
	}
	return nil
}

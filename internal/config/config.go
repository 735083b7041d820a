package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Config holds application configuration
type Config struct {
	// Server settings
	Host string
	Port string

	// Database settings
	DBPath string

	// Mail folder settings
	MailDir string

	// Indexer settings
	Workers int

	// Logging settings
	LogLevel string
}

// Load reads configuration from an optional config file and MAILROOM_*
// environment variables, falling back to defaults.
func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("/etc/mailroom/")
	v.AddConfigPath("$HOME/.mailroom")
	v.AddConfigPath(".")

	setDefaults(v)

	v.AutomaticEnv()
	v.SetEnvPrefix("MAILROOM")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// Config file not found, using defaults
	}

	return &Config{
		Host:     v.GetString("server.host"),
		Port:     v.GetString("server.port"),
		DBPath:   v.GetString("db.path"),
		MailDir:  v.GetString("mail.dir"),
		Workers:  v.GetInt("indexer.workers"),
		LogLevel: v.GetString("logging.level"),
	}, nil
}

// Default returns the default configuration without touching the
// environment or any config file.
func Default() *Config {
	v := viper.New()
	setDefaults(v)
	return &Config{
		Host:     v.GetString("server.host"),
		Port:     v.GetString("server.port"),
		DBPath:   v.GetString("db.path"),
		MailDir:  v.GetString("mail.dir"),
		Workers:  v.GetInt("indexer.workers"),
		LogLevel: v.GetString("logging.level"),
	}
}

func setDefaults(v *viper.Viper) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		homeDir = "."
	}
	dataDir := filepath.Join(homeDir, ".mailroom")

	v.SetDefault("server.host", "localhost")
	v.SetDefault("server.port", "8080")
	v.SetDefault("db.path", filepath.Join(dataDir, "mailroom.db"))
	v.SetDefault("mail.dir", "./mail")
	v.SetDefault("indexer.workers", 4)
	v.SetDefault("logging.level", "info")
}

// Address returns the full server address
func (c *Config) Address() string {
	return c.Host + ":" + c.Port
}

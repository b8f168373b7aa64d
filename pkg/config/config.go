package config

import (
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/mitchellh/go-homedir"
	"gopkg.in/yaml.v3"
)

// Config represents the listener configuration
type Config struct {
	// Host to bind; empty listens on all interfaces
	Host string `yaml:"host"`

	// Port to bind (0 picks an ephemeral port)
	Port int `yaml:"port"`

	// ServerName is reported in the message field of every response
	ServerName string `yaml:"server_name"`

	// LogLevel: debug, info, warn, error
	LogLevel string `yaml:"log_level"`

	// LogFormat: text or json
	LogFormat string `yaml:"log_format"`

	// ReadTimeout bounds how long a handler waits for the request line
	ReadTimeout time.Duration `yaml:"read_timeout"`

	// WriteTimeout bounds writing the response
	WriteTimeout time.Duration `yaml:"write_timeout"`

	// MaxConnections caps concurrent handlers; 0 means unbounded
	MaxConnections int `yaml:"max_connections"`

	// LegacyContentLength declares the fixed Content-Length older
	// listeners sent instead of the real body length
	LegacyContentLength bool `yaml:"legacy_content_length"`

	// PIDFile is written on start when set
	PIDFile string `yaml:"pid_file,omitempty"`
}

const (
	DefaultPort           = 3002
	DefaultServerName     = "Smokeport"
	DefaultReadTimeout    = 30 * time.Second
	DefaultWriteTimeout   = 10 * time.Second
	DefaultMaxConnections = 1024
)

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		Host:           "",
		Port:           DefaultPort,
		ServerName:     DefaultServerName,
		LogLevel:       "info",
		LogFormat:      "text",
		ReadTimeout:    DefaultReadTimeout,
		WriteTimeout:   DefaultWriteTimeout,
		MaxConnections: DefaultMaxConnections,
	}
}

// DefaultPath returns ~/.config/smokeport/config.yaml
func DefaultPath() (string, error) {
	home, err := homedir.Dir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, ".config", "smokeport", "config.yaml"), nil
}

// Load loads configuration from file
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path == "" {
		p, err := DefaultPath()
		if err != nil {
			return nil, err
		}
		path = p
	} else {
		expanded, err := homedir.Expand(path)
		if err != nil {
			return nil, fmt.Errorf("failed to expand config path: %w", err)
		}
		path = expanded
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			// File doesn't exist, use defaults
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return cfg, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Port < 0 || c.Port > 65535 {
		return fmt.Errorf("invalid port: %d (must be 0-65535)", c.Port)
	}

	if c.ServerName == "" {
		return fmt.Errorf("invalid server name: must not be empty")
	}

	switch c.LogLevel {
	case "debug", "info", "warn", "error":
		// Valid
	default:
		return fmt.Errorf("invalid log level: %s", c.LogLevel)
	}

	switch c.LogFormat {
	case "text", "json":
		// Valid
	default:
		return fmt.Errorf("invalid log format: %s (must be 'text' or 'json')", c.LogFormat)
	}

	if c.ReadTimeout < 0 {
		return fmt.Errorf("invalid read timeout: %s", c.ReadTimeout)
	}
	if c.WriteTimeout < 0 {
		return fmt.Errorf("invalid write timeout: %s", c.WriteTimeout)
	}
	if c.MaxConnections < 0 {
		return fmt.Errorf("invalid max connections: %d", c.MaxConnections)
	}

	if c.PIDFile != "" {
		expanded, err := homedir.Expand(c.PIDFile)
		if err != nil {
			return fmt.Errorf("failed to expand pid file: %w", err)
		}
		c.PIDFile = expanded
	}

	return nil
}

// Address returns host:port suitable for net.Listen
func (c *Config) Address() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// TestURL returns the URL a browser can use to reach the listener
func (c *Config) TestURL() string {
	host := c.Host
	if host == "" || host == "0.0.0.0" || host == "::" {
		host = "localhost"
	}
	return "http://" + net.JoinHostPort(host, strconv.Itoa(c.Port)) + "/health"
}

package shared

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
)

//go:embed config.example.toml
var exampleConf []byte

// ConfigFileName is the file looked up in the user config directory.
const ConfigFileName = "knuckles.toml"

// Config represents the application configuration loaded from a TOML file.
type Config struct {
	Client   ClientConfig   `toml:"client"`
	Stream   StreamConfig   `toml:"stream"`
	Database DatabaseConfig `toml:"database"`
	Server   ServerConfig   `toml:"server"`
}

// ClientConfig holds the Subsonic server address and credentials.
//
// Exactly one of Password or Token should be set. A token is preferred when both are present.
type ClientConfig struct {
	URL       string       `toml:"url"`
	Username  string       `toml:"username"`
	Password  string       `toml:"password"`
	Token     *TokenConfig `toml:"token"`
	RateLimit float64      `toml:"rate_limit"`
	Timeout   int          `toml:"timeout"`
}

// TokenConfig is a precomputed md5(password + salt) pair.
type TokenConfig struct {
	Hash string `toml:"hash"`
	Salt string `toml:"salt"`
}

// StreamConfig tunes how songs are pulled from the server.
type StreamConfig struct {
	ChunkSize  int    `toml:"chunk_size"`
	Workers    int    `toml:"workers"`
	Format     string `toml:"format"`
	MaxBitRate int    `toml:"max_bit_rate"`
}

// DatabaseConfig contains database connection settings.
type DatabaseConfig struct {
	Path         string `toml:"path"`
	MaxOpenConns int    `toml:"max_open_conns"`
	MaxIdleConns int    `toml:"max_idle_conns"`
}

// ServerConfig contains HTTP relay settings.
type ServerConfig struct {
	Host string `toml:"host"`
	Port int    `toml:"port"`
}

// Addr returns host:port for [net/http.Server].
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// RequestTimeout converts the configured timeout to a [time.Duration]. Zero means no timeout.
func (c ClientConfig) RequestTimeout() time.Duration {
	if c.Timeout <= 0 {
		return 0
	}
	return time.Duration(c.Timeout) * time.Second
}

// Validate reports whether the client section can be used to talk to a server.
func (c *Config) Validate() error {
	if c.Client.URL == "" {
		return fmt.Errorf("%w: client.url is required", ErrInvalidConfig)
	}
	if c.Client.Username == "" {
		return fmt.Errorf("%w: client.username is required", ErrInvalidConfig)
	}
	if c.Stream.ChunkSize < 0 || c.Stream.Workers < 0 {
		return fmt.Errorf("%w: stream settings must not be negative", ErrInvalidConfig)
	}
	if c.Client.Token != nil {
		if c.Client.Token.Hash == "" || c.Client.Token.Salt == "" {
			return fmt.Errorf("%w: client.token needs both hash and salt", ErrMissingCredentials)
		}
		return nil
	}
	if c.Client.Password == "" {
		return fmt.Errorf("%w: set client.password or client.token", ErrMissingCredentials)
	}
	return nil
}

// DefaultPath returns <user config dir>/knuckles.toml.
func DefaultPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrMissingConfig, err)
	}
	return filepath.Join(dir, ConfigFileName), nil
}

// LoadConfig reads and parses a TOML configuration file from the specified path.
//
// Keys missing from the file keep the values of [DefaultConfig], except credentials which start empty.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrMissingConfig, path)
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	config.Client = ClientConfig{RateLimit: config.Client.RateLimit, Timeout: config.Client.Timeout}
	if err := toml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("%w: failed to parse config: %v", ErrInvalidConfig, err)
	}

	return config, nil
}

// DefaultConfig returns a Config with sensible defaults loaded from the embedded example config.
func DefaultConfig() *Config {
	var config Config
	if err := toml.Unmarshal(exampleConf, &config); err != nil {
		panic(fmt.Sprintf("failed to parse embedded default config: %v", err))
	}
	return &config
}

// CreateConfigFile writes the embedded example config to path, creating parent directories.
func CreateConfigFile(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := os.WriteFile(path, exampleConf, 0o600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

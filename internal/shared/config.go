package shared

import (
	_ "embed"
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/charmbracelet/log"
)

//go:embed config.example.toml
var exampleConf []byte

// Config represents the application configuration loaded from a TOML file.
type Config struct {
	Server     ServerConfig     `toml:"server"`
	API        APIConfig        `toml:"api"`
	WebSocket  WebSocketConfig  `toml:"websocket"`
	Navigation NavigationConfig `toml:"navigation"`
	Database   DatabaseConfig   `toml:"database"`
	Log        LogConfig        `toml:"log"`
	Mock       MockConfig       `toml:"mock"`
}

// ServerConfig locates the myMPD instance.
type ServerConfig struct {
	URL       string `toml:"url"`
	Partition string `toml:"partition"`
	PIN       string `toml:"pin"`
}

// APIConfig contains request/response channel settings.
type APIConfig struct {
	Path      string  `toml:"path"`
	RateLimit float64 `toml:"rate_limit"`
	Burst     int     `toml:"burst"`
	TimeoutMS int     `toml:"timeout_ms"`
	PageSize  int     `toml:"page_size"`
}

// Timeout returns the per-request timeout.
func (c APIConfig) Timeout() time.Duration { return ms(c.TimeoutMS) }

// WebSocketConfig contains push channel settings.
//
// ConnectRetries bounds how often Connect may be called while a dial is outstanding before the
// socket is forced closed and a retry is scheduled after RetryDelayMS.
type WebSocketConfig struct {
	Path             string `toml:"path"`
	ReconnectDelayMS int    `toml:"reconnect_delay_ms"`
	ConnectRetries   int    `toml:"connect_retries"`
	RetryDelayMS     int    `toml:"retry_delay_ms"`
	KeepaliveMS      int    `toml:"keepalive_ms"`
	MaxMessageBytes  int    `toml:"max_message_bytes"`
}

func (c WebSocketConfig) ReconnectDelay() time.Duration { return ms(c.ReconnectDelayMS) }
func (c WebSocketConfig) RetryDelay() time.Duration     { return ms(c.RetryDelayMS) }
func (c WebSocketConfig) Keepalive() time.Duration      { return ms(c.KeepaliveMS) }

// NavigationConfig contains router settings.
type NavigationConfig struct {
	DefaultScreen string `toml:"default_screen"`
	StartupWaitMS int    `toml:"startup_wait_ms"`
}

func (c NavigationConfig) StartupWait() time.Duration { return ms(c.StartupWaitMS) }

// DatabaseConfig contains database connection settings.
type DatabaseConfig struct {
	Path         string `toml:"path"`
	MaxOpenConns int    `toml:"max_open_conns"`
	MaxIdleConns int    `toml:"max_idle_conns"`
}

// LogConfig contains logger settings.
type LogConfig struct {
	Level string `toml:"level"`
	File  string `toml:"file"`
}

// ParsedLevel returns the configured [log.Level], defaulting to info.
func (c LogConfig) ParsedLevel() log.Level {
	if c.Level == "" {
		return log.InfoLevel
	}
	lvl, err := log.ParseLevel(c.Level)
	if err != nil {
		return log.InfoLevel
	}
	return lvl
}

// MockConfig contains settings for the development backend.
type MockConfig struct {
	Host string `toml:"host"`
	Port int    `toml:"port"`
}

// Addr returns host:port for [http.Server].
func (c MockConfig) Addr() string { return fmt.Sprintf("%s:%d", c.Host, c.Port) }

func ms(v int) time.Duration { return time.Duration(v) * time.Millisecond }

// LoadConfig reads and parses a TOML configuration file from the specified path.
//
// Values absent from the file keep the embedded defaults.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := toml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
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

// CreateConfigFile creates a config.toml file at the specified path using the embedded example config.
func CreateConfigFile(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}

	if err := os.WriteFile(path, exampleConf, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// LoadOrDefault loads path when it exists and falls back to [DefaultConfig] otherwise.
func LoadOrDefault(path string) (*Config, error) {
	if _, err := os.Stat(path); err != nil {
		return DefaultConfig(), nil
	}
	return LoadConfig(path)
}

// Validate checks the fields the client cannot run without.
func (c *Config) Validate() error {
	u, err := url.Parse(c.Server.URL)
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return fmt.Errorf("%w: server.url must be an http(s) URL, got %q", ErrInvalidConfig, c.Server.URL)
	}

	if !strings.HasPrefix(c.API.Path, "/") {
		return fmt.Errorf("%w: api.path must start with /", ErrInvalidConfig)
	}
	if !strings.HasPrefix(c.WebSocket.Path, "/") {
		return fmt.Errorf("%w: websocket.path must start with /", ErrInvalidConfig)
	}

	for name, v := range map[string]int{
		"websocket.reconnect_delay_ms": c.WebSocket.ReconnectDelayMS,
		"websocket.retry_delay_ms":     c.WebSocket.RetryDelayMS,
		"websocket.keepalive_ms":       c.WebSocket.KeepaliveMS,
		"websocket.connect_retries":    c.WebSocket.ConnectRetries,
		"navigation.startup_wait_ms":   c.Navigation.StartupWaitMS,
	} {
		if v <= 0 {
			return fmt.Errorf("%w: %s must be positive", ErrInvalidConfig, name)
		}
	}

	if c.Log.Level != "" {
		if _, err := log.ParseLevel(c.Log.Level); err != nil {
			return fmt.Errorf("%w: log.level %q", ErrInvalidConfig, c.Log.Level)
		}
	}
	return nil
}

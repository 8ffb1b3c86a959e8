package config

import (
	"fmt"
	"os"
	"time"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"
)

// Config represents the complete application configuration. Precedence,
// lowest to highest: built-in defaults, the optional YAML file, CURVEPULSE_*
// environment variables. Components receive the sub-config they need by
// value; nothing reads process-wide state after startup.
type Config struct {
	Server    ServerConfig    `yaml:"server" envconfig:"SERVER"`
	Security  SecurityConfig  `yaml:"security" envconfig:"SECURITY"`
	Logging   LoggingConfig   `yaml:"logging" envconfig:"LOGGING"`
	Curve     CurveConfig     `yaml:"curve" envconfig:"CURVE"`
	WebSocket WebSocketConfig `yaml:"websocket" envconfig:"WEBSOCKET"`
}

// ServerConfig contains HTTP server configuration
type ServerConfig struct {
	Port            int           `yaml:"port" envconfig:"PORT"`
	ReadTimeout     time.Duration `yaml:"read_timeout" envconfig:"READ_TIMEOUT"`
	WriteTimeout    time.Duration `yaml:"write_timeout" envconfig:"WRITE_TIMEOUT"`
	IdleTimeout     time.Duration `yaml:"idle_timeout" envconfig:"IDLE_TIMEOUT"`
	MaxHeaderBytes  int           `yaml:"max_header_bytes" envconfig:"MAX_HEADER_BYTES"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" envconfig:"SHUTDOWN_TIMEOUT"`
}

// SecurityConfig contains security-related configuration
type SecurityConfig struct {
	AllowedOrigins []string        `yaml:"allowed_origins" envconfig:"ALLOWED_ORIGINS"`
	EnableCORS     bool            `yaml:"enable_cors" envconfig:"ENABLE_CORS"`
	RateLimit      RateLimitConfig `yaml:"rate_limit" envconfig:"RATE_LIMIT"`
}

// RateLimitConfig contains rate limiting configuration
type RateLimitConfig struct {
	Enabled bool    `yaml:"enabled" envconfig:"ENABLED"`
	RPS     float64 `yaml:"rps" envconfig:"RPS"`
	Burst   int     `yaml:"burst" envconfig:"BURST"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level       string `yaml:"level" envconfig:"LEVEL"`
	Format      string `yaml:"format" envconfig:"FORMAT"`
	Output      string `yaml:"output" envconfig:"OUTPUT"`
	FilePath    string `yaml:"file_path" envconfig:"FILE_PATH"`
	Development bool   `yaml:"development" envconfig:"DEVELOPMENT"`
}

// CurveConfig carries the defaults applied to curve requests that omit
// generation parameters. Dates use the 2006-01-02 layout.
type CurveConfig struct {
	DefaultStart string `yaml:"default_start" envconfig:"DEFAULT_START"`
	DefaultEnd   string `yaml:"default_end" envconfig:"DEFAULT_END"` // empty means today
	DefaultSeed  int64  `yaml:"default_seed" envconfig:"DEFAULT_SEED"`

	MinYield float64 `yaml:"min_yield" envconfig:"MIN_YIELD"`
	MaxYield float64 `yaml:"max_yield" envconfig:"MAX_YIELD"`

	MaxCacheEntries int `yaml:"max_cache_entries" envconfig:"MAX_CACHE_ENTRIES"`
}

// WebSocketConfig contains websocket streaming configuration
type WebSocketConfig struct {
	ReadBufferSize  int           `yaml:"read_buffer_size" envconfig:"READ_BUFFER_SIZE"`
	WriteBufferSize int           `yaml:"write_buffer_size" envconfig:"WRITE_BUFFER_SIZE"`
	PingPeriod      time.Duration `yaml:"ping_period" envconfig:"PING_PERIOD"`
	PongWait        time.Duration `yaml:"pong_wait" envconfig:"PONG_WAIT"`
	WriteWait       time.Duration `yaml:"write_wait" envconfig:"WRITE_WAIT"`

	// Frame replay interval bounds, mirroring the dashboard's speed slider.
	MinFrameInterval time.Duration `yaml:"min_frame_interval" envconfig:"MIN_FRAME_INTERVAL"`
	MaxFrameInterval time.Duration `yaml:"max_frame_interval" envconfig:"MAX_FRAME_INTERVAL"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Server: ServerConfig{
			Port:            8050,
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    15 * time.Second,
			IdleTimeout:     60 * time.Second,
			MaxHeaderBytes:  1 << 20,
			ShutdownTimeout: 30 * time.Second,
		},
		Security: SecurityConfig{
			AllowedOrigins: []string{"http://localhost:8050"},
			EnableCORS:     true,
			RateLimit: RateLimitConfig{
				Enabled: true,
				RPS:     100,
				Burst:   50,
			},
		},
		Logging: LoggingConfig{
			Level:    "info",
			Format:   "json",
			Output:   "console",
			FilePath: "logs/app.log",
		},
		Curve: CurveConfig{
			DefaultStart:    "1990-01-01",
			DefaultSeed:     42,
			MinYield:        0,
			MaxYield:        20,
			MaxCacheEntries: 64,
		},
		WebSocket: WebSocketConfig{
			ReadBufferSize:   1024,
			WriteBufferSize:  1024,
			PingPeriod:       30 * time.Second,
			PongWait:         60 * time.Second,
			WriteWait:        10 * time.Second,
			MinFrameInterval: 50 * time.Millisecond,
			MaxFrameInterval: time.Second,
		},
	}
}

// Load loads configuration from environment variables and an optional
// config file.
func Load() (*Config, error) {
	return LoadFrom(configFilePath())
}

// LoadFrom loads configuration using the given YAML file path. A missing
// file is not an error; defaults and environment variables still apply.
func LoadFrom(configFile string) (*Config, error) {
	cfg := Default()

	if _, err := os.Stat(configFile); err == nil {
		// Unmarshal over the defaults: keys present in the file override,
		// absent keys keep their default.
		data, err := os.ReadFile(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	// Environment variables take precedence over file values. Fields
	// without a matching CURVEPULSE_* variable are left untouched.
	if err := envconfig.Process("CURVEPULSE", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config from env: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

// validate checks cross-field constraints.
func (c *Config) validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server port out of range: %d", c.Server.Port)
	}
	if c.Curve.MinYield >= c.Curve.MaxYield {
		return fmt.Errorf("curve yield band empty: [%v, %v]", c.Curve.MinYield, c.Curve.MaxYield)
	}
	if _, err := time.Parse("2006-01-02", c.Curve.DefaultStart); err != nil {
		return fmt.Errorf("invalid curve default_start %q: %w", c.Curve.DefaultStart, err)
	}
	if c.Curve.DefaultEnd != "" {
		if _, err := time.Parse("2006-01-02", c.Curve.DefaultEnd); err != nil {
			return fmt.Errorf("invalid curve default_end %q: %w", c.Curve.DefaultEnd, err)
		}
	}
	if c.WebSocket.MinFrameInterval <= 0 || c.WebSocket.MaxFrameInterval < c.WebSocket.MinFrameInterval {
		return fmt.Errorf("invalid websocket frame interval bounds: %v..%v",
			c.WebSocket.MinFrameInterval, c.WebSocket.MaxFrameInterval)
	}
	return nil
}

// DefaultStartDate returns the parsed default range start.
func (c CurveConfig) DefaultStartDate() time.Time {
	t, _ := time.Parse("2006-01-02", c.DefaultStart)
	return t
}

// DefaultEndDate returns the parsed default range end, falling back to the
// current day when unset.
func (c CurveConfig) DefaultEndDate() time.Time {
	if c.DefaultEnd == "" {
		now := time.Now().UTC()
		return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	}
	t, _ := time.Parse("2006-01-02", c.DefaultEnd)
	return t
}

// configFilePath returns the config file location, overridable via
// CURVEPULSE_CONFIG_FILE.
func configFilePath() string {
	if path := os.Getenv("CURVEPULSE_CONFIG_FILE"); path != "" {
		return path
	}
	return "config.yaml"
}

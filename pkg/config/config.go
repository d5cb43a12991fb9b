package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// ErrInvalid is returned by Validate for settings the recorder cannot run with.
var ErrInvalid = errors.New("invalid configuration")

// Environment overrides, read from the process environment or a .env file.
const (
	EnvDBPath        = "ARTRACK_DB_PATH"
	EnvServerAddress = "ARTRACK_SERVER_ADDRESS"
)

// Config holds the application configuration.
type Config struct {
	Recorder RecorderConfig `yaml:"recorder"`
	Source   SourceConfig   `yaml:"source"`
	DB       DBConfig       `yaml:"db"`
	Server   ServerConfig   `yaml:"server"`
	Log      LogConfig      `yaml:"log"`
}

// RecorderConfig holds the trajectory recorder settings.
type RecorderConfig struct {
	Capacity    uint32   `yaml:"capacity"`
	MinInterval Duration `yaml:"min_interval"`
}

// SourceConfig selects and configures the location provider.
type SourceConfig struct {
	Provider    string       `yaml:"provider"` // "walker", "replay"
	ReplayFile  string       `yaml:"replay_file"`
	ReplayPaced bool         `yaml:"replay_paced"`
	Walker      WalkerConfig `yaml:"walker"`
}

// WalkerConfig holds settings for the simulated walker.
type WalkerConfig struct {
	StartLat float64  `yaml:"start_lat"`
	StartLon float64  `yaml:"start_lon"`
	Heading  float64  `yaml:"heading"`
	SpeedMps float64  `yaml:"speed_mps"`
	Tick     Duration `yaml:"tick"`
	Accuracy Distance `yaml:"accuracy_m"`
}

// DBConfig holds database settings. An empty path keeps everything in memory.
type DBConfig struct {
	Path string `yaml:"path"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Address string `yaml:"address"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Server   LogSettings `yaml:"server"`
	Requests LogSettings `yaml:"requests"`
}

// LogSettings holds settings for a specific logger.
type LogSettings struct {
	Path  string `yaml:"path"`
	Level string `yaml:"level"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Recorder: RecorderConfig{
			Capacity:    1000,
			MinInterval: Duration(5 * time.Second),
		},
		Source: SourceConfig{
			Provider: "walker",
			Walker: WalkerConfig{
				StartLat: 52.5200,
				StartLon: 13.4050,
				Heading:  45,
				SpeedMps: 1.4,
				Tick:     Duration(time.Second),
				Accuracy: 15,
			},
		},
		DB: DBConfig{
			Path: "./data/artrack.db",
		},
		Server: ServerConfig{
			Address: "localhost:1921",
		},
		Log: LogConfig{
			Server: LogSettings{
				Path:  "./logs/server.log",
				Level: "INFO",
			},
			Requests: LogSettings{
				Path:  "./logs/requests.log",
				Level: "INFO",
			},
		},
	}
}

// Validate checks the settings the recorder depends on.
func (c *Config) Validate() error {
	if c.Recorder.Capacity == 0 {
		return fmt.Errorf("%w: recorder.capacity must be greater than zero", ErrInvalid)
	}
	if c.Recorder.MinInterval < 0 {
		return fmt.Errorf("%w: recorder.min_interval must not be negative", ErrInvalid)
	}
	switch c.Source.Provider {
	case "walker":
		if c.Source.Walker.Tick <= 0 {
			return fmt.Errorf("%w: source.walker.tick must be positive", ErrInvalid)
		}
	case "replay":
		if c.Source.ReplayFile == "" {
			return fmt.Errorf("%w: source.replay_file is required for the replay provider", ErrInvalid)
		}
	default:
		return fmt.Errorf("%w: unknown source.provider %q", ErrInvalid, c.Source.Provider)
	}
	return nil
}

// Load loads the configuration from the given path.
// If the file does not exist, it creates it with default values.
// Values from the environment (or a .env file next to the working directory)
// override the file but are never written back.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create config directory: %w", err)
	}

	if _, err := os.Stat(path); err == nil {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	} else if err := Save(path, cfg); err != nil {
		return nil, fmt.Errorf("failed to save config file: %w", err)
	}

	// A missing .env is fine; godotenv never overrides variables already set.
	_ = godotenv.Load()
	applyEnv(cfg)
	expandPaths(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv(EnvDBPath); v != "" {
		cfg.DB.Path = v
	}
	if v := os.Getenv(EnvServerAddress); v != "" {
		cfg.Server.Address = v
	}
}

// expandPaths resolves $VAR references in file paths in memory only.
func expandPaths(cfg *Config) {
	cfg.DB.Path = os.ExpandEnv(cfg.DB.Path)
	cfg.Source.ReplayFile = os.ExpandEnv(cfg.Source.ReplayFile)
	cfg.Log.Server.Path = os.ExpandEnv(cfg.Log.Server.Path)
	cfg.Log.Requests.Path = os.ExpandEnv(cfg.Log.Requests.Path)
}

// Save writes the configuration to the path.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	header := []byte(`# artrack Configuration
# ---------------------
# Supported Units:
#   Duration: ns, us (or µs), ms, s, m, h, d (day), w (week)
#   Distance: m (meters), km (kilometers), ft (feet), nm (nautical miles)

`)
	data = append(header, data...)

	reProvider := regexp.MustCompile(`(?m)^(\s+)provider:`)
	data = reProvider.ReplaceAll(data, []byte("${1}# Options: walker, replay\n${1}provider:"))

	reDB := regexp.MustCompile(`(?m)^(\s+)path: (.*artrack\.db.*)$`)
	data = reDB.ReplaceAll(data, []byte("${1}# Leave empty to keep the trajectory in memory only\n${1}path: ${2}"))

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// GenerateDefault creates a default config file at the given path.
// Returns nil if the file already exists.
func GenerateDefault(path string) error {
	if _, err := os.Stat(path); err == nil {
		return nil
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	return Save(path, DefaultConfig())
}

package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
)

// Config is the relpd node configuration.
type Config struct {
	ListenAddress string    `toml:"ListenAddress"`
	DataDir       string    `toml:"DataDir"`
	EventLogPath  string    `toml:"EventLogPath"`
	NetworkName   string    `toml:"NetworkName"`
	Environment   string    `toml:"Environment"`
	LogLevel      string    `toml:"LogLevel"`
	Engine        Engine    `toml:"Engine"`
	Auth          Auth      `toml:"Auth"`
	RateLimit     RateLimit `toml:"RateLimit"`
	Telemetry     Telemetry `toml:"Telemetry"`
}

// Load loads the configuration from the given path. A missing file is
// created with defaults.
func Load(path string) (*Config, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return createDefault(path)
	}

	cfg := Default()
	meta, err := toml.DecodeFile(path, cfg)
	if err != nil {
		return nil, err
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, 0, len(undecoded))
		for _, key := range undecoded {
			keys = append(keys, key.String())
		}
		return nil, fmt.Errorf("config file %s has unknown keys: %s", path, strings.Join(keys, ", "))
	}

	if strings.TrimSpace(cfg.NetworkName) == "" {
		cfg.NetworkName = "relp-local"
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config file %s: %w", path, err)
	}
	return cfg, nil
}

// Default returns the configuration written for a fresh node.
func Default() *Config {
	return &Config{
		ListenAddress: ":8080",
		DataDir:       "./relp-data",
		EventLogPath:  "",
		NetworkName:   "relp-local",
		Environment:   "dev",
		LogLevel:      "info",
		Engine:        defaultEngine(),
		Auth: Auth{
			Enabled: false,
			Issuer:  "relp-gateway",
		},
		RateLimit: RateLimit{
			RequestsPerMinute: 600,
			Burst:             60,
		},
		Telemetry: Telemetry{
			Endpoint: "localhost:4318",
			Insecure: true,
		},
	}
}

// createDefault creates and saves a default configuration file.
func createDefault(path string) (*Config, error) {
	cfg := Default()
	if err := persist(path, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func persist(path string, cfg *Config) error {
	dir := filepath.Dir(path)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_TRUNC|os.O_CREATE, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()

	return toml.NewEncoder(f).Encode(cfg)
}

// EventLogFile returns the journal path, defaulting to a file inside the
// data directory.
func (c *Config) EventLogFile() string {
	if path := strings.TrimSpace(c.EventLogPath); path != "" {
		return path
	}
	return filepath.Join(c.DataDir, "events.db")
}

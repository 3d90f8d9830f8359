package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/pelletier/go-toml/v2"

	"quickfind/internal/domain"
)

// Config represents the application configuration
type Config struct {
	Version int            `toml:"version"`
	Remote  RemoteSettings `toml:"remote"`
	Search  SearchSettings `toml:"search"`
	UI      UISettings     `toml:"ui"`
	// Bookmarks seed the local collection before any remote lookup.
	Bookmarks []domain.Bookmark `toml:"bookmarks"`
}

// RemoteSettings configures the HTTP search endpoint
type RemoteSettings struct {
	BaseURL   string  `toml:"base_url"`
	TimeoutMS int     `toml:"timeout_ms"`
	RateLimit float64 `toml:"rate_limit"` // requests per second, 0 = unlimited
}

// SearchSettings configures the coordinator
type SearchSettings struct {
	DebounceMS     int `toml:"debounce_ms"`
	MinQueryLength int `toml:"min_query_length"`
}

// UISettings represents UI-related configuration
type UISettings struct {
	ShowLocalOnStart bool `toml:"show_local_on_start"`
}

// Timeout returns the remote request timeout as a duration.
func (r RemoteSettings) Timeout() time.Duration {
	return time.Duration(r.TimeoutMS) * time.Millisecond
}

// Debounce returns the debounce interval as a duration.
func (s SearchSettings) Debounce() time.Duration {
	return time.Duration(s.DebounceMS) * time.Millisecond
}

// ConfigService handles configuration management
type ConfigService interface {
	Load() (*Config, error)
	Save(config *Config) error
	LoadFromPath(path string) (*Config, error)
	SaveToPath(config *Config, path string) error
}

// configService is the concrete implementation
type configService struct {
	filePath string
}

// NewConfigService creates a new config service rooted at the user config
// directory.
func NewConfigService() ConfigService {
	configDir, err := os.UserConfigDir()
	if err != nil {
		// Fallback to home directory
		configDir, err = os.UserHomeDir()
		if err != nil {
			configDir = "."
		}
		configDir = filepath.Join(configDir, ".config")
	}

	appDir := filepath.Join(configDir, "quickfind")
	os.MkdirAll(appDir, 0755)

	return &configService{
		filePath: filepath.Join(appDir, "config.toml"),
	}
}

// Load loads the configuration from the default path, falling back to the
// default config when no file exists yet.
func (cs *configService) Load() (*Config, error) {
	if _, err := os.Stat(cs.filePath); os.IsNotExist(err) {
		return DefaultConfig(), nil
	}
	return cs.LoadFromPath(cs.filePath)
}

// Save saves the configuration to the default path.
func (cs *configService) Save(config *Config) error {
	return cs.SaveToPath(config, cs.filePath)
}

// LoadFromPath loads configuration from a specific path
func (cs *configService) LoadFromPath(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	applyDefaults(&cfg)
	return &cfg, nil
}

// SaveToPath saves configuration to a specific path
func (cs *configService) SaveToPath(config *Config, path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := toml.Marshal(config)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// applyDefaults fills zero-valued fields a partial config file left out.
func applyDefaults(cfg *Config) {
	def := DefaultConfig()
	if cfg.Version == 0 {
		cfg.Version = def.Version
	}
	if cfg.Remote.TimeoutMS == 0 {
		cfg.Remote.TimeoutMS = def.Remote.TimeoutMS
	}
	if cfg.Search.DebounceMS == 0 {
		cfg.Search.DebounceMS = def.Search.DebounceMS
	}
	if cfg.Search.MinQueryLength == 0 {
		cfg.Search.MinQueryLength = def.Search.MinQueryLength
	}
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		Version: 1,
		Remote: RemoteSettings{
			TimeoutMS: 10000,
		},
		Search: SearchSettings{
			DebounceMS:     300,
			MinQueryLength: 2,
		},
		UI: UISettings{
			ShowLocalOnStart: true,
		},
	}
}

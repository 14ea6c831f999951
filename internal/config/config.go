package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/subosito/gotenv"
	"gopkg.in/yaml.v3"
)

//go:embed default.yaml
var DefaultConfigYAML []byte

type Config struct {
	Database       Database       `yaml:"database"`
	Classification Classification `yaml:"classification"`
	Translation    Translation    `yaml:"translation"`
	Filter         Filter         `yaml:"filter"`
	Processing     Processing     `yaml:"processing"`
	Sources        Sources        `yaml:"sources"`
	Output         Output         `yaml:"output"`
	Server         Server         `yaml:"server"`
	Logging        Logging        `yaml:"logging"`
}

type Database struct {
	// Engine is "sqlite" or "postgres".
	Engine string `yaml:"engine"`
	Path   string `yaml:"path"`
	DSNEnv string `yaml:"dsn_env"`
}

type Classification struct {
	Provider    string        `yaml:"provider"`
	Model       string        `yaml:"model"`
	OllamaURL   string        `yaml:"ollama_url"`
	OpenAIModel string        `yaml:"openai_model"`
	APIKeyEnv   string        `yaml:"api_key_env"`
	BaseURL     string        `yaml:"base_url"`
	MaxTokens   int           `yaml:"max_tokens"`
	MaxChars    int           `yaml:"max_chars"`
	Temperature float64       `yaml:"temperature"`
	Timeout     time.Duration `yaml:"timeout"`
	MaxAttempts int           `yaml:"max_attempts"`
}

type Translation struct {
	Enabled       bool          `yaml:"enabled"`
	ServiceURL    string        `yaml:"service_url"`
	APIKeyEnv     string        `yaml:"api_key_env"`
	Target        string        `yaml:"target"`
	MaxChunkChars int           `yaml:"max_chunk_chars"`
	Timeout       time.Duration `yaml:"timeout"`
	// OnFailure is "skip" or "passthrough".
	OnFailure string `yaml:"on_failure"`
}

type Filter struct {
	MinCountries int      `yaml:"min_countries"`
	Keywords     []string `yaml:"keywords"`
}

type Processing struct {
	DelayBetweenCalls time.Duration `yaml:"delay_between_calls"`
	Workers           int           `yaml:"workers"`
}

type Sources struct {
	Feeds        []Feed        `yaml:"feeds"`
	DaysLookback int           `yaml:"days_lookback"`
	MaxPerFeed   int           `yaml:"max_per_feed"`
	FetchTimeout time.Duration `yaml:"fetch_timeout"`
	SeenCache    SeenCache     `yaml:"seen_cache"`
}

type Feed struct {
	URL     string `yaml:"url"`
	Name    string `yaml:"name"`
	Country string `yaml:"country"`
}

// SeenCache configures the optional valkey set of already processed URLs.
type SeenCache struct {
	Addr        string `yaml:"addr"`
	PasswordEnv string `yaml:"password_env"`
	Key         string `yaml:"key"`
}

type Output struct {
	DataDir string `yaml:"data_dir"`
}

type Server struct {
	Port int `yaml:"port"`
}

type Logging struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// ConfigDir returns the XDG config directory for geomonitor.
func ConfigDir() string {
	return filepath.Join(homeDir(), ".config", "geomonitor")
}

// DataDir returns the XDG data directory for geomonitor.
func DataDir() string {
	return filepath.Join(homeDir(), ".local", "share", "geomonitor")
}

// ResolveConfigPath finds the config file following priority:
// explicit path > ~/.config/geomonitor/config.yaml > ./config.yaml
func ResolveConfigPath(explicit string) (string, error) {
	if explicit != "" {
		if _, err := os.Stat(explicit); err != nil {
			return "", fmt.Errorf("config file not found: %s", explicit)
		}
		return explicit, nil
	}

	xdgConfig := filepath.Join(ConfigDir(), "config.yaml")
	if _, err := os.Stat(xdgConfig); err == nil {
		return xdgConfig, nil
	}

	cwdConfig := "config.yaml"
	if _, err := os.Stat(cwdConfig); err == nil {
		return cwdConfig, nil
	}

	return "", fmt.Errorf(
		"no config file found; searched:\n  %s\n  ./config.yaml\n\nRun 'geomonitor init' to create a default config",
		xdgConfig,
	)
}

// LoadEnv loads .env files into the process environment. Missing files are
// ignored; variables already set are kept.
func LoadEnv(paths ...string) error {
	for _, p := range paths {
		if err := gotenv.Load(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("loading %s: %w", p, err)
		}
	}
	return nil
}

// Load reads and parses a config YAML file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	return parse(data)
}

// parse parses YAML bytes into a Config, applying defaults.
func parse(data []byte) (*Config, error) {
	cfg := &Config{
		Database: Database{
			Engine: "sqlite",
			DSNEnv: "GEOMONITOR_DATABASE_URL",
		},
		Classification: Classification{
			Provider:    "ollama",
			Model:       "qwen2.5:7b",
			OllamaURL:   "http://localhost:11434",
			OpenAIModel: "gpt-4o-mini",
			APIKeyEnv:   "OPENAI_API_KEY",
			MaxTokens:   4096,
			MaxChars:    6000,
			Timeout:     120 * time.Second,
			MaxAttempts: 3,
		},
		Translation: Translation{
			Enabled:       true,
			ServiceURL:    "http://localhost:5000",
			APIKeyEnv:     "LIBRETRANSLATE_API_KEY",
			Target:        "en",
			MaxChunkChars: 500,
			Timeout:       30 * time.Second,
			OnFailure:     "skip",
		},
		Filter: Filter{MinCountries: 2},
		Processing: Processing{
			DelayBetweenCalls: time.Second,
			Workers:           1,
		},
		Sources: Sources{
			DaysLookback: 1,
			MaxPerFeed:   20,
			FetchTimeout: 15 * time.Second,
			SeenCache:    SeenCache{PasswordEnv: "VALKEY_PASSWORD", Key: "geomonitor:seen_urls"},
		},
		Server:  Server{Port: 8000},
		Logging: Logging{Level: "INFO", Format: "text"},
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch c.Database.Engine {
	case "sqlite", "postgres":
	default:
		return fmt.Errorf("database.engine must be sqlite or postgres, got %q", c.Database.Engine)
	}
	switch c.Classification.Provider {
	case "ollama", "openai":
	default:
		return fmt.Errorf("classification.provider must be ollama or openai, got %q", c.Classification.Provider)
	}
	switch c.Translation.OnFailure {
	case "skip", "passthrough":
	default:
		return fmt.Errorf("translation.on_failure must be skip or passthrough, got %q", c.Translation.OnFailure)
	}
	if c.Filter.MinCountries < 1 {
		return fmt.Errorf("filter.min_countries must be at least 1, got %d", c.Filter.MinCountries)
	}
	if c.Classification.MaxAttempts < 1 {
		return fmt.Errorf("classification.max_attempts must be at least 1, got %d", c.Classification.MaxAttempts)
	}
	return nil
}

// GetDataDir returns the effective data directory from config or XDG default.
func (c *Config) GetDataDir() string {
	if c.Output.DataDir != "" {
		return c.Output.DataDir
	}
	return DataDir()
}

// DatabasePath returns the SQLite file, defaulting to the data directory.
func (c *Config) DatabasePath() string {
	if c.Database.Path != "" {
		return c.Database.Path
	}
	return filepath.Join(c.GetDataDir(), "geomonitor.db")
}

// DatabaseDSN returns the PostgreSQL connection string from the environment.
func (c *Config) DatabaseDSN() string {
	return os.Getenv(c.Database.DSNEnv)
}

func homeDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return home
}

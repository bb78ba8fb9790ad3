// Package config loads the persistent client configuration.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Config is the persistent application configuration.
type Config struct {
	API     APIConfig     `yaml:"api"`
	Catalog CatalogConfig `yaml:"catalog"`
	Access  AccessConfig  `yaml:"access"`
	UI      UIConfig      `yaml:"ui"`

	// DataDir holds the session database, event log and diagnostic logs.
	DataDir string `yaml:"data_dir" validate:"required"`
	// EventLog toggles the JSONL event log in DataDir.
	EventLog bool `yaml:"event_log"`
}

// APIConfig describes how to reach the catalog API.
type APIConfig struct {
	BaseURL        string        `yaml:"base_url" validate:"required,url"`
	Timeout        time.Duration `yaml:"timeout" validate:"gt=0"`
	RequestsPerSec float64       `yaml:"requests_per_sec" validate:"gt=0"`
	Burst          int           `yaml:"burst" validate:"gte=1"`
	// Retries is how many times a 429/5xx answer is retried inside one
	// request before the failure is surfaced. Further retries are manual.
	Retries int `yaml:"retries" validate:"gte=0,lte=5"`
	Breaker BreakerConfig `yaml:"breaker"`
}

// BreakerConfig tunes the circuit breaker in front of the catalog API.
type BreakerConfig struct {
	MinRequests      uint32        `yaml:"min_requests" validate:"gte=1"`
	FailureThreshold float64       `yaml:"failure_threshold" validate:"gt=0,lte=1"`
	Interval         time.Duration `yaml:"interval"`
	OpenFor          time.Duration `yaml:"open_for" validate:"gt=0"`
}

// CatalogConfig holds pagination settings.
type CatalogConfig struct {
	PageSize int `yaml:"page_size" validate:"gte=1,lte=200"`
	// PrefetchRows triggers load-more when the list cursor is this close to
	// the last loaded row.
	PrefetchRows int `yaml:"prefetch_rows" validate:"gte=0"`
}

// AccessConfig carries the opaque subscription input.
type AccessConfig struct {
	Plan      string `yaml:"plan" validate:"oneof=free pro"`
	FreeLimit int    `yaml:"free_limit" validate:"gte=0"`
}

// UIConfig holds terminal client preferences.
type UIConfig struct {
	WrapNavigation bool `yaml:"wrap_navigation"`
	Resume         bool `yaml:"resume"`
}

// DefaultDataDir is ~/.vitrine.
func DefaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".vitrine"
	}
	return filepath.Join(home, ".vitrine")
}

// Default returns sensible defaults.
func Default() *Config {
	return &Config{
		API: APIConfig{
			BaseURL:        "http://localhost:8080",
			Timeout:        15 * time.Second,
			RequestsPerSec: 5,
			Burst:          2,
			Retries:        2,
			Breaker: BreakerConfig{
				MinRequests:      5,
				FailureThreshold: 0.6,
				Interval:         30 * time.Second,
				OpenFor:          20 * time.Second,
			},
		},
		Catalog: CatalogConfig{
			PageSize:     24,
			PrefetchRows: 3,
		},
		Access: AccessConfig{
			Plan:      "free",
			FreeLimit: 12,
		},
		UI: UIConfig{
			WrapNavigation: false,
			Resume:         true,
		},
		DataDir:  DefaultDataDir(),
		EventLog: true,
	}
}

// Path returns the config file location inside dataDir.
func Path(dataDir string) string {
	return filepath.Join(dataDir, "config.yaml")
}

// Load reads the config at path on top of the defaults, applies environment
// overrides and validates the result. A missing file is not an error.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return nil, fmt.Errorf("read config: %w", err)
	default:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	cfg.ApplyEnv(os.Getenv)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ApplyEnv overrides fields from VITRINE_* variables.
func (c *Config) ApplyEnv(getenv func(string) string) {
	if v := strings.TrimSpace(getenv("VITRINE_API_URL")); v != "" {
		c.API.BaseURL = v
	}
	if v := strings.TrimSpace(getenv("VITRINE_PLAN")); v != "" {
		c.Access.Plan = strings.ToLower(v)
	}
	if v := strings.TrimSpace(getenv("VITRINE_PAGE_SIZE")); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Catalog.PageSize = n
		}
	}
	if v := strings.TrimSpace(getenv("VITRINE_DATA_DIR")); v != "" {
		c.DataDir = v
	}
}

var validate = validator.New()

// Validate checks field constraints and returns one joined error.
func (c *Config) Validate() error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("validate config: %w", err)
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fmt.Sprintf("%s failed %q", fe.Namespace(), fe.Tag()))
	}
	return fmt.Errorf("invalid config: %s", strings.Join(msgs, "; "))
}

// Save writes the config as YAML, creating the directory if needed.
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o600)
}

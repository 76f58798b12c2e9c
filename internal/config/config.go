// internal/config/config.go
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v2"

	"github.com/kbrooks/land-tracker/internal/domain"
)

type Config struct {
	App      AppConfig       `yaml:"app"`
	Scraping ScrapingConfig  `yaml:"scraping"`
	Storage  StorageConfig   `yaml:"storage"`
	Criteria domain.Criteria `yaml:"criteria"`
	Sources  []Source        `yaml:"sources"`
}

type AppConfig struct {
	Name  string `yaml:"name"`
	Env   string `yaml:"env"`
	Debug bool   `yaml:"debug"`
	Port  int    `yaml:"port"`
}

type ScrapingConfig struct {
	Schedule       string `yaml:"schedule"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
	RetryCount     int    `yaml:"retry_count"`
	UserAgent      string `yaml:"user_agent"`
	EnrichLimit    int    `yaml:"enrich_limit"`
}

func (s ScrapingConfig) Timeout() time.Duration {
	return time.Duration(s.TimeoutSeconds) * time.Second
}

type StorageConfig struct {
	Driver        string `yaml:"driver"`
	MongoDatabase string `yaml:"mongo_database"`

	// Secrets resolved from the environment, never from YAML.
	SupabaseURL string `yaml:"-"`
	SupabaseKey string `yaml:"-"`
	MongoURI    string `yaml:"-"`
}

// Source is one configured listing site: the adapter name, the base URL
// links resolve against, and the index pages to scrape. A source may span
// several index pages (one per county search).
type Source struct {
	Name      string   `yaml:"name"`
	BaseURL   string   `yaml:"base_url"`
	IndexURLs []string `yaml:"index_urls"`
}

// Load reads app.yaml and sources.yaml from dir, then overlays secrets from
// the environment.
func Load(dir string) (*Config, error) {
	cfg := &Config{}

	appFile, err := os.ReadFile(filepath.Join(dir, "app.yaml"))
	if err != nil {
		return nil, fmt.Errorf("reading app config: %w", err)
	}
	if err := yaml.Unmarshal(appFile, cfg); err != nil {
		return nil, fmt.Errorf("parsing app config: %w", err)
	}

	srcFile, err := os.ReadFile(filepath.Join(dir, "sources.yaml"))
	if err != nil {
		return nil, fmt.Errorf("reading sources config: %w", err)
	}
	var sources struct {
		Criteria domain.Criteria `yaml:"criteria"`
		Sources  []Source        `yaml:"sources"`
	}
	if err := yaml.Unmarshal(srcFile, &sources); err != nil {
		return nil, fmt.Errorf("parsing sources config: %w", err)
	}
	cfg.Criteria = sources.Criteria
	cfg.Sources = sources.Sources

	if d := os.Getenv("STORAGE_DRIVER"); d != "" {
		cfg.Storage.Driver = d
	}
	cfg.Storage.SupabaseURL = os.Getenv("SUPABASE_URL")
	cfg.Storage.SupabaseKey = os.Getenv("SUPABASE_SERVICE_ROLE_KEY")
	cfg.Storage.MongoURI = os.Getenv("MONGODB_URI")

	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyDefaults() {
	if c.App.Port == 0 {
		c.App.Port = 8080
	}
	if c.Scraping.Schedule == "" {
		c.Scraping.Schedule = "@every 6h"
	}
	if c.Scraping.TimeoutSeconds == 0 {
		c.Scraping.TimeoutSeconds = 40
	}
	if c.Scraping.RetryCount == 0 {
		c.Scraping.RetryCount = 3
	}
	if c.Scraping.EnrichLimit == 0 {
		c.Scraping.EnrichLimit = 12
	}
	if c.Scraping.UserAgent == "" {
		c.Scraping.UserAgent = "Mozilla/5.0 (Linux; Android 14) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120 Safari/537.36"
	}
	if c.Storage.Driver == "" {
		c.Storage.Driver = "supabase"
	}
	if c.Storage.MongoDatabase == "" {
		c.Storage.MongoDatabase = "landtracker"
	}
}

func (c *Config) Validate() error {
	if len(c.Sources) == 0 {
		return errors.New("at least one source is required")
	}
	for _, s := range c.Sources {
		if s.Name == "" {
			return errors.New("source name is required")
		}
		if s.BaseURL == "" {
			return fmt.Errorf("source %s: base_url is required", s.Name)
		}
		if len(s.IndexURLs) == 0 {
			return fmt.Errorf("source %s: at least one index_url is required", s.Name)
		}
	}
	if c.Criteria.MinAcres > c.Criteria.MaxAcres {
		return errors.New("criteria: min_acres must not exceed max_acres")
	}
	if c.Criteria.MaxPrice <= 0 {
		return errors.New("criteria: max_price must be positive")
	}
	return nil
}

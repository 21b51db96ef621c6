package models

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Global       GlobalConfig       `yaml:"global" json:"global"`
	Fetching     FetchingConfig     `yaml:"fetching" json:"fetching"`
	Crawl        CrawlConfig        `yaml:"crawl" json:"crawl"`
	Verification VerificationConfig `yaml:"verification" json:"verification"`
	AI           AIConfig           `yaml:"ai" json:"ai"`
	Reporting    ReportingConfig    `yaml:"reporting" json:"reporting"`
	Storage      StorageConfig      `yaml:"storage" json:"storage"`
}

type GlobalConfig struct {
	LogLevel  string        `yaml:"log_level" json:"log_level"`
	LogFormat string        `yaml:"log_format" json:"log_format"`
	LogFile   string        `yaml:"log_file" json:"log_file"`
	Timeout   time.Duration `yaml:"timeout" json:"timeout"`
	DataDir   string        `yaml:"data_dir" json:"data_dir"`
}

type FetchingConfig struct {
	MaxRetries      int           `yaml:"max_retries" json:"max_retries"`
	BaseRetryDelay  time.Duration `yaml:"base_retry_delay" json:"base_retry_delay"`
	NavigateTimeout time.Duration `yaml:"navigate_timeout" json:"navigate_timeout"`
	HTTPTimeout     time.Duration `yaml:"http_timeout" json:"http_timeout"`
	Headless        bool          `yaml:"headless" json:"headless"`
	PoolSize        int           `yaml:"pool_size" json:"pool_size"`
	MinContentSize  int           `yaml:"min_content_size" json:"min_content_size"`
	ChallengeGrace  time.Duration `yaml:"challenge_grace" json:"challenge_grace"`
}

type CrawlConfig struct {
	MaxPages    int           `yaml:"max_pages" json:"max_pages"`
	MaxDepth    int           `yaml:"max_depth" json:"max_depth"`
	Concurrency int           `yaml:"concurrency" json:"concurrency"`
	RateLimit   float64       `yaml:"rate_limit" json:"rate_limit"`
	PageTimeout time.Duration `yaml:"page_timeout" json:"page_timeout"`
}

type VerificationConfig struct {
	Enabled            bool          `yaml:"enabled" json:"enabled"`
	MaxPerCategory     int           `yaml:"max_per_category" json:"max_per_category"`
	ProfileWindowDays  int           `yaml:"profile_window_days" json:"profile_window_days"`
	RepoWindowDays     int           `yaml:"repo_window_days" json:"repo_window_days"`
	CodeAPIBase        string        `yaml:"code_api_base" json:"code_api_base"`
	LookupTimeout      time.Duration `yaml:"lookup_timeout" json:"lookup_timeout"`
	Concurrency        int           `yaml:"concurrency" json:"concurrency"`
	DNSResolver        string        `yaml:"dns_resolver" json:"dns_resolver"`
}

type AIConfig struct {
	Enabled   bool          `yaml:"enabled" json:"enabled"`
	Endpoint  string        `yaml:"endpoint" json:"endpoint"`
	APIKey    string        `yaml:"api_key" json:"api_key"`
	Model     string        `yaml:"model" json:"model"`
	Timeout   time.Duration `yaml:"timeout" json:"timeout"`
	MaxChars  int           `yaml:"max_chars" json:"max_chars"`
}

type ReportingConfig struct {
	OutputDir     string   `yaml:"output_dir" json:"output_dir"`
	DefaultFormat string   `yaml:"default_format" json:"default_format"`
	Formats       []string `yaml:"formats" json:"formats"`
}

type StorageConfig struct {
	BaseDir   string        `yaml:"base_dir" json:"base_dir"`
	CacheSize int           `yaml:"cache_size" json:"cache_size"`
	CacheTTL  time.Duration `yaml:"cache_ttl" json:"cache_ttl"`
}

func DefaultConfig() *Config {
	return &Config{
		Global: GlobalConfig{
			LogLevel:  "info",
			LogFormat: "json",
			Timeout:   5 * time.Minute,
			DataDir:   "./data",
		},
		Fetching: FetchingConfig{
			MaxRetries:      3,
			BaseRetryDelay:  2 * time.Second,
			NavigateTimeout: 45 * time.Second,
			HTTPTimeout:     20 * time.Second,
			Headless:        true,
			PoolSize:        4,
			MinContentSize:  100,
			ChallengeGrace:  5 * time.Second,
		},
		Crawl: CrawlConfig{
			MaxPages:    10,
			MaxDepth:    1,
			Concurrency: 4,
			RateLimit:   2,
			PageTimeout: 30 * time.Second,
		},
		Verification: VerificationConfig{
			Enabled:           true,
			MaxPerCategory:    10,
			ProfileWindowDays: 180,
			RepoWindowDays:    90,
			CodeAPIBase:       "https://api.github.com",
			LookupTimeout:     10 * time.Second,
			Concurrency:       5,
			DNSResolver:       "8.8.8.8:53",
		},
		AI: AIConfig{
			Enabled:  true,
			Timeout:  60 * time.Second,
			MaxChars: 24000,
		},
		Reporting: ReportingConfig{
			OutputDir:     "./reports",
			DefaultFormat: "json",
			Formats:       []string{"json", "txt"},
		},
		Storage: StorageConfig{
			BaseDir:   "./data/audits",
			CacheSize: 256,
			CacheTTL:  15 * time.Minute,
		},
	}
}

func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

func (c *Config) Validate() error {
	if c.Fetching.MaxRetries < 1 {
		return fmt.Errorf("fetching.max_retries must be at least 1")
	}
	if c.Fetching.PoolSize < 1 {
		return fmt.Errorf("fetching.pool_size must be at least 1")
	}
	if c.Crawl.MaxPages < 0 {
		return fmt.Errorf("crawl.max_pages must not be negative")
	}
	if c.Verification.MaxPerCategory < 0 {
		return fmt.Errorf("verification.max_per_category must not be negative")
	}
	if c.Storage.CacheSize < 0 {
		return fmt.Errorf("storage.cache_size must not be negative")
	}
	return nil
}

// Package common provides shared utilities for Tenk
package common

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	toml "github.com/pelletier/go-toml/v2"
)

// Config holds all configuration for Tenk
type Config struct {
	Environment string          `toml:"environment"`
	Server      ServerConfig    `toml:"server"`
	Storage     StorageConfig   `toml:"storage"`
	Clients     ClientsConfig   `toml:"clients"`
	Segmenter   SegmenterConfig `toml:"segmenter"`
	Search      SearchConfig    `toml:"search"`
	Logging     LoggingConfig   `toml:"logging"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host string `toml:"host"`
	Port int    `toml:"port"`
}

// StorageConfig holds section store configuration.
// Backend selects the store implementation: "file" (default), "memory",
// or "surrealdb".
type StorageConfig struct {
	Backend   string          `toml:"backend"`
	Path      string          `toml:"path"`
	SurrealDB SurrealDBConfig `toml:"surrealdb"`
}

// SurrealDBConfig holds connection settings for the SurrealDB backend.
type SurrealDBConfig struct {
	Address   string `toml:"address"`
	Namespace string `toml:"namespace"`
	Database  string `toml:"database"`
	Username  string `toml:"username"`
	Password  string `toml:"password"`
}

// ClientsConfig holds API client configurations
type ClientsConfig struct {
	Edgar  EdgarConfig  `toml:"edgar"`
	Gemini GeminiConfig `toml:"gemini"`
}

// EdgarConfig holds SEC EDGAR client configuration.
// UserAgent is required by SEC fair-access policy and must identify the
// application and a contact address.
type EdgarConfig struct {
	BaseURL         string `toml:"base_url"`
	ArchiveURL      string `toml:"archive_url"`
	TickerFileURL   string `toml:"ticker_file_url"`
	UserAgent       string `toml:"user_agent"`
	RateLimit       int    `toml:"rate_limit"`
	ConnectTimeout  string `toml:"connect_timeout"`
	ReadTimeout     string `toml:"read_timeout"`
	MaxFilingSizeMB int    `toml:"max_filing_size_mb"`
}

// GetConnectTimeout parses and returns the connect timeout duration
func (c *EdgarConfig) GetConnectTimeout() time.Duration {
	d, err := time.ParseDuration(c.ConnectTimeout)
	if err != nil {
		return 10 * time.Second
	}
	return d
}

// GetReadTimeout parses and returns the read timeout duration
func (c *EdgarConfig) GetReadTimeout() time.Duration {
	d, err := time.ParseDuration(c.ReadTimeout)
	if err != nil {
		return 60 * time.Second
	}
	return d
}

// MaxFilingSize returns the filing size cap in bytes.
func (c *EdgarConfig) MaxFilingSize() int64 {
	if c.MaxFilingSizeMB <= 0 {
		return 10 * 1024 * 1024
	}
	return int64(c.MaxFilingSizeMB) * 1024 * 1024
}

// GeminiConfig holds Gemini API configuration
type GeminiConfig struct {
	APIKey string `toml:"api_key"`
	Model  string `toml:"model"`
}

// SegmenterConfig bounds section extraction.
type SegmenterConfig struct {
	MinSectionLength int `toml:"min_section_length"`
	MaxSectionLength int `toml:"max_section_length"`
	MaxSpanLength    int `toml:"max_span_length"`
}

// SearchConfig holds retrieval defaults.
type SearchConfig struct {
	DefaultLimit int `toml:"default_limit"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

// NewDefaultConfig returns a Config with sensible defaults
func NewDefaultConfig() *Config {
	return &Config{
		Environment: "development",
		Server: ServerConfig{
			Host: "0.0.0.0",
			Port: 8080,
		},
		Storage: StorageConfig{
			Backend: "file",
			Path:    "data/filings",
			SurrealDB: SurrealDBConfig{
				Address:   "ws://localhost:8000",
				Namespace: "tenk",
				Database:  "tenk",
				Username:  "root",
				Password:  "root",
			},
		},
		Clients: ClientsConfig{
			Edgar: EdgarConfig{
				BaseURL:         "https://data.sec.gov",
				ArchiveURL:      "https://www.sec.gov/Archives/edgar/data",
				TickerFileURL:   "https://www.sec.gov/files/company_tickers.json",
				UserAgent:       "Tenk contact@example.com",
				RateLimit:       5,
				ConnectTimeout:  "10s",
				ReadTimeout:     "60s",
				MaxFilingSizeMB: 10,
			},
			Gemini: GeminiConfig{
				Model: "gemini-3-flash-preview",
			},
		},
		Segmenter: SegmenterConfig{
			MinSectionLength: 500,
			MaxSectionLength: 15000,
			MaxSpanLength:    20000,
		},
		Search: SearchConfig{
			DefaultLimit: 3,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// LoadConfig loads configuration from files with environment overrides
func LoadConfig(paths ...string) (*Config, error) {
	config := NewDefaultConfig()

	// Load and merge each config file in order (later files override earlier)
	for _, path := range paths {
		if path == "" {
			continue
		}

		if _, err := os.Stat(path); os.IsNotExist(err) {
			continue // Skip missing files
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}

		if err := toml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	applyEnvOverrides(config)

	return config, nil
}

// applyEnvOverrides applies environment variable overrides to config
func applyEnvOverrides(config *Config) {
	if env := os.Getenv("TENK_ENV"); env != "" {
		config.Environment = env
	}

	if host := os.Getenv("TENK_HOST"); host != "" {
		config.Server.Host = host
	}

	if port := os.Getenv("TENK_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			config.Server.Port = p
		}
	}

	if level := os.Getenv("TENK_LOG_LEVEL"); level != "" {
		config.Logging.Level = level
	}

	if backend := os.Getenv("TENK_STORAGE_BACKEND"); backend != "" {
		config.Storage.Backend = strings.ToLower(backend)
	}

	if path := os.Getenv("TENK_DATA_PATH"); path != "" {
		config.Storage.Path = path
	}

	if addr := os.Getenv("TENK_SURREALDB_ADDRESS"); addr != "" {
		config.Storage.SurrealDB.Address = addr
	}

	if ua := os.Getenv("TENK_EDGAR_USER_AGENT"); ua != "" {
		config.Clients.Edgar.UserAgent = ua
	}

	if key := os.Getenv("GEMINI_API_KEY"); key != "" {
		config.Clients.Gemini.APIKey = key
	}
}

// IsProduction returns true if running in production mode
func (c *Config) IsProduction() bool {
	env := strings.ToLower(strings.TrimSpace(c.Environment))
	return env == "production" || env == "prod"
}

// Package config provides configuration management for the ingestion pipeline and read API.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Configuration validation errors.
var (
	ErrMissingAuthURL           = errors.New("upstream.auth_url is required")
	ErrMissingNewsListURL       = errors.New("upstream.news_list_url is required")
	ErrInvalidArticleTemplate   = errors.New("upstream.article_url_template must contain {news_id}")
	ErrInvalidAudioTemplate     = errors.New("upstream.audio_url_template must contain {voice_id}")
	ErrInvalidMaxAttempts       = errors.New("http.retry.max_attempts must be at least 1")
	ErrInvalidInitialDelay      = errors.New("http.retry.initial_delay_ms must be non-negative")
	ErrInvalidBackoffMultiplier = errors.New("http.retry.backoff_multiplier must be >= 1.0")
	ErrInvalidTimeout           = errors.New("http.timeout_sec must be at least 1")
	ErrInvalidMaxConns          = errors.New("database.max_conns must be non-negative")
	ErrInvalidLogLevel          = errors.New("logging.level must be one of: debug, info, warn, error")
	ErrInvalidLogFormat         = errors.New("logging.format must be one of: text, json, tint")
)

// Placeholders substituted into the upstream URL templates.
const (
	NewsIDPlaceholder  = "{news_id}"
	VoiceIDPlaceholder = "{voice_id}"
)

// Config represents the complete application configuration.
type Config struct {
	Upstream UpstreamConfig `yaml:"upstream"`
	Database DatabaseConfig `yaml:"database"`
	API      APIConfig      `yaml:"api"`
	Logging  LoggingConfig  `yaml:"logging"`
	HTTP     HTTPConfig     `yaml:"http"`
}

// UpstreamConfig holds the NHK endpoints and request identity.
type UpstreamConfig struct {
	AuthURL            string `yaml:"auth_url"`
	NewsListURL        string `yaml:"news_list_url"`
	ArticleURLTemplate string `yaml:"article_url_template"`
	AudioURLTemplate   string `yaml:"audio_url_template"`
	Referer            string `yaml:"referer"`
	UserAgent          string `yaml:"user_agent"`
}

// ArticleURL returns the article page URL for newsID.
func (u *UpstreamConfig) ArticleURL(newsID string) string {
	return strings.ReplaceAll(u.ArticleURLTemplate, NewsIDPlaceholder, newsID)
}

// AudioURL returns the HLS playlist URL for a voice resource base name.
func (u *UpstreamConfig) AudioURL(voiceID string) string {
	return strings.ReplaceAll(u.AudioURLTemplate, VoiceIDPlaceholder, voiceID)
}

// HTTPConfig controls the upstream HTTP client.
type HTTPConfig struct {
	Retry      RetryPolicy `yaml:"retry"`
	TimeoutSec int         `yaml:"timeout_sec"`
}

// GetTimeout returns the per-request timeout duration.
func (h *HTTPConfig) GetTimeout() time.Duration {
	return time.Duration(h.TimeoutSec) * time.Second
}

// RetryPolicy defines retry behavior for catalog and article fetches.
type RetryPolicy struct {
	MaxAttempts       int     `yaml:"max_attempts"`
	InitialDelayMs    int     `yaml:"initial_delay_ms"`
	MaxDelayMs        int     `yaml:"max_delay_ms"`
	BackoffMultiplier float64 `yaml:"backoff_multiplier"`
}

// DatabaseConfig holds the PostgreSQL connection settings.
type DatabaseConfig struct {
	DSN      string `yaml:"dsn"`
	MaxConns int    `yaml:"max_conns"`
}

// APIConfig holds read API settings.
type APIConfig struct {
	Addr   string `yaml:"addr"`
	APIKey string `yaml:"api_key"`
}

// LoggingConfig defines logging behavior.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Upstream: UpstreamConfig{
			AuthURL:            "https://news.web.nhk/tix/build_authorize",
			NewsListURL:        "https://news.web.nhk/news/easy/news-list.json",
			ArticleURLTemplate: "https://news.web.nhk/news/easy/{news_id}/{news_id}.html",
			AudioURLTemplate:   "https://vod-stream.nhk.jp/news/easy_audio/{voice_id}/index.m3u8",
			Referer:            "https://news.web.nhk/news/easy/",
			UserAgent:          "Mozilla/5.0 (Macintosh; Intel Mac OS X 10.15; rv:143.0) Gecko/20100101 Firefox/143.0",
		},
		HTTP: HTTPConfig{
			TimeoutSec: 30,
			Retry: RetryPolicy{
				MaxAttempts:       1,
				InitialDelayMs:    500,
				MaxDelayMs:        30000,
				BackoffMultiplier: 2.0,
			},
		},
		Database: DatabaseConfig{
			MaxConns: 4,
		},
		API: APIConfig{
			Addr: ":8000",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// LoadConfig loads configuration from a YAML file on top of the defaults,
// then applies environment overrides. An empty path skips the file.
func LoadConfig(filepath string) (*Config, error) {
	// .env is optional
	_ = godotenv.Load()

	cfg := Default()

	if filepath != "" {
		data, err := os.ReadFile(filepath)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}

		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse YAML: %w", err)
		}
	}

	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv("DATABASE_URL"); v != "" {
		c.Database.DSN = v
	}

	if v := os.Getenv("NHK_API_KEY"); v != "" {
		c.API.APIKey = v
	}

	if v := os.Getenv("LOG_LEVEL"); v != "" {
		c.Logging.Level = strings.ToLower(v)
	}

	if v := os.Getenv("PORT"); v != "" {
		if _, err := strconv.Atoi(v); err == nil {
			c.API.Addr = ":" + v
		}
	}
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.Upstream.AuthURL == "" {
		return ErrMissingAuthURL
	}

	if c.Upstream.NewsListURL == "" {
		return ErrMissingNewsListURL
	}

	if !strings.Contains(c.Upstream.ArticleURLTemplate, NewsIDPlaceholder) {
		return ErrInvalidArticleTemplate
	}

	if !strings.Contains(c.Upstream.AudioURLTemplate, VoiceIDPlaceholder) {
		return ErrInvalidAudioTemplate
	}

	if c.HTTP.TimeoutSec < 1 {
		return ErrInvalidTimeout
	}

	// Validate retry policy
	if c.HTTP.Retry.MaxAttempts < 1 {
		return ErrInvalidMaxAttempts
	}

	if c.HTTP.Retry.InitialDelayMs < 0 {
		return ErrInvalidInitialDelay
	}

	if c.HTTP.Retry.BackoffMultiplier < 1.0 {
		return ErrInvalidBackoffMultiplier
	}

	if c.Database.MaxConns < 0 {
		return ErrInvalidMaxConns
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[c.Logging.Level] {
		return ErrInvalidLogLevel
	}

	validFormats := map[string]bool{"text": true, "json": true, "tint": true}
	if !validFormats[c.Logging.Format] {
		return ErrInvalidLogFormat
	}

	return nil
}

// GetRetryDelay calculates exponential backoff delay for attempt number.
func (rp *RetryPolicy) GetRetryDelay(attempt int) time.Duration {
	if attempt < 1 {
		return 0
	}

	delayMs := float64(rp.InitialDelayMs)
	for i := 1; i < attempt; i++ {
		delayMs *= rp.BackoffMultiplier
	}

	// Cap at max delay
	if int(delayMs) > rp.MaxDelayMs {
		delayMs = float64(rp.MaxDelayMs)
	}

	return time.Duration(int(delayMs)) * time.Millisecond
}

// String returns a string representation of the config.
func (c *Config) String() string {
	return fmt.Sprintf(
		"Config{NewsList: %s, MaxAttempts: %d, Database: %t}",
		c.Upstream.NewsListURL,
		c.HTTP.Retry.MaxAttempts,
		c.Database.DSN != "",
	)
}

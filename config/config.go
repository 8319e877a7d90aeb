package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/aluiziolira/ebook-search/models"
)

// Config holds service configuration.
type Config struct {
	ListenAddr      string
	Timeout         time.Duration
	UserAgent       string
	DatabaseURL     string
	TelegramToken   string
	TelegramGroupID string
	NotifyPerMinute int
	ReadmooAPID     string
	UACacheSize     int
	OutputFile      string
	OutputFormat    string // csv, json, or dual
	Verbose         bool
	Bookstores      []models.Bookstore
}

// DefaultConfig returns the defaults used when nothing else is configured.
func DefaultConfig() *Config {
	return &Config{
		ListenAddr:      ":8080",
		Timeout:         10 * time.Second,
		UserAgent:       "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/117.0.0.0 Safari/537.36",
		DatabaseURL:     "ebooksearch.db",
		NotifyPerMinute: 20,
		UACacheSize:     512,
		OutputFile:      "output/books.csv",
		OutputFormat:    "csv",
		Verbose:         false,
		Bookstores:      DefaultBookstores(),
	}
}

// Validate ensures all configuration values are coherent.
func (c *Config) Validate() error {
	if c.ListenAddr == "" {
		return fmt.Errorf("listen address cannot be empty")
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive")
	}
	if c.UserAgent == "" {
		return fmt.Errorf("user agent cannot be empty")
	}
	if c.NotifyPerMinute < 0 {
		return fmt.Errorf("notify per minute cannot be negative")
	}
	if c.TelegramToken != "" && c.TelegramGroupID == "" {
		return fmt.Errorf("telegram group id cannot be empty when a token is set")
	}
	if c.UACacheSize <= 0 {
		return fmt.Errorf("user agent cache size must be positive")
	}
	if c.OutputFormat != "csv" && c.OutputFormat != "json" && c.OutputFormat != "dual" {
		return fmt.Errorf("output format must be csv, json, or dual")
	}
	if len(c.Bookstores) == 0 {
		return fmt.Errorf("bookstores cannot be empty")
	}

	seen := make(map[string]struct{}, len(c.Bookstores))
	for _, store := range c.Bookstores {
		if store.ID == "" {
			return fmt.Errorf("bookstore id cannot be empty")
		}
		if _, ok := seen[store.ID]; ok {
			return fmt.Errorf("duplicate bookstore id %q", store.ID)
		}
		seen[store.ID] = struct{}{}
		if store.ProxyURL != "" {
			parsed, err := url.Parse(store.ProxyURL)
			if err != nil {
				return fmt.Errorf("invalid proxy URL for %s: %w", store.ID, err)
			}
			if parsed.Host == "" {
				return fmt.Errorf("proxy URL for %s must include a host", store.ID)
			}
		}
	}

	return nil
}

// EnvString returns the trimmed value of key when it is set and non-empty.
func EnvString(key string) (string, bool) {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return "", false
	}
	return value, true
}

// EnvInt parses key as an integer when it is set.
func EnvInt(key string) (int, bool, error) {
	value, ok := EnvString(key)
	if !ok {
		return 0, false, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, false, fmt.Errorf("parse %s: %w", key, err)
	}
	return n, true, nil
}

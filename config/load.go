package config

import (
	"errors"
	"fmt"

	"github.com/spf13/viper"
)

var envBindings = map[string]string{
	"listen_addr":       "LISTEN_ADDR",
	"timeout":           "REQUEST_TIMEOUT",
	"user_agent":        "USER_AGENT",
	"database_url":      "DATABASE_URL",
	"telegram.token":    "TELEGRAM_TOKEN",
	"telegram.group_id": "TELEGRAM_GROUP_ID",
	"telegram.per_min":  "TELEGRAM_PER_MINUTE",
	"readmoo_ap_id":     "READMOO_AP_ID",
	"ua_cache_size":     "UA_CACHE_SIZE",
	"verbose":           "VERBOSE",
}

// Load builds a Config from defaults, an optional YAML file and the
// environment, in increasing order of precedence. An empty path looks for
// ebooksearch.yaml in the working directory and tolerates its absence.
func Load(path string) (*Config, error) {
	def := DefaultConfig()

	v := viper.New()
	v.SetDefault("listen_addr", def.ListenAddr)
	v.SetDefault("timeout", def.Timeout)
	v.SetDefault("user_agent", def.UserAgent)
	v.SetDefault("database_url", def.DatabaseURL)
	v.SetDefault("telegram.per_min", def.NotifyPerMinute)
	v.SetDefault("ua_cache_size", def.UACacheSize)
	v.SetDefault("output.file", def.OutputFile)
	v.SetDefault("output.format", def.OutputFormat)
	v.SetDefault("verbose", def.Verbose)

	for key, env := range envBindings {
		if err := v.BindEnv(key, env); err != nil {
			return nil, fmt.Errorf("bind %s: %w", env, err)
		}
	}

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("ebooksearch")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	cfg := &Config{
		ListenAddr:      v.GetString("listen_addr"),
		Timeout:         v.GetDuration("timeout"),
		UserAgent:       v.GetString("user_agent"),
		DatabaseURL:     v.GetString("database_url"),
		TelegramToken:   v.GetString("telegram.token"),
		TelegramGroupID: v.GetString("telegram.group_id"),
		NotifyPerMinute: v.GetInt("telegram.per_min"),
		ReadmooAPID:     v.GetString("readmoo_ap_id"),
		UACacheSize:     v.GetInt("ua_cache_size"),
		OutputFile:      v.GetString("output.file"),
		OutputFormat:    v.GetString("output.format"),
		Verbose:         v.GetBool("verbose"),
		Bookstores:      def.Bookstores,
	}

	if v.IsSet("bookstores") {
		cfg.Bookstores = nil
		if err := v.UnmarshalKey("bookstores", &cfg.Bookstores); err != nil {
			return nil, fmt.Errorf("decode bookstores: %w", err)
		}
	}

	// PORT is honoured when no explicit listen address was given.
	if cfg.ListenAddr == def.ListenAddr {
		port, ok, err := EnvInt("PORT")
		if err != nil {
			return nil, err
		}
		if ok {
			cfg.ListenAddr = fmt.Sprintf(":%d", port)
		}
	}

	return cfg, nil
}

package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

const (
	DefaultModel          = "gemini-3-pro-preview"
	DefaultPort           = "8888"
	DefaultMaxUploadBytes = 20 << 20
	DefaultIdleTimeout    = 2 * time.Hour
)

// Config holds the process configuration. Everything is sourced from the
// environment; a .env file is loaded by the root command before Load runs.
type Config struct {
	Port string

	GeminiAPIKey  string
	GeminiModel   string
	GeminiBaseURL string

	MaxUploadBytes     int64
	SessionIdleTimeout time.Duration

	LogLevel string
}

func getEnv(k, def string) string {
	if v := strings.TrimSpace(os.Getenv(k)); v != "" {
		return v
	}
	return def
}

func getInt64(k string, def int64) int64 {
	v := getEnv(k, "")
	if v == "" {
		return def
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil || n <= 0 {
		log.Warn().Str("key", k).Str("value", v).Msg("ignoring invalid integer setting")
		return def
	}
	return n
}

func getDuration(k string, def time.Duration) time.Duration {
	v := getEnv(k, "")
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		log.Warn().Str("key", k).Str("value", v).Msg("ignoring invalid duration setting")
		return def
	}
	return d
}

// Load reads the configuration. A missing API key is not an error here:
// it is reported to the user when an analysis is submitted.
func Load() *Config {
	return &Config{
		Port: getEnv("PORT", DefaultPort),

		GeminiAPIKey:  getEnv("GEMINI_API_KEY", getEnv("API_KEY", "")),
		GeminiModel:   getEnv("GEMINI_MODEL", DefaultModel),
		GeminiBaseURL: getEnv("GEMINI_BASE_URL", ""),

		MaxUploadBytes:     getInt64("MAX_UPLOAD_BYTES", DefaultMaxUploadBytes),
		SessionIdleTimeout: getDuration("SESSION_IDLE_TIMEOUT", DefaultIdleTimeout),

		LogLevel: getEnv("LOG_LEVEL", "info"),
	}
}

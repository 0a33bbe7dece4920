// Package config loads application configuration from environment variables.
package config

import (
	"fmt"
	"log/slog"
	"net"
	"os"
	"strings"
	"time"

	"golang.org/x/text/language"
)

const (
	defaultListenAddr = "127.0.0.1:8080"
	defaultNotice     = "Your key is never stored or logged."
)

// Config holds the application configuration loaded from environment variables.
type Config struct {
	APIBase         string
	UpstreamURL     string
	UpstreamTimeout time.Duration
	ListenAddr      string
	PageIdleTimeout time.Duration
	CollationLocale language.Tag
	Notice          string
	LogLevel        slog.Level
}

// HasUpstream returns true when an upstream model service URL is configured.
// Without one the backend API answers 503 for model requests.
func (c *Config) HasUpstream() bool {
	return c.UpstreamURL != ""
}

// CatalogBaseURL returns the base URL the page fetches supported models
// from. An empty API base means same origin, which for the server side is
// its own listen address on loopback.
func (c *Config) CatalogBaseURL() string {
	if c.APIBase != "" {
		return strings.TrimRight(c.APIBase, "/")
	}
	return "http://" + LoopbackAddr(c.ListenAddr)
}

// Load reads configuration from environment variables and returns a validated Config.
// Optional variables with defaults: TINKERSTUDIO_API_BASE (same origin),
// TINKERSTUDIO_UPSTREAM_URL (none), TINKERSTUDIO_UPSTREAM_TIMEOUT (30s),
// TINKERSTUDIO_LISTEN_ADDR (127.0.0.1:8080), TINKERSTUDIO_PAGE_IDLE_TIMEOUT (30m),
// TINKERSTUDIO_COLLATION_LOCALE (und), TINKERSTUDIO_NOTICE, TINKERSTUDIO_LOG_LEVEL (info).
func Load() (*Config, error) {
	upstreamTimeout, err := durationEnv("TINKERSTUDIO_UPSTREAM_TIMEOUT", 30*time.Second)
	if err != nil {
		return nil, err
	}

	pageIdleTimeout, err := durationEnv("TINKERSTUDIO_PAGE_IDLE_TIMEOUT", 30*time.Minute)
	if err != nil {
		return nil, err
	}

	locale := language.Und
	if v, ok := os.LookupEnv("TINKERSTUDIO_COLLATION_LOCALE"); ok && v != "" {
		parsed, err := language.Parse(v)
		if err != nil {
			return nil, fmt.Errorf("TINKERSTUDIO_COLLATION_LOCALE has invalid language tag %q: %w", v, err)
		}
		locale = parsed
	}

	logLevel := slog.LevelInfo
	if v, ok := os.LookupEnv("TINKERSTUDIO_LOG_LEVEL"); ok && v != "" {
		if err := logLevel.UnmarshalText([]byte(v)); err != nil {
			return nil, fmt.Errorf("TINKERSTUDIO_LOG_LEVEL has invalid level %q: %w", v, err)
		}
	}

	listenAddr := defaultListenAddr
	if v, ok := os.LookupEnv("TINKERSTUDIO_LISTEN_ADDR"); ok && v != "" {
		listenAddr = v
	}

	notice := defaultNotice
	if v, ok := os.LookupEnv("TINKERSTUDIO_NOTICE"); ok {
		notice = v
	}

	return &Config{
		APIBase:         os.Getenv("TINKERSTUDIO_API_BASE"),
		UpstreamURL:     os.Getenv("TINKERSTUDIO_UPSTREAM_URL"),
		UpstreamTimeout: upstreamTimeout,
		ListenAddr:      listenAddr,
		PageIdleTimeout: pageIdleTimeout,
		CollationLocale: locale,
		Notice:          notice,
		LogLevel:        logLevel,
	}, nil
}

func durationEnv(key string, def time.Duration) (time.Duration, error) {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return def, nil
	}
	parsed, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s has invalid duration %q: %w", key, v, err)
	}
	return parsed, nil
}

// LoopbackAddr rewrites a listen address so a local client can dial it:
// bind-all hosts become 127.0.0.1. Unparseable input yields the default.
func LoopbackAddr(raw string) string {
	if raw == "" {
		return defaultListenAddr
	}

	host, port, err := net.SplitHostPort(raw)
	if err != nil {
		return defaultListenAddr
	}

	if host == "" || host == "0.0.0.0" || host == "::" {
		host = "127.0.0.1"
	}

	return net.JoinHostPort(host, port)
}

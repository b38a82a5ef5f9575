// Package config loads process settings for the mdpdf CLI and render
// service from MDPDF_* environment variables.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	// HTTP service
	ListenAddr      string
	MaxRequestBytes int64
	RenderTimeout   time.Duration

	// Image fetching
	FetchTimeout     time.Duration
	FetchConcurrency int
	FetchRetries     int
	MaxImageBytes    int64
	// ImageTimeout bounds how long one render waits for images.
	ImageTimeout time.Duration
	// AllowFiles enables relative file image sources for the CLI, resolved
	// against the input's directory.
	AllowFiles bool

	// PDF
	PageSize string
	FontSize float64
	Theme    string

	// Logging
	LogLevel string
}

// Default returns the built-in settings, ignoring the environment.
func Default() Config {
	return Config{
		ListenAddr:       ":8080",
		MaxRequestBytes:  4 << 20, // 4MB
		RenderTimeout:    60 * time.Second,
		FetchTimeout:     15 * time.Second,
		FetchConcurrency: 8,
		FetchRetries:     2,
		MaxImageBytes:    20 << 20, // 20MB
		ImageTimeout:     30 * time.Second,
		AllowFiles:       true,
		PageSize:         "A4",
		FontSize:         12,
		Theme:            "default",
		LogLevel:         "info",
	}
}

// Load reads MDPDF_* variables over Default. Unparsable or out of range
// values fall back to the default.
func Load() Config {
	def := Default()
	cfg := Config{
		ListenAddr:      envOr("MDPDF_LISTEN", def.ListenAddr),
		MaxRequestBytes: envInt64("MDPDF_MAX_REQUEST_BYTES", def.MaxRequestBytes),
		RenderTimeout:   envDuration("MDPDF_RENDER_TIMEOUT", def.RenderTimeout),

		FetchTimeout:     envDuration("MDPDF_FETCH_TIMEOUT", def.FetchTimeout),
		FetchConcurrency: envInt("MDPDF_FETCH_CONCURRENCY", def.FetchConcurrency),
		FetchRetries:     envInt("MDPDF_FETCH_RETRIES", def.FetchRetries),
		MaxImageBytes:    envInt64("MDPDF_MAX_IMAGE_BYTES", def.MaxImageBytes),
		ImageTimeout:     envDuration("MDPDF_IMAGE_TIMEOUT", def.ImageTimeout),
		AllowFiles:       envBool("MDPDF_ALLOW_FILES", def.AllowFiles),

		PageSize: envOr("MDPDF_PAGE_SIZE", def.PageSize),
		FontSize: envFloat("MDPDF_FONT_SIZE", def.FontSize),
		Theme:    envOr("MDPDF_THEME", def.Theme),

		LogLevel: strings.ToLower(envOr("MDPDF_LOG_LEVEL", def.LogLevel)),
	}

	if cfg.MaxRequestBytes <= 0 {
		cfg.MaxRequestBytes = def.MaxRequestBytes
	}
	if cfg.RenderTimeout <= 0 {
		cfg.RenderTimeout = def.RenderTimeout
	}
	if cfg.FetchTimeout <= 0 {
		cfg.FetchTimeout = def.FetchTimeout
	}
	if cfg.FetchConcurrency <= 0 {
		cfg.FetchConcurrency = def.FetchConcurrency
	}
	if cfg.FetchRetries < 0 {
		cfg.FetchRetries = 0
	}
	if cfg.MaxImageBytes <= 0 {
		cfg.MaxImageBytes = def.MaxImageBytes
	}
	if cfg.ImageTimeout <= 0 {
		cfg.ImageTimeout = def.ImageTimeout
	}
	if cfg.FontSize <= 0 {
		cfg.FontSize = def.FontSize
	}

	return cfg
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.ListenAddr) == "" {
		return fmt.Errorf("MDPDF_LISTEN is required")
	}
	if !ValidPageSize(c.PageSize) {
		return fmt.Errorf("MDPDF_PAGE_SIZE %q is not supported", c.PageSize)
	}
	if c.FontSize < 4 || c.FontSize > 72 {
		return fmt.Errorf("MDPDF_FONT_SIZE %v is out of range 4-72", c.FontSize)
	}
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("MDPDF_LOG_LEVEL %q is not one of debug|info|warn|error", c.LogLevel)
	}
	return nil
}

// ValidPageSize reports whether name is a page size the PDF engine knows.
func ValidPageSize(name string) bool {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "a1", "a2", "a3", "a4", "a5", "a6", "letter", "legal", "tabloid":
		return true
	}
	return false
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envInt64(key string, fallback int64) int64 {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
	}
	return fallback
}

func envFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig
	Source    SourceConfig
	Fetch     FetchConfig
	Browser   BrowserConfig
	Engine    EngineConfig
	Store     StoreConfig
	Auth      AuthConfig
	RateLimit RateLimitConfig
	Cache     CacheConfig
	Log       LogConfig
}

// ServerConfig controls the HTTP server.
type ServerConfig struct {
	Host string // default: "0.0.0.0"
	Port int    // default: 8000
	Mode string // "debug", "release", "test"; default: "release"
}

// SourceConfig locates the upstream catalog.
type SourceConfig struct {
	// ListingURL is the paginated ingredient listing; "?page=N" is appended.
	ListingURL string // default: "https://pellwall.com/collections/ingredients-for-perfumery"

	// ProductBaseURL prefixes every slug to form a detail-page URL.
	ProductBaseURL string // default: "https://pellwall.com/products"
}

// FetchConfig controls how upstream pages are fetched.
type FetchConfig struct {
	// Attempts is the maximum number of tries per detail page.
	Attempts int // default: 10

	// Delay is the fixed wait between attempts.
	Delay time.Duration // default: 1s

	// Timeout bounds a single page fetch.
	Timeout time.Duration // default: 30s

	// RequestsPerSecond throttles requests to the upstream site. 0 disables throttling.
	RequestsPerSecond float64 // default: 5

	// Burst is the limiter burst size.
	Burst int // default: 1

	// Concurrency is the default number of detail pages processed in parallel.
	Concurrency int // default: 1
}

// BrowserConfig controls the optional Rod browser engine.
type BrowserConfig struct {
	// Enabled launches a headless browser as a fallback fetch engine.
	Enabled bool // default: false

	// Headless controls whether the browser runs headless.
	Headless bool // default: true

	// MaxPages is the page pool capacity (max concurrent tabs).
	MaxPages int // default: 4

	// NoSandbox disables Chrome's sandbox (needed in Docker).
	NoSandbox bool // default: false

	// BrowserBin overrides the Chromium binary path.
	BrowserBin string

	// Stealth injects anti-bot-detection evasions into every page.
	Stealth bool // default: true
}

// EngineConfig controls the multi-engine racing dispatcher.
type EngineConfig struct {
	// EscalationDelays is the staged start delay for each engine tier.
	EscalationDelays []time.Duration // default: [0s, 5s]

	// MemoryTTL is how long a domain remembers its winning engine.
	MemoryTTL time.Duration // default: 24h
}

// StoreConfig controls product persistence.
type StoreConfig struct {
	// DSN is a SQLite path or a libsql:// URL.
	DSN string // default: "perfumes.db"
}

// AuthConfig controls API key authentication.
type AuthConfig struct {
	// Enabled toggles API key authentication.
	Enabled bool // default: false

	// APIKeys is the list of valid API keys.
	APIKeys []string
}

// RateLimitConfig controls per-key rate limiting of the API.
type RateLimitConfig struct {
	// RequestsPerSecond is the sustained rate per API key.
	RequestsPerSecond float64 // default: 10

	// Burst is the maximum burst size per API key.
	Burst int // default: 20
}

// CacheConfig controls the product query cache.
type CacheConfig struct {
	// MaxEntries is the maximum number of cached query results.
	MaxEntries int // default: 256

	// TTL is how long a cached result stays valid.
	TTL time.Duration // default: 10m
}

// LogConfig controls structured logging.
type LogConfig struct {
	Level  string // default: "info"
	Format string // "json" or "text"; default: "json"
}

// Load reads configuration from environment variables with sane defaults.
func Load() *Config {
	return &Config{
		Server: ServerConfig{
			Host: envOr("PERFUMES_HOST", "0.0.0.0"),
			Port: envIntOr("PERFUMES_PORT", 8000),
			Mode: envOr("PERFUMES_MODE", "release"),
		},
		Source: SourceConfig{
			ListingURL:     envOr("PERFUMES_LISTING_URL", "https://pellwall.com/collections/ingredients-for-perfumery"),
			ProductBaseURL: envOr("PERFUMES_PRODUCT_BASE_URL", "https://pellwall.com/products"),
		},
		Fetch: FetchConfig{
			Attempts:          envIntOr("PERFUMES_FETCH_ATTEMPTS", 10),
			Delay:             envDurationOr("PERFUMES_FETCH_DELAY", time.Second),
			Timeout:           envDurationOr("PERFUMES_FETCH_TIMEOUT", 30*time.Second),
			RequestsPerSecond: envFloatOr("PERFUMES_FETCH_RPS", 5.0),
			Burst:             envIntOr("PERFUMES_FETCH_BURST", 1),
			Concurrency:       envIntOr("PERFUMES_CONCURRENCY", 1),
		},
		Browser: BrowserConfig{
			Enabled:    envBoolOr("PERFUMES_BROWSER_ENABLED", false),
			Headless:   envBoolOr("PERFUMES_HEADLESS", true),
			MaxPages:   envIntOr("PERFUMES_MAX_PAGES", 4),
			NoSandbox:  envBoolOr("PERFUMES_NO_SANDBOX", false),
			BrowserBin: os.Getenv("PERFUMES_BROWSER_BIN"),
			Stealth:    envBoolOr("PERFUMES_STEALTH", true),
		},
		Engine: EngineConfig{
			EscalationDelays: envDurationSliceOr("PERFUMES_ESCALATION_DELAYS", []time.Duration{0, 5 * time.Second}),
			MemoryTTL:        envDurationOr("PERFUMES_ENGINE_MEMORY_TTL", 24*time.Hour),
		},
		Store: StoreConfig{
			DSN: envOr("PERFUMES_DB_DSN", "perfumes.db"),
		},
		Auth: AuthConfig{
			Enabled: envBoolOr("PERFUMES_AUTH_ENABLED", false),
			APIKeys: envSliceOr("PERFUMES_API_KEYS", nil),
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: envFloatOr("PERFUMES_RATE_RPS", 10.0),
			Burst:             envIntOr("PERFUMES_RATE_BURST", 20),
		},
		Cache: CacheConfig{
			MaxEntries: envIntOr("PERFUMES_CACHE_MAX_ENTRIES", 256),
			TTL:        envDurationOr("PERFUMES_CACHE_TTL", 10*time.Minute),
		},
		Log: LogConfig{
			Level:  envOr("PERFUMES_LOG_LEVEL", "info"),
			Format: envOr("PERFUMES_LOG_FORMAT", "json"),
		},
	}
}

func envDurationSliceOr(key string, fallback []time.Duration) []time.Duration {
	if v := os.Getenv(key); v != "" {
		parts := strings.Split(v, ",")
		result := make([]time.Duration, 0, len(parts))
		for _, p := range parts {
			if trimmed := strings.TrimSpace(p); trimmed != "" {
				if d, err := time.ParseDuration(trimmed); err == nil {
					result = append(result, d)
				}
			}
		}
		if len(result) > 0 {
			return result
		}
	}
	return fallback
}

// --- helper functions ---

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envIntOr(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func envBoolOr(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func envFloatOr(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func envDurationOr(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

func envSliceOr(key string, fallback []string) []string {
	if v := os.Getenv(key); v != "" {
		parts := strings.Split(v, ",")
		result := make([]string, 0, len(parts))
		for _, p := range parts {
			if trimmed := strings.TrimSpace(p); trimmed != "" {
				result = append(result, trimmed)
			}
		}
		return result
	}
	return fallback
}

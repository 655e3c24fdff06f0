package twitter

import (
	"time"

	"github.com/anatolykoptev/go-stealth/ratelimit"
)

// ClientConfig holds all configuration for the RapidAPI client.
type ClientConfig struct {
	// Keys is the pool of RapidAPI keys to rotate through.
	Keys []*APIKey

	// BaseURL is the proxy base URL. Default: DefaultBaseURL.
	BaseURL string

	// DefaultProxy is the proxy URL for keys without a per-key proxy.
	DefaultProxy string

	// KeyCooldown is the soft-deactivation duration for rejected or exhausted keys.
	KeyCooldown time.Duration

	// RateLimit configures per-key per-endpoint rate limiting.
	RateLimit ratelimit.Config

	// KeyWait bounds how long a request waits for a rate-limited key to free up.
	KeyWait time.Duration

	// MetricsHook is called on each API request for external metrics collection.
	// endpoint is the operation name, success and rateLimited indicate the outcome.
	MetricsHook func(endpoint string, success, rateLimited bool)

	// NoJitter disables the anti-fingerprint delay before each request.
	NoJitter bool

	// ProxyBackoffInitial is the initial backoff for proxy failures.
	ProxyBackoffInitial time.Duration

	// ProxyBackoffMax is the maximum backoff for proxy failures.
	ProxyBackoffMax time.Duration
}

// defaults fills in zero-value config fields with sensible defaults.
func (cfg *ClientConfig) defaults() {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.KeyCooldown == 0 {
		cfg.KeyCooldown = 1 * time.Hour
	}
	if cfg.RateLimit.RequestsPerWindow == 0 {
		cfg.RateLimit = ratelimit.DefaultConfig
	}
	if cfg.KeyWait == 0 {
		cfg.KeyWait = 2 * time.Minute
	}
	if cfg.ProxyBackoffInitial == 0 {
		cfg.ProxyBackoffInitial = 30 * time.Second
	}
	if cfg.ProxyBackoffMax == 0 {
		cfg.ProxyBackoffMax = 30 * time.Minute
	}
}

// CrawlConfig controls a timeline crawl.
type CrawlConfig struct {
	// PageSize is the count requested per user-tweets page. Default 20.
	PageSize int

	// Policy selects the primary termination rule. Default StopOnCursor.
	Policy StopPolicy

	// MaxPosts caps the number of collected candidates; 0 means no cap.
	MaxPosts int

	// FetchFullText requests each tweet individually to obtain untruncated text.
	FetchFullText bool
}

func (cfg *CrawlConfig) defaults() {
	if cfg.PageSize <= 0 {
		cfg.PageSize = 20
	}
}

package twitter

import (
	"log/slog"
	"strings"
	"sync"
	"time"

	stealth "github.com/anatolykoptev/go-stealth"
	"github.com/anatolykoptev/go-stealth/pool"
	"github.com/anatolykoptev/go-stealth/ratelimit"
)

// APIKey is one RapidAPI subscription key in the rotation pool.
type APIKey struct {
	Key       string
	Proxy     string
	UserAgent string
	Profile   stealth.BrowserProfile

	active       bool
	reactivateAt time.Time
	client       *stealth.BrowserClient

	mu               sync.Mutex
	proxyBackoff     time.Time
	proxyConsecFails int
	rateLimiter      *ratelimit.Limiter

	pool.HealthTracker
}

// ID implements pool.Identity. Only a masked prefix is exposed so keys never
// reach logs or alert payloads.
func (k *APIKey) ID() string { return maskKey(k.Key) }

// IsActive implements pool.Identity.
func (k *APIKey) IsActive() bool { return k.active }

// SetActive implements pool.Identity.
func (k *APIKey) SetActive(v bool) { k.active = v }

// ReactivateAt implements pool.Identity.
func (k *APIKey) ReactivateAt() time.Time { return k.reactivateAt }

// SetReactivateAt implements pool.Identity.
func (k *APIKey) SetReactivateAt(t time.Time) { k.reactivateAt = t }

// AllowRequest checks if this key can make a request to the given endpoint.
func (k *APIKey) AllowRequest(endpoint string) bool {
	k.mu.Lock()
	if k.rateLimiter == nil {
		k.mu.Unlock()
		return true
	}
	rl := k.rateLimiter
	k.mu.Unlock()
	return rl.Allow(endpoint)
}

// MarkEndpointRateLimited marks an endpoint as rate-limited for this key.
func (k *APIKey) MarkEndpointRateLimited(endpoint string, until time.Time) {
	k.mu.Lock()
	if k.rateLimiter == nil {
		k.mu.Unlock()
		return
	}
	rl := k.rateLimiter
	k.mu.Unlock()
	rl.MarkRateLimited(endpoint, until)
}

// usable reports whether the key may be picked for endpoint right now.
func (k *APIKey) usable(endpoint string) bool {
	k.mu.Lock()
	backoff := k.proxyBackoff
	k.mu.Unlock()
	return time.Now().After(backoff) && k.AllowRequest(endpoint)
}

// AssignBrowserProfile sets a browser profile based on index.
func AssignBrowserProfile(k *APIKey, idx int) {
	p := stealth.BuiltinProfiles[idx%len(stealth.BuiltinProfiles)]
	k.Profile = p
	k.UserAgent = p.UserAgent
}

// ParseAPIKeys parses a comma-separated list of keys.
// Format: "key1,key2" or "key1|http://proxy:8080,key2".
func ParseAPIKeys(raw string) []*APIKey {
	var keys []*APIKey
	for _, entry := range strings.Split(raw, ",") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		key, proxy, _ := strings.Cut(entry, "|")
		key = strings.TrimSpace(key)
		if key == "" {
			slog.Warn("invalid api key entry, skipping", slog.String("entry", maskKey(entry)))
			continue
		}
		k := &APIKey{
			Key:    key,
			Proxy:  strings.TrimSpace(proxy),
			active: true,
		}
		AssignBrowserProfile(k, len(keys))
		keys = append(keys, k)
	}
	return keys
}

func maskKey(key string) string {
	if len(key) <= 6 {
		return "***"
	}
	return key[:6] + "***"
}

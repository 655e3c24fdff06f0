package twitter

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"

	stealth "github.com/anatolykoptev/go-stealth"
	"github.com/anatolykoptev/go-stealth/pool"
	"github.com/anatolykoptev/go-stealth/ratelimit"
)

// PageFetcher returns the raw body of one API response.
// Non-2xx responses must surface as *FetchError.
type PageFetcher interface {
	FetchPage(ctx context.Context, endpoint string, params url.Values) ([]byte, error)
}

// Client is the RapidAPI Twitter proxy client.
type Client struct {
	client *stealth.BrowserClient
	pool   *pool.Pool[*APIKey]
	cfg    ClientConfig
	host   string
}

// NewClient creates a fully-wired client.
func NewClient(cfg ClientConfig) (*Client, error) {
	cfg.defaults()
	if len(cfg.Keys) == 0 {
		return nil, fmt.Errorf("no RapidAPI keys configured")
	}

	base, err := url.Parse(cfg.BaseURL)
	if err != nil || base.Host == "" {
		return nil, fmt.Errorf("invalid base url %q", cfg.BaseURL)
	}

	for _, k := range cfg.Keys {
		k.rateLimiter = ratelimit.NewLimiter(cfg.RateLimit)
		k.HealthTracker = pool.DefaultHealthTracker()
	}

	opts := []stealth.ClientOption{
		stealth.WithHeaderOrder(rapidAPIHeaderOrder),
	}
	if cfg.DefaultProxy != "" {
		opts = append(opts, stealth.WithProxy(cfg.DefaultProxy))
	}
	bc, err := stealth.NewClient(opts...)
	if err != nil {
		return nil, fmt.Errorf("stealth client: %w", err)
	}

	poolCfg := pool.Config{
		AlertHook: func(topic string, payload any) {
			slog.Warn("key pool alert", slog.String("topic", topic), slog.Any("payload", payload))
		},
		ProxyBackoff: pool.BackoffConfig{
			InitialWait: cfg.ProxyBackoffInitial,
			MaxWait:     cfg.ProxyBackoffMax,
			Multiplier:  2.0,
			JitterPct:   0.3,
		},
	}

	c := &Client{
		client: bc,
		pool:   pool.New(cfg.Keys, poolCfg),
		cfg:    cfg,
		host:   base.Host,
	}

	for _, k := range cfg.Keys {
		if k.Proxy == "" {
			continue
		}
		keyClient, err := stealth.NewClient(
			stealth.WithProxy(k.Proxy),
			stealth.WithProfile(k.Profile.TLSProfile),
			stealth.WithHeaderOrder(rapidAPIHeaderOrder),
		)
		if err != nil {
			slog.Warn("per-key client failed", slog.String("key", k.ID()), slog.Any("error", err))
			continue
		}
		k.client = keyClient
	}

	return c, nil
}

// clientForKey returns the per-key client if available, otherwise the shared client.
func (c *Client) clientForKey(k *APIKey) *stealth.BrowserClient {
	if k.client != nil {
		return k.client
	}
	return c.client
}

// FetchPage implements PageFetcher.
func (c *Client) FetchPage(ctx context.Context, endpoint string, params url.Values) ([]byte, error) {
	u, err := EndpointURL(c.cfg.BaseURL, endpoint, params)
	if err != nil {
		return nil, err
	}
	return c.doGET(ctx, endpoint, u)
}

// Pool returns the underlying key pool.
func (c *Client) Pool() *pool.Pool[*APIKey] {
	return c.pool
}

// recordAPICall calls the metrics hook if configured.
func (c *Client) recordAPICall(endpoint string, success, rateLimited bool) {
	if c.cfg.MetricsHook != nil {
		c.cfg.MetricsHook(endpoint, success, rateLimited)
	}
}

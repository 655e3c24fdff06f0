package twitter

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	stealth "github.com/anatolykoptev/go-stealth"
)

const maxRetries = 3

// doGET executes a GET request, rotating keys on rate limits and rejected keys.
// Any other non-2xx response is returned immediately as a *FetchError.
func (c *Client) doGET(ctx context.Context, endpoint, url string) ([]byte, error) {
	if !c.cfg.NoJitter {
		// Anti-fingerprint jitter
		if err := stealth.DefaultJitter.Sleep(ctx); err != nil {
			return nil, err
		}
	}

	var lastErr error
	for attempt := range maxRetries {
		if attempt > 0 {
			delay := stealth.DefaultBackoff.Duration(attempt)
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}

		key, keyErr := c.pool.NextWithWait(ctx, func(k *APIKey) bool {
			return k.usable(endpoint)
		}, c.cfg.KeyWait)
		if keyErr != nil {
			if lastErr == nil {
				lastErr = keyErr
			}
			break
		}

		body, respHdrs, status, err := c.clientForKey(key).DoWithHeaderOrder(
			"GET", url, rapidAPIHeaders(c.host, key.Key, key.UserAgent), nil, rapidAPIHeaderOrder)
		if err != nil {
			if key.Proxy != "" && isProxyError(err) {
				c.markProxyDown(key)
			} else {
				key.RecordFailure()
			}
			lastErr = err
			continue
		}

		key.mu.Lock()
		key.proxyConsecFails = 0
		key.mu.Unlock()

		errClass := classifyError(body)
		switch {
		case status == 429 || errClass == errRateLimited:
			c.recordAPICall(endpoint, false, true)
			key.MarkEndpointRateLimited(endpoint, parseRateLimitReset(respHdrs["x-ratelimit-requests-reset"]))
			slog.Warn("key rate limited", slog.String("key", key.ID()), slog.String("endpoint", endpoint))
			lastErr = &FetchError{Endpoint: endpoint, Status: 429, Body: truncateBytes(body, 200)}
			continue

		case status == 401 || status == 403 || errClass == errNotSubscribed ||
			errClass == errInvalidKey || errClass == errQuotaExceeded:
			c.recordAPICall(endpoint, false, false)
			slog.Warn("key rejected, cooling down",
				slog.String("key", key.ID()),
				slog.Int("status", status),
				slog.String("class", errClass.String()))
			c.pool.SoftDeactivate(key, c.cfg.KeyCooldown)
			lastErr = &FetchError{Endpoint: endpoint, Status: status, Body: truncateBytes(body, 200)}
			continue

		case status < 200 || status > 299:
			c.recordAPICall(endpoint, false, false)
			slog.Warn("doGET non-2xx", slog.String("endpoint", endpoint), slog.Int("status", status), slog.String("body", truncateBytes(body, 500)))
			if shouldDeactivate := key.RecordFailure(); shouldDeactivate {
				total, failed, consec := key.Stats()
				slog.Warn("key unhealthy, deactivating",
					slog.String("key", key.ID()),
					slog.Int("total", total),
					slog.Int("failed", failed),
					slog.Int("consec", consec))
				c.pool.DeactivateItem(key)
			}
			return nil, &FetchError{Endpoint: endpoint, Status: status, Body: truncateBytes(body, 200)}

		case errClass == errUpstream:
			c.recordAPICall(endpoint, false, false)
			key.RecordFailure()
			return nil, &FetchError{Endpoint: endpoint, Status: status, Body: truncateBytes(body, 200)}
		}

		c.recordAPICall(endpoint, true, false)
		key.RecordSuccess()
		return body, nil
	}

	var fe *FetchError
	if errors.As(lastErr, &fe) {
		return nil, fe
	}
	if lastErr != nil {
		return nil, fmt.Errorf("%s failed after %d attempts: %w", endpoint, maxRetries, lastErr)
	}
	return nil, fmt.Errorf("%s failed after %d attempts", endpoint, maxRetries)
}

// isProxyError returns true if the error looks like a proxy connectivity failure.
func isProxyError(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "proxy") ||
		strings.Contains(msg, "SOCKS") ||
		strings.Contains(msg, "tunnel") ||
		strings.Contains(msg, "connection refused") ||
		strings.Contains(msg, "no such host")
}

// markProxyDown applies exponential backoff for proxy failures.
func (c *Client) markProxyDown(k *APIKey) {
	k.mu.Lock()
	k.proxyConsecFails++
	fails := k.proxyConsecFails
	k.mu.Unlock()

	duration := stealth.BackoffConfig{
		InitialWait: c.cfg.ProxyBackoffInitial,
		MaxWait:     c.cfg.ProxyBackoffMax,
		Multiplier:  2.0,
		JitterPct:   0.3,
	}.Duration(fails - 1)

	k.mu.Lock()
	k.proxyBackoff = time.Now().Add(duration)
	k.mu.Unlock()

	slog.Warn("proxy down, backing off",
		slog.String("key", k.ID()),
		slog.String("proxy", stealth.MaskProxy(k.Proxy)),
		slog.Int("consec_fails", fails),
		slog.Duration("backoff", duration))
}

func truncateBytes(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}

// hasResponseData returns true if the JSON body carries a non-null "result" or
// "data" field.
func hasResponseData(body []byte) bool {
	var probe struct {
		Result json.RawMessage `json:"result"`
		Data   json.RawMessage `json:"data"`
	}
	if json.Unmarshal(body, &probe) != nil {
		return false
	}
	present := func(m json.RawMessage) bool { return len(m) > 0 && string(m) != "null" }
	return present(probe.Result) || present(probe.Data)
}

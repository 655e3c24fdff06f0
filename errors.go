package twitter

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ErrAccountNotFound is matched by every *AccountNotFoundError.
var ErrAccountNotFound = errors.New("account not found")

// ErrIndexOutOfRange is returned by ExampleSet.RemoveAt for a bad index.
var ErrIndexOutOfRange = errors.New("index out of range")

// AccountNotFoundError reports that a username did not resolve to a user id.
type AccountNotFoundError struct {
	Username string
}

func (e *AccountNotFoundError) Error() string {
	return fmt.Sprintf("account not found: @%s", e.Username)
}

func (e *AccountNotFoundError) Is(target error) bool { return target == ErrAccountNotFound }

// FetchError is a non-2xx response from the API.
type FetchError struct {
	Endpoint string
	Status   int
	Body     string
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("%s HTTP %d: %s", e.Endpoint, e.Status, e.Body)
}

// NormalizeError explains why one tweet candidate was dropped.
type NormalizeError struct {
	ID     string
	Reason string
}

func (e *NormalizeError) Error() string {
	if e.ID == "" {
		return "normalize tweet: " + e.Reason
	}
	return fmt.Sprintf("normalize tweet %s: %s", e.ID, e.Reason)
}

// ReconstructError explains why one conversation entry produced no dialogue.
type ReconstructError struct {
	Index  int
	Reason string
}

func (e *ReconstructError) Error() string {
	return fmt.Sprintf("conversation entry %d: %s", e.Index, e.Reason)
}

// errorClass categorizes RapidAPI error responses for targeted handling.
type errorClass int

const (
	errNone          errorClass = iota
	errRateLimited              // "Too many requests"
	errQuotaExceeded            // monthly/daily plan quota used up
	errNotSubscribed            // key is not subscribed to the API
	errInvalidKey               // key rejected
	errUpstream                 // Twitter error passed through in errors[]
)

func (c errorClass) String() string {
	switch c {
	case errRateLimited:
		return "rate_limited"
	case errQuotaExceeded:
		return "quota_exceeded"
	case errNotSubscribed:
		return "not_subscribed"
	case errInvalidKey:
		return "invalid_key"
	case errUpstream:
		return "upstream"
	}
	return "none"
}

// classifyError inspects a response body for known RapidAPI and Twitter error shapes.
func classifyError(body []byte) errorClass {
	var errResp struct {
		Message string `json:"message"`
		Error   string `json:"error"`
		Errors  []struct {
			Code    int    `json:"code"`
			Message string `json:"message"`
		} `json:"errors"`
	}
	if json.Unmarshal(body, &errResp) != nil {
		return errNone
	}

	msg := strings.ToLower(errResp.Message + " " + errResp.Error)
	switch {
	case strings.Contains(msg, "too many requests") || strings.Contains(msg, "rate limit"):
		return errRateLimited
	case strings.Contains(msg, "exceeded the") && strings.Contains(msg, "quota"):
		return errQuotaExceeded
	case strings.Contains(msg, "not subscribed"):
		return errNotSubscribed
	case strings.Contains(msg, "invalid api key"):
		return errInvalidKey
	}
	for _, e := range errResp.Errors {
		if e.Code == 88 {
			return errRateLimited
		}
	}
	if len(errResp.Errors) > 0 && !hasResponseData(body) {
		return errUpstream
	}
	return errNone
}

// parseRateLimitReset parses the X-RateLimit-Requests-Reset header, which holds
// the number of seconds until the window resets.
// Falls back to one minute from now if missing or invalid.
func parseRateLimitReset(v string) time.Time {
	if secs, err := strconv.ParseInt(v, 10, 64); err == nil && secs >= 0 {
		return time.Now().Add(time.Duration(secs) * time.Second)
	}
	return time.Now().Add(time.Minute)
}

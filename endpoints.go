package twitter

import (
	"fmt"
	"net/url"
	"strings"
)

// DefaultBaseURL is the RapidAPI Twitter proxy the client talks to by default.
const DefaultBaseURL = "https://twitter241.p.rapidapi.com"

// Endpoint names accepted by FetchPage.
const (
	EndpointUser       = "user"
	EndpointUserTweets = "user-tweets"
	EndpointTweet      = "tweet"
	EndpointComments   = "comments"
)

// Endpoint describes one proxy route.
type Endpoint struct {
	Path string
	// Required lists query parameters that must be present.
	Required []string
}

// Endpoints maps operation names to their proxy routes.
var Endpoints = map[string]Endpoint{
	EndpointUser:       {Path: "/user", Required: []string{"username"}},
	EndpointUserTweets: {Path: "/user-tweets", Required: []string{"user", "count"}},
	EndpointTweet:      {Path: "/tweet", Required: []string{"pid"}},
	EndpointComments:   {Path: "/comments", Required: []string{"pid"}},
}

// EndpointURL returns the full URL for a named operation, or an error if the
// operation is unknown or a required parameter is missing.
func EndpointURL(baseURL, operation string, params url.Values) (string, error) {
	ep, ok := Endpoints[operation]
	if !ok {
		return "", fmt.Errorf("unknown operation: %s", operation)
	}
	for _, name := range ep.Required {
		if params.Get(name) == "" {
			return "", fmt.Errorf("%s: missing parameter %q", operation, name)
		}
	}
	u := strings.TrimRight(baseURL, "/") + ep.Path
	if len(params) > 0 {
		u += "?" + params.Encode()
	}
	return u, nil
}

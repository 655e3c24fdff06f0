package twitter

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAPIKeys(t *testing.T) {
	keys := ParseAPIKeys(" abcdefgh1 , , xyz987654|http://proxy:8080,|http://nokey:1")
	require.Len(t, keys, 2)

	assert.Equal(t, "abcdefgh1", keys[0].Key)
	assert.Empty(t, keys[0].Proxy)
	assert.True(t, keys[0].IsActive())
	assert.NotEmpty(t, keys[0].UserAgent)

	assert.Equal(t, "xyz987654", keys[1].Key)
	assert.Equal(t, "http://proxy:8080", keys[1].Proxy)
	assert.Equal(t, keys[1].Profile.UserAgent, keys[1].UserAgent)
}

func TestParseAPIKeys_Empty(t *testing.T) {
	assert.Empty(t, ParseAPIKeys(""))
	assert.Empty(t, ParseAPIKeys(" , "))
}

func TestMaskKey(t *testing.T) {
	assert.Equal(t, "***", maskKey("short"))
	assert.Equal(t, "abcdef***", maskKey("abcdefghijkl"))

	k := &APIKey{Key: "supersecretkey"}
	assert.NotContains(t, k.ID(), "secretkey")
}

func TestAPIKey_AllowRequestWithoutLimiter(t *testing.T) {
	k := &APIKey{Key: "abcdefgh"}
	assert.True(t, k.AllowRequest(EndpointUser))
	assert.True(t, k.usable(EndpointUser))
	k.MarkEndpointRateLimited(EndpointUser, time.Now().Add(time.Hour))
	assert.True(t, k.AllowRequest(EndpointUser))
}

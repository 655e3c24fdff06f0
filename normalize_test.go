package twitter

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func candidateFrom(t *testing.T, result string) Candidate {
	t.Helper()
	page, err := ExtractTimeline([]byte(timelineJSON("", entryJSON("tweet-x", result))))
	require.NoError(t, err)
	require.Len(t, page.Candidates, 1)
	return page.Candidates[0]
}

func TestNormalize_Basic(t *testing.T) {
	c := candidateFrom(t, tweetJSON("1", "42", "hello world", ""))

	p, err := Normalize(c, "alice")
	require.NoError(t, err)
	assert.Equal(t, "1", p.ID)
	assert.Equal(t, "hello world", p.Text)
	assert.Equal(t, "alice", p.Author)
	assert.False(t, p.IsReply)
	assert.False(t, p.IsRetweet)
	assert.Equal(t, 10, p.Likes)
	assert.Equal(t, 5, p.RetweetCount)
	assert.Equal(t, 0, p.Replies)
	assert.Equal(t, "https://twitter.com/alice/status/1", p.PermanentURL)

	want := time.Date(2024, time.January, 2, 15, 4, 5, 0, time.UTC)
	assert.True(t, p.CreatedAt.Equal(want))
	assert.Equal(t, want.UnixMilli(), p.Timestamp)

	assert.NotNil(t, p.Photos)
	assert.NotNil(t, p.Videos)
	assert.NotNil(t, p.URLs)
	assert.NotNil(t, p.Hashtags)
	assert.Empty(t, p.Photos)
}

func TestNormalize_Retweet(t *testing.T) {
	inner := tweetJSON("200", "7", "original", "")
	wrapper := tweetJSON("100", "42", "RT", fmt.Sprintf(`, "retweeted_status_result": {"result": %s}`, inner))

	p, err := Normalize(candidateFrom(t, wrapper), "alice")
	require.NoError(t, err)
	assert.Equal(t, "original", p.Text)
	assert.True(t, p.IsRetweet)
}

func TestNormalize_AuthorFromCore(t *testing.T) {
	result := tweetJSON("5", "7", "hi", `, "core": {"user_results": {"result": {"rest_id": "7", "core": {"screen_name": "bob"}}}}`)

	p, err := Normalize(candidateFrom(t, result), "alice")
	require.NoError(t, err)
	assert.Equal(t, "bob", p.Author)
	assert.Equal(t, PermanentURL("bob", "5"), p.PermanentURL)
}

func TestNormalize_EntitiesAndMedia(t *testing.T) {
	result := `{
		"rest_id": "77",
		"legacy": {
			"full_text": "look #go https://t.co/x",
			"created_at": "Wed Mar 06 08:00:00 +0000 2024",
			"reply_count": 3,
			"retweeted": true,
			"entities": {
				"hashtags": [{"text": "go", "indices": [5, 8]}],
				"urls": [{"url": "https://t.co/x", "expanded_url": "https://go.dev", "display_url": "go.dev", "indices": [9, 23]}]
			},
			"extended_entities": {
				"media": [
					{"id_str": "m1", "type": "photo", "media_url_https": "https://pbs.twimg.com/1.jpg"},
					{"id_str": "m2", "type": "video", "video_info": {"duration_millis": 1000, "variants": [{"bitrate": 832000, "content_type": "video/mp4", "url": "https://video.twimg.com/2.mp4"}]}},
					{"id_str": "m3", "type": "animated_gif"},
					{"id_str": "m4", "type": "photo"}
				]
			}
		}
	}`

	p, err := Normalize(candidateFrom(t, result), "alice")
	require.NoError(t, err)
	assert.True(t, p.IsReply)
	assert.Equal(t, 3, p.Replies)
	assert.True(t, p.IsRetweet)

	require.Len(t, p.Photos, 2)
	assert.Equal(t, "m1", p.Photos[0].ID)
	assert.Equal(t, "m4", p.Photos[1].ID)
	require.Len(t, p.Videos, 1)
	require.NotNil(t, p.Videos[0].VideoInfo)
	assert.Equal(t, "video/mp4", p.Videos[0].VideoInfo.Variants[0].ContentType)

	require.Len(t, p.Hashtags, 1)
	assert.Equal(t, "go", p.Hashtags[0].Text)
	require.Len(t, p.URLs, 1)
	assert.Equal(t, "https://go.dev", p.URLs[0].ExpandedURL)
}

func TestNormalize_NoteTweetWins(t *testing.T) {
	result := tweetJSON("1", "42", "short…", `, "note_tweet": {"note_tweet_results": {"result": {"text": "long form body"}}}`)

	p, err := Normalize(candidateFrom(t, result), "alice")
	require.NoError(t, err)
	assert.Equal(t, "long form body", p.Text)
}

func TestNormalize_Failures(t *testing.T) {
	tests := []struct {
		name   string
		result string
		id     string
	}{
		{"no id", `{"legacy": {"full_text": "x", "created_at": "Mon Jan 02 15:04:05 +0000 2024"}}`, ""},
		{"no date", `{"rest_id": "2", "legacy": {"full_text": "x"}}`, "2"},
		{"bad date", `{"rest_id": "3", "legacy": {"full_text": "x", "created_at": "yesterday"}}`, "3"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Normalize(candidateFrom(t, tt.result), "alice")
			require.Error(t, err)
			var ne *NormalizeError
			require.True(t, errors.As(err, &ne))
			assert.Equal(t, tt.id, ne.ID)
		})
	}
}

func TestNormalize_Idempotent(t *testing.T) {
	c := candidateFrom(t, tweetJSON("1", "42", "same", `, "note_tweet": {"note_tweet_results": {"result": {"text": "same but longer"}}}`))

	first, err := Normalize(c, "alice")
	require.NoError(t, err)
	second, err := Normalize(c, "alice")
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestNormalize_TimestampRoundTrip(t *testing.T) {
	for _, created := range []string{
		"Mon Jan 02 15:04:05 +0000 2006",
		"Sat Feb 29 23:59:59 +0000 2020",
		"Thu Jan 01 00:00:00 +0000 1970",
	} {
		result := fmt.Sprintf(`{"rest_id": "1", "legacy": {"full_text": "t", "created_at": %q}}`, created)
		p, err := Normalize(candidateFrom(t, result), "alice")
		require.NoError(t, err)

		parsed, err := time.Parse(twitterTimeLayout, created)
		require.NoError(t, err)
		assert.Equal(t, parsed.UnixMilli(), p.Timestamp, created)
		assert.Equal(t, p.Timestamp, p.CreatedAt.UnixMilli())
	}
}

package twitter

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// tweetJSON renders a minimal tweet result. extra is spliced into the result
// object and must start with a comma when non-empty.
func tweetJSON(id, userID, text, extra string) string {
	return fmt.Sprintf(`{
		"__typename": "Tweet",
		"rest_id": %q,
		"legacy": {
			"full_text": %q,
			"created_at": "Mon Jan 02 15:04:05 +0000 2024",
			"favorite_count": 10,
			"retweet_count": 5,
			"reply_count": 0,
			"user_id_str": %q
		}%s
	}`, id, text, userID, extra)
}

func entryJSON(entryID, result string) string {
	return fmt.Sprintf(`{
		"entryId": %q,
		"content": {
			"entryType": "TimelineTimelineItem",
			"__typename": "TimelineTimelineItem",
			"itemContent": {
				"__typename": "TimelineTweet",
				"tweet_results": {"result": %s}
			}
		}
	}`, entryID, result)
}

func timelineJSON(bottom string, entries ...string) string {
	cursor := ""
	if bottom != "" {
		cursor = fmt.Sprintf(`, "cursor": {"bottom": %q, "top": "top-0"}`, bottom)
	}
	return fmt.Sprintf(`{
		"result": {
			"timeline": {
				"instructions": [
					{"type": "TimelineClearCache"},
					{"type": "TimelineAddEntries", "entries": [%s]}
				]
			}
		}%s
	}`, strings.Join(entries, ","), cursor)
}

func TestExtractTimeline_DirectTweet(t *testing.T) {
	body := timelineJSON("c1", entryJSON("tweet-1", tweetJSON("1", "42", "hello world", "")))

	page, err := ExtractTimeline([]byte(body))
	require.NoError(t, err)
	require.Len(t, page.Candidates, 1)
	assert.Equal(t, "1", page.Candidates[0].ID())
	assert.False(t, page.Candidates[0].Retweet)
	assert.Equal(t, "c1", page.BottomCursor)
	assert.Equal(t, "top-0", page.TopCursor)
}

func TestExtractTimeline_RetweetYieldsOriginal(t *testing.T) {
	inner := tweetJSON("200", "7", "original", "")
	wrapper := fmt.Sprintf(`{
		"__typename": "Tweet",
		"rest_id": "100",
		"legacy": {
			"full_text": "RT @someone: origi…",
			"created_at": "Mon Jan 02 15:04:05 +0000 2024",
			"user_id_str": "42",
			"retweeted_status_result": {"result": %s}
		}
	}`, inner)

	page, err := ExtractTimeline([]byte(timelineJSON("", entryJSON("tweet-100", wrapper))))
	require.NoError(t, err)
	require.Len(t, page.Candidates, 1)
	c := page.Candidates[0]
	assert.Equal(t, "200", c.ID())
	assert.True(t, c.Retweet)
	assert.Equal(t, "original", resolveText(c.result))
}

func TestExtractTimeline_TopLevelRetweetWrapper(t *testing.T) {
	inner := tweetJSON("200", "7", "original", "")
	wrapper := tweetJSON("100", "42", "RT", fmt.Sprintf(`, "retweeted_status_result": {"result": %s}`, inner))

	page, err := ExtractTimeline([]byte(timelineJSON("", entryJSON("tweet-100", wrapper))))
	require.NoError(t, err)
	require.Len(t, page.Candidates, 1)
	assert.Equal(t, "200", page.Candidates[0].ID())
}

func TestExtractTimeline_RetweetOfMissingLegacyDropped(t *testing.T) {
	wrapper := tweetJSON("100", "42", "RT", `, "retweeted_status_result": {"result": {"__typename": "Tweet", "rest_id": "200"}}`)

	page, err := ExtractTimeline([]byte(timelineJSON("", entryJSON("tweet-100", wrapper))))
	require.NoError(t, err)
	assert.Empty(t, page.Candidates, "wrapper must never be yielded in place of its original")
}

func TestExtractTimeline_FiltersNonTweets(t *testing.T) {
	noLegacy := entryJSON("tweet-3", `{"__typename": "Tweet", "rest_id": "3"}`)
	cursor := `{
		"entryId": "cursor-bottom-123",
		"content": {
			"entryType": "TimelineTimelineCursor",
			"__typename": "TimelineTimelineCursor",
			"value": "from-entry",
			"cursorType": "Bottom"
		}
	}`
	module := `{"entryId": "who-to-follow-1", "content": {"entryType": "TimelineTimelineModule", "items": []}}`
	emptyResult := `{"entryId": "tweet-4", "content": {"itemContent": {"tweet_results": {}}}}`

	page, err := ExtractTimeline([]byte(timelineJSON("",
		noLegacy, cursor, module, emptyResult,
		entryJSON("tweet-5", tweetJSON("5", "42", "kept", "")),
	)))
	require.NoError(t, err)
	require.Len(t, page.Candidates, 1)
	assert.Equal(t, "5", page.Candidates[0].ID())
	assert.Equal(t, "from-entry", page.BottomCursor)
}

func TestExtractTimeline_VisibilityWrapper(t *testing.T) {
	wrapped := fmt.Sprintf(`{"__typename": "TweetWithVisibilityResults", "tweet": %s}`,
		tweetJSON("9", "42", "limited", ""))

	page, err := ExtractTimeline([]byte(timelineJSON("", entryJSON("tweet-9", wrapped))))
	require.NoError(t, err)
	require.Len(t, page.Candidates, 1)
	assert.Equal(t, "9", page.Candidates[0].ID())
}

func TestExtractTimeline_IgnoresNonAddInstructions(t *testing.T) {
	body := fmt.Sprintf(`{
		"result": {
			"timeline": {
				"instructions": [
					{"type": "TimelinePinEntry", "entry": %s}
				]
			}
		}
	}`, entryJSON("tweet-1", tweetJSON("1", "42", "pinned", "")))

	page, err := ExtractTimeline([]byte(body))
	require.NoError(t, err)
	assert.Empty(t, page.Candidates)
}

func TestExtractTimeline_InvalidJSON(t *testing.T) {
	_, err := ExtractTimeline([]byte(`{invalid`))
	require.Error(t, err)
}

func TestParseUser(t *testing.T) {
	body := `{
		"result": {
			"data": {
				"user": {
					"result": {
						"__typename": "User",
						"rest_id": "12345",
						"legacy": {
							"screen_name": "testuser",
							"statuses_count": 200
						}
					}
				}
			}
		}
	}`

	user, err := parseUser([]byte(body))
	require.NoError(t, err)
	require.NotNil(t, user)
	assert.Equal(t, "12345", user.ID)
	assert.Equal(t, "testuser", user.Handle)
	assert.Equal(t, 200, user.TweetCount)
}

func TestParseUser_NotFound(t *testing.T) {
	for _, body := range []string{
		`{"result": {"data": {"user": {}}}}`,
		`{"result": {"data": {"user": {"result": {"__typename": "UserUnavailable"}}}}}`,
		`{}`,
	} {
		user, err := parseUser([]byte(body))
		require.NoError(t, err)
		assert.Nil(t, user, body)
	}
}

func TestParseFullText(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"plain", `{"tweet": {"full_text": "short"}}`, "short"},
		{"note tweet", `{"tweet": {"full_text": "trunc…", "note_tweet": {"note_tweet_results": {"result": {"text": "the whole thing"}}}}}`, "the whole thing"},
		{"graphql shape", `{"result": {"tweetResult": {"result": ` + tweetJSON("1", "2", "nested", "") + `}}}`, "nested"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseFullText([]byte(tt.body))
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := parseFullText([]byte(`{"tweet": {}}`))
	require.Error(t, err)
}

func TestResolveText(t *testing.T) {
	note := tweetJSON("1", "2", "truncated…", `, "note_tweet": {"note_tweet_results": {"result": {"text": "full body"}}}`)
	page, err := ExtractTimeline([]byte(timelineJSON("", entryJSON("tweet-1", note))))
	require.NoError(t, err)
	require.Len(t, page.Candidates, 1)
	assert.Equal(t, "full body", resolveText(page.Candidates[0].result))

	emptyNote := tweetJSON("1", "2", "legacy text", `, "note_tweet": {"note_tweet_results": {"result": {"text": ""}}}`)
	page, err = ExtractTimeline([]byte(timelineJSON("", entryJSON("tweet-1", emptyNote))))
	require.NoError(t, err)
	assert.Equal(t, "legacy text", resolveText(page.Candidates[0].result))

	assert.Equal(t, "", resolveText(nil))
}

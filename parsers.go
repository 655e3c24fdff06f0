package twitter

import (
	"encoding/json"
	"fmt"
	"strings"
)

// twitterTimeLayout is the created_at format used throughout the legacy API.
const twitterTimeLayout = "Mon Jan 02 15:04:05 +0000 2006"

// maxUnwrapDepth bounds retweet/visibility unwrapping.
const maxUnwrapDepth = 4

// --- Timeline types ---

type timelineObj struct {
	Instructions []timelineInstruction `json:"instructions"`
}

type timelineInstruction struct {
	Type    string          `json:"type"`
	Entries []timelineEntry `json:"entries"`
	Entry   *timelineEntry  `json:"entry"`
}

type timelineEntry struct {
	EntryID   string          `json:"entryId"`
	SortIndex string          `json:"sortIndex"`
	Content   timelineContent `json:"content"`
}

type timelineContent struct {
	EntryType   string          `json:"entryType"`
	TypeName    string          `json:"__typename"`
	ItemContent *itemContent    `json:"itemContent"`
	Items       json.RawMessage `json:"items"`
	Value       string          `json:"value"`
	CursorType  string          `json:"cursorType"`
}

type itemContent struct {
	TypeName     string         `json:"__typename"`
	CursorType   string         `json:"cursorType"`
	TweetResults tweetResultRef `json:"tweet_results"`
}

type tweetResultRef struct {
	Result *tweetResult `json:"result"`
}

type userResult struct {
	TypeName string `json:"__typename"`
	RestID   string `json:"rest_id"`
	Core     struct {
		ScreenName string `json:"screen_name"`
	} `json:"core"`
	Legacy struct {
		ScreenName    string `json:"screen_name"`
		StatusesCount int    `json:"statuses_count"`
	} `json:"legacy"`
}

func (u userResult) screenName() string {
	if u.Core.ScreenName != "" {
		return u.Core.ScreenName
	}
	return u.Legacy.ScreenName
}

type tweetResult struct {
	TypeName string       `json:"__typename"`
	RestID   string       `json:"rest_id"`
	Tweet    *tweetResult `json:"tweet"`
	Core     struct {
		UserResults struct {
			Result userResult `json:"result"`
		} `json:"user_results"`
	} `json:"core"`
	Legacy    *tweetLegacy `json:"legacy"`
	NoteTweet *struct {
		NoteTweetResults struct {
			Result struct {
				Text string `json:"text"`
			} `json:"result"`
		} `json:"note_tweet_results"`
	} `json:"note_tweet"`
	RetweetedStatusResult *tweetResultRef `json:"retweeted_status_result"`
	QuotedStatusResult    *tweetResultRef `json:"quoted_status_result"`
}

type tweetLegacy struct {
	IDStr                 string          `json:"id_str"`
	FullText              string          `json:"full_text"`
	CreatedAt             string          `json:"created_at"`
	UserIDStr             string          `json:"user_id_str"`
	FavoriteCount         int             `json:"favorite_count"`
	RetweetCount          int             `json:"retweet_count"`
	ReplyCount            int             `json:"reply_count"`
	QuoteCount            int             `json:"quote_count"`
	Retweeted             bool            `json:"retweeted"`
	IsQuoteStatus         bool            `json:"is_quote_status"`
	RetweetedStatusResult *tweetResultRef `json:"retweeted_status_result"`
	Entities              struct {
		URLs     []URLEntity `json:"urls"`
		Hashtags []Hashtag   `json:"hashtags"`
	} `json:"entities"`
	ExtendedEntities struct {
		Media []Media `json:"media"`
	} `json:"extended_entities"`
}

// visible strips a TweetWithVisibilityResults wrapper.
func (r *tweetResult) visible() *tweetResult {
	for i := 0; r != nil && r.Tweet != nil && i < maxUnwrapDepth; i++ {
		r = r.Tweet
	}
	return r
}

// retweeted returns the wrapped original of a retweet, or nil.
func (r *tweetResult) retweeted() *tweetResult {
	if r == nil {
		return nil
	}
	if r.RetweetedStatusResult != nil && r.RetweetedStatusResult.Result != nil {
		return r.RetweetedStatusResult.Result.visible()
	}
	if r.Legacy != nil && r.Legacy.RetweetedStatusResult != nil && r.Legacy.RetweetedStatusResult.Result != nil {
		return r.Legacy.RetweetedStatusResult.Result.visible()
	}
	return nil
}

func (r *tweetResult) id() string {
	if r == nil {
		return ""
	}
	if r.RestID != "" {
		return r.RestID
	}
	if r.Legacy != nil {
		return r.Legacy.IDStr
	}
	return ""
}

// authorID prefers legacy.user_id_str and falls back to the core user.
func (r *tweetResult) authorID() string {
	if r.Legacy != nil && r.Legacy.UserIDStr != "" {
		return r.Legacy.UserIDStr
	}
	return r.Core.UserResults.Result.RestID
}

// resolveText picks the richest text available: the note tweet body when
// present, otherwise legacy full_text.
func resolveText(r *tweetResult) string {
	if r == nil {
		return ""
	}
	if r.NoteTweet != nil {
		if text := r.NoteTweet.NoteTweetResults.Result.Text; text != "" {
			return text
		}
	}
	if r.Legacy != nil {
		return r.Legacy.FullText
	}
	return ""
}

// --- Timeline extraction ---

// Candidate is a raw tweet pulled from a timeline page, ready for Normalize.
type Candidate struct {
	result *tweetResult
	// Retweet is set when the candidate was unwrapped from a retweet.
	Retweet bool
}

// ID returns the tweet id, or "" when the raw result carries none.
func (c Candidate) ID() string { return c.result.id() }

// TimelinePage is the extracted content of one user-tweets response.
type TimelinePage struct {
	Candidates   []Candidate
	BottomCursor string
	TopCursor    string
}

// ExtractTimeline parses one user-tweets page into tweet candidates.
// Retweets yield the original tweet, never the wrapper; entries that are not
// tweets are skipped and candidates without a legacy block are dropped.
func ExtractTimeline(body []byte) (*TimelinePage, error) {
	var raw struct {
		Result struct {
			Timeline timelineObj `json:"timeline"`
		} `json:"result"`
		Cursor struct {
			Bottom string `json:"bottom"`
			Top    string `json:"top"`
		} `json:"cursor"`
	}
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("unmarshal user tweets: %w", err)
	}

	page := &TimelinePage{
		BottomCursor: raw.Cursor.Bottom,
		TopCursor:    raw.Cursor.Top,
	}
	for _, instruction := range raw.Result.Timeline.Instructions {
		entries := instruction.Entries
		if instruction.Entry != nil {
			entries = append(entries, *instruction.Entry)
		}
		for _, entry := range entries {
			if isCursorEntry(entry) {
				switch {
				case entry.Content.CursorType == "Bottom" || strings.Contains(entry.EntryID, "cursor-bottom"):
					if page.BottomCursor == "" {
						page.BottomCursor = entry.Content.Value
					}
				case entry.Content.CursorType == "Top" || strings.Contains(entry.EntryID, "cursor-top"):
					if page.TopCursor == "" {
						page.TopCursor = entry.Content.Value
					}
				}
				continue
			}
			if instruction.Type != "TimelineAddEntries" {
				continue
			}
			if c, ok := extractCandidate(entry); ok {
				page.Candidates = append(page.Candidates, c)
			}
		}
	}
	return page, nil
}

func isCursorEntry(e timelineEntry) bool {
	return e.Content.EntryType == "TimelineTimelineCursor" || e.Content.TypeName == "TimelineTimelineCursor"
}

// extractCandidate yields at most one tweet per entry.
func extractCandidate(entry timelineEntry) (Candidate, bool) {
	if entry.Content.ItemContent == nil {
		return Candidate{}, false
	}
	result := entry.Content.ItemContent.TweetResults.Result.visible()
	if result == nil {
		return Candidate{}, false
	}

	c := Candidate{result: result}
	for i := 0; i < maxUnwrapDepth; i++ {
		inner := c.result.retweeted()
		if inner == nil {
			break
		}
		c.result = inner
		c.Retweet = true
	}
	if c.result.Legacy == nil {
		return Candidate{}, false
	}
	return c, true
}

// --- User and tweet lookups ---

// parseUser parses the user endpoint response. A response without a rest_id
// yields a nil user and no error; the caller decides how to report it.
func parseUser(body []byte) (*TwitterUser, error) {
	var raw struct {
		Result struct {
			Data struct {
				User struct {
					Result *userResult `json:"result"`
				} `json:"user"`
			} `json:"data"`
		} `json:"result"`
	}
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("unmarshal user: %w", err)
	}
	r := raw.Result.Data.User.Result
	if r == nil || r.RestID == "" || r.TypeName == "UserUnavailable" {
		return nil, nil
	}
	return &TwitterUser{
		ID:         r.RestID,
		Handle:     r.screenName(),
		TweetCount: r.Legacy.StatusesCount,
	}, nil
}

// parseFullText extracts the untruncated text from the tweet endpoint response.
func parseFullText(body []byte) (string, error) {
	var raw struct {
		Tweet *struct {
			FullText  string `json:"full_text"`
			NoteTweet *struct {
				NoteTweetResults struct {
					Result struct {
						Text string `json:"text"`
					} `json:"result"`
				} `json:"note_tweet_results"`
			} `json:"note_tweet"`
		} `json:"tweet"`
		Result struct {
			TweetResult tweetResultRef `json:"tweetResult"`
		} `json:"result"`
	}
	if err := json.Unmarshal(body, &raw); err != nil {
		return "", fmt.Errorf("unmarshal tweet: %w", err)
	}
	if t := raw.Tweet; t != nil {
		if t.NoteTweet != nil && t.NoteTweet.NoteTweetResults.Result.Text != "" {
			return t.NoteTweet.NoteTweetResults.Result.Text, nil
		}
		if t.FullText != "" {
			return t.FullText, nil
		}
	}
	if text := resolveText(raw.Result.TweetResult.Result.visible()); text != "" {
		return text, nil
	}
	return "", fmt.Errorf("tweet response carries no text: %s", truncateBytes(body, 200))
}

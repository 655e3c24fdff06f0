package twitter

import "time"

// TwitterUser is the subset of a profile the crawler needs.
type TwitterUser struct {
	ID         string
	Handle     string
	TweetCount int
}

// Post is the canonical record produced for every harvested tweet.
type Post struct {
	ID           string      `json:"id"`
	Text         string      `json:"text"`
	Author       string      `json:"username"`
	CreatedAt    time.Time   `json:"createdAt"`
	Timestamp    int64       `json:"timestamp"` // epoch millis of CreatedAt
	IsReply      bool        `json:"isReply"`
	IsRetweet    bool        `json:"isRetweet"`
	Likes        int         `json:"likes"`
	RetweetCount int         `json:"retweetCount"`
	Replies      int         `json:"replies"`
	Photos       []Media     `json:"photos"`
	Videos       []Media     `json:"videos"`
	URLs         []URLEntity `json:"urls"`
	Hashtags     []Hashtag   `json:"hashtags"`
	PermanentURL string      `json:"permanentUrl"`
}

// Media describes one attached photo or video.
type Media struct {
	ID          string          `json:"id_str"`
	Type        string          `json:"type"`
	URL         string          `json:"url"`
	MediaURL    string          `json:"media_url_https"`
	ExpandedURL string          `json:"expanded_url"`
	DisplayURL  string          `json:"display_url"`
	VideoInfo   *MediaVideoInfo `json:"video_info,omitempty"`
}

// MediaVideoInfo lists the encodings available for a video.
type MediaVideoInfo struct {
	DurationMillis int            `json:"duration_millis"`
	Variants       []MediaVariant `json:"variants"`
}

// MediaVariant is one encoding of a video.
type MediaVariant struct {
	Bitrate     int    `json:"bitrate,omitempty"`
	ContentType string `json:"content_type"`
	URL         string `json:"url"`
}

// URLEntity is a link embedded in the tweet text.
type URLEntity struct {
	URL         string `json:"url"`
	ExpandedURL string `json:"expanded_url"`
	DisplayURL  string `json:"display_url"`
	Indices     []int  `json:"indices"`
}

// Hashtag is a hashtag entity.
type Hashtag struct {
	Text    string `json:"text"`
	Indices []int  `json:"indices"`
}

// Turn is one message of a reconstructed dialogue.
type Turn struct {
	Speaker string `json:"speaker"`
	Text    string `json:"text"`
}

// Dialogue is an ordered conversation of at least two turns.
type Dialogue []Turn

// TrackedAccount identifies the account whose voice the dialogues are built for.
type TrackedAccount struct {
	ID       string
	Username string
}

// StopPolicy selects how the crawler decides pagination is finished.
type StopPolicy int

const (
	// StopOnCursor stops once the bottom cursor is empty or repeats.
	StopOnCursor StopPolicy = iota
	// StopOnTotal stops once the collected count reaches the account's tweet
	// count. The cursor rule still applies so a stuck cursor cannot loop.
	StopOnTotal
)

// ParseStopPolicy maps "cursor" / "total" to a StopPolicy.
func ParseStopPolicy(s string) (StopPolicy, bool) {
	switch s {
	case "", "cursor":
		return StopOnCursor, true
	case "total":
		return StopOnTotal, true
	}
	return StopOnCursor, false
}

func (p StopPolicy) String() string {
	if p == StopOnTotal {
		return "total"
	}
	return "cursor"
}

package twitter

import (
	"fmt"
	"time"
)

// PermanentURL returns the canonical status link for a tweet.
func PermanentURL(author, id string) string {
	return fmt.Sprintf("https://twitter.com/%s/status/%s", author, id)
}

// Normalize maps one candidate to a Post. username is the crawled account and
// is used as the author when the tweet does not carry its own screen name.
// The candidate is not modified, so repeated calls yield equal posts.
func Normalize(c Candidate, username string) (*Post, error) {
	return normalize(c, username, "")
}

// normalize is Normalize with an optional text override from a full-text lookup.
func normalize(c Candidate, username, text string) (*Post, error) {
	r := c.result
	id := r.id()
	if id == "" {
		return nil, &NormalizeError{Reason: "missing rest_id"}
	}
	if r.Legacy == nil {
		return nil, &NormalizeError{ID: id, Reason: "missing legacy block"}
	}
	lg := r.Legacy

	if lg.CreatedAt == "" {
		return nil, &NormalizeError{ID: id, Reason: "missing created_at"}
	}
	createdAt, err := time.Parse(twitterTimeLayout, lg.CreatedAt)
	if err != nil {
		return nil, &NormalizeError{ID: id, Reason: fmt.Sprintf("bad created_at %q", lg.CreatedAt)}
	}
	createdAt = createdAt.UTC()

	if text == "" {
		text = resolveText(r)
	}

	author := r.Core.UserResults.Result.screenName()
	if author == "" {
		author = username
	}

	photos, videos := partitionMedia(lg.ExtendedEntities.Media)

	return &Post{
		ID:           id,
		Text:         text,
		Author:       author,
		CreatedAt:    createdAt,
		Timestamp:    createdAt.UnixMilli(),
		IsReply:      lg.ReplyCount > 0,
		IsRetweet:    c.Retweet || lg.Retweeted,
		Likes:        max(lg.FavoriteCount, 0),
		RetweetCount: max(lg.RetweetCount, 0),
		Replies:      max(lg.ReplyCount, 0),
		Photos:       photos,
		Videos:       videos,
		URLs:         cloneOrEmpty(lg.Entities.URLs),
		Hashtags:     cloneOrEmpty(lg.Entities.Hashtags),
		PermanentURL: PermanentURL(author, id),
	}, nil
}

// partitionMedia splits media by type; other types (animated_gif) are dropped.
func partitionMedia(media []Media) (photos, videos []Media) {
	photos, videos = []Media{}, []Media{}
	for _, m := range media {
		switch m.Type {
		case "photo":
			photos = append(photos, m)
		case "video":
			videos = append(videos, m)
		}
	}
	return photos, videos
}

func cloneOrEmpty[T any](s []T) []T {
	out := make([]T, len(s))
	copy(out, s)
	return out
}

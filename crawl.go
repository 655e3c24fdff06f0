package twitter

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strconv"
)

// Sink persists harvested results.
type Sink interface {
	SavePosts(ctx context.Context, username string, posts []*Post) error
	SaveDialogues(ctx context.Context, pid string, dialogues []Dialogue) error
}

// ResolveUser looks up a username. A lookup that returns no id is reported as
// *AccountNotFoundError.
func ResolveUser(ctx context.Context, f PageFetcher, username string) (*TwitterUser, error) {
	body, err := f.FetchPage(ctx, EndpointUser, url.Values{"username": {username}})
	if err != nil {
		return nil, fmt.Errorf("resolve @%s: %w", username, err)
	}
	user, err := parseUser(body)
	if err != nil {
		return nil, fmt.Errorf("resolve @%s: %w", username, err)
	}
	if user == nil {
		return nil, &AccountNotFoundError{Username: username}
	}
	return user, nil
}

// Crawler walks a user's timeline page by page.
type Crawler struct {
	fetcher PageFetcher
	sink    Sink
	cfg     CrawlConfig
}

// NewCrawler creates a crawler. sink may be nil, in which case results are only returned.
func NewCrawler(f PageFetcher, sink Sink, cfg CrawlConfig) *Crawler {
	cfg.defaults()
	return &Crawler{fetcher: f, sink: sink, cfg: cfg}
}

// Collect crawls every page of username's timeline, normalizes the tweets and
// hands the full result to the sink once. Any fetch failure aborts the crawl
// and nothing is saved.
func (cr *Crawler) Collect(ctx context.Context, username string) ([]*Post, error) {
	user, err := ResolveUser(ctx, cr.fetcher, username)
	if err != nil {
		return nil, err
	}
	slog.Info("crawl started",
		slog.String("user", username),
		slog.String("user_id", user.ID),
		slog.Int("total", user.TweetCount),
		slog.String("policy", cr.cfg.Policy.String()))

	candidates, err := cr.paginate(ctx, username, user)
	if err != nil {
		return nil, err
	}

	posts := make([]*Post, 0, len(candidates))
	for _, c := range candidates {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		p, err := cr.normalize(ctx, c, username)
		if err != nil {
			slog.Warn("skip tweet", slog.String("id", c.ID()), slog.Any("error", err))
			continue
		}
		posts = append(posts, p)
	}

	if cr.sink != nil {
		if err := cr.sink.SavePosts(ctx, username, posts); err != nil {
			return posts, fmt.Errorf("save posts for @%s: %w", username, err)
		}
	}
	slog.Info("crawl finished", slog.String("user", username), slog.Int("posts", len(posts)))
	return posts, nil
}

// paginate runs the cursor loop and returns every extracted candidate.
func (cr *Crawler) paginate(ctx context.Context, username string, user *TwitterUser) ([]Candidate, error) {
	var all []Candidate
	var cursor string

	for page := 1; ; page++ {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		params := url.Values{
			"user":  {user.ID},
			"count": {strconv.Itoa(cr.cfg.PageSize)},
		}
		if cursor != "" {
			params.Set("cursor", cursor)
		}

		body, err := cr.fetcher.FetchPage(ctx, EndpointUserTweets, params)
		if err != nil {
			return nil, fmt.Errorf("user tweets page %d for @%s: %w", page, username, err)
		}
		tl, err := ExtractTimeline(body)
		if err != nil {
			return nil, fmt.Errorf("user tweets page %d for @%s: %w", page, username, err)
		}
		all = append(all, tl.Candidates...)

		slog.Info("collected page",
			slog.String("user", username),
			slog.Int("page", page),
			slog.Int("collected", len(all)),
			slog.Int("total", user.TweetCount))

		if cr.done(len(tl.Candidates), len(all), user.TweetCount, cursor, tl.BottomCursor) {
			break
		}
		cursor = tl.BottomCursor
	}

	if cr.cfg.MaxPosts > 0 && len(all) > cr.cfg.MaxPosts {
		all = all[:cr.cfg.MaxPosts]
	}
	return all, nil
}

// done applies the termination policy. An empty page or an empty or repeated
// cursor always ends the crawl regardless of policy.
func (cr *Crawler) done(found, collected, total int, prev, next string) bool {
	if found == 0 || next == "" || next == prev {
		return true
	}
	if cr.cfg.MaxPosts > 0 && collected >= cr.cfg.MaxPosts {
		return true
	}
	return cr.cfg.Policy == StopOnTotal && collected >= total
}

// normalize optionally swaps in the untruncated text from the tweet endpoint.
// A failed lookup falls back to the text already in the candidate.
func (cr *Crawler) normalize(ctx context.Context, c Candidate, username string) (*Post, error) {
	if !cr.cfg.FetchFullText || c.ID() == "" {
		return Normalize(c, username)
	}
	text, err := cr.fullText(ctx, c.ID())
	if err != nil {
		slog.Warn("full text lookup failed, using inline text", slog.String("id", c.ID()), slog.Any("error", err))
	}
	return normalize(c, username, text)
}

func (cr *Crawler) fullText(ctx context.Context, id string) (string, error) {
	body, err := cr.fetcher.FetchPage(ctx, EndpointTweet, url.Values{"pid": {id}})
	if err != nil {
		return "", err
	}
	return parseFullText(body)
}

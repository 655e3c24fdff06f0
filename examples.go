package twitter

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strconv"
	"sync"
)

// ExampleSet is an owned, growable collection of dialogues.
type ExampleSet struct {
	mu        sync.Mutex
	dialogues []Dialogue
}

// Append adds dialogues to the end of the set.
func (s *ExampleSet) Append(ds ...Dialogue) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.dialogues = append(s.dialogues, ds...)
}

// RemoveAt deletes the dialogue at index i.
func (s *ExampleSet) RemoveAt(i int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i < 0 || i >= len(s.dialogues) {
		return fmt.Errorf("remove example %d of %d: %w", i, len(s.dialogues), ErrIndexOutOfRange)
	}
	s.dialogues = append(s.dialogues[:i], s.dialogues[i+1:]...)
	return nil
}

// Clear empties the set.
func (s *ExampleSet) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.dialogues = nil
}

// Len returns the number of dialogues.
func (s *ExampleSet) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.dialogues)
}

// Snapshot returns a deep copy of the current dialogues.
func (s *ExampleSet) Snapshot() []Dialogue {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Dialogue, len(s.dialogues))
	for i, d := range s.dialogues {
		out[i] = append(Dialogue(nil), d...)
	}
	return out
}

// CommentOptions tunes the comments request.
type CommentOptions struct {
	// Count is the number of replies requested. Default 40.
	Count int
	// RankingMode is "Relevance", "Recency" or "Likes". Default "Relevance".
	RankingMode string
}

// Harvester builds dialogue examples for one tracked account.
type Harvester struct {
	fetcher PageFetcher
	tracked TrackedAccount
	opts    CommentOptions
	set     *ExampleSet
}

// NewHarvester creates a harvester that appends to set.
func NewHarvester(f PageFetcher, tracked TrackedAccount, set *ExampleSet, opts CommentOptions) *Harvester {
	if opts.Count <= 0 {
		opts.Count = 40
	}
	if opts.RankingMode == "" {
		opts.RankingMode = "Relevance"
	}
	return &Harvester{fetcher: f, tracked: tracked, opts: opts, set: set}
}

// AddExamples fetches the replies to pid, reconstructs them and appends the
// resulting dialogues to the set. It returns the dialogues it added.
func (h *Harvester) AddExamples(ctx context.Context, pid string) ([]Dialogue, error) {
	body, err := h.fetcher.FetchPage(ctx, EndpointComments, url.Values{
		"pid":         {pid},
		"count":       {strconv.Itoa(h.opts.Count)},
		"rankingMode": {h.opts.RankingMode},
	})
	if err != nil {
		return nil, fmt.Errorf("comments for %s: %w", pid, err)
	}
	dialogues, err := Reconstruct(body, h.tracked)
	if err != nil {
		return nil, fmt.Errorf("comments for %s: %w", pid, err)
	}
	h.set.Append(dialogues...)
	slog.Debug("examples added", slog.String("pid", pid), slog.Int("dialogues", len(dialogues)))
	return dialogues, nil
}

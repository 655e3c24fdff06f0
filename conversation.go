package twitter

import (
	"encoding/json"
	"fmt"
	"log/slog"
)

// promotedKey marks advertisement items inside a conversation module.
const promotedKey = "promotedMetadata"

type moduleItem struct {
	EntryID string `json:"entryId"`
	Item    struct {
		ItemContent *itemContent `json:"itemContent"`
	} `json:"item"`
}

// SpeakerAlias names the author of a turn. The tracked account keeps its
// username; everyone else becomes "user<id>". Aliases are stable within a run
// but carry no identity beyond the numeric id.
func SpeakerAlias(tracked TrackedAccount, authorID string) string {
	if authorID == tracked.ID {
		return tracked.Username
	}
	return "user" + authorID
}

// Reconstruct turns one comments page into dialogues. A quoted tweet in the
// first entry becomes a leading two-turn dialogue; every other entry is walked
// item by item until a ShowMore cursor. Entries carrying ads, malformed entries
// and dialogues shorter than two turns are dropped. Only an unreadable page
// returns an error.
func Reconstruct(body []byte, tracked TrackedAccount) ([]Dialogue, error) {
	entries, err := parseConversation(body)
	if err != nil {
		return nil, err
	}

	var dialogues []Dialogue
	start := 0
	if len(entries) > 0 {
		if root := entryTweet(entries[0]); root != nil && root.Legacy != nil && root.Legacy.IsQuoteStatus {
			start = 1
			d, err := quotedDialogue(root, tracked)
			if err != nil {
				slog.Debug("skip quoted tweet", slog.Any("error", err))
			} else {
				dialogues = append(dialogues, d)
			}
		}
	}

	for i := start; i < len(entries); i++ {
		d, err := threadDialogue(i, entries[i], tracked)
		if err != nil {
			slog.Debug("skip conversation entry", slog.String("entry", entries[i].EntryID), slog.Any("error", err))
			continue
		}
		dialogues = append(dialogues, d)
	}
	return dialogues, nil
}

func parseConversation(body []byte) ([]timelineEntry, error) {
	var raw struct {
		Result timelineObj `json:"result"`
	}
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("unmarshal comments: %w", err)
	}
	for _, instruction := range raw.Result.Instructions {
		if instruction.Type == "TimelineAddEntries" {
			return instruction.Entries, nil
		}
	}
	if len(raw.Result.Instructions) > 0 {
		return raw.Result.Instructions[0].Entries, nil
	}
	return nil, nil
}

func entryTweet(e timelineEntry) *tweetResult {
	if e.Content.ItemContent == nil {
		return nil
	}
	return e.Content.ItemContent.TweetResults.Result.visible()
}

// quotedDialogue pairs the quoted tweet with the tracked account's quote.
func quotedDialogue(root *tweetResult, tracked TrackedAccount) (Dialogue, error) {
	if root.QuotedStatusResult == nil || root.QuotedStatusResult.Result == nil {
		return nil, &ReconstructError{Index: 0, Reason: "quoted tweet missing"}
	}
	quoted := root.QuotedStatusResult.Result.visible()

	var d Dialogue
	if text, author := resolveText(quoted), quoted.authorID(); text != "" && author != "" {
		d = append(d, Turn{Speaker: SpeakerAlias(tracked, author), Text: text})
	}
	d = append(d, Turn{Speaker: tracked.Username, Text: resolveText(root)})
	if len(d) < 2 {
		return nil, &ReconstructError{Index: 0, Reason: "quoted tweet has no text or author"}
	}
	return d, nil
}

// threadDialogue builds the dialogue for one conversation module.
func threadDialogue(idx int, e timelineEntry, tracked TrackedAccount) (Dialogue, error) {
	if len(e.Content.Items) == 0 || string(e.Content.Items) == "null" {
		return nil, &ReconstructError{Index: idx, Reason: "no items"}
	}

	var tree any
	if err := json.Unmarshal(e.Content.Items, &tree); err != nil {
		return nil, &ReconstructError{Index: idx, Reason: "unreadable items"}
	}
	if hasKey(tree, promotedKey) {
		return nil, &ReconstructError{Index: idx, Reason: "promoted content"}
	}

	var items []moduleItem
	if err := json.Unmarshal(e.Content.Items, &items); err != nil {
		return nil, &ReconstructError{Index: idx, Reason: "unreadable items"}
	}

	var d Dialogue
	for j, it := range items {
		ic := it.Item.ItemContent
		if ic == nil {
			return nil, &ReconstructError{Index: idx, Reason: fmt.Sprintf("item %d has no content", j)}
		}
		if ic.CursorType == "ShowMore" {
			break
		}
		r := ic.TweetResults.Result.visible()
		if r == nil || r.Legacy == nil {
			return nil, &ReconstructError{Index: idx, Reason: fmt.Sprintf("item %d has no tweet", j)}
		}
		authorID := r.authorID()
		if authorID == "" {
			return nil, &ReconstructError{Index: idx, Reason: fmt.Sprintf("item %d has no author", j)}
		}
		d = append(d, Turn{Speaker: SpeakerAlias(tracked, authorID), Text: resolveText(r)})
	}
	if len(d) < 2 {
		return nil, &ReconstructError{Index: idx, Reason: fmt.Sprintf("%d turn(s)", len(d))}
	}
	return d, nil
}

// hasKey reports whether key appears as an object key anywhere in v.
func hasKey(v any, key string) bool {
	switch t := v.(type) {
	case map[string]any:
		if _, ok := t[key]; ok {
			return true
		}
		for _, child := range t {
			if hasKey(child, key) {
				return true
			}
		}
	case []any:
		for _, child := range t {
			if hasKey(child, key) {
				return true
			}
		}
	}
	return false
}

package store

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	twitter "github.com/anatolykoptev/tweetharvest"
)

// SaveDialogues stores the dialogues reconstructed from the replies to pid.
func (s *Store) SaveDialogues(ctx context.Context, pid string, dialogues []twitter.Dialogue) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	now := time.Now().UTC().Format(time.RFC3339)
	for _, d := range dialogues {
		turns, err := json.Marshal(d)
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO dialogues (pid, turns, saved_at) VALUES (?, ?, ?)`,
			pid, string(turns), now); err != nil {
			return fmt.Errorf("insert dialogue for %s: %w", pid, err)
		}
	}
	return tx.Commit()
}

// Dialogues returns every stored dialogue in insertion order.
func (s *Store) Dialogues(ctx context.Context) ([]twitter.Dialogue, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT turns FROM dialogues ORDER BY seq`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []twitter.Dialogue
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return nil, err
		}
		var d twitter.Dialogue
		if err := json.Unmarshal([]byte(raw), &d); err != nil {
			return nil, fmt.Errorf("decode dialogue: %w", err)
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

// messageExample is one turn in character-file format.
type messageExample struct {
	User    string `json:"user"`
	Content struct {
		Text string `json:"text"`
	} `json:"content"`
}

// ExportDialogues writes every stored dialogue as a JSON array of
// messageExamples, each speaker rendered as a "{{alias}}" template.
func (s *Store) ExportDialogues(ctx context.Context, w io.Writer) error {
	dialogues, err := s.Dialogues(ctx)
	if err != nil {
		return err
	}
	out := make([][]messageExample, 0, len(dialogues))
	for _, d := range dialogues {
		ex := make([]messageExample, len(d))
		for i, t := range d {
			ex[i].User = "{{" + t.Speaker + "}}"
			ex[i].Content.Text = t.Text
		}
		out = append(out, ex)
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

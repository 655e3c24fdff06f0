// Package store persists harvested posts and dialogue examples in SQLite.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	twitter "github.com/anatolykoptev/tweetharvest"
	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// Store handles all database operations. It implements twitter.Sink.
type Store struct {
	db *sql.DB
}

var _ twitter.Sink = (*Store)(nil)

// New opens (or creates) the database at dbPath.
func New(dbPath string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0700); err != nil {
		return nil, fmt.Errorf("create db dir: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", dbPath, err)
	}
	// A single writer keeps SQLite from returning SQLITE_BUSY.
	db.SetMaxOpenConns(1)

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS crawl_runs (
		id TEXT PRIMARY KEY,
		username TEXT NOT NULL,
		posts INTEGER NOT NULL,
		saved_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS posts (
		username TEXT NOT NULL,
		id TEXT NOT NULL,
		run_id TEXT NOT NULL REFERENCES crawl_runs(id),
		text TEXT NOT NULL,
		author TEXT NOT NULL,
		timestamp INTEGER NOT NULL,
		is_reply BOOLEAN NOT NULL,
		is_retweet BOOLEAN NOT NULL,
		likes INTEGER NOT NULL,
		retweet_count INTEGER NOT NULL,
		replies INTEGER NOT NULL,
		photos TEXT NOT NULL,
		videos TEXT NOT NULL,
		urls TEXT NOT NULL,
		hashtags TEXT NOT NULL,
		permanent_url TEXT NOT NULL,
		PRIMARY KEY (username, id)
	);

	CREATE TABLE IF NOT EXISTS dialogues (
		seq INTEGER PRIMARY KEY AUTOINCREMENT,
		pid TEXT NOT NULL,
		turns TEXT NOT NULL,
		saved_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_posts_timestamp ON posts(username, timestamp);
	CREATE INDEX IF NOT EXISTS idx_dialogues_pid ON dialogues(pid);
	`
	_, err := s.db.Exec(schema)
	return err
}

// SavePosts records one crawl run and upserts its posts in a single transaction.
func (s *Store) SavePosts(ctx context.Context, username string, posts []*twitter.Post) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	runID := uuid.NewString()
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO crawl_runs (id, username, posts, saved_at) VALUES (?, ?, ?, ?)`,
		runID, username, len(posts), time.Now().UTC().Format(time.RFC3339)); err != nil {
		return fmt.Errorf("insert run: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO posts (username, id, run_id, text, author, timestamp,
			is_reply, is_retweet, likes, retweet_count, replies,
			photos, videos, urls, hashtags, permanent_url)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(username, id) DO UPDATE SET
			run_id = excluded.run_id,
			text = excluded.text,
			author = excluded.author,
			timestamp = excluded.timestamp,
			is_reply = excluded.is_reply,
			is_retweet = excluded.is_retweet,
			likes = excluded.likes,
			retweet_count = excluded.retweet_count,
			replies = excluded.replies,
			photos = excluded.photos,
			videos = excluded.videos,
			urls = excluded.urls,
			hashtags = excluded.hashtags,
			permanent_url = excluded.permanent_url
	`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, p := range posts {
		photos, _ := json.Marshal(p.Photos)
		videos, _ := json.Marshal(p.Videos)
		urls, _ := json.Marshal(p.URLs)
		hashtags, _ := json.Marshal(p.Hashtags)
		if _, err := stmt.ExecContext(ctx,
			username, p.ID, runID, p.Text, p.Author, p.Timestamp,
			p.IsReply, p.IsRetweet, p.Likes, p.RetweetCount, p.Replies,
			string(photos), string(videos), string(urls), string(hashtags), p.PermanentURL,
		); err != nil {
			return fmt.Errorf("insert post %s: %w", p.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return err
	}
	slog.Debug("posts saved", slog.String("user", username), slog.String("run", runID), slog.Int("count", len(posts)))
	return nil
}

// Posts returns the stored posts for username, newest first.
func (s *Store) Posts(ctx context.Context, username string) ([]*twitter.Post, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, text, author, timestamp, is_reply, is_retweet,
			likes, retweet_count, replies, photos, videos, urls, hashtags, permanent_url
		FROM posts
		WHERE username = ?
		ORDER BY timestamp DESC, id DESC
	`, username)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var posts []*twitter.Post
	for rows.Next() {
		var p twitter.Post
		var photos, videos, urls, hashtags string
		if err := rows.Scan(
			&p.ID, &p.Text, &p.Author, &p.Timestamp, &p.IsReply, &p.IsRetweet,
			&p.Likes, &p.RetweetCount, &p.Replies, &photos, &videos, &urls, &hashtags, &p.PermanentURL,
		); err != nil {
			return nil, err
		}
		p.CreatedAt = time.UnixMilli(p.Timestamp).UTC()
		json.Unmarshal([]byte(photos), &p.Photos)
		json.Unmarshal([]byte(videos), &p.Videos)
		json.Unmarshal([]byte(urls), &p.URLs)
		json.Unmarshal([]byte(hashtags), &p.Hashtags)
		posts = append(posts, &p)
	}
	return posts, rows.Err()
}

// RunCount returns how many crawl runs were recorded for username.
func (s *Store) RunCount(ctx context.Context, username string) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM crawl_runs WHERE username = ?`, username).Scan(&n)
	return n, err
}

package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	twitter "github.com/anatolykoptev/tweetharvest"
	"github.com/joho/godotenv"
)

type config struct {
	Username     string
	UserID       string
	APIKeys      string
	BaseURL      string
	Proxy        string
	DBPath       string
	LogLevel     string
	PageSize     int
	StopPolicy   twitter.StopPolicy
	MaxPosts     int
	FullText     bool
	CommentCount int
	RankingMode  string
	Schedule     string
	MetricsAddr  string
}

// loadConfig reads .env (when present) and then the process environment.
func loadConfig() (config, error) {
	_ = godotenv.Load()

	policy, ok := twitter.ParseStopPolicy(envStr("CRAWL_STOP_POLICY", "cursor"))
	if !ok {
		return config{}, fmt.Errorf("CRAWL_STOP_POLICY must be cursor or total")
	}

	cfg := config{
		Username:     strings.TrimPrefix(envStr("TWITTER_USERNAME", ""), "@"),
		UserID:       envStr("TWITTER_USER_ID", ""),
		APIKeys:      envStr("RAPIDAPI_KEY", ""),
		BaseURL:      envStr("RAPIDAPI_URL", twitter.DefaultBaseURL),
		Proxy:        envStr("HARVEST_PROXY", ""),
		DBPath:       envStr("HARVEST_DB", "data/harvest.db"),
		LogLevel:     envStr("LOG_LEVEL", "info"),
		PageSize:     envInt("CRAWL_PAGE_SIZE", 20),
		StopPolicy:   policy,
		MaxPosts:     envInt("CRAWL_MAX_POSTS", 0),
		FullText:     envBool("CRAWL_FULL_TEXT", false),
		CommentCount: envInt("COMMENTS_COUNT", 40),
		RankingMode:  envStr("COMMENTS_RANKING", "Relevance"),
		Schedule:     envStr("HARVEST_SCHEDULE", "0 */6 * * *"),
		MetricsAddr:  envStr("METRICS_ADDR", ""),
	}

	if cfg.Username == "" {
		return cfg, fmt.Errorf("TWITTER_USERNAME is required")
	}
	if cfg.APIKeys == "" {
		return cfg, fmt.Errorf("RAPIDAPI_KEY is required")
	}
	return cfg, nil
}

func envStr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

// Command harvest collects a user's tweets and reply dialogues through the
// RapidAPI Twitter proxy and stores them in SQLite.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	twitter "github.com/anatolykoptev/tweetharvest"
	"github.com/anatolykoptev/tweetharvest/store"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/robfig/cron/v3"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	cfg, err := loadConfig()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	setupLogging(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	reg := prometheus.NewRegistry()
	m := newMetrics(reg)

	client, err := twitter.NewClient(twitter.ClientConfig{
		Keys:         twitter.ParseAPIKeys(cfg.APIKeys),
		BaseURL:      cfg.BaseURL,
		DefaultProxy: cfg.Proxy,
		MetricsHook:  m.hook,
	})
	if err != nil {
		slog.Error("failed to create client", slog.Any("error", err))
		os.Exit(1)
	}

	db, err := store.New(cfg.DBPath)
	if err != nil {
		slog.Error("failed to open store", slog.String("path", cfg.DBPath), slog.Any("error", err))
		os.Exit(1)
	}
	defer db.Close()

	switch os.Args[1] {
	case "crawl":
		err = runCrawl(ctx, cfg, client, db, m)
	case "examples":
		if len(os.Args) < 3 {
			fmt.Println("Usage: harvest examples <tweet-id>...")
			os.Exit(1)
		}
		err = runExamples(ctx, cfg, client, db, os.Args[2:])
	case "export":
		err = runExport(ctx, db, os.Args[2:])
	case "schedule":
		if cfg.MetricsAddr != "" {
			serveMetrics(cfg.MetricsAddr, reg)
		}
		err = runSchedule(ctx, cfg, client, db, m)
	default:
		printUsage()
		os.Exit(1)
	}
	if err != nil {
		slog.Error("harvest failed", slog.String("command", os.Args[1]), slog.Any("error", err))
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println("Usage: harvest <command>")
	fmt.Println()
	fmt.Println("Commands:")
	fmt.Println("  crawl              Collect every tweet of TWITTER_USERNAME")
	fmt.Println("  examples <id>...   Build dialogue examples from the replies to each tweet")
	fmt.Println("  export [file]      Write stored dialogues as messageExamples JSON")
	fmt.Println("  schedule           Re-crawl on HARVEST_SCHEDULE until interrupted")
}

func runCrawl(ctx context.Context, cfg config, client *twitter.Client, db *store.Store, m *metrics) error {
	crawler := twitter.NewCrawler(client, db, twitter.CrawlConfig{
		PageSize:      cfg.PageSize,
		Policy:        cfg.StopPolicy,
		MaxPosts:      cfg.MaxPosts,
		FetchFullText: cfg.FullText,
	})
	posts, err := crawler.Collect(ctx, cfg.Username)
	m.crawlDone(len(posts), err)
	return err
}

func runExamples(ctx context.Context, cfg config, client *twitter.Client, db *store.Store, pids []string) error {
	tracked := twitter.TrackedAccount{ID: cfg.UserID, Username: cfg.Username}
	if tracked.ID == "" {
		user, err := twitter.ResolveUser(ctx, client, cfg.Username)
		if err != nil {
			return err
		}
		tracked.ID = user.ID
	}

	set := &twitter.ExampleSet{}
	h := twitter.NewHarvester(client, tracked, set, twitter.CommentOptions{
		Count:       cfg.CommentCount,
		RankingMode: cfg.RankingMode,
	})
	for _, pid := range pids {
		added, err := h.AddExamples(ctx, pid)
		if err != nil {
			return err
		}
		if err := db.SaveDialogues(ctx, pid, added); err != nil {
			return fmt.Errorf("save dialogues for %s: %w", pid, err)
		}
		slog.Info("dialogues saved", slog.String("pid", pid), slog.Int("count", len(added)))
	}
	slog.Info("examples done", slog.Int("total", set.Len()))
	return nil
}

func runExport(ctx context.Context, db *store.Store, args []string) error {
	if len(args) == 0 {
		return db.ExportDialogues(ctx, os.Stdout)
	}
	f, err := os.Create(args[0])
	if err != nil {
		return err
	}
	if err := db.ExportDialogues(ctx, f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func runSchedule(ctx context.Context, cfg config, client *twitter.Client, db *store.Store, m *metrics) error {
	c := cron.New()
	_, err := c.AddFunc(cfg.Schedule, func() {
		jobCtx, cancel := context.WithTimeout(ctx, 2*time.Hour)
		defer cancel()

		start := time.Now()
		if err := runCrawl(jobCtx, cfg, client, db, m); err != nil {
			slog.Error("scheduled crawl failed", slog.String("user", cfg.Username), slog.Any("error", err))
			return
		}
		slog.Info("scheduled crawl done", slog.String("user", cfg.Username), slog.Duration("took", time.Since(start)))
	})
	if err != nil {
		return fmt.Errorf("schedule %q: %w", cfg.Schedule, err)
	}

	c.Start()
	slog.Info("scheduler started", slog.String("schedule", cfg.Schedule), slog.String("user", cfg.Username))
	<-ctx.Done()
	slog.Info("shutting down")
	<-c.Stop().Done()
	return nil
}

func setupLogging(level string) {
	var lvl slog.Level
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: lvl})
	slog.SetDefault(slog.New(handler))
}

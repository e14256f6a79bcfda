package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aipulse/news-archive/internal/config"
	"github.com/aipulse/news-archive/internal/feed"
	"github.com/aipulse/news-archive/internal/logger"
	"github.com/aipulse/news-archive/internal/markdown"
	"github.com/aipulse/news-archive/internal/store"
)

// The digest service periodically materializes the store as human-facing
// artifacts: the markdown archive document and an RSS feed.
func main() {
	config.LoadEnv()
	log := logger.New("digest")
	cfg, err := config.LoadDigest()
	if err != nil {
		log.Error("load config", slog.Any("err", err))
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	st := connectWithRetry(ctx, log, cfg)
	if st == nil {
		log.Error("failed to connect to elasticsearch after retries")
		os.Exit(1)
	}

	log.Info("connected to elasticsearch")

	ticker := time.NewTicker(cfg.Interval)
	defer ticker.Stop()

	log.Info("digest job running",
		slog.Duration("interval", cfg.Interval),
		slog.String("archive", cfg.ArchivePath),
		slog.String("feed", cfg.FeedPath),
	)

	runOnce(ctx, log, st, cfg)

	for {
		select {
		case <-ctx.Done():
			log.Info("shutdown signal received")
			return
		case <-ticker.C:
			runOnce(ctx, log, st, cfg)
		}
	}
}

// connectWithRetry builds the store client and verifies connectivity with
// exponential backoff. It returns nil when retries are exhausted or the
// context is canceled.
func connectWithRetry(ctx context.Context, log *slog.Logger, cfg *config.Digest) *store.Store {
	const maxRetries = 10
	retryDelay := 2 * time.Second

	for i := 0; i < maxRetries; i++ {
		st, err := store.New(cfg.ElasticsearchAddr, cfg.ElasticsearchIndex, 0, log)
		if err == nil {
			pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
			pingErr := st.Ping(pingCtx)
			cancel()
			if pingErr == nil {
				return st
			}
			err = pingErr
		}

		log.Warn("elasticsearch not reachable, retrying",
			slog.Any("err", err),
			slog.Int("attempt", i+1),
			slog.Int("max_retries", maxRetries),
			slog.Duration("retry_in", retryDelay),
		)

		select {
		case <-time.After(retryDelay):
		case <-ctx.Done():
			return nil
		}
		retryDelay *= 2
		if retryDelay > 30*time.Second {
			retryDelay = 30 * time.Second
		}
	}

	return nil
}

func runOnce(ctx context.Context, log *slog.Logger, st *store.Store, cfg *config.Digest) {
	subCtx, cancel := context.WithTimeout(ctx, 2*time.Minute)
	defer cancel()

	items, err := st.All(subCtx)
	if err != nil {
		log.Warn("digest run failed (will retry on next interval)", slog.Any("err", err))
		return
	}

	if cfg.ArchivePath != "" {
		doc := markdown.FromItems(cfg.FeedTitle, items)
		if err := writeAtomic(cfg.ArchivePath, []byte(doc.Render())); err != nil {
			log.Warn("write archive", slog.Any("err", err))
		}
	}

	if cfg.FeedPath != "" {
		rss, err := feed.Build(items, cfg.FeedTitle, cfg.FeedLink, time.Now())
		if err != nil {
			log.Warn("render feed", slog.Any("err", err))
		} else if err := writeAtomic(cfg.FeedPath, []byte(rss)); err != nil {
			log.Warn("write feed", slog.Any("err", err))
		}
	}

	log.Info("digest run completed", slog.Int("items", len(items)))
}

func writeAtomic(path string, data []byte) error {
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("replace %s: %w", path, err)
	}
	return nil
}

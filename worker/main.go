package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"

	"github.com/aipulse/news-archive/internal/archive"
	"github.com/aipulse/news-archive/internal/config"
	"github.com/aipulse/news-archive/internal/dedupe"
	"github.com/aipulse/news-archive/internal/logger"
	"github.com/aipulse/news-archive/internal/markdown"
	"github.com/aipulse/news-archive/internal/store"
)

// batchMessage is one collected markdown batch, published by the research
// pipeline. Content holds the full markdown document.
type batchMessage struct {
	BatchID     string `json:"batch_id"`
	Source      string `json:"source"`
	Content     string `json:"content"`
	GeneratedAt string `json:"generated_at"`
}

// batchSink is the active archive backend for this run.
type batchSink interface {
	ArchiveBatch(ctx context.Context, content string) error
}

// errEmptyContent marks caller misuse (a batch with nothing in it), as
// opposed to a backend failure while archiving.
var errEmptyContent = errors.New("no batch content supplied")

func main() {
	config.LoadEnv()
	log := logger.New("worker")
	cfg, err := config.LoadWorker()
	if err != nil {
		log.Error("load config", slog.Any("err", err))
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	sink, err := buildSink(ctx, log, cfg)
	if err != nil {
		log.Error("init archive backend", slog.Any("err", err))
		os.Exit(1)
	}

	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:        cfg.KafkaBrokers,
		Topic:          cfg.KafkaTopic,
		GroupID:        cfg.KafkaConsumer,
		MinBytes:       1e3,
		MaxBytes:       10e6,
		CommitInterval: 0, // Disable auto-commit; manual commit only
	})
	defer reader.Close()

	dlqWriter := kafka.NewWriter(kafka.WriterConfig{
		Brokers:     cfg.KafkaBrokers,
		Topic:       cfg.KafkaTopic + "_dlq",
		MaxAttempts: 3,
	})
	defer dlqWriter.Close()

	log.Info("worker started",
		slog.String("topic", cfg.KafkaTopic),
		slog.String("group", cfg.KafkaConsumer),
		slog.String("mode", cfg.ArchiveMode),
		slog.String("dlq_topic", cfg.KafkaTopic+"_dlq"),
	)

	for {
		msg, err := reader.FetchMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				log.Info("context canceled, stopping")
				return
			}
			log.Error("fetch message", slog.Any("err", err))
			continue
		}

		if err := processMessage(ctx, log, sink, msg); err != nil {
			log.Warn("process message failed, sending to DLQ",
				slog.Any("err", err),
				slog.Int("partition", msg.Partition),
				slog.Int64("offset", msg.Offset),
			)

			if deadLetter(ctx, log, dlqWriter, msg, err) {
				if err := reader.CommitMessages(ctx, msg); err != nil {
					log.Error("commit failed message to dlq", slog.Any("err", err))
				}
			}
			continue
		}

		if err := reader.CommitMessages(ctx, msg); err != nil {
			log.Error("commit message", slog.Any("err", err))
		}
	}
}

func buildSink(ctx context.Context, log *slog.Logger, cfg *config.Worker) (batchSink, error) {
	switch cfg.ArchiveMode {
	case config.ModeFile:
		return &fileSink{archive: archive.NewFile(cfg.ArchivePath, log)}, nil
	case config.ModeStore:
		st, err := store.New(cfg.ElasticsearchAddr, cfg.ElasticsearchIndex, cfg.StoreChunkSize, log)
		if err != nil {
			return nil, err
		}
		st.UseCache(dedupe.NewCache(cfg.SeenCacheCapacity, cfg.SeenCacheTTL))
		if err := st.EnsureIndex(ctx); err != nil {
			return nil, err
		}
		return &storeSink{store: st, log: log}, nil
	default:
		return nil, fmt.Errorf("unknown archive mode %q", cfg.ArchiveMode)
	}
}

func processMessage(ctx context.Context, log *slog.Logger, sink batchSink, msg kafka.Message) error {
	var payload batchMessage
	if err := json.Unmarshal(msg.Value, &payload); err != nil {
		return err
	}

	if strings.TrimSpace(payload.Content) == "" {
		return errEmptyContent
	}

	batchID := strings.TrimSpace(payload.BatchID)
	if batchID == "" {
		batchID = uuid.NewString()
	}

	if err := sink.ArchiveBatch(ctx, payload.Content); err != nil {
		return fmt.Errorf("archive batch %s: %w", batchID, err)
	}

	log.Info("batch archived",
		slog.String("batch_id", batchID),
		slog.String("source", payload.Source),
	)
	return nil
}

// deadLetter forwards a poisoned message with error context, retrying with
// exponential backoff. It reports whether the DLQ write succeeded; the caller
// only commits the original message when it did.
func deadLetter(ctx context.Context, log *slog.Logger, w *kafka.Writer, msg kafka.Message, cause error) bool {
	dlqMsg := kafka.Message{
		Value: msg.Value,
		Headers: append(msg.Headers,
			kafka.Header{Key: "original_partition", Value: []byte(fmt.Sprintf("%d", msg.Partition))},
			kafka.Header{Key: "original_offset", Value: []byte(fmt.Sprintf("%d", msg.Offset))},
			kafka.Header{Key: "error", Value: []byte(cause.Error())},
			kafka.Header{Key: "timestamp", Value: []byte(time.Now().UTC().Format(time.RFC3339))},
		),
	}

	for attempt := 0; attempt < 5; attempt++ {
		if err := w.WriteMessages(ctx, dlqMsg); err == nil {
			log.Info("message sent to DLQ",
				slog.Int("partition", msg.Partition),
				slog.Int64("offset", msg.Offset),
				slog.Int("attempt", attempt+1),
			)
			return true
		} else {
			backoff := time.Duration(1<<uint(attempt)) * time.Second
			log.Warn("DLQ write failed, retrying",
				slog.Any("err", err),
				slog.Int("attempt", attempt+1),
				slog.Duration("backoff", backoff),
			)
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				log.Info("context canceled during DLQ retry")
				return false
			}
		}
	}

	log.Error("DLQ write exhausted retries, message may be lost if later messages commit",
		slog.Int("partition", msg.Partition),
		slog.Int64("offset", msg.Offset),
	)
	return false
}

// fileSink merges batches into the markdown archive file.
type fileSink struct {
	archive *archive.File
}

func (f *fileSink) ArchiveBatch(_ context.Context, content string) error {
	return f.archive.MergeBatch(content)
}

// storeSink flattens batches to items and writes the unseen ones remotely.
type storeSink struct {
	store *store.Store
	log   *slog.Logger
}

func (s *storeSink) ArchiveBatch(ctx context.Context, content string) error {
	items := markdown.Parse(content).Items()
	if len(items) == 0 {
		return errEmptyContent
	}

	added, skipped, err := s.store.AddBatch(ctx, items)
	if err != nil {
		return err
	}

	s.log.Info("batch stored",
		slog.Int("added", added),
		slog.Int("skipped", skipped),
	)
	return nil
}

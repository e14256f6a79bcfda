package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/subosito/gotenv"
)

// Archive modes selectable for the worker. Exactly one backend is active per run.
const (
	ModeFile  = "file"
	ModeStore = "store"
)

// Common contains Elasticsearch parameters shared by every service.
type Common struct {
	ElasticsearchAddr  string
	ElasticsearchIndex string
}

// Worker holds configuration for the Kafka -> archive worker.
type Worker struct {
	Common
	KafkaBrokers  []string
	KafkaTopic    string
	KafkaConsumer string

	// ArchiveMode selects the backend: "file" merges into a markdown archive,
	// "store" writes deduplicated items to Elasticsearch.
	ArchiveMode string
	ArchivePath string

	StoreChunkSize    int
	SeenCacheCapacity int
	SeenCacheTTL      time.Duration
}

// API describes HTTP-layer configuration.
type API struct {
	Common
	BindAddr     string
	DefaultLimit int
	MaxLimit     int
	FeedTitle    string
	FeedLink     string
}

// Digest configures the periodic archive/feed renderer.
type Digest struct {
	Common
	Interval    time.Duration
	ArchivePath string
	FeedPath    string
	FeedTitle   string
	FeedLink    string
}

// LoadEnv reads a .env file into the process environment when one exists.
// Missing files are fine; real deployments configure through the environment.
func LoadEnv() {
	if err := gotenv.Load(); err != nil {
		slog.Debug("no .env file found, using OS environment")
	}
}

// LoadWorker builds a Worker config from environment variables.
func LoadWorker() (*Worker, error) {
	c := &Worker{
		Common:            loadCommon(),
		KafkaBrokers:      splitAndTrim(getEnv("KAFKA_BROKERS", "kafka:9092")),
		KafkaTopic:        getEnv("KAFKA_TOPIC", "news_batches"),
		KafkaConsumer:     getEnv("KAFKA_CONSUMER_GROUP", "archive-worker"),
		ArchiveMode:       strings.ToLower(getEnv("ARCHIVE_MODE", ModeStore)),
		ArchivePath:       getEnv("ARCHIVE_PATH", "ai_news.md"),
		StoreChunkSize:    getInt("STORE_CHUNK_SIZE", 30),
		SeenCacheCapacity: getInt("SEEN_CACHE_CAPACITY", 20000),
		SeenCacheTTL:      getDuration("SEEN_CACHE_TTL", "24h"),
	}

	if len(c.KafkaBrokers) == 0 {
		return nil, fmt.Errorf("KAFKA_BROKERS must contain at least one broker")
	}
	if c.ArchiveMode != ModeFile && c.ArchiveMode != ModeStore {
		return nil, fmt.Errorf("ARCHIVE_MODE must be %q or %q", ModeFile, ModeStore)
	}
	if c.ArchiveMode == ModeFile && c.ArchivePath == "" {
		return nil, fmt.Errorf("ARCHIVE_PATH must be set in file mode")
	}
	if c.StoreChunkSize <= 0 {
		return nil, fmt.Errorf("STORE_CHUNK_SIZE must be positive")
	}
	if c.SeenCacheCapacity <= 0 {
		return nil, fmt.Errorf("SEEN_CACHE_CAPACITY must be positive")
	}

	return c, nil
}

// LoadAPI builds an API config from environment variables.
func LoadAPI() (*API, error) {
	c := &API{
		Common:       loadCommon(),
		BindAddr:     getEnv("API_BIND_ADDR", "0.0.0.0:8080"),
		DefaultLimit: getInt("API_PAGE_SIZE", 100),
		MaxLimit:     getInt("API_MAX_PAGE_SIZE", 500),
		FeedTitle:    getEnv("FEED_TITLE", "AI news"),
		FeedLink:     getEnv("FEED_LINK", "https://example.com/news"),
	}

	if c.DefaultLimit <= 0 {
		return nil, fmt.Errorf("API_PAGE_SIZE must be positive")
	}
	if c.MaxLimit <= 0 {
		return nil, fmt.Errorf("API_MAX_PAGE_SIZE must be positive")
	}
	if c.DefaultLimit > c.MaxLimit {
		return nil, fmt.Errorf("API_PAGE_SIZE cannot exceed API_MAX_PAGE_SIZE")
	}

	return c, nil
}

// LoadDigest builds a Digest config from environment variables.
func LoadDigest() (*Digest, error) {
	c := &Digest{
		Common:      loadCommon(),
		Interval:    getDuration("DIGEST_INTERVAL", "1h"),
		ArchivePath: getEnv("DIGEST_ARCHIVE_PATH", "ai_news.md"),
		FeedPath:    getEnv("DIGEST_FEED_PATH", "ai_news.xml"),
		FeedTitle:   getEnv("FEED_TITLE", "AI news"),
		FeedLink:    getEnv("FEED_LINK", "https://example.com/news"),
	}

	if c.Interval <= 0 {
		return nil, fmt.Errorf("DIGEST_INTERVAL must be positive")
	}
	if c.ArchivePath == "" && c.FeedPath == "" {
		return nil, fmt.Errorf("at least one of DIGEST_ARCHIVE_PATH and DIGEST_FEED_PATH must be set")
	}

	return c, nil
}

func loadCommon() Common {
	return Common{
		ElasticsearchAddr:  getEnv("ELASTICSEARCH_ADDR", "http://elasticsearch:9200"),
		ElasticsearchIndex: getEnv("ELASTICSEARCH_INDEX", "news"),
	}
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func getInt(key string, fallback int) int {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			return parsed
		}
	}
	return fallback
}

func getDuration(key, fallback string) time.Duration {
	raw := getEnv(key, fallback)
	d, err := time.ParseDuration(raw)
	if err != nil {
		fd, ferr := time.ParseDuration(fallback)
		if ferr != nil {
			panic(fmt.Sprintf("invalid fallback duration %q: %v", fallback, ferr))
		}
		return fd
	}
	return d
}

func splitAndTrim(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

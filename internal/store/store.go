// Package store persists deduplicated news items in an Elasticsearch index.
//
// Dedup here runs under the URL identity regime: existence is checked against
// exact URLs in bounded-size chunks, and writes are bulk create ops keyed by
// deterministic document IDs, so re-running a failed batch cannot produce
// duplicate records.
package store

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/elastic/go-elasticsearch/v8"

	"github.com/aipulse/news-archive/internal/chunk"
	"github.com/aipulse/news-archive/internal/dedupe"
	"github.com/aipulse/news-archive/internal/models"
)

// DefaultChunkSize bounds existence-check terms queries; 30 matches the
// clause limit typical document backends put on "value in set" filters.
const DefaultChunkSize = 30

// maxResults caps unpaginated reads; Elasticsearch refuses larger windows.
const maxResults = 10000

// ErrEmptyBatch reports caller misuse: a write call with nothing to write.
// Callers can tell "nothing to do" apart from a backend failure.
var ErrEmptyBatch = errors.New("empty batch")

// Store wraps go-elasticsearch with the archive's persistence operations.
type Store struct {
	es        *elasticsearch.Client
	index     string
	chunkSize int
	cache     *dedupe.Cache
	log       *slog.Logger
	now       func() time.Time
}

// New instantiates the store. A non-positive chunkSize falls back to
// DefaultChunkSize.
func New(addr, index string, chunkSize int, logger *slog.Logger) (*Store, error) {
	es, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses: []string{addr},
	})
	if err != nil {
		return nil, fmt.Errorf("create elasticsearch client: %w", err)
	}

	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}

	return &Store{
		es:        es,
		index:     index,
		chunkSize: chunkSize,
		log:       logger,
		now:       time.Now,
	}, nil
}

// UseCache attaches a recently-written cache consulted before remote
// existence checks.
func (s *Store) UseCache(c *dedupe.Cache) {
	s.cache = c
}

// Ping checks if Elasticsearch is available.
func (s *Store) Ping(ctx context.Context) error {
	res, err := s.es.Ping(s.es.Ping.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("ping elasticsearch: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return fmt.Errorf("elasticsearch ping failed: %s", res.Status())
	}

	return nil
}

// EnsureIndex creates the index with keyword mappings for the exact-match
// fields when it does not exist yet.
func (s *Store) EnsureIndex(ctx context.Context) error {
	res, err := s.es.Indices.Exists([]string{s.index}, s.es.Indices.Exists.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("check index: %w", err)
	}
	res.Body.Close()
	if res.StatusCode == http.StatusOK {
		return nil
	}

	mapping := `{
		"mappings": {
			"properties": {
				"title": {"type": "text"},
				"url": {"type": "keyword"},
				"date": {"type": "keyword"},
				"domain": {"type": "keyword"},
				"created_at": {"type": "date"}
			}
		}
	}`

	created, err := s.es.Indices.Create(
		s.index,
		s.es.Indices.Create.WithContext(ctx),
		s.es.Indices.Create.WithBody(strings.NewReader(mapping)),
	)
	if err != nil {
		return fmt.Errorf("create index: %w", err)
	}
	defer created.Body.Close()

	if created.IsError() {
		data, _ := io.ReadAll(created.Body)
		body := string(data)
		if strings.Contains(body, "resource_already_exists_exception") {
			return nil
		}
		return fmt.Errorf("create index failed: %s", strings.TrimSpace(body))
	}

	return nil
}

// AddBatch writes the unseen subset of items and reports (added, skipped).
//
// Existence is checked for the batch's distinct URLs in chunks of at most
// chunkSize; all staged writes then commit as one bulk request. Items without
// a URL skip the pre-check and fall back to their title-derived document key,
// deduplicated by the create op's write-if-absent semantics. The call is not
// atomic: on error some subset may already be committed, and the caller is
// expected to simply re-run the batch, relying on the idempotent keys.
func (s *Store) AddBatch(ctx context.Context, items []models.NewsItem) (int, int, error) {
	if len(items) == 0 {
		return 0, 0, ErrEmptyBatch
	}

	urls := distinctURLs(items)

	toCheck := urls
	if s.cache != nil {
		toCheck = s.cache.Filter(urls)
	}

	known := make(map[string]struct{}, len(urls))
	if len(toCheck) < len(urls) {
		unchecked := make(map[string]struct{}, len(toCheck))
		for _, u := range toCheck {
			unchecked[u] = struct{}{}
		}
		for _, u := range urls {
			if _, ok := unchecked[u]; !ok {
				known[u] = struct{}{}
			}
		}
	}

	for _, urlChunk := range chunk.Split(toCheck, s.chunkSize) {
		found, err := s.existingURLs(ctx, urlChunk)
		if err != nil {
			return 0, 0, fmt.Errorf("check existing urls: %w", err)
		}
		for _, u := range found {
			known[u] = struct{}{}
		}
	}

	var body bytes.Buffer
	enc := json.NewEncoder(&body)
	stagedIDs := make(map[string]struct{}, len(items))
	var stagedURLs []string
	staged, skipped := 0, 0
	now := s.now().UTC()

	for _, item := range items {
		if item.URL != "" {
			if _, ok := known[item.URL]; ok {
				skipped++
				continue
			}
		}

		id := item.DocumentID()
		if _, ok := stagedIDs[id]; ok {
			// Same logical item repeated inside one batch.
			skipped++
			continue
		}
		stagedIDs[id] = struct{}{}

		item.CreatedAt = now
		if err := enc.Encode(bulkMeta{Create: bulkTarget{Index: s.index, ID: id}}); err != nil {
			return 0, 0, fmt.Errorf("encode bulk meta: %w", err)
		}
		if err := enc.Encode(item); err != nil {
			return 0, 0, fmt.Errorf("encode bulk doc: %w", err)
		}
		if item.URL != "" {
			stagedURLs = append(stagedURLs, item.URL)
		}
		staged++
	}

	if staged == 0 {
		return 0, skipped, nil
	}

	created, conflicts, err := s.bulkCreate(ctx, &body)
	if err != nil {
		return 0, 0, fmt.Errorf("commit batch: %w", err)
	}

	if s.cache != nil {
		s.cache.Remember(stagedURLs...)
	}

	return created, skipped + conflicts, nil
}

type bulkTarget struct {
	Index string `json:"_index"`
	ID    string `json:"_id"`
}

type bulkMeta struct {
	Create bulkTarget `json:"create"`
}

// bulkCreate commits the staged create ops. A 409 on an individual op means
// the document key already exists and counts as a skip, not a failure.
func (s *Store) bulkCreate(ctx context.Context, body io.Reader) (created, conflicts int, err error) {
	res, err := s.es.Bulk(body, s.es.Bulk.WithContext(ctx), s.es.Bulk.WithIndex(s.index))
	if err != nil {
		return 0, 0, fmt.Errorf("bulk: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		data, _ := io.ReadAll(res.Body)
		return 0, 0, fmt.Errorf("bulk failed: %s", strings.TrimSpace(string(data)))
	}

	var parsed struct {
		Items []map[string]struct {
			Status int `json:"status"`
			Error  *struct {
				Type   string `json:"type"`
				Reason string `json:"reason"`
			} `json:"error"`
		} `json:"items"`
	}
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return 0, 0, fmt.Errorf("decode bulk response: %w", err)
	}

	for _, item := range parsed.Items {
		op, ok := item["create"]
		if !ok {
			continue
		}
		switch {
		case op.Status == http.StatusConflict:
			conflicts++
		case op.Status >= http.StatusMultipleChoices:
			reason := "unknown"
			if op.Error != nil {
				reason = fmt.Sprintf("%s: %s", op.Error.Type, op.Error.Reason)
			}
			return created, conflicts, fmt.Errorf("bulk create op failed: %s", reason)
		default:
			created++
		}
	}

	return created, conflicts, nil
}

// existingURLs returns which of the given URLs are already stored.
func (s *Store) existingURLs(ctx context.Context, urls []string) ([]string, error) {
	if len(urls) == 0 {
		return nil, nil
	}

	body := map[string]any{
		"size":    len(urls),
		"_source": []string{"url"},
		"query": map[string]any{
			"terms": map[string]any{
				"url": urls,
			},
		},
	}

	hits, err := s.runSearch(ctx, body)
	if err != nil {
		return nil, err
	}

	out := make([]string, 0, len(hits))
	for _, hit := range hits {
		if hit.URL != "" {
			out = append(out, hit.URL)
		}
	}
	return out, nil
}

// All returns every stored item, most recently written first.
func (s *Store) All(ctx context.Context) ([]models.NewsItem, error) {
	return s.query(ctx, map[string]any{"match_all": map[string]any{}}, maxResults)
}

// Recent returns up to limit items ordered by write time, newest first.
func (s *Store) Recent(ctx context.Context, limit int) ([]models.NewsItem, error) {
	if limit <= 0 || limit > maxResults {
		limit = maxResults
	}
	return s.query(ctx, map[string]any{"match_all": map[string]any{}}, limit)
}

// ByDate returns the items recorded under the given section label.
func (s *Store) ByDate(ctx context.Context, date string) ([]models.NewsItem, error) {
	return s.query(ctx, map[string]any{"term": map[string]any{"date": date}}, maxResults)
}

// ByDomain returns the items collected from the given domain.
func (s *Store) ByDomain(ctx context.Context, domain string) ([]models.NewsItem, error) {
	return s.query(ctx, map[string]any{"term": map[string]any{"domain": domain}}, maxResults)
}

// Delete removes the item stored for the given URL. It reports false when
// nothing matched.
func (s *Store) Delete(ctx context.Context, url string) (bool, error) {
	body := map[string]any{
		"query": map[string]any{
			"term": map[string]any{
				"url": url,
			},
		},
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return false, fmt.Errorf("marshal delete body: %w", err)
	}

	res, err := s.es.DeleteByQuery(
		[]string{s.index},
		bytes.NewReader(payload),
		s.es.DeleteByQuery.WithContext(ctx),
		s.es.DeleteByQuery.WithConflicts("proceed"),
	)
	if err != nil {
		return false, fmt.Errorf("delete by query: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		data, _ := io.ReadAll(res.Body)
		return false, fmt.Errorf("delete by query failed: %s", strings.TrimSpace(string(data)))
	}

	var parsed struct {
		Deleted int64 `json:"deleted"`
	}
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return false, fmt.Errorf("decode delete response: %w", err)
	}

	return parsed.Deleted > 0, nil
}

// Health pings Elasticsearch to ensure connectivity.
func (s *Store) Health(ctx context.Context) error {
	res, err := s.es.Cluster.Health(s.es.Cluster.Health.WithContext(ctx))
	if err != nil {
		return err
	}
	defer res.Body.Close()
	if res.StatusCode >= http.StatusBadRequest {
		data, _ := io.ReadAll(res.Body)
		return fmt.Errorf("cluster health bad: %s", strings.TrimSpace(string(data)))
	}
	return nil
}

// query runs a filtered search sorted by write time descending.
func (s *Store) query(ctx context.Context, query map[string]any, size int) ([]models.NewsItem, error) {
	body := map[string]any{
		"size":  size,
		"query": query,
		"sort": []map[string]any{
			{"created_at": map[string]any{"order": "desc", "unmapped_type": "date"}},
		},
	}

	return s.runSearch(ctx, body)
}

func (s *Store) runSearch(ctx context.Context, body map[string]any) ([]models.NewsItem, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshal search body: %w", err)
	}

	res, err := s.es.Search(
		s.es.Search.WithContext(ctx),
		s.es.Search.WithIndex(s.index),
		s.es.Search.WithBody(bytes.NewReader(payload)),
	)
	if err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		data, _ := io.ReadAll(res.Body)
		return nil, fmt.Errorf("search failed: %s", strings.TrimSpace(string(data)))
	}

	var parsed struct {
		Hits struct {
			Hits []struct {
				Source models.NewsItem `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("decode search response: %w", err)
	}

	out := make([]models.NewsItem, 0, len(parsed.Hits.Hits))
	for _, hit := range parsed.Hits.Hits {
		out = append(out, hit.Source)
	}
	return out, nil
}

func distinctURLs(items []models.NewsItem) []string {
	seen := make(map[string]struct{}, len(items))
	var urls []string
	for _, item := range items {
		if item.URL == "" {
			continue
		}
		if _, ok := seen[item.URL]; ok {
			continue
		}
		seen[item.URL] = struct{}{}
		urls = append(urls, item.URL)
	}
	return urls
}

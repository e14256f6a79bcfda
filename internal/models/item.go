package models

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"time"
)

// NewsItem represents a single reported fact collected in a research batch.
// Date carries the section label the item was found under and is empty for
// items lifted from non-dated archives.
type NewsItem struct {
	Title     string    `json:"title"`
	URL       string    `json:"url"`
	Date      string    `json:"date,omitempty"`
	Domain    string    `json:"domain,omitempty"`
	CreatedAt time.Time `json:"created_at,omitzero"`
}

// New builds a NewsItem with a trimmed title. The domain is derived from the
// URL host when not supplied; a malformed URL leaves it empty.
func New(title, rawURL, date, domain string) NewsItem {
	item := NewsItem{
		Title:  strings.TrimSpace(title),
		URL:    strings.TrimSpace(rawURL),
		Date:   date,
		Domain: domain,
	}
	if item.Domain == "" && item.URL != "" {
		item.Domain = ExtractDomain(item.URL)
	}
	return item
}

// ExtractDomain returns the host portion of a URL, or "" when it has none.
func ExtractDomain(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	return u.Host
}

// KeyFunc projects an item onto the identity string used for deduplication.
// The two archive backends dedup under different regimes, so the comparator
// is explicit rather than baked into the type.
type KeyFunc func(NewsItem) string

// TitleKey identifies an item by its case-insensitively normalized title.
// This is the regime of the file-archive merge.
func TitleKey(item NewsItem) string {
	return strings.ToLower(strings.TrimSpace(item.Title))
}

// URLKey identifies an item by its exact URL. This is the regime of the
// persisted store.
func URLKey(item NewsItem) string {
	return item.URL
}

const (
	docIDPrefix  = "news_"
	docIDHashLen = 20
)

// DocumentID derives the deterministic storage key for the item: a namespaced,
// truncated sha256 of the URL, or of the title when the item has no URL.
// The same logical item always maps to the same key, which is what makes
// store writes idempotent.
func (n NewsItem) DocumentID() string {
	src := n.URL
	if src == "" {
		src = n.Title
	}
	sum := sha256.Sum256([]byte(src))
	return docIDPrefix + hex.EncodeToString(sum[:])[:docIDHashLen]
}

// bulletLink matches a bullet line's trailing markdown link: `... - [domain](url)`.
var bulletLink = regexp.MustCompile(`^(.*?)\s+-\s+\[([^\]]+)\]\(([^)]+)\)$`)

// Markdown renders the item as one archive bullet line.
func (n NewsItem) Markdown() string {
	if n.URL != "" && n.Domain != "" {
		return fmt.Sprintf("* %s - [%s](%s)", n.Title, n.Domain, n.URL)
	}
	return "* " + n.Title
}

// ParseBullet parses a single `* ` list line into an item, attaching the given
// section label as its date. The second return is false when the line is not
// a bullet at all.
func ParseBullet(line, date string) (NewsItem, bool) {
	line = strings.TrimSpace(line)
	if !strings.HasPrefix(line, "* ") {
		return NewsItem{}, false
	}
	text := strings.TrimSpace(line[2:])
	if m := bulletLink.FindStringSubmatch(text); m != nil {
		return New(m[1], m[3], date, m[2]), true
	}
	return New(text, "", date, ""), true
}

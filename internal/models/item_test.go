package models_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/aipulse/news-archive/internal/models"
)

func TestNewTrimsAndDerivesDomain(t *testing.T) {
	item := models.New("  OpenAI ships a model  ", "https://x.com/1", "15 Dec 2025", "")
	require.Equal(t, "OpenAI ships a model", item.Title)
	require.Equal(t, "https://x.com/1", item.URL)
	require.Equal(t, "x.com", item.Domain)
	require.Equal(t, "15 Dec 2025", item.Date)
}

func TestNewKeepsSuppliedDomain(t *testing.T) {
	item := models.New("title", "https://sub.x.com/1", "", "x.com")
	require.Equal(t, "x.com", item.Domain)
}

func TestNewMalformedURL(t *testing.T) {
	item := models.New("title", "http://bad url%", "", "")
	require.Empty(t, item.Domain)
}

func TestTitleKeyNormalizes(t *testing.T) {
	a := models.New("Item A", "", "", "")
	b := models.New("  ITEM a ", "", "", "")
	require.Equal(t, models.TitleKey(a), models.TitleKey(b))
}

func TestURLKeyIsExact(t *testing.T) {
	a := models.New("one wording", "http://x.com/1", "", "")
	b := models.New("another wording", "http://x.com/1", "", "")
	require.Equal(t, models.URLKey(a), models.URLKey(b))

	c := models.New("one wording", "http://x.com/2", "", "")
	require.NotEqual(t, models.URLKey(a), models.URLKey(c))
}

func TestDocumentIDDeterministic(t *testing.T) {
	a := models.New("title", "http://x.com/1", "", "")
	b := models.New("other title, same url", "http://x.com/1", "", "")
	require.Equal(t, a.DocumentID(), b.DocumentID())
	require.True(t, strings.HasPrefix(a.DocumentID(), "news_"))
	require.Len(t, a.DocumentID(), len("news_")+20)
}

func TestDocumentIDFallsBackToTitle(t *testing.T) {
	a := models.New("no link here", "", "", "")
	b := models.New("no link here", "", "", "")
	c := models.New("different item", "", "", "")
	require.Equal(t, a.DocumentID(), b.DocumentID())
	require.NotEqual(t, a.DocumentID(), c.DocumentID())
}

func TestMarkdown(t *testing.T) {
	withLink := models.New("Item B", "http://x.com/1", "", "")
	require.Equal(t, "* Item B - [x.com](http://x.com/1)", withLink.Markdown())

	bare := models.New("Item A", "", "", "")
	require.Equal(t, "* Item A", bare.Markdown())
}

func TestParseBullet(t *testing.T) {
	tests := []struct {
		name   string
		line   string
		ok     bool
		title  string
		url    string
		domain string
	}{
		{name: "with link", line: "* Item B - [x.com](http://x.com/1)", ok: true, title: "Item B", url: "http://x.com/1", domain: "x.com"},
		{name: "plain", line: "* Item A", ok: true, title: "Item A"},
		{name: "dash without link", line: "* Costs down - analysts react", ok: true, title: "Costs down - analysts react"},
		{name: "indented", line: "  * Item C  ", ok: true, title: "Item C"},
		{name: "not a bullet", line: "Item D", ok: false},
		{name: "heading", line: "## 15 Dec 2025", ok: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			item, ok := models.ParseBullet(tt.line, "15 Dec 2025")
			require.Equal(t, tt.ok, ok)
			if !tt.ok {
				return
			}
			require.Equal(t, tt.title, item.Title)
			require.Equal(t, tt.url, item.URL)
			require.Equal(t, tt.domain, item.Domain)
			require.Equal(t, "15 Dec 2025", item.Date)
		})
	}
}

func TestParseBulletRoundTrip(t *testing.T) {
	original := models.New("Item B", "http://x.com/1", "15 Dec 2025", "")
	parsed, ok := models.ParseBullet(original.Markdown(), "15 Dec 2025")
	require.True(t, ok)
	require.Equal(t, original, parsed)
}

// Package feed renders stored news items as an RSS document.
package feed

import (
	"fmt"
	"time"

	"github.com/gorilla/feeds"

	"github.com/aipulse/news-archive/internal/models"
)

// Build renders items (expected newest first) as RSS. Items without a URL
// link back to the feed's own page.
func Build(items []models.NewsItem, title, link string, now time.Time) (string, error) {
	f := &feeds.Feed{
		Title:       title,
		Link:        &feeds.Link{Href: link},
		Description: "Deduplicated archive of collected news items",
		Created:     now,
	}

	for _, item := range items {
		href := item.URL
		if href == "" {
			href = link
		}
		f.Items = append(f.Items, &feeds.Item{
			Title:       item.Title,
			Link:        &feeds.Link{Href: href},
			Description: describe(item),
			Id:          item.DocumentID(),
			Created:     item.CreatedAt,
		})
	}

	rss, err := f.ToRss()
	if err != nil {
		return "", fmt.Errorf("render rss: %w", err)
	}
	return rss, nil
}

func describe(item models.NewsItem) string {
	switch {
	case item.Domain != "" && item.Date != "":
		return fmt.Sprintf("%s - %s (%s)", item.Title, item.Domain, item.Date)
	case item.Domain != "":
		return fmt.Sprintf("%s - %s", item.Title, item.Domain)
	case item.Date != "":
		return fmt.Sprintf("%s (%s)", item.Title, item.Date)
	default:
		return item.Title
	}
}

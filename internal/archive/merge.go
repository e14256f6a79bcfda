// Package archive maintains the deduplicated, date-ordered markdown archive
// of collected news items.
package archive

import (
	"strings"

	"github.com/aipulse/news-archive/internal/markdown"
	"github.com/aipulse/news-archive/internal/models"
)

// Merge combines an existing archive document with a freshly collected batch,
// adding only items whose normalized title has not been recorded yet. It is a
// pure function of its two inputs; serializing concurrent read-merge-write
// cycles against a shared file is the caller's job (see File).
//
// The result contains every item of existing, in its original within-section
// order, plus each textually novel item of incoming exactly once, appended to
// the section it arrived under.
func Merge(existing, incoming string) string {
	if strings.TrimSpace(existing) == "" {
		return incoming
	}

	merged := markdown.Parse(existing)
	batch := markdown.Parse(incoming)

	seen := make(map[string]struct{})
	for _, item := range merged.Items() {
		seen[models.TitleKey(item)] = struct{}{}
	}

	for _, section := range batch.Sections {
		for _, item := range section.Items {
			key := models.TitleKey(item)
			if _, ok := seen[key]; ok {
				continue
			}
			// Mark immediately so the same item recurring across sections of
			// the incoming batch is appended once.
			seen[key] = struct{}{}
			target := merged.Ensure(section.Label)
			target.Items = append(target.Items, item)
		}
	}

	return merged.Render()
}

// Package markdown parses and renders the archive document format: an
// optional `# title` line followed by `## <section label>` headings, each
// listing `* ` bullet items.
package markdown

import (
	"strings"

	"github.com/aipulse/news-archive/internal/dates"
	"github.com/aipulse/news-archive/internal/models"
)

// Section groups the items listed under one level-2 heading.
type Section struct {
	Label string
	Items []models.NewsItem
}

// Document is an ordered mapping from section label to items, plus the
// optional top-level title.
type Document struct {
	Title    string
	Sections []*Section

	index map[string]*Section
}

// NewDocument returns an empty document with the given title.
func NewDocument(title string) *Document {
	return &Document{Title: title, index: make(map[string]*Section)}
}

// Parse scans a markdown document line by line into sections. Bullet lines
// before any heading have no section to attach to and are dropped. A repeated
// heading label resets the earlier section's items in place, so lookups stay
// single-valued (last occurrence wins).
func Parse(content string) *Document {
	doc := NewDocument("")

	var current *Section
	sawContent := false

	for _, raw := range strings.Split(content, "\n") {
		line := strings.TrimSpace(raw)

		switch {
		case !sawContent && strings.HasPrefix(line, "# ") && !strings.HasPrefix(line, "## "):
			doc.Title = strings.TrimSpace(line[2:])

		case strings.HasPrefix(line, "## ") && !strings.HasPrefix(line, "###"):
			label := strings.TrimSpace(line[3:])
			if existing, ok := doc.index[label]; ok {
				existing.Items = nil
				current = existing
			} else {
				current = doc.Ensure(label)
			}

		case strings.HasPrefix(line, "* ") && current != nil:
			if item, ok := models.ParseBullet(line, current.Label); ok {
				current.Items = append(current.Items, item)
			}
		}

		if line != "" {
			sawContent = true
		}
	}

	return doc
}

// MiscLabel is the section items without a date are grouped under.
const MiscLabel = "Misc"

// FromItems groups stored items back into a document by their date label;
// items without one land in the Misc bucket.
func FromItems(title string, items []models.NewsItem) *Document {
	doc := NewDocument(title)
	for _, item := range items {
		label := item.Date
		if label == "" {
			label = MiscLabel
		}
		s := doc.Ensure(label)
		s.Items = append(s.Items, item)
	}
	return doc
}

// Section returns the section with the given label, or nil.
func (d *Document) Section(label string) *Section {
	return d.index[label]
}

// Ensure returns the section with the given label, appending a new empty one
// when it does not exist yet.
func (d *Document) Ensure(label string) *Section {
	if d.index == nil {
		d.index = make(map[string]*Section)
	}
	if s, ok := d.index[label]; ok {
		return s
	}
	s := &Section{Label: label}
	d.index[label] = s
	d.Sections = append(d.Sections, s)
	return s
}

// Items flattens all sections into one item sequence, in document order.
func (d *Document) Items() []models.NewsItem {
	var out []models.NewsItem
	for _, s := range d.Sections {
		out = append(out, s.Items...)
	}
	return out
}

// Render serializes the document: title line first when present, then date
// sections most recent first, then unrecognized labels, then the Misc bucket.
// Empty sections are never rendered.
func (d *Document) Render() string {
	labels := make([]string, 0, len(d.Sections))
	for _, s := range d.Sections {
		labels = append(labels, s.Label)
	}
	dates.SortLabels(labels)

	var b strings.Builder
	if d.Title != "" {
		b.WriteString("# ")
		b.WriteString(d.Title)
		b.WriteString("\n\n")
	}

	for _, label := range labels {
		s := d.index[label]
		if s == nil || len(s.Items) == 0 {
			continue
		}
		b.WriteString("## ")
		b.WriteString(s.Label)
		b.WriteString("\n")
		for _, item := range s.Items {
			b.WriteString(item.Markdown())
			b.WriteString("\n")
		}
		b.WriteString("\n")
	}

	return b.String()
}

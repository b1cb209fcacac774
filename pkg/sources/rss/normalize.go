package rss

import (
	"html"
	"regexp"
	"strings"

	"github.com/emberworks/content-sync/pkg/content"
)

const (
	CategoryGameUpdate         = "game-update"
	CategoryStudioAnnouncement = "studio-announcement"

	excerptLimit = 260
)

var (
	tagPattern        = regexp.MustCompile(`<[^>]*>`)
	whitespacePattern = regexp.MustCompile(`\s+`)
)

// Normalize maps raw feed entries into canonical content items. Entries
// missing a title or link are dropped and counted as skipped; both fields are
// mandatory.
func (a *Adapter) Normalize(raw []RawItem) ([]content.Item, int) {
	items := make([]content.Item, 0, len(raw))
	skipped := 0

	for _, entry := range raw {
		if entry.Title == "" || entry.Link == "" {
			skipped++
			continue
		}

		items = append(items, content.Item{
			Title:       entry.Title,
			Slug:        content.Slugify(entry.Title),
			Excerpt:     Excerpt(entry.Body),
			Body:        entry.Body,
			ImageURL:    entry.ImageURL,
			Source:      content.SourceRSS,
			SourceURL:   entry.Link,
			PublishedAt: entry.Published,
			ContentType: content.TypeNews,
			Metadata: map[string]interface{}{
				"category": a.Classify(entry.Title),
			},
		})
	}

	return items, skipped
}

// Classify tags an entry as a game update when its title contains any of the
// configured keywords, otherwise as a studio announcement.
func (a *Adapter) Classify(title string) string {
	lowered := strings.ToLower(title)
	for _, keyword := range a.rules.GameUpdateKeywords {
		if strings.Contains(lowered, strings.ToLower(keyword)) {
			return CategoryGameUpdate
		}
	}
	return CategoryStudioAnnouncement
}

// Excerpt strips markup from a body and truncates the result to exactly 260
// characters (257 content characters plus "...") when it runs longer.
func Excerpt(body string) string {
	stripped := StripMarkup(body)
	runes := []rune(stripped)
	if len(runes) <= excerptLimit {
		return stripped
	}
	return string(runes[:excerptLimit-3]) + "..."
}

func StripMarkup(s string) string {
	out := tagPattern.ReplaceAllString(s, " ")
	out = html.UnescapeString(out)
	out = whitespacePattern.ReplaceAllString(out, " ")
	return strings.TrimSpace(out)
}

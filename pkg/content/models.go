package content

import (
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

const (
	StatusDraft     = "draft"
	StatusPublished = "published"
)

type ContentType string

const (
	TypeNews    ContentType = "news"
	TypeReview  ContentType = "review"
	TypeVideo   ContentType = "video"
	TypeGallery ContentType = "gallery"
	TypeRelease ContentType = "release"
)

type Source string

const (
	SourceRSS     Source = "rss"
	SourceCatalog Source = "catalog"
	SourceClips   Source = "clips"
	SourceSeed    Source = "seed"
)

// Item is the canonical content record stored regardless of originating
// provider. The composite unique indexes back the dedup invariant: no two
// items of the same content type share a slug or a source URL, and they let
// SkipIfExists inserts resolve concurrent duplicates at the storage layer.
type Item struct {
	ID          uuid.UUID         `json:"id" gorm:"type:uuid;primaryKey"`
	Title       string            `json:"title" gorm:"column:title"`
	Slug        string            `json:"slug" gorm:"column:slug;uniqueIndex:idx_items_type_slug,priority:2"`
	Excerpt     string            `json:"excerpt" gorm:"column:excerpt"`
	Body        string            `json:"body" gorm:"column:body"`
	ImageURL    string            `json:"image_url,omitempty" gorm:"column:image_url"`
	Source      Source            `json:"source" gorm:"column:source"`
	SourceURL   string            `json:"source_url" gorm:"column:source_url;uniqueIndex:idx_items_type_source_url,priority:2"`
	PublishedAt time.Time         `json:"published_at" gorm:"column:published_at;index"`
	Status      string            `json:"status" gorm:"column:status;index"`
	ContentType ContentType       `json:"content_type" gorm:"column:content_type;uniqueIndex:idx_items_type_slug,priority:1;uniqueIndex:idx_items_type_source_url,priority:1"`
	Metadata    datatypes.JSONMap `json:"metadata,omitempty" gorm:"column:metadata;type:jsonb"`
	CreatedAt   time.Time         `json:"created_at" gorm:"column:created_at"`
	UpdatedAt   time.Time         `json:"updated_at" gorm:"column:updated_at"`
}

func (Item) TableName() string {
	return "content_items"
}

// DedupKey returns the natural-key value used for existence checks, as
// declared by the item's type policy.
func (i *Item) DedupKey() string {
	if PolicyFor(i.ContentType).DedupField == DedupBySourceURL {
		return i.SourceURL
	}
	return i.Slug
}

var slugStrip = regexp.MustCompile(`[^a-z0-9]+`)

// Slugify derives a url-safe slug from a title.
func Slugify(title string) string {
	s := strings.ToLower(strings.TrimSpace(title))
	s = slugStrip.ReplaceAllString(s, "-")
	return strings.Trim(s, "-")
}

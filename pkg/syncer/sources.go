package syncer

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/emberworks/content-sync/pkg/content"
	"github.com/emberworks/content-sync/pkg/sources/catalog"
	"github.com/emberworks/content-sync/pkg/sources/clips"
	"github.com/emberworks/content-sync/pkg/srcerr"
)

// CatalogReleaseSource is the primary link of the releases fallback chain.
type CatalogReleaseSource struct {
	Client  *catalog.Client
	Queries []string
}

func (c *CatalogReleaseSource) Name() string { return "catalog" }

func (c *CatalogReleaseSource) FetchReleases(ctx context.Context) ([]content.Item, error) {
	var all []content.Item
	for _, query := range c.Queries {
		games, err := c.Client.SearchGames(ctx, query)
		if err != nil {
			return nil, err
		}
		all = append(all, catalog.NormalizeReleases(games)...)
	}
	return all, nil
}

// MirrorReleaseSource fetches a pre-published JSON mirror of the catalog,
// used when the OAuth path is down or not configured.
type MirrorReleaseSource struct {
	URL        string
	httpClient *http.Client
}

func NewMirrorReleaseSource(url string) *MirrorReleaseSource {
	return &MirrorReleaseSource{
		URL:        url,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

func (m *MirrorReleaseSource) Name() string { return "mirror" }

func (m *MirrorReleaseSource) FetchReleases(ctx context.Context) ([]content.Item, error) {
	if m.URL == "" {
		return nil, srcerr.Newf(srcerr.NotConfigured, "mirror", "release mirror URL is not configured")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, m.URL, nil)
	if err != nil {
		return nil, srcerr.New(srcerr.Upstream, "mirror", err)
	}
	resp, err := m.httpClient.Do(req)
	if err != nil {
		return nil, srcerr.New(srcerr.Upstream, "mirror", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return nil, srcerr.Newf(srcerr.Upstream, "mirror", "fetch returned status %d: %s", resp.StatusCode, string(body))
	}

	var games []catalog.Game
	if err := json.NewDecoder(resp.Body).Decode(&games); err != nil {
		return nil, srcerr.New(srcerr.Upstream, "mirror", fmt.Errorf("decode mirror: %w", err))
	}
	return catalog.NormalizeReleases(games), nil
}

// SeedReleaseSource is the terminal fallback: a small fixed demo set so a
// fresh environment still renders a release calendar.
type SeedReleaseSource struct{}

func (SeedReleaseSource) Name() string { return "seed" }

func (SeedReleaseSource) FetchReleases(ctx context.Context) ([]content.Item, error) {
	seeds := []struct {
		title   string
		summary string
		release time.Time
	}{
		{"Ashen Verge", "Post-collapse exploration RPG from the Emberworks flagship team.", time.Date(2026, 11, 12, 0, 0, 0, 0, time.UTC)},
		{"Driftlight", "Cooperative sailing roguelite set across a procedurally drowned archipelago.", time.Date(2027, 3, 4, 0, 0, 0, 0, time.UTC)},
		{"Tunnel Sixteen", "Claustrophobic stealth horror built on the studio's in-house engine.", time.Date(2027, 6, 30, 0, 0, 0, 0, time.UTC)},
	}

	items := make([]content.Item, 0, len(seeds))
	for _, s := range seeds {
		slug := content.Slugify(s.title)
		items = append(items, content.Item{
			Title:       s.title,
			Slug:        slug,
			Excerpt:     s.summary,
			Body:        s.summary,
			ImageURL:    catalog.DefaultCoverURL,
			Source:      content.SourceSeed,
			SourceURL:   "seed:" + slug,
			PublishedAt: s.release,
			ContentType: content.TypeRelease,
			Metadata: map[string]interface{}{
				"release_date": s.release.Format(time.RFC3339),
			},
		})
	}
	return items, nil
}

// ClipsSource adapts the clips client to the item-level fetcher the service
// consumes.
type ClipsSource struct {
	Client *clips.Client
}

func (c *ClipsSource) FetchClips(ctx context.Context, limit int) ([]content.Item, int, error) {
	raw, err := c.Client.FetchClips(ctx, limit)
	if err != nil {
		return nil, 0, err
	}
	items, skipped := clips.Normalize(raw)
	return items, skipped, nil
}

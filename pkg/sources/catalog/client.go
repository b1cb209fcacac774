package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/emberworks/content-sync/pkg/content"
	"github.com/emberworks/content-sync/pkg/srcerr"
)

// Game is the provider record shape this service cares about; the upstream
// payload is wider but only these fields survive normalization.
type Game struct {
	ID               int64  `json:"id"`
	Name             string `json:"name"`
	Slug             string `json:"slug"`
	Summary          string `json:"summary"`
	URL              string `json:"url"`
	FirstReleaseDate int64  `json:"first_release_date"`
	Cover            struct {
		ImageID string `json:"image_id"`
	} `json:"cover"`
}

type Client struct {
	httpClient *http.Client
	tokens     *TokenSource
	apiURL     string
	cache      *Cache
}

func NewClient(tokens *TokenSource, apiURL string, cache *Cache) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		tokens:     tokens,
		apiURL:     strings.TrimRight(apiURL, "/"),
		cache:      cache,
	}
}

// SearchGames issues a text query against the catalog endpoint using the
// cached bearer token plus the client-id header.
func (c *Client) SearchGames(ctx context.Context, query string) ([]Game, error) {
	if games, ok := c.cache.Get(ctx, query); ok {
		return games, nil
	}

	token, err := c.tokens.Token(ctx)
	if err != nil {
		return nil, err
	}

	body := fmt.Sprintf("search %q; fields name,slug,summary,url,first_release_date,cover.image_id; limit 50;", query)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiURL+"/games", strings.NewReader(body))
	if err != nil {
		return nil, srcerr.New(srcerr.Upstream, "catalog", err)
	}
	req.Header.Set("Client-ID", c.tokens.ClientID())
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, srcerr.New(srcerr.Upstream, "catalog", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return nil, srcerr.Newf(srcerr.Upstream, "catalog", "search returned status %d: %s", resp.StatusCode, string(respBody))
	}

	var games []Game
	if err := json.NewDecoder(resp.Body).Decode(&games); err != nil {
		return nil, srcerr.New(srcerr.Upstream, "catalog", fmt.Errorf("decode response: %w", err))
	}

	c.cache.Set(ctx, query, games)
	return games, nil
}

// NormalizeReleases maps provider games to canonical release items. Release
// dates change upstream, which is why releases carry the upsert policy.
func NormalizeReleases(games []Game) []content.Item {
	items := make([]content.Item, 0, len(games))
	for _, g := range games {
		if g.Name == "" {
			continue
		}
		slug := g.Slug
		if slug == "" {
			slug = content.Slugify(g.Name)
		}
		sourceURL := g.URL
		if sourceURL == "" {
			sourceURL = fmt.Sprintf("catalog:game:%d", g.ID)
		}

		var releaseDate time.Time
		if g.FirstReleaseDate > 0 {
			releaseDate = time.Unix(g.FirstReleaseDate, 0).UTC()
		}

		items = append(items, content.Item{
			Title:       g.Name,
			Slug:        slug,
			Excerpt:     g.Summary,
			Body:        g.Summary,
			ImageURL:    CoverURL(g.Cover.ImageID, SizeCoverBig),
			Source:      content.SourceCatalog,
			SourceURL:   sourceURL,
			PublishedAt: releaseDate,
			ContentType: content.TypeRelease,
			Metadata: map[string]interface{}{
				"provider_id":  g.ID,
				"release_date": releaseDate.Format(time.RFC3339),
			},
		})
	}
	return items
}

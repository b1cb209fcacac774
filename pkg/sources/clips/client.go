package clips

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/emberworks/content-sync/pkg/content"
	"github.com/emberworks/content-sync/pkg/sources/catalog"
	"github.com/emberworks/content-sync/pkg/srcerr"
)

// Clip is one provider clip record.
type Clip struct {
	ID           string `json:"id"`
	URL          string `json:"url"`
	Title        string `json:"title"`
	ThumbnailURL string `json:"thumbnail_url"`
	CreatedAt    string `json:"created_at"`
	ViewCount    int64  `json:"view_count"`
	CreatorName  string `json:"creator_name"`
}

type clipsResponse struct {
	Data []Clip `json:"data"`
}

// Client fetches clips for a configured broadcaster. It shares the catalog
// token source; both providers sit behind the same identity platform.
type Client struct {
	httpClient    *http.Client
	tokens        *catalog.TokenSource
	apiURL        string
	broadcasterID string
}

func NewClient(tokens *catalog.TokenSource, apiURL, broadcasterID string) *Client {
	return &Client{
		httpClient:    &http.Client{Timeout: 30 * time.Second},
		tokens:        tokens,
		apiURL:        strings.TrimRight(apiURL, "/"),
		broadcasterID: broadcasterID,
	}
}

func (c *Client) FetchClips(ctx context.Context, limit int) ([]Clip, error) {
	if c.broadcasterID == "" {
		return nil, srcerr.Newf(srcerr.NotConfigured, "clips", "broadcaster id is not configured; set CLIPS_BROADCASTER_ID")
	}

	token, err := c.tokens.Token(ctx)
	if err != nil {
		return nil, err
	}

	if limit <= 0 {
		limit = 20
	}
	endpoint := fmt.Sprintf("%s?broadcaster_id=%s&first=%d", c.apiURL, url.QueryEscape(c.broadcasterID), limit)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, srcerr.New(srcerr.Upstream, "clips", err)
	}
	req.Header.Set("Client-ID", c.tokens.ClientID())
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, srcerr.New(srcerr.Upstream, "clips", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return nil, srcerr.Newf(srcerr.Upstream, "clips", "fetch returned status %d: %s", resp.StatusCode, string(respBody))
	}

	var payload clipsResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, srcerr.New(srcerr.Upstream, "clips", fmt.Errorf("decode response: %w", err))
	}

	return payload.Data, nil
}

// Normalize maps clips to canonical video items. The provider clip id is the
// natural slug; clips have no meaningful title-derived identity.
func Normalize(raw []Clip) ([]content.Item, int) {
	items := make([]content.Item, 0, len(raw))
	skipped := 0
	for _, clip := range raw {
		if clip.ID == "" || clip.URL == "" {
			skipped++
			continue
		}

		publishedAt, err := time.Parse(time.RFC3339, clip.CreatedAt)
		if err != nil {
			publishedAt = time.Now().UTC()
		}

		title := clip.Title
		if title == "" {
			title = "Clip " + clip.ID
		}

		items = append(items, content.Item{
			Title:       title,
			Slug:        clip.ID,
			Excerpt:     title,
			ImageURL:    clip.ThumbnailURL,
			Source:      content.SourceClips,
			SourceURL:   clip.URL,
			PublishedAt: publishedAt,
			ContentType: content.TypeVideo,
			Metadata: map[string]interface{}{
				"view_count": clip.ViewCount,
				"creator":    clip.CreatorName,
			},
		})
	}
	return items, skipped
}

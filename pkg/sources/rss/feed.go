package rss

import (
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/emberworks/content-sync/pkg/srcerr"
)

// RawItem is one feed entry before normalization.
type RawItem struct {
	Title     string
	Link      string
	Published time.Time
	Body      string
	ImageURL  string
}

type rssDocument struct {
	XMLName xml.Name   `xml:"rss"`
	Channel rssChannel `xml:"channel"`
}

type rssChannel struct {
	Items []rssItem `xml:"item"`
}

type rssItem struct {
	Title       string       `xml:"title"`
	Link        string       `xml:"link"`
	PubDate     string       `xml:"pubDate"`
	Description string       `xml:"description"`
	Content     string       `xml:"http://purl.org/rss/1.0/modules/content/ encoded"`
	Enclosure   rssEnclosure `xml:"enclosure"`
}

type rssEnclosure struct {
	URL  string `xml:"url,attr"`
	Type string `xml:"type,attr"`
}

type Adapter struct {
	httpClient *http.Client
	rules      Rules
}

func New(rules Rules) *Adapter {
	return &Adapter{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		rules:      rules,
	}
}

// Fetch downloads and parses one feed. Failures are classified as upstream
// errors scoped to the feed URL so sibling fetches continue undisturbed.
func (a *Adapter) Fetch(ctx context.Context, feedURL string) ([]RawItem, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, feedURL, nil)
	if err != nil {
		return nil, srcerr.New(srcerr.Upstream, feedURL, err)
	}
	req.Header.Set("Accept", "application/rss+xml, application/xml, text/xml")
	req.Header.Set("User-Agent", "emberworks-content-sync/1.0")

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return nil, srcerr.New(srcerr.Upstream, feedURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, srcerr.Newf(srcerr.Upstream, feedURL, "unexpected status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, srcerr.New(srcerr.Upstream, feedURL, err)
	}

	return Parse(body, feedURL)
}

// Parse decodes RSS 2.0 markup. encoding/xml handles CDATA-wrapped and plain
// text element content uniformly, as well as attribute ordering and
// namespaced content:encoded elements.
func Parse(data []byte, feedURL string) ([]RawItem, error) {
	var doc rssDocument
	if err := xml.Unmarshal(data, &doc); err != nil {
		return nil, srcerr.New(srcerr.Upstream, feedURL, fmt.Errorf("parse feed: %w", err))
	}

	items := make([]RawItem, 0, len(doc.Channel.Items))
	for _, entry := range doc.Channel.Items {
		body := entry.Content
		if body == "" {
			body = entry.Description
		}
		raw := RawItem{
			Title:     entry.Title,
			Link:      entry.Link,
			Published: parsePubDate(entry.PubDate),
			Body:      body,
		}
		if entry.Enclosure.URL != "" {
			raw.ImageURL = entry.Enclosure.URL
		}
		items = append(items, raw)
	}
	return items, nil
}

var pubDateLayouts = []string{
	time.RFC1123Z,
	time.RFC1123,
	time.RFC822Z,
	time.RFC822,
	time.RFC3339,
}

func parsePubDate(value string) time.Time {
	for _, layout := range pubDateLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t
		}
	}
	return time.Now().UTC()
}

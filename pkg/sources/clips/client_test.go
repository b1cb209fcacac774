package clips

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/emberworks/content-sync/pkg/content"
	"github.com/emberworks/content-sync/pkg/sources/catalog"
	"github.com/emberworks/content-sync/pkg/srcerr"
)

func tokenServer(t *testing.T) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"access_token":"clip-token","token_type":"bearer","expires_in":3600}`))
	}))
}

func TestFetchClips(t *testing.T) {
	auth := tokenServer(t)
	defer auth.Close()

	var gotAuth, gotQuery string
	api := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotQuery = r.URL.RawQuery
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"data":[{"id":"AwkwardSpicyClip","url":"https://clips.example/AwkwardSpicyClip","title":"Boss kill","thumbnail_url":"https://clips.example/thumb.jpg","created_at":"2025-06-02T10:30:00Z","view_count":412,"creator_name":"driftlight_fan"}]}`))
	}))
	defer api.Close()

	tokens := catalog.NewTokenSource("id", "secret", auth.URL)
	client := NewClient(tokens, api.URL, "broadcaster-7")

	clips, err := client.FetchClips(context.Background(), 20)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(clips) != 1 {
		t.Fatalf("expected 1 clip, got %d", len(clips))
	}
	if clips[0].ID != "AwkwardSpicyClip" {
		t.Errorf("unexpected clip id: %q", clips[0].ID)
	}
	if gotAuth != "Bearer clip-token" {
		t.Errorf("unexpected authorization header: %q", gotAuth)
	}
	if gotQuery != "broadcaster_id=broadcaster-7&first=20" {
		t.Errorf("unexpected query: %q", gotQuery)
	}
}

func TestFetchClipsMissingBroadcaster(t *testing.T) {
	tokens := catalog.NewTokenSource("id", "secret", "https://auth.example/token")
	client := NewClient(tokens, "https://api.example/clips", "")

	_, err := client.FetchClips(context.Background(), 20)
	if err == nil {
		t.Fatal("expected error")
	}
	if srcerr.KindOf(err) != srcerr.NotConfigured {
		t.Errorf("expected not-configured kind, got %v", srcerr.KindOf(err))
	}
}

func TestNormalize(t *testing.T) {
	raw := []Clip{
		{ID: "abc123", URL: "https://clips.example/abc123", Title: "Boss kill", CreatedAt: "2025-06-02T10:30:00Z", ViewCount: 12},
		{ID: "", URL: "https://clips.example/missing-id"},
		{ID: "def456", URL: ""},
		{ID: "ghi789", URL: "https://clips.example/ghi789"},
	}

	items, skipped := Normalize(raw)
	if len(items) != 2 {
		t.Fatalf("expected 2 items, got %d", len(items))
	}
	if skipped != 2 {
		t.Errorf("expected 2 skipped, got %d", skipped)
	}

	first := items[0]
	if first.ContentType != content.TypeVideo {
		t.Errorf("unexpected content type: %q", first.ContentType)
	}
	if first.Slug != "abc123" {
		t.Errorf("clip id should be the slug, got %q", first.Slug)
	}
	if first.PublishedAt.IsZero() {
		t.Error("expected published_at from created_at")
	}

	// Missing title falls back to a derived one.
	second := items[1]
	if second.Title != "Clip ghi789" {
		t.Errorf("unexpected fallback title: %q", second.Title)
	}
}

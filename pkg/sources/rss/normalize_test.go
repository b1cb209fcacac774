package rss

import (
	"strings"
	"testing"

	"github.com/emberworks/content-sync/pkg/content"
)

func testAdapter() *Adapter {
	return New(DefaultRules())
}

func TestNormalizeSkipsIncompleteEntries(t *testing.T) {
	raw := []RawItem{
		{Title: "Valid Entry", Link: "https://studio.example/news/1", Body: "body"},
		{Title: "", Link: "https://studio.example/news/2", Body: "no title"},
		{Title: "No Link", Link: "", Body: "no link"},
	}

	items, skipped := testAdapter().Normalize(raw)
	if len(items) != 1 {
		t.Fatalf("expected 1 item, got %d", len(items))
	}
	if skipped != 2 {
		t.Errorf("expected 2 skipped, got %d", skipped)
	}

	item := items[0]
	if item.ContentType != content.TypeNews {
		t.Errorf("unexpected content type: %q", item.ContentType)
	}
	if item.Source != content.SourceRSS {
		t.Errorf("unexpected source: %q", item.Source)
	}
	if item.Slug != "valid-entry" {
		t.Errorf("unexpected slug: %q", item.Slug)
	}
	if item.SourceURL != "https://studio.example/news/1" {
		t.Errorf("unexpected source url: %q", item.SourceURL)
	}
}

func TestClassify(t *testing.T) {
	a := testAdapter()
	cases := []struct {
		title string
		want  string
	}{
		{"Driftlight Patch 2.0 Notes", CategoryGameUpdate},
		{"Hotfix deployed for Tunnel Sixteen", CategoryGameUpdate},
		{"VERSION 1.4 is live", CategoryGameUpdate},
		{"We are hiring a narrative designer", CategoryStudioAnnouncement},
	}
	for _, c := range cases {
		if got := a.Classify(c.title); got != c.want {
			t.Errorf("Classify(%q) = %q, want %q", c.title, got, c.want)
		}
	}
}

func TestExcerptTruncation(t *testing.T) {
	long := strings.Repeat("a", 500)
	got := Excerpt(long)
	if len([]rune(got)) != 260 {
		t.Fatalf("expected excerpt of 260 characters, got %d", len([]rune(got)))
	}
	if !strings.HasSuffix(got, "...") {
		t.Errorf("expected excerpt to end with ellipsis, got %q", got[len(got)-10:])
	}

	short := "A short body."
	if Excerpt(short) != short {
		t.Errorf("short body should pass through unchanged")
	}

	exact := strings.Repeat("b", 260)
	if Excerpt(exact) != exact {
		t.Errorf("body at the limit should pass through unchanged")
	}
}

func TestStripMarkup(t *testing.T) {
	in := "<p>Fixes &amp; balance   changes.</p>\n<ul><li>One</li></ul>"
	got := StripMarkup(in)
	want := "Fixes & balance changes. One"
	if got != want {
		t.Errorf("StripMarkup = %q, want %q", got, want)
	}
}

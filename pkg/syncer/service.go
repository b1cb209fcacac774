package syncer

import (
	"context"
	"fmt"
	"sync"

	"github.com/emberworks/content-sync/pkg/audit"
	"github.com/emberworks/content-sync/pkg/common/logger"
	"github.com/emberworks/content-sync/pkg/content"
	"github.com/emberworks/content-sync/pkg/execlog"
	"github.com/emberworks/content-sync/pkg/gateway"
	"github.com/emberworks/content-sync/pkg/sources/rss"
	"github.com/emberworks/content-sync/pkg/srcerr"
)

// FeedFetcher is what the news job needs from the RSS adapter.
type FeedFetcher interface {
	Fetch(ctx context.Context, feedURL string) ([]rss.RawItem, error)
	Normalize(raw []rss.RawItem) ([]content.Item, int)
}

// ClipFetcher is what the clips job needs from the clips adapter.
type ClipFetcher interface {
	FetchClips(ctx context.Context, limit int) ([]content.Item, int, error)
}

// ReleaseSource is one link in the releases fallback chain.
type ReleaseSource interface {
	Name() string
	FetchReleases(ctx context.Context) ([]content.Item, error)
}

type Service struct {
	store          content.Store
	feeds          []string
	rssAdapter     FeedFetcher
	releaseSources []ReleaseSource
	clipsAdapter   ClipFetcher
}

func NewService(store content.Store, rssAdapter FeedFetcher, feeds []string, releaseSources []ReleaseSource, clipsAdapter ClipFetcher) *Service {
	return &Service{
		store:          store,
		feeds:          feeds,
		rssAdapter:     rssAdapter,
		releaseSources: releaseSources,
		clipsAdapter:   clipsAdapter,
	}
}

type feedResult struct {
	feedURL string
	items   []content.Item
	skipped int
	err     error
}

// SyncNews fetches all configured feeds concurrently. Each feed is fault
// contained: a dead feed contributes an error string, not a cancelled run.
func (s *Service) SyncNews(ctx context.Context, run *execlog.Run) Outcome {
	actor := actorFrom(ctx)
	outcome := Outcome{Success: true}

	results := make([]feedResult, len(s.feeds))
	var wg sync.WaitGroup
	for i, feedURL := range s.feeds {
		wg.Add(1)
		go func(i int, feedURL string) {
			defer wg.Done()
			raw, err := s.rssAdapter.Fetch(ctx, feedURL)
			if err != nil {
				results[i] = feedResult{feedURL: feedURL, err: err}
				return
			}
			items, skipped := s.rssAdapter.Normalize(raw)
			results[i] = feedResult{feedURL: feedURL, items: items, skipped: skipped}
		}(i, feedURL)
	}
	wg.Wait()

	for _, res := range results {
		if res.err != nil {
			logger.Log.WithError(res.err).WithField("feed", res.feedURL).Warn("feed fetch failed")
			outcome.Errors = append(outcome.Errors, res.err.Error())
			continue
		}
		outcome.Fetched += len(res.items) + res.skipped
		outcome.Skipped += res.skipped
		s.reconcileAll(ctx, res.items, actor, run, &outcome)
	}

	run.SetMetadata("feeds", len(s.feeds))
	return outcome
}

// SyncReleases walks the fallback chain in priority order; the first source
// that answers wins, and the attempted chain is reported back.
func (s *Service) SyncReleases(ctx context.Context, run *execlog.Run) Outcome {
	actor := actorFrom(ctx)
	outcome := Outcome{Success: true}

	var items []content.Item
	var lastErr error
	for _, source := range s.releaseSources {
		outcome.Attempted = append(outcome.Attempted, source.Name())
		fetched, err := source.FetchReleases(ctx)
		if err == nil {
			items = fetched
			lastErr = nil
			break
		}
		lastErr = err
		logger.Log.WithError(err).WithField("source", source.Name()).Warn("release source failed, trying next")
		outcome.Errors = append(outcome.Errors, err.Error())
	}

	if lastErr != nil {
		outcome.Success = false
		outcome.Error = fmt.Sprintf("all release sources failed: %v", lastErr)
		outcome.FailureKind = srcerr.KindOf(lastErr)
		run.SetMetadata("attempted", outcome.Attempted)
		return outcome
	}

	outcome.Fetched = len(items)
	s.reconcileAll(ctx, items, actor, run, &outcome)
	run.SetMetadata("attempted", outcome.Attempted)
	return outcome
}

func (s *Service) SyncClips(ctx context.Context, run *execlog.Run) Outcome {
	actor := actorFrom(ctx)
	outcome := Outcome{Success: true}

	items, skipped, err := s.clipsAdapter.FetchClips(ctx, 20)
	if err != nil {
		outcome.Success = false
		outcome.Error = err.Error()
		outcome.FailureKind = srcerr.KindOf(err)
		return outcome
	}

	outcome.Fetched = len(items) + skipped
	outcome.Skipped = skipped
	s.reconcileAll(ctx, items, actor, run, &outcome)
	return outcome
}

// reconcileAll is partial-failure tolerant: one bad record is reported and
// the loop continues.
func (s *Service) reconcileAll(ctx context.Context, items []content.Item, actor audit.Actor, run *execlog.Run, outcome *Outcome) {
	for i := range items {
		result, err := s.store.Reconcile(ctx, &items[i], actor)
		if err != nil {
			persistErr := srcerr.New(srcerr.Persistence, string(items[i].Source), err)
			logger.Log.WithError(err).WithField("slug", items[i].Slug).Error("reconcile failed")
			outcome.Errors = append(outcome.Errors, persistErr.Error())
			continue
		}
		run.IncrementRecordsProcessed()
		switch result {
		case content.OutcomeInserted:
			outcome.Inserted++
		case content.OutcomeUpdated:
			outcome.Updated++
		case content.OutcomeSkipped:
			outcome.Skipped++
		}
	}
}

func actorFrom(ctx context.Context) audit.Actor {
	if actor, ok := gateway.ActorFromContext(ctx); ok {
		return actor
	}
	return audit.AutomationActor()
}

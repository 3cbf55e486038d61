package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"catalog_syncer/internal/config"
	"catalog_syncer/internal/domain"
	"catalog_syncer/internal/metrics"
)

// SyncService drives one catalog sync run: consult the checkpoint, fetch a
// page, upsert it, advance the checkpoint, wait out the rate limit, repeat.
// A single bad page never terminates the run; only terminal pagination, the
// page cap or cancellation stop the loop.
type SyncService struct {
	source     Source
	batcher    *Batcher
	checkpoint CheckpointStore
	publisher  Publisher
	logger     *slog.Logger
	config     config.SyncConfig
	pageSize   int
}

func NewSyncService(
	source Source,
	batcher *Batcher,
	checkpoint CheckpointStore,
	publisher Publisher,
	logger *slog.Logger,
	cfg config.SyncConfig,
	pageSize int,
) *SyncService {
	return &SyncService{
		source:     source,
		batcher:    batcher,
		checkpoint: checkpoint,
		publisher:  publisher,
		logger:     logger.With("source", source.ID()),
		config:     cfg,
		pageSize:   pageSize,
	}
}

func (s *SyncService) Sync(ctx context.Context) (*domain.SyncSummary, error) {
	start := time.Now()
	summary := &domain.SyncSummary{}

	s.logger.Info("starting sync",
		"source_name", s.source.Name(),
		"max_pages", s.config.MaxPages,
		"page_size", s.pageSize,
	)

	visited, err := s.checkpoint.Load(ctx)
	if err != nil {
		// Fail open: redundant re-fetching is safe, skipping unvisited
		// pages is not. The existence check re-deduplicates either way.
		s.logger.Warn("checkpoint load failed, starting from an empty set", "error", err)
		visited = domain.NewVisitedPages()
	}

	page := 1
loop:
	for {
		select {
		case <-ctx.Done():
			s.logger.Info("cancellation observed, stopping", "page", page)
			summary.Aborted = true
			break loop
		default:
		}

		if s.config.MaxPages > 0 && page > s.config.MaxPages {
			s.logger.Info("reached page limit", "max_pages", s.config.MaxPages)
			break
		}

		if visited.Contains(page) {
			// Already ingested in a previous run. No network call, no wait.
			page++
			continue
		}

		result, err := s.source.FetchPage(ctx, page, s.pageSize)
		if err != nil {
			if errors.Is(err, domain.ErrNoMorePages) {
				s.logger.Info("no more pages upstream", "page", page)
				break
			}
			if ctx.Err() != nil {
				summary.Aborted = true
				break
			}
			s.logger.Error("page fetch failed after retries, skipping page",
				"page", page, "error", err)
			summary.Aborted = true
			summary.Errored++
			metrics.PagesFailedTotal.Inc()
			page++
			s.rateLimitWait(ctx)
			continue
		}

		if len(result.Entries) == 0 && len(result.Rejected) == 0 {
			s.logger.Info("empty page, stopping", "page", page)
			break
		}

		summary.Errored += len(result.Rejected)
		metrics.RecordsRejectedTotal.Add(float64(len(result.Rejected)))

		upsertStart := time.Now()
		batch, err := s.batcher.Upsert(ctx, result.Entries)
		if err != nil {
			s.logger.Error("page upsert failed, page left unvisited",
				"page", page, "entries", len(result.Entries), "error", err)
			summary.Aborted = true
			summary.Errored += len(result.Entries)
			metrics.PagesFailedTotal.Inc()
			page++
			s.rateLimitWait(ctx)
			continue
		}
		metrics.UpsertLatency.Observe(time.Since(upsertStart).Seconds())

		summary.Created += len(batch.Created)
		summary.Updated += len(batch.Updated)
		summary.Errored += len(batch.Failed)
		metrics.EntriesCreatedTotal.Add(float64(len(batch.Created)))
		metrics.EntriesUpdatedTotal.Add(float64(len(batch.Updated)))
		metrics.EntriesFailedTotal.Add(float64(len(batch.Failed)))

		// The page's transaction committed; only now may it become visited.
		visited.Add(page)
		if err := s.checkpoint.Save(ctx, visited); err != nil {
			// Non-fatal: next run re-fetches one page and deduplicates it.
			s.logger.Warn("checkpoint save failed", "page", page, "error", err)
		} else {
			metrics.CheckpointSavesTotal.Inc()
		}

		summary.PagesProcessed++
		metrics.PagesProcessedTotal.Inc()

		s.publishBatch(ctx, &batch, summary)

		s.logger.Info("page ingested",
			"page", page,
			"created", len(batch.Created),
			"updated", len(batch.Updated),
			"failed", len(batch.Failed),
			"rejected", len(result.Rejected),
		)

		if !result.HasNext {
			s.logger.Info("last page reached", "page", page)
			break
		}

		page++
		s.rateLimitWait(ctx)
	}

	summary.Duration = time.Since(start)

	s.logger.Info("sync completed",
		"pages_processed", summary.PagesProcessed,
		"created", summary.Created,
		"updated", summary.Updated,
		"errored", summary.Errored,
		"published", summary.Published,
		"aborted", summary.Aborted,
		"duration", summary.Duration,
	)

	return summary, nil
}

// ClearCheckpoint wipes the persisted visited pages, forcing the next run to
// start from page one.
func (s *SyncService) ClearCheckpoint(ctx context.Context) error {
	return s.checkpoint.Clear(ctx)
}

func (s *SyncService) publishBatch(ctx context.Context, batch *BatchResult, summary *domain.SyncSummary) {
	if s.publisher == nil {
		return
	}

	publish := func(games []domain.Game, isNew bool) {
		for i := range games {
			if err := s.publisher.Publish(ctx, &games[i], isNew); err != nil {
				s.logger.Warn("publish failed",
					"slug", games[i].Slug, "is_new", isNew, "error", err)
				metrics.PublishErrorsTotal.Inc()
				continue
			}
			summary.Published++
		}
	}

	publish(batch.Created, true)
	publish(batch.Updated, false)
}

// rateLimitWait enforces the minimum delay between upstream calls. It runs
// after every iteration that touched the network, whatever the outcome.
func (s *SyncService) rateLimitWait(ctx context.Context) {
	select {
	case <-ctx.Done():
	case <-time.After(s.config.RateLimitDelay):
	}
}

package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"catalog_syncer/internal/domain"
)

// FailedEntry is one entry of a page that could not be written.
type FailedEntry struct {
	ExternalID int64
	Slug       string
	Reason     string
}

// BatchResult reports the per-entry outcome of one page's batch upsert.
type BatchResult struct {
	Created []domain.Game
	Updated []domain.Game
	Failed  []FailedEntry
}

// Batcher writes one page of mapped entries atomically: a single existence
// probe partitions the page into new and existing entries, new ones go in
// with one bulk insert, existing ones get their metadata refreshed. The
// whole sequence runs inside one transaction, so a half-written page is
// never visible.
type Batcher struct {
	games     GameStore
	txManager TransactionManager
	logger    *slog.Logger
}

func NewBatcher(games GameStore, txManager TransactionManager, logger *slog.Logger) *Batcher {
	return &Batcher{
		games:     games,
		txManager: txManager,
		logger:    logger,
	}
}

func (b *Batcher) Upsert(ctx context.Context, entries []domain.Game) (BatchResult, error) {
	var result BatchResult
	if len(entries) == 0 {
		return result, nil
	}

	err := b.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		ids := make([]int64, 0, len(entries))
		for i := range entries {
			if entries[i].ExternalID != nil {
				ids = append(ids, *entries[i].ExternalID)
			}
		}

		existing, err := b.games.GetExistingExternalIDs(txCtx, ids)
		if err != nil {
			return fmt.Errorf("existence check: %w", err)
		}

		var newEntries, knownEntries []domain.Game
		for _, e := range entries {
			if e.ExternalID != nil && contains(existing, *e.ExternalID) {
				knownEntries = append(knownEntries, e)
			} else {
				newEntries = append(newEntries, e)
			}
		}

		created, failed, err := b.insertNew(txCtx, newEntries)
		if err != nil {
			return err
		}
		result.Created = created
		result.Failed = failed

		for i := range knownEntries {
			if err := b.games.UpdateMetadata(txCtx, &knownEntries[i]); err != nil {
				return fmt.Errorf("update entry %q: %w", knownEntries[i].Slug, err)
			}
			result.Updated = append(result.Updated, knownEntries[i])
		}

		return nil
	})
	if err != nil {
		return BatchResult{}, err
	}

	return result, nil
}

// insertNew tries the fast path first: one multi-row insert. On a unique
// violation (a race with a concurrent writer on the same slug or external
// id) the page is replayed row by row so only the conflicting entries fail.
func (b *Batcher) insertNew(ctx context.Context, entries []domain.Game) ([]domain.Game, []FailedEntry, error) {
	if len(entries) == 0 {
		return nil, nil, nil
	}

	err := b.games.InsertBatch(ctx, entries)
	if err == nil {
		return entries, nil, nil
	}
	if !errors.Is(err, domain.ErrDuplicateEntry) {
		return nil, nil, fmt.Errorf("bulk insert: %w", err)
	}

	b.logger.Warn("bulk insert hit a conflict, replaying row by row",
		"entries", len(entries),
		"error", err,
	)

	var created []domain.Game
	var failed []FailedEntry
	for i := range entries {
		e := &entries[i]
		if err := b.games.Insert(ctx, e); err != nil {
			if errors.Is(err, domain.ErrDuplicateEntry) {
				b.logger.Warn("entry conflicts with an existing row",
					"external_id", derefID(e.ExternalID),
					"slug", e.Slug,
				)
				failed = append(failed, FailedEntry{
					ExternalID: derefID(e.ExternalID),
					Slug:       e.Slug,
					Reason:     "unique constraint violation",
				})
				continue
			}
			return nil, nil, fmt.Errorf("insert entry %q: %w", e.Slug, err)
		}
		created = append(created, *e)
	}

	return created, failed, nil
}

func contains(set map[int64]struct{}, id int64) bool {
	_, ok := set[id]
	return ok
}

func derefID(id *int64) int64 {
	if id == nil {
		return 0
	}
	return *id
}

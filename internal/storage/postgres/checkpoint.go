package postgres

import (
	"context"
	"database/sql"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"catalog_syncer/internal/domain"
)

// CheckpointStore persists visited pages in a single-row table, for
// deployments that prefer keeping the checkpoint next to the catalog.
type CheckpointStore struct {
	db *sqlx.DB
}

func NewCheckpointStore(db *sqlx.DB) *CheckpointStore {
	return &CheckpointStore{db: db}
}

func (s *CheckpointStore) Load(ctx context.Context) (domain.VisitedPages, error) {
	var pages pq.Int64Array
	query := `SELECT visited_pages FROM sync_checkpoint WHERE id = 1`

	err := s.db.QueryRowContext(ctx, query).Scan(&pages)
	if err == sql.ErrNoRows {
		return domain.NewVisitedPages(), nil
	}
	if err != nil {
		return nil, err
	}

	visited := domain.NewVisitedPages()
	for _, p := range pages {
		visited.Add(int(p))
	}
	return visited, nil
}

func (s *CheckpointStore) Save(ctx context.Context, pages domain.VisitedPages) error {
	sorted := pages.Sorted()
	arr := make(pq.Int64Array, len(sorted))
	for i, p := range sorted {
		arr[i] = int64(p)
	}

	query := `
		INSERT INTO sync_checkpoint (id, visited_pages, updated_at)
		VALUES (1, $1, NOW())
		ON CONFLICT (id) DO UPDATE SET
			visited_pages = EXCLUDED.visited_pages,
			updated_at = NOW()`

	_, err := s.db.ExecContext(ctx, query, arr)
	return err
}

func (s *CheckpointStore) Clear(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM sync_checkpoint WHERE id = 1`)
	return err
}

package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"catalog_syncer/internal/domain"
)

const uniqueViolationCode = "23505"

type GameStore struct {
	db *sqlx.DB
}

func NewGameStore(db *sqlx.DB) *GameStore {
	return &GameStore{db: db}
}

// GetExistingExternalIDs reports which of the given external IDs are already
// present locally, in a single round trip.
func (s *GameStore) GetExistingExternalIDs(ctx context.Context, ids []int64) (map[int64]struct{}, error) {
	result := make(map[int64]struct{}, len(ids))
	if len(ids) == 0 {
		return result, nil
	}

	query := `SELECT external_id FROM games WHERE external_id = ANY($1)`

	rows, err := GetExecutor(ctx, s.db).QueryContext(ctx, query, pq.Array(ids))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var extID int64
		if err := rows.Scan(&extID); err != nil {
			return nil, err
		}
		result[extID] = struct{}{}
	}

	return result, rows.Err()
}

const gameColumns = `external_id, slug, name, released_date, background_image,
		rating, rating_top, ratings_count, metacritic, playtime,
		suggestions_count, price, is_custom`

const gameColumnCount = 13

// InsertBatch inserts the given entries with one multi-row statement. The
// statement runs under a savepoint so a unique-constraint violation leaves
// the enclosing transaction usable; the violation surfaces as
// domain.ErrDuplicateEntry and the caller decides how to replay.
func (s *GameStore) InsertBatch(ctx context.Context, games []domain.Game) error {
	if len(games) == 0 {
		return nil
	}

	var sb strings.Builder
	sb.WriteString("INSERT INTO games (" + gameColumns + ") VALUES ")
	args := make([]interface{}, 0, len(games)*gameColumnCount)

	for i, g := range games {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString("(")
		for j := 0; j < gameColumnCount; j++ {
			if j > 0 {
				sb.WriteString(", ")
			}
			fmt.Fprintf(&sb, "$%d", i*gameColumnCount+j+1)
		}
		sb.WriteString(")")
		args = append(args, insertArgs(&g)...)
	}

	return WithSavepoint(ctx, "bulk_insert", func() error {
		_, err := GetExecutor(ctx, s.db).ExecContext(ctx, sb.String(), args...)
		return wrapUniqueViolation(err)
	})
}

// Insert inserts a single entry under its own savepoint. Used to replay a
// page row by row after a bulk insert hit a conflict.
func (s *GameStore) Insert(ctx context.Context, game *domain.Game) error {
	query := "INSERT INTO games (" + gameColumns + `) VALUES
		($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`

	return WithSavepoint(ctx, "single_insert", func() error {
		_, err := GetExecutor(ctx, s.db).ExecContext(ctx, query, insertArgs(game)...)
		return wrapUniqueViolation(err)
	})
}

// UpdateMetadata refreshes the upstream metadata fields of an existing
// externally-sourced entry. price and is_custom are owned by the store
// application and are never written here; slug stays fixed once assigned.
func (s *GameStore) UpdateMetadata(ctx context.Context, game *domain.Game) error {
	query := `
		UPDATE games SET
			name = $2,
			released_date = $3,
			background_image = $4,
			rating = $5,
			rating_top = $6,
			ratings_count = $7,
			metacritic = $8,
			playtime = $9,
			suggestions_count = $10,
			updated_at = NOW()
		WHERE external_id = $1 AND is_custom = FALSE`

	_, err := GetExecutor(ctx, s.db).ExecContext(ctx, query,
		game.ExternalID,
		game.Name,
		game.ReleasedDate,
		game.BackgroundImage,
		game.Rating,
		game.RatingTop,
		game.RatingsCount,
		game.Metacritic,
		game.Playtime,
		game.SuggestionsCount,
	)
	return err
}

func insertArgs(g *domain.Game) []interface{} {
	return []interface{}{
		g.ExternalID,
		g.Slug,
		g.Name,
		g.ReleasedDate,
		g.BackgroundImage,
		g.Rating,
		g.RatingTop,
		g.RatingsCount,
		g.Metacritic,
		g.Playtime,
		g.SuggestionsCount,
		g.Price,
		g.IsCustom,
	}
}

func wrapUniqueViolation(err error) error {
	if err == nil {
		return nil
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == uniqueViolationCode {
		return fmt.Errorf("%w: %v", domain.ErrDuplicateEntry, err)
	}
	return err
}

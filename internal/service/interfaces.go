package service

//go:generate mockgen -source=interfaces.go -destination=mocks/mocks.go -package=mocks

import (
	"context"

	"catalog_syncer/internal/domain"
)

type GameStore interface {
	GetExistingExternalIDs(ctx context.Context, ids []int64) (map[int64]struct{}, error)
	InsertBatch(ctx context.Context, games []domain.Game) error
	Insert(ctx context.Context, game *domain.Game) error
	UpdateMetadata(ctx context.Context, game *domain.Game) error
}

type CheckpointStore interface {
	Load(ctx context.Context) (domain.VisitedPages, error)
	Save(ctx context.Context, pages domain.VisitedPages) error
	Clear(ctx context.Context) error
}

type Source interface {
	ID() string
	Name() string
	FetchPage(ctx context.Context, page, pageSize int) (*domain.PageResult, error)
}

type TransactionManager interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

type Publisher interface {
	Publish(ctx context.Context, game *domain.Game, isNew bool) error
	Close() error
}

package checkpoint

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/redis/go-redis/v9"

	"catalog_syncer/internal/domain"
)

// FileStore persists the set of fully ingested page indices in a local JSON
// file holding a sorted list. Load before any Save returns the empty set.
type FileStore struct {
	path string
}

func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

func (s *FileStore) Load(ctx context.Context) (domain.VisitedPages, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return domain.NewVisitedPages(), nil
		}
		return nil, fmt.Errorf("read checkpoint file: %w", err)
	}

	return decode(data)
}

func (s *FileStore) Save(ctx context.Context, pages domain.VisitedPages) error {
	data, err := json.Marshal(pages)
	if err != nil {
		return fmt.Errorf("marshal checkpoint: %w", err)
	}
	return os.WriteFile(s.path, data, 0644)
}

func (s *FileStore) Clear(ctx context.Context) error {
	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// RedisStore persists the set of fully ingested page indices under a single
// Redis key.
type RedisStore struct {
	client *redis.Client
	key    string
}

func NewRedisStore(client *redis.Client, key string) *RedisStore {
	return &RedisStore{
		client: client,
		key:    key,
	}
}

func (s *RedisStore) Load(ctx context.Context) (domain.VisitedPages, error) {
	data, err := s.client.Get(ctx, s.key).Bytes()
	if err != nil {
		if err == redis.Nil {
			return domain.NewVisitedPages(), nil
		}
		return nil, fmt.Errorf("get checkpoint key: %w", err)
	}

	return decode(data)
}

func (s *RedisStore) Save(ctx context.Context, pages domain.VisitedPages) error {
	data, err := json.Marshal(pages)
	if err != nil {
		return fmt.Errorf("marshal checkpoint: %w", err)
	}
	return s.client.Set(ctx, s.key, data, 0).Err()
}

func (s *RedisStore) Clear(ctx context.Context) error {
	return s.client.Del(ctx, s.key).Err()
}

func decode(data []byte) (domain.VisitedPages, error) {
	var pages domain.VisitedPages
	if err := json.Unmarshal(data, &pages); err != nil {
		return nil, fmt.Errorf("unmarshal checkpoint: %w", err)
	}
	return pages, nil
}

package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"quizarena/game"
)

var ErrSnapshotNotFound = errors.New("snapshot not found")

// SnapshotStore keeps the last known public state of each game so it can be
// served after the process that hosted it is gone.
type SnapshotStore interface {
	Save(ctx context.Context, info game.Info) error
	Load(ctx context.Context, code string) (*game.Info, error)
	Delete(ctx context.Context, code string) error
}

type RedisSnapshotStore struct {
	client *redis.Client
	ttl    time.Duration
	log    *slog.Logger
}

func NewRedisSnapshotStore(client *redis.Client, ttl time.Duration, log *slog.Logger) *RedisSnapshotStore {
	if ttl <= 0 {
		ttl = 2 * time.Hour
	}
	if log == nil {
		log = slog.Default()
	}
	return &RedisSnapshotStore{client: client, ttl: ttl, log: log}
}

func snapshotKey(code string) string {
	return "game:" + game.NormalizeCode(code)
}

func (s *RedisSnapshotStore) Save(ctx context.Context, info game.Info) error {
	data, err := json.Marshal(info)
	if err != nil {
		return fmt.Errorf("failed to marshal game state: %w", err)
	}
	if err := s.client.Set(ctx, snapshotKey(info.Code), data, s.ttl).Err(); err != nil {
		return fmt.Errorf("failed to store in redis: %w", err)
	}
	s.log.Debug("stored game snapshot", "code", info.Code, "state", info.State, "question", info.CurrentQuestion)
	return nil
}

func (s *RedisSnapshotStore) Load(ctx context.Context, code string) (*game.Info, error) {
	data, err := s.client.Get(ctx, snapshotKey(code)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrSnapshotNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("redis get %s: %w", code, err)
	}
	var info game.Info
	if err := json.Unmarshal(data, &info); err != nil {
		return nil, fmt.Errorf("failed to unmarshal game state for %s: %w", code, err)
	}
	return &info, nil
}

func (s *RedisSnapshotStore) Delete(ctx context.Context, code string) error {
	return s.client.Del(ctx, snapshotKey(code)).Err()
}

// NopSnapshotStore is used when redis is disabled.
type NopSnapshotStore struct{}

func (NopSnapshotStore) Save(context.Context, game.Info) error { return nil }
func (NopSnapshotStore) Load(context.Context, string) (*game.Info, error) {
	return nil, ErrSnapshotNotFound
}
func (NopSnapshotStore) Delete(context.Context, string) error { return nil }

package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// RedisOptions configure the redis store.
type RedisOptions struct {
	Address   string
	Password  string
	DB        int
	KeyPrefix string
}

// RedisStore keeps records as JSON values that redis expires on its own.
type RedisStore struct {
	client    *redis.Client
	keyPrefix string
	logger    *zap.Logger
	now       func() time.Time
}

// NewRedisStore connects to redis and verifies the connection.
func NewRedisStore(ctx context.Context, logger *zap.Logger, opts RedisOptions) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     opts.Address,
		Password: opts.Password,
		DB:       opts.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to redis at %s: %w", opts.Address, err)
	}
	return newRedisStore(client, logger, opts.KeyPrefix), nil
}

func newRedisStore(client *redis.Client, logger *zap.Logger, keyPrefix string) *RedisStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RedisStore{
		client:    client,
		keyPrefix: keyPrefix,
		logger:    logger,
		now:       time.Now,
	}
}

func (s *RedisStore) key(id uuid.UUID) string {
	return s.keyPrefix + id.String()
}

// Save writes the record with the time left until its expiry.
func (s *RedisStore) Save(ctx context.Context, record Record) error {
	ttl := record.ExpiresAt.Sub(s.now())
	if record.ExpiresAt.IsZero() {
		ttl = 0
	} else if ttl <= 0 {
		return fmt.Errorf("simulation %s already expired", record.ID)
	}

	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to encode simulation %s: %w", record.ID, err)
	}
	if err := s.client.Set(ctx, s.key(record.ID), data, ttl).Err(); err != nil {
		return fmt.Errorf("failed to store simulation %s: %w", record.ID, err)
	}

	s.logger.Debug("simulation stored",
		zap.String("op", "store.RedisStore.Save"),
		zap.String("id", record.ID.String()),
		zap.Duration("ttl", ttl),
	)
	return nil
}

// Get loads a record or returns ErrNotFound.
func (s *RedisStore) Get(ctx context.Context, id uuid.UUID) (Record, error) {
	data, err := s.client.Get(ctx, s.key(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return Record{}, ErrNotFound
	}
	if err != nil {
		return Record{}, fmt.Errorf("failed to load simulation %s: %w", id, err)
	}

	var record Record
	if err := json.Unmarshal(data, &record); err != nil {
		return Record{}, fmt.Errorf("failed to decode simulation %s: %w", id, err)
	}
	return record, nil
}

// Delete removes a record.
func (s *RedisStore) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.client.Del(ctx, s.key(id)).Err(); err != nil {
		return fmt.Errorf("failed to delete simulation %s: %w", id, err)
	}
	return nil
}

// Close releases the redis connection pool.
func (s *RedisStore) Close() error {
	return s.client.Close()
}

package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/cybertriage/cybertriage/internal/domain"
	"github.com/redis/go-redis/v9"
)

// casesKey is the Redis hash holding one JSON document per case.
const casesKey = "cybertriage:cases"

// RedisStore implements domain.CaseStore on a Redis hash.
// Used when several server processes share one case store.
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore connects to Redis.
func NewRedisStore(addr, password string, db int) (*RedisStore, error) {
	if addr == "" {
		addr = "localhost:6379"
	}

	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	// Verify connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return &RedisStore{client: client}, nil
}

// LoadAllCases reads the whole hash.
func (s *RedisStore) LoadAllCases(ctx context.Context) (map[string]*domain.Case, error) {
	raw, err := s.client.HGetAll(ctx, casesKey).Result()
	if err != nil {
		return nil, err
	}

	cases := make(map[string]*domain.Case, len(raw))
	for id, data := range raw {
		c, err := decode([]byte(data))
		if err != nil {
			return nil, fmt.Errorf("decode case %s: %w", id, err)
		}
		cases[id] = c
	}
	return cases, nil
}

// SaveAllCases writes the given cases in one MULTI/EXEC transaction.
func (s *RedisStore) SaveAllCases(ctx context.Context, cases map[string]*domain.Case) error {
	if len(cases) == 0 {
		return nil
	}

	values := make([]any, 0, len(cases)*2)
	for id, c := range cases {
		if c == nil || id == "" || id != c.ID {
			return fmt.Errorf("%w: case key %q does not match case id", ErrInvalidInput, id)
		}
		data, err := json.Marshal(c)
		if err != nil {
			return fmt.Errorf("encode case %s: %w", id, err)
		}
		values = append(values, id, data)
	}

	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, casesKey, values...)
		return nil
	})
	return err
}

// GetCase reads one case.
func (s *RedisStore) GetCase(ctx context.Context, caseID string) (*domain.Case, error) {
	data, err := s.client.HGet(ctx, casesKey, caseID).Bytes()
	if err == redis.Nil {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return decode(data)
}

// Mode returns "redis".
func (s *RedisStore) Mode() string {
	return "redis"
}

// Ping checks Redis connectivity.
func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Close closes the Redis connection.
func (s *RedisStore) Close() error {
	return s.client.Close()
}

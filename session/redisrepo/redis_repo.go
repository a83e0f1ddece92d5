package redisrepo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jrsteele09/go-task-client/session"
	"github.com/redis/go-redis/v9"
)

var _ session.Repo = (*RedisRepo)(nil)

// RedisRepo persists the session record as a JSON string under
// "<prefix>:<key>". It lets several processes on one machine (or a fleet of
// workers acting as one user) share a session.
type RedisRepo struct {
	client redis.UniversalClient
	key    string
	ttl    time.Duration
}

// Option configures the Redis repo
type Option func(*RedisRepo)

// WithTTL expires the record after d; zero keeps it until removed
func WithTTL(d time.Duration) Option {
	return func(r *RedisRepo) {
		r.ttl = d
	}
}

func New(client redis.UniversalClient, prefix, key string, opts ...Option) (*RedisRepo, error) {
	if client == nil {
		return nil, errors.New("[redisrepo.New] client is required")
	}
	if key == "" {
		return nil, errors.New("[redisrepo.New] key is required")
	}

	r := &RedisRepo{client: client, key: key}
	if prefix != "" {
		r.key = prefix + ":" + key
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// Key returns the full Redis key of the record
func (r *RedisRepo) Key() string {
	return r.key
}

func (r *RedisRepo) Load(ctx context.Context) (*session.Credential, error) {
	raw, err := r.client.Get(ctx, r.key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("redis get %s: %w", r.key, err)
	}

	var cred session.Credential
	if err := json.Unmarshal(raw, &cred); err != nil {
		return nil, fmt.Errorf("decode record %s: %w", r.key, err)
	}
	return &cred, nil
}

func (r *RedisRepo) Save(ctx context.Context, cred session.Credential) error {
	raw, err := json.Marshal(cred)
	if err != nil {
		return fmt.Errorf("encode record %s: %w", r.key, err)
	}
	if err := r.client.Set(ctx, r.key, raw, r.ttl).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", r.key, err)
	}
	return nil
}

func (r *RedisRepo) Remove(ctx context.Context) error {
	if err := r.client.Del(ctx, r.key).Err(); err != nil {
		return fmt.Errorf("redis del %s: %w", r.key, err)
	}
	return nil
}

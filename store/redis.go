package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// Redis persists the token pair and rehydration snapshot in Redis so a
// returning user is not forced to re-authenticate on every launch. No TTL
// is set: the store performs no expiry bookkeeping, callers act on
// 401-class failures.
type Redis struct {
	redis  redis.UniversalClient
	prefix string
}

// NewRedis creates a Redis-backed store under the given key prefix.
func NewRedis(client redis.UniversalClient, prefix string) *Redis {
	if prefix == "" {
		prefix = "authclient"
	}
	return &Redis{
		redis:  client,
		prefix: prefix,
	}
}

func (s *Redis) accessKey() string   { return s.prefix + ":access" }
func (s *Redis) refreshKey() string  { return s.prefix + ":refresh" }
func (s *Redis) snapshotKey() string { return s.prefix + ":snapshot" }

// SetTokens stores the access/refresh pair. Writes are last-write-wins.
func (s *Redis) SetTokens(ctx context.Context, access, refresh string) error {
	_, err := s.redis.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, s.accessKey(), access, 0)
		pipe.Set(ctx, s.refreshKey(), refresh, 0)
		return nil
	})
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}

// AccessToken returns the stored access token, or "" when none is held.
func (s *Redis) AccessToken(ctx context.Context) (string, error) {
	return s.get(ctx, s.accessKey())
}

// RefreshToken returns the stored refresh token, or "" when none is held.
func (s *Redis) RefreshToken(ctx context.Context) (string, error) {
	return s.get(ctx, s.refreshKey())
}

func (s *Redis) get(ctx context.Context, key string) (string, error) {
	value, err := s.redis.Get(ctx, key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", nil
		}
		return "", fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return value, nil
}

// SaveSnapshot persists the rehydration snapshot.
func (s *Redis) SaveSnapshot(ctx context.Context, snap Snapshot) error {
	encoded, err := encodeSnapshot(snap)
	if err != nil {
		return err
	}
	if err := s.redis.Set(ctx, s.snapshotKey(), encoded, 0).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}

// Snapshot loads the rehydration snapshot. The second return value is
// false when none is persisted.
func (s *Redis) Snapshot(ctx context.Context) (Snapshot, bool, error) {
	data, err := s.redis.Get(ctx, s.snapshotKey()).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return Snapshot{}, false, nil
		}
		return Snapshot{}, false, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	snap, err := decodeSnapshot(data)
	if err != nil {
		return Snapshot{}, false, err
	}
	return snap, true, nil
}

// Clear removes tokens and snapshot in one transaction.
func (s *Redis) Clear(ctx context.Context) error {
	if err := s.redis.Del(ctx, s.accessKey(), s.refreshKey(), s.snapshotKey()).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}

package sessioncache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/goliatone/go-auth-state"
	"github.com/redis/go-redis/v9"
)

const defaultRedisKey = "authstate:session"

// Redis stores the session as a JSON document under a single key. The codec
// matches the provider wire format so cached payloads stay inspectable.
type Redis struct {
	redis *redis.Client
	key   string
	ttl   time.Duration
}

// NewRedis creates a store with the default key and no expiry. Refresh tokens
// outlive access tokens, so the entry is only removed by Clear unless a TTL
// is set.
func NewRedis(client *redis.Client) *Redis {
	return &Redis{
		redis: client,
		key:   defaultRedisKey,
	}
}

// WithKey overrides the storage key.
func (s *Redis) WithKey(key string) *Redis {
	if key != "" {
		s.key = key
	}
	return s
}

// WithTTL bounds how long a cached session survives without a Save.
func (s *Redis) WithTTL(ttl time.Duration) *Redis {
	s.ttl = ttl
	return s
}

func (s *Redis) Load(ctx context.Context) (*authstate.Session, error) {
	data, err := s.redis.Get(ctx, s.key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNoSession
		}
		return nil, fmt.Errorf("%w: %v", ErrCacheUnavailable, err)
	}

	session := &authstate.Session{}
	if err := json.Unmarshal(data, session); err != nil {
		return nil, fmt.Errorf("decode cached session: %w", err)
	}

	return session, nil
}

func (s *Redis) Save(ctx context.Context, session *authstate.Session) error {
	if session == nil {
		return s.Clear(ctx)
	}

	data, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}

	if err := s.redis.Set(ctx, s.key, data, s.ttl).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrCacheUnavailable, err)
	}

	return nil
}

func (s *Redis) Clear(ctx context.Context) error {
	if err := s.redis.Del(ctx, s.key).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrCacheUnavailable, err)
	}
	return nil
}

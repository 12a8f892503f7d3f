package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrRedisUnavailable wraps every Redis failure surfaced by [RedisBackend].
var ErrRedisUnavailable = errors.New("redis unavailable")

// DefaultProfile names the session hash when no profile is configured.
const DefaultProfile = "default"

// RedisBackend stores the session as a hash at <prefix>:session:<profile>
// with the fields auth_token, username and user_role.
type RedisBackend struct {
	redis   redis.UniversalClient
	prefix  string
	profile string
	ttl     time.Duration
}

// NewRedisBackend creates a backend on the given client. ttl <= 0 keeps the
// hash until it is cleared.
func NewRedisBackend(rdb redis.UniversalClient, prefix, profile string, ttl time.Duration) *RedisBackend {
	if profile == "" {
		profile = DefaultProfile
	}
	return &RedisBackend{
		redis:   rdb,
		prefix:  prefix,
		profile: profile,
		ttl:     ttl,
	}
}

func (b *RedisBackend) key() string {
	if b.prefix == "" {
		return "session:" + b.profile
	}
	return b.prefix + ":session:" + b.profile
}

// Load implements [Backend]. A missing hash is an empty session.
func (b *RedisBackend) Load(ctx context.Context) (Session, error) {
	fields, err := b.redis.HGetAll(ctx, b.key()).Result()
	if err != nil {
		return Session{}, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}

	return record{
		Token:    fields[FieldToken],
		Username: fields[FieldUsername],
		Role:     fields[FieldRole],
	}.session(), nil
}

// Save implements [Backend]. The previous hash is replaced in one
// transaction so stale fields never survive a re-login.
func (b *RedisBackend) Save(ctx context.Context, sess Session) error {
	rec := toRecord(sess)
	key := b.key()

	values := map[string]any{FieldToken: rec.Token}
	if rec.Username != "" {
		values[FieldUsername] = rec.Username
	}
	if rec.Role != "" {
		values[FieldRole] = rec.Role
	}

	_, err := b.redis.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, key)
		pipe.HSet(ctx, key, values)
		if b.ttl > 0 {
			pipe.Expire(ctx, key, b.ttl)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return nil
}

// Clear implements [Backend]. Clearing an absent hash is not an error.
func (b *RedisBackend) Clear(ctx context.Context) error {
	if err := b.redis.Del(ctx, b.key()).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return nil
}

package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/cygnusgroup/backoffice/core"
)

const DefaultPrefix = "session:"

// Store keeps app sessions as JSON values with a native TTL.
type Store struct {
	client goredis.UniversalClient
	prefix string
}

var _ core.SessionStore = (*Store)(nil)

// New connects to addr and pings it.
func New(ctx context.Context, addr, password string, db int) (*Store, error) {
	client := goredis.NewClient(&goredis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("%w: redis ping: %w", core.ErrStoreUnavailable, err)
	}

	return NewStore(client), nil
}

// NewStore wraps an existing client.
func NewStore(client goredis.UniversalClient) *Store {
	return &Store{client: client, prefix: DefaultPrefix}
}

func (s *Store) key(hash string) string {
	return s.prefix + hash
}

func (s *Store) Save(ctx context.Context, hash string, session *core.Session, ttl time.Duration) error {
	if ttl <= 0 {
		return fmt.Errorf("session: ttl must be positive")
	}

	data, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("session: failed to marshal: %w", err)
	}

	if err := s.client.Set(ctx, s.key(hash), data, ttl).Err(); err != nil {
		return fmt.Errorf("%w: %w", core.ErrStoreUnavailable, err)
	}
	return nil
}

func (s *Store) Get(ctx context.Context, hash string) (*core.Session, error) {
	val, err := s.client.Get(ctx, s.key(hash)).Bytes()
	if errors.Is(err, goredis.Nil) {
		return nil, core.ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %w", core.ErrStoreUnavailable, err)
	}

	var session core.Session
	if err := json.Unmarshal(val, &session); err != nil {
		return nil, fmt.Errorf("session: failed to unmarshal: %w", err)
	}
	return &session, nil
}

func (s *Store) Delete(ctx context.Context, hash string) error {
	if err := s.client.Del(ctx, s.key(hash)).Err(); err != nil {
		return fmt.Errorf("%w: %w", core.ErrStoreUnavailable, err)
	}
	return nil
}

func (s *Store) Close() error {
	return s.client.Close()
}

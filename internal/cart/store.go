package cart

import (
	"context"
	"errors"
	"fmt"
	"time"

	redislib "github.com/redis/go-redis/v9"

	"github.com/martinquesada/tienda-backend/pkg/config"
	redisclient "github.com/martinquesada/tienda-backend/pkg/redis"
)

// Store persists cart documents keyed by the opaque cart token.
type Store interface {
	Get(ctx context.Context, token string) (*Document, error)
	Save(ctx context.Context, token string, doc *Document) error
	Delete(ctx context.Context, token string) error
}

type cartKeyer interface {
	CartKey(token string) string
}

type cartBackend interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) error
}

type redisStore struct {
	backend cartBackend
	keyer   cartKeyer
	ttl     time.Duration
}

// NewRedisStore builds the production cart store. Every save refreshes the
// TTL so active carts never expire mid-session.
func NewRedisStore(client *redisclient.Client, cfg config.CartConfig) (Store, error) {
	if client == nil {
		return nil, fmt.Errorf("redis client is required")
	}
	if cfg.TTL <= 0 {
		return nil, fmt.Errorf("cart ttl must be positive")
	}
	return &redisStore{backend: client, keyer: client, ttl: cfg.TTL}, nil
}

func (s *redisStore) Get(ctx context.Context, token string) (*Document, error) {
	raw, err := s.backend.Get(ctx, s.keyer.CartKey(token))
	if err != nil {
		if errors.Is(err, redislib.Nil) {
			return DecodeDocument(nil), nil
		}
		return nil, err
	}
	return DecodeDocument([]byte(raw)), nil
}

func (s *redisStore) Save(ctx context.Context, token string, doc *Document) error {
	doc.UpdatedAt = time.Now().UTC()
	payload, err := doc.Encode()
	if err != nil {
		return fmt.Errorf("encode cart: %w", err)
	}
	return s.backend.Set(ctx, s.keyer.CartKey(token), string(payload), s.ttl)
}

func (s *redisStore) Delete(ctx context.Context, token string) error {
	return s.backend.Del(ctx, s.keyer.CartKey(token))
}

package schema_registry

import (
	"context"
	"fmt"
	"time"

	"github.com/Aleph-Alpha/topicstream/v1/redis"
)

// Store is a shared cache of schemas by id, consulted after the in-process
// cache and before the registry.
type Store interface {
	// Get returns (nil, nil) when id is not stored.
	Get(ctx context.Context, id uint32) (*Schema, error)
	Put(ctx context.Context, schema *Schema) error
}

// JSONClient is the subset of the redis client used by RedisStore.
type JSONClient interface {
	GetJSON(ctx context.Context, key string, dest interface{}) error
	SetJSON(ctx context.Context, key string, value interface{}, ttl time.Duration) error
}

// RedisStore keeps schemas in Redis as JSON under "<prefix>:schema:<id>".
// Entries never expire.
type RedisStore struct {
	client JSONClient
	prefix string
}

// NewRedisStore returns a Store backed by client.
func NewRedisStore(client JSONClient, prefix string) *RedisStore {
	if prefix == "" {
		prefix = DefaultStoreKeyPrefix
	}
	return &RedisStore{client: client, prefix: prefix}
}

func (s *RedisStore) key(id uint32) string {
	return fmt.Sprintf("%s:schema:%d", s.prefix, id)
}

// Get implements Store.
func (s *RedisStore) Get(ctx context.Context, id uint32) (*Schema, error) {
	var schema Schema
	if err := s.client.GetJSON(ctx, s.key(id), &schema); err != nil {
		if redis.IsNilError(err) {
			return nil, nil
		}
		return nil, err
	}
	if schema.ID != id {
		return nil, fmt.Errorf("stored schema under %s has id %d", s.key(id), schema.ID)
	}
	return &schema, nil
}

// Put implements Store.
func (s *RedisStore) Put(ctx context.Context, schema *Schema) error {
	return s.client.SetJSON(ctx, s.key(schema.ID), schema, 0)
}

package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/Aleph-Alpha/topicstream/v1/observability"
)

// Ping checks if the Redis server is reachable and responsive.
func (r *RedisClient) Ping(ctx context.Context) error {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.client.Ping(ctx).Err()
}

// SetJSON stores value as JSON under key. A zero ttl keeps the key forever,
// which is what immutable schemas want.
func (r *RedisClient) SetJSON(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	start := time.Now()
	r.mu.RLock()
	err = r.client.Set(ctx, key, data, ttl).Err()
	r.mu.RUnlock()

	r.observe("set", key, start, err, len(data), ttl)
	return err
}

// GetJSON reads key and decodes it into dest. A missing key returns an
// error matching IsNilError.
func (r *RedisClient) GetJSON(ctx context.Context, key string, dest interface{}) error {
	start := time.Now()
	r.mu.RLock()
	data, err := r.client.Get(ctx, key).Bytes()
	r.mu.RUnlock()

	r.observe("get", key, start, err, len(data), 0)
	if err != nil {
		return err
	}

	if err := json.Unmarshal(data, dest); err != nil {
		return fmt.Errorf("failed to unmarshal JSON for key %q: %w", key, err)
	}
	return nil
}

// observe reports one command. A miss is not an error for the observer.
func (r *RedisClient) observe(command, key string, start time.Time, err error, size int, ttl time.Duration) {
	if r == nil || r.observer == nil {
		return
	}

	metadata := map[string]interface{}{}
	if IsNilError(err) {
		metadata["hit"] = false
		err = nil
	}
	if ttl > 0 {
		metadata["ttl"] = ttl.String()
	}

	r.observer.ObserveOperation(observability.OperationContext{
		Component: "redis",
		Operation: command,
		Resource:  key,
		Duration:  time.Since(start),
		Error:     err,
		Size:      int64(size),
		Metadata:  metadata,
	})
}

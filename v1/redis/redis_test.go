package redis

import (
	"context"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/Aleph-Alpha/topicstream/v1/observability"
	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestObserver is a mock observer for testing.
type TestObserver struct {
	mu         sync.Mutex
	operations []observability.OperationContext
}

func (t *TestObserver) ObserveOperation(ctx observability.OperationContext) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.operations = append(t.operations, ctx)
}

func (t *TestObserver) GetOperations() []observability.OperationContext {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]observability.OperationContext, len(t.operations))
	copy(out, t.operations)
	return out
}

func newTestClient(t *testing.T) (*RedisClient, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	port, err := strconv.Atoi(mr.Port())
	require.NoError(t, err)

	client, err := NewClient(Config{Host: mr.Host(), Port: port})
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	return client, mr
}

func TestJSONRoundTrip(t *testing.T) {
	client, mr := newTestClient(t)
	ctx := context.Background()

	type entry struct {
		ID   uint32 `json:"id"`
		Body string `json:"body"`
	}

	require.NoError(t, client.Ping(ctx))
	require.NoError(t, client.SetJSON(ctx, "k", entry{ID: 7, Body: "x"}, 0))

	var got entry
	require.NoError(t, client.GetJSON(ctx, "k", &got))
	assert.Equal(t, entry{ID: 7, Body: "x"}, got)
	assert.Equal(t, time.Duration(0), mr.TTL("k"))
}

func TestGetMissingKey(t *testing.T) {
	client, _ := newTestClient(t)

	var dest map[string]string
	err := client.GetJSON(context.Background(), "missing", &dest)
	assert.True(t, IsNilError(err))
}

func TestGetJSONRejectsInvalidPayload(t *testing.T) {
	client, mr := newTestClient(t)
	require.NoError(t, mr.Set("broken", "{not json"))

	var dest map[string]string
	err := client.GetJSON(context.Background(), "broken", &dest)
	require.Error(t, err)
	assert.False(t, IsNilError(err))
}

func TestObserverReceivesOperations(t *testing.T) {
	client, _ := newTestClient(t)
	obs := &TestObserver{}
	assert.Same(t, client, client.WithObserver(obs))

	ctx := context.Background()
	require.NoError(t, client.SetJSON(ctx, "my-key", "v", time.Minute))
	var got string
	require.NoError(t, client.GetJSON(ctx, "my-key", &got))
	assert.True(t, IsNilError(client.GetJSON(ctx, "other-key", &got)))

	ops := obs.GetOperations()
	require.Len(t, ops, 3)
	assert.Equal(t, "redis", ops[0].Component)
	assert.Equal(t, "set", ops[0].Operation)
	assert.Equal(t, "my-key", ops[0].Resource)
	assert.Equal(t, "1m0s", ops[0].Metadata["ttl"])
	assert.Equal(t, "get", ops[1].Operation)
	assert.Equal(t, int64(len(`"v"`)), ops[1].Size)
	assert.NoError(t, ops[2].Error)
	assert.Equal(t, false, ops[2].Metadata["hit"])
}

func TestObserveNilObserverNoPanic(t *testing.T) {
	r := &RedisClient{}
	r.observe("get", "test-key", time.Now(), nil, 0, 0)
}

func TestCloseIsIdempotent(t *testing.T) {
	client, _ := newTestClient(t)

	require.NoError(t, client.Close())
	assert.NoError(t, client.Close())
}

package deadletter

import (
	"context"
	"errors"
	"net"
	"strconv"
	"testing"
	"time"

	"github.com/Aleph-Alpha/topicstream/v1/broker"
	"github.com/Aleph-Alpha/topicstream/v1/postgres"
	"github.com/Aleph-Alpha/topicstream/v1/schema_registry"
	"github.com/docker/docker/api/types/container"
	"github.com/docker/go-connections/nat"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

func TestPostgresStoreIntegration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	defer func() {
		if r := recover(); r != nil {
			t.Skipf("docker/container runtime unavailable: %v", r)
		}
	}()

	ctx := context.Background()
	cfg, ctr := startPostgres(ctx, t)
	defer func() { _ = ctr.Terminate(ctx) }()

	var pg *postgres.Postgres
	require.Eventually(t, func() bool {
		var err error
		pg, err = postgres.NewPostgres(cfg)
		return err == nil
	}, 30*time.Second, 500*time.Millisecond)
	defer func() { _ = pg.GracefulShutdown() }()

	store := NewPostgresStore(pg)
	require.NoError(t, store.Migrate(ctx))

	for i, name := range []string{"orders", "events", "orders"} {
		r := NewRecord(eventsTopic(nil), &broker.Message{
			Topic:   "testing." + name,
			Offset:  int64(i),
			Key:     []byte("k"),
			Body:    schema_registry.EncodeEnvelope(7, []byte{byte(i)}),
			Headers: map[string]string{"message-id": strconv.Itoa(i)},
		}, errors.New("boom"), time.Now())
		r.Topic = name
		require.NoError(t, store.Save(ctx, &r))
		assert.NotZero(t, r.ID)
	}

	orders, err := store.List(ctx, Filter{Topic: "orders"})
	require.NoError(t, err)
	require.Len(t, orders, 2)
	assert.Equal(t, int64(0), orders[0].Offset)
	assert.Equal(t, int64(2), orders[1].Offset)
	assert.Equal(t, "2", orders[1].Headers["message-id"])
	assert.Equal(t, uint32(7), orders[1].SchemaID)

	byMessage, err := store.List(ctx, Filter{PhysicalTopic: "testing.orders", MessageID: "2"})
	require.NoError(t, err)
	require.Len(t, byMessage, 1)
	assert.Equal(t, orders[1].ID, byMessage[0].ID)

	limited, err := store.List(ctx, Filter{Limit: 1})
	require.NoError(t, err)
	assert.Len(t, limited, 1)

	got, err := store.Get(ctx, orders[0].ID)
	require.NoError(t, err)
	assert.Equal(t, "boom", got.Error)
	assert.Equal(t, []byte("k"), got.Key)

	require.NoError(t, store.Delete(ctx, orders[0].ID))
	_, err = store.Get(ctx, orders[0].ID)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, store.Delete(ctx, orders[0].ID), ErrNotFound)
}

func startPostgres(ctx context.Context, t *testing.T) (postgres.Config, testcontainers.Container) {
	t.Helper()

	l, err := net.Listen("tcp", ":0")
	require.NoError(t, err)
	hostPort := strconv.Itoa(l.Addr().(*net.TCPAddr).Port)
	_ = l.Close()

	req := testcontainers.ContainerRequest{
		Image:        "postgres:15",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_USER":     "testuser",
			"POSTGRES_PASSWORD": "testpass",
			"POSTGRES_DB":       "testdb",
		},
		HostConfigModifier: func(cfg *container.HostConfig) {
			cfg.PortBindings = nat.PortMap{
				"5432/tcp": []nat.PortBinding{{HostIP: "127.0.0.1", HostPort: hostPort}},
			}
		},
		WaitingFor: wait.ForLog("database system is ready to accept connections").
			WithOccurrence(2).
			WithStartupTimeout(60 * time.Second),
	}

	ctr, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		t.Skipf("docker/container runtime unavailable: %v", err)
	}

	return postgres.Config{
		Connection: postgres.Connection{
			Host:     "127.0.0.1",
			Port:     hostPort,
			User:     "testuser",
			Password: "testpass",
			DbName:   "testdb",
			SSLMode:  "disable",
		},
	}, ctr
}

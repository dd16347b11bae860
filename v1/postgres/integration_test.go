package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"net"
	"strconv"
	"testing"
	"time"

	"github.com/docker/docker/api/types/container"
	"github.com/docker/go-connections/nat"
	_ "github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

type sample struct {
	ID   uint `gorm:"primaryKey"`
	Name string
}

func TestPostgresIntegration(t *testing.T) {
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

	pg, err := NewPostgres(cfg)
	require.NoError(t, err)
	defer func() { _ = pg.GracefulShutdown() }()

	require.NoError(t, pg.healthCheck(ctx))
	require.NoError(t, pg.Migrate(ctx, &sample{}))

	db, err := pg.DB(ctx)
	require.NoError(t, err)
	require.NoError(t, db.Create(&sample{Name: "first"}).Error)

	var got sample
	require.NoError(t, db.First(&got).Error)
	assert.Equal(t, "first", got.Name)

	require.NoError(t, pg.GracefulShutdown())
	_, err = pg.DB(ctx)
	assert.ErrorIs(t, err, ErrNotConnected)
}

// startPostgres runs postgres:15 on a free host port and returns a Config
// pointing at it. The test is skipped when no container runtime is available.
func startPostgres(ctx context.Context, t *testing.T) (Config, testcontainers.Container) {
	t.Helper()

	hostPort, err := getFreePort()
	require.NoError(t, err)

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

	cfg := Config{
		Connection: Connection{
			Host:     "127.0.0.1",
			Port:     hostPort,
			User:     "testuser",
			Password: "testpass",
			DbName:   "testdb",
			SSLMode:  "disable",
		},
	}

	if err := waitForPostgresReady(cfg.Connection, 30*time.Second); err != nil {
		_ = ctr.Terminate(ctx)
		t.Fatalf("postgres container not ready: %v", err)
	}
	return cfg, ctr
}

func waitForPostgresReady(c Connection, timeout time.Duration) error {
	deadline := time.Now().Add(timeout)
	for {
		db, err := sql.Open("postgres", c.DSN())
		if err == nil {
			err = db.Ping()
			_ = db.Close()
			if err == nil {
				return nil
			}
		}
		if time.Now().After(deadline) {
			return fmt.Errorf("timed out waiting for postgres: %w", err)
		}
		time.Sleep(500 * time.Millisecond)
	}
}

func getFreePort() (string, error) {
	l, err := net.Listen("tcp", ":0")
	if err != nil {
		return "", err
	}
	defer l.Close()
	return strconv.Itoa(l.Addr().(*net.TCPAddr).Port), nil
}

package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigDefaults(t *testing.T) {
	cfg := Config{}.withDefaults()

	assert.Equal(t, DefaultSSLMode, cfg.Connection.SSLMode)
	assert.Equal(t, DefaultMaxOpenConns, cfg.ConnectionDetails.MaxOpenConns)
	assert.Equal(t, DefaultMaxIdleConns, cfg.ConnectionDetails.MaxIdleConns)
	assert.Equal(t, DefaultConnMaxLifetime, cfg.ConnectionDetails.ConnMaxLifetime)
	assert.Equal(t, DefaultHealthCheckInterval, cfg.ConnectionDetails.HealthCheckInterval)
}

func TestLoadConfig(t *testing.T) {
	t.Setenv("POSTGRES_HOST", "db.internal")
	t.Setenv("POSTGRES_USER", "stream")
	t.Setenv("POSTGRES_DB", "deadletters")
	t.Setenv("POSTGRES_MAX_OPEN_CONNS", "8")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "db.internal", cfg.Connection.Host)
	assert.Equal(t, "5432", cfg.Connection.Port)
	assert.Equal(t, "stream", cfg.Connection.User)
	assert.Equal(t, "deadletters", cfg.Connection.DbName)
	assert.Equal(t, 8, cfg.ConnectionDetails.MaxOpenConns)
}

func TestDSN(t *testing.T) {
	c := Connection{
		Host:     "localhost",
		Port:     "5432",
		User:     "u",
		Password: "p",
		DbName:   "d",
		SSLMode:  "require",
	}
	assert.Equal(t, "host=localhost port=5432 user=u password=p dbname=d sslmode=require", c.DSN())
}

func TestNotConnected(t *testing.T) {
	p := newPostgres(Config{}.withDefaults())

	_, err := p.DB(context.Background())
	assert.ErrorIs(t, err, ErrNotConnected)
	assert.ErrorIs(t, p.Migrate(context.Background()), ErrNotConnected)
	assert.NoError(t, p.GracefulShutdown())
	assert.NoError(t, p.GracefulShutdown())
}

func TestMonitorConnectionSignalsRetry(t *testing.T) {
	cfg := Config{}.withDefaults()
	cfg.ConnectionDetails.HealthCheckInterval = 10 * time.Millisecond
	p := newPostgres(cfg)

	done := make(chan struct{})
	go func() {
		defer close(done)
		p.MonitorConnection(context.Background())
	}()

	select {
	case err := <-p.retryChanSignal:
		assert.ErrorIs(t, err, ErrNotConnected)
	case <-time.After(time.Second):
		t.Fatal("health check failure was not signalled")
	}

	require.NoError(t, p.GracefulShutdown())
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("MonitorConnection did not stop on shutdown")
	}

	_, ok := <-p.retryChanSignal
	assert.False(t, ok, "retry channel should be closed after monitoring stops")
}

func TestRetryConnectionStopsOnShutdown(t *testing.T) {
	p := newPostgres(Config{}.withDefaults())

	done := make(chan struct{})
	go func() {
		defer close(done)
		p.RetryConnection(context.Background())
	}()

	require.NoError(t, p.GracefulShutdown())
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("RetryConnection did not stop on shutdown")
	}
}

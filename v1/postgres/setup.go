package postgres

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// ErrNotConnected is returned when the client holds no connection.
var ErrNotConnected = errors.New("postgres: not connected")

// Logger is the subset of the logger package used by the client.
type Logger interface {
	Info(msg string, err error, fields ...map[string]interface{})
	Warn(msg string, err error, fields ...map[string]interface{})
	Error(msg string, err error, fields ...map[string]interface{})
}

// Postgres wraps a gorm.DB with health monitoring and reconnection. The
// current connection is swapped atomically when a reconnect succeeds, so
// callers always go through DB.
type Postgres struct {
	client          atomic.Pointer[gorm.DB]
	cfg             Config
	logger          Logger
	shutdownSignal  chan struct{}
	retryChanSignal chan error

	closeRetryChanOnce sync.Once
	closeShutdownOnce  sync.Once
}

// NewPostgres connects to the database described by cfg.
func NewPostgres(cfg Config) (*Postgres, error) {
	cfg = cfg.withDefaults()

	conn, err := connect(cfg)
	if err != nil {
		return nil, err
	}

	p := newPostgres(cfg)
	p.client.Store(conn)
	return p, nil
}

func newPostgres(cfg Config) *Postgres {
	return &Postgres{
		cfg:             cfg,
		shutdownSignal:  make(chan struct{}),
		retryChanSignal: make(chan error, 1),
	}
}

// WithLogger sets the logger and returns the client for method chaining.
func (p *Postgres) WithLogger(logger Logger) *Postgres {
	p.logger = logger
	return p
}

func connect(cfg Config) (*gorm.DB, error) {
	database, err := gorm.Open(
		postgres.Open(cfg.Connection.DSN()),
		&gorm.Config{
			TranslateError: true,
		})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to postgres: %w", err)
	}

	sqlDB, err := database.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get postgres database instance: %w", err)
	}

	sqlDB.SetMaxOpenConns(cfg.ConnectionDetails.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.ConnectionDetails.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(cfg.ConnectionDetails.ConnMaxLifetime)

	return database, nil
}

// DB returns the current connection bound to ctx.
func (p *Postgres) DB(ctx context.Context) (*gorm.DB, error) {
	db := p.client.Load()
	if db == nil {
		return nil, ErrNotConnected
	}
	return db.WithContext(ctx), nil
}

// Migrate creates or updates the tables of models.
func (p *Postgres) Migrate(ctx context.Context, models ...interface{}) error {
	db, err := p.DB(ctx)
	if err != nil {
		return err
	}
	if err := db.AutoMigrate(models...); err != nil {
		return fmt.Errorf("failed to migrate postgres schema: %w", err)
	}
	return nil
}

// MonitorConnection pings the database every HealthCheckInterval and wakes
// RetryConnection when a ping fails. It returns on shutdown or when ctx is
// done.
func (p *Postgres) MonitorConnection(ctx context.Context) {
	defer p.closeRetryChanOnce.Do(func() {
		close(p.retryChanSignal)
	})

	ticker := time.NewTicker(p.cfg.ConnectionDetails.HealthCheckInterval)
	defer ticker.Stop()

	for {
		select {
		case <-p.shutdownSignal:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := p.healthCheck(ctx); err != nil {
				p.logWarn("postgres health check failed", err)
				select {
				case p.retryChanSignal <- err:
				default:
				}
			}
		}
	}
}

// RetryConnection reconnects each time MonitorConnection reports a failed
// health check, retrying every second until it succeeds.
func (p *Postgres) RetryConnection(ctx context.Context) {
	for {
		select {
		case <-p.shutdownSignal:
			return
		case <-ctx.Done():
			return
		case _, ok := <-p.retryChanSignal:
			if !ok {
				return
			}
			p.reconnect(ctx)
		}
	}
}

func (p *Postgres) reconnect(ctx context.Context) {
	for {
		conn, err := connect(p.cfg)
		if err == nil {
			select {
			case <-p.shutdownSignal:
				_ = closeDB(conn)
				return
			default:
			}
			if old := p.client.Swap(conn); old != nil {
				_ = closeDB(old)
			}
			p.logInfo("reconnected to postgres", nil)
			return
		}
		p.logError("postgres reconnection failed", err)

		select {
		case <-p.shutdownSignal:
			return
		case <-ctx.Done():
			return
		case <-time.After(time.Second):
		}
	}
}

func (p *Postgres) healthCheck(ctx context.Context) error {
	db := p.client.Load()
	if db == nil {
		return ErrNotConnected
	}

	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to get database instance during health check: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := sqlDB.PingContext(ctx); err != nil {
		return fmt.Errorf("database ping failed during health check: %w", err)
	}
	return nil
}

// GracefulShutdown stops the monitoring loops and closes the connection.
func (p *Postgres) GracefulShutdown() error {
	p.closeShutdownOnce.Do(func() {
		close(p.shutdownSignal)
	})

	db := p.client.Swap(nil)
	if db == nil {
		return nil
	}
	return closeDB(db)
}

func closeDB(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func (p *Postgres) logInfo(msg string, err error) {
	if p.logger != nil {
		p.logger.Info(msg, err, map[string]interface{}{"host": p.cfg.Connection.Host})
	}
}

func (p *Postgres) logWarn(msg string, err error) {
	if p.logger != nil {
		p.logger.Warn(msg, err, map[string]interface{}{"host": p.cfg.Connection.Host})
	}
}

func (p *Postgres) logError(msg string, err error) {
	if p.logger != nil {
		p.logger.Error(msg, err, map[string]interface{}{"host": p.cfg.Connection.Host})
	}
}

// Package postgres provides the PostgreSQL connection used by the dead-letter
// store.
//
// It wraps gorm with the connection pool settings from Config, a periodic
// health check and automatic reconnection. The current connection is
// obtained with DB and is swapped atomically after a reconnect.
//
// Basic usage:
//
//	cfg, err := postgres.LoadConfig()
//	if err != nil {
//		return err
//	}
//	pg, err := postgres.NewPostgres(cfg)
//	if err != nil {
//		return err
//	}
//	defer pg.GracefulShutdown()
//
//	go pg.MonitorConnection(ctx)
//	go pg.RetryConnection(ctx)
//
//	if err := pg.Migrate(ctx, &deadletter.Record{}); err != nil {
//		return err
//	}
//
// Configuration is read from POSTGRES_HOST, POSTGRES_PORT, POSTGRES_USER,
// POSTGRES_PASSWORD, POSTGRES_DB and POSTGRES_SSL_MODE, plus the pool
// settings in ConnectionDetails.
//
// With fx, include FXModule and provide a Config; the lifecycle hooks start
// monitoring on application start and close the connection on stop.
package postgres

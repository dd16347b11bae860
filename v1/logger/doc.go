// Package logger provides structured logging built on Uber's zap.
//
// Core Features:
//   - Structured logging with key-value pairs
//   - Support for multiple log levels (Debug, Info, Warn, Error, Fatal)
//   - Context-aware variants that add OpenTelemetry trace_id and span_id
//   - JSON output to stderr with pid and service fields
//
// Basic Usage:
//
//	import "github.com/Aleph-Alpha/topicstream/v1/logger"
//
//	log := logger.NewLoggerClient(logger.Config{
//		Level:         logger.Info,
//		ServiceName:   "orders-service",
//		EnableTracing: true,
//	})
//
//	log.Info("Message produced", nil, map[string]interface{}{
//		"topic": "prod.orders",
//		"key":   "o-1",
//	})
//
//	log.ErrorWithContext(ctx, "Failed to decode message", err, map[string]interface{}{
//		"topic": "prod.orders",
//	})
//
// The other packages in this module never depend on *Logger directly. Each one
// declares a small Logger interface with the methods it needs, and *Logger
// satisfies all of them.
//
// Configuration:
//
//	ZAP_LOGGER_LEVEL=debug          # debug, info, warning, error
//	LOGGER_SERVICE_NAME=orders      # value of the "service" field
//	LOGGER_ENABLE_TRACING=true      # add trace_id/span_id in *WithContext methods
//
// FX Module Integration:
//
//	app := fx.New(
//		logger.FXModule,
//		fx.Provide(func() logger.Config {
//			return logger.Config{Level: logger.Info, ServiceName: "orders"}
//		}),
//	)
//
// All methods are safe for concurrent use by multiple goroutines.
package logger

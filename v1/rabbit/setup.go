package rabbit

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/Aleph-Alpha/topicstream/v1/observability"
	amqp "github.com/rabbitmq/amqp091-go"
)

// Logger is the subset of the logger package used by the client.
type Logger interface {
	InfoWithContext(ctx context.Context, msg string, err error, fields ...map[string]interface{})
	WarnWithContext(ctx context.Context, msg string, err error, fields ...map[string]interface{})
	ErrorWithContext(ctx context.Context, msg string, err error, fields ...map[string]interface{})
}

// amqpChannel is the part of *amqp.Channel the client uses. Publish waits for
// the broker's publisher confirm.
type amqpChannel interface {
	ExchangeDeclare(name, kind string, durable, autoDelete, internal, noWait bool, args amqp.Table) error
	QueueDeclare(name string, durable, autoDelete, exclusive, noWait bool, args amqp.Table) (amqp.Queue, error)
	QueueBind(name, key, exchange string, noWait bool, args amqp.Table) error
	Qos(prefetchCount, prefetchSize int, global bool) error
	Consume(queue, consumer string, autoAck, exclusive, noLocal, noWait bool, args amqp.Table) (<-chan amqp.Delivery, error)
	Publish(ctx context.Context, exchange, key string, msg amqp.Publishing) error
	Close() error
}

// confirmChannel adapts *amqp.Channel in confirm mode to amqpChannel.
type confirmChannel struct {
	*amqp.Channel
}

func (c confirmChannel) Publish(ctx context.Context, exchange, key string, msg amqp.Publishing) error {
	confirm, err := c.PublishWithDeferredConfirmWithContext(ctx, exchange, key, false, false, msg)
	if err != nil {
		return err
	}
	acked, err := confirm.WaitContext(ctx)
	if err != nil {
		return err
	}
	if !acked {
		return ErrPublishNacked
	}
	return nil
}

// RabbitClient sends to and subscribes on physical topics through a single
// exchange, using the topic name as routing key. It implements broker.Broker.
type RabbitClient struct {
	// cfg stores the configuration for this RabbitMQ client
	cfg Config

	logger   Logger
	observer observability.Observer

	// conn is the underlying AMQP connection to the RabbitMQ server
	conn *amqp.Connection

	// openChannel opens a fresh channel on the current connection.
	openChannel func() (amqpChannel, error)

	// publisher is opened lazily and dropped after a failed publish.
	publisher amqpChannel

	// mu protects conn and publisher
	mu sync.RWMutex

	// subscriptions tracks running Subscribe calls
	subscriptions sync.WaitGroup

	// shutdownSignal is closed when the client is being shut down
	shutdownSignal chan struct{}

	closeShutdownOnce sync.Once
}

// NewClient connects to RabbitMQ and returns a client ready to send and
// subscribe.
//
// Example:
//
//	client, err := rabbit.NewClient(rabbit.Config{
//		Connection: rabbit.Connection{Host: "localhost", Port: 5672, User: "guest", Password: "guest"},
//		Channel:    rabbit.Channel{GroupID: "orders-service", AutoAck: true},
//	})
//	if err != nil {
//		return err
//	}
//	defer client.GracefulShutdown()
func NewClient(cfg Config) (*RabbitClient, error) {
	cfg = cfg.withDefaults()

	conn, err := newConnection(cfg.Connection)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrConnectionFailed, err)
	}

	rb := newClient(cfg, nil)
	rb.conn = conn
	rb.openChannel = rb.openConfirmChannel
	return rb, nil
}

func newClient(cfg Config, openChannel func() (amqpChannel, error)) *RabbitClient {
	return &RabbitClient{
		cfg:            cfg.withDefaults(),
		openChannel:    openChannel,
		shutdownSignal: make(chan struct{}),
	}
}

// openConfirmChannel must be called with mu held.
func (rb *RabbitClient) openConfirmChannel() (amqpChannel, error) {
	ch, err := rb.conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("failed to create channel: %w", err)
	}
	if err := ch.Confirm(false); err != nil {
		_ = ch.Close()
		return nil, fmt.Errorf("failed to enable publisher confirms: %w", err)
	}
	return confirmChannel{ch}, nil
}

// newConnection dials RabbitMQ with a short heartbeat so lost connections
// are noticed quickly.
func newConnection(cfg Connection) (*amqp.Connection, error) {
	amqpConfig := amqp.Config{
		Heartbeat: DefaultHeartbeat,
	}

	if cfg.IsSSLEnabled {
		tlsConfig, err := createTLSConfig(cfg)
		if err != nil {
			return nil, err
		}
		amqpConfig.TLSClientConfig = tlsConfig
	}

	return amqp.DialConfig(cfg.url(), amqpConfig)
}

// createTLSConfig creates a TLS configuration from the connection settings.
// Client certificates are only loaded when UseCert is set.
func createTLSConfig(cfg Connection) (*tls.Config, error) {
	tlsConfig := &tls.Config{
		ServerName: cfg.ServerName,
	}

	if cfg.CACertPath != "" {
		caCert, err := os.ReadFile(cfg.CACertPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read CA cert: %w", err)
		}
		caCertPool := x509.NewCertPool()
		if !caCertPool.AppendCertsFromPEM(caCert) {
			return nil, fmt.Errorf("failed to parse CA cert")
		}
		tlsConfig.RootCAs = caCertPool
	}

	if cfg.UseCert {
		cert, err := tls.LoadX509KeyPair(cfg.ClientCertPath, cfg.ClientKeyPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load client cert: %w", err)
		}
		tlsConfig.Certificates = []tls.Certificate{cert}
	}

	return tlsConfig, nil
}

// RetryConnection watches the connection and re-dials it when it closes
// unexpectedly, until the client shuts down. Subscriptions reopen their
// channels on the new connection by themselves. It is started by the fx
// lifecycle; without fx run it in its own goroutine.
func (rb *RabbitClient) RetryConnection() {
	ctx := context.Background()
	for {
		rb.mu.RLock()
		conn := rb.conn
		rb.mu.RUnlock()
		if conn == nil {
			return
		}

		closeCh := conn.NotifyClose(make(chan *amqp.Error, 1))
		select {
		case <-rb.shutdownSignal:
			return
		case amqpErr := <-closeCh:
			// A nil error means the connection was closed on purpose.
			if amqpErr == nil {
				return
			}
			rb.logWarn(ctx, "RabbitMQ connection closed, reconnecting", amqpErr, nil)
		}

		for {
			select {
			case <-rb.shutdownSignal:
				return
			case <-time.After(rb.cfg.Channel.DelayToReconnect):
			}

			newConn, err := newConnection(rb.cfg.Connection)
			if err != nil {
				rb.logError(ctx, "RabbitMQ reconnection failed", err, nil)
				continue
			}

			rb.mu.Lock()
			rb.conn = newConn
			rb.publisher = nil
			rb.mu.Unlock()

			rb.logInfo(ctx, "Successfully reconnected to RabbitMQ", nil)
			break
		}
	}
}

// WithObserver attaches an observer to the client for tracking operations.
// This method uses the builder pattern and returns the client for method chaining.
func (rb *RabbitClient) WithObserver(observer observability.Observer) *RabbitClient {
	rb.observer = observer
	return rb
}

// WithLogger sets the logger for this client and returns the client for method chaining.
func (rb *RabbitClient) WithLogger(logger Logger) *RabbitClient {
	rb.logger = logger
	return rb
}

// GracefulShutdown stops running subscriptions, waits for them to return and
// closes the publisher channel and the connection. It is safe to call more
// than once.
func (rb *RabbitClient) GracefulShutdown() error {
	var err error
	rb.closeShutdownOnce.Do(func() {
		rb.mu.Lock()
		close(rb.shutdownSignal)
		rb.mu.Unlock()

		rb.subscriptions.Wait()

		rb.mu.Lock()
		defer rb.mu.Unlock()

		rb.logInfo(context.Background(), "Shutting down RabbitMQ client", nil)

		if rb.publisher != nil {
			if closeErr := rb.publisher.Close(); closeErr != nil {
				rb.logWarn(context.Background(), "Failed to close rabbit channel", closeErr, nil)
			}
			rb.publisher = nil
		}
		if rb.conn != nil && !rb.conn.IsClosed() {
			err = rb.conn.Close()
		}
	})
	return err
}

func (rb *RabbitClient) closed() bool {
	select {
	case <-rb.shutdownSignal:
		return true
	default:
		return false
	}
}

package rabbit

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
	amqp "github.com/rabbitmq/amqp091-go"
)

const (
	// DefaultExchangeName is the topic exchange every physical topic is routed through.
	DefaultExchangeName = "topicstream"

	// DefaultExchangeType routes by exact routing key, which is the physical topic name.
	DefaultExchangeType = "topic"

	// DefaultContentType is set on every published message.
	DefaultContentType = "application/octet-stream"

	// DefaultDelayToReconnect is the pause between reconnection attempts.
	DefaultDelayToReconnect = time.Second

	// DefaultHeartbeat is the AMQP heartbeat interval.
	DefaultHeartbeat = 2 * time.Second

	// KeyHeader carries the message key, since AMQP has no native key field.
	KeyHeader = "x-message-key"
)

// Config defines the top-level configuration structure for the RabbitMQ client.
type Config struct {
	// Connection contains the settings needed to establish a connection to the RabbitMQ server
	Connection Connection

	// Channel contains configuration for exchanges, queues and acknowledgement
	Channel Channel

	// DeadLetter contains configuration for the dead-letter exchange. Messages
	// rejected without requeue are routed there when it is set.
	DeadLetter DeadLetter
}

// Connection contains the configuration parameters needed to establish
// a connection to a RabbitMQ server, including authentication and TLS settings.
type Connection struct {
	Host     string `yaml:"host" envconfig:"RABBITMQ_HOST" default:"localhost"`
	Port     uint   `yaml:"port" envconfig:"RABBITMQ_PORT" default:"5672"`
	User     string `yaml:"user" envconfig:"RABBITMQ_USER" default:"guest"`
	Password string `yaml:"password" envconfig:"RABBITMQ_PASSWORD" default:"guest"`
	VHost    string `yaml:"vhost" envconfig:"RABBITMQ_VHOST"`

	// IsSSLEnabled switches the scheme to amqps.
	IsSSLEnabled bool `yaml:"is_ssl_enabled" envconfig:"RABBITMQ_IS_SSL_ENABLED" default:"false"`

	// UseCert enables mutual TLS with the certificate paths below.
	UseCert bool `yaml:"use_cert" envconfig:"RABBITMQ_USE_CERT" default:"false"`

	CACertPath     string `yaml:"ca_cert_path" envconfig:"RABBITMQ_CA_CERT_PATH"`
	ClientCertPath string `yaml:"client_cert_path" envconfig:"RABBITMQ_CLIENT_CERT_PATH"`
	ClientKeyPath  string `yaml:"client_key_path" envconfig:"RABBITMQ_CLIENT_KEY_PATH"`
	ServerName     string `yaml:"server_name" envconfig:"RABBITMQ_SERVER_NAME"`
}

// Channel contains configuration for AMQP exchanges, queues and acknowledgement.
type Channel struct {
	ExchangeName string `yaml:"exchange_name" envconfig:"RABBITMQ_EXCHANGE_NAME"`
	ExchangeType string `yaml:"exchange_type" envconfig:"RABBITMQ_EXCHANGE_TYPE"`

	// GroupID names the durable queue "<group>.<topic>" shared by every
	// subscriber of the group. Without it each subscription gets an exclusive,
	// server-named queue that is deleted when it ends.
	GroupID string `yaml:"group_id" envconfig:"RABBITMQ_GROUP_ID"`

	// PrefetchCount limits unacknowledged deliveries per subscription.
	PrefetchCount int `yaml:"prefetch_count" envconfig:"RABBITMQ_PREFETCH_COUNT" default:"1"`

	ContentType string `yaml:"content_type" envconfig:"RABBITMQ_CONTENT_TYPE"`

	// AutoAck acknowledges a delivery after its handler returns nil.
	AutoAck bool `yaml:"auto_ack" envconfig:"RABBITMQ_AUTO_ACK" default:"true"`

	// RequeueOnError returns a delivery to its queue when the handler fails.
	// When false it is dropped or dead-lettered.
	RequeueOnError bool `yaml:"requeue_on_error" envconfig:"RABBITMQ_REQUEUE_ON_ERROR" default:"false"`

	DelayToReconnect time.Duration `yaml:"delay_to_reconnect" envconfig:"RABBITMQ_DELAY_TO_RECONNECT"`
}

// DeadLetter configures where rejected deliveries go.
type DeadLetter struct {
	ExchangeName string `yaml:"exchange_name" envconfig:"RABBITMQ_DEAD_LETTER_EXCHANGE"`
	RoutingKey   string `yaml:"routing_key" envconfig:"RABBITMQ_DEAD_LETTER_ROUTING_KEY"`
}

// LoadConfig reads Config from the environment.
func LoadConfig() (Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to load rabbit config: %w", err)
	}
	return cfg, nil
}

func (c Config) withDefaults() Config {
	if c.Channel.ExchangeName == "" {
		c.Channel.ExchangeName = DefaultExchangeName
	}
	if c.Channel.ExchangeType == "" {
		c.Channel.ExchangeType = DefaultExchangeType
	}
	if c.Channel.ContentType == "" {
		c.Channel.ContentType = DefaultContentType
	}
	if c.Channel.DelayToReconnect == 0 {
		c.Channel.DelayToReconnect = DefaultDelayToReconnect
	}
	return c
}

// url builds the AMQP URL for the connection settings.
func (c Connection) url() string {
	uri := amqp.URI{
		Scheme:   "amqp",
		Host:     c.Host,
		Port:     int(c.Port),
		Username: c.User,
		Password: c.Password,
		Vhost:    c.VHost,
	}
	if c.IsSSLEnabled {
		uri.Scheme = "amqps"
	}
	if uri.Vhost == "" {
		uri.Vhost = "/"
	}
	return uri.String()
}

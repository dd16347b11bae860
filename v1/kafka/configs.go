package kafka

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/segmentio/kafka-go"
)

// Config defines the configuration for the Kafka client. A single client
// writes to any topic and opens one reader per subscription.
type Config struct {
	// Brokers is the list of bootstrap brokers.
	Brokers []string `yaml:"brokers" envconfig:"KAFKA_BROKERS" required:"true"`

	// GroupID is the consumer group for subscriptions. Without a group, a
	// subscription reads Partition directly and acknowledgements are no-ops.
	GroupID string `yaml:"group_id" envconfig:"KAFKA_GROUP_ID"`

	// Partition is read when GroupID is empty.
	Partition int `yaml:"partition" envconfig:"KAFKA_PARTITION"`

	// MinBytes, MaxBytes and MaxWait tune fetch requests.
	MinBytes int           `yaml:"min_bytes" envconfig:"KAFKA_MIN_BYTES"`
	MaxBytes int           `yaml:"max_bytes" envconfig:"KAFKA_MAX_BYTES"`
	MaxWait  time.Duration `yaml:"max_wait" envconfig:"KAFKA_MAX_WAIT"`

	// StartOffset is where a new group starts: kafka.FirstOffset or kafka.LastOffset.
	StartOffset int64 `yaml:"start_offset" envconfig:"KAFKA_START_OFFSET"`

	// EnableAutoCommit commits a message after its handler succeeds and
	// flushes commits every CommitInterval. Otherwise handlers acknowledge
	// explicitly and each acknowledgement commits synchronously.
	EnableAutoCommit bool          `yaml:"enable_auto_commit" envconfig:"KAFKA_ENABLE_AUTO_COMMIT"`
	CommitInterval   time.Duration `yaml:"commit_interval" envconfig:"KAFKA_COMMIT_INTERVAL"`

	// RequiredAcks is -1 (all), 0 (none) or 1 (leader).
	RequiredAcks int `yaml:"required_acks" envconfig:"KAFKA_REQUIRED_ACKS"`

	// Async makes Send return before the broker acknowledges the write.
	Async        bool          `yaml:"async" envconfig:"KAFKA_ASYNC"`
	BatchSize    int           `yaml:"batch_size" envconfig:"KAFKA_BATCH_SIZE"`
	BatchTimeout time.Duration `yaml:"batch_timeout" envconfig:"KAFKA_BATCH_TIMEOUT"`

	MaxAttempts  int           `yaml:"max_attempts" envconfig:"KAFKA_MAX_ATTEMPTS"`
	WriteTimeout time.Duration `yaml:"write_timeout" envconfig:"KAFKA_WRITE_TIMEOUT"`

	// CompressionCodec is one of gzip, snappy, lz4, zstd; empty disables compression.
	CompressionCodec string `yaml:"compression_codec" envconfig:"KAFKA_COMPRESSION_CODEC"`

	// AllowAutoTopicCreation lets the writer create missing topics.
	AllowAutoTopicCreation bool `yaml:"allow_auto_topic_creation" envconfig:"KAFKA_ALLOW_AUTO_TOPIC_CREATION"`

	TLS  TLSConfig  `yaml:"tls"`
	SASL SASLConfig `yaml:"sasl"`
}

// TLSConfig contains TLS/SSL configuration parameters.
type TLSConfig struct {
	Enabled            bool   `yaml:"enabled" envconfig:"KAFKA_TLS_ENABLED"`
	CACertPath         string `yaml:"ca_cert_path" envconfig:"KAFKA_TLS_CA_CERT_PATH"`
	ClientCertPath     string `yaml:"client_cert_path" envconfig:"KAFKA_TLS_CLIENT_CERT_PATH"`
	ClientKeyPath      string `yaml:"client_key_path" envconfig:"KAFKA_TLS_CLIENT_KEY_PATH"`
	InsecureSkipVerify bool   `yaml:"insecure_skip_verify" envconfig:"KAFKA_TLS_INSECURE_SKIP_VERIFY"`
}

// SASLConfig contains SASL authentication parameters.
type SASLConfig struct {
	Enabled bool `yaml:"enabled" envconfig:"KAFKA_SASL_ENABLED"`

	// Mechanism is PLAIN, SCRAM-SHA-256 or SCRAM-SHA-512.
	Mechanism string `yaml:"mechanism" envconfig:"KAFKA_SASL_MECHANISM"`
	Username  string `yaml:"username" envconfig:"KAFKA_SASL_USERNAME"`
	Password  string `yaml:"password" envconfig:"KAFKA_SASL_PASSWORD"`
}

// Default values for configuration
const (
	DefaultMinBytes       = 1
	DefaultMaxBytes       = 10e6
	DefaultMaxWait        = 500 * time.Millisecond
	DefaultCommitInterval = time.Second
	DefaultStartOffset    = kafka.FirstOffset
	DefaultRequiredAcks   = int(kafka.RequireAll)
	DefaultBatchSize      = 100
	DefaultBatchTimeout   = 10 * time.Millisecond
	DefaultMaxAttempts    = 3
	DefaultWriteTimeout   = 10 * time.Second
)

// LoadConfig reads Config from the environment.
func LoadConfig() (Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return Config{}, fmt.Errorf("loading kafka config: %w", err)
	}
	return cfg, nil
}

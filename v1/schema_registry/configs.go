package schema_registry

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Default values for configuration
const (
	DefaultTimeout        = 10 * time.Second
	DefaultCacheSize      = 10000
	DefaultStoreKeyPrefix = "topicstream"
)

// Config holds configuration for schema registry client
type Config struct {
	// URL is the schema registry endpoint (e.g., "http://localhost:8081")
	URL string `yaml:"url" envconfig:"SCHEMA_REGISTRY_URL" required:"true"`

	// Username for basic auth (optional)
	Username string `yaml:"username" envconfig:"SCHEMA_REGISTRY_USERNAME"`

	// Password for basic auth (optional)
	Password string `yaml:"password" envconfig:"SCHEMA_REGISTRY_PASSWORD"`

	// Timeout for HTTP requests
	Timeout time.Duration `yaml:"timeout" envconfig:"SCHEMA_REGISTRY_TIMEOUT"`

	// SchemaType selects the payload format: AVRO (default) or JSON.
	SchemaType SchemaType `yaml:"schema_type" envconfig:"SCHEMA_REGISTRY_SCHEMA_TYPE"`

	// CacheSize bounds each in-process cache. Eviction is capacity based only.
	CacheSize int `yaml:"cache_size" envconfig:"SCHEMA_REGISTRY_CACHE_SIZE"`

	// StoreKeyPrefix namespaces keys in the shared schema store.
	StoreKeyPrefix string `yaml:"store_key_prefix" envconfig:"SCHEMA_REGISTRY_STORE_KEY_PREFIX"`
}

// LoadConfig reads Config from the environment.
func LoadConfig() (Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return Config{}, fmt.Errorf("loading schema registry config: %w", err)
	}
	return cfg, nil
}

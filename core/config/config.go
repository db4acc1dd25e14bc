package config

import (
	"fmt"
	"reflect"
	"strings"

	"artifact-store/core/bucket"
	"artifact-store/core/logger"
	"artifact-store/core/metrics"
	"artifact-store/core/server"
	"artifact-store/core/storage"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all configuration for the application.
// It is divided into partial configurations for better modularity.
type Config struct {
	// Server holds configuration for the operational HTTP server.
	Server server.Config `mapstructure:"server"`
	// Storage holds configuration for the object storage backend.
	Storage storage.Config `mapstructure:"storage"`
	// Retry holds configuration for the retry executor and worker pool.
	Retry bucket.RetryConfig `mapstructure:"retry"`
	// Log holds configuration for the logger.
	Log logger.Config `mapstructure:"log"`
	// Metrics holds configuration for the Prometheus collector.
	Metrics metrics.Config `mapstructure:"metrics"`
}

// LoadConfig loads configuration from environment variables and .env file.
func LoadConfig(path string) (*Config, error) {
	envPath := path + "/.env"
	if path == "." {
		envPath = ".env"
	}

	// A missing .env is fine (e.g. production)
	_ = godotenv.Overload(envPath)

	v := viper.New()

	bindValues(v, Config{}, "")

	// STORAGE_BUCKET -> storage.bucket
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to decode configuration: %w", err)
	}

	return &config, nil
}

// bindValues uses reflection to iterate over the struct and set default values in Viper
// based on the 'default' and 'mapstructure' tags.
func bindValues(v *viper.Viper, iface any, prefix string) {
	t := reflect.TypeOf(iface)

	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}

	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		tag := field.Tag.Get("mapstructure")

		if tag == "" {
			continue
		}

		key := tag
		if prefix != "" {
			key = prefix + "." + tag
		}

		if field.Type.Kind() == reflect.Struct {
			bindValues(v, reflect.New(field.Type).Elem().Interface(), key)
			continue
		}

		// Empty defaults still register the key so AutomaticEnv sees it.
		v.SetDefault(key, field.Tag.Get("default"))
	}
}

// Validate rejects configurations the engine cannot start with.
func (c *Config) Validate() error {
	switch {
	case c.Storage.Endpoint == "":
		return fmt.Errorf("storage.endpoint is required")
	case c.Storage.Bucket == "":
		return fmt.Errorf("storage.bucket is required")
	case c.Retry.MaxRetries < 0:
		return fmt.Errorf("retry.max_retries must not be negative")
	case c.Retry.MaxBackoff < c.Retry.InitialBackoff:
		return fmt.Errorf("retry.max_backoff must not be below retry.initial_backoff")
	}
	return nil
}

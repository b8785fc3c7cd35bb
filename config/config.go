package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"go.pilab.hu/connections/connect"
	"go.pilab.hu/connections/internal/crypto"
)

const (
	BackendMemory  = "memory"
	BackendMongoDB = "mongodb"
	BackendRedis   = "redis"
)

// Config holds all configuration of the connection registry server.
// Keys use mapstructure for Viper unmarshalling; environment variables carry the CONNREG_
// prefix, e.g. CONNREG_MONGO_URI.
type Config struct {
	HTTPAddr        string `mapstructure:"http_addr"`
	LogLevel        string `mapstructure:"log_level"`
	LogPretty       bool   `mapstructure:"log_pretty"`
	OtelServiceName string `mapstructure:"otel_service_name"`

	StoreBackend          string `mapstructure:"store_backend"`
	MongoURI              string `mapstructure:"mongo_uri"`
	MongoDBName           string `mapstructure:"mongo_db_name"`
	MongoCollectionPrefix string `mapstructure:"mongo_collection_prefix"`

	AttemptBackend string        `mapstructure:"attempt_backend"`
	AttemptTTL     time.Duration `mapstructure:"attempt_ttl"`
	RedisAddr      string        `mapstructure:"redis_addr"`
	RedisPrefix    string        `mapstructure:"redis_prefix"`

	// EncryptionKey is a base64 encoded 32 byte key for credentials at rest. Empty stores
	// credentials in plain text.
	EncryptionKey string `mapstructure:"encryption_key"`

	// ImplicitSignUp creates a local user for every connection no user holds yet.
	ImplicitSignUp bool `mapstructure:"implicit_signup"`

	// AuditLog writes sign-in outcomes and links as JSON lines to stdout.
	AuditLog bool `mapstructure:"audit_log"`

	Providers []connect.ProviderConfig `mapstructure:"providers"`
}

// LoadConfig reads configuration from file, environment variables and defaults.
// A missing config file is not an error.
func LoadConfig() (*Config, error) {
	v := viper.New()

	v.SetConfigName("connections")
	v.SetConfigType("yaml")
	v.AddConfigPath("/etc/connections/")
	v.AddConfigPath("$HOME/.connections")
	v.AddConfigPath(".")

	return load(v)
}

// LoadConfigFile reads configuration from the given file, environment variables and defaults.
func LoadConfigFile(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)

	return load(v)
}

func load(v *viper.Viper) (*Config, error) {
	v.SetEnvPrefix("CONNREG")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config into struct: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("http_addr", ":8080")
	v.SetDefault("log_level", "info")
	v.SetDefault("log_pretty", false)
	v.SetDefault("otel_service_name", "connections")
	v.SetDefault("store_backend", BackendMemory)
	v.SetDefault("mongo_uri", "mongodb://localhost:27017")
	v.SetDefault("mongo_db_name", "connections")
	v.SetDefault("mongo_collection_prefix", "")
	v.SetDefault("attempt_backend", BackendMemory)
	v.SetDefault("attempt_ttl", 10*time.Minute)
	v.SetDefault("redis_addr", "localhost:6379")
	v.SetDefault("redis_prefix", "connections")
	v.SetDefault("encryption_key", "")
	v.SetDefault("implicit_signup", false)
	v.SetDefault("audit_log", true)
}

// Validate rejects unknown backends, a malformed encryption key and broken providers.
func (c *Config) Validate() error {
	switch c.StoreBackend {
	case BackendMemory, BackendMongoDB:
	default:
		return fmt.Errorf("unknown store_backend %q", c.StoreBackend)
	}

	switch c.AttemptBackend {
	case BackendMemory, BackendRedis:
	default:
		return fmt.Errorf("unknown attempt_backend %q", c.AttemptBackend)
	}

	if c.AttemptTTL <= 0 {
		return fmt.Errorf("attempt_ttl must be positive, got %s", c.AttemptTTL)
	}

	if c.EncryptionKey != "" {
		if _, err := crypto.NewXChaChaEncryptorFromBase64(c.EncryptionKey); err != nil {
			return fmt.Errorf("invalid encryption_key: %w", err)
		}
	}

	seen := make(map[string]bool, len(c.Providers))
	for _, p := range c.Providers {
		if err := p.WithDefaults().Validate(); err != nil {
			return err
		}
		if seen[p.ID] {
			return fmt.Errorf("provider %q configured twice", p.ID)
		}
		seen[p.ID] = true
	}

	return nil
}

// Encryptor returns the credential encryptor selected by EncryptionKey.
//
//nolint:ireturn
func (c *Config) Encryptor() (crypto.TextEncryptor, error) {
	if c.EncryptionKey == "" {
		return crypto.Noop(), nil
	}
	return crypto.NewXChaChaEncryptorFromBase64(c.EncryptionKey)
}

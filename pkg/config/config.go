// Package config loads the service configuration from flags, an optional
// YAML file and SENDERINFO_ environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/sirupsen/logrus"
	"github.com/spf13/pflag"
)

const (
	defaultPrefix    = "SENDERINFO_"
	defaultDelimiter = "."
	configFileFlag   = "configfile"
)

// ErrInvalidConfig is returned by Validate.
var ErrInvalidConfig = errors.New("invalid configuration")

// Config holds all settings of the service.
type Config struct {
	Address      string        `koanf:"address"`
	Verbosity    string        `koanf:"verbosity"`
	LoggerFormat string        `koanf:"loggerformat"`
	GeoIP        GeoIPConfig   `koanf:"geoip"`
	HTTP         HTTPConfig    `koanf:"http"`
	Storage      StorageConfig `koanf:"storage"`
}

// GeoIPConfig points to the MaxMind database.
type GeoIPConfig struct {
	// CityDB is the path to a City .mmdb file. Empty disables lookups.
	CityDB string `koanf:"citydb"`
}

// HTTPConfig holds settings of the HTTP interface.
type HTTPConfig struct {
	// TrustProxy takes the remote address from X-Forwarded-For / X-Real-IP.
	TrustProxy bool `koanf:"trustproxy"`
}

// StorageConfig selects the session store.
type StorageConfig struct {
	TTL   time.Duration `koanf:"ttl"`
	Redis RedisConfig   `koanf:"redis"`
}

// RedisConfig holds the Redis connection. An empty Address selects the
// in-memory store.
type RedisConfig struct {
	Address  string `koanf:"address"`
	Password string `koanf:"password"`
	DB       int    `koanf:"db"`
	Prefix   string `koanf:"prefix"`
}

// FlagSet returns the flags of all config keys, with their defaults.
func FlagSet() *pflag.FlagSet {
	flags := pflag.NewFlagSet("config", pflag.ContinueOnError)
	flags.String(configFileFlag, "senderinfo.yaml", "Path to the YAML configuration file.")
	flags.String("address", ":8080", "Address the HTTP server listens on.")
	flags.String("verbosity", "info", "Log level (trace, debug, info, warn, error).")
	flags.String("loggerformat", "text", "Log format (text, json).")
	flags.String("geoip.citydb", "", "Path to a MaxMind City database. Location lookups are disabled when empty.")
	flags.Bool("http.trustproxy", false, "Take the remote address from X-Forwarded-For / X-Real-IP headers.")
	flags.Duration("storage.ttl", 24*time.Hour, "Lifetime of stored sessions.")
	flags.String("storage.redis.address", "", "Redis address for session storage. Sessions are kept in memory when empty.")
	flags.String("storage.redis.password", "", "Redis password.")
	flags.Int("storage.redis.db", 0, "Redis database number.")
	flags.String("storage.redis.prefix", "senderinfo", "Prefix of Redis keys.")
	return flags
}

// Load builds the Config: flag defaults, then the config file, then
// environment variables, then flags that were set explicitly.
func Load(flags *pflag.FlagSet) (*Config, error) {
	k := koanf.New(defaultDelimiter)

	if err := k.Load(posflag.Provider(flags, defaultDelimiter, k), nil); err != nil {
		return nil, err
	}
	if err := loadFromFile(k, k.String(configFileFlag)); err != nil {
		return nil, err
	}
	if err := loadFromEnv(k); err != nil {
		return nil, err
	}
	// only flags set on the command line override file and env values
	if err := k.Load(posflag.Provider(flags, defaultDelimiter, k), nil); err != nil {
		return nil, err
	}

	cfg := &Config{}
	if err := k.UnmarshalWithConf("", cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, err
	}
	return cfg, nil
}

func loadFromFile(k *koanf.Koanf, path string) error {
	if path == "" {
		return nil
	}
	if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("unable to load config file %s: %w", path, err)
		}
	}
	return nil
}

func loadFromEnv(k *koanf.Koanf) error {
	provider := env.Provider(defaultPrefix, defaultDelimiter, func(rawKey string) string {
		return strings.ReplaceAll(strings.ToLower(strings.TrimPrefix(rawKey, defaultPrefix)), "_", defaultDelimiter)
	})
	return k.Load(provider, nil)
}

// Validate checks values that cannot be enforced by the flag types.
func (c *Config) Validate() error {
	if _, err := logrus.ParseLevel(c.Verbosity); err != nil {
		return fmt.Errorf("%w: verbosity: %v", ErrInvalidConfig, err)
	}
	switch strings.ToLower(c.LoggerFormat) {
	case "text", "json":
	default:
		return fmt.Errorf("%w: loggerformat must be text or json, got %q", ErrInvalidConfig, c.LoggerFormat)
	}
	if c.Storage.TTL <= 0 {
		return fmt.Errorf("%w: storage.ttl must be positive", ErrInvalidConfig)
	}
	if c.Address == "" {
		return fmt.Errorf("%w: address is required", ErrInvalidConfig)
	}
	return nil
}

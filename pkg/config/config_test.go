package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfigFile(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "senderinfo.yaml")
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o600))
	return path
}

func TestLoad(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		flags := FlagSet()
		require.NoError(t, flags.Parse([]string{"--configfile", filepath.Join(t.TempDir(), "absent.yaml")}))

		cfg, err := Load(flags)

		require.NoError(t, err)
		assert.Equal(t, ":8080", cfg.Address)
		assert.Equal(t, "info", cfg.Verbosity)
		assert.Equal(t, "text", cfg.LoggerFormat)
		assert.Empty(t, cfg.GeoIP.CityDB)
		assert.False(t, cfg.HTTP.TrustProxy)
		assert.Equal(t, 24*time.Hour, cfg.Storage.TTL)
		assert.Equal(t, "senderinfo", cfg.Storage.Redis.Prefix)
		assert.NoError(t, cfg.Validate())
	})
	t.Run("file overrides defaults", func(t *testing.T) {
		path := writeConfigFile(t, `
address: ":9000"
geoip:
  citydb: /data/GeoLite2-City.mmdb
http:
  trustproxy: true
storage:
  ttl: 1h
  redis:
    address: localhost:6379
`)
		flags := FlagSet()
		require.NoError(t, flags.Parse([]string{"--configfile", path}))

		cfg, err := Load(flags)

		require.NoError(t, err)
		assert.Equal(t, ":9000", cfg.Address)
		assert.Equal(t, "/data/GeoLite2-City.mmdb", cfg.GeoIP.CityDB)
		assert.True(t, cfg.HTTP.TrustProxy)
		assert.Equal(t, time.Hour, cfg.Storage.TTL)
		assert.Equal(t, "localhost:6379", cfg.Storage.Redis.Address)
	})
	t.Run("env overrides file, flags override env", func(t *testing.T) {
		path := writeConfigFile(t, "verbosity: warn\naddress: \":9000\"\n")
		t.Setenv("SENDERINFO_VERBOSITY", "debug")
		t.Setenv("SENDERINFO_ADDRESS", ":7000")
		t.Setenv("SENDERINFO_STORAGE_REDIS_PREFIX", "chat")
		flags := FlagSet()
		require.NoError(t, flags.Parse([]string{"--configfile", path, "--address", ":6000"}))

		cfg, err := Load(flags)

		require.NoError(t, err)
		assert.Equal(t, "debug", cfg.Verbosity)
		assert.Equal(t, ":6000", cfg.Address)
		assert.Equal(t, "chat", cfg.Storage.Redis.Prefix)
	})
	t.Run("invalid file", func(t *testing.T) {
		path := writeConfigFile(t, "address: [unterminated")
		flags := FlagSet()
		require.NoError(t, flags.Parse([]string{"--configfile", path}))

		_, err := Load(flags)

		assert.ErrorContains(t, err, "unable to load config file")
	})
}

func TestConfig_Validate(t *testing.T) {
	valid := func() *Config {
		return &Config{Address: ":8080", Verbosity: "info", LoggerFormat: "json", Storage: StorageConfig{TTL: time.Minute}}
	}

	assert.NoError(t, valid().Validate())

	cfg := valid()
	cfg.Verbosity = "chatty"
	assert.ErrorIs(t, cfg.Validate(), ErrInvalidConfig)

	cfg = valid()
	cfg.LoggerFormat = "xml"
	assert.ErrorIs(t, cfg.Validate(), ErrInvalidConfig)

	cfg = valid()
	cfg.Storage.TTL = 0
	assert.ErrorIs(t, cfg.Validate(), ErrInvalidConfig)

	cfg = valid()
	cfg.Address = ""
	assert.ErrorIs(t, cfg.Validate(), ErrInvalidConfig)
}

package config

import (
	// Go Internal Packages
	"os"
	"path/filepath"
	"testing"
	"time"

	// Local Packages
	errors "tx-gateway/errors"

	// External Packages
	"github.com/knadh/koanf"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func loadDefault(t *testing.T) Config {
	t.Helper()
	k := koanf.New(".")
	require.NoError(t, k.Load(rawbytes.Provider(DefaultConfig), yaml.Parser()))

	var c Config
	require.NoError(t, k.Unmarshal("", &c))
	return c
}

func TestDefaultConfigIsValid(t *testing.T) {
	c := loadDefault(t)

	require.NoError(t, c.Validate())
	assert.Equal(t, DriverMemory, c.Store.Driver)
	assert.Equal(t, 10*time.Second, c.Redis.LockExpiry)
	assert.Equal(t, 24*time.Hour, c.Redis.IdempotencyTTL)
	assert.Equal(t, []string{"4000 0000 0000 0119"}, c.Gateway.Blacklist)
	assert.NoError(t, c.ValidateProjector())
}

func TestFileOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yml")
	override := []byte("store:\n  driver: \"postgres\"\ngateway:\n  strict_capture: true\n")
	require.NoError(t, os.WriteFile(path, override, 0o600))

	k := koanf.New(".")
	require.NoError(t, k.Load(rawbytes.Provider(DefaultConfig), yaml.Parser()))
	require.NoError(t, k.Load(file.Provider(path), yaml.Parser()))

	var c Config
	require.NoError(t, k.Unmarshal("", &c))

	assert.Equal(t, DriverPostgres, c.Store.Driver)
	assert.True(t, c.Gateway.StrictCapture)
	assert.Equal(t, "tx-gateway", c.Application)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{name: "unknown driver", mutate: func(c *Config) { c.Store.Driver = "sqlite" }, wantErr: "store.driver"},
		{name: "mongo without uri", mutate: func(c *Config) { c.Store.Driver = DriverMongo; c.Mongo.URI = "" }, wantErr: "mongo.uri"},
		{name: "postgres without dsn", mutate: func(c *Config) { c.Store.Driver = DriverPostgres; c.Postgres.DSN = "" }, wantErr: "postgres.dsn"},
		{name: "redis without uri", mutate: func(c *Config) { c.Redis.Enabled = true; c.Redis.URI = "" }, wantErr: "redis.uri"},
		{name: "publish without brokers", mutate: func(c *Config) { c.Kafka.Publish = true; c.Kafka.Brokers = nil }, wantErr: "kafka.brokers"},
		{name: "empty application", mutate: func(c *Config) { c.Application = "" }, wantErr: "application"},
		{name: "disabled redis is not checked", mutate: func(c *Config) { c.Redis.URI = "" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := loadDefault(t)
			tt.mutate(&c)

			err := c.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
}

func TestValidate_ErrorKind(t *testing.T) {
	c := loadDefault(t)
	c.HTTP.Addr = ""

	err := c.Validate()
	assert.True(t, errors.Is(errors.Invalid, err))
	assert.EqualError(t, err, "validation failed: http.addr cannot be empty")
}

func TestValidateProjector(t *testing.T) {
	c := loadDefault(t)
	c.Kafka.RecordsPerPoll = 0
	c.Mongo.Database = ""

	err := c.ValidateProjector()
	assert.ErrorContains(t, err, "kafka.records_per_poll")
	assert.ErrorContains(t, err, "mongo.database")
}

func TestLoadSecrets(t *testing.T) {
	t.Setenv("MONGO_URI", "mongodb://prod:27017")
	t.Setenv("KAFKA_BROKERS", "b1:9092,b2:9092")
	t.Setenv("IS_PROD_MODE", "true")
	t.Setenv("POSTGRES_DSN", "")

	c := LoadSecrets(loadDefault(t))

	assert.Equal(t, "mongodb://prod:27017", c.Mongo.URI)
	assert.Equal(t, []string{"b1:9092", "b2:9092"}, c.Kafka.Brokers)
	assert.True(t, c.IsProdMode)
	assert.Contains(t, c.Postgres.DSN, "localhost")
}

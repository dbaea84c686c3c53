package config

import (
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestLoadConfig_Defaults(t *testing.T) {
	t.Setenv("CONFIG_FILE", "")
	t.Setenv("ENVIRONMENT", "")
	t.Setenv("DATABASE_DRIVER", "")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, Development, cfg.Environment)
	assert.Equal(t, DriverSQLite, cfg.DatabaseDriver)
	assert.Equal(t, 24*time.Hour, cfg.JWTTTL)
	assert.True(t, cfg.IsDevelopment())
	assert.False(t, cfg.IsProduction())
}

func TestLoadConfig_Env(t *testing.T) {
	t.Setenv("CONFIG_FILE", "")
	t.Setenv("ENVIRONMENT", "production")
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("JWT_TTL", "2h")
	t.Setenv("DATABASE_DRIVER", "memory")
	t.Setenv("CORS_ORIGINS", "https://a.example, https://b.example,")
	t.Setenv("LOGIN_RATE_PER_MINUTE", "3")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.True(t, cfg.IsProduction())
	assert.Equal(t, 2*time.Hour, cfg.JWTTTL)
	assert.Equal(t, DriverMemory, cfg.DatabaseDriver)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORSOrigins)
	assert.Equal(t, 3, cfg.LoginRatePerMinute)
}

func TestLoadConfig_FileOverlay(t *testing.T) {
	path := filepath.Join(t.TempDir(), "matflow.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
log_level: debug
database_driver: memory
jwt_ttl: 90m
cors_origins: ["https://app.example"]
`), 0o600))

	t.Setenv("CONFIG_FILE", path)
	t.Setenv("ENVIRONMENT", "")
	t.Setenv("LOG_LEVEL", "warn")
	t.Setenv("DATABASE_DRIVER", "sqlite")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, DriverMemory, cfg.DatabaseDriver)
	assert.Equal(t, 90*time.Minute, cfg.JWTTTL)
	assert.Equal(t, []string{"https://app.example"}, cfg.CORSOrigins)
	assert.Equal(t, path, cfg.ConfigFile)
}

func TestLoadConfig_BadFile(t *testing.T) {
	t.Setenv("CONFIG_FILE", filepath.Join(t.TempDir(), "missing.yaml"))
	_, err := LoadConfig()
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			Environment:     Development,
			LogLevel:        "info",
			JWTTTL:          time.Hour,
			DatabaseDriver:  DriverMemory,
			TracingProvider: TracingOTel,
		}
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"valid", func(*Config) {}, false},
		{"unknown environment", func(c *Config) { c.Environment = "qa" }, true},
		{"bad log level", func(c *Config) { c.LogLevel = "loud" }, true},
		{"production without secret", func(c *Config) { c.Environment = Production }, true},
		{"production with secret", func(c *Config) { c.Environment = Production; c.JWTSecret = "x" }, false},
		{"zero ttl", func(c *Config) { c.JWTTTL = 0 }, true},
		{"unknown driver", func(c *Config) { c.DatabaseDriver = "postgres" }, true},
		{"sqlite without path", func(c *Config) { c.DatabaseDriver = DriverSQLite }, true},
		{"mongo without uri", func(c *Config) { c.DatabaseDriver = DriverMongoDB; c.MongoDatabase = "db" }, true},
		{"dynamodb without table", func(c *Config) { c.DatabaseDriver = DriverDynamoDB }, true},
		{"events without bus", func(c *Config) { c.EventsEnabled = true }, true},
		{"unknown tracer", func(c *Config) { c.TracingProvider = "zipkin" }, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestZapLevel(t *testing.T) {
	level, err := (&Config{LogLevel: "warn"}).ZapLevel()
	require.NoError(t, err)
	assert.Equal(t, zapcore.WarnLevel, level)
}

func TestConfigWatcher_NoFile(t *testing.T) {
	initial := &Config{LogLevel: "info"}
	w, err := NewConfigWatcher(initial, zap.NewNop())
	require.NoError(t, err)
	defer w.Stop()

	assert.Same(t, initial, w.GetConfig())
	w.Stop()
}

func TestConfigWatcher_Reload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "matflow.yaml")
	require.NoError(t, os.WriteFile(path, []byte("log_level: info\n"), 0o600))

	load := func() (*Config, error) {
		c := &Config{ConfigFile: path}
		if err := c.applyFile(path); err != nil {
			return nil, err
		}
		return c, nil
	}
	initial := &Config{LogLevel: "info", ConfigFile: path}
	w, err := newConfigWatcher(initial, zap.NewNop(), 10*time.Millisecond, load)
	require.NoError(t, err)
	defer w.Stop()

	var seen atomic.Value
	w.OnChange(func(c *Config) { seen.Store(c.LogLevel) })
	w.OnChange(func(*Config) { panic("ignored") })

	require.NoError(t, os.WriteFile(path, []byte("log_level: debug\n"), 0o600))

	assert.Eventually(t, func() bool {
		v, _ := seen.Load().(string)
		return v == "debug"
	}, 3*time.Second, 20*time.Millisecond)
	assert.Equal(t, "debug", w.GetConfig().LogLevel)
}

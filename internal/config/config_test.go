package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{"CONFIG_FILE", "STORE_DRIVER", "EVENTS_DRIVER", "APP_PORT", "RPC_BASE_PATH", "RPC_CALL_TIMEOUT", "CASCADE_MODE"} {
		t.Setenv(key, "")
	}
}

func TestLoad(t *testing.T) {
	t.Run("environment over defaults", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("DB_HOST", "db")
		t.Setenv("DB_USER", "pos")
		t.Setenv("DB_NAME", "restaurant")
		t.Setenv("DB_MAX_CONNS", "25")
		t.Setenv("RPC_CALL_TIMEOUT", "3s")
		t.Setenv("CASCADE_MODE", "fail-loud")

		cfg, err := Load("")
		require.NoError(t, err)

		assert.Equal(t, "db", cfg.Postgres.Host)
		assert.Equal(t, "5432", cfg.Postgres.Port)
		assert.EqualValues(t, 25, cfg.Postgres.MaxConns)
		assert.Equal(t, 3*time.Second, cfg.RPC.CallTimeout)
		assert.Equal(t, "fail-loud", cfg.RPC.CascadeMode)
		assert.Equal(t, "/api/rpc", cfg.RPC.BasePath)
		assert.Equal(t, "none", cfg.Events.Driver)
	})

	t.Run("yaml file then environment", func(t *testing.T) {
		clearEnv(t)
		path := filepath.Join(t.TempDir(), "config.yaml")
		require.NoError(t, os.WriteFile(path, []byte(`
store_driver: memory
app:
  port: "9090"
rpc:
  base_path: /rpc
  call_timeout: 2s
events:
  driver: nats
`), 0o600))
		t.Setenv("CONFIG_FILE", path)
		t.Setenv("APP_PORT", "7070")

		cfg, err := Load("")
		require.NoError(t, err)

		assert.Equal(t, "memory", cfg.StoreDriver)
		assert.Equal(t, "7070", cfg.App.Port)
		assert.Equal(t, "/rpc", cfg.RPC.BasePath)
		assert.Equal(t, 2*time.Second, cfg.RPC.CallTimeout)
		assert.Equal(t, "nats", cfg.Events.Driver)
	})

	t.Run("dotenv file", func(t *testing.T) {
		clearEnv(t)
		path := filepath.Join(t.TempDir(), ".env")
		require.NoError(t, os.WriteFile(path, []byte("STORE_DRIVER=memory\nLOG_LEVEL=debug\n"), 0o600))
		t.Setenv("STORE_DRIVER", "")
		t.Setenv("LOG_LEVEL", "")
		os.Unsetenv("STORE_DRIVER")
		os.Unsetenv("LOG_LEVEL")

		cfg, err := Load(path)
		require.NoError(t, err)

		assert.Equal(t, "memory", cfg.StoreDriver)
		assert.Equal(t, "debug", cfg.App.LogLevel)
	})

	t.Run("missing dotenv file is fine", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("STORE_DRIVER", "memory")

		_, err := Load(filepath.Join(t.TempDir(), "absent.env"))
		assert.NoError(t, err)
	})
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name    string
		env     map[string]string
		wantErr string
	}{
		{name: "postgres settings missing", env: map[string]string{"STORE_DRIVER": "postgres"}, wantErr: "DB_HOST is required\nDB_USER is required\nDB_NAME is required"},
		{name: "unknown store driver", env: map[string]string{"STORE_DRIVER": "mysql"}, wantErr: `unknown STORE_DRIVER "mysql"`},
		{name: "unknown events driver", env: map[string]string{"STORE_DRIVER": "memory", "EVENTS_DRIVER": "kafka"}, wantErr: `unknown EVENTS_DRIVER "kafka"`},
		{name: "bad duration", env: map[string]string{"STORE_DRIVER": "memory", "RPC_CALL_TIMEOUT": "soon"}, wantErr: "RPC_CALL_TIMEOUT"},
		{name: "non-positive timeout", env: map[string]string{"STORE_DRIVER": "memory", "RPC_CALL_TIMEOUT": "0s"}, wantErr: "RPC_CALL_TIMEOUT must be positive"},
		{name: "bad bool", env: map[string]string{"STORE_DRIVER": "memory", "DB_AUTO_MIGRATE": "maybe"}, wantErr: "DB_AUTO_MIGRATE"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			for _, key := range []string{"DB_HOST", "DB_USER", "DB_NAME", "DB_AUTO_MIGRATE"} {
				t.Setenv(key, "")
			}
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			_, err := Load("")
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestPostgresURLs(t *testing.T) {
	p := PostgresConfig{
		Host:     "db",
		Port:     "5432",
		User:     "pos",
		Password: "p@ss word",
		DBName:   "restaurant",
		SSLMode:  "disable",
	}

	assert.Equal(t, "host=db port=5432 user=pos password=p@ss word dbname=restaurant sslmode=disable", p.DSN())
	assert.Equal(t, "pgx5://pos:p%40ss%20word@db:5432/restaurant?sslmode=disable", p.MigrationURL())
}

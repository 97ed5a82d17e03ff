package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadConfig(t *testing.T) {
	path := writeConfig(t, `
storage: postgres
database:
  host: localhost
  name: airbooking
  user: airbooking
kafka:
  brokers: ["localhost:9092"]
booking:
  hold_ttl: 10m
  refund_tiers:
    - before: 48h
      percent: 90
  refund_fallback_percent: 40
worker:
  sweep_interval: 30s
`)
	t.Setenv("DATABASE_PASSWORD", "from-env")
	t.Setenv("JWT_SECRET", "jwt")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, 10*time.Minute, cfg.Booking.HoldTTL)
	assert.Equal(t, 30*time.Second, cfg.Worker.SweepInterval)
	assert.Equal(t, time.Minute, cfg.Worker.LockTTL)
	assert.Equal(t, "from-env", cfg.Database.Password)
	assert.Equal(t, "jwt", cfg.Auth.JWTSecret)
	assert.Equal(t, ":8080", cfg.HTTP.Address)
	assert.Equal(t, "refund_requests", cfg.Kafka.RefundTopic)
	require.Len(t, cfg.Booking.RefundTiers, 1)
	assert.Equal(t, 48*time.Hour, cfg.Booking.RefundTiers[0].Before)
	assert.Contains(t, cfg.Database.DSN(), "password=from-env")
}

func TestLoadConfig_MissingFileUsesDefaults(t *testing.T) {
	t.Setenv("STORAGE", "memory")

	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, StorageMemory, cfg.Storage)
	assert.Equal(t, 15*time.Minute, cfg.Booking.HoldTTL)
	assert.Equal(t, 100, cfg.Worker.SweepBatchSize)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{name: "memory", cfg: Config{Storage: StorageMemory}},
		{name: "postgres without host", cfg: Config{Storage: StoragePostgres}, wantErr: true},
		{name: "unknown storage", cfg: Config{Storage: "sqlite"}, wantErr: true},
		{
			name:    "refund percent out of range",
			cfg:     Config{Storage: StorageMemory, Booking: BookingConfig{RefundTiers: []RefundTier{{Before: time.Hour, Percent: 120}}}},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

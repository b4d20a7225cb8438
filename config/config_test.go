package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{"MP_ACCESS_TOKEN", "MP_BASE_URL", "DATABASE_URL", "MY_SERVICE_ROLE_KEY", "SUPABASE_SERVICE_ROLE_KEY", "REDIS_URL", "SMTP_PASSWORD", "HTTP_ADDRESS", "COMMISSION_RATE"} {
		t.Setenv(k, "")
	}
}

func TestLoadConfig_FileAndDefaults(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, `
http:
  address: ":8081"
database:
  host: db.internal
  user: postgres
  name: rides
kafka:
  brokers: ["localhost:9092"]
  payment_events_topic: payments
`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, ":8081", cfg.HTTP.Address)
	assert.Equal(t, ":9090", cfg.GRPC.Address)
	assert.Equal(t, 5432, cfg.Database.Port)
	assert.Equal(t, "require", cfg.Database.SSLMode)
	assert.Equal(t, "https://api.mercadopago.com", cfg.MercadoPago.BaseURL)
	assert.Equal(t, 0.12, cfg.Payments.CommissionRate)
	assert.Equal(t, 2.0, cfg.Payments.RefundWindowHours)
	assert.Equal(t, []string{"localhost:9092"}, cfg.Kafka.Brokers)
	assert.Equal(t, "host=db.internal port=5432 user=postgres password= dbname=rides sslmode=require", cfg.Database.DSN())
}

func TestLoadConfig_EnvOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("MP_ACCESS_TOKEN", "APP_USR-123")
	t.Setenv("DATABASE_URL", "postgres://u:p@localhost:5432/rides")
	t.Setenv("COMMISSION_RATE", "0.15")

	cfg, err := LoadConfig("")
	require.NoError(t, err)

	assert.Equal(t, "APP_USR-123", cfg.MercadoPago.AccessToken)
	assert.Equal(t, "postgres://u:p@localhost:5432/rides", cfg.Database.DSN())
	assert.Equal(t, 0.15, cfg.Payments.CommissionRate)
}

func TestLoadConfig_ServiceKeyFallback(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, "database:\n  host: db\n")

	t.Setenv("SUPABASE_SERVICE_ROLE_KEY", "prod-key")
	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "prod-key", cfg.Database.Password)

	t.Setenv("MY_SERVICE_ROLE_KEY", "local-key")
	cfg, err = LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "local-key", cfg.Database.Password)
}

func TestLoadConfig_Errors(t *testing.T) {
	clearEnv(t)

	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	_, err = LoadConfig(writeConfig(t, "http: [broken"))
	assert.Error(t, err)

	_, err = LoadConfig(writeConfig(t, "http:\n  address: \":1\"\n"))
	assert.ErrorContains(t, err, "database location")

	t.Setenv("COMMISSION_RATE", "abc")
	_, err = LoadConfig(writeConfig(t, "database:\n  host: db\n"))
	assert.ErrorContains(t, err, "COMMISSION_RATE")
}

func TestValidate_CommissionRange(t *testing.T) {
	cfg := &Config{Database: DatabaseConfig{Host: "db"}, Payments: PaymentsConfig{CommissionRate: 1.2}}
	assert.Error(t, cfg.Validate())

	cfg.Payments.CommissionRate = 0.1
	assert.NoError(t, cfg.Validate())
}

func TestLoadConfig_ExplicitZeroRates(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, `
database:
  host: db
payments:
  commission_rate: 0
  refund_window_hours: 0
`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Zero(t, cfg.Payments.CommissionRate)
	assert.Zero(t, cfg.Payments.RefundWindowHours)
	assert.Equal(t, 30, cfg.Payments.NotificationLockSeconds)

	t.Setenv("COMMISSION_RATE", "0")
	cfg, err = LoadConfig(writeConfig(t, "database:\n  host: db\npayments:\n  refund_window_hours: 1.5\n"))
	require.NoError(t, err)
	assert.Zero(t, cfg.Payments.CommissionRate)
	assert.Equal(t, 1.5, cfg.Payments.RefundWindowHours)
}

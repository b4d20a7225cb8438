package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	HTTP        HTTPConfig        `yaml:"http"`
	GRPC        GRPCConfig        `yaml:"grpc"`
	Database    DatabaseConfig    `yaml:"database"`
	Redis       RedisConfig       `yaml:"redis"`
	Kafka       KafkaConfig       `yaml:"kafka"`
	MercadoPago MercadoPagoConfig `yaml:"mercadopago"`
	Payments    PaymentsConfig    `yaml:"payments"`
	RateLimit   RateLimitConfig   `yaml:"rate_limit"`
	SMTP        SMTPConfig        `yaml:"smtp"`
	Log         LogConfig         `yaml:"log"`
	Worker      WorkerConfig      `yaml:"worker"`
}

type HTTPConfig struct {
	Address string `yaml:"address"`
}

type GRPCConfig struct {
	Address string `yaml:"address"`
}

// DatabaseConfig describes the PostgreSQL store. URL wins over the discrete
// fields when both are set.
type DatabaseConfig struct {
	URL      string `yaml:"url"`
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Name     string `yaml:"name"`
	SSLMode  string `yaml:"ssl_mode"`
}

func (d DatabaseConfig) DSN() string {
	if d.URL != "" {
		return d.URL
	}
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s", d.Host, d.Port, d.User, d.Password, d.Name, d.SSLMode)
}

type RedisConfig struct {
	URL      string `yaml:"url"`
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

func (r RedisConfig) Enabled() bool {
	return r.URL != "" || r.Addr != ""
}

type KafkaConfig struct {
	Brokers            []string `yaml:"brokers"`
	PaymentEventsTopic string   `yaml:"payment_events_topic"`
	NotificationsTopic string   `yaml:"notifications_topic"`
	GroupID            string   `yaml:"group_id"`
}

type MercadoPagoConfig struct {
	BaseURL        string `yaml:"base_url"`
	AccessToken    string `yaml:"access_token"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
}

const (
	DefaultCommissionRate    = 0.12
	DefaultRefundWindowHours = 2
)

// PaymentsConfig rates are taken as given, zero included. LoadConfig supplies
// the defaults only for keys the file leaves out.
type PaymentsConfig struct {
	CommissionRate          float64 `yaml:"commission_rate"`
	RefundWindowHours       float64 `yaml:"refund_window_hours"`
	NotificationLockSeconds int     `yaml:"notification_lock_seconds"`
}

type RateLimitConfig struct {
	// Rate uses the limiter format, e.g. "20-M" for 20 requests per minute.
	Rate string `yaml:"rate"`
}

type SMTPConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	From     string `yaml:"from"`
}

type LogConfig struct {
	Level      string `yaml:"level"`
	File       string `yaml:"file"`
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days"`
}

type WorkerConfig struct {
	ReconcileIntervalMinutes int `yaml:"reconcile_interval_minutes"`
	ReconcileAfterMinutes    int `yaml:"reconcile_after_minutes"`
}

// LoadConfig reads the YAML file at path, then overlays secrets taken from the
// environment (and from a .env file when one is present). An empty path skips
// the file and builds the configuration from defaults and environment only.
func LoadConfig(path string) (*Config, error) {
	_ = godotenv.Load()

	// Seeded before decoding so an explicit zero in the file survives.
	cfg := Config{Payments: PaymentsConfig{
		CommissionRate:    DefaultCommissionRate,
		RefundWindowHours: DefaultRefundWindowHours,
	}}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyEnv() error {
	if v := os.Getenv("MP_ACCESS_TOKEN"); v != "" {
		c.MercadoPago.AccessToken = v
	}
	if v := os.Getenv("MP_BASE_URL"); v != "" {
		c.MercadoPago.BaseURL = v
	}
	if v := os.Getenv("DATABASE_URL"); v != "" {
		c.Database.URL = v
	}
	// The local override is checked before the production name.
	if v := firstEnv("MY_SERVICE_ROLE_KEY", "SUPABASE_SERVICE_ROLE_KEY"); v != "" {
		c.Database.Password = v
	}
	if v := os.Getenv("REDIS_URL"); v != "" {
		c.Redis.URL = v
	}
	if v := os.Getenv("SMTP_PASSWORD"); v != "" {
		c.SMTP.Password = v
	}
	if v := os.Getenv("HTTP_ADDRESS"); v != "" {
		c.HTTP.Address = v
	}
	if v := os.Getenv("COMMISSION_RATE"); v != "" {
		rate, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("invalid COMMISSION_RATE %q: %w", v, err)
		}
		c.Payments.CommissionRate = rate
	}
	return nil
}

func (c *Config) applyDefaults() {
	if c.HTTP.Address == "" {
		c.HTTP.Address = ":8080"
	}
	if c.GRPC.Address == "" {
		c.GRPC.Address = ":9090"
	}
	if c.Database.Port == 0 {
		c.Database.Port = 5432
	}
	if c.Database.SSLMode == "" {
		c.Database.SSLMode = "require"
	}
	if c.MercadoPago.BaseURL == "" {
		c.MercadoPago.BaseURL = "https://api.mercadopago.com"
	}
	if c.MercadoPago.TimeoutSeconds == 0 {
		c.MercadoPago.TimeoutSeconds = 15
	}
	if c.Payments.NotificationLockSeconds == 0 {
		c.Payments.NotificationLockSeconds = 30
	}
	if c.RateLimit.Rate == "" {
		c.RateLimit.Rate = "30-M"
	}
	if c.SMTP.Port == 0 {
		c.SMTP.Port = 587
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.MaxSizeMB == 0 {
		c.Log.MaxSizeMB = 50
	}
	if c.Worker.ReconcileIntervalMinutes == 0 {
		c.Worker.ReconcileIntervalMinutes = 5
	}
	if c.Worker.ReconcileAfterMinutes == 0 {
		c.Worker.ReconcileAfterMinutes = 10
	}
}

// Validate checks the settings the service cannot start without. A missing
// provider token is tolerated here: the handlers report it per request.
func (c *Config) Validate() error {
	if c.Database.URL == "" && c.Database.Host == "" {
		return errors.New("database location is not configured (set DATABASE_URL or database.host)")
	}
	if c.Payments.CommissionRate < 0 || c.Payments.CommissionRate >= 1 {
		return fmt.Errorf("commission rate must be in [0, 1), got %v", c.Payments.CommissionRate)
	}
	if c.Payments.RefundWindowHours < 0 {
		return fmt.Errorf("refund window must not be negative, got %v", c.Payments.RefundWindowHours)
	}
	return nil
}

func firstEnv(keys ...string) string {
	for _, k := range keys {
		if v := os.Getenv(k); v != "" {
			return v
		}
	}
	return ""
}

package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

const envPrefix = "CARGOLEDGER"

// Config holds all application configuration.
type Config struct {
	Server  ServerConfig
	DB      DBConfig
	JWT     JWTConfig
	Log     LogConfig
	CORS    CORSConfig
	Billing BillingConfig
	FX      FXConfig
}

// CORSConfig holds CORS settings.
type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port         string        `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	Environment  string        `mapstructure:"environment"`
}

// DBConfig holds PostgreSQL connection settings. An empty Host selects
// the in-memory repositories.
type DBConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	Name            string        `mapstructure:"name"`
	SSLMode         string        `mapstructure:"sslmode"`
	MaxOpen         int           `mapstructure:"max_open"`
	MaxIdle         int           `mapstructure:"max_idle"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
}

// DSN returns the PostgreSQL connection string.
func (d *DBConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.Name, d.SSLMode,
	)
}

// JWTConfig holds the settings used to verify portal access tokens.
type JWTConfig struct {
	Secret string `mapstructure:"secret"`
	Issuer string `mapstructure:"issuer"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// RateTableConfig is the rate table seeded when none has been published.
type RateTableConfig struct {
	BaseRate           decimal.Decimal
	AdditionalRate     decimal.Decimal
	CustomsDutyPercent decimal.Decimal
	CustomsThreshold   decimal.Decimal
	StorageFreeDays    int
	StorageDailyRate   decimal.Decimal
	BaseCurrency       string
}

// BillingConfig holds invoice defaults.
type BillingConfig struct {
	DefaultRates      RateTableConfig
	DefaultTaxPercent decimal.Decimal
	PaymentTermsDays  int
	NumberAttempts    int
	UpdateAttempts    int
	DefaultCurrency   string
}

// FXConfig selects and configures the exchange rate snapshot provider.
type FXConfig struct {
	Provider       string
	Base           string
	StaticRates    map[string]decimal.Decimal
	RedisURL       string
	RedisKey       string
	S3Bucket       string
	S3Key          string
	S3Region       string
	S3Endpoint     string
	S3AccessKey    string
	S3SecretKey    string
	MaxSnapshotAge time.Duration
}

// Load reads configuration from environment variables with the CARGOLEDGER_ prefix.
func Load() (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Server defaults
	v.SetDefault("server.port", ":8080")
	v.SetDefault("server.read_timeout", "15s")
	v.SetDefault("server.write_timeout", "15s")
	v.SetDefault("server.environment", "development")

	// DB defaults
	v.SetDefault("db.host", "")
	v.SetDefault("db.port", 5432)
	v.SetDefault("db.user", "cargoledger")
	v.SetDefault("db.password", "cargoledger_secret")
	v.SetDefault("db.name", "cargoledger")
	v.SetDefault("db.sslmode", "disable")
	v.SetDefault("db.max_open", 25)
	v.SetDefault("db.max_idle", 10)
	v.SetDefault("db.conn_max_lifetime", "30m")

	v.SetDefault("jwt.secret", "change-me-in-production")
	v.SetDefault("jwt.issuer", "cargoledger")

	v.SetDefault("log.level", "debug")
	v.SetDefault("log.format", "console")

	v.SetDefault("cors.allowed_origins", "http://localhost:3000,http://127.0.0.1:3000")

	// Billing defaults
	v.SetDefault("billing.base_rate", "700")
	v.SetDefault("billing.additional_rate", "350")
	v.SetDefault("billing.customs_duty_percent", "15")
	v.SetDefault("billing.customs_threshold", "10000")
	v.SetDefault("billing.storage_free_days", 7)
	v.SetDefault("billing.storage_daily_rate", "50")
	v.SetDefault("billing.base_currency", "JPY")
	v.SetDefault("billing.default_tax_percent", "0")
	v.SetDefault("billing.payment_terms_days", 30)
	v.SetDefault("billing.number_attempts", 5)
	v.SetDefault("billing.update_attempts", 3)
	v.SetDefault("billing.default_currency", "JPY")

	// FX defaults
	v.SetDefault("fx.provider", "static")
	v.SetDefault("fx.base", "USD")
	v.SetDefault("fx.static_rates", "USD=1,JPY=150,EUR=0.92,GBP=0.79,PHP=56")
	v.SetDefault("fx.redis_url", "localhost:6379")
	v.SetDefault("fx.redis_key", "fx:snapshot:latest")
	v.SetDefault("fx.s3_bucket", "")
	v.SetDefault("fx.s3_key", "fx/latest.json")
	v.SetDefault("fx.s3_region", "us-east-1")
	v.SetDefault("fx.s3_endpoint", "")
	v.SetDefault("fx.max_snapshot_age", "24h")

	keys := []string{
		"server.port", "server.read_timeout", "server.write_timeout", "server.environment",
		"db.host", "db.port", "db.user", "db.password", "db.name", "db.sslmode",
		"db.max_open", "db.max_idle", "db.conn_max_lifetime",
		"jwt.secret", "jwt.issuer",
		"log.level", "log.format",
		"cors.allowed_origins",
		"billing.base_rate", "billing.additional_rate", "billing.customs_duty_percent",
		"billing.customs_threshold", "billing.storage_free_days", "billing.storage_daily_rate",
		"billing.base_currency", "billing.default_tax_percent", "billing.payment_terms_days",
		"billing.number_attempts", "billing.update_attempts", "billing.default_currency",
		"fx.provider", "fx.base", "fx.static_rates", "fx.redis_url", "fx.redis_key",
		"fx.s3_bucket", "fx.s3_key", "fx.s3_region", "fx.s3_endpoint",
		"fx.s3_access_key", "fx.s3_secret_key", "fx.max_snapshot_age",
	}
	for _, key := range keys {
		_ = v.BindEnv(key, envPrefix+"_"+strings.ToUpper(strings.ReplaceAll(key, ".", "_")))
	}

	cfg := &Config{}

	// Platforms like Railway set PORT. Use it unless the prefixed variable is set.
	serverPort := v.GetString("server.port")
	if port := os.Getenv("PORT"); port != "" && os.Getenv(envPrefix+"_SERVER_PORT") == "" {
		serverPort = ":" + port
	}

	cfg.Server = ServerConfig{
		Port:         serverPort,
		ReadTimeout:  v.GetDuration("server.read_timeout"),
		WriteTimeout: v.GetDuration("server.write_timeout"),
		Environment:  v.GetString("server.environment"),
	}
	cfg.DB = DBConfig{
		Host:            v.GetString("db.host"),
		Port:            v.GetInt("db.port"),
		User:            v.GetString("db.user"),
		Password:        v.GetString("db.password"),
		Name:            v.GetString("db.name"),
		SSLMode:         v.GetString("db.sslmode"),
		MaxOpen:         v.GetInt("db.max_open"),
		MaxIdle:         v.GetInt("db.max_idle"),
		ConnMaxLifetime: v.GetDuration("db.conn_max_lifetime"),
	}
	cfg.JWT = JWTConfig{
		Secret: v.GetString("jwt.secret"),
		Issuer: v.GetString("jwt.issuer"),
	}
	cfg.Log = LogConfig{
		Level:  v.GetString("log.level"),
		Format: v.GetString("log.format"),
	}
	cfg.CORS = CORSConfig{
		AllowedOrigins: splitList(v.GetString("cors.allowed_origins")),
	}

	billing, err := loadBilling(v)
	if err != nil {
		return nil, err
	}
	cfg.Billing = *billing

	fx, err := loadFX(v)
	if err != nil {
		return nil, err
	}
	cfg.FX = *fx

	return cfg, nil
}

func loadBilling(v *viper.Viper) (*BillingConfig, error) {
	var err error
	amount := func(key string) decimal.Decimal {
		if err != nil {
			return decimal.Zero
		}
		var d decimal.Decimal
		d, err = decimal.NewFromString(strings.TrimSpace(v.GetString(key)))
		if err != nil {
			err = fmt.Errorf("config %s: %w", key, err)
		}
		return d
	}

	cfg := &BillingConfig{
		DefaultRates: RateTableConfig{
			BaseRate:           amount("billing.base_rate"),
			AdditionalRate:     amount("billing.additional_rate"),
			CustomsDutyPercent: amount("billing.customs_duty_percent"),
			CustomsThreshold:   amount("billing.customs_threshold"),
			StorageFreeDays:    v.GetInt("billing.storage_free_days"),
			StorageDailyRate:   amount("billing.storage_daily_rate"),
			BaseCurrency:       strings.ToUpper(v.GetString("billing.base_currency")),
		},
		DefaultTaxPercent: amount("billing.default_tax_percent"),
		PaymentTermsDays:  v.GetInt("billing.payment_terms_days"),
		NumberAttempts:    v.GetInt("billing.number_attempts"),
		UpdateAttempts:    v.GetInt("billing.update_attempts"),
		DefaultCurrency:   strings.ToUpper(v.GetString("billing.default_currency")),
	}
	if err != nil {
		return nil, err
	}
	return cfg, nil
}

func loadFX(v *viper.Viper) (*FXConfig, error) {
	rates, err := ParseRates(v.GetString("fx.static_rates"))
	if err != nil {
		return nil, fmt.Errorf("config fx.static_rates: %w", err)
	}
	provider := strings.ToLower(v.GetString("fx.provider"))
	switch provider {
	case "static", "redis", "s3":
	default:
		return nil, fmt.Errorf("config fx.provider: unsupported provider %q", provider)
	}
	return &FXConfig{
		Provider:       provider,
		Base:           strings.ToUpper(v.GetString("fx.base")),
		StaticRates:    rates,
		RedisURL:       v.GetString("fx.redis_url"),
		RedisKey:       v.GetString("fx.redis_key"),
		S3Bucket:       v.GetString("fx.s3_bucket"),
		S3Key:          v.GetString("fx.s3_key"),
		S3Region:       v.GetString("fx.s3_region"),
		S3Endpoint:     v.GetString("fx.s3_endpoint"),
		S3AccessKey:    v.GetString("fx.s3_access_key"),
		S3SecretKey:    v.GetString("fx.s3_secret_key"),
		MaxSnapshotAge: v.GetDuration("fx.max_snapshot_age"),
	}, nil
}

// ParseRates parses a comma-separated CODE=rate list.
func ParseRates(s string) (map[string]decimal.Decimal, error) {
	rates := make(map[string]decimal.Decimal)
	for _, pair := range splitList(s) {
		code, raw, ok := strings.Cut(pair, "=")
		if !ok {
			return nil, fmt.Errorf("malformed rate %q, want CODE=rate", pair)
		}
		rate, err := decimal.NewFromString(strings.TrimSpace(raw))
		if err != nil {
			return nil, fmt.Errorf("rate for %s: %w", code, err)
		}
		rates[strings.ToUpper(strings.TrimSpace(code))] = rate
	}
	return rates, nil
}

func splitList(s string) []string {
	var out []string
	for _, item := range strings.Split(s, ",") {
		item = strings.TrimSpace(item)
		if item != "" {
			out = append(out, item)
		}
	}
	return out
}

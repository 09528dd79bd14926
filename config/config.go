package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net"
	"net/url"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	DefaultDivarCountURL = "https://api.divar.ir/v8/map-discovery/bbox/posts/count"
	DefaultRatesURL      = "https://api.tgju.org/v1/market/indicator/summary-table-data/price_dollar_rl" +
		"?lang=fa&order_dir=asc&start=0&length=600000&from=&to=&convert_to_ad=1"
)

// Config holds all application configuration loaded from environment variables.
// Database defaults are development placeholders; PGPASSWORD is never defaulted.
type Config struct {
	PostgresHost     string `validate:"required"`
	PostgresPort     string `validate:"required,numeric"`
	PostgresUser     string `validate:"required"`
	PostgresPassword string
	PostgresDB       string `validate:"required"`
	PostgresSSLMode  string `validate:"oneof=disable allow prefer require verify-ca verify-full"`
	DBConnectRetries int    `validate:"min=1"`

	DivarCountURL   string        `validate:"required,url"`
	RatesURL        string        `validate:"required,url"`
	HTTPTimeout     time.Duration `validate:"gt=0"`
	FetchMaxRetries int           `validate:"min=0"`

	CSVOutputPath string

	LogLevel  string `validate:"oneof=debug info warn error"`
	LogFormat string `validate:"oneof=text json"`
}

// Load reads the .env file (if any), applies defaults and environment
// overrides, and validates the result.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("config: read .env: %w", err)
	}

	v := newViper()
	cfg := &Config{
		PostgresHost:     v.GetString("PGHOST"),
		PostgresPort:     v.GetString("PGPORT"),
		PostgresUser:     v.GetString("PGUSER"),
		PostgresPassword: v.GetString("PGPASSWORD"),
		PostgresDB:       v.GetString("PGDATABASE"),
		PostgresSSLMode:  v.GetString("PGSSLMODE"),
		DBConnectRetries: v.GetInt("DB_CONNECT_RETRIES"),

		DivarCountURL:   v.GetString("DIVAR_COUNT_URL"),
		RatesURL:        v.GetString("TGJU_RATES_URL"),
		HTTPTimeout:     v.GetDuration("HTTP_TIMEOUT"),
		FetchMaxRetries: v.GetInt("FETCH_MAX_RETRIES"),

		CSVOutputPath: v.GetString("CSV_OUTPUT_PATH"),

		LogLevel:  v.GetString("LOG_LEVEL"),
		LogFormat: v.GetString("LOG_FORMAT"),
	}

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return cfg, nil
}

func newViper() *viper.Viper {
	v := viper.New()
	v.AutomaticEnv()

	v.SetDefault("PGHOST", "localhost")
	v.SetDefault("PGPORT", "5432")
	v.SetDefault("PGUSER", "postgres")
	v.SetDefault("PGPASSWORD", "")
	v.SetDefault("PGDATABASE", "bourse")
	v.SetDefault("PGSSLMODE", "disable")
	v.SetDefault("DB_CONNECT_RETRIES", 10)

	v.SetDefault("DIVAR_COUNT_URL", DefaultDivarCountURL)
	v.SetDefault("TGJU_RATES_URL", DefaultRatesURL)
	v.SetDefault("HTTP_TIMEOUT", 10*time.Second)
	v.SetDefault("FETCH_MAX_RETRIES", 0)

	v.SetDefault("CSV_OUTPUT_PATH", "")

	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "text")
	return v
}

// DSN returns the PostgreSQL connection string in URL form.
func (c *Config) DSN() string {
	u := url.URL{
		Scheme:   "postgres",
		Host:     net.JoinHostPort(c.PostgresHost, c.PostgresPort),
		Path:     "/" + c.PostgresDB,
		RawQuery: url.Values{"sslmode": {c.PostgresSSLMode}}.Encode(),
	}
	if c.PostgresPassword != "" {
		u.User = url.UserPassword(c.PostgresUser, c.PostgresPassword)
	} else {
		u.User = url.User(c.PostgresUser)
	}
	return u.String()
}

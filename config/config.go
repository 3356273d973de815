// Package config loads service configuration from the environment and an
// optional .env file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"golang.org/x/text/language"
)

const (
	BackendSQLite = "sqlite"
	BackendMemory = "memory"
)

// Config holds application configuration.
type Config struct {
	Port           int
	StoreBackend   string
	DBPath         string
	ChurchName     string
	LogLevel       string
	LogFormat      string
	EpochFloorYear int
	ReportLocale   string
	CurrencySymbol string
	CORSOrigins    []string
}

// Load reads configuration from environment variables. Values in the .env
// files (default ".env") fill in variables that are not already set; a
// missing file is not an error.
func Load(envFiles ...string) (*Config, error) {
	if err := godotenv.Load(envFiles...); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load env file: %w", err)
	}

	v := viper.New()
	v.SetDefault("PORT", 8080)
	v.SetDefault("STORE_BACKEND", BackendSQLite)
	v.SetDefault("DB_PATH", "treasury.db")
	v.SetDefault("CHURCH_NAME", "Iglesia")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "console")
	v.SetDefault("EPOCH_FLOOR_YEAR", 2000)
	v.SetDefault("REPORT_LOCALE", "es")
	v.SetDefault("CURRENCY_SYMBOL", "S/")
	v.SetDefault("CORS_ORIGINS", "http://localhost:5173,http://localhost:8080")
	v.AutomaticEnv()

	cfg := &Config{
		Port:           v.GetInt("PORT"),
		StoreBackend:   strings.ToLower(strings.TrimSpace(v.GetString("STORE_BACKEND"))),
		DBPath:         v.GetString("DB_PATH"),
		ChurchName:     strings.TrimSpace(v.GetString("CHURCH_NAME")),
		LogLevel:       v.GetString("LOG_LEVEL"),
		LogFormat:      v.GetString("LOG_FORMAT"),
		EpochFloorYear: v.GetInt("EPOCH_FLOOR_YEAR"),
		ReportLocale:   v.GetString("REPORT_LOCALE"),
		CurrencySymbol: v.GetString("CURRENCY_SYMBOL"),
		CORSOrigins:    splitList(v.GetString("CORS_ORIGINS")),
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate reports every invalid setting at once.
func (c *Config) Validate() error {
	var errs []error
	if c.Port < 1 || c.Port > 65535 {
		errs = append(errs, fmt.Errorf("PORT %d out of range", c.Port))
	}
	switch c.StoreBackend {
	case BackendSQLite:
		if c.DBPath == "" {
			errs = append(errs, errors.New("DB_PATH is required for the sqlite backend"))
		}
	case BackendMemory:
	default:
		errs = append(errs, fmt.Errorf("unknown STORE_BACKEND %q", c.StoreBackend))
	}
	if c.EpochFloorYear <= 0 {
		errs = append(errs, fmt.Errorf("EPOCH_FLOOR_YEAR %d must be positive", c.EpochFloorYear))
	}
	if _, err := language.Parse(c.ReportLocale); err != nil {
		errs = append(errs, fmt.Errorf("REPORT_LOCALE %q: %w", c.ReportLocale, err))
	}
	if c.ChurchName == "" {
		errs = append(errs, errors.New("CHURCH_NAME must not be empty"))
	}
	return errors.Join(errs...)
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

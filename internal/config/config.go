// Package config loads process configuration: built-in defaults, then an
// optional YAML file named by FUELDESK_CONFIG, then environment overrides.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Storage drivers.
const (
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

type HTTP struct {
	Port         string        `yaml:"port"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
	CORSOrigins  []string      `yaml:"cors_origins"`
}

type Database struct {
	DSN      string `yaml:"dsn"`
	MaxConns int32  `yaml:"max_conns"`
	MinConns int32  `yaml:"min_conns"`
}

type Storage struct {
	Driver string `yaml:"driver"`
}

type Log struct {
	Level       string `yaml:"level"`
	Development bool   `yaml:"development"`
}

type Auth struct {
	JWTSecret string        `yaml:"jwt_secret"`
	Issuer    string        `yaml:"issuer"`
	TokenTTL  time.Duration `yaml:"token_ttl"`
}

// Scheduler configures the batch triggers. Times are "15:04" in Timezone.
type Scheduler struct {
	Enabled          bool   `yaml:"enabled"`
	Embedded         bool   `yaml:"embedded"`
	Timezone         string `yaml:"timezone"`
	DailyAt          string `yaml:"daily_at"`
	MonthlyDay       int    `yaml:"monthly_day"`
	MonthlyAt        string `yaml:"monthly_at"`
	RecoverOnStartup bool   `yaml:"recover_on_startup"`
}

type Tickets struct {
	DefaultUnitCode string `yaml:"default_unit_code"`
}

type Inventory struct {
	// EvaporationRule is a CEL expression over `fuel` (the fuel type name).
	EvaporationRule string `yaml:"evaporation_rule"`
}

type Plates struct {
	Prefix   string `yaml:"prefix"`
	PadWidth int    `yaml:"pad_width"`
	Seed     int64  `yaml:"seed"`
}

type Audit struct {
	CompressThreshold int `yaml:"compress_threshold"`
}

// Config is the full process configuration.
type Config struct {
	Env       string    `yaml:"env"`
	HTTP      HTTP      `yaml:"http"`
	Database  Database  `yaml:"database"`
	Storage   Storage   `yaml:"storage"`
	Log       Log       `yaml:"log"`
	Auth      Auth      `yaml:"auth"`
	Scheduler Scheduler `yaml:"scheduler"`
	Tickets   Tickets   `yaml:"tickets"`
	Inventory Inventory `yaml:"inventory"`
	Plates    Plates    `yaml:"plates"`
	Audit     Audit     `yaml:"audit"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Env: "development",
		HTTP: HTTP{
			Port:         "8080",
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 30 * time.Second,
			CORSOrigins:  []string{"*"},
		},
		Database: Database{MaxConns: 25, MinConns: 5},
		Storage:  Storage{Driver: DriverPostgres},
		Log:      Log{Level: "info", Development: true},
		Auth: Auth{
			Issuer:   "fueldesk",
			TokenTTL: 8 * time.Hour,
		},
		Scheduler: Scheduler{
			Enabled:          true,
			Timezone:         "America/Caracas",
			DailyAt:          "00:05",
			MonthlyDay:       1,
			MonthlyAt:        "00:10",
			RecoverOnStartup: true,
		},
		Tickets: Tickets{DefaultUnitCode: "000"},
		Plates:  Plates{Prefix: "SPMB", PadWidth: 4, Seed: 53},
		Audit:   Audit{CompressThreshold: 4 * 1024},
	}
}

// Load builds the configuration from defaults, FUELDESK_CONFIG and the environment.
func Load() (Config, error) {
	cfg := Default()

	if path := os.Getenv("FUELDESK_CONFIG"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parse config: %w", err)
		}
	}

	applyEnv(&cfg)

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config) {
	cfg.Env = getenvDefault("APP_ENV", cfg.Env)
	cfg.HTTP.Port = getenvDefault("APP_PORT", cfg.HTTP.Port)
	if origins := splitCSV(os.Getenv("CORS_ORIGINS")); len(origins) > 0 {
		cfg.HTTP.CORSOrigins = origins
	}
	cfg.Database.DSN = getenvDefault("DATABASE_URL", cfg.Database.DSN)
	cfg.Database.MaxConns = int32(getenvIntDefault("DATABASE_MAX_CONNS", int(cfg.Database.MaxConns)))
	cfg.Storage.Driver = strings.ToLower(getenvDefault("STORAGE_DRIVER", cfg.Storage.Driver))
	cfg.Log.Level = getenvDefault("LOG_LEVEL", cfg.Log.Level)
	if _, ok := os.LookupEnv("APP_ENV"); ok {
		cfg.Log.Development = cfg.Env == "development"
	}
	cfg.Auth.JWTSecret = getenvDefault("JWT_SECRET", cfg.Auth.JWTSecret)
	cfg.Scheduler.Timezone = getenvDefault("SCHEDULER_TIMEZONE", cfg.Scheduler.Timezone)
	if v, ok := os.LookupEnv("SCHEDULER_ENABLED"); ok {
		cfg.Scheduler.Enabled = parseBool(v, cfg.Scheduler.Enabled)
	}
	if v, ok := os.LookupEnv("SCHEDULER_EMBEDDED"); ok {
		cfg.Scheduler.Embedded = parseBool(v, cfg.Scheduler.Embedded)
	}
}

// Validate checks values that would otherwise fail late.
func (c Config) Validate() error {
	var errs []error
	switch c.Storage.Driver {
	case DriverPostgres:
		if c.Database.DSN == "" {
			errs = append(errs, errors.New("database.dsn (DATABASE_URL) is required for the postgres driver"))
		}
	case DriverMemory:
	default:
		errs = append(errs, fmt.Errorf("unknown storage driver %q", c.Storage.Driver))
	}
	if c.Auth.JWTSecret == "" {
		errs = append(errs, errors.New("auth.jwt_secret (JWT_SECRET) is required"))
	}
	if _, err := c.Location(); err != nil {
		errs = append(errs, fmt.Errorf("scheduler.timezone: %w", err))
	}
	if c.HTTP.Port == "" {
		errs = append(errs, errors.New("http.port is required"))
	}
	return errors.Join(errs...)
}

// Location resolves the scheduler timezone. Periods and day boundaries use it too.
func (c Config) Location() (*time.Location, error) {
	if c.Scheduler.Timezone == "" {
		return time.UTC, nil
	}
	return time.LoadLocation(c.Scheduler.Timezone)
}

func getenvDefault(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getenvIntDefault(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func parseBool(value string, fallback bool) bool {
	parsed, err := strconv.ParseBool(strings.TrimSpace(value))
	if err != nil {
		return fallback
	}
	return parsed
}

func splitCSV(value string) []string {
	if value == "" {
		return nil
	}
	var result []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			result = append(result, part)
		}
	}
	return result
}

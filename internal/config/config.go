// Package config reads the process configuration from the environment,
// after loading an optional .env file.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"

	"staffquote/internal/holidays"
)

const (
	envAddr               = "STAFFQUOTE_ADDR"
	envDevMode            = "DEV_MODE"
	envProductionMode     = "PRODUCTION_MODE"
	envCORSAllowedOrigins = "STAFFQUOTE_CORS_ALLOWED_ORIGINS"
	envStorage            = "STAFFQUOTE_STORAGE"
	envDataFile           = "STAFFQUOTE_DATA_FILE"
	envDBPath             = "STAFFQUOTE_DB_PATH"
	envHolidays           = "STAFFQUOTE_HOLIDAYS"
	envHoursPerDay        = "STAFFQUOTE_HOURS_PER_DAY"
	envResyncSchedule     = "STAFFQUOTE_RESYNC_SCHEDULE"
	envLogLevel           = "LOG_LEVEL"
	envLogPretty          = "LOG_PRETTY"
)

type RuntimeMode string

const (
	RuntimeModeDevelopment RuntimeMode = "development"
	RuntimeModeProduction  RuntimeMode = "production"
)

func (m RuntimeMode) IsDevelopment() bool {
	return m == RuntimeModeDevelopment
}

func (m RuntimeMode) IsProduction() bool {
	return m == RuntimeModeProduction
}

type Storage string

const (
	StorageFile   Storage = "file"
	StorageSQLite Storage = "sqlite"
)

type Config struct {
	Mode               RuntimeMode
	Addr               string
	CORSAllowedOrigins []string
	AllowAnyCORSOrigin bool

	Storage  Storage
	DataFile string
	DBPath   string

	// Holidays is a jurisdiction code such as BR or BR-SP; empty disables
	// holidays altogether.
	Holidays    string
	HoursPerDay float64

	// ResyncSchedule is a standard five-field cron expression; empty
	// disables the calendar resync job.
	ResyncSchedule string

	LogLevel  string
	LogPretty bool
}

// Load reads .env (when present) and then the environment.
func Load() (Config, error) {
	_ = godotenv.Load()
	return FromEnv()
}

// FromEnv builds a Config from the current environment only.
func FromEnv() (Config, error) {
	mode, err := runtimeModeFromEnv()
	if err != nil {
		return Config{}, err
	}
	origins, allowAny, err := corsFromEnv(mode)
	if err != nil {
		return Config{}, err
	}
	logPretty, _, err := parseOptionalBoolEnv(envLogPretty)
	if err != nil {
		return Config{}, err
	}

	cfg := Config{
		Mode:               mode,
		Addr:               getEnv(envAddr, DefaultListenAddr(mode)),
		CORSAllowedOrigins: origins,
		AllowAnyCORSOrigin: allowAny,
		Storage:            Storage(strings.ToLower(getEnv(envStorage, string(StorageFile)))),
		DataFile:           getEnv(envDataFile, "./staffquote_data.json"),
		DBPath:             getEnv(envDBPath, "./data/staffquote.db"),
		Holidays:           "BR",
		HoursPerDay:        8,
		ResyncSchedule:     strings.TrimSpace(os.Getenv(envResyncSchedule)),
		LogLevel:           getEnv(envLogLevel, "info"),
		LogPretty:          logPretty || mode.IsDevelopment(),
	}
	if raw, ok := os.LookupEnv(envHolidays); ok {
		cfg.Holidays = strings.TrimSpace(raw)
	}
	if raw := strings.TrimSpace(os.Getenv(envHoursPerDay)); raw != "" {
		cfg.HoursPerDay, err = strconv.ParseFloat(raw, 64)
		if err != nil {
			return Config{}, fmt.Errorf("%s must be a number: %w", envHoursPerDay, err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	switch c.Storage {
	case StorageFile, StorageSQLite:
	default:
		return fmt.Errorf("%s must be %q or %q, got %q", envStorage, StorageFile, StorageSQLite, c.Storage)
	}
	if c.HoursPerDay <= 0 || c.HoursPerDay > 24 {
		return fmt.Errorf("%s must be in (0, 24], got %v", envHoursPerDay, c.HoursPerDay)
	}
	if c.Holidays != "" {
		if _, err := holidays.For(c.Holidays); err != nil {
			return fmt.Errorf("%s must be one of %s, got %q", envHolidays, strings.Join(holidays.Codes(), ", "), c.Holidays)
		}
	}
	if c.ResyncSchedule != "" {
		if _, err := cron.ParseStandard(c.ResyncSchedule); err != nil {
			return fmt.Errorf("%s is not a valid cron expression: %w", envResyncSchedule, err)
		}
	}
	return nil
}

func DefaultListenAddr(mode RuntimeMode) string {
	if mode.IsDevelopment() {
		return "127.0.0.1:8070"
	}
	return ":8070"
}

// corsFromEnv applies the mode rules: production never allows a wildcard,
// development falls back to any origin when no allowlist is given.
func corsFromEnv(mode RuntimeMode) ([]string, bool, error) {
	allowedOrigins := parseCSV(os.Getenv(envCORSAllowedOrigins))
	wildcard := false
	for _, origin := range allowedOrigins {
		if origin == "*" {
			wildcard = true
		}
	}

	if mode.IsProduction() {
		if wildcard {
			return nil, false, fmt.Errorf("%s cannot include wildcard origin in production mode", envCORSAllowedOrigins)
		}
		return allowedOrigins, false, nil
	}
	if len(allowedOrigins) == 0 || wildcard {
		return []string{"*"}, true, nil
	}
	return allowedOrigins, false, nil
}

func runtimeModeFromEnv() (RuntimeMode, error) {
	devMode, _, err := parseOptionalBoolEnv(envDevMode)
	if err != nil {
		return "", err
	}
	productionMode, _, err := parseOptionalBoolEnv(envProductionMode)
	if err != nil {
		return "", err
	}
	if devMode && productionMode {
		return "", fmt.Errorf("%s and %s cannot both be true", envDevMode, envProductionMode)
	}
	if devMode {
		return RuntimeModeDevelopment, nil
	}
	return RuntimeModeProduction, nil
}

func getEnv(key, fallback string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return fallback
}

func parseOptionalBoolEnv(key string) (value bool, set bool, err error) {
	rawValue, exists := os.LookupEnv(key)
	if !exists {
		return false, false, nil
	}
	trimmedValue := strings.TrimSpace(rawValue)
	if trimmedValue == "" {
		return false, false, nil
	}
	parsedValue, parseErr := strconv.ParseBool(trimmedValue)
	if parseErr != nil {
		return false, true, fmt.Errorf("%s must be a boolean value: %w", key, parseErr)
	}
	return parsedValue, true, nil
}

func parseCSV(rawValue string) []string {
	parts := strings.Split(rawValue, ",")
	values := make([]string, 0, len(parts))
	seen := map[string]struct{}{}
	for _, part := range parts {
		trimmedPart := strings.TrimSpace(part)
		if trimmedPart == "" {
			continue
		}
		if _, exists := seen[trimmedPart]; exists {
			continue
		}
		seen[trimmedPart] = struct{}{}
		values = append(values, trimmedPart)
	}
	return values
}

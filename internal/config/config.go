package config

import (
	"fmt"
	"log"
	"log/slog"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

type AppConfig struct {
	Port   string `envconfig:"PORT" default:"8080" validate:"required,numeric"`
	AppEnv string `envconfig:"APP_ENV" default:"production" validate:"oneof=development production"`

	LogLevel string `envconfig:"LOG_LEVEL" default:"info" validate:"oneof=debug info warn error"`

	// ARSO endpoints.
	APIURL       string `envconfig:"ARSO_API_URL" default:"https://vreme.arso.gov.si/api/1.0/location/" validate:"required,url"`
	LocationsURL string `envconfig:"ARSO_LOCATIONS_URL" default:"https://vreme.arso.gov.si/api/1.0/locations/" validate:"required,url"`

	HTTPTimeout time.Duration `envconfig:"HTTP_TIMEOUT" default:"10s" validate:"gt=0"`

	// ScanInterval controls how often every entity is polled.
	ScanInterval time.Duration `envconfig:"SCAN_INTERVAL" default:"30m" validate:"gte=1m"`

	// MinUpdateInterval throttles manual refreshes of a single entity.
	MinUpdateInterval time.Duration `envconfig:"MIN_UPDATE_INTERVAL" default:"5m" validate:"gte=0"`

	// Locations declared statically, in addition to setup entries.
	WeatherLocations []string `envconfig:"WEATHER_LOCATIONS"`
	SensorLocations  []string `envconfig:"SENSOR_LOCATIONS"`

	// WeatherMode is the horizon preference for statically declared weather entities.
	WeatherMode string `envconfig:"WEATHER_MODE" default:"observation" validate:"oneof=observation snapshot"`

	DatabasePath string `envconfig:"DATABASE_PATH" default:"data/arso.db" validate:"required"`
}

// Load reads configuration from the environment (and an optional .env file)
// with sensible defaults.
func Load() (*AppConfig, error) {
	if err := godotenv.Load(); err != nil {
		log.Printf("INFO: No .env file found or error loading it: %v", err)
	}

	cfg := &AppConfig{}
	if err := envconfig.Process("", cfg); err != nil {
		return nil, fmt.Errorf("invalid environment: %w", err)
	}

	cfg.WeatherLocations = cleanList(cfg.WeatherLocations)
	cfg.SensorLocations = cleanList(cfg.SensorLocations)

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// SlogLevel maps LogLevel onto slog.
func (c *AppConfig) SlogLevel() slog.Level {
	switch c.LogLevel {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func cleanList(items []string) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

package config

import (
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	t.Run("DefaultValues", func(t *testing.T) {
		cfg, err := Load()
		require.NoError(t, err)

		assert.Equal(t, "8080", cfg.Port)
		assert.Equal(t, "https://vreme.arso.gov.si/api/1.0/location/", cfg.APIURL)
		assert.Equal(t, "https://vreme.arso.gov.si/api/1.0/locations/", cfg.LocationsURL)
		assert.Equal(t, 30*time.Minute, cfg.ScanInterval)
		assert.Equal(t, 5*time.Minute, cfg.MinUpdateInterval)
		assert.Equal(t, 10*time.Second, cfg.HTTPTimeout)
		assert.Equal(t, "observation", cfg.WeatherMode)
		assert.Empty(t, cfg.WeatherLocations)
		assert.Empty(t, cfg.SensorLocations)
		assert.Equal(t, slog.LevelInfo, cfg.SlogLevel())
	})

	t.Run("CustomValues", func(t *testing.T) {
		t.Setenv("PORT", "9090")
		t.Setenv("SCAN_INTERVAL", "15m")
		t.Setenv("WEATHER_MODE", "snapshot")
		t.Setenv("WEATHER_LOCATIONS", "Ljubljana, Maribor ,")
		t.Setenv("SENSOR_LOCATIONS", "Murska Sobota")
		t.Setenv("LOG_LEVEL", "debug")
		t.Setenv("APP_ENV", "development")

		cfg, err := Load()
		require.NoError(t, err)

		assert.Equal(t, "9090", cfg.Port)
		assert.Equal(t, 15*time.Minute, cfg.ScanInterval)
		assert.Equal(t, "snapshot", cfg.WeatherMode)
		assert.Equal(t, []string{"Ljubljana", "Maribor"}, cfg.WeatherLocations)
		assert.Equal(t, []string{"Murska Sobota"}, cfg.SensorLocations)
		assert.Equal(t, slog.LevelDebug, cfg.SlogLevel())
		assert.Equal(t, "development", cfg.AppEnv)
	})

	t.Run("InvalidMode", func(t *testing.T) {
		t.Setenv("WEATHER_MODE", "hourly")

		cfg, err := Load()
		assert.Error(t, err)
		assert.Nil(t, cfg)
		assert.Contains(t, err.Error(), "WeatherMode")
	})

	t.Run("ScanIntervalTooShort", func(t *testing.T) {
		t.Setenv("SCAN_INTERVAL", "10s")

		_, err := Load()
		assert.Error(t, err)
	})

	t.Run("MalformedDuration", func(t *testing.T) {
		t.Setenv("HTTP_TIMEOUT", "soon")

		_, err := Load()
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "invalid environment")
	})
}

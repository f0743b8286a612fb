package logging

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/i474232898/arso-weather-bridge/internal/config"
)

func TestNew_ProductionWritesJSON(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&buf, &config.AppConfig{AppEnv: "production", LogLevel: "info"}, "arso-weather-bridge")

	logger.Debug("hidden")
	logger.Info("entity registered", "entity_id", "weather.arso_weather_bled")

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "entity registered", line["msg"])
	assert.Equal(t, "arso-weather-bridge", line["app"])
	assert.Equal(t, "production", line["env"])
	assert.Equal(t, "weather.arso_weather_bled", line["entity_id"])
}

func TestNew_DevelopmentUsesTint(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&buf, &config.AppConfig{AppEnv: "development", LogLevel: "debug"}, "arso-weather-bridge")

	logger.Debug("normalized reading")

	out := buf.String()
	assert.Contains(t, out, "normalized reading")
	assert.Contains(t, out, "arso-weather-bridge")
	assert.False(t, json.Valid(buf.Bytes()))
}

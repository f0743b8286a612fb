package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/i474232898/arso-weather-bridge/internal/weather"
)

func TestMemoryStore_SaveOverwrites(t *testing.T) {
	s := NewMemoryStore()

	s.Save(weather.EntityState{EntityID: "weather.arso_weather_celje", State: "Jasno"})
	s.Save(weather.EntityState{EntityID: "weather.arso_weather_celje", State: weather.StateUnknown})

	got, err := s.Get("weather.arso_weather_celje")
	require.NoError(t, err)
	assert.Equal(t, weather.StateUnknown, got.State)
}

func TestMemoryStore_GetMissing(t *testing.T) {
	s := NewMemoryStore()

	_, err := s.Get("sensor.nothing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStore_ListAndDelete(t *testing.T) {
	s := NewMemoryStore()
	s.Save(weather.EntityState{EntityID: "weather.b"})
	s.Save(weather.EntityState{EntityID: "sensor.a"})
	s.Save(weather.EntityState{EntityID: "weather.a"})

	list := s.List()
	require.Len(t, list, 3)
	assert.Equal(t, "sensor.a", list[0].EntityID)
	assert.Equal(t, "weather.a", list[1].EntityID)
	assert.Equal(t, "weather.b", list[2].EntityID)

	s.Delete("weather.a")
	s.Delete("weather.unknown")
	assert.Len(t, s.List(), 2)
}

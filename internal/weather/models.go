package weather

import (
	"time"
)

// Horizon names one section of the ARSO location document.
type Horizon string

const (
	HorizonObservation Horizon = "observation"
	Horizon3h          Horizon = "forecast3h"
	Horizon24h         Horizon = "forecast24h"
)

// Document is the raw payload returned by the ARSO location endpoint.
// Every section is optional; a nil section means the key was absent.
type Document struct {
	Observation *Section `json:"observation,omitempty"`
	Forecast3h  *Section `json:"forecast3h,omitempty"`
	Forecast24h *Section `json:"forecast24h,omitempty"`
}

// Section returns the section stored under the given horizon, or nil.
func (d *Document) Section(h Horizon) *Section {
	if d == nil {
		return nil
	}
	switch h {
	case HorizonObservation:
		return d.Observation
	case Horizon3h:
		return d.Forecast3h
	case Horizon24h:
		return d.Forecast24h
	default:
		return nil
	}
}

type Section struct {
	Features []Feature `json:"features"`
}

type Feature struct {
	Properties Properties `json:"properties"`
}

// Properties holds the per-feature payload. Days is nil when the "days"
// key is missing, which callers treat the same as an absent section.
type Properties struct {
	Days []Day `json:"days"`
}

type Day struct {
	Date     string      `json:"date"`
	Timeline []TimeSlice `json:"timeline"`
}

// TimeSlice is one timeline record. Values are kept as decoded JSON
// (float64, string, nil, ...) and coerced field by field.
type TimeSlice map[string]any

// Days returns the day list of the first feature, or nil.
func (s *Section) Days() []Day {
	if s == nil || len(s.Features) == 0 {
		return nil
	}
	return s.Features[0].Properties.Days
}

// Source keys inside a TimeSlice.
const (
	KeyTemperature   = "t"
	KeyPressure      = "msl"
	KeyHumidity      = "rh"
	KeyWindSpeed     = "ff_val"
	KeyWindDirection = "dd_shortText"
	KeyPrecipitation = "tp_acc"
	KeyClouds        = "clouds_shortText"
	KeyDescription   = "nn_shortText"
	KeyIcon          = "nn_icon"
	KeyValid         = "valid"
)

// Reading is the normalized view of a single time slice. A nil field
// means the value was absent or could not be coerced.
type Reading struct {
	Temperature   *float64   `json:"temperature"`
	Pressure      *float64   `json:"pressure"`
	Humidity      *float64   `json:"humidity"`
	WindSpeed     *float64   `json:"wind_speed"`
	WindBearing   *string    `json:"wind_bearing"`
	Precipitation *float64   `json:"precipitation"`
	Condition     *string    `json:"condition"`
	Timestamp     *time.Time `json:"last_updated"`
	Horizon       Horizon    `json:"horizon,omitempty"`
}

// Units published alongside every weather entity.
const (
	UnitTemperature   = "°C"
	UnitPressure      = "hPa"
	UnitWindSpeed     = "km/h"
	UnitPrecipitation = "mm"
)

// Attribution is attached to weather entity attributes.
const Attribution = "Data provided by Agencija Republike Slovenije za okolje"

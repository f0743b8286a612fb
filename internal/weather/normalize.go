package weather

import (
	"log/slog"
	"time"
)

// HorizonPreference is an ordered list of document sections tried in turn
// when looking for the time slice to publish.
type HorizonPreference struct {
	Name     string
	Horizons []Horizon

	// ConditionDefault replaces a missing cloud description. Nil keeps it absent.
	ConditionDefault *string
}

var (
	// PreferenceSnapshot takes the latest 24h forecast slice and falls back to the 3h one.
	PreferenceSnapshot = HorizonPreference{
		Name:     "snapshot",
		Horizons: []Horizon{Horizon24h, Horizon3h},
	}

	// PreferenceObservation only looks at measured observations.
	PreferenceObservation = HorizonPreference{
		Name:             "observation",
		Horizons:         []Horizon{HorizonObservation},
		ConditionDefault: ptr("Unknown"),
	}
)

// PreferenceByName resolves a configured mode name.
func PreferenceByName(name string) (HorizonPreference, bool) {
	switch name {
	case PreferenceSnapshot.Name:
		return PreferenceSnapshot, true
	case PreferenceObservation.Name:
		return PreferenceObservation, true
	default:
		return HorizonPreference{}, false
	}
}

// extractor picks a time slice out of a section.
type extractor func(*Section) (TimeSlice, bool)

type source struct {
	horizon Horizon
	extract extractor
}

func (p HorizonPreference) sources() []source {
	out := make([]source, 0, len(p.Horizons))
	for _, h := range p.Horizons {
		out = append(out, source{horizon: h, extract: lastSliceOfFirstDay})
	}
	return out
}

func lastSliceOfFirstDay(s *Section) (TimeSlice, bool) {
	days := s.Days()
	if len(days) == 0 {
		return nil, false
	}
	timeline := days[0].Timeline
	if len(timeline) == 0 {
		return nil, false
	}
	return timeline[len(timeline)-1], true
}

// Normalizer turns raw ARSO documents into Readings.
type Normalizer struct {
	logger        *slog.Logger
	now           func() time.Time
	onCastFailure func(key string)
}

type NormalizerOption func(*Normalizer)

// WithClock overrides the wall clock used for reading timestamps.
func WithClock(now func() time.Time) NormalizerOption {
	return func(n *Normalizer) { n.now = now }
}

// WithCastFailureHook registers a callback invoked for every field that was
// present but could not be coerced.
func WithCastFailureHook(fn func(key string)) NormalizerOption {
	return func(n *Normalizer) { n.onCastFailure = fn }
}

func NewNormalizer(logger *slog.Logger, opts ...NormalizerOption) *Normalizer {
	if logger == nil {
		logger = slog.Default()
	}
	n := &Normalizer{
		logger: logger,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// Normalize selects the best time slice according to pref and coerces it.
// When no slice is usable it returns a zero Reading and false; callers publish
// that zero value as is so no field from a previous poll survives.
func (n *Normalizer) Normalize(doc *Document, pref HorizonPreference) (Reading, bool) {
	slice, horizon, ok := n.selectSlice(doc, pref)
	if !ok {
		n.logger.Debug("no usable time slice", "preference", pref.Name)
		return Reading{}, false
	}

	r := Reading{Horizon: horizon}
	r.Temperature = coerce(n, slice, KeyTemperature, ToFloat, nil)
	r.Pressure = coerce(n, slice, KeyPressure, ToFloat, nil)
	r.Humidity = coerce(n, slice, KeyHumidity, ToFloat, nil)
	r.WindSpeed = coerce(n, slice, KeyWindSpeed, ToFloat, nil)
	r.Precipitation = coerce(n, slice, KeyPrecipitation, ToFloat, nil)
	r.Condition = coerce(n, slice, KeyClouds, ToText, pref.ConditionDefault)

	if code := coerce(n, slice, KeyWindDirection, ToText, nil); code != nil {
		r.WindBearing = ptr(TranslateWindDirection(*code))
	}

	ts := n.now()
	r.Timestamp = &ts

	n.logger.Debug("normalized reading",
		"horizon", horizon,
		"temperature", r.Temperature,
		"condition", r.Condition,
	)
	return r, true
}

func (n *Normalizer) selectSlice(doc *Document, pref HorizonPreference) (TimeSlice, Horizon, bool) {
	for _, src := range pref.sources() {
		section := doc.Section(src.horizon)
		if section == nil {
			continue
		}
		if slice, ok := src.extract(section); ok {
			return slice, src.horizon, true
		}
		n.logger.Debug("section has no usable time slice", "horizon", src.horizon)
	}
	return nil, "", false
}

func coerce[T any](n *Normalizer, slice TimeSlice, key string, cast Caster[T], def *T) *T {
	raw := slice[key]
	v, ok := SafeCast(raw, cast, def)
	if !ok {
		n.logger.Debug("failed to cast field", "key", key, "value", raw)
		if n.onCastFailure != nil {
			n.onCastFailure(key)
		}
	}
	return v
}

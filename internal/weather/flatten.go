package weather

import (
	"fmt"
	"log/slog"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Sub-field names emitted for every forecast slot.
const (
	FieldTemperature   = "Temperature (°C)"
	FieldHumidity      = "Humidity (%)"
	FieldPressure      = "Pressure (hPa)"
	FieldWindSpeed     = "Wind Speed (km/h)"
	FieldWindDirection = "Wind Direction"
	FieldClouds        = "Clouds"
	FieldDescription   = "Weather Description"
	FieldPrecipitation = "Precipitation (mm)"
	FieldIcon          = "Weather Icon"
	FieldCloudsIcon    = "Clouds and Weather Icon"
)

// ForecastGroup holds the fields of one day+hour slot.
type ForecastGroup struct {
	Label  string
	Fields map[string]any
}

// Flattened is the wide sensor view of the 3h forecast.
type Flattened struct {
	Headline string
	Current  map[string]any
	Groups   []ForecastGroup
}

// Attributes merges the current values and every slot group into one flat
// map keyed "<label> <field>".
func (f Flattened) Attributes() map[string]any {
	out := make(map[string]any, len(f.Current)+len(f.Groups)*10)
	for k, v := range f.Current {
		out[k] = v
	}
	for _, g := range f.Groups {
		for k, v := range g.Fields {
			out[g.Label+" "+k] = v
		}
	}
	return out
}

// Flatten expands every day and slot of the forecast3h section. It returns
// false when the section is missing or has no slots at all.
func Flatten(doc *Document, logger *slog.Logger) (Flattened, bool) {
	if logger == nil {
		logger = slog.Default()
	}
	days := doc.Section(Horizon3h).Days()
	if len(days) == 0 || len(days[0].Timeline) == 0 {
		return Flattened{}, false
	}

	first := days[0].Timeline[0]
	clouds := textOr(first[KeyClouds], "")
	f := Flattened{
		Headline: headline(clouds, textOr(first[KeyTemperature], "")),
		Current: map[string]any{
			"Temperature":    first[KeyTemperature],
			"Humidity":       first[KeyHumidity],
			"Pressure":       first[KeyPressure],
			"Wind Speed":     first[KeyWindSpeed],
			"Wind Direction": first[KeyWindDirection],
			"Clouds":         clouds,
		},
	}

	for _, day := range days {
		for _, slot := range day.Timeline {
			valid := textOr(slot[KeyValid], "")
			if len(valid) < 13 {
				logger.Debug("skipping slot with malformed validity", "date", day.Date, "valid", valid)
				continue
			}
			f.Groups = append(f.Groups, ForecastGroup{
				Label:  fmt.Sprintf("%s %s:00", day.Date, valid[11:13]),
				Fields: slotFields(slot),
			})
		}
	}
	return f, true
}

func slotFields(slot TimeSlice) map[string]any {
	clouds := textOr(slot[KeyClouds], "")
	icon := textOr(slot[KeyIcon], "")

	precip := any(0)
	if v, ok := slot[KeyPrecipitation]; ok && v != nil {
		precip = v
	}

	return map[string]any{
		FieldTemperature:   slot[KeyTemperature],
		FieldHumidity:      slot[KeyHumidity],
		FieldPressure:      slot[KeyPressure],
		FieldWindSpeed:     slot[KeyWindSpeed],
		FieldWindDirection: slot[KeyWindDirection],
		FieldClouds:        clouds,
		FieldDescription:   textOr(slot[KeyDescription], ""),
		FieldPrecipitation: precip,
		FieldIcon:          icon,
		FieldCloudsIcon:    clouds + " " + icon,
	}
}

func textOr(raw any, def string) string {
	v, _ := SafeCast(raw, ToText, &def)
	return *v
}

func headline(clouds, temperature string) string {
	c := capitalize(clouds)
	if temperature == "" {
		return c
	}
	return fmt.Sprintf("%s, %s°C", c, temperature)
}

// capitalize upper-cases the first rune and lower-cases the rest.
func capitalize(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(r)) + strings.ToLower(s[size:])
}

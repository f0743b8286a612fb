package weather

import (
	"fmt"
	"strings"
	"time"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Kind is the flavour of an entity.
type Kind string

const (
	// KindWeather publishes a normalized Reading.
	KindWeather Kind = "weather"
	// KindSensor publishes the flattened 3h forecast.
	KindSensor Kind = "sensor"
)

// StateUnknown is published when an entity has no data.
const StateUnknown = "unknown"

const namePrefix = "ARSO Weather"

// Entity is one published object bound to an ARSO location.
type Entity struct {
	ID         string
	Name       string
	Kind       Kind
	Location   string
	Preference HorizonPreference

	// EntryID links the entity to the setup entry that created it. Empty for
	// entities declared in static configuration.
	EntryID string
}

// NewEntity builds an entity with a stable ID and display name. Weather
// entities on a preference other than observation get the preference name as
// an ID suffix, so one location can be published in both modes.
func NewEntity(kind Kind, location string, pref HorizonPreference, entryID string) Entity {
	id := fmt.Sprintf("%s.arso_weather_%s", kind, Slug(location))
	if kind == KindWeather && pref.Name != "" && pref.Name != PreferenceObservation.Name {
		id += "_" + Slug(pref.Name)
	}
	return Entity{
		ID:         id,
		Name:       fmt.Sprintf("%s %s", namePrefix, location),
		Kind:       kind,
		Location:   location,
		Preference: pref,
		EntryID:    entryID,
	}
}

// Entry is a persisted setup choice.
type Entry struct {
	ID        string    `json:"id"`
	Location  string    `json:"location"`
	Mode      string    `json:"mode"`
	CreatedAt time.Time `json:"created_at"`
}

// Title is what the setup flow shows for an entry.
func (e Entry) Title() string {
	return e.Location
}

// Entities returns the entities a setup entry registers.
func (e Entry) Entities() []Entity {
	pref, ok := PreferenceByName(e.Mode)
	if !ok {
		pref = PreferenceObservation
	}
	return []Entity{NewEntity(KindWeather, e.Location, pref, e.ID)}
}

// EntityState is the published value of an entity after an update cycle.
type EntityState struct {
	EntityID   string         `json:"entity_id"`
	Name       string         `json:"name"`
	Kind       Kind           `json:"kind"`
	Location   string         `json:"location"`
	State      any            `json:"state"`
	Attributes map[string]any `json:"attributes"`
	Reading    *Reading       `json:"reading,omitempty"`
	UpdatedAt  time.Time      `json:"updated_at"`
}

// Available reports whether the last update produced data.
func (s EntityState) Available() bool {
	return s.State != StateUnknown
}

func unknownState(e Entity, at time.Time) EntityState {
	return EntityState{
		EntityID:   e.ID,
		Name:       e.Name,
		Kind:       e.Kind,
		Location:   e.Location,
		State:      StateUnknown,
		Attributes: map[string]any{},
		UpdatedAt:  at,
	}
}

// Slug folds a location name into an identifier: "Murska Sobota" becomes
// "murska_sobota", "Črnomelj" becomes "crnomelj".
func Slug(s string) string {
	fold := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(fold, s)
	if err != nil {
		folded = s
	}
	var b strings.Builder
	underscore := false
	for _, r := range strings.ToLower(folded) {
		if r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)) {
			b.WriteRune(r)
			underscore = false
			continue
		}
		if !underscore && b.Len() > 0 {
			b.WriteByte('_')
			underscore = true
		}
	}
	return strings.TrimSuffix(b.String(), "_")
}

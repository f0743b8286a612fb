package weather

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/i474232898/arso-weather-bridge/internal/metrics"
)

var (
	// ErrUnknownEntity is returned for IDs that were never registered.
	ErrUnknownEntity = errors.New("unknown entity")
	// ErrEntityExists is returned when an entry would publish an entity ID
	// that is already registered.
	ErrEntityExists = errors.New("entity already registered")
)

// Service owns the registered entities and runs their update cycles.
type Service struct {
	store      Store
	fetcher    DocumentFetcher
	resolver   LocationResolver
	normalizer *Normalizer
	metrics    *metrics.Collector
	logger     *slog.Logger

	minInterval time.Duration
	now         func() time.Time

	mu         sync.Mutex
	order      []string
	entities   map[string]Entity
	lastUpdate map[string]time.Time
	inFlight   map[string]bool
}

type ServiceOption func(*Service)

func WithLogger(l *slog.Logger) ServiceOption {
	return func(s *Service) { s.logger = l }
}

func WithMetrics(m *metrics.Collector) ServiceOption {
	return func(s *Service) { s.metrics = m }
}

// WithMinUpdateInterval sets the throttle window between two updates of the
// same entity.
func WithMinUpdateInterval(d time.Duration) ServiceOption {
	return func(s *Service) { s.minInterval = d }
}

func WithServiceClock(now func() time.Time) ServiceOption {
	return func(s *Service) { s.now = now }
}

// NewService creates a new Service.
func NewService(store Store, fetcher DocumentFetcher, resolver LocationResolver, opts ...ServiceOption) *Service {
	s := &Service{
		store:      store,
		fetcher:    fetcher,
		resolver:   resolver,
		logger:     slog.Default(),
		now:        time.Now,
		entities:   make(map[string]Entity),
		lastUpdate: make(map[string]time.Time),
		inFlight:   make(map[string]bool),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.normalizer = NewNormalizer(s.logger,
		WithClock(s.now),
		WithCastFailureHook(s.metrics.RecordCastFailure),
	)
	return s
}

// Register adds entities and publishes an unknown state for each. An
// entity that is already registered is left untouched.
func (s *Service) Register(entities ...Entity) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, e := range entities {
		if _, ok := s.entities[e.ID]; ok {
			s.logger.Debug("entity already registered", "entity_id", e.ID)
			continue
		}
		s.entities[e.ID] = e
		s.order = append(s.order, e.ID)
		s.store.Save(unknownState(e, s.now()))
		s.logger.Info("entity registered", "entity_id", e.ID, "location", e.Location)
	}
}

// AddEntry registers the entities belonging to a setup entry. Nothing is
// registered if any of them is already taken.
func (s *Service) AddEntry(entry Entry) ([]Entity, error) {
	entities := entry.Entities()

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, e := range entities {
		if _, ok := s.entities[e.ID]; ok {
			return nil, fmt.Errorf("%w: %s", ErrEntityExists, e.ID)
		}
	}
	for _, e := range entities {
		s.entities[e.ID] = e
		s.order = append(s.order, e.ID)
		s.store.Save(unknownState(e, s.now()))
		s.logger.Info("entity registered", "entity_id", e.ID, "location", e.Location, "entry_id", entry.ID)
	}
	return entities, nil
}

// Conflicts returns the IDs of the entry's entities that are already
// registered.
func (s *Service) Conflicts(entry Entry) []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	var ids []string
	for _, e := range entry.Entities() {
		if _, ok := s.entities[e.ID]; ok {
			ids = append(ids, e.ID)
		}
	}
	return ids
}

// RemoveEntry unregisters every entity created by the entry.
func (s *Service) RemoveEntry(entryID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	kept := s.order[:0]
	removed := 0
	for _, id := range s.order {
		e := s.entities[id]
		if e.EntryID != "" && e.EntryID == entryID {
			delete(s.entities, id)
			delete(s.lastUpdate, id)
			s.store.Delete(id)
			removed++
			continue
		}
		kept = append(kept, id)
	}
	s.order = kept
	return removed
}

// Entities returns the registered entities in registration order.
func (s *Service) Entities() []Entity {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]Entity, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.entities[id])
	}
	return out
}

// UpdateEntity fetches fresh data for one entity and publishes it. It
// returns false without touching the network when the entity was updated
// less than the minimum interval ago or an update is already running.
func (s *Service) UpdateEntity(ctx context.Context, entityID string) (bool, error) {
	e, ok := s.begin(entityID)
	if e.ID == "" {
		return false, ErrUnknownEntity
	}
	if !ok {
		s.metrics.RecordThrottled(string(e.Kind))
		s.logger.Debug("update throttled", "entity_id", entityID)
		return false, nil
	}
	defer s.finish(entityID)

	doc, err := s.fetcher.FetchDocument(ctx, e.Location)
	if err != nil {
		// A failed fetch still overwrites the previous state.
		s.logger.Warn("fetch failed", "entity_id", e.ID, "location", e.Location, "error", err)
		doc = nil
	}

	state, found := s.buildState(e, doc)
	if !s.publish(e, state) {
		s.logger.Debug("entity removed during update", "entity_id", e.ID)
		return false, nil
	}

	switch {
	case err != nil:
		s.metrics.RecordUpdate(string(e.Kind), "fetch_error")
	case !found:
		s.metrics.RecordUpdate(string(e.Kind), "no_data")
	default:
		s.metrics.RecordUpdate(string(e.Kind), "ok")
	}
	return true, nil
}

// UpdateAll runs one update cycle over every entity, one at a time.
func (s *Service) UpdateAll(ctx context.Context) {
	for _, e := range s.Entities() {
		if ctx.Err() != nil {
			s.logger.Warn("update cycle interrupted", "error", ctx.Err())
			return
		}
		if _, err := s.UpdateEntity(ctx, e.ID); err != nil {
			s.logger.Error("update failed", "entity_id", e.ID, "error", err)
		}
	}
}

// GetState delegates to the underlying store.
func (s *Service) GetState(entityID string) (EntityState, error) {
	return s.store.Get(entityID)
}

// ListStates delegates to the underlying store.
func (s *Service) ListStates() []EntityState {
	return s.store.List()
}

// Locations returns the names offered by the setup flow.
func (s *Service) Locations(ctx context.Context) []string {
	return s.resolver.ResolveLocations(ctx)
}

func (s *Service) begin(entityID string) (Entity, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entities[entityID]
	if !ok {
		return Entity{}, false
	}
	if s.inFlight[entityID] {
		return e, false
	}
	if last, ok := s.lastUpdate[entityID]; ok && s.minInterval > 0 && s.now().Sub(last) < s.minInterval {
		return e, false
	}
	s.inFlight[entityID] = true
	return e, true
}

// publish saves the state unless the entity was removed (or replaced by
// another entry) while its fetch was running.
func (s *Service) publish(e Entity, state EntityState) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.entities[e.ID]
	if !ok || current.EntryID != e.EntryID {
		return false
	}
	s.store.Save(state)
	return true
}

func (s *Service) finish(entityID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.inFlight, entityID)
	if _, ok := s.entities[entityID]; ok {
		s.lastUpdate[entityID] = s.now()
	}
}

func (s *Service) buildState(e Entity, doc *Document) (EntityState, bool) {
	state := unknownState(e, s.now())

	switch e.Kind {
	case KindSensor:
		flat, ok := Flatten(doc, s.logger)
		if !ok {
			return state, false
		}
		state.State = flat.Headline
		state.Attributes = flat.Attributes()
		state.Attributes["Last Update"] = state.UpdatedAt.Format(time.RFC3339)
		return state, true

	default:
		reading, ok := s.normalizer.Normalize(doc, e.Preference)
		state.Attributes = readingAttributes(reading)
		if !ok {
			return state, false
		}
		state.Reading = &reading
		if reading.Condition != nil {
			state.State = *reading.Condition
		}
		return state, true
	}
}

func readingAttributes(r Reading) map[string]any {
	var lastUpdated any
	if r.Timestamp != nil {
		lastUpdated = r.Timestamp.Format(time.RFC3339)
	}
	return map[string]any{
		"temperature":        deref(r.Temperature),
		"temperature_unit":   UnitTemperature,
		"pressure":           deref(r.Pressure),
		"pressure_unit":      UnitPressure,
		"humidity":           deref(r.Humidity),
		"wind_speed":         deref(r.WindSpeed),
		"wind_speed_unit":    UnitWindSpeed,
		"wind_bearing":       deref(r.WindBearing),
		"precipitation":      deref(r.Precipitation),
		"precipitation_unit": UnitPrecipitation,
		"attribution":        Attribution,
		"last_updated":       lastUpdated,
	}
}

// deref turns a nil pointer into an untyped nil so it marshals as null.
func deref[T any](p *T) any {
	if p == nil {
		return nil
	}
	return *p
}

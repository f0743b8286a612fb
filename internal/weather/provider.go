package weather

import (
	"context"
)

// DocumentFetcher retrieves the raw ARSO document for a location name.
type DocumentFetcher interface {
	FetchDocument(ctx context.Context, location string) (*Document, error)
}

// LocationResolver lists the location names offered during setup. It never
// fails; problems are reported as a single placeholder entry.
type LocationResolver interface {
	ResolveLocations(ctx context.Context) []string
}

// Store is the contract the in-memory state store must satisfy.
type Store interface {
	Save(state EntityState)
	Get(entityID string) (EntityState, error)
	List() []EntityState
	Delete(entityID string)
}

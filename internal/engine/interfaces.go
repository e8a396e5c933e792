package engine

import "context"

// CatalogSource defines the read-only interface for price lookups.
// The engine consumes the catalog, it never writes to it. Either method
// may report "not found" without that being an error; the pricer then
// degrades per its missing-item policy.
type CatalogSource interface {
	// PriceAtStore returns the most recent approved price for an item
	// at a specific store, optionally scoped to a category.
	PriceAtStore(ctx context.Context, name string, categoryID *int64, storeID int64) (float64, bool, error)

	// AveragePrice returns the mean approved price for an item across
	// all stores, optionally scoped to a category.
	AveragePrice(ctx context.Context, name string, categoryID *int64) (float64, bool, error)
}

// StoreSource lists candidate stores. Stores without coordinates are
// included; the orchestrator filters them out itself so it can tell
// "no stores at all" apart from "no stores with location data".
type StoreSource interface {
	ListStores(ctx context.Context) ([]Store, error)
}

// RouteEstimate is a road-network distance and duration for one destination.
type RouteEstimate struct {
	DistanceKm  float64
	DurationMin float64
}

// DistanceProvider supplies road distances from an external routing
// service for a batch of destinations from one origin. Implementations
// MUST return an empty map on any failure, timeout or missing
// credentials; the caller falls back to geodesic estimates silently.
// Keys are indexes into the dests slice.
type DistanceProvider interface {
	BatchDistances(ctx context.Context, origin Location, dests []Location, mode TransportMode) map[int]RouteEstimate
}

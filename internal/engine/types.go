package engine

import "fmt"

// CompareRequest contains the parameters for a basket comparison.
type CompareRequest struct {
	Items       []*BasketItem // Items in the basket, in user order
	Location    *Location     // Optional user location (defaults to config.DefaultLocation)
	Preferences *Preferences  // Optional preference profile (defaults applied when nil)
}

// BasketItem represents a single item in the shopping basket.
type BasketItem struct {
	Name       string  // Item name, matched against catalog entries
	CategoryID *int64  // Optional category filter
	Quantity   float64 // Quantity requested (must be > 0)
}

// Location represents a geographic coordinate in degrees.
type Location struct {
	Latitude  float64
	Longitude float64
}

// TransportMode is the way the user travels to a store.
type TransportMode string

const (
	ModeWalking   TransportMode = "walking"
	ModeDriving   TransportMode = "driving"
	ModeTransit   TransportMode = "transit"
	ModeBicycling TransportMode = "bicycling"
)

// Preferences describes how a user values travel, time and store loyalty.
// Zero-value fields are meaningful; use DefaultPreferences for the
// documented defaults.
type Preferences struct {
	TransportMode       TransportMode
	PerKmCost           float64 // currency per kilometre travelled
	BaseTripCost        float64 // fixed cost per trip
	ValueOfTimePerMin   float64 // currency per minute of travel time
	PreferredStoreID    *int64  // store the user normally shops at
	LoyaltyPenalty      float64 // cost of leaving the preferred store
	WillingnessToTravel float64 // learned score in [0,1], 0.5 = neutral
	AlertThresholdHigh  float64 // net saving for a "worth switching" verdict
	AlertThresholdLow   float64 // net saving for a "maybe" verdict
}

// DefaultPreferences returns the documented default preference profile:
// driving at 40/km, no base trip cost, time valued at 10/min, no loyalty
// penalty, neutral willingness, thresholds 300/100.
func DefaultPreferences() Preferences {
	return Preferences{
		TransportMode:       ModeDriving,
		PerKmCost:           40.0,
		BaseTripCost:        0.0,
		ValueOfTimePerMin:   10.0,
		LoyaltyPenalty:      0.0,
		WillingnessToTravel: 0.5,
		AlertThresholdHigh:  300.0,
		AlertThresholdLow:   100.0,
	}
}

// Store is a candidate store as seen by the engine. Location is nil when
// the store has no known coordinates; such stores are skipped.
type Store struct {
	ID       int64
	Name     string
	Location *Location
}

// Verdict classifies whether switching to a store is worthwhile.
type Verdict string

const (
	VerdictBaseline       Verdict = "baseline"
	VerdictWorthSwitching Verdict = "worth_switching"
	VerdictMaybe          Verdict = "maybe"
	VerdictNotWorth       Verdict = "not_worth"
)

// Confidence indicates how many basket items had to be estimated rather
// than directly priced at a store.
type Confidence string

const (
	ConfidenceHigh   Confidence = "high"   // no missing items
	ConfidenceMedium Confidence = "medium" // 1-2 missing items
	ConfidenceLow    Confidence = "low"    // 3+ missing items
)

// ConfidenceFromMissing derives the confidence tier from the missing-item count.
func ConfidenceFromMissing(missing int) Confidence {
	switch {
	case missing == 0:
		return ConfidenceHigh
	case missing <= 2:
		return ConfidenceMedium
	default:
		return ConfidenceLow
	}
}

// StoreComparison is the per-store result of a basket comparison.
// Money and distance figures are rounded to 2 decimals, minutes to 1.
type StoreComparison struct {
	StoreID   int64
	StoreName string
	Location  *Location

	TotalPrice     float64
	MissingItems   []string
	AvailableCount int
	TotalCount     int

	DistanceKm    float64
	TravelTimeMin float64

	TransportCost float64
	TimeCost      float64
	LoyaltyCost   float64

	NetSaving  float64
	Verdict    Verdict
	Confidence Confidence
	IsBaseline bool
}

// CompareResult is the full outcome of a basket comparison.
// Exactly one StoreComparison (the Baseline) carries IsBaseline=true and
// NetSaving 0; Alternatives excludes it and is sorted best-first.
type CompareResult struct {
	Baseline        *StoreComparison
	Alternatives    []*StoreComparison
	Recommendations []string
	ItemCount       int
	StoreCount      int
}

// StoreDistance pairs a store with its distance from a query point.
type StoreDistance struct {
	Store      Store
	DistanceKm float64
}

// QuickCheckResult is the outcome of a single-number comparison without
// basket or catalog lookups.
type QuickCheckResult struct {
	WorthSwitching bool
	NetSaving      float64
	PriceSaving    float64
	TransportCost  float64
	TimeCost       float64
	TravelTimeMin  float64
	Verdict        Verdict
}

// ErrInvalidRequest is returned when a comparison request is rejected
// before any computation happens.
type ErrInvalidRequest struct {
	Field  string
	Reason string
}

func (e ErrInvalidRequest) Error() string {
	return e.Field + ": " + e.Reason
}

// ErrNoCandidates is returned when no candidate store has location data.
// It is distinct from ErrInvalidRequest so callers can prompt for store
// onboarding rather than basket correction.
type ErrNoCandidates struct{}

func (ErrNoCandidates) Error() string {
	return "no stores with location data"
}

// Validate validates a comparison request.
func (r *CompareRequest) Validate(maxItems int) error {
	if len(r.Items) == 0 {
		return ErrInvalidRequest{Field: "items", Reason: "basket is empty"}
	}
	if maxItems > 0 && len(r.Items) > maxItems {
		return ErrInvalidRequest{Field: "items", Reason: "exceeds maximum allowed"}
	}
	for i, item := range r.Items {
		if item.Name == "" {
			return ErrInvalidRequest{Field: "items", Reason: fmt.Sprintf("item at index %d has no name", i)}
		}
		if item.Quantity <= 0 {
			return ErrInvalidRequest{Field: "items", Reason: fmt.Sprintf("item at index %d has invalid quantity", i)}
		}
	}
	if r.Location != nil {
		if err := r.Location.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// Validate checks that the coordinate is within valid ranges.
func (l Location) Validate() error {
	if l.Latitude < -90 || l.Latitude > 90 {
		return ErrInvalidRequest{Field: "location.latitude", Reason: "must be between -90 and 90"}
	}
	if l.Longitude < -180 || l.Longitude > 180 {
		return ErrInvalidRequest{Field: "location.longitude", Reason: "must be between -180 and 180"}
	}
	return nil
}

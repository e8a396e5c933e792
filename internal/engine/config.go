package engine

// Config holds the tunable settings for the comparison engine.
// It is loaded from environment variables or a config file; defaults
// mirror the behaviour the recommendation model was calibrated against.
type Config struct {
	// Verdict thresholds (base values before per-user adjustment)
	ThresholdHigh float64 `mapstructure:"threshold_high"`
	ThresholdLow  float64 `mapstructure:"threshold_low"`

	// Mode-specific average speeds in km/h
	SpeedWalkingKmh   float64 `mapstructure:"speed_walking_kmh"`
	SpeedDrivingKmh   float64 `mapstructure:"speed_driving_kmh"`
	SpeedTransitKmh   float64 `mapstructure:"speed_transit_kmh"`
	SpeedBicyclingKmh float64 `mapstructure:"speed_bicycling_kmh"`
	SpeedDefaultKmh   float64 `mapstructure:"speed_default_kmh"`

	// Missing item penalty: charge this multiple of the cross-store
	// average when a store has no price for an item
	MissingItemPenaltyMult float64 `mapstructure:"missing_item_penalty_mult"`

	// Validation limits
	MaxBasketItems int `mapstructure:"max_basket_items"`

	// Result shaping
	MaxAlternatives int `mapstructure:"max_alternatives"`

	// Nearby store query limits
	MinRadiusKm    float64 `mapstructure:"min_radius_km"`
	MaxRadiusKm    float64 `mapstructure:"max_radius_km"`
	MaxNearbyLimit int     `mapstructure:"max_nearby_limit"`

	// Per-store evaluation concurrency (1 = sequential)
	CompareConcurrency int `mapstructure:"compare_concurrency"`

	// Fallback user location when the request omits one
	DefaultLatitude  float64 `mapstructure:"default_latitude"`
	DefaultLongitude float64 `mapstructure:"default_longitude"`
}

// Defaults returns the default engine configuration.
func Defaults() *Config {
	return &Config{
		ThresholdHigh:          300.0,
		ThresholdLow:           100.0,
		SpeedWalkingKmh:        5.0,
		SpeedDrivingKmh:        30.0,
		SpeedTransitKmh:        20.0,
		SpeedBicyclingKmh:      15.0,
		SpeedDefaultKmh:        20.0,
		MissingItemPenaltyMult: 1.2,
		MaxBasketItems:         100,
		MaxAlternatives:        10,
		MinRadiusKm:            0.5,
		MaxRadiusKm:            50.0,
		MaxNearbyLimit:         100,
		CompareConcurrency:     4,
		DefaultLatitude:        6.5158,
		DefaultLongitude:       3.3895,
	}
}

// SpeedFor returns the average speed in km/h for a transport mode.
func (c *Config) SpeedFor(mode TransportMode) float64 {
	switch mode {
	case ModeWalking:
		return c.SpeedWalkingKmh
	case ModeDriving:
		return c.SpeedDrivingKmh
	case ModeTransit:
		return c.SpeedTransitKmh
	case ModeBicycling:
		return c.SpeedBicyclingKmh
	default:
		return c.SpeedDefaultKmh
	}
}

// DefaultLocation returns the fallback user location.
func (c *Config) DefaultLocation() Location {
	return Location{Latitude: c.DefaultLatitude, Longitude: c.DefaultLongitude}
}

// Validate validates the configuration and returns an error if invalid.
func (c *Config) Validate() error {
	if c.ThresholdHigh <= c.ThresholdLow {
		return ErrInvalidConfig{Field: "threshold_high", Reason: "must be greater than threshold_low"}
	}
	if c.ThresholdLow < 0 {
		return ErrInvalidConfig{Field: "threshold_low", Reason: "must be non-negative"}
	}
	for field, speed := range map[string]float64{
		"speed_walking_kmh":   c.SpeedWalkingKmh,
		"speed_driving_kmh":   c.SpeedDrivingKmh,
		"speed_transit_kmh":   c.SpeedTransitKmh,
		"speed_bicycling_kmh": c.SpeedBicyclingKmh,
		"speed_default_kmh":   c.SpeedDefaultKmh,
	} {
		if speed <= 0 {
			return ErrInvalidConfig{Field: field, Reason: "must be positive"}
		}
	}
	if c.MissingItemPenaltyMult < 1.0 {
		return ErrInvalidConfig{Field: "missing_item_penalty_mult", Reason: "must be >= 1.0"}
	}
	if c.MaxBasketItems < 1 {
		return ErrInvalidConfig{Field: "max_basket_items", Reason: "must be at least 1"}
	}
	if c.MaxAlternatives < 1 {
		return ErrInvalidConfig{Field: "max_alternatives", Reason: "must be at least 1"}
	}
	if c.MinRadiusKm <= 0 || c.MaxRadiusKm <= c.MinRadiusKm {
		return ErrInvalidConfig{Field: "max_radius_km", Reason: "must be greater than min_radius_km (both positive)"}
	}
	if c.MaxNearbyLimit < 1 {
		return ErrInvalidConfig{Field: "max_nearby_limit", Reason: "must be at least 1"}
	}
	if c.CompareConcurrency < 1 {
		return ErrInvalidConfig{Field: "compare_concurrency", Reason: "must be at least 1"}
	}
	return nil
}

// ErrInvalidConfig is returned when the engine configuration is invalid.
type ErrInvalidConfig struct {
	Field  string
	Reason string
}

func (e ErrInvalidConfig) Error() string {
	return e.Field + ": " + e.Reason
}

package engine

import (
	"math"
	"sort"
)

// HaversineKm calculates the great-circle distance between two points in
// kilometers. This is a lower bound on real travel distance: roads are
// never shorter than the geodesic.
func HaversineKm(lat1, lon1, lat2, lon2 float64) float64 {
	const R = 6371.0 // Earth radius km
	dLat := toRad(lat2 - lat1)
	dLon := toRad(lon2 - lon1)
	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRad(lat1))*math.Cos(toRad(lat2))*
			math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return R * c
}

func toRad(deg float64) float64 {
	return deg * math.Pi / 180
}

// TravelTimeMin estimates travel time in minutes for a distance using the
// configured average speed for the transport mode.
func (c *Config) TravelTimeMin(distanceKm float64, mode TransportMode) float64 {
	return distanceKm / c.SpeedFor(mode) * 60.0
}

// SortStoresByDistance sorts a slice of StoreDistance in place, closest
// first, with store ID as tie-breaker for determinism.
func SortStoresByDistance(stores []StoreDistance) {
	sort.Slice(stores, func(i, j int) bool {
		if stores[i].DistanceKm != stores[j].DistanceKm {
			return stores[i].DistanceKm < stores[j].DistanceKm
		}
		return stores[i].Store.ID < stores[j].Store.ID
	})
}

// Round2 rounds to 2 decimal places; used for currency and kilometre figures.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// Round1 rounds to 1 decimal place; used for minute figures.
func Round1(v float64) float64 {
	return math.Round(v*10) / 10
}

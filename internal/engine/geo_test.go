package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHaversineZeroForSamePoint(t *testing.T) {
	assert.Equal(t, 0.0, HaversineKm(6.5158, 3.3895, 6.5158, 3.3895))
}

func TestHaversineSymmetry(t *testing.T) {
	d1 := HaversineKm(6.5158, 3.3895, 6.4281, 3.4219)
	d2 := HaversineKm(6.4281, 3.4219, 6.5158, 3.3895)
	assert.InDelta(t, d1, d2, 1e-9)
	assert.Greater(t, d1, 0.0)
}

func TestHaversineKnownDistance(t *testing.T) {
	// One degree of latitude is about 111.19 km
	d := HaversineKm(6.0, 3.0, 7.0, 3.0)
	assert.InDelta(t, 111.19, d, 0.5)
}

func TestTravelTimeMinBySpeed(t *testing.T) {
	cfg := Defaults()

	// 30 km at 30 km/h driving = 60 minutes
	assert.InDelta(t, 60.0, cfg.TravelTimeMin(30, ModeDriving), 1e-9)
	// 5 km at 5 km/h walking = 60 minutes
	assert.InDelta(t, 60.0, cfg.TravelTimeMin(5, ModeWalking), 1e-9)
	// Unknown mode falls back to the default speed
	assert.InDelta(t, 30.0, cfg.TravelTimeMin(10, TransportMode("hoverboard")), 1e-9)
}

func TestRounding(t *testing.T) {
	assert.Equal(t, 123.46, Round2(123.456))
	assert.Equal(t, 123.45, Round2(123.454))
	assert.Equal(t, -0.5, Round2(-0.499))
	assert.Equal(t, 12.3, Round1(12.34))
	assert.Equal(t, 12.4, Round1(12.35))
}

func TestSortStoresByDistance(t *testing.T) {
	stores := []StoreDistance{
		{Store: Store{ID: 3}, DistanceKm: 5.0},
		{Store: Store{ID: 1}, DistanceKm: 2.0},
		{Store: Store{ID: 2}, DistanceKm: 2.0},
		{Store: Store{ID: 4}, DistanceKm: 0.5},
	}
	SortStoresByDistance(stores)

	ids := make([]int64, len(stores))
	for i, sd := range stores {
		ids[i] = sd.Store.ID
	}
	// Equal distances break ties by store ID
	assert.Equal(t, []int64{4, 1, 2, 3}, ids)
}

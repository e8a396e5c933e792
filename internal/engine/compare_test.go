package engine

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeRouting overrides route estimates per candidate index.
type fakeRouting struct {
	routes map[int]RouteEstimate
	calls  int
}

func (f *fakeRouting) BatchDistances(_ context.Context, _ Location, _ []Location, _ TransportMode) map[int]RouteEstimate {
	f.calls++
	return f.routes
}

var testLoc = Location{Latitude: 6.5158, Longitude: 3.3895}

func locPtr(lat, lng float64) *Location {
	return &Location{Latitude: lat, Longitude: lng}
}

func riceStores() *fakeStores {
	return &fakeStores{stores: []Store{
		{ID: 1, Name: "Mile 12 Market", Location: locPtr(testLoc.Latitude, testLoc.Longitude)},
		{ID: 2, Name: "Balogun Market", Location: locPtr(6.4550, 3.3900)},
	}}
}

func TestCompareRiceScenario(t *testing.T) {
	// Rice at 1000 locally vs 800 at a store 5 km away, driving, basket of
	// two: 400 price saving - 200 transport - 100 time = 100 net, "maybe".
	catalog := &fakeCatalog{
		prices: map[string]map[int64]float64{
			"rice": {1: 1000, 2: 800},
		},
	}
	routing := &fakeRouting{routes: map[int]RouteEstimate{
		0: {DistanceKm: 0, DurationMin: 0},
		1: {DistanceKm: 5, DurationMin: 10},
	}}

	comparer := NewComparer(catalog, riceStores(), routing, Defaults())
	result, err := comparer.Compare(context.Background(), &CompareRequest{
		Items:    []*BasketItem{{Name: "rice", Quantity: 2}},
		Location: &testLoc,
	})
	require.NoError(t, err)

	require.NotNil(t, result.Baseline)
	assert.Equal(t, int64(1), result.Baseline.StoreID)
	assert.Equal(t, 2000.0, result.Baseline.TotalPrice)

	require.Len(t, result.Alternatives, 1)
	alt := result.Alternatives[0]
	assert.Equal(t, int64(2), alt.StoreID)
	assert.Equal(t, 1600.0, alt.TotalPrice)
	assert.Equal(t, 200.0, alt.TransportCost)
	assert.Equal(t, 100.0, alt.TimeCost)
	assert.Equal(t, 100.0, alt.NetSaving)
	assert.Equal(t, VerdictMaybe, alt.Verdict)
}

func TestCompareBaselineUnique(t *testing.T) {
	catalog := &fakeCatalog{
		prices: map[string]map[int64]float64{
			"rice": {1: 1000, 2: 900},
		},
	}
	comparer := NewComparer(catalog, riceStores(), nil, Defaults())
	result, err := comparer.Compare(context.Background(), &CompareRequest{
		Items:    []*BasketItem{{Name: "rice", Quantity: 1}},
		Location: &testLoc,
	})
	require.NoError(t, err)

	assert.True(t, result.Baseline.IsBaseline)
	assert.Equal(t, 0.0, result.Baseline.NetSaving)
	assert.Equal(t, VerdictBaseline, result.Baseline.Verdict)
	for _, alt := range result.Alternatives {
		assert.False(t, alt.IsBaseline)
		assert.NotEqual(t, result.Baseline.StoreID, alt.StoreID)
	}
	assert.Equal(t, 2, result.StoreCount)
	assert.Equal(t, 1, result.ItemCount)
}

func TestComparePreferredStoreIsBaseline(t *testing.T) {
	catalog := &fakeCatalog{
		prices: map[string]map[int64]float64{
			"rice": {1: 1000, 2: 900},
		},
	}
	preferred := int64(2)
	prefs := DefaultPreferences()
	prefs.PreferredStoreID = &preferred

	comparer := NewComparer(catalog, riceStores(), nil, Defaults())
	result, err := comparer.Compare(context.Background(), &CompareRequest{
		Items:       []*BasketItem{{Name: "rice", Quantity: 1}},
		Location:    &testLoc,
		Preferences: &prefs,
	})
	require.NoError(t, err)

	// The farther preferred store wins over the nearest one
	assert.Equal(t, int64(2), result.Baseline.StoreID)
}

func TestCompareLoyaltyPenaltyAppliedWhenLeavingPreferred(t *testing.T) {
	catalog := &fakeCatalog{
		prices: map[string]map[int64]float64{
			"rice": {1: 1000, 2: 200},
		},
	}
	preferred := int64(1)
	prefs := DefaultPreferences()
	prefs.PreferredStoreID = &preferred
	prefs.LoyaltyPenalty = 150
	prefs.PerKmCost = 0
	prefs.ValueOfTimePerMin = 0

	routing := &fakeRouting{routes: map[int]RouteEstimate{
		0: {DistanceKm: 0, DurationMin: 0},
		1: {DistanceKm: 5, DurationMin: 10},
	}}

	comparer := NewComparer(catalog, riceStores(), routing, Defaults())
	result, err := comparer.Compare(context.Background(), &CompareRequest{
		Items:       []*BasketItem{{Name: "rice", Quantity: 1}},
		Location:    &testLoc,
		Preferences: &prefs,
	})
	require.NoError(t, err)

	require.Len(t, result.Alternatives, 1)
	alt := result.Alternatives[0]
	assert.Equal(t, 150.0, alt.LoyaltyCost)
	// 800 price saving - 150 loyalty = 650 net
	assert.Equal(t, 650.0, alt.NetSaving)
	assert.Equal(t, VerdictWorthSwitching, alt.Verdict)
}

func TestCompareEmptyBasketRejected(t *testing.T) {
	comparer := NewComparer(&fakeCatalog{}, riceStores(), nil, Defaults())
	_, err := comparer.Compare(context.Background(), &CompareRequest{Location: &testLoc})

	var invalid ErrInvalidRequest
	require.ErrorAs(t, err, &invalid)
	assert.Equal(t, "items", invalid.Field)
}

func TestCompareInvalidCoordinatesRejected(t *testing.T) {
	comparer := NewComparer(&fakeCatalog{}, riceStores(), nil, Defaults())
	_, err := comparer.Compare(context.Background(), &CompareRequest{
		Items:    []*BasketItem{{Name: "rice", Quantity: 1}},
		Location: &Location{Latitude: 95, Longitude: 3},
	})

	var invalid ErrInvalidRequest
	require.ErrorAs(t, err, &invalid)
	assert.Equal(t, "location.latitude", invalid.Field)
}

func TestCompareNoCandidates(t *testing.T) {
	stores := &fakeStores{stores: []Store{
		{ID: 1, Name: "No Coords Store"},
	}}
	comparer := NewComparer(&fakeCatalog{}, stores, nil, Defaults())
	_, err := comparer.Compare(context.Background(), &CompareRequest{
		Items:    []*BasketItem{{Name: "rice", Quantity: 1}},
		Location: &testLoc,
	})
	assert.ErrorAs(t, err, &ErrNoCandidates{})
}

func TestCompareDefaultLocationUsed(t *testing.T) {
	catalog := &fakeCatalog{
		prices: map[string]map[int64]float64{
			"rice": {1: 1000, 2: 900},
		},
	}
	comparer := NewComparer(catalog, riceStores(), nil, Defaults())
	result, err := comparer.Compare(context.Background(), &CompareRequest{
		Items: []*BasketItem{{Name: "rice", Quantity: 1}},
	})
	require.NoError(t, err)

	// Store 1 sits at the default location, so it is the baseline
	assert.Equal(t, int64(1), result.Baseline.StoreID)
}

func TestCompareAlternativesSortedAndCapped(t *testing.T) {
	stores := make([]Store, 0, 15)
	prices := map[string]map[int64]float64{"rice": {}}
	for i := int64(1); i <= 15; i++ {
		stores = append(stores, Store{
			ID:       i,
			Name:     "Store",
			Location: locPtr(testLoc.Latitude+float64(i)*0.01, testLoc.Longitude),
		})
		prices["rice"][i] = 1000 - float64(i)*10
	}

	comparer := NewComparer(&fakeCatalog{prices: prices}, &fakeStores{stores: stores}, nil, Defaults())
	result, err := comparer.Compare(context.Background(), &CompareRequest{
		Items:    []*BasketItem{{Name: "rice", Quantity: 1}},
		Location: &testLoc,
	})
	require.NoError(t, err)

	assert.Len(t, result.Alternatives, Defaults().MaxAlternatives)
	for i := 1; i < len(result.Alternatives); i++ {
		prev, cur := result.Alternatives[i-1], result.Alternatives[i]
		ordered := prev.NetSaving > cur.NetSaving ||
			(prev.NetSaving == cur.NetSaving && prev.StoreID < cur.StoreID)
		assert.True(t, ordered, "alternatives out of order at index %d", i)
	}
}

func TestCompareRoutingFailureFallsBackToGeodesic(t *testing.T) {
	catalog := &fakeCatalog{
		prices: map[string]map[int64]float64{
			"rice": {1: 1000, 2: 900},
		},
	}
	// Empty map means the provider failed; geodesic numbers stand
	routing := &fakeRouting{routes: map[int]RouteEstimate{}}

	comparer := NewComparer(catalog, riceStores(), routing, Defaults())
	result, err := comparer.Compare(context.Background(), &CompareRequest{
		Items:    []*BasketItem{{Name: "rice", Quantity: 1}},
		Location: &testLoc,
	})
	require.NoError(t, err)
	require.Equal(t, 1, routing.calls)

	require.Len(t, result.Alternatives, 1)
	assert.Greater(t, result.Alternatives[0].DistanceKm, 0.0)
}

func TestNearby(t *testing.T) {
	comparer := NewComparer(&fakeCatalog{}, riceStores(), nil, Defaults())

	nearby, err := comparer.Nearby(context.Background(), testLoc, 5, 10)
	require.NoError(t, err)
	require.Len(t, nearby, 1)
	assert.Equal(t, int64(1), nearby[0].Store.ID)
	assert.Equal(t, 0.0, nearby[0].DistanceKm)

	// Wider radius picks up the second store, closest first
	nearby, err = comparer.Nearby(context.Background(), testLoc, 20, 10)
	require.NoError(t, err)
	require.Len(t, nearby, 2)
	assert.Equal(t, int64(1), nearby[0].Store.ID)

	// Limit caps the result
	nearby, err = comparer.Nearby(context.Background(), testLoc, 20, 1)
	require.NoError(t, err)
	assert.Len(t, nearby, 1)
}

func TestNearbyValidation(t *testing.T) {
	comparer := NewComparer(&fakeCatalog{}, riceStores(), nil, Defaults())

	var invalid ErrInvalidRequest

	_, err := comparer.Nearby(context.Background(), testLoc, 0.1, 10)
	require.ErrorAs(t, err, &invalid)
	assert.Equal(t, "radiusKm", invalid.Field)

	_, err = comparer.Nearby(context.Background(), testLoc, 100, 10)
	assert.ErrorAs(t, err, &invalid)

	_, err = comparer.Nearby(context.Background(), testLoc, 5, 0)
	require.ErrorAs(t, err, &invalid)
	assert.Equal(t, "limit", invalid.Field)

	_, err = comparer.Nearby(context.Background(), Location{Latitude: 95}, 5, 10)
	assert.ErrorAs(t, err, &invalid)
}

func TestQuickCheckNotWorthIt(t *testing.T) {
	comparer := NewComparer(nil, nil, nil, Defaults())

	// 200 saving - 200 transport - 100 time = -100
	result := comparer.QuickCheck(1000, 800, 5, ModeDriving)
	assert.False(t, result.WorthSwitching)
	assert.Equal(t, -100.0, result.NetSaving)
	assert.Equal(t, 200.0, result.PriceSaving)
	assert.Equal(t, 200.0, result.TransportCost)
	assert.Equal(t, 100.0, result.TimeCost)
	assert.Equal(t, 10.0, result.TravelTimeMin)
	assert.Equal(t, VerdictNotWorth, result.Verdict)
}

func TestQuickCheckWorthIt(t *testing.T) {
	comparer := NewComparer(nil, nil, nil, Defaults())

	// 1000 saving - 80 transport - 40 time = 880
	result := comparer.QuickCheck(2000, 1000, 2, ModeDriving)
	assert.True(t, result.WorthSwitching)
	assert.Equal(t, 880.0, result.NetSaving)
	assert.Equal(t, VerdictWorthSwitching, result.Verdict)
}

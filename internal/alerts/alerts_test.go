package alerts

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marketpadi/compare-service/internal/engine"
)

// fakeCatalog answers target-price lookups from a fixed table.
type fakeCatalog struct {
	prices map[string]map[int64]float64 // item name -> store ID -> price
}

func (f *fakeCatalog) PriceAtStore(_ context.Context, name string, _ *int64, storeID int64) (float64, bool, error) {
	price, ok := f.prices[name][storeID]
	return price, ok, nil
}

func (f *fakeCatalog) AveragePrice(_ context.Context, name string, _ *int64) (float64, bool, error) {
	return 0, false, nil
}

func floatPtr(v float64) *float64 { return &v }

func testResult() *engine.CompareResult {
	return &engine.CompareResult{
		Baseline: &engine.StoreComparison{
			StoreID: 1, StoreName: "Mile 12 Market",
			DistanceKm: 0, NetSaving: 0, IsBaseline: true,
		},
		Alternatives: []*engine.StoreComparison{
			{StoreID: 2, StoreName: "Balogun Market", DistanceKm: 5, NetSaving: 350},
			{StoreID: 3, StoreName: "Oyingbo Market", DistanceKm: 12, NetSaving: 120},
		},
	}
}

func testBasket() []*engine.BasketItem {
	return []*engine.BasketItem{
		{Name: "ofada rice", Quantity: 2},
		{Name: "peak milk", Quantity: 1},
	}
}

func TestEvaluateNetSavingTrigger(t *testing.T) {
	evaluator := NewEvaluator(&fakeCatalog{})
	alerts := []Alert{{
		ID: 10, UserID: 1, ItemName: "rice",
		MinNetSaving: floatPtr(300), IsActive: true,
	}}

	triggers, err := evaluator.Evaluate(context.Background(), alerts, testBasket(), testResult())
	require.NoError(t, err)

	require.Len(t, triggers, 1)
	assert.Equal(t, "net_saving", triggers[0].Reason)
	assert.Equal(t, int64(2), triggers[0].StoreID)
	assert.Equal(t, 350.0, triggers[0].NetSaving)
}

func TestEvaluateNetSavingSkipsBaseline(t *testing.T) {
	evaluator := NewEvaluator(&fakeCatalog{})
	alerts := []Alert{{
		ID: 10, UserID: 1, ItemName: "rice",
		MinNetSaving: floatPtr(0), IsActive: true,
	}}

	triggers, err := evaluator.Evaluate(context.Background(), alerts, testBasket(), testResult())
	require.NoError(t, err)

	// Baseline net is always zero; it must not fire a net-saving alert
	for _, trig := range triggers {
		assert.NotEqual(t, int64(1), trig.StoreID)
	}
	assert.Len(t, triggers, 2)
}

func TestEvaluateTargetPriceTrigger(t *testing.T) {
	catalog := &fakeCatalog{prices: map[string]map[int64]float64{
		"rice": {1: 900, 2: 750, 3: 1100},
	}}
	evaluator := NewEvaluator(catalog)
	alerts := []Alert{{
		ID: 11, UserID: 1, ItemName: "rice",
		TargetPrice: floatPtr(800), IsActive: true,
	}}

	triggers, err := evaluator.Evaluate(context.Background(), alerts, testBasket(), testResult())
	require.NoError(t, err)

	require.Len(t, triggers, 1)
	assert.Equal(t, "target_price", triggers[0].Reason)
	assert.Equal(t, int64(2), triggers[0].StoreID)
	require.NotNil(t, triggers[0].Price)
	assert.Equal(t, 750.0, *triggers[0].Price)
}

func TestEvaluateDistanceCap(t *testing.T) {
	evaluator := NewEvaluator(&fakeCatalog{})
	alerts := []Alert{{
		ID: 12, UserID: 1, ItemName: "rice",
		MinNetSaving: floatPtr(100), MaxDistanceKm: 6, IsActive: true,
	}}

	triggers, err := evaluator.Evaluate(context.Background(), alerts, testBasket(), testResult())
	require.NoError(t, err)

	// Store 3 qualifies on net saving but sits beyond the distance cap
	require.Len(t, triggers, 1)
	assert.Equal(t, int64(2), triggers[0].StoreID)
}

func TestEvaluateInactiveAlertNeverFires(t *testing.T) {
	evaluator := NewEvaluator(&fakeCatalog{})
	alerts := []Alert{{
		ID: 13, UserID: 1, ItemName: "rice",
		MinNetSaving: floatPtr(0), IsActive: false,
	}}

	triggers, err := evaluator.Evaluate(context.Background(), alerts, testBasket(), testResult())
	require.NoError(t, err)
	assert.Empty(t, triggers)
}

func TestEvaluateItemNotInBasket(t *testing.T) {
	evaluator := NewEvaluator(&fakeCatalog{})
	alerts := []Alert{{
		ID: 14, UserID: 1, ItemName: "yam",
		MinNetSaving: floatPtr(0), IsActive: true,
	}}

	triggers, err := evaluator.Evaluate(context.Background(), alerts, testBasket(), testResult())
	require.NoError(t, err)
	assert.Empty(t, triggers)
}

func TestEvaluateBothConditionsAreAlternatives(t *testing.T) {
	catalog := &fakeCatalog{prices: map[string]map[int64]float64{
		"rice": {3: 700},
	}}
	evaluator := NewEvaluator(catalog)
	alerts := []Alert{{
		ID: 15, UserID: 1, ItemName: "rice",
		TargetPrice:  floatPtr(800),
		MinNetSaving: floatPtr(300),
		IsActive:     true,
	}}

	triggers, err := evaluator.Evaluate(context.Background(), alerts, testBasket(), testResult())
	require.NoError(t, err)

	// Store 2 fires on net saving, store 3 on target price
	require.Len(t, triggers, 2)
	reasons := map[int64]string{}
	for _, trig := range triggers {
		reasons[trig.StoreID] = trig.Reason
	}
	assert.Equal(t, "net_saving", reasons[2])
	assert.Equal(t, "target_price", reasons[3])
}

func TestBasketContainsIsCaseInsensitiveSubstring(t *testing.T) {
	basket := testBasket()
	assert.True(t, basketContains(basket, "RICE"))
	assert.True(t, basketContains(basket, "Peak Milk"))
	assert.False(t, basketContains(basket, "yam"))
}

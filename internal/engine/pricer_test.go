package engine

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeCatalog is an in-memory CatalogSource for tests.
type fakeCatalog struct {
	prices map[string]map[int64]float64 // item name -> store ID -> price
	avgs   map[string]float64           // item name -> cross-store average
	err    error
}

func (f *fakeCatalog) PriceAtStore(_ context.Context, name string, _ *int64, storeID int64) (float64, bool, error) {
	if f.err != nil {
		return 0, false, f.err
	}
	price, ok := f.prices[name][storeID]
	return price, ok, nil
}

func (f *fakeCatalog) AveragePrice(_ context.Context, name string, _ *int64) (float64, bool, error) {
	if f.err != nil {
		return 0, false, f.err
	}
	avg, ok := f.avgs[name]
	return avg, ok, nil
}

// fakeStores is an in-memory StoreSource for tests.
type fakeStores struct {
	stores []Store
	err    error
}

func (f *fakeStores) ListStores(_ context.Context) ([]Store, error) {
	return f.stores, f.err
}

func TestPriceBasketAllAvailable(t *testing.T) {
	catalog := &fakeCatalog{
		prices: map[string]map[int64]float64{
			"rice": {1: 1000},
			"milk": {1: 350},
		},
	}
	pricer := NewBasketPricer(catalog, Defaults())

	pricing, err := pricer.PriceBasket(context.Background(), []*BasketItem{
		{Name: "rice", Quantity: 2},
		{Name: "milk", Quantity: 1},
	}, 1)
	require.NoError(t, err)

	assert.Equal(t, 2350.0, pricing.TotalPrice)
	assert.Empty(t, pricing.MissingItems)
	assert.Equal(t, 2, pricing.AvailableCount)
	assert.Equal(t, ConfidenceHigh, pricing.Confidence)
}

func TestPriceBasketMissingItemPenalty(t *testing.T) {
	catalog := &fakeCatalog{
		prices: map[string]map[int64]float64{
			"rice": {1: 1000},
		},
		avgs: map[string]float64{
			"milk": 400,
		},
	}
	pricer := NewBasketPricer(catalog, Defaults())

	pricing, err := pricer.PriceBasket(context.Background(), []*BasketItem{
		{Name: "rice", Quantity: 1},
		{Name: "milk", Quantity: 2},
	}, 1)
	require.NoError(t, err)

	// milk is charged at 120% of the average: 400 * 1.2 * 2 = 960
	assert.Equal(t, 1960.0, pricing.TotalPrice)
	assert.Equal(t, []string{"milk"}, pricing.MissingItems)
	assert.Equal(t, 1, pricing.AvailableCount)
	assert.Equal(t, ConfidenceMedium, pricing.Confidence)
}

func TestPriceBasketNoPriceAnywhere(t *testing.T) {
	catalog := &fakeCatalog{}
	pricer := NewBasketPricer(catalog, Defaults())

	pricing, err := pricer.PriceBasket(context.Background(), []*BasketItem{
		{Name: "unicorn dust", Quantity: 1},
	}, 1)
	require.NoError(t, err)

	// Unknown items contribute nothing but are reported as missing
	assert.Equal(t, 0.0, pricing.TotalPrice)
	assert.Equal(t, []string{"unicorn dust"}, pricing.MissingItems)
	assert.Equal(t, 0, pricing.AvailableCount)
}

func TestPriceBasketConfidenceTiers(t *testing.T) {
	tests := []struct {
		missing int
		want    Confidence
	}{
		{0, ConfidenceHigh},
		{1, ConfidenceMedium},
		{2, ConfidenceMedium},
		{3, ConfidenceLow},
		{10, ConfidenceLow},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ConfidenceFromMissing(tt.missing), "%d missing items", tt.missing)
	}
}

func TestPriceBasketCatalogError(t *testing.T) {
	catalog := &fakeCatalog{err: errors.New("connection reset")}
	pricer := NewBasketPricer(catalog, Defaults())

	_, err := pricer.PriceBasket(context.Background(), []*BasketItem{{Name: "rice", Quantity: 1}}, 1)
	assert.Error(t, err)
}

func TestPriceBasketCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	pricer := NewBasketPricer(&fakeCatalog{}, Defaults())
	_, err := pricer.PriceBasket(ctx, []*BasketItem{{Name: "rice", Quantity: 1}}, 1)
	assert.ErrorIs(t, err, context.Canceled)
}

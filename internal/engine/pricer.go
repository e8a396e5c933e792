package engine

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// StorePricing is the result of pricing one basket at one store.
type StorePricing struct {
	TotalPrice     float64
	MissingItems   []string
	AvailableCount int
	Confidence     Confidence
}

// BasketPricer computes per-store basket totals from a CatalogSource.
type BasketPricer struct {
	catalog CatalogSource
	config  *Config
	logger  zerolog.Logger
}

// NewBasketPricer creates a new basket pricer.
func NewBasketPricer(catalog CatalogSource, config *Config) *BasketPricer {
	return &BasketPricer{
		catalog: catalog,
		config:  config,
		logger:  log.With().Str("component", "basket_pricer").Logger(),
	}
}

// PriceBasket sums per-item costs for a basket at one store.
//
// For each item, the store-specific most recent approved price wins. When
// the store has no price, the cross-store average is charged at the
// configured penalty multiple (uncertainty premium) and the item is
// recorded as missing. When no price exists anywhere, the item
// contributes nothing to the total, which may understate cost; that is
// reported through the missing list and the confidence tier, never as an
// error.
func (p *BasketPricer) PriceBasket(ctx context.Context, items []*BasketItem, storeID int64) (*StorePricing, error) {
	result := &StorePricing{
		MissingItems: make([]string, 0),
	}

	for _, item := range items {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}

		price, ok, err := p.catalog.PriceAtStore(ctx, item.Name, item.CategoryID, storeID)
		if err != nil {
			return nil, fmt.Errorf("price lookup for %q at store %d: %w", item.Name, storeID, err)
		}
		if ok {
			result.TotalPrice += price * item.Quantity
			result.AvailableCount++
			continue
		}

		result.MissingItems = append(result.MissingItems, item.Name)

		avg, ok, err := p.catalog.AveragePrice(ctx, item.Name, item.CategoryID)
		if err != nil {
			return nil, fmt.Errorf("average price for %q: %w", item.Name, err)
		}
		if ok {
			result.TotalPrice += avg * p.config.MissingItemPenaltyMult * item.Quantity
		} else {
			// No price anywhere: the item is charged nothing.
			p.logger.Debug().Str("item", item.Name).Int64("store", storeID).Msg("No price available anywhere")
		}
	}

	result.Confidence = ConfidenceFromMissing(len(result.MissingItems))
	return result, nil
}

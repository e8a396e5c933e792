// Package alerts evaluates user-defined price watches against basket
// comparison results.
package alerts

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/marketpadi/compare-service/internal/engine"
)

// Alert is a user-defined watch: trigger when an item drops below a
// target price or when a comparison shows enough net saving, within a
// distance the user is willing to cover.
type Alert struct {
	ID              int64
	UserID          int64
	ItemName        string
	CategoryID      *int64
	TargetPrice     *float64
	MinNetSaving    *float64
	MaxDistanceKm   float64
	IsActive        bool
	LastTriggeredAt *time.Time
	TriggerCount    int
}

// Trigger reports one alert firing for one store.
type Trigger struct {
	Alert     Alert
	StoreID   int64
	StoreName string
	Reason    string   // "target_price" or "net_saving"
	Price     *float64 // item price at the store, for target_price triggers
	NetSaving float64
}

// Evaluator checks alerts against comparison results. Target-price
// checks read the catalog; net-saving checks use the comparison alone.
type Evaluator struct {
	catalog engine.CatalogSource
	logger  zerolog.Logger
}

// NewEvaluator creates an alert evaluator.
func NewEvaluator(catalog engine.CatalogSource) *Evaluator {
	return &Evaluator{
		catalog: catalog,
		logger:  log.With().Str("component", "alert_evaluator").Logger(),
	}
}

// Evaluate returns the triggers produced by a comparison result. An
// alert's conditions are alternatives: either condition firing within
// the alert's distance cap produces a trigger. Inactive alerts and
// alerts whose item is not in the basket never fire.
func (e *Evaluator) Evaluate(ctx context.Context, alerts []Alert, basket []*engine.BasketItem, result *engine.CompareResult) ([]Trigger, error) {
	triggers := []Trigger{}

	comparisons := make([]*engine.StoreComparison, 0, len(result.Alternatives)+1)
	comparisons = append(comparisons, result.Baseline)
	comparisons = append(comparisons, result.Alternatives...)

	for _, alert := range alerts {
		if !alert.IsActive || !basketContains(basket, alert.ItemName) {
			continue
		}

		for _, comp := range comparisons {
			if alert.MaxDistanceKm > 0 && comp.DistanceKm > alert.MaxDistanceKm {
				continue
			}

			if alert.MinNetSaving != nil && !comp.IsBaseline && comp.NetSaving >= *alert.MinNetSaving {
				triggers = append(triggers, Trigger{
					Alert:     alert,
					StoreID:   comp.StoreID,
					StoreName: comp.StoreName,
					Reason:    "net_saving",
					NetSaving: comp.NetSaving,
				})
				continue
			}

			if alert.TargetPrice != nil {
				price, ok, err := e.catalog.PriceAtStore(ctx, alert.ItemName, alert.CategoryID, comp.StoreID)
				if err != nil {
					return nil, err
				}
				if ok && price <= *alert.TargetPrice {
					triggers = append(triggers, Trigger{
						Alert:     alert,
						StoreID:   comp.StoreID,
						StoreName: comp.StoreName,
						Reason:    "target_price",
						Price:     &price,
						NetSaving: comp.NetSaving,
					})
				}
			}
		}
	}
	return triggers, nil
}

func basketContains(basket []*engine.BasketItem, itemName string) bool {
	needle := strings.ToLower(itemName)
	for _, item := range basket {
		if strings.Contains(strings.ToLower(item.Name), needle) {
			return true
		}
	}
	return false
}

package engine

import (
	"context"
	"sort"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Comparer runs the basket comparison across all candidate stores:
// pricing, travel costs, baseline selection, net savings, verdicts and
// ranking.
type Comparer struct {
	pricer  *BasketPricer
	stores  StoreSource
	routing DistanceProvider // optional, nil = geodesic only
	config  *Config
	metrics *MetricsRecorder
	logger  zerolog.Logger
	printer *message.Printer
}

// NewComparer creates a new comparison orchestrator. routing may be nil,
// in which case distances are always geodesic estimates.
func NewComparer(catalog CatalogSource, stores StoreSource, routing DistanceProvider, config *Config) *Comparer {
	return &Comparer{
		pricer:  NewBasketPricer(catalog, config),
		stores:  stores,
		routing: routing,
		config:  config,
		metrics: NewMetricsRecorder(),
		logger:  log.With().Str("component", "comparer").Logger(),
		printer: message.NewPrinter(language.English),
	}
}

// Compare evaluates the basket at every candidate store and ranks the
// alternatives by net saving against the baseline.
func (c *Comparer) Compare(ctx context.Context, req *CompareRequest) (*CompareResult, error) {
	startTime := time.Now()
	defer func() {
		c.metrics.RecordCompareDuration(time.Since(startTime))
	}()

	if err := req.Validate(c.config.MaxBasketItems); err != nil {
		return nil, err
	}
	c.metrics.RecordBasketSize(len(req.Items))

	prefs := DefaultPreferences()
	if req.Preferences != nil {
		prefs = *req.Preferences
	}
	thresholdHigh, thresholdLow := c.effectiveThresholds(prefs)

	userLoc := c.config.DefaultLocation()
	if req.Location != nil {
		userLoc = *req.Location
	}

	stores, err := c.stores.ListStores(ctx)
	if err != nil {
		return nil, err
	}

	// Only stores with known coordinates are candidates. Input order is
	// preserved; it is the tie-breaker for baseline selection.
	candidates := make([]Store, 0, len(stores))
	for _, s := range stores {
		if s.Location != nil {
			candidates = append(candidates, s)
		}
	}
	if len(candidates) == 0 {
		return nil, ErrNoCandidates{}
	}
	c.metrics.RecordCandidateCount(len(candidates))

	estimates := c.estimateRoutes(ctx, userLoc, candidates, prefs.TransportMode)

	comparisons := make([]*StoreComparison, len(candidates))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.config.CompareConcurrency)
	for i, store := range candidates {
		g.Go(func() error {
			comp, err := c.evaluateStore(gctx, req.Items, store, estimates[i], prefs)
			if err != nil {
				return err
			}
			comparisons[i] = comp
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	baseline := selectBaseline(comparisons, prefs.PreferredStoreID)
	baseline.IsBaseline = true
	baseline.NetSaving = 0
	baseline.Verdict = VerdictBaseline

	for _, comp := range comparisons {
		if comp.IsBaseline {
			continue
		}
		priceDiff := baseline.TotalPrice - comp.TotalPrice
		comp.NetSaving = Round2(priceDiff - comp.TransportCost - comp.TimeCost - comp.LoyaltyCost)
		comp.Verdict = VerdictFor(comp.NetSaving, thresholdHigh, thresholdLow)
		c.metrics.RecordVerdict(string(comp.Verdict))
	}

	alternatives := make([]*StoreComparison, 0, len(comparisons)-1)
	for _, comp := range comparisons {
		if !comp.IsBaseline {
			alternatives = append(alternatives, comp)
		}
	}
	// Parallel evaluation completes in arbitrary order; the sort keys
	// below make the output deterministic regardless.
	sort.Slice(alternatives, func(i, j int) bool {
		if alternatives[i].NetSaving != alternatives[j].NetSaving {
			return alternatives[i].NetSaving > alternatives[j].NetSaving
		}
		return alternatives[i].StoreID < alternatives[j].StoreID
	})
	if len(alternatives) > c.config.MaxAlternatives {
		alternatives = alternatives[:c.config.MaxAlternatives]
	}

	return &CompareResult{
		Baseline:        baseline,
		Alternatives:    alternatives,
		Recommendations: c.recommendations(baseline, alternatives, thresholdHigh, thresholdLow),
		ItemCount:       len(req.Items),
		StoreCount:      len(comparisons),
	}, nil
}

// evaluateStore prices the basket at one store and attaches travel costs.
func (c *Comparer) evaluateStore(ctx context.Context, items []*BasketItem, store Store, route RouteEstimate, prefs Preferences) (*StoreComparison, error) {
	pricing, err := c.pricer.PriceBasket(ctx, items, store.ID)
	if err != nil {
		return nil, err
	}

	return &StoreComparison{
		StoreID:        store.ID,
		StoreName:      store.Name,
		Location:       store.Location,
		TotalPrice:     Round2(pricing.TotalPrice),
		MissingItems:   pricing.MissingItems,
		AvailableCount: pricing.AvailableCount,
		TotalCount:     len(items),
		DistanceKm:     Round2(route.DistanceKm),
		TravelTimeMin:  Round1(route.DurationMin),
		TransportCost:  Round2(TransportCost(route.DistanceKm, prefs)),
		TimeCost:       Round2(TimeCost(route.DurationMin, prefs)),
		LoyaltyCost:    LoyaltyCost(store.ID, prefs),
		Confidence:     pricing.Confidence,
	}, nil
}

// estimateRoutes computes per-candidate distance and duration. The
// geodesic estimate is always computed first; a routing provider may
// override individual entries. A provider failure yields an empty map
// and the geodesic numbers stand, so degradation is silent.
func (c *Comparer) estimateRoutes(ctx context.Context, origin Location, candidates []Store, mode TransportMode) []RouteEstimate {
	estimates := make([]RouteEstimate, len(candidates))
	for i, store := range candidates {
		km := HaversineKm(origin.Latitude, origin.Longitude, store.Location.Latitude, store.Location.Longitude)
		estimates[i] = RouteEstimate{
			DistanceKm:  km,
			DurationMin: c.config.TravelTimeMin(km, mode),
		}
	}

	if c.routing == nil {
		return estimates
	}

	dests := make([]Location, len(candidates))
	for i, store := range candidates {
		dests[i] = *store.Location
	}
	overrides := c.routing.BatchDistances(ctx, origin, dests, mode)
	for i, route := range overrides {
		if i >= 0 && i < len(estimates) {
			estimates[i] = route
			c.metrics.RecordRoutingOverride()
		}
	}
	return estimates
}

// selectBaseline picks the preferred store when it is a candidate,
// otherwise the geographically nearest one. Ties keep the earlier store
// in input order.
func selectBaseline(comparisons []*StoreComparison, preferredStoreID *int64) *StoreComparison {
	if preferredStoreID != nil {
		for _, comp := range comparisons {
			if comp.StoreID == *preferredStoreID {
				return comp
			}
		}
	}
	baseline := comparisons[0]
	for _, comp := range comparisons[1:] {
		if comp.DistanceKm < baseline.DistanceKm {
			baseline = comp
		}
	}
	return baseline
}

// recommendations derives the one-line advice from the top-ranked
// alternative, plus a trust-building note.
func (c *Comparer) recommendations(baseline *StoreComparison, alternatives []*StoreComparison, thresholdHigh, thresholdLow float64) []string {
	recs := make([]string, 0, 2)

	var best *StoreComparison
	if len(alternatives) > 0 {
		best = alternatives[0]
	}

	switch {
	case best != nil && best.NetSaving >= thresholdHigh:
		recs = append(recs, c.printer.Sprintf("Best deal: %s - save ₦%.2f net", best.StoreName, best.NetSaving))
	case best != nil && best.NetSaving >= thresholdLow:
		recs = append(recs, c.printer.Sprintf("Small saving at %s (₦%.2f). Consider if convenient.", best.StoreName, best.NetSaving))
	default:
		recs = append(recs, c.printer.Sprintf("Stay at %s. Other stores don't offer better value after travel costs.", baseline.StoreName))
	}

	recs = append(recs, "This recommendation accounts for travel cost, time, and your preferences.")
	return recs
}

// effectiveThresholds prefers the per-user (possibly personalized)
// thresholds and falls back to the engine defaults.
func (c *Comparer) effectiveThresholds(prefs Preferences) (high, low float64) {
	high, low = c.config.ThresholdHigh, c.config.ThresholdLow
	if prefs.AlertThresholdHigh > 0 {
		high = prefs.AlertThresholdHigh
	}
	if prefs.AlertThresholdLow > 0 {
		low = prefs.AlertThresholdLow
	}
	return high, low
}

// Nearby returns candidate stores within radiusKm of loc, closest first.
func (c *Comparer) Nearby(ctx context.Context, loc Location, radiusKm float64, limit int) ([]StoreDistance, error) {
	if err := loc.Validate(); err != nil {
		return nil, err
	}
	if radiusKm < c.config.MinRadiusKm || radiusKm > c.config.MaxRadiusKm {
		return nil, ErrInvalidRequest{Field: "radiusKm", Reason: "out of range"}
	}
	if limit < 1 || limit > c.config.MaxNearbyLimit {
		return nil, ErrInvalidRequest{Field: "limit", Reason: "out of range"}
	}

	stores, err := c.stores.ListStores(ctx)
	if err != nil {
		return nil, err
	}

	nearby := make([]StoreDistance, 0)
	for _, s := range stores {
		if s.Location == nil {
			continue
		}
		km := HaversineKm(loc.Latitude, loc.Longitude, s.Location.Latitude, s.Location.Longitude)
		if km <= radiusKm {
			nearby = append(nearby, StoreDistance{Store: s, DistanceKm: Round2(km)})
		}
	}
	SortStoresByDistance(nearby)
	if len(nearby) > limit {
		nearby = nearby[:limit]
	}
	return nearby, nil
}

// QuickCheck answers "is it worth switching?" for a single price pair and
// distance, without basket or catalog lookups. It uses the default
// preference profile with the given transport mode.
func (c *Comparer) QuickCheck(currentPrice, candidatePrice, distanceKm float64, mode TransportMode) QuickCheckResult {
	prefs := DefaultPreferences()
	prefs.TransportMode = mode

	travelTime := c.config.TravelTimeMin(distanceKm, mode)
	transportCost := TransportCost(distanceKm, prefs)
	timeCost := TimeCost(travelTime, prefs)

	priceDiff := currentPrice - candidatePrice
	netSaving := Round2(priceDiff - transportCost - timeCost)
	verdict := VerdictFor(netSaving, c.config.ThresholdHigh, c.config.ThresholdLow)

	return QuickCheckResult{
		WorthSwitching: verdict == VerdictWorthSwitching,
		NetSaving:      netSaving,
		PriceSaving:    Round2(priceDiff),
		TransportCost:  Round2(transportCost),
		TimeCost:       Round2(timeCost),
		TravelTimeMin:  Round1(travelTime),
		Verdict:        verdict,
	}
}

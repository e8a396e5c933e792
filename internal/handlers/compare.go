package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/marketpadi/compare-service/internal/engine"
	"github.com/marketpadi/compare-service/internal/learning"
	"github.com/marketpadi/compare-service/internal/prefs"
)

// ============================================================================
// Basket Comparison Endpoints
// ============================================================================

// BasketItem represents an item in the comparison basket
type BasketItem struct {
	Name       string  `json:"name" binding:"required"`
	CategoryID *int64  `json:"categoryId,omitempty"`
	Quantity   float64 `json:"quantity" binding:"required,gt=0"`
}

// Location represents a geographic location
type Location struct {
	Latitude  float64 `json:"latitude" binding:"min=-90,max=90"`
	Longitude float64 `json:"longitude" binding:"min=-180,max=180"`
}

// PreferencesPayload carries per-request preference overrides. Nil fields
// keep the stored (or default) value.
type PreferencesPayload struct {
	TransportMode     string   `json:"transportMode,omitempty"`
	PerKmCost         *float64 `json:"perKmCost,omitempty"`
	BaseTripCost      *float64 `json:"baseTripCost,omitempty"`
	ValueOfTimePerMin *float64 `json:"valueOfTimePerMin,omitempty"`
	PreferredStoreID  *int64   `json:"preferredStoreId,omitempty"`
	LoyaltyPenalty    *float64 `json:"loyaltyPenalty,omitempty"`
}

// CompareRequest represents the net-saving comparison request
type CompareRequest struct {
	Items       []*BasketItem       `json:"items" binding:"required,min=1,max=100,dive"`
	Location    *Location           `json:"location,omitempty"`
	Preferences *PreferencesPayload `json:"preferences,omitempty"`
	UserID      int64               `json:"userId,omitempty"`
}

// StoreComparisonResult is the per-store comparison in the response
type StoreComparisonResult struct {
	StoreID        int64     `json:"storeId"`
	StoreName      string    `json:"storeName"`
	Location       *Location `json:"location,omitempty"`
	TotalPrice     float64   `json:"totalPrice"`
	MissingItems   []string  `json:"missingItems,omitempty"`
	AvailableCount int       `json:"availableCount"`
	TotalCount     int       `json:"totalCount"`
	DistanceKm     float64   `json:"distanceKm"`
	TravelTimeMin  float64   `json:"travelTimeMin"`
	TransportCost  float64   `json:"transportCost"`
	TimeCost       float64   `json:"timeCost"`
	LoyaltyCost    float64   `json:"loyaltyCost"`
	NetSaving      float64   `json:"netSaving"`
	Verdict        string    `json:"verdict"`
	Confidence     string    `json:"confidence"`
	IsBaseline     bool      `json:"isBaseline"`
}

// CompareResponse represents the full comparison response
type CompareResponse struct {
	Baseline        *StoreComparisonResult   `json:"baseline"`
	Alternatives    []*StoreComparisonResult `json:"alternatives"`
	Recommendations []string                 `json:"recommendations"`
	ItemCount       int                      `json:"itemCount"`
	StoreCount      int                      `json:"storeCount"`
}

// QuickCheckResponse represents the quick-check response
type QuickCheckResponse struct {
	WorthSwitching bool    `json:"worthSwitching"`
	NetSaving      float64 `json:"netSaving"`
	PriceSaving    float64 `json:"priceSaving"`
	TransportCost  float64 `json:"transportCost"`
	TimeCost       float64 `json:"timeCost"`
	TravelTimeMin  float64 `json:"travelTimeMin"`
	Verdict        string  `json:"verdict"`
}

// NearbyStore represents a store in the nearby-stores response
type NearbyStore struct {
	StoreID    int64    `json:"storeId"`
	StoreName  string   `json:"storeName"`
	Location   Location `json:"location"`
	DistanceKm float64  `json:"distanceKm"`
}

// Global engine instances (initialized by the application)
var (
	comparer        *engine.Comparer
	engineConfig    *engine.Config
	prefsStore      prefs.Store
	prefsLearner    learning.Learner
	compareMetrics  *engine.MetricsRecorder
)

// InitCompare initializes the comparison handler dependencies.
// This should be called during application startup.
func InitCompare(c *engine.Comparer, cfg *engine.Config, store prefs.Store, learner learning.Learner) {
	comparer = c
	engineConfig = cfg
	prefsStore = store
	prefsLearner = learner
	compareMetrics = engine.NewMetricsRecorder()
}

// CompareNetSaving handles basket comparison requests
// POST /v1/compare/net-saving
func CompareNetSaving(c *gin.Context) {
	var req CompareRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if comparer == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Engine not initialized"})
		return
	}

	prefProfile, err := resolvePreferences(c, req.UserID, req.Preferences)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	engineReq := &engine.CompareRequest{
		Items:       make([]*engine.BasketItem, len(req.Items)),
		Preferences: prefProfile,
	}
	for i, item := range req.Items {
		engineReq.Items[i] = &engine.BasketItem{
			Name:       item.Name,
			CategoryID: item.CategoryID,
			Quantity:   item.Quantity,
		}
	}
	if req.Location != nil {
		engineReq.Location = &engine.Location{
			Latitude:  req.Location.Latitude,
			Longitude: req.Location.Longitude,
		}
	}

	result, err := comparer.Compare(c.Request.Context(), engineReq)
	if err != nil {
		writeEngineError(c, err)
		return
	}

	alternatives := make([]*StoreComparisonResult, len(result.Alternatives))
	for i, alt := range result.Alternatives {
		alternatives[i] = toComparisonResult(alt)
	}

	c.JSON(http.StatusOK, &CompareResponse{
		Baseline:        toComparisonResult(result.Baseline),
		Alternatives:    alternatives,
		Recommendations: result.Recommendations,
		ItemCount:       result.ItemCount,
		StoreCount:      result.StoreCount,
	})
}

// NearbyStores handles nearby store lookup requests
// GET /v1/compare/stores/nearby
func NearbyStores(c *gin.Context) {
	if comparer == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Engine not initialized"})
		return
	}

	lat, err := strconv.ParseFloat(c.Query("lat"), 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "lat is required and must be a number"})
		return
	}
	lng, err := strconv.ParseFloat(c.Query("lng"), 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "lng is required and must be a number"})
		return
	}

	radiusKm := 10.0
	if raw := c.Query("radiusKm"); raw != "" {
		if radiusKm, err = strconv.ParseFloat(raw, 64); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "radiusKm must be a number"})
			return
		}
	}
	limit := 20
	if raw := c.Query("limit"); raw != "" {
		if limit, err = strconv.Atoi(raw); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be an integer"})
			return
		}
	}

	nearby, err := comparer.Nearby(c.Request.Context(), engine.Location{Latitude: lat, Longitude: lng}, radiusKm, limit)
	if err != nil {
		writeEngineError(c, err)
		return
	}

	stores := make([]*NearbyStore, len(nearby))
	for i, sd := range nearby {
		stores[i] = &NearbyStore{
			StoreID:    sd.Store.ID,
			StoreName:  sd.Store.Name,
			Location:   Location{Latitude: sd.Store.Location.Latitude, Longitude: sd.Store.Location.Longitude},
			DistanceKm: sd.DistanceKm,
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"stores": stores,
		"total":  len(stores),
	})
}

// QuickCheck handles single-price switching checks
// POST /v1/compare/quick-check
func QuickCheck(c *gin.Context) {
	if comparer == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Engine not initialized"})
		return
	}

	currentPrice, err := strconv.ParseFloat(c.Query("currentPrice"), 64)
	if err != nil || currentPrice <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "currentPrice is required and must be positive"})
		return
	}
	candidatePrice, err := strconv.ParseFloat(c.Query("candidatePrice"), 64)
	if err != nil || candidatePrice <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "candidatePrice is required and must be positive"})
		return
	}
	distanceKm, err := strconv.ParseFloat(c.Query("distanceKm"), 64)
	if err != nil || distanceKm < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "distanceKm is required and must be non-negative"})
		return
	}
	mode := engine.TransportMode(c.DefaultQuery("mode", string(engine.ModeDriving)))

	result := comparer.QuickCheck(currentPrice, candidatePrice, distanceKm, mode)

	c.JSON(http.StatusOK, &QuickCheckResponse{
		WorthSwitching: result.WorthSwitching,
		NetSaving:      result.NetSaving,
		PriceSaving:    result.PriceSaving,
		TransportCost:  result.TransportCost,
		TimeCost:       result.TimeCost,
		TravelTimeMin:  result.TravelTimeMin,
		Verdict:        string(result.Verdict),
	})
}

// resolvePreferences builds the effective preference profile for a
// comparison: stored profile (with personalized thresholds) when a user
// is given, defaults otherwise, then request-level overrides on top.
func resolvePreferences(c *gin.Context, userID int64, payload *PreferencesPayload) (*engine.Preferences, error) {
	profile := engine.DefaultPreferences()

	if userID > 0 && prefsStore != nil {
		stored, err := prefsStore.Get(c.Request.Context(), userID)
		if err != nil {
			return nil, err
		}
		profile = stored
		profile.AlertThresholdHigh, profile.AlertThresholdLow = learning.AdjustThresholds(
			engineConfig.ThresholdHigh, engineConfig.ThresholdLow, profile.WillingnessToTravel)
	}

	if payload != nil {
		if payload.TransportMode != "" {
			profile.TransportMode = engine.TransportMode(payload.TransportMode)
		}
		if payload.PerKmCost != nil {
			profile.PerKmCost = *payload.PerKmCost
		}
		if payload.BaseTripCost != nil {
			profile.BaseTripCost = *payload.BaseTripCost
		}
		if payload.ValueOfTimePerMin != nil {
			profile.ValueOfTimePerMin = *payload.ValueOfTimePerMin
		}
		if payload.PreferredStoreID != nil {
			profile.PreferredStoreID = payload.PreferredStoreID
		}
		if payload.LoyaltyPenalty != nil {
			profile.LoyaltyPenalty = *payload.LoyaltyPenalty
		}
	}

	return &profile, nil
}

// writeEngineError maps engine errors to HTTP status codes
func writeEngineError(c *gin.Context, err error) {
	var invalid engine.ErrInvalidRequest
	if errors.As(err, &invalid) {
		compareMetrics.RecordCompareError("invalid_input")
		c.JSON(http.StatusBadRequest, gin.H{"error": invalid.Reason, "field": invalid.Field})
		return
	}
	if errors.As(err, &engine.ErrNoCandidates{}) {
		compareMetrics.RecordCompareError("no_candidates")
		c.JSON(http.StatusNotFound, gin.H{"error": "no stores with location data available for comparison"})
		return
	}
	compareMetrics.RecordCompareError("internal")
	c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
}

func toComparisonResult(comp *engine.StoreComparison) *StoreComparisonResult {
	result := &StoreComparisonResult{
		StoreID:        comp.StoreID,
		StoreName:      comp.StoreName,
		TotalPrice:     comp.TotalPrice,
		MissingItems:   comp.MissingItems,
		AvailableCount: comp.AvailableCount,
		TotalCount:     comp.TotalCount,
		DistanceKm:     comp.DistanceKm,
		TravelTimeMin:  comp.TravelTimeMin,
		TransportCost:  comp.TransportCost,
		TimeCost:       comp.TimeCost,
		LoyaltyCost:    comp.LoyaltyCost,
		NetSaving:      comp.NetSaving,
		Verdict:        string(comp.Verdict),
		Confidence:     string(comp.Confidence),
		IsBaseline:     comp.IsBaseline,
	}
	if comp.Location != nil {
		result.Location = &Location{Latitude: comp.Location.Latitude, Longitude: comp.Location.Longitude}
	}
	return result
}

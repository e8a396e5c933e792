package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/marketpadi/compare-service/internal/engine"
	"github.com/marketpadi/compare-service/internal/learning"
	"github.com/marketpadi/compare-service/internal/prefs"
)

// ============================================================================
// User Preferences Endpoints
// ============================================================================

// PreferencesResponse represents a user's preference profile
type PreferencesResponse struct {
	UserID              int64   `json:"userId"`
	TransportMode       string  `json:"transportMode"`
	PerKmCost           float64 `json:"perKmCost"`
	BaseTripCost        float64 `json:"baseTripCost"`
	ValueOfTimePerMin   float64 `json:"valueOfTimePerMin"`
	PreferredStoreID    *int64  `json:"preferredStoreId,omitempty"`
	LoyaltyPenalty      float64 `json:"loyaltyPenalty"`
	WillingnessToTravel float64 `json:"willingnessToTravel"`
	ThresholdHigh       float64 `json:"thresholdHigh"`
	ThresholdLow        float64 `json:"thresholdLow"`
}

// SwitchingEventRequest records whether a user acted on a recommendation
type SwitchingEventRequest struct {
	FromStoreID      *int64     `json:"fromStoreId,omitempty"`
	ToStoreID        int64      `json:"toStoreId" binding:"required"`
	NetSavingShown   float64    `json:"netSavingShown"`
	DistanceKm       float64    `json:"distanceKm" binding:"min=0"`
	TravelTimeMin    float64    `json:"travelTimeMin,omitempty"`
	Accepted         bool       `json:"accepted"`
	BasketItemCount  int        `json:"basketItemCount,omitempty"`
	BasketTotalValue float64    `json:"basketTotalValue,omitempty"`
	CreatedAt        *time.Time `json:"createdAt,omitempty"`
}

// GetPreferences returns a user's preference profile, creating it with
// defaults on first access
// GET /v1/users/:userId/preferences
func GetPreferences(c *gin.Context) {
	userID, ok := parseUserID(c)
	if !ok {
		return
	}
	if prefsStore == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Preference store not initialized"})
		return
	}

	profile, err := prefsStore.Get(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, toPreferencesResponse(userID, profile))
}

// UpdatePreferences updates a user's preference profile
// PUT /v1/users/:userId/preferences
func UpdatePreferences(c *gin.Context) {
	userID, ok := parseUserID(c)
	if !ok {
		return
	}
	if prefsStore == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Preference store not initialized"})
		return
	}

	var payload PreferencesPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if payload.TransportMode != "" && !validTransportMode(payload.TransportMode) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown transport mode", "field": "transportMode"})
		return
	}

	profile, err := prefsStore.Get(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

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

	if err := prefsStore.Put(c.Request.Context(), userID, profile); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, toPreferencesResponse(userID, profile))
}

// RecordSwitchingEvent records a switching decision and updates the
// user's willingness-to-travel score
// POST /v1/users/:userId/switching-events
func RecordSwitchingEvent(c *gin.Context) {
	userID, ok := parseUserID(c)
	if !ok {
		return
	}
	if prefsStore == nil || prefsLearner == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Preference store not initialized"})
		return
	}

	var req SwitchingEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ev := prefs.SwitchingEvent{
		UserID:           userID,
		FromStoreID:      req.FromStoreID,
		ToStoreID:        req.ToStoreID,
		NetSavingShown:   req.NetSavingShown,
		DistanceKm:       req.DistanceKm,
		TravelTimeMin:    req.TravelTimeMin,
		Accepted:         req.Accepted,
		BasketItemCount:  req.BasketItemCount,
		BasketTotalValue: req.BasketTotalValue,
	}
	if req.CreatedAt != nil {
		ev.CreatedAt = *req.CreatedAt
	}

	before, err := prefsStore.Get(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	newScore, err := prefsStore.RecordSwitchingEvent(c.Request.Context(), ev, prefsLearner)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	compareMetrics.RecordWillingnessUpdate(newScore - before.WillingnessToTravel)

	high, low := learning.AdjustThresholds(engineConfig.ThresholdHigh, engineConfig.ThresholdLow, newScore)
	c.JSON(http.StatusOK, gin.H{
		"willingnessToTravel": newScore,
		"thresholdHigh":       high,
		"thresholdLow":        low,
	})
}

// parseUserID extracts and validates the userId path parameter, writing
// the error response itself on failure
func parseUserID(c *gin.Context) (int64, bool) {
	userID, err := strconv.ParseInt(c.Param("userId"), 10, 64)
	if err != nil || userID < 1 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "userId must be a positive integer"})
		return 0, false
	}
	return userID, true
}

func validTransportMode(mode string) bool {
	switch engine.TransportMode(mode) {
	case engine.ModeWalking, engine.ModeDriving, engine.ModeTransit, engine.ModeBicycling:
		return true
	}
	return false
}

func toPreferencesResponse(userID int64, p engine.Preferences) *PreferencesResponse {
	high, low := learning.AdjustThresholds(engineConfig.ThresholdHigh, engineConfig.ThresholdLow, p.WillingnessToTravel)
	return &PreferencesResponse{
		UserID:              userID,
		TransportMode:       string(p.TransportMode),
		PerKmCost:           p.PerKmCost,
		BaseTripCost:        p.BaseTripCost,
		ValueOfTimePerMin:   p.ValueOfTimePerMin,
		PreferredStoreID:    p.PreferredStoreID,
		LoyaltyPenalty:      p.LoyaltyPenalty,
		WillingnessToTravel: p.WillingnessToTravel,
		ThresholdHigh:       high,
		ThresholdLow:        low,
	}
}

package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/marketpadi/compare-service/internal/alerts"
	"github.com/marketpadi/compare-service/internal/engine"
)

// ============================================================================
// Price Alert Endpoints
// ============================================================================

// AlertRequest represents an alert creation request
type AlertRequest struct {
	ItemName      string   `json:"itemName" binding:"required"`
	CategoryID    *int64   `json:"categoryId,omitempty"`
	TargetPrice   *float64 `json:"targetPrice,omitempty"`
	MinNetSaving  *float64 `json:"minNetSaving,omitempty"`
	MaxDistanceKm float64  `json:"maxDistanceKm,omitempty"`
}

// AlertResponse represents a stored alert
type AlertResponse struct {
	ID            int64    `json:"id"`
	UserID        int64    `json:"userId"`
	ItemName      string   `json:"itemName"`
	CategoryID    *int64   `json:"categoryId,omitempty"`
	TargetPrice   *float64 `json:"targetPrice,omitempty"`
	MinNetSaving  *float64 `json:"minNetSaving,omitempty"`
	MaxDistanceKm float64  `json:"maxDistanceKm"`
	IsActive      bool     `json:"isActive"`
	TriggerCount  int      `json:"triggerCount"`
}

// TriggerResponse represents a fired alert
type TriggerResponse struct {
	AlertID   int64    `json:"alertId"`
	ItemName  string   `json:"itemName"`
	StoreID   int64    `json:"storeId"`
	StoreName string   `json:"storeName"`
	Reason    string   `json:"reason"`
	Price     *float64 `json:"price,omitempty"`
	NetSaving float64  `json:"netSaving"`
}

// EvaluateAlertsRequest runs a comparison and checks it against a user's
// active alerts
type EvaluateAlertsRequest struct {
	UserID      int64               `json:"userId" binding:"required,min=1"`
	Items       []*BasketItem       `json:"items" binding:"required,min=1,max=100,dive"`
	Location    *Location           `json:"location,omitempty"`
	Preferences *PreferencesPayload `json:"preferences,omitempty"`
}

// Global alert instances (initialized by the application)
var (
	alertStore     *alerts.PostgresStore
	alertEvaluator *alerts.Evaluator
)

// InitAlerts initializes the alert handler dependencies.
// This should be called during application startup.
func InitAlerts(store *alerts.PostgresStore, evaluator *alerts.Evaluator) {
	alertStore = store
	alertEvaluator = evaluator
}

// ListAlerts returns a user's price alerts
// GET /v1/users/:userId/alerts
func ListAlerts(c *gin.Context) {
	userID, ok := parseUserID(c)
	if !ok {
		return
	}
	if alertStore == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Alert store not initialized"})
		return
	}

	userAlerts, err := alertStore.List(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	response := make([]*AlertResponse, len(userAlerts))
	for i, a := range userAlerts {
		response[i] = toAlertResponse(a)
	}

	c.JSON(http.StatusOK, gin.H{
		"alerts": response,
		"total":  len(response),
	})
}

// CreateAlert creates a price alert for a user
// POST /v1/users/:userId/alerts
func CreateAlert(c *gin.Context) {
	userID, ok := parseUserID(c)
	if !ok {
		return
	}
	if alertStore == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Alert store not initialized"})
		return
	}

	var req AlertRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.TargetPrice == nil && req.MinNetSaving == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "at least one of targetPrice or minNetSaving is required"})
		return
	}
	if req.TargetPrice != nil && *req.TargetPrice <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "targetPrice must be positive", "field": "targetPrice"})
		return
	}
	if req.MaxDistanceKm < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "maxDistanceKm must be non-negative", "field": "maxDistanceKm"})
		return
	}

	alert := &alerts.Alert{
		UserID:        userID,
		ItemName:      req.ItemName,
		CategoryID:    req.CategoryID,
		TargetPrice:   req.TargetPrice,
		MinNetSaving:  req.MinNetSaving,
		MaxDistanceKm: req.MaxDistanceKm,
		IsActive:      true,
	}
	if err := alertStore.Create(c.Request.Context(), alert); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, toAlertResponse(*alert))
}

// EvaluateAlerts runs a basket comparison for a user and reports which of
// their active alerts fire
// POST /v1/alerts/evaluate
func EvaluateAlerts(c *gin.Context) {
	var req EvaluateAlertsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if comparer == nil || alertStore == nil || alertEvaluator == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Alert evaluator not initialized"})
		return
	}

	userAlerts, err := alertStore.List(c.Request.Context(), req.UserID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
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

	triggers, err := alertEvaluator.Evaluate(c.Request.Context(), userAlerts, engineReq.Items, result)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	response := make([]*TriggerResponse, len(triggers))
	for i, t := range triggers {
		response[i] = &TriggerResponse{
			AlertID:   t.Alert.ID,
			ItemName:  t.Alert.ItemName,
			StoreID:   t.StoreID,
			StoreName: t.StoreName,
			Reason:    t.Reason,
			Price:     t.Price,
			NetSaving: t.NetSaving,
		}
		if err := alertStore.MarkTriggered(c.Request.Context(), t.Alert.ID); err != nil {
			log.Warn().Err(err).Int64("alert_id", t.Alert.ID).Msg("failed to mark alert as triggered")
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"triggers": response,
		"total":    len(response),
	})
}

func toAlertResponse(a alerts.Alert) *AlertResponse {
	return &AlertResponse{
		ID:            a.ID,
		UserID:        a.UserID,
		ItemName:      a.ItemName,
		CategoryID:    a.CategoryID,
		TargetPrice:   a.TargetPrice,
		MinNetSaving:  a.MinNetSaving,
		MaxDistanceKm: a.MaxDistanceKm,
		IsActive:      a.IsActive,
		TriggerCount:  a.TriggerCount,
	}
}

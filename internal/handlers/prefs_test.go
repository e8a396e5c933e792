package handlers

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func bytesReader(b []byte) io.Reader {
	return bytes.NewBuffer(b)
}

func TestGetPreferencesLazyCreate(t *testing.T) {
	router, _ := setupCompareTest(t, defaultCatalog())

	req, _ := http.NewRequest("GET", "/v1/users/5/preferences", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)

	var response PreferencesResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.Equal(t, int64(5), response.UserID)
	assert.Equal(t, "driving", response.TransportMode)
	assert.Equal(t, 40.0, response.PerKmCost)
	assert.Equal(t, 0.5, response.WillingnessToTravel)
	// Neutral willingness keeps the base thresholds
	assert.Equal(t, 300.0, response.ThresholdHigh)
	assert.Equal(t, 100.0, response.ThresholdLow)
}

func TestGetPreferencesBadUserID(t *testing.T) {
	router, _ := setupCompareTest(t, defaultCatalog())

	for _, path := range []string{"/v1/users/abc/preferences", "/v1/users/0/preferences", "/v1/users/-3/preferences"} {
		req, _ := http.NewRequest("GET", path, nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		assert.Equal(t, http.StatusBadRequest, w.Code, "path %s", path)
	}
}

func TestUpdatePreferences(t *testing.T) {
	router, _ := setupCompareTest(t, defaultCatalog())

	perKm := 25.0
	preferred := int64(2)
	body, err := json.Marshal(PreferencesPayload{
		TransportMode:    "walking",
		PerKmCost:        &perKm,
		PreferredStoreID: &preferred,
	})
	require.NoError(t, err)

	req, _ := http.NewRequest("PUT", "/v1/users/5/preferences", bytesReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)

	var response PreferencesResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.Equal(t, "walking", response.TransportMode)
	assert.Equal(t, 25.0, response.PerKmCost)
	require.NotNil(t, response.PreferredStoreID)
	assert.Equal(t, int64(2), *response.PreferredStoreID)

	// Read back through GET
	req, _ = http.NewRequest("GET", "/v1/users/5/preferences", nil)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.Equal(t, "walking", response.TransportMode)
}

func TestUpdatePreferencesRejectsUnknownMode(t *testing.T) {
	router, _ := setupCompareTest(t, defaultCatalog())

	body, _ := json.Marshal(PreferencesPayload{TransportMode: "teleport"})
	req, _ := http.NewRequest("PUT", "/v1/users/5/preferences", bytesReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRecordSwitchingEventUpdatesScore(t *testing.T) {
	router, store := setupCompareTest(t, defaultCatalog())

	w := postJSON(t, router, "/v1/users/5/switching-events", SwitchingEventRequest{
		ToStoreID:      2,
		NetSavingShown: 100,
		DistanceKm:     10,
		Accepted:       true,
	})
	assert.Equal(t, http.StatusOK, w.Code)

	var response struct {
		WillingnessToTravel float64 `json:"willingnessToTravel"`
		ThresholdHigh       float64 `json:"thresholdHigh"`
		ThresholdLow        float64 `json:"thresholdLow"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.InDelta(t, 0.55, response.WillingnessToTravel, 1e-9)
	// scale = 1.5 - 0.55 = 0.95
	assert.InDelta(t, 285.0, response.ThresholdHigh, 1e-9)
	assert.InDelta(t, 95.0, response.ThresholdLow, 1e-9)

	events := store.Events(5)
	require.Len(t, events, 1)
	assert.Equal(t, int64(2), events[0].ToStoreID)
}

func TestRecordSwitchingEventValidation(t *testing.T) {
	router, _ := setupCompareTest(t, defaultCatalog())

	// Missing toStoreId
	w := postJSON(t, router, "/v1/users/5/switching-events", SwitchingEventRequest{
		NetSavingShown: 100,
		Accepted:       true,
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

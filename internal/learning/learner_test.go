package learning

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestUpdateIncrements(t *testing.T) {
	learner := NewHeuristicLearner()

	tests := []struct {
		name     string
		accepted bool
		net      float64
		km       float64
		want     float64
	}{
		// 100/(10+0.1) ≈ 9.9 per km: accepted a weak incentive, strong step up
		{"accepted low value per km", true, 100, 10, 0.55},
		// 1000/(5+0.1) ≈ 196 per km: accepted as expected, weak step up
		{"accepted high value per km", true, 1000, 5, 0.52},
		// 1000/(5+0.1) ≈ 196 per km: rejected a strong incentive, strong step down
		{"rejected high value per km", false, 1000, 5, 0.45},
		// 100/(10+0.1) ≈ 9.9 per km: rejected as expected, weak step down
		{"rejected low value per km", false, 100, 10, 0.48},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := learner.Update(0.5, Event{Accepted: tt.accepted, NetSavingShown: tt.net, DistanceKm: tt.km})
			assert.InDelta(t, tt.want, got, 1e-9)
		})
	}
}

func TestUpdateZeroDistance(t *testing.T) {
	learner := NewHeuristicLearner()

	// The epsilon keeps a same-location store from dividing by zero:
	// 10/(0+0.1) = 100 per km, not above the rejection cutoff
	got := learner.Update(0.5, Event{Accepted: false, NetSavingShown: 10, DistanceKm: 0})
	assert.InDelta(t, 0.48, got, 1e-9)
}

func TestUpdateClampsToBounds(t *testing.T) {
	learner := NewHeuristicLearner()

	score := 0.99
	for i := 0; i < 10; i++ {
		score = learner.Update(score, Event{Accepted: true, NetSavingShown: 10, DistanceKm: 10})
	}
	assert.Equal(t, 1.0, score)

	// Saturated score stays saturated
	assert.Equal(t, 1.0, learner.Update(1.0, Event{Accepted: true, NetSavingShown: 10, DistanceKm: 10}))

	score = 0.01
	for i := 0; i < 10; i++ {
		score = learner.Update(score, Event{Accepted: false, NetSavingShown: 1000, DistanceKm: 1})
	}
	assert.Equal(t, 0.0, score)
	assert.Equal(t, 0.0, learner.Update(0.0, Event{Accepted: false, NetSavingShown: 1000, DistanceKm: 1}))
}

func TestAdjustThresholds(t *testing.T) {
	// Neutral willingness leaves thresholds unchanged
	high, low := AdjustThresholds(300, 100, 0.5)
	assert.InDelta(t, 300.0, high, 1e-9)
	assert.InDelta(t, 100.0, low, 1e-9)

	// Fully willing halves them
	high, low = AdjustThresholds(300, 100, 1.0)
	assert.InDelta(t, 150.0, high, 1e-9)
	assert.InDelta(t, 50.0, low, 1e-9)

	// Fully unwilling grows them by half
	high, low = AdjustThresholds(300, 100, 0.0)
	assert.InDelta(t, 450.0, high, 1e-9)
	assert.InDelta(t, 150.0, low, 1e-9)
}

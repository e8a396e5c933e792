package engine

// TransportCost monetizes the trip to a store: fixed base cost plus a
// per-kilometre rate. Pure function, output is non-negative for
// non-negative inputs.
func TransportCost(distanceKm float64, prefs Preferences) float64 {
	return prefs.BaseTripCost + prefs.PerKmCost*distanceKm
}

// TimeCost monetizes travel time at the user's value-of-time rate.
func TimeCost(travelTimeMin float64, prefs Preferences) float64 {
	return travelTimeMin * prefs.ValueOfTimePerMin
}

// LoyaltyCost is the penalty for shopping away from the preferred store.
// Zero when no preferred store is set or the store is the preferred one.
func LoyaltyCost(storeID int64, prefs Preferences) float64 {
	if prefs.PreferredStoreID != nil && storeID != *prefs.PreferredStoreID {
		return prefs.LoyaltyPenalty
	}
	return 0
}

// VerdictFor classifies a net saving against a threshold ladder. The
// classification is a monotone step function: a larger net saving can
// only move the verdict upward.
func VerdictFor(netSaving, thresholdHigh, thresholdLow float64) Verdict {
	switch {
	case netSaving >= thresholdHigh:
		return VerdictWorthSwitching
	case netSaving >= thresholdLow:
		return VerdictMaybe
	default:
		return VerdictNotWorth
	}
}

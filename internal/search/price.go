package search

import (
	"encoding/json"

	"ai-travel-planner/internal/trip"
)

// ParsePrice converts a price as the search APIs report it ("$1,234", 118,
// "118.50") into a number. The boolean is false when nothing numeric is
// present.
func ParsePrice(raw any) (float64, bool) {
	switch v := raw.(type) {
	case float64:
		return v, true
	case int:
		return float64(v), true
	case json.Number:
		f, err := v.Float64()
		return f, err == nil
	case string:
		return trip.ParseAmount(v)
	default:
		return 0, false
	}
}

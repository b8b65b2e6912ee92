// Package agents holds the model-backed generators the planning pipeline
// drives: itinerary planner, hotel and flight recommenders and the formatter.
package agents

import (
	"bytes"
	"context"
	"embed"
	"encoding/json"
	"fmt"
	"strings"
	"text/template"
	"time"
	"unicode"

	"ai-travel-planner/internal/search"
	"ai-travel-planner/internal/shared"
	"ai-travel-planner/internal/trip"
)

//go:embed prompts/*.md
var promptFS embed.FS

// Agent names as they appear in execution logs and metrics.
const (
	PlannerAgentName   = "Planner"
	HotelAgentName     = "Hotel"
	FlightAgentName    = "Flight"
	FormatterAgentName = "Formatter"
)

// AttractionSearcher finds attractions at a destination.
type AttractionSearcher interface {
	SearchAttractions(ctx context.Context, destination string) ([]search.Attraction, error)
}

// HotelSearcher lists hotels for a stay.
type HotelSearcher interface {
	SearchHotels(ctx context.Context, destination string, checkIn, checkOut trip.Date, adults int, budget float64) ([]search.HotelListing, error)
}

// FlightSearcher lists priced round trips.
type FlightSearcher interface {
	SearchRoundTrips(ctx context.Context, origin, destination string, depart, ret trip.Date, adults int, budget float64) ([]search.RoundTrip, error)
}

func renderPrompt(name string, data any) (string, error) {
	raw, err := promptFS.ReadFile("prompts/" + name + ".md")
	if err != nil {
		return "", fmt.Errorf("failed to read %s prompt: %w", name, err)
	}

	tmpl, err := template.New(name).Parse(string(raw))
	if err != nil {
		return "", fmt.Errorf("failed to parse %s prompt: %w", name, err)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to render %s prompt: %w", name, err)
	}
	return buf.String(), nil
}

func toJSON(v any) string {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "null"
	}
	return string(b)
}

func newMeta(name string, usage shared.TokenUsage, start time.Time, steps []string) shared.AgentMeta {
	return shared.AgentMeta{
		AgentName: name,
		Usage:     usage,
		Latency:   time.Since(start),
		Steps:     steps,
	}
}

// NormalizeName reduces a hotel or place name to a lookup key: lower case
// letters and digits only.
func NormalizeName(name string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(name) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

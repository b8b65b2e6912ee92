package app

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"ai-travel-planner/internal/checker"
	"ai-travel-planner/internal/pipeline"
	"ai-travel-planner/internal/trip"
)

var ruleTitles = map[string]string{
	checker.RuleJSONFormat:         "JSON format",
	checker.RuleBudget:             "Budget",
	checker.RuleAttractionsCount:   "Attractions per day",
	checker.RuleHotelDistance:      "Hotel distance",
	checker.RuleFlightCompleteness: "Flight completeness",
}

// PrintBundle writes a console report of a planning session.
func PrintBundle(w io.Writer, b *pipeline.PlanBundle, verbose bool) {
	fmt.Fprintln(w, "\n=== TRAVEL PLAN ===")
	fmt.Fprintf(w, "Session: %s\n", b.SessionID)
	fmt.Fprintf(w, "Iterations: %d\n", b.Iterations)

	fmt.Fprintln(w, "\n=== CHECKS ===")
	PrintCheck(w, b.Check)

	if b.Summary != "" {
		fmt.Fprintln(w, "\n=== SUMMARY ===")
		fmt.Fprintln(w, b.Summary)
	} else {
		fmt.Fprintln(w, "\n=== ITINERARY ===")
		printItinerary(w, b.Itinerary)
		fmt.Fprintln(w, "\n=== HOTELS ===")
		printHotels(w, b.Hotels)
		fmt.Fprintln(w, "\n=== FLIGHTS ===")
		printFlights(w, b.Flights)
	}

	if !verbose {
		return
	}

	if len(b.History) > 0 {
		fmt.Fprintln(w, "\n=== ITERATIONS ===")
		for _, rec := range b.History {
			fmt.Fprintf(w, "Iteration %d: %s\n", rec.Iteration, rec.Check.Summary())
		}
	}

	if len(b.AgentMetas) > 0 {
		fmt.Fprintln(w, "\n=== AGENT EXECUTIONS ===")
		for _, m := range b.AgentMetas {
			fmt.Fprintf(w, "%-10s %6dms  %5d prompt / %5d completion tokens  %s\n",
				m.AgentName, m.Latency.Milliseconds(), m.Usage.PromptTokens, m.Usage.CompletionTokens, m.Usage.Model)
			for _, step := range m.Steps {
				fmt.Fprintf(w, "           - %s\n", step)
			}
		}
	}
}

// PrintCheck writes one line per rule followed by the overall verdict.
func PrintCheck(w io.Writer, r checker.Result) {
	for _, d := range r.Details {
		mark := "✅"
		if d.Status == checker.StatusFailed {
			mark = "❌"
		}
		title := ruleTitles[d.Rule]
		if title == "" {
			title = d.Rule
		}
		fmt.Fprintf(w, "  %s %s: %s\n", mark, title, d.Message)
	}

	if r.Passed {
		fmt.Fprintln(w, "All checks passed.")
		return
	}
	fmt.Fprintf(w, "%d problem(s) found:\n", len(r.Violations))
	for i, v := range r.Violations {
		fmt.Fprintf(w, "  %d. [%s] %s\n", i+1, v.Rule, v.Message)
	}
}

// PrintJSON writes the bundle as indented JSON.
func PrintJSON(w io.Writer, b *pipeline.PlanBundle) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(b)
}

func printItinerary(w io.Writer, it *trip.Itinerary) {
	if it == nil {
		fmt.Fprintln(w, "(none)")
		return
	}
	for _, day := range it.Days {
		fmt.Fprintf(w, "Day %d\n", day.Index)
		for i, slot := range day.Slots() {
			if len(slot) == 0 {
				continue
			}
			names := make([]string, len(slot))
			for j, a := range slot {
				names[j] = a.Name
			}
			fmt.Fprintf(w, "  %-10s %s\n", []string{"Morning:", "Afternoon:", "Evening:"}[i], strings.Join(names, ", "))
		}
	}
}

func printHotels(w io.Writer, h *trip.HotelResult) {
	if h == nil || len(h.Offers) == 0 {
		fmt.Fprintln(w, "(none)")
		return
	}
	for _, o := range h.Offers {
		fmt.Fprintf(w, "- %s: $%.2f/night, $%.2f total", o.Name, float64(o.PricePerNight), float64(o.TotalPrice))
		if o.DistanceKm != nil {
			fmt.Fprintf(w, ", %.1f km from itinerary center", *o.DistanceKm)
		}
		fmt.Fprintln(w)
		if o.Reason != "" {
			fmt.Fprintf(w, "  %s\n", o.Reason)
		}
	}
}

func printFlights(w io.Writer, f *trip.FlightResult) {
	if f == nil {
		fmt.Fprintln(w, "(none)")
		return
	}
	for _, leg := range []struct {
		name string
		leg  *trip.FlightLeg
	}{{"Outbound", f.Outbound}, {"Return", f.Return}} {
		fl, ok := leg.leg.First()
		if !ok {
			fmt.Fprintf(w, "%s: (none)\n", leg.name)
			continue
		}
		fmt.Fprintf(w, "%s: %s $%.2f, departs %s, arrives %s\n", leg.name, fl.Airline, float64(fl.Price), fl.DepartureTime, fl.ArrivalTime)
	}
}

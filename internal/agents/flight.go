package agents

import (
	"context"
	"fmt"
	"log"
	"sort"
	"strings"
	"time"

	"ai-travel-planner/internal/llm"
	"ai-travel-planner/internal/search"
	"ai-travel-planner/internal/shared"
	"ai-travel-planner/internal/trip"
)

// MaxRoundTripsInPrompt limits how many search combinations the model sees.
const MaxRoundTripsInPrompt = 15

// AirportResolver maps a city to its airport code.
type AirportResolver func(city string) (string, error)

// FlightAgent recommends outbound and return flights.
type FlightAgent struct {
	textGen  llm.TextGenerator
	flights  FlightSearcher
	airports AirportResolver
}

// NewFlightAgent creates a FlightAgent resolving cities with search.AirportFor.
func NewFlightAgent(textGen llm.TextGenerator, flights FlightSearcher) *FlightAgent {
	return &FlightAgent{textGen: textGen, flights: flights, airports: search.AirportFor}
}

type flightPromptData struct {
	Origin             string
	OriginAirport      string
	Destination        string
	DestinationAirport string
	Depart             string
	Return             string
	Travelers          int
	Budget             float64
	RoundTrips         string
}

// RecommendFlights searches round trips between the two cities and lets the
// model pick. When no round trip fits the budget, both legs come back empty
// without a model call. Unparsable model output falls back to the cheapest
// round trip.
func (f *FlightAgent) RecommendFlights(ctx context.Context, req trip.Request) (*trip.FlightResult, shared.AgentMeta, error) {
	start := time.Now()
	var steps []string

	from, err := f.airports(req.OriginCity)
	if err != nil {
		return nil, newMeta(FlightAgentName, shared.TokenUsage{}, start, steps), fmt.Errorf("failed to resolve origin airport: %w", err)
	}
	to, err := f.airports(req.DestinationCity)
	if err != nil {
		return nil, newMeta(FlightAgentName, shared.TokenUsage{}, start, steps), fmt.Errorf("failed to resolve destination airport: %w", err)
	}
	steps = append(steps, fmt.Sprintf("airports: %s -> %s", from, to))

	trips, err := f.flights.SearchRoundTrips(ctx, from, to, req.CheckIn, req.CheckOut, req.Travelers, req.Budget)
	if err != nil {
		return nil, newMeta(FlightAgentName, shared.TokenUsage{}, start, steps), fmt.Errorf("failed to search flights: %w", err)
	}
	steps = append(steps, fmt.Sprintf("search_round_trips: %d within budget", len(trips)))

	if len(trips) == 0 {
		return &trip.FlightResult{
			Outbound: &trip.FlightLeg{Destination: to},
			Return:   &trip.FlightLeg{Destination: from},
		}, newMeta(FlightAgentName, shared.TokenUsage{}, start, steps), nil
	}

	sort.SliceStable(trips, func(i, j int) bool { return trips[i].TotalPrice < trips[j].TotalPrice })
	if len(trips) > MaxRoundTripsInPrompt {
		trips = trips[:MaxRoundTripsInPrompt]
	}

	prompt, err := renderPrompt("flight", flightPromptData{
		Origin:             req.OriginCity,
		OriginAirport:      from,
		Destination:        req.DestinationCity,
		DestinationAirport: to,
		Depart:             req.CheckIn.String(),
		Return:             req.CheckOut.String(),
		Travelers:          req.Travelers,
		Budget:             req.Budget,
		RoundTrips:         toJSON(trips),
	})
	if err != nil {
		return nil, newMeta(FlightAgentName, shared.TokenUsage{}, start, steps), err
	}

	resp, err := f.textGen.GenerateContent(ctx, prompt)
	if err != nil {
		return nil, newMeta(FlightAgentName, shared.TokenUsage{}, start, steps), fmt.Errorf("failed to generate flight recommendations: %w", err)
	}
	steps = append(steps, "recommend_flights")

	result := &trip.FlightResult{}
	if err := llm.ExtractJSON(resp.Content, result); err != nil {
		log.Printf("Flight agent: unparsable model output, using cheapest round trip: %v", err)
		steps = append(steps, "fallback: cheapest round trip")
		return FallbackFlights(trips, from, to), newMeta(FlightAgentName, resp.Usage, start, steps), nil
	}

	return result, newMeta(FlightAgentName, resp.Usage, start, steps), nil
}

// FallbackFlights builds a result straight from the cheapest round trip.
func FallbackFlights(trips []search.RoundTrip, from, to string) *trip.FlightResult {
	result := &trip.FlightResult{
		Outbound: &trip.FlightLeg{Destination: to},
		Return:   &trip.FlightLeg{Destination: from},
	}
	if len(trips) == 0 {
		return result
	}

	best := trips[0]
	for _, t := range trips[1:] {
		if t.TotalPrice < best.TotalPrice {
			best = t
		}
	}
	result.Outbound.Flights = []trip.Flight{toFlight(best.Outbound)}
	result.Return.Flights = []trip.Flight{toFlight(best.Return)}
	return result
}

func toFlight(o search.FlightOption) trip.Flight {
	return trip.Flight{
		Airline:       strings.Join(o.Airlines, ", "),
		Price:         trip.Amount(o.Price),
		DepartureTime: o.DepartureTime,
		ArrivalTime:   o.ArrivalTime,
	}
}

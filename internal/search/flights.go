package search

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	"ai-travel-planner/internal/trip"
)

// FlightOption is one priced one-way itinerary. Price covers all travelers.
type FlightOption struct {
	Price            float64  `json:"price"`
	PriceDisplay     string   `json:"price_display"`
	Airlines         []string `json:"airlines"`
	DurationMinutes  int      `json:"total_duration"`
	DepartureAirport string   `json:"departure_airport"`
	DepartureTime    string   `json:"depart_time"`
	ArrivalAirport   string   `json:"arrival_airport"`
	ArrivalTime      string   `json:"arrival_time"`
}

// RoundTrip pairs an outbound and a return option.
type RoundTrip struct {
	TotalPrice float64      `json:"total_price"`
	Outbound   FlightOption `json:"outbound"`
	Return     FlightOption `json:"return"`
}

type serpAirport struct {
	ID   string `json:"id"`
	Time string `json:"time"`
}

type serpFlight struct {
	Price         any `json:"price"`
	TotalDuration int `json:"total_duration"`
	Flights       []struct {
		Airline          string      `json:"airline"`
		DepartureAirport serpAirport `json:"departure_airport"`
		ArrivalAirport   serpAirport `json:"arrival_airport"`
	} `json:"flights"`
}

type serpFlightsResponse struct {
	Error        string       `json:"error"`
	BestFlights  []serpFlight `json:"best_flights"`
	OtherFlights []serpFlight `json:"other_flights"`
}

// SearchOneWay lists one-way flights between two airports on a date.
// Options with no parsable price or no segments are skipped.
func (c *Client) SearchOneWay(ctx context.Context, from, to string, date trip.Date, adults int) ([]FlightOption, error) {
	params := url.Values{}
	params.Set("engine", "google_flights")
	params.Set("type", "2")
	params.Set("departure_id", from)
	params.Set("arrival_id", to)
	params.Set("outbound_date", date.String())
	params.Set("adults", strconv.Itoa(adults))
	params.Set("currency", "USD")
	params.Set("api_key", c.serpKey)

	var resp serpFlightsResponse
	if err := c.getJSON(ctx, c.serpURL, params, &resp); err != nil {
		return nil, fmt.Errorf("flight search %s->%s: %w", from, to, err)
	}
	if resp.Error != "" {
		return nil, fmt.Errorf("flight search %s->%s: %s", from, to, resp.Error)
	}

	var options []FlightOption
	for _, f := range append(resp.BestFlights, resp.OtherFlights...) {
		price, ok := ParsePrice(f.Price)
		if !ok || len(f.Flights) == 0 {
			continue
		}

		first, last := f.Flights[0], f.Flights[len(f.Flights)-1]
		var airlines []string
		seen := map[string]bool{}
		for _, seg := range f.Flights {
			if seg.Airline != "" && !seen[seg.Airline] {
				seen[seg.Airline] = true
				airlines = append(airlines, seg.Airline)
			}
		}

		options = append(options, FlightOption{
			Price:            price * float64(adults),
			PriceDisplay:     fmt.Sprint(f.Price),
			Airlines:         airlines,
			DurationMinutes:  f.TotalDuration,
			DepartureAirport: first.DepartureAirport.ID,
			DepartureTime:    first.DepartureAirport.Time,
			ArrivalAirport:   last.ArrivalAirport.ID,
			ArrivalTime:      last.ArrivalAirport.Time,
		})
	}
	return options, nil
}

// SearchRoundTrips searches both directions and pairs every outbound with
// every return whose combined price fits the budget.
func (c *Client) SearchRoundTrips(ctx context.Context, origin, destination string, depart, ret trip.Date, adults int, budget float64) ([]RoundTrip, error) {
	outbound, err := c.SearchOneWay(ctx, origin, destination, depart, adults)
	if err != nil {
		return nil, err
	}
	inbound, err := c.SearchOneWay(ctx, destination, origin, ret, adults)
	if err != nil {
		return nil, err
	}
	return CombineRoundTrips(outbound, inbound, budget), nil
}

// CombineRoundTrips pairs outbound and return options within budget.
func CombineRoundTrips(outbound, inbound []FlightOption, budget float64) []RoundTrip {
	var trips []RoundTrip
	for _, o := range outbound {
		for _, r := range inbound {
			total := o.Price + r.Price
			if total <= budget {
				trips = append(trips, RoundTrip{TotalPrice: total, Outbound: o, Return: r})
			}
		}
	}
	return trips
}

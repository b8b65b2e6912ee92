package trip

import "ai-travel-planner/internal/geo"

// HotelOffer is one recommended hotel.
type HotelOffer struct {
	Name          string   `json:"name"`
	PricePerNight Amount   `json:"price_per_night"`
	TotalPrice    Amount   `json:"total_price"`
	Rating        *float64 `json:"rating"`
	Lat           Degree   `json:"lat,omitzero"`
	Lng           Degree   `json:"lng,omitzero"`
	DistanceKm    *float64 `json:"distance_km,omitempty"`
	Reason        string   `json:"reason,omitempty"`
}

// Coordinate returns the hotel location when both components parse.
func (h HotelOffer) Coordinate() (geo.Coordinate, bool) {
	return Activity{Lat: h.Lat, Lng: h.Lng}.Coordinate()
}

// HotelResult is the hotel agent's shortlist. Offers are in recommendation order.
type HotelResult struct {
	Destination    string       `json:"destination"`
	Nights         int          `json:"nights"`
	BudgetPerNight Amount       `json:"hotel_budget_per_night"`
	Offers         []HotelOffer `json:"recommended_hotels"`
}

// Flight is one recommended flight.
type Flight struct {
	Airline       string `json:"airline"`
	Price         Amount `json:"price"`
	DepartureTime string `json:"departure_time,omitempty"`
	ArrivalTime   string `json:"arrival_time,omitempty"`
}

// FlightLeg holds the recommendations for one direction.
type FlightLeg struct {
	Destination string   `json:"destination,omitempty"`
	Flights     []Flight `json:"recommended_flights"`
}

// First returns the top recommended flight of the leg.
func (l *FlightLeg) First() (Flight, bool) {
	if l == nil || len(l.Flights) == 0 {
		return Flight{}, false
	}
	return l.Flights[0], true
}

// FlightResult is the flight agent's output.
type FlightResult struct {
	Outbound *FlightLeg `json:"outbound"`
	Return   *FlightLeg `json:"return"`
}

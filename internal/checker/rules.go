package checker

import (
	"fmt"
	"math"
	"strings"

	"ai-travel-planner/internal/geo"
	"ai-travel-planner/internal/trip"
)

func checkStructure(p Plan) outcome {
	var missing []string
	if p.Itinerary == nil {
		missing = append(missing, "itinerary")
	}
	if p.Hotels == nil {
		missing = append(missing, "hotels")
	}
	if p.Flights == nil {
		missing = append(missing, "flights")
	}

	if len(missing) > 0 {
		return outcome{
			violations: []Violation{{
				Rule:    RuleJSONFormat,
				Message: "Invalid result format, missing required fields: " + strings.Join(missing, ", "),
			}},
			detail: Detail{Rule: RuleJSONFormat, Status: StatusFailed, Message: "Invalid result format"},
		}
	}
	return passed(RuleJSONFormat, "JSON format validation passed")
}

// flightTotal is the price of the top outbound flight plus the top return
// flight. A leg without flights contributes nothing.
func flightTotal(flights *trip.FlightResult) (float64, error) {
	var total float64
	for _, leg := range []struct {
		name string
		leg  *trip.FlightLeg
	}{
		{"outbound", flights.Outbound},
		{"return", flights.Return},
	} {
		f, ok := leg.leg.First()
		if !ok {
			continue
		}
		if !f.Price.Valid() {
			return 0, fmt.Errorf("%s flight %q has no numeric price", leg.name, f.Airline)
		}
		total += float64(f.Price)
	}
	return total, nil
}

// hotelTotal averages the total stay price over every recommended offer.
func hotelTotal(hotels *trip.HotelResult) (float64, error) {
	if len(hotels.Offers) == 0 {
		return 0, nil
	}

	var sum float64
	for _, h := range hotels.Offers {
		if !h.TotalPrice.Valid() {
			return 0, fmt.Errorf("hotel %q has no numeric total price", h.Name)
		}
		sum += float64(h.TotalPrice)
	}
	return sum / float64(len(hotels.Offers)), nil
}

func checkBudget(p Plan) (outcome, error) {
	flights, err := flightTotal(p.Flights)
	if err != nil {
		return outcome{}, err
	}
	hotels, err := hotelTotal(p.Hotels)
	if err != nil {
		return outcome{}, err
	}

	other := (flights + hotels) * OtherExpensesRatio
	total := flights + hotels + other

	if total > p.Budget {
		return outcome{
			violations: []Violation{{
				Rule: RuleBudget,
				Message: fmt.Sprintf(
					"Total cost $%.2f exceeds budget $%.2f (flights: $%.2f, hotels: $%.2f, other expenses: $%.2f)",
					total, p.Budget, flights, hotels, other,
				),
			}},
			detail: Detail{
				Rule:    RuleBudget,
				Status:  StatusFailed,
				Message: fmt.Sprintf("Total cost $%.2f exceeds budget $%.2f", total, p.Budget),
			},
		}, nil
	}

	return passed(RuleBudget, fmt.Sprintf("Budget validation passed (total cost: $%.2f, budget: $%.2f)", total, p.Budget)), nil
}

func checkAttractionsCount(p Plan) (outcome, error) {
	var o outcome
	var issues []string

	for _, day := range p.Itinerary.Days {
		n := day.ActivityCount()
		switch {
		case n < MinActivitiesPerDay:
			o.violations = append(o.violations, Violation{
				Rule:    RuleAttractionsCount,
				Message: fmt.Sprintf("Day %d has no attractions (minimum %d required)", day.Index, MinActivitiesPerDay),
			})
			issues = append(issues, fmt.Sprintf("Day %d has no attractions", day.Index))
		case n > MaxActivitiesPerDay:
			o.violations = append(o.violations, Violation{
				Rule:    RuleAttractionsCount,
				Message: fmt.Sprintf("Day %d has %d attractions (maximum %d allowed)", day.Index, n, MaxActivitiesPerDay),
			})
			issues = append(issues, fmt.Sprintf("Day %d has %d attractions (exceeds %d)", day.Index, n, MaxActivitiesPerDay))
		}
	}

	if len(issues) > 0 {
		o.detail = Detail{Rule: RuleAttractionsCount, Status: StatusFailed, Message: strings.Join(issues, "; ")}
		return o, nil
	}
	return passed(RuleAttractionsCount, fmt.Sprintf(
		"All %d days have attractions count within limit (%d-%d)",
		len(p.Itinerary.Days), MinActivitiesPerDay, MaxActivitiesPerDay,
	)), nil
}

func checkHotelDistance(p Plan) (outcome, error) {
	var o outcome
	var issues []string

	// The centroid is only needed when some offer has no precomputed distance.
	var (
		centroid     geo.Coordinate
		haveCentroid bool
		computed     bool
	)
	itineraryCentroid := func() (geo.Coordinate, bool) {
		if !computed {
			centroid, haveCentroid = p.Itinerary.Centroid()
			computed = true
		}
		return centroid, haveCentroid
	}

	for _, h := range p.Hotels.Offers {
		name := h.Name
		if name == "" {
			name = "Unknown Hotel"
		}

		var distance float64
		if h.DistanceKm != nil && !math.IsNaN(*h.DistanceKm) && !math.IsInf(*h.DistanceKm, 0) {
			distance = *h.DistanceKm
		} else {
			loc, ok := h.Coordinate()
			if !ok {
				o.violations = append(o.violations, Violation{
					Rule:    RuleHotelDistance,
					Message: fmt.Sprintf("Hotel '%s' missing location information", name),
				})
				issues = append(issues, fmt.Sprintf("'%s' missing location information", name))
				continue
			}

			c, ok := itineraryCentroid()
			if !ok {
				o.violations = append(o.violations, Violation{
					Rule:    RuleHotelDistance,
					Message: fmt.Sprintf("Cannot calculate itinerary centroid, unable to validate distance for hotel '%s'", name),
				})
				issues = append(issues, "Cannot calculate centroid")
				continue
			}
			distance = geo.DistanceKm(loc, c)
		}

		if distance >= MaxHotelDistanceKm {
			o.violations = append(o.violations, Violation{
				Rule: RuleHotelDistance,
				Message: fmt.Sprintf(
					"Hotel '%s' is %.2f km from itinerary centroid, exceeds limit (%gkm)",
					name, distance, MaxHotelDistanceKm,
				),
			})
			issues = append(issues, fmt.Sprintf("'%s' distance %.2fkm", name, distance))
		}
	}

	if len(issues) > 0 {
		o.detail = Detail{Rule: RuleHotelDistance, Status: StatusFailed, Message: strings.Join(issues, "; ")}
		return o, nil
	}
	return passed(RuleHotelDistance, fmt.Sprintf(
		"All %d hotels are within %gkm of centroid", len(p.Hotels.Offers), MaxHotelDistanceKm,
	)), nil
}

func checkFlightCompleteness(p Plan) (outcome, error) {
	var o outcome
	var issues []string

	if _, ok := p.Flights.Outbound.First(); !ok {
		o.violations = append(o.violations, Violation{Rule: RuleFlightCompleteness, Message: "Missing outbound flight recommendation"})
		issues = append(issues, "Missing outbound flight")
	}
	if _, ok := p.Flights.Return.First(); !ok {
		o.violations = append(o.violations, Violation{Rule: RuleFlightCompleteness, Message: "Missing return flight recommendation"})
		issues = append(issues, "Missing return flight")
	}

	if len(issues) > 0 {
		o.detail = Detail{Rule: RuleFlightCompleteness, Status: StatusFailed, Message: strings.Join(issues, "; ")}
		return o, nil
	}
	return passed(RuleFlightCompleteness, "Both outbound and return flights are recommended"), nil
}

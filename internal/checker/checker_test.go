package checker

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ai-travel-planner/internal/trip"
)

func ptr(v float64) *float64 { return &v }

func activity(name string, lat, lng float64) trip.Activity {
	return trip.Activity{Name: name, Lat: trip.DegreeOf(lat), Lng: trip.DegreeOf(lng)}
}

func activities(n int) []trip.Activity {
	out := make([]trip.Activity, n)
	for i := range out {
		out[i] = activity("Spot", 0, 0)
	}
	return out
}

// validPlan is the end-to-end scenario: it costs exactly 300.
func validPlan() (*trip.Itinerary, *trip.HotelResult, *trip.FlightResult) {
	itinerary := &trip.Itinerary{
		Destination: "Null Island",
		Days: []trip.Day{{
			Index:     1,
			Morning:   []trip.Activity{activity("A", 0, 0)},
			Afternoon: []trip.Activity{activity("B", 0, 0)},
			Evening:   []trip.Activity{activity("C", 0, 0)},
		}},
	}
	hotels := &trip.HotelResult{
		Offers: []trip.HotelOffer{{Name: "Harbor Inn", TotalPrice: 100, DistanceKm: ptr(0)}},
	}
	flights := &trip.FlightResult{
		Outbound: &trip.FlightLeg{Flights: []trip.Flight{{Airline: "Alaska", Price: 50}}},
		Return:   &trip.FlightLeg{Flights: []trip.Flight{{Airline: "Alaska", Price: 50}}},
	}
	return itinerary, hotels, flights
}

func detailFor(t *testing.T, r Result, rule string) Detail {
	t.Helper()
	for _, d := range r.Details {
		if d.Rule == rule {
			return d
		}
	}
	t.Fatalf("no detail for rule %s", rule)
	return Detail{}
}

func violationsFor(r Result, rule string) []Violation {
	var out []Violation
	for _, v := range r.Violations {
		if v.Rule == rule {
			out = append(out, v)
		}
	}
	return out
}

func TestValidate_EndToEndScenario(t *testing.T) {
	itinerary, hotels, flights := validPlan()

	result := Validate(itinerary, hotels, flights, 300)

	assert.True(t, result.Passed)
	assert.Empty(t, result.Violations)
	require.Len(t, result.Details, 5)
	for i, rule := range []string{RuleJSONFormat, RuleBudget, RuleAttractionsCount, RuleHotelDistance, RuleFlightCompleteness} {
		assert.Equal(t, rule, result.Details[i].Rule)
		assert.Equal(t, StatusPassed, result.Details[i].Status)
	}
	assert.Equal(t, "all checks passed", result.Summary())
}

func TestValidate_StructuralShortCircuit(t *testing.T) {
	_, hotels, flights := validPlan()

	result := Validate(nil, hotels, flights, 300)

	assert.False(t, result.Passed)
	require.Len(t, result.Violations, 1)
	require.Len(t, result.Details, 1)
	assert.Equal(t, RuleJSONFormat, result.Violations[0].Rule)
	assert.Contains(t, result.Violations[0].Message, "itinerary")
	assert.Equal(t, StatusFailed, result.Details[0].Status)
}

func TestValidate_Budget(t *testing.T) {
	t.Run("EqualToBudgetPasses", func(t *testing.T) {
		itinerary, hotels, flights := validPlan()
		result := Validate(itinerary, hotels, flights, 300)
		assert.Equal(t, StatusPassed, detailFor(t, result, RuleBudget).Status)
	})

	t.Run("OverBudgetFails", func(t *testing.T) {
		itinerary, hotels, flights := validPlan()
		result := Validate(itinerary, hotels, flights, 299.99)

		assert.False(t, result.Passed)
		v := violationsFor(result, RuleBudget)
		require.Len(t, v, 1)
		assert.Contains(t, v[0].Message, "300.00")
		assert.Contains(t, v[0].Message, "299.99")
		assert.Contains(t, v[0].Message, "flights: $100.00")
		assert.Contains(t, v[0].Message, "hotels: $100.00")
		assert.Contains(t, v[0].Message, "other expenses: $100.00")
	})

	t.Run("HotelPriceIsAveraged", func(t *testing.T) {
		itinerary, hotels, flights := validPlan()
		hotels.Offers = []trip.HotelOffer{
			{Name: "Cheap", TotalPrice: 50, DistanceKm: ptr(1)},
			{Name: "Fancy", TotalPrice: 150, DistanceKm: ptr(1)},
		}
		result := Validate(itinerary, hotels, flights, 300)
		assert.Equal(t, StatusPassed, detailFor(t, result, RuleBudget).Status)
	})

	t.Run("MissingFlightsCountAsZero", func(t *testing.T) {
		itinerary, hotels, _ := validPlan()
		result := Validate(itinerary, hotels, &trip.FlightResult{}, 150)
		assert.Equal(t, StatusPassed, detailFor(t, result, RuleBudget).Status)
		assert.Len(t, violationsFor(result, RuleFlightCompleteness), 2)
	})

	t.Run("UnparsablePriceIsContained", func(t *testing.T) {
		itinerary, hotels, flights := validPlan()
		flights.Outbound.Flights[0].Price = trip.Amount(math.NaN())

		result := Validate(itinerary, hotels, flights, 300)

		v := violationsFor(result, RuleBudget)
		require.Len(t, v, 1)
		assert.Contains(t, v[0].Message, "Budget validation failed")
		// Sibling rules still ran.
		assert.Len(t, result.Details, 5)
		assert.Equal(t, StatusPassed, detailFor(t, result, RuleFlightCompleteness).Status)
	})
}

func TestValidate_AttractionsCount(t *testing.T) {
	cases := []struct {
		name     string
		count    int
		wantPass bool
		wantMsg  string
	}{
		{"One", 1, true, ""},
		{"Five", 5, true, ""},
		{"Zero", 0, false, "minimum 1"},
		{"Six", 6, false, "maximum 5"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			itinerary, hotels, flights := validPlan()
			itinerary.Days = []trip.Day{{Index: 1, Morning: activities(tc.count)}}

			result := Validate(itinerary, hotels, flights, 1000)

			d := detailFor(t, result, RuleAttractionsCount)
			v := violationsFor(result, RuleAttractionsCount)
			if tc.wantPass {
				assert.Equal(t, StatusPassed, d.Status)
				assert.Empty(t, v)
				return
			}
			assert.Equal(t, StatusFailed, d.Status)
			require.Len(t, v, 1)
			assert.Contains(t, v[0].Message, tc.wantMsg)
		})
	}

	t.Run("EachOffendingDayIsReported", func(t *testing.T) {
		itinerary, hotels, flights := validPlan()
		itinerary.Days = []trip.Day{
			{Index: 1},
			{Index: 2, Morning: activities(2), Evening: activities(1)},
			{Index: 3, Morning: activities(3), Afternoon: activities(2), Evening: activities(2)},
		}

		result := Validate(itinerary, hotels, flights, 1000)

		v := violationsFor(result, RuleAttractionsCount)
		require.Len(t, v, 2)
		assert.Contains(t, v[0].Message, "Day 1")
		assert.Contains(t, v[1].Message, "Day 3 has 7 attractions")
		assert.Equal(t, "Day 1 has no attractions; Day 3 has 7 attractions (exceeds 5)",
			detailFor(t, result, RuleAttractionsCount).Message)
	})
}

func TestValidate_HotelDistance(t *testing.T) {
	t.Run("ExactlyTenKmFails", func(t *testing.T) {
		itinerary, hotels, flights := validPlan()
		hotels.Offers[0].DistanceKm = ptr(10.0)

		result := Validate(itinerary, hotels, flights, 300)

		v := violationsFor(result, RuleHotelDistance)
		require.Len(t, v, 1)
		assert.Contains(t, v[0].Message, "10.00 km")
	})

	t.Run("JustUnderTenKmPasses", func(t *testing.T) {
		itinerary, hotels, flights := validPlan()
		hotels.Offers[0].DistanceKm = ptr(9.99)

		result := Validate(itinerary, hotels, flights, 300)

		assert.Equal(t, StatusPassed, detailFor(t, result, RuleHotelDistance).Status)
	})

	t.Run("ComputedFromCoordinates", func(t *testing.T) {
		itinerary, hotels, flights := validPlan()
		// 0.0899 degrees of latitude is just under 10 km; 0.09 is just over.
		hotels.Offers = []trip.HotelOffer{
			{Name: "Near", TotalPrice: 100, Lat: trip.DegreeOf(0.0899), Lng: trip.DegreeOf(0)},
			{Name: "Far", TotalPrice: 100, Lat: trip.RawDegree("0.09"), Lng: trip.RawDegree("0")},
		}

		result := Validate(itinerary, hotels, flights, 300)

		v := violationsFor(result, RuleHotelDistance)
		require.Len(t, v, 1)
		assert.Contains(t, v[0].Message, "'Far'")
		assert.Contains(t, v[0].Message, "10.01 km")
	})

	t.Run("MissingLocation", func(t *testing.T) {
		itinerary, hotels, flights := validPlan()
		hotels.Offers = []trip.HotelOffer{{Name: "Mystery Motel", TotalPrice: 100}}

		result := Validate(itinerary, hotels, flights, 300)

		v := violationsFor(result, RuleHotelDistance)
		require.Len(t, v, 1)
		assert.Equal(t, "Hotel 'Mystery Motel' missing location information", v[0].Message)
	})

	t.Run("NoCentroid", func(t *testing.T) {
		itinerary, hotels, flights := validPlan()
		itinerary.Days = []trip.Day{{Index: 1, Morning: []trip.Activity{{Name: "Somewhere"}}}}
		hotels.Offers = []trip.HotelOffer{
			{Name: "Pinned", TotalPrice: 100, Lat: trip.DegreeOf(1), Lng: trip.DegreeOf(1)},
			{Name: "Precomputed", TotalPrice: 100, DistanceKm: ptr(2)},
		}

		result := Validate(itinerary, hotels, flights, 1000)

		v := violationsFor(result, RuleHotelDistance)
		require.Len(t, v, 1)
		assert.Contains(t, v[0].Message, "unable to validate distance for hotel 'Pinned'")
		assert.Equal(t, "Cannot calculate centroid", detailFor(t, result, RuleHotelDistance).Message)
	})
}

func TestValidate_FlightCompleteness(t *testing.T) {
	itinerary, hotels, _ := validPlan()
	flights := &trip.FlightResult{
		Outbound: &trip.FlightLeg{},
		Return:   nil,
	}

	result := Validate(itinerary, hotels, flights, 1000)

	v := violationsFor(result, RuleFlightCompleteness)
	require.Len(t, v, 2)
	assert.Equal(t, "Missing outbound flight recommendation", v[0].Message)
	assert.Equal(t, "Missing return flight recommendation", v[1].Message)
	assert.Equal(t, "Missing outbound flight; Missing return flight", detailFor(t, result, RuleFlightCompleteness).Message)
	assert.Equal(t, []string{RuleFlightCompleteness}, result.FailedRules())
}

func TestRunRule_ContainsPanicsAndErrors(t *testing.T) {
	itinerary, hotels, flights := validPlan()
	plan := Plan{Itinerary: itinerary, Hotels: hotels, Flights: flights, Budget: 300}

	t.Run("Panic", func(t *testing.T) {
		o := runRule(rule{id: RuleHotelDistance, check: func(Plan) (outcome, error) {
			var offers []trip.HotelOffer
			_ = offers[3]
			return outcome{}, nil
		}}, plan)

		require.Len(t, o.violations, 1)
		assert.Equal(t, RuleHotelDistance, o.violations[0].Rule)
		assert.Contains(t, o.violations[0].Message, "Hotel distance validation failed: panic")
		assert.Equal(t, StatusFailed, o.detail.Status)
	})

	t.Run("Error", func(t *testing.T) {
		sentinel := errors.New("boom")
		o := runRule(rule{id: RuleBudget, check: func(Plan) (outcome, error) {
			return outcome{}, sentinel
		}}, plan)

		require.Len(t, o.violations, 1)
		assert.Equal(t, "Budget validation failed: boom", o.violations[0].Message)
	})
}

func TestValidator_ConcurrentMatchesSequential(t *testing.T) {
	itinerary, hotels, flights := validPlan()
	itinerary.Days = append(itinerary.Days, trip.Day{Index: 2})
	hotels.Offers = append(hotels.Offers, trip.HotelOffer{Name: "Far", TotalPrice: 500, DistanceKm: ptr(25)})
	flights.Return = nil

	sequential := NewValidator().Validate(itinerary, hotels, flights, 300)
	concurrent := NewValidator(WithConcurrentRules()).Validate(itinerary, hotels, flights, 300)

	assert.Equal(t, sequential, concurrent)
	assert.False(t, concurrent.Passed)
	assert.Equal(t, []string{RuleBudget, RuleAttractionsCount, RuleHotelDistance, RuleFlightCompleteness}, concurrent.FailedRules())
}

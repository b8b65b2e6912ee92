package agents

import (
	"context"
	"errors"
	"strings"
	"testing"

	"ai-travel-planner/internal/checker"
	"ai-travel-planner/internal/geo"
	"ai-travel-planner/internal/llm"
	"ai-travel-planner/internal/pipeline"
	"ai-travel-planner/internal/search"
	"ai-travel-planner/internal/shared"
	"ai-travel-planner/internal/trip"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// MockTextGenerator answers by prompt heading and remembers the prompts it saw.
type MockTextGenerator struct {
	responses map[string]string
	err       error
	prompts   []string
}

func (m *MockTextGenerator) GenerateContent(ctx context.Context, prompt string) (llm.ContentResponse, error) {
	m.prompts = append(m.prompts, prompt)
	if m.err != nil {
		return llm.ContentResponse{}, m.err
	}
	for heading, content := range m.responses {
		if strings.Contains(prompt, heading) {
			return llm.ContentResponse{
				Content: content,
				Usage:   shared.TokenUsage{PromptTokens: 100, CompletionTokens: 50, TotalTokens: 150, Model: "mock"},
			}, nil
		}
	}
	return llm.ContentResponse{Content: "no idea"}, nil
}

type mockSearch struct {
	attractions []search.Attraction
	hotels      []search.HotelListing
	trips       []search.RoundTrip
	err         error

	gotFrom, gotTo string
}

func (m *mockSearch) SearchAttractions(ctx context.Context, destination string) ([]search.Attraction, error) {
	return m.attractions, m.err
}

func (m *mockSearch) SearchHotels(ctx context.Context, destination string, checkIn, checkOut trip.Date, adults int, budget float64) ([]search.HotelListing, error) {
	return m.hotels, m.err
}

func (m *mockSearch) SearchRoundTrips(ctx context.Context, origin, destination string, depart, ret trip.Date, adults int, budget float64) ([]search.RoundTrip, error) {
	m.gotFrom, m.gotTo = origin, destination
	return m.trips, m.err
}

func testRequest(t *testing.T) trip.Request {
	t.Helper()
	req, err := trip.NewRequest("St. Louis", "Phoenix", "2026-01-10", "2026-01-13", 1, 800)
	require.NoError(t, err)
	return req
}

func ptr(v float64) *float64 { return &v }

func TestNormalizeName(t *testing.T) {
	assert.Equal(t, "hiltongardeninnphoenixdowntown", NormalizeName("  Hilton Garden Inn - Phoenix/Downtown "))
	assert.Equal(t, "thecambyautographcollection", NormalizeName("The Camby, Autograph Collection"))
	assert.Equal(t, NormalizeName("Children's Museum"), NormalizeName("childrens museum"))
	assert.Equal(t, NormalizeName("Grand Hyatt"), NormalizeName("GrandHyatt"))
}

func TestPlannerGenerateItinerary(t *testing.T) {
	gen := &MockTextGenerator{responses: map[string]string{
		"# Travel Planner Agent Prompt": "```json\n" + `{
			"destination": "Phoenix",
			"days": [
				{"day_index": 1, "date": "DAY 1",
				 "morning": [{"name": "Heard Museum", "lat": "33.4725814", "lng": "-112.0722331"}],
				 "afternoon": [{"name": "Phoenix Zoo"}],
				 "evening": []}
			]
		}` + "\n```",
	}}
	searcher := &mockSearch{attractions: []search.Attraction{
		{Name: "Heard Museum", Lat: 33.47, Lng: -112.07, Reviews: 9000},
		{Name: "Phoenix Zoo", Lat: 33.45, Lng: -111.947, Reviews: 20000},
	}}

	planner := NewPlanner(gen, searcher)
	itinerary, meta, err := planner.GenerateItinerary(context.Background(), testRequest(t))
	require.NoError(t, err)

	assert.Equal(t, PlannerAgentName, meta.AgentName)
	assert.Equal(t, 150, meta.Usage.TotalTokens)
	require.Len(t, itinerary.Days, 1)

	lat, ok := itinerary.Days[0].Morning[0].Lat.Float()
	require.True(t, ok)
	assert.Equal(t, 33.4725814, lat, "model coordinates are kept")

	zoo, ok := itinerary.Days[0].Afternoon[0].Coordinate()
	require.True(t, ok, "missing coordinates are backfilled from search")
	assert.Equal(t, geo.Coordinate{Lat: 33.45, Lng: -111.947}, zoo)

	require.Len(t, gen.prompts, 1)
	assert.Contains(t, gen.prompts[0], "Heard Museum")
	assert.Contains(t, gen.prompts[0], "(3 days)")
	assert.Contains(t, gen.prompts[0], "at most 4 attractions per day")
}

func TestPlannerErrors(t *testing.T) {
	t.Run("SearchFailure", func(t *testing.T) {
		planner := NewPlanner(&MockTextGenerator{}, &mockSearch{err: errors.New("quota")})
		_, _, err := planner.GenerateItinerary(context.Background(), testRequest(t))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "quota")
	})

	t.Run("WrongShapeOutput", func(t *testing.T) {
		gen := &MockTextGenerator{responses: map[string]string{
			"# Travel Planner Agent Prompt": `["not", "an", "itinerary object"]`,
		}}
		itinerary, meta, err := NewPlanner(gen, nil).GenerateItinerary(context.Background(), testRequest(t))
		require.NoError(t, err)
		assert.Nil(t, itinerary)
		assert.Equal(t, PlannerAgentName, meta.AgentName)
		assert.Equal(t, 150, meta.Usage.TotalTokens)
	})

	t.Run("ModelFailure", func(t *testing.T) {
		planner := NewPlanner(&MockTextGenerator{err: errors.New("boom")}, nil)
		_, _, err := planner.GenerateItinerary(context.Background(), testRequest(t))
		require.Error(t, err)
	})
}

func TestHotelAgentRecommendHotels(t *testing.T) {
	gen := &MockTextGenerator{responses: map[string]string{
		"# Hotel Recommender Agent Prompt": `{
			"destination": "Phoenix",
			"nights": 3,
			"hotel_budget_per_night": 120,
			"recommended_hotels": [
				{"name": "The Camby, Autograph Collection", "price_per_night": 110, "total_price": 330, "reason": "central"},
				{"name": "Unknown Motel", "price_per_night": "$80", "total_price": 240}
			]
		}`,
	}}
	searcher := &mockSearch{hotels: []search.HotelListing{
		{Name: "The Camby Autograph Collection", PricePerNight: 110, TotalPrice: 330, Rating: ptr(4.5), Lat: ptr(33.45), Lng: ptr(-112.07)},
	}}

	itinerary := &trip.Itinerary{Days: []trip.Day{{
		Index:   1,
		Morning: []trip.Activity{{Name: "Heard Museum", Lat: trip.DegreeOf(33.45), Lng: trip.DegreeOf(-112.07)}},
	}}}

	agent := NewHotelAgent(gen, searcher)
	result, meta, err := agent.RecommendHotels(context.Background(), testRequest(t), itinerary)
	require.NoError(t, err)
	assert.Equal(t, HotelAgentName, meta.AgentName)
	require.Len(t, result.Offers, 2)

	camby := result.Offers[0]
	_, located := camby.Coordinate()
	assert.True(t, located, "coordinates backfilled through the normalized name")
	require.NotNil(t, camby.DistanceKm)
	assert.InDelta(t, 0, *camby.DistanceKm, 1e-9)
	require.NotNil(t, camby.Rating)
	assert.Equal(t, 4.5, *camby.Rating)

	motel := result.Offers[1]
	assert.Equal(t, trip.Amount(80), motel.PricePerNight)
	assert.Nil(t, motel.DistanceKm)

	assert.Contains(t, gen.prompts[0], "centroid is at lat 33.450000")
	assert.Contains(t, gen.prompts[0], `"distance_km": 0`)
}

func TestHotelAgentWrongShapeOutput(t *testing.T) {
	gen := &MockTextGenerator{responses: map[string]string{
		"# Hotel Recommender Agent Prompt": `{"recommended_hotels": "none"}`,
	}}
	result, meta, err := NewHotelAgent(gen, &mockSearch{}).RecommendHotels(context.Background(), testRequest(t), nil)
	require.NoError(t, err)
	assert.Nil(t, result)
	assert.Equal(t, HotelAgentName, meta.AgentName)
}

func TestPipelineRetriesWrongShapeItinerary(t *testing.T) {
	gen := &MockTextGenerator{responses: map[string]string{
		"# Travel Planner Agent Prompt": `["not", "an", "itinerary object"]`,
		"# Hotel Recommender Agent Prompt": `{"recommended_hotels": [{"name": "Inn", "price_per_night": 100, "total_price": 300}]}`,
		"# Flight Recommender Agent Prompt": `{
			"outbound": {"destination": "PHX", "recommended_flights": [{"airline": "Southwest", "price": 140}]},
			"return": {"destination": "STL", "recommended_flights": [{"airline": "American", "price": 160}]}
		}`,
	}}
	searcher := &mockSearch{trips: []search.RoundTrip{{TotalPrice: 300}}}

	p := pipeline.New(
		NewPlanner(gen, nil),
		NewHotelAgent(gen, searcher),
		NewFlightAgent(gen, searcher),
		pipeline.WithValidator(checker.NewValidator()),
	)
	bundle, err := p.Run(context.Background(), testRequest(t), pipeline.Options{Verbose: true})
	require.NoError(t, err)

	assert.False(t, bundle.Passed)
	assert.Equal(t, pipeline.MaxAttempts, bundle.Iterations)
	require.Len(t, bundle.History, pipeline.MaxAttempts)
	for _, rec := range bundle.History {
		require.Len(t, rec.Check.Violations, 1)
		assert.Equal(t, checker.RuleJSONFormat, rec.Check.Violations[0].Rule)
	}

	planned := 0
	for _, prompt := range gen.prompts {
		if strings.Contains(prompt, "# Travel Planner Agent Prompt") {
			planned++
		}
	}
	assert.Equal(t, pipeline.MaxAttempts, planned)
}

func TestEnrichHotelOffersWithoutCentroid(t *testing.T) {
	result := &trip.HotelResult{Offers: []trip.HotelOffer{{Name: "Inn"}}}
	matched := EnrichHotelOffers(result, []search.HotelListing{{Name: "inn", PricePerNight: 90, TotalPrice: 270, Lat: ptr(1), Lng: ptr(2)}}, geo.Coordinate{}, false)

	assert.Equal(t, 1, matched)
	assert.Equal(t, trip.Amount(90), result.Offers[0].PricePerNight)
	assert.Equal(t, trip.Amount(270), result.Offers[0].TotalPrice)
	assert.Nil(t, result.Offers[0].DistanceKm)
}

func TestFlightAgentRecommendFlights(t *testing.T) {
	trips := []search.RoundTrip{
		{TotalPrice: 500, Outbound: search.FlightOption{Price: 250, Airlines: []string{"Delta"}}, Return: search.FlightOption{Price: 250, Airlines: []string{"Delta"}}},
		{TotalPrice: 300, Outbound: search.FlightOption{Price: 140, Airlines: []string{"Southwest"}, DepartureTime: "08:00"}, Return: search.FlightOption{Price: 160, Airlines: []string{"American", "Alaska"}}},
	}

	t.Run("ModelPicks", func(t *testing.T) {
		gen := &MockTextGenerator{responses: map[string]string{
			"# Flight Recommender Agent Prompt": `{
				"outbound": {"destination": "PHX", "recommended_flights": [{"airline": "Southwest", "price": 140}]},
				"return": {"destination": "STL", "recommended_flights": [{"airline": "American", "price": "$160"}]}
			}`,
		}}
		searcher := &mockSearch{trips: append([]search.RoundTrip(nil), trips...)}

		result, meta, err := NewFlightAgent(gen, searcher).RecommendFlights(context.Background(), testRequest(t))
		require.NoError(t, err)
		assert.Equal(t, "STL", searcher.gotFrom)
		assert.Equal(t, "PHX", searcher.gotTo)
		assert.Equal(t, FlightAgentName, meta.AgentName)

		ret, ok := result.Return.First()
		require.True(t, ok)
		assert.Equal(t, trip.Amount(160), ret.Price)
		assert.Less(t, strings.Index(gen.prompts[0], "Southwest"), strings.Index(gen.prompts[0], "Delta"), "cheapest first")
	})

	t.Run("FallbackOnUnparsableOutput", func(t *testing.T) {
		gen := &MockTextGenerator{}
		result, _, err := NewFlightAgent(gen, &mockSearch{trips: trips}).RecommendFlights(context.Background(), testRequest(t))
		require.NoError(t, err)

		out, ok := result.Outbound.First()
		require.True(t, ok)
		assert.Equal(t, "Southwest", out.Airline)
		ret, _ := result.Return.First()
		assert.Equal(t, "American, Alaska", ret.Airline)
	})

	t.Run("NoTripsWithinBudget", func(t *testing.T) {
		gen := &MockTextGenerator{}
		result, _, err := NewFlightAgent(gen, &mockSearch{}).RecommendFlights(context.Background(), testRequest(t))
		require.NoError(t, err)
		assert.Empty(t, gen.prompts, "no model call without candidates")
		_, ok := result.Outbound.First()
		assert.False(t, ok)
	})

	t.Run("UnknownCity", func(t *testing.T) {
		req, err := trip.NewRequest("Atlantis", "Phoenix", "2026-01-10", "2026-01-13", 1, 800)
		require.NoError(t, err)
		_, _, err = NewFlightAgent(&MockTextGenerator{}, &mockSearch{}).RecommendFlights(context.Background(), req)
		require.Error(t, err)
	})
}

func TestFormatterSummarize(t *testing.T) {
	gen := &MockTextGenerator{responses: map[string]string{
		"# Travel Formatter Agent Prompt": "```\nYour trip to Phoenix\n```",
	}}
	bundle := &pipeline.PlanBundle{
		Request:   testRequest(t),
		Itinerary: &trip.Itinerary{Destination: "Phoenix"},
		Check: checker.Result{
			Violations: []checker.Violation{{Rule: checker.RuleBudget, Message: "over"}},
			Details:    []checker.Detail{{Rule: checker.RuleBudget, Status: checker.StatusFailed, Message: "over"}},
		},
	}

	summary, meta, err := NewFormatter(gen).Summarize(context.Background(), bundle)
	require.NoError(t, err)
	assert.Equal(t, "Your trip to Phoenix", summary)
	assert.Equal(t, FormatterAgentName, meta.AgentName)
	assert.Contains(t, gen.prompts[0], "did not pass every automated check (budget)")
	assert.Contains(t, gen.prompts[0], `"destination_city": "Phoenix"`)
}

func TestFormatterDescribeAttractions(t *testing.T) {
	gen := &MockTextGenerator{responses: map[string]string{
		"# Attraction Descriptions Prompt": `{"Heard Museum": "Native American art.", "phoenix zoo": "Animals."}`,
	}}
	itinerary := &trip.Itinerary{Destination: "Phoenix", Days: []trip.Day{{
		Index:     1,
		Morning:   []trip.Activity{{Name: "Heard Museum"}},
		Afternoon: []trip.Activity{{Name: "Phoenix Zoo"}, {Name: "Heard Museum"}},
	}}}

	_, err := NewFormatter(gen).DescribeAttractions(context.Background(), itinerary)
	require.NoError(t, err)
	assert.Equal(t, "Native American art.", itinerary.Days[0].Morning[0].Description)
	assert.Equal(t, "Animals.", itinerary.Days[0].Afternoon[0].Description)
	assert.Equal(t, 1, strings.Count(gen.prompts[0], "- Heard Museum"))
}

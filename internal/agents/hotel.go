package agents

import (
	"context"
	"fmt"
	"log"
	"math"
	"time"

	"ai-travel-planner/internal/geo"
	"ai-travel-planner/internal/llm"
	"ai-travel-planner/internal/search"
	"ai-travel-planner/internal/shared"
	"ai-travel-planner/internal/trip"
)

// HotelAgent recommends hotels near the itinerary.
type HotelAgent struct {
	textGen llm.TextGenerator
	hotels  HotelSearcher
}

// NewHotelAgent creates a HotelAgent.
func NewHotelAgent(textGen llm.TextGenerator, hotels HotelSearcher) *HotelAgent {
	return &HotelAgent{textGen: textGen, hotels: hotels}
}

type hotelCandidate struct {
	search.HotelListing
	DistanceKm *float64 `json:"distance_km,omitempty"`
}

type hotelPromptData struct {
	Destination string
	CheckIn     string
	CheckOut    string
	Nights      int
	Travelers   int
	Budget      float64
	HasCentroid bool
	CentroidLat float64
	CentroidLng float64
	Listings    string
}

// RecommendHotels searches hotels for the stay, ranks them with the model and
// enriches the answer with search coordinates and distance to the itinerary
// centroid.
func (h *HotelAgent) RecommendHotels(ctx context.Context, req trip.Request, itinerary *trip.Itinerary) (*trip.HotelResult, shared.AgentMeta, error) {
	start := time.Now()
	var steps []string

	listings, err := h.hotels.SearchHotels(ctx, req.DestinationCity, req.CheckIn, req.CheckOut, req.Travelers, req.Budget)
	if err != nil {
		return nil, newMeta(HotelAgentName, shared.TokenUsage{}, start, steps), fmt.Errorf("failed to search hotels: %w", err)
	}
	steps = append(steps, fmt.Sprintf("search_hotels(%s): %d results", req.DestinationCity, len(listings)))

	centroid, hasCentroid := itinerary.Centroid()
	if hasCentroid {
		steps = append(steps, fmt.Sprintf("itinerary centroid: %.5f,%.5f", centroid.Lat, centroid.Lng))
	}

	candidates := make([]hotelCandidate, len(listings))
	for i, l := range listings {
		candidates[i] = hotelCandidate{HotelListing: l}
		if hasCentroid {
			candidates[i].DistanceKm = listingDistance(l, centroid)
		}
	}

	prompt, err := renderPrompt("hotel", hotelPromptData{
		Destination: req.DestinationCity,
		CheckIn:     req.CheckIn.String(),
		CheckOut:    req.CheckOut.String(),
		Nights:      req.Nights(),
		Travelers:   req.Travelers,
		Budget:      req.Budget,
		HasCentroid: hasCentroid,
		CentroidLat: centroid.Lat,
		CentroidLng: centroid.Lng,
		Listings:    toJSON(candidates),
	})
	if err != nil {
		return nil, newMeta(HotelAgentName, shared.TokenUsage{}, start, steps), err
	}

	resp, err := h.textGen.GenerateContent(ctx, prompt)
	if err != nil {
		return nil, newMeta(HotelAgentName, shared.TokenUsage{}, start, steps), fmt.Errorf("failed to generate hotel recommendations: %w", err)
	}
	steps = append(steps, "recommend_hotels")

	result := &trip.HotelResult{}
	if err := llm.ExtractJSON(resp.Content, result); err != nil {
		log.Printf("Hotel agent: unparsable recommendations: %v", err)
		steps = append(steps, "unparsable recommendations")
		return nil, newMeta(HotelAgentName, resp.Usage, start, steps), nil
	}
	if result.Destination == "" {
		result.Destination = req.DestinationCity
	}
	if result.Nights == 0 {
		result.Nights = req.Nights()
	}

	if n := EnrichHotelOffers(result, listings, centroid, hasCentroid); n > 0 {
		steps = append(steps, fmt.Sprintf("backfilled %d hotel offers from search results", n))
	}

	return result, newMeta(HotelAgentName, resp.Usage, start, steps), nil
}

// EnrichHotelOffers fills missing coordinates and prices of recommended
// offers from the matching search listing and, when the centroid is known,
// records each located offer's distance to it. It returns how many offers
// were matched to a listing.
func EnrichHotelOffers(result *trip.HotelResult, listings []search.HotelListing, centroid geo.Coordinate, hasCentroid bool) int {
	byName := make(map[string]search.HotelListing, len(listings))
	for _, l := range listings {
		byName[NormalizeName(l.Name)] = l
	}

	matched := 0
	for i := range result.Offers {
		offer := &result.Offers[i]

		if l, ok := byName[NormalizeName(offer.Name)]; ok {
			matched++
			if _, located := offer.Coordinate(); !located && l.Lat != nil && l.Lng != nil {
				offer.Lat = trip.DegreeOf(*l.Lat)
				offer.Lng = trip.DegreeOf(*l.Lng)
			}
			if !offer.PricePerNight.Valid() || offer.PricePerNight == 0 {
				offer.PricePerNight = trip.Amount(l.PricePerNight)
			}
			if !offer.TotalPrice.Valid() || offer.TotalPrice == 0 {
				offer.TotalPrice = trip.Amount(l.TotalPrice)
			}
			if offer.Rating == nil {
				offer.Rating = l.Rating
			}
		}

		if !hasCentroid {
			continue
		}
		if c, ok := offer.Coordinate(); ok {
			d := geo.DistanceKm(c, centroid)
			if !math.IsNaN(d) {
				offer.DistanceKm = &d
			}
		}
	}
	return matched
}

func listingDistance(l search.HotelListing, centroid geo.Coordinate) *float64 {
	if l.Lat == nil || l.Lng == nil {
		return nil
	}
	d := geo.DistanceKm(geo.Coordinate{Lat: *l.Lat, Lng: *l.Lng}, centroid)
	if math.IsNaN(d) {
		return nil
	}
	d = math.Round(d*100) / 100
	return &d
}

package agents

import (
	"context"
	"fmt"
	"log"
	"time"

	"ai-travel-planner/internal/llm"
	"ai-travel-planner/internal/search"
	"ai-travel-planner/internal/shared"
	"ai-travel-planner/internal/trip"
)

// MaxAttractionsPerDay is the cap the planner is asked to respect. The
// checker accepts slightly fuller days.
const MaxAttractionsPerDay = 4

// Planner proposes day-by-day itineraries from searched attractions.
type Planner struct {
	textGen     llm.TextGenerator
	attractions AttractionSearcher
}

// NewPlanner creates a Planner. attractions may be nil, in which case the
// model picks attractions on its own.
func NewPlanner(textGen llm.TextGenerator, attractions AttractionSearcher) *Planner {
	return &Planner{textGen: textGen, attractions: attractions}
}

type plannerPromptData struct {
	Destination string
	CheckIn     string
	CheckOut    string
	Days        int
	Travelers   int
	MaxPerDay   int
	Attractions string
}

// GenerateItinerary searches attractions for the destination and asks the
// model to arrange them into days.
func (p *Planner) GenerateItinerary(ctx context.Context, req trip.Request) (*trip.Itinerary, shared.AgentMeta, error) {
	start := time.Now()
	var steps []string

	var found []search.Attraction
	if p.attractions != nil {
		var err error
		found, err = p.attractions.SearchAttractions(ctx, req.DestinationCity)
		if err != nil {
			return nil, newMeta(PlannerAgentName, shared.TokenUsage{}, start, steps), fmt.Errorf("failed to search attractions: %w", err)
		}
		steps = append(steps, fmt.Sprintf("search_attractions(%s): %d results", req.DestinationCity, len(found)))
	}

	data := plannerPromptData{
		Destination: req.DestinationCity,
		CheckIn:     req.CheckIn.String(),
		CheckOut:    req.CheckOut.String(),
		Days:        max(req.Nights(), 1),
		Travelers:   req.Travelers,
		MaxPerDay:   MaxAttractionsPerDay,
	}
	if len(found) > 0 {
		data.Attractions = toJSON(found)
	}

	prompt, err := renderPrompt("planner", data)
	if err != nil {
		return nil, newMeta(PlannerAgentName, shared.TokenUsage{}, start, steps), err
	}

	resp, err := p.textGen.GenerateContent(ctx, prompt)
	if err != nil {
		return nil, newMeta(PlannerAgentName, shared.TokenUsage{}, start, steps), fmt.Errorf("failed to generate itinerary: %w", err)
	}
	steps = append(steps, "generate_itinerary")

	// Wrong-shape output becomes a missing itinerary, which the checker rejects.
	itinerary := &trip.Itinerary{}
	if err := llm.ExtractJSON(resp.Content, itinerary); err != nil {
		log.Printf("Planner agent: unparsable itinerary: %v", err)
		steps = append(steps, "unparsable itinerary")
		return nil, newMeta(PlannerAgentName, resp.Usage, start, steps), nil
	}
	if itinerary.Destination == "" {
		itinerary.Destination = req.DestinationCity
	}

	if n := backfillActivityCoordinates(itinerary, found); n > 0 {
		steps = append(steps, fmt.Sprintf("backfilled coordinates for %d activities", n))
	}

	return itinerary, newMeta(PlannerAgentName, resp.Usage, start, steps), nil
}

// backfillActivityCoordinates copies search coordinates onto activities the
// model left without a usable location.
func backfillActivityCoordinates(it *trip.Itinerary, found []search.Attraction) int {
	if len(found) == 0 {
		return 0
	}

	byName := make(map[string]search.Attraction, len(found))
	for _, a := range found {
		byName[NormalizeName(a.Name)] = a
	}

	filled := 0
	for d := range it.Days {
		day := &it.Days[d]
		for _, slot := range []*[]trip.Activity{&day.Morning, &day.Afternoon, &day.Evening} {
			for i := range *slot {
				act := &(*slot)[i]
				if _, ok := act.Coordinate(); ok {
					continue
				}
				if a, ok := byName[NormalizeName(act.Name)]; ok {
					act.Lat = trip.DegreeOf(a.Lat)
					act.Lng = trip.DegreeOf(a.Lng)
					filled++
				}
			}
		}
	}
	return filled
}

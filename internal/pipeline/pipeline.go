// Package pipeline drives the bounded generate-then-validate loop around the
// itinerary, hotel and flight agents.
package pipeline

import (
	"context"
	"log"

	"github.com/google/uuid"

	"ai-travel-planner/internal/checker"
	"ai-travel-planner/internal/shared"
	"ai-travel-planner/internal/trip"
)

// MaxAttempts bounds the number of generate/validate rounds per session.
const MaxAttempts = 2

// Generation stages, as reported by GenerationError.
const (
	StageItinerary = "itinerary"
	StageHotels    = "hotels"
	StageFlights   = "flights"
)

// ItineraryGenerator proposes a day-by-day itinerary.
type ItineraryGenerator interface {
	GenerateItinerary(ctx context.Context, req trip.Request) (*trip.Itinerary, shared.AgentMeta, error)
}

// HotelRecommender shortlists hotels for an itinerary.
type HotelRecommender interface {
	RecommendHotels(ctx context.Context, req trip.Request, itinerary *trip.Itinerary) (*trip.HotelResult, shared.AgentMeta, error)
}

// FlightRecommender shortlists outbound and return flights.
type FlightRecommender interface {
	RecommendFlights(ctx context.Context, req trip.Request) (*trip.FlightResult, shared.AgentMeta, error)
}

// Summarizer turns a finished bundle into user-facing text.
type Summarizer interface {
	Summarize(ctx context.Context, bundle *PlanBundle) (string, shared.AgentMeta, error)
}

// Validator judges a generated plan.
type Validator interface {
	Validate(itinerary *trip.Itinerary, hotels *trip.HotelResult, flights *trip.FlightResult, totalBudget float64) checker.Result
}

// MetaRecorder receives the metadata of every agent execution.
type MetaRecorder interface {
	RecordMeta(meta shared.AgentMeta) error
}

// Options are the per-call settings of Run.
type Options struct {
	// Verbose keeps the iteration history and agent execution log in the
	// returned bundle.
	Verbose bool
}

// Pipeline orchestrates one planning session per Run call. It holds no
// per-session state and can serve concurrent sessions.
type Pipeline struct {
	itineraries ItineraryGenerator
	hotels      HotelRecommender
	flights     FlightRecommender
	validator   Validator
	summarizer  Summarizer
	recorder    MetaRecorder
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithValidator replaces the default sequential checker.
func WithValidator(v Validator) Option {
	return func(p *Pipeline) { p.validator = v }
}

// WithSummarizer enables the best-effort summary step.
func WithSummarizer(s Summarizer) Option {
	return func(p *Pipeline) { p.summarizer = s }
}

// WithMetaRecorder forwards agent metadata, e.g. to the metrics store.
func WithMetaRecorder(r MetaRecorder) Option {
	return func(p *Pipeline) { p.recorder = r }
}

// New creates a Pipeline from its three generation stages.
func New(itineraries ItineraryGenerator, hotels HotelRecommender, flights FlightRecommender, opts ...Option) *Pipeline {
	p := &Pipeline{
		itineraries: itineraries,
		hotels:      hotels,
		flights:     flights,
		validator:   checker.NewValidator(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Run generates and validates a plan, regenerating from scratch when the
// checks fail, up to MaxAttempts. A failing final attempt is still returned,
// with Passed=false. A failed generation stage aborts the session with a
// *GenerationError.
func (p *Pipeline) Run(ctx context.Context, req trip.Request, opts Options) (*PlanBundle, error) {
	bundle := &PlanBundle{
		SessionID: uuid.NewString(),
		Request:   req,
	}

	for attempt := 1; attempt <= MaxAttempts; attempt++ {
		log.Printf("[%s] attempt %d/%d: generating plan for %s -> %s",
			bundle.SessionID, attempt, MaxAttempts, req.OriginCity, req.DestinationCity)

		if err := p.generate(ctx, req, attempt, bundle); err != nil {
			return nil, err
		}

		result := p.validator.Validate(bundle.Itinerary, bundle.Hotels, bundle.Flights, req.Budget)
		bundle.Check = result
		bundle.Iterations = attempt
		bundle.History = append(bundle.History, IterationRecord{
			Iteration: attempt,
			Itinerary: bundle.Itinerary,
			Hotels:    bundle.Hotels,
			Flights:   bundle.Flights,
			Check:     result,
		})

		log.Printf("[%s] attempt %d/%d: %s", bundle.SessionID, attempt, MaxAttempts, result.Summary())
		if result.Passed {
			break
		}
	}
	bundle.Passed = bundle.Check.Passed

	if !bundle.Passed {
		log.Printf("[%s] returning best-effort plan after %d attempts", bundle.SessionID, bundle.Iterations)
	}

	if p.summarizer != nil {
		summary, meta, err := p.summarizer.Summarize(ctx, bundle)
		p.record(bundle, meta)
		if err != nil {
			log.Printf("[%s] Warning: summary unavailable: %v", bundle.SessionID, err)
		} else {
			bundle.Summary = summary
		}
	}

	if !opts.Verbose {
		bundle.History = nil
		bundle.AgentMetas = nil
	}
	return bundle, nil
}

// generate runs the stages strictly in order; the hotel stage consumes the
// itinerary.
func (p *Pipeline) generate(ctx context.Context, req trip.Request, attempt int, bundle *PlanBundle) error {
	itinerary, meta, err := p.itineraries.GenerateItinerary(ctx, req)
	p.record(bundle, meta)
	if err != nil {
		return &GenerationError{Stage: StageItinerary, Attempt: attempt, Err: err}
	}

	hotels, meta, err := p.hotels.RecommendHotels(ctx, req, itinerary)
	p.record(bundle, meta)
	if err != nil {
		return &GenerationError{Stage: StageHotels, Attempt: attempt, Err: err}
	}

	flights, meta, err := p.flights.RecommendFlights(ctx, req)
	p.record(bundle, meta)
	if err != nil {
		return &GenerationError{Stage: StageFlights, Attempt: attempt, Err: err}
	}

	bundle.Itinerary = itinerary
	bundle.Hotels = hotels
	bundle.Flights = flights
	return nil
}

func (p *Pipeline) record(bundle *PlanBundle, meta shared.AgentMeta) {
	if meta.AgentName == "" {
		return
	}
	bundle.AgentMetas = append(bundle.AgentMetas, meta)

	if p.recorder == nil {
		return
	}
	if err := p.recorder.RecordMeta(meta); err != nil {
		log.Printf("Warning: failed to record metrics for %s: %v", meta.AgentName, err)
	}
}

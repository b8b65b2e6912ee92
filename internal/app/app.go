// Package app wires the planning pipeline to its collaborators and exposes the
// use cases shared by the CLI, the HTTP API and the Telegram bot.
package app

import (
	"context"
	"fmt"
	"log"

	"ai-travel-planner/internal/metrics"
	"ai-travel-planner/internal/pipeline"
	"ai-travel-planner/internal/shared"
	"ai-travel-planner/internal/trip"
)

// TripPlanner runs one planning session.
type TripPlanner interface {
	Run(ctx context.Context, req trip.Request, opts pipeline.Options) (*pipeline.PlanBundle, error)
}

// SessionRecorder persists session outcomes.
type SessionRecorder interface {
	RecordSession(ctx context.Context, outcome metrics.SessionOutcome) error
}

// AttractionDescriber adds short descriptions to itinerary activities.
type AttractionDescriber interface {
	DescribeAttractions(ctx context.Context, itinerary *trip.Itinerary) (shared.AgentMeta, error)
}

// PlanOptions are the caller-facing knobs of PlanTrip.
type PlanOptions struct {
	Verbose  bool
	Describe bool
}

// App holds the application's dependencies.
type App struct {
	planner   TripPlanner
	sessions  SessionRecorder
	describer AttractionDescriber
	metas     pipeline.MetaRecorder
	closers   []func() error
}

// Option configures an App.
type Option func(*App)

// WithSessionRecorder stores one outcome row per session.
func WithSessionRecorder(r SessionRecorder) Option {
	return func(a *App) { a.sessions = r }
}

// WithDescriber enables attraction descriptions.
func WithDescriber(d AttractionDescriber, metas pipeline.MetaRecorder) Option {
	return func(a *App) {
		a.describer = d
		a.metas = metas
	}
}

// NewApp creates and initializes a new App instance.
func NewApp(planner TripPlanner, opts ...Option) *App {
	a := &App{planner: planner}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// PlanTrip runs a planning session and records its outcome. The bundle is
// returned even when validation failed; only generation failures are errors.
func (a *App) PlanTrip(ctx context.Context, req trip.Request, opts PlanOptions) (*pipeline.PlanBundle, error) {
	bundle, err := a.planner.Run(ctx, req, pipeline.Options{Verbose: opts.Verbose})
	if err != nil {
		return nil, fmt.Errorf("failed to plan trip: %w", err)
	}

	if opts.Describe && a.describer != nil && bundle.Itinerary != nil {
		meta, err := a.describer.DescribeAttractions(ctx, bundle.Itinerary)
		if err != nil {
			log.Printf("[%s] Warning: attraction descriptions unavailable: %v", bundle.SessionID, err)
		}
		if a.metas != nil && meta.AgentName != "" {
			if err := a.metas.RecordMeta(meta); err != nil {
				log.Printf("Warning: failed to record metrics for %s: %v", meta.AgentName, err)
			}
		}
		if opts.Verbose && meta.AgentName != "" {
			bundle.AgentMetas = append(bundle.AgentMetas, meta)
		}
	}

	if a.sessions != nil {
		if err := a.sessions.RecordSession(ctx, OutcomeFromBundle(bundle)); err != nil {
			log.Printf("[%s] Warning: failed to record session outcome: %v", bundle.SessionID, err)
		}
	}
	return bundle, nil
}

// Close releases the resources opened by NewFromConfig.
func (a *App) Close() error {
	var first error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// OutcomeFromBundle reduces a bundle to its persisted verdict.
func OutcomeFromBundle(b *pipeline.PlanBundle) metrics.SessionOutcome {
	return metrics.SessionOutcome{
		SessionID:       b.SessionID,
		OriginCity:      b.Request.OriginCity,
		DestinationCity: b.Request.DestinationCity,
		CheckIn:         b.Request.CheckIn.String(),
		CheckOut:        b.Request.CheckOut.String(),
		Travelers:       b.Request.Travelers,
		Budget:          b.Request.Budget,
		Passed:          b.Passed,
		Iterations:      b.Iterations,
		ViolationCount:  len(b.Check.Violations),
		FailedRules:     b.Check.FailedRules(),
	}
}

package app

import (
	"context"
	"fmt"
	"log"

	"ai-travel-planner/internal/agents"
	"ai-travel-planner/internal/checker"
	"ai-travel-planner/internal/config"
	"ai-travel-planner/internal/database"
	"ai-travel-planner/internal/llm"
	"ai-travel-planner/internal/metrics"
	"ai-travel-planner/internal/pipeline"
	"ai-travel-planner/internal/search"
)

// Components are the long-lived pieces NewFromConfig builds.
type Components struct {
	App     *App
	DB      *database.DB
	Metrics *metrics.Store
}

// NewFromConfig opens the database and builds every agent, the pipeline and
// the App. Groq backs the JSON-producing agents when configured; Gemini
// covers whatever Groq does not.
func NewFromConfig(ctx context.Context, cfg *config.Config) (*Components, error) {
	db, err := database.NewDB(cfg.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	store := metrics.NewStore(db.SQL)

	var closers []func() error
	closers = append(closers, db.Close)

	var planGen, formatGen llm.TextGenerator
	if cfg.GroqAPIKey != "" {
		planGen = llm.NewGroqClient(cfg, llm.ModelPlanner, 0.2, llm.WithJSONMode())
		formatGen = llm.NewGroqClient(cfg, llm.ModelFormatter, 0.5)
	}
	if cfg.GeminiAPIKey != "" {
		gemini, err := llm.NewGeminiClient(ctx, cfg)
		if err != nil {
			db.Close()
			return nil, err
		}
		closers = append(closers, gemini.Close)
		if planGen == nil {
			planGen = gemini
		}
		if formatGen == nil {
			formatGen = gemini
		}
	}
	if planGen == nil {
		db.Close()
		return nil, fmt.Errorf("no language model configured")
	}

	searchClient := search.NewClient(cfg)
	var attractions agents.AttractionSearcher
	if cfg.GoogleMapsAPIKey != "" {
		attractions = searchClient
	} else {
		log.Println("GOOGLE_MAPS_API_KEY not set; the planner will pick attractions without search")
	}

	formatter := agents.NewFormatter(formatGen)
	p := pipeline.New(
		agents.NewPlanner(planGen, attractions),
		agents.NewHotelAgent(planGen, searchClient),
		agents.NewFlightAgent(planGen, searchClient),
		pipeline.WithValidator(checker.NewValidator(checker.WithConcurrentRules())),
		pipeline.WithSummarizer(formatter),
		pipeline.WithMetaRecorder(store),
	)

	a := NewApp(p,
		WithSessionRecorder(store),
		WithDescriber(formatter, store),
	)
	a.closers = closers

	return &Components{App: a, DB: db, Metrics: store}, nil
}

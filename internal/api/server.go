// Package api exposes the planner over HTTP.
package api

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"ai-travel-planner/internal/app"
	"ai-travel-planner/internal/config"
	"ai-travel-planner/internal/metrics"
	"ai-travel-planner/internal/pipeline"
	"ai-travel-planner/internal/trip"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humafiber"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
)

// DefaultCORSOrigins are the local frontend dev servers.
const DefaultCORSOrigins = "http://localhost:5173,http://127.0.0.1:5173"

// TripPlanner runs planning sessions.
type TripPlanner interface {
	PlanTrip(ctx context.Context, req trip.Request, opts app.PlanOptions) (*pipeline.PlanBundle, error)
}

// StatsSource reports recent usage.
type StatsSource interface {
	GetDailyUsage(days int) ([]metrics.DailyUsage, error)
	GetSessionStats(days int) (metrics.SessionStats, error)
}

// Server is the HTTP front end.
type Server struct {
	app     *fiber.App
	planner TripPlanner
	stats   StatsSource
}

// PlanRequestBody is what the frontend posts.
type PlanRequestBody struct {
	OriginCity      string  `json:"origin_city" minLength:"1" doc:"Origin city name" example:"Seattle"`
	DestinationCity string  `json:"destination_city" minLength:"1" doc:"Destination city name" example:"New York"`
	DepartureDate   string  `json:"departure_date" doc:"Departure (check-in) date, YYYY-MM-DD" example:"2026-01-10"`
	ReturnDate      string  `json:"return_date" doc:"Return (check-out) date, YYYY-MM-DD" example:"2026-01-15"`
	NumPeople       int     `json:"num_people" minimum:"1" doc:"Number of travelers"`
	Budget          float64 `json:"budget" exclusiveMinimum:"0" doc:"Total budget in USD"`
}

// PlanInput wraps the request body.
type PlanInput struct {
	Body PlanRequestBody
}

// PlanOutput returns the bundle.
type PlanOutput struct {
	Body *pipeline.PlanBundle
}

// StatsOutput reports recent usage and session outcomes.
type StatsOutput struct {
	Body struct {
		Days          int                  `json:"days"`
		Sessions      int                  `json:"sessions"`
		Passed        int                  `json:"passed"`
		PassRate      float64              `json:"pass_rate"`
		AvgIterations float64              `json:"avg_iterations"`
		TopFailures   map[string]int       `json:"top_failures"`
		Usage         []metrics.DailyUsage `json:"usage"`
	}
}

// StatsInput selects the reporting window.
type StatsInput struct {
	Days int `query:"days" default:"7" minimum:"1" maximum:"365"`
}

// NewServer builds the fiber app, its middleware and the huma routes.
// stats may be nil.
func NewServer(cfg *config.Config, planner TripPlanner, stats StatsSource) *Server {
	s := &Server{planner: planner, stats: stats}

	s.app = fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			var e *fiber.Error
			if errors.As(err, &e) {
				code = e.Code
			}
			return c.Status(code).JSON(fiber.Map{"detail": err.Error()})
		},
		// Planning makes several model and search calls.
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 5 * time.Minute,
	})

	origins := cfg.CORSAllowOrigins
	if origins == "" {
		origins = DefaultCORSOrigins
	}
	s.app.Use(logger.New())
	s.app.Use(recover.New())
	s.app.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     "GET,POST,OPTIONS",
		AllowHeaders:     "Origin,Content-Type,Accept,Authorization",
		AllowCredentials: origins != "*",
	}))

	if cfg.APIJWTSecret != "" {
		s.app.Use("/api", BearerAuth([]byte(cfg.APIJWTSecret)))
	} else {
		log.Println("API_JWT_SECRET not set; /api routes are unauthenticated")
	}

	s.app.Get("/", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"message": "Travel Planner API is running"})
	})

	humaCfg := huma.DefaultConfig("Travel Planner API", "1.0.0")
	humaCfg.OpenAPI.Info.Description = "Generate validated travel plans: itinerary, hotels and flights."
	api := humafiber.New(s.app, humaCfg)

	huma.Register(api, huma.Operation{
		OperationID: "createTravelPlan",
		Method:      fiber.MethodPost,
		Path:        "/api/plan",
		Summary:     "Create a travel plan",
		Tags:        []string{"plan"},
	}, s.plan(false))

	huma.Register(api, huma.Operation{
		OperationID: "createTravelPlanVerbose",
		Method:      fiber.MethodPost,
		Path:        "/api/plan/verbose",
		Summary:     "Create a travel plan with iteration history and agent execution log",
		Tags:        []string{"plan"},
	}, s.plan(true))

	if stats != nil {
		huma.Register(api, huma.Operation{
			OperationID: "getStats",
			Method:      fiber.MethodGet,
			Path:        "/api/stats",
			Summary:     "Usage and validation statistics",
			Tags:        []string{"stats"},
		}, s.getStats)
	}

	return s
}

// App returns the underlying fiber app.
func (s *Server) App() *fiber.App {
	return s.app
}

// Listen serves on addr until Shutdown.
func (s *Server) Listen(addr string) error {
	return s.app.Listen(addr)
}

// Shutdown stops the server, waiting for in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.app.ShutdownWithContext(ctx)
}

func (s *Server) plan(verbose bool) func(context.Context, *PlanInput) (*PlanOutput, error) {
	return func(ctx context.Context, input *PlanInput) (*PlanOutput, error) {
		b := input.Body
		req, err := trip.NewRequest(b.OriginCity, b.DestinationCity, b.DepartureDate, b.ReturnDate, b.NumPeople, b.Budget)
		if err != nil {
			return nil, huma.Error400BadRequest(err.Error())
		}

		bundle, err := s.planner.PlanTrip(ctx, req, app.PlanOptions{Verbose: verbose})
		if err != nil {
			log.Printf("Error generating plan: %v", err)
			return nil, huma.Error500InternalServerError(fmt.Sprintf("Error generating plan: %v", unwrapPlanError(err)))
		}
		return &PlanOutput{Body: bundle}, nil
	}
}

func (s *Server) getStats(ctx context.Context, input *StatsInput) (*StatsOutput, error) {
	usage, err := s.stats.GetDailyUsage(input.Days)
	if err != nil {
		return nil, huma.Error500InternalServerError("failed to load usage", err)
	}
	sessions, err := s.stats.GetSessionStats(input.Days)
	if err != nil {
		return nil, huma.Error500InternalServerError("failed to load session stats", err)
	}

	out := &StatsOutput{}
	out.Body.Days = input.Days
	out.Body.Sessions = sessions.Total
	out.Body.Passed = sessions.Passed
	out.Body.PassRate = sessions.PassRate()
	out.Body.AvgIterations = sessions.AvgIterations
	out.Body.TopFailures = sessions.TopFailures
	out.Body.Usage = usage
	return out, nil
}

// unwrapPlanError drops the outer "failed to plan trip" wrapper so clients
// see the stage that failed.
func unwrapPlanError(err error) error {
	var genErr *pipeline.GenerationError
	if errors.As(err, &genErr) {
		return genErr
	}
	return err
}

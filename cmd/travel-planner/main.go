package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"ai-travel-planner/internal/api"
	"ai-travel-planner/internal/app"
	"ai-travel-planner/internal/config"
	"ai-travel-planner/internal/database"
	"ai-travel-planner/internal/metrics"
	"ai-travel-planner/internal/trip"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	cfg, err := config.NewFromEnv()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	switch os.Args[1] {
	case "plan":
		runPlan(ctx, cfg, os.Args[2:])
	case "interactive":
		runInteractive(ctx, cfg, os.Args[2:])
	case "serve":
		runServe(ctx, cfg)
	case "token":
		runToken(cfg, os.Args[2:])
	case "metrics-cleanup":
		cleanupCmd := flag.NewFlagSet("metrics-cleanup", flag.ExitOnError)
		days := cleanupCmd.Int("days", 30, "Keep records for the last N days")
		cleanupCmd.Parse(os.Args[2:])

		db, err := database.NewDB(cfg.DatabasePath)
		if err != nil {
			log.Fatalf("Failed to open database: %v", err)
		}
		mStore := metrics.NewStore(db.SQL)
		defer mStore.Close()

		affected, err := mStore.Cleanup(*days)
		if err != nil {
			log.Fatalf("Cleanup failed: %v", err)
		}
		fmt.Printf("Successfully removed %d old metric records.\n", affected)
	default:
		fmt.Printf("Unknown command: %s\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println("Usage: travel-planner <command> [arguments]")
	fmt.Println("\nCommands:")
	fmt.Println("  plan               Plan a trip from flags")
	fmt.Println("  interactive        Plan a trip by answering prompts")
	fmt.Println("  serve              Start the HTTP API")
	fmt.Println("  token              Issue a bearer token for the HTTP API")
	fmt.Println("  metrics-cleanup    Remove old metric records")
}

func mustComponents(ctx context.Context, cfg *config.Config) *app.Components {
	c, err := app.NewFromConfig(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to initialize planner: %v", err)
	}
	return c
}

func runPlan(ctx context.Context, cfg *config.Config, args []string) {
	fs := flag.NewFlagSet("plan", flag.ExitOnError)
	origin := fs.String("from", "", "Origin city")
	destination := fs.String("to", "", "Destination city")
	checkIn := fs.String("check-in", "", "Check-in date (YYYY-MM-DD)")
	checkOut := fs.String("check-out", "", "Check-out date (YYYY-MM-DD)")
	travelers := fs.Int("people", 1, "Number of travelers")
	budget := fs.Float64("budget", 0, "Total budget in USD")
	verbose := fs.Bool("verbose", false, "Include iteration history and agent executions")
	describe := fs.Bool("describe", false, "Add short attraction descriptions")
	asJSON := fs.Bool("json", false, "Print the plan as JSON")
	fs.Parse(args)

	req, err := trip.NewRequest(*origin, *destination, *checkIn, *checkOut, *travelers, *budget)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		fs.Usage()
		os.Exit(2)
	}

	c := mustComponents(ctx, cfg)
	defer c.App.Close()

	plan(ctx, c.App, req, app.PlanOptions{Verbose: *verbose, Describe: *describe}, *asJSON)
}

func runInteractive(ctx context.Context, cfg *config.Config, args []string) {
	fs := flag.NewFlagSet("interactive", flag.ExitOnError)
	verbose := fs.Bool("verbose", false, "Include iteration history and agent executions")
	fs.Parse(args)

	p := app.NewPrompter(os.Stdin, os.Stdout)
	req, err := p.AskRequest()
	if err != nil {
		log.Fatalf("Invalid input: %v", err)
	}

	ok, err := p.Confirm("Proceed with planning?", true)
	if err != nil {
		log.Fatalf("Failed to read answer: %v", err)
	}
	if !ok {
		fmt.Println(app.ErrCancelled)
		return
	}

	describe, err := p.Confirm("Add attraction descriptions?", false)
	if err != nil {
		log.Fatalf("Failed to read answer: %v", err)
	}

	c := mustComponents(ctx, cfg)
	defer c.App.Close()

	plan(ctx, c.App, req, app.PlanOptions{Verbose: *verbose, Describe: describe}, false)
}

func plan(ctx context.Context, a *app.App, req trip.Request, opts app.PlanOptions, asJSON bool) {
	fmt.Printf("\nPlanning %s -> %s, %s to %s (%d nights)...\n",
		req.OriginCity, req.DestinationCity, req.CheckIn, req.CheckOut, req.Nights())

	bundle, err := a.PlanTrip(ctx, req, opts)
	if err != nil {
		log.Fatalf("Error generating plan: %v", err)
	}

	if asJSON {
		if err := app.PrintJSON(os.Stdout, bundle); err != nil {
			log.Fatalf("Failed to encode plan: %v", err)
		}
		return
	}
	app.PrintBundle(os.Stdout, bundle, opts.Verbose)
}

func runServe(ctx context.Context, cfg *config.Config) {
	c := mustComponents(ctx, cfg)
	defer c.App.Close()

	srv := api.NewServer(cfg, c.App, c.Metrics)

	errCh := make(chan error, 1)
	go func() {
		addr := fmt.Sprintf(":%d", cfg.Port)
		log.Printf("Travel Planner API listening on %s", addr)
		errCh <- srv.Listen(addr)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			log.Fatalf("Server failed: %v", err)
		}
	case <-ctx.Done():
		log.Println("Shutting down server...")
		ctxShutdown, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(ctxShutdown); err != nil && !errors.Is(err, context.DeadlineExceeded) {
			log.Printf("Server forced to shutdown: %v", err)
		}
		log.Println("Server exiting")
	}
}

func runToken(cfg *config.Config, args []string) {
	fs := flag.NewFlagSet("token", flag.ExitOnError)
	subject := fs.String("sub", "frontend", "Token subject")
	ttl := fs.Duration("ttl", 30*24*time.Hour, "Token lifetime")
	fs.Parse(args)

	if cfg.APIJWTSecret == "" {
		log.Fatal("API_JWT_SECRET must be set to issue tokens")
	}
	token, err := api.IssueToken([]byte(cfg.APIJWTSecret), *subject, *ttl)
	if err != nil {
		log.Fatalf("Failed to issue token: %v", err)
	}
	fmt.Println(token)
}

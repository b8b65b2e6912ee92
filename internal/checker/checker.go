// Package checker validates an assembled travel plan against the hard
// business rules: budget, daily attraction load, hotel proximity and flight
// completeness.
package checker

import (
	"fmt"

	"golang.org/x/sync/errgroup"

	"ai-travel-planner/internal/trip"
)

// Rule identifiers, in evaluation order.
const (
	RuleJSONFormat         = "json_format"
	RuleBudget             = "budget"
	RuleAttractionsCount   = "attractions_count"
	RuleHotelDistance      = "hotel_distance"
	RuleFlightCompleteness = "flight_completeness"
)

const (
	MinActivitiesPerDay = 1
	MaxActivitiesPerDay = 5

	// MaxHotelDistanceKm is exclusive: a hotel at exactly this distance fails.
	MaxHotelDistanceKm = 10.0

	// OtherExpensesRatio estimates food, local transport and attraction
	// tickets as a share of flights plus hotel.
	OtherExpensesRatio = 0.5
)

// Plan is everything a validation run looks at.
type Plan struct {
	Itinerary *trip.Itinerary
	Hotels    *trip.HotelResult
	Flights   *trip.FlightResult
	Budget    float64
}

// RuleError is an internal failure while evaluating a single rule. It is
// reported as a violation of that rule and never stops the other rules.
type RuleError struct {
	Rule string
	Err  error
}

func (e *RuleError) Error() string {
	return fmt.Sprintf("%s validation failed: %v", ruleTitles[e.Rule], e.Err)
}

func (e *RuleError) Unwrap() error {
	return e.Err
}

var ruleTitles = map[string]string{
	RuleJSONFormat:         "JSON format",
	RuleBudget:             "Budget",
	RuleAttractionsCount:   "Attractions count",
	RuleHotelDistance:      "Hotel distance",
	RuleFlightCompleteness: "Flight completeness",
}

type outcome struct {
	violations []Violation
	detail     Detail
}

type rule struct {
	id    string
	check func(Plan) (outcome, error)
}

var rules = []rule{
	{RuleBudget, checkBudget},
	{RuleAttractionsCount, checkAttractionsCount},
	{RuleHotelDistance, checkHotelDistance},
	{RuleFlightCompleteness, checkFlightCompleteness},
}

// Validator runs the rule battery. It holds no state between calls and is
// safe for concurrent use.
type Validator struct {
	concurrent bool
}

// Option configures a Validator.
type Option func(*Validator)

// WithConcurrentRules evaluates the independent rules in parallel. The result
// is identical to a sequential run.
func WithConcurrentRules() Option {
	return func(v *Validator) {
		v.concurrent = true
	}
}

// NewValidator creates a Validator.
func NewValidator(opts ...Option) *Validator {
	v := &Validator{}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// Validate checks a plan with a sequential Validator.
func Validate(itinerary *trip.Itinerary, hotels *trip.HotelResult, flights *trip.FlightResult, totalBudget float64) Result {
	return NewValidator().Validate(itinerary, hotels, flights, totalBudget)
}

// Validate runs every rule and aggregates the verdict. A structurally
// incomplete plan fails the json_format rule and nothing else runs.
func (v *Validator) Validate(itinerary *trip.Itinerary, hotels *trip.HotelResult, flights *trip.FlightResult, totalBudget float64) Result {
	plan := Plan{
		Itinerary: itinerary,
		Hotels:    hotels,
		Flights:   flights,
		Budget:    totalBudget,
	}

	format := checkStructure(plan)
	if len(format.violations) > 0 {
		return Result{
			Passed:     false,
			Violations: format.violations,
			Details:    []Detail{format.detail},
		}
	}

	outcomes := make([]outcome, len(rules))
	if v.concurrent {
		var g errgroup.Group
		for i, r := range rules {
			g.Go(func() error {
				outcomes[i] = runRule(r, plan)
				return nil
			})
		}
		_ = g.Wait()
	} else {
		for i, r := range rules {
			outcomes[i] = runRule(r, plan)
		}
	}

	result := Result{
		Violations: []Violation{},
		Details:    []Detail{format.detail},
	}
	for _, o := range outcomes {
		result.Violations = append(result.Violations, o.violations...)
		result.Details = append(result.Details, o.detail)
	}
	result.Passed = len(result.Violations) == 0

	return result
}

// runRule evaluates one rule, turning an error or a panic into a violation
// scoped to that rule.
func runRule(r rule, plan Plan) (o outcome) {
	defer func() {
		if p := recover(); p != nil {
			o = ruleFailure(&RuleError{Rule: r.id, Err: fmt.Errorf("panic: %v", p)})
		}
	}()

	o, err := r.check(plan)
	if err != nil {
		return ruleFailure(&RuleError{Rule: r.id, Err: err})
	}
	return o
}

func ruleFailure(err *RuleError) outcome {
	return outcome{
		violations: []Violation{{Rule: err.Rule, Message: err.Error()}},
		detail:     Detail{Rule: err.Rule, Status: StatusFailed, Message: err.Error()},
	}
}

func passed(ruleID, message string) outcome {
	return outcome{detail: Detail{Rule: ruleID, Status: StatusPassed, Message: message}}
}

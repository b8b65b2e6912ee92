package pipeline

import (
	"fmt"

	"ai-travel-planner/internal/checker"
	"ai-travel-planner/internal/shared"
	"ai-travel-planner/internal/trip"
)

// IterationRecord is what one attempt produced and how it was judged.
type IterationRecord struct {
	Iteration int                `json:"iteration"`
	Itinerary *trip.Itinerary    `json:"itinerary"`
	Hotels    *trip.HotelResult  `json:"hotels"`
	Flights   *trip.FlightResult `json:"flights"`
	Check     checker.Result     `json:"check_result"`
}

// PlanBundle is the result of one planning session. It is returned whether or
// not the final attempt passed validation.
type PlanBundle struct {
	SessionID  string             `json:"session_id"`
	Request    trip.Request       `json:"trip_config"`
	Itinerary  *trip.Itinerary    `json:"itinerary"`
	Hotels     *trip.HotelResult  `json:"hotels"`
	Flights    *trip.FlightResult `json:"flights"`
	Check      checker.Result     `json:"check_result"`
	Passed     bool               `json:"passed"`
	Iterations int                `json:"iterations"`
	History    []IterationRecord  `json:"iteration_history,omitempty"`
	Summary    string             `json:"summary,omitempty"`
	AgentMetas []shared.AgentMeta `json:"execution_log,omitempty"`
}

// GenerationError reports a failed generation stage. It ends the session.
type GenerationError struct {
	Stage   string
	Attempt int
	Err     error
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("%s generation failed on attempt %d: %v", e.Stage, e.Attempt, e.Err)
}

func (e *GenerationError) Unwrap() error {
	return e.Err
}

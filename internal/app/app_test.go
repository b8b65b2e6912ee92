package app

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"ai-travel-planner/internal/checker"
	"ai-travel-planner/internal/metrics"
	"ai-travel-planner/internal/pipeline"
	"ai-travel-planner/internal/shared"
	"ai-travel-planner/internal/trip"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePlanner struct {
	bundle  *pipeline.PlanBundle
	err     error
	gotOpts pipeline.Options
}

func (f *fakePlanner) Run(ctx context.Context, req trip.Request, opts pipeline.Options) (*pipeline.PlanBundle, error) {
	f.gotOpts = opts
	if f.err != nil {
		return nil, f.err
	}
	f.bundle.Request = req
	return f.bundle, nil
}

type fakeSessions struct {
	outcomes []metrics.SessionOutcome
}

func (f *fakeSessions) RecordSession(ctx context.Context, o metrics.SessionOutcome) error {
	f.outcomes = append(f.outcomes, o)
	return nil
}

type fakeDescriber struct{}

func (fakeDescriber) DescribeAttractions(ctx context.Context, it *trip.Itinerary) (shared.AgentMeta, error) {
	it.Days[0].Morning[0].Description = "A museum."
	return shared.AgentMeta{AgentName: "Formatter", Usage: shared.TokenUsage{PromptTokens: 10}}, nil
}

type fakeMetas struct{ metas []shared.AgentMeta }

func (f *fakeMetas) RecordMeta(m shared.AgentMeta) error {
	f.metas = append(f.metas, m)
	return nil
}

func testRequest(t *testing.T) trip.Request {
	t.Helper()
	req, err := trip.NewRequest("Seattle", "New York", "2026-01-10", "2026-01-15", 2, 2000)
	require.NoError(t, err)
	return req
}

func failedBundle() *pipeline.PlanBundle {
	return &pipeline.PlanBundle{
		SessionID:  "s-1",
		Iterations: 2,
		Itinerary: &trip.Itinerary{Destination: "New York", Days: []trip.Day{{
			Index:   1,
			Morning: []trip.Activity{{Name: "The Met"}},
		}}},
		Check: checker.Result{
			Violations: []checker.Violation{{Rule: checker.RuleBudget, Message: "Total cost $2500.00 exceeds budget $2000.00"}},
			Details: []checker.Detail{
				{Rule: checker.RuleJSONFormat, Status: checker.StatusPassed, Message: "ok"},
				{Rule: checker.RuleBudget, Status: checker.StatusFailed, Message: "Total cost $2500.00 exceeds budget $2000.00"},
			},
		},
		History: []pipeline.IterationRecord{{Iteration: 1}, {Iteration: 2}},
		AgentMetas: []shared.AgentMeta{{
			AgentName: "Planner", Latency: 1200 * time.Millisecond, Steps: []string{"search_attractions(New York): 12 results"},
		}},
	}
}

func TestPlanTripRecordsOutcome(t *testing.T) {
	sessions := &fakeSessions{}
	metas := &fakeMetas{}
	planner := &fakePlanner{bundle: failedBundle()}
	a := NewApp(planner, WithSessionRecorder(sessions), WithDescriber(fakeDescriber{}, metas))

	bundle, err := a.PlanTrip(context.Background(), testRequest(t), PlanOptions{Verbose: true, Describe: true})
	require.NoError(t, err)
	assert.True(t, planner.gotOpts.Verbose)
	assert.Equal(t, "A museum.", bundle.Itinerary.Days[0].Morning[0].Description)
	assert.Len(t, metas.metas, 1)
	assert.Len(t, bundle.AgentMetas, 2)

	require.Len(t, sessions.outcomes, 1)
	o := sessions.outcomes[0]
	assert.Equal(t, "s-1", o.SessionID)
	assert.Equal(t, "New York", o.DestinationCity)
	assert.Equal(t, "2026-01-10", o.CheckIn)
	assert.False(t, o.Passed)
	assert.Equal(t, 2, o.Iterations)
	assert.Equal(t, 1, o.ViolationCount)
	assert.Equal(t, []string{checker.RuleBudget}, o.FailedRules)
}

func TestPlanTripGenerationError(t *testing.T) {
	sessions := &fakeSessions{}
	cause := &pipeline.GenerationError{Stage: pipeline.StageHotels, Attempt: 1, Err: errors.New("quota")}
	a := NewApp(&fakePlanner{err: cause}, WithSessionRecorder(sessions))

	_, err := a.PlanTrip(context.Background(), testRequest(t), PlanOptions{})
	var genErr *pipeline.GenerationError
	require.ErrorAs(t, err, &genErr)
	assert.Equal(t, pipeline.StageHotels, genErr.Stage)
	assert.Empty(t, sessions.outcomes)
}

func TestPrintBundle(t *testing.T) {
	var buf bytes.Buffer
	PrintBundle(&buf, failedBundle(), true)
	out := buf.String()

	assert.Contains(t, out, "Iterations: 2")
	assert.Contains(t, out, "❌ Budget: Total cost $2500.00 exceeds budget $2000.00")
	assert.Contains(t, out, "1 problem(s) found:")
	assert.Contains(t, out, "Morning:   The Met")
	assert.Contains(t, out, "Iteration 2:")
	assert.Contains(t, out, "search_attractions(New York): 12 results")

	buf.Reset()
	b := failedBundle()
	b.Summary = "Enjoy New York!"
	PrintBundle(&buf, b, false)
	assert.Contains(t, buf.String(), "Enjoy New York!")
	assert.NotContains(t, buf.String(), "=== ITINERARY ===")
	assert.NotContains(t, buf.String(), "AGENT EXECUTIONS")
}

func TestPrompterAskRequest(t *testing.T) {
	t.Run("Valid", func(t *testing.T) {
		in := strings.NewReader("Seattle\nNew York\n2026-01-10\n2026-01-15\n2\n2000\n")
		var out bytes.Buffer
		req, err := NewPrompter(in, &out).AskRequest()
		require.NoError(t, err)
		assert.Equal(t, testRequest(t), req)
		assert.Contains(t, out.String(), "Origin city")
	})

	cases := []struct {
		name  string
		input string
		want  string
	}{
		{"EmptyOrigin", "\n", "origin city cannot be empty"},
		{"BadDate", "Seattle\nNew York\n01/10/2026\n", "check-in date must be YYYY-MM-DD"},
		{"CheckOutBeforeCheckIn", "Seattle\nNew York\n2026-01-15\n2026-01-10\n2\n2000\n", "check-out date must be after check-in date"},
		{"BadPeople", "Seattle\nNew York\n2026-01-10\n2026-01-15\ntwo\n", "must be a positive integer"},
		{"ZeroBudget", "Seattle\nNew York\n2026-01-10\n2026-01-15\n2\n0\n", "must be a positive number"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NewPrompter(strings.NewReader(tc.input), &bytes.Buffer{}).AskRequest()
			require.ErrorIs(t, err, trip.ErrInvalidRequest)
			assert.Contains(t, err.Error(), tc.want)
		})
	}
}

func TestPrompterConfirm(t *testing.T) {
	p := NewPrompter(strings.NewReader("\nn\nYES\n"), &bytes.Buffer{})

	ok, err := p.Confirm("Continue? ", true)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, _ = p.Confirm("Continue? ", true)
	assert.False(t, ok)

	ok, _ = p.Confirm("Continue? ", false)
	assert.True(t, ok)

	ok, err = p.Confirm("Continue? ", true)
	require.NoError(t, err)
	assert.True(t, ok, "EOF takes the default")
}

package agents

import (
	"context"
	"fmt"
	"strings"
	"time"

	"ai-travel-planner/internal/llm"
	"ai-travel-planner/internal/pipeline"
	"ai-travel-planner/internal/shared"
	"ai-travel-planner/internal/trip"
)

// Formatter turns plans into traveler-facing text.
type Formatter struct {
	textGen llm.TextGenerator
}

// NewFormatter creates a Formatter.
func NewFormatter(textGen llm.TextGenerator) *Formatter {
	return &Formatter{textGen: textGen}
}

type formatterPromptData struct {
	Passed bool
	Failed string
	Plan   string
}

// Summarize writes a plain-text summary of the bundle's final plan.
func (f *Formatter) Summarize(ctx context.Context, bundle *pipeline.PlanBundle) (string, shared.AgentMeta, error) {
	start := time.Now()

	plan := struct {
		Request   trip.Request       `json:"trip_config"`
		Itinerary *trip.Itinerary    `json:"itinerary"`
		Hotels    *trip.HotelResult  `json:"hotels"`
		Flights   *trip.FlightResult `json:"flights"`
	}{bundle.Request, bundle.Itinerary, bundle.Hotels, bundle.Flights}

	prompt, err := renderPrompt("formatter", formatterPromptData{
		Passed: bundle.Passed,
		Failed: strings.Join(bundle.Check.FailedRules(), ", "),
		Plan:   toJSON(plan),
	})
	if err != nil {
		return "", newMeta(FormatterAgentName, shared.TokenUsage{}, start, nil), err
	}

	resp, err := f.textGen.GenerateContent(ctx, prompt)
	if err != nil {
		return "", newMeta(FormatterAgentName, shared.TokenUsage{}, start, nil), fmt.Errorf("failed to generate summary: %w", err)
	}

	return stripFences(resp.Content), newMeta(FormatterAgentName, resp.Usage, start, []string{"format_trip"}), nil
}

// DescribeAttractions asks for a short description of every distinct
// activity and writes them into the itinerary. Activities the model skipped
// keep an empty description.
func (f *Formatter) DescribeAttractions(ctx context.Context, itinerary *trip.Itinerary) (shared.AgentMeta, error) {
	start := time.Now()

	names := activityNames(itinerary)
	if len(names) == 0 {
		return newMeta(FormatterAgentName, shared.TokenUsage{}, start, nil), nil
	}

	prompt, err := renderPrompt("descriptions", struct {
		Destination string
		Names       []string
	}{itinerary.Destination, names})
	if err != nil {
		return newMeta(FormatterAgentName, shared.TokenUsage{}, start, nil), err
	}

	resp, err := f.textGen.GenerateContent(ctx, prompt)
	if err != nil {
		return newMeta(FormatterAgentName, shared.TokenUsage{}, start, nil), fmt.Errorf("failed to generate descriptions: %w", err)
	}
	meta := newMeta(FormatterAgentName, resp.Usage, start, []string{"describe_attractions"})

	descriptions := map[string]string{}
	if err := llm.ExtractJSON(resp.Content, &descriptions); err != nil {
		return meta, fmt.Errorf("failed to parse descriptions: %w", err)
	}

	byKey := make(map[string]string, len(descriptions))
	for name, d := range descriptions {
		byKey[NormalizeName(name)] = d
	}
	for d := range itinerary.Days {
		day := &itinerary.Days[d]
		for _, slot := range []*[]trip.Activity{&day.Morning, &day.Afternoon, &day.Evening} {
			for i := range *slot {
				act := &(*slot)[i]
				if desc, ok := byKey[NormalizeName(act.Name)]; ok {
					act.Description = desc
				}
			}
		}
	}
	return meta, nil
}

func activityNames(it *trip.Itinerary) []string {
	if it == nil {
		return nil
	}
	seen := map[string]bool{}
	var names []string
	for _, day := range it.Days {
		for _, slot := range day.Slots() {
			for _, a := range slot {
				if a.Name != "" && !seen[a.Name] {
					seen[a.Name] = true
					names = append(names, a.Name)
				}
			}
		}
	}
	return names
}

func stripFences(text string) string {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "```") {
		return text
	}
	text = strings.TrimPrefix(text, "```")
	if i := strings.IndexByte(text, '\n'); i >= 0 {
		text = text[i+1:]
	}
	return strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(text), "```"))
}

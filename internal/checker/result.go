package checker

import "strings"

// Status is the outcome of a single rule.
type Status string

const (
	StatusPassed Status = "passed"
	StatusFailed Status = "failed"
)

// Violation is one broken constraint.
type Violation struct {
	Rule    string `json:"rule"`
	Message string `json:"message"`
}

// Detail records the outcome of one rule, passed or failed.
type Detail struct {
	Rule    string `json:"rule"`
	Status  Status `json:"status"`
	Message string `json:"message"`
}

// Result is the aggregated verdict of a validation run. Details holds one
// entry per rule that executed.
type Result struct {
	Passed     bool        `json:"passed"`
	Violations []Violation `json:"violations"`
	Details    []Detail    `json:"check_details"`
}

// FailedRules lists the identifiers of the rules that failed, in rule order.
func (r Result) FailedRules() []string {
	var failed []string
	for _, d := range r.Details {
		if d.Status == StatusFailed {
			failed = append(failed, d.Rule)
		}
	}
	return failed
}

// Summary is a one-line description of the verdict, suitable for logs.
func (r Result) Summary() string {
	if r.Passed {
		return "all checks passed"
	}
	return "failed: " + strings.Join(r.FailedRules(), ", ")
}

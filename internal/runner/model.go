package runner

import "time"

// ScenarioStatus represents the outcome of a scenario.
type ScenarioStatus string

const (
	StatusPass ScenarioStatus = "pass"
	StatusFail ScenarioStatus = "fail"
	StatusSkip ScenarioStatus = "skip"
)

// ScenarioResult represents the result of a single scenario.
// Matches .clirig/run/scenarios/<slug>.json schema.
type ScenarioResult struct {
	Scenario string         `json:"scenario"`
	Feature  string         `json:"feature"`
	Cassette string         `json:"cassette,omitempty"`
	Status   ScenarioStatus `json:"status"`
	ExitCode int            `json:"exit_code"`
	Note     string         `json:"note,omitempty"`
}

// LastRun represents the summary of the last execution.
// Matches .clirig/run/last-run.json schema.
type LastRun struct {
	ID             string    `json:"id"`
	StartedAt      time.Time `json:"started_at"`
	Status         string    `json:"status"`          // "pass" or "fail"
	Scenarios      []string  `json:"scenarios"`       // Ordered list of scenarios run
	Failed         []string  `json:"failed"`          // List of failed scenarios
	FailedFeatures []string  `json:"failed_features"` // Feature files to rerun on resume
}

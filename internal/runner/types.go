package runner

import (
	"time"

	"bddkit/internal/cleanup"
)

// Configuration controls one suite run.
type Configuration struct {
	// Paths are feature files or directories.
	Paths []string `json:"paths"`
	// Project overrides the configured project.
	Project string `json:"project,omitempty"`
	// Tags are extra tags, either a comma list or a tag expression.
	Tags string `json:"tags,omitempty"`
	// Format is a godog formatter, optionally "name:path".
	Format string `json:"format"`
	// Concurrency is the number of scenarios run at once.
	Concurrency int `json:"concurrency"`
	// Strict fails the suite on undefined or pending steps.
	Strict bool `json:"strict"`
	// StopOnFailure stops at the first failing scenario.
	StopOnFailure bool `json:"stop_on_failure"`
	NoColors      bool `json:"no_colors"`
	// Timeout bounds the whole run.
	Timeout time.Duration `json:"timeout"`
	// ReportPath, when set, receives a JSON summary of the run.
	ReportPath string `json:"report_path,omitempty"`
}

// Result summarizes a finished run.
type Result struct {
	// Status is the godog exit status: 0 passed, 1 failed, 2 invalid options.
	Status        int    `json:"status"`
	TagExpression string `json:"tag_expression"`
	// Filter is TagExpression in the form godog applies.
	Filter string `json:"filter"`
	// Scenarios counts the scenarios the filter selected.
	Scenarios     int             `json:"scenarios"`
	StartTime     time.Time       `json:"start_time"`
	Duration      time.Duration   `json:"duration"`
	Cleanup       cleanup.Summary `json:"cleanup"`
	Configuration Configuration   `json:"configuration"`
}

// Passed reports whether every selected scenario passed.
func (r *Result) Passed() bool {
	return r.Status == 0
}

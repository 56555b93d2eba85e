package runner

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"bddkit/internal/cleanup"
)

// Reporter prints the run header and summary.
type Reporter struct {
	out        io.Writer
	reportPath string

	title  lipgloss.Style
	label  lipgloss.Style
	passed lipgloss.Style
	failed lipgloss.Style
}

// NewReporter creates a reporter writing to w. Colors follow w's terminal
// capabilities.
func NewReporter(w io.Writer, reportPath string) *Reporter {
	renderer := lipgloss.NewRenderer(w)
	return &Reporter{
		out:        w,
		reportPath: reportPath,
		title:      renderer.NewStyle().Bold(true),
		label:      renderer.NewStyle().Faint(true),
		passed:     renderer.NewStyle().Bold(true).Foreground(lipgloss.Color("2")),
		failed:     renderer.NewStyle().Bold(true).Foreground(lipgloss.Color("1")),
	}
}

// ReportStart is called before the suite runs
func (r *Reporter) ReportStart(c Configuration, tagExpression string) {
	fmt.Fprintln(r.out, r.title.Render("bddkit"))
	fmt.Fprintf(r.out, "%s %s\n", r.label.Render("features:"), strings.Join(c.Paths, ", "))
	fmt.Fprintf(r.out, "%s %s\n", r.label.Render("tags:"), tagExpression)
	if c.Concurrency > 1 {
		fmt.Fprintf(r.out, "%s %d\n", r.label.Render("concurrency:"), c.Concurrency)
	}
	fmt.Fprintln(r.out)
}

// ReportResult prints the summary and writes the JSON report if requested.
func (r *Reporter) ReportResult(result *Result) {
	fmt.Fprintln(r.out)
	fmt.Fprintf(r.out, "%s %v\n", r.label.Render("duration:"), result.Duration.Round(time.Millisecond))
	fmt.Fprintf(r.out, "%s %s\n", r.label.Render("cleanup:"), formatCleanup(result.Cleanup))
	fmt.Fprintf(r.out, "%s %d\n", r.label.Render("scenarios:"), result.Scenarios)

	switch {
	case result.Scenarios == 0 && result.Status != 2:
		fmt.Fprintln(r.out, r.failed.Render("No scenarios matched the tag filter"))
	case result.Status == 0:
		fmt.Fprintln(r.out, r.passed.Render("All scenarios passed"))
	case result.Status == 2:
		fmt.Fprintln(r.out, r.failed.Render("Suite could not run: invalid options"))
	default:
		fmt.Fprintln(r.out, r.failed.Render("Some scenarios failed"))
	}

	if r.reportPath == "" {
		return
	}
	if err := r.saveReport(result); err != nil {
		fmt.Fprintf(r.out, "Failed to save report: %v\n", err)
		return
	}
	fmt.Fprintf(r.out, "Report saved to: %s\n", r.reportPath)
}

func formatCleanup(s cleanup.Summary) string {
	if s.Total() == 0 {
		return "nothing to remove"
	}
	kept := s.Total() - s.Requests[cleanup.OutcomeDeleted] - s.Requests[cleanup.OutcomeAlreadyGone]
	return fmt.Sprintf("%d request(s), %d deleted, %d already gone, %d not removed",
		s.Total(), s.Requests[cleanup.OutcomeDeleted], s.Requests[cleanup.OutcomeAlreadyGone], kept)
}

func (r *Reporter) saveReport(result *Result) error {
	if dir := filepath.Dir(r.reportPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create report directory: %w", err)
		}
	}
	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal report: %w", err)
	}
	if err := os.WriteFile(r.reportPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	return nil
}

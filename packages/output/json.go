package output

import (
	"encoding/json"
	"io"
	"os"
	"time"

	"github.com/abdul-hamid-achik/classifyprobe/packages/assertions"
	"github.com/abdul-hamid-achik/classifyprobe/packages/core/runner"
	"github.com/abdul-hamid-achik/classifyprobe/packages/extract"
)

// JSONOutput represents the complete JSON output structure
type JSONOutput struct {
	Version  string      `json:"version,omitempty"`
	Summary  JSONSummary `json:"summary"`
	Runs     []JSONRun   `json:"runs"`
	Duration float64     `json:"duration"`
	Time     string      `json:"time"`
}

// JSONSummary totals every run in the output
type JSONSummary struct {
	Total        int  `json:"total"`
	Passed       int  `json:"passed"`
	Failed       int  `json:"failed"`
	Inconclusive int  `json:"inconclusive"`
	Skipped      int  `json:"skipped"`
	Success      bool `json:"success"`
}

// JSONRun is one suite run against one endpoint
type JSONRun struct {
	Suite       string               `json:"suite"`
	Endpoint    string               `json:"endpoint"`
	Auth        string               `json:"auth"`
	Health      *runner.HealthResult `json:"health,omitempty"`
	Success     bool                 `json:"success"`
	Aborted     bool                 `json:"aborted,omitempty"`
	AbortReason string               `json:"abortReason,omitempty"`
	Duration    float64              `json:"duration"`
	Cases       []JSONCase           `json:"cases"`
}

// JSONCase represents a single verdict
type JSONCase struct {
	Index        int                  `json:"index"`
	Name         string               `json:"name"`
	BusinessName string               `json:"businessName"`
	RequestID    string               `json:"requestId,omitempty"`
	HasImage     bool                 `json:"hasImage"`
	Outcome      string               `json:"outcome"`
	Reason       string               `json:"reason,omitempty"`
	Fatal        bool                 `json:"fatal,omitempty"`
	StatusCode   int                  `json:"statusCode,omitempty"`
	Duration     float64              `json:"duration"`
	BusinessType string               `json:"businessType,omitempty"`
	Comparison   *extract.Comparison  `json:"comparison,omitempty"`
	ResponseKeys []string             `json:"responseKeys,omitempty"`
	Expectations []*assertions.Result `json:"expectations,omitempty"`
	Message      string               `json:"message,omitempty"`
}

// JSONFormatter formats test results as JSON
type JSONFormatter struct {
	writer  io.Writer
	version string
	runs    []JSONRun
	now     func() time.Time
}

type JSONOption func(*JSONFormatter)

func NewJSONFormatter(opts ...JSONOption) *JSONFormatter {
	f := &JSONFormatter{
		writer: os.Stdout,
		runs:   make([]JSONRun, 0),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

func JSONWithWriter(w io.Writer) JSONOption {
	return func(f *JSONFormatter) {
		f.writer = w
	}
}

func (f *JSONFormatter) FormatResult(result *runner.RunResult) {
	run := JSONRun{
		Suite:       result.Suite,
		Endpoint:    result.Endpoint.BaseURL(),
		Auth:        result.Endpoint.Auth.String(),
		Success:     result.Success,
		Aborted:     result.Aborted,
		AbortReason: string(result.AbortReason),
		Duration:    float64(result.Duration.Milliseconds()),
		Cases:       make([]JSONCase, 0, len(result.Verdicts)),
	}
	if result.Health.Checked {
		health := result.Health
		run.Health = &health
	}

	for _, v := range result.Verdicts {
		run.Cases = append(run.Cases, JSONCase{
			Index:        v.Index,
			Name:         v.Name,
			BusinessName: v.BusinessName,
			RequestID:    v.RequestID,
			HasImage:     v.HasImage,
			Outcome:      string(v.Outcome),
			Reason:       string(v.Reason),
			Fatal:        v.Fatal,
			StatusCode:   v.StatusCode,
			Duration:     float64(v.Duration.Milliseconds()),
			BusinessType: v.BusinessType,
			Comparison:   v.Comparison,
			ResponseKeys: v.ResponseKeys,
			Expectations: v.Expectations,
			Message:      v.Message,
		})
	}

	f.runs = append(f.runs, run)
}

func (f *JSONFormatter) FormatError(err error) {
	// Errors are included in individual verdicts
}

func (f *JSONFormatter) FormatHeader(version string) {
	f.version = version
}

// Flush writes the accumulated JSON output
func (f *JSONFormatter) Flush(totalDuration time.Duration) error {
	summary := JSONSummary{Success: true}
	for _, run := range f.runs {
		if !run.Success {
			summary.Success = false
		}
		for _, c := range run.Cases {
			summary.Total++
			switch runner.Outcome(c.Outcome) {
			case runner.OutcomePassed:
				summary.Passed++
			case runner.OutcomeFailed:
				summary.Failed++
			case runner.OutcomeInconclusive:
				summary.Inconclusive++
			case runner.OutcomeSkipped:
				summary.Skipped++
			}
		}
	}

	output := JSONOutput{
		Version:  f.version,
		Summary:  summary,
		Runs:     f.runs,
		Duration: float64(totalDuration.Milliseconds()),
		Time:     f.now().Format(time.RFC3339),
	}

	encoder := json.NewEncoder(f.writer)
	encoder.SetIndent("", "  ")
	return encoder.Encode(output)
}

package output

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/abdul-hamid-achik/classifyprobe/packages/core/runner"
)

// TAPFormatter formats test results in TAP (Test Anything Protocol) format
type TAPFormatter struct {
	writer    io.Writer
	testCount int
	results   []tapResult
	bailOut   string
}

type tapResult struct {
	number     int
	name       string
	outcome    runner.Outcome
	reason     runner.Reason
	message    string
	statusCode int
	fatal      bool
	failures   []string
}

type TAPOption func(*TAPFormatter)

func NewTAPFormatter(opts ...TAPOption) *TAPFormatter {
	f := &TAPFormatter{
		writer:  os.Stdout,
		results: make([]tapResult, 0),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

func TAPWithWriter(w io.Writer) TAPOption {
	return func(f *TAPFormatter) {
		f.writer = w
	}
}

func (f *TAPFormatter) FormatResult(result *runner.RunResult) {
	for _, v := range result.Verdicts {
		f.testCount++
		tr := tapResult{
			number:     f.testCount,
			name:       v.Name,
			outcome:    v.Outcome,
			reason:     v.Reason,
			message:    v.Message,
			statusCode: v.StatusCode,
			fatal:      v.Fatal,
		}

		for _, e := range v.Expectations {
			if e.Failed() {
				tr.failures = append(tr.failures, fmt.Sprintf(
					"%s %s: expected %v, got %v",
					e.Subject, e.Operator, e.Expected, e.Actual))
			}
		}

		f.results = append(f.results, tr)
	}

	if result.Aborted && f.bailOut == "" {
		f.bailOut = string(result.AbortReason)
	}
}

func (f *TAPFormatter) FormatError(err error) {
	// Errors are included in individual test results
}

func (f *TAPFormatter) FormatHeader(version string) {
	// Header is written in Flush
}

// Flush writes the accumulated TAP output. An aborted run ends with a
// "Bail out!" line after its last executed case.
func (f *TAPFormatter) Flush(totalDuration time.Duration) error {
	fmt.Fprintf(f.writer, "TAP version 13\n")
	fmt.Fprintf(f.writer, "1..%d\n", f.testCount)

	for _, r := range f.results {
		switch r.outcome {
		case runner.OutcomeSkipped:
			reason := r.message
			if reason == "" || r.reason == runner.ReasonFiltered {
				reason = string(r.reason)
			}
			fmt.Fprintf(f.writer, "ok %d - %s # SKIP %s\n", r.number, r.name, reason)

		case runner.OutcomePassed:
			fmt.Fprintf(f.writer, "ok %d - %s\n", r.number, r.name)

		case runner.OutcomeInconclusive:
			fmt.Fprintf(f.writer, "ok %d - %s\n", r.number, r.name)
			fmt.Fprintf(f.writer, "  ---\n")
			fmt.Fprintf(f.writer, "  outcome: inconclusive\n")
			fmt.Fprintf(f.writer, "  message: %s\n", escapeYAML(r.message))
			fmt.Fprintf(f.writer, "  ...\n")

		default:
			severity := "fail"
			if r.fatal {
				severity = "error"
			}
			fmt.Fprintf(f.writer, "not ok %d - %s\n", r.number, r.name)
			fmt.Fprintf(f.writer, "  ---\n")
			fmt.Fprintf(f.writer, "  reason: %s\n", escapeYAML(string(r.reason)))
			fmt.Fprintf(f.writer, "  message: %s\n", escapeYAML(r.message))
			if r.statusCode != 0 {
				fmt.Fprintf(f.writer, "  status: %d\n", r.statusCode)
			}
			fmt.Fprintf(f.writer, "  severity: %s\n", severity)
			if len(r.failures) > 0 {
				fmt.Fprintf(f.writer, "  failures:\n")
				for _, a := range r.failures {
					fmt.Fprintf(f.writer, "    - %s\n", escapeYAML(a))
				}
			}
			fmt.Fprintf(f.writer, "  ...\n")
		}
	}

	if f.bailOut != "" {
		fmt.Fprintf(f.writer, "Bail out! %s\n", f.bailOut)
	}

	fmt.Fprintln(f.writer)
	return nil
}

func escapeYAML(s string) string {
	// Simple YAML escaping - wrap in quotes if contains special chars
	if strings.ContainsAny(s, ":\n\"'[]{}#&*!|>%@`") {
		s = strings.ReplaceAll(s, "\"", "\\\"")
		return "\"" + s + "\""
	}
	return s
}

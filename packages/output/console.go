package output

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/abdul-hamid-achik/classifyprobe/packages/core/runner"
	"github.com/abdul-hamid-achik/classifyprobe/packages/core/suite"
	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
)

const ruleWidth = 50

type ConsoleFormatter struct {
	writer  io.Writer
	verbose bool
	noColor bool

	// streaming is set once the runner starts reporting through the
	// Observer methods; FormatResult then prints only the summary.
	streaming bool
	current   int

	green  func(a ...any) string
	red    func(a ...any) string
	yellow func(a ...any) string
	cyan   func(a ...any) string
	bold   func(a ...any) string
}

type ConsoleOption func(*ConsoleFormatter)

func NewConsoleFormatter(opts ...ConsoleOption) *ConsoleFormatter {
	f := &ConsoleFormatter{
		writer: os.Stdout,
	}
	for _, opt := range opts {
		opt(f)
	}

	enabled := !f.noColor && !color.NoColor && isTerminal(f.writer)
	f.green = colorFunc(enabled, color.FgGreen)
	f.red = colorFunc(enabled, color.FgRed)
	f.yellow = colorFunc(enabled, color.FgYellow)
	f.cyan = colorFunc(enabled, color.FgCyan)
	f.bold = colorFunc(enabled, color.Bold)
	return f
}

func WithWriter(w io.Writer) ConsoleOption {
	return func(f *ConsoleFormatter) {
		f.writer = w
	}
}

func WithVerbose(v bool) ConsoleOption {
	return func(f *ConsoleFormatter) {
		f.verbose = v
	}
}

func WithNoColor(nc bool) ConsoleOption {
	return func(f *ConsoleFormatter) {
		f.noColor = nc
	}
}

func isTerminal(w io.Writer) bool {
	file, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(file.Fd()) || isatty.IsCygwinTerminal(file.Fd())
}

func colorFunc(enabled bool, attr color.Attribute) func(a ...any) string {
	c := color.New(attr)
	if enabled {
		c.EnableColor()
	} else {
		c.DisableColor()
	}
	return c.SprintFunc()
}

func (f *ConsoleFormatter) FormatHeader(version string) {
	title := "QRIS Classifier API Test"
	if version != "" {
		title += " (classifyprobe " + version + ")"
	}
	fmt.Fprintln(f.writer, f.bold(title))
	fmt.Fprintln(f.writer, strings.Repeat("=", len(title)))
}

func (f *ConsoleFormatter) FormatError(err error) {
	fmt.Fprintf(f.writer, "%s %v\n", f.red("Error:"), err)
}

func (f *ConsoleFormatter) OnRunStart(s *suite.Suite, endpoint runner.Endpoint) {
	f.streaming = true
	f.current = 0

	fmt.Fprintf(f.writer, "Host: %s\n", endpoint.Host)
	fmt.Fprintf(f.writer, "Port: %d\n", endpoint.Port)
	fmt.Fprintf(f.writer, "HTTPS: %t\n", endpoint.Scheme == "https")
	fmt.Fprintf(f.writer, "Auth: %s\n", endpoint.Auth)
	fmt.Fprintln(f.writer)
	fmt.Fprintf(f.writer, "Testing API at: %s\n", endpoint.BaseURL())
	if s != nil && s.Name != "" {
		fmt.Fprintf(f.writer, "Suite: %s (%d cases)\n", s.Name, s.Len())
	}
	fmt.Fprintln(f.writer, strings.Repeat("-", ruleWidth))
}

func (f *ConsoleFormatter) OnHealth(h *runner.HealthResult) {
	fmt.Fprintln(f.writer, "Testing health endpoint...")
	if h.Healthy {
		fmt.Fprintf(f.writer, "   %s %s\n", f.green("✅"), capitalize(h.Message))
	} else {
		fmt.Fprintf(f.writer, "   %s %s\n", f.yellow("⚠️ "), capitalize(h.Message))
	}
	fmt.Fprintln(f.writer)
}

func (f *ConsoleFormatter) OnCaseStart(index, total int, tc *suite.TestCase) {
	f.printCase(index, total, tc.Name, tc.BusinessName, tc.HasImage())
}

func (f *ConsoleFormatter) printCase(index, total int, name, businessName string, hasImage bool) {
	f.current = index
	kind := "without image"
	if hasImage {
		kind = "with image"
	}
	fmt.Fprintf(f.writer, "\n   Test %d/%d: %s %s\n", index, total, name, f.cyan("("+kind+")"))
	fmt.Fprintf(f.writer, "   Business Name: %s\n", businessName)
}

func (f *ConsoleFormatter) OnVerdict(v *runner.Verdict) {
	if v.Skipped() && v.Index != f.current {
		f.printSkipped(v)
		return
	}

	if v.StatusCode != 0 {
		fmt.Fprintf(f.writer, "   Status Code: %d %s\n", v.StatusCode, f.cyan(fmt.Sprintf("(%dms)", v.Duration.Milliseconds())))
	}
	if v.RequestID != "" && f.verbose {
		fmt.Fprintf(f.writer, "   Request ID: %s\n", v.RequestID)
	}
	if len(v.ResponseKeys) > 0 && f.verbose {
		fmt.Fprintf(f.writer, "   Response Keys: [%s]\n", strings.Join(v.ResponseKeys, ", "))
	}

	switch v.Outcome {
	case runner.OutcomePassed:
		fmt.Fprintf(f.writer, "   %s Business name comparison feature found!\n", f.green("✅"))
		f.printComparison(v)
	case runner.OutcomeInconclusive:
		fmt.Fprintf(f.writer, "   %s Business name comparison feature NOT found\n", f.yellow("⚠️ "))
		fmt.Fprintf(f.writer, "   Available fields: [%s]\n", strings.Join(v.ResponseKeys, ", "))
	case runner.OutcomeFailed:
		fmt.Fprintf(f.writer, "   %s %s\n", f.red("❌"), v.Message)
		if v.Reason == runner.ReasonExpectation || v.Reason == runner.ReasonSchema {
			f.printComparison(v)
		}
		f.printExpectations(v)
	case runner.OutcomeSkipped:
		fmt.Fprintf(f.writer, "   %s %s\n", f.yellow("-"), v.Message)
	}
}

func (f *ConsoleFormatter) printSkipped(v *runner.Verdict) {
	fmt.Fprintf(f.writer, "\n   %s %s", f.yellow("-"), v.Name)
	switch v.Reason {
	case runner.ReasonFiltered:
	case runner.ReasonSkipRequested:
		fmt.Fprintf(f.writer, " (skipped: %s)", v.Message)
	default:
		fmt.Fprintf(f.writer, " (%s)", v.Message)
	}
	fmt.Fprintln(f.writer)
}

func (f *ConsoleFormatter) printComparison(v *runner.Verdict) {
	if c := v.Comparison; c != nil {
		fmt.Fprintf(f.writer, "   - Is Match: %s\n", c.IsMatchString())
		fmt.Fprintf(f.writer, "   - Match Score: %s\n", c.MatchScoreString())
		fmt.Fprintf(f.writer, "   - Match Reason: %s\n", c.MatchReasonString())
	}
	if v.BusinessType != "" {
		fmt.Fprintf(f.writer, "   - AI Classification: %s\n", v.BusinessType)
	}
}

func (f *ConsoleFormatter) printExpectations(v *runner.Verdict) {
	for _, e := range v.Expectations {
		if !e.Failed() {
			continue
		}
		fmt.Fprintf(f.writer, "     %s %s %s\n", f.red("→"), e.Subject, e.Operator)
		fmt.Fprintf(f.writer, "       Expected: %s\n", formatValue(e.Expected, 100))
		fmt.Fprintf(f.writer, "       Actual:   %s\n", formatValue(e.Actual, 100))
	}
}

// FormatResult prints the run summary. When the formatter was not attached
// to the runner as an observer, the per-case output is replayed first.
func (f *ConsoleFormatter) FormatResult(result *runner.RunResult) {
	if !f.streaming {
		f.replay(result)
	}
	f.streaming = false

	fmt.Fprintf(f.writer, "\n%s\n", strings.Repeat("=", ruleWidth))
	fmt.Fprintln(f.writer, f.bold("Test Summary:"))

	fmt.Fprintf(f.writer, "Tests: ")
	if result.Passed > 0 {
		fmt.Fprintf(f.writer, "%s, ", f.green(fmt.Sprintf("%d passed", result.Passed)))
	}
	if result.Failed > 0 {
		fmt.Fprintf(f.writer, "%s, ", f.red(fmt.Sprintf("%d failed", result.Failed)))
	}
	if result.Inconclusive > 0 {
		fmt.Fprintf(f.writer, "%s, ", f.yellow(fmt.Sprintf("%d inconclusive", result.Inconclusive)))
	}
	if result.Skipped > 0 {
		fmt.Fprintf(f.writer, "%s, ", f.yellow(fmt.Sprintf("%d skipped", result.Skipped)))
	}
	fmt.Fprintf(f.writer, "%d total\n", result.Total())
	fmt.Fprintf(f.writer, "Time:  %dms\n", result.Duration.Milliseconds())

	if result.Aborted {
		fmt.Fprintf(f.writer, "%s run aborted: %s\n", f.red("!"), result.AbortReason)
	}

	fmt.Fprintln(f.writer, "- If you see 'Business name comparison feature found', the deployment is successful")
	fmt.Fprintln(f.writer, "- If you see 'Business name comparison feature NOT found', the feature may not be deployed")
	fmt.Fprintln(f.writer, "- Check the API response to verify the feature is working as expected")

	if result.Success {
		fmt.Fprintf(f.writer, "\n%s Test completed successfully\n", f.green("✅"))
	} else {
		fmt.Fprintf(f.writer, "\n%s Test failed\n", f.red("❌"))
	}
}

func (f *ConsoleFormatter) replay(result *runner.RunResult) {
	f.OnRunStart(&suite.Suite{Name: result.Suite, Cases: make([]suite.TestCase, result.Total())}, result.Endpoint)
	if result.Health.Checked {
		f.OnHealth(&result.Health)
	}
	for _, v := range result.Verdicts {
		if !v.Skipped() {
			f.printCase(v.Index, result.Total(), v.Name, v.BusinessName, v.HasImage)
		}
		f.OnVerdict(v)
	}
}

// formatValue formats a value for display, truncating long values.
func formatValue(v any, maxLen int) string {
	if v == nil {
		return "N/A"
	}
	switch val := v.(type) {
	case []any:
		return fmt.Sprintf("[array with %d items]", len(val))
	case map[string]any:
		return fmt.Sprintf("{object with %d keys}", len(val))
	}
	str := fmt.Sprintf("%v", v)
	if len(str) > maxLen {
		return str[:maxLen] + "..."
	}
	return str
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

package output

import (
	"encoding/xml"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/abdul-hamid-achik/classifyprobe/packages/core/runner"
)

// JUnit XML structures

// JUnitTestSuites is the root element
type JUnitTestSuites struct {
	XMLName    xml.Name         `xml:"testsuites"`
	Name       string           `xml:"name,attr,omitempty"`
	Tests      int              `xml:"tests,attr"`
	Failures   int              `xml:"failures,attr"`
	Errors     int              `xml:"errors,attr"`
	Skipped    int              `xml:"skipped,attr"`
	Time       float64          `xml:"time,attr"`
	Timestamp  string           `xml:"timestamp,attr,omitempty"`
	TestSuites []JUnitTestSuite `xml:"testsuite"`
}

// JUnitTestSuite represents a test suite (typically a file)
type JUnitTestSuite struct {
	XMLName   xml.Name        `xml:"testsuite"`
	Name      string          `xml:"name,attr"`
	Tests     int             `xml:"tests,attr"`
	Failures  int             `xml:"failures,attr"`
	Errors    int             `xml:"errors,attr"`
	Skipped   int             `xml:"skipped,attr"`
	Time      float64         `xml:"time,attr"`
	Timestamp string          `xml:"timestamp,attr,omitempty"`
	TestCases []JUnitTestCase `xml:"testcase"`
}

// JUnitTestCase represents a single test case
type JUnitTestCase struct {
	XMLName   xml.Name      `xml:"testcase"`
	Name      string        `xml:"name,attr"`
	ClassName string        `xml:"classname,attr"`
	Time      float64       `xml:"time,attr"`
	Failure   *JUnitFailure `xml:"failure,omitempty"`
	Error     *JUnitError   `xml:"error,omitempty"`
	Skipped   *JUnitSkipped `xml:"skipped,omitempty"`
	SystemOut string        `xml:"system-out,omitempty"`
}

// JUnitFailure represents a test failure
type JUnitFailure struct {
	Message string `xml:"message,attr,omitempty"`
	Type    string `xml:"type,attr,omitempty"`
	Content string `xml:",chardata"`
}

// JUnitError represents a test error
type JUnitError struct {
	Message string `xml:"message,attr,omitempty"`
	Type    string `xml:"type,attr,omitempty"`
	Content string `xml:",chardata"`
}

// JUnitSkipped represents a skipped test
type JUnitSkipped struct {
	Message string `xml:"message,attr,omitempty"`
}

// JUnitFormatter formats test results as JUnit XML
type JUnitFormatter struct {
	writer     io.Writer
	testSuites []JUnitTestSuite
	now        func() time.Time
}

type JUnitOption func(*JUnitFormatter)

func NewJUnitFormatter(opts ...JUnitOption) *JUnitFormatter {
	f := &JUnitFormatter{
		writer:     os.Stdout,
		testSuites: make([]JUnitTestSuite, 0),
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

func JUnitWithWriter(w io.Writer) JUnitOption {
	return func(f *JUnitFormatter) {
		f.writer = w
	}
}

// FormatResult maps each verdict to a test case. Fatal failures become
// errors, other failures become failures, and inconclusive cases pass with
// the missing-feature note in system-out.
func (f *JUnitFormatter) FormatResult(result *runner.RunResult) {
	name := result.Suite
	if name == "" {
		name = "classify"
	}
	suite := JUnitTestSuite{
		Name:      name + " @ " + result.Endpoint.BaseURL(),
		Tests:     len(result.Verdicts),
		Skipped:   result.Skipped,
		Time:      result.Duration.Seconds(),
		Timestamp: result.StartedAt.Format(time.RFC3339),
		TestCases: make([]JUnitTestCase, 0, len(result.Verdicts)),
	}

	for _, v := range result.Verdicts {
		tc := JUnitTestCase{
			Name:      v.Name,
			ClassName: name,
			Time:      v.Duration.Seconds(),
		}

		switch {
		case v.Skipped():
			tc.Skipped = &JUnitSkipped{
				Message: fmt.Sprintf("%s: %s", v.Reason, v.Message),
			}
		case v.Failed() && v.Fatal:
			suite.Errors++
			tc.Error = &JUnitError{
				Message: v.Message,
				Type:    string(v.Reason),
				Content: junitDetails(v),
			}
		case v.Failed():
			suite.Failures++
			tc.Failure = &JUnitFailure{
				Message: v.Message,
				Type:    string(v.Reason),
				Content: junitDetails(v),
			}
		case v.Inconclusive():
			tc.SystemOut = v.Message
		default:
			tc.SystemOut = junitDetails(v)
		}

		suite.TestCases = append(suite.TestCases, tc)
	}

	f.testSuites = append(f.testSuites, suite)
}

func junitDetails(v *runner.Verdict) string {
	var b strings.Builder
	fmt.Fprintf(&b, "businessName: %s\n", v.BusinessName)
	if v.StatusCode != 0 {
		fmt.Fprintf(&b, "status: %d\n", v.StatusCode)
	}
	if v.BusinessType != "" {
		fmt.Fprintf(&b, "businessType: %s\n", v.BusinessType)
	}
	if c := v.Comparison; c != nil {
		fmt.Fprintf(&b, "isMatch: %s\nmatchScore: %s\nmatchReason: %s\n",
			c.IsMatchString(), c.MatchScoreString(), c.MatchReasonString())
	}
	for _, e := range v.Expectations {
		if e.Failed() {
			fmt.Fprintf(&b, "%s %s: expected %v, got %v\n", e.Subject, e.Operator, e.Expected, e.Actual)
		}
	}
	return b.String()
}

func (f *JUnitFormatter) FormatError(err error) {
	// Errors are included in individual test cases
}

func (f *JUnitFormatter) FormatHeader(version string) {
	// No header needed for JUnit XML
}

// Flush writes the accumulated JUnit XML output
func (f *JUnitFormatter) Flush(totalDuration time.Duration) error {
	var totalTests, totalFailures, totalErrors, totalSkipped int
	for _, suite := range f.testSuites {
		totalTests += suite.Tests
		totalFailures += suite.Failures
		totalErrors += suite.Errors
		totalSkipped += suite.Skipped
	}

	suites := JUnitTestSuites{
		Name:       "classifyprobe",
		Tests:      totalTests,
		Failures:   totalFailures,
		Errors:     totalErrors,
		Skipped:    totalSkipped,
		Time:       totalDuration.Seconds(),
		Timestamp:  f.now().Format(time.RFC3339),
		TestSuites: f.testSuites,
	}

	fmt.Fprintf(f.writer, "<?xml version=\"1.0\" encoding=\"UTF-8\"?>\n")
	encoder := xml.NewEncoder(f.writer)
	encoder.Indent("", "  ")
	return encoder.Encode(suites)
}

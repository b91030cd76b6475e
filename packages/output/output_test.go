package output

import (
	"bytes"
	"encoding/json"
	"encoding/xml"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/abdul-hamid-achik/classifyprobe/packages/assertions"
	"github.com/abdul-hamid-achik/classifyprobe/packages/core/runner"
	"github.com/abdul-hamid-achik/classifyprobe/packages/core/suite"
	"github.com/abdul-hamid-achik/classifyprobe/packages/extract"
	"github.com/abdul-hamid-achik/classifyprobe/packages/http"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

var fixedNow = func() time.Time { return time.Date(2025, 3, 14, 9, 26, 53, 0, time.UTC) }

func ptr[T any](v T) *T { return &v }

func sampleResult() *runner.RunResult {
	return &runner.RunResult{
		Suite: "production",
		Endpoint: runner.Endpoint{
			Scheme: "https", Host: "api.example.com", Port: 443,
			Auth: http.Bearer("eyJhbGciOi"),
		},
		Health: runner.HealthResult{Checked: true, Healthy: true, StatusCode: 200, Message: "health check passed"},
		Verdicts: []*runner.Verdict{
			{
				Index: 1, Name: "Retail Store Test", BusinessName: "Toko Kelontong Bahagia",
				Outcome: runner.OutcomePassed, StatusCode: 200, Duration: 120 * time.Millisecond,
				BusinessType: "retail", ResponseKeys: []string{"businessType", "comparison"},
				Comparison: &extract.Comparison{
					Field: "comparison", IsMatch: ptr(true), MatchScore: ptr(0.87), MatchReason: ptr("keyword overlap"),
				},
			},
			{
				Index: 2, Name: "Restaurant Test", BusinessName: "Warung Makan Sederhana",
				Outcome: runner.OutcomeInconclusive, StatusCode: 200, Duration: 80 * time.Millisecond,
				ResponseKeys: []string{"businessType"},
				Message:      "business name comparison feature NOT found; available fields: [businessType]",
			},
			{
				Index: 3, Name: "Shoe Store Test", BusinessName: "Toko Sepatu Sport",
				Outcome: runner.OutcomeFailed, Reason: runner.ReasonExpectation, StatusCode: 200,
				BusinessType: "retail",
				Expectations: []*assertions.Result{{
					Subject: "businessType", Operator: "equals", Expected: "shoe_store", Actual: "retail",
					Evaluated: true, Message: `expected businessType "shoe_store", got "retail"`,
				}},
				Message: `expected businessType "shoe_store", got "retail"`,
			},
		},
		Passed: 1, Failed: 1, Inconclusive: 1,
		Duration: 250 * time.Millisecond,
	}
}

func abortedResult() *runner.RunResult {
	return &runner.RunResult{
		Suite:    "local",
		Endpoint: runner.Endpoint{Scheme: "http", Host: "localhost", Port: 9002},
		Verdicts: []*runner.Verdict{
			{
				Index: 1, Name: "Exact Match", Outcome: runner.OutcomeFailed, Fatal: true,
				Reason: runner.ReasonAuthentication, StatusCode: 401,
				Message: "authentication required (HTTP 401) - provide a valid token or API key",
			},
			{
				Index: 2, Name: "Partial Match", Outcome: runner.OutcomeSkipped,
				Reason: runner.ReasonAborted, Message: "not run: aborted after authentication",
			},
		},
		Failed: 1, Skipped: 1,
		Aborted: true, AbortReason: runner.ReasonAuthentication,
	}
}

func TestConsoleFormatter_Replay(t *testing.T) {
	var buf bytes.Buffer
	f := NewConsoleFormatter(WithWriter(&buf), WithNoColor(true))

	f.FormatHeader("1.2.3")
	f.FormatResult(sampleResult())
	out := buf.String()

	assert.Contains(t, out, "QRIS Classifier API Test (classifyprobe 1.2.3)")
	assert.Contains(t, out, "Testing API at: https://api.example.com:443")
	assert.Contains(t, out, "Auth: bearer (eyJh****)")
	assert.NotContains(t, out, "eyJhbGciOi")
	assert.Contains(t, out, "✅ Health check passed")
	assert.Contains(t, out, "Test 1/3: Retail Store Test (without image)")
	assert.Contains(t, out, "Business name comparison feature found!")
	assert.Contains(t, out, "- Is Match: true")
	assert.Contains(t, out, "- Match Score: 0.87")
	assert.Contains(t, out, "- Match Reason: keyword overlap")
	assert.Contains(t, out, "- AI Classification: retail")
	assert.Contains(t, out, "Business name comparison feature NOT found")
	assert.Contains(t, out, "Available fields: [businessType]")
	assert.Contains(t, out, `❌ expected businessType "shoe_store", got "retail"`)
	assert.Contains(t, out, "Expected: shoe_store")
	assert.Contains(t, out, "Tests: 1 passed, 1 failed, 1 inconclusive, 3 total")
	assert.Contains(t, out, "Test Summary:")
	assert.Contains(t, out, "❌ Test failed")
	assert.NotContains(t, out, "\x1b[")
}

func TestConsoleFormatter_Aborted(t *testing.T) {
	var buf bytes.Buffer
	f := NewConsoleFormatter(WithWriter(&buf), WithNoColor(true))

	f.FormatResult(abortedResult())
	out := buf.String()

	assert.NotContains(t, out, "Testing health endpoint")
	assert.Contains(t, out, "❌ authentication required (HTTP 401)")
	assert.Contains(t, out, "- Partial Match (not run: aborted after authentication)")
	assert.Contains(t, out, "! run aborted: authentication")
}

func TestConsoleFormatter_Observer(t *testing.T) {
	var buf bytes.Buffer
	f := NewConsoleFormatter(WithWriter(&buf), WithNoColor(true), WithVerbose(true))
	var _ runner.Observer = f

	s := &suite.Suite{Name: "local", Cases: []suite.TestCase{
		{Name: "Exact Match", BusinessName: "Warung Makan Sederhana", Image: suite.SampleImage},
	}}
	result := &runner.RunResult{
		Suite:    "local",
		Endpoint: runner.Endpoint{Host: "localhost", Port: 9002},
		Verdicts: []*runner.Verdict{{
			Index: 1, Name: "Exact Match", Outcome: runner.OutcomePassed, StatusCode: 200,
			RequestID:  "test_req_1",
			Comparison: &extract.Comparison{Field: "comparison", IsMatch: ptr(false)},
		}},
		Passed: 1, Success: true,
	}

	f.OnRunStart(s, result.Endpoint)
	f.OnCaseStart(1, 1, &s.Cases[0])
	f.OnVerdict(result.Verdicts[0])
	f.FormatResult(result)
	out := buf.String()

	assert.Equal(t, 1, strings.Count(out, "Test 1/1: Exact Match (with image)"))
	assert.Contains(t, out, "Suite: local (1 cases)")
	assert.Contains(t, out, "Request ID: test_req_1")
	assert.Contains(t, out, "- Match Score: N/A")
	assert.Contains(t, out, "✅ Test completed successfully")
}

func TestJSONFormatter(t *testing.T) {
	var buf bytes.Buffer
	f := NewJSONFormatter(JSONWithWriter(&buf))
	f.now = fixedNow

	f.FormatHeader("1.2.3")
	f.FormatResult(sampleResult())
	f.FormatResult(abortedResult())
	require.NoError(t, f.Flush(time.Second))

	var out JSONOutput
	require.NoError(t, json.Unmarshal(buf.Bytes(), &out))

	assert.Equal(t, "1.2.3", out.Version)
	assert.Equal(t, "2025-03-14T09:26:53Z", out.Time)
	assert.Equal(t, JSONSummary{Total: 5, Passed: 1, Failed: 2, Inconclusive: 1, Skipped: 1}, out.Summary)
	require.Len(t, out.Runs, 2)

	run := out.Runs[0]
	assert.Equal(t, "https://api.example.com:443", run.Endpoint)
	assert.Equal(t, "bearer (eyJh****)", run.Auth)
	require.NotNil(t, run.Health)
	assert.True(t, run.Health.Healthy)
	assert.Equal(t, "passed", run.Cases[0].Outcome)
	assert.Equal(t, 0.87, *run.Cases[0].Comparison.MatchScore)
	assert.Equal(t, "expectation mismatch", run.Cases[2].Reason)
	require.Len(t, run.Cases[2].Expectations, 1)
	assert.Equal(t, "shoe_store", run.Cases[2].Expectations[0].Expected)

	aborted := out.Runs[1]
	assert.Nil(t, aborted.Health)
	assert.True(t, aborted.Aborted)
	assert.Equal(t, "authentication", aborted.AbortReason)
	assert.True(t, aborted.Cases[0].Fatal)
	assert.NotContains(t, buf.String(), "eyJhbGciOi")
}

func TestJUnitFormatter(t *testing.T) {
	var buf bytes.Buffer
	f := NewJUnitFormatter(JUnitWithWriter(&buf))
	f.now = fixedNow

	f.FormatResult(sampleResult())
	f.FormatResult(abortedResult())
	require.NoError(t, f.Flush(time.Second))

	require.True(t, strings.HasPrefix(buf.String(), `<?xml version="1.0" encoding="UTF-8"?>`))

	var suites JUnitTestSuites
	require.NoError(t, xml.Unmarshal(buf.Bytes(), &suites))

	assert.Equal(t, "classifyprobe", suites.Name)
	assert.Equal(t, 5, suites.Tests)
	assert.Equal(t, 1, suites.Failures)
	assert.Equal(t, 1, suites.Errors)
	assert.Equal(t, 1, suites.Skipped)
	require.Len(t, suites.TestSuites, 2)

	prod := suites.TestSuites[0]
	assert.Equal(t, "production @ https://api.example.com:443", prod.Name)
	assert.Nil(t, prod.TestCases[0].Failure)
	assert.Contains(t, prod.TestCases[0].SystemOut, "matchScore: 0.87")
	assert.Contains(t, prod.TestCases[1].SystemOut, "feature NOT found")
	require.NotNil(t, prod.TestCases[2].Failure)
	assert.Equal(t, "expectation mismatch", prod.TestCases[2].Failure.Type)
	assert.Contains(t, prod.TestCases[2].Failure.Content, "businessType equals: expected shoe_store, got retail")

	local := suites.TestSuites[1]
	require.NotNil(t, local.TestCases[0].Error)
	assert.Equal(t, "authentication", local.TestCases[0].Error.Type)
	require.NotNil(t, local.TestCases[1].Skipped)
	assert.Equal(t, "run aborted: not run: aborted after authentication", local.TestCases[1].Skipped.Message)
}

func TestTAPFormatter(t *testing.T) {
	var buf bytes.Buffer
	f := NewTAPFormatter(TAPWithWriter(&buf))

	f.FormatResult(sampleResult())
	f.FormatResult(abortedResult())
	require.NoError(t, f.Flush(time.Second))
	out := buf.String()

	assert.True(t, strings.HasPrefix(out, "TAP version 13\n1..5\n"))
	assert.Contains(t, out, "ok 1 - Retail Store Test\n")
	assert.Contains(t, out, "ok 2 - Restaurant Test\n  ---\n  outcome: inconclusive\n")
	assert.Contains(t, out, "not ok 3 - Shoe Store Test\n")
	assert.Contains(t, out, "  severity: fail\n")
	assert.Contains(t, out, "    - \"businessType equals: expected shoe_store, got retail\"\n")
	assert.Contains(t, out, "not ok 4 - Exact Match\n")
	assert.Contains(t, out, "  status: 401\n  severity: error\n")
	assert.Contains(t, out, "ok 5 - Partial Match # SKIP not run: aborted after authentication\n")
	assert.Contains(t, out, "Bail out! authentication\n")
}

func TestEscapeYAML(t *testing.T) {
	assert.Equal(t, "plain text", escapeYAML("plain text"))
	assert.Equal(t, `"API error 500: boom"`, escapeYAML("API error 500: boom"))
	assert.Equal(t, `"say \"hi\": now"`, escapeYAML(`say "hi": now`))
}

func TestXLSXFormatter(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.xlsx")
	file, err := os.Create(path)
	require.NoError(t, err)

	f := NewXLSXFormatter(XLSXWithWriter(file))
	f.now = fixedNow
	f.FormatHeader("1.2.3")
	f.FormatResult(sampleResult())
	f.FormatResult(abortedResult())
	require.NoError(t, f.Flush(time.Second))
	require.NoError(t, file.Close())

	book, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer book.Close()

	assert.Equal(t, []string{SummarySheet, CasesSheet}, book.GetSheetList())

	summary, err := book.GetRows(SummarySheet)
	require.NoError(t, err)
	assert.Equal(t, []string{"Version", "1.2.3"}, summary[1])
	assert.Equal(t, []string{"Runs", "2"}, summary[3])
	assert.Equal(t, "production", summary[5][1])
	assert.Equal(t, "health check passed", summary[5][3])
	assert.Equal(t, "authentication", summary[6][9])

	cases, err := book.GetRows(CasesSheet)
	require.NoError(t, err)
	require.Len(t, cases, 6)
	assert.Equal(t, XLSXCaseHeaders, cases[0])
	assert.Equal(t, "Retail Store Test", cases[1][2])
	assert.Equal(t, "passed", cases[1][6])
	assert.Equal(t, "0.87", cases[1][12])
	assert.Equal(t, "inconclusive", cases[2][6])
	assert.Equal(t, "authentication", cases[4][7])
	assert.Equal(t, "401", cases[4][8])
}

func TestFormatValue(t *testing.T) {
	assert.Equal(t, "N/A", formatValue(nil, 10))
	assert.Equal(t, "[array with 2 items]", formatValue([]any{1, 2}, 10))
	assert.Equal(t, "abcde...", formatValue("abcdefgh", 5))
}

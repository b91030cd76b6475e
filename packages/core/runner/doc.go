// Package runner sends a suite of test cases to the classify endpoint and
// turns each response into a Verdict.
//
// Cases run strictly one at a time, in suite order, with no retries. An
// optional health probe runs first and only ever produces a warning.
// Connection failures, timeouts, 401/403 and 404 responses are fatal: the
// run stops and the remaining cases are reported as skipped.
//
// A 2xx JSON object containing a "comparison" or "businessNameComparison"
// object passes; one without it is inconclusive. Expected business type and
// isMatch values, when a case declares them, can turn either into a failure.
package runner

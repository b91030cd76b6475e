// Package output renders run results.
//
// Supported output formats:
//   - Console: live, colored progress for a terminal
//   - JSON: machine-readable report
//   - JUnit: JUnit XML for CI integration
//   - TAP: Test Anything Protocol version 13
//   - XLSX: spreadsheet report with a summary and a cases sheet
//
// Each formatter accepts a *runner.RunResult. Formats that accumulate
// results before writing implement Flush. The console formatter also
// implements runner.Observer so it can print each case as it finishes.
package output

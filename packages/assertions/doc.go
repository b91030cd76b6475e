// Package assertions checks classify responses against what a test case
// expects.
//
// Supported checks:
//   - expected business type, compared case-insensitively with spaces and
//     hyphens treated as underscores
//   - expected comparison isMatch
//   - JSON Schema validation of the whole body
//
// A check whose observed value is missing is reported as not evaluated
// rather than failed.
package assertions

// Package cmd implements the classifyprobe CLI commands using Cobra.
//
// Available commands:
//   - run: Send a suite of classify requests and report the verdicts
//   - list: Show the cases of a built-in suite or suite file
//   - validate: Check suite files without sending requests
//   - init: Create classifyprobe.yaml and an example suite
//   - mock: Serve a deterministic mock of the classification API
//   - history: Show runs recorded with --history
//   - version: Show classifyprobe version information
//
// Flags fall back to CLASSIFYPROBE_* environment variables. The exit code
// tells a failed case (1) apart from a run aborted by the network (4),
// authentication (5) or a missing route (6).
package cmd

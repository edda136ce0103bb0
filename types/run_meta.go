// Package types defines core domain types shared across the stax CLI and
// runtime: run identity and the machine-readable result payloads every
// command can emit with --format json.
//
//nolint:revive // types is a common Go package naming convention
package types

// RunMeta identifies a single execution attempt.
// Log entries and result payloads carry these fields so external build
// tools can correlate output across commands.
type RunMeta struct {
	// RunID is the unique identifier for this execution (UUID).
	RunID string `json:"run_id"`
	// Project is the project name from the manifest, if any.
	Project string `json:"project,omitempty"`
	// Script is the script being executed, if any.
	Script string `json:"script,omitempty"`
}

package types

// ErrorOccurrence is one classified r() marker from an interpreter log.
type ErrorOccurrence struct {
	// RCode is the numeric Stata return code.
	RCode int `json:"r_code"`
	// Name is the canonical short name for the code, if known.
	Name string `json:"name,omitempty"`
	// Category is the taxonomy category (syntax, file I/O, memory, ...).
	Category string `json:"category"`
	// Message is the extracted error context from the log, if locatable.
	Message string `json:"message,omitempty"`
	// Line is the 1-based log line number of the marker, if locatable.
	Line int `json:"line,omitempty"`
	// DocRef is the Stata documentation reference for the code.
	DocRef string `json:"doc_ref,omitempty"`
}

// RunReport is the machine-readable record of a single script execution.
type RunReport struct {
	RunID    string `json:"run_id"`
	Script   string `json:"script"`
	Success  bool   `json:"success"`
	ExitCode int    `json:"exit_code"`
	// Errors holds classified error occurrences, in log order.
	Errors []ErrorOccurrence `json:"errors,omitempty"`
	// Killed is true when the subprocess was terminated by a signal.
	Killed bool `json:"killed,omitempty"`
	// DurationSecs is wall-clock execution time in seconds.
	DurationSecs float64 `json:"duration_secs"`
	// LogFile is the path to the interpreter log artifact.
	LogFile string `json:"log_file,omitempty"`
}

// BatchReport aggregates results of a multi-script invocation
// (sequential run, parallel run, task, or test suite).
type BatchReport struct {
	Name         string      `json:"name,omitempty"`
	Success      bool        `json:"success"`
	ExitCode     int         `json:"exit_code"`
	SuccessCount int         `json:"success_count"`
	FailedCount  int         `json:"failed_count"`
	DurationSecs float64     `json:"duration_secs"`
	Reports      []RunReport `json:"reports"`
}

// BenchReport is the machine-readable record of a benchmark invocation.
// Statistics cover the measured runs only; warmup runs are discarded.
type BenchReport struct {
	Script       string  `json:"script"`
	MeasuredRuns int     `json:"measured_runs"`
	WarmupRuns   int     `json:"warmup_runs"`
	MeanSecs     float64 `json:"mean_secs"`
	MedianSecs   float64 `json:"median_secs"`
	MinSecs      float64 `json:"min_secs"`
	MaxSecs      float64 `json:"max_secs"`
	StddevSecs   float64 `json:"stddev_secs"`
	// Success is false when any measured run failed. Statistics are
	// still populated from all measured runs.
	Success bool `json:"success"`
}

// LockReport is the machine-readable record of a lock or lock --check run.
type LockReport struct {
	PackageCount int  `json:"package_count"`
	Updated      bool `json:"updated"`
	InSync       bool `json:"in_sync"`
	// Missing lists manifest packages absent from the lockfile (check mode).
	Missing []string `json:"missing,omitempty"`
	// Extra lists lockfile packages absent from the manifest (check mode).
	Extra []string `json:"extra,omitempty"`
	// Changed lists packages whose locked entry no longer satisfies the
	// manifest declaration (check mode).
	Changed []string `json:"changed,omitempty"`
}

// DepsReport summarizes a dependency graph analysis.
type DepsReport struct {
	Root          string     `json:"root"`
	UniqueCount   int        `json:"unique_count"`
	CircularCount int        `json:"circular_count"`
	MissingCount  int        `json:"missing_count"`
	CircularPaths [][]string `json:"circular_paths,omitempty"`
	MissingFiles  []string   `json:"missing_files,omitempty"`
	Packages      []string   `json:"packages,omitempty"`
}

// DoctorCheck is a single environment check result.
type DoctorCheck struct {
	Name   string `json:"name"`
	OK     bool   `json:"ok"`
	Detail string `json:"detail,omitempty"`
}

// DoctorReport aggregates environment checks.
type DoctorReport struct {
	OK     bool          `json:"ok"`
	Checks []DoctorCheck `json:"checks"`
}

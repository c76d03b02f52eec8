package domain

import "time"

// ScanState is the lifecycle of the single process-wide bulk scan.
type ScanState int32

const (
	// ScanIdle means no bulk scan is running.
	ScanIdle ScanState = iota

	// ScanRunning means a bulk scan holds the busy flag.
	ScanRunning
)

// String returns the string representation.
func (s ScanState) String() string {
	if s == ScanRunning {
		return "running"
	}
	return "idle"
}

// ScanError is a per-file or per-directory failure recorded during a scan.
// Exactly one of File or Directory is set.
type ScanError struct {
	File      string
	Directory string
	Error     string
}

// ScanGroup is a named set of candidate files produced by a scanner.
// Photo library albums each become their own group.
type ScanGroup struct {
	// Name identifies the group for operators (root path or album name).
	Name string

	// Root is the directory the group was enumerated from.
	Root string

	// Files are the accepted candidates, in walk order.
	Files []FileRecord

	// Errors are enumeration failures that did not stop the walk.
	Errors []ScanError
}

// ScanRun aggregates one category (documents or images) of a bulk scan.
type ScanRun struct {
	// Scanned counts every candidate seen, including ledger hits.
	Scanned int

	// Processed counts candidates that were persisted.
	Processed int

	// Empty counts candidates whose extraction yielded no text.
	Empty int

	// Errors are per-file and per-directory failures.
	Errors []ScanError

	// NewFiles are the paths persisted by this run.
	NewFiles []string

	// Groups reports per-group candidate counts, keyed by group name.
	Groups map[string]int
}

// ScanResult is the outcome of one ScanAndIngestAll call.
type ScanResult struct {
	Documents ScanRun
	Images    ScanRun
	StartedAt time.Time
	EndedAt   time.Time

	// Skipped is true when the call found another scan running and returned immediately.
	Skipped bool
}

// Processed returns the number of records persisted across both categories.
func (r *ScanResult) Processed() int {
	return r.Documents.Processed + r.Images.Processed
}

// ErrorCount returns the number of errors across both categories.
func (r *ScanResult) ErrorCount() int {
	return len(r.Documents.Errors) + len(r.Images.Errors)
}

// Duration returns how long the scan took.
func (r *ScanResult) Duration() time.Duration {
	if r.EndedAt.IsZero() {
		return 0
	}
	return r.EndedAt.Sub(r.StartedAt)
}

// Stats summarises the store and the ingestion service state.
type Stats struct {
	TotalDocuments     int
	TotalImages        int
	ProcessedFileCount int
	IsScanning         bool
	LastScanStartedAt  time.Time
	LastScanEndedAt    time.Time
}

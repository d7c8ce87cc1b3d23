package domain

import "time"

// JobStatus tracks each phase of a single conversion request.
type JobStatus string

const (
	JobStatusIdle       JobStatus = "idle"
	JobStatusExtracting JobStatus = "extracting"
	JobStatusConverting JobStatus = "converting"
	JobStatusDone       JobStatus = "done"
	JobStatusFailed     JobStatus = "failed"
)

// Job stores identity and lifecycle status for one conversion request.
type Job struct {
	ID          string    `json:"id"`
	ArchiveName string    `json:"archiveName,omitempty"`
	Status      JobStatus `json:"status"`
	StartedAt   time.Time `json:"startedAt"`
}

// DiagnosticStatus indicates whether a single startup check passed.
type DiagnosticStatus string

const (
	DiagnosticStatusPass DiagnosticStatus = "pass"
	DiagnosticStatusFail DiagnosticStatus = "fail"
)

// DiagnosticItem is one startup check result with an optional hint.
type DiagnosticItem struct {
	ID      string           `json:"id"`
	Name    string           `json:"name"`
	Status  DiagnosticStatus `json:"status"`
	Message string           `json:"message"`
	Hint    string           `json:"hint,omitempty"`
}

// DiagnosticReport aggregates startup checks for logs and API responses.
type DiagnosticReport struct {
	GeneratedAt time.Time        `json:"generatedAt"`
	HasFailures bool             `json:"hasFailures"`
	Items       []DiagnosticItem `json:"items"`
}

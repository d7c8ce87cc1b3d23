// Package jobs tracks conversion requests and keeps a bounded event feed
// for operators. The service processes one conversion at a time by
// convention, not enforcement: driving a desktop application concurrently
// is a known limitation of GUI automation, so overlapping requests are
// surfaced through Begin's return value and the event feed rather than
// queued or rejected.
package jobs

import (
	"fmt"
	"sync"
	"time"

	"indesign-pdf-service/internal/domain"
)

// Tracker records conversion jobs and their lifecycle transitions.
type Tracker struct {
	mu      sync.RWMutex
	jobs    map[string]*domain.Job
	order   []string
	active  int
	maxKeep int
}

// NewTracker creates a tracker retaining up to maxKeep finished jobs.
func NewTracker(maxKeep int) *Tracker {
	if maxKeep <= 0 {
		maxKeep = 50
	}
	return &Tracker{
		jobs:    make(map[string]*domain.Job),
		maxKeep: maxKeep,
	}
}

// Begin registers a new job in extracting state and returns how many other
// jobs were already active, so callers can flag the overlap.
func (t *Tracker) Begin(jobID, archiveName string) int {
	t.mu.Lock()
	defer t.mu.Unlock()

	alreadyActive := t.active
	t.jobs[jobID] = &domain.Job{
		ID:          jobID,
		ArchiveName: archiveName,
		Status:      domain.JobStatusExtracting,
		StartedAt:   time.Now().UTC(),
	}
	t.order = append(t.order, jobID)
	t.active++
	t.trim()

	return alreadyActive
}

// Transition validates and applies a state change for a tracked job.
func (t *Tracker) Transition(jobID string, status domain.JobStatus) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	job, ok := t.jobs[jobID]
	if !ok {
		return fmt.Errorf("unknown job: %s", jobID)
	}
	if job.Status == status {
		return nil
	}
	if !isValidTransition(job.Status, status) {
		return fmt.Errorf("invalid transition: %s -> %s", job.Status, status)
	}

	if isActive(job.Status) && !isActive(status) {
		t.active--
	}
	job.Status = status
	return nil
}

// Finish moves a job to a terminal state, tolerating jobs that already
// reached one.
func (t *Tracker) Finish(jobID string, status domain.JobStatus) {
	t.mu.Lock()
	defer t.mu.Unlock()

	job, ok := t.jobs[jobID]
	if !ok || job.Status == status {
		return
	}
	if isActive(job.Status) {
		t.active--
	}
	job.Status = status
}

// Active reports the number of in-flight conversions.
func (t *Tracker) Active() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.active
}

// Recent returns tracked jobs, most recent first.
func (t *Tracker) Recent() []domain.Job {
	t.mu.RLock()
	defer t.mu.RUnlock()

	out := make([]domain.Job, 0, len(t.order))
	for i := len(t.order) - 1; i >= 0; i-- {
		if job, ok := t.jobs[t.order[i]]; ok {
			out = append(out, *job)
		}
	}
	return out
}

// trim drops the oldest finished jobs beyond the retention limit. Active
// jobs are never dropped.
func (t *Tracker) trim() {
	for len(t.order) > t.maxKeep {
		oldest := t.order[0]
		if job, ok := t.jobs[oldest]; ok && isActive(job.Status) {
			return
		}
		delete(t.jobs, oldest)
		t.order = t.order[1:]
	}
}

// isActive checks whether a status represents an in-flight conversion.
func isActive(status domain.JobStatus) bool {
	switch status {
	case domain.JobStatusExtracting, domain.JobStatusConverting:
		return true
	default:
		return false
	}
}

// isValidTransition enforces the allowed job state machine edges.
func isValidTransition(from, to domain.JobStatus) bool {
	switch from {
	case domain.JobStatusExtracting:
		return to == domain.JobStatusConverting || to == domain.JobStatusFailed
	case domain.JobStatusConverting:
		return to == domain.JobStatusDone || to == domain.JobStatusFailed
	default:
		return false
	}
}

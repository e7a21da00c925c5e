// Package async provides progress tracking and a one-shot background task
// runner. The shard rebalancer reports its stages through Progress.
package async

import (
	"sync"
	"time"
)

// TaskStatus represents the overall state of a background task.
type TaskStatus string

const (
	// StatusRunning indicates the task is in progress.
	StatusRunning TaskStatus = "running"
	// StatusReady indicates the task completed successfully.
	StatusReady TaskStatus = "ready"
	// StatusError indicates the task failed with an error.
	StatusError TaskStatus = "error"
)

// TaskStage represents the current stage of a background task. The stage
// names are task-specific; the rebalancer uses "scanning", "planning", and
// "moving". "quiescing" and "writing" name snapshot steps; no code in this
// module reports them.
type TaskStage string

const (
	StageScanning  TaskStage = "scanning"
	StagePlanning  TaskStage = "planning"
	StageMoving    TaskStage = "moving"
	StageQuiescing TaskStage = "quiescing"
	StageWriting   TaskStage = "writing"
)

// ProgressSnapshot is an immutable snapshot of a task's progress.
type ProgressSnapshot struct {
	Status         string  `json:"status"`
	Stage          string  `json:"stage"`
	ItemsTotal     int     `json:"items_total"`
	ItemsProcessed int     `json:"items_processed"`
	ProgressPct    float64 `json:"progress_pct"`
	ElapsedSeconds int     `json:"elapsed_seconds"`
	ErrorMessage   string  `json:"error_message,omitempty"`
}

// Progress provides thread-safe tracking of a background task's progress.
type Progress struct {
	mu sync.RWMutex

	status         TaskStatus
	stage          TaskStage
	itemsTotal     int
	itemsProcessed int
	startTime      time.Time
	errorMessage   string
}

// NewProgress creates a new progress tracker initialized as running.
func NewProgress() *Progress {
	return &Progress{
		status:    StatusRunning,
		stage:     StageScanning,
		startTime: time.Now(),
	}
}

// SetStage updates the current stage and resets the total item count.
func (p *Progress) SetStage(stage TaskStage, total int) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.stage = stage
	p.itemsTotal = total
}

// UpdateItems updates the number of processed items in the current stage.
func (p *Progress) UpdateItems(processed int) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.itemsProcessed = processed
}

// SetError marks the task as failed with an error message.
func (p *Progress) SetError(message string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.status = StatusError
	p.errorMessage = message
}

// SetReady marks the task as complete.
func (p *Progress) SetReady() {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.status = StatusReady
}

// IsRunning returns true if the task is still in progress.
func (p *Progress) IsRunning() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()

	return p.status == StatusRunning
}

// Snapshot returns an immutable copy of the current progress state.
func (p *Progress) Snapshot() ProgressSnapshot {
	p.mu.RLock()
	defer p.mu.RUnlock()

	var progressPct float64
	if p.itemsTotal > 0 {
		progressPct = float64(p.itemsProcessed) / float64(p.itemsTotal) * 100.0
	}

	return ProgressSnapshot{
		Status:         string(p.status),
		Stage:          string(p.stage),
		ItemsTotal:     p.itemsTotal,
		ItemsProcessed: p.itemsProcessed,
		ProgressPct:    progressPct,
		ElapsedSeconds: int(time.Since(p.startTime).Seconds()),
		ErrorMessage:   p.errorMessage,
	}
}

package downloader

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

var (
	// ErrJobInFlight is returned by Start while another job is pending or running.
	ErrJobInFlight = errors.New("a download job is already in progress")
	// ErrNoDestination is returned by Start when no destination directory is given.
	ErrNoDestination = errors.New("no destination directory")
)

// State is the lifecycle position of a Job.
type State int

const (
	// StatePending covers the expansion of the selection.
	StatePending State = iota
	// StateRunning means files are being downloaded.
	StateRunning
	// StateCompleted means every key was attempted.
	StateCompleted
	// StateCanceled means the job was stopped before the end.
	StateCanceled
)

func (s State) String() string {
	switch s {
	case StatePending:
		return "pending"
	case StateRunning:
		return "running"
	case StateCompleted:
		return "completed"
	default:
		return "canceled"
	}
}

// MarshalText encodes the state by name.
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Terminal reports whether the job is over.
func (s State) Terminal() bool {
	return s == StateCompleted || s == StateCanceled
}

// Event is sent on Job.Events: a ProgressEvent per attempted file then one DoneEvent.
type Event interface {
	event()
}

// ProgressEvent carries the progress after one more file.
type ProgressEvent struct {
	Progress
}

// DoneEvent is the last event of a job.
type DoneEvent struct {
	Report *Report
}

func (ProgressEvent) event() {}
func (DoneEvent) event()     {}

// Snapshot is a point-in-time copy of a job, suitable for JSON.
type Snapshot struct {
	ID          string     `json:"id"`
	Bucket      string     `json:"bucket"`
	Destination string     `json:"destination"`
	State       State      `json:"state"`
	Progress    Progress   `json:"progress"`
	StartedAt   time.Time  `json:"startedAt"`
	FinishedAt  *time.Time `json:"finishedAt,omitempty"`
	Report      *Report    `json:"report,omitempty"`
}

// Job is one download run.
type Job struct {
	id          uuid.UUID
	bucket      string
	destination string
	cancel      *CancelSignal
	startedAt   time.Time

	mu         sync.RWMutex
	state      State
	progress   Progress
	finishedAt time.Time
	report     *Report

	events chan Event
	done   chan struct{}
}

// ID is the unique id of the job.
func (j *Job) ID() string {
	return j.id.String()
}

// State returns the current lifecycle state.
func (j *Job) State() State {
	j.mu.RLock()
	defer j.mu.RUnlock()
	return j.state
}

// Cancel asks the job to stop at the next file boundary.
func (j *Job) Cancel() {
	j.cancel.Cancel()
}

// Events streams progress. The channel is buffered for the whole job, so
// nobody has to read it, and it is closed after the DoneEvent.
func (j *Job) Events() <-chan Event {
	return j.events
}

// Done is closed when the job has finished.
func (j *Job) Done() <-chan struct{} {
	return j.done
}

// Wait blocks until the job has finished and returns its report.
func (j *Job) Wait() *Report {
	<-j.done
	j.mu.RLock()
	defer j.mu.RUnlock()
	return j.report
}

// Snapshot copies the job state.
func (j *Job) Snapshot() Snapshot {
	j.mu.RLock()
	defer j.mu.RUnlock()
	s := Snapshot{
		ID:          j.ID(),
		Bucket:      j.bucket,
		Destination: j.destination,
		State:       j.state,
		Progress:    j.progress,
		StartedAt:   j.startedAt,
		Report:      j.report,
	}
	if !j.finishedAt.IsZero() {
		finished := j.finishedAt
		s.FinishedAt = &finished
	}
	return s
}

func (j *Job) setRunning(total int) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.state = StateRunning
	j.progress = Progress{Total: total}
	j.events = make(chan Event, total+1)
}

func (j *Job) onProgress(p Progress) {
	j.mu.Lock()
	j.progress = p
	j.mu.Unlock()
	j.events <- ProgressEvent{Progress: p}
}

func (j *Job) finish(report *Report) {
	j.mu.Lock()
	j.report = report
	j.finishedAt = time.Now()
	if report.Outcome == OutcomeCanceled {
		j.state = StateCanceled
	} else {
		j.state = StateCompleted
	}
	j.mu.Unlock()

	j.events <- DoneEvent{Report: report}
	close(j.events)
	close(j.done)
}

// Runner runs at most one job at a time.
type Runner struct {
	engine *Engine
	log    *slog.Logger

	mu       sync.Mutex
	starting bool
	current  *Job
}

// NewRunner returns a Runner driving engine.
func NewRunner(engine *Engine) *Runner {
	return &Runner{
		engine: engine,
		log:    slog.New(slog.DiscardHandler),
	}
}

// SetLogger sets the logger
func (r *Runner) SetLogger(log *slog.Logger) {
	r.log = log
}

// Current returns the running or last finished job, or nil.
func (r *Runner) Current() *Job {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.current
}

// Start expands sel and then downloads it in the background.
//
// The expansion happens before Start returns, so listing failures are
// returned to the caller and no job is recorded. A second Start during the
// expansion fails with ErrJobInFlight. ctx governs the whole job:
// canceling it stops the job like Job.Cancel does and also aborts the
// transfer in progress.
func (r *Runner) Start(ctx context.Context, bucket string, sel Selection, destination string) (*Job, error) {
	if destination == "" {
		return nil, ErrNoDestination
	}

	job := &Job{
		id:          uuid.New(),
		bucket:      bucket,
		destination: destination,
		cancel:      NewCancelSignal(),
		startedAt:   time.Now(),
		state:       StatePending,
		done:        make(chan struct{}),
	}

	r.mu.Lock()
	if r.starting || (r.current != nil && !r.current.State().Terminal()) {
		r.mu.Unlock()
		return nil, ErrJobInFlight
	}
	r.starting = true
	r.mu.Unlock()

	log := r.log.With(slog.String("job", job.ID()))
	keys, err := r.engine.Expand(ctx, bucket, sel)
	if err != nil {
		r.mu.Lock()
		r.starting = false
		r.mu.Unlock()
		log.Error("Error expanding selection", slog.String("error", err.Error()))
		return nil, err
	}

	job.setRunning(len(keys))
	r.mu.Lock()
	r.starting = false
	r.current = job
	r.mu.Unlock()
	log.Info("Download started",
		slog.String("bucket", bucket),
		slog.String("destination", destination),
		slog.Int("files", len(keys)))

	go func() {
		report := r.engine.Execute(ctx, bucket, keys, destination, job.onProgress, job.cancel)
		job.finish(report)
		log.Info("Download job over",
			slog.String("state", job.State().String()),
			slog.Int("failed", len(report.Failed)))
	}()
	return job, nil
}

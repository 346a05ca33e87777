package downloader

import (
	"encoding/json"
	"sync/atomic"
)

// Outcome is how a job ended.
type Outcome int

const (
	// OutcomeCompleted means every key was attempted.
	OutcomeCompleted Outcome = iota
	// OutcomeCanceled means the job stopped at a file boundary.
	OutcomeCanceled
)

func (o Outcome) String() string {
	if o == OutcomeCanceled {
		return "canceled"
	}
	return "completed"
}

// MarshalText encodes the outcome by name.
func (o Outcome) MarshalText() ([]byte, error) {
	return []byte(o.String()), nil
}

// FileResult is the fate of a single key. Err is nil on success.
type FileResult struct {
	Key       string
	LocalPath string
	Err       error
}

// MarshalJSON renders Err as a message.
func (r FileResult) MarshalJSON() ([]byte, error) {
	out := struct {
		Key       string `json:"key"`
		LocalPath string `json:"localPath,omitempty"`
		Error     string `json:"error,omitempty"`
	}{Key: r.Key, LocalPath: r.LocalPath}
	if r.Err != nil {
		out.Error = r.Err.Error()
	}
	return json.Marshal(out)
}

// Report sums up a finished job. Results follow the order of the keys.
type Report struct {
	Outcome   Outcome      `json:"outcome"`
	Total     int          `json:"total"`
	Processed int          `json:"processed"`
	Succeeded int          `json:"succeeded"`
	Results   []FileResult `json:"-"`
	Failed    []FileResult `json:"failed,omitempty"`
}

// FailedKeys lists the keys that could not be downloaded.
func (r *Report) FailedKeys() []string {
	keys := make([]string, 0, len(r.Failed))
	for _, f := range r.Failed {
		keys = append(keys, f.Key)
	}
	return keys
}

// CancelSignal is a one-shot stop request. Once raised it stays raised.
// A nil *CancelSignal is never raised.
type CancelSignal struct {
	requested atomic.Bool
}

// NewCancelSignal returns a lowered signal.
func NewCancelSignal() *CancelSignal {
	return &CancelSignal{}
}

// Cancel raises the signal. It is safe to call from any goroutine, more than once.
func (c *CancelSignal) Cancel() {
	c.requested.Store(true)
}

// Requested reports whether Cancel was called.
func (c *CancelSignal) Requested() bool {
	return c != nil && c.requested.Load()
}

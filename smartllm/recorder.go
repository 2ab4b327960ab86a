package smartllm

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// CallRecord maps a caller name to the configured functions it invoked, in
// call order.
type CallRecord map[string][]string

// Call is one recorded invocation.
type Call struct {
	ID     string    `json:"id" yaml:"id"`
	Caller string    `json:"caller" yaml:"caller"`
	Callee string    `json:"callee" yaml:"callee"`
	At     time.Time `json:"at" yaml:"at"`
}

// Recorder is the in-memory log of configured-function calls. It is safe for
// concurrent use.
type Recorder struct {
	mu    sync.Mutex
	calls []Call
	now   func() time.Time
}

// NewRecorder creates an empty Recorder.
func NewRecorder() *Recorder {
	return &Recorder{now: time.Now}
}

// Record appends callee to caller's sequence.
func (r *Recorder) Record(caller, callee string) Call {
	r.mu.Lock()
	defer r.mu.Unlock()
	c := Call{
		ID:     uuid.NewString(),
		Caller: caller,
		Callee: callee,
		At:     r.now(),
	}
	r.calls = append(r.calls, c)
	return c
}

// Clear removes every recorded call.
func (r *Recorder) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = nil
}

// Calls returns a snapshot of the record grouped by caller.
func (r *Recorder) Calls() CallRecord {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make(CallRecord)
	for _, c := range r.calls {
		out[c.Caller] = append(out[c.Caller], c.Callee)
	}
	return out
}

// History returns a copy of every recorded call in order.
func (r *Recorder) History() []Call {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Call, len(r.calls))
	copy(out, r.calls)
	return out
}

// Len returns the number of recorded calls.
func (r *Recorder) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.calls)
}

package export

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/camroll/camroll/internal/domain"
)

// State is the lifecycle state of a job.
type State string

const (
	StateIdle      State = "idle"
	StateRunning   State = "running"
	StateCompleted State = "completed"
	StateCancelled State = "cancelled"
)

// Terminal reports whether the state is a terminal one.
func (s State) Terminal() bool {
	return s == StateCompleted || s == StateCancelled
}

// Callbacks carries the caller's notification hooks for one run. Any
// hook may be nil. Hooks run on a dedicated notifier goroutine, in
// emission order, so they never block the transfer worker; OnComplete
// is always the last call.
type Callbacks struct {
	OnProgress func(processed, total int, message string)
	OnError    func(message string)
	OnComplete func(cancelled bool, processed, total int)
}

// Summary is the terminal tally of a job.
type Summary struct {
	Cancelled bool `json:"cancelled"`
	Processed int  `json:"processed"`
	Total     int  `json:"total"`
}

// ItemError records one isolated per-item failure.
type ItemError struct {
	AssetID domain.AssetID `json:"asset_id,omitempty"`
	Album   string         `json:"album,omitempty"`
	Reason  string         `json:"reason"`
}

// Job is the handle to one export run. It is created by the engine,
// mutated only by the run's single worker, and safe to inspect from
// any goroutine.
type Job struct {
	ID        string
	Mode      domain.ExportMode
	DestRoot  string
	StartedAt time.Time

	cancelled atomic.Bool

	mu          sync.Mutex
	state       State
	processed   int
	total       int
	lastMessage string
	errs        []ItemError

	notify *notifier
	done   chan struct{}
}

func newJob(mode domain.ExportMode, destRoot string, total int, cb Callbacks) *Job {
	return &Job{
		ID:        uuid.NewString(),
		Mode:      mode,
		DestRoot:  destRoot,
		StartedAt: time.Now(),
		state:     StateRunning,
		total:     total,
		notify:    newNotifier(cb),
		done:      make(chan struct{}),
	}
}

// RequestCancel asks the run to stop. Cancellation is cooperative:
// the worker observes the flag before each album and each asset, so at
// most one in-flight item completes after the request.
func (j *Job) RequestCancel() {
	j.cancelled.Store(true)
}

// Done is closed once the terminal summary has been delivered.
func (j *Job) Done() <-chan struct{} {
	return j.done
}

// State returns the job's lifecycle state.
func (j *Job) State() State {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.state
}

// Summary returns the current tally. After Done it is the terminal
// summary.
func (j *Job) Summary() Summary {
	j.mu.Lock()
	defer j.mu.Unlock()
	return Summary{
		Cancelled: j.state == StateCancelled,
		Processed: j.processed,
		Total:     j.total,
	}
}

// LastMessage returns the most recent progress message.
func (j *Job) LastMessage() string {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.lastMessage
}

// Errors returns a snapshot of the per-item failures recorded so far.
func (j *Job) Errors() []ItemError {
	j.mu.Lock()
	defer j.mu.Unlock()
	out := make([]ItemError, len(j.errs))
	copy(out, j.errs)
	return out
}

// markProcessed increments the processed counter. Worker only.
func (j *Job) markProcessed() (processed, total int) {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.processed < j.total {
		j.processed++
	}
	return j.processed, j.total
}

// emitProgress records and dispatches a progress notification.
func (j *Job) emitProgress(processed, total int, message string) {
	j.mu.Lock()
	j.lastMessage = message
	j.mu.Unlock()

	j.notify.dispatch(func(cb Callbacks) {
		if cb.OnProgress != nil {
			cb.OnProgress(processed, total, message)
		}
	})
}

// recordError appends a per-item failure and dispatches the error
// callback. The run continues past the failed item.
func (j *Job) recordError(item ItemError) {
	j.mu.Lock()
	j.errs = append(j.errs, item)
	j.mu.Unlock()

	j.notify.dispatch(func(cb Callbacks) {
		if cb.OnError != nil {
			cb.OnError(item.Reason)
		}
	})
}

// finish transitions to a terminal state, delivers the terminal
// summary, and releases the notifier. Worker only, called exactly once.
func (j *Job) finish(cancelled bool) {
	j.mu.Lock()
	if cancelled {
		j.state = StateCancelled
	} else {
		j.state = StateCompleted
	}
	processed, total := j.processed, j.total
	j.mu.Unlock()

	j.notify.dispatch(func(cb Callbacks) {
		if cb.OnComplete != nil {
			cb.OnComplete(cancelled, processed, total)
		}
	})
	j.notify.close()
	close(j.done)
}

// notifier serializes callback delivery on its own goroutine so the
// transfer worker never waits on the caller's notification context.
type notifier struct {
	cb      Callbacks
	ch      chan func(Callbacks)
	drained chan struct{}
}

func newNotifier(cb Callbacks) *notifier {
	n := &notifier{
		cb:      cb,
		ch:      make(chan func(Callbacks), 1024),
		drained: make(chan struct{}),
	}
	go n.run()
	return n
}

func (n *notifier) run() {
	for fn := range n.ch {
		fn(n.cb)
	}
	close(n.drained)
}

func (n *notifier) dispatch(fn func(Callbacks)) {
	n.ch <- fn
}

// close stops the notifier after all queued notifications have run.
func (n *notifier) close() {
	close(n.ch)
	<-n.drained
}

package game

import (
	"sync"

	"github.com/google/uuid"
)

// DefaultIntakeCapacity bounds the number of submissions waiting for a tick.
const DefaultIntakeCapacity = 64

// Submission is one accepted command waiting to reach an executor.
type Submission struct {
	ID      uuid.UUID `json:"id"`
	Tank    TankID    `json:"tank"`
	Text    string    `json:"text"`
	Actions []Action  `json:"actions"`
}

// Intake is the only asynchronous boundary of the core: control goroutines
// push parsed commands in, the tick loop drains them once per tick.
type Intake struct {
	mu     sync.RWMutex
	ch     chan Submission
	closed bool
}

// NewIntake returns an intake holding at most capacity pending submissions.
func NewIntake(capacity int) *Intake {
	if capacity <= 0 {
		capacity = DefaultIntakeCapacity
	}
	return &Intake{ch: make(chan Submission, capacity)}
}

// Submit queues actions for tank without blocking. The returned submission
// carries a fresh id.
func (in *Intake) Submit(tank TankID, text string, actions []Action) (Submission, error) {
	if !tank.Valid() {
		return Submission{}, ErrUnknownTank
	}
	sub := Submission{ID: uuid.New(), Tank: tank, Text: text, Actions: append([]Action(nil), actions...)}

	in.mu.RLock()
	defer in.mu.RUnlock()
	if in.closed {
		return Submission{}, ErrIntakeClosed
	}
	select {
	case in.ch <- sub:
		return sub, nil
	default:
		return Submission{}, ErrIntakeFull
	}
}

// Drain empties the intake and returns, per tank, only the newest
// submission, along with how many older ones it superseded.
func (in *Intake) Drain() (latest map[TankID]Submission, superseded int) {
	latest = make(map[TankID]Submission, 2)
	for {
		select {
		case sub, ok := <-in.ch:
			if !ok {
				return latest, superseded
			}
			if _, dup := latest[sub.Tank]; dup {
				superseded++
			}
			latest[sub.Tank] = sub
		default:
			return latest, superseded
		}
	}
}

// Len returns the number of pending submissions.
func (in *Intake) Len() int { return len(in.ch) }

// Close rejects further submissions. Pending ones can still be drained.
func (in *Intake) Close() {
	in.mu.Lock()
	defer in.mu.Unlock()
	if !in.closed {
		in.closed = true
		close(in.ch)
	}
}

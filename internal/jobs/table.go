// Package jobs holds the shell's job table.
package jobs

import (
	"errors"
	"sync"
)

// DefaultCapacity is the number of job slots used when none is configured.
const DefaultCapacity = 16

var (
	ErrFull           = errors.New("job table full")
	ErrInvalidPID     = errors.New("invalid pid")
	ErrNoSuchJob      = errors.New("no such job")
	ErrForegroundBusy = errors.New("another job is in the foreground")
)

// State is the shell-visible state of a job.
type State int

const (
	Undefined State = iota
	Foreground
	Background
	Stopped
)

func (s State) String() string {
	switch s {
	case Foreground:
		return "Foreground"
	case Background:
		return "Running"
	case Stopped:
		return "Stopped"
	default:
		return "Undefined"
	}
}

// Job is one tracked child process. A zero PID marks an unused slot.
type Job struct {
	PID     int
	JID     int
	State   State
	CmdLine string
}

// Table is a fixed-capacity registry of live jobs.
//
// It is shared between the read loop and the signal goroutine. Every method
// takes the internal lock for the duration of one slot scan only, so callers
// must expect a job to change or vanish between two calls. Lookups return
// copies for the same reason.
type Table struct {
	mu      sync.Mutex
	slots   []Job
	nextJID int
	changed chan struct{}
}

// New creates an empty table with the given number of slots.
func New(capacity int) *Table {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Table{
		slots:   make([]Job, capacity),
		nextJID: 1,
		changed: make(chan struct{}),
	}
}

// Capacity returns the number of slots.
func (t *Table) Capacity() int {
	return len(t.slots)
}

// Insert registers a new job and returns its job id.
func (t *Table) Insert(pid int, state State, cmdline string) (int, error) {
	if pid < 1 {
		return 0, ErrInvalidPID
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if state == Foreground && t.foregroundLocked() != 0 {
		return 0, ErrForegroundBusy
	}

	for i := range t.slots {
		if t.slots[i].PID != 0 {
			continue
		}
		t.slots[i] = Job{
			PID:     pid,
			JID:     t.allocJIDLocked(),
			State:   state,
			CmdLine: cmdline,
		}
		t.notifyLocked()
		return t.slots[i].JID, nil
	}
	return 0, ErrFull
}

// allocJIDLocked hands out the next job id. The counter wraps to 1 once it
// passes the capacity; ids still held by live jobs are skipped.
func (t *Table) allocJIDLocked() int {
	for {
		jid := t.nextJID
		t.nextJID++
		if t.nextJID > len(t.slots) {
			t.nextJID = 1
		}
		if !t.jidLiveLocked(jid) {
			return jid
		}
	}
}

func (t *Table) jidLiveLocked(jid int) bool {
	for i := range t.slots {
		if t.slots[i].PID != 0 && t.slots[i].JID == jid {
			return true
		}
	}
	return false
}

// Remove clears the slot holding pid. After a removal the next job id is
// re-based to MaxJID()+1.
func (t *Table) Remove(pid int) bool {
	if pid < 1 {
		return false
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	for i := range t.slots {
		if t.slots[i].PID == pid {
			t.slots[i] = Job{}
			t.nextJID = t.maxJIDLocked() + 1
			t.notifyLocked()
			return true
		}
	}
	return false
}

// SetState moves the job holding pid to state.
func (t *Table) SetState(pid int, state State) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	for i := range t.slots {
		if pid < 1 || t.slots[i].PID != pid {
			continue
		}
		if state == Foreground {
			if fg := t.foregroundLocked(); fg != 0 && fg != pid {
				return ErrForegroundBusy
			}
		}
		if t.slots[i].State != state {
			t.slots[i].State = state
			t.notifyLocked()
		}
		return nil
	}
	return ErrNoSuchJob
}

// FindByPID returns a copy of the job holding pid.
func (t *Table) FindByPID(pid int) (Job, bool) {
	if pid < 1 {
		return Job{}, false
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	for _, j := range t.slots {
		if j.PID == pid {
			return j, true
		}
	}
	return Job{}, false
}

// FindByJID returns a copy of the job with job id jid.
func (t *Table) FindByJID(jid int) (Job, bool) {
	if jid < 1 {
		return Job{}, false
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	for _, j := range t.slots {
		if j.PID != 0 && j.JID == jid {
			return j, true
		}
	}
	return Job{}, false
}

// PIDToJID maps a pid to its job id, or 0.
func (t *Table) PIDToJID(pid int) int {
	j, ok := t.FindByPID(pid)
	if !ok {
		return 0
	}
	return j.JID
}

// ForegroundPID returns the pid of the foreground job, or 0 if there is none.
func (t *Table) ForegroundPID() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.foregroundLocked()
}

func (t *Table) foregroundLocked() int {
	for _, j := range t.slots {
		if j.PID != 0 && j.State == Foreground {
			return j.PID
		}
	}
	return 0
}

// MaxJID returns the largest job id in use, or 0 for an empty table.
func (t *Table) MaxJID() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.maxJIDLocked()
}

func (t *Table) maxJIDLocked() int {
	hi := 0
	for _, j := range t.slots {
		if j.PID != 0 && j.JID > hi {
			hi = j.JID
		}
	}
	return hi
}

// List returns the live jobs in slot order.
func (t *Table) List() []Job {
	t.mu.Lock()
	defer t.mu.Unlock()

	out := make([]Job, 0, len(t.slots))
	for _, j := range t.slots {
		if j.PID != 0 {
			out = append(out, j)
		}
	}
	return out
}

// Len returns the number of live jobs.
func (t *Table) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()

	n := 0
	for _, j := range t.slots {
		if j.PID != 0 {
			n++
		}
	}
	return n
}

// Full reports whether every slot is in use.
func (t *Table) Full() bool {
	return t.Len() == len(t.slots)
}

// Changes returns a channel that is closed on the next mutation of the table.
// Fetch it before inspecting the table so that no change is missed.
func (t *Table) Changes() <-chan struct{} {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.changed
}

func (t *Table) notifyLocked() {
	close(t.changed)
	t.changed = make(chan struct{})
}

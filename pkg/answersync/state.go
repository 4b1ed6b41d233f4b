package answersync

import "sync"

// State is the sync status of one question's answer.
type State int

const (
	// Idle fields have not been edited since the last load.
	Idle State = iota
	// Pending fields have at least one persist call in flight.
	Pending
	// Committed fields were persisted and applied to the snapshot.
	Committed
	// Failed fields saw their last persist call fail; they stay editable.
	Failed
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Pending:
		return "pending"
	case Committed:
		return "committed"
	case Failed:
		return "failed"
	default:
		return "unknown"
	}
}

// FieldState is the observable status of one field.
type FieldState struct {
	State    State
	InFlight int
	Err      error
}

// Tracker records per-field sync state. Concurrent edits of one field are
// counted; the field stays Pending until every call settled and then takes
// the outcome of the call that completed last.
type Tracker struct {
	mu     sync.Mutex
	fields map[string]*FieldState
}

// NewTracker returns an empty tracker.
func NewTracker() *Tracker {
	return &Tracker{fields: make(map[string]*FieldState)}
}

// Begin marks a persist call for code as in flight.
func (t *Tracker) Begin(code string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	field := t.field(code)
	field.InFlight++
	field.State = Pending
}

// Succeed settles one in-flight call for code.
func (t *Tracker) Succeed(code string) {
	t.settle(code, nil)
}

// Fail settles one in-flight call for code with err.
func (t *Tracker) Fail(code string, err error) {
	t.settle(code, err)
}

func (t *Tracker) settle(code string, err error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	field := t.field(code)
	if field.InFlight > 0 {
		field.InFlight--
	}
	field.Err = err
	if field.InFlight > 0 {
		return
	}
	if err != nil {
		field.State = Failed
		return
	}
	field.State = Committed
}

// Get returns the state of code; untouched fields are Idle.
func (t *Tracker) Get(code string) FieldState {
	t.mu.Lock()
	defer t.mu.Unlock()
	if field, ok := t.fields[code]; ok {
		return *field
	}
	return FieldState{}
}

// Snapshot copies the state of every tracked field.
func (t *Tracker) Snapshot() map[string]FieldState {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make(map[string]FieldState, len(t.fields))
	for code, field := range t.fields {
		out[code] = *field
	}
	return out
}

// Busy reports whether any field has a call in flight.
func (t *Tracker) Busy() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, field := range t.fields {
		if field.InFlight > 0 {
			return true
		}
	}
	return false
}

// ResetSettled drops committed fields after a reload. Failed and pending
// fields are kept so their errors and in-flight calls stay visible.
func (t *Tracker) ResetSettled() {
	t.mu.Lock()
	defer t.mu.Unlock()
	for code, field := range t.fields {
		if field.State == Committed && field.InFlight == 0 {
			delete(t.fields, code)
		}
	}
}

func (t *Tracker) field(code string) *FieldState {
	field, ok := t.fields[code]
	if !ok {
		field = &FieldState{}
		t.fields[code] = field
	}
	return field
}

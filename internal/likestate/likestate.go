// Package likestate holds the like/unlike state machine for a single
// (user, product) pair, plus the optimistic prediction layer that sits on
// top of it.
//
// Two tables drive everything:
//
//	toggleTable     (state)        -> next state + store action
//	optimisticTable (phase, event) -> phase change + what is shown
//
// Callers never flip booleans by hand; they feed events and read states.
package likestate

import (
	"errors"
	"fmt"
)

// State is whether the user currently likes the product.
type State int

const (
	NotLiked State = iota // initial state
	Liked
)

func (s State) String() string {
	switch s {
	case NotLiked:
		return "not_liked"
	case Liked:
		return "liked"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// IsLiked reports whether s is Liked.
func (s State) IsLiked() bool { return s == Liked }

// FromLiked converts a stored boolean into a State.
func FromLiked(liked bool) State {
	if liked {
		return Liked
	}
	return NotLiked
}

// Action is the store mutation that realises a transition.
type Action int

const (
	InsertLike Action = iota + 1
	DeleteLike
)

func (a Action) String() string {
	switch a {
	case InsertLike:
		return "insert"
	case DeleteLike:
		return "delete"
	}
	return fmt.Sprintf("Action(%d)", int(a))
}

type transition struct {
	next   State
	action Action
}

var toggleTable = map[State]transition{
	NotLiked: {next: Liked, action: InsertLike},
	Liked:    {next: NotLiked, action: DeleteLike},
}

// Toggle returns the state reached by toggling from s and the store action
// that gets there. It is a toggle, not a set: applying it twice returns to s.
func Toggle(s State) (State, Action) {
	t, ok := toggleTable[s]
	if !ok {
		panic(fmt.Sprintf("likestate: no transition from %v", s))
	}
	return t.next, t.action
}

// =========================================================================
// OPTIMISTIC LAYER
// =========================================================================

// Event drives the optimistic layer.
type Event int

const (
	EventToggle  Event = iota + 1 // user asked to toggle
	EventSuccess                  // the store confirmed the predicted state
	EventFailure                  // the store operation failed
)

func (e Event) String() string {
	switch e {
	case EventToggle:
		return "toggle"
	case EventSuccess:
		return "success"
	case EventFailure:
		return "failure"
	}
	return fmt.Sprintf("Event(%d)", int(e))
}

type phase int

const (
	idle phase = iota
	pending
)

var (
	// ErrPending is returned for a toggle while an earlier one is in flight.
	ErrPending = errors.New("likestate: a toggle is already pending")
	// ErrNothingPending is returned for success/failure with no toggle in flight.
	ErrNothingPending = errors.New("likestate: no toggle is pending")
)

type optimisticKey struct {
	phase phase
	event Event
}

// optimisticTable is the compensating-action table: a failure always puts
// the shown state back to the last confirmed state.
var optimisticTable = map[optimisticKey]func(o *Optimistic){
	{idle, EventToggle}: func(o *Optimistic) {
		o.shown, o.action = Toggle(o.confirmed)
		o.phase = pending
	},
	{pending, EventSuccess}: func(o *Optimistic) {
		o.confirmed = o.shown
		o.phase = idle
	},
	{pending, EventFailure}: func(o *Optimistic) {
		o.shown = o.confirmed
		o.phase = idle
	},
}

// Optimistic tracks a predicted like state against the last confirmed one.
//
// Typical use:
//
//	o := likestate.NewOptimistic(current)
//	action, _ := o.Fire(likestate.EventToggle) // show the prediction now
//	if err := store(action); err != nil {
//	    o.Fire(likestate.EventFailure)         // back to confirmed
//	} else {
//	    o.Fire(likestate.EventSuccess)         // prediction becomes confirmed
//	}
//
// An Optimistic is not safe for concurrent use.
type Optimistic struct {
	confirmed State
	shown     State
	action    Action
	phase     phase
}

// NewOptimistic starts idle with confirmed as both the confirmed and shown state.
func NewOptimistic(confirmed State) *Optimistic {
	return &Optimistic{confirmed: confirmed, shown: confirmed}
}

// Fire applies e. For EventToggle it returns the store action the caller
// must perform; for the other events the returned Action is zero.
func (o *Optimistic) Fire(e Event) (Action, error) {
	apply, ok := optimisticTable[optimisticKey{o.phase, e}]
	if !ok {
		if o.phase == pending {
			return 0, ErrPending
		}
		return 0, ErrNothingPending
	}
	apply(o)
	if e == EventToggle {
		return o.action, nil
	}
	return 0, nil
}

// Shown is the state to display: the prediction while pending, otherwise
// the confirmed state.
func (o *Optimistic) Shown() State { return o.shown }

// Confirmed is the last state the store acknowledged.
func (o *Optimistic) Confirmed() State { return o.confirmed }

// Pending reports whether a toggle awaits success or failure.
func (o *Optimistic) Pending() bool { return o.phase == pending }

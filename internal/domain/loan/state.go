package loan

import (
	"fmt"
	"strings"

	"tuichain-backend/internal/domain/errs"
)

// State is the off-chain lifecycle state of a loan request. Once a loan is
// APPROVED its further lifecycle is the settlement backend's phase.
type State uint8

const (
	StatePending State = iota
	StateCreating
	StateApproved
	StateWithdrawn
	StateRejected

	stateCount
)

var stateNames = [stateCount]string{
	StatePending:   "PENDING",
	StateCreating:  "CREATING",
	StateApproved:  "APPROVED",
	StateWithdrawn: "WITHDRAWN",
	StateRejected:  "REJECTED",
}

// transitions[from][to] reports whether from -> to is a legal edge.
// CREATING -> PENDING releases a claim whose settlement call failed.
var transitions = [stateCount][stateCount]bool{
	StatePending: {
		StateCreating:  true,
		StateWithdrawn: true,
		StateRejected:  true,
	},
	StateCreating: {
		StateApproved: true,
		StatePending:  true,
	},
	StateApproved:  {},
	StateWithdrawn: {},
	StateRejected:  {},
}

func (s State) Valid() bool { return s < stateCount }

func (s State) String() string {
	if !s.Valid() {
		return fmt.Sprintf("State(%d)", uint8(s))
	}
	return stateNames[s]
}

// Terminal reports whether the student may open a new loan while holding a
// loan in this state.
func (s State) Terminal() bool {
	return s == StateWithdrawn || s == StateRejected
}

func (s State) CanTransitionTo(next State) bool {
	if !s.Valid() || !next.Valid() {
		return false
	}
	return transitions[s][next]
}

// ParseState resolves a state by its name, case-insensitively.
func ParseState(name string) (State, bool) {
	name = strings.ToUpper(strings.TrimSpace(name))
	for i, n := range stateNames {
		if n == name {
			return State(i), true
		}
	}
	return 0, false
}

// OpenStates are the states that block a student from creating another loan.
func OpenStates() []State {
	out := make([]State, 0, stateCount)
	for s := State(0); s < stateCount; s++ {
		if !s.Terminal() {
			out = append(out, s)
		}
	}
	return out
}

func (s State) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

func (s *State) UnmarshalText(b []byte) error {
	v, ok := ParseState(string(b))
	if !ok {
		return fmt.Errorf("unknown loan state %q", string(b))
	}
	*s = v
	return nil
}

type TransitionError struct {
	From, To State
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("loan cannot move from %s to %s", e.From, e.To)
}

func (e *TransitionError) Is(target error) bool { return target == errs.ErrInvalidState }

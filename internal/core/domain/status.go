package domain

import (
	"fmt"
	"strings"
)

// Status is the lifecycle state of a meetup.
type Status int

const (
	StatusRecruiting Status = iota + 1
	StatusConfirmed
	StatusFinished
	StatusCanceled
)

var statusNames = map[Status]string{
	StatusRecruiting: "RECRUITING",
	StatusConfirmed:  "CONFIRMED",
	StatusFinished:   "FINISHED",
	StatusCanceled:   "CANCELED",
}

// allowedTransitions lists the legal targets of each state.
// FINISHED and CANCELED are terminal.
var allowedTransitions = map[Status][]Status{
	StatusRecruiting: {StatusCanceled, StatusConfirmed},
	StatusConfirmed:  {StatusFinished},
	StatusFinished:   nil,
	StatusCanceled:   nil,
}

func (s Status) String() string {
	if name, ok := statusNames[s]; ok {
		return name
	}
	return fmt.Sprintf("Status(%d)", int(s))
}

// ParseStatus converts the stored text form into a Status.
func ParseStatus(raw string) (Status, error) {
	for s, name := range statusNames {
		if strings.EqualFold(raw, name) {
			return s, nil
		}
	}
	return 0, fmt.Errorf("unknown meetup status %q", raw)
}

// MarshalText implements encoding.TextMarshaler.
func (s Status) MarshalText() ([]byte, error) {
	name, ok := statusNames[s]
	if !ok {
		return nil, fmt.Errorf("invalid meetup status %d", int(s))
	}
	return []byte(name), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *Status) UnmarshalText(b []byte) error {
	parsed, err := ParseStatus(string(b))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// Terminal reports whether no transition leaves s.
func (s Status) Terminal() bool {
	return len(allowedTransitions[s]) == 0
}

// AllowedTargets returns the states reachable from s in one step.
func (s Status) AllowedTargets() []Status {
	out := make([]Status, len(allowedTransitions[s]))
	copy(out, allowedTransitions[s])
	return out
}

// CheckTransition returns nil if current -> target is legal, otherwise a
// *TransitionError naming the current state and its permitted targets.
func CheckTransition(current, target Status) error {
	for _, t := range allowedTransitions[current] {
		if t == target {
			return nil
		}
	}
	return &TransitionError{From: current, To: target, Allowed: current.AllowedTargets()}
}

package domain

import (
	"errors"
	"strings"
)

// Kind classifies failures so callers know whether to retry.
type Kind int

const (
	KindInternal Kind = iota
	// KindNotFound: member or meetup absent. Terminal.
	KindNotFound
	// KindConflict: the request contradicts current state. Terminal, change intent.
	KindConflict
	// KindUpstreamUnavailable: the place provider failed and nothing is cached. Retry later.
	KindUpstreamUnavailable
	// KindInvalid: malformed input.
	KindInvalid
)

func (k Kind) String() string {
	switch k {
	case KindNotFound:
		return "not_found"
	case KindConflict:
		return "conflict"
	case KindUpstreamUnavailable:
		return "upstream_unavailable"
	case KindInvalid:
		return "bad_request"
	default:
		return "internal_error"
	}
}

// Error is a domain failure with a stable code.
type Error struct {
	Kind    Kind
	Code    string
	Message string
}

func (e *Error) Error() string { return e.Message }

// ErrorKind implements kinded.
func (e *Error) ErrorKind() Kind { return e.Kind }

var (
	ErrMemberNotFound      = &Error{Kind: KindNotFound, Code: "member_not_found", Message: "member not found"}
	ErrMeetupNotFound      = &Error{Kind: KindNotFound, Code: "meetup_not_found", Message: "meetup not found"}
	ErrMeetupFull          = &Error{Kind: KindConflict, Code: "meetup_full", Message: "meetup is full (capacity reached)"}
	ErrAlreadyJoined       = &Error{Kind: KindConflict, Code: "already_joined", Message: "already joined this meetup"}
	ErrNotJoined           = &Error{Kind: KindConflict, Code: "not_joined", Message: "not joined"}
	ErrNotRecruiting       = &Error{Kind: KindConflict, Code: "meetup_not_recruiting", Message: "meetup is no longer recruiting"}
	ErrAlreadyConfirmed    = &Error{Kind: KindConflict, Code: "already_confirmed", Message: "meetup place is already confirmed"}
	ErrMidpointUndefined   = &Error{Kind: KindConflict, Code: "midpoint_undefined", Message: "meetup has no midpoint yet"}
	ErrUpstreamUnavailable = &Error{Kind: KindUpstreamUnavailable, Code: "upstream_unavailable", Message: "place search is unavailable (provider error and no cached result)"}
)

// Invalid builds a KindInvalid error.
func Invalid(msg string) *Error {
	return &Error{Kind: KindInvalid, Code: "bad_request", Message: msg}
}

// TransitionError reports an illegal status change.
type TransitionError struct {
	From    Status
	To      Status
	Allowed []Status
}

func (e *TransitionError) Error() string {
	allowed := "none"
	if len(e.Allowed) > 0 {
		names := make([]string, len(e.Allowed))
		for i, s := range e.Allowed {
			names[i] = s.String()
		}
		allowed = strings.Join(names, ", ")
	}
	return "transition from " + e.From.String() + " to " + e.To.String() +
		" is not allowed; from " + e.From.String() + " only allowed: " + allowed
}

// ErrorKind implements kinded.
func (e *TransitionError) ErrorKind() Kind { return KindConflict }

type kinded interface {
	ErrorKind() Kind
}

// KindOf returns the Kind of the first kinded error in err's chain.
func KindOf(err error) Kind {
	var k kinded
	if errors.As(err, &k) {
		return k.ErrorKind()
	}
	return KindInternal
}

// CodeOf returns a stable machine-readable code for err.
func CodeOf(err error) string {
	var de *Error
	if errors.As(err, &de) {
		return de.Code
	}
	var te *TransitionError
	if errors.As(err, &te) {
		return "transition_not_allowed"
	}
	return KindOf(err).String()
}

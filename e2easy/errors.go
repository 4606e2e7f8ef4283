package e2easy

import "errors"

var (
	// ErrValidation is matched by every rejection of a malformed vote request.
	ErrValidation = errors.New("e2easy: invalid ballot")
	// ErrProtocolState is matched by operations called out of sequence.
	ErrProtocolState = errors.New("e2easy: operation not allowed in this state")
)

var (
	ErrBallotPending    = newError("a ballot is already pending", ErrValidation, ErrProtocolState)
	ErrNoPending        = newError("no pending ballot", ErrProtocolState)
	ErrTallyPending     = newError("cannot tally while a ballot is pending", ErrProtocolState)
	ErrClosed           = newError("election is closed", ErrProtocolState)
	ErrNoBallots        = newError("no ballot was cast", ErrProtocolState)
	ErrEmptyBallot      = newError("ballot has no votes", ErrValidation)
	ErrUnknownContest   = newError("unknown contest", ErrValidation)
	ErrChoiceRange      = newError("choice out of range", ErrValidation)
	ErrDuplicateContest = newError("contest voted twice", ErrValidation)
	ErrCapacity         = newError("election capacity exceeded", ErrValidation)
)

type stateError struct {
	msg   string
	kinds []error
}

func newError(msg string, kinds ...error) error {
	return &stateError{msg: msg, kinds: kinds}
}

func (e *stateError) Error() string {
	return "e2easy: " + e.msg
}

func (e *stateError) Unwrap() []error {
	return e.kinds
}

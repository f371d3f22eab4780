package at

import (
	"errors"
	"fmt"
)

// Outcome classifies a single command exchange.
type Outcome int

const (
	Success Outcome = iota
	// Failed means the modem answered with ERROR or +CME ERROR
	Failed
	// Timeout means no terminal line arrived within the wait window
	Timeout
	InvalidArgument
	// IoError means the link is broken, the session must be reopened
	IoError
	OutOfMemory
	// TestCommandMismatch is only produced by the script transport
	TestCommandMismatch
	Unknown
	// ResponseTooLarge means the modem kept talking past MaxResponseLength without a terminal line
	ResponseTooLarge
)

var outcomeNames = map[Outcome]string{
	Success:             "success",
	Failed:              "failed",
	Timeout:             "timeout",
	InvalidArgument:     "invalid_argument",
	IoError:             "io_error",
	OutOfMemory:         "out_of_memory",
	TestCommandMismatch: "command_mismatch",
	Unknown:             "unknown",
	ResponseTooLarge:    "response_too_large",
}

func (o Outcome) String() string {
	if name, ok := outcomeNames[o]; ok {
		return name
	}
	return fmt.Sprintf("outcome(%d)", int(o))
}

// Fatal reports whether the session is unusable after this outcome.
func (o Outcome) Fatal() bool {
	switch o {
	case IoError, ResponseTooLarge, OutOfMemory, Unknown:
		return true
	}
	return false
}

// Retryable reports whether the caller may simply issue the command again.
func (o Outcome) Retryable() bool {
	return o == Failed || o == Timeout
}

var (
	ErrFailed           = errors.New("command failed")
	ErrTimeout          = errors.New("command timed out")
	ErrInvalidArgument  = errors.New("invalid argument")
	ErrIO               = errors.New("i/o error")
	ErrOutOfMemory      = errors.New("out of memory")
	ErrCommandMismatch  = errors.New("scripted command mismatch")
	ErrUnknown          = errors.New("unknown transport error")
	ErrResponseTooLarge = errors.New("response too large")
)

var outcomeErrors = map[Outcome]error{
	Failed:              ErrFailed,
	Timeout:             ErrTimeout,
	InvalidArgument:     ErrInvalidArgument,
	IoError:             ErrIO,
	OutOfMemory:         ErrOutOfMemory,
	TestCommandMismatch: ErrCommandMismatch,
	Unknown:             ErrUnknown,
	ResponseTooLarge:    ErrResponseTooLarge,
}

// OutcomeError is returned by Execute for every outcome except Success.
type OutcomeError struct {
	Outcome Outcome
	Command string
	Err     error
}

func newOutcomeError(outcome Outcome, command string, cause error) error {
	return &OutcomeError{Outcome: outcome, Command: command, Err: cause}
}

func (o *OutcomeError) Error() string {
	msg := fmt.Sprintf("%s: %s", o.Command, o.Outcome)
	if o.Err != nil {
		msg += ": " + o.Err.Error()
	}
	return msg
}

func (o *OutcomeError) Unwrap() error {
	return o.Err
}

// Is matches other OutcomeErrors and the sentinel belonging to the outcome.
func (o *OutcomeError) Is(e error) bool {
	if _, ok := e.(*OutcomeError); ok {
		return true
	}
	sentinel, ok := outcomeErrors[o.Outcome]
	return ok && e == sentinel
}

// OutcomeOf extracts the outcome from an error returned by Execute.
func OutcomeOf(err error) Outcome {
	if err == nil {
		return Success
	}

	var oe *OutcomeError
	if errors.As(err, &oe) {
		return oe.Outcome
	}
	return Unknown
}

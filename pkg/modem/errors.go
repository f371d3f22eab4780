package modem

import (
	"errors"
	"fmt"

	"github.com/LeoCommon/cellmodem/pkg/at"
)

// ErrFailed means the modem refused or did not answer in time, the request may be repeated.
var ErrFailed = errors.New("modem request failed")

// ErrInvalidArgument is returned for parameters outside of what the modem accepts, nothing is sent.
var ErrInvalidArgument = errors.New("invalid argument")

// ErrIncomplete is returned when a response was received but none of its fields could be decoded.
var ErrIncomplete = errors.New("response contained no decodable fields")

// CriticalError means the session is unusable and has to be closed.
type CriticalError struct {
	Op  string
	Err error
}

func (c *CriticalError) Error() string {
	return fmt.Sprintf("%s: critical modem error: %v", c.Op, c.Err)
}

func (c *CriticalError) Unwrap() error {
	return c.Err
}

func (c *CriticalError) Is(e error) bool {
	_, ok := e.(*CriticalError)
	return ok
}

func NewCriticalError(op string, err error) error {
	return &CriticalError{Op: op, Err: err}
}

// Classify maps a transport error onto the decoder taxonomy.
// Failed and timed out commands become ErrFailed, everything else is critical.
func Classify(op string, err error) error {
	if err == nil {
		return nil
	}

	switch at.OutcomeOf(err) {
	case at.Success:
		return nil
	case at.Failed, at.Timeout:
		return fmt.Errorf("%s: %w: %w", op, ErrFailed, err)
	}

	return NewCriticalError(op, err)
}

func IsCritical(err error) bool {
	return errors.Is(err, &CriticalError{})
}

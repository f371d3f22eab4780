package at

import (
	"strings"
	"time"
)

const (
	// MaxCommandLength bounds command, parameters and line terminator together
	MaxCommandLength = 255
	// MaxResponseLength bounds the accumulated response text
	MaxResponseLength = 100000
	// TimeoutThreshold is the number of consecutive silent waits tolerated before the link counts as dead
	TimeoutThreshold = 3

	DefaultTimeout = 2 * time.Second
)

// Command describes one AT command. Parameters are appended to Template verbatim.
type Command struct {
	ID       string
	Template string
	Timeout  time.Duration
}

func (c Command) timeout() time.Duration {
	if c.Timeout <= 0 {
		return DefaultTimeout
	}
	return c.Timeout
}

// Response carries the classified outcome and the raw text received for one command.
type Response struct {
	Outcome Outcome
	Text    string
}

// Transport executes one command at a time against a modem.
// The returned error is nil exactly when the outcome is Success.
type Transport interface {
	Execute(cmd Command, params string) (Response, error)
	Close() error
}

// scanTerminal looks for the first terminal line in the whole buffer.
func scanTerminal(buf string, terminator string) (Outcome, bool) {
	best := -1
	outcome := Unknown

	candidates := []struct {
		needle  string
		outcome Outcome
	}{
		{"OK" + terminator, Success},
		{"ERROR" + terminator, Failed},
		{"+CME ERROR", Failed},
	}

	for _, c := range candidates {
		idx := strings.Index(buf, c.needle)
		if idx >= 0 && (best < 0 || idx < best) {
			best = idx
			outcome = c.outcome
		}
	}

	return outcome, best >= 0
}

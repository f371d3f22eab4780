package at

import (
	"bufio"
	"errors"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/LeoCommon/cellmodem/pkg/log"
	"go.uber.org/zap"
)

// ScriptTerminator ends every line of a script file
const ScriptTerminator = "\n"

var errScriptExhausted = errors.New("script exhausted")

// ScriptTransport replays a recorded conversation instead of talking to a modem.
// The script alternates one expected command line with the response lines that follow it,
// up to and including the line holding OK, ERROR or +CME ERROR.
type ScriptTransport struct {
	mu     sync.Mutex
	name   string
	reader *bufio.Reader
	closer io.Closer
	closed bool
}

// OpenScript replays the script file at path.
func OpenScript(path string) (*ScriptTransport, error) {
	if path == "" {
		return nil, newOutcomeError(InvalidArgument, "open", errors.New("empty script path"))
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, newOutcomeError(IoError, "open", err)
	}

	s := NewScript(path, f)
	s.closer = f
	return s, nil
}

// NewScript replays the script read from r.
func NewScript(name string, r io.Reader) *ScriptTransport {
	return &ScriptTransport{name: name, reader: bufio.NewReader(r)}
}

// nextLine returns the next non-empty line without its terminator
func (s *ScriptTransport) nextLine() (string, error) {
	for {
		line, err := s.reader.ReadString('\n')
		line = strings.TrimSuffix(line, ScriptTerminator)

		if line != "" {
			return line, nil
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				return "", errScriptExhausted
			}
			return "", err
		}
	}
}

// Execute compares the command with the next scripted one and replays its response.
// On a mismatch nothing besides the expected command line is consumed.
func (s *ScriptTransport) Execute(cmd Command, params string) (Response, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return s.fail(InvalidArgument, cmd, "", errors.New("session closed"))
	}

	sent := cmd.Template + params + ScriptTerminator
	if len(sent) > MaxCommandLength {
		return s.fail(InvalidArgument, cmd, "", errors.New("command too long"))
	}

	expected, err := s.nextLine()
	if err != nil {
		return s.fail(IoError, cmd, "", err)
	}

	if expected+ScriptTerminator != sent {
		log.Warn("scripted command mismatch",
			zap.String("script", s.name),
			zap.String("expected", expected),
			zap.String("sent", strings.TrimSuffix(sent, ScriptTerminator)))
		return s.fail(TestCommandMismatch, cmd, "", nil)
	}

	var buf strings.Builder
	for {
		line, err := s.nextLine()
		if err != nil {
			return s.fail(IoError, cmd, buf.String(), err)
		}

		if buf.Len()+len(line)+len(ScriptTerminator) > MaxResponseLength {
			return s.fail(ResponseTooLarge, cmd, buf.String(), nil)
		}
		buf.WriteString(line)
		buf.WriteString(ScriptTerminator)

		if outcome, found := scanTerminal(buf.String(), ScriptTerminator); found {
			if outcome != Success {
				return s.fail(outcome, cmd, buf.String(), nil)
			}
			return Response{Outcome: Success, Text: buf.String()}, nil
		}
	}
}

func (s *ScriptTransport) fail(outcome Outcome, cmd Command, text string, cause error) (Response, error) {
	log.Debug("scripted command did not succeed",
		zap.String("command", cmd.ID),
		zap.Stringer("outcome", outcome),
		zap.String("script", s.name))

	return Response{Outcome: outcome, Text: text}, newOutcomeError(outcome, cmd.ID, cause)
}

func (s *ScriptTransport) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true

	if s.closer != nil {
		return s.closer.Close()
	}
	return nil
}

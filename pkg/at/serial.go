package at

import (
	"errors"
	"io"
	"sync"
	"time"

	"github.com/LeoCommon/cellmodem/pkg/log"
	"go.bug.st/serial"
	"go.uber.org/zap"
)

const (
	SerialTerminator = "\r\n"
	readChunkSize    = 512
)

// port is the subset of serial.Port the transport needs
type port interface {
	io.ReadWriteCloser
	ResetInputBuffer() error
	ResetOutputBuffer() error
	SetReadTimeout(t time.Duration) error
}

// SerialTransport talks to a modem over a raw serial line.
type SerialTransport struct {
	mu       sync.Mutex
	path     string
	port     port
	term     *termState
	timeouts int
	closed   bool
}

// OpenSerial opens the device at path in raw 8N1 mode.
func OpenSerial(path string, opts PortOptions) (*SerialTransport, error) {
	if path == "" {
		return nil, newOutcomeError(InvalidArgument, "open", errors.New("empty device path"))
	}

	mode, err := opts.SerialMode()
	if err != nil {
		return nil, newOutcomeError(InvalidArgument, "open", err)
	}

	term, err := saveTermState(path)
	if err != nil {
		log.Error("could not read terminal settings", zap.String("device", path), zap.Error(err))
		return nil, newOutcomeError(IoError, "open", err)
	}

	p, err := serial.Open(path, mode)
	if err != nil {
		log.Error("could not open serial device", zap.String("device", path), zap.Error(err))
		_ = term.restore()
		return nil, newOutcomeError(IoError, "open", err)
	}

	log.Debug("serial device opened", zap.String("device", path), zap.Int("baud", mode.BaudRate))
	return newSerialTransport(path, p, term), nil
}

func newSerialTransport(path string, p port, term *termState) *SerialTransport {
	return &SerialTransport{path: path, port: p, term: term}
}

func (s *SerialTransport) Path() string {
	return s.path
}

// Execute sends cmd with params and collects the answer until a terminal line shows up.
// Every silent wait gets the full command timeout, so slow but steady output never times out.
func (s *SerialTransport) Execute(cmd Command, params string) (Response, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed || s.port == nil {
		return s.fail(InvalidArgument, cmd, "", errors.New("session closed"))
	}

	line := cmd.Template + params + SerialTerminator
	if len(line) > MaxCommandLength {
		return s.fail(InvalidArgument, cmd, "", errors.New("command too long"))
	}

	if err := s.port.ResetInputBuffer(); err != nil {
		return s.fail(IoError, cmd, "", err)
	}
	if err := s.port.ResetOutputBuffer(); err != nil {
		return s.fail(IoError, cmd, "", err)
	}

	if err := writeAll(s.port, []byte(line)); err != nil {
		return s.fail(IoError, cmd, "", err)
	}

	buf := make([]byte, 0, readChunkSize)
	chunk := make([]byte, readChunkSize)

	for {
		if err := s.port.SetReadTimeout(cmd.timeout()); err != nil {
			return s.fail(IoError, cmd, string(buf), err)
		}

		n, err := s.port.Read(chunk)
		if err != nil {
			return s.fail(IoError, cmd, string(buf), err)
		}

		// A read without data and without error means the wait elapsed
		if n == 0 {
			s.timeouts++
			if s.timeouts > TimeoutThreshold {
				return s.fail(IoError, cmd, string(buf), errors.New("modem stopped responding"))
			}
			return s.fail(Timeout, cmd, string(buf), nil)
		}

		s.timeouts = 0
		if len(buf)+n > MaxResponseLength {
			return s.fail(ResponseTooLarge, cmd, string(buf), nil)
		}
		buf = append(buf, chunk[:n]...)

		if outcome, found := scanTerminal(string(buf), SerialTerminator); found {
			text := string(buf)
			if outcome != Success {
				return s.fail(outcome, cmd, text, nil)
			}

			log.Debug("command succeeded", zap.String("command", cmd.ID), zap.Int("bytes", len(text)))
			return Response{Outcome: Success, Text: text}, nil
		}
	}
}

func (s *SerialTransport) fail(outcome Outcome, cmd Command, text string, cause error) (Response, error) {
	fields := []zap.Field{
		zap.String("command", cmd.ID),
		zap.Stringer("outcome", outcome),
		zap.String("device", s.path),
	}
	if cause != nil {
		fields = append(fields, zap.Error(cause))
	}

	if outcome.Fatal() {
		log.Error("command aborted", fields...)
	} else {
		log.Debug("command did not succeed", fields...)
	}

	return Response{Outcome: outcome, Text: text}, newOutcomeError(outcome, cmd.ID, cause)
}

// Close restores the previous terminal settings and releases the device. Repeated calls are no-ops.
func (s *SerialTransport) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true

	var err error
	if s.port != nil {
		err = s.port.Close()
	}

	return errors.Join(err, s.term.restore())
}

func writeAll(w io.Writer, data []byte) error {
	for len(data) > 0 {
		n, err := w.Write(data)
		if err != nil {
			return err
		}
		if n == 0 {
			return io.ErrShortWrite
		}
		data = data[n:]
	}
	return nil
}

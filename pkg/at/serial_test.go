package at

import (
	"bytes"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/LeoCommon/cellmodem/pkg/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

type readResult struct {
	data string
	err  error
}

// fakePort replays queued reads, an empty queue behaves like a silent modem
type fakePort struct {
	mu        sync.Mutex
	written   bytes.Buffer
	reads     []readResult
	timeouts  []time.Duration
	resetsIn  int
	resetsOut int
	closed    int
}

func (f *fakePort) queue(data ...string) {
	for _, d := range data {
		f.reads = append(f.reads, readResult{data: d})
	}
}

func (f *fakePort) Read(p []byte) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if len(f.reads) == 0 {
		return 0, nil
	}

	next := f.reads[0]
	if next.err != nil {
		f.reads = f.reads[1:]
		return 0, next.err
	}

	n := copy(p, next.data)
	if n < len(next.data) {
		f.reads[0].data = next.data[n:]
	} else {
		f.reads = f.reads[1:]
	}
	return n, nil
}

func (f *fakePort) Write(p []byte) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.written.Write(p)
}

func (f *fakePort) Close() error {
	f.closed++
	return nil
}

func (f *fakePort) ResetInputBuffer() error {
	f.resetsIn++
	return nil
}

func (f *fakePort) ResetOutputBuffer() error {
	f.resetsOut++
	return nil
}

func (f *fakePort) SetReadTimeout(t time.Duration) error {
	f.timeouts = append(f.timeouts, t)
	return nil
}

var (
	pingCmd   = Command{ID: "ping", Template: "AT", Timeout: 250 * time.Millisecond}
	statusCmd = Command{ID: "status", Template: "AT!GSTATUS?", Timeout: time.Second}
)

func SetupSerialTest(t *testing.T) (*fakePort, *SerialTransport, func()) {
	t.Helper()
	log.Init(true)

	fake := &fakePort{}
	tr := newSerialTransport("/dev/fake", fake, nil)

	return fake, tr, func() {
		assert.NoError(t, tr.Close())
		goleak.VerifyNone(t)
	}
}

func TestSerialSuccessAcrossReads(t *testing.T) {
	fake, tr, teardown := SetupSerialTest(t)
	defer teardown()

	fake.queue("!GSTATUS: \r\nTemperature: 34\r\n", "\r\nO", "K\r\n")

	resp, err := tr.Execute(statusCmd, "")
	assert.NoError(t, err)
	assert.Equal(t, Success, resp.Outcome)
	assert.Equal(t, "!GSTATUS: \r\nTemperature: 34\r\n\r\nOK\r\n", resp.Text)

	assert.Equal(t, "AT!GSTATUS?\r\n", fake.written.String())
	assert.Equal(t, 1, fake.resetsIn)
	assert.Equal(t, 1, fake.resetsOut)

	// Every read waits the full command timeout again
	assert.Equal(t, []time.Duration{time.Second, time.Second, time.Second}, fake.timeouts)
}

func TestSerialStopsAtFirstTerminal(t *testing.T) {
	fake, tr, teardown := SetupSerialTest(t)
	defer teardown()

	fake.queue("OK\r\n", "late garbage")

	resp, err := tr.Execute(pingCmd, "")
	assert.NoError(t, err)
	assert.Equal(t, "OK\r\n", resp.Text)
	assert.Len(t, fake.reads, 1)
}

func TestSerialFailedResponses(t *testing.T) {
	fake, tr, teardown := SetupSerialTest(t)
	defer teardown()

	fake.queue("ERROR\r\n")
	resp, err := tr.Execute(pingCmd, "")
	assert.Equal(t, Failed, resp.Outcome)
	assert.ErrorIs(t, err, ErrFailed)
	assert.ErrorIs(t, err, &OutcomeError{})
	assert.False(t, resp.Outcome.Fatal())
	assert.True(t, resp.Outcome.Retryable())

	fake.queue("+CME ERROR: 10\r\n")
	resp, err = tr.Execute(pingCmd, "")
	assert.Equal(t, Failed, resp.Outcome)
	assert.ErrorIs(t, err, ErrFailed)

	// The earliest terminal line decides
	fake.queue("ERROR\r\nOK\r\n")
	resp, _ = tr.Execute(pingCmd, "")
	assert.Equal(t, Failed, resp.Outcome)
}

func TestSerialTimeoutEscalation(t *testing.T) {
	_, tr, teardown := SetupSerialTest(t)
	defer teardown()

	for i := 0; i < TimeoutThreshold; i++ {
		resp, err := tr.Execute(pingCmd, "")
		assert.Equal(t, Timeout, resp.Outcome)
		assert.ErrorIs(t, err, ErrTimeout)
	}

	resp, err := tr.Execute(pingCmd, "")
	assert.Equal(t, IoError, resp.Outcome)
	assert.ErrorIs(t, err, ErrIO)
	assert.True(t, resp.Outcome.Fatal())
	assert.Equal(t, IoError, OutcomeOf(err))
}

func TestSerialReadResetsTimeoutCounter(t *testing.T) {
	fake, tr, teardown := SetupSerialTest(t)
	defer teardown()

	for i := 0; i < 2; i++ {
		resp, _ := tr.Execute(pingCmd, "")
		assert.Equal(t, Timeout, resp.Outcome)
	}

	fake.queue("OK\r\n")
	resp, err := tr.Execute(pingCmd, "")
	assert.NoError(t, err)
	assert.Equal(t, Success, resp.Outcome)

	for i := 0; i < TimeoutThreshold; i++ {
		resp, _ = tr.Execute(pingCmd, "")
		assert.Equal(t, Timeout, resp.Outcome)
	}
	resp, _ = tr.Execute(pingCmd, "")
	assert.Equal(t, IoError, resp.Outcome)
}

func TestSerialPartialAnswerThenSilence(t *testing.T) {
	fake, tr, teardown := SetupSerialTest(t)
	defer teardown()

	fake.queue("Temperature: 34\r\n")
	resp, err := tr.Execute(statusCmd, "")
	assert.ErrorIs(t, err, ErrTimeout)
	assert.Equal(t, "Temperature: 34\r\n", resp.Text)
}

func TestSerialReadError(t *testing.T) {
	fake, tr, teardown := SetupSerialTest(t)
	defer teardown()

	fake.reads = append(fake.reads, readResult{err: errors.New("device unplugged")})
	resp, err := tr.Execute(pingCmd, "")
	assert.Equal(t, IoError, resp.Outcome)
	assert.ErrorIs(t, err, ErrIO)
	assert.ErrorContains(t, err, "device unplugged")
}

func TestSerialResponseTooLarge(t *testing.T) {
	fake, tr, teardown := SetupSerialTest(t)
	defer teardown()

	fake.queue(strings.Repeat("x", MaxResponseLength+1))
	resp, err := tr.Execute(statusCmd, "")
	assert.Equal(t, ResponseTooLarge, resp.Outcome)
	assert.ErrorIs(t, err, ErrResponseTooLarge)
	assert.LessOrEqual(t, len(resp.Text), MaxResponseLength)
}

func TestSerialInvalidArguments(t *testing.T) {
	fake, tr, teardown := SetupSerialTest(t)
	defer teardown()

	resp, err := tr.Execute(pingCmd, strings.Repeat("1", MaxCommandLength))
	assert.Equal(t, InvalidArgument, resp.Outcome)
	assert.ErrorIs(t, err, ErrInvalidArgument)
	assert.Zero(t, fake.written.Len())

	_, err = OpenSerial("", PortOptions{})
	assert.ErrorIs(t, err, ErrInvalidArgument)

	_, err = OpenSerial("/dev/cellmodem-does-not-exist", PortOptions{})
	assert.ErrorIs(t, err, ErrIO)

	_, err = OpenSerial("/dev/ttyUSB9", PortOptions{DataBits: 9})
	assert.ErrorIs(t, err, ErrInvalidArgument)
}

func TestSerialCloseIdempotent(t *testing.T) {
	fake, tr, teardown := SetupSerialTest(t)
	defer teardown()

	assert.NoError(t, tr.Close())
	assert.NoError(t, tr.Close())
	assert.Equal(t, 1, fake.closed)

	resp, err := tr.Execute(pingCmd, "")
	assert.Equal(t, InvalidArgument, resp.Outcome)
	assert.ErrorIs(t, err, ErrInvalidArgument)
}

func TestPortOptionsNormalize(t *testing.T) {
	log.Init(true)

	opts, err := PortOptions{}.Normalize()
	require.NoError(t, err)
	assert.Equal(t, PortOptions{BaudRate: 115200, DataBits: 8, StopBits: 1, Parity: "N"}, opts)

	mode, err := PortOptions{BaudRate: 9600, StopBits: 2, Parity: "even"}.SerialMode()
	require.NoError(t, err)
	assert.Equal(t, 9600, mode.BaudRate)
	assert.Equal(t, 8, mode.DataBits)

	_, err = PortOptions{StopBits: 3}.Normalize()
	assert.Error(t, err)
	_, err = PortOptions{Parity: "mark"}.Normalize()
	assert.Error(t, err)
}

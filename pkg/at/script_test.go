package at

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/LeoCommon/cellmodem/pkg/log"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

var infoCmd = Command{ID: "information", Template: "ATI"}

func SetupScriptTest(t *testing.T, script string) (*ScriptTransport, func()) {
	t.Helper()
	log.Init(true)

	path := filepath.Join(t.TempDir(), "session.txt")
	require.NoError(t, os.WriteFile(path, []byte(script), 0644))

	tr, err := OpenScript(path)
	require.NoError(t, err)

	return tr, func() {
		assert.NoError(t, tr.Close())
		goleak.VerifyNone(t)
	}
}

func TestScriptReplay(t *testing.T) {
	tr, teardown := SetupScriptTest(t, "AT\nOK\n\nATI\nManufacturer: Sierra Wireless, Incorporated\nModel: EM7565\n\nOK\n")
	defer teardown()

	resp, err := tr.Execute(pingCmd, "")
	assert.NoError(t, err)
	assert.Equal(t, "OK\n", resp.Text)

	resp, err = tr.Execute(infoCmd, "")
	assert.NoError(t, err)
	assert.Equal(t, "Manufacturer: Sierra Wireless, Incorporated\nModel: EM7565\nOK\n", resp.Text)
}

func TestScriptParamsAreCompared(t *testing.T) {
	tr, teardown := SetupScriptTest(t, "AT!SCACT=1,1\nOK\n")
	defer teardown()

	_, err := tr.Execute(Command{ID: "scact", Template: "AT!SCACT="}, "1,1")
	assert.NoError(t, err)
}

func TestScriptMismatchConsumesOnlyCommandLine(t *testing.T) {
	tr, teardown := SetupScriptTest(t, "AT+COPS?\nERROR\nATI\nModel: EM7565\nOK\n")
	defer teardown()

	resp, err := tr.Execute(pingCmd, "")
	assert.Equal(t, TestCommandMismatch, resp.Outcome)
	assert.ErrorIs(t, err, ErrCommandMismatch)

	// The response of the skipped command is now up next
	_, err = tr.Execute(Command{ID: "replay", Template: "ERROR"}, "")
	assert.Equal(t, Success, OutcomeOf(err))
}

func TestScriptFailures(t *testing.T) {
	tr, teardown := SetupScriptTest(t, "AT\nERROR\nAT\n+CME ERROR: 3\nAT\nno terminal line\n")
	defer teardown()

	resp, err := tr.Execute(pingCmd, "")
	assert.Equal(t, Failed, resp.Outcome)
	assert.ErrorIs(t, err, ErrFailed)

	resp, _ = tr.Execute(pingCmd, "")
	assert.Equal(t, Failed, resp.Outcome)
	assert.Equal(t, "+CME ERROR: 3\n", resp.Text)

	// Running out of script mid response is a broken link
	resp, err = tr.Execute(pingCmd, "")
	assert.Equal(t, IoError, resp.Outcome)
	assert.ErrorIs(t, err, ErrIO)
	assert.Equal(t, "no terminal line\n", resp.Text)

	resp, _ = tr.Execute(pingCmd, "")
	assert.Equal(t, IoError, resp.Outcome)
}

func TestScriptOpenErrors(t *testing.T) {
	log.Init(true)

	_, err := OpenScript("")
	assert.ErrorIs(t, err, ErrInvalidArgument)

	_, err = OpenScript(filepath.Join(t.TempDir(), "missing.txt"))
	assert.ErrorIs(t, err, ErrIO)

	tr := NewScript("inline", strings.NewReader("AT\n"))
	_, err = tr.Execute(pingCmd, "")
	assert.ErrorIs(t, err, ErrIO)
	assert.NoError(t, tr.Close())

	_, err = tr.Execute(pingCmd, "")
	assert.ErrorIs(t, err, ErrInvalidArgument)
}

func TestInstrumentedTransport(t *testing.T) {
	log.Init(true)

	reg := prometheus.NewRegistry()
	m, err := NewMetrics(reg)
	require.NoError(t, err)

	tr := Instrument(NewScript("inline", strings.NewReader("AT\nOK\nAT\nERROR\n")), m)
	defer tr.Close()

	_, err = tr.Execute(pingCmd, "")
	assert.NoError(t, err)
	_, err = tr.Execute(pingCmd, "")
	assert.ErrorIs(t, err, ErrFailed)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.Commands.WithLabelValues("ping", "success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Commands.WithLabelValues("ping", "failed")))

	// A second set on the same registry shares the collectors
	again, err := NewMetrics(reg)
	require.NoError(t, err)
	assert.Same(t, m.Commands, again.Commands)
}

package netif

import (
	"errors"
	"testing"

	"github.com/LeoCommon/cellmodem/pkg/log"
	"github.com/stretchr/testify/assert"
	"go.uber.org/goleak"
)

type fakeInterfaces struct {
	calls   []string
	downErr error
	upErr   error
}

func (f *fakeInterfaces) Down(name string) error {
	f.calls = append(f.calls, "down "+name)
	return f.downErr
}

func (f *fakeInterfaces) Up(name string) error {
	f.calls = append(f.calls, "up "+name)
	return f.upErr
}

func (f *fakeInterfaces) Shutdown() {}

func SetupNetifTest(t *testing.T) func() {
	log.Init(true)
	return func() {
		goleak.VerifyNone(t)
	}
}

func TestRestart(t *testing.T) {
	defer SetupNetifTest(t)()

	f := &fakeInterfaces{}
	assert.NoError(t, Restart(f, "wwan0", 0))
	assert.Equal(t, []string{"down wwan0", "up wwan0"}, f.calls)
}

func TestRestartFailures(t *testing.T) {
	defer SetupNetifTest(t)()

	f := &fakeInterfaces{downErr: &NotAvailableError{Interface: "wwan0", Reason: "no such device"}}
	err := Restart(f, "wwan0", 0)
	assert.ErrorIs(t, err, &NotAvailableError{})
	assert.Equal(t, []string{"down wwan0"}, f.calls)

	upErr := errors.New("activation failed")
	f = &fakeInterfaces{upErr: upErr}
	assert.ErrorIs(t, Restart(f, "wwan0", 0), upErr)
	assert.Len(t, f.calls, 2)
}

func TestNotAvailableError(t *testing.T) {
	assert.Equal(t, "interface eth1: not available: no such device", (&NotAvailableError{Interface: "eth1", Reason: "no such device"}).Error())
	assert.Equal(t, "network control not available: no bus", (&NotAvailableError{Reason: "no bus"}).Error())
	assert.NotErrorIs(t, errors.New("other"), &NotAvailableError{})
}

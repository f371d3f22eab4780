package modem

import (
	"errors"
	"testing"

	"github.com/LeoCommon/cellmodem/pkg/at"
	"github.com/LeoCommon/cellmodem/pkg/log"
	"github.com/stretchr/testify/assert"
)

func TestRawToDegrees(t *testing.T) {
	log.Init(true)

	assert.InDelta(t, 51.49195203137112, RawToDegrees(0x0092774B), 1e-4)
	assert.InDelta(t, 7.412129486330121, RawToDegrees(0x00151559), 1e-4)

	// Southern and western coordinates are two's complement
	assert.InDelta(t, -7.412129486330121, RawToDegrees(uint32(0x100000000-0x00151559)), 1e-4)
	assert.Zero(t, RawToDegrees(0))
}

func TestClassify(t *testing.T) {
	log.Init(true)

	assert.NoError(t, Classify("status", nil))

	failed := &at.OutcomeError{Outcome: at.Failed, Command: "status"}
	err := Classify("status", failed)
	assert.ErrorIs(t, err, ErrFailed)
	assert.ErrorIs(t, err, at.ErrFailed)
	assert.False(t, IsCritical(err))

	timeout := &at.OutcomeError{Outcome: at.Timeout, Command: "status"}
	assert.ErrorIs(t, Classify("status", timeout), ErrFailed)

	broken := &at.OutcomeError{Outcome: at.IoError, Command: "status"}
	err = Classify("status", broken)
	assert.True(t, IsCritical(err))
	assert.ErrorIs(t, err, at.ErrIO)
	assert.NotErrorIs(t, err, ErrFailed)

	assert.True(t, IsCritical(Classify("status", errors.New("unclassified"))))
}

func TestStatusAverages(t *testing.T) {
	s := Status{PCCRxMRSRP: -80, PCCRxDRSRP: -131, PCCRxMRSSI: -49, PCCRxDRSSI: -92}
	assert.InDelta(t, -105.5, s.PCCRSRP(), 1e-9)
	assert.InDelta(t, -70.5, s.PCCRSSI(), 1e-9)
	assert.Zero(t, s.SCCRSRP())
}

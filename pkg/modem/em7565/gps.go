package em7565

import (
	"fmt"
	"strings"

	"github.com/LeoCommon/cellmodem/pkg/modem"
	"github.com/LeoCommon/cellmodem/pkg/tokenfind"
)

type GPSMode int

const (
	GPSModeStandalone     GPSMode = 1
	GPSModeMSBasedOnly    GPSMode = 2
	GPSModeMSAssistedOnly GPSMode = 3
)

// Limits of the tracking session parameters
const (
	GPSMaxFixTimeDefault     = 30
	GPSMaxFixTimeMax         = 255
	GPSMaxInaccuracyDefault  = 1000
	GPSMaxInaccuracyMax      = 4294967279
	GPSMaxInaccuracyDontCare = 4294967280
	GPSFixCountMin           = 1
	GPSFixCountMax           = 999
	GPSFixCountInfinite      = 1000
	GPSFixRateDefault        = 1
	GPSFixRateMax            = 1799999
)

type AntennaPower int

const (
	AntennaPowerNone AntennaPower = 0
	AntennaPower3V   AntennaPower = 1
)

type GPSAutostart int

const (
	GPSAutostartDisabled       GPSAutostart = 0
	GPSAutostartOnBoot         GPSAutostart = 1
	GPSAutostartOnNMEAPortOpen GPSAutostart = 2
)

type GPSStatusValue int

const (
	GPSStatusUnknown GPSStatusValue = iota
	GPSStatusNone
	GPSStatusActive
	GPSStatusSuccess
	GPSStatusFail
)

var gpsStatusNames = map[string]GPSStatusValue{
	"NONE":    GPSStatusNone,
	"ACTIVE":  GPSStatusActive,
	"SUCCESS": GPSStatusSuccess,
	"FAIL":    GPSStatusFail,
}

func (v GPSStatusValue) String() string {
	for name, value := range gpsStatusNames {
		if value == v {
			return name
		}
	}
	return "UNKNOWN"
}

// GPSStatus describes the last fix and the running fix session. Error codes are -1 unless reported.
type GPSStatus struct {
	LastFix           GPSStatusValue
	LastFixErrCode    int
	FixSession        GPSStatusValue
	FixSessionErrCode int
}

const gpsFloat = `:\s+(-*\d+\.?\d*)\s+`

func gpsFloatField(name, label string, set func(*modem.GPSLocation, float64)) tokenfind.Field[modem.GPSLocation] {
	return tokenfind.FloatField(name, label+gpsFloat, set)
}

var gpsLocationFields = []tokenfind.Field[modem.GPSLocation]{
	gpsFloatField("loc unc angle", "LocUncAngle", func(l *modem.GPSLocation, v float64) { l.LocUncAngle = v }),
	gpsFloatField("loc unc a", "LocUncA", func(l *modem.GPSLocation, v float64) { l.LocUncA = v }),
	gpsFloatField("loc unc p", "LocUncP", func(l *modem.GPSLocation, v float64) { l.LocUncP = v }),
	gpsFloatField("hepe", "HEPE", func(l *modem.GPSLocation, v float64) { l.HEPE = v }),
	gpsFloatField("loc unc ve", "LocUncVe", func(l *modem.GPSLocation, v float64) { l.LocUncVe = v }),
	gpsFloatField("heading", "Heading", func(l *modem.GPSLocation, v float64) { l.Heading = v }),
	gpsFloatField("velocity horizontal", "VelHoriz", func(l *modem.GPSLocation, v float64) { l.VelocityH = v }),
	gpsFloatField("velocity vertical", "VelVert", func(l *modem.GPSLocation, v float64) { l.VelocityV = v }),
	tokenfind.IntField("altitude", `Altitude:\s+(\d+)\s+`, 10, func(l *modem.GPSLocation, v int) { l.Altitude = v }),
}

var gpsCoordinateFields = []tokenfind.Field[modem.GPSLocation]{
	tokenfind.UintField("latitude", `Lat:\s+[^(]*\(0x([0-9A-Fa-f]+)\)\s+`, 16, func(l *modem.GPSLocation, v uint32) {
		l.RawLatitude = v
		l.Latitude = modem.RawToDegrees(v)
	}),
	tokenfind.UintField("longitude", `Lon:\s+[^(]*\(0x([0-9A-Fa-f]+)\)\s+`, 16, func(l *modem.GPSLocation, v uint32) {
		l.RawLongitude = v
		l.Longitude = modem.RawToDegrees(v)
	}),
}

// GPSLocation reads the last position fix. Without a fix the location is returned with Valid unset.
func (m *Modem) GPSLocation() (modem.GPSLocation, error) {
	var loc modem.GPSLocation

	text, err := m.exec(cmdGPSLocation, "")
	if err != nil {
		return loc, err
	}

	coordinates := tokenfind.Batch(m.x, text, &loc, gpsCoordinateFields)
	tokenfind.Batch(m.x, text, &loc, gpsLocationFields)

	loc.Valid = !strings.Contains(text, "Not Available") && coordinates == len(gpsCoordinateFields)
	return loc, nil
}

// StartGPS starts a tracking session.
func (m *Modem) StartGPS(mode GPSMode, maxFixTime int, maxInaccuracy uint64, fixCount int, fixRate int) error {
	switch {
	case mode < GPSModeStandalone || mode > GPSModeMSAssistedOnly:
		return invalidArgument("gps mode %d", mode)
	case maxFixTime < 0 || maxFixTime > GPSMaxFixTimeMax:
		return invalidArgument("max fix time %d", maxFixTime)
	case maxInaccuracy > GPSMaxInaccuracyDontCare:
		return invalidArgument("max inaccuracy %d", maxInaccuracy)
	case fixCount < GPSFixCountMin || fixCount > GPSFixCountInfinite:
		return invalidArgument("fix count %d", fixCount)
	case fixRate < 0 || fixRate > GPSFixRateMax:
		return invalidArgument("fix rate %d", fixRate)
	}

	_, err := m.exec(cmdGPSTrack, fmt.Sprintf("%d,%d,%d,%d,%d", mode, maxFixTime, maxInaccuracy, fixCount, fixRate))
	return err
}

// StartGPSDefault starts an endless standalone tracking session with one fix per second.
func (m *Modem) StartGPSDefault() error {
	return m.StartGPS(GPSModeStandalone, GPSMaxFixTimeDefault, GPSMaxInaccuracyDefault, GPSFixCountInfinite, GPSFixRateDefault)
}

func (m *Modem) StopGPS() error {
	_, err := m.exec(cmdGPSEnd, "")
	return err
}

// SetAntennaPower switches the 3V supply of the GPS antenna. Takes effect after a reset.
func (m *Modem) SetAntennaPower(power AntennaPower) error {
	if power != AntennaPowerNone && power != AntennaPower3V {
		return invalidArgument("antenna power %d", power)
	}

	_, err := m.exec(cmdSetAntenna, fmt.Sprintf("%d", power))
	return err
}

func (m *Modem) AntennaPower() (AntennaPower, error) {
	text, err := m.exec(cmdGetAntenna, "")
	if err != nil {
		return AntennaPowerNone, err
	}

	var power AntennaPower
	fields := []tokenfind.Field[AntennaPower]{
		tokenfind.EnumField("antenna power", `WANT:\s+(\d+)\s+`, []AntennaPower{AntennaPowerNone, AntennaPower3V},
			func(p *AntennaPower, v AntennaPower) { *p = v }),
	}

	if _, errs := tokenfind.BatchReport(m.x, text, &power, fields); len(errs) > 0 {
		return AntennaPowerNone, fmt.Errorf("%w: %w", modem.ErrFailed, errs[0])
	}
	return power, nil
}

func (m *Modem) SetGPSAutostart(mode GPSAutostart) error {
	if mode < GPSAutostartDisabled || mode > GPSAutostartOnNMEAPortOpen {
		return invalidArgument("gps autostart mode %d", mode)
	}

	_, err := m.exec(cmdSetGPSAutostart, fmt.Sprintf("%d", mode))
	return err
}

func (m *Modem) GPSAutostart() (GPSAutostart, error) {
	text, err := m.exec(cmdGetGPSAutostart, "")
	if err != nil {
		return GPSAutostartDisabled, err
	}

	var mode GPSAutostart
	fields := []tokenfind.Field[GPSAutostart]{
		tokenfind.EnumField("gps autostart", `function:\s+(\d+)\s+`,
			[]GPSAutostart{GPSAutostartDisabled, GPSAutostartOnBoot, GPSAutostartOnNMEAPortOpen},
			func(p *GPSAutostart, v GPSAutostart) { *p = v }),
	}

	if _, errs := tokenfind.BatchReport(m.x, text, &mode, fields); len(errs) > 0 {
		return GPSAutostartDisabled, fmt.Errorf("%w: %w", modem.ErrFailed, errs[0])
	}
	return mode, nil
}

// GPSStatus reads the state of the last fix and of the fix session.
// Both values have to be present, otherwise modem.ErrFailed is returned.
func (m *Modem) GPSStatus() (GPSStatus, error) {
	status := GPSStatus{LastFixErrCode: -1, FixSessionErrCode: -1}

	text, err := m.exec(cmdGPSStatus, "")
	if err != nil {
		return status, err
	}

	lastFix, err := m.x.String(text, `Last Fix Status\s+=\s([^\r\n,]*)`, 64)
	if err != nil {
		return status, fmt.Errorf("%w: last fix status: %w", modem.ErrFailed, err)
	}
	session, err := m.x.String(text, `Fix Session Status\s+=\s([^\r\n,]*)`, 64)
	if err != nil {
		return status, fmt.Errorf("%w: fix session status: %w", modem.ErrFailed, err)
	}

	status.LastFix = gpsStatusNames[strings.TrimSpace(lastFix)]
	status.FixSession = gpsStatusNames[strings.TrimSpace(session)]

	if code, err := m.x.Int(text, `Last Fix Status\s+=\s[^\r\n,]*,\s*(\d+)`, 10); err == nil {
		status.LastFixErrCode = int(code)
	}
	if code, err := m.x.Int(text, `Fix Session Status\s+=\s[^\r\n,]*,\s*(\d+)`, 10); err == nil {
		status.FixSessionErrCode = int(code)
	}

	return status, nil
}

package trace

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/LeoCommon/cellmodem/pkg/log"
	"github.com/LeoCommon/cellmodem/pkg/modem"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func SetupTraceTest(t *testing.T) func() {
	log.Init(true)
	return func() {
		goleak.VerifyNone(t)
	}
}

func TestFileName(t *testing.T) {
	defer SetupTraceTest(t)()

	ts := time.Date(2026, 3, 7, 14, 5, 9, 0, time.Local)
	name := FileName("/tmp", Params{
		Repeats:     3,
		Pause:       30 * time.Second,
		PayloadSize: 5000000,
		Interval:    1500 * time.Millisecond,
		Wait:        3 * time.Second,
	}, ts)

	assert.Equal(t, "/tmp/cmna-trace-20260307-140509-n3-p30-s5000000-i1.500000-w3.log", name)
}

func TestWriteRows(t *testing.T) {
	defer SetupTraceTest(t)()

	var buf bytes.Buffer
	w := NewWriter(&buf)
	require.NoError(t, w.WriteHeader())

	status := &modem.Status{
		SINR: 12.4, RSRQ: -9.5, TxPower: 3,
		PCCRxMRSRP: -80, PCCRxDRSRP: -84, PCCRxMRSSI: -50, PCCRxDRSSI: -54,
		LTEBand: 3, LTEBwMHz: 20, LTERxChan: 1300, LTETxChan: 19300, CellID: 0x1c07902,
	}
	status.SCC[0] = modem.CarrierStatus{Band: 7, BwMHz: 10, Chan: 3050, RxMRSRP: -90, RxDRSRP: -92, RxMRSSI: -60, RxDRSSI: -62}

	require.NoError(t, w.Write(Row{
		Time:     time.Unix(1700000000, 42000),
		Counter:  2,
		Datarate: 1250000.5,
		Status:   status,
		LTEInfo: &modem.LTEInfo{
			RxLv: 46, MCC: 262, MNC: 1, TAC: 13499, PCI: 166,
			IntraFreq: make([]modem.IntraFreqNeighbour, 3),
			InterFreq: make([]modem.InterFreqNeighbour, 1),
		},
		Location: &modem.GPSLocation{Valid: true, Latitude: 51.49, Longitude: 7.41, Altitude: 110, VelocityH: 1.5, VelocityV: 0},
		Distance: 12.5,
	}))

	lines := strings.Split(strings.TrimSuffix(buf.String(), "\n"), "\n")
	require.Len(t, lines, 2)
	assert.True(t, strings.HasPrefix(lines[0], "time_sec, trace_transmission_counter, datarate, sinr"))
	assert.Len(t, strings.Split(lines[0], separator), len(header))

	cells := strings.Split(lines[1], separator)
	require.Len(t, cells, len(header))
	assert.Equal(t, "1700000000.000042", cells[0])
	assert.Equal(t, "2", cells[1])
	assert.Equal(t, "1250000.500000", cells[2])
	assert.Equal(t, []string{"12.4", "-9.5", "-82", "-91", "-52", "-61", "3", "46"}, cells[3:11])
	assert.Equal(t, []string{"3", "20", "1300", "19300", "7", "10", "3050"}, cells[11:18])
	assert.Equal(t, []string{"262", "1", "13499", "29391106", "166", "3", "1"}, cells[18:25])
	assert.Equal(t, []string{"12.500000", "51.490000", "7.410000", "110", "1.5", "0.0"}, cells[25:])
}

func TestWriteRowWithoutModemState(t *testing.T) {
	defer SetupTraceTest(t)()

	var buf bytes.Buffer
	w := NewWriter(&buf)
	require.NoError(t, w.Write(Row{
		Time:     time.Unix(1700000000, 0),
		Location: &modem.GPSLocation{Valid: false, Latitude: 1, Longitude: 1},
	}))

	cells := strings.Split(strings.TrimSuffix(buf.String(), "\n"), separator)
	require.Len(t, cells, len(header))
	for i, c := range cells[3:] {
		assert.Contains(t, []string{"0", "0.0", "0.000000"}, c, "column %s", header[i+3])
	}
	assert.NoError(t, w.Close())
}

func TestCreate(t *testing.T) {
	defer SetupTraceTest(t)()

	path := filepath.Join(t.TempDir(), "trace.log")
	w, err := Create(path)
	require.NoError(t, err)
	require.NoError(t, w.WriteHeader())
	require.NoError(t, w.Close())
	assert.NoError(t, w.Close())

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, strings.Join(header, separator)+"\n", string(content))

	// missing directories are created
	w, err = Create(filepath.Join(t.TempDir(), "missing", "trace.log"))
	require.NoError(t, err)
	require.NoError(t, w.Close())

	// a file is in the way
	_, err = Create(filepath.Join(path, "trace.log"))
	assert.Error(t, err)
}

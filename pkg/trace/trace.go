package trace

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/LeoCommon/cellmodem/pkg/log"
	"github.com/LeoCommon/cellmodem/pkg/modem"
	"go.uber.org/zap"
)

const separator = ", "

var header = []string{
	"time_sec",
	"trace_transmission_counter", "datarate",
	"sinr", "rsrq", "pcc_rsrp", "scc_rsrp", "pcc_rssi", "scc_rssi", "tx_power", "rxlv",
	"lte_band", "lte_bw_MHz", "lte_rx_chan", "lte_tx_chan", "lte_scell_band", "lte_scell_bw_MHz", "lte_scell_chan",
	"mcc", "mnc", "tac", "cell_id", "pci",
	"nof_intrafreq_neighbours", "nof_interfreq_neighbours",
	"total_distance", "latitude", "longitude", "altitude", "velocity_h", "velocity_v",
}

// Row is one progress report of a transmission together with the modem state at that time.
// Nil parts are written as zeros.
type Row struct {
	Time     time.Time
	Counter  int
	Datarate float64

	Status   *modem.Status
	LTEInfo  *modem.LTEInfo
	Location *modem.GPSLocation

	// meters since the start of the trace
	Distance float64
}

// Params are the experiment settings encoded into the trace file name.
type Params struct {
	Repeats     int
	Pause       time.Duration
	PayloadSize int
	Interval    time.Duration
	Wait        time.Duration
}

// FileName returns the path of the trace file for an experiment started at t.
func FileName(dir string, p Params, t time.Time) string {
	name := fmt.Sprintf("cmna-trace-%s-n%d-p%d-s%d-i%f-w%d.log",
		t.Format("20060102-150405"),
		p.Repeats, int(p.Pause.Seconds()), p.PayloadSize, p.Interval.Seconds(), int(p.Wait.Seconds()))
	return filepath.Join(dir, name)
}

// Writer writes trace rows as comma separated lines. Every line is also logged.
type Writer struct {
	sync.Mutex

	w      io.Writer
	closer io.Closer
}

func NewWriter(w io.Writer) *Writer {
	return &Writer{w: w}
}

// Create truncates or creates the file at path and all its directories.
func Create(path string) (*Writer, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0750); err != nil {
		log.Error("could not create trace directory", zap.String("path", path), zap.Error(err))
		return nil, err
	}

	f, err := os.Create(path)
	if err != nil {
		log.Error("could not open trace file", zap.String("path", path), zap.Error(err))
		return nil, err
	}

	log.Debug("initialized trace file", zap.String("path", path))
	return &Writer{w: f, closer: f}, nil
}

func (w *Writer) WriteHeader() error {
	return w.writeLine(header)
}

func (w *Writer) Write(r Row) error {
	cells := []string{
		fmt.Sprintf("%d.%06d", r.Time.Unix(), r.Time.Nanosecond()/1000),
		fmt.Sprintf("%d", r.Counter),
		fmt.Sprintf("%f", r.Datarate),
	}

	s := r.Status
	if s == nil {
		log.Warn("trace row without status")
		s = &modem.Status{}
	}
	cells = append(cells,
		fmt.Sprintf("%.1f", s.SINR),
		fmt.Sprintf("%.1f", s.RSRQ),
		fmt.Sprintf("%d", int(s.PCCRSRP())),
		fmt.Sprintf("%d", int(s.SCCRSRP())),
		fmt.Sprintf("%d", int(s.PCCRSSI())),
		fmt.Sprintf("%d", int(s.SCCRSSI())),
		fmt.Sprintf("%d", s.TxPower),
	)

	info := r.LTEInfo
	if info == nil {
		log.Warn("trace row without lte info")
		info = &modem.LTEInfo{}
	}
	cells = append(cells,
		fmt.Sprintf("%d", info.RxLv),
		fmt.Sprintf("%d", s.LTEBand),
		fmt.Sprintf("%d", s.LTEBwMHz),
		fmt.Sprintf("%d", s.LTERxChan),
		fmt.Sprintf("%d", s.LTETxChan),
		fmt.Sprintf("%d", s.SCC[0].Band),
		fmt.Sprintf("%d", s.SCC[0].BwMHz),
		fmt.Sprintf("%d", s.SCC[0].Chan),
		fmt.Sprintf("%d", info.MCC),
		fmt.Sprintf("%d", info.MNC),
		fmt.Sprintf("%d", info.TAC),
		fmt.Sprintf("%d", s.CellID),
		fmt.Sprintf("%d", info.PCI),
		fmt.Sprintf("%d", len(info.IntraFreq)),
		fmt.Sprintf("%d", len(info.InterFreq)),
	)

	loc := r.Location
	if loc == nil || !loc.Valid {
		log.Warn("trace row without gps fix")
		loc = &modem.GPSLocation{}
	}
	cells = append(cells,
		fmt.Sprintf("%f", r.Distance),
		fmt.Sprintf("%f", loc.Latitude),
		fmt.Sprintf("%f", loc.Longitude),
		fmt.Sprintf("%d", loc.Altitude),
		fmt.Sprintf("%.1f", loc.VelocityH),
		fmt.Sprintf("%.1f", loc.VelocityV),
	)

	return w.writeLine(cells)
}

func (w *Writer) writeLine(cells []string) error {
	line := strings.Join(cells, separator)

	w.Lock()
	defer w.Unlock()

	if _, err := io.WriteString(w.w, line+"\n"); err != nil {
		return fmt.Errorf("writing trace: %w", err)
	}
	log.Info("trace", zap.String("line", line))
	return nil
}

// Close closes the underlying file if the writer was created with Create.
func (w *Writer) Close() error {
	w.Lock()
	defer w.Unlock()

	if w.closer == nil {
		return nil
	}
	err := w.closer.Close()
	w.closer = nil
	return err
}

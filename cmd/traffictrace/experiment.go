package main

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/LeoCommon/cellmodem/internal/app"
	"github.com/LeoCommon/cellmodem/internal/config"
	"github.com/LeoCommon/cellmodem/pkg/geo"
	"github.com/LeoCommon/cellmodem/pkg/log"
	"github.com/LeoCommon/cellmodem/pkg/modem/collector"
	"github.com/LeoCommon/cellmodem/pkg/modem/em7565"
	"github.com/LeoCommon/cellmodem/pkg/netif"
	"github.com/LeoCommon/cellmodem/pkg/trace"
	"github.com/LeoCommon/cellmodem/pkg/traffic"
	"github.com/LeoCommon/cellmodem/pkg/usb"
	"go.uber.org/zap"
)

const (
	faultRecoveryTime = 5 * time.Second
	maxFaults         = 10
)

var (
	errSessionStopped = errors.New("session stopped")
	errModemRemoved   = errors.New("modem was removed")
)

// reporter turns the progress reports of a transmission into trace rows
type reporter struct {
	trace    *trace.Writer
	latest   func() *collector.Snapshot
	odometer geo.Odometer
	counter  int
	// closed once the running transmission has to end
	done <-chan struct{}
}

func (r *reporter) report(rep traffic.Report) error {
	select {
	case <-r.done:
		return errSessionStopped
	default:
	}

	row := trace.Row{Time: time.Now(), Counter: r.counter, Datarate: rep.DatarateUL}
	r.counter++

	if s := r.latest(); s != nil {
		row.Status, row.LTEInfo, row.Location = s.Status, s.LTEInfo, s.Location
		if s.Location != nil && s.Location.Valid {
			r.odometer.Add(s.Location.Latitude, s.Location.Longitude)
		}
	}
	row.Distance = r.odometer.Total()

	// a broken trace does not invalidate the transmission
	if err := r.trace.Write(row); err != nil {
		log.Error("could not write trace row", zap.Error(err))
	}
	return nil
}

type experiment struct {
	app *app.App

	traffic  config.TrafficConfig
	network  config.NetworkConfig
	interval time.Duration
	model    usb.Model

	gen      *traffic.Generator
	metrics  *collector.Metrics
	reporter *reporter

	// transmissions are continued from here after a fault
	finished int

	recovery  time.Duration
	maxFaults int
	// progressed is called once the session reached the transmissions
	session func(ctx context.Context, progressed func()) error
	// puts the modem into a known state before the next session
	reset func() error

	mu    sync.Mutex
	abort context.CancelCauseFunc
}

func newExperiment(a *app.App, gen *traffic.Generator, metrics *collector.Metrics, w *trace.Writer) *experiment {
	e := &experiment{
		app:       a,
		traffic:   a.Conf.Traffic().C(),
		network:   a.Conf.Network().C(),
		interval:  a.Conf.Collector().C().Interval.Value(),
		gen:       gen,
		metrics:   metrics,
		reporter:  &reporter{trace: w},
		recovery:  faultRecoveryTime,
		maxFaults: maxFaults,
	}

	// verified while loading the config
	e.model, _ = a.Conf.Modem().C().DecoderModel()
	e.session = e.runSession
	e.reset = func() error {
		if a.Devices == nil {
			return nil
		}
		return a.Devices.ResetDevice(e.model)
	}
	return e
}

// hotplug ends the running session when the modem disappears
func (e *experiment) hotplug(model usb.Model, attached bool) {
	if attached || model != e.model {
		return
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.abort != nil {
		log.Warn("modem removed during the experiment", zap.String("modem", model.String()))
		e.abort(errModemRemoved)
	}
}

func (e *experiment) setAbort(abort context.CancelCauseFunc) {
	e.mu.Lock()
	e.abort = abort
	e.mu.Unlock()
}

// resetModem issues a usb reset, a failed reset only delays the recovery
func (e *experiment) resetModem() {
	if e.reset == nil {
		return
	}

	err := e.reset()
	switch {
	case err == nil:
		log.Info("modem reset", zap.String("modem", e.model.String()))
	case errors.Is(err, &usb.VanishedError{}), errors.Is(err, &usb.NotFoundError{}):
		log.Warn("modem not on the bus, waiting for it to return", zap.Error(err))
	default:
		log.Warn("modem reset failed", zap.Error(err))
	}
}

// run repeats sessions until all transmissions are done, ctx is cancelled or more than
// maxFaults sessions in a row failed without reaching the transmissions
func (e *experiment) run(ctx context.Context) error {
	faults := 0
	for {
		progressed := false
		err := e.session(ctx, func() { progressed = true })
		if err == nil || ctx.Err() != nil {
			return nil
		}
		// no recovery can change the dialect of the modem
		if errors.Is(err, config.ErrUnsupportedModel) {
			return err
		}

		if progressed {
			faults = 0
		}
		faults++
		log.Error("experiment fault", zap.Int("faults", faults), zap.Int("finished", e.finished), zap.Error(err))
		if faults > e.maxFaults {
			return fmt.Errorf("giving up after %d faults in a row: %w", faults, err)
		}

		e.resetModem()

		app.NotifyStatus(fmt.Sprintf("recovering from fault %d", faults))
		select {
		case <-ctx.Done():
			return nil
		case <-time.After(e.recovery):
		}
	}
}

// configure prepares the modem for the transmissions. Only a missing data connection is a fault.
func (e *experiment) configure(m *em7565.Modem) error {
	if err := m.SetRadioAccessType(em7565.RATLTEOnly); err != nil {
		log.Warn("could not restrict the modem to LTE", zap.Error(err))
	}

	enabled, err := m.DataConnection()
	if err != nil {
		return fmt.Errorf("data connection state: %w", err)
	}
	if !enabled {
		log.Info("enabling data connection")
		if err := m.SetDataConnection(true); err != nil {
			return fmt.Errorf("enabling data connection: %w", err)
		}
	}

	if e.network.Restart {
		nm, err := netif.NewNetworkManager()
		if err != nil {
			return err
		}
		defer nm.Shutdown()

		if err := netif.Restart(nm, e.network.Interface, e.network.RestartPause.Value()); err != nil {
			return err
		}
	}

	if err := m.StartGPSDefault(); err != nil {
		log.Warn("could not start gps", zap.Error(err))
	}
	return nil
}

func sleep(ctx context.Context, d time.Duration) error {
	select {
	case <-ctx.Done():
		return context.Cause(ctx)
	case <-time.After(d):
		return nil
	}
}

// runSession opens the modem and transmits until all repeats are done or a fault happens
func (e *experiment) runSession(ctx context.Context, progressed func()) error {
	sctx, cancel := context.WithCancelCause(ctx)
	defer cancel(nil)

	e.setAbort(cancel)
	defer e.setAbort(nil)

	m, err := e.app.OpenModem()
	if err != nil {
		return err
	}
	defer func() {
		if err := m.Close(); err != nil {
			log.Warn("closing the modem failed", zap.Error(err))
		}
	}()

	if err := e.configure(m); err != nil {
		return err
	}
	app.NotifyStatus("modem configured")

	if err := sleep(sctx, e.traffic.Wait.Value()); err != nil {
		return err
	}

	c := collector.New(m, e.interval, e.metrics)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := c.Run(sctx); err != nil {
			cancel(err)
		}
	}()
	// the collector has to be gone before the modem is closed
	defer func() {
		cancel(nil)
		wg.Wait()
	}()

	e.reporter.latest = c.Latest
	e.reporter.done = sctx.Done()
	progressed()

	for e.finished < e.traffic.Repeats {
		log.Info("transmission started", zap.Int("repeat", e.finished+1), zap.Int("repeats", e.traffic.Repeats))
		app.NotifyStatus(fmt.Sprintf("transmission %d of %d", e.finished+1, e.traffic.Repeats))

		summary, err := e.gen.Upload(sctx, e.traffic.URL, e.traffic.PayloadSize, e.reporter.report, e.traffic.ReportInterval.Value())
		if sctx.Err() != nil {
			return context.Cause(sctx)
		}
		if err != nil {
			return err
		}

		e.finished++
		log.Info("transmission finished", zap.Int("repeat", e.finished), zap.Any("summary", summary))

		if e.finished < e.traffic.Repeats {
			if err := sleep(sctx, e.traffic.Pause.Value()); err != nil {
				return err
			}
		}
	}

	return nil
}

package app

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/LeoCommon/cellmodem/internal/config"
	"github.com/LeoCommon/cellmodem/pkg/at"
	"github.com/LeoCommon/cellmodem/pkg/log"
	"github.com/LeoCommon/cellmodem/pkg/modem/em7565"
	"github.com/LeoCommon/cellmodem/pkg/usb"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// App global app struct shared by the programs
type App struct {
	// A global wait group, all go routines that should
	// terminate when the application ends should be registered here
	WG sync.WaitGroup

	ExitSignal chan os.Signal

	Flags config.CLIFlags
	Conf  *config.Manager

	// All metrics of this process, served on the configured listen address
	Registry  *prometheus.Registry
	ATMetrics *at.Metrics

	Devices *usb.DeviceManager

	metricsServer *http.Server
}

func (a *App) Shutdown() {
	if a.metricsServer != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := a.metricsServer.Shutdown(ctx); err != nil {
			log.Warn("metrics server did not shut down cleanly", zap.Error(err))
		}
		cancel()
	}

	if a.Devices != nil {
		a.Devices.Shutdown()
	}

	a.WG.Wait()
	signal.Stop(a.ExitSignal)
	log.Sync()
}

func (a *App) loadConfiguration(configPath string) error {
	// Create the new config manager and load the configuration
	a.Conf = config.NewManager()
	if err := a.Conf.Load(configPath, false); err != nil {
		log.Warn("could not load the config file, trying default path", zap.String("path", configPath), zap.Error(err))

		// The defaults are sufficient to run every program
		a.Conf = config.NewManager()
		return a.Conf.Load(config.DefaultConfigPath, true)
	}

	return nil
}

// Setup parses the common flags from args, initializes logging and loads the configuration.
// fs may carry additional program specific flags.
func Setup(fs *flag.FlagSet, args []string) (*App, error) {
	app := App{Registry: prometheus.NewRegistry()}

	var err error
	app.Flags, err = config.ParseCLIFlags(fs, args)
	if err != nil {
		return nil, err
	}

	// Register a quit signal
	app.ExitSignal = make(chan os.Signal, 1)
	signal.Notify(app.ExitSignal, os.Interrupt, syscall.SIGTERM)

	// Initialize logger
	log.Init(app.Flags.Debug)
	log.Info("starting", zap.String("program", fs.Name()))

	if err := app.loadConfiguration(app.Flags.ConfigPath); err != nil {
		log.Error("no usable configuration", zap.Error(err))
		app.Shutdown()
		return nil, err
	}

	app.ATMetrics, err = at.NewMetrics(app.Registry)
	if err != nil {
		app.Shutdown()
		return nil, err
	}

	app.serveMetrics(app.Conf.Modem().C().MetricsListen)
	return &app, nil
}

func (a *App) serveMetrics(listen string) {
	if listen == "" {
		return
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(a.Registry, promhttp.HandlerOpts{Registry: a.Registry}))
	a.metricsServer = &http.Server{Addr: listen, Handler: mux, ReadHeaderTimeout: 10 * time.Second}

	a.WG.Add(1)
	go func() {
		defer a.WG.Done()

		log.Info("serving metrics", zap.String("listen", listen))
		if err := a.metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("metrics server failed", zap.Error(err))
		}
	}()
}

// WatchDevices starts tracking the supported modems on the bus
func (a *App) WatchDevices(onHotplug usb.HotplugFunc) {
	a.Devices = usb.NewDeviceManager(onHotplug)
	a.Devices.FindSupportedDevices()
}

// ModemPath returns the configured AT port or the first one found for the configured model
func (a *App) ModemPath() (string, error) {
	conf := a.Conf.Modem().C()
	if conf.Device != "" {
		return conf.Device, nil
	}

	model, err := conf.DecoderModel()
	if err != nil {
		return "", err
	}

	ports, err := usb.EnumeratePorts(conf.SysRoot, model)
	if err != nil {
		return "", err
	}

	return ports[0].DevPath, nil
}

// OpenModem opens an instrumented session on the configured modem
func (a *App) OpenModem() (*em7565.Modem, error) {
	// the decoder has to match the dialect of the device, even if it was configured explicitly
	if _, err := a.Conf.Modem().C().DecoderModel(); err != nil {
		log.Error("refusing to drive modem", zap.Error(err))
		return nil, err
	}

	path, err := a.ModemPath()
	if err != nil {
		return nil, err
	}

	tr, err := at.OpenSerial(path, a.Conf.Modem().C().Port)
	if err != nil {
		log.Error("could not open modem", zap.String("device", path), zap.Error(err))
		return nil, err
	}

	log.Info("using modem", zap.String("device", path))
	return em7565.New(at.Instrument(tr, a.ATMetrics), nil), nil
}

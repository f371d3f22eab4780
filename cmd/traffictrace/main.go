package main

import (
	"context"
	"flag"
	"os"
	"time"

	"github.com/LeoCommon/cellmodem/internal/app"
	"github.com/LeoCommon/cellmodem/pkg/log"
	"github.com/LeoCommon/cellmodem/pkg/modem/collector"
	"github.com/LeoCommon/cellmodem/pkg/trace"
	"github.com/LeoCommon/cellmodem/pkg/traffic"
	"go.uber.org/zap"
)

func main() {
	fs := flag.NewFlagSet("traffictrace", flag.ExitOnError)

	a, err := app.Setup(fs, os.Args[1:])
	if err != nil {
		os.Exit(1)
	}

	if err := runExperiment(a); err != nil {
		log.Error("experiment failed", zap.Error(err))
		a.Shutdown()
		os.Exit(1)
	}

	a.Shutdown()
}

func runExperiment(a *app.App) error {
	tc := a.Conf.Traffic().C()

	metrics, err := collector.NewMetrics(a.Registry)
	if err != nil {
		return err
	}

	gen, err := traffic.NewGenerator(traffic.Options{
		Timeout:     tc.Timeout.Value(),
		BearerToken: tc.BearerToken,
		Debug:       a.Flags.Debug,
	})
	if err != nil {
		return err
	}

	path := trace.FileName(a.Conf.Trace().C().Directory, trace.Params{
		Repeats:     tc.Repeats,
		Pause:       tc.Pause.Value(),
		PayloadSize: int(tc.PayloadSize),
		Interval:    tc.ReportInterval.Value(),
		Wait:        tc.Wait.Value(),
	}, time.Now())

	w, err := trace.Create(path)
	if err != nil {
		return err
	}
	defer w.Close()

	if err := w.WriteHeader(); err != nil {
		return err
	}
	log.Info("writing trace", zap.String("path", path))

	e := newExperiment(a, gen, metrics, w)
	a.WatchDevices(e.hotplug)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	a.WG.Add(1)
	go func() {
		defer a.WG.Done()

		select {
		case <-a.ExitSignal:
			log.Info("received exit signal, finishing experiment")
			_ = app.Notify(app.NotifyStopping)
			cancel()
		case <-ctx.Done():
		}
	}()

	_ = app.Notify(app.NotifyReady)
	return e.run(ctx)
}

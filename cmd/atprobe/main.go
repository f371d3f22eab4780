package main

import (
	"flag"
	"os"
	"time"

	"github.com/LeoCommon/cellmodem/internal/app"
	"github.com/LeoCommon/cellmodem/pkg/log"
	"github.com/LeoCommon/cellmodem/pkg/modem"
	"go.uber.org/zap"
)

// probe runs every read-only query once and logs the decoded results
func probe(m modem.Modem, gpsWait time.Duration) {
	info, err := m.Information()
	if err != nil {
		log.Error("information unavailable", zap.Error(err))
	} else {
		log.Info("information", zap.Any("info", info))
	}

	status, err := m.Status()
	if err != nil {
		log.Error("status unavailable", zap.Error(err))
	} else {
		log.Info("status", zap.Any("status", status),
			zap.Float64("pcc_rsrp", status.PCCRSRP()), zap.Float64("scc_rsrp", status.SCCRSRP()))
	}

	lte, err := m.LTEInfo()
	if err != nil {
		log.Error("lte info unavailable", zap.Error(err))
	} else {
		log.Info("lte info", zap.Any("lteinfo", lte))
	}

	if err := m.StartGPSDefault(); err != nil {
		log.Warn("could not start gps", zap.Error(err))
	} else {
		time.Sleep(gpsWait)
	}

	location, err := m.GPSLocation()
	if err != nil {
		log.Error("location unavailable", zap.Error(err))
	} else {
		log.Info("location", zap.Any("location", location))
	}

	if err := m.StopGPS(); err != nil {
		log.Warn("could not stop gps", zap.Error(err))
	}

	if err := m.IsReady(); err != nil {
		log.Error("modem not ready", zap.Error(err))
		return
	}
	log.Info("modem ready")
}

func main() {
	fs := flag.NewFlagSet("atprobe", flag.ExitOnError)
	gpsWait := fs.Duration("gps-wait", time.Second, "time to wait for a fix after starting the gps")

	a, err := app.Setup(fs, os.Args[1:])
	if err != nil {
		os.Exit(1)
	}

	m, err := a.OpenModem()
	if err != nil {
		a.Shutdown()
		os.Exit(1)
	}

	probe(m, *gpsWait)

	if err := m.Close(); err != nil {
		log.Error("closing the modem failed", zap.Error(err))
	}
	a.Shutdown()
}

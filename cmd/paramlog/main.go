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

func main() {
	fs := flag.NewFlagSet("paramlog", flag.ExitOnError)
	interval := fs.Duration("interval", 200*time.Millisecond, "time between two status polls")

	a, err := app.Setup(fs, os.Args[1:])
	if err != nil {
		os.Exit(1)
	}
	defer a.Shutdown()

	m, err := a.OpenModem()
	if err != nil {
		return
	}
	defer m.Close()

	ticker := time.NewTicker(*interval)
	defer ticker.Stop()

	for {
		status, err := m.Status()
		switch {
		case modem.IsCritical(err):
			log.Error("modem lost", zap.Error(err))
			return
		case err != nil:
			log.Warn("status unavailable", zap.Error(err))
		case status.TxPower == modem.TxPowerUnknown:
			log.Info("tx_power", zap.String("dbm", "---"))
		default:
			log.Info("tx_power", zap.Int("dbm", status.TxPower))
		}

		select {
		case <-a.ExitSignal:
			log.Info("received exit signal")
			return
		case <-ticker.C:
		}
	}
}

package main

import (
	"errors"
	"flag"
	"fmt"
	"os"

	"github.com/LeoCommon/cellmodem/pkg/log"
	"github.com/LeoCommon/cellmodem/pkg/usb"
	"go.uber.org/zap"
)

// prints one "<device>\t<model>" line per AT port, meant to be consumed by scripts
func main() {
	sysRoot := flag.String("sysroot", usb.DefaultSysRoot, "sysfs mount point")
	flag.Parse()

	log.InitQuiet()

	failed := false
	for _, model := range []usb.Model{usb.MC7455, usb.EM7565} {
		ports, err := usb.EnumeratePorts(*sysRoot, model)
		if errors.Is(err, &usb.NotFoundError{}) {
			continue
		}
		if err != nil {
			log.Error("enumeration failed", zap.String("model", model.Short()), zap.Error(err))
			failed = true
			continue
		}

		for _, p := range ports {
			fmt.Printf("%s\t%s\n", p.DevPath, model.Short())
		}
	}

	if failed {
		os.Exit(1)
	}
}

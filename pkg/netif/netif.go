package netif

import (
	"fmt"
	"time"

	"github.com/LeoCommon/cellmodem/pkg/log"
	"go.uber.org/zap"
)

// DefaultRestartPause is the time an interface stays down during Restart
const DefaultRestartPause = 2 * time.Second

// Interfaces switches network interfaces of the host.
type Interfaces interface {
	Down(name string) error
	Up(name string) error
	Shutdown()
}

// NotAvailableError is returned when the network service cannot be reached or does not know the interface.
type NotAvailableError struct {
	Interface string // optional
	Reason    string
}

func (e *NotAvailableError) Error() string {
	if e.Interface == "" {
		return fmt.Sprintf("network control not available: %s", e.Reason)
	}
	return fmt.Sprintf("interface %s: not available: %s", e.Interface, e.Reason)
}

func (e *NotAvailableError) Is(target error) bool {
	_, ok := target.(*NotAvailableError)
	return ok
}

// Restart takes the interface down and up again, the modem's new bearer is picked up this way.
func Restart(ifs Interfaces, name string, pause time.Duration) error {
	log.Info("restarting network interface", zap.String("interface", name))

	if err := ifs.Down(name); err != nil {
		log.Error("could not take interface down", zap.String("interface", name), zap.Error(err))
		return err
	}

	time.Sleep(pause)

	if err := ifs.Up(name); err != nil {
		log.Error("could not bring interface up", zap.String("interface", name), zap.Error(err))
		return err
	}

	return nil
}

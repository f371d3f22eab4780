package usb

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/DiscoResearchSat/go-udev/netlink"
	"github.com/LeoCommon/cellmodem/pkg/log"
	"github.com/google/gousb"
	"go.uber.org/zap"
)

// HotplugFunc is called for every supported modem that is attached or removed.
type HotplugFunc func(model Model, attached bool)

// DeviceManager keeps track of the supported modems on the bus.
type DeviceManager struct {
	sync.Mutex
	sync.WaitGroup

	// Currently attached modems
	devices DeviceMap
	// Called outside of the lock for every hotplug event of a supported modem
	onHotplug HotplugFunc
	// Closes the udev monitor
	udevCloseChannel chan struct{}
	// If not nil, udev monitoring is active
	udev *netlink.UEventConn
}

// NewDeviceManager starts watching for hotplug events. Without udev only FindSupportedDevices works.
func NewDeviceManager(onHotplug HotplugFunc) *DeviceManager {
	m := &DeviceManager{
		devices:          make(DeviceMap),
		onHotplug:        onHotplug,
		udev:             new(netlink.UEventConn),
		udevCloseChannel: make(chan struct{}),
	}

	if err := m.udev.Connect(netlink.UdevEvent); err != nil {
		log.Error("could not connect to udev, hotplug support not available", zap.Error(err))
		m.udev = nil
	} else {
		m.Add(1)
		go m.monitor()
	}

	return m
}

// FindSupportedDevices probes the bus for every supported model and returns the attached ones.
func (m *DeviceManager) FindSupportedDevices() DeviceMap {
	m.Lock()
	defer m.Unlock()

	usbCtx := gousb.NewContext()
	defer usbCtx.Close()

	for model, d := range SupportedModels {
		dev, err := usbCtx.OpenDeviceWithVIDPID(d.VendorID, d.ProductID)
		if dev == nil {
			if err != nil {
				log.Error("error while probing usb devices", zap.String("modem", d.String()), zap.Error(err))
			}
			log.Debug("modem not attached", zap.String("modem", d.String()))
			continue
		}
		dev.Close()

		m.devices[model] = d
		log.Info("found supported modem", zap.String("modem", d.String()))
	}

	return m.attached()
}

// Attached returns a copy of the currently attached modems.
func (m *DeviceManager) Attached() DeviceMap {
	m.Lock()
	defer m.Unlock()

	return m.attached()
}

func (m *DeviceManager) attached() DeviceMap {
	attached := make(DeviceMap, len(m.devices))
	for k, v := range m.devices {
		attached[k] = v
	}
	return attached
}

// IsAttached reports whether a modem of the given model is on the bus.
func (m *DeviceManager) IsAttached(model Model) bool {
	m.Lock()
	defer m.Unlock()

	_, ok := m.devices[model]
	return ok
}

func (m *DeviceManager) HotplugReceived(vendorID uint16, productID uint16, wasAdded bool) {
	tuple, found := FindSupportedDeviceTuple(gousb.ID(vendorID), gousb.ID(productID))
	if !found {
		log.Debug("ignoring unsupported device", zap.String("vid", gousb.ID(vendorID).String()), zap.String("pid", gousb.ID(productID).String()))
		return
	}

	m.Lock()
	if wasAdded {
		log.Info("modem attached", zap.String("modem", tuple.Device.String()))
		m.devices[tuple.Model] = tuple.Device
	} else {
		log.Info("modem removed", zap.String("modem", tuple.Device.String()))
		delete(m.devices, tuple.Model)
	}
	m.Unlock()

	if m.onHotplug != nil {
		m.onHotplug(tuple.Model, wasAdded)
	}
}

// ResetDevice issues a USB port reset to an attached modem.
func (m *DeviceManager) ResetDevice(model Model) error {
	m.Lock()
	defer m.Unlock()

	d, exists := m.devices[model]
	if !exists {
		return &NotFoundError{Model: model, SysRoot: "usb"}
	}

	usbCtx := gousb.NewContext()
	defer usbCtx.Close()

	dev, _ := usbCtx.OpenDeviceWithVIDPID(d.VendorID, d.ProductID)
	if dev == nil {
		log.Error("the modem was detected previously, but disappeared", zap.String("modem", d.String()))
		return &VanishedError{Device: d.String()}
	}
	defer dev.Close()

	if err := dev.Reset(); err != nil {
		log.Error("resetting usb device failed", zap.String("modem", d.String()), zap.Error(err))
		return fmt.Errorf("usb reset of %s: %w", d.Name, err)
	}

	return nil
}

func (m *DeviceManager) Shutdown() {
	m.Lock()
	monitoring := m.udev != nil
	m.Unlock()

	// the monitor may need the lock to deliver a pending event
	if monitoring {
		log.Info("closing udev monitor")
		m.udevCloseChannel <- struct{}{}
	}

	m.Wait()
}

// parseProduct splits the PRODUCT variable of an uevent, e.g. "1199/9091/6" is VID/PID/REVISION
func parseProduct(product string) (vid uint16, pid uint16, err error) {
	s := strings.Split(product, "/")
	if len(s) < 2 {
		return 0, 0, fmt.Errorf("malformed product string %q", product)
	}

	if vid, err = ParseHexUINT16(s[0]); err != nil {
		return 0, 0, fmt.Errorf("vendor id %q: %w", s[0], err)
	}
	if pid, err = ParseHexUINT16(s[1]); err != nil {
		return 0, 0, fmt.Errorf("product id %q: %w", s[1], err)
	}
	return vid, pid, nil
}

func (m *DeviceManager) monitor() {
	errors := make(chan error)

	matchRule := fmt.Sprintf("%s|%s", netlink.BIND, netlink.UNBIND)
	deviceMatcher := &netlink.RuleDefinitions{
		Rules: []netlink.RuleDefinition{
			{
				// whole usb devices only, interfaces bind separately
				Action: &matchRule,
				Env: map[string]string{
					"DEVTYPE": "usb_device",
				},
			},
		},
	}

	ctx, cancelUdevMonitor := context.WithCancel(context.Background())
	queue := m.udev.Monitor(ctx, errors, deviceMatcher)

	defer func() {
		m.Lock()
		m.udev.Close()
		m.Done()
		m.Unlock()
	}()

udevMonitorLoop:
	for {
		select {
		case <-m.udevCloseChannel:
			cancelUdevMonitor()
			<-errors
			break udevMonitorLoop

		case uevent := <-queue:
			product, ok := uevent.Env["PRODUCT"]
			if !ok {
				log.Debug("event without product", zap.String("event", uevent.String()))
				continue
			}

			vid, pid, err := parseProduct(product)
			if err != nil {
				log.Error("could not parse uevent product", zap.Error(err))
				continue
			}

			m.HotplugReceived(vid, pid, uevent.Action == netlink.BIND)

		case err := <-errors:
			log.Error("udev monitor encountered an error", zap.Error(err))
		}
	}

	log.Info("stopped observing udev events")
}

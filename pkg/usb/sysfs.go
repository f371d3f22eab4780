package usb

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/LeoCommon/cellmodem/pkg/log"
	"github.com/google/gousb"
	"go.uber.org/zap"
)

const DefaultSysRoot = "/sys"

// Port is a tty bound to the AT interface of a modem.
type Port struct {
	DevPath string
	SysPath string
}

func readAttribute(dir, name string) (string, bool) {
	b, err := os.ReadFile(filepath.Join(dir, name))
	if err != nil {
		return "", false
	}
	return strings.TrimSpace(string(b)), true
}

// usbParents walks up from dir and returns the closest interface and device directories
func usbParents(root, dir string) (iface string, dev string) {
	for ; dir != root && strings.HasPrefix(dir, root); dir = filepath.Dir(dir) {
		if iface == "" {
			if _, ok := readAttribute(dir, "bInterfaceNumber"); ok {
				iface = dir
				continue
			}
		}
		if _, ok := readAttribute(dir, "idVendor"); ok {
			return iface, dir
		}
	}
	return iface, ""
}

func matchesModel(ifaceDir, devDir string, d *Device) bool {
	number, ok := readAttribute(ifaceDir, "bInterfaceNumber")
	if !ok {
		return false
	}
	n, err := strconv.ParseUint(number, 16, 8)
	if err != nil || int(n) != d.ATInterface {
		return false
	}

	vidStr, _ := readAttribute(devDir, "idVendor")
	pidStr, _ := readAttribute(devDir, "idProduct")

	vid, err := ParseHexUINT16(vidStr)
	if err != nil {
		return false
	}
	pid, err := ParseHexUINT16(pidStr)
	if err != nil {
		return false
	}

	return gousb.ID(vid) == d.VendorID && gousb.ID(pid) == d.ProductID
}

// EnumeratePorts lists the AT ports of all attached modems of the given model, sorted by device path.
// sysRoot is normally DefaultSysRoot.
func EnumeratePorts(sysRoot string, model Model) ([]Port, error) {
	d, ok := SupportedModels[model]
	if !ok {
		return nil, fmt.Errorf("model %d is not supported", model)
	}

	root, err := filepath.EvalSymlinks(sysRoot)
	if err != nil {
		return nil, fmt.Errorf("resolving sysfs root: %w", err)
	}

	ttys, err := os.ReadDir(filepath.Join(root, "class", "tty"))
	if err != nil {
		return nil, fmt.Errorf("listing tty devices: %w", err)
	}

	var ports []Port
	for _, tty := range ttys {
		devicePath, err := filepath.EvalSymlinks(filepath.Join(root, "class", "tty", tty.Name(), "device"))
		if err != nil {
			// virtual terminals have no device
			continue
		}

		ifaceDir, devDir := usbParents(root, devicePath)
		if ifaceDir == "" || devDir == "" {
			continue
		}

		if !matchesModel(ifaceDir, devDir, d) {
			continue
		}

		port := Port{DevPath: filepath.Join("/dev", tty.Name()), SysPath: devicePath}
		log.Debug("found AT port", zap.String("model", d.Name), zap.String("device", port.DevPath))
		ports = append(ports, port)
	}

	if len(ports) == 0 {
		return nil, &NotFoundError{Model: model, SysRoot: sysRoot}
	}

	sort.Slice(ports, func(i, j int) bool { return ports[i].DevPath < ports[j].DevPath })
	return ports, nil
}

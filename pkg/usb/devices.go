package usb

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/google/gousb"
)

type Model int

const (
	Unknown Model = iota
	// Sierra Wireless modems
	EM7565
	MC7455
)

var (
	SupportedModels = DeviceMap{
		EM7565: {
			VendorID:    0x1199,
			ProductID:   0x9091,
			Name:        "Sierra Wireless EM7565",
			ATInterface: 3,
		},
		MC7455: {
			VendorID:    0x1199,
			ProductID:   0x9071,
			Name:        "Sierra Wireless MC7455",
			ATInterface: 3,
		},
	}
)

// Device describes a supported modem and the USB interface its AT port is bound to.
type Device struct {
	Name        string
	VendorID    gousb.ID
	ProductID   gousb.ID
	ATInterface int
}

func (d *Device) String() string {
	return fmt.Sprintf("%s vid: %s pid: %s", d.Name, d.VendorID.String(), d.ProductID.String())
}

type DeviceMap map[Model]*Device

// short names used in configs and on the command line
var modelNames = map[Model]string{
	EM7565: "EM7565",
	MC7455: "MC7455",
}

type DeviceTuple struct {
	*Device
	Model
}

func (m Model) String() string {
	if d, ok := SupportedModels[m]; ok {
		return d.Name
	}
	return "unknown"
}

// Short returns the model name without the vendor, e.g. EM7565
func (m Model) Short() string {
	if name, ok := modelNames[m]; ok {
		return name
	}
	return "unknown"
}

// ParseModel is the inverse of Short, case insensitive
func ParseModel(name string) (Model, error) {
	for model, short := range modelNames {
		if strings.EqualFold(short, name) {
			return model, nil
		}
	}
	return Unknown, fmt.Errorf("unsupported modem model %q", name)
}

func FindSupportedDeviceTuple(vendorID gousb.ID, productID gousb.ID) (DeviceTuple, bool) {
	for k, device := range SupportedModels {
		if device.VendorID == vendorID && device.ProductID == productID {
			return DeviceTuple{Model: k, Device: device}, true
		}
	}
	return DeviceTuple{}, false
}

func ParseHexUINT16(str string) (uint16, error) {
	val, err := strconv.ParseUint(str, 16, 16)
	if err != nil {
		return 0, err
	}

	return uint16(val), nil
}

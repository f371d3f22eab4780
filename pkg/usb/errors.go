package usb

import "fmt"

// NotFoundError is returned when no AT port of the requested model is attached.
type NotFoundError struct {
	Model   Model
	SysRoot string
}

func (n *NotFoundError) Error() string {
	return fmt.Sprintf("no AT port of %s found in %s", n.Model, n.SysRoot)
}

func (n *NotFoundError) Is(e error) bool {
	_, ok := e.(*NotFoundError)
	return ok
}

// VanishedError is returned when a modem seen before is no longer on the bus.
type VanishedError struct {
	Device string
}

func (v *VanishedError) Error() string {
	return fmt.Sprintf("%s disappeared but was detected before", v.Device)
}

func (v *VanishedError) Is(e error) bool {
	_, ok := e.(*VanishedError)
	return ok
}

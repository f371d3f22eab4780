package usb

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/LeoCommon/cellmodem/pkg/log"
	"github.com/google/gousb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

type fakeTTY struct {
	name      string
	vid, pid  string
	iface     string
	usbSerial bool
}

// SetupSysfsTest builds a minimal sysfs tree with the given ttys below a temporary root
func SetupSysfsTest(t *testing.T, ttys []fakeTTY) (string, func()) {
	t.Helper()
	log.Init(true)

	root := t.TempDir()
	write := func(path, content string) {
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
		require.NoError(t, os.WriteFile(path, []byte(content+"\n"), 0644))
	}

	require.NoError(t, os.MkdirAll(filepath.Join(root, "class", "tty"), 0755))

	for i, tty := range ttys {
		classDir := filepath.Join(root, "class", "tty", tty.name)
		require.NoError(t, os.MkdirAll(classDir, 0755))

		if tty.vid == "" {
			continue
		}

		devDir := filepath.Join(root, "devices", "usb1", "1-"+string(rune('1'+i)))
		write(filepath.Join(devDir, "idVendor"), tty.vid)
		write(filepath.Join(devDir, "idProduct"), tty.pid)

		ifaceDir := filepath.Join(devDir, filepath.Base(devDir)+":1."+tty.iface)
		write(filepath.Join(ifaceDir, "bInterfaceNumber"), tty.iface)

		target := ifaceDir
		if tty.usbSerial {
			target = filepath.Join(ifaceDir, tty.name)
			require.NoError(t, os.MkdirAll(target, 0755))
		}
		require.NoError(t, os.Symlink(target, filepath.Join(classDir, "device")))
	}

	return root, func() {
		goleak.VerifyNone(t)
	}
}

func TestEnumeratePorts(t *testing.T) {
	root, teardown := SetupSysfsTest(t, []fakeTTY{
		{name: "tty0"},
		{name: "ttyUSB0", vid: "1199", pid: "9091", iface: "00", usbSerial: true},
		{name: "ttyUSB3", vid: "1199", pid: "9091", iface: "03", usbSerial: true},
		{name: "ttyUSB2", vid: "1199", pid: "9091", iface: "03", usbSerial: true},
		{name: "ttyUSB7", vid: "1199", pid: "9071", iface: "03", usbSerial: true},
		{name: "ttyACM0", vid: "1d50", pid: "6089", iface: "03"},
	})
	defer teardown()

	ports, err := EnumeratePorts(root, EM7565)
	require.NoError(t, err)
	require.Len(t, ports, 2)
	assert.Equal(t, "/dev/ttyUSB2", ports[0].DevPath)
	assert.Equal(t, "/dev/ttyUSB3", ports[1].DevPath)
	assert.Equal(t, "ttyUSB2", filepath.Base(ports[0].SysPath))

	ports, err = EnumeratePorts(root, MC7455)
	require.NoError(t, err)
	require.Len(t, ports, 1)
	assert.Equal(t, "/dev/ttyUSB7", ports[0].DevPath)
}

func TestEnumeratePortsWithInterfaceDevice(t *testing.T) {
	root, teardown := SetupSysfsTest(t, []fakeTTY{
		{name: "ttyACM1", vid: "1199", pid: "9091", iface: "03"},
	})
	defer teardown()

	ports, err := EnumeratePorts(root, EM7565)
	require.NoError(t, err)
	require.Len(t, ports, 1)
	assert.Equal(t, "/dev/ttyACM1", ports[0].DevPath)
}

func TestEnumeratePortsNotFound(t *testing.T) {
	root, teardown := SetupSysfsTest(t, []fakeTTY{
		{name: "tty0"},
		{name: "ttyUSB0", vid: "1199", pid: "9091", iface: "00", usbSerial: true},
	})
	defer teardown()

	_, err := EnumeratePorts(root, EM7565)
	assert.ErrorIs(t, err, &NotFoundError{})

	_, err = EnumeratePorts(filepath.Join(root, "missing"), EM7565)
	assert.Error(t, err)
	assert.NotErrorIs(t, err, &NotFoundError{})

	_, err = EnumeratePorts(root, Unknown)
	assert.Error(t, err)
}

func TestFindSupportedDeviceTuple(t *testing.T) {
	tuple, found := FindSupportedDeviceTuple(0x1199, 0x9091)
	require.True(t, found)
	assert.Equal(t, EM7565, tuple.Model)
	assert.Equal(t, 3, tuple.ATInterface)
	assert.Equal(t, "Sierra Wireless EM7565", tuple.Model.String())

	_, found = FindSupportedDeviceTuple(0x1d50, 0x6089)
	assert.False(t, found)
	assert.Equal(t, "unknown", Unknown.String())
}

func TestParseProduct(t *testing.T) {
	vid, pid, err := parseProduct("1199/9091/6")
	require.NoError(t, err)
	assert.Equal(t, gousb.ID(0x1199), gousb.ID(vid))
	assert.Equal(t, gousb.ID(0x9091), gousb.ID(pid))

	_, _, err = parseProduct("1199")
	assert.Error(t, err)
	_, _, err = parseProduct("zz/9091/6")
	assert.Error(t, err)
}

func TestHotplugReceived(t *testing.T) {
	log.Init(true)
	defer goleak.VerifyNone(t)

	var events []bool
	m := &DeviceManager{
		devices:   make(DeviceMap),
		onHotplug: func(model Model, attached bool) { events = append(events, attached) },
	}

	m.HotplugReceived(0x1199, 0x9091, true)
	assert.True(t, m.IsAttached(EM7565))
	assert.Len(t, m.Attached(), 1)

	// unsupported devices are ignored
	m.HotplugReceived(0x1d50, 0x6089, true)
	assert.Len(t, m.Attached(), 1)

	m.HotplugReceived(0x1199, 0x9091, false)
	assert.False(t, m.IsAttached(EM7565))
	assert.Equal(t, []bool{true, false}, events)

	assert.ErrorIs(t, m.ResetDevice(EM7565), &NotFoundError{})

	// no udev connection, nothing to wait for
	m.Shutdown()
}

func TestParseModel(t *testing.T) {
	model, err := ParseModel("em7565")
	require.NoError(t, err)
	assert.Equal(t, EM7565, model)
	assert.Equal(t, "EM7565", model.Short())

	model, err = ParseModel("MC7455")
	require.NoError(t, err)
	assert.Equal(t, MC7455, model)

	_, err = ParseModel("SIM7600")
	assert.Error(t, err)
	assert.Equal(t, "unknown", Unknown.Short())
}

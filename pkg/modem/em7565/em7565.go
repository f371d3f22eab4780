package em7565

import (
	"fmt"
	"strings"

	"github.com/LeoCommon/cellmodem/pkg/at"
	"github.com/LeoCommon/cellmodem/pkg/log"
	"github.com/LeoCommon/cellmodem/pkg/modem"
	"github.com/LeoCommon/cellmodem/pkg/tokenfind"
	"github.com/LeoCommon/cellmodem/pkg/usb"
	"go.uber.org/zap"
)

const (
	protectedPassword = "A710"
	protectedDisable  = "123"
)

// Modem decodes the Sierra Wireless EM7565 AT dialect.
type Modem struct {
	tr at.Transport
	x  *tokenfind.Extractor
}

var _ modem.Modem = (*Modem)(nil)

// New builds a decoder on top of an open transport. Decoders may share cache, a nil cache gets a private one.
func New(tr at.Transport, cache *tokenfind.PatternCache) *Modem {
	return &Modem{tr: tr, x: tokenfind.NewExtractor(cache)}
}

// Open connects to the AT port at path.
func Open(path string, opts at.PortOptions) (*Modem, error) {
	tr, err := at.OpenSerial(path, opts)
	if err != nil {
		return nil, err
	}
	return New(tr, nil), nil
}

// Enumerate lists the AT ports of all attached EM7565 modems.
func Enumerate() ([]usb.Port, error) {
	return usb.EnumeratePorts(usb.DefaultSysRoot, usb.EM7565)
}

// OpenFirst connects to the first EM7565 found.
func OpenFirst(opts at.PortOptions) (*Modem, error) {
	ports, err := Enumerate()
	if err != nil {
		return nil, err
	}

	log.Info("using modem", zap.String("device", ports[0].DevPath), zap.String("syspath", ports[0].SysPath))
	return Open(ports[0].DevPath, opts)
}

func (m *Modem) Close() error {
	return m.tr.Close()
}

// exec runs a command and maps its outcome onto the decoder errors.
func (m *Modem) exec(id commandID, params string) (string, error) {
	cmd := Commands[id]

	resp, err := m.tr.Execute(cmd, params)
	if err != nil {
		err = modem.Classify(cmd.ID, err)
		if modem.IsCritical(err) {
			log.Error("modem command failed critically", zap.String("command", cmd.Template+params), zap.Error(err))
		} else {
			log.Warn("modem command failed", zap.String("command", cmd.Template+params), zap.Error(err))
		}
		return resp.Text, err
	}

	return resp.Text, nil
}

func invalidArgument(format string, args ...any) error {
	return fmt.Errorf("%w: %s", modem.ErrInvalidArgument, fmt.Sprintf(format, args...))
}

func (m *Modem) IsReady() error {
	_, err := m.exec(cmdReady, "")
	return err
}

// Reset reboots the modem. The device node disappears shortly after.
func (m *Modem) Reset() error {
	_, err := m.exec(cmdReset, "")
	return err
}

// SetProtectedCommands unlocks or locks the vendor specific command set.
func (m *Modem) SetProtectedCommands(enable bool) error {
	password := protectedDisable
	if enable {
		password = protectedPassword
	}

	_, err := m.exec(cmdSetProtected, `"`+password+`"`)
	return err
}

// ProtectedCommands reports whether the vendor specific command set is unlocked.
func (m *Modem) ProtectedCommands() (bool, error) {
	text, err := m.exec(cmdGetProtected, "")
	if err != nil {
		return false, err
	}

	state, err := m.x.String(text, `([[:alnum:]]+)\s+`, 64)
	if err != nil {
		return false, fmt.Errorf("%w: %w", modem.ErrFailed, err)
	}

	return strings.EqualFold(state, protectedPassword), nil
}

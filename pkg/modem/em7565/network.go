package em7565

import (
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/LeoCommon/cellmodem/pkg/modem"
	"github.com/LeoCommon/cellmodem/pkg/tokenfind"
)

// IP versions accepted by SetAPN
const (
	IPVersionAny    = "IP"
	IPVersionIPv4   = "IPV4"
	IPVersionIPv4v6 = "IPV4V6"
)

// pdnConnectionID is the only PDN context the data connection commands use
const pdnConnectionID = 1

type RadioAccessType int

const (
	RATAutomatic   RadioAccessType = 0x00
	RATUMTSOnly    RadioAccessType = 0x01
	RATLTEOnly     RadioAccessType = 0x06
	RATUMTSLTEOnly RadioAccessType = 0x11
)

var radioAccessTypes = []RadioAccessType{RATAutomatic, RATUMTSOnly, RATLTEOnly, RATUMTSLTEOnly}

type SelectionMode int

const (
	SelectionAutomatic SelectionMode = iota
	SelectionManual
	SelectionDeregister
	SelectionSetFormat
	SelectionManualWithFallback
)

type OperatorFormat int

const (
	FormatLongName OperatorFormat = iota
	FormatShortName
	FormatMCCMNC
)

type NetworkState int

const (
	NetworkUnknown NetworkState = iota
	NetworkAvailable
	NetworkCurrent
	NetworkForbidden
)

type AccessTechnology int

const (
	AcTGSM AccessTechnology = iota
	AcTGSMCompact
	AcTUTRAN
	AcTGSMEGPRS
	AcTUTRANHSDPA
	AcTUTRANHSUPA
	AcTUTRANHSDPAHSUPA
	AcTEUTRAN
	// AcTAny leaves the access technology to the modem when selecting a network.
	AcTAny
)

// Network is one entry of an operator search.
type Network struct {
	State            NetworkState
	LongName         string
	ShortName        string
	MCCMNC           int
	AccessTechnology AccessTechnology
}

// SetAPN configures the PDP context in slot.
func (m *Modem) SetAPN(slot int, ipVersion, apn string) error {
	if slot < 1 || slot > 3 {
		return invalidArgument("apn slot %d", slot)
	}
	switch ipVersion {
	case IPVersionAny, IPVersionIPv4, IPVersionIPv4v6:
	default:
		return invalidArgument("ip version %q", ipVersion)
	}
	if apn == "" || strings.ContainsAny(apn, "\"\r\n") {
		return invalidArgument("apn %q", apn)
	}

	_, err := m.exec(cmdSetAPN, fmt.Sprintf(`%d,"%s","%s"`, slot, ipVersion, apn))
	return err
}

func (m *Modem) SetDataConnection(enable bool) error {
	state := 0
	if enable {
		state = 1
	}

	_, err := m.exec(cmdSetDataConnection, fmt.Sprintf("%d,%d", state, pdnConnectionID))
	return err
}

// DataConnection reports whether the data connection is established.
func (m *Modem) DataConnection() (bool, error) {
	text, err := m.exec(cmdGetDataConnection, "")
	if err != nil {
		return false, err
	}

	if _, err := m.x.Int(text, `SCACT:\s+(\d+),`, 10); err != nil {
		return false, fmt.Errorf("%w: data connection id: %w", modem.ErrFailed, err)
	}
	state, err := m.x.Int(text, `SCACT:\s+\d+,(\d+)\s+`, 10)
	if err != nil {
		return false, fmt.Errorf("%w: data connection state: %w", modem.ErrFailed, err)
	}

	return state == 1, nil
}

// SetRadioAccessType restricts the radio technologies the modem may use.
func (m *Modem) SetRadioAccessType(rat RadioAccessType) error {
	if !slices.Contains(radioAccessTypes, rat) {
		return invalidArgument("radio access type %#x", int(rat))
	}

	_, err := m.exec(cmdSetRAT, fmt.Sprintf("%02x", int(rat)))
	return err
}

func (m *Modem) RadioAccessType() (RadioAccessType, error) {
	text, err := m.exec(cmdGetRAT, "")
	if err != nil {
		return RATAutomatic, err
	}

	// the code is printed as two hex digits
	v, err := m.x.Int(text, `SELRAT:\s+([0-9A-Fa-f]+),`, 16)
	if err != nil {
		return RATAutomatic, fmt.Errorf("%w: radio access type: %w", modem.ErrFailed, err)
	}

	rat := RadioAccessType(v)
	if !slices.Contains(radioAccessTypes, rat) {
		err := &tokenfind.ConversionError{Value: strconv.FormatInt(v, 16), Err: tokenfind.ErrUnknownVariant}
		return RATAutomatic, fmt.Errorf("%w: radio access type: %w", modem.ErrFailed, err)
	}
	return rat, nil
}

const networkEntry = `\((\d+),"([^"]*)","([^"]*)","(\d+)",(\d+)\)`

// NetworkSearch scans for operators. This takes up to three minutes.
func (m *Modem) NetworkSearch() ([]Network, error) {
	text, err := m.exec(cmdNetworkSearch, "")
	if err != nil {
		return nil, err
	}

	// the supported modes and formats follow the network list behind a double comma
	if i := strings.Index(text, ",,"); i >= 0 {
		text = text[:i]
	}

	var networks []Network
	for len(text) > 0 {
		spans, err := m.x.MatchMulti(text, networkEntry, 5)
		if err != nil {
			break
		}

		n, ok := parseNetwork(spans, text)
		if ok {
			networks = append(networks, n)
		}
		text = text[spans[4].End+1:]
	}

	return networks, nil
}

func parseNetwork(spans []tokenfind.Span, text string) (Network, bool) {
	state, err := tokenfind.ParseInt(spans[0].In(text), 10)
	if err != nil || state < int64(NetworkUnknown) || state > int64(NetworkForbidden) {
		return Network{}, false
	}
	mccmnc, err := tokenfind.ParseInt(spans[3].In(text), 10)
	if err != nil {
		return Network{}, false
	}
	act, err := tokenfind.ParseInt(spans[4].In(text), 10)
	if err != nil || act < int64(AcTGSM) || act > int64(AcTEUTRAN) {
		return Network{}, false
	}

	return Network{
		State:            NetworkState(state),
		LongName:         spans[1].In(text),
		ShortName:        spans[2].In(text),
		MCCMNC:           int(mccmnc),
		AccessTechnology: AccessTechnology(act),
	}, true
}

// SelectNetwork registers with an operator. Manual modes need network, it is ignored otherwise.
func (m *Modem) SelectNetwork(mode SelectionMode, format OperatorFormat, network *Network) error {
	if format < FormatLongName || format > FormatMCCMNC {
		return invalidArgument("operator format %d", format)
	}

	var params string
	switch mode {
	case SelectionAutomatic, SelectionDeregister:
		params = strconv.Itoa(int(mode))
	case SelectionSetFormat:
		params = fmt.Sprintf("%d,%d", mode, format)
	case SelectionManual, SelectionManualWithFallback:
		if network == nil {
			return invalidArgument("network selection mode %d without network", mode)
		}
		if network.AccessTechnology < AcTGSM || network.AccessTechnology > AcTAny {
			return invalidArgument("access technology %d", network.AccessTechnology)
		}

		switch format {
		case FormatLongName:
			params = fmt.Sprintf(`%d,%d,"%s"`, mode, format, network.LongName)
		case FormatShortName:
			params = fmt.Sprintf(`%d,%d,"%s"`, mode, format, network.ShortName)
		case FormatMCCMNC:
			params = fmt.Sprintf(`%d,%d,"%d"`, mode, format, network.MCCMNC)
		}

		if network.AccessTechnology < AcTAny {
			params += fmt.Sprintf(",%d", network.AccessTechnology)
		}
	default:
		return invalidArgument("network selection mode %d", mode)
	}

	_, err := m.exec(cmdSelectNetwork, params)
	return err
}

// CurrentOperator returns the name of the registered operator.
func (m *Modem) CurrentOperator() (string, error) {
	text, err := m.exec(cmdCurrentOperator, "")
	if err != nil {
		return "", err
	}

	name, err := m.x.String(text, `"([^"]*)"`, 64)
	if err != nil {
		return "", fmt.Errorf("%w: current operator: %w", modem.ErrFailed, err)
	}
	return name, nil
}

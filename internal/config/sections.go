package config

import (
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/LeoCommon/cellmodem/pkg/at"
	"github.com/LeoCommon/cellmodem/pkg/usb"
)

type ModemConfig struct {
	// Empty selects the first attached modem of Model
	Device  string         `toml:"device,omitempty" comment:"AT port of the modem, autodetected if empty"`
	Model   string         `toml:"model" comment:"modem model used for autodetection (EM7565)"`
	SysRoot string         `toml:"sys_root,omitempty" comment:"sysfs mount point used for autodetection"`
	Port    at.PortOptions `toml:"port,omitempty"`
	// Prometheus endpoint, disabled if empty
	MetricsListen string `toml:"metrics_listen,omitempty" comment:"address to serve prometheus metrics on, e.g. :9101"`
}

type ModemConfigManager struct {
	BaseConfigManager[ModemConfig]
}

// ErrUnsupportedModel is returned for modems that can be detected but not driven
var ErrUnsupportedModel = errors.New("no AT dialect implemented for modem model")

// DecoderModel returns the model the modem is driven as. Only the EM7565 dialect exists,
// an explicit device without a model is assumed to speak it.
func (c ModemConfig) DecoderModel() (usb.Model, error) {
	if c.Model == "" && c.Device != "" {
		return usb.EM7565, nil
	}

	model, err := usb.ParseModel(c.Model)
	if err != nil {
		return usb.Unknown, err
	}
	if model != usb.EM7565 {
		return model, fmt.Errorf("%w: %s", ErrUnsupportedModel, model.Short())
	}
	return model, nil
}

func (a *ModemConfigManager) Verify() error {
	if _, err := a.conf.DecoderModel(); err != nil {
		return err
	}

	_, err := a.conf.Port.Normalize()
	return err
}

type CollectorConfig struct {
	Interval TOMLDuration `toml:"interval" comment:"minimum time between two status polls"`
}

type CollectorConfigManager struct {
	BaseConfigManager[CollectorConfig]
}

func (a *CollectorConfigManager) Verify() error {
	if a.conf.Interval.Value() <= 0 {
		return errors.New("collector interval must be positive")
	}
	return nil
}

type TrafficConfig struct {
	URL            string       `toml:"url" comment:"upload target"`
	PayloadSize    int64        `toml:"payload_size" comment:"bytes per transmission"`
	Repeats        int          `toml:"repeats" comment:"number of transmissions"`
	Pause          TOMLDuration `toml:"pause" comment:"pause between transmissions"`
	ReportInterval TOMLDuration `toml:"report_interval" comment:"minimum interval between two trace rows"`
	Wait           TOMLDuration `toml:"wait" comment:"wait time between modem setup and the first transmission"`
	Timeout        TOMLDuration `toml:"timeout,omitempty" comment:"limit of a single transmission"`
	BearerToken    string       `toml:"bearer_token,omitempty" comment:"optional JWT sent as bearer authorization"`
}

type TrafficConfigManager struct {
	BaseConfigManager[TrafficConfig]
}

func (a *TrafficConfigManager) Verify() error {
	u, err := url.Parse(a.conf.URL)
	if err != nil {
		return err
	}
	if u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("traffic url %q needs a scheme and a host", a.conf.URL)
	}

	if a.conf.PayloadSize <= 0 {
		return errors.New("payload size must be positive")
	}
	if a.conf.Repeats < 1 {
		return errors.New("at least one repetition is required")
	}
	if a.conf.ReportInterval.Value() <= 0 {
		return errors.New("report interval must be positive")
	}
	if a.conf.Pause.Value() < 0 || a.conf.Wait.Value() < 0 {
		return errors.New("pause and wait must not be negative")
	}
	return nil
}

type TraceConfig struct {
	Directory string `toml:"directory" comment:"trace files are created here"`
}

type TraceConfigManager struct {
	BaseConfigManager[TraceConfig]
}

func (a *TraceConfigManager) Verify() error {
	if a.conf.Directory == "" {
		return errors.New("empty trace directory")
	}
	return nil
}

type NetworkConfig struct {
	Interface    string       `toml:"interface" comment:"network interface of the modem"`
	Restart      bool         `toml:"restart" comment:"restart the interface after the data connection was established"`
	RestartPause TOMLDuration `toml:"restart_pause,omitempty"`
}

type NetworkConfigManager struct {
	BaseConfigManager[NetworkConfig]
}

func (a *NetworkConfigManager) Verify() error {
	if a.conf.Restart && a.conf.Interface == "" {
		return errors.New("interface restart enabled without interface name")
	}
	return nil
}

// Defaults returns the config used for every value missing from the file
func Defaults() MainConfig {
	return MainConfig{
		Modem: ModemConfig{
			Model:   usb.EM7565.Short(),
			SysRoot: usb.DefaultSysRoot,
			Port:    at.PortOptions{BaudRate: at.DefaultBaudRate},
		},
		Collector: CollectorConfig{
			Interval: TOMLDuration(time.Second),
		},
		Traffic: TrafficConfig{
			URL:            "http://mptcp1.pi21.de:5002",
			PayloadSize:    5e6,
			Repeats:        1,
			Pause:          TOMLDuration(30 * time.Second),
			ReportInterval: TOMLDuration(time.Second),
			Wait:           TOMLDuration(3 * time.Second),
			Timeout:        TOMLDuration(10 * time.Minute),
		},
		Trace: TraceConfig{
			Directory: "/tmp",
		},
		Network: NetworkConfig{
			Interface:    "eth1",
			RestartPause: TOMLDuration(2 * time.Second),
		},
	}
}

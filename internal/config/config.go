package config

import (
	"flag"
	"os"
	"sync"
	"time"

	"github.com/LeoCommon/cellmodem/pkg/log"
	"github.com/pelletier/go-toml/v2"
	"go.uber.org/zap"
)

const (
	ProductName = "cellmodem"
	ConfigFile  = "config.toml"

	DefaultConfigPath     = "/etc/" + ProductName + "/" + ConfigFile
	DefaultDebugModeValue = false
)

type CLIFlags struct {
	ConfigPath string
	Debug      bool
}

type MainConfig struct {
	Modem     ModemConfig     `toml:"modem"`
	Collector CollectorConfig `toml:"collector"`
	Traffic   TrafficConfig   `toml:"traffic"`
	Trace     TraceConfig     `toml:"trace"`
	Network   NetworkConfig   `toml:"network"`
}

type ConfigManager interface {
	lock()
	unlock()
	Verify() error
}

type ConfigManagerKey string

const (
	CMModem     ConfigManagerKey = "modem"
	CMCollector ConfigManagerKey = "collector"
	CMTraffic   ConfigManagerKey = "traffic"
	CMTrace     ConfigManagerKey = "trace"
	CMNetwork   ConfigManagerKey = "network"
)

type ConfigManagerStore map[ConfigManagerKey]ConfigManager

type Manager struct {
	mu sync.RWMutex

	// The actual config, never share this with other code
	config *MainConfig

	store ConfigManagerStore
	path  string
}

func section[T ConfigManager](m *Manager, key ConfigManagerKey) T {
	m.mu.RLock()
	defer m.mu.RUnlock()

	cm, ok := m.store[key].(T)
	if !ok {
		log.Panic("implementation mistake, config section not loaded", zap.String("section", string(key)))
	}
	return cm
}

func (m *Manager) Modem() *ModemConfigManager {
	return section[*ModemConfigManager](m, CMModem)
}

func (m *Manager) Collector() *CollectorConfigManager {
	return section[*CollectorConfigManager](m, CMCollector)
}

func (m *Manager) Traffic() *TrafficConfigManager {
	return section[*TrafficConfigManager](m, CMTraffic)
}

func (m *Manager) Trace() *TraceConfigManager {
	return section[*TraceConfigManager](m, CMTrace)
}

func (m *Manager) Network() *NetworkConfigManager {
	return section[*NetworkConfigManager](m, CMNetwork)
}

// Load reads the config at path on top of the defaults. With acceptEmptyConfig a missing
// or broken file leaves the defaults in place.
func (m *Manager) Load(path string, acceptEmptyConfig bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	data, err := os.ReadFile(path)
	if err == nil {
		if err = toml.Unmarshal(data, m.config); err != nil {
			log.Error("failed to unmarshal config file", zap.Error(err))
		}
	}

	if err != nil && !acceptEmptyConfig {
		return err
	}

	m.path = path

	// Each config section manager gets his own locking primitive
	m.store = ConfigManagerStore{
		CMModem:     &ModemConfigManager{BaseConfigManager[ModemConfig]{conf: &m.config.Modem, mgr: m}},
		CMCollector: &CollectorConfigManager{BaseConfigManager[CollectorConfig]{conf: &m.config.Collector, mgr: m}},
		CMTraffic:   &TrafficConfigManager{BaseConfigManager[TrafficConfig]{conf: &m.config.Traffic, mgr: m}},
		CMTrace:     &TraceConfigManager{BaseConfigManager[TraceConfig]{conf: &m.config.Trace, mgr: m}},
		CMNetwork:   &NetworkConfigManager{BaseConfigManager[NetworkConfig]{conf: &m.config.Network, mgr: m}},
	}

	// Verify all configs contain the mandatory values
	for key, value := range m.store {
		if err := value.Verify(); err != nil {
			log.Error("invalid config section", zap.String("section", string(key)), zap.Error(err))
			return err
		}
	}

	log.Debug("active config", zap.Any("config", m.config), zap.String("path", m.path))
	return nil
}

// Save locks all sections and writes the config to the path it was loaded from
func (m *Manager) Save() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, value := range m.store {
		value.lock()
	}
	defer func() {
		for _, value := range m.store {
			value.unlock()
		}
	}()

	configData, err := toml.Marshal(m.config)
	if err != nil {
		return err
	}

	if err := os.WriteFile(m.path, configData, 0644); err != nil {
		log.Error("failed to write config file", zap.Error(err))
		return err
	}

	return nil
}

func NewManager() *Manager {
	defaults := Defaults()
	return &Manager{
		store:  make(ConfigManagerStore),
		config: &defaults,
	}
}

// ParseCLIFlags registers the common flags on fs and parses args
func ParseCLIFlags(fs *flag.FlagSet, args []string) (CLIFlags, error) {
	flags := CLIFlags{}

	fs.StringVar(&flags.ConfigPath, "config", DefaultConfigPath, "relative or absolute path to the config file")
	fs.BoolVar(&flags.Debug, "debug", DefaultDebugModeValue, "true if the debug logging should be enabled")

	err := fs.Parse(args)
	return flags, err
}

type TOMLDuration time.Duration

func (d *TOMLDuration) UnmarshalText(b []byte) error {
	x, err := time.ParseDuration(string(b))
	if err != nil {
		return err
	}
	*d = TOMLDuration(x)
	return nil
}

func (d TOMLDuration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

func (d TOMLDuration) Value() time.Duration {
	return time.Duration(d)
}

package netif

import (
	"errors"
	"sync"
	"time"

	"github.com/LeoCommon/cellmodem/pkg/log"
	gonm "github.com/Wifx/gonetworkmanager/v2"
	"github.com/godbus/dbus/v5"
	"go.uber.org/zap"
)

const (
	networkManagerBusName = "org.freedesktop.NetworkManager"
	activationTimeout     = 30 * time.Second
)

// NetworkManager switches interfaces through the NetworkManager D-Bus api.
type NetworkManager struct {
	sync.Mutex

	conn *dbus.Conn
	nm   gonm.NetworkManager

	// connection that was active before Down, reactivated by Up
	previous map[string]gonm.Connection
}

// NewNetworkManager checks that NetworkManager is running on the system bus and connects to it.
func NewNetworkManager() (*NetworkManager, error) {
	conn, err := dbus.ConnectSystemBus()
	if err != nil {
		return nil, &NotAvailableError{Reason: err.Error()}
	}

	var running bool
	err = conn.BusObject().Call("org.freedesktop.DBus.NameHasOwner", 0, networkManagerBusName).Store(&running)
	if err != nil || !running {
		conn.Close()
		if err == nil {
			err = errors.New("NetworkManager is not running")
		}
		return nil, &NotAvailableError{Reason: err.Error()}
	}

	nm, err := gonm.NewNetworkManager()
	if err != nil {
		conn.Close()
		return nil, &NotAvailableError{Reason: err.Error()}
	}

	return &NetworkManager{conn: conn, nm: nm, previous: make(map[string]gonm.Connection)}, nil
}

func (n *NetworkManager) device(name string) (gonm.Device, error) {
	devices, err := n.nm.GetAllDevices()
	if err != nil {
		return nil, err
	}

	for _, dev := range devices {
		intf, err := dev.GetPropertyInterface()
		if err != nil {
			log.Warn("could not get interface for device", zap.Error(err), zap.String("device", string(dev.GetPath())))
			continue
		}
		if intf == name {
			return dev, nil
		}
	}

	return nil, &NotAvailableError{Interface: name, Reason: "no such device"}
}

func (n *NetworkManager) Down(name string) error {
	n.Lock()
	defer n.Unlock()

	dev, err := n.device(name)
	if err != nil {
		return err
	}

	activeConnection, err := dev.GetPropertyActiveConnection()
	if err != nil || activeConnection == nil {
		log.Info("interface has no active connection", zap.String("interface", name))
		return nil
	}

	if con, err := activeConnection.GetPropertyConnection(); err == nil && con != nil {
		n.previous[name] = con
	}

	log.Info("disconnecting network device", zap.String("device", string(dev.GetPath())))
	return dev.Disconnect()
}

func (n *NetworkManager) Up(name string) error {
	n.Lock()
	defer n.Unlock()

	dev, err := n.device(name)
	if err != nil {
		return err
	}

	con, ok := n.previous[name]
	if !ok {
		connections, err := dev.GetPropertyAvailableConnections()
		if err != nil {
			return err
		}
		if len(connections) == 0 {
			return &NotAvailableError{Interface: name, Reason: "no connection configured"}
		}
		con = connections[0]
	}
	delete(n.previous, name)

	activeConnection, err := n.nm.ActivateConnection(con, dev, nil)
	if err != nil {
		return err
	}

	return waitUntilActivated(activeConnection, activationTimeout)
}

func (n *NetworkManager) Shutdown() {
	n.Lock()
	defer n.Unlock()

	if n.conn != nil {
		n.conn.Close()
		n.conn = nil
	}
}

func waitUntilActivated(activeConnection gonm.ActiveConnection, timeout time.Duration) error {
	state, err := activeConnection.GetPropertyState()
	if err != nil {
		return err
	}
	if state == gonm.NmActiveConnectionStateActivated {
		return nil
	}

	stateEvents := make(chan gonm.StateChange)
	exitEvent := make(chan struct{})
	if err := activeConnection.SubscribeState(stateEvents, exitEvent); err != nil {
		return errors.New("failed to subscribe to connection state changes")
	}
	defer close(exitEvent)

	deadline := time.After(timeout)
	for {
		select {
		case <-deadline:
			return errors.New("timeout while waiting for connection activation")
		case change, ok := <-stateEvents:
			if !ok {
				return errors.New("state channel got closed")
			}
			log.Debug("received state change", zap.String("state", change.State.String()))
			if change.State == gonm.NmActiveConnectionStateActivated {
				log.Info("connection activated", zap.String("connection", string(activeConnection.GetPath())))
				return nil
			}
		}
	}
}

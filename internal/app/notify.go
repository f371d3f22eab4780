package app

import (
	"errors"
	"net"
	"os"

	"github.com/LeoCommon/cellmodem/pkg/log"
)

const (
	notifySocketEnv = "NOTIFY_SOCKET"

	NotifyReady     = "READY=1"
	NotifyStopping  = "STOPPING=1"
	notifyStatusKey = "STATUS="
)

var ErrNoNotifySocket = errors.New("systemd-notify socket was not available")

// Notify sends the provided msg to the systemd socket
func Notify(msg string) error {
	name := os.Getenv(notifySocketEnv)
	if name == "" {
		return ErrNoNotifySocket
	}

	conn, err := net.DialUnix("unixgram", nil, &net.UnixAddr{Net: "unixgram", Name: name})
	if err != nil {
		return err
	}
	defer conn.Close()

	_, err = conn.Write([]byte(msg))
	return err
}

// NotifyStatus publishes a free form status line, silently ignored outside of systemd
func NotifyStatus(status string) {
	if err := Notify(notifyStatusKey + status); err != nil && !errors.Is(err, ErrNoNotifySocket) {
		log.Debug("systemd status notification failed")
	}
}

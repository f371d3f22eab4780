//go:build linux

package at

import (
	"errors"
	"os"

	"golang.org/x/sys/unix"
)

// termState holds the line discipline a device had before we switched it to raw mode.
type termState struct {
	f     *os.File
	saved *unix.Termios
}

func saveTermState(path string) (*termState, error) {
	f, err := os.OpenFile(path, os.O_RDWR|unix.O_NOCTTY|unix.O_NONBLOCK, 0)
	if err != nil {
		return nil, err
	}

	saved, err := unix.IoctlGetTermios(int(f.Fd()), unix.TCGETS)
	if err != nil {
		_ = f.Close()
		return nil, err
	}

	return &termState{f: f, saved: saved}, nil
}

func (s *termState) restore() error {
	if s == nil {
		return nil
	}

	err := unix.IoctlSetTermios(int(s.f.Fd()), unix.TCSETS, s.saved)
	return errors.Join(err, s.f.Close())
}

//go:build !linux

package at

type termState struct{}

func saveTermState(string) (*termState, error) {
	return nil, nil
}

func (s *termState) restore() error {
	return nil
}

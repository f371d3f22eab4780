package config

import "sync"

// BaseConfigManager guards one section of the main config
type BaseConfigManager[T any] struct {
	mu   sync.RWMutex
	conf *T

	mgr *Manager
}

// C returns a copy of the section
func (a *BaseConfigManager[T]) C() T {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return *a.conf
}

type ConfigModifierFunc[T any] func(c *T)

func (a *BaseConfigManager[T]) Set(setFunc ConfigModifierFunc[T]) {
	a.mu.Lock()
	defer a.mu.Unlock()

	setFunc(a.conf)
}

// Save writes the whole config, the manager takes our lock
func (a *BaseConfigManager[T]) Save() error {
	return a.mgr.Save()
}

func (a *BaseConfigManager[T]) lock() {
	a.mu.Lock()
}

func (a *BaseConfigManager[T]) unlock() {
	a.mu.Unlock()
}

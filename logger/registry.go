package logger

import "sync"

// overrides holds loggers pinned to a component name. Components without an
// override get a fresh child of the global logger on every Get, so a later
// Init is picked up.
var overrides sync.Map

// Get returns the logger for a component such as "provider" or "process".
func Get(component string) *Logger {
	if l, ok := overrides.Load(component); ok {
		return l.(*Logger)
	}
	return GetGlobalLogger().WithComponent(component)
}

// Override pins the logger Get returns for component. A nil logger removes
// the override.
func Override(component string, l *Logger) {
	if l == nil {
		overrides.Delete(component)
		return
	}
	overrides.Store(component, l)
}

package runtime

import "log/slog"

// LoggerSetter is implemented by a Backend that wants its own diagnostics
// (rejected allocations, allocate/release traffic) routed through a caller-supplied
// logger rather than staying silent. runtime.Registry callers duck-type
// against this after selecting a backend.
type LoggerSetter interface {
	SetLogger(*slog.Logger)
}

// newNopLogger returns a logger that discards everything, the default for a
// SoftwareBackend that hasn't had SetLogger called on it.
func newNopLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

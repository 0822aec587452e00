package rastercache

import "log/slog"

// newNopLogger returns a logger that discards everything, the default for a
// Cache that hasn't had SetLogger called on it. Kept local to this package
// (rather than importing the root package's logger singleton) since the
// root package imports this one — propagation runs the other way, through
// Config.Logger / SetLogger, not a shared global.
func newNopLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

package customtex

import "log/slog"

// newNopLogger returns a logger that discards everything, the default for a
// Manager that hasn't had SetLogger called on it.
func newNopLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

// SetLogger configures the logger this Manager uses for its own
// diagnostics: duplicate hashes and unreadable or too deeply nested
// directories found while indexing the replacement directory, and decode
// faults (unreadable or corrupt file). Pass nil to restore the silent
// default.
func (m *Manager) SetLogger(l *slog.Logger) {
	if l == nil {
		l = newNopLogger()
	}
	m.logger = l
}

package logx

import "log/slog"

// Nop returns a Logger that drops every entry.
func Nop() Logger {
	return NewSlogAdapter(slog.New(slog.DiscardHandler))
}

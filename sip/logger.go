package sip

import "github.com/rs/zerolog"

// componentLogger tags a zerolog.Logger with the sipcore component that
// produced it, rather than relying on a package-level default logger:
// the Parser and the Dialog take their logger explicitly via a
// functional option and falls back to a disabled (zerolog.Nop) logger,
// never a mutable global.
func componentLogger(base zerolog.Logger, component string) zerolog.Logger {
	return base.With().Str("component", component).Logger()
}

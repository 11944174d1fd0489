package funclock

import "github.com/rs/zerolog"

var logger = zerolog.Nop()

// SetLogger enables diagnostic logging for the pipeline. By default all
// diagnostics are discarded and only the Quality counters remain.
func SetLogger(l zerolog.Logger) {
	logger = l
}

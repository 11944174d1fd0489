package perfprobe

import "github.com/rs/zerolog"

var logger = zerolog.Nop()

// SetLogger enables diagnostic logging for perf invocations.
func SetLogger(l zerolog.Logger) {
	logger = l
}

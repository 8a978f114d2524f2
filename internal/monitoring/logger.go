// Package monitoring carries the process-wide diagnostic logger used by the
// solver and the run drivers.
package monitoring

import "log"

// Logf writes one diagnostic line. It defaults to log.Printf; SetLogger
// redirects or mutes it.
var Logf func(format string, v ...any) = log.Printf

// SetLogger replaces the package logger. nil installs a no-op logger, which
// is how benchmark and solver tests silence per-level convergence chatter.
func SetLogger(f func(format string, v ...any)) {
	if f == nil {
		Logf = func(string, ...any) {}
		return
	}
	Logf = f
}

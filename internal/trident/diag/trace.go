package diag

import (
	"fmt"
	"os"
)

// Trace writes a single progress line to stderr, gated by TRIDENT_TRACE:
// an ad hoc verbosity switch using plain fmt.Fprintln to stderr, no
// logging library.
func Trace(phase, format string, args ...interface{}) {
	if os.Getenv("TRIDENT_TRACE") == "" {
		return
	}
	fmt.Fprintf(os.Stderr, "trident[%s]: %s\n", phase, fmt.Sprintf(format, args...))
}

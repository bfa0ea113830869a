package resolver

import (
	"fmt"
	"strings"
)

// ResolutionError reports fallback-chain exhaustion. It carries the full
// attempt history, not just the last failure, so a caller can see which
// alias almost worked.
type ResolutionError struct {
	Attempts []Attempt
}

func (e *ResolutionError) Error() string {
	if len(e.Attempts) == 0 {
		return "model resolution failed: no aliases attempted"
	}
	parts := make([]string, len(e.Attempts))
	for i, a := range e.Attempts {
		parts[i] = fmt.Sprintf("%s (%s)", a.Alias, a.Reason)
	}
	return fmt.Sprintf("model resolution failed after %d alias(es): %s",
		len(e.Attempts), strings.Join(parts, "; "))
}

// IsResolutionFailure reports whether err is a chain-exhaustion failure.
func IsResolutionFailure(err error) bool {
	_, ok := err.(*ResolutionError)
	return ok
}

package classifier

import (
	"go.uber.org/multierr"

	"github.com/haukened/s1-filter/internal/filter/domain"
)

// BuildReport is the non-fatal outcome of constructing an Engine: how many
// rules became active and why the others did not.
type BuildReport struct {
	Whitelist int // active whitelist rules
	Blacklist int // active blacklist rules

	// Dropped lists every record excluded from the active set, in source order.
	Dropped []domain.Diagnostic

	// SourceErr is set when the rule source could not be read. The engine is
	// then built from whatever the source still returned, possibly nothing.
	SourceErr error
}

// Degraded reports whether any part of the configured rule set is missing.
func (r BuildReport) Degraded() bool {
	return r.SourceErr != nil || len(r.Dropped) > 0
}

// DroppedIn counts dropped records of one list.
func (r BuildReport) DroppedIn(list domain.List) int {
	n := 0
	for _, d := range r.Dropped {
		if d.List == list {
			n++
		}
	}
	return n
}

// Err combines the source error and every diagnostic into a single error,
// or nil when the build was clean.
func (r BuildReport) Err() error {
	errs := make([]error, 0, len(r.Dropped)+1)
	if r.SourceErr != nil {
		errs = append(errs, r.SourceErr)
	}
	for _, d := range r.Dropped {
		errs = append(errs, d)
	}
	return multierr.Combine(errs...)
}

package driving

import "context"

// Scheduler runs the periodic library scan.
type Scheduler interface {
	// Start does not return until Stop is called or ctx ends.
	Start(ctx context.Context) error
	// Stop waits for a scan already under way.
	Stop() error
}

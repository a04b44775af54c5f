package ports

import "context"

// Synchronizer re-renders a poll after a state change and pushes the
// result to every registered surface.
type Synchronizer interface {
	Synchronize(ctx context.Context, pollID int64) error
}

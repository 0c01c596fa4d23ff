package runlog

import "context"

// Repository defines the interface for run journal data access
// This interface is defined in the domain layer, but implemented in the infrastructure layer
type Repository interface {
	// Create records a finished run
	Create(ctx context.Context, params CreateParams) (*Run, error)

	// ListByUserID retrieves the most recent runs for a user, newest first
	ListByUserID(ctx context.Context, userID int64, limit int) ([]*Run, error)
}

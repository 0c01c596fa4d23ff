package prefs

import "context"

// Repository defines the interface for preferences data access
// This interface is defined in the domain layer, but implemented in the infrastructure layer
type Repository interface {
	// GetByUserID retrieves the preferences for a user
	GetByUserID(ctx context.Context, userID int64) (*Preferences, error)

	// Upsert creates or replaces a user's preferences
	Upsert(ctx context.Context, params UpsertParams) (*Preferences, error)

	// RemoveDeviceToken drops a dead push token wherever it is registered
	RemoveDeviceToken(ctx context.Context, token string) error
}

package feature

import (
	"context"
	"time"
)

// Store is the persistence interface for feature definitions and usage
// events. Implementations must be safe for concurrent use.
//
// Reads of feature rows are scoped to active rows: soft-deleted features
// are invisible to GetFeature and ListFeatures but their usage events
// remain queryable. Store methods return errors; the Service absorbs
// them at its boundary.
type Store interface {
	// InsertFeature creates a new feature row. Returns ErrFeatureExists
	// if the id is already taken (uniqueness is the store's concern).
	InsertFeature(ctx context.Context, f *Feature) error

	// UpdateFeature applies a partial patch to the feature row with the
	// given id, stamping updated_at. The returned bool reports whether a
	// row was affected; soft-deleted rows are still reachable here so a
	// feature can be restored.
	UpdateFeature(ctx context.Context, id string, p Patch, updatedAt time.Time) (bool, error)

	// GetFeature returns the active feature with the given id, or
	// ErrFeatureNotFound.
	GetFeature(ctx context.Context, id string) (*Feature, error)

	// ListFeatures returns all active features.
	ListFeatures(ctx context.Context) ([]*Feature, error)

	// InsertUsageEvent appends one usage event. Events are never
	// mutated or deleted through this interface.
	InsertUsageEvent(ctx context.Context, e *UsageEvent) error

	// RecordAccess increments the feature's usage counter and stamps
	// last_used. The increment must happen store-side as a single
	// update expression; a read-modify-write loses counts under
	// concurrent access.
	RecordAccess(ctx context.Context, featureID string, at time.Time) error

	// ListUsageEvents returns events for the feature created at or
	// after the given instant, oldest first.
	ListUsageEvents(ctx context.Context, featureID string, since time.Time) ([]*UsageEvent, error)
}

// UserResolver maps a Telegram id to the internal user id. Usage logging
// treats resolution as best-effort: a failure leaves the event's user id
// unset rather than failing the log operation.
type UserResolver func(ctx context.Context, telegramID int64) (int64, error)

package repository

import (
	"context"
	"time"

	"github.com/utafrali/reviewpulse/internal/domain"
)

// CategoryUpdate pairs a review ID with the category assigned to it.
type CategoryUpdate struct {
	ID       string
	Category string
}

// ReviewRepository defines the persistence boundary for reviews. Every
// operation runs in its own transaction; implementations must be safe for
// concurrent callers.
type ReviewRepository interface {
	// Exists reports whether a review with the given external store review ID
	// is already persisted.
	Exists(ctx context.Context, storeReviewID string) (bool, error)

	// InsertIfAbsent persists the review unless one with the same external
	// store review ID already exists. The existence check is re-run inside
	// the insert transaction to close the check-then-insert race; a unique
	// constraint violation is reported as "already present", not an error.
	// Returns true when a row was inserted.
	InsertIfAbsent(ctx context.Context, review *domain.Review) (bool, error)

	// ListUnprocessed returns all reviews awaiting categorization.
	ListUnprocessed(ctx context.Context) ([]domain.Review, error)

	// MarkProcessed applies all category updates in a single transaction,
	// setting is_processed and advancing updated_at. Either every update
	// commits or none do.
	MarkProcessed(ctx context.Context, updates []CategoryUpdate) error

	// ListProcessedSince returns categorized reviews whose updated_at is at
	// or after the given timestamp.
	ListProcessedSince(ctx context.Context, since time.Time) ([]domain.Review, error)
}

package postgres

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/utafrali/reviewpulse/internal/domain"
	"github.com/utafrali/reviewpulse/internal/repository"
	"github.com/utafrali/reviewpulse/pkg/database"
	apperrors "github.com/utafrali/reviewpulse/pkg/errors"
)

const reviewColumns = `id, app_type, store, score, text, date, app_version,
		likes_count, dislikes_count, device_manufacturer, device_model,
		device_firmware, is_processed, review_category, store_review_id,
		created_at, updated_at`

// ReviewRepository implements repository.ReviewRepository using PostgreSQL.
type ReviewRepository struct {
	pool database.DBTX
}

// NewReviewRepository creates a new PostgreSQL-backed review repository.
func NewReviewRepository(pool database.DBTX) *ReviewRepository {
	return &ReviewRepository{pool: pool}
}

// Exists reports whether a review with the given store review ID is persisted.
func (r *ReviewRepository) Exists(ctx context.Context, storeReviewID string) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM reviews WHERE store_review_id = $1)`,
		storeReviewID,
	).Scan(&exists)
	if err != nil {
		return false, apperrors.Database("check review exists", err)
	}
	return exists, nil
}

// InsertIfAbsent persists the review unless one with the same store review ID
// already exists. The existence check runs inside the insert transaction, and
// a unique constraint violation from a concurrent insert is treated as
// "already present".
func (r *ReviewRepository) InsertIfAbsent(ctx context.Context, review *domain.Review) (bool, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return false, apperrors.Database("begin insert review", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck // no-op after commit

	var exists bool
	err = tx.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM reviews WHERE store_review_id = $1)`,
		review.StoreReviewID,
	).Scan(&exists)
	if err != nil {
		return false, apperrors.Database("check review exists", err)
	}
	if exists {
		return false, nil
	}

	query := `
		INSERT INTO reviews (
			id, app_type, store, score, text, date, app_version,
			likes_count, dislikes_count, device_manufacturer, device_model,
			device_firmware, is_processed, review_category, store_review_id,
			created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)`

	_, err = tx.Exec(ctx, query,
		review.ID,
		review.AppType,
		review.Store,
		review.Score,
		review.Text,
		review.Date,
		review.AppVersion,
		review.LikesCount,
		review.DislikesCount,
		review.DeviceManufacturer,
		review.DeviceModel,
		review.DeviceFirmware,
		review.IsProcessed,
		review.Category,
		review.StoreReviewID,
		review.CreatedAt,
		review.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			// A concurrent request won the race; the row is present.
			return false, nil
		}
		return false, apperrors.Database("insert review", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return false, apperrors.Database("commit insert review", err)
	}

	return true, nil
}

// ListUnprocessed returns all reviews awaiting categorization, oldest first.
func (r *ReviewRepository) ListUnprocessed(ctx context.Context) ([]domain.Review, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM reviews
		WHERE is_processed = FALSE
		ORDER BY created_at`, reviewColumns)

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, apperrors.Database("list unprocessed reviews", err)
	}
	defer rows.Close()

	return scanReviews(rows, "list unprocessed reviews")
}

// MarkProcessed applies all category updates in one transaction. updated_at
// advances so the review becomes eligible for metric reporting.
func (r *ReviewRepository) MarkProcessed(ctx context.Context, updates []repository.CategoryUpdate) error {
	if len(updates) == 0 {
		return nil
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return apperrors.Database("begin mark processed", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck // no-op after commit

	query := `
		UPDATE reviews
		SET is_processed = TRUE, review_category = $2, updated_at = NOW()
		WHERE id = $1`

	for _, u := range updates {
		ct, err := tx.Exec(ctx, query, u.ID, u.Category)
		if err != nil {
			return apperrors.Database("mark review processed", err)
		}
		if ct.RowsAffected() == 0 {
			return apperrors.Database("mark review processed",
				fmt.Errorf("review %s not found", u.ID))
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return apperrors.Database("commit mark processed", err)
	}

	return nil
}

// ListProcessedSince returns categorized reviews updated at or after the
// given timestamp.
func (r *ReviewRepository) ListProcessedSince(ctx context.Context, since time.Time) ([]domain.Review, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM reviews
		WHERE is_processed = TRUE AND updated_at >= $1
		ORDER BY updated_at`, reviewColumns)

	rows, err := r.pool.Query(ctx, query, since)
	if err != nil {
		return nil, apperrors.Database("list processed reviews", err)
	}
	defer rows.Close()

	return scanReviews(rows, "list processed reviews")
}

func scanReviews(rows pgx.Rows, op string) ([]domain.Review, error) {
	var reviews []domain.Review

	for rows.Next() {
		var rv domain.Review
		if err := rows.Scan(
			&rv.ID,
			&rv.AppType,
			&rv.Store,
			&rv.Score,
			&rv.Text,
			&rv.Date,
			&rv.AppVersion,
			&rv.LikesCount,
			&rv.DislikesCount,
			&rv.DeviceManufacturer,
			&rv.DeviceModel,
			&rv.DeviceFirmware,
			&rv.IsProcessed,
			&rv.Category,
			&rv.StoreReviewID,
			&rv.CreatedAt,
			&rv.UpdatedAt,
		); err != nil {
			return nil, apperrors.Database(op, fmt.Errorf("scan review row: %w", err))
		}
		reviews = append(reviews, rv)
	}

	if err := rows.Err(); err != nil {
		return nil, apperrors.Database(op, fmt.Errorf("iterate review rows: %w", err))
	}

	if reviews == nil {
		reviews = []domain.Review{}
	}

	return reviews, nil
}

// isUniqueViolation checks if the error is a PostgreSQL unique constraint violation (SQLSTATE 23505).
func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "23505")
}

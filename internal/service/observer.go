package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/utafrali/reviewpulse/internal/client/store"
	"github.com/utafrali/reviewpulse/internal/domain"
	"github.com/utafrali/reviewpulse/internal/repository"
	apperrors "github.com/utafrali/reviewpulse/pkg/errors"
)

// StoreRequest names one store provider and the applications to ingest
// reviews for.
type StoreRequest struct {
	Type string
	Apps []AppRequest
}

// AppRequest identifies one application within a store.
type AppRequest struct {
	AppType     string
	PackageName string
}

// Stats summarizes one pipeline run.
type Stats struct {
	NewReviews       int `json:"new_reviews"`
	ProcessedReviews int `json:"processed_reviews"`
	Errors           int `json:"errors"`
}

// Classifier labels review texts, one result per text in submission order.
type Classifier interface {
	Classify(ctx context.Context, texts []string) ([]domain.CategorizationResult, error)
}

// MetricsReporter pushes per-review metric events to the monitoring gateway.
type MetricsReporter interface {
	Enabled() bool
	Report(ctx context.Context, review *domain.Review) error
}

// EventPublisher emits review lifecycle events. May be nil when eventing is
// not configured.
type EventPublisher interface {
	PublishReviewIngested(ctx context.Context, review *domain.Review)
	PublishReviewCategorized(ctx context.Context, review *domain.Review, category string)
}

// ObserverService runs the review ingestion pipeline: fetch and persist new
// reviews, categorize the unprocessed backlog, then report metrics for
// recently categorized reviews.
type ObserverService struct {
	registry   *store.Registry
	repo       repository.ReviewRepository
	classifier Classifier
	reporter   MetricsReporter
	events     EventPublisher
	logger     *slog.Logger
	now        func() time.Time
}

func NewObserverService(
	registry *store.Registry,
	repo repository.ReviewRepository,
	classifier Classifier,
	reporter MetricsReporter,
	events EventPublisher,
	logger *slog.Logger,
) *ObserverService {
	return &ObserverService{
		registry:   registry,
		repo:       repo,
		classifier: classifier,
		reporter:   reporter,
		events:     events,
		logger:     logger.With(slog.String("component", "observer_service")),
		now:        time.Now,
	}
}

// ProcessReviews runs the full pipeline for the requested stores. Fetch
// failures are counted per (store, app) pair and do not abort the run unless
// every pair fails. Categorization and persistence failures abort with an
// error; metric reporting failures only surface as an ErrMetricsAPI warning
// after the rest of the run has completed.
func (s *ObserverService) ProcessReviews(ctx context.Context, stores []StoreRequest) (Stats, error) {
	var stats Stats

	totalPairs := 0
	for _, sr := range stores {
		totalPairs += len(sr.Apps)
	}

	for _, sr := range stores {
		client, ok := s.registry.Lookup(sr.Type)
		if !ok {
			s.logger.WarnContext(ctx, "unsupported store type",
				slog.String("store_type", sr.Type))
			stats.Errors += len(sr.Apps)
			continue
		}

		for _, app := range sr.Apps {
			inserted, err := s.ingestApp(ctx, client, app)
			if err != nil {
				s.logger.ErrorContext(ctx, "failed to fetch reviews",
					slog.String("store", client.Provider()),
					slog.String("app_type", app.AppType),
					slog.String("package_name", app.PackageName),
					slog.String("error", err.Error()))
				stats.Errors++
				continue
			}
			stats.NewReviews += inserted
		}
	}

	if totalPairs > 0 && stats.Errors == totalPairs && stats.NewReviews == 0 {
		return stats, apperrors.Service("review fetch failed for every requested store")
	}

	processed, err := s.categorizeBacklog(ctx)
	if err != nil {
		return stats, err
	}
	stats.ProcessedReviews = processed

	// A metric delivery failure is reported to the caller as a warning
	// (ErrMetricsAPI maps to 200) and never undoes the pipeline's work.
	if err := s.reportRecentMetrics(ctx); err != nil {
		return stats, err
	}

	return stats, nil
}

// ingestApp fetches reviews for one (store, app) pair and persists the ones
// not seen before. Individual insert failures are logged and skipped so one
// bad row cannot discard the rest of the batch.
func (s *ObserverService) ingestApp(ctx context.Context, client store.Client, app AppRequest) (int, error) {
	raws, err := client.FetchReviews(ctx, app.PackageName)
	if err != nil {
		return 0, err
	}

	inserted := 0
	for i := range raws {
		review := s.buildReview(client.Provider(), app.AppType, &raws[i])

		ok, err := s.repo.InsertIfAbsent(ctx, review)
		if err != nil {
			s.logger.ErrorContext(ctx, "failed to persist review",
				slog.String("store_review_id", review.StoreReviewID),
				slog.String("error", err.Error()))
			continue
		}
		if !ok {
			continue
		}

		inserted++
		if s.events != nil {
			s.events.PublishReviewIngested(ctx, review)
		}
	}

	s.logger.InfoContext(ctx, "store ingestion finished",
		slog.String("store", client.Provider()),
		slog.String("app_type", app.AppType),
		slog.Int("fetched", len(raws)),
		slog.Int("new", inserted))
	return inserted, nil
}

func (s *ObserverService) buildReview(provider, appType string, raw *domain.RawReview) *domain.Review {
	now := s.now().UTC()
	return &domain.Review{
		ID:                 uuid.NewString(),
		AppType:            appType,
		Store:              provider,
		Score:              raw.Rating,
		Text:               raw.Text,
		Date:               raw.EffectiveDate(),
		AppVersion:         raw.AppVersion,
		LikesCount:         raw.LikesCount,
		DislikesCount:      raw.DislikesCount,
		DeviceManufacturer: raw.DeviceManufacturer,
		DeviceModel:        raw.DeviceModel,
		DeviceFirmware:     raw.DeviceFirmware,
		IsProcessed:        false,
		StoreReviewID:      raw.StoreReviewID,
		CreatedAt:          now,
		UpdatedAt:          now,
	}
}

// categorizeBacklog labels every unprocessed review in storage, regardless
// of which request ingested it, and marks the whole batch processed in one
// transaction.
func (s *ObserverService) categorizeBacklog(ctx context.Context) (int, error) {
	backlog, err := s.repo.ListUnprocessed(ctx)
	if err != nil {
		return 0, err
	}
	if len(backlog) == 0 {
		return 0, nil
	}

	texts := make([]string, len(backlog))
	for i, rv := range backlog {
		texts[i] = rv.Text
	}

	results, err := s.classifier.Classify(ctx, texts)
	if err != nil {
		return 0, err
	}

	updates := make([]repository.CategoryUpdate, len(backlog))
	for i := range backlog {
		updates[i] = repository.CategoryUpdate{
			ID:       backlog[i].ID,
			Category: results[i].Category,
		}
	}

	if err := s.repo.MarkProcessed(ctx, updates); err != nil {
		return 0, err
	}

	if s.events != nil {
		for i := range backlog {
			s.events.PublishReviewCategorized(ctx, &backlog[i], results[i].Category)
		}
	}

	s.logger.InfoContext(ctx, "backlog categorized",
		slog.Int("count", len(backlog)))
	return len(backlog), nil
}

// reportRecentMetrics pushes a metric event for every review categorized
// since the start of the current day. Reporting is best-effort: per-row
// failures are logged and the remainder still goes out. Any failure in this
// phase is summarized as an ErrMetricsAPI warning.
func (s *ObserverService) reportRecentMetrics(ctx context.Context) error {
	if s.reporter == nil || !s.reporter.Enabled() {
		return nil
	}

	now := s.now()
	since := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())

	reviews, err := s.repo.ListProcessedSince(ctx, since)
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to list reviews for metric reporting",
			slog.String("error", err.Error()))
		return apperrors.MetricsAPI(err)
	}

	failed := 0
	for i := range reviews {
		if err := s.reporter.Report(ctx, &reviews[i]); err != nil {
			s.logger.WarnContext(ctx, "failed to report review metric",
				slog.String("review_id", reviews[i].ID),
				slog.String("error", err.Error()))
			failed++
		}
	}

	s.logger.InfoContext(ctx, "metric reporting finished",
		slog.Int("eligible", len(reviews)),
		slog.Int("reported", len(reviews)-failed))

	if failed > 0 {
		return apperrors.MetricsAPI(fmt.Errorf("%d of %d metric deliveries failed", failed, len(reviews)))
	}
	return nil
}

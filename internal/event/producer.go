// Package event publishes review lifecycle events to Kafka for downstream
// consumers (dashboards, alerting). Publishing is best-effort: failures are
// logged and never interrupt the ingestion pipeline.
package event

import (
	"context"
	"log/slog"
	"time"

	"github.com/utafrali/reviewpulse/internal/domain"
	"github.com/utafrali/reviewpulse/pkg/kafka"
	"github.com/utafrali/reviewpulse/pkg/logger"
)

const (
	TopicReviewIngested    = "reviews.review.ingested"
	TopicReviewCategorized = "reviews.review.categorized"

	EventTypeReviewIngested    = "review.ingested"
	EventTypeReviewCategorized = "review.categorized"

	aggregateType = "review"
	source        = "review-service"
)

// ReviewIngestedEvent is emitted once per newly persisted review.
type ReviewIngestedEvent struct {
	ReviewID      string    `json:"review_id"`
	StoreReviewID string    `json:"store_review_id"`
	Store         string    `json:"store"`
	AppType       string    `json:"app_type"`
	Score         int       `json:"score"`
	AppVersion    string    `json:"app_version"`
	Date          time.Time `json:"date"`
}

// ReviewCategorizedEvent is emitted once per review when a category label
// is assigned.
type ReviewCategorizedEvent struct {
	ReviewID string `json:"review_id"`
	Store    string `json:"store"`
	AppType  string `json:"app_type"`
	Category string `json:"category"`
}

// Producer publishes review events.
type Producer struct {
	producer *kafka.Producer
	logger   *slog.Logger
}

func NewProducer(producer *kafka.Producer, log *slog.Logger) *Producer {
	return &Producer{
		producer: producer,
		logger:   log.With(slog.String("component", "event_producer")),
	}
}

// PublishReviewIngested emits a review.ingested event. Errors are logged
// and swallowed.
func (p *Producer) PublishReviewIngested(ctx context.Context, review *domain.Review) {
	p.publish(ctx, TopicReviewIngested, EventTypeReviewIngested, review.ID, ReviewIngestedEvent{
		ReviewID:      review.ID,
		StoreReviewID: review.StoreReviewID,
		Store:         review.Store,
		AppType:       review.AppType,
		Score:         review.Score,
		AppVersion:    review.AppVersion,
		Date:          review.Date,
	})
}

// PublishReviewCategorized emits a review.categorized event. Errors are
// logged and swallowed.
func (p *Producer) PublishReviewCategorized(ctx context.Context, review *domain.Review, category string) {
	p.publish(ctx, TopicReviewCategorized, EventTypeReviewCategorized, review.ID, ReviewCategorizedEvent{
		ReviewID: review.ID,
		Store:    review.Store,
		AppType:  review.AppType,
		Category: category,
	})
}

func (p *Producer) publish(ctx context.Context, topic, eventType, aggregateID string, data any) {
	evt, err := kafka.NewEvent(eventType, aggregateID, aggregateType, source, data)
	if err != nil {
		p.logger.ErrorContext(ctx, "failed to build event",
			slog.String("event_type", eventType),
			slog.String("error", err.Error()))
		return
	}
	if correlationID := logger.CorrelationIDFromContext(ctx); correlationID != "" {
		evt = evt.WithCorrelationID(correlationID)
	}

	if err := p.producer.Publish(ctx, topic, evt); err != nil {
		p.logger.ErrorContext(ctx, "failed to publish event",
			slog.String("topic", topic),
			slog.String("event_type", eventType),
			slog.String("aggregate_id", aggregateID),
			slog.String("error", err.Error()))
	}
}

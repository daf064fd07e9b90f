// Package monitoring contains the client that pushes per-review metric
// events to the external monitoring gateway.
package monitoring

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/utafrali/reviewpulse/internal/domain"
	apperrors "github.com/utafrali/reviewpulse/pkg/errors"
	"github.com/utafrali/reviewpulse/pkg/httpclient"
)

const newReviewMetric = "new_review"

// HTTPDoer is the outbound transport for the monitoring gateway.
type HTTPDoer interface {
	Do(ctx context.Context, req *http.Request) (*http.Response, error)
}

// Config holds the monitoring gateway endpoint and credentials. An empty
// BaseURL disables reporting.
type Config struct {
	BaseURL string
	APIKey  string
}

// Reporter pushes one metric event per categorized review. Reporting is
// best-effort; callers are expected to log and continue on failure.
type Reporter struct {
	cfg    Config
	http   HTTPDoer
	logger *slog.Logger
}

func NewReporter(cfg Config, doer HTTPDoer, logger *slog.Logger) *Reporter {
	return &Reporter{
		cfg:    cfg,
		http:   doer,
		logger: logger.With(slog.String("component", "metrics_reporter")),
	}
}

// Enabled reports whether a gateway endpoint is configured.
func (r *Reporter) Enabled() bool {
	return r.cfg.BaseURL != ""
}

type metricEvent struct {
	MetricName string            `json:"metric_name"`
	Labels     map[string]string `json:"labels"`
	Value      float64           `json:"value"`
	Timestamp  int64             `json:"timestamp"`
}

// Report pushes a new_review event for the given review. When no gateway is
// configured the call is a no-op.
func (r *Reporter) Report(ctx context.Context, review *domain.Review) error {
	if !r.Enabled() {
		return nil
	}

	labels := map[string]string{
		"review_id":   review.ID,
		"type":        review.CategoryOrOther(),
		"store":       review.Store,
		"app_type":    review.AppType,
		"app_version": review.AppVersion,
		"date":        review.Date.Format(time.RFC3339),
	}
	if review.DeviceManufacturer != nil {
		labels["device_manufacturer"] = *review.DeviceManufacturer
	}
	if review.DeviceModel != nil {
		labels["device_model"] = *review.DeviceModel
	}
	if review.DeviceFirmware != nil {
		labels["device_firmware"] = *review.DeviceFirmware
	}

	body, err := json.Marshal(metricEvent{
		MetricName: newReviewMetric,
		Labels:     labels,
		Value:      1,
		Timestamp:  review.Date.Unix(),
	})
	if err != nil {
		return apperrors.MetricsAPI(fmt.Errorf("marshal metric event: %w", err))
	}

	url := r.cfg.BaseURL + "/metrics"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return apperrors.MetricsAPI(fmt.Errorf("build metric request: %w", err))
	}
	req.Header.Set("Content-Type", "application/json")
	if r.cfg.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+r.cfg.APIKey)
	}

	resp, err := r.http.Do(ctx, req)
	if err != nil {
		return apperrors.MetricsAPI(fmt.Errorf("push metric: %w", err))
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return apperrors.MetricsAPI(httpclient.ReadResponseError(resp, "monitoring gateway"))
	}
	return nil
}

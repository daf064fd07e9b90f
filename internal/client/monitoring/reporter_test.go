package monitoring

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/utafrali/reviewpulse/internal/domain"
	apperrors "github.com/utafrali/reviewpulse/pkg/errors"
	"github.com/utafrali/reviewpulse/pkg/httpclient"
)

func newTestReporter(serverURL string) *Reporter {
	cfg := Config{BaseURL: serverURL, APIKey: "test-key"}
	logger := slog.New(slog.NewJSONHandler(io.Discard, nil))
	return NewReporter(cfg, httpclient.New(httpclient.DefaultConfig()), logger)
}

func categorizedReview() *domain.Review {
	category := domain.CategoryBug
	manufacturer := "Samsung"
	return &domain.Review{
		ID:                 "rev-001",
		AppType:            "android-main",
		Store:              domain.StoreRuStore,
		Score:              1,
		Text:               "crash on login",
		Date:               time.Date(2025, 3, 10, 14, 0, 0, 0, time.UTC),
		AppVersion:         "5.1.0",
		DeviceManufacturer: &manufacturer,
		IsProcessed:        true,
		Category:           &category,
		StoreReviewID:      "rustore-42",
	}
}

func TestReport_SendsMetricEvent(t *testing.T) {
	var received map[string]any

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/metrics", r.URL.Path)
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&received))
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	reporter := newTestReporter(srv.URL)
	err := reporter.Report(context.Background(), categorizedReview())

	require.NoError(t, err)
	assert.Equal(t, "new_review", received["metric_name"])
	assert.Equal(t, float64(1), received["value"])
	assert.Equal(t, float64(time.Date(2025, 3, 10, 14, 0, 0, 0, time.UTC).Unix()), received["timestamp"])

	labels, ok := received["labels"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "rev-001", labels["review_id"])
	assert.Equal(t, "bug", labels["type"])
	assert.Equal(t, "rustore", labels["store"])
	assert.Equal(t, "android-main", labels["app_type"])
	assert.Equal(t, "5.1.0", labels["app_version"])
	assert.Equal(t, "2025-03-10T14:00:00Z", labels["date"])
	assert.Equal(t, "Samsung", labels["device_manufacturer"])
	_, hasModel := labels["device_model"]
	assert.False(t, hasModel)
}

func TestReport_UncategorizedFallsBackToOther(t *testing.T) {
	var received map[string]any

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&received))
	}))
	defer srv.Close()

	review := categorizedReview()
	review.Category = nil

	reporter := newTestReporter(srv.URL)
	require.NoError(t, reporter.Report(context.Background(), review))

	labels := received["labels"].(map[string]any)
	assert.Equal(t, "other", labels["type"])
}

func TestReport_GatewayError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	reporter := newTestReporter(srv.URL)
	err := reporter.Report(context.Background(), categorizedReview())

	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrMetricsAPI))
}

func TestReport_DisabledWithoutBaseURL(t *testing.T) {
	logger := slog.New(slog.NewJSONHandler(io.Discard, nil))
	reporter := NewReporter(Config{}, httpclient.New(httpclient.DefaultConfig()), logger)

	assert.False(t, reporter.Enabled())
	assert.NoError(t, reporter.Report(context.Background(), categorizedReview()))
}

package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/utafrali/reviewpulse/internal/client/store"
	"github.com/utafrali/reviewpulse/internal/domain"
	"github.com/utafrali/reviewpulse/internal/repository"
	"github.com/utafrali/reviewpulse/internal/service"
	apperrors "github.com/utafrali/reviewpulse/pkg/errors"
	"github.com/utafrali/reviewpulse/pkg/health"
)

// --- Mock StoreClient ---

type mockStoreClient struct {
	mock.Mock
}

func (m *mockStoreClient) Provider() string {
	args := m.Called()
	return args.String(0)
}

func (m *mockStoreClient) FetchReviews(ctx context.Context, packageName string) ([]domain.RawReview, error) {
	args := m.Called(ctx, packageName)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.RawReview), args.Error(1)
}

// --- Mock ReviewRepository ---

type mockReviewRepository struct {
	mock.Mock
}

func (m *mockReviewRepository) Exists(ctx context.Context, storeReviewID string) (bool, error) {
	args := m.Called(ctx, storeReviewID)
	return args.Bool(0), args.Error(1)
}

func (m *mockReviewRepository) InsertIfAbsent(ctx context.Context, review *domain.Review) (bool, error) {
	args := m.Called(ctx, review)
	return args.Bool(0), args.Error(1)
}

func (m *mockReviewRepository) ListUnprocessed(ctx context.Context) ([]domain.Review, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Review), args.Error(1)
}

func (m *mockReviewRepository) MarkProcessed(ctx context.Context, updates []repository.CategoryUpdate) error {
	args := m.Called(ctx, updates)
	return args.Error(0)
}

func (m *mockReviewRepository) ListProcessedSince(ctx context.Context, since time.Time) ([]domain.Review, error) {
	args := m.Called(ctx, since)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Review), args.Error(1)
}

// --- Mock Classifier ---

type mockClassifier struct {
	mock.Mock
}

func (m *mockClassifier) Classify(ctx context.Context, texts []string) ([]domain.CategorizationResult, error) {
	args := m.Called(ctx, texts)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.CategorizationResult), args.Error(1)
}

// --- Mock MetricsReporter ---

type mockMetricsReporter struct {
	mock.Mock
}

func (m *mockMetricsReporter) Enabled() bool {
	args := m.Called()
	return args.Bool(0)
}

func (m *mockMetricsReporter) Report(ctx context.Context, review *domain.Review) error {
	args := m.Called(ctx, review)
	return args.Error(0)
}

// --- Test Helpers ---

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

type routerMocks struct {
	client     *mockStoreClient
	repo       *mockReviewRepository
	classifier *mockClassifier
	reporter   *mockMetricsReporter
	router     http.Handler
}

func newRouterMocks(t *testing.T) *routerMocks {
	t.Helper()
	m := &routerMocks{
		client:     new(mockStoreClient),
		repo:       new(mockReviewRepository),
		classifier: new(mockClassifier),
		reporter:   new(mockMetricsReporter),
	}
	m.client.On("Provider").Return(domain.StoreRuStore)
	logger := testLogger()
	svc := service.NewObserverService(
		store.NewRegistry(m.client),
		m.repo,
		m.classifier,
		m.reporter,
		nil,
		logger,
	)
	m.router = NewRouter(svc, health.NewHandler(), logger)
	return m
}

func backlogReview(id, text string) domain.Review {
	return domain.Review{
		ID:            id,
		StoreReviewID: "sr-" + id,
		Store:         domain.StoreRuStore,
		AppType:       "android-main",
		Text:          text,
		Date:          time.Now(),
	}
}

func validBody() string {
	return `{"stores":[{"type":"rustore","apps":[{"app_type":"android-main","package_name":"com.example.app"}]}]}`
}

func doRequest(router http.Handler, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/reviews/process", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

// --- Tests ---

func TestProcessReviews_Success(t *testing.T) {
	m := newRouterMocks(t)

	m.client.On("FetchReviews", mock.Anything, "com.example.app").
		Return([]domain.RawReview{
			{StoreReviewID: "r-1", Rating: 4, Text: "pretty good", PublishedAt: time.Now()},
			{StoreReviewID: "r-2", Rating: 1, Text: "awful", PublishedAt: time.Now()},
		}, nil)
	m.repo.On("InsertIfAbsent", mock.Anything, mock.AnythingOfType("*domain.Review")).Return(true, nil).Twice()
	m.repo.On("ListUnprocessed", mock.Anything).
		Return([]domain.Review{backlogReview("id-1", "pretty good"), backlogReview("id-2", "awful")}, nil)
	m.classifier.On("Classify", mock.Anything, []string{"pretty good", "awful"}).
		Return([]domain.CategorizationResult{
			{Category: domain.CategoryOther},
			{Category: domain.CategoryOther},
		}, nil)
	m.repo.On("MarkProcessed", mock.Anything, mock.AnythingOfType("[]repository.CategoryUpdate")).Return(nil)
	m.reporter.On("Enabled").Return(false)

	rec := doRequest(m.router, validBody())

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var resp struct {
		Status  string        `json:"status"`
		Message string        `json:"message"`
		Stats   service.Stats `json:"stats"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "success", resp.Status)
	assert.Equal(t, 2, resp.Stats.NewReviews)
	assert.Equal(t, 2, resp.Stats.ProcessedReviews)
	assert.Equal(t, 0, resp.Stats.Errors)
	m.repo.AssertExpectations(t)
}

func TestProcessReviews_PartialErrorsStillSucceed(t *testing.T) {
	m := newRouterMocks(t)

	m.client.On("FetchReviews", mock.Anything, "com.example.app").
		Return([]domain.RawReview{
			{StoreReviewID: "r-1", Rating: 3, Text: "meh", PublishedAt: time.Now()},
		}, nil)
	m.repo.On("InsertIfAbsent", mock.Anything, mock.AnythingOfType("*domain.Review")).Return(true, nil)
	m.repo.On("ListUnprocessed", mock.Anything).
		Return([]domain.Review{backlogReview("id-1", "meh")}, nil)
	m.classifier.On("Classify", mock.Anything, []string{"meh"}).
		Return([]domain.CategorizationResult{{Category: domain.CategoryOther}}, nil)
	m.repo.On("MarkProcessed", mock.Anything, mock.AnythingOfType("[]repository.CategoryUpdate")).Return(nil)
	m.reporter.On("Enabled").Return(false)

	body := `{"stores":[
		{"type":"rustore","apps":[{"app_type":"android-main","package_name":"com.example.app"}]},
		{"type":"appgallery","apps":[{"app_type":"android-main","package_name":"com.example.app"}]}
	]}`
	rec := doRequest(m.router, body)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Stats service.Stats `json:"stats"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 1, resp.Stats.NewReviews)
	assert.Equal(t, 1, resp.Stats.Errors)
}

func TestProcessReviews_InvalidJSON(t *testing.T) {
	m := newRouterMocks(t)

	rec := doRequest(m.router, `{"stores":`)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "INVALID_INPUT")
}

func TestProcessReviews_MissingStores(t *testing.T) {
	m := newRouterMocks(t)

	rec := doRequest(m.router, `{}`)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "VALIDATION_ERROR")
}

func TestProcessReviews_MissingPackageName(t *testing.T) {
	m := newRouterMocks(t)

	rec := doRequest(m.router, `{"stores":[{"type":"rustore","apps":[{"app_type":"android-main"}]}]}`)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "VALIDATION_ERROR")
}

func TestProcessReviews_AllStoresFailed(t *testing.T) {
	m := newRouterMocks(t)

	m.client.On("FetchReviews", mock.Anything, "com.example.app").
		Return(nil, apperrors.StoreAPI("rustore", errors.New("timeout")))

	rec := doRequest(m.router, validBody())

	require.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), "SERVICE_ERROR")
}

func TestProcessReviews_CategorizationFailure(t *testing.T) {
	m := newRouterMocks(t)

	m.client.On("FetchReviews", mock.Anything, "com.example.app").
		Return([]domain.RawReview{
			{StoreReviewID: "r-1", Rating: 2, Text: "hm", PublishedAt: time.Now()},
		}, nil)
	m.repo.On("InsertIfAbsent", mock.Anything, mock.AnythingOfType("*domain.Review")).Return(true, nil)
	m.repo.On("ListUnprocessed", mock.Anything).
		Return([]domain.Review{backlogReview("id-1", "hm")}, nil)
	m.classifier.On("Classify", mock.Anything, []string{"hm"}).
		Return(nil, apperrors.CategorizationAPI(errors.New("model overloaded")))

	rec := doRequest(m.router, validBody())

	require.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Contains(t, rec.Body.String(), "CATEGORIZATION_API_ERROR")
}

func TestProcessReviews_MetricFailureReturnsWarning(t *testing.T) {
	m := newRouterMocks(t)

	m.client.On("FetchReviews", mock.Anything, "com.example.app").
		Return([]domain.RawReview{
			{StoreReviewID: "r-1", Rating: 2, Text: "hm", PublishedAt: time.Now()},
		}, nil)
	m.repo.On("InsertIfAbsent", mock.Anything, mock.AnythingOfType("*domain.Review")).Return(true, nil)
	m.repo.On("ListUnprocessed", mock.Anything).
		Return([]domain.Review{backlogReview("id-1", "hm")}, nil)
	m.classifier.On("Classify", mock.Anything, []string{"hm"}).
		Return([]domain.CategorizationResult{{Category: domain.CategoryOther}}, nil)
	m.repo.On("MarkProcessed", mock.Anything, mock.AnythingOfType("[]repository.CategoryUpdate")).Return(nil)
	m.reporter.On("Enabled").Return(true)
	m.repo.On("ListProcessedSince", mock.Anything, mock.AnythingOfType("time.Time")).
		Return([]domain.Review{backlogReview("id-1", "hm")}, nil)
	m.reporter.On("Report", mock.Anything, mock.AnythingOfType("*domain.Review")).
		Return(apperrors.MetricsAPI(errors.New("gateway down")))

	rec := doRequest(m.router, validBody())

	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Status  string        `json:"status"`
		Message string        `json:"message"`
		Stats   service.Stats `json:"stats"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "warning", resp.Status)
	assert.Equal(t, 1, resp.Stats.NewReviews)
	assert.Equal(t, 1, resp.Stats.ProcessedReviews)
}

func TestProcessReviews_UnsupportedMediaType(t *testing.T) {
	m := newRouterMocks(t)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/reviews/process", strings.NewReader(validBody()))
	req.Header.Set("Content-Type", "text/plain")
	rec := httptest.NewRecorder()
	m.router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnsupportedMediaType, rec.Code)
}

func TestRouter_HealthEndpoints(t *testing.T) {
	m := newRouterMocks(t)

	for _, path := range []string{"/health/live", "/health/ready"} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		rec := httptest.NewRecorder()
		m.router.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code, path)
	}
}

func TestRouter_MetricsEndpoint(t *testing.T) {
	m := newRouterMocks(t)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	m.router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}

package store

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/utafrali/reviewpulse/internal/domain"
	apperrors "github.com/utafrali/reviewpulse/pkg/errors"
	"github.com/utafrali/reviewpulse/pkg/httpclient"
)

const rustoreProvider = domain.StoreRuStore

// RuStoreConfig holds the credentials and endpoint for the RuStore API.
type RuStoreConfig struct {
	BaseURL      string
	ClientID     string
	ClientSecret string
}

// RuStoreClient fetches reviews from the RuStore public API. Access tokens
// are obtained lazily via the client-credentials flow and cached until the
// API rejects one.
type RuStoreClient struct {
	cfg    RuStoreConfig
	http   HTTPDoer
	logger *slog.Logger

	mu    sync.Mutex
	token string
}

func NewRuStoreClient(cfg RuStoreConfig, doer HTTPDoer, logger *slog.Logger) *RuStoreClient {
	return &RuStoreClient{
		cfg:    cfg,
		http:   doer,
		logger: logger.With(slog.String("component", "rustore_client")),
	}
}

func (c *RuStoreClient) Provider() string {
	return rustoreProvider
}

type rustoreTokenRequest struct {
	ClientID     string `json:"client_id"`
	ClientSecret string `json:"client_secret"`
	GrantType    string `json:"grant_type"`
}

type rustoreTokenResponse struct {
	AccessToken string `json:"access_token"`
}

type rustoreReview struct {
	ID                 json.Number `json:"id"`
	Rating             int         `json:"rating"`
	Text               string      `json:"text"`
	PublishedDate      string      `json:"published_date"`
	WrittenDate        string      `json:"written_date"`
	AppVersion         string      `json:"app_version"`
	LikesCount         int         `json:"likes_count"`
	DislikesCount      int         `json:"dislikes_count"`
	IsModified         bool        `json:"is_modified"`
	DeviceManufacturer *string     `json:"device_manufacturer"`
	DeviceModel        *string     `json:"device_model"`
	DeviceFirmware     *string     `json:"device_firmware"`
}

type rustoreReviewsResponse struct {
	Reviews []rustoreReview `json:"reviews"`
}

// FetchReviews returns all reviews for the given package. A 401 from the
// reviews endpoint invalidates the cached token and the request is retried
// once with a fresh one.
func (c *RuStoreClient) FetchReviews(ctx context.Context, packageName string) ([]domain.RawReview, error) {
	if packageName == "" {
		return nil, apperrors.InvalidInput("package name is required")
	}

	resp, err := c.fetchOnce(ctx, packageName)
	if err != nil {
		return nil, apperrors.StoreAPI(rustoreProvider, err)
	}

	if resp.StatusCode == http.StatusUnauthorized {
		resp.Body.Close()
		c.invalidateToken()
		c.logger.WarnContext(ctx, "token rejected, re-authenticating",
			slog.String("package_name", packageName))

		resp, err = c.fetchOnce(ctx, packageName)
		if err != nil {
			return nil, apperrors.StoreAPI(rustoreProvider, err)
		}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, apperrors.StoreAPI(rustoreProvider,
			httpclient.ReadResponseError(resp, "rustore reviews"))
	}

	var payload rustoreReviewsResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, apperrors.StoreAPI(rustoreProvider,
			fmt.Errorf("decode reviews response: %w", err))
	}

	reviews := make([]domain.RawReview, 0, len(payload.Reviews))
	for _, entry := range payload.Reviews {
		raw, err := entry.toRawReview()
		if err != nil {
			c.logger.WarnContext(ctx, "skipping malformed review",
				slog.String("store_review_id", entry.ID.String()),
				slog.String("error", err.Error()))
			continue
		}
		reviews = append(reviews, raw)
	}
	return reviews, nil
}

func (c *RuStoreClient) fetchOnce(ctx context.Context, packageName string) (*http.Response, error) {
	token, err := c.ensureToken(ctx)
	if err != nil {
		return nil, err
	}

	url := fmt.Sprintf("%s/api/v1/reviews/%s", c.cfg.BaseURL, packageName)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build reviews request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.http.Do(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("fetch reviews: %w", err)
	}
	return resp, nil
}

// ensureToken returns the cached access token, authenticating first when no
// token is held.
func (c *RuStoreClient) ensureToken(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.token != "" {
		return c.token, nil
	}

	body, err := json.Marshal(rustoreTokenRequest{
		ClientID:     c.cfg.ClientID,
		ClientSecret: c.cfg.ClientSecret,
		GrantType:    "client_credentials",
	})
	if err != nil {
		return "", fmt.Errorf("marshal token request: %w", err)
	}

	url := c.cfg.BaseURL + "/auth/token"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(ctx, req)
	if err != nil {
		return "", fmt.Errorf("request token: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", httpclient.ReadResponseError(resp, "rustore auth")
	}

	var tokenResp rustoreTokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&tokenResp); err != nil {
		return "", fmt.Errorf("decode token response: %w", err)
	}
	if tokenResp.AccessToken == "" {
		return "", fmt.Errorf("auth response contained no access token")
	}

	c.token = tokenResp.AccessToken
	return c.token, nil
}

func (c *RuStoreClient) invalidateToken() {
	c.mu.Lock()
	c.token = ""
	c.mu.Unlock()
}

// rustoreDateLayouts are the timestamp shapes observed in review payloads.
var rustoreDateLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
}

func parseRuStoreDate(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, nil
	}
	for _, layout := range rustoreDateLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date %q", value)
}

func (r rustoreReview) toRawReview() (domain.RawReview, error) {
	if r.ID.String() == "" {
		return domain.RawReview{}, fmt.Errorf("missing review id")
	}

	published, err := parseRuStoreDate(r.PublishedDate)
	if err != nil {
		return domain.RawReview{}, fmt.Errorf("published_date: %w", err)
	}
	written, err := parseRuStoreDate(r.WrittenDate)
	if err != nil {
		return domain.RawReview{}, fmt.Errorf("written_date: %w", err)
	}

	return domain.RawReview{
		StoreReviewID:      r.ID.String(),
		Rating:             r.Rating,
		Text:               r.Text,
		PublishedAt:        published,
		WrittenAt:          written,
		AppVersion:         r.AppVersion,
		LikesCount:         r.LikesCount,
		DislikesCount:      r.DislikesCount,
		IsModified:         r.IsModified,
		DeviceManufacturer: r.DeviceManufacturer,
		DeviceModel:        r.DeviceModel,
		DeviceFirmware:     r.DeviceFirmware,
	}, nil
}

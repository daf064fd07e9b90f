// Package llm contains the client for the review categorization API, an
// LLM-backed service that labels review texts in positional batches.
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/utafrali/reviewpulse/internal/domain"
	apperrors "github.com/utafrali/reviewpulse/pkg/errors"
	"github.com/utafrali/reviewpulse/pkg/httpclient"
)

// HTTPDoer is the outbound transport for the categorization API.
type HTTPDoer interface {
	Do(ctx context.Context, req *http.Request) (*http.Response, error)
}

// Config holds the categorization API endpoint and credentials.
type Config struct {
	BaseURL string
	APIKey  string
}

// Client submits review texts for categorization.
type Client struct {
	cfg    Config
	http   HTTPDoer
	logger *slog.Logger
}

func NewClient(cfg Config, doer HTTPDoer, logger *slog.Logger) *Client {
	return &Client{
		cfg:    cfg,
		http:   doer,
		logger: logger.With(slog.String("component", "llm_client")),
	}
}

type analyzeRequest struct {
	Reviews       []string `json:"reviews"`
	AnalysisTypes []string `json:"analysis_types"`
}

type analyzeResult struct {
	Category string `json:"category"`
}

type analyzeResponse struct {
	Results []analyzeResult `json:"results"`
}

// Classify labels each text and returns results in submission order. The
// response must contain exactly one result per text; anything else means the
// batch cannot be applied safely and is rejected whole.
func (c *Client) Classify(ctx context.Context, texts []string) ([]domain.CategorizationResult, error) {
	if len(texts) == 0 {
		return []domain.CategorizationResult{}, nil
	}

	body, err := json.Marshal(analyzeRequest{
		Reviews:       texts,
		AnalysisTypes: []string{"category"},
	})
	if err != nil {
		return nil, apperrors.CategorizationAPI(fmt.Errorf("marshal analyze request: %w", err))
	}

	url := c.cfg.BaseURL + "/analyze"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, apperrors.CategorizationAPI(fmt.Errorf("build analyze request: %w", err))
	}
	req.Header.Set("Content-Type", "application/json")
	if c.cfg.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	}

	resp, err := c.http.Do(ctx, req)
	if err != nil {
		return nil, apperrors.CategorizationAPI(fmt.Errorf("analyze request: %w", err))
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, apperrors.CategorizationAPI(httpclient.ReadResponseError(resp, "analyze"))
	}

	var payload analyzeResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, apperrors.CategorizationAPI(fmt.Errorf("decode analyze response: %w", err))
	}

	if len(payload.Results) != len(texts) {
		return nil, apperrors.CategorizationAPI(fmt.Errorf(
			"result count mismatch: sent %d texts, got %d results", len(texts), len(payload.Results)))
	}

	results := make([]domain.CategorizationResult, len(payload.Results))
	for i, r := range payload.Results {
		category := r.Category
		if category == "" {
			category = domain.CategoryOther
		}
		results[i] = domain.CategorizationResult{Category: category}
	}
	return results, nil
}

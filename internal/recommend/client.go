package recommend

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/mmcdole/tunescout/internal/domain"
)

const (
	// defaultTimeout is a backstop; callers normally pass a shorter deadline in ctx.
	defaultTimeout = 2 * time.Minute
	userAgent      = "tunescout/1.0"

	recommendationsPath = "/recommendations/"
)

// Client implements domain.RecommendationRepository over HTTP
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewClient creates a new recommendation service client
func NewClient(baseURL string, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: defaultTimeout,
		},
		logger: logger,
	}
}

// errorBody is the shape of a non-2xx response
type errorBody struct {
	Detail string `json:"detail"`
}

// Recommend posts one page request and decodes the result.
// Exactly one HTTP request is made; there are no retries.
func (c *Client) Recommend(ctx context.Context, r domain.RecommendationRequest) (*domain.RecommendationPage, error) {
	payload, err := json.Marshal(r)
	if err != nil {
		return nil, fmt.Errorf("failed to encode request: %w", err)
	}

	reqURL := c.baseURL + recommendationsPath
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, reqURL, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	requestID := uuid.NewString()
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("X-Request-ID", requestID)

	c.logger.Debug("recommend request",
		"url", reqURL,
		"request_id", requestID,
		"playlist_id", r.PlaylistID,
		"page", r.Page,
		"page_size", r.PageSize,
	)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		c.logger.Error("recommend request failed", "error", err, "request_id", requestID)
		return nil, fmt.Errorf("%w: %v", domain.ErrServiceOffline, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.logger.Error("recommend request error",
			"status", resp.StatusCode,
			"body", string(body),
			"request_id", requestID,
		)
		return nil, parseServiceError(resp.StatusCode, body)
	}

	var page domain.RecommendationPage
	if err := json.Unmarshal(body, &page); err != nil {
		c.logger.Error("JSON parse error", "error", err, "bodyLen", len(body), "request_id", requestID)
		return nil, fmt.Errorf("%w: %v", domain.ErrMalformedResponse, err)
	}
	page.RequestID = requestID

	c.logger.Debug("recommend response",
		"request_id", requestID,
		"count", len(page.Tracks),
		"has_more", page.HasMore,
	)

	return &page, nil
}

// parseServiceError extracts "detail" from an error body. A body that is not
// JSON, or has no detail, leaves Detail empty so callers use the fallback.
func parseServiceError(status int, body []byte) *domain.ServiceError {
	svcErr := &domain.ServiceError{Status: status}

	var eb errorBody
	if err := json.Unmarshal(body, &eb); err == nil {
		svcErr.Detail = strings.TrimSpace(eb.Detail)
	}
	return svcErr
}

package quote

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/Simply-Ryan/stockleague/internal/model"
)

// Source provides the current quote for a symbol.
type Source interface {
	Quote(ctx context.Context, symbol string) (model.Quote, error)
}

// HTTPClient fetches quotes from the upstream provider. Calls are rate
// limited and carry the client's timeout, so a hung upstream fails the
// call instead of stalling the broadcast tick.
type HTTPClient struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	limiter    *rate.Limiter
	logger     *zap.Logger
}

var _ Source = (*HTTPClient)(nil)

// NewHTTPClient creates an HTTPClient.
func NewHTTPClient(baseURL, apiKey string, ratePerSec int, timeout time.Duration, logger *zap.Logger) *HTTPClient {
	if ratePerSec < 1 {
		ratePerSec = 1
	}

	transport := &http.Transport{
		MaxIdleConns:    100,
		MaxConnsPerHost: 10,
		IdleConnTimeout: 90 * time.Second,
	}

	return &HTTPClient{
		httpClient: &http.Client{
			Transport: transport,
			Timeout:   timeout,
		},
		baseURL: baseURL,
		apiKey:  apiKey,
		limiter: rate.NewLimiter(rate.Limit(ratePerSec), ratePerSec*2),
		logger:  logger,
	}
}

// Quote fetches the current quote for symbol.
func (c *HTTPClient) Quote(ctx context.Context, symbol string) (model.Quote, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return model.Quote{}, fmt.Errorf("rate limiter: %w", err)
	}

	reqURL := fmt.Sprintf("%s/v1/quote/%s", c.baseURL, url.PathEscape(symbol))
	c.logger.Debug("requesting quote", zap.String("url", reqURL))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return model.Quote{}, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return model.Quote{}, fmt.Errorf("fetching quote for %s: %w", symbol, err)
	}

	body, readErr := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	if readErr != nil {
		return model.Quote{}, fmt.Errorf("reading response: %w", readErr)
	}

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return model.Quote{}, ErrNotFound
	case resp.StatusCode == http.StatusTooManyRequests:
		return model.Quote{}, ErrRateLimited
	case resp.StatusCode != http.StatusOK:
		return model.Quote{}, fmt.Errorf("unexpected status %d: %s", resp.StatusCode, string(body))
	}

	var quote model.Quote
	if err := json.Unmarshal(body, &quote); err != nil {
		return model.Quote{}, fmt.Errorf("decoding quote: %w", err)
	}
	if quote.Symbol == "" {
		quote.Symbol = symbol
	}
	if quote.Timestamp == 0 {
		quote.Timestamp = time.Now().UnixMilli()
	}
	return quote, nil
}

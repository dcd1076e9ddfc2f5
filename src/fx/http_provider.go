package fx

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/time/rate"
)

// ratesResponse is the shape served by frankfurter-compatible APIs.
type ratesResponse struct {
	Base  string             `json:"base"`
	Date  string             `json:"date"`
	Rates map[string]float64 `json:"rates"`
}

// HTTPProvider fetches daily reference rates from a frankfurter-compatible
// API: GET {base}/v1/{YYYY-MM-DD}?from=X&to=Y. Requests are rate limited so
// a calculation touching many currencies stays polite to the public API.
type HTTPProvider struct {
	baseURL    string
	httpClient http.Client
	limiter    *rate.Limiter
}

func NewHTTPProvider(baseURL string, timeout time.Duration) *HTTPProvider {
	return &HTTPProvider{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: http.Client{Timeout: timeout},
		limiter:    rate.NewLimiter(rate.Every(100*time.Millisecond), 10),
	}
}

func (p *HTTPProvider) GetRate(ctx context.Context, from, to string, on time.Time) (decimal.Decimal, error) {
	if err := p.limiter.Wait(ctx); err != nil {
		return decimal.Zero, err
	}

	// Rates for future dates are not published; clamp to today.
	day := on
	if now := time.Now(); day.After(now) {
		day = now
	}

	endpoint := fmt.Sprintf("%s/v1/%s?from=%s&to=%s",
		p.baseURL, day.Format("2006-01-02"), url.QueryEscape(from), url.QueryEscape(to))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return decimal.Zero, err
	}

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to call FX rates API: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return decimal.Zero, fmt.Errorf("FX rates API returned non-OK status %d for %s->%s", resp.StatusCode, from, to)
	}

	var data ratesResponse
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return decimal.Zero, fmt.Errorf("failed to decode FX rates response: %w", err)
	}

	rateValue, ok := data.Rates[to]
	if !ok {
		return decimal.Zero, fmt.Errorf("FX rates API returned no rate for %s->%s", from, to)
	}
	return decimal.NewFromFloat(rateValue), nil
}

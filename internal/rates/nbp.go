package rates

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/shopspring/decimal"
)

const defaultNBPBaseURL = "https://api.nbp.pl"

// NBPClient reads mid rates from the central bank's table A endpoint:
// GET /api/exchangerates/rates/a/{code}/{yyyy-mm-dd}/?format=json.
// A 404 means no table was published for that date.
type NBPClient struct {
	baseURL string
	client  *http.Client
}

// NBPOption configures the client.
type NBPOption func(*NBPClient)

// WithBaseURL points the client at a different host (tests, proxies).
func WithBaseURL(u string) NBPOption {
	return func(c *NBPClient) { c.baseURL = u }
}

// WithHTTPClient swaps the underlying HTTP client.
func WithHTTPClient(hc *http.Client) NBPOption {
	return func(c *NBPClient) { c.client = hc }
}

// NewNBPClient builds a client with a bounded request timeout. Exceeding the
// timeout is indistinguishable from the source being down; both degrade to
// ErrRateUnavailable at the converter.
func NewNBPClient(timeout time.Duration, opts ...NBPOption) *NBPClient {
	c := &NBPClient{
		baseURL: defaultNBPBaseURL,
		client:  &http.Client{Timeout: timeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type nbpResponse struct {
	Rates []struct {
		Mid decimal.Decimal `json:"mid"`
	} `json:"rates"`
}

func (c *NBPClient) MidRate(ctx context.Context, currency string, date time.Time) (decimal.Decimal, error) {
	url := fmt.Sprintf("%s/api/exchangerates/rates/a/%s/%s/?format=json",
		c.baseURL, currency, date.Format("2006-01-02"))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return decimal.Zero, fmt.Errorf("build rate request: %w", err)
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return decimal.Zero, fmt.Errorf("fetch %s rate: %w", currency, err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		// fallthrough to decode
	case http.StatusNotFound:
		return decimal.Zero, ErrNoRate
	default:
		return decimal.Zero, fmt.Errorf("rate source returned %d for %s", resp.StatusCode, currency)
	}

	var body nbpResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return decimal.Zero, fmt.Errorf("decode rate response: %w", err)
	}
	if len(body.Rates) == 0 {
		return decimal.Zero, ErrNoRate
	}
	return body.Rates[0].Mid, nil
}

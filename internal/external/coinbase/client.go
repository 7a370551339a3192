package coinbase

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"resty.dev/v3"

	"github.com/wonny/pitviper/backend/internal/contracts"
	"github.com/wonny/pitviper/backend/pkg/httputil"
	"github.com/wonny/pitviper/backend/pkg/logger"
)

const (
	// DefaultBaseURL is the Coinbase Exchange public REST endpoint.
	DefaultBaseURL = "https://api.exchange.coinbase.com"

	defaultRetryCount       = 2
	defaultRetryWaitTime    = 500 * time.Millisecond
	defaultRetryMaxWaitTime = 5 * time.Second
)

// Ticker is the /products/{id}/ticker payload. Numbers arrive as strings.
type Ticker struct {
	Price    string `json:"price"`
	Open     string `json:"open"`
	High     string `json:"high"`
	Low      string `json:"low"`
	Volume   string `json:"volume"`
	Currency string `json:"currency"`
	Time     string `json:"time"`
}

// Client fetches crypto spot tickers from Coinbase.
type Client struct {
	apiKey string
	client *resty.Client
	logger *logger.Logger
}

// NewClient creates a Coinbase client. An empty baseURL uses DefaultBaseURL.
func NewClient(apiKey, baseURL string, timeout time.Duration, log *logger.Logger) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	client := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(timeout).
		SetHeader("Accept", "application/json").
		SetHeader("User-Agent", "pitviper/1.0").
		SetRetryCount(defaultRetryCount).
		SetRetryWaitTime(defaultRetryWaitTime).
		SetRetryMaxWaitTime(defaultRetryMaxWaitTime).
		AddRetryConditions(retryCondition)

	return &Client{
		apiKey: apiKey,
		client: client,
		logger: log.WithField("provider", "coinbase"),
	}
}

// retryCondition retries network errors, 5xx and 429.
func retryCondition(r *resty.Response, err error) bool {
	if err != nil {
		return true
	}
	return r.StatusCode() >= 500 || r.StatusCode() == 429
}

// Name implements contracts.SourceProvider.
func (c *Client) Name() string {
	return "coinbase"
}

// Close releases idle connections.
func (c *Client) Close() error {
	return c.client.Close()
}

// GetTicker retrieves the ticker for one product id such as BTC-USD.
func (c *Client) GetTicker(ctx context.Context, productID string) (*Ticker, error) {
	var ticker Ticker
	resp, err := c.client.R().
		SetContext(ctx).
		SetPathParam("product", productID).
		SetResult(&ticker).
		Get("/products/{product}/ticker")
	if err != nil {
		return nil, httputil.ClassifyTransport(err)
	}
	if !resp.IsSuccess() {
		return nil, httputil.ClassifyStatus(resp.StatusCode())
	}
	if ticker.Price == "" {
		return nil, httputil.NewValidationError("no price for %s", productID)
	}
	return &ticker, nil
}

// Fetch implements contracts.SourceProvider. Any failing product fails the batch.
func (c *Client) Fetch(ctx context.Context, symbols []string) ([]contracts.RawRow, error) {
	if c.apiKey == "" {
		return nil, fmt.Errorf("coinbase: %w", httputil.ErrMissingAPIKey)
	}

	rows := make([]contracts.RawRow, 0, len(symbols))
	for _, productID := range symbols {
		ticker, err := c.GetTicker(ctx, productID)
		if err != nil {
			return nil, fmt.Errorf("coinbase ticker %s: %w", productID, err)
		}
		rows = append(rows, ticker.toRow(productID))
	}

	c.logger.WithField("count", len(rows)).Debug("Fetched tickers")
	return rows, nil
}

func (t *Ticker) toRow(productID string) contracts.RawRow {
	currency := t.Currency
	if currency == "" {
		currency = "USD"
	}
	var asOf any
	if ts, err := time.Parse(time.RFC3339Nano, t.Time); err == nil {
		asOf = ts
	}
	return contracts.RawRow{
		AssetID:   productID,
		AssetType: contracts.AssetCrypto,
		Currency:  currency,
		Close:     t.Price,
		Open:      orPrice(t.Open, t.Price),
		High:      orPrice(t.High, t.Price),
		Low:       orPrice(t.Low, t.Price),
		Volume:    orPrice(t.Volume, "0"),
		AsOf:      asOf,
	}
}

func orPrice(v, price string) string {
	if _, err := strconv.ParseFloat(v, 64); err != nil {
		return price
	}
	return v
}

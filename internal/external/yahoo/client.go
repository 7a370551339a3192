package yahoo

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/wonny/pitviper/backend/internal/contracts"
	"github.com/wonny/pitviper/backend/pkg/httputil"
	"github.com/wonny/pitviper/backend/pkg/logger"
)

// DefaultBaseURL is the Yahoo Finance chart API host.
const DefaultBaseURL = "https://query1.finance.yahoo.com"

// ChartResponse is the subset of /v8/finance/chart used here. Bars with
// no trade carry null values.
type ChartResponse struct {
	Chart struct {
		Result []ChartResult `json:"result"`
		Error  *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

type ChartResult struct {
	Meta struct {
		Currency string `json:"currency"`
		Symbol   string `json:"symbol"`
	} `json:"meta"`
	Timestamp  []int64 `json:"timestamp"`
	Indicators struct {
		Quote []struct {
			Open   []*float64 `json:"open"`
			High   []*float64 `json:"high"`
			Low    []*float64 `json:"low"`
			Close  []*float64 `json:"close"`
			Volume []*float64 `json:"volume"`
		} `json:"quote"`
	} `json:"indicators"`
}

// Client fetches the latest daily bar per symbol. One client serves one
// asset class (equity, fund or commodity).
type Client struct {
	httpClient   *httputil.Client
	logger       *logger.Logger
	baseURL      string
	assetType    contracts.AssetType
	descriptions map[string]string
}

// NewClient creates a Yahoo chart client for an asset class.
func NewClient(httpClient *httputil.Client, assetType contracts.AssetType, descriptions map[string]string, log *logger.Logger) *Client {
	return &Client{
		httpClient:   httpClient,
		logger:       log.WithFields(map[string]interface{}{"provider": "yahoo", "asset_type": string(assetType)}),
		baseURL:      DefaultBaseURL,
		assetType:    assetType,
		descriptions: descriptions,
	}
}

// WithBaseURL overrides the API host.
func (c *Client) WithBaseURL(baseURL string) *Client {
	c.baseURL = baseURL
	return c
}

// Name implements contracts.SourceProvider.
func (c *Client) Name() string {
	return "yahoo"
}

// Fetch implements contracts.SourceProvider. Any symbol without history
// fails the batch.
func (c *Client) Fetch(ctx context.Context, symbols []string) ([]contracts.RawRow, error) {
	rows := make([]contracts.RawRow, 0, len(symbols))
	for _, symbol := range symbols {
		row, err := c.latestBar(ctx, symbol)
		if err != nil {
			return nil, fmt.Errorf("yahoo chart %s: %w", symbol, err)
		}
		rows = append(rows, row)
	}

	c.logger.WithField("count", len(rows)).Debug("Fetched chart bars")
	return rows, nil
}

func (c *Client) latestBar(ctx context.Context, symbol string) (contracts.RawRow, error) {
	params := url.Values{}
	params.Set("range", "5d")
	params.Set("interval", "1d")
	fullURL := fmt.Sprintf("%s/v8/finance/chart/%s?%s", c.baseURL, url.PathEscape(symbol), params.Encode())

	var resp ChartResponse
	if err := c.httpClient.GetJSON(ctx, fullURL, &resp); err != nil {
		return contracts.RawRow{}, err
	}
	if resp.Chart.Error != nil {
		return contracts.RawRow{}, httputil.NewValidationError("%s: %s", resp.Chart.Error.Code, resp.Chart.Error.Description)
	}
	if len(resp.Chart.Result) == 0 || len(resp.Chart.Result[0].Indicators.Quote) == 0 {
		return contracts.RawRow{}, httputil.NewValidationError("no history for %s", symbol)
	}

	result := resp.Chart.Result[0]
	quote := result.Indicators.Quote[0]

	// latest bar with a close
	for i := len(result.Timestamp) - 1; i >= 0; i-- {
		closePrice := at(quote.Close, i)
		if closePrice == nil {
			continue
		}
		currency := result.Meta.Currency
		if currency == "" {
			currency = "USD"
		}
		return contracts.RawRow{
			AssetID:     symbol,
			AssetType:   c.assetType,
			Currency:    currency,
			Close:       *closePrice,
			Open:        value(at(quote.Open, i)),
			High:        value(at(quote.High, i)),
			Low:         value(at(quote.Low, i)),
			Volume:      value(at(quote.Volume, i)),
			AsOf:        time.Unix(result.Timestamp[i], 0).UTC(),
			Description: c.descriptions[symbol],
		}, nil
	}

	return contracts.RawRow{}, httputil.NewValidationError("no history for %s", symbol)
}

func at(values []*float64, i int) *float64 {
	if i < len(values) {
		return values[i]
	}
	return nil
}

// value unwraps a nullable number; nil stays nil so the unifier applies its defaults.
func value(v *float64) any {
	if v == nil {
		return nil
	}
	return *v
}

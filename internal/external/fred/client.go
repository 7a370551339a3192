package fred

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/wonny/pitviper/backend/internal/contracts"
	"github.com/wonny/pitviper/backend/pkg/httputil"
	"github.com/wonny/pitviper/backend/pkg/logger"
)

// DefaultBaseURL is the FRED API root.
const DefaultBaseURL = "https://api.stlouisfed.org/fred"

// observationWindow is how many recent observations are scanned for a value.
const observationWindow = 10

// Observation is one FRED data point. Missing values are reported as ".".
type Observation struct {
	Date  string `json:"date"`
	Value string `json:"value"`
}

// ObservationsResponse is the /series/observations payload.
type ObservationsResponse struct {
	Observations []Observation `json:"observations"`
}

// Client fetches the latest observation of FRED series as bond rows.
type Client struct {
	httpClient   *httputil.Client
	logger       *logger.Logger
	baseURL      string
	apiKey       string
	descriptions map[string]string
}

// NewClient creates a FRED client.
func NewClient(httpClient *httputil.Client, apiKey string, descriptions map[string]string, log *logger.Logger) *Client {
	return &Client{
		httpClient:   httpClient,
		logger:       log.WithField("provider", "fred"),
		baseURL:      DefaultBaseURL,
		apiKey:       apiKey,
		descriptions: descriptions,
	}
}

// WithBaseURL overrides the API root.
func (c *Client) WithBaseURL(baseURL string) *Client {
	c.baseURL = baseURL
	return c
}

// Name implements contracts.SourceProvider.
func (c *Client) Name() string {
	return "fred"
}

// Latest returns the most recent non-missing observation of a series.
func (c *Client) Latest(ctx context.Context, seriesID string) (float64, time.Time, error) {
	params := url.Values{}
	params.Set("series_id", seriesID)
	params.Set("api_key", c.apiKey)
	params.Set("file_type", "json")
	params.Set("sort_order", "desc")
	params.Set("limit", strconv.Itoa(observationWindow))

	var resp ObservationsResponse
	if err := c.httpClient.GetJSON(ctx, c.baseURL+"/series/observations?"+params.Encode(), &resp); err != nil {
		return 0, time.Time{}, err
	}

	for _, obs := range resp.Observations {
		v, err := strconv.ParseFloat(obs.Value, 64)
		if err != nil {
			continue
		}
		date, err := time.Parse("2006-01-02", obs.Date)
		if err != nil {
			continue
		}
		return v, date, nil
	}
	return 0, time.Time{}, httputil.NewValidationError("no FRED data for %s", seriesID)
}

// Fetch implements contracts.SourceProvider. Yields carry no volume.
func (c *Client) Fetch(ctx context.Context, seriesIDs []string) ([]contracts.RawRow, error) {
	if c.apiKey == "" {
		return nil, fmt.Errorf("fred: %w", httputil.ErrMissingAPIKey)
	}

	rows := make([]contracts.RawRow, 0, len(seriesIDs))
	for _, id := range seriesIDs {
		v, date, err := c.Latest(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("fred series %s: %w", id, err)
		}
		description := c.descriptions[id]
		if description == "" {
			description = id
		}
		rows = append(rows, contracts.RawRow{
			AssetID:     id,
			AssetType:   contracts.AssetBond,
			Currency:    "USD",
			Close:       v,
			Open:        v,
			High:        v,
			Low:         v,
			Volume:      0.0,
			AsOf:        date,
			Description: description,
		})
	}

	c.logger.WithField("count", len(rows)).Debug("Fetched series")
	return rows, nil
}

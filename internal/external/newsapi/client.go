package newsapi

import (
	"context"
	"fmt"
	"net/url"
	"slices"
	"strconv"
	"strings"

	"github.com/wonny/pitviper/backend/pkg/httputil"
	"github.com/wonny/pitviper/backend/pkg/logger"
)

const (
	// DefaultBaseURL is the NewsAPI v2 root.
	DefaultBaseURL = "https://newsapi.org/v2"

	pageSize = 50
)

// Article is one NewsAPI article.
type Article struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	URL         string `json:"url"`
	PublishedAt string `json:"publishedAt"`
	Source      struct {
		Name string `json:"name"`
	} `json:"source"`
}

// EverythingResponse is the /everything payload.
type EverythingResponse struct {
	Status       string    `json:"status"`
	Code         string    `json:"code"`
	Message      string    `json:"message"`
	TotalResults int       `json:"totalResults"`
	Articles     []Article `json:"articles"`
}

// Client searches NewsAPI.
type Client struct {
	httpClient *httputil.Client
	logger     *logger.Logger
	baseURL    string
	apiKey     string
}

// NewClient creates a NewsAPI client.
func NewClient(httpClient *httputil.Client, apiKey string, log *logger.Logger) *Client {
	return &Client{
		httpClient: httpClient,
		logger:     log.WithField("provider", "newsapi"),
		baseURL:    DefaultBaseURL,
		apiKey:     apiKey,
	}
}

// WithBaseURL overrides the API root.
func (c *Client) WithBaseURL(baseURL string) *Client {
	c.baseURL = baseURL
	return c
}

// Query builds the search expression: unique tickers joined with OR,
// or "markets" when there are none.
func Query(tickers []string) string {
	unique := slices.Clone(tickers)
	slices.Sort(unique)
	unique = slices.Compact(unique)
	unique = slices.DeleteFunc(unique, func(s string) bool { return strings.TrimSpace(s) == "" })
	if len(unique) == 0 {
		return "markets"
	}
	return strings.Join(unique, " OR ")
}

// Everything returns the newest English articles mentioning any ticker.
func (c *Client) Everything(ctx context.Context, tickers []string) ([]Article, error) {
	if c.apiKey == "" {
		return nil, fmt.Errorf("newsapi: %w", httputil.ErrMissingAPIKey)
	}

	params := url.Values{}
	params.Set("q", Query(tickers))
	params.Set("apiKey", c.apiKey)
	params.Set("pageSize", strconv.Itoa(pageSize))
	params.Set("language", "en")
	params.Set("sortBy", "publishedAt")

	var resp EverythingResponse
	if err := c.httpClient.GetJSON(ctx, c.baseURL+"/everything?"+params.Encode(), &resp); err != nil {
		return nil, err
	}
	if resp.Status != "" && resp.Status != "ok" {
		return nil, httputil.NewValidationError("%s: %s", resp.Code, resp.Message)
	}

	c.logger.WithFields(map[string]interface{}{
		"articles": len(resp.Articles),
		"total":    resp.TotalResults,
	}).Debug("Fetched articles")

	return resp.Articles, nil
}

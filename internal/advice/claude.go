package advice

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/wonny/pitviper/backend/pkg/httputil"
)

const defaultClaudeModel = "claude-sonnet-4-5"

type claudeClient struct {
	client anthropic.Client
	opts   Options
}

func newClaude(apiKey string, opts Options) (*claudeClient, error) {
	if apiKey == "" {
		return nil, httputil.ErrMissingAPIKey
	}
	return &claudeClient{
		client: anthropic.NewClient(option.WithAPIKey(apiKey)),
		opts:   opts.withDefaults(defaultClaudeModel),
	}, nil
}

func (c *claudeClient) Complete(ctx context.Context, system, user string) (string, error) {
	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(c.opts.Model),
		MaxTokens: int64(c.opts.MaxTokens),
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(user)),
		},
		Temperature: anthropic.Float(c.opts.Temperature),
	}
	if system != "" {
		params.System = []anthropic.TextBlockParam{{Text: system}}
	}

	resp, err := c.client.Messages.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("claude messages: %w", err)
	}

	var sb strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			sb.WriteString(block.Text)
		}
	}
	if sb.Len() == 0 {
		return "", errors.New("claude returned no text")
	}
	return strings.TrimSpace(sb.String()), nil
}

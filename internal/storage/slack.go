package storage

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/wonny/pitviper/backend/internal/contracts"
	"github.com/wonny/pitviper/backend/pkg/httputil"
)

// SlackNotifier posts a short digest of each packet to an incoming webhook.
type SlackNotifier struct {
	client  *httputil.Client
	webhook string
}

var _ contracts.PacketSink = (*SlackNotifier)(nil)

// NewSlackNotifier creates a notifier for webhook.
func NewSlackNotifier(client *httputil.Client, webhook string) *SlackNotifier {
	return &SlackNotifier{client: client, webhook: webhook}
}

// Name implements contracts.PacketSink.
func (n *SlackNotifier) Name() string {
	return "slack"
}

// Save implements contracts.PacketSink.
func (n *SlackNotifier) Save(ctx context.Context, packet *contracts.AdvicePacket) error {
	resp, err := n.client.PostJSON(ctx, n.webhook, map[string]string{"text": Digest(packet)})
	if err != nil {
		return fmt.Errorf("post slack digest: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return httputil.ClassifyStatus(resp.StatusCode)
	}
	return nil
}

// Digest renders the packet as plain text: date, top picks and the summary.
func Digest(packet *contracts.AdvicePacket) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Pit Viper daily advice (%s)\n",
		packet.MarketOverview.GeneratedAt.Format("2006-01-02"))
	fmt.Fprintf(&sb, "Assets considered: %d\n", packet.MarketOverview.AssetsConsidered)

	for i, rec := range packet.Recommendations.Top {
		fmt.Fprintf(&sb, "%d. %s (%s) score %.3f\n", i+1, rec.AssetID, rec.AssetType, rec.CompositeScore)
	}
	if packet.Advice.Summary != "" {
		sb.WriteString("\n")
		sb.WriteString(packet.Advice.Summary)
	}
	return sb.String()
}

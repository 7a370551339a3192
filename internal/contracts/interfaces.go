package contracts

import "context"

// SourceProvider fetches raw rows for a set of symbols of one asset class.
// Implementations return an error for any failure; they never substitute data.
type SourceProvider interface {
	Name() string
	Fetch(ctx context.Context, symbols []string) ([]RawRow, error)
}

// HoldingsProvider supplies the current portfolio snapshot.
type HoldingsProvider interface {
	Load(ctx context.Context) (*PortfolioSnapshot, error)
}

// SentimentCollector aggregates sentiment for the given tickers.
type SentimentCollector interface {
	Collect(ctx context.Context, tickers []string) []SentimentRecord
}

// AdviceGenerator turns a request into advice. It always returns a
// usable Advice; failures degrade to canned text.
type AdviceGenerator interface {
	Generate(ctx context.Context, req AdviceRequest) Advice
}

// ArtifactWriter persists any produced table or record set under a
// logical category and name.
type ArtifactWriter interface {
	Write(ctx context.Context, category, name string, payload any) error
}

// PacketSink receives the finished advice packet (database, broker).
type PacketSink interface {
	Name() string
	Save(ctx context.Context, packet *AdvicePacket) error
}

package portfolio

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/wonny/pitviper/backend/internal/contracts"
	"github.com/wonny/pitviper/backend/pkg/logger"
)

const (
	SourceFile     = "file"
	SourceMock     = contracts.SourceMock
	SourceDatabase = "database"
)

// holdingColumns are the columns every snapshot carries.
var holdingColumns = []string{"asset_id", "asset_type", "quantity", "cost_basis", "source"}

// MockSnapshot returns the offline holdings used when no file is available.
func MockSnapshot() *contracts.PortfolioSnapshot {
	return &contracts.PortfolioSnapshot{
		Holdings: []contracts.HoldingRecord{
			{AssetID: "SPY", AssetType: contracts.AssetEquity, Quantity: 10, CostBasis: 4000, Source: SourceMock},
			{AssetID: "BTC-USD", AssetType: contracts.AssetCrypto, Quantity: 0.5, CostBasis: 15000, Source: SourceMock},
		},
		Source: SourceMock,
	}
}

// LoadHoldings reads a holdings CSV with a header row. An empty path or a
// missing file yields the mock snapshot. Missing columns take zero values
// and unparsable numbers become 0.
func LoadHoldings(path string) (*contracts.PortfolioSnapshot, error) {
	if path == "" {
		return MockSnapshot(), nil
	}

	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		// reported as mock, not file: the holdings really are the mock ones
		return MockSnapshot(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open holdings file: %w", err)
	}
	defer f.Close()

	holdings, err := ParseHoldings(f)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}

	return &contracts.PortfolioSnapshot{Holdings: holdings, Source: SourceFile}, nil
}

// ParseHoldings decodes holdings CSV. Unknown columns are ignored.
func ParseHoldings(r io.Reader) ([]contracts.HoldingRecord, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return []contracts.HoldingRecord{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}

	index := make(map[string]int, len(header))
	for i, name := range header {
		index[strings.ToLower(strings.TrimSpace(name))] = i
	}
	field := func(record []string, name string) string {
		i, ok := index[name]
		if !ok || i >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[i])
	}

	holdings := make([]contracts.HoldingRecord, 0)
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read record: %w", err)
		}

		holdings = append(holdings, contracts.HoldingRecord{
			AssetID:   field(record, "asset_id"),
			AssetType: contracts.AssetType(strings.ToLower(field(record, "asset_type"))),
			Quantity:  parseNumber(field(record, "quantity")),
			CostBasis: parseNumber(field(record, "cost_basis")),
			Source:    field(record, "source"),
		})
	}

	return holdings, nil
}

func parseNumber(s string) float64 {
	v, err := strconv.ParseFloat(strings.ReplaceAll(s, ",", ""), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}

// FileProvider loads holdings from a CSV path.
type FileProvider struct {
	path   string
	logger *logger.Logger
}

// NewFileProvider creates a FileProvider. An empty path serves mock holdings.
func NewFileProvider(path string, log *logger.Logger) *FileProvider {
	return &FileProvider{
		path:   path,
		logger: log.Module("portfolio"),
	}
}

// Load implements contracts.HoldingsProvider.
func (p *FileProvider) Load(ctx context.Context) (*contracts.PortfolioSnapshot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	snapshot, err := LoadHoldings(p.path)
	if err != nil {
		return nil, err
	}

	p.logger.WithFields(map[string]interface{}{
		"path":     p.path,
		"source":   snapshot.Source,
		"holdings": len(snapshot.Holdings),
	}).Info("Loaded holdings")

	return snapshot, nil
}

// WriteHoldings encodes holdings as CSV with the standard header.
func WriteHoldings(w io.Writer, holdings []contracts.HoldingRecord) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(holdingColumns); err != nil {
		return err
	}
	for _, h := range holdings {
		record := []string{
			h.AssetID,
			string(h.AssetType),
			strconv.FormatFloat(h.Quantity, 'f', -1, 64),
			strconv.FormatFloat(h.CostBasis, 'f', -1, 64),
			h.Source,
		}
		if err := writer.Write(record); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

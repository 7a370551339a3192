// Package storage persists run artifacts: files under the data directory,
// the run history in Postgres and the finished packet on Kafka.
package storage

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/wonny/pitviper/backend/internal/contracts"
	"github.com/wonny/pitviper/backend/pkg/logger"
)

// DataStore writes artifacts to <root>/<category>/<name>.<ext>.
type DataStore struct {
	root   string
	logger *logger.Logger
}

var _ contracts.ArtifactWriter = (*DataStore)(nil)

// NewDataStore creates a store rooted at dir. Directories are created on write.
func NewDataStore(dir string, log *logger.Logger) *DataStore {
	return &DataStore{root: dir, logger: log}
}

// Root returns the base directory.
func (s *DataStore) Root() string {
	return s.root
}

// Write stores payload as indented JSON. Tables are also written as CSV
// next to the JSON file.
func (s *DataStore) Write(ctx context.Context, category, name string, payload any) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	path, err := s.WriteJSON(category, name, payload)
	if err != nil {
		return err
	}

	header, records, ok := tabular(payload)
	if ok {
		if _, err := s.WriteCSV(category, name, header, records); err != nil {
			return err
		}
	}

	s.logger.WithFields(map[string]interface{}{
		"category": category,
		"name":     name,
		"path":     path,
		"csv":      ok,
	}).Debug("Artifact written")
	return nil
}

// WriteJSON stores payload and returns the file path.
func (s *DataStore) WriteJSON(category, name string, payload any) (string, error) {
	path, err := s.buildPath(category, name, ".json")
	if err != nil {
		return "", err
	}

	data, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encode %s/%s: %w", category, name, err)
	}
	if err := writeFileAtomic(path, data); err != nil {
		return "", err
	}
	return path, nil
}

// WriteCSV stores a header plus records and returns the file path.
func (s *DataStore) WriteCSV(category, name string, header []string, records [][]string) (string, error) {
	path, err := s.buildPath(category, name, ".csv")
	if err != nil {
		return "", err
	}

	var sb strings.Builder
	w := csv.NewWriter(&sb)
	if err := w.Write(header); err != nil {
		return "", err
	}
	if err := w.WriteAll(records); err != nil {
		return "", fmt.Errorf("encode %s/%s csv: %w", category, name, err)
	}
	if err := writeFileAtomic(path, []byte(sb.String())); err != nil {
		return "", err
	}
	return path, nil
}

// ReadJSON decodes a stored JSON artifact into dest.
func (s *DataStore) ReadJSON(category, name string, dest any) error {
	path := filepath.Join(s.root, category, withSuffix(name, ".json"))
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, dest); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}

func (s *DataStore) buildPath(category, name string, suffix string) (string, error) {
	if category == "" || name == "" {
		return "", fmt.Errorf("category and name are required")
	}
	if strings.ContainsAny(name, `/\`) || strings.Contains(category, "..") {
		return "", fmt.Errorf("invalid artifact name %q/%q", category, name)
	}

	dir := filepath.Join(s.root, category)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create %s: %w", dir, err)
	}
	return filepath.Join(dir, withSuffix(name, suffix)), nil
}

func withSuffix(name, suffix string) string {
	if strings.HasSuffix(name, suffix) {
		return name
	}
	return name + suffix
}

// writeFileAtomic writes to a temp file in the same directory and renames it.
func writeFileAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp for %s: %w", path, err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}

// ArtifactName returns "<prefix>_<YYYYMMDD>".
func ArtifactName(prefix string, date time.Time) string {
	return prefix + "_" + date.Format("20060102")
}

// tabular flattens the table types that also get a CSV copy.
func tabular(payload any) ([]string, [][]string, bool) {
	switch t := payload.(type) {
	case contracts.UnifiedTable:
		header := []string{"asset_id", "asset_type", "currency", "close", "open", "high", "low", "volume", "as_of", "description"}
		records := make([][]string, 0, len(t.Rows))
		for _, r := range t.Rows {
			records = append(records, []string{
				r.AssetID, string(r.AssetType), r.Currency,
				ftoa(r.Close), ftoa(r.Open), ftoa(r.High), ftoa(r.Low), ftoa(r.Volume),
				r.AsOf.UTC().Format(time.RFC3339), r.Description,
			})
		}
		return header, records, true
	case []contracts.SentimentRecord:
		header := []string{"ticker", "sentiment_score", "source"}
		records := make([][]string, 0, len(t))
		for _, r := range t {
			records = append(records, []string{r.Ticker, ftoa(r.SentimentScore), r.Source})
		}
		return header, records, true
	case []contracts.Recommendation:
		header := []string{"asset_id", "asset_type", "composite_score", "close", "momentum_proxy", "volatility_proxy", "liquidity_score"}
		records := make([][]string, 0, len(t))
		for _, r := range t {
			records = append(records, []string{
				r.AssetID, string(r.AssetType), ftoa(r.CompositeScore), ftoa(r.Close),
				ftoa(r.MomentumProxy), ftoa(r.VolatilityProxy), ftoa(r.LiquidityScore),
			})
		}
		return header, records, true
	}
	return nil, nil, false
}

func ftoa(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

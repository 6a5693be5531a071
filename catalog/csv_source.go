package catalog

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/giygas/smartpharmacy-api/entities"
	"github.com/giygas/smartpharmacy-api/interfaces"
	"github.com/giygas/smartpharmacy-api/logging"
	"golang.org/x/text/encoding/charmap"
)

// Compile-time check to ensure CSVSource implements CatalogSource
var _ interfaces.CatalogSource = (*CSVSource)(nil)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// CSVSource reads the catalog from a bulk import file with a header row:
// trade_name, active_ingredient, therapeutic_group, avg_price, form.
// The first existing path of Paths is used.
type CSVSource struct {
	Paths      []string
	MaxEntries int
}

// NewCSVSource creates a CSV source trying paths in order
func NewCSVSource(maxEntries int, paths ...string) *CSVSource {
	return &CSVSource{Paths: paths, MaxEntries: maxEntries}
}

// Name implements interfaces.CatalogSource
func (s *CSVSource) Name() string {
	return "csv"
}

// List implements interfaces.CatalogSource
func (s *CSVSource) List(ctx context.Context) ([]entities.CatalogEntry, error) {
	path, err := s.resolvePath()
	if err != nil {
		return nil, err
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	entries, err := ParseCSV(decodeCatalogBytes(raw), s.MaxEntries)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return entries, nil
}

func (s *CSVSource) resolvePath() (string, error) {
	for _, p := range s.Paths {
		if p == "" {
			continue
		}
		if _, err := os.Stat(p); err == nil {
			return p, nil
		}
	}
	return "", fmt.Errorf("no catalog file found in %v", s.Paths)
}

// decodeCatalogBytes returns a UTF-8 reader for the file contents.
// Spreadsheet exports of the Arabic catalog are often Windows-1256.
func decodeCatalogBytes(raw []byte) io.Reader {
	raw = bytes.TrimPrefix(raw, utf8BOM)
	if utf8.Valid(raw) {
		return bytes.NewReader(raw)
	}
	return charmap.Windows1256.NewDecoder().Reader(bytes.NewReader(raw))
}

// ParseCSV parses catalog records from r. Columns are located by header name,
// rows missing a trade name or active ingredient are skipped, IDs are the
// 1-based data row number. maxEntries <= 0 means no cap.
func ParseCSV(r io.Reader, maxEntries int) ([]entities.CatalogEntry, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("empty catalog file")
		}
		return nil, fmt.Errorf("failed to read header: %w", err)
	}

	columns := make(map[string]int, len(header))
	for i, name := range header {
		columns[Normalize(name)] = i
	}

	iTrade, okTrade := columns["trade_name"]
	iActive, okActive := columns["active_ingredient"]
	if !okTrade || !okActive {
		return nil, fmt.Errorf("header must contain trade_name and active_ingredient, got %v", header)
	}
	iGroup, hasGroup := columns["therapeutic_group"]
	iPrice, hasPrice := columns["avg_price"]
	iForm, hasForm := columns["form"]

	field := func(record []string, idx int, present bool) string {
		if !present || idx >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[idx])
	}

	var entries []entities.CatalogEntry
	row := 0
	skippedMissingFields := 0
	skippedFormatErrors := 0

	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		row++
		if err != nil {
			skippedFormatErrors++
			continue
		}

		trade := field(record, iTrade, true)
		active := field(record, iActive, true)
		if trade == "" || active == "" {
			skippedMissingFields++
			continue
		}

		entry := entities.CatalogEntry{
			ID:               strconv.Itoa(row),
			TradeName:        trade,
			ActiveIngredient: active,
			TherapeuticGroup: field(record, iGroup, hasGroup),
			Form:             field(record, iForm, hasForm),
			AvgPrice:         parsePrice(field(record, iPrice, hasPrice)),
		}
		entries = append(entries, entry)

		if maxEntries > 0 && len(entries) >= maxEntries {
			logging.Warn("Catalog entry cap reached, remaining rows ignored", "max_entries", maxEntries)
			break
		}
	}

	if skippedMissingFields > 0 || skippedFormatErrors > 0 {
		logging.Info("CSV catalog rows skipped",
			"missing_fields", skippedMissingFields,
			"format_errors", skippedFormatErrors,
		)
	}

	return entries, nil
}

// parsePrice returns nil for empty or non-numeric prices
func parsePrice(s string) *float64 {
	if s == "" {
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil
	}
	return &v
}

package dataprocessing

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"freightpulse/pkg/contracts/domain"
)

// ErrMissingColumns is returned when a manifest file lacks one of the
// required columns (carrier code, carrier name, trip date).
var ErrMissingColumns = errors.New("manifest is missing required columns")

// ParserConfig holds configuration options for the manifest parser.
type ParserConfig struct {
	// DefaultPrice is applied per trip when the manifest has no price
	// column or a row's price cell is empty.
	DefaultPrice float64
	// DateLayouts are tried in order when parsing trip date cells.
	DateLayouts []string
}

// DefaultParserConfig returns the parser configuration used in production.
func DefaultParserConfig() ParserConfig {
	return ParserConfig{
		DefaultPrice: 40.0,
		DateLayouts: []string{
			"2006-01-02",
			"02/01/2006",
			"2006-01-02 15:04:05",
			"02-01-2006",
			"01-02-06",
			"2/1/2006",
			time.RFC3339,
		},
	}
}

// Parser loads trip manifests from xlsx or csv files into the canonical
// record shape. Column headers are matched fuzzily: source systems rename
// and reorder columns between exports, so the parser maps whatever headers
// it finds onto the canonical fields and fails fast only when a required
// column cannot be located at all.
type Parser struct {
	config ParserConfig
	logger *slog.Logger
}

// NewParser creates a manifest parser.
func NewParser(config ParserConfig, logger *slog.Logger) *Parser {
	if logger == nil {
		logger = slog.Default()
	}
	if config.DefaultPrice <= 0 {
		config.DefaultPrice = DefaultParserConfig().DefaultPrice
	}
	if len(config.DateLayouts) == 0 {
		config.DateLayouts = DefaultParserConfig().DateLayouts
	}
	return &Parser{config: config, logger: logger}
}

// ParseFile loads a manifest from disk, dispatching on file extension.
func (p *Parser) ParseFile(ctx context.Context, path string) (*domain.Manifest, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx", ".xlsm":
		return p.parseExcel(ctx, path)
	case ".csv":
		return p.parseCSV(ctx, path)
	default:
		return nil, fmt.Errorf("unsupported manifest format %q", filepath.Ext(path))
	}
}

func (p *Parser) parseExcel(ctx context.Context, path string) (*domain.Manifest, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open manifest %s: %w", path, err)
	}
	defer f.Close()

	// Use the first sheet that contains a recognizable header row.
	for _, sheet := range f.GetSheetList() {
		rows, err := f.GetRows(sheet)
		if err != nil || len(rows) == 0 {
			continue
		}
		headerRow, columns := p.locateHeader(rows)
		if headerRow < 0 {
			continue
		}
		p.logger.InfoContext(ctx, "found manifest data sheet",
			slog.String("sheet", sheet),
			slog.Int("header_row", headerRow),
			slog.Int("total_rows", len(rows)))
		return p.buildManifest(ctx, path, rows[headerRow+1:], columns)
	}

	return nil, fmt.Errorf("parse manifest %s: %w", path, ErrMissingColumns)
}

func (p *Parser) parseCSV(ctx context.Context, path string) (*domain.Manifest, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open manifest %s: %w", path, err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read manifest %s: %w", path, err)
	}

	headerRow, columns := p.locateHeader(rows)
	if headerRow < 0 {
		return nil, fmt.Errorf("parse manifest %s: %w", path, ErrMissingColumns)
	}

	return p.buildManifest(ctx, path, rows[headerRow+1:], columns)
}

// manifestColumns maps canonical fields to column indexes in a manifest.
type manifestColumns struct {
	code  int
	name  int
	date  int
	price int // -1 when absent
}

// locateHeader scans for the header row and maps column positions. A row
// qualifies as the header when it yields at least the code, name, and date
// columns.
func (p *Parser) locateHeader(rows [][]string) (int, manifestColumns) {
	for i, row := range rows {
		if i > 10 {
			break // headers live near the top of real manifests
		}
		columns := manifestColumns{code: -1, name: -1, date: -1, price: -1}
		for j, header := range row {
			h := strings.ToLower(strings.TrimSpace(header))
			switch {
			case columns.name < 0 && strings.Contains(h, "nombre"),
				columns.name < 0 && strings.Contains(h, "name"):
				columns.name = j
			case columns.code < 0 && strings.Contains(h, "transportista"),
				columns.code < 0 && strings.Contains(h, "carrier") && strings.Contains(h, "code"),
				columns.code < 0 && h == "code",
				columns.code < 0 && strings.Contains(h, "agent"):
				columns.code = j
			case columns.date < 0 && strings.Contains(h, "fecha"),
				columns.date < 0 && strings.Contains(h, "date"):
				columns.date = j
			case columns.price < 0 && strings.Contains(h, "precio"),
				columns.price < 0 && strings.Contains(h, "price"):
				columns.price = j
			}
		}
		if columns.code >= 0 && columns.name >= 0 && columns.date >= 0 {
			return i, columns
		}
	}
	return -1, manifestColumns{}
}

// buildManifest converts raw data rows into trip records. Rows with an
// empty carrier code are skipped; rows with an unparseable date are kept
// with a nil date so they still count toward cohort statistics.
func (p *Parser) buildManifest(ctx context.Context, path string, rows [][]string, columns manifestColumns) (*domain.Manifest, error) {
	manifest := &domain.Manifest{
		Records:    make([]domain.TripRecord, 0, len(rows)),
		SourceFile: filepath.Base(path),
		LoadedAt:   time.Now().UTC(),
	}

	skipped, undated := 0, 0
	for _, row := range rows {
		code := cell(row, columns.code)
		name := cell(row, columns.name)
		if code == "" && name == "" {
			continue // trailing blank or separator row
		}
		if code == "" {
			skipped++
			continue
		}

		record := domain.TripRecord{
			CarrierCode: code,
			CarrierName: name,
			Price:       p.config.DefaultPrice,
		}

		if raw := cell(row, columns.date); raw != "" {
			if parsed, ok := p.parseDate(raw); ok {
				record.TripDate = &parsed
			} else {
				undated++
			}
		} else {
			undated++
		}

		if columns.price >= 0 {
			if raw := cell(row, columns.price); raw != "" {
				if price, err := strconv.ParseFloat(strings.ReplaceAll(raw, ",", ""), 64); err == nil {
					record.Price = price
				}
			}
		}

		manifest.Records = append(manifest.Records, record)
	}

	p.logger.InfoContext(ctx, "manifest parsed",
		slog.String("source_file", manifest.SourceFile),
		slog.Int("record_count", len(manifest.Records)),
		slog.Int("skipped_rows", skipped),
		slog.Int("undated_rows", undated))

	return manifest, nil
}

func (p *Parser) parseDate(raw string) (time.Time, bool) {
	raw = strings.TrimSpace(raw)
	for _, layout := range p.config.DateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, true
		}
	}
	// Excel serial date numbers survive some exports as plain floats.
	if serial, err := strconv.ParseFloat(raw, 64); err == nil && serial > 0 {
		if t, err := excelize.ExcelDateToTime(serial, false); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

func cell(row []string, index int) string {
	if index < 0 || index >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[index])
}

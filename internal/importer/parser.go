// Package importer reads price observations from CSV and XLSX files.
package importer

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"github.com/bizsuite/catalog-service/internal/catalog"
)

// Format is the container format of an import file
type Format string

const (
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
)

// Row is one observation read from a file, keyed by codes rather than ids
type Row struct {
	RowNumber     int
	ItemCode      string
	PriceListCode string
	Tier          int64
	Price         decimal.Decimal
	Discount      decimal.Decimal
	EffectiveDate time.Time
}

// RowError describes a rejected row
type RowError struct {
	RowNumber int
	Field     string
	Message   string
	Value     string
}

func (e RowError) Error() string {
	return fmt.Sprintf("row %d: %s: %s (%q)", e.RowNumber, e.Field, e.Message, e.Value)
}

// Result is the outcome of parsing one file
type Result struct {
	Rows      []Row
	Errors    []RowError
	TotalRows int
}

// Options control parsing
type Options struct {
	Format    Format
	Encoding  Encoding
	Delimiter rune // 0 detects
	Sheet     string
}

const (
	fieldItem     = "item"
	fieldList     = "price_list"
	fieldTier     = "tier"
	fieldPrice    = "price"
	fieldDiscount = "discount"
	fieldDate     = "effective_date"
)

var requiredFields = []string{fieldItem, fieldList, fieldPrice, fieldDate}

// headerAliases maps normalized header text to a field
var headerAliases = map[string]string{
	"item":            fieldItem,
	"item code":       fieldItem,
	"code":            fieldItem,
	"sifra":           fieldItem,
	"sifra artikla":   fieldItem,
	"price list":      fieldList,
	"price code":      fieldList,
	"list":            fieldList,
	"cjenik":          fieldList,
	"tier":            fieldTier,
	"quantity":        fieldTier,
	"qty":             fieldTier,
	"kolicina":        fieldTier,
	"price":           fieldPrice,
	"cijena":          fieldPrice,
	"discount":        fieldDiscount,
	"discount amount": fieldDiscount,
	"popust":          fieldDiscount,
	"effective date":  fieldDate,
	"date":            fieldDate,
	"datum":           fieldDate,
}

var dateLayouts = []string{"2006-01-02", "02.01.2006", "02.01.2006.", "2.1.2006", "01/02/2006"}

// Parse reads an import file into rows. Malformed rows are reported in
// Result.Errors; a missing required column fails the whole file.
func Parse(r io.Reader, opts Options) (*Result, error) {
	var records [][]string
	var err error

	switch opts.Format {
	case FormatXLSX:
		records, err = readXLSX(r, opts.Sheet)
	case FormatCSV, "":
		records, err = readCSV(r, opts)
	default:
		return nil, fmt.Errorf("unsupported format: %s", opts.Format)
	}
	if err != nil {
		return nil, err
	}

	result := &Result{}
	if len(records) == 0 {
		return result, nil
	}

	columns, err := mapColumns(records[0])
	if err != nil {
		return nil, err
	}

	for i, record := range records[1:] {
		rowNumber := i + 2
		if isEmptyRecord(record) {
			continue
		}
		result.TotalRows++

		row, rowErr := parseRecord(record, columns, rowNumber)
		if rowErr != nil {
			result.Errors = append(result.Errors, *rowErr)
			continue
		}
		result.Rows = append(result.Rows, row)
	}

	log.Debug().
		Int("total", result.TotalRows).
		Int("valid", len(result.Rows)).
		Int("errors", len(result.Errors)).
		Msg("Parsed import file")
	return result, nil
}

func readCSV(r io.Reader, opts Options) ([][]string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	content, err := Decode(data, opts.Encoding)
	if err != nil {
		return nil, err
	}

	delimiter := opts.Delimiter
	if delimiter == 0 {
		delimiter = DetectDelimiter(content)
	}

	reader := csv.NewReader(strings.NewReader(content))
	reader.Comma = delimiter
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true
	reader.LazyQuotes = true

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to parse CSV: %w", err)
	}
	return records, nil
}

func readXLSX(r io.Reader, sheet string) ([][]string, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()

	if sheet == "" {
		sheet = f.GetSheetName(f.GetActiveSheetIndex())
	}
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %q: %w", sheet, err)
	}
	return rows, nil
}

// DetectDelimiter picks the delimiter that splits the first lines most consistently
func DetectDelimiter(content string) rune {
	sample := make([]string, 0, 5)
	for _, line := range strings.Split(content, "\n") {
		if trimmed := strings.TrimSpace(line); trimmed != "" {
			sample = append(sample, trimmed)
			if len(sample) == 5 {
				break
			}
		}
	}
	if len(sample) == 0 {
		return ','
	}

	best, bestScore := ',', 0.0
	for _, delim := range []rune{',', ';', '\t'} {
		counts := make([]float64, len(sample))
		sum := 0.0
		for i, line := range sample {
			counts[i] = float64(strings.Count(line, string(delim)))
			sum += counts[i]
		}
		avg := sum / float64(len(counts))
		if avg == 0 {
			continue
		}
		variance := 0.0
		for _, c := range counts {
			variance += (c - avg) * (c - avg)
		}
		variance /= float64(len(counts))

		if score := avg / (1 + variance); score > bestScore {
			best, bestScore = delim, score
		}
	}
	return best
}

func mapColumns(header []string) (map[string]int, error) {
	columns := make(map[string]int)
	for i, h := range header {
		field, ok := headerAliases[normalizeHeader(h)]
		if !ok {
			continue
		}
		if _, dup := columns[field]; !dup {
			columns[field] = i
		}
	}

	var missing []string
	for _, f := range requiredFields {
		if _, ok := columns[f]; !ok {
			missing = append(missing, f)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("missing required columns: %s", strings.Join(missing, ", "))
	}
	return columns, nil
}

func parseRecord(record []string, columns map[string]int, rowNumber int) (Row, *RowError) {
	value := func(field string) string {
		idx, ok := columns[field]
		if !ok || idx >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[idx])
	}
	fail := func(field, msg, v string) (Row, *RowError) {
		return Row{}, &RowError{RowNumber: rowNumber, Field: field, Message: msg, Value: v}
	}

	row := Row{
		RowNumber:     rowNumber,
		ItemCode:      value(fieldItem),
		PriceListCode: strings.ToUpper(value(fieldList)),
		Tier:          catalog.BaseTier,
	}
	if row.ItemCode == "" {
		return fail(fieldItem, "is required", "")
	}
	if row.PriceListCode == "" {
		return fail(fieldList, "is required", "")
	}

	if raw := value(fieldTier); raw != "" {
		tier, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || tier < 1 {
			return fail(fieldTier, "must be a positive integer", raw)
		}
		row.Tier = tier
	}

	raw := value(fieldPrice)
	price, err := catalog.ParseAmount(raw)
	if err != nil || price == nil {
		return fail(fieldPrice, "is not a number", raw)
	}
	if price.IsNegative() {
		return fail(fieldPrice, "must not be negative", raw)
	}
	row.Price = *price

	if raw := value(fieldDiscount); raw != "" {
		discount, err := catalog.ParseAmount(raw)
		if err != nil || discount == nil {
			return fail(fieldDiscount, "is not a number", raw)
		}
		row.Discount = *discount
	}

	raw = value(fieldDate)
	date, ok := parseDate(raw)
	if !ok {
		return fail(fieldDate, "is not a date", raw)
	}
	row.EffectiveDate = date

	return row, nil
}

func parseDate(raw string) (time.Time, bool) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

func isEmptyRecord(record []string) bool {
	for _, f := range record {
		if strings.TrimSpace(f) != "" {
			return false
		}
	}
	return true
}

// DetectFormat guesses the format from a file name
func DetectFormat(name string) Format {
	if strings.HasSuffix(strings.ToLower(name), ".xlsx") {
		return FormatXLSX
	}
	return FormatCSV
}

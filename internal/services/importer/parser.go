// Package importer handles bank statement CSV import
package importer

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/findosh/moneymanager/internal/models"
	"github.com/shopspring/decimal"
)

var (
	ErrUnknownFormat = errors.New("unknown CSV format")
	ErrEmptyFile     = errors.New("CSV file is empty")
	ErrNoData        = errors.New("no expenses found")
)

// Format is a statement layout the importer understands
type Format interface {
	// Detect checks if this format handles the given header row
	Detect(header []string) bool

	// ParseRow turns one data row into an expense. A nil input with a nil
	// error means the row is not an expense (a credit, a balance line).
	ParseRow(row []string, sh *sheet) (*models.ExpenseInput, error)

	// Name returns the format name
	Name() string
}

// Row is one imported expense and the CSV line it came from
type Row struct {
	Line  int
	Input models.ExpenseInput
}

// Result contains the result of parsing a statement
type Result struct {
	Rows   []Row
	Format string
	Errors []string // rows that could not be read, with line numbers
}

// Total sums the amounts of all parsed rows
func (r *Result) Total() decimal.Decimal {
	total := decimal.Zero
	for _, row := range r.Rows {
		total = total.Add(row.Input.Amount)
	}
	return total
}

// Service handles statement import
type Service struct {
	formats []Format
	tagger  *Tagger
	now     func() time.Time
}

// NewService creates a new import service
func NewService() *Service {
	return &Service{
		formats: []Format{
			NewDebitCreditFormat(),
			NewSignedAmountFormat(),
		},
		tagger: NewTagger(),
		now:    time.Now,
	}
}

// Parse auto-detects the layout and reads every expense row. Rows without
// a category are tagged from the merchant name.
func (s *Service) Parse(reader io.Reader) (*Result, error) {
	csvReader := csv.NewReader(reader)
	csvReader.FieldsPerRecord = -1
	csvReader.TrimLeadingSpace = true
	csvReader.LazyQuotes = true

	records, err := csvReader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV: %w", err)
	}
	if len(records) == 0 {
		return nil, ErrEmptyFile
	}

	// Exports often start with account details above the header
	headerIdx, header := findHeader(records)
	if headerIdx < 0 {
		return nil, ErrUnknownFormat
	}

	var format Format
	for _, f := range s.formats {
		if f.Detect(header) {
			format = f
			break
		}
	}
	if format == nil {
		return nil, ErrUnknownFormat
	}

	result := &Result{Format: format.Name()}
	sh := newSheet(header, records[headerIdx+1:])
	for i := headerIdx + 1; i < len(records); i++ {
		row := records[i]
		line := i + 1
		if isSkipRow(row) {
			continue
		}

		in, err := format.ParseRow(row, sh)
		if err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("line %d: %v", line, err))
			continue
		}
		if in == nil {
			continue
		}

		in.Source = models.SourceManual
		if in.Category == "" {
			in.Category = s.tagger.Categorize(in.Merchant, in.Description)
		}
		if in.Date.IsZero() {
			in.Date = s.now()
		}
		if err := in.Validate(); err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("line %d: %v", line, err))
			continue
		}
		result.Rows = append(result.Rows, Row{Line: line, Input: *in})
	}

	if len(result.Rows) == 0 {
		return result, ErrNoData
	}
	return result, nil
}

func findHeader(records [][]string) (int, []string) {
	keywords := []string{"date", "description", "merchant", "payee", "amount", "debit", "credit", "category"}

	for i, row := range records {
		if len(row) < 3 {
			continue
		}
		matches := 0
		for _, cell := range row {
			cell = normalizeHeader(cell)
			for _, kw := range keywords {
				if strings.Contains(cell, kw) {
					matches++
					break
				}
			}
		}
		if matches >= 2 {
			return i, row
		}
	}
	return -1, nil
}

func isSkipRow(row []string) bool {
	empty := true
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			empty = false
			break
		}
	}
	if empty {
		return true
	}

	// Skip total/summary rows
	firstCell := strings.ToLower(strings.TrimSpace(row[0]))
	for _, prefix := range []string{"total", "opening balance", "closing balance", "--", "***"} {
		if strings.HasPrefix(firstCell, prefix) {
			return true
		}
	}
	return false
}

// columns maps normalized header names to their index
type columns map[string]int

func newColumns(header []string) columns {
	cols := make(columns, len(header))
	for i, h := range header {
		cols[normalizeHeader(h)] = i
	}
	return cols
}

// get returns the first named column present in row
func (c columns) get(row []string, names ...string) string {
	for _, name := range names {
		if idx, ok := c[name]; ok && idx < len(row) {
			return strings.TrimSpace(row[idx])
		}
	}
	return ""
}

func (c columns) has(names ...string) bool {
	for _, name := range names {
		if _, ok := c[name]; ok {
			return true
		}
	}
	return false
}

// sheet is the header of a statement plus what was learned from its rows
type sheet struct {
	cols columns
	// debitsNegative is set when the amount column holds any negative
	// value. Spending is then negative and positive rows are deposits.
	debitsNegative bool
}

func newSheet(header []string, rows [][]string) *sheet {
	sh := &sheet{cols: newColumns(header)}
	for _, row := range rows {
		if parseDecimal(sh.cols.get(row, amountColumns...)).IsNegative() {
			sh.debitsNegative = true
			break
		}
	}
	return sh
}

func normalizeHeader(h string) string {
	h = strings.TrimPrefix(h, "\ufeff")
	return strings.ToLower(strings.TrimSpace(h))
}

// Helper functions for parsing values

var dateLayouts = []string{
	time.DateOnly,
	"01/02/2006",
	"1/2/2006",
	"01/02/06",
	"2006/01/02",
	"Jan 2, 2006",
	"2 Jan 2006",
	time.RFC3339,
}

func parseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date %q", s)
}

func parseDecimal(s string) decimal.Decimal {
	s = strings.TrimSpace(s)
	s = strings.ReplaceAll(s, ",", "")
	for _, symbol := range []string{"Rs.", "$", "€", "£"} {
		s = strings.ReplaceAll(s, symbol, "")
	}
	s = strings.TrimSpace(s)

	// Handle parentheses for negative numbers
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		s = "-" + s[1:len(s)-1]
	}

	if s == "" || s == "--" || s == "n/a" || s == "N/A" {
		return decimal.Zero
	}

	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}

func cleanMerchant(s string) string {
	s = strings.Join(strings.Fields(s), " ")
	s = strings.TrimLeft(s, "*# ")
	if len(s) > models.MaxMerchantLength {
		s = s[:models.MaxMerchantLength]
	}
	return s
}

package importer

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/findosh/moneymanager/internal/models"
)

const signedStatement = `Account,1234
Date,Description,Amount,Memo
2024-03-01,SQ *BLUE BOTTLE COFFEE #12,-4.50,latte
2024-03-02,Payroll,2500.00,
03/03/2024,Uber Trip,-12.30,
2024-03-04,,-3.00,
Total,,,
`

const debitCreditStatement = `Transaction Date,Payee,Debit,Credit,Category
2024-03-05,Starbucks,5.25,,
2024-03-06,Salary,,3000,
2024-03-07,Corner Store,"1,020.00",,Groceries
2024-03-08,Netflix,bad,,
`

func TestParse_SignedAmounts(t *testing.T) {
	result, err := NewService().Parse(strings.NewReader(signedStatement))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	if result.Format != "amount_csv" {
		t.Errorf("Format = %s, want amount_csv", result.Format)
	}
	if len(result.Rows) != 2 {
		t.Fatalf("Expected 2 rows, got %d", len(result.Rows))
	}

	coffee := result.Rows[0]
	if coffee.Line != 3 {
		t.Errorf("Line = %d, want 3", coffee.Line)
	}
	if coffee.Input.Merchant != "SQ *BLUE BOTTLE COFFEE #12" {
		t.Errorf("Merchant = %q", coffee.Input.Merchant)
	}
	if coffee.Input.Amount.String() != "4.5" {
		t.Errorf("Amount = %s, want 4.5", coffee.Input.Amount)
	}
	if coffee.Input.Category != CategoryFood {
		t.Errorf("Category = %s, want %s", coffee.Input.Category, CategoryFood)
	}
	if coffee.Input.Description != "latte" {
		t.Errorf("Description = %q, want latte", coffee.Input.Description)
	}
	if coffee.Input.Source != models.SourceManual {
		t.Errorf("Source = %s, want manual", coffee.Input.Source)
	}
	if !coffee.Input.Date.Equal(time.Date(2024, 3, 1, 0, 0, 0, 0, time.Local)) {
		t.Errorf("Date = %v", coffee.Input.Date)
	}

	uber := result.Rows[1].Input
	if uber.Category != CategoryTransport {
		t.Errorf("Category = %s, want %s", uber.Category, CategoryTransport)
	}
	if !uber.Date.Equal(time.Date(2024, 3, 3, 0, 0, 0, 0, time.Local)) {
		t.Errorf("Date = %v", uber.Date)
	}

	if result.Total().String() != "16.8" {
		t.Errorf("Total() = %s, want 16.8", result.Total())
	}
	if len(result.Errors) != 1 || !strings.HasPrefix(result.Errors[0], "line 6:") {
		t.Errorf("Errors = %v, want one error for line 6", result.Errors)
	}
}

func TestParse_DebitCredit(t *testing.T) {
	result, err := NewService().Parse(strings.NewReader(debitCreditStatement))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	if result.Format != "debit_credit_csv" {
		t.Errorf("Format = %s, want debit_credit_csv", result.Format)
	}
	if len(result.Rows) != 2 {
		t.Fatalf("Expected 2 rows, got %d", len(result.Rows))
	}
	if got := result.Rows[0].Input; got.Merchant != "Starbucks" || got.Category != CategoryFood {
		t.Errorf("Row 0 = %+v", got)
	}
	if got := result.Rows[1].Input; got.Category != "Groceries" || got.Amount.String() != "1020" {
		t.Errorf("Row 1 = %+v, want the CSV category and 1020", got)
	}
	if len(result.Errors) != 0 {
		t.Errorf("Errors = %v, want none", result.Errors)
	}
}

func TestParse_AllPositiveAmountsAreSpending(t *testing.T) {
	result, err := NewService().Parse(strings.NewReader("date,merchant,amount\n2024-01-01,Walmart,20\n2024-01-02,Target,15.5\n"))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if len(result.Rows) != 2 {
		t.Fatalf("Expected 2 rows, got %d", len(result.Rows))
	}
	if result.Rows[0].Input.Category != CategoryShopping {
		t.Errorf("Category = %s, want %s", result.Rows[0].Input.Category, CategoryShopping)
	}
}

func TestParse_CreditTypeRowsSkipped(t *testing.T) {
	csv := "date,description,amount,type\n2024-01-01,Refund,20,credit\n2024-01-02,Pharmacy Plus,9.99,debit\n"
	result, err := NewService().Parse(strings.NewReader(csv))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if len(result.Rows) != 1 || result.Rows[0].Input.Category != CategoryHealth {
		t.Errorf("Rows = %+v, want only the pharmacy debit", result.Rows)
	}
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name string
		csv  string
		want error
	}{
		{"empty file", "", ErrEmptyFile},
		{"no header", "foo,bar,baz\n1,2,3\n", ErrUnknownFormat},
		{"unknown layout", "date,description,balance\n2024-01-01,Coffee,10\n", ErrUnknownFormat},
		{"only deposits", "date,payee,debit,credit\n2024-01-01,Salary,,100\n", ErrNoData},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewService().Parse(strings.NewReader(tt.csv))
			if !errors.Is(err, tt.want) {
				t.Errorf("Parse() error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestParse_BadDateRecorded(t *testing.T) {
	csv := "date,merchant,amount\nyesterday,Cafe,3\n2024-01-02,Cafe,4\n"
	result, err := NewService().Parse(strings.NewReader(csv))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if len(result.Rows) != 1 {
		t.Errorf("Expected 1 row, got %d", len(result.Rows))
	}
	if len(result.Errors) != 1 || !strings.Contains(result.Errors[0], `unrecognized date "yesterday"`) {
		t.Errorf("Errors = %v", result.Errors)
	}
}

func TestTagger_Categorize(t *testing.T) {
	tagger := NewTagger()

	tests := []struct {
		merchant    string
		description string
		want        string
	}{
		{"STARBUCKS", "", CategoryFood},
		{"SQ *CORNER BAKERY #4", "", CategoryFood},
		{"TST* Joe's Pizza", "", CategoryFood},
		{"Shell Oil 123", "", CategoryTransport},
		{"Walgreens #1234", "", CategoryHealth},
		{"City Electric Co", "", CategoryBills},
		{"ACME", "monthly internet", CategoryBills},
		{"Netflix.com", "", CategoryEntertainment},
		{"Random LLC", "", "Other"},
	}

	for _, tt := range tests {
		t.Run(tt.merchant, func(t *testing.T) {
			if got := tagger.Categorize(tt.merchant, tt.description); got != tt.want {
				t.Errorf("Categorize(%q, %q) = %s, want %s", tt.merchant, tt.description, got, tt.want)
			}
		})
	}
}

func TestParseDecimal(t *testing.T) {
	tests := []struct {
		input    string
		expected float64
	}{
		{"123.45", 123.45},
		{"$1,234.56", 1234.56},
		{"(100.00)", -100.00},
		{"Rs.1,500.00", 1500},
		{"£12", 12},
		{"--", 0},
		{"n/a", 0},
		{"", 0},
		{"  $500.00  ", 500.00},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			result := parseDecimal(tt.input)
			if result.InexactFloat64() != tt.expected {
				t.Errorf("parseDecimal(%q) = %v, want %v", tt.input, result.InexactFloat64(), tt.expected)
			}
		})
	}
}

func TestMerchantKey(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"STARBUCKS", "starbucks"},
		{"SQ *BLUE BOTTLE #123", "blue bottle"},
		{"PAYPAL *EBAY", "ebay"},
		{"  Whole   Foods  ", "whole foods"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if result := merchantKey(tt.input); result != tt.expected {
				t.Errorf("merchantKey(%q) = %q, want %q", tt.input, result, tt.expected)
			}
		})
	}
}

package importer

import (
	"errors"
	"strings"

	"github.com/findosh/moneymanager/internal/models"
	"github.com/shopspring/decimal"
)

// Column names accepted for each field, most specific first
var (
	dateColumns        = []string{"date", "transaction date", "posted date", "posting date", "value date"}
	merchantColumns    = []string{"merchant", "payee", "name", "description", "details", "narrative"}
	descriptionColumns = []string{"memo", "notes", "note", "reference"}
	categoryColumns    = []string{"category"}
	amountColumns      = []string{"amount", "transaction amount"}
	debitColumns       = []string{"debit", "debit amount", "withdrawal", "withdrawals", "money out"}
	typeColumns        = []string{"type", "transaction type", "dr/cr"}
)

var errNoMerchant = errors.New("missing merchant")

// DebitCreditFormat handles statements with separate debit and credit
// columns. Only debit rows are spending.
type DebitCreditFormat struct{}

// NewDebitCreditFormat creates a new debit/credit format
func NewDebitCreditFormat() *DebitCreditFormat {
	return &DebitCreditFormat{}
}

// Name returns the format name
func (f *DebitCreditFormat) Name() string {
	return "debit_credit_csv"
}

// Detect checks for a date, a payee and a debit column
func (f *DebitCreditFormat) Detect(header []string) bool {
	cols := newColumns(header)
	return cols.has(dateColumns...) && cols.has(merchantColumns...) && cols.has(debitColumns...)
}

// ParseRow reads one debit/credit row
func (f *DebitCreditFormat) ParseRow(row []string, sh *sheet) (*models.ExpenseInput, error) {
	debit := parseDecimal(sh.cols.get(row, debitColumns...)).Abs()
	if debit.IsZero() {
		return nil, nil
	}
	return baseInput(row, sh, debit)
}

// SignedAmountFormat handles statements with a single amount column. When
// any amount is negative, negative rows are spending and the rest are
// deposits; otherwise every row is spending.
type SignedAmountFormat struct{}

// NewSignedAmountFormat creates a new single amount column format
func NewSignedAmountFormat() *SignedAmountFormat {
	return &SignedAmountFormat{}
}

// Name returns the format name
func (f *SignedAmountFormat) Name() string {
	return "amount_csv"
}

// Detect checks for a date, a payee and an amount column
func (f *SignedAmountFormat) Detect(header []string) bool {
	cols := newColumns(header)
	return cols.has(dateColumns...) && cols.has(merchantColumns...) && cols.has(amountColumns...)
}

// ParseRow reads one signed amount row
func (f *SignedAmountFormat) ParseRow(row []string, sh *sheet) (*models.ExpenseInput, error) {
	if kind := strings.ToLower(sh.cols.get(row, typeColumns...)); kind == "credit" || kind == "cr" || kind == "deposit" {
		return nil, nil
	}

	amount := parseDecimal(sh.cols.get(row, amountColumns...))
	switch {
	case amount.IsZero():
		return nil, nil
	case sh.debitsNegative && amount.IsPositive():
		return nil, nil
	}
	return baseInput(row, sh, amount.Abs())
}

// baseInput reads the columns every format shares
func baseInput(row []string, sh *sheet, amount decimal.Decimal) (*models.ExpenseInput, error) {
	date, err := parseDate(sh.cols.get(row, dateColumns...))
	if err != nil {
		return nil, err
	}
	merchant := cleanMerchant(sh.cols.get(row, merchantColumns...))
	if merchant == "" {
		return nil, errNoMerchant
	}
	return &models.ExpenseInput{
		Merchant:    merchant,
		Amount:      amount,
		Category:    sh.cols.get(row, categoryColumns...),
		Date:        date,
		Description: sh.cols.get(row, descriptionColumns...),
	}, nil
}

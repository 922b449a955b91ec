package models

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// StatsRange is a dashboard reporting window
type StatsRange string

const (
	Range7Days  StatsRange = "7days"
	Range30Days StatsRange = "30days"
	Range90Days StatsRange = "90days"
	RangeYear   StatsRange = "year"
)

// Days returns the length of the window in days
func (r StatsRange) Days() int {
	switch r {
	case Range30Days:
		return 30
	case Range90Days:
		return 90
	case RangeYear:
		return 365
	default:
		return 7
	}
}

// ParseStatsRange parses a range name
func ParseStatsRange(s string) (StatsRange, error) {
	switch r := StatsRange(s); r {
	case Range7Days, Range30Days, Range90Days, RangeYear:
		return r, nil
	}
	return "", fmt.Errorf("unknown range %q (use 7days, 30days, 90days, year)", s)
}

// CategoryStat is one slice of the category breakdown
type CategoryStat struct {
	Name  string          `json:"name"`
	Value decimal.Decimal `json:"value"`
	Color string          `json:"color"`
	Count int             `json:"count"`
}

// SourceStat counts expenses per capture source
type SourceStat struct {
	Name  string `json:"name"`
	Value int    `json:"value"`
	Color string `json:"color"`
}

// TrendPoint is the spend of one day
type TrendPoint struct {
	Date   string          `json:"date"`
	Amount decimal.Decimal `json:"amount"`
}

// RecentTransaction is a condensed expense for the dashboard
type RecentTransaction struct {
	ID       string          `json:"id"`
	Merchant string          `json:"merchant"`
	Amount   decimal.Decimal `json:"amount"`
	Category string          `json:"category"`
	Date     time.Time       `json:"date"`
	Source   Source          `json:"source"`
}

// DashboardStats is the dashboard summary for a window
type DashboardStats struct {
	TotalExpenses      decimal.Decimal     `json:"totalExpenses"`
	MonthlyChange      decimal.Decimal     `json:"monthlyChange"` // percent vs previous window
	TransactionCount   int                 `json:"transactionCount"`
	CategoryBreakdown  []CategoryStat      `json:"categoryBreakdown"`
	SourceBreakdown    []SourceStat        `json:"sourceBreakdown"`
	TrendData          []TrendPoint        `json:"trendData"`
	RecentTransactions []RecentTransaction `json:"recentTransactions"`
}

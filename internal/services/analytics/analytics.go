// Package analytics computes dashboard summaries over the locally cached
// expense collection, in the same shape the API's stats endpoint returns
package analytics

import (
	"sort"
	"strings"
	"time"

	"github.com/findosh/moneymanager/internal/models"
	"github.com/shopspring/decimal"
)

// RecentLimit is how many transactions the summary lists
const RecentLimit = 5

// TrendDateLayout labels trend points, e.g. "Jan 02"
const TrendDateLayout = "Jan 02"

var hundred = decimal.NewFromInt(100)

// Presentation hints per capture source
var sourceColors = map[models.Source]string{
	models.SourceSMS:     "bg-blue-500",
	models.SourceReceipt: "bg-green-500",
	models.SourceVoice:   "bg-purple-500",
	models.SourceManual:  "bg-orange-500",
}

// Window is a reporting period and the equally long period before it
type Window struct {
	Start     time.Time
	End       time.Time
	PrevStart time.Time
	Days      int
}

// Contains reports whether t falls in [Start, End]
func (w Window) Contains(t time.Time) bool {
	return !t.Before(w.Start) && !t.After(w.End)
}

// containsPrevious reports whether t falls in [PrevStart, Start)
func (w Window) containsPrevious(t time.Time) bool {
	return !t.Before(w.PrevStart) && t.Before(w.Start)
}

// RangeBounds returns the window ending at now for a stats range
func RangeBounds(r models.StatsRange, now time.Time) Window {
	days := r.Days()
	start := now.AddDate(0, 0, -days)
	return Window{
		Start:     start,
		End:       now,
		PrevStart: start.AddDate(0, 0, -days),
		Days:      days,
	}
}

// PercentChange returns the change from previous to current in percent.
// Growth from nothing counts as 100%.
func PercentChange(current, previous decimal.Decimal) decimal.Decimal {
	if previous.IsPositive() {
		return current.Sub(previous).Div(previous).Mul(hundred).Round(2)
	}
	if current.IsPositive() {
		return hundred
	}
	return decimal.Zero
}

// Summarize builds the dashboard statistics for the window. Category colors
// come from categories by name; unknown names get a neutral gray.
func Summarize(expenses []models.Expense, categories []models.Category, w Window) models.DashboardStats {
	colors := make(map[string]string, len(categories))
	for _, c := range categories {
		colors[c.Name] = c.Color
	}

	var current []models.Expense
	total, previous := decimal.Zero, decimal.Zero
	for _, e := range expenses {
		switch {
		case w.Contains(e.Date):
			current = append(current, e)
			total = total.Add(e.Amount)
		case w.containsPrevious(e.Date):
			previous = previous.Add(e.Amount)
		}
	}

	return models.DashboardStats{
		TotalExpenses:      total.Round(2),
		MonthlyChange:      PercentChange(total, previous),
		TransactionCount:   len(current),
		CategoryBreakdown:  categoryBreakdown(current, colors),
		SourceBreakdown:    sourceBreakdown(current),
		TrendData:          trend(current, w),
		RecentTransactions: recent(current),
	}
}

func categoryBreakdown(expenses []models.Expense, colors map[string]string) []models.CategoryStat {
	index := make(map[string]int)
	var stats []models.CategoryStat
	for _, e := range expenses {
		i, ok := index[e.Category]
		if !ok {
			color := colors[e.Category]
			if color == "" {
				color = models.UncategorizedColor
			}
			i = len(stats)
			index[e.Category] = i
			stats = append(stats, models.CategoryStat{Name: e.Category, Color: color})
		}
		stats[i].Value = stats[i].Value.Add(e.Amount)
		stats[i].Count++
	}

	for i := range stats {
		stats[i].Value = stats[i].Value.Round(2)
	}
	sort.SliceStable(stats, func(i, j int) bool {
		return stats[i].Value.GreaterThan(stats[j].Value)
	})
	return stats
}

func sourceBreakdown(expenses []models.Expense) []models.SourceStat {
	counts := make(map[models.Source]int)
	for _, e := range expenses {
		counts[e.Source]++
	}

	var stats []models.SourceStat
	for _, source := range models.AllSources() {
		if counts[source] == 0 {
			continue
		}
		stats = append(stats, models.SourceStat{
			Name:  strings.ToUpper(string(source)),
			Value: counts[source],
			Color: sourceColors[source],
		})
	}
	return stats
}

// trend aggregates spend per calendar day (in the window's location) for the
// Days days ending at w.End
func trend(expenses []models.Expense, w Window) []models.TrendPoint {
	loc := w.End.Location()
	end := w.End
	lastDay := time.Date(end.Year(), end.Month(), end.Day(), 0, 0, 0, 0, loc)

	points := make([]models.TrendPoint, w.Days)
	index := make(map[string]int, w.Days)
	for i := 0; i < w.Days; i++ {
		day := lastDay.AddDate(0, 0, i-w.Days+1)
		key := day.Format(time.DateOnly)
		index[key] = i
		points[i] = models.TrendPoint{Date: day.Format(TrendDateLayout), Amount: decimal.Zero}
	}

	for _, e := range expenses {
		if i, ok := index[e.Date.In(loc).Format(time.DateOnly)]; ok {
			points[i].Amount = points[i].Amount.Add(e.Amount)
		}
	}
	for i := range points {
		points[i].Amount = points[i].Amount.Round(2)
	}
	return points
}

func recent(expenses []models.Expense) []models.RecentTransaction {
	sorted := make([]models.Expense, len(expenses))
	copy(sorted, expenses)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Date.After(sorted[j].Date)
	})
	if len(sorted) > RecentLimit {
		sorted = sorted[:RecentLimit]
	}

	out := make([]models.RecentTransaction, 0, len(sorted))
	for _, e := range sorted {
		out = append(out, models.RecentTransaction{
			ID:       e.ID,
			Merchant: e.Merchant,
			Amount:   e.Amount,
			Category: e.Category,
			Date:     e.Date,
			Source:   e.Source,
		})
	}
	return out
}

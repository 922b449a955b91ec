package importer

import (
	"strings"

	"github.com/findosh/moneymanager/internal/services/capture"
)

// Category names the tagger assigns
const (
	CategoryFood          = "Food & Dining"
	CategoryTransport     = "Transportation"
	CategoryShopping      = "Shopping"
	CategoryEntertainment = "Entertainment"
	CategoryBills         = "Bills & Utilities"
	CategoryHealth        = "Healthcare"
)

// Tagger guesses a category from a merchant name
type Tagger struct {
	merchantDB map[string]string
}

// NewTagger creates a new tagger with built-in classifications
func NewTagger() *Tagger {
	t := &Tagger{
		merchantDB: make(map[string]string),
	}
	t.loadBuiltinData()
	return t
}

// Categorize returns the category for a merchant, falling back to the
// description and finally to the default capture category
func (t *Tagger) Categorize(merchant, description string) string {
	key := merchantKey(merchant)

	// Check built-in database
	if category, ok := t.merchantDB[key]; ok {
		return category
	}
	for name, category := range t.merchantDB {
		if strings.HasPrefix(key, name+" ") {
			return category
		}
	}

	// Apply heuristics
	if category := detectCategory(strings.ToLower(merchant + " " + description)); category != "" {
		return category
	}
	return capture.DefaultCategory
}

// merchantKey strips the card processor noise banks add around names,
// e.g. "SQ *BLUE BOTTLE #123" becomes "blue bottle"
func merchantKey(merchant string) string {
	s := strings.ToLower(merchant)
	for _, prefix := range []string{"sq *", "sq*", "tst* ", "tst*", "pp*", "paypal *"} {
		s = strings.TrimPrefix(s, prefix)
	}
	if i := strings.IndexAny(s, "#*"); i > 0 {
		s = s[:i]
	}
	return strings.Join(strings.Fields(s), " ")
}

func detectCategory(text string) string {
	// Checked in order so "gas station" wins over "gas" bills
	rules := []struct {
		category string
		keywords []string
	}{
		{CategoryTransport, []string{"uber", "lyft", "taxi", "metro", "transit", "parking", "fuel", "gas station", "petrol", "airline", "railway", "toll"}},
		{CategoryFood, []string{"restaurant", "cafe", "coffee", "pizza", "burger", "bakery", "deli", "grocer", "supermarket", "kitchen", "bar & grill", "food"}},
		{CategoryBills, []string{"electric", "water", "utility", "utilities", "internet", "mobile", "telecom", "insurance", "rent payment", "landlord", "gas bill"}},
		{CategoryHealth, []string{"pharmacy", "clinic", "hospital", "dental", "medical", "doctor"}},
		{CategoryEntertainment, []string{"cinema", "movie", "theatre", "theater", "concert", "spotify", "netflix", "steam", "games"}},
		{CategoryShopping, []string{"store", "shop", "mart", "mall", "outlet", "amazon", "market"}},
	}

	for _, rule := range rules {
		for _, kw := range rule.keywords {
			if strings.Contains(text, kw) {
				return rule.category
			}
		}
	}
	return ""
}

// loadBuiltinData populates the merchant database with known classifications
func (t *Tagger) loadBuiltinData() {
	known := map[string][]string{
		CategoryFood:          {"starbucks", "mcdonalds", "mcdonald's", "kfc", "subway", "chipotle", "dunkin", "whole foods", "trader joe's", "keells", "cargills", "pizza hut", "domino's"},
		CategoryTransport:     {"uber", "lyft", "pickme", "shell", "chevron", "exxon", "bp"},
		CategoryShopping:      {"amazon", "walmart", "target", "ikea", "costco", "ebay", "best buy"},
		CategoryEntertainment: {"netflix", "spotify", "disney+", "hulu", "steam", "youtube premium"},
		CategoryBills:         {"verizon", "at&t", "t-mobile", "comcast", "dialog", "ceb"},
		CategoryHealth:        {"cvs", "walgreens", "boots"},
	}

	// Populate database
	for category, merchants := range known {
		for _, m := range merchants {
			t.merchantDB[m] = category
		}
	}
}

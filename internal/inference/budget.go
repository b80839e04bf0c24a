package inference

import (
	"regexp"
	"strconv"
	"strings"
)

// Plan is the build plan the caller selected.
type Plan string

const (
	PlanDefault   Plan = ""
	PlanBudget    Plan = "budget"
	PlanOptimized Plan = "optimized"
)

// Default per-card caps when budget is signalled without a number.
const (
	budgetPlanPerCard    = 5.0
	budgetKeywordPerCard = 10.0
)

// Budget is the spending intent found in the request.
type Budget struct {
	IsBudget bool    `json:"is_budget"`
	PerCard  float64 `json:"per_card_cap,omitempty"`
	Total    float64 `json:"total_cap,omitempty"`
	Currency string  `json:"currency"`
}

const amount = `(?:under|below|less than|no more than|max(?:imum)?(?: of)?)\s*[$€£]?\s*(\d+(?:\.\d+)?)\s*(?:[$€£]|usd|eur|gbp|dollars?|euros?|pounds?|bucks)?\s*`

var (
	perCardCap    = regexp.MustCompile(amount + `(?:each|per card|a card|apiece|a piece)`)
	totalCap      = regexp.MustCompile(amount + `(?:total|in total|overall|budget|for the (?:whole |entire )?deck)`)
	budgetKeyword = regexp.MustCompile(`\b(?:budget|cheap|affordable|low cost)\b`)

	euro  = regexp.MustCompile(`€|\beur(?:os?)?\b`)
	pound = regexp.MustCompile(`£|\bgbp\b|\bpounds?\b`)
)

var intentPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)(?:this|my|the) (?:deck|list) (?:focuses?|is|aims?) (?:on|to) ([^.?!]+)`),
	regexp.MustCompile(`(?i)(?:i want|goal|trying) (?:to|is) ([^.?!]+)`),
	regexp.MustCompile(`(?i)(?:focus|theme|strategy)\s*(?:is|:)\s*([^.?!]+)`),
}

func parseAmount(s string) float64 {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return v
}

// detectBudget reads caps from msg. Per-card caps are matched before
// total caps so "under $2 each" is never read as a deck total.
func detectBudget(msg string, plan Plan, currency string) Budget {
	lower := strings.ToLower(msg)
	b := Budget{Currency: detectCurrency(lower, currency)}

	if m := perCardCap.FindStringSubmatch(lower); m != nil {
		b.PerCard = parseAmount(m[1])
	}
	if m := totalCap.FindStringSubmatch(lower); m != nil {
		b.Total = parseAmount(m[1])
	}

	keyword := budgetKeyword.MatchString(lower)
	b.IsBudget = b.PerCard > 0 || b.Total > 0 || keyword || plan == PlanBudget
	if b.IsBudget && b.PerCard == 0 {
		switch {
		case plan == PlanBudget:
			b.PerCard = budgetPlanPerCard
		case keyword:
			b.PerCard = budgetKeywordPerCard
		}
	}
	return b
}

func detectCurrency(lower, requested string) string {
	switch {
	case euro.MatchString(lower):
		return "EUR"
	case pound.MatchString(lower):
		return "GBP"
	case requested != "":
		return strings.ToUpper(requested)
	}
	return "USD"
}

// extractUserIntent returns the first goal statement in msg.
func extractUserIntent(msg string) string {
	for _, re := range intentPatterns {
		if m := re.FindStringSubmatch(msg); m != nil {
			return strings.TrimSpace(m[1])
		}
	}
	return ""
}

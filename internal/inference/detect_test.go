package inference

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDetectFormat(t *testing.T) {
	tests := []struct {
		name      string
		total     int
		commander string
		explicit  Format
		msg       string
		want      Format
	}{
		{"hundred cards", 100, "", "", "", FormatCommander},
		{"sixty cards", 60, "", "", "", FormatModern},
		{"explicit beats size", 60, "", FormatPioneer, "", FormatPioneer},
		{"message beats explicit", 100, "Talrand", FormatCommander, "is this pioneer legal?", FormatPioneer},
		{"edh keyword", 60, "", FormatModern, "my edh list", FormatCommander},
		{"commander forces commander", 60, "Talrand", "", "", FormatCommander},
		{"odd size defaults", 40, "", "", "", FormatCommander},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, detectFormat(tt.total, tt.commander, tt.explicit, tt.msg))
		})
	}
}

func TestParseFormat(t *testing.T) {
	f, ok := ParseFormat(" EDH ")
	assert.True(t, ok)
	assert.Equal(t, FormatCommander, f)

	_, ok = ParseFormat("vintage")
	assert.False(t, ok)
}

func TestDetectPowerLevel(t *testing.T) {
	assert.Equal(t, PowerCEDH, detectPowerLevel("tuning for cEDH pods", 0, 3))
	assert.Equal(t, PowerHigh, detectPowerLevel("fairly competitive table", 0, 3))
	assert.Equal(t, PowerCasual, detectPowerLevel("just a casual deck", 10, 5))
	assert.Equal(t, PowerBattlecruiser, detectPowerLevel("", 9, 4.8))
	assert.Equal(t, PowerHigh, detectPowerLevel("", 1, 2.2))
	assert.Equal(t, PowerMid, detectPowerLevel("", 3, 3.1))
}

func TestDetectBudget(t *testing.T) {
	tests := []struct {
		name     string
		msg      string
		plan     Plan
		currency string
		want     Budget
	}{
		{"per card before total", "keep it under $2 each and under $150 total", PlanDefault, "",
			Budget{IsBudget: true, PerCard: 2, Total: 150, Currency: "USD"}},
		{"keyword only", "budget build please", PlanDefault, "",
			Budget{IsBudget: true, PerCard: budgetKeywordPerCard, Currency: "USD"}},
		{"budget plan", "", PlanBudget, "",
			Budget{IsBudget: true, PerCard: budgetPlanPerCard, Currency: "USD"}},
		{"euro per card", "nothing over... under 20€ per card", PlanDefault, "",
			Budget{IsBudget: true, PerCard: 20, Currency: "EUR"}},
		{"no budget", "make it stronger", PlanOptimized, "gbp",
			Budget{Currency: "GBP"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, detectBudget(tt.msg, tt.plan, tt.currency))
		})
	}
}

func TestExtractUserIntent(t *testing.T) {
	assert.Equal(t, "sacrificing tokens", extractUserIntent("This deck focuses on sacrificing tokens. Help?"))
	assert.Equal(t, "go wide with elves", extractUserIntent("I want to go wide with elves!"))
	assert.Equal(t, "spellslinger", extractUserIntent("Theme: spellslinger"))
	assert.Empty(t, extractUserIntent("hello"))
}

func TestCommanderHelpers(t *testing.T) {
	assert.Equal(t, "Kenrith, the Returned King", commanderFromMessage("Hi! My commander is Kenrith, the Returned King. Thoughts?"))
	assert.Empty(t, commanderFromMessage("no commander here"))

	assert.True(t, commanderProvidesRamp("whenever you attack, create a treasure token."))
	assert.True(t, commanderProvidesRamp("you may play an additional land on each of your turns."))
	assert.False(t, commanderProvidesRamp(talrand.Text()))

	assert.Equal(t, []string{"W", "U", "B", "R", "G"}, sortColors([]string{"g", "R", "b", "U", "w", "G", "x"}))
	assert.Equal(t, []string{"W", "B", "R"}, colorsFromMessage("A Mardu aggro shell"))
	assert.Nil(t, colorsFromMessage("mono blue"))
}

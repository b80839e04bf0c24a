// Package analysis turns an inferred deck context into a generated,
// validated strategic analysis.
package analysis

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/ramonehamilton/deck-analyst/internal/inference"
	"github.com/ramonehamilton/deck-analyst/internal/llm"
)

// DefaultMaxDeckChars caps the decklist text embedded in a prompt.
const DefaultMaxDeckChars = 12000

const truncationMarker = "\n[decklist truncated for length]"

// TokenTiers are output budgets by decklist size.
type TokenTiers struct {
	Small  int `toml:"small"`
	Medium int `toml:"medium"`
	High   int `toml:"high"`
	Cap    int `toml:"cap"`
}

// DefaultTokenTiers returns the default output budgets.
func DefaultTokenTiers() TokenTiers {
	return TokenTiers{Small: 1800, Medium: 2600, High: 3500, Cap: 4096}
}

// TokenBudget picks the output budget for a deck of cardCount cards.
func TokenBudget(cardCount int, tiers TokenTiers) int {
	budget := tiers.Medium
	switch {
	case cardCount < 60:
		budget = tiers.Small
	case cardCount > 100:
		budget = tiers.High
	}
	if tiers.Cap > 0 && budget > tiers.Cap {
		budget = tiers.Cap
	}
	return budget
}

// Prompt is a built generation request.
type Prompt struct {
	System string
	User   string
}

// Messages returns the prompt as chat messages.
func (p Prompt) Messages() []llm.Message {
	return []llm.Message{
		{Role: llm.RoleSystem, Content: p.System},
		{Role: llm.RoleUser, Content: p.User},
	}
}

// WithFeedback returns a copy of p with one regeneration section per
// failed attempt appended to the system prompt.
func (p Prompt) WithFeedback(rounds [][]string) Prompt {
	if len(rounds) == 0 {
		return p
	}
	var b strings.Builder
	b.WriteString(p.System)
	for _, errs := range rounds {
		b.WriteString("\n\n=== VALIDATION FAILED — REGENERATE ===\n")
		b.WriteString("Your previous response was rejected for these reasons:\n")
		for _, e := range errs {
			b.WriteString("- ")
			b.WriteString(e)
			b.WriteString("\n")
		}
		b.WriteString(hardRequirements)
	}
	return Prompt{System: b.String(), User: p.User}
}

const hardRequirements = `You MUST fix every issue above. Hard requirements:
1. Output the complete JSON block first (commander_name, archetype, game_plan, problems, synergy_chains, recommendations).
2. Every recommendation must be a real card, legal in the format, inside the color identity and not banned.
3. Name the archetype explicitly.
4. Lead with problems: list the deck's weaknesses before anything else.
5. Explain at least one synergy chain.
6. Give at least 3 recommendations, each with a reason.
`

const systemPrompt = `You are an expert Magic: The Gathering deck analyst.

Respond in two parts.

Part 1: a fenced JSON block with exactly this shape:
` + "```json" + `
{
  "commander_name": "string (empty if the format has no commander)",
  "archetype": "string",
  "game_plan": "string",
  "problems": ["string", "..."],
  "synergy_chains": ["string", "..."],
  "recommendations": [{"card_name": "string", "reason": "string"}]
}
` + "```" + `

Part 2: prose analysis after the JSON block that:
- identifies the archetype
- restates the game plan in one or two sentences
- lists the deck's problems first, most important first
- explains at least one synergy chain card by card
- gives at least 3 legal, on-color, unbanned card recommendations with reasons

Never recommend cards outside the stated colors or format. Do not pad the answer with generic advice about ramp, draw and removal.`

// PromptBuilder builds generation prompts.
type PromptBuilder struct {
	maxDeckChars int
}

// NewPromptBuilder creates a builder. maxDeckChars <= 0 uses the default.
func NewPromptBuilder(maxDeckChars int) *PromptBuilder {
	if maxDeckChars <= 0 {
		maxDeckChars = DefaultMaxDeckChars
	}
	return &PromptBuilder{maxDeckChars: maxDeckChars}
}

// Build embeds the inferred context, the optional commander profile hints,
// the user message and the (possibly truncated) decklist.
func (b *PromptBuilder) Build(ictx *inference.InferredContext, deckText, profile, userMessage string) Prompt {
	var u strings.Builder
	if ictx != nil {
		fmt.Fprintf(&u, "Format: %s\n", ictx.Format)
		fmt.Fprintf(&u, "Colors: %s\n", colorList(ictx.Colors))
		if ictx.Commander != "" {
			commander := ictx.Commander
			if ictx.Partner != "" {
				commander += " + " + ictx.Partner
			}
			fmt.Fprintf(&u, "Commander: %s\n", commander)
		}
		if ictx.Archetype != "" {
			fmt.Fprintf(&u, "Detected archetype: %s\n", ictx.Archetype)
		}
		fmt.Fprintf(&u, "Power level: %s\n", ictx.PowerLevel)
		fmt.Fprintf(&u, "Curve: %s, average CMC %.2f, %d lands, %d ramp pieces\n",
			ictx.Curve.Shape, ictx.Curve.AverageCMC, ictx.LandCount, ictx.ExistingRampCount)
		if ictx.CommanderProvidesRamp {
			u.WriteString("The commander provides ramp.\n")
		}
		if !ictx.Manabase.IsAcceptable {
			u.WriteString("The manabase does not match the color requirements.\n")
		}
		if len(ictx.ProtectedRoles) > 0 {
			fmt.Fprintf(&u, "Do not cut these key cards: %s\n", strings.Join(ictx.ProtectedRoles, "; "))
		}
		if ictx.Budget.IsBudget {
			u.WriteString(budgetLine(ictx.Budget))
		}
		if ictx.UserIntent != "" {
			fmt.Fprintf(&u, "Player goal: %s\n", ictx.UserIntent)
		}
	}
	if profile = strings.TrimSpace(profile); profile != "" {
		fmt.Fprintf(&u, "\nCommander profile:\n%s\n", profile)
	}
	if userMessage = strings.TrimSpace(userMessage); userMessage != "" {
		fmt.Fprintf(&u, "\nUser message: %s\n", userMessage)
	}
	u.WriteString("\nDecklist:\n")
	u.WriteString(b.truncate(deckText))

	return Prompt{System: systemPrompt, User: u.String()}
}

func (b *PromptBuilder) truncate(text string) string {
	text = strings.TrimSpace(text)
	if len(text) <= b.maxDeckChars {
		return text
	}
	cut := b.maxDeckChars
	if nl := strings.LastIndexByte(text[:cut], '\n'); nl > 0 {
		cut = nl
	}
	for cut > 0 && !utf8.RuneStart(text[cut]) {
		cut--
	}
	return text[:cut] + truncationMarker
}

func colorList(colors []string) string {
	if len(colors) == 0 {
		return "colorless"
	}
	return strings.Join(colors, "")
}

func budgetLine(bud inference.Budget) string {
	var parts []string
	if bud.PerCard > 0 {
		parts = append(parts, fmt.Sprintf("at most %.2f %s per card", bud.PerCard, bud.Currency))
	}
	if bud.Total > 0 {
		parts = append(parts, fmt.Sprintf("at most %.2f %s total", bud.Total, bud.Currency))
	}
	if len(parts) == 0 {
		return "Budget: keep recommendations cheap.\n"
	}
	return "Budget: " + strings.Join(parts, ", ") + ".\n"
}

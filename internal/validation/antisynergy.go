package validation

import (
	"fmt"
	"strings"

	"github.com/ramonehamilton/deck-analyst/internal/cards"
	"github.com/ramonehamilton/deck-analyst/internal/curation"
)

// Severity ranks an anti-synergy finding.
type Severity string

const (
	SeveritySevere   Severity = "severe"
	SeverityModerate Severity = "moderate"
	SeverityWarning  Severity = "warning"
	SeverityInfo     Severity = "info"
)

// Finding is one detected anti-synergy.
type Finding struct {
	Severity    Severity `json:"severity"`
	Category    string   `json:"category"`
	Description string   `json:"description"`
	Cards       []string `json:"cards"`
	Suggestion  string   `json:"suggestion,omitempty"`
}

const minETBPayoffsForDoubler = 8

// deckNames indexes decklist names by normalized form.
type deckNames struct {
	names []string
	set   map[string]bool
}

func newDeckNames(names []string) deckNames {
	d := deckNames{set: make(map[string]bool, len(names))}
	for _, n := range names {
		key := cards.Normalize(n)
		if key == "" || d.set[key] {
			continue
		}
		d.set[key] = true
		d.names = append(d.names, n)
	}
	return d
}

func (d deckNames) has(name string) bool {
	return d.set[cards.Normalize(name)]
}

func first(names []string, n int) []string {
	if len(names) > n {
		return names[:n]
	}
	return names
}

// antiSynergyRule inspects the deck and returns a finding or nil.
type antiSynergyRule func(t *curation.Tables, deck deckNames, commander string) *Finding

var antiSynergyRules = []antiSynergyRule{
	graveyardConflict,
	etbConflict,
	etbDensity,
	staxVsCommander,
	nonbasicHate,
	tribalDensity,
	splitFocus,
	phasingInteraction,
	solemnityCombo,
}

// DetectAntiSynergies runs every rule over the decklist names.
func DetectAntiSynergies(t *curation.Tables, names []string, commander string) []Finding {
	deck := newDeckNames(names)
	findings := []Finding{}
	for _, rule := range antiSynergyRules {
		if f := rule(t, deck, commander); f != nil {
			findings = append(findings, *f)
		}
	}
	return findings
}

func graveyardConflict(t *curation.Tables, deck deckNames, _ string) *Finding {
	hate := t.Members(curation.GraveyardHate, deck.names)
	payoffs := t.Members(curation.GraveyardPayoffs, deck.names)
	if len(hate) == 0 || len(payoffs) < 3 {
		return nil
	}
	return &Finding{
		Severity:    SeveritySevere,
		Category:    "Graveyard Conflict",
		Description: "Deck contains graveyard hate alongside significant graveyard synergies",
		Cards:       append(append([]string{}, hate...), first(payoffs, 3)...),
		Suggestion:  "Consider removing graveyard hate or pivoting away from graveyard strategies",
	}
}

func etbConflict(t *curation.Tables, deck deckNames, _ string) *Finding {
	hate := t.Members(curation.ETBHate, deck.names)
	payoffs := t.Members(curation.ETBPayoffs, deck.names)
	if len(hate) == 0 || len(payoffs) < 2 {
		return nil
	}
	return &Finding{
		Severity:    SeverityModerate,
		Category:    "ETB Conflict",
		Description: "ETB hate effects will shut down your own ETB synergies",
		Cards:       append(append([]string{}, hate...), first(payoffs, 3)...),
		Suggestion:  "Remove ETB hate or reduce reliance on ETB triggers",
	}
}

func etbDensity(t *curation.Tables, deck deckNames, _ string) *Finding {
	if !deck.has("Panharmonicon") {
		return nil
	}
	if len(t.Members(curation.ETBPayoffs, deck.names)) >= minETBPayoffsForDoubler {
		return nil
	}
	return &Finding{
		Severity:    SeverityWarning,
		Category:    "Insufficient ETB Density",
		Description: "Panharmonicon in deck but few ETB effects to double",
		Cards:       []string{"Panharmonicon"},
		Suggestion:  "Add more ETB creatures/permanents or consider removing Panharmonicon",
	}
}

func staxVsCommander(t *curation.Tables, deck deckNames, commander string) *Finding {
	stax := t.Members(curation.ManaStax, deck.names)
	if len(stax) == 0 || !t.LooksExpensive(commander) {
		return nil
	}
	return &Finding{
		Severity:    SeverityModerate,
		Category:    "Stax vs Commander",
		Description: "Mana-restricting stax pieces may prevent you from casting your own expensive commander",
		Cards:       stax,
		Suggestion:  "Ensure you have ways to break parity or consider lighter stax pieces",
	}
}

func nonbasicHate(t *curation.Tables, deck deckNames, _ string) *Finding {
	hate := t.Members(curation.NonbasicHate, deck.names)
	if len(hate) == 0 {
		return nil
	}
	return &Finding{
		Severity:    SeverityWarning,
		Category:    "Nonbasic Land Hate",
		Description: "Running nonbasic hate: ensure your manabase can function under it",
		Cards:       hate,
		Suggestion:  "Include enough basic lands to cast spells if Blood Moon resolves",
	}
}

func tribalDensity(t *curation.Tables, deck deckNames, _ string) *Finding {
	payoffs := t.Members(curation.TribalPayoffs, deck.names)
	if len(payoffs) < 2 {
		return nil
	}
	return &Finding{
		Severity:    SeverityInfo,
		Category:    "Tribal Synergies",
		Description: "Deck contains tribal payoffs: ensure creature types are unified",
		Cards:       payoffs,
		Suggestion:  "Verify most creatures share a type for maximum value",
	}
}

func splitFocus(t *curation.Tables, deck deckNames, _ string) *Finding {
	counters := t.Members(curation.CounterPayoffs, deck.names)
	tokens := t.Members(curation.TokenPayoffs, deck.names)
	if len(counters) < 3 || len(tokens) < 3 {
		return nil
	}
	return &Finding{
		Severity:    SeverityInfo,
		Category:    "Split Focus",
		Description: "Deck has both +1/+1 counter and token themes; consider focusing on one",
		Cards:       append(append([]string{}, first(counters, 2)...), first(tokens, 2)...),
		Suggestion:  "Pick a primary strategy for more consistent gameplay",
	}
}

func phasingInteraction(t *curation.Tables, deck deckNames, _ string) *Finding {
	if !deck.has("Teferi's Protection") || len(t.Members(curation.PhasingConflicts, deck.names)) == 0 {
		return nil
	}
	return &Finding{
		Severity:    SeverityWarning,
		Category:    "Phasing Interaction",
		Description: "Teferi's Protection phases you out; phased permanents may behave unexpectedly",
		Cards:       []string{"Teferi's Protection"},
	}
}

func solemnityCombo(t *curation.Tables, deck deckNames, _ string) *Finding {
	if !deck.has("Solemnity") {
		return nil
	}
	creatures := t.Members(curation.PersistUndying, deck.names)
	if len(creatures) == 0 {
		return nil
	}
	return &Finding{
		Severity:    SeverityInfo,
		Category:    "Solemnity Combo",
		Description: "Solemnity creates infinite loops with Persist/Undying creatures",
		Cards:       append([]string{"Solemnity"}, creatures...),
		Suggestion:  "This is a powerful combo; ensure you have a payoff",
	}
}

// Summarize renders a one-line count of findings by severity.
func Summarize(findings []Finding) string {
	if len(findings) == 0 {
		return "No significant anti-synergies detected."
	}
	counts := map[Severity]int{}
	for _, f := range findings {
		counts[f.Severity]++
	}

	var parts []string
	add := func(n int, noun string) {
		if n == 0 {
			return
		}
		if n > 1 {
			noun += "s"
		}
		parts = append(parts, fmt.Sprintf("%d %s", n, noun))
	}
	add(counts[SeveritySevere], "severe conflict")
	add(counts[SeverityModerate], "notable issue")
	add(counts[SeverityWarning], "warning")
	add(counts[SeverityInfo], "note")
	return strings.Join(parts, ", ")
}

package validation

import (
	"fmt"
	"math"
	"regexp"
	"strings"

	"github.com/ramonehamilton/deck-analyst/internal/cards"
)

// DeckCard is a resolved decklist entry.
type DeckCard struct {
	Fact  *cards.CardFact
	Count int
}

// CompanionResult lists the deckbuilding restrictions a deck breaks.
type CompanionResult struct {
	Companion  string   `json:"companion"`
	Valid      bool     `json:"valid"`
	Violations []string `json:"violations"`
}

type companionRule struct {
	key   string
	check func(deck []DeckCard) []string
}

var (
	kaheeraTypes  = []string{"cat", "elemental", "nightmare", "dinosaur", "beast"}
	umoriTypes    = []string{"creature", "artifact", "enchantment", "instant", "sorcery", "planeswalker"}
	activatedCost = regexp.MustCompile(`[{}\w]+\s*:\s*[^/]`)
	manaSymbol    = regexp.MustCompile(`\{[^}]+\}`)
	plainSymbol   = regexp.MustCompile(`^\{[WUBRGC]\}$`)
)

var companionRules = []companionRule{
	{"lurrus", func(deck []DeckCard) []string {
		var out []string
		for _, c := range permanents(deck) {
			if c.Fact.CMC > 2 {
				out = append(out, fmt.Sprintf("%s (CMC %g) - Lurrus requires all permanents CMC ≤ 2", c.Fact.Name, c.Fact.CMC))
			}
		}
		return out
	}},
	{"gyruda", func(deck []DeckCard) []string {
		var out []string
		for _, c := range nonlands(deck) {
			if math.Mod(c.Fact.CMC, 2) != 0 {
				out = append(out, fmt.Sprintf("%s (CMC %g) - Gyruda requires all nonland cards to have even CMC", c.Fact.Name, c.Fact.CMC))
			}
		}
		return out
	}},
	{"obosh", func(deck []DeckCard) []string {
		var out []string
		for _, c := range nonlands(deck) {
			if math.Mod(c.Fact.CMC, 2) == 0 {
				out = append(out, fmt.Sprintf("%s (CMC %g) - Obosh requires all nonland cards to have odd CMC", c.Fact.Name, c.Fact.CMC))
			}
		}
		return out
	}},
	{"kaheera", func(deck []DeckCard) []string {
		var out []string
		for _, c := range deck {
			if !c.Fact.IsCreature() {
				continue
			}
			if !containsAny(strings.ToLower(c.Fact.TypeLine), kaheeraTypes) {
				out = append(out, fmt.Sprintf("%s - Kaheera requires all creatures to be Cat, Elemental, Nightmare, Dinosaur, or Beast", c.Fact.Name))
			}
		}
		return out
	}},
	{"umori", func(deck []DeckCard) []string {
		cardsIn := nonlands(deck)
		if len(cardsIn) == 0 {
			return nil
		}
		for _, typ := range umoriTypes {
			shared := true
			for _, c := range cardsIn {
				if !strings.Contains(strings.ToLower(c.Fact.TypeLine), typ) {
					shared = false
					break
				}
			}
			if shared {
				return nil
			}
		}
		return []string{fmt.Sprintf("Umori requires all nonland cards to share a card type - no single type is present on all %d nonland cards", len(cardsIn))}
	}},
	{"yorion", func(deck []DeckCard) []string {
		total := 0
		for _, c := range deck {
			total += c.Count
		}
		if total < 80 {
			return []string{fmt.Sprintf("Deck has %d cards - Yorion requires at least 80 cards", total)}
		}
		return nil
	}},
	{"zirda", func(deck []DeckCard) []string {
		var out []string
		for _, c := range permanents(deck) {
			text := c.Fact.Text()
			if !activatedCost.MatchString(text) && !strings.Contains(text, ": add") {
				out = append(out, fmt.Sprintf("%s - Zirda requires all permanents to have activated abilities", c.Fact.Name))
			}
		}
		return out
	}},
	{"keruga", func(deck []DeckCard) []string {
		var out []string
		for _, c := range nonlands(deck) {
			if c.Fact.CMC < 3 {
				out = append(out, fmt.Sprintf("%s (CMC %g) - Keruga requires all nonland cards CMC ≥ 3", c.Fact.Name, c.Fact.CMC))
			}
		}
		return out
	}},
	{"jegantha", func(deck []DeckCard) []string {
		var out []string
		for _, c := range deck {
			seen := map[string]int{}
			for _, sym := range manaSymbol.FindAllString(strings.ToUpper(c.Fact.ManaCost), -1) {
				if plainSymbol.MatchString(sym) {
					seen[sym]++
				}
			}
			for _, n := range seen {
				if n > 1 {
					out = append(out, fmt.Sprintf("%s (%s) - Jegantha forbids repeated mana symbols in costs", c.Fact.Name, c.Fact.ManaCost))
					break
				}
			}
		}
		return out
	}},
	{"lutri", func(deck []DeckCard) []string {
		var out []string
		counts := map[string]int{}
		var order []string
		for _, c := range nonlands(deck) {
			key := cards.Normalize(c.Fact.Name)
			if counts[key] == 0 {
				order = append(order, c.Fact.Name)
			}
			counts[key] += c.Count
		}
		for _, name := range order {
			if n := counts[cards.Normalize(name)]; n > 1 {
				out = append(out, fmt.Sprintf("%s appears %d times - Lutri requires each nonland card to have a different name", name, n))
			}
		}
		return out
	}},
}

func findCompanionRule(name string) (companionRule, bool) {
	key := cards.Normalize(name)
	for _, r := range companionRules {
		if strings.Contains(key, r.key) {
			return r, true
		}
	}
	return companionRule{}, false
}

// IsCompanion reports whether name is one of the known companions.
func IsCompanion(name string) bool {
	_, ok := findCompanionRule(name)
	return ok
}

// ValidateCompanion checks deck against the named companion's restriction.
// Unknown companions always pass.
func ValidateCompanion(name string, deck []DeckCard) CompanionResult {
	res := CompanionResult{Companion: name, Valid: true, Violations: []string{}}
	rule, ok := findCompanionRule(name)
	if !ok {
		return res
	}

	var filtered []DeckCard
	for _, c := range deck {
		if c.Fact != nil {
			filtered = append(filtered, c)
		}
	}
	if v := rule.check(filtered); len(v) > 0 {
		res.Violations = v
		res.Valid = false
	}
	return res
}

func nonlands(deck []DeckCard) []DeckCard {
	var out []DeckCard
	for _, c := range deck {
		if !c.Fact.IsLand() {
			out = append(out, c)
		}
	}
	return out
}

func permanents(deck []DeckCard) []DeckCard {
	var out []DeckCard
	for _, c := range deck {
		if containsAny(strings.ToLower(c.Fact.TypeLine), []string{"creature", "artifact", "enchantment", "planeswalker"}) {
			out = append(out, c)
		}
	}
	return out
}

func containsAny(s string, subs []string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

// Package cards resolves card names to oracle facts through a memory tier,
// a persistent SQLite tier and the Scryfall API.
package cards

import (
	"strings"

	"github.com/ramonehamilton/deck-analyst/internal/cards/scryfall"
)

// CardFact is the minimal card data the analyzer reasons over.
type CardFact struct {
	Name          string            `json:"name"`
	TypeLine      string            `json:"type_line"`
	OracleText    *string           `json:"oracle_text"`
	ColorIdentity []string          `json:"color_identity"`
	CMC           float64           `json:"cmc"`
	ManaCost      string            `json:"mana_cost"`
	Legalities    map[string]string `json:"legalities"`
}

// BasicLandNames are the basic land types, including Wastes.
var BasicLandNames = []string{"Plains", "Island", "Swamp", "Mountain", "Forest", "Wastes"}

// FromScryfall converts an API card into a CardFact. Multi-faced cards
// without top-level text or cost use their first face.
func FromScryfall(c *scryfall.Card) *CardFact {
	fact := &CardFact{
		Name:          c.Name,
		TypeLine:      c.TypeLine,
		OracleText:    c.OracleText,
		ColorIdentity: append([]string{}, c.ColorIdentity...),
		CMC:           c.CMC,
		ManaCost:      c.ManaCost,
		Legalities:    make(map[string]string, len(c.Legalities)),
	}
	for format, status := range c.Legalities {
		fact.Legalities[strings.ToLower(format)] = status
	}
	if len(c.CardFaces) > 0 {
		face := c.CardFaces[0]
		if fact.OracleText == nil && face.OracleText != nil {
			text := *face.OracleText
			fact.OracleText = &text
		}
		if fact.ManaCost == "" {
			fact.ManaCost = face.ManaCost
		}
		if fact.TypeLine == "" {
			fact.TypeLine = face.TypeLine
		}
	}
	return fact
}

// Text returns the lowercased oracle text, or "" when the card has none.
func (c *CardFact) Text() string {
	if c == nil || c.OracleText == nil {
		return ""
	}
	return strings.ToLower(*c.OracleText)
}

func (c *CardFact) typeLine() string {
	return strings.ToLower(c.TypeLine)
}

func (c *CardFact) IsLand() bool {
	return strings.Contains(c.typeLine(), "land")
}

// IsBasicLand reports whether the card is a basic land by type or name.
func (c *CardFact) IsBasicLand() bool {
	if strings.Contains(c.typeLine(), "basic land") {
		return true
	}
	for _, basic := range BasicLandNames {
		if strings.EqualFold(c.Name, basic) {
			return true
		}
	}
	return false
}

func (c *CardFact) IsCreature() bool {
	return strings.Contains(c.typeLine(), "creature")
}

func (c *CardFact) IsLegendary() bool {
	return strings.Contains(c.typeLine(), "legendary")
}

func (c *CardFact) IsInstant() bool {
	return strings.Contains(c.typeLine(), "instant")
}

// CanBeCommander reports whether the card is a legendary creature or a
// legendary permanent whose text allows it to lead a deck.
func (c *CardFact) CanBeCommander() bool {
	if !c.IsLegendary() {
		return false
	}
	return c.IsCreature() || strings.Contains(c.Text(), "can be your commander")
}

// HasPartner reports whether the card carries a Partner marker.
func (c *CardFact) HasPartner() bool {
	return strings.Contains(c.Text(), "partner")
}

// Legality returns the card's status in format ("" when unknown).
func (c *CardFact) Legality(format string) string {
	if c.Legalities == nil {
		return ""
	}
	return c.Legalities[strings.ToLower(format)]
}

// IsColorless reports whether the card has an empty color identity.
func (c *CardFact) IsColorless() bool {
	return len(c.ColorIdentity) == 0
}

package inference

import (
	"strings"

	"github.com/ramonehamilton/deck-analyst/internal/cards"
	"github.com/ramonehamilton/deck-analyst/internal/deck"
)

// cardView is the lowercased, classifier-facing projection of one entry.
type cardView struct {
	name     string // lowercased display name
	text     string
	typeLine string
	cmc      float64
	count    int
	basic    bool
	fact     *cards.CardFact
}

func newCardView(e deck.Entry, fact *cards.CardFact) cardView {
	return cardView{
		name:     strings.ToLower(e.Name),
		text:     fact.Text(),
		typeLine: strings.ToLower(fact.TypeLine),
		cmc:      fact.CMC,
		count:    e.Count,
		basic:    fact.IsBasicLand(),
		fact:     fact,
	}
}

func (v cardView) isLand() bool {
	return strings.Contains(v.typeLine, "land")
}

// resolvedEntry pairs a decklist entry with its card fact.
type resolvedEntry struct {
	entry deck.Entry
	view  cardView
}

// resolveEntries keeps the entries whose facts are known, in order.
func resolveEntries(entries []deck.Entry, facts map[string]*cards.CardFact) []resolvedEntry {
	out := make([]resolvedEntry, 0, len(entries))
	for _, e := range entries {
		fact := facts[cards.Normalize(e.Name)]
		if fact == nil {
			continue
		}
		out = append(out, resolvedEntry{entry: e, view: newCardView(e, fact)})
	}
	return out
}

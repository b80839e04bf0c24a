package inference

import (
	"context"
	"sync"

	"github.com/ramonehamilton/deck-analyst/internal/cards"
	"github.com/ramonehamilton/deck-analyst/internal/deck"
)

func text(s string) *string { return &s }

func card(name, typeLine, oracle, cost string, cmc float64, identity ...string) *cards.CardFact {
	f := &cards.CardFact{
		Name:          name,
		TypeLine:      typeLine,
		ManaCost:      cost,
		CMC:           cmc,
		ColorIdentity: identity,
		Legalities:    map[string]string{},
	}
	if oracle != "" {
		f.OracleText = text(oracle)
	}
	return f
}

var (
	solRing     = card("Sol Ring", "Artifact", "{T}: Add {C}{C}.", "{1}", 1)
	island      = card("Island", "Basic Land — Island", "", "", 0, "U")
	counterspel = card("Counterspell", "Instant", "Counter target spell.", "{U}{U}", 2, "U")
	talrand     = card("Talrand, Sky Summoner", "Legendary Creature — Merfolk Wizard",
		"Flying\nWhenever you cast an instant or sorcery spell, create a 2/2 blue Drake creature token with flying.",
		"{2}{U}{U}", 4, "U")
)

// fakeResolver serves facts from a map and counts calls.
type fakeResolver struct {
	mu      sync.Mutex
	facts   map[string]*cards.CardFact
	batches int
}

func newFakeResolver(facts ...*cards.CardFact) *fakeResolver {
	r := &fakeResolver{facts: make(map[string]*cards.CardFact)}
	for _, f := range facts {
		r.facts[cards.Normalize(f.Name)] = f
	}
	return r
}

func (r *fakeResolver) Resolve(_ context.Context, name string) *cards.CardFact {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.facts[cards.Normalize(name)]
}

func (r *fakeResolver) ResolveBatch(_ context.Context, names []string) map[string]*cards.CardFact {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.batches++
	out := make(map[string]*cards.CardFact)
	for _, n := range names {
		key := cards.Normalize(n)
		if f, ok := r.facts[key]; ok {
			out[key] = f
		}
	}
	return out
}

// resolved builds resolved entries for facts, each with the given count.
func resolved(count int, facts ...*cards.CardFact) []resolvedEntry {
	out := make([]resolvedEntry, 0, len(facts))
	for _, f := range facts {
		e := deck.Entry{Count: count, Name: f.Name, Section: deck.SectionMain}
		out = append(out, resolvedEntry{entry: e, view: newCardView(e, f)})
	}
	return out
}

func entry(count int, f *cards.CardFact) resolvedEntry {
	return resolved(count, f)[0]
}

package validation

import (
	"context"

	"github.com/ramonehamilton/deck-analyst/internal/cards"
	"github.com/ramonehamilton/deck-analyst/internal/curation"
)

type fakeResolver struct {
	facts  map[string]*cards.CardFact
	errors map[string]error
}

func newFakeResolver(facts ...*cards.CardFact) *fakeResolver {
	r := &fakeResolver{facts: map[string]*cards.CardFact{}, errors: map[string]error{}}
	for _, f := range facts {
		r.facts[cards.Normalize(f.Name)] = f
	}
	return r
}

func (r *fakeResolver) ResolveDetailed(_ context.Context, name string) (*cards.CardFact, error) {
	key := cards.Normalize(name)
	if err, ok := r.errors[key]; ok {
		return nil, err
	}
	if f, ok := r.facts[key]; ok {
		return f, nil
	}
	return nil, cards.ErrCardNotFound
}

func (r *fakeResolver) ResolveBatch(_ context.Context, names []string) map[string]*cards.CardFact {
	out := map[string]*cards.CardFact{}
	for _, n := range names {
		if f, ok := r.facts[cards.Normalize(n)]; ok {
			out[cards.Normalize(n)] = f
		}
	}
	return out
}

type staticTables struct{ t *curation.Tables }

func (s staticTables) Tables() *curation.Tables { return s.t }

func text(s string) *string { return &s }

func fact(name, typeLine, cost string, cmc float64, identity ...string) *cards.CardFact {
	return &cards.CardFact{
		Name:          name,
		TypeLine:      typeLine,
		ManaCost:      cost,
		CMC:           cmc,
		ColorIdentity: identity,
		Legalities:    map[string]string{"commander": "legal", "modern": "legal", "pioneer": "not_legal"},
	}
}

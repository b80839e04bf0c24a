package analysis

import (
	"context"
	"strings"
	"sync"

	"github.com/ramonehamilton/deck-analyst/internal/llm"
	"github.com/ramonehamilton/deck-analyst/internal/validation"
)

const validBlock = `{
  "commander_name": "Talrand, Sky Summoner",
  "archetype": "spellslinger",
  "game_plan": "Chain cheap instants into drakes.",
  "problems": ["Too few counterspells"],
  "synergy_chains": ["Talrand + Opt makes a drake per spell"],
  "recommendations": [
    {"card_name": "Opt", "reason": "cheap cantrip"},
    {"card_name": "Ponder", "reason": "selection"},
    {"card_name": "Brainstorm", "reason": "instant draw"}
  ]
}`

func reply(prose string) string {
	return "```json\n" + validBlock + "\n```\n" + prose
}

type scripted struct {
	text string
	err  error
}

// fakeGenerator returns scripted replies in order, repeating the last one.
type fakeGenerator struct {
	mu      sync.Mutex
	replies []scripted
	calls   [][]llm.Message
	opts    []llm.Options
}

func (g *fakeGenerator) Generate(_ context.Context, messages []llm.Message, opts llm.Options) (*llm.Response, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	idx := len(g.calls)
	g.calls = append(g.calls, messages)
	g.opts = append(g.opts, opts)
	if idx >= len(g.replies) {
		idx = len(g.replies) - 1
	}
	r := g.replies[idx]
	if r.err != nil {
		return nil, r.err
	}
	return &llm.Response{Text: r.text, Model: opts.Model}, nil
}

func (g *fakeGenerator) callCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.calls)
}

func (g *fakeGenerator) systemPrompt(call int) string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.calls[call][0].Content
}

// proseValidator passes prose containing "GOOD" and fails everything else
// with one error per occurrence of "BAD".
type proseValidator struct {
	seen []string
}

func (v *proseValidator) Validate(_ context.Context, prose string, _ *validation.Structured, _ validation.Context) *validation.Result {
	v.seen = append(v.seen, prose)
	res := &validation.Result{Errors: []string{}, Warnings: []string{}, AntiSynergies: []validation.Finding{}}
	if !strings.Contains(prose, "GOOD") {
		res.Errors = append(res.Errors, "No synergy chains explained")
		for i := 0; i < strings.Count(prose, "BAD"); i++ {
			res.Errors = append(res.Errors, "Hallucinated card: Fake Card (not found in Scryfall)")
		}
	}
	res.Valid = len(res.Errors) == 0
	return res
}

package validation

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ramonehamilton/deck-analyst/internal/curation"
)

const talrandProse = "Talrand, Sky Summoner leads a spellslinger deck. The main problem is too few cheap cantrips. " +
	"Talrand triggers off every instant, a synergy chain that turns spells into Drake tokens."

func talrandContext() Context {
	return Context{
		Format:    "Commander",
		Commander: "Talrand, Sky Summoner",
		Colors:    []string{"U"},
		DeckText:  "1 Talrand, Sky Summoner\n1 Counterspell\n",
	}
}

func completeStructured(recs ...string) *Structured {
	s := &Structured{
		CommanderName: "Talrand, Sky Summoner",
		Archetype:     "spellslinger",
		GamePlan:      "Chain cheap spells into a Drake army.",
		Problems:      []string{"Too few cantrips"},
		SynergyChains: []string{"Talrand + cheap instants"},
	}
	for _, r := range recs {
		s.Recommendations = append(s.Recommendations, Recommendation{CardName: r, Reason: "fits"})
	}
	return s
}

func newTestValidator(r *fakeResolver) *Validator {
	return NewValidator(r, staticTables{curation.Default()}, nil, nil)
}

func baseResolver() *fakeResolver {
	dockside := fact("Dockside Extortionist", "Creature — Goblin Pirate", "{1}{R}", 2, "R")
	dockside.Legalities["commander"] = "banned"
	return newFakeResolver(
		fact("Ponder", "Sorcery", "{U}", 1, "U"),
		fact("Brainstorm", "Instant", "{U}", 1, "U"),
		fact("Sol Ring", "Artifact", "{1}", 1),
		fact("Lightning Bolt", "Instant", "{R}", 1, "R"),
		fact("Counterspell", "Instant", "{U}{U}", 2, "U"),
		dockside,
	)
}

func TestValidate_CleanAnalysis(t *testing.T) {
	v := newTestValidator(baseResolver())

	res := v.Validate(context.Background(), talrandProse, completeStructured("Ponder", "Brainstorm", "Sol Ring"), talrandContext())

	assert.True(t, res.Valid)
	assert.Empty(t, res.Errors)
	assert.Empty(t, res.Warnings)
	assert.Empty(t, res.AntiSynergies)
}

func TestValidate_BannedRecommendation(t *testing.T) {
	v := newTestValidator(baseResolver())

	res := v.Validate(context.Background(), talrandProse, completeStructured("Ponder", "Brainstorm", "Dockside Extortionist"), Context{
		Format:    "Commander",
		Commander: "Talrand, Sky Summoner",
		Colors:    []string{"U", "R"},
		DeckText:  "1 Counterspell\n",
	})

	assert.False(t, res.Valid)
	assert.Contains(t, res.Errors, "Banned card: Dockside Extortionist (banned in Commander)")
}

func TestValidate_RecommendationFailures(t *testing.T) {
	r := baseResolver()
	r.errors["brainstorm"] = errors.New("timeout")
	v := newTestValidator(r)

	res := v.Validate(context.Background(), talrandProse, completeStructured("Totally Fake Card", "Lightning Bolt", "Brainstorm", " "), talrandContext())

	assert.False(t, res.Valid)
	assert.Contains(t, res.Errors, "Hallucinated card: Totally Fake Card (not found in Scryfall)")
	assert.Contains(t, res.Errors, "Off-color recommendation: Lightning Bolt (not in U color identity)")
	assert.Contains(t, res.Errors, "Recommendation missing card_name")
	assert.Contains(t, res.Warnings, "Could not validate card Brainstorm: timeout")
	assert.Len(t, res.Errors, 3)
}

func TestValidate_StrictFormatLegality(t *testing.T) {
	v := newTestValidator(baseResolver())
	vctx := Context{Format: "Pioneer", Colors: []string{"U"}}

	res := v.Validate(context.Background(), talrandProse, completeStructured("Ponder", "Brainstorm", "Counterspell"), vctx)

	assert.Contains(t, res.Errors, "Illegal card: Ponder (not legal in Pioneer)")
	assert.Len(t, res.Errors, 3)
}

func TestValidate_MissingStructuredOutput(t *testing.T) {
	v := newTestValidator(baseResolver())

	res := v.Validate(context.Background(), "Nice deck.", nil, Context{Format: "Commander"})

	assert.False(t, res.Valid)
	assert.Equal(t, []string{
		"Missing JSON output",
		"No archetype identified in response",
		"No problems-first analysis found",
		"No synergy chains explained",
	}, res.Errors)
}

func TestValidate_StructuredFieldsSatisfyProseChecks(t *testing.T) {
	v := newTestValidator(baseResolver())
	s := completeStructured("Ponder", "Brainstorm", "Sol Ring")

	res := v.Validate(context.Background(), "Talrand, Sky Summoner is great here.", s, talrandContext())

	assert.True(t, res.Valid, res.Errors)
}

func TestValidate_IncompleteStructure(t *testing.T) {
	v := newTestValidator(baseResolver())

	res := v.Validate(context.Background(), talrandProse, &Structured{Archetype: "spellslinger"}, talrandContext())

	assert.Equal(t, []string{
		"Missing commander_name in JSON",
		"Missing game_plan description",
		"Missing problems-first analysis (must list at least one problem)",
		"Missing synergy chains (must provide at least one synergy chain)",
		"Missing recommendations (must provide at least 3 legal card recommendations)",
	}, res.Errors)
}

func TestValidate_ProseWarnings(t *testing.T) {
	v := newTestValidator(baseResolver())
	s := completeStructured("Ponder", "Brainstorm", "Sol Ring")

	res := v.Validate(context.Background(), "You need more ramp and draw and removal. Run 2 ramp pieces and 60 lands.", s, talrandContext())

	assert.True(t, res.Valid, "warnings never block")
	assert.Contains(t, res.Warnings, "Commander name not mentioned in text response")
	assert.Contains(t, res.Warnings, "Response appears to be generic pillar-only output without specific analysis")
	assert.Contains(t, res.Warnings, "Potentially contradictory number: 2 ramp")
	assert.Contains(t, res.Warnings, "Potentially contradictory number: 60 lands")
}

func TestValidate_SevereAntiSynergyBecomesWarning(t *testing.T) {
	v := newTestValidator(baseResolver())
	vctx := talrandContext()
	vctx.DeckText = "1 Rest in Peace\n1 Reanimate\n1 Animate Dead\n1 Living Death\n"

	res := v.Validate(context.Background(), talrandProse, completeStructured("Ponder", "Brainstorm", "Sol Ring"), vctx)

	require.True(t, res.Valid)
	require.Len(t, res.AntiSynergies, 1)
	assert.Equal(t, SeveritySevere, res.AntiSynergies[0].Severity)
	assert.Contains(t, res.Warnings,
		"Anti-synergy: Deck contains graveyard hate alongside significant graveyard synergies (Rest in Peace, Reanimate, Animate Dead)")
}

func TestValidate_CompanionViolationsAreWarnings(t *testing.T) {
	r := baseResolver()
	r.facts["wurmcoil engine"] = fact("Wurmcoil Engine", "Artifact Creature — Phyrexian Wurm", "{6}", 6)
	v := newTestValidator(r)
	vctx := talrandContext()
	vctx.DeckText = "Deck\n1 Sol Ring\n1 Wurmcoil Engine\n\nSideboard\n1 Lurrus of the Dream-Den\n"

	res := v.Validate(context.Background(), talrandProse, completeStructured("Ponder", "Brainstorm", "Sol Ring"), vctx)

	assert.True(t, res.Valid)
	assert.Contains(t, res.Warnings,
		"Companion Lurrus of the Dream-Den: Wurmcoil Engine (CMC 6) - Lurrus requires all permanents CMC ≤ 2")
}

// Package validation checks generated deck analyses against card legality,
// color identity, curated ban lists and content requirements, and detects
// anti-synergies in the decklist itself.
package validation

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/ramonehamilton/deck-analyst/internal/cards"
	"github.com/ramonehamilton/deck-analyst/internal/curation"
	"github.com/ramonehamilton/deck-analyst/internal/deck"
	"github.com/ramonehamilton/deck-analyst/internal/logging"
	"github.com/ramonehamilton/deck-analyst/internal/metrics"
)

// MinRecommendations is the number of recommendations an analysis must carry.
const MinRecommendations = 3

// Pillar-only phrasing is only flagged in replies shorter than this.
const genericMaxLength = 300

// Recommendation is one suggested card.
type Recommendation struct {
	CardName string `json:"card_name"`
	Reason   string `json:"reason"`
}

// Structured is the fenced JSON block of a generated analysis.
type Structured struct {
	CommanderName   string           `json:"commander_name"`
	Archetype       string           `json:"archetype"`
	GamePlan        string           `json:"game_plan"`
	Problems        []string         `json:"problems"`
	SynergyChains   []string         `json:"synergy_chains"`
	Recommendations []Recommendation `json:"recommendations"`
}

// Context is what the validator knows independently of the generator.
type Context struct {
	Format    string   `json:"format" validate:"omitempty,oneof=Commander Modern Pioneer Standard Brawl"`
	Commander string   `json:"commander,omitempty"`
	Colors    []string `json:"colors"`
	DeckText  string   `json:"deck_text"`
}

// Result is the outcome of validating one analysis. Valid is false iff
// Errors is non-empty.
type Result struct {
	Valid         bool      `json:"valid"`
	Errors        []string  `json:"errors"`
	Warnings      []string  `json:"warnings"`
	AntiSynergies []Finding `json:"anti_synergies"`
}

func (r *Result) addError(format string, args ...any) {
	r.Errors = append(r.Errors, fmt.Sprintf(format, args...))
}

func (r *Result) addWarning(format string, args ...any) {
	r.Warnings = append(r.Warnings, fmt.Sprintf(format, args...))
}

// CardResolver is the subset of cards.Resolver the validator needs.
type CardResolver interface {
	ResolveDetailed(ctx context.Context, name string) (*cards.CardFact, error)
	ResolveBatch(ctx context.Context, names []string) map[string]*cards.CardFact
}

// TablesSource supplies the current curated tables.
type TablesSource interface {
	Tables() *curation.Tables
}

// Validator validates generated analyses.
type Validator struct {
	resolver CardResolver
	tables   TablesSource
	logger   *zap.Logger
	metrics  *metrics.Metrics
}

// NewValidator creates a validator. m may be nil.
func NewValidator(resolver CardResolver, tables TablesSource, logger *zap.Logger, m *metrics.Metrics) *Validator {
	return &Validator{
		resolver: resolver,
		tables:   tables,
		logger:   logging.OrNop(logger),
		metrics:  m,
	}
}

var (
	archetypeKeywords = []string{
		"token", "aristocrats", "landfall", "blink", "voltron", "graveyard", "recursion",
		"spellslinger", "control", "combo", "stax", "midrange", "aggro", "ramp",
	}
	problemKeywords = []string{"problem", "issue", "weakness", "missing", "lack", "too few", "struggles"}
	synergyKeywords = []string{"synergy", "works with", "triggers", "enables", "payoff", "chain", "loop", "combo"}

	genericPillar = []*regexp.Regexp{
		regexp.MustCompile(`(?i)(?:ramp|draw|removal|wincons?)(?:\s+and\s+(?:ramp|draw|removal|wincons?)){2,}`),
		regexp.MustCompile(`(?i)you need (?:more|some) (?:ramp|draw|removal|wincons?)`),
	}
	numericClaims = []struct {
		re       *regexp.Regexp
		min, max int
	}{
		{regexp.MustCompile(`(?i)(\d+)\s*ramp`), 4, 20},
		{regexp.MustCompile(`(?i)(\d+)\s*lands`), 20, 50},
	}
)

// Validate checks prose and the parsed block (nil when missing) against vctx.
func (v *Validator) Validate(ctx context.Context, prose string, s *Structured, vctx Context) *Result {
	res := &Result{Errors: []string{}, Warnings: []string{}, AntiSynergies: []Finding{}}
	tables := v.tables.Tables()

	if s == nil {
		res.addError("Missing JSON output")
	} else {
		v.checkStructure(res, s, vctx)
		v.checkRecommendations(ctx, res, tables, s.Recommendations, vctx)
	}
	checkProse(res, prose, s, vctx)

	list := deck.Parse(vctx.DeckText)
	names := list.Names()
	res.AntiSynergies = DetectAntiSynergies(tables, names, vctx.Commander)
	for _, f := range res.AntiSynergies {
		v.metrics.AntiSynergy(string(f.Severity))
		if f.Severity == SeveritySevere {
			res.addWarning("Anti-synergy: %s (%s)", f.Description, strings.Join(first(f.Cards, 3), ", "))
		}
	}
	v.checkCompanion(ctx, res, list)

	res.Valid = len(res.Errors) == 0
	v.metrics.ValidationErrors(len(res.Errors))
	return res
}

func (v *Validator) checkStructure(res *Result, s *Structured, vctx Context) {
	if strings.TrimSpace(s.CommanderName) == "" && vctx.Commander != "" {
		res.addError("Missing commander_name in JSON")
	}
	if strings.TrimSpace(s.Archetype) == "" {
		res.addError("Missing archetype identification")
	}
	if strings.TrimSpace(s.GamePlan) == "" {
		res.addError("Missing game_plan description")
	}
	if len(s.Problems) == 0 {
		res.addError("Missing problems-first analysis (must list at least one problem)")
	}
	if len(s.SynergyChains) == 0 {
		res.addError("Missing synergy chains (must provide at least one synergy chain)")
	}
	if len(s.Recommendations) < MinRecommendations {
		res.addError("Missing recommendations (must provide at least %d legal card recommendations)", MinRecommendations)
	}
}

func (v *Validator) checkRecommendations(ctx context.Context, res *Result, tables *curation.Tables, recs []Recommendation, vctx Context) {
	allowed := make(map[string]bool, len(vctx.Colors))
	for _, c := range vctx.Colors {
		allowed[strings.ToUpper(c)] = true
	}
	allowedLabel := "C"
	if len(vctx.Colors) > 0 {
		upper := make([]string, len(vctx.Colors))
		for i, c := range vctx.Colors {
			upper[i] = strings.ToUpper(c)
		}
		allowedLabel = strings.Join(upper, "/")
	}
	format := vctx.Format
	if format == "" {
		format = "Commander"
	}

	for _, rec := range recs {
		name := strings.TrimSpace(rec.CardName)
		if name == "" {
			res.addError("Recommendation missing card_name")
			continue
		}

		fact, err := v.resolver.ResolveDetailed(ctx, name)
		switch {
		case errors.Is(err, cards.ErrCardNotFound):
			res.addError("Hallucinated card: %s (not found in Scryfall)", name)
			continue
		case err != nil:
			v.logger.Warn("Could not validate card", zap.String("card", name), zap.Error(err))
			res.addWarning("Could not validate card %s: %v", name, err)
			continue
		}

		if !withinIdentity(fact, allowed) {
			res.addError("Off-color recommendation: %s (not in %s color identity)", name, allowedLabel)
		}
		if !legalIn(fact, format) {
			res.addError("Illegal card: %s (not legal in %s)", name, format)
		}
		if tables.IsBanned(format, fact.Name) {
			res.addError("Banned card: %s (banned in %s)", name, format)
		}
	}
}

// withinIdentity reports whether every color of fact is allowed.
// Colorless cards always pass.
func withinIdentity(fact *cards.CardFact, allowed map[string]bool) bool {
	for _, c := range fact.ColorIdentity {
		if !allowed[strings.ToUpper(c)] {
			return false
		}
	}
	return true
}

// legalIn treats Commander as permissive (anything not banned) and other
// formats as strict.
func legalIn(fact *cards.CardFact, format string) bool {
	switch strings.ToLower(format) {
	case "commander", "edh":
		return fact.Legality("commander") != "banned"
	}
	status := fact.Legality(format)
	return status == "legal" || status == "restricted"
}

func checkProse(res *Result, prose string, s *Structured, vctx Context) {
	lower := strings.ToLower(prose)

	if vctx.Commander != "" && !strings.Contains(lower, strings.ToLower(vctx.Commander)) {
		res.addWarning("Commander name not mentioned in text response")
	}
	if !containsAny(lower, archetypeKeywords) && (s == nil || strings.TrimSpace(s.Archetype) == "") {
		res.addError("No archetype identified in response")
	}
	if !containsAny(lower, problemKeywords) && (s == nil || len(s.Problems) == 0) {
		res.addError("No problems-first analysis found")
	}
	if !containsAny(lower, synergyKeywords) && (s == nil || len(s.SynergyChains) == 0) {
		res.addError("No synergy chains explained")
	}

	if len(prose) < genericMaxLength {
		for _, re := range genericPillar {
			if re.MatchString(prose) {
				res.addWarning("Response appears to be generic pillar-only output without specific analysis")
				break
			}
		}
	}

	for _, claim := range numericClaims {
		m := claim.re.FindStringSubmatch(prose)
		if m == nil {
			continue
		}
		n, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}
		if n < claim.min || n > claim.max {
			res.addWarning("Potentially contradictory number: %s", m[0])
		}
	}
}

// checkCompanion validates a listed companion against the main deck.
// Violations are warnings.
func (v *Validator) checkCompanion(ctx context.Context, res *Result, list *deck.Decklist) {
	var companion string
	for _, e := range append(append([]deck.Entry{}, list.Sideboard...), list.Entries...) {
		if IsCompanion(e.Name) {
			companion = e.Name
			break
		}
	}
	if companion == "" {
		return
	}

	var names []string
	for _, e := range list.Entries {
		if !strings.EqualFold(e.Name, companion) {
			names = append(names, e.Name)
		}
	}
	facts := v.resolver.ResolveBatch(ctx, names)

	deckCards := make([]DeckCard, 0, len(names))
	for _, e := range list.Entries {
		if strings.EqualFold(e.Name, companion) {
			continue
		}
		deckCards = append(deckCards, DeckCard{Fact: facts[cards.Normalize(e.Name)], Count: e.Count})
	}

	result := ValidateCompanion(companion, deckCards)
	for _, violation := range result.Violations {
		res.addWarning("Companion %s: %s", companion, violation)
	}
}

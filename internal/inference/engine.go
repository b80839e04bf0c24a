// Package inference derives structured deck context (commander, colors,
// format, curve, manabase, roles, archetype, power and budget) from a
// decklist and the user's free text.
package inference

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"

	"github.com/ramonehamilton/deck-analyst/internal/cards"
	"github.com/ramonehamilton/deck-analyst/internal/deck"
	"github.com/ramonehamilton/deck-analyst/internal/logging"
)

// ErrEmptyDecklist is returned when a request has no readable entries.
var ErrEmptyDecklist = errors.New("decklist has no entries")

// CardResolver is the subset of cards.Resolver the engine needs.
type CardResolver interface {
	Resolve(ctx context.Context, name string) *cards.CardFact
	ResolveBatch(ctx context.Context, names []string) map[string]*cards.CardFact
}

// Request is the input to Infer. Entries takes precedence over DeckText.
type Request struct {
	DeckText    string
	Entries     []deck.Entry
	UserMessage string
	Format      Format
	Commander   string
	Colors      []string
	Plan        Plan
	Currency    string
}

// InferredContext is everything the analyzer knows about a deck before
// generation. It is not modified after Infer returns.
type InferredContext struct {
	Commander             string           `json:"commander,omitempty"`
	Partner               string           `json:"partner,omitempty"`
	CommanderOracleText   string           `json:"commander_oracle_text,omitempty"`
	CommanderProvidesRamp bool             `json:"commander_provides_ramp"`
	Colors                []string         `json:"colors"`
	Format                Format           `json:"format"`
	TotalCards            int              `json:"total_cards"`
	LandCount             int              `json:"land_count"`
	ExistingRampCount     int              `json:"existing_ramp_count"`
	Curve                 CurveAnalysis    `json:"curve"`
	Manabase              ManabaseAnalysis `json:"manabase"`
	Roles                 RoleDistribution `json:"roles"`
	Archetype             Archetype        `json:"archetype,omitempty"`
	ArchetypeScore        int              `json:"archetype_score"`
	ProtectedRoles        []string         `json:"protected_roles"`
	PowerLevel            PowerLevel       `json:"power_level"`
	Budget                Budget           `json:"budget"`
	UserIntent            string           `json:"user_intent,omitempty"`
	Unresolved            []string         `json:"unresolved,omitempty"`
}

// Engine runs context inference.
type Engine struct {
	resolver CardResolver
	cache    *Cache
	logger   *zap.Logger
}

// EngineOption customizes an Engine.
type EngineOption func(*Engine)

// WithCache enables result caching.
func WithCache(c *Cache) EngineOption {
	return func(e *Engine) { e.cache = c }
}

func WithLogger(logger *zap.Logger) EngineOption {
	return func(e *Engine) { e.logger = logging.OrNop(logger) }
}

// NewEngine creates an engine that resolves cards through resolver.
func NewEngine(resolver CardResolver, opts ...EngineOption) *Engine {
	e := &Engine{resolver: resolver, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Infer builds the context for req. Card lookup failures only reduce what
// can be inferred; the only error is an empty decklist.
func (e *Engine) Infer(ctx context.Context, req Request) (*InferredContext, error) {
	list := &deck.Decklist{Entries: req.Entries}
	if len(list.Entries) == 0 {
		list = deck.Parse(req.DeckText)
	}
	if len(list.Entries) == 0 {
		return nil, ErrEmptyDecklist
	}

	key := CacheKey(list.NormalizedText(), req.Commander, req.Format, req.UserMessage, req.Plan, req.Colors, req.Currency)
	if e.cache != nil {
		if cached, ok := e.cache.Get(key); ok {
			return cached, nil
		}
	}

	out := e.infer(ctx, list, req)
	if e.cache != nil {
		e.cache.Put(key, out)
	}
	return out, nil
}

func (e *Engine) infer(ctx context.Context, list *deck.Decklist, req Request) *InferredContext {
	names := list.Names()
	commanderName := req.Commander
	if commanderName == "" {
		commanderName = commanderFromMessage(req.UserMessage)
	}
	if commanderName == "" {
		commanderName = list.CommanderHint()
	}
	if commanderName != "" {
		names = append(names, commanderName)
	}

	facts := e.resolver.ResolveBatch(ctx, names)
	entries := resolveEntries(list.Entries, facts)

	out := &InferredContext{
		TotalCards:     list.TotalCount(),
		ProtectedRoles: []string{},
	}
	for _, en := range list.Entries {
		if facts[cards.Normalize(en.Name)] == nil {
			out.Unresolved = append(out.Unresolved, en.Name)
		}
	}
	if len(out.Unresolved) > 0 {
		e.logger.Debug("Unresolved decklist entries", zap.Strings("cards", out.Unresolved))
	}

	// The first entry is a commander candidate only when nothing named one.
	if commanderName == "" && len(entries) > 0 {
		first := entries[0]
		if first.entry.Name == list.Entries[0].Name && first.entry.Count == 1 && first.view.fact.CanBeCommander() {
			commanderName = first.entry.Name
		}
	}

	var commander *cards.CardFact
	if commanderName != "" {
		commander = facts[cards.Normalize(commanderName)]
		if commander == nil {
			commander = e.resolver.Resolve(ctx, commanderName)
		}
	}

	var colors []string
	if commander != nil {
		out.Commander = commander.Name
		colors = append(colors, commander.ColorIdentity...)
		texts := []string{oracleText(commander)}
		if partner := findPartner(commander, entries); partner != nil {
			out.Partner = partner.Name
			colors = append(colors, partner.ColorIdentity...)
			texts = append(texts, oracleText(partner))
		}
		out.CommanderOracleText = strings.Join(texts, "\n")
		out.CommanderProvidesRamp = commanderProvidesRamp(strings.ToLower(out.CommanderOracleText))
	}

	switch {
	case len(req.Colors) > 0:
		out.Colors = sortColors(req.Colors)
	case commander != nil:
		out.Colors = sortColors(colors)
	}
	if len(out.Colors) == 0 {
		out.Colors = deckColors(entries)
	}
	if len(out.Colors) == 0 {
		out.Colors = colorsFromMessage(req.UserMessage)
	}
	if out.Colors == nil {
		out.Colors = []string{}
	}

	for _, re := range entries {
		if re.view.isLand() {
			out.LandCount += re.entry.Count
		}
	}

	out.Format = detectFormat(out.TotalCards, out.Commander, req.Format, req.UserMessage)

	out.Manabase = analyzeManabase(entries)
	out.Curve = analyzeCurve(entries)
	out.Curve.TightManabase = out.Manabase.Tight

	out.Roles = analyzeRoles(entries, out.Commander)
	out.ExistingRampCount = nonlandRampCount(out.Roles)

	arch := detectArchetype(entries, strings.ToLower(out.CommanderOracleText))
	out.Archetype = arch.Archetype
	out.ArchetypeScore = arch.Score
	out.ProtectedRoles = arch.ProtectedRoles

	out.PowerLevel = detectPowerLevel(req.UserMessage, out.Curve.HighEndCount, out.Curve.AverageCMC)
	out.Budget = detectBudget(req.UserMessage, req.Plan, req.Currency)
	out.UserIntent = extractUserIntent(req.UserMessage)
	return out
}

func oracleText(f *cards.CardFact) string {
	if f.OracleText == nil {
		return ""
	}
	return *f.OracleText
}

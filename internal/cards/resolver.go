package cards

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/ramonehamilton/deck-analyst/internal/cards/scryfall"
	"github.com/ramonehamilton/deck-analyst/internal/logging"
	"github.com/ramonehamilton/deck-analyst/internal/metrics"
	"github.com/ramonehamilton/deck-analyst/internal/storage/repository"
)

// ErrCardNotFound is returned by ResolveDetailed when the card source
// has no card with the requested name.
var ErrCardNotFound = errors.New("card not found")

// Source fetches cards from the external card database.
type Source interface {
	GetCardByName(ctx context.Context, name string) (*scryfall.Card, error)
	GetCardsByNames(ctx context.Context, names []string) ([]scryfall.Card, []string, error)
}

// ResolverConfig holds configuration for the resolver tiers.
type ResolverConfig struct {
	// MemorySize is the maximum number of facts held in memory.
	MemorySize int

	// MemoryTTL bounds how long a fact stays in memory.
	MemoryTTL time.Duration

	// StaleAfter is the age at which a persisted fact is refetched.
	StaleAfter time.Duration
}

// DefaultResolverConfig returns a ResolverConfig with sensible defaults.
func DefaultResolverConfig() ResolverConfig {
	return ResolverConfig{
		MemorySize: 10000,
		MemoryTTL:  24 * time.Hour,
		StaleAfter: 30 * 24 * time.Hour,
	}
}

// Resolver turns card names into CardFacts. It never surfaces source or
// storage failures through Resolve or ResolveBatch; callers get whatever
// could be resolved.
type Resolver struct {
	source  Source
	store   repository.CardCacheRepository
	memory  *expirable.LRU[string, *CardFact]
	group   singleflight.Group
	config  ResolverConfig
	logger  *zap.Logger
	metrics *metrics.Metrics
	now     func() time.Time
}

// ResolverOption customizes a Resolver.
type ResolverOption func(*Resolver)

// WithStore enables the persistent tier.
func WithStore(store repository.CardCacheRepository) ResolverOption {
	return func(r *Resolver) { r.store = store }
}

func WithLogger(logger *zap.Logger) ResolverOption {
	return func(r *Resolver) { r.logger = logging.OrNop(logger) }
}

func WithMetrics(m *metrics.Metrics) ResolverOption {
	return func(r *Resolver) { r.metrics = m }
}

// NewResolver creates a resolver over source.
func NewResolver(source Source, config ResolverConfig, opts ...ResolverOption) *Resolver {
	def := DefaultResolverConfig()
	if config.MemorySize <= 0 {
		config.MemorySize = def.MemorySize
	}
	if config.MemoryTTL <= 0 {
		config.MemoryTTL = def.MemoryTTL
	}
	if config.StaleAfter <= 0 {
		config.StaleAfter = def.StaleAfter
	}

	r := &Resolver{
		source: source,
		memory: expirable.NewLRU[string, *CardFact](config.MemorySize, nil, config.MemoryTTL),
		config: config,
		logger: zap.NewNop(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve returns the fact for name, or nil when it cannot be resolved.
func (r *Resolver) Resolve(ctx context.Context, name string) *CardFact {
	fact, _ := r.ResolveDetailed(ctx, name)
	return fact
}

// ResolveDetailed is Resolve with the reason for a miss: ErrCardNotFound
// when the source has no such card, another error on transient failure.
func (r *Resolver) ResolveDetailed(ctx context.Context, name string) (*CardFact, error) {
	key := Normalize(name)
	if key == "" {
		return nil, ErrCardNotFound
	}

	if fact, ok := r.memory.Get(key); ok {
		r.metrics.CardLookup("memory", "hit")
		return fact, nil
	}

	v, err, _ := r.group.Do(key, func() (any, error) {
		return r.resolveSlow(ctx, key, name)
	})
	if err != nil {
		return nil, err
	}
	return v.(*CardFact), nil
}

func (r *Resolver) resolveSlow(ctx context.Context, key, name string) (*CardFact, error) {
	var stale *CardFact
	if row := r.loadRow(ctx, key); row != nil {
		if r.fresh(row) {
			fact := factFromRow(row)
			r.memory.Add(key, fact)
			r.metrics.CardLookup("store", "hit")
			return fact, nil
		}
		stale = factFromRow(row)
	}

	card, err := r.source.GetCardByName(ctx, name)
	r.metrics.CardFetch("named", err)
	if err != nil {
		if scryfall.IsNotFound(err) {
			r.metrics.CardLookup("source", "not_found")
			return nil, ErrCardNotFound
		}
		r.logger.Warn("card source lookup failed", zap.String("card", name), zap.Error(err))
		if stale != nil {
			r.metrics.CardLookup("store", "stale")
			return stale, nil
		}
		r.metrics.CardLookup("source", "error")
		return nil, err
	}

	fact := FromScryfall(card)
	r.persist(ctx, map[string]*CardFact{key: fact})
	r.memory.Add(key, fact)
	r.metrics.CardLookup("source", "hit")
	return fact, nil
}

// ResolveBatch resolves many names at once and returns the facts keyed by
// normalized name. Names that could not be resolved are absent.
func (r *Resolver) ResolveBatch(ctx context.Context, names []string) map[string]*CardFact {
	result := make(map[string]*CardFact, len(names))

	pending := make(map[string]string) // normalized -> first display form
	var order []string
	for _, name := range names {
		key := Normalize(name)
		if key == "" {
			continue
		}
		if _, seen := result[key]; seen {
			continue
		}
		if _, seen := pending[key]; seen {
			continue
		}
		if fact, ok := r.memory.Get(key); ok {
			r.metrics.CardLookup("memory", "hit")
			result[key] = fact
			continue
		}
		pending[key] = strings.TrimSpace(name)
		order = append(order, key)
	}
	if len(pending) == 0 {
		return result
	}

	stale := make(map[string]*CardFact)
	if r.store != nil {
		rows, err := r.store.GetMany(ctx, order)
		if err != nil {
			r.logger.Warn("card store batch read failed", zap.Int("count", len(order)), zap.Error(err))
		}
		for key, row := range rows {
			fact := factFromRow(row)
			if r.fresh(row) {
				r.memory.Add(key, fact)
				r.metrics.CardLookup("store", "hit")
				result[key] = fact
				delete(pending, key)
				continue
			}
			stale[key] = fact
		}
	}
	if len(pending) == 0 {
		return result
	}

	var query []string
	for _, key := range order {
		if display, ok := pending[key]; ok {
			query = append(query, display)
		}
	}

	fetched, notFound, err := r.source.GetCardsByNames(ctx, query)
	r.metrics.CardFetch("collection", err)
	if err != nil {
		r.logger.Warn("card source batch lookup failed",
			zap.Int("requested", len(query)), zap.Int("received", len(fetched)), zap.Error(err))
	}
	if len(notFound) > 0 {
		r.logger.Debug("cards not found", zap.Strings("names", notFound))
	}

	fresh := make(map[string]*CardFact, len(fetched))
	for i := range fetched {
		fact := FromScryfall(&fetched[i])
		for _, key := range matchKeys(&fetched[i]) {
			if _, wanted := pending[key]; wanted {
				fresh[key] = fact
			}
		}
	}
	r.persist(ctx, fresh)

	for key := range pending {
		if fact, ok := fresh[key]; ok {
			r.memory.Add(key, fact)
			r.metrics.CardLookup("source", "hit")
			result[key] = fact
		} else if fact, ok := stale[key]; ok {
			r.metrics.CardLookup("store", "stale")
			result[key] = fact
		} else {
			r.metrics.CardLookup("source", "miss")
		}
	}
	return result
}

// Prune deletes persisted facts older than age.
func (r *Resolver) Prune(ctx context.Context, age time.Duration) (int64, error) {
	if r.store == nil {
		return 0, nil
	}
	return r.store.DeleteOlderThan(ctx, r.now().Add(-age))
}

// matchKeys lists the normalized names a fetched card answers to: its full
// name and, for multi-faced cards, each face.
func matchKeys(c *scryfall.Card) []string {
	keys := []string{Normalize(c.Name)}
	for _, part := range strings.Split(c.Name, "//") {
		keys = append(keys, Normalize(part))
	}
	for _, face := range c.CardFaces {
		keys = append(keys, Normalize(face.Name))
	}
	return keys
}

func (r *Resolver) fresh(row *repository.CardCacheRow) bool {
	return r.now().Sub(row.UpdatedAt) < r.config.StaleAfter
}

func (r *Resolver) loadRow(ctx context.Context, key string) *repository.CardCacheRow {
	if r.store == nil {
		return nil
	}
	row, err := r.store.Get(ctx, key)
	if err != nil {
		r.logger.Warn("card store read failed", zap.String("normalized", key), zap.Error(err))
		return nil
	}
	return row
}

// persist writes facts to the store. Failures are logged; the facts are
// still served from memory.
func (r *Resolver) persist(ctx context.Context, facts map[string]*CardFact) {
	if r.store == nil || len(facts) == 0 {
		return
	}
	now := r.now()
	rows := make([]*repository.CardCacheRow, 0, len(facts))
	for key, fact := range facts {
		rows = append(rows, rowFromFact(key, fact, now))
	}
	if err := r.store.UpsertMany(ctx, rows); err != nil {
		r.logger.Warn("card store write failed", zap.Int("count", len(rows)), zap.Error(err))
	}
}

func factFromRow(row *repository.CardCacheRow) *CardFact {
	return &CardFact{
		Name:          row.DisplayName,
		TypeLine:      row.TypeLine,
		OracleText:    row.OracleText,
		ColorIdentity: row.ColorIdentity,
		CMC:           row.CMC,
		ManaCost:      row.ManaCost,
		Legalities:    row.Legalities,
	}
}

func rowFromFact(key string, fact *CardFact, now time.Time) *repository.CardCacheRow {
	return &repository.CardCacheRow{
		Name:          key,
		DisplayName:   fact.Name,
		TypeLine:      fact.TypeLine,
		OracleText:    fact.OracleText,
		ColorIdentity: fact.ColorIdentity,
		CMC:           fact.CMC,
		ManaCost:      fact.ManaCost,
		Legalities:    fact.Legalities,
		UpdatedAt:     now,
	}
}

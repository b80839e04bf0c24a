package cards

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ramonehamilton/deck-analyst/internal/cards/scryfall"
	"github.com/ramonehamilton/deck-analyst/internal/storage"
	"github.com/ramonehamilton/deck-analyst/internal/storage/repository"
)

type fakeSource struct {
	mu         sync.Mutex
	cards      map[string]scryfall.Card
	namedCalls atomic.Int32
	batchCalls atomic.Int32
	batchSizes []int
	failNamed  error
	failBatch  error
	delay      time.Duration
}

func newFakeSource(cards ...scryfall.Card) *fakeSource {
	f := &fakeSource{cards: make(map[string]scryfall.Card)}
	for _, c := range cards {
		f.cards[Normalize(c.Name)] = c
		for _, face := range c.CardFaces {
			f.cards[Normalize(face.Name)] = c
		}
	}
	return f
}

func (f *fakeSource) GetCardByName(ctx context.Context, name string) (*scryfall.Card, error) {
	f.namedCalls.Add(1)
	if f.delay > 0 {
		time.Sleep(f.delay)
	}
	if f.failNamed != nil {
		return nil, f.failNamed
	}
	c, ok := f.cards[Normalize(name)]
	if !ok {
		return nil, &scryfall.NotFoundError{URL: name}
	}
	return &c, nil
}

func (f *fakeSource) GetCardsByNames(ctx context.Context, names []string) ([]scryfall.Card, []string, error) {
	f.batchCalls.Add(1)
	f.mu.Lock()
	f.batchSizes = append(f.batchSizes, len(names))
	f.mu.Unlock()

	var found []scryfall.Card
	var missing []string
	for i, name := range names {
		if f.failBatch != nil && i >= 1 {
			return found, missing, f.failBatch
		}
		if c, ok := f.cards[Normalize(name)]; ok {
			found = append(found, c)
		} else {
			missing = append(missing, name)
		}
	}
	return found, missing, nil
}

type failingStore struct {
	repository.CardCacheRepository
}

func (failingStore) Get(context.Context, string) (*repository.CardCacheRow, error) {
	return nil, errors.New("disk on fire")
}

func (failingStore) GetMany(context.Context, []string) (map[string]*repository.CardCacheRow, error) {
	return nil, errors.New("disk on fire")
}

func (failingStore) UpsertMany(context.Context, []*repository.CardCacheRow) error {
	return errors.New("read-only filesystem")
}

func solRing() scryfall.Card {
	return scryfall.Card{Name: "Sol Ring", TypeLine: "Artifact", CMC: 1, ManaCost: "{1}",
		OracleText: text("{T}: Add {C}{C}."), ColorIdentity: []string{}, Legalities: map[string]string{"commander": "legal"}}
}

func counterspell() scryfall.Card {
	return scryfall.Card{Name: "Counterspell", TypeLine: "Instant", CMC: 2, ManaCost: "{U}{U}",
		OracleText: text("Counter target spell."), ColorIdentity: []string{"U"}}
}

func openStore(t *testing.T) repository.CardCacheRepository {
	db, err := storage.Open(storage.DefaultConfig(":memory:"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db.Cards()
}

func TestResolver_TierOrder(t *testing.T) {
	src := newFakeSource(solRing())
	store := openStore(t)
	ctx := context.Background()

	r := NewResolver(src, DefaultResolverConfig(), WithStore(store))
	fact := r.Resolve(ctx, "sol  RING")
	require.NotNil(t, fact)
	assert.Equal(t, "Sol Ring", fact.Name)
	assert.Equal(t, int32(1), src.namedCalls.Load())

	// Memory hit.
	require.NotNil(t, r.Resolve(ctx, "Sol Ring"))
	assert.Equal(t, int32(1), src.namedCalls.Load())

	// A new resolver with the same store is served from the persistent tier.
	r2 := NewResolver(src, DefaultResolverConfig(), WithStore(store))
	require.NotNil(t, r2.Resolve(ctx, "Sol Ring"))
	assert.Equal(t, int32(1), src.namedCalls.Load())
}

func TestResolver_StaleRowRefetched(t *testing.T) {
	src := newFakeSource(solRing())
	store := openStore(t)
	ctx := context.Background()

	require.NoError(t, store.Upsert(ctx, &repository.CardCacheRow{
		Name: "sol ring", DisplayName: "Sol Ring", TypeLine: "Old Type",
		UpdatedAt: time.Now().Add(-31 * 24 * time.Hour),
	}))

	r := NewResolver(src, DefaultResolverConfig(), WithStore(store))
	fact := r.Resolve(ctx, "Sol Ring")
	require.NotNil(t, fact)
	assert.Equal(t, "Artifact", fact.TypeLine)
	assert.Equal(t, int32(1), src.namedCalls.Load())

	row, err := store.Get(ctx, "sol ring")
	require.NoError(t, err)
	assert.Equal(t, "Artifact", row.TypeLine)
	assert.WithinDuration(t, time.Now(), row.UpdatedAt, time.Minute)
}

func TestResolver_StaleRowServedWhenSourceDown(t *testing.T) {
	src := newFakeSource()
	src.failNamed = errors.New("connection refused")
	store := openStore(t)
	ctx := context.Background()

	require.NoError(t, store.Upsert(ctx, &repository.CardCacheRow{
		Name: "sol ring", DisplayName: "Sol Ring", TypeLine: "Artifact",
		UpdatedAt: time.Now().Add(-60 * 24 * time.Hour),
	}))

	fact := NewResolver(src, DefaultResolverConfig(), WithStore(store)).Resolve(ctx, "Sol Ring")
	require.NotNil(t, fact)
	assert.Equal(t, "Artifact", fact.TypeLine)
}

func TestResolver_NotFound(t *testing.T) {
	r := NewResolver(newFakeSource(), DefaultResolverConfig())

	assert.Nil(t, r.Resolve(context.Background(), "Hallucinated Dragon"))

	_, err := r.ResolveDetailed(context.Background(), "Hallucinated Dragon")
	assert.ErrorIs(t, err, ErrCardNotFound)

	_, err = r.ResolveDetailed(context.Background(), "   ")
	assert.ErrorIs(t, err, ErrCardNotFound)
}

func TestResolver_TransientErrorIsNotNotFound(t *testing.T) {
	src := newFakeSource(solRing())
	src.failNamed = errors.New("timeout")

	fact, err := NewResolver(src, DefaultResolverConfig()).ResolveDetailed(context.Background(), "Sol Ring")
	assert.Nil(t, fact)
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrCardNotFound)
}

func TestResolver_StoreFailuresAreSwallowed(t *testing.T) {
	src := newFakeSource(solRing(), counterspell())
	r := NewResolver(src, DefaultResolverConfig(), WithStore(failingStore{}))
	ctx := context.Background()

	require.NotNil(t, r.Resolve(ctx, "Sol Ring"))

	facts := r.ResolveBatch(ctx, []string{"Counterspell"})
	assert.Contains(t, facts, "counterspell")
}

func TestResolver_ConcurrentLookupsCollapse(t *testing.T) {
	src := newFakeSource(solRing())
	src.delay = 50 * time.Millisecond
	r := NewResolver(src, DefaultResolverConfig())

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NotNil(t, r.Resolve(context.Background(), "Sol Ring"))
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), src.namedCalls.Load())
}

func TestResolver_ResolveBatch(t *testing.T) {
	delver := scryfall.Card{Name: "Delver of Secrets // Insectile Aberration", ColorIdentity: []string{"U"},
		CardFaces: []scryfall.CardFace{{Name: "Delver of Secrets"}, {Name: "Insectile Aberration"}}}
	src := newFakeSource(solRing(), counterspell(), delver)
	store := openStore(t)
	ctx := context.Background()

	r := NewResolver(src, DefaultResolverConfig(), WithStore(store))
	require.NotNil(t, r.Resolve(ctx, "Sol Ring"))

	facts := r.ResolveBatch(ctx, []string{"Sol Ring", "Counterspell", "counterspell", "Delver of Secrets", "Made Up Card"})
	assert.Len(t, facts, 3)
	assert.Contains(t, facts, "delver of secrets")
	assert.NotContains(t, facts, "made up card")

	// Only the two uncached names go to the source, in one request.
	assert.Equal(t, []int{3}, src.batchSizes)

	n, err := store.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, n)
}

func TestResolver_ResolveBatchKeepsPartialResults(t *testing.T) {
	src := newFakeSource(solRing(), counterspell())
	src.failBatch = errors.New("socket closed")
	store := openStore(t)
	ctx := context.Background()

	facts := NewResolver(src, DefaultResolverConfig(), WithStore(store)).ResolveBatch(ctx, []string{"Sol Ring", "Counterspell"})
	assert.Len(t, facts, 1)
	assert.Contains(t, facts, "sol ring")

	row, err := store.Get(ctx, "sol ring")
	require.NoError(t, err)
	assert.NotNil(t, row)
}

func TestResolver_Prune(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()
	require.NoError(t, store.Upsert(ctx, &repository.CardCacheRow{Name: "old", DisplayName: "Old", UpdatedAt: time.Now().Add(-90 * 24 * time.Hour)}))

	removed, err := NewResolver(newFakeSource(), DefaultResolverConfig(), WithStore(store)).Prune(ctx, 30*24*time.Hour)
	require.NoError(t, err)
	assert.Equal(t, int64(1), removed)

	removed, err = NewResolver(newFakeSource(), DefaultResolverConfig()).Prune(ctx, time.Hour)
	require.NoError(t, err)
	assert.Zero(t, removed)
}

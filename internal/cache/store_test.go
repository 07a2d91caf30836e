package cache_test

import (
	"context"
	"testing"
	"time"

	"bookshelf/internal/cache"
	"bookshelf/internal/catalog"
	"bookshelf/internal/resource"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingStore struct {
	resource.Store
	gets, lists int
}

func (c *countingStore) Get(ctx context.Context, id int64) (resource.Attrs, error) {
	c.gets++
	return c.Store.Get(ctx, id)
}

func (c *countingStore) List(ctx context.Context, q resource.Query) ([]resource.Attrs, int, error) {
	c.lists++
	return c.Store.List(ctx, q)
}

func setup(t *testing.T) (*cache.Store, *cache.Store, *countingStore, *countingStore) {
	t.Helper()
	stores := catalog.MemoryStores()
	backend := cache.NewLRU(128, time.Minute)
	rawBooks := &countingStore{Store: stores.Books}
	rawHeroes := &countingStore{Store: stores.Heroes}
	heroes := cache.NewStore(rawHeroes, catalog.HeroSchema(stores.Books), backend)
	books := cache.NewStore(rawBooks, catalog.BookSchema(heroes), backend, catalog.Heroes)
	return books, heroes, rawBooks, rawHeroes
}

func TestGetIsCachedUntilWrite(t *testing.T) {
	books, _, raw, _ := setup(t)
	ctx := context.Background()
	pub := time.Date(1963, 1, 1, 0, 0, 0, 0, time.UTC)

	created, err := books.Insert(ctx, resource.Attrs{"btitle": "连城诀", "bpub_date": pub})
	require.NoError(t, err)
	id := created.ID()

	first, err := books.Get(ctx, id)
	require.NoError(t, err)
	second, err := books.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, 1, raw.gets)
	assert.Equal(t, first, second)
	assert.Equal(t, pub, second["bpub_date"])
	assert.Equal(t, int64(0), second["bread"])
	assert.Equal(t, false, second["is_delete"])

	_, err = books.Update(ctx, id, resource.Attrs{"bread": int64(7)})
	require.NoError(t, err)
	third, err := books.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, 2, raw.gets)
	assert.Equal(t, int64(7), third["bread"])
}

func TestMissesAreNotCached(t *testing.T) {
	books, _, raw, _ := setup(t)
	ctx := context.Background()

	_, err := books.Get(ctx, 42)
	assert.ErrorIs(t, err, resource.ErrNotFound)
	_, err = books.Get(ctx, 42)
	assert.ErrorIs(t, err, resource.ErrNotFound)
	assert.Equal(t, 2, raw.gets)
}

func TestListCachedPerQuery(t *testing.T) {
	books, heroes, _, rawHeroes := setup(t)
	ctx := context.Background()

	book, err := books.Insert(ctx, resource.Attrs{"btitle": "连城诀", "bpub_date": time.Now().UTC()})
	require.NoError(t, err)
	_, err = heroes.Insert(ctx, resource.Attrs{"hname": "狄云", "hbook": book.ID()})
	require.NoError(t, err)

	q := resource.Query{Filters: map[string]any{"hbook": book.ID()}, Ordering: []resource.Order{{Field: "id"}}}
	items, total, err := heroes.List(ctx, q)
	require.NoError(t, err)
	require.Equal(t, 1, total)
	again, _, err := heroes.List(ctx, q)
	require.NoError(t, err)
	assert.Equal(t, 1, rawHeroes.lists)
	assert.Equal(t, items, again)
	assert.Equal(t, book.ID(), again[0]["hbook"])

	_, _, err = heroes.List(ctx, resource.Query{})
	require.NoError(t, err)
	assert.Equal(t, 2, rawHeroes.lists)

	// deleting the book cascades; the dependent hero entries must go too
	require.NoError(t, books.Delete(ctx, book.ID()))
	_, total, err = heroes.List(ctx, q)
	require.NoError(t, err)
	assert.Zero(t, total)
}

func TestLRUDeletePrefix(t *testing.T) {
	ctx := context.Background()
	lru := cache.NewLRU(8, time.Minute)
	require.NoError(t, lru.Set(ctx, "books:get:1", []byte("a")))
	require.NoError(t, lru.Set(ctx, "heroes:get:1", []byte("b")))

	require.NoError(t, lru.DeletePrefix(ctx, "books:"))
	_, ok, _ := lru.Get(ctx, "books:get:1")
	assert.False(t, ok)
	v, ok, _ := lru.Get(ctx, "heroes:get:1")
	assert.True(t, ok)
	assert.Equal(t, []byte("b"), v)
}

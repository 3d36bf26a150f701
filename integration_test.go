package ptcorm

import (
	"context"
	"testing"

	"github.com/FxRayHughes/ptcorm/cache"
	"github.com/FxRayHughes/ptcorm/query"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type account struct {
	ID    int64  `db:"id,pk,auto"`
	Name  string `db:"name"`
	Email string `db:"email,key"`
	Tags  []string
}

type profile struct {
	ID      int64    `db:"id,pk,auto"`
	Account *account `db:"account_id,link"`
	Bio     string   `db:"bio"`
}

func openMemory(t *testing.T) *DataSource {
	t.Helper()
	ds, err := Open("", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { ds.Close() })
	return ds
}

func TestAccountLifecycle(t *testing.T) {
	ds := openMemory(t)
	ctx := context.Background()

	m, err := NewMapper[account](ds, nil)
	require.NoError(t, err)

	a := &account{Name: "Ada", Email: "ada@example.com", Tags: []string{"admin", "founder"}}
	require.NoError(t, m.Insert(ctx, a))
	require.NotZero(t, a.ID)

	found, err := m.FindById(ctx, a.ID)
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, "Ada", found.Name)
	assert.Equal(t, "ada@example.com", found.Email)
	assert.ElementsMatch(t, []string{"admin", "founder"}, found.Tags)

	found.Name = "Ada Lovelace"
	require.NoError(t, m.Update(ctx, found))

	reFound, err := m.FindById(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, "Ada Lovelace", reFound.Name)

	exists, err := m.Exists(ctx, a.ID)
	require.NoError(t, err)
	assert.True(t, exists)

	all, err := m.FindAll(ctx, query.EqF("email", "ada@example.com"))
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, a.ID, all[0].ID)

	require.NoError(t, m.DeleteById(ctx, a.ID))
	gone, err := m.FindById(ctx, a.ID)
	require.NoError(t, err)
	assert.Nil(t, gone)
}

func TestAccountUpsert(t *testing.T) {
	ds := openMemory(t)
	ctx := context.Background()

	m, err := NewMapper[account](ds, nil)
	require.NoError(t, err)

	a := &account{ID: 1, Name: "Grace", Email: "grace@example.com"}
	require.NoError(t, m.Upsert(ctx, a))

	found, err := m.FindById(ctx, int64(1))
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, "Grace", found.Name)

	a.Name = "Grace Hopper"
	require.NoError(t, m.Upsert(ctx, a))

	reFound, err := m.FindById(ctx, int64(1))
	require.NoError(t, err)
	assert.Equal(t, "Grace Hopper", reFound.Name)
}

func TestProfileLinkCascade(t *testing.T) {
	ds := openMemory(t)
	ctx := context.Background()

	mp, err := NewMapper[profile](ds, nil)
	require.NoError(t, err)

	p := &profile{Account: &account{Name: "Linus", Email: "linus@example.com"}, Bio: "kernel hacker"}
	require.NoError(t, mp.Insert(ctx, p))
	require.NotZero(t, p.ID)
	require.NotZero(t, p.Account.ID)

	found, err := mp.FindById(ctx, p.ID)
	require.NoError(t, err)
	require.NotNil(t, found)
	require.NotNil(t, found.Account)
	assert.Equal(t, "Linus", found.Account.Name)
	assert.Equal(t, "kernel hacker", found.Bio)
}

func TestAccountListAccessor(t *testing.T) {
	ds := openMemory(t)
	ctx := context.Background()

	m, err := NewMapper[account](ds, nil)
	require.NoError(t, err)

	a := &account{Name: "Margaret", Email: "margaret@example.com"}
	require.NoError(t, m.Insert(ctx, a))

	list, err := ListOf[account, string](m, a.ID, "Tags")
	require.NoError(t, err)

	require.NoError(t, list.Add(ctx, "engineer"))
	require.NoError(t, list.Add(ctx, "speaker"))
	values, err := list.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"engineer", "speaker"}, values)

	require.NoError(t, list.InsertAt(ctx, 0, "leader"))
	values, err = list.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"leader", "engineer", "speaker"}, values)

	require.NoError(t, list.RemoveAt(ctx, 1))
	values, err = list.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"leader", "speaker"}, values)
}

func TestMapperWithCacheHitsBeanCache(t *testing.T) {
	ds := openMemory(t)
	ctx := context.Background()

	m, err := NewMapper[account](ds, nil)
	require.NoError(t, err)
	m.WithCache(CacheConfig{Beans: cache.Config{MaxSize: 10}, Queries: cache.Config{MaxSize: 10}})

	a := &account{Name: "Katherine", Email: "katherine@example.com"}
	require.NoError(t, m.Insert(ctx, a))

	first, err := m.FindById(ctx, a.ID)
	require.NoError(t, err)
	require.NotNil(t, first)

	second, err := m.FindById(ctx, a.ID)
	require.NoError(t, err)
	require.Same(t, first, second)

	require.NoError(t, m.Update(ctx, &account{ID: a.ID, Name: "Katherine Johnson", Email: a.Email}))
	third, err := m.FindById(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, "Katherine Johnson", third.Name)
	assert.NotSame(t, first, third)
}

func TestMapperWithCacheServesAndInvalidatesQueryCache(t *testing.T) {
	ds := openMemory(t)
	ctx := context.Background()

	m, err := NewMapper[account](ds, nil)
	require.NoError(t, err)
	m.WithCache(CacheConfig{Beans: cache.Config{MaxSize: 10}, Queries: cache.Config{MaxSize: 10}})

	a := &account{Name: "Grace", Email: "grace@example.com"}
	require.NoError(t, m.Insert(ctx, a))

	first, err := m.FindAll(ctx, query.EqF("name", "Grace"))
	require.NoError(t, err)
	require.Len(t, first, 1)

	second, err := m.FindAll(ctx, query.EqF("name", "Grace"))
	require.NoError(t, err)
	require.Len(t, second, 1)
	assert.Same(t, first[0], second[0], "a repeated query should be served from the query cache")

	b := &account{Name: "Grace", Email: "hopper@example.com"}
	require.NoError(t, m.Insert(ctx, b))

	third, err := m.FindAll(ctx, query.EqF("name", "Grace"))
	require.NoError(t, err)
	assert.Len(t, third, 2, "a write should invalidate the query cache rather than serving the stale result")
}

// TestDeleteByKeyEvictsOnlyItsOwnKeyFromTheBeanCache guards against
// DeleteByKey over-clearing the whole bean cache: a keyed probe that
// carries its primary key should evict only that key, leaving other
// cached beans servable.
func TestDeleteByKeyEvictsOnlyItsOwnKeyFromTheBeanCache(t *testing.T) {
	ds := openMemory(t)
	ctx := context.Background()

	m, err := NewMapper[account](ds, nil)
	require.NoError(t, err)
	m.WithCache(CacheConfig{Beans: cache.Config{MaxSize: 10}, Queries: cache.Config{MaxSize: 10}})

	a := &account{Name: "Ada", Email: "ada@example.com"}
	require.NoError(t, m.Insert(ctx, a))
	b := &account{Name: "Grace", Email: "grace2@example.com"}
	require.NoError(t, m.Insert(ctx, b))

	cachedA, err := m.FindById(ctx, a.ID)
	require.NoError(t, err)
	require.NotNil(t, cachedA)
	cachedB, err := m.FindById(ctx, b.ID)
	require.NoError(t, err)

	require.NoError(t, m.DeleteByKey(ctx, a))

	stillCachedB, err := m.FindById(ctx, b.ID)
	require.NoError(t, err)
	assert.Same(t, cachedB, stillCachedB, "deleting a by key should not evict b's cached bean")

	gone, err := m.FindById(ctx, a.ID)
	require.NoError(t, err)
	assert.Nil(t, gone, "a should actually be deleted")
}

package ptcorm

import (
	"context"
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type tagged2 struct {
	ID     int64 `db:"id,pk,auto"`
	Perms  Set[string]
	Scores map[string]int64
}

func TestDecodeScalarRoundTrip(t *testing.T) {
	cases := []struct {
		in   reflect.Value
		elem reflect.Type
	}{
		{reflect.ValueOf("hello"), reflect.TypeOf("")},
		{reflect.ValueOf(int(42)), reflect.TypeOf(int(0))},
		{reflect.ValueOf(int64(-7)), reflect.TypeOf(int64(0))},
		{reflect.ValueOf(uint(3)), reflect.TypeOf(uint(0))},
		{reflect.ValueOf(3.5), reflect.TypeOf(float64(0))},
		{reflect.ValueOf(true), reflect.TypeOf(true)},
	}
	for _, c := range cases {
		s := encodeScalar(c.in)
		got, err := decodeScalar(s, c.elem)
		require.NoError(t, err)
		assert.Equal(t, c.in.Interface(), got.Interface())
	}
}

func TestDecodeScalarUnsupportedType(t *testing.T) {
	_, err := decodeScalar("x", reflect.TypeOf(struct{}{}))
	assert.Error(t, err)
}

func TestSetAccessorAddIsIdempotent(t *testing.T) {
	ds := openMemory(t)
	ctx := context.Background()

	m, err := NewMapper[tagged2](ds, nil)
	require.NoError(t, err)

	e := &tagged2{}
	require.NoError(t, m.Insert(ctx, e))

	set, err := SetOf[tagged2, string](m, e.ID, "Perms")
	require.NoError(t, err)

	require.NoError(t, set.Add(ctx, "read"))
	require.NoError(t, set.Add(ctx, "write"))
	require.NoError(t, set.Add(ctx, "read")) // duplicate, should be a no-op

	values, err := set.Values(ctx)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"read", "write"}, values)

	contains, err := set.Contains(ctx, "write")
	require.NoError(t, err)
	assert.True(t, contains)

	require.NoError(t, set.Remove(ctx, "write"))
	values, err = set.Values(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"read"}, values)
}

func TestMapAccessorPutReplacesExistingValue(t *testing.T) {
	ds := openMemory(t)
	ctx := context.Background()

	m, err := NewMapper[tagged2](ds, nil)
	require.NoError(t, err)

	e := &tagged2{}
	require.NoError(t, m.Insert(ctx, e))

	mapAcc, err := MapOf[tagged2, int64](m, e.ID, "Scores")
	require.NoError(t, err)

	require.NoError(t, mapAcc.Put(ctx, "alice", 10))
	require.NoError(t, mapAcc.Put(ctx, "bob", 20))
	require.NoError(t, mapAcc.Put(ctx, "alice", 99))

	v, ok, err := mapAcc.Get(ctx, "alice")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, int64(99), v)

	keys, err := mapAcc.Keys(ctx)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"alice", "bob"}, keys)

	require.NoError(t, mapAcc.Delete(ctx, "bob"))
	_, ok, err = mapAcc.Get(ctx, "bob")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestFindAllRehydratesCollectionsPerRowWithoutCrossContamination(t *testing.T) {
	ds := openMemory(t)
	ctx := context.Background()

	m, err := NewMapper[account](ds, nil)
	require.NoError(t, err)

	ada := &account{Name: "Ada", Email: "ada@example.com", Tags: []string{"admin", "founder"}}
	bob := &account{Name: "Bob", Email: "bob@example.com", Tags: []string{"guest"}}
	cleo := &account{Name: "Cleo", Email: "cleo@example.com"}
	require.NoError(t, m.Insert(ctx, ada))
	require.NoError(t, m.Insert(ctx, bob))
	require.NoError(t, m.Insert(ctx, cleo))

	all, err := m.FindAll(ctx, nil)
	require.NoError(t, err)
	require.Len(t, all, 3)

	byID := map[int64]*account{}
	for _, a := range all {
		byID[a.ID] = a
	}
	assert.Equal(t, []string{"admin", "founder"}, byID[ada.ID].Tags)
	assert.Equal(t, []string{"guest"}, byID[bob.ID].Tags)
	assert.Empty(t, byID[cleo.ID].Tags)
}

func TestCollectionsReplacedWholesaleOnUpdate(t *testing.T) {
	ds := openMemory(t)
	ctx := context.Background()

	m, err := NewMapper[account](ds, nil)
	require.NoError(t, err)

	a := &account{Name: "Ada", Email: "ada@example.com", Tags: []string{"a", "b"}}
	require.NoError(t, m.Insert(ctx, a))

	a.Tags = []string{"c"}
	require.NoError(t, m.Update(ctx, a))

	found, err := m.FindById(ctx, a.ID)
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, []string{"c"}, found.Tags)
}

package ptcorm

import (
	"context"
	"testing"

	"github.com/FxRayHughes/ptcorm/query"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMapperJoinExecute(t *testing.T) {
	ds := openMemory(t)
	ctx := context.Background()

	accounts, err := NewMapper[account](ds, nil)
	require.NoError(t, err)
	profiles, err := NewMapper[profile](ds, nil)
	require.NoError(t, err)

	a := &account{Name: "Barbara", Email: "barbara@example.com"}
	require.NoError(t, accounts.Insert(ctx, a))

	p := &profile{Account: a, Bio: "computer scientist"}
	require.NoError(t, profiles.Insert(ctx, p))

	q := accounts.Join()
	j := q.LeftJoinTable("profile", "t1")
	j.On(query.EqF("t1.account_id", query.Pre("t0.id")))
	q.SelectAs([2]string{"t0.name", "account_name"}, [2]string{"t1.bio", "bio"})
	q.Where(query.EqF("t0.id", a.ID))

	rows, err := accounts.Execute(ctx, q)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "Barbara", rows[0]["account_name"])
	assert.Equal(t, "computer scientist", rows[0]["bio"])
}

// TestMapperExecuteSubQueryJoinHonorsNestedProjectionOrderAndLimit
// guards against a subquery join collapsing to "SELECT * FROM table
// [WHERE ...]" and silently dropping the nested query's own
// projection, ordering and limit.
func TestMapperExecuteSubQueryJoinHonorsNestedProjectionOrderAndLimit(t *testing.T) {
	ds := openMemory(t)
	ctx := context.Background()

	accounts, err := NewMapper[account](ds, nil)
	require.NoError(t, err)

	require.NoError(t, accounts.Insert(ctx, &account{Name: "Alice", Email: "alice@example.com"}))
	require.NoError(t, accounts.Insert(ctx, &account{Name: "Bob", Email: "bob@example.com"}))
	require.NoError(t, accounts.Insert(ctx, &account{Name: "Charlie", Email: "charlie@example.com"}))

	q := accounts.Join()
	top2 := query.New().Rows("id", "name").OrderBy("name", query.Desc).Limit(2)
	j := q.SubQuery("account", "t1", top2)
	j.On(query.EqF("t1.id", query.Pre("t0.id")))
	q.SelectAs([2]string{"t0.name", "name"})
	q.OrderBy("t0.name", query.Asc)

	rows, err := accounts.Execute(ctx, q)
	require.NoError(t, err)
	require.Len(t, rows, 2, "the subquery's own LIMIT 2 should bound the join, not the outer unfiltered table")
	assert.Equal(t, "Bob", rows[0]["name"])
	assert.Equal(t, "Charlie", rows[1]["name"])
}

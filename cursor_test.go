package ptcorm

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSortCursorRequiresTransaction(t *testing.T) {
	ds := openMemory(t)
	ctx := context.Background()
	m, err := NewMapper[account](ds, nil)
	require.NoError(t, err)

	_, err = m.SortCursor(ctx, nil, "id")
	assert.ErrorIs(t, err, ErrNoTransaction)
}

func TestSortCursorIteratesInOrder(t *testing.T) {
	ds := openMemory(t)
	ctx := context.Background()
	m, err := NewMapper[account](ds, nil)
	require.NoError(t, err)

	require.NoError(t, m.Insert(ctx, &account{Name: "Charlie", Email: "charlie@example.com"}))
	require.NoError(t, m.Insert(ctx, &account{Name: "Alice", Email: "alice@example.com"}))
	require.NoError(t, m.Insert(ctx, &account{Name: "Bob", Email: "bob@example.com"}))

	var names []string
	err = ds.Transaction(ctx, func(ctx context.Context) error {
		cur, err := m.SortCursor(ctx, nil, "name")
		if err != nil {
			return err
		}
		defer cur.Close()
		for {
			e, ok, err := cur.Next(ctx)
			if err != nil {
				return err
			}
			if !ok {
				return nil
			}
			names = append(names, e.Name)
		}
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"Alice", "Bob", "Charlie"}, names)
}

func TestCountAndPage(t *testing.T) {
	ds := openMemory(t)
	ctx := context.Background()
	m, err := NewMapper[account](ds, nil)
	require.NoError(t, err)

	for _, name := range []string{"A", "B", "C", "D", "E"} {
		require.NoError(t, m.Insert(ctx, &account{Name: name, Email: name + "@example.com"}))
	}

	n, err := m.Count(ctx, nil)
	require.NoError(t, err)
	assert.EqualValues(t, 5, n)

	page, err := m.SortPage(ctx, nil, "name", 2, 2)
	require.NoError(t, err)
	assert.EqualValues(t, 5, page.Total)
	require.Len(t, page.Rows, 2)
	assert.Equal(t, "C", page.Rows[0].Name)
	assert.Equal(t, "D", page.Rows[1].Name)
}

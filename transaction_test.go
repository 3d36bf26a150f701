package ptcorm

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTransactionCommitsOnSuccess(t *testing.T) {
	ds := openMemory(t)
	ctx := context.Background()
	m, err := NewMapper[account](ds, nil)
	require.NoError(t, err)

	err = ds.Transaction(ctx, func(ctx context.Context) error {
		return m.Insert(ctx, &account{Name: "Tx", Email: "tx@example.com"})
	})
	require.NoError(t, err)

	all, err := m.FindAll(ctx, nil)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestTransactionRollsBackOnError(t *testing.T) {
	ds := openMemory(t)
	ctx := context.Background()
	m, err := NewMapper[account](ds, nil)
	require.NoError(t, err)

	boom := errors.New("boom")
	err = ds.Transaction(ctx, func(ctx context.Context) error {
		if err := m.Insert(ctx, &account{Name: "Tx", Email: "tx@example.com"}); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	all, err := m.FindAll(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestTransactionRollbackSentinelReturnsNilError(t *testing.T) {
	ds := openMemory(t)
	ctx := context.Background()
	m, err := NewMapper[account](ds, nil)
	require.NoError(t, err)

	err = ds.Transaction(ctx, func(ctx context.Context) error {
		if err := m.Insert(ctx, &account{Name: "Tx", Email: "tx@example.com"}); err != nil {
			return err
		}
		return Rollback
	})
	require.NoError(t, err)

	all, err := m.FindAll(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestTransactionNestedCallReusesExistingTx(t *testing.T) {
	ds := openMemory(t)
	ctx := context.Background()
	m, err := NewMapper[account](ds, nil)
	require.NoError(t, err)

	var innerRan bool
	err = ds.Transaction(ctx, func(ctx context.Context) error {
		_, tx, beginErr := ds.Begin(ctx)
		assert.ErrorIs(t, beginErr, ErrInTransaction)
		assert.Nil(t, tx)

		return ds.Transaction(ctx, func(ctx context.Context) error {
			innerRan = true
			return m.Insert(ctx, &account{Name: "Nested", Email: "nested@example.com"})
		})
	})
	require.NoError(t, err)
	assert.True(t, innerRan)

	all, err := m.FindAll(ctx, nil)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestTxCommitTwiceReturnsErrFinished(t *testing.T) {
	ds := openMemory(t)
	ctx := context.Background()

	_, tx, err := ds.Begin(ctx)
	require.NoError(t, err)
	require.NoError(t, tx.Commit())
	assert.ErrorIs(t, tx.Commit(), ErrFinished)
}

func TestTxCloseRollsBackIfNotFinished(t *testing.T) {
	ds := openMemory(t)
	ctx := context.Background()
	m, err := NewMapper[account](ds, nil)
	require.NoError(t, err)

	func() {
		txCtx, tx, err := ds.Begin(ctx)
		require.NoError(t, err)
		defer tx.Close()
		require.NoError(t, m.Insert(txCtx, &account{Name: "Abandoned", Email: "abandoned@example.com"}))
	}()

	all, err := m.FindAll(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, all)
}

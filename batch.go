package ptcorm

import (
	"context"
	"reflect"

	"github.com/FxRayHughes/ptcorm/query"
)

// InsertBatch inserts every entity in es, each through the same
// cascade/child-table path as Insert (spec §4.7 "insertBatch").
func (m *Mapper[T]) InsertBatch(ctx context.Context, es []*T) error {
	for _, e := range es {
		if err := m.Insert(ctx, e); err != nil {
			return err
		}
	}
	return nil
}

// UpdateBatch updates every entity in es (spec §4.7 "updateBatch");
// per §4.10 this clears the entire cache rather than evicting
// individual keys.
func (m *Mapper[T]) UpdateBatch(ctx context.Context, es []*T) error {
	for _, e := range es {
		if _, err := m.ds.updateRow(ctx, m.desc, reflect.ValueOf(e).Elem()); err != nil {
			return err
		}
	}
	m.clearAll()
	return nil
}

// UpsertBatch upserts every entity in es.
func (m *Mapper[T]) UpsertBatch(ctx context.Context, es []*T) error {
	for _, e := range es {
		if err := m.Upsert(ctx, e); err != nil {
			return err
		}
	}
	return nil
}

// FindByIds returns every row whose primary key is in ids, order not
// guaranteed (spec §4.7 "findByIds").
func (m *Mapper[T]) FindByIds(ctx context.Context, ids []any) ([]*T, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	return m.FindAll(ctx, query.InF(m.desc.PrimaryKey.ColumnName, ids))
}

// DeleteByIds deletes every row whose primary key is in ids, cascading
// child-table deletes for each (spec §4.7 "deleteByIds").
func (m *Mapper[T]) DeleteByIds(ctx context.Context, ids []any) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	return m.DeleteWhere(ctx, query.InF(m.desc.PrimaryKey.ColumnName, ids))
}

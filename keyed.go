package ptcorm

import (
	"context"
	"reflect"

	"github.com/FxRayHughes/ptcorm/query"
)

// keyedCond builds "pk = ? AND key1 = ? AND key2 = ? ..." from probe's
// primary-key and secondary-key fields, ignoring every other field
// (spec §4.7 "Keyed": "Use (primary_key, secondary_key...) values from
// probe; ignore other fields").
func (m *Mapper[T]) keyedCond(probe *T) query.Cond {
	rv := reflect.ValueOf(probe).Elem()
	conds := []query.Cond{query.EqF(m.desc.PrimaryKey.ColumnName, fieldInterface(rv, m.desc.PrimaryKey))}
	for _, c := range m.desc.SecondaryKeys {
		conds = append(conds, query.EqF(c.ColumnName, fieldInterface(rv, c)))
	}
	if len(conds) == 1 {
		return conds[0]
	}
	return query.AndOf(conds...)
}

func fieldInterface(rv reflect.Value, c *Column) any {
	return fieldAt(rv, c.FieldIndex).Interface()
}

// FindByKey returns the single row matching probe's (primary_key,
// secondary_key...) values (spec §4.7 "findByKey").
func (m *Mapper[T]) FindByKey(ctx context.Context, probe *T) (*T, error) {
	rows, err := m.findWhere(ctx, m.keyedCond(probe), "")
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return rows[0], nil
}

// ExistsByKey reports whether a row matches probe's key values.
func (m *Mapper[T]) ExistsByKey(ctx context.Context, probe *T) (bool, error) {
	return m.ExistsWhere(ctx, m.keyedCond(probe))
}

// DeleteByKey deletes the row matching probe's (primary_key,
// secondary_key...) values. When probe's primary key is set (and any
// secondary keys match) this routes through DeleteById so the bean
// cache only evicts that one
// key, per spec §4.10's invalidation table; a probe that only carries
// secondary-key values (primary key at its zero value) falls back to
// DeleteWhere, which must clear the whole bean cache since the deleted
// row's primary key isn't known up front.
func (m *Mapper[T]) DeleteByKey(ctx context.Context, probe *T) error {
	rv := reflect.ValueOf(probe).Elem()
	pk := fieldInterface(rv, m.desc.PrimaryKey)
	if !fieldAt(rv, m.desc.PrimaryKey.FieldIndex).IsZero() {
		if len(m.desc.SecondaryKeys) > 0 {
			ok, err := m.ExistsByKey(ctx, probe)
			if err != nil || !ok {
				return err
			}
		}
		return m.DeleteById(ctx, pk)
	}
	_, err := m.DeleteWhere(ctx, m.keyedCond(probe))
	return err
}

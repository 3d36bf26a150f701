package ptcorm

import (
	"context"
	"fmt"
	"reflect"

	"github.com/FxRayHughes/ptcorm/codec"
)

func (m *Mapper[T]) collectionField(field string) (*CollectionField, error) {
	for _, cf := range m.desc.CollectionFields {
		if cf.FieldName == field {
			return cf, nil
		}
	}
	return nil, fmt.Errorf("ptcorm: %s has no collection field %q", m.desc.Type, field)
}

// ListAccessor is a live mutable view over a List-kind child table
// (spec §4.9 "Accessor views"). Every method performs its SQL
// immediately and is visible to subsequent FindById/FindAll reads.
type ListAccessor[E any] struct {
	ds        *DataSource
	desc      *Descriptor
	cf        *CollectionField
	pkVal     any
}

// ListOf returns a live accessor over a List-kind collection field
// (spec §4.9 "listOf"). E must match the field's element type.
func ListOf[T any, E any](m *Mapper[T], pk any, field string) (*ListAccessor[E], error) {
	cf, err := m.collectionField(field)
	if err != nil {
		return nil, err
	}
	if cf.Kind != codec.KindList {
		return nil, fmt.Errorf("ptcorm: field %q is not a List", field)
	}
	return &ListAccessor[E]{ds: m.ds, desc: m.desc, cf: cf, pkVal: pk}, nil
}

func (a *ListAccessor[E]) Get(ctx context.Context) ([]E, error) {
	dial := a.ds.dialect
	q := fmt.Sprintf("SELECT value FROM %s WHERE %s = %s ORDER BY sort_order ASC",
		dial.Quote(a.cf.ChildTable), dial.Quote(parentColumn(a.desc)), dial.Placeholder(1))
	rows, err := a.ds.executor(ctx).QueryContext(ctx, q, a.pkVal)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []E
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, err
		}
		ev, err := decodeScalar(s, a.cf.ElementType)
		if err != nil {
			return nil, err
		}
		out = append(out, ev.Interface().(E))
	}
	return out, rows.Err()
}

// Add appends v at the end of the list.
func (a *ListAccessor[E]) Add(ctx context.Context, v E) error {
	n, err := a.Len(ctx)
	if err != nil {
		return err
	}
	return a.InsertAt(ctx, n, v)
}

// InsertAt inserts v at index i, shifting sort_order by 1 for every
// row with sort_order >= i (spec §4.9 "List insertion at index i
// shifts sort_order by 1").
func (a *ListAccessor[E]) InsertAt(ctx context.Context, i int, v E) error {
	dial := a.ds.dialect
	shift := fmt.Sprintf("UPDATE %s SET sort_order = sort_order + 1 WHERE %s = %s AND sort_order >= %s",
		dial.Quote(a.cf.ChildTable), dial.Quote(parentColumn(a.desc)), dial.Placeholder(1), dial.Placeholder(2))
	if _, err := a.ds.executor(ctx).ExecContext(ctx, shift, a.pkVal, i); err != nil {
		return err
	}
	ins := fmt.Sprintf("INSERT INTO %s (%s, value, sort_order) VALUES (%s, %s, %s)",
		dial.Quote(a.cf.ChildTable), dial.Quote(parentColumn(a.desc)), dial.Placeholder(1), dial.Placeholder(2), dial.Placeholder(3))
	_, err := a.ds.executor(ctx).ExecContext(ctx, ins, a.pkVal, encodeScalar(reflect.ValueOf(v)), i)
	return err
}

// RemoveAt deletes the row at index i and decrements sort_order for
// every row above it (spec §4.9 "list removal at index i ... decrements
// sort_order for rows above").
func (a *ListAccessor[E]) RemoveAt(ctx context.Context, i int) error {
	dial := a.ds.dialect
	del := fmt.Sprintf("DELETE FROM %s WHERE %s = %s AND sort_order = %s",
		dial.Quote(a.cf.ChildTable), dial.Quote(parentColumn(a.desc)), dial.Placeholder(1), dial.Placeholder(2))
	if _, err := a.ds.executor(ctx).ExecContext(ctx, del, a.pkVal, i); err != nil {
		return err
	}
	shift := fmt.Sprintf("UPDATE %s SET sort_order = sort_order - 1 WHERE %s = %s AND sort_order > %s",
		dial.Quote(a.cf.ChildTable), dial.Quote(parentColumn(a.desc)), dial.Placeholder(1), dial.Placeholder(2))
	_, err := a.ds.executor(ctx).ExecContext(ctx, shift, a.pkVal, i)
	return err
}

func (a *ListAccessor[E]) Len(ctx context.Context) (int, error) {
	dial := a.ds.dialect
	q := fmt.Sprintf("SELECT COUNT(1) FROM %s WHERE %s = %s", dial.Quote(a.cf.ChildTable), dial.Quote(parentColumn(a.desc)), dial.Placeholder(1))
	row := a.ds.executor(ctx).QueryRowContext(ctx, q, a.pkVal)
	var n int
	err := row.Scan(&n)
	return n, err
}

// SetAccessor is a live mutable view over a Set-kind child table.
type SetAccessor[E any] struct {
	ds    *DataSource
	desc  *Descriptor
	cf    *CollectionField
	pkVal any
}

func SetOf[T any, E any](m *Mapper[T], pk any, field string) (*SetAccessor[E], error) {
	cf, err := m.collectionField(field)
	if err != nil {
		return nil, err
	}
	if cf.Kind != codec.KindSet {
		return nil, fmt.Errorf("ptcorm: field %q is not a Set", field)
	}
	return &SetAccessor[E]{ds: m.ds, desc: m.desc, cf: cf, pkVal: pk}, nil
}

func (a *SetAccessor[E]) Values(ctx context.Context) ([]E, error) {
	dial := a.ds.dialect
	q := fmt.Sprintf("SELECT value FROM %s WHERE %s = %s", dial.Quote(a.cf.ChildTable), dial.Quote(parentColumn(a.desc)), dial.Placeholder(1))
	rows, err := a.ds.executor(ctx).QueryContext(ctx, q, a.pkVal)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []E
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, err
		}
		ev, err := decodeScalar(s, a.cf.ElementType)
		if err != nil {
			return nil, err
		}
		out = append(out, ev.Interface().(E))
	}
	return out, rows.Err()
}

func (a *SetAccessor[E]) Contains(ctx context.Context, v E) (bool, error) {
	dial := a.ds.dialect
	q := fmt.Sprintf("SELECT 1 FROM %s WHERE %s = %s AND value = %s LIMIT 1",
		dial.Quote(a.cf.ChildTable), dial.Quote(parentColumn(a.desc)), dial.Placeholder(1), dial.Placeholder(2))
	row := a.ds.executor(ctx).QueryRowContext(ctx, q, a.pkVal, encodeScalar(reflect.ValueOf(v)))
	var one int
	err := row.Scan(&one)
	if err == errNoRowsSQL {
		return false, nil
	}
	return err == nil, err
}

// Add is a no-op if v already exists (spec §4.9 "Set add is a no-op if
// the value already exists").
func (a *SetAccessor[E]) Add(ctx context.Context, v E) error {
	exists, err := a.Contains(ctx, v)
	if err != nil || exists {
		return err
	}
	dial := a.ds.dialect
	q := fmt.Sprintf("INSERT INTO %s (%s, value) VALUES (%s, %s)",
		dial.Quote(a.cf.ChildTable), dial.Quote(parentColumn(a.desc)), dial.Placeholder(1), dial.Placeholder(2))
	_, err = a.ds.executor(ctx).ExecContext(ctx, q, a.pkVal, encodeScalar(reflect.ValueOf(v)))
	return err
}

func (a *SetAccessor[E]) Remove(ctx context.Context, v E) error {
	dial := a.ds.dialect
	q := fmt.Sprintf("DELETE FROM %s WHERE %s = %s AND value = %s",
		dial.Quote(a.cf.ChildTable), dial.Quote(parentColumn(a.desc)), dial.Placeholder(1), dial.Placeholder(2))
	_, err := a.ds.executor(ctx).ExecContext(ctx, q, a.pkVal, encodeScalar(reflect.ValueOf(v)))
	return err
}

// MapAccessor is a live mutable view over a Map-kind child table.
type MapAccessor[V any] struct {
	ds    *DataSource
	desc  *Descriptor
	cf    *CollectionField
	pkVal any
}

func MapOf[T any, V any](m *Mapper[T], pk any, field string) (*MapAccessor[V], error) {
	cf, err := m.collectionField(field)
	if err != nil {
		return nil, err
	}
	if cf.Kind != codec.KindMap {
		return nil, fmt.Errorf("ptcorm: field %q is not a Map", field)
	}
	return &MapAccessor[V]{ds: m.ds, desc: m.desc, cf: cf, pkVal: pk}, nil
}

func (a *MapAccessor[V]) Get(ctx context.Context, key string) (V, bool, error) {
	var zero V
	dial := a.ds.dialect
	q := fmt.Sprintf("SELECT map_value FROM %s WHERE %s = %s AND map_key = %s",
		dial.Quote(a.cf.ChildTable), dial.Quote(parentColumn(a.desc)), dial.Placeholder(1), dial.Placeholder(2))
	row := a.ds.executor(ctx).QueryRowContext(ctx, q, a.pkVal, key)
	var s string
	if err := row.Scan(&s); err != nil {
		if err == errNoRowsSQL {
			return zero, false, nil
		}
		return zero, false, err
	}
	ev, err := decodeScalar(s, a.cf.ElementType)
	if err != nil {
		return zero, false, err
	}
	return ev.Interface().(V), true, nil
}

// Put replaces any existing value stored under key (spec §4.9 "Map put
// replaces any existing value under the same map_key").
func (a *MapAccessor[V]) Put(ctx context.Context, key string, value V) error {
	dial := a.ds.dialect
	del := fmt.Sprintf("DELETE FROM %s WHERE %s = %s AND map_key = %s",
		dial.Quote(a.cf.ChildTable), dial.Quote(parentColumn(a.desc)), dial.Placeholder(1), dial.Placeholder(2))
	if _, err := a.ds.executor(ctx).ExecContext(ctx, del, a.pkVal, key); err != nil {
		return err
	}
	ins := fmt.Sprintf("INSERT INTO %s (%s, map_key, map_value) VALUES (%s, %s, %s)",
		dial.Quote(a.cf.ChildTable), dial.Quote(parentColumn(a.desc)), dial.Placeholder(1), dial.Placeholder(2), dial.Placeholder(3))
	_, err := a.ds.executor(ctx).ExecContext(ctx, ins, a.pkVal, key, encodeScalar(reflect.ValueOf(value)))
	return err
}

func (a *MapAccessor[V]) Delete(ctx context.Context, key string) error {
	dial := a.ds.dialect
	q := fmt.Sprintf("DELETE FROM %s WHERE %s = %s AND map_key = %s",
		dial.Quote(a.cf.ChildTable), dial.Quote(parentColumn(a.desc)), dial.Placeholder(1), dial.Placeholder(2))
	_, err := a.ds.executor(ctx).ExecContext(ctx, q, a.pkVal, key)
	return err
}

func (a *MapAccessor[V]) Keys(ctx context.Context) ([]string, error) {
	dial := a.ds.dialect
	q := fmt.Sprintf("SELECT map_key FROM %s WHERE %s = %s", dial.Quote(a.cf.ChildTable), dial.Quote(parentColumn(a.desc)), dial.Placeholder(1))
	rows, err := a.ds.executor(ctx).QueryContext(ctx, q, a.pkVal)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []string
	for rows.Next() {
		var k string
		if err := rows.Scan(&k); err != nil {
			return nil, err
		}
		out = append(out, k)
	}
	return out, rows.Err()
}

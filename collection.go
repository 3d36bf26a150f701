package ptcorm

import (
	"context"
	"fmt"
	"reflect"
	"strconv"
	"strings"

	"github.com/FxRayHughes/ptcorm/codec"
	"github.com/FxRayHughes/ptcorm/util/types"
)

// Set marks a field as logically-unique-valued (spec §3 "Set"); Go has
// no built-in set type, so this is just a named slice the descriptor
// builder recognizes by name.
type Set[T comparable] []T

// encodeScalar renders a collection element as TEXT for storage.
func encodeScalar(v reflect.Value) string {
	return fmt.Sprintf("%v", v.Interface())
}

// decodeScalar parses a stored TEXT value back into elemType.
func decodeScalar(s string, elemType reflect.Type) (reflect.Value, error) {
	switch types.Kind(elemType.Kind()) {
	case types.String:
		return reflect.ValueOf(s).Convert(elemType), nil
	case types.Bool:
		b, err := strconv.ParseBool(s)
		return reflect.ValueOf(b), err
	case types.Int:
		n, err := types.ToInt64(s)
		if err != nil {
			return reflect.Value{}, err
		}
		return reflect.ValueOf(n).Convert(elemType), nil
	case types.Uint:
		n, err := types.ToUint64(s)
		if err != nil {
			return reflect.Value{}, err
		}
		return reflect.ValueOf(n).Convert(elemType), nil
	case types.Float:
		f, err := types.ToFloat(s)
		if err != nil {
			return reflect.Value{}, err
		}
		return reflect.ValueOf(f).Convert(elemType), nil
	default:
		return reflect.Value{}, fmt.Errorf("ptcorm: unsupported collection element type %s", elemType)
	}
}

func parentColumn(desc *Descriptor) string {
	return "parent_" + desc.PrimaryKey.ColumnName
}

// readCollections rehydrates every child-table-backed collection field
// of a single row rv (spec §4.9 "Read"). Used by findById and other
// single-row paths; multi-row callers should use readCollectionsBatch
// instead so every child table is read once for the whole result set.
func (ds *DataSource) readCollections(ctx context.Context, desc *Descriptor, pkVal any, rv reflect.Value) error {
	for _, cf := range desc.CollectionFields {
		if cf.Flatten != nil {
			continue
		}
		if err := ds.readOneCollection(ctx, desc, cf, pkVal, fieldAt(rv, cf.FieldIndex)); err != nil {
			return err
		}
	}
	return nil
}

func (ds *DataSource) readOneCollection(ctx context.Context, desc *Descriptor, cf *CollectionField, pkVal any, fv reflect.Value) error {
	dial := ds.dialect
	switch cf.Kind {
	case codec.KindList:
		q := fmt.Sprintf("SELECT value FROM %s WHERE %s = %s ORDER BY sort_order ASC",
			dial.Quote(cf.ChildTable), dial.Quote(parentColumn(desc)), dial.Placeholder(1))
		rows, err := ds.executor(ctx).QueryContext(ctx, q, pkVal)
		if err != nil {
			return err
		}
		defer rows.Close()
		out := reflect.MakeSlice(fv.Type(), 0, 0)
		for rows.Next() {
			var s string
			if err := rows.Scan(&s); err != nil {
				return err
			}
			ev, err := decodeScalar(s, cf.ElementType)
			if err != nil {
				return err
			}
			out = reflect.Append(out, ev)
		}
		fv.Set(out)
		return rows.Err()
	case codec.KindSet:
		q := fmt.Sprintf("SELECT value FROM %s WHERE %s = %s",
			dial.Quote(cf.ChildTable), dial.Quote(parentColumn(desc)), dial.Placeholder(1))
		rows, err := ds.executor(ctx).QueryContext(ctx, q, pkVal)
		if err != nil {
			return err
		}
		defer rows.Close()
		out := reflect.MakeSlice(fv.Type(), 0, 0)
		for rows.Next() {
			var s string
			if err := rows.Scan(&s); err != nil {
				return err
			}
			ev, err := decodeScalar(s, cf.ElementType)
			if err != nil {
				return err
			}
			out = reflect.Append(out, ev)
		}
		fv.Set(out)
		return rows.Err()
	case codec.KindMap:
		q := fmt.Sprintf("SELECT map_key, map_value FROM %s WHERE %s = %s",
			dial.Quote(cf.ChildTable), dial.Quote(parentColumn(desc)), dial.Placeholder(1))
		rows, err := ds.executor(ctx).QueryContext(ctx, q, pkVal)
		if err != nil {
			return err
		}
		defer rows.Close()
		out := reflect.MakeMap(fv.Type())
		for rows.Next() {
			var k, v string
			if err := rows.Scan(&k, &v); err != nil {
				return err
			}
			ev, err := decodeScalar(v, cf.ElementType)
			if err != nil {
				return err
			}
			out.SetMapIndex(reflect.ValueOf(k), ev)
		}
		fv.Set(out)
		return rows.Err()
	}
	return nil
}

// normalizeKey coerces a value scanned from, or passed as, a primary
// key column into a form comparable across driver return types: a
// driver may hand back []byte for a column another driver returns as
// string or int64 for the same logical value.
func normalizeKey(v any) string {
	if b, ok := v.([]byte); ok {
		return string(b)
	}
	return fmt.Sprint(v)
}

// readCollectionsBatch rehydrates every child-table-backed collection
// field across an entire result set with a single SELECT ... WHERE
// parent_<pk> IN (...) per child table, rather than one SELECT per
// child table per row (spec §4.9 "Read": "a single SELECT ... per
// child table rehydrates all collections for all rows of the parent
// result in one round-trip"). pkVals[i] must be the primary key of
// rvs[i].
func (ds *DataSource) readCollectionsBatch(ctx context.Context, desc *Descriptor, pkVals []any, rvs []reflect.Value) error {
	if len(pkVals) == 0 {
		return nil
	}
	for _, cf := range desc.CollectionFields {
		if cf.Flatten != nil {
			continue
		}
		if err := ds.readOneCollectionBatch(ctx, desc, cf, pkVals, rvs); err != nil {
			return err
		}
	}
	return nil
}

func (ds *DataSource) readOneCollectionBatch(ctx context.Context, desc *Descriptor, cf *CollectionField, pkVals []any, rvs []reflect.Value) error {
	dial := ds.dialect
	parentCol := dial.Quote(parentColumn(desc))

	placeholders := make([]string, len(pkVals))
	args := make([]any, len(pkVals))
	byKey := make(map[string]int, len(pkVals))
	for i, v := range pkVals {
		placeholders[i] = dial.Placeholder(i + 1)
		args[i] = v
		byKey[normalizeKey(v)] = i
	}
	in := strings.Join(placeholders, ", ")

	indexOf := func(raw any) (int, bool) {
		idx, ok := byKey[normalizeKey(raw)]
		return idx, ok
	}

	switch cf.Kind {
	case codec.KindList, codec.KindSet:
		lists := make([]reflect.Value, len(rvs))
		for i := range lists {
			lists[i] = reflect.MakeSlice(fieldAt(rvs[i], cf.FieldIndex).Type(), 0, 0)
		}
		order := ""
		if cf.Kind == codec.KindList {
			order = " ORDER BY " + parentCol + " ASC, sort_order ASC"
		} else {
			order = " ORDER BY " + parentCol + " ASC"
		}
		q := fmt.Sprintf("SELECT %s, value FROM %s WHERE %s IN (%s)%s",
			parentCol, dial.Quote(cf.ChildTable), parentCol, in, order)
		rows, err := ds.executor(ctx).QueryContext(ctx, q, args...)
		if err != nil {
			return err
		}
		defer rows.Close()
		for rows.Next() {
			var raw any
			var s string
			if err := rows.Scan(&raw, &s); err != nil {
				return err
			}
			idx, ok := indexOf(raw)
			if !ok {
				continue
			}
			ev, err := decodeScalar(s, cf.ElementType)
			if err != nil {
				return err
			}
			lists[idx] = reflect.Append(lists[idx], ev)
		}
		if err := rows.Err(); err != nil {
			return err
		}
		for i, rv := range rvs {
			fieldAt(rv, cf.FieldIndex).Set(lists[i])
		}
	case codec.KindMap:
		maps := make([]reflect.Value, len(rvs))
		for i := range maps {
			maps[i] = reflect.MakeMap(fieldAt(rvs[i], cf.FieldIndex).Type())
		}
		q := fmt.Sprintf("SELECT %s, map_key, map_value FROM %s WHERE %s IN (%s)",
			parentCol, dial.Quote(cf.ChildTable), parentCol, in)
		rows, err := ds.executor(ctx).QueryContext(ctx, q, args...)
		if err != nil {
			return err
		}
		defer rows.Close()
		for rows.Next() {
			var raw any
			var k, v string
			if err := rows.Scan(&raw, &k, &v); err != nil {
				return err
			}
			idx, ok := indexOf(raw)
			if !ok {
				continue
			}
			ev, err := decodeScalar(v, cf.ElementType)
			if err != nil {
				return err
			}
			maps[idx].SetMapIndex(reflect.ValueOf(k), ev)
		}
		if err := rows.Err(); err != nil {
			return err
		}
		for i, rv := range rvs {
			fieldAt(rv, cf.FieldIndex).Set(maps[i])
		}
	}
	return nil
}

// replaceCollections implements spec §4.9 "Update: delete all
// existing, insert all new" for every child-table-backed field.
func (ds *DataSource) replaceCollections(ctx context.Context, desc *Descriptor, pkVal any, rv reflect.Value) error {
	for _, cf := range desc.CollectionFields {
		if cf.Flatten != nil {
			continue
		}
		if err := ds.deleteOneCollection(ctx, cf, desc, pkVal); err != nil {
			return err
		}
		if err := ds.insertOneCollection(ctx, cf, desc, pkVal, fieldAt(rv, cf.FieldIndex)); err != nil {
			return err
		}
	}
	return nil
}

// deleteCollections removes every child row for pkVal (spec §4.9
// "Delete").
func (ds *DataSource) deleteCollections(ctx context.Context, desc *Descriptor, pkVal any) error {
	for _, cf := range desc.CollectionFields {
		if cf.Flatten != nil {
			continue
		}
		if err := ds.deleteOneCollection(ctx, cf, desc, pkVal); err != nil {
			return err
		}
	}
	return nil
}

func (ds *DataSource) deleteOneCollection(ctx context.Context, cf *CollectionField, desc *Descriptor, pkVal any) error {
	dial := ds.dialect
	q := fmt.Sprintf("DELETE FROM %s WHERE %s = %s", dial.Quote(cf.ChildTable), dial.Quote(parentColumn(desc)), dial.Placeholder(1))
	_, err := ds.executor(ctx).ExecContext(ctx, q, pkVal)
	return err
}

func (ds *DataSource) insertOneCollection(ctx context.Context, cf *CollectionField, desc *Descriptor, pkVal any, fv reflect.Value) error {
	if !fv.IsValid() || (fv.Kind() == reflect.Slice && fv.IsNil()) || (fv.Kind() == reflect.Map && fv.IsNil()) {
		return nil
	}
	dial := ds.dialect
	switch cf.Kind {
	case codec.KindList:
		q := fmt.Sprintf("INSERT INTO %s (%s, value, sort_order) VALUES (%s, %s, %s)",
			dial.Quote(cf.ChildTable), dial.Quote(parentColumn(desc)), dial.Placeholder(1), dial.Placeholder(2), dial.Placeholder(3))
		for i := 0; i < fv.Len(); i++ {
			if _, err := ds.executor(ctx).ExecContext(ctx, q, pkVal, encodeScalar(fv.Index(i)), i); err != nil {
				return err
			}
		}
	case codec.KindSet:
		seen := map[string]bool{}
		q := fmt.Sprintf("INSERT INTO %s (%s, value) VALUES (%s, %s)",
			dial.Quote(cf.ChildTable), dial.Quote(parentColumn(desc)), dial.Placeholder(1), dial.Placeholder(2))
		for i := 0; i < fv.Len(); i++ {
			s := encodeScalar(fv.Index(i))
			if seen[s] {
				continue
			}
			seen[s] = true
			if _, err := ds.executor(ctx).ExecContext(ctx, q, pkVal, s); err != nil {
				return err
			}
		}
	case codec.KindMap:
		q := fmt.Sprintf("INSERT INTO %s (%s, map_key, map_value) VALUES (%s, %s, %s)",
			dial.Quote(cf.ChildTable), dial.Quote(parentColumn(desc)), dial.Placeholder(1), dial.Placeholder(2), dial.Placeholder(3))
		iter := fv.MapRange()
		for iter.Next() {
			if _, err := ds.executor(ctx).ExecContext(ctx, q, pkVal, iter.Key().String(), encodeScalar(iter.Value())); err != nil {
				return err
			}
		}
	}
	return nil
}

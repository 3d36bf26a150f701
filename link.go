package ptcorm

import (
	"context"
	"fmt"
	"reflect"
	"strings"

	"github.com/FxRayHughes/ptcorm/dialect"
)

// buildJoin recursively emits the SELECT column list and LEFT JOIN
// clauses for desc and every link field reachable from it, namespacing
// columns per spec §4.8: "__link__<fk_column>__<child_col>", prefixes
// concatenated at each nesting level.
func buildJoin(dial dialect.Dialect, desc *Descriptor, tableAlias, prefix string, counter *int) (selectCols []string, joins []string) {
	for _, c := range desc.Columns {
		selectCols = append(selectCols, fmt.Sprintf("%s.%s AS %s", dial.Quote(tableAlias), dial.Quote(c.ColumnName), dial.Quote(prefix+c.ColumnName)))
	}
	for _, lf := range desc.LinkFields {
		*counter++
		childAlias := fmt.Sprintf("__t%d", *counter)
		target := lf.Target
		joins = append(joins, fmt.Sprintf("LEFT JOIN %s AS %s ON %s.%s = %s.%s",
			qualifiedTable(dial, target), dial.Quote(childAlias),
			dial.Quote(tableAlias), dial.Quote(lf.FKColumn),
			dial.Quote(childAlias), dial.Quote(target.PrimaryKey.ColumnName)))
		childPrefix := prefix + "__link__" + lf.FKColumn + "__"
		subCols, subJoins := buildJoin(dial, target, childAlias, childPrefix, counter)
		selectCols = append(selectCols, subCols...)
		joins = append(joins, subJoins...)
	}
	return
}

// selectSQL renders the full SELECT ... FROM ... LEFT JOIN ... chain
// for desc, rooted at alias "t0".
func selectSQL(dial dialect.Dialect, desc *Descriptor, where string) (string, []string) {
	counter := 0
	cols, joins := buildJoin(dial, desc, "t0", "", &counter)
	sql := fmt.Sprintf("SELECT %s FROM %s AS t0", strings.Join(cols, ", "), qualifiedTable(dial, desc))
	if len(joins) > 0 {
		sql += " " + strings.Join(joins, " ")
	}
	if where != "" {
		sql += " WHERE " + where
	}
	return sql, outputColumnNames(cols, dial)
}

func outputColumnNames(selectCols []string, dial dialect.Dialect) []string {
	var out []string
	for _, c := range selectCols {
		idx := strings.LastIndex(c, " AS ")
		name := strings.Trim(c[idx+4:], "`\"")
		out = append(out, name)
	}
	return out
}

// assembleRow walks desc (and its link fields, recursively) filling rv
// from a flat map of namespaced column name -> raw scanned value. A
// link sub-object is left absent (nil pointer, or zero value for a
// non-pointer link field) whenever its target's primary key column
// came back null (spec §4.8 "LEFT JOIN ensures ... set to absent").
func assembleRow(dial dialect.Dialect, rv reflect.Value, desc *Descriptor, values map[string]any, prefix string) error {
	for _, c := range desc.Columns {
		raw := values[prefix+c.ColumnName]
		if err := setColumnValue(dial, c, fieldAt(rv, c.FieldIndex), raw); err != nil {
			return fmt.Errorf("ptcorm: column %s: %w", c.ColumnName, err)
		}
	}
	for _, lf := range desc.LinkFields {
		childPrefix := prefix + "__link__" + lf.FKColumn + "__"
		pkRaw := values[childPrefix+lf.Target.PrimaryKey.ColumnName]
		fv := fieldAt(rv, lf.FieldIndex)
		if pkRaw == nil {
			if fv.Kind() == reflect.Ptr {
				fv.Set(reflect.Zero(fv.Type()))
			}
			continue
		}
		target := fv
		if fv.Kind() == reflect.Ptr {
			if fv.IsNil() {
				fv.Set(reflect.New(fv.Type().Elem()))
			}
			target = fv.Elem()
		}
		if err := assembleRow(dial, target, lf.Target, values, childPrefix); err != nil {
			return err
		}
	}
	return nil
}

// cascadeWriteLinks depth-first saves every non-absent link field of
// rv, returning the foreign-key values to bind on rv's own row (spec
// §4.8 write steps 1-2).
func (ds *DataSource) cascadeWriteLinks(ctx context.Context, desc *Descriptor, rv reflect.Value) (map[string]any, error) {
	fkValues := map[string]any{}
	for _, lf := range desc.LinkFields {
		fv := fieldAt(rv, lf.FieldIndex)
		if fv.Kind() == reflect.Ptr && fv.IsNil() {
			fkValues[lf.FKColumn] = nil
			continue
		}
		target := fv
		if fv.Kind() == reflect.Ptr {
			target = fv.Elem()
		}
		if err := ds.saveEntity(ctx, lf.Target, target); err != nil {
			return nil, err
		}
		pkVal, err := columnValue(ds.dialect, lf.Target.PrimaryKey, fieldAt(target, lf.Target.PrimaryKey.FieldIndex))
		if err != nil {
			return nil, err
		}
		fkValues[lf.FKColumn] = pkVal
	}
	return fkValues, nil
}

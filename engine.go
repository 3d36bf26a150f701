package ptcorm

import (
	"context"
	"fmt"
	"reflect"
	"strings"

	"github.com/FxRayHughes/ptcorm/dialect"
)

// rowColumnsForWrite returns desc's own columns in declaration order,
// leaving out auto-increment key columns unless includeAutoPK is set.
// Link foreign-key columns are not part of the result.
func rowColumnsForWrite(desc *Descriptor, includeAutoPK bool) []*Column {
	var cols []*Column
	for _, c := range desc.Columns {
		if c.IsAutoKey && !includeAutoPK {
			continue
		}
		cols = append(cols, c)
	}
	return cols
}

// saveEntity implements spec §4.8 write step 1: insert a linked object
// if its primary key doesn't yet exist, otherwise update it.
func (ds *DataSource) saveEntity(ctx context.Context, desc *Descriptor, rv reflect.Value) error {
	pkField := fieldAt(rv, desc.PrimaryKey.FieldIndex)
	if desc.PrimaryKey.IsAutoKey && isZero(pkField) {
		_, err := ds.insertRow(ctx, desc, rv)
		return err
	}
	pkVal, err := columnValue(ds.dialect, desc.PrimaryKey, pkField)
	if err != nil {
		return err
	}
	exists, err := ds.existsByPK(ctx, desc, pkVal)
	if err != nil {
		return err
	}
	if exists {
		_, err := ds.updateRow(ctx, desc, rv)
		return err
	}
	_, err = ds.insertRow(ctx, desc, rv)
	return err
}

func isZero(v reflect.Value) bool {
	if !v.IsValid() {
		return true
	}
	return v.IsZero()
}

// insertRow implements spec §4.7 "insert"/"insertAndGetKey": cascade
// link saves (C8), write this row, write child-table collections (C9).
func (ds *DataSource) insertRow(ctx context.Context, desc *Descriptor, rv reflect.Value) (Result, error) {
	fkValues, err := ds.cascadeWriteLinks(ctx, desc, rv)
	if err != nil {
		return nil, err
	}

	includeAutoPK := desc.PrimaryKey.IsAutoKey && !isZero(fieldAt(rv, desc.PrimaryKey.FieldIndex))
	cols := rowColumnsForWrite(desc, includeAutoPK)

	var names []string
	var placeholders []string
	var args []any
	n := 1
	for _, c := range cols {
		v, err := columnValue(ds.dialect, c, fieldAt(rv, c.FieldIndex))
		if err != nil {
			return nil, err
		}
		names = append(names, ds.dialect.Quote(c.ColumnName))
		placeholders = append(placeholders, ds.dialect.Placeholder(n))
		args = append(args, v)
		n++
	}
	for _, lf := range desc.LinkFields {
		names = append(names, ds.dialect.Quote(lf.FKColumn))
		placeholders = append(placeholders, ds.dialect.Placeholder(n))
		args = append(args, fkValues[lf.FKColumn])
		n++
	}

	q := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)", qualifiedTable(ds.dialect, desc), strings.Join(names, ", "), strings.Join(placeholders, ", "))
	if len(names) == 0 && ds.dialect.Name() != dialect.MySQL {
		q = fmt.Sprintf("INSERT INTO %s DEFAULT VALUES", qualifiedTable(ds.dialect, desc))
	}

	autoPK := desc.PrimaryKey.IsAutoKey && !includeAutoPK
	if autoPK && ds.dialect.Name() == dialect.PostgreSQL {
		q += " RETURNING " + ds.dialect.Quote(desc.PrimaryKey.ColumnName)
		var id int64
		if err := ds.executor(ctx).QueryRowContext(ctx, q, args...).Scan(&id); err != nil {
			return nil, err
		}
		fieldAt(rv, desc.PrimaryKey.FieldIndex).SetInt(id)
		pkVal, _ := columnValue(ds.dialect, desc.PrimaryKey, fieldAt(rv, desc.PrimaryKey.FieldIndex))
		if err := ds.insertOneCollectionsFor(ctx, desc, pkVal, rv); err != nil {
			return nil, err
		}
		return postgresResult{lastInsertId: id}, nil
	}

	res, err := ds.executor(ctx).ExecContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	if autoPK {
		id, err := res.LastInsertId()
		if err == nil {
			setAutoPK(fieldAt(rv, desc.PrimaryKey.FieldIndex), id)
		}
	}
	pkVal, err := columnValue(ds.dialect, desc.PrimaryKey, fieldAt(rv, desc.PrimaryKey.FieldIndex))
	if err != nil {
		return nil, err
	}
	if err := ds.insertOneCollectionsFor(ctx, desc, pkVal, rv); err != nil {
		return nil, err
	}
	return res, nil
}

func (ds *DataSource) insertOneCollectionsFor(ctx context.Context, desc *Descriptor, pkVal any, rv reflect.Value) error {
	for _, cf := range desc.CollectionFields {
		if cf.Flatten != nil {
			continue
		}
		if err := ds.insertOneCollection(ctx, cf, desc, pkVal, fieldAt(rv, cf.FieldIndex)); err != nil {
			return err
		}
	}
	return nil
}

func setAutoPK(fv reflect.Value, id int64) {
	switch fv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		fv.SetInt(id)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		fv.SetUint(uint64(id))
	}
}

type postgresResult struct {
	lastInsertId int64
}

func (p postgresResult) LastInsertId() (int64, error) { return p.lastInsertId, nil }
func (p postgresResult) RowsAffected() (int64, error) { return 1, nil }

// updateRow implements spec §4.7 "update": locate by primary key (+
// secondary keys), SET only mutable columns, cascade-update links,
// fully replace child-table collections.
func (ds *DataSource) updateRow(ctx context.Context, desc *Descriptor, rv reflect.Value) (Result, error) {
	fkValues, err := ds.cascadeWriteLinks(ctx, desc, rv)
	if err != nil {
		return nil, err
	}

	var sets []string
	var args []any
	n := 1
	for _, c := range desc.MutableColumns() {
		v, err := columnValue(ds.dialect, c, fieldAt(rv, c.FieldIndex))
		if err != nil {
			return nil, err
		}
		sets = append(sets, fmt.Sprintf("%s = %s", ds.dialect.Quote(c.ColumnName), ds.dialect.Placeholder(n)))
		args = append(args, v)
		n++
	}
	for _, lf := range desc.LinkFields {
		sets = append(sets, fmt.Sprintf("%s = %s", ds.dialect.Quote(lf.FKColumn), ds.dialect.Placeholder(n)))
		args = append(args, fkValues[lf.FKColumn])
		n++
	}

	where, whereArgs, n := lookupWhere(ds.dialect, desc, rv, n)
	args = append(args, whereArgs...)

	q := fmt.Sprintf("UPDATE %s SET %s WHERE %s", qualifiedTable(ds.dialect, desc), strings.Join(sets, ", "), where)
	res, err := ds.executor(ctx).ExecContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}

	pkVal, err := columnValue(ds.dialect, desc.PrimaryKey, fieldAt(rv, desc.PrimaryKey.FieldIndex))
	if err != nil {
		return nil, err
	}
	if err := ds.replaceCollections(ctx, desc, pkVal, rv); err != nil {
		return nil, err
	}
	return res, nil
}

// lookupWhere renders the "by primary key (+ secondary keys)" locator
// used by update/exists/delete, starting placeholders at n.
func lookupWhere(dial dialect.Dialect, desc *Descriptor, rv reflect.Value, n int) (string, []any, int) {
	var clauses []string
	var args []any
	pkv, _ := columnValue(dial, desc.PrimaryKey, fieldAt(rv, desc.PrimaryKey.FieldIndex))
	clauses = append(clauses, fmt.Sprintf("%s = %s", dial.Quote(desc.PrimaryKey.ColumnName), dial.Placeholder(n)))
	args = append(args, pkv)
	n++
	for _, c := range desc.SecondaryKeys {
		v, _ := columnValue(dial, c, fieldAt(rv, c.FieldIndex))
		clauses = append(clauses, fmt.Sprintf("%s = %s", dial.Quote(c.ColumnName), dial.Placeholder(n)))
		args = append(args, v)
		n++
	}
	return strings.Join(clauses, " AND "), args, n
}

func (ds *DataSource) existsByPK(ctx context.Context, desc *Descriptor, pkVal any) (bool, error) {
	q := fmt.Sprintf("SELECT 1 FROM %s WHERE %s = %s LIMIT 1", qualifiedTable(ds.dialect, desc), ds.dialect.Quote(desc.PrimaryKey.ColumnName), ds.dialect.Placeholder(1))
	row := ds.executor(ctx).QueryRowContext(ctx, q, pkVal)
	var one int
	err := row.Scan(&one)
	if err == errNoRowsSQL {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// findByIdRow implements spec §4.7 "findById": single row by primary
// key with recursive LEFT JOIN link projection (C8).
func (ds *DataSource) findByIdRow(ctx context.Context, desc *Descriptor, pkVal any, out reflect.Value) (bool, error) {
	where := fmt.Sprintf("t0.%s = %s", ds.dialect.Quote(desc.PrimaryKey.ColumnName), ds.dialect.Placeholder(1))
	q, outCols := selectSQL(ds.dialect, desc, where)
	row := ds.executor(ctx).QueryRowContext(ctx, q, pkVal)
	values, err := scanNamed(row, outCols)
	if err == errNoRowsSQL {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := assembleRow(ds.dialect, out, desc, values, ""); err != nil {
		return false, err
	}
	if err := ds.readCollections(ctx, desc, pkVal, out); err != nil {
		return false, err
	}
	return true, nil
}

func (ds *DataSource) deleteByPK(ctx context.Context, desc *Descriptor, pkVal any) (Result, error) {
	q := fmt.Sprintf("DELETE FROM %s WHERE %s = %s", qualifiedTable(ds.dialect, desc), ds.dialect.Quote(desc.PrimaryKey.ColumnName), ds.dialect.Placeholder(1))
	res, err := ds.executor(ctx).ExecContext(ctx, q, pkVal)
	if err != nil {
		return nil, err
	}
	if err := ds.deleteCollections(ctx, desc, pkVal); err != nil {
		return nil, err
	}
	return res, nil
}

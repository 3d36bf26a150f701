package ptcorm

import (
	"context"
	"fmt"
	"reflect"

	"github.com/FxRayHughes/ptcorm/dialect"
	"github.com/FxRayHughes/ptcorm/query"
)

func (m *Mapper[T]) newT() (*T, reflect.Value) {
	e := new(T)
	return e, reflect.ValueOf(e).Elem()
}

// Insert persists all columns of e, cascade-saving its link fields
// first and writing its collection child tables (spec §4.7 "insert").
func (m *Mapper[T]) Insert(ctx context.Context, e *T) error {
	_, err := m.ds.insertRow(ctx, m.desc, reflect.ValueOf(e).Elem())
	if err != nil {
		return err
	}
	m.clearQueryCache()
	return nil
}

func (m *Mapper[T]) MustInsert(ctx context.Context, e *T) {
	if err := m.Insert(ctx, e); err != nil {
		panic(err)
	}
}

// InsertAndGetKey inserts e and additionally returns the backend-
// generated primary-key value (spec §4.7 "insertAndGetKey").
func (m *Mapper[T]) InsertAndGetKey(ctx context.Context, e *T) (int64, error) {
	res, err := m.ds.insertRow(ctx, m.desc, reflect.ValueOf(e).Elem())
	if err != nil {
		return 0, err
	}
	m.clearQueryCache()
	return res.LastInsertId()
}

// FindById returns the row for pk, or nil if absent (spec §4.7
// "findById"; "returns a sentinel 'not found' value, not an error").
func (m *Mapper[T]) FindById(ctx context.Context, pk any) (*T, error) {
	if m.cached() {
		if v, ok := m.beans.Get(pk); ok {
			return v, nil
		}
	}
	e, rv := m.newT()
	found, err := m.ds.findByIdRow(ctx, m.desc, pk, rv)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, nil
	}
	if m.cached() {
		m.beans.Put(pk, e)
	}
	return e, nil
}

func (m *Mapper[T]) MustFindById(ctx context.Context, pk any) *T {
	e, err := m.FindById(ctx, pk)
	if err != nil {
		panic(err)
	}
	return e
}

// FindAll returns every row matching pred (nil means "full scan"),
// with links recursively hydrated (spec §4.7 "findAll").
func (m *Mapper[T]) FindAll(ctx context.Context, pred query.Cond) ([]*T, error) {
	return m.findWhere(ctx, pred, "")
}

// queryFingerprint identifies a query by its rendered SQL template plus
// its bound arguments, the cache key spec §4.10's query cache is keyed
// on ("query fingerprint").
func queryFingerprint(sql string, args []any) string {
	return fmt.Sprintf("%s\x00%v", sql, args)
}

func (m *Mapper[T]) findWhere(ctx context.Context, pred query.Cond, suffix string) ([]*T, error) {
	where := ""
	var args []any
	if pred != nil {
		sql, a, _ := renderCond(m.ds.dialect, m.desc, pred, 1)
		where = sql
		args = a
	}
	q, outCols := selectSQL(m.ds.dialect, m.desc, where)
	q += suffix

	var cacheKey string
	if m.queries != nil {
		cacheKey = queryFingerprint(q, args)
		if cached, ok := m.queries.Get(cacheKey); ok {
			return cached, nil
		}
	}

	rows, err := m.ds.executor(ctx).QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*T
	for rows.Next() {
		values, err := scanNamedRows(rows, outCols)
		if err != nil {
			return nil, err
		}
		e, rv := m.newT()
		if err := assembleRow(m.ds.dialect, rv, m.desc, values, ""); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(out) == 0 {
		if m.queries != nil {
			m.queries.Put(cacheKey, out)
		}
		return out, nil
	}
	pkVals := make([]any, len(out))
	rvs := make([]reflect.Value, len(out))
	for i, e := range out {
		rv := reflect.ValueOf(e).Elem()
		pkVal, err := columnValue(m.ds.dialect, m.desc.PrimaryKey, fieldAt(rv, m.desc.PrimaryKey.FieldIndex))
		if err != nil {
			return nil, err
		}
		pkVals[i] = pkVal
		rvs[i] = rv
	}
	if err := m.ds.readCollectionsBatch(ctx, m.desc, pkVals, rvs); err != nil {
		return nil, err
	}
	if m.queries != nil {
		m.queries.Put(cacheKey, out)
	}
	return out, nil
}

// Update locates e by primary key (+ secondary keys), writes mutable
// columns, cascade-updates links, and wholesale-replaces child-table
// collections (spec §4.7 "update").
func (m *Mapper[T]) Update(ctx context.Context, e *T) error {
	rv := reflect.ValueOf(e).Elem()
	pkVal, err := columnValue(m.ds.dialect, m.desc.PrimaryKey, fieldAt(rv, m.desc.PrimaryKey.FieldIndex))
	if err != nil {
		return err
	}
	if _, err := m.ds.updateRow(ctx, m.desc, rv); err != nil {
		return err
	}
	m.evictBean(pkVal)
	m.clearQueryCache()
	return nil
}

func (m *Mapper[T]) MustUpdate(ctx context.Context, e *T) {
	if err := m.Update(ctx, e); err != nil {
		panic(err)
	}
}

// Save inserts e if its primary key doesn't yet exist, otherwise
// updates it (teacher-style additive sugar; does not change insert/
// update semantics themselves).
func (m *Mapper[T]) Save(ctx context.Context, e *T) error {
	rv := reflect.ValueOf(e).Elem()
	pkField := fieldAt(rv, m.desc.PrimaryKey.FieldIndex)
	if m.desc.PrimaryKey.IsAutoKey && isZero(pkField) {
		return m.Insert(ctx, e)
	}
	pkVal, err := columnValue(m.ds.dialect, m.desc.PrimaryKey, pkField)
	if err != nil {
		return err
	}
	exists, err := m.ds.existsByPK(ctx, m.desc, pkVal)
	if err != nil {
		return err
	}
	if exists {
		return m.Update(ctx, e)
	}
	return m.Insert(ctx, e)
}

// Upsert writes e using the dialect's native upsert syntax when
// available (spec §4.3), falling back to Save otherwise.
func (m *Mapper[T]) Upsert(ctx context.Context, e *T) error {
	if m.ds.dialect.Capabilities()&dialect.CapNativeUpsert == 0 {
		return m.Save(ctx, e)
	}
	rv := reflect.ValueOf(e).Elem()
	cols := rowColumnsForWrite(m.desc, true)
	var names []string
	var args []any
	for _, c := range cols {
		v, err := columnValue(m.ds.dialect, c, fieldAt(rv, c.FieldIndex))
		if err != nil {
			return err
		}
		names = append(names, c.ColumnName)
		args = append(args, v)
	}
	conflict := []string{m.desc.PrimaryKey.ColumnName}
	var update []string
	for _, c := range m.desc.MutableColumns() {
		update = append(update, c.ColumnName)
	}
	// dialect.Upsert quotes every identifier itself, so names/conflict/
	// update/table here must stay raw (cf. qualifiedTable, which is only
	// for callers that quote once themselves).
	q := m.ds.dialect.Upsert(m.desc.Table, names, conflict, update)
	if _, err := m.ds.executor(ctx).ExecContext(ctx, q, args...); err != nil {
		return err
	}
	pkVal, _ := columnValue(m.ds.dialect, m.desc.PrimaryKey, fieldAt(rv, m.desc.PrimaryKey.FieldIndex))
	if err := m.ds.replaceCollections(ctx, m.desc, pkVal, rv); err != nil {
		return err
	}
	m.evictBean(pkVal)
	m.clearQueryCache()
	return nil
}

// Exists reports whether pk exists (spec §4.7 "exists(pk)").
func (m *Mapper[T]) Exists(ctx context.Context, pk any) (bool, error) {
	return m.ds.existsByPK(ctx, m.desc, pk)
}

// ExistsWhere reports whether any row matches pred ("exists { pred }").
func (m *Mapper[T]) ExistsWhere(ctx context.Context, pred query.Cond) (bool, error) {
	where, args, _ := renderCond(m.ds.dialect, m.desc, pred, 1)
	q := fmt.Sprintf("SELECT 1 FROM %s AS t0 WHERE %s LIMIT 1", qualifiedTable(m.ds.dialect, m.desc), where)
	row := m.ds.executor(ctx).QueryRowContext(ctx, q, args...)
	var one int
	err := row.Scan(&one)
	if err == errNoRowsSQL {
		return false, nil
	}
	return err == nil, err
}

// DeleteById deletes the row for pk, cascading child-table deletes
// (spec §4.7 "deleteById").
func (m *Mapper[T]) DeleteById(ctx context.Context, pk any) error {
	if _, err := m.ds.deleteByPK(ctx, m.desc, pk); err != nil {
		return err
	}
	m.evictBean(pk)
	m.clearQueryCache()
	return nil
}

// DeleteWhere deletes every row matching pred (spec §4.7
// "deleteWhere { pred }"); bean and query caches are both cleared.
func (m *Mapper[T]) DeleteWhere(ctx context.Context, pred query.Cond) (int64, error) {
	pks, err := m.pksMatching(ctx, pred)
	if err != nil {
		return 0, err
	}
	where, args, _ := renderCond(m.ds.dialect, m.desc, pred, 1)
	q := fmt.Sprintf("DELETE FROM %s WHERE %s", qualifiedTable(m.ds.dialect, m.desc), where)
	res, err := m.ds.executor(ctx).ExecContext(ctx, q, args...)
	if err != nil {
		return 0, err
	}
	for _, pk := range pks {
		if err := m.ds.deleteCollections(ctx, m.desc, pk); err != nil {
			return 0, err
		}
	}
	m.clearAll()
	return res.RowsAffected()
}

func (m *Mapper[T]) pksMatching(ctx context.Context, pred query.Cond) ([]any, error) {
	where, args, _ := renderCond(m.ds.dialect, m.desc, pred, 1)
	q := fmt.Sprintf("SELECT %s FROM %s WHERE %s", m.ds.dialect.Quote(m.desc.PrimaryKey.ColumnName), qualifiedTable(m.ds.dialect, m.desc), where)
	rows, err := m.ds.executor(ctx).QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []any
	for rows.Next() {
		var v any
		if err := rows.Scan(&v); err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

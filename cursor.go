package ptcorm

import (
	"context"
	"fmt"

	"github.com/FxRayHughes/ptcorm/query"
)

// FindByRowId operates by the synthetic or explicit auto-increment
// column (spec §4.7 "Rowid"); equivalent to FindById on entities whose
// primary key is the auto-increment column.
func (m *Mapper[T]) FindByRowId(ctx context.Context, id int64) (*T, error) {
	return m.FindById(ctx, id)
}

// DeleteByRowId deletes by the auto-increment column.
func (m *Mapper[T]) DeleteByRowId(ctx context.Context, id int64) error {
	return m.DeleteById(ctx, id)
}

// Count returns the number of rows matching pred (nil means "all").
func (m *Mapper[T]) Count(ctx context.Context, pred query.Cond) (int64, error) {
	where := ""
	var args []any
	if pred != nil {
		sql, a, _ := renderCond(m.ds.dialect, m.desc, pred, 1)
		where = " WHERE " + sql
		args = a
	}
	q := fmt.Sprintf("SELECT COUNT(1) FROM %s AS t0%s", qualifiedTable(m.ds.dialect, m.desc), where)
	row := m.ds.executor(ctx).QueryRowContext(ctx, q, args...)
	var n int64
	if err := row.Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

// Sort emits "ORDER BY col ASC LIMIT n" (spec §4.7 "sort(col, n)").
func (m *Mapper[T]) Sort(ctx context.Context, pred query.Cond, col string, n int) ([]*T, error) {
	return m.findWhere(ctx, pred, fmt.Sprintf(" ORDER BY %s ASC%s", m.ds.dialect.Quote(col), m.ds.dialect.LimitOffset(n, -1)))
}

// SortDescending emits "ORDER BY col DESC LIMIT n".
func (m *Mapper[T]) SortDescending(ctx context.Context, pred query.Cond, col string, n int) ([]*T, error) {
	return m.findWhere(ctx, pred, fmt.Sprintf(" ORDER BY %s DESC%s", m.ds.dialect.Quote(col), m.ds.dialect.LimitOffset(n, -1)))
}

// Page is one page of results plus the total row count across every
// page (spec §4.7 "findPage"/"sortPage").
type Page[T any] struct {
	Rows  []*T
	Total int64
	Page  int
	Size  int
}

// FindPage returns page (1-based) of size rows matching pred; a page
// beyond the last is an empty Rows with Total still reflecting the
// full count (spec §4.7 "sort/limit semantics").
func (m *Mapper[T]) FindPage(ctx context.Context, pred query.Cond, page, size int) (*Page[T], error) {
	return m.SortPage(ctx, pred, "", page, size)
}

// SortPage is FindPage with an additional ORDER BY col ASC.
func (m *Mapper[T]) SortPage(ctx context.Context, pred query.Cond, col string, page, size int) (*Page[T], error) {
	total, err := m.Count(ctx, pred)
	if err != nil {
		return nil, err
	}
	if page < 1 {
		page = 1
	}
	offset := (page - 1) * size
	suffix := ""
	if col != "" {
		suffix = fmt.Sprintf(" ORDER BY %s ASC", m.ds.dialect.Quote(col))
	}
	suffix += m.ds.dialect.LimitOffset(size, offset)
	rows, err := m.findWhere(ctx, pred, suffix)
	if err != nil {
		return nil, err
	}
	return &Page[T]{Rows: rows, Total: total, Page: page, Size: size}, nil
}

// Cursor streams rows one at a time without materializing the whole
// result set; it requires an active transaction on ctx (spec §5
// "Cursor operations require an active transaction on the calling
// worker; invoking a cursor API without one fails with a predictable
// error").
type Cursor[T any] struct {
	m    *Mapper[T]
	rows rowsScanner
	cols []string
}

type rowsScanner interface {
	Next() bool
	Scan(dest ...any) error
	Close() error
	Err() error
}

// SortCursor opens a Cursor over pred ordered by col ASC. The caller
// must Close it; it is safe (and expected) to defer Close right after
// a successful call.
func (m *Mapper[T]) SortCursor(ctx context.Context, pred query.Cond, col string) (*Cursor[T], error) {
	if _, ok := txFromContext(ctx); !ok {
		return nil, ErrNoTransaction
	}
	where := ""
	var args []any
	if pred != nil {
		sql, a, _ := renderCond(m.ds.dialect, m.desc, pred, 1)
		where = sql
		args = a
	}
	q, outCols := selectSQL(m.ds.dialect, m.desc, where)
	if col != "" {
		q += fmt.Sprintf(" ORDER BY %s ASC", m.ds.dialect.Quote(col))
	}
	rows, err := m.ds.executor(ctx).QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	return &Cursor[T]{m: m, rows: rows, cols: outCols}, nil
}

// Next advances the cursor and returns the next row, or nil, false
// when exhausted.
func (c *Cursor[T]) Next(ctx context.Context) (*T, bool, error) {
	if !c.rows.Next() {
		return nil, false, c.rows.Err()
	}
	dest := make([]any, len(c.cols))
	ptrs := make([]any, len(c.cols))
	for i := range dest {
		ptrs[i] = &dest[i]
	}
	if err := c.rows.Scan(ptrs...); err != nil {
		return nil, false, err
	}
	values := make(map[string]any, len(c.cols))
	for i, name := range c.cols {
		values[name] = dest[i]
	}
	e, rv := c.m.newT()
	if err := assembleRow(c.m.ds.dialect, rv, c.m.desc, values, ""); err != nil {
		return nil, false, err
	}
	pkVal, err := columnValue(c.m.ds.dialect, c.m.desc.PrimaryKey, fieldAt(rv, c.m.desc.PrimaryKey.FieldIndex))
	if err != nil {
		return nil, false, err
	}
	if err := c.m.ds.readCollections(ctx, c.m.desc, pkVal, rv); err != nil {
		return nil, false, err
	}
	return e, true, nil
}

// Close releases the cursor's connection. Safe to call more than once.
func (c *Cursor[T]) Close() error {
	return c.rows.Close()
}

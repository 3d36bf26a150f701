package ptcorm

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/FxRayHughes/ptcorm/dialect"
	"github.com/FxRayHughes/ptcorm/query"
)

// RawQuery is the escape hatch for arbitrary SELECTs that still bind
// parameters positionally (spec §4.7 "query { … } / rawQuery"). fn is
// invoked once with the live *sql.Rows; RawQuery closes it afterward.
func (m *Mapper[T]) RawQuery(ctx context.Context, sqlText string, args []any, fn func(*sql.Rows) error) error {
	rows, err := m.ds.executor(ctx).QueryContext(ctx, sqlText, args...)
	if err != nil {
		return err
	}
	defer rows.Close()
	return fn(rows)
}

// RawUpdate executes an arbitrary write statement, clearing the whole
// cache per spec §4.10's invalidation table ("rawUpdate / clear all").
func (m *Mapper[T]) RawUpdate(ctx context.Context, sqlText string, args ...any) (Result, error) {
	res, err := m.ds.executor(ctx).ExecContext(ctx, sqlText, args...)
	if err != nil {
		return nil, err
	}
	m.clearAll()
	return res, nil
}

// RawDelete is RawUpdate's delete-flavored alias, kept separate
// because some callers want the distinct name at call sites.
func (m *Mapper[T]) RawDelete(ctx context.Context, sqlText string, args ...any) (Result, error) {
	return m.RawUpdate(ctx, sqlText, args...)
}

// Join starts a join-DSL query rooted at this mapper's table, aliased
// "t0" (spec §4.7 "Join"; §4.4 "Join model"). Populate it with
// InnerJoinTable/LeftJoinTable (using another Mapper's Descriptor().Table
// as the target) and SelectAs to declare the output row shape, then
// call Execute.
func (m *Mapper[T]) Join() *query.Query {
	return query.New()
}

// Execute renders q and returns one BundleMap per row, keyed by the
// aliases declared via SelectAs (spec GLOSSARY "BundleMap"). Parameter
// binding order follows spec §4.4: each join's subquery parameters,
// then its ON parameters, in join order, followed by the outer WHERE
// parameters (§8 invariant 10).
func (m *Mapper[T]) Execute(ctx context.Context, q *query.Query) ([]BundleMap, error) {
	dial := m.ds.dialect
	sql, args, _ := buildSelectSQL(dial, qualifiedTable(dial, m.desc), q, 1)

	rows, err := m.ds.executor(ctx).QueryContext(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, err
	}
	var out []BundleMap
	for rows.Next() {
		dest := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range dest {
			ptrs[i] = &dest[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, err
		}
		bm := BundleMap{}
		for i, c := range cols {
			bm[c] = dest[i]
		}
		out = append(out, bm)
	}
	return out, rows.Err()
}

// buildSelectSQL renders q into a full parenthesisable SELECT against
// fromSQL (an already-quoted/qualified table reference), honoring its
// projection, joins (recursively, so a nested SubQueryJoin gets its
// own full SELECT rather than just its WHERE), predicate, grouping,
// ordering and limit/offset — the "full parenthesised SELECT with its
// own parameter list" spec §4.4 describes for joined subqueries.
func buildSelectSQL(dial dialect.Dialect, fromSQL string, q *query.Query, n int) (string, []any, int) {
	var args []any
	var joinClauses []string
	for _, j := range q.Joins() {
		var target string
		switch j.Kind {
		case query.SubQueryJoin:
			subSQL, subArgs, next := buildSelectSQL(dial, dial.Quote(j.Table), j.Sub, n)
			target = fmt.Sprintf("(%s) AS %s", subSQL, dial.Quote(j.Alias))
			args = append(args, subArgs...)
			n = next
		case query.StringJoin:
			target = j.Raw
		default:
			target = fmt.Sprintf("%s AS %s", dial.Quote(j.Table), dial.Quote(j.Alias))
		}

		var onParts []string
		for _, c := range j.OnClauses() {
			sql, a, next := renderCond(dial, nil, c, n)
			onParts = append(onParts, sql)
			args = append(args, a...)
			n = next
		}
		op := joinKeyword(j.Op)
		clause := fmt.Sprintf("%s %s", op, target)
		if len(onParts) > 0 {
			clause += " ON " + strings.Join(onParts, " AND ")
		}
		joinClauses = append(joinClauses, clause)
	}

	columns := "t0.*"
	if len(q.Columns()) > 0 {
		var parts []string
		for _, sc := range q.Columns() {
			alias := sc.Alias
			if alias == "" {
				alias = sc.Column
			}
			parts = append(parts, fmt.Sprintf("%s AS %s", sc.Column, dial.Quote(alias)))
		}
		columns = strings.Join(parts, ", ")
	}

	sql := fmt.Sprintf("SELECT %s FROM %s AS t0", columns, fromSQL)
	if len(joinClauses) > 0 {
		sql += " " + strings.Join(joinClauses, " ")
	}
	if q.Cond() != nil {
		w, a, next := renderCond(dial, nil, q.Cond(), n)
		sql += " WHERE " + w
		args = append(args, a...)
		n = next
	}
	if len(q.Group()) > 0 {
		sql += " GROUP BY " + strings.Join(q.Group(), ", ")
	}
	if len(q.Order()) > 0 {
		var parts []string
		for _, o := range q.Order() {
			dir := "ASC"
			if o.Direction == query.Desc {
				dir = "DESC"
			}
			parts = append(parts, fmt.Sprintf("%s %s", o.Column, dir))
		}
		sql += " ORDER BY " + strings.Join(parts, ", ")
	}
	sql += dial.LimitOffset(q.LimitValue(), q.OffsetValue())
	return sql, args, n
}

func joinKeyword(op query.JoinOp) string {
	switch op {
	case query.LeftJoin:
		return "LEFT JOIN"
	case query.RightJoin:
		return "RIGHT JOIN"
	case query.OuterJoin:
		return "FULL OUTER JOIN"
	default:
		return "INNER JOIN"
	}
}

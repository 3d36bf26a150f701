package ptcorm

import (
	"fmt"
	"strings"

	"github.com/FxRayHughes/ptcorm/codec"
	"github.com/FxRayHughes/ptcorm/dialect"
	"github.com/FxRayHughes/ptcorm/query"
)

// normalizeOperand binds an indexed-enum condition operand through its
// EnumIndex rather than its raw Go value, matching how columnValue
// (convert.go) encodes the same type on write; a variant whose
// EnumIndex differs from its underlying representation would otherwise
// bind the wrong value.
func normalizeOperand(v any) any {
	if ie, ok := v.(codec.IndexEnum); ok {
		return ie.EnumIndex()
	}
	return v
}

// resolveColumn maps a condition's field reference to its quoted SQL
// column name: a db column name or Go field name on desc if either
// matches, otherwise the name is assumed already SQL-qualified (e.g.
// "t1.x" from a join) and is used verbatim.
func resolveColumn(dial dialect.Dialect, desc *Descriptor, name string) string {
	if desc != nil {
		if c, ok := desc.ColumnByName(name); ok {
			return dial.Quote(c.ColumnName)
		}
		if c, ok := desc.ColumnByField(name); ok {
			return dial.Quote(c.ColumnName)
		}
	}
	return name
}

// renderCond turns a query.Cond AST into parameterized SQL text,
// numbering placeholders starting at n (spec §4.4 "Parameter
// ordering": textual appearance order).
func renderCond(dial dialect.Dialect, desc *Descriptor, c query.Cond, n int) (string, []any, int) {
	switch v := c.(type) {
	case *query.Eq:
		return renderField(dial, desc, v.Field, "=", n)
	case *query.Ne:
		return renderField(dial, desc, v.Field, "<>", n)
	case *query.Gt:
		return renderField(dial, desc, v.Field, ">", n)
	case *query.Ge:
		return renderField(dial, desc, v.Field, ">=", n)
	case *query.Lt:
		return renderField(dial, desc, v.Field, "<", n)
	case *query.Le:
		return renderField(dial, desc, v.Field, "<=", n)
	case *query.Like:
		return renderField(dial, desc, v.Field, "LIKE", n)
	case *query.In:
		return renderIn(dial, desc, v.Field, n)
	case *query.Rng:
		col := resolveColumn(dial, desc, v.Name)
		sql := fmt.Sprintf("%s BETWEEN %s AND %s", col, dial.Placeholder(n), dial.Placeholder(n+1))
		return sql, []any{normalizeOperand(v.Low), normalizeOperand(v.High)}, n + 2
	case *query.And:
		return renderCombinator(dial, desc, v.Conditions, "AND", n)
	case *query.Or:
		return renderCombinator(dial, desc, v.Conditions, "OR", n)
	case *query.Nt:
		inner, args, next := renderCond(dial, desc, v.Cond, n)
		return "NOT (" + inner + ")", args, next
	default:
		return "1=1", nil, n
	}
}

func renderField(dial dialect.Dialect, desc *Descriptor, f query.Field, op string, n int) (string, []any, int) {
	col := resolveColumn(dial, desc, f.Name)
	if ref, ok := f.Value.(query.Ref); ok {
		return fmt.Sprintf("%s %s %s", col, op, resolveColumn(dial, desc, string(ref))), nil, n
	}
	return fmt.Sprintf("%s %s %s", col, op, dial.Placeholder(n)), []any{normalizeOperand(f.Value)}, n + 1
}

func renderIn(dial dialect.Dialect, desc *Descriptor, f query.Field, n int) (string, []any, int) {
	col := resolveColumn(dial, desc, f.Name)
	values := toAnySlice(f.Value)
	if len(values) == 0 {
		return "1=0", nil, n
	}
	var placeholders []string
	for i, v := range values {
		placeholders = append(placeholders, dial.Placeholder(n))
		values[i] = normalizeOperand(v)
		n++
	}
	return fmt.Sprintf("%s IN (%s)", col, strings.Join(placeholders, ", ")), values, n
}

func renderCombinator(dial dialect.Dialect, desc *Descriptor, conds []query.Cond, op string, n int) (string, []any, int) {
	var parts []string
	var args []any
	for _, c := range conds {
		sql, a, next := renderCond(dial, desc, c, n)
		parts = append(parts, "("+sql+")")
		args = append(args, a...)
		n = next
	}
	return strings.Join(parts, " "+op+" "), args, n
}

func toAnySlice(v any) []any {
	switch vv := v.(type) {
	case []any:
		return vv
	case []string:
		out := make([]any, len(vv))
		for i, s := range vv {
			out[i] = s
		}
		return out
	case []int:
		out := make([]any, len(vv))
		for i, s := range vv {
			out[i] = s
		}
		return out
	case []int64:
		out := make([]any, len(vv))
		for i, s := range vv {
			out[i] = s
		}
		return out
	default:
		return nil
	}
}

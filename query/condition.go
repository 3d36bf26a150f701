// Package query implements the Condition / Query Builder (C4): a
// composable AST for predicates, projections, ordering, grouping,
// limits and joins. Building a Query never touches SQL text or a
// database connection; it is only rendered to parameterized SQL at
// submission time, by the mapper package.
package query

// Cond is the predicate AST. It carries no behavior of its own; its
// only purpose (per the teacher's orm/query.Q) is to prevent passing
// an unrelated value where a condition is expected.
type Cond interface {
	isCond()
}

// Ref represents a reference to another column, obtained via Pre, so
// that the condition builder can tell "compare against this column"
// apart from "compare against this literal value".
type Ref string

// Field is the shared shape of every binary comparison: a column name
// and a right-hand operand, which is either a literal value or a Ref.
type Field struct {
	Name  string
	Value any
}

func (Field) isCond() {}

type (
	Eq   struct{ Field }
	Ne   struct{ Field }
	Gt   struct{ Field }
	Ge   struct{ Field }
	Lt   struct{ Field }
	Le   struct{ Field }
	Like struct{ Field }
	// In holds a slice in Value.
	In struct{ Field }
)

// Rng represents field BETWEEN Low AND High (spec's "between").
type Rng struct {
	Name      string
	Low, High any
}

func (Rng) isCond() {}

// Combinator is the shared shape of AND/OR: a list of sub-conditions.
type Combinator struct {
	Conditions []Cond
}

func (Combinator) isCond() {}

type (
	And struct{ Combinator }
	Or  struct{ Combinator }
)

// Nt negates a single condition.
type Nt struct {
	Cond Cond
}

func (Nt) isCond() {}

// Pre builds a Ref to be used as the right-hand side of a comparison,
// so the emitted SQL compares two columns instead of binding a
// parameter (spec §4.4: "obtained by a pre(column_name) constructor").
func Pre(column string) Ref {
	return Ref(column)
}

func EqF(field string, value any) Cond  { return &Eq{Field{field, value}} }
func NeF(field string, value any) Cond  { return &Ne{Field{field, value}} }
func GtF(field string, value any) Cond  { return &Gt{Field{field, value}} }
func GeF(field string, value any) Cond  { return &Ge{Field{field, value}} }
func LtF(field string, value any) Cond  { return &Lt{Field{field, value}} }
func LeF(field string, value any) Cond  { return &Le{Field{field, value}} }
func LikeF(field string, value any) Cond { return &Like{Field{field, value}} }
func InF(field string, values any) Cond { return &In{Field{field, values}} }

func Between(field string, low, high any) Cond {
	return &Rng{Name: field, Low: low, High: high}
}

func AndOf(conds ...Cond) Cond {
	return &And{Combinator{Conditions: conds}}
}

func OrOf(conds ...Cond) Cond {
	return &Or{Combinator{Conditions: conds}}
}

func Not(c Cond) Cond {
	return &Nt{Cond: c}
}

package query

// Direction is the sort order for an ORDER BY term (spec §4.4).
type Direction int

const (
	Asc Direction = iota
	Desc
)

// OrderTerm is a single ORDER BY column plus direction.
type OrderTerm struct {
	Column    string
	Direction Direction
}

// JoinKind enumerates the three join shapes the builder supports
// (spec §4.4 "Join model").
type JoinKind int

const (
	// TypedJoin targets another registered entity's table.
	TypedJoin JoinKind = iota
	// StringJoin is a literal "table AS alias" clause, used for
	// self-joins where two copies of the same table need distinct
	// aliases.
	StringJoin
	// SubQueryJoin joins against a parenthesized nested SELECT.
	SubQueryJoin
)

// JoinOp is the SQL join operator.
type JoinOp int

const (
	InnerJoin JoinOp = iota
	LeftJoin
	RightJoin
	OuterJoin
)

// Join describes one joined relation. For TypedJoin, Table/Alias are
// resolved by the caller (the mapper package, which knows about
// registered entities) before the join is added to the query. For
// StringJoin, Raw holds the literal "schema.table AS alias" text. For
// SubQueryJoin, Sub holds the nested query, Table is the physical
// table that nested SELECT reads FROM, and the joined relation is
// "(<rendered sub>) AS alias".
type Join struct {
	Kind  JoinKind
	Op    JoinOp
	Table string
	Alias string
	Raw   string
	Sub   *Query

	on []Cond
}

// On adds an AND-combined ON clause to the join. It may be called
// multiple times; every call's predicate is ANDed with the previous
// ones (spec §4.4).
func (j *Join) On(c Cond) *Join {
	j.on = append(j.on, c)
	return j
}

// OnClauses returns the accumulated ON predicates.
func (j *Join) OnClauses() []Cond {
	return j.on
}

// SelectedColumn is one entry of a selectAs(...) projection: a
// qualified column name and the alias it should be returned under.
type SelectedColumn struct {
	Column string
	Alias  string
}

// Query is the mutable query AST builder described in spec §4.4. New
// returns a query with no predicate, no projection override (all
// columns), and no limit/offset/order/group; a zero-value Query has
// limit and offset 0, so it renders "LIMIT 0". Methods mutate the
// receiver and return it, so calls can be chained:
//
//	q := query.New().Where(query.EqF("World", "w")).OrderBy("X", query.Asc).Limit(10)
type Query struct {
	where    Cond
	columns  []SelectedColumn
	order    []OrderTerm
	group    []string
	limit    int
	offset   int
	distinct bool
	joins    []*Join
}

// New returns an empty Query builder.
func New() *Query {
	return &Query{limit: -1, offset: -1}
}

func (q *Query) Where(c Cond) *Query {
	q.where = c
	return q
}

func (q *Query) Cond() Cond {
	return q.where
}

// Rows declares an explicit column projection (spec's rows(cols...)).
func (q *Query) Rows(columns ...string) *Query {
	q.columns = q.columns[:0]
	for _, c := range columns {
		q.columns = append(q.columns, SelectedColumn{Column: c})
	}
	return q
}

// SelectAs declares the row shape for a join, resolving same-name
// conflicts across sides via explicit aliases (spec §4.4).
func (q *Query) SelectAs(pairs ...[2]string) *Query {
	q.columns = q.columns[:0]
	for _, p := range pairs {
		q.columns = append(q.columns, SelectedColumn{Column: p[0], Alias: p[1]})
	}
	return q
}

func (q *Query) Columns() []SelectedColumn {
	return q.columns
}

func (q *Query) OrderBy(column string, dir Direction) *Query {
	q.order = append(q.order, OrderTerm{Column: column, Direction: dir})
	return q
}

func (q *Query) Order() []OrderTerm {
	return q.order
}

func (q *Query) GroupBy(columns ...string) *Query {
	q.group = append(q.group, columns...)
	return q
}

func (q *Query) Group() []string {
	return q.group
}

func (q *Query) Limit(n int) *Query {
	q.limit = n
	return q
}

func (q *Query) Offset(n int) *Query {
	q.offset = n
	return q
}

func (q *Query) LimitValue() int  { return q.limit }
func (q *Query) OffsetValue() int { return q.offset }

func (q *Query) Distinct() *Query {
	q.distinct = true
	return q
}

func (q *Query) IsDistinct() bool { return q.distinct }

func (q *Query) addJoin(j *Join) *Join {
	q.joins = append(q.joins, j)
	return j
}

// InnerJoinTable adds a typed join against another table, identified
// by its already-resolved table name and a fresh alias.
func (q *Query) InnerJoinTable(table, alias string) *Join {
	return q.addJoin(&Join{Kind: TypedJoin, Op: InnerJoin, Table: table, Alias: alias})
}

func (q *Query) LeftJoinTable(table, alias string) *Join {
	return q.addJoin(&Join{Kind: TypedJoin, Op: LeftJoin, Table: table, Alias: alias})
}

// JoinRaw adds a string-form join, e.g. for self-joins: the caller
// supplies the already-quoted "table AS alias" text.
func (q *Query) JoinRaw(op JoinOp, raw, alias string) *Join {
	return q.addJoin(&Join{Kind: StringJoin, Op: op, Raw: raw, Alias: alias})
}

// SubQuery adds a join against a nested SELECT, rendered as a full
// "(SELECT ... FROM physicalTable ...) AS alias": physicalTable
// becomes the nested query's own FROM target, and sub's projection
// (Rows/SelectAs), predicate, joins, grouping, ordering and
// limit/offset are all rendered into that inner SELECT rather than
// just its WHERE clause.
func (q *Query) SubQuery(physicalTable, alias string, sub *Query) *Join {
	return q.addJoin(&Join{Kind: SubQueryJoin, Op: InnerJoin, Table: physicalTable, Alias: alias, Sub: sub})
}

func (q *Query) Joins() []*Join {
	return q.joins
}

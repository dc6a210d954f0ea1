package store

// Op is a filter comparison operator.
type Op string

const (
	OpEq      Op = "eq"
	OpNeq     Op = "neq"
	OpGt      Op = "gt"
	OpGte     Op = "gte"
	OpLt      Op = "lt"
	OpLte     Op = "lte"
	OpIn      Op = "in"
	OpIsNull  Op = "is_null"
	OpNotNull Op = "not_null"
)

type Filter struct {
	Column string
	Op     Op
	Value  any
}

func Eq(column string, value any) Filter  { return Filter{Column: column, Op: OpEq, Value: value} }
func Neq(column string, value any) Filter { return Filter{Column: column, Op: OpNeq, Value: value} }
func Gt(column string, value any) Filter  { return Filter{Column: column, Op: OpGt, Value: value} }
func Gte(column string, value any) Filter { return Filter{Column: column, Op: OpGte, Value: value} }
func Lt(column string, value any) Filter  { return Filter{Column: column, Op: OpLt, Value: value} }
func Lte(column string, value any) Filter { return Filter{Column: column, Op: OpLte, Value: value} }
func IsNull(column string) Filter         { return Filter{Column: column, Op: OpIsNull} }
func NotNull(column string) Filter        { return Filter{Column: column, Op: OpNotNull} }

// In matches rows whose column equals any of values. An empty list matches
// nothing.
func In(column string, values []any) Filter {
	return Filter{Column: column, Op: OpIn, Value: values}
}

// InStrings is In for string values.
func InStrings(column string, values ...string) Filter {
	vs := make([]any, len(values))
	for i, v := range values {
		vs[i] = v
	}
	return In(column, vs)
}

// Values returns the operand list of an In filter.
func (f Filter) Values() []any {
	vs, _ := f.Value.([]any)
	return vs
}

type Order struct {
	Column string
	Desc   bool
}

func Asc(column string) Order  { return Order{Column: column} }
func Desc(column string) Order { return Order{Column: column, Desc: true} }

// Query describes a filtered, ordered, optionally limited read of one table
// or view. Builder methods return copies so a base query can be reused.
type Query struct {
	Table   string
	Filters []Filter
	Orders  []Order
	Max     int
}

func From(table string) Query {
	return Query{Table: table}
}

func (q Query) Where(filters ...Filter) Query {
	q.Filters = append(append([]Filter(nil), q.Filters...), filters...)
	return q
}

func (q Query) OrderBy(orders ...Order) Query {
	q.Orders = append(append([]Order(nil), q.Orders...), orders...)
	return q
}

// Limit caps the number of returned rows; zero means no limit.
func (q Query) Limit(n int) Query {
	q.Max = n
	return q
}

package storage

// Operator is a filter predicate.
type Operator string

const (
	OpEq     Operator = "eq"
	OpIsNull Operator = "is_null"
	OpIn     Operator = "in"
	OpILike  Operator = "ilike"
	OpGte    Operator = "gte"
	OpLte    Operator = "lte"
)

// Filter restricts an operation to rows whose Column satisfies Op against Value.
type Filter struct {
	Column string
	Op     Operator
	Value  any
}

// Eq matches rows where column equals v.
func Eq(column string, v any) Filter {
	return Filter{Column: column, Op: OpEq, Value: v}
}

// IsNull matches rows where column is null.
func IsNull(column string) Filter {
	return Filter{Column: column, Op: OpIsNull}
}

// In matches rows where column equals one of values.
func In(column string, values ...any) Filter {
	return Filter{Column: column, Op: OpIn, Value: values}
}

// InStrings is In for a string slice.
func InStrings(column string, values []string) Filter {
	vs := make([]any, len(values))
	for i, v := range values {
		vs[i] = v
	}
	return In(column, vs...)
}

// ILike matches rows where column contains s, ignoring case.
func ILike(column, s string) Filter {
	return Filter{Column: column, Op: OpILike, Value: s}
}

// Gte matches rows where column >= v.
func Gte(column string, v any) Filter {
	return Filter{Column: column, Op: OpGte, Value: v}
}

// Lte matches rows where column <= v.
func Lte(column string, v any) Filter {
	return Filter{Column: column, Op: OpLte, Value: v}
}

// Values returns the list carried by an In filter.
func (f Filter) Values() []any {
	vs, _ := f.Value.([]any)
	return vs
}

// Order sorts results by Column.
type Order struct {
	Column string
	Desc   bool
}

// Query describes a select.
type Query struct {
	Columns []string
	Filters []Filter
	Orders  []Order
	MaxRows int
}

// Select starts a query returning the given columns (all columns when empty).
func Select(columns ...string) Query {
	return Query{Columns: columns}
}

// Where adds filters to q.
func (q Query) Where(filters ...Filter) Query {
	q.Filters = append(append([]Filter(nil), q.Filters...), filters...)
	return q
}

// OrderBy adds a sort column to q.
func (q Query) OrderBy(column string, desc bool) Query {
	q.Orders = append(append([]Order(nil), q.Orders...), Order{Column: column, Desc: desc})
	return q
}

// Limit caps the number of rows returned.
func (q Query) Limit(n int) Query {
	q.MaxRows = n
	return q
}

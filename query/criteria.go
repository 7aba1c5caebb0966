package query

import (
	"math"
	"sort"
)

// Filter operator tokens (MongoDB wire grammar).
const (
	opEq          = "$eq"
	opNe          = "$ne"
	opGt          = "$gt"
	opGte         = "$gte"
	opLt          = "$lt"
	opLte         = "$lte"
	opIn          = "$in"
	opNin         = "$nin"
	opAll         = "$all"
	opExists      = "$exists"
	opMod         = "$mod"
	opRegex       = "$regex"
	opOptions     = "$options"
	opNearSphere  = "$nearSphere"
	opMaxDistance = "$maxDistance"
	opWithin      = "$within"
	opBox         = "$box"
	opPolygon     = "$polygon"
	opSize        = "$size"

	opAnd = "$and"
	opOr  = "$or"
	opNor = "$nor"
)

// Point is a geographic coordinate as [longitude, latitude].
// It marshals to the two-element array form the wire expects.
type Point [2]float64

// Criteria is the query value object: projected fields, a filter tree,
// an insertion-ordered sort specification, and pagination bounds.
//
// A Criteria is either authoritative (owner == nil) and holds the real
// state, or a scoped view created by a zero-argument join. A scoped view
// keeps a pointer to its owner plus the right-hand-side slot embedded in
// the owner's filter tree; filter mutators write into the slot while
// fields/sort/limit/skip resolve to the authoritative root. Exactly one
// Criteria in any scope chain is authoritative.
//
// Criteria is a plain mutable value: single-writer by convention, no
// internal synchronization. Validation failures are recorded as a sticky
// first-error on the root before any state is mutated; Err exposes it
// and every terminal operation refuses to proceed while it is set.
type Criteria struct {
	fields []string
	filter map[string]any
	sort   Sort
	limit  *int
	skip   int
	err    error

	owner *Criteria
	slot  map[string]any
}

// New creates an empty criteria matching all records.
func New() *Criteria {
	return &Criteria{filter: map[string]any{}}
}

// root resolves the authoritative criteria for this scope chain.
func (q *Criteria) root() *Criteria {
	r := q
	for r.owner != nil {
		r = r.owner
	}
	return r
}

// writableFilter returns the filter node mutators write into: the
// right-hand-side slot for a scoped view, the root tree otherwise.
func (q *Criteria) writableFilter() map[string]any {
	if q.owner != nil {
		return q.slot
	}
	return q.filter
}

// fail records the first validation error on the authoritative root.
// The failing mutator has not touched any state by the time fail runs.
func (q *Criteria) fail(e *Error) *Criteria {
	r := q.root()
	if r.err == nil {
		r.err = e
	}
	return q
}

// Err returns the first validation error recorded by any mutator in
// this scope chain, or nil. Terminal operations (PlainObject,
// QueryString, eval.Process) surface the same error.
func (q *Criteria) Err() error {
	return q.root().err
}

// AddFilter merges operator → value into the field's operator map,
// creating the map if absent. A repeated call with the same
// (field, operator) pair overwrites the prior value. This is the
// low-level primitive every field mutator calls.
func (q *Criteria) AddFilter(field, operator string, value any) *Criteria {
	if field == "" {
		return q.fail(newError(CodeInvalidArgument, "AddFilter", "field name must not be empty"))
	}
	if operator == "" {
		return q.fail(newError(CodeInvalidArgument, "AddFilter", "operator must not be empty"))
	}
	f := q.writableFilter()
	m, ok := f[field].(map[string]any)
	if !ok {
		m = make(map[string]any, 1)
		f[field] = m
	}
	m[operator] = value
	return q
}

// EqualTo adds an equality constraint ($eq) on field.
func (q *Criteria) EqualTo(field string, value any) *Criteria {
	return q.AddFilter(field, opEq, value)
}

// NotEqualTo adds an inequality constraint ($ne) on field.
func (q *Criteria) NotEqualTo(field string, value any) *Criteria {
	return q.AddFilter(field, opNe, value)
}

// Contains requires the field value to be one of values ($in).
// A single scalar argument is wrapped into a one-element list.
func (q *Criteria) Contains(field string, values ...any) *Criteria {
	if len(values) == 0 {
		return q.fail(newError(CodeInvalidArgument, "Contains", "at least one value is required"))
	}
	return q.AddFilter(field, opIn, values)
}

// NotContainedIn requires the field value to be none of values ($nin).
// A single scalar argument is wrapped into a one-element list.
func (q *Criteria) NotContainedIn(field string, values ...any) *Criteria {
	if len(values) == 0 {
		return q.fail(newError(CodeInvalidArgument, "NotContainedIn", "at least one value is required"))
	}
	return q.AddFilter(field, opNin, values)
}

// ContainsAll requires the field's array value to contain every element
// of values ($all). A single scalar argument is wrapped into a
// one-element list.
func (q *Criteria) ContainsAll(field string, values ...any) *Criteria {
	if len(values) == 0 {
		return q.fail(newError(CodeInvalidArgument, "ContainsAll", "at least one value is required"))
	}
	return q.AddFilter(field, opAll, values)
}

// GreaterThan adds a $gt range constraint. The bound must be a number
// or a string.
func (q *Criteria) GreaterThan(field string, value any) *Criteria {
	return q.rangeFilter("GreaterThan", field, opGt, value)
}

// GreaterThanOrEqualTo adds a $gte range constraint. The bound must be
// a number or a string.
func (q *Criteria) GreaterThanOrEqualTo(field string, value any) *Criteria {
	return q.rangeFilter("GreaterThanOrEqualTo", field, opGte, value)
}

// LessThan adds a $lt range constraint. The bound must be a number or a
// string.
func (q *Criteria) LessThan(field string, value any) *Criteria {
	return q.rangeFilter("LessThan", field, opLt, value)
}

// LessThanOrEqualTo adds a $lte range constraint. The bound must be a
// number or a string.
func (q *Criteria) LessThanOrEqualTo(field string, value any) *Criteria {
	return q.rangeFilter("LessThanOrEqualTo", field, opLte, value)
}

func (q *Criteria) rangeFilter(op, field, operator string, value any) *Criteria {
	if !isNumberOrString(value) {
		return q.fail(newError(CodeInvalidType, op, "range bound must be a number or string, got %T", value))
	}
	return q.AddFilter(field, operator, value)
}

// Exists requires the field to be present ($exists). Pass an explicit
// false flag to require absence instead.
func (q *Criteria) Exists(field string, flag ...bool) *Criteria {
	f := true
	if len(flag) > 0 {
		f = flag[0]
	}
	return q.AddFilter(field, opExists, f)
}

// Mod requires field % divisor == remainder ($mod). Both arguments
// accept numbers or numeric strings; the remainder defaults to 0.
func (q *Criteria) Mod(field string, divisor any, remainder ...any) *Criteria {
	d, err := toNumber(divisor)
	if err != nil {
		return q.fail(newError(CodeInvalidType, "Mod", "divisor: %v", err))
	}
	r := 0.0
	if len(remainder) > 0 {
		r, err = toNumber(remainder[0])
		if err != nil {
			return q.fail(newError(CodeInvalidType, "Mod", "remainder: %v", err))
		}
	}
	return q.AddFilter(field, opMod, []any{d, r})
}

// Near requires the field to be near the given coordinate
// ($nearSphere), optionally bounded by maxDistance ($maxDistance).
// Note that $nearSphere cannot be evaluated offline; see
// UnsupportedOffline.
func (q *Criteria) Near(field string, point Point, maxDistance ...float64) *Criteria {
	q.AddFilter(field, opNearSphere, point)
	if len(maxDistance) > 0 {
		q.AddFilter(field, opMaxDistance, maxDistance[0])
	}
	return q
}

// WithinBox requires the field's coordinate to fall inside the
// rectangle spanned by bottomLeft and topRight ($within: {$box: ...}).
func (q *Criteria) WithinBox(field string, bottomLeft, topRight Point) *Criteria {
	return q.AddFilter(field, opWithin, map[string]any{
		opBox: []Point{bottomLeft, topRight},
	})
}

// WithinPolygon requires the field's coordinate to fall inside the
// polygon ($within: {$polygon: ...}). At most three points are
// accepted.
func (q *Criteria) WithinPolygon(field string, points []Point) *Criteria {
	if len(points) == 0 {
		return q.fail(newError(CodeInvalidArgument, "WithinPolygon", "at least one point is required"))
	}
	if len(points) > 3 {
		return q.fail(newError(CodeInvalidArgument, "WithinPolygon", "polygon accepts at most 3 points, got %d", len(points)))
	}
	return q.AddFilter(field, opWithin, map[string]any{
		opPolygon: points,
	})
}

// Size requires the field's array value to have exactly n elements
// ($size). Accepts a number or a numeric string.
func (q *Criteria) Size(field string, n any) *Criteria {
	v, err := toNumber(n)
	if err != nil {
		return q.fail(newError(CodeInvalidType, "Size", "%v", err))
	}
	return q.AddFilter(field, opSize, v)
}

// Ascending sorts results by field in ascending order. The first call
// for a field fixes its position in the tie-break chain; re-calling
// overwrites the direction without moving the field.
func (q *Criteria) Ascending(field string) *Criteria {
	if field == "" {
		return q.fail(newError(CodeInvalidArgument, "Ascending", "field name must not be empty"))
	}
	r := q.root()
	r.sort = r.sort.set(field, SortAscending)
	return q
}

// Descending sorts results by field in descending order. Ordering rules
// match Ascending.
func (q *Criteria) Descending(field string) *Criteria {
	if field == "" {
		return q.fail(newError(CodeInvalidArgument, "Descending", "field name must not be empty"))
	}
	r := q.root()
	r.sort = r.sort.set(field, SortDescending)
	return q
}

// SetFields replaces the projection list. Empty means all fields.
func (q *Criteria) SetFields(fields ...string) *Criteria {
	for _, f := range fields {
		if f == "" {
			return q.fail(newError(CodeInvalidArgument, "SetFields", "field names must not be empty"))
		}
	}
	r := q.root()
	r.fields = append([]string(nil), fields...)
	return q
}

// SetSort replaces the whole sort specification. Directions must be
// SortAscending (1) or SortDescending (-1); a duplicated field keeps
// its first position with the last direction.
func (q *Criteria) SetSort(s Sort) *Criteria {
	var normalized Sort
	for _, sf := range s {
		if sf.Field == "" {
			return q.fail(newError(CodeInvalidArgument, "SetSort", "sort field names must not be empty"))
		}
		if sf.Direction != SortAscending && sf.Direction != SortDescending {
			return q.fail(newError(CodeInvalidArgument, "SetSort", "sort direction for %q must be 1 or -1, got %d", sf.Field, sf.Direction))
		}
	}
	for _, sf := range s {
		normalized = normalized.set(sf.Field, sf.Direction)
	}
	r := q.root()
	r.sort = normalized
	return q
}

// SetLimit bounds the number of returned records. Accepts a positive
// integer (or numeric string); nil clears the bound.
func (q *Criteria) SetLimit(v any) *Criteria {
	r := q.root()
	if v == nil {
		r.limit = nil
		return q
	}
	n, err := toNumber(v)
	if err != nil {
		return q.fail(newError(CodeInvalidType, "SetLimit", "%v", err))
	}
	if n != math.Trunc(n) || n < 1 {
		return q.fail(newError(CodeInvalidArgument, "SetLimit", "limit must be a positive integer, got %v", v))
	}
	limit := int(n)
	r.limit = &limit
	return q
}

// SetSkip sets the number of leading records to drop. Accepts a
// non-negative integer (or numeric string).
func (q *Criteria) SetSkip(v any) *Criteria {
	n, err := toNumber(v)
	if err != nil {
		return q.fail(newError(CodeInvalidType, "SetSkip", "%v", err))
	}
	if n != math.Trunc(n) || n < 0 {
		return q.fail(newError(CodeInvalidArgument, "SetSkip", "skip must be a non-negative integer, got %v", v))
	}
	q.root().skip = int(n)
	return q
}

// Fields returns a copy of the projection list.
func (q *Criteria) Fields() []string {
	return append([]string(nil), q.root().fields...)
}

// Filter returns a deep copy of the authoritative filter tree.
func (q *Criteria) Filter() map[string]any {
	return copyFilter(q.root().filter)
}

// SortSpec returns a copy of the sort specification in tie-break order.
func (q *Criteria) SortSpec() Sort {
	return append(Sort(nil), q.root().sort...)
}

// Limit returns the result bound and whether one is set.
func (q *Criteria) Limit() (int, bool) {
	r := q.root()
	if r.limit == nil {
		return 0, false
	}
	return *r.limit, true
}

// Skip returns the number of leading records to drop.
func (q *Criteria) Skip() int {
	return q.root().skip
}

// UnsupportedOffline returns the filter operators that cannot be
// evaluated against the local cache, in sorted order. Only top-level
// field constraints are inspected: operators nested inside $and/$or/
// $nor sub-trees are not detected. This shallow scan is a documented
// compatibility limitation.
func (q *Criteria) UnsupportedOffline() []string {
	seen := map[string]bool{}
	for field, v := range q.root().filter {
		if field == opAnd || field == opOr || field == opNor {
			continue
		}
		m, ok := v.(map[string]any)
		if !ok {
			continue
		}
		for op := range m {
			if op == opNearSphere {
				seen[op] = true
			}
		}
	}
	if len(seen) == 0 {
		return nil
	}
	ops := make([]string, 0, len(seen))
	for op := range seen {
		ops = append(ops, op)
	}
	sort.Strings(ops)
	return ops
}

// SupportedOffline reports whether the criteria can be evaluated
// against the local cache. See UnsupportedOffline for the shallow-scan
// limitation.
func (q *Criteria) SupportedOffline() bool {
	return len(q.UnsupportedOffline()) == 0
}

package query

// And combines the constraints built so far with subs under $and.
//
// And always binds to whatever is immediately at hand: invoked on a
// scoped view it joins inside that view's slot rather than escaping to
// the owner, which is what gives AND the tightest binding.
//
// With explicit subs the receiver's handle is returned; with no subs a
// scope is opened and the returned handle builds the right-hand side
// (see join).
func (q *Criteria) And(subs ...*Criteria) *Criteria {
	return q.join(opAnd, subs)
}

// Nor combines the constraints built so far with subs under $nor.
//
// When the owning criteria already carries a top-level $and, the call
// redirects to the owner so that an AND applied by an ancestor still
// outranks a NOR issued on a descendant scope.
func (q *Criteria) Nor(subs ...*Criteria) *Criteria {
	if q.owner != nil && hasKey(q.owner.writableFilter(), opAnd) {
		return q.owner.Nor(subs...)
	}
	return q.join(opNor, subs)
}

// Or combines the constraints built so far with subs under $or.
//
// Or always redirects to the outermost owner first: OR binds loosest
// and must wrap everything built so far, at any scope depth.
func (q *Criteria) Or(subs ...*Criteria) *Criteria {
	if q.owner != nil {
		return q.root().Or(subs...)
	}
	return q.join(opOr, subs)
}

// join implements the combinator algebra shared by And, Or, and Nor:
//
//  1. Each sub contributes a deep copy of its authoritative filter.
//  2. No subs opens a scope: a fresh criteria scoped to q whose slot
//     becomes the sole right-hand operand, enabling
//     `q.Or().EqualTo(...)` chains.
//  3. q's current top-level entries are snapshotted as the left-hand
//     operand and removed in place.
//  4. q's filter becomes {operator: [lhs, rhs...]}.
//  5. Returns q when explicit subs were given, the scope child
//     otherwise — callers must chain on the returned handle.
func (q *Criteria) join(operator string, subs []*Criteria) *Criteria {
	for _, sub := range subs {
		if sub == nil {
			return q.fail(newError(CodeInvalidArgument, "join", "sub-criteria must not be nil"))
		}
	}

	ret := q
	operands := make([]any, 0, len(subs)+1)

	f := q.writableFilter()
	lhs := make(map[string]any, len(f))
	for k, v := range f {
		lhs[k] = v
		delete(f, k)
	}
	operands = append(operands, lhs)

	if len(subs) == 0 {
		rhs := map[string]any{}
		operands = append(operands, rhs)
		ret = &Criteria{owner: q, slot: rhs}
	} else {
		for _, sub := range subs {
			operands = append(operands, copyFilter(sub.root().filter))
		}
	}

	f[operator] = operands
	return ret
}

func hasKey(m map[string]any, key string) bool {
	_, ok := m[key]
	return ok
}

// Package query implements the criteria model for the sieve client SDK.
//
// A Criteria is built incrementally through fluent field-operator mutators
// (e.g., `q.EqualTo("name", "alice").GreaterThan("age", 21)`) and boolean
// joins (And/Or/Nor). The finished criteria serializes to the wire form
// consumed by the HTTP transport (QueryString) and to a canonical snapshot
// (PlainObject) that round-trips through FromPlain.
//
// Boolean precedence is AND > NOR > OR regardless of call order. The join
// algebra realizes this through scope delegation: a zero-argument join
// opens a scoped child whose writes fill the right-hand operand, and Or
// and Nor redirect to owning criteria so that earlier joins keep their
// binding strength.
package query

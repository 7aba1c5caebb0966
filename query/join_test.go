package query

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrecedence_AndBindsTighterThanOr(t *testing.T) {
	q := New().EqualTo("a", 1)
	q2 := New().EqualTo("b", 2)
	q3 := New().EqualTo("c", 3)

	ret := q.And(q2).Or(q3)

	require.NoError(t, q.Err())
	assert.Same(t, q, ret)
	assert.Equal(t, map[string]any{
		"$or": []any{
			map[string]any{
				"$and": []any{
					map[string]any{"a": map[string]any{"$eq": 1}},
					map[string]any{"b": map[string]any{"$eq": 2}},
				},
			},
			map[string]any{"c": map[string]any{"$eq": 3}},
		},
	}, q.Filter())
}

func TestNor_OnRootJoinsInPlace(t *testing.T) {
	q := New().EqualTo("a", 1).Nor(New().EqualTo("b", 2))

	require.NoError(t, q.Err())
	assert.Equal(t, map[string]any{
		"$nor": []any{
			map[string]any{"a": map[string]any{"$eq": 1}},
			map[string]any{"b": map[string]any{"$eq": 2}},
		},
	}, q.Filter())
}

func TestJoin_ZeroArgsOpensScope(t *testing.T) {
	q := New().EqualTo("a", 1)
	rhs := q.Or()

	require.NotSame(t, q, rhs)
	rhs.EqualTo("b", 2)

	assert.Equal(t, map[string]any{
		"$or": []any{
			map[string]any{"a": map[string]any{"$eq": 1}},
			map[string]any{"b": map[string]any{"$eq": 2}},
		},
	}, q.Filter())

	// The scoped view is non-authoritative: serialization delegates to
	// the root.
	snap, err := rhs.PlainObject()
	require.NoError(t, err)
	assert.Equal(t, q.Filter(), snap.Filter)
}

func TestAnd_BindsToScopedView(t *testing.T) {
	q := New().EqualTo("a", 1)
	rhs := q.Or()
	rhs.EqualTo("b", 2)

	// AND issued on the scoped view combines inside the right-hand
	// operand, not at the root.
	rhs2 := rhs.And()
	rhs2.EqualTo("d", 4)

	assert.Equal(t, map[string]any{
		"$or": []any{
			map[string]any{"a": map[string]any{"$eq": 1}},
			map[string]any{
				"$and": []any{
					map[string]any{"b": map[string]any{"$eq": 2}},
					map[string]any{"d": map[string]any{"$eq": 4}},
				},
			},
		},
	}, q.Filter())
}

func TestOr_RedirectsToOutermostOwner(t *testing.T) {
	q := New().EqualTo("a", 1)
	inner := q.And()
	inner.EqualTo("b", 2)

	// OR issued on a scoped view wraps everything built so far.
	rhs := inner.Or()
	rhs.EqualTo("c", 3)

	assert.Equal(t, map[string]any{
		"$or": []any{
			map[string]any{
				"$and": []any{
					map[string]any{"a": map[string]any{"$eq": 1}},
					map[string]any{"b": map[string]any{"$eq": 2}},
				},
			},
			map[string]any{"c": map[string]any{"$eq": 3}},
		},
	}, q.Filter())
}

func TestNor_RedirectsWhenOwnerCarriesAnd(t *testing.T) {
	q := New().EqualTo("a", 1)
	inner := q.And()
	inner.EqualTo("b", 2)

	// NOR on a scope whose owner holds a top-level $and must not nest
	// inside the AND operand: the ancestor's AND outranks it.
	rhs := inner.Nor()
	rhs.EqualTo("c", 3)

	assert.Equal(t, map[string]any{
		"$nor": []any{
			map[string]any{
				"$and": []any{
					map[string]any{"a": map[string]any{"$eq": 1}},
					map[string]any{"b": map[string]any{"$eq": 2}},
				},
			},
			map[string]any{"c": map[string]any{"$eq": 3}},
		},
	}, q.Filter())
}

func TestJoin_SubContributesFilterCopy(t *testing.T) {
	q2 := New().EqualTo("b", 2)
	q := New().EqualTo("a", 1).And(q2)

	// Mutating the sub afterwards must not leak into the join result.
	q2.EqualTo("b", 99)

	assert.Equal(t, map[string]any{
		"$and": []any{
			map[string]any{"a": map[string]any{"$eq": 1}},
			map[string]any{"b": map[string]any{"$eq": 2}},
		},
	}, q.Filter())
}

func TestJoin_NilSubFails(t *testing.T) {
	q := New().EqualTo("a", 1).And(nil)

	assert.True(t, IsInvalidArgument(q.Err()))
	// Nothing was mutated by the failing join.
	assert.Equal(t, map[string]any{
		"a": map[string]any{"$eq": 1},
	}, q.Filter())
}

func TestScopedView_SortAndLimitResolveToRoot(t *testing.T) {
	q := New().EqualTo("a", 1)
	rhs := q.Or()
	rhs.EqualTo("b", 2).Ascending("name").SetLimit(5).SetSkip(1)

	require.NoError(t, q.Err())
	assert.Equal(t, Sort{{Field: "name", Direction: SortAscending}}, q.SortSpec())
	limit, ok := q.Limit()
	require.True(t, ok)
	assert.Equal(t, 5, limit)
	assert.Equal(t, 1, q.Skip())
}

package eval

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sievekit/sieve/query"
)

func records(vals ...map[string]any) []map[string]any {
	return vals
}

func TestProcess_FilterSkipLimit(t *testing.T) {
	q := query.New().GreaterThan("a", 1).SetSkip(1)
	q.SetLimit(1)

	got, err := Process(q, records(
		map[string]any{"a": 1},
		map[string]any{"a": 2},
		map[string]any{"a": 3},
	))
	require.NoError(t, err)
	assert.Equal(t, records(map[string]any{"a": 3}), got)
}

func TestProcess_EmptyCriteriaReturnsAll(t *testing.T) {
	in := records(map[string]any{"a": 1}, map[string]any{"b": 2})

	got, err := Process(query.New(), in)
	require.NoError(t, err)
	assert.Equal(t, in, got)
}

func TestProcess_ProjectionMutatesInPlace(t *testing.T) {
	rec := map[string]any{"name": "alice", "age": 30, "email": "a@b"}
	q := query.New().SetFields("name", "age")

	got, err := Process(q, records(rec))
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, map[string]any{"name": "alice", "age": 30}, got[0])
	// The input record itself was stripped.
	assert.Equal(t, map[string]any{"name": "alice", "age": 30}, rec)
}

func TestProcess_MultiFieldSort(t *testing.T) {
	q := query.New().Descending("group").Ascending("name")

	got, err := Process(q, records(
		map[string]any{"group": 1, "name": "b"},
		map[string]any{"group": 2, "name": "c"},
		map[string]any{"group": 2, "name": "a"},
		map[string]any{"group": 1, "name": "a"},
	))
	require.NoError(t, err)
	assert.Equal(t, records(
		map[string]any{"group": 2, "name": "a"},
		map[string]any{"group": 2, "name": "c"},
		map[string]any{"group": 1, "name": "a"},
		map[string]any{"group": 1, "name": "b"},
	), got)
}

func TestProcess_SortMissingFieldSortsLast(t *testing.T) {
	q := query.New().Ascending("age")

	got, err := Process(q, records(
		map[string]any{"name": "noage"},
		map[string]any{"name": "old", "age": 40},
		map[string]any{"name": "young", "age": 20},
	))
	require.NoError(t, err)
	assert.Equal(t, records(
		map[string]any{"name": "young", "age": 20},
		map[string]any{"name": "old", "age": 40},
		map[string]any{"name": "noage"},
	), got)
}

func TestProcess_SortIsStable(t *testing.T) {
	q := query.New().Ascending("group")

	got, err := Process(q, records(
		map[string]any{"group": 1, "seq": 1},
		map[string]any{"group": 1, "seq": 2},
		map[string]any{"group": 1, "seq": 3},
	))
	require.NoError(t, err)
	assert.Equal(t, []any{1, 2, 3}, []any{got[0]["seq"], got[1]["seq"], got[2]["seq"]})
}

func TestProcess_SkipPastEndReturnsEmpty(t *testing.T) {
	q := query.New().SetSkip(10)

	got, err := Process(q, records(map[string]any{"a": 1}))
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestProcess_UnsupportedOfflineFails(t *testing.T) {
	q := query.New().Near("loc", query.Point{1, 2})

	_, err := Process(q, records(map[string]any{"loc": []any{1.0, 2.0}}))
	require.Error(t, err)
	assert.True(t, query.IsUnsupportedOffline(err))
	assert.Contains(t, err.Error(), "$nearSphere")
}

func TestProcess_NestedUnsupportedStaysSupported(t *testing.T) {
	// Detection is shallow: operators under a combinator are not scanned.
	scoped := query.New().EqualTo("a", 1).Or()
	scoped.Near("loc", query.Point{1, 2})
	q := scoped

	got, err := Process(q, records(map[string]any{"a": 1}))
	require.NoError(t, err)
	assert.Len(t, got, 1)
}

func TestProcess_StickyErrorSurfaces(t *testing.T) {
	q := query.New().SetSkip(-1)

	_, err := Process(q, records(map[string]any{"a": 1}))
	require.Error(t, err)
	assert.True(t, query.IsInvalidArgument(err))
}

func TestProcess_CustomMatcher(t *testing.T) {
	calls := 0
	e := New(WithMatcher(func(filter, record map[string]any) bool {
		calls++
		return false
	}))

	got, err := e.Process(query.New().EqualTo("a", 1), records(
		map[string]any{"a": 1},
		map[string]any{"a": 2},
	))
	require.NoError(t, err)
	assert.Empty(t, got)
	assert.Equal(t, 2, calls)
}

func TestProcess_ReflectsLatestCriteriaState(t *testing.T) {
	q := query.New().GreaterThan("a", 0)
	in := func() []map[string]any {
		return records(map[string]any{"a": 1}, map[string]any{"a": 2})
	}

	got, err := Process(q, in())
	require.NoError(t, err)
	assert.Len(t, got, 2)

	q.SetLimit(1)
	got, err = Process(q, in())
	require.NoError(t, err)
	assert.Len(t, got, 1)
}

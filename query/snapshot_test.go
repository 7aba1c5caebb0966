package query

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPlainObject_RoundTrip(t *testing.T) {
	q := New().
		GreaterThan("age", 21).
		Contains("color", "red", "blue").
		SetFields("name", "age").
		Descending("age").
		Ascending("name").
		SetLimit(10).
		SetSkip(5)
	require.NoError(t, q.Err())

	snap, err := q.PlainObject()
	require.NoError(t, err)

	q2, err := FromPlain(snap)
	require.NoError(t, err)

	snap2, err := q2.PlainObject()
	require.NoError(t, err)
	assert.Equal(t, snap, snap2)
}

func TestPlainObject_IsDetachedCopy(t *testing.T) {
	q := New().EqualTo("a", 1)
	snap, err := q.PlainObject()
	require.NoError(t, err)

	snap.Filter["a"].(map[string]any)["$eq"] = 99
	assert.Equal(t, map[string]any{
		"a": map[string]any{"$eq": 1},
	}, q.Filter())
}

func TestFromPlain_NormalizesBareScalars(t *testing.T) {
	q, err := FromPlain(Snapshot{
		Filter: map[string]any{"status": "active"},
	})
	require.NoError(t, err)

	assert.Equal(t, map[string]any{
		"status": map[string]any{"$eq": "active"},
	}, q.Filter())
}

func TestFromPlain_ValidatesCombinatorShape(t *testing.T) {
	_, err := FromPlain(Snapshot{
		Filter: map[string]any{"$and": map[string]any{"a": 1}},
	})
	require.Error(t, err)
	var qe *Error
	require.ErrorAs(t, err, &qe)
	assert.Equal(t, CodeInvalidSnapshot, qe.Code)
}

func TestFromPlain_ValidatesBounds(t *testing.T) {
	limit := 0
	_, err := FromPlain(Snapshot{Limit: &limit})
	assert.Error(t, err)

	_, err = FromPlain(Snapshot{Skip: -1})
	assert.Error(t, err)

	_, err = FromPlain(Snapshot{Sort: Sort{{Field: "a", Direction: 3}}})
	assert.Error(t, err)
}

func TestFromPlain_AcceptsJSONDecodedSnapshot(t *testing.T) {
	// A snapshot persisted mid-session reconstructs an equivalent
	// criteria.
	raw := `{
		"fields": ["name"],
		"filter": {"age": {"$gt": 21}},
		"sort": {"age": -1, "name": 1},
		"skip": 2,
		"limit": 4
	}`
	var snap Snapshot
	require.NoError(t, json.Unmarshal([]byte(raw), &snap))

	q, err := FromPlain(snap)
	require.NoError(t, err)

	assert.Equal(t, []string{"name"}, q.Fields())
	assert.Equal(t, Sort{
		{Field: "age", Direction: SortDescending},
		{Field: "name", Direction: SortAscending},
	}, q.SortSpec())
	assert.Equal(t, 2, q.Skip())
	limit, ok := q.Limit()
	require.True(t, ok)
	assert.Equal(t, 4, limit)
}

func TestQueryString_OmitsEmptyParts(t *testing.T) {
	params, err := New().QueryString()
	require.NoError(t, err)
	assert.Empty(t, params)
}

func TestQueryString_AllParts(t *testing.T) {
	q := New().
		GreaterThan("age", 21).
		SetFields("name", "age").
		Ascending("age").
		Descending("name").
		SetLimit(10).
		SetSkip(5)

	params, err := q.QueryString()
	require.NoError(t, err)

	assert.Equal(t, map[string]string{
		"query":  `{"age":{"$gt":21}}`,
		"fields": "name,age",
		"limit":  "10",
		"skip":   "5",
		"sort":   `{"age":1,"name":-1}`,
	}, params)
}

func TestQueryString_SkipZeroOmitted(t *testing.T) {
	q := New().EqualTo("a", 1).SetSkip(0)

	params, err := q.QueryString()
	require.NoError(t, err)
	_, present := params["skip"]
	assert.False(t, present)
}

func TestString_EncodesQueryStringMapping(t *testing.T) {
	q := New().EqualTo("a", 1)

	var decoded map[string]string
	require.NoError(t, json.Unmarshal([]byte(q.String()), &decoded))
	assert.Equal(t, map[string]string{
		"query": `{"a":{"$eq":1}}`,
	}, decoded)
}

func TestString_InvalidCriteria(t *testing.T) {
	q := New().Mod("x", "oops")
	assert.Contains(t, q.String(), "invalid criteria")
}

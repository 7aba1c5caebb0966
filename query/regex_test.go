package query

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMatches_RejectsUnanchoredPattern(t *testing.T) {
	q := New().Matches("name", "foo")

	assert.True(t, IsInvalidArgument(q.Err()))
	assert.Empty(t, q.Filter())
}

func TestMatches_AnchoredPattern(t *testing.T) {
	q := New().Matches("name", "^foo")

	require.NoError(t, q.Err())
	assert.Equal(t, map[string]any{
		"name": map[string]any{"$regex": "^foo"},
	}, q.Filter())
}

func TestMatches_RejectsIgnoreCaseOption(t *testing.T) {
	q := New().Matches("name", "^foo", RegexOptions{IgnoreCase: Bool(true)})

	assert.True(t, IsInvalidArgument(q.Err()))
}

func TestMatches_RejectsInlineIgnoreCaseFlag(t *testing.T) {
	q := New().Matches("name", "(?i)^foo")

	assert.True(t, IsInvalidArgument(q.Err()))
}

func TestMatches_InlineIgnoreCaseWithExplicitOverride(t *testing.T) {
	q := New().Matches("name", "(?i)^foo", RegexOptions{IgnoreCase: Bool(false)})

	require.NoError(t, q.Err())
	// The inline flag group is stripped; the pattern is sent
	// case-sensitively.
	assert.Equal(t, map[string]any{
		"name": map[string]any{"$regex": "^foo"},
	}, q.Filter())
}

func TestMatches_OptionFlags(t *testing.T) {
	q := New().Matches("name", "^foo", RegexOptions{
		Multiline:     true,
		Extended:      true,
		DotMatchesAll: true,
	})

	require.NoError(t, q.Err())
	assert.Equal(t, map[string]any{
		"name": map[string]any{"$regex": "^foo", "$options": "mxs"},
	}, q.Filter())
}

func TestMatches_InlineFlagsMapToOptions(t *testing.T) {
	q := New().Matches("name", "(?m)^foo")

	require.NoError(t, q.Err())
	assert.Equal(t, map[string]any{
		"name": map[string]any{"$regex": "^foo", "$options": "m"},
	}, q.Filter())
}

func TestMatches_AnchorCheckedAfterFlagGroup(t *testing.T) {
	q := New().Matches("name", "(?m)foo")

	assert.True(t, IsInvalidArgument(q.Err()))
}

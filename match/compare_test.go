package match

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEqual_NumbersAcrossTypes(t *testing.T) {
	assert.True(t, Equal(5, 5.0))
	assert.True(t, Equal(int64(5), uint8(5)))
	assert.False(t, Equal(5, 6))
	assert.False(t, Equal(5, "5"))
}

func TestEqual_StringsNormalizeNFC(t *testing.T) {
	// "é" composed vs "e" + combining acute accent.
	assert.True(t, Equal("café", "café"))
	assert.False(t, Equal("cafe", "café"))
}

func TestEqual_Nil(t *testing.T) {
	assert.True(t, Equal(nil, nil))
	assert.False(t, Equal(nil, 0))
	assert.False(t, Equal("", nil))
}

func TestEqual_ListsElementWise(t *testing.T) {
	assert.True(t, Equal([]any{1, "a"}, []any{1.0, "a"}))
	assert.False(t, Equal([]any{1, 2}, []any{2, 1}))
	assert.False(t, Equal([]any{1}, []any{1, 2}))
	assert.False(t, Equal([]any{1}, 1))
}

func TestEqual_MapsKeyWise(t *testing.T) {
	assert.True(t, Equal(
		map[string]any{"a": 1, "b": "x"},
		map[string]any{"a": 1.0, "b": "x"},
	))
	assert.False(t, Equal(
		map[string]any{"a": 1},
		map[string]any{"a": 1, "b": 2},
	))
}

func TestOrdered_TypeBracketing(t *testing.T) {
	c, ok := Ordered(1, 2.0)
	assert.True(t, ok)
	assert.Equal(t, -1, c)

	c, ok = Ordered("b", "a")
	assert.True(t, ok)
	assert.Equal(t, 1, c)

	_, ok = Ordered(1, "1")
	assert.False(t, ok)

	_, ok = Ordered(true, false)
	assert.False(t, ok)
}

func TestCompare_TotalOrder(t *testing.T) {
	assert.Equal(t, -1, Compare(1, 2))
	assert.Equal(t, 0, Compare(2, 2.0))
	assert.Equal(t, 1, Compare("b", "a"))
	assert.Equal(t, -1, Compare(false, true))
	assert.Equal(t, 0, Compare(true, true))
}

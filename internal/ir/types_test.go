package ir

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseType_RoundTrip(t *testing.T) {
	for _, s := range []string{
		"i1", "i64", "i128",
		"ui8", "ui64",
		"si32",
		"ref<i128>",
		"tensor<ui64>",
		"tensor<2xui64>",
		"tensor<2x4xi8>",
		"tensor<0xi8>",
	} {
		parsed, err := ParseType(s)
		require.NoError(t, err, s)
		assert.Equal(t, s, parsed.String())
	}
}

func TestParseType_Invalid(t *testing.T) {
	for _, s := range []string{
		"", "x64", "i0", "i-8",
		"ref<tensor<2xi8>>",
		"tensor<axui64>",
	} {
		_, err := ParseType(s)
		assert.Error(t, err, s)
	}
}

func TestTensorType_NumElements(t *testing.T) {
	assert.Equal(t, int64(1), TensorType{Elem: I(64)}.NumElements())
	assert.Equal(t, int64(2), TensorType{Shape: []int64{2}, Elem: I(64)}.NumElements())
	assert.Equal(t, int64(8), TensorType{Shape: []int64{2, 4}, Elem: I(8)}.NumElements())
	assert.Equal(t, int64(0), TensorType{Shape: []int64{0}, Elem: I(8)}.NumElements())
}

func TestTypeEqual(t *testing.T) {
	assert.True(t, TypeEqual(I(64), IntType{Width: 64}))
	assert.False(t, TypeEqual(I(64), IntType{Width: 64, Sign: Unsigned}))
	assert.False(t, TypeEqual(I(64), RefType{Elem: I(64)}))
	assert.True(t, TypeEqual(nil, nil))
}

package hex

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"lukechampine.com/frand"
)

func TestEncDecRoundTrip(t *testing.T) {
	for _, n := range []int{0, 1, 31, 32, 33, 64} {
		b := frand.Bytes(n)
		s := Enc(b)
		assert.Len(t, s, n*2)
		got, err := Dec(s)
		require.NoError(t, err)
		assert.Equal(t, b, got)
	}
}

func TestDecRejects(t *testing.T) {
	for _, s := range []string{"0", "abc", "zz", "0g", "  "} {
		_, err := Dec(s)
		assert.Error(t, err, "input %q", s)
	}
}

func TestDecLen(t *testing.T) {
	b, err := DecLen(
		"3bf0c63fcb93463407af97a5e5ee64fa883d107ef9e558472c4eb9aaaefa459d",
		32)
	require.NoError(t, err)
	assert.Len(t, b, 32)
	_, err = DecLen("abcd", 32)
	assert.Error(t, err)
	_, err = DecLen("", 32)
	assert.Error(t, err)
}

func TestDecInto(t *testing.T) {
	var pk [32]byte
	err := DecInto(pk[:],
		"79be667ef9dcbbac55a06295ce870b07029bfcdb2dce28d959f2815b16f81798")
	require.NoError(t, err)
	assert.Equal(t, byte(0x79), pk[0])
	assert.Equal(t, byte(0x98), pk[31])
	err = DecInto(pk[:], "79be")
	assert.Error(t, err)
}

func TestValid(t *testing.T) {
	assert.True(t, Valid(""))
	assert.True(t, Valid("00ff"))
	assert.True(t, Valid("ABCDEF12"))
	assert.False(t, Valid("0"))
	assert.False(t, Valid("0g"))
	assert.False(t, Valid("hello!"))
}

func TestEqConst(t *testing.T) {
	a := frand.Bytes(32)
	b := make([]byte, 32)
	copy(b, a)
	assert.True(t, EqConst(a, b))
	b[31] ^= 1
	assert.False(t, EqConst(a, b))
	assert.False(t, EqConst(a, a[:31]))
	assert.True(t, EqConst(nil, nil))
}

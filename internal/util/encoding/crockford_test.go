package encoding_test

import (
	"bytes"
	"crypto/rand"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mkrupp/postbox/internal/util/encoding"
)

func TestEncodeCrockfordB32LC(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input []byte
		want  string
	}{
		{name: "empty input", input: []byte{}, want: ""},
		{name: "single byte", input: []byte{0xF5}, want: "ym"},
		{name: "two bytes", input: []byte{0xF5, 0x3A}, want: "ymx0"},
		{name: "three bytes", input: []byte{0xF5, 0x3A, 0x58}, want: "ymx5g"},
		{name: "four bytes", input: []byte{0xF5, 0x3A, 0x58, 0x9B}, want: "ymx5h6r"},
		{name: "five bytes", input: []byte{0xF5, 0x3A, 0x58, 0x9B, 0xC4}, want: "ymx5h6y4"},
		{name: "all zero bytes", input: []byte{0, 0, 0, 0}, want: "0000000"},
		{name: "all ones", input: []byte{255, 255, 255, 255}, want: "zzzzzzr"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, tt.want, encoding.EncodeCrockfordB32LC(tt.input))
		})
	}
}

func TestRandomCrockfordB32LC(t *testing.T) {
	t.Parallel()

	token, err := encoding.RandomCrockfordB32LC(rand.Reader, 32)
	require.NoError(t, err)
	assert.Len(t, token, 52) // ceil(256 / 5)
	assert.True(t, encoding.IsCrockfordB32LC(token))

	other, err := encoding.RandomCrockfordB32LC(rand.Reader, 32)
	require.NoError(t, err)
	assert.NotEqual(t, token, other)

	fixed, err := encoding.RandomCrockfordB32LC(bytes.NewReader([]byte{0xF5, 0x3A}), 2)
	require.NoError(t, err)
	assert.Equal(t, "ymx0", fixed)

	_, err = encoding.RandomCrockfordB32LC(bytes.NewReader([]byte{0xF5}), 2)
	require.Error(t, err)
	assert.ErrorIs(t, err, io.ErrUnexpectedEOF)
}

func TestIsCrockfordB32LC(t *testing.T) {
	t.Parallel()

	assert.False(t, encoding.IsCrockfordB32LC(""))
	assert.False(t, encoding.IsCrockfordB32LC("ABC"))
	assert.False(t, encoding.IsCrockfordB32LC("abcu"))
	assert.False(t, encoding.IsCrockfordB32LC("abc def"))
	assert.True(t, encoding.IsCrockfordB32LC("0123456789abcdefghjkmnpqrstvwxyz"))
}

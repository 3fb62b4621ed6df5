// Package encoding provides the lowercase Crockford base32 encoding used for
// session tokens and request ids.
package encoding

import (
	"fmt"
	"io"
	"strings"
)

const crockfordBase32Alphabet = "0123456789abcdefghjkmnpqrstvwxyz"

// EncodeCrockfordB32LC encodes a byte slice using Crockford's Base32 alphabet in lowercase.
// The output has no padding; the final group is zero-filled on the right.
//
//nolint:gosec
func EncodeCrockfordB32LC(input []byte) string {
	var (
		result strings.Builder
		bits   = 0
		accum  = 0
	)

	result.Grow((len(input)*8 + 4) / 5)

	for _, b := range input {
		accum = accum<<8 | int(b)
		bits += 8

		for bits >= 5 {
			bits -= 5
			result.WriteByte(crockfordBase32Alphabet[(accum>>bits)&0x1F])
		}
	}

	if bits > 0 {
		result.WriteByte(crockfordBase32Alphabet[(accum<<uint(5-bits))&0x1F])
	}

	return result.String()
}

// RandomCrockfordB32LC reads n bytes from src and returns them encoded.
// With crypto/rand.Reader as src the result is suitable as an unguessable token.
func RandomCrockfordB32LC(src io.Reader, n int) (string, error) {
	buf := make([]byte, n)

	if _, err := io.ReadFull(src, buf); err != nil {
		return "", fmt.Errorf("read random: %w", err)
	}

	return EncodeCrockfordB32LC(buf), nil
}

// IsCrockfordB32LC reports whether s is non-empty and uses only the lowercase alphabet.
func IsCrockfordB32LC(s string) bool {
	if s == "" {
		return false
	}

	for i := range len(s) {
		if strings.IndexByte(crockfordBase32Alphabet, s[i]) < 0 {
			return false
		}
	}

	return true
}

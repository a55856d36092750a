package codec

import (
	"errors"
	"fmt"
)

// L85 is a base85 variant whose alphabet is in ASCII order, so encodings
// of equal-length inputs sort the same way as the inputs. Storage uses it
// to print fixed-size document hashes.

// L85Alphabet lists the 85 digits in ascending ASCII order
const L85Alphabet = "!$%&()+,-./" +
	"0123456789:;<=>@" +
	"ABCDEFGHIJKLMNOPQRSTUVWXYZ[]_`" +
	"abcdefghijklmnopqrstuvwxyz{}"

// HashSize is the size of the fixed-width hashes encoded with L85
const HashSize = 20

var (
	// l85Digits maps a character to its digit value plus one; zero marks
	// characters outside the alphabet
	l85Digits [256]byte

	// ErrInvalidCharacter indicates an invalid character in input
	ErrInvalidCharacter = errors.New("invalid L85 character")
)

func init() {
	for i := 0; i < len(L85Alphabet); i++ {
		l85Digits[L85Alphabet[i]] = byte(i + 1)
	}
}

// appendGroup appends the first n digits of the 5-digit encoding of v
func appendGroup(dst []byte, v uint32, n int) []byte {
	var digits [5]byte
	for j := 4; j >= 0; j-- {
		digits[j] = L85Alphabet[v%85]
		v /= 85
	}
	return append(dst, digits[:n]...)
}

// EncodeL85 encodes bytes to L85. A trailing partial group of k bytes
// produces k+1 digits.
func EncodeL85(src []byte) string {
	if len(src) == 0 {
		return ""
	}

	out := make([]byte, 0, len(src)*5/4+5)
	for len(src) > 0 {
		var group [4]byte
		n := copy(group[:], src)
		src = src[n:]

		v := uint32(group[0])<<24 | uint32(group[1])<<16 | uint32(group[2])<<8 | uint32(group[3])
		if n == 4 {
			out = appendGroup(out, v, 5)
		} else {
			out = appendGroup(out, v, n+1)
		}
	}
	return string(out)
}

// DecodeL85 decodes L85 back to bytes
func DecodeL85(src string) ([]byte, error) {
	for i := 0; i < len(src); i++ {
		if l85Digits[src[i]] == 0 {
			return nil, fmt.Errorf("%w at position %d: %q", ErrInvalidCharacter, i, src[i])
		}
	}
	if len(src)%5 == 1 {
		return nil, errors.New("invalid L85 encoding: incomplete group")
	}

	out := make([]byte, 0, len(src)*4/5+4)
	for len(src) > 0 {
		n := min(5, len(src))
		chunk := src[:n]
		src = src[n:]

		// Missing digits of a partial group are padded with the highest
		// digit so truncation never borrows from the kept bytes
		var v uint32
		for j := 0; j < 5; j++ {
			d := uint32(84)
			if j < n {
				d = uint32(l85Digits[chunk[j]] - 1)
			}
			v = v*85 + d
		}

		group := [4]byte{byte(v >> 24), byte(v >> 16), byte(v >> 8), byte(v)}
		if n == 5 {
			out = append(out, group[:]...)
		} else {
			out = append(out, group[:n-1]...)
		}
	}
	return out, nil
}

// EncodeHash encodes a 20-byte hash to exactly 25 characters
func EncodeHash(src [HashSize]byte) string {
	return EncodeL85(src[:])
}

// DecodeHash decodes exactly 25 characters to a 20-byte hash
func DecodeHash(src string) ([HashSize]byte, error) {
	var hash [HashSize]byte

	if len(src) != 25 {
		return hash, fmt.Errorf("expected 25 characters, got %d", len(src))
	}

	decoded, err := DecodeL85(src)
	if err != nil {
		return hash, err
	}

	copy(hash[:], decoded)
	return hash, nil
}

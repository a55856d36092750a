package codec

import (
	"bytes"
	"crypto/sha1"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestL85HashRoundTrip(t *testing.T) {
	for _, s := range []string{"hello", "world", "users/alice", "rooms/eros/messages/1", ""} {
		hash := sha1.Sum([]byte(s))
		encoded := EncodeHash(hash)
		require.Len(t, encoded, 25, s)

		decoded, err := DecodeHash(encoded)
		require.NoError(t, err)
		assert.Equal(t, hash, decoded, s)
	}
}

func TestL85HashSortOrder(t *testing.T) {
	var hashes [][HashSize]byte
	for _, s := range []string{"", "a", "b", "aa", "alice", "bob", "test1", "test10", "test2"} {
		hashes = append(hashes, sha1.Sum([]byte(s)))
	}

	sort.Slice(hashes, func(i, j int) bool { return bytes.Compare(hashes[i][:], hashes[j][:]) < 0 })
	for i := 0; i+1 < len(hashes); i++ {
		assert.Less(t, EncodeHash(hashes[i]), EncodeHash(hashes[i+1]))
	}
}

func TestL85PartialGroups(t *testing.T) {
	inputs := [][]byte{
		{0xff},
		{0x00, 0x01},
		{0xff, 0xff, 0xff},
		{0xde, 0xad, 0xbe, 0xef, 0x01},
		{0x12, 0x34, 0x56, 0x78, 0x9a, 0xbc, 0xde},
	}
	for _, in := range inputs {
		encoded := EncodeL85(in)
		assert.Len(t, encoded, len(in)/4*5+func() int {
			if r := len(in) % 4; r > 0 {
				return r + 1
			}
			return 0
		}())
		decoded, err := DecodeL85(encoded)
		require.NoError(t, err)
		assert.Equal(t, in, decoded)
	}
}

func TestL85Errors(t *testing.T) {
	_, err := DecodeL85("abc\"e")
	assert.ErrorIs(t, err, ErrInvalidCharacter)

	_, err = DecodeL85("abcdef")
	assert.Error(t, err)

	_, err = DecodeHash("short")
	assert.Error(t, err)

	decoded, err := DecodeL85("")
	require.NoError(t, err)
	assert.Empty(t, decoded)
}

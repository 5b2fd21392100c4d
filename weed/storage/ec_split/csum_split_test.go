package ec_split

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seaweedfs/ecsplit/weed/storage/erasure_coding"
)

var (
	scheme3x1 = erasure_coding.Scheme{DataShards: 3, ParityShards: 1}
	scheme4x2 = erasure_coding.Scheme{DataShards: 4, ParityShards: 2}
)

func TestSplitSingvCsum(t *testing.T) {
	buf := []byte{0xff, 0xff, 1, 1, 2, 2, 3, 3}
	ci := &CsumInfo{Type: 3, ChunkSize: 1024, Nr: 3, Len: 2, BufLen: 6, Offset: 2, Buf: buf}

	var derived CsumInfo
	got, err := splitSingvCsum(ci, 1, scheme3x1, &derived)
	require.NoError(t, err)
	assert.Same(t, &derived, got)
	assert.Equal(t, uint32(1), got.Nr)
	assert.Equal(t, 4, got.Offset)
	assert.Equal(t, uint32(2), got.BufLen)
	assert.Equal(t, uint16(3), got.Type)
	assert.Equal(t, []byte{2, 2}, got.Checksum(0))

	// the source stays unchanged
	assert.Equal(t, uint32(3), ci.Nr)
	assert.Equal(t, 2, ci.Offset)
}

func TestSplitSingvCsumKeepsEntry(t *testing.T) {
	testCases := []struct {
		name string
		nr   uint32
		rank uint32
	}{
		{"no checksum", 0, 0},
		{"single chunk", 1, 2},
		{"parity rank", 4, 4},
		{"last parity rank", 4, 5},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			ci := &CsumInfo{Nr: tc.nr, Len: 4, Buf: make([]byte, 16)}
			var derived CsumInfo
			got, err := splitSingvCsum(ci, tc.rank, scheme4x2, &derived)
			require.NoError(t, err)
			assert.Same(t, ci, got)
			assert.Zero(t, derived)
		})
	}
}

func TestSplitSingvCsumErrors(t *testing.T) {
	var derived CsumInfo

	_, err := splitSingvCsum(&CsumInfo{Nr: 3, Len: 4, Buf: make([]byte, 12)}, 0, scheme4x2, &derived)
	assert.ErrorIs(t, err, ErrInvariant)

	_, err = splitSingvCsum(&CsumInfo{Nr: 4, Len: 4, Offset: 4, Buf: make([]byte, 16)}, 0, scheme4x2, &derived)
	assert.ErrorIs(t, err, ErrInvariant)
}

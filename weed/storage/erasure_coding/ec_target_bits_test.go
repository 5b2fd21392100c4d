package erasure_coding

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTargetBitsSetAndCount(t *testing.T) {
	b, err := NewTargetBits(6, MaxShardCount)
	require.NoError(t, err)

	for _, id := range []ShardId{5, 0, 3, 3} {
		require.NoError(t, b.AddShardId(id))
	}
	assert.Equal(t, 3, b.ShardIdCount())
	assert.Equal(t, []ShardId{0, 3, 5}, b.ShardIds())
	assert.True(t, b.HasShardId(3))
	assert.False(t, b.HasShardId(4))
	assert.False(t, b.HasShardId(200))
	assert.Equal(t, "[0 3 5]", b.String())

	highest, ok := b.Highest()
	assert.True(t, ok)
	assert.Equal(t, ShardId(5), highest)
}

func TestTargetBitsOverflowIsAnError(t *testing.T) {
	b, err := NewTargetBits(3, MaxShardCount)
	require.NoError(t, err)

	err = b.AddShardId(3)
	assert.True(t, errors.Is(err, ErrBitOutOfRange))
	assert.Equal(t, 0, b.ShardIdCount())
}

func TestTargetBitsWidth(t *testing.T) {
	_, err := NewTargetBits(0, MaxShardCount)
	assert.ErrorIs(t, err, ErrInvalidWidth)

	_, err = NewTargetBits(MaxShardCount+1, MaxShardCount)
	assert.ErrorIs(t, err, ErrInvalidWidth)

	// wider groups only need a larger capacity, not a new type
	b, err := NewTargetBits(130, 200)
	require.NoError(t, err)
	require.NoError(t, b.AddShardId(129))
	require.NoError(t, b.AddShardId(64))
	require.NoError(t, b.AddShardId(1))
	assert.Equal(t, []ShardId{1, 64, 129}, b.ShardIds())
	highest, _ := b.Highest()
	assert.Equal(t, ShardId(129), highest)
}

func TestTargetBitsForEachStops(t *testing.T) {
	b, _ := NewTargetBits(8, MaxShardCount)
	for i := ShardId(0); i < 8; i++ {
		_ = b.AddShardId(i)
	}
	var visited []ShardId
	b.ForEach(func(id ShardId) bool {
		visited = append(visited, id)
		return id < 2
	})
	assert.Equal(t, []ShardId{0, 1, 2}, visited)
}

func TestEmptyTargetBits(t *testing.T) {
	b, _ := NewTargetBits(4, MaxShardCount)
	_, ok := b.Highest()
	assert.False(t, ok)
	assert.Nil(t, b.ShardIds())
	assert.Equal(t, "[]", b.String())
}

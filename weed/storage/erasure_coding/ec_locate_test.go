package erasure_coding

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocateExtents(t *testing.T) {
	assert.Equal(t, []Extent{{Start: 5, Count: 5}, {Start: 10, Count: 10}, {Start: 20, Count: 3}},
		LocateExtents(10, 5, 18))
	assert.Equal(t, []Extent{{Start: 0, Count: 10}}, LocateExtents(10, 0, 10))
	assert.Nil(t, LocateExtents(10, 7, 0))
}

func TestLocateShardRanges(t *testing.T) {
	s := Scheme{DataShards: 2, ParityShards: 1}
	extents := append(LocateExtents(10, 0, 20),
		Extent{Start: ParityIndicator, Count: 10})

	ranges, err := LocateShardRanges(s, 10, 8, extents)
	require.NoError(t, err)
	assert.Equal(t, []ShardRange{
		{ShardId: 0, Index: 0, Count: 1, Offset: 0},
		{ShardId: 1, Index: 1, Count: 1, Offset: 80},
		{ShardId: 2, Index: 2, Count: 1, Offset: 160},
	}, ranges)
}

func TestLocateShardRangesGroupsAdjacent(t *testing.T) {
	s := Scheme{DataShards: 2, ParityShards: 1}
	extents := []Extent{{0, 4}, {4, 6}, {10, 10}, {ParityIndicator, 10}}

	ranges, err := LocateShardRanges(s, 10, 1, extents)
	require.NoError(t, err)
	require.Len(t, ranges, 3)
	assert.Equal(t, ShardRange{ShardId: 0, Index: 0, Count: 2, Offset: 0}, ranges[0])
	assert.Equal(t, ShardRange{ShardId: 1, Index: 2, Count: 1, Offset: 10}, ranges[1])
	assert.Equal(t, ShardRange{ShardId: 2, Index: 3, Count: 1, Offset: 20}, ranges[2])
}

func TestLocateShardRangesRejects(t *testing.T) {
	s := Scheme{DataShards: 2, ParityShards: 1}

	_, err := LocateShardRanges(s, 10, 1, []Extent{{5, 10}})
	assert.Error(t, err, "straddles a cell")

	_, err = LocateShardRanges(s, 10, 1, []Extent{{0, 5}, {10, 5}, {5, 5}})
	assert.Error(t, err, "shard 0 split in two runs")

	_, err = LocateShardRanges(s, 10, 1, []Extent{{0, 0}})
	assert.Error(t, err)
}

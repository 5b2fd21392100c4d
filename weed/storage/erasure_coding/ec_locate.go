package erasure_coding

import (
	"fmt"
)

// ParityIndicator flags an extent start as addressing the parity space.
const ParityIndicator = uint64(1) << 63

// Extent is a run of records [Start, Start+Count) in an attribute's record space.
type Extent struct {
	Start uint64
	Count uint64
}

func (e Extent) IsParity() bool {
	return e.Start&ParityIndicator != 0
}

// ShardRange is the contiguous slice [Index, Index+Count) of an extent list
// owned by one shard. Offset is the byte offset of the first owned record in
// the flat record buffer.
type ShardRange struct {
	ShardId ShardId
	Index   int
	Count   int
	Offset  uint64
}

// LocateExtents cuts the record range [start, start+count) at cell boundaries,
// cellRecords records per cell, so no extent straddles two shards.
func LocateExtents(cellRecords uint64, start, count uint64) (extents []Extent) {
	for count > 0 {
		cellRemaining := cellRecords - start%cellRecords
		if count <= cellRemaining {
			return append(extents, Extent{Start: start, Count: count})
		}
		extents = append(extents, Extent{Start: start, Count: cellRemaining})
		start += cellRemaining
		count -= cellRemaining
	}
	return
}

// ShardOf maps an extent to the shard holding its cell: data extents rotate
// across data shards, parity extents across parity shards.
func (s Scheme) ShardOf(cellRecords uint64, e Extent) ShardId {
	if e.IsParity() {
		cell := (e.Start &^ ParityIndicator) / cellRecords
		return ShardId(s.DataShards + int(cell%uint64(s.ParityShards)))
	}
	return ShardId(int((e.Start / cellRecords) % uint64(s.DataShards)))
}

// LocateShardRanges groups an extent list into per-shard ranges. Extents must
// already be cut at cell boundaries and ordered so that each shard's extents
// are adjacent, data extents first and parity extents after them, which is
// what a single-stripe update looks like.
func LocateShardRanges(s Scheme, cellRecords, recordSize uint64, extents []Extent) (ranges []ShardRange, err error) {
	var offset uint64
	seen := make(map[ShardId]bool)
	for i, e := range extents {
		if e.Count == 0 {
			return nil, fmt.Errorf("extent %d is empty", i)
		}
		if e.Count > cellRecords-(e.Start&^ParityIndicator)%cellRecords {
			return nil, fmt.Errorf("extent %d [%d,+%d) crosses a cell boundary", i, e.Start&^ParityIndicator, e.Count)
		}
		shard := s.ShardOf(cellRecords, e)
		if n := len(ranges); n > 0 && ranges[n-1].ShardId == shard {
			ranges[n-1].Count++
		} else {
			if seen[shard] {
				return nil, fmt.Errorf("extents of shard %d are not adjacent", shard)
			}
			seen[shard] = true
			ranges = append(ranges, ShardRange{ShardId: shard, Index: i, Count: 1, Offset: offset})
		}
		offset += e.Count * recordSize
	}
	return
}

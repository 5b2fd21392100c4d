package ec_split

import (
	"fmt"

	"github.com/seaweedfs/ecsplit/weed/storage/erasure_coding"
)

// splitSingvCsum returns the checksum info the target at data shard rank
// must receive for a single value. A value stored as one chunk keeps its
// checksum. A value striped over the data shards carries one checksum per
// chunk; the data shard gets a view of its own chunk's checksum written into
// derived, parity shards keep the whole entry.
func splitSingvCsum(ci *CsumInfo, rank uint32, scheme erasure_coding.Scheme, derived *CsumInfo) (*CsumInfo, error) {
	if ci.Nr <= 1 {
		return ci, nil
	}
	if int(ci.Nr) != scheme.DataShards {
		return nil, fmt.Errorf("%w: single value has %d checksum chunks, group has %d data shards",
			ErrInvariant, ci.Nr, scheme.DataShards)
	}
	if !scheme.IsDataShard(erasure_coding.ShardId(rank)) {
		return ci, nil
	}
	if end := ci.Offset + int(ci.Nr)*int(ci.Len); ci.Offset < 0 || end > len(ci.Buf) {
		return nil, fmt.Errorf("%w: %d checksums of %d bytes at %d overrun a %d byte buffer",
			ErrInvariant, ci.Nr, ci.Len, ci.Offset, len(ci.Buf))
	}

	*derived = *ci
	derived.Nr = 1
	derived.Offset += int(rank) * int(ci.Len)
	derived.BufLen = uint32(ci.Len)
	return derived, nil
}

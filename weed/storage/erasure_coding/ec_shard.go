package erasure_coding

import "fmt"

const (
	DataShardsCount   = 10
	ParityShardsCount = 4
	// MaxShardCount is the default capacity of a TargetBits, one bit per shard.
	MaxShardCount = 32
	// MaxShardCountLimit is the widest group reedsolomon can encode.
	MaxShardCountLimit = 256
)

type ShardId uint8

func (id ShardId) String() string {
	return fmt.Sprintf("%d", uint8(id))
}

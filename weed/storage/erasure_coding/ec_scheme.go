package erasure_coding

import (
	"fmt"

	"github.com/klauspost/reedsolomon"
)

// Scheme is the K+P geometry of a redundancy group. Shard offsets
// [0, DataShards) carry data, the rest carry parity; the last parity
// shard leads group-wide requests.
type Scheme struct {
	DataShards   int `json:"dataShards"`
	ParityShards int `json:"parityShards"`
}

var DefaultScheme = Scheme{DataShards: DataShardsCount, ParityShards: ParityShardsCount}

func NewScheme(dataShards, parityShards int) (Scheme, error) {
	s := Scheme{DataShards: dataShards, ParityShards: parityShards}
	return s, s.Validate()
}

// Validate rejects geometries the codec cannot encode, and anything below
// the minimal 2+1 layout where the leader has no forward target.
func (s Scheme) Validate() error {
	if s.DataShards < 2 || s.ParityShards < 1 {
		return fmt.Errorf("ec scheme %s: %w", s, reedsolomon.ErrInvShardNum)
	}
	if s.TotalShards() > MaxShardCountLimit {
		return fmt.Errorf("ec scheme %s: %w", s, reedsolomon.ErrMaxShardNum)
	}
	return nil
}

func (s Scheme) TotalShards() int {
	return s.DataShards + s.ParityShards
}

func (s Scheme) IsDataShard(id ShardId) bool {
	return int(id) < s.DataShards
}

// LeaderShard is the highest shard offset of the group.
func (s Scheme) LeaderShard() ShardId {
	return ShardId(s.TotalShards() - 1)
}

// NewEncoder returns the codec for this geometry.
func (s Scheme) NewEncoder() (reedsolomon.Encoder, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return reedsolomon.New(s.DataShards, s.ParityShards)
}

func (s Scheme) String() string {
	return fmt.Sprintf("%d+%d", s.DataShards, s.ParityShards)
}

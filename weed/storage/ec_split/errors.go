package ec_split

import (
	"errors"

	"github.com/seaweedfs/ecsplit/weed/stats"
)

var (
	// ErrNoMem is returned when the split buffers cannot be reserved.
	ErrNoMem = errors.New("ec split: out of memory")
	// ErrInvariant is returned for layouts that contradict the group
	// metadata; the request must be aborted for all targets.
	ErrInvariant = errors.New("ec split: layout invariant violated")
	// ErrShardNotFound is returned when a shard offset is outside the group.
	ErrShardNotFound = errors.New("ec split: shard not found")
)

func errorReason(err error) string {
	switch {
	case errors.Is(err, ErrNoMem):
		return stats.ErrorNoMem
	case errors.Is(err, ErrShardNotFound):
		return stats.ErrorShardNotFound
	}
	return stats.ErrorInvariant
}

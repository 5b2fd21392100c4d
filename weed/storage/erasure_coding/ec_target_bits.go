package erasure_coding

import (
	"errors"
	"fmt"
	"math/bits"
	"strings"
)

var (
	ErrBitOutOfRange = errors.New("shard offset out of range")
	ErrInvalidWidth  = errors.New("invalid target bitmap width")
)

// TargetBits marks which shards of a group take part in a request,
// one bit per shard offset relative to the group's start shard.
// Unlike a plain ShardBits word, the width is bounded by the group and
// writes past it fail instead of silently wrapping.
type TargetBits struct {
	width int
	words []uint64
}

// NewTargetBits sizes the bitmap for a group of width shards; width may not
// exceed capacity, the configured maximum shard count.
func NewTargetBits(width, capacity int) (*TargetBits, error) {
	if capacity <= 0 || capacity > MaxShardCountLimit {
		capacity = MaxShardCountLimit
	}
	if width <= 0 || width > capacity {
		return nil, fmt.Errorf("%w: %d, capacity %d", ErrInvalidWidth, width, capacity)
	}
	return &TargetBits{
		width: width,
		words: make([]uint64, (width+63)/64),
	}, nil
}

func (b *TargetBits) Width() int {
	return b.width
}

func (b *TargetBits) AddShardId(id ShardId) error {
	if int(id) >= b.width {
		return fmt.Errorf("%w: %d >= %d", ErrBitOutOfRange, id, b.width)
	}
	b.words[id/64] |= 1 << (id % 64)
	return nil
}

func (b *TargetBits) HasShardId(id ShardId) bool {
	if int(id) >= b.width {
		return false
	}
	return b.words[id/64]&(1<<(id%64)) != 0
}

func (b *TargetBits) ShardIdCount() (count int) {
	for _, w := range b.words {
		count += bits.OnesCount64(w)
	}
	return
}

// ForEach visits set bits in ascending order until fn returns false.
func (b *TargetBits) ForEach(fn func(id ShardId) bool) {
	for i, w := range b.words {
		for w != 0 {
			tz := bits.TrailingZeros64(w)
			if !fn(ShardId(i*64 + tz)) {
				return
			}
			w &= w - 1
		}
	}
}

func (b *TargetBits) ShardIds() (ret []ShardId) {
	b.ForEach(func(id ShardId) bool {
		ret = append(ret, id)
		return true
	})
	return
}

// Highest returns the largest set shard offset.
func (b *TargetBits) Highest() (ShardId, bool) {
	for i := len(b.words) - 1; i >= 0; i-- {
		if w := b.words[i]; w != 0 {
			return ShardId(i*64 + 63 - bits.LeadingZeros64(w)), true
		}
	}
	return 0, false
}

func (b *TargetBits) String() string {
	var sb strings.Builder
	sb.WriteByte('[')
	b.ForEach(func(id ShardId) bool {
		if sb.Len() > 1 {
			sb.WriteByte(' ')
		}
		sb.WriteString(id.String())
		return true
	})
	sb.WriteByte(']')
	return sb.String()
}

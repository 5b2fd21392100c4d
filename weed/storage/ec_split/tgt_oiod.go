package ec_split

import (
	"fmt"
	"sort"
	"sync/atomic"

	"github.com/seaweedfs/ecsplit/weed/glog"
	"github.com/seaweedfs/ecsplit/weed/stats"
	"github.com/seaweedfs/ecsplit/weed/storage/erasure_coding"
)

// TgtOiod is one target's view of a request: for every iod, the single
// shard range it owns (or the singv marker) and the byte offset of that
// range in the request's record buffer.
type TgtOiod struct {
	TgtIdx uint32
	Offs   []uint64
	Oiods  []ObjIoDesc
}

// TgtOiodTable holds the TgtOiod of every participating target in ascending
// shard order. It is shared by the split requests derived from it and
// released with the last of them.
type TgtOiodTable struct {
	oiods []TgtOiod
	bits  *erasure_coding.TargetBits
	size  int64
	alloc Allocator
	refs  atomic.Int32
}

func newTgtOiodTable(oiods []ObjIoDesc, bits *erasure_coding.TargetBits, alloc Allocator) (*TgtOiodTable, error) {
	tgtNr, iodNr := bits.ShardIdCount(), len(oiods)
	size := tgtOiodTableSize(tgtNr, iodNr)
	if err := alloc.Alloc(size); err != nil {
		return nil, fmt.Errorf("%w: target oiod table %d targets x %d iods: %v", ErrNoMem, tgtNr, iodNr, err)
	}

	offs := make([]uint64, tgtNr*iodNr)
	descs := make([]ObjIoDesc, tgtNr*iodNr)
	siods := make([]ShardIod, tgtNr*iodNr)
	t := &TgtOiodTable{
		oiods: make([]TgtOiod, 0, tgtNr),
		bits:  bits,
		size:  size,
		alloc: alloc,
	}

	bits.ForEach(func(id erasure_coding.ShardId) bool {
		tgtIdx := uint32(id)
		base := len(t.oiods) * iodNr
		tgt := TgtOiod{
			TgtIdx: tgtIdx,
			Offs:   offs[base : base+iodNr : base+iodNr],
			Oiods:  descs[base : base+iodNr : base+iodNr],
		}
		for j := range oiods {
			r := &oiods[j]
			o := &tgt.Oiods[j]
			o.TgtIdx = tgtIdx
			o.Flags = r.Flags
			if r.IsSingv() {
				continue
			}
			siod := &siods[base+j]
			siod.TgtIdx = tgtIdx
			for _, rs := range r.Siods {
				if rs.TgtIdx == tgtIdx {
					*siod = rs
					tgt.Offs[j] = rs.Off
					break
				}
			}
			o.Siods = siods[base+j : base+j+1 : base+j+1]
		}
		t.oiods = append(t.oiods, tgt)
		return true
	})

	t.refs.Store(1)
	stats.EcSplitTgtOiodTablesGauge.Inc()
	return t, nil
}

// Get returns the entry of the target at shard offset tgtIdx.
func (t *TgtOiodTable) Get(tgtIdx uint32) (*TgtOiod, bool) {
	i := sort.Search(len(t.oiods), func(i int) bool {
		return t.oiods[i].TgtIdx >= tgtIdx
	})
	if i < len(t.oiods) && t.oiods[i].TgtIdx == tgtIdx {
		return &t.oiods[i], true
	}
	return nil, false
}

func (t *TgtOiodTable) Len() int {
	return len(t.oiods)
}

// At returns the i-th entry in ascending shard order.
func (t *TgtOiodTable) At(i int) *TgtOiod {
	return &t.oiods[i]
}

func (t *TgtOiodTable) Bits() *erasure_coding.TargetBits {
	return t.bits
}

func (t *TgtOiodTable) acquire() {
	t.refs.Add(1)
}

// Release drops one reference; the last one returns the table's memory.
// A nil table is ignored.
func (t *TgtOiodTable) Release() {
	if t == nil {
		return
	}
	switch n := t.refs.Add(-1); {
	case n == 0:
		t.oiods = nil
		t.alloc.Free(t.size)
		stats.EcSplitTgtOiodTablesGauge.Dec()
	case n < 0:
		glog.Errorf("target oiod table released %d times too often", -n)
	}
}

package ec_split

import (
	"fmt"

	"github.com/seaweedfs/ecsplit/weed/stats"
)

// SplitReq is the part of a group-wide update addressed to one target.
//
// Iods and IodCsums are trimmed copies of the request's headers whose
// extent and checksum slices are views into the caller's arrays: they stay
// valid while those arrays are unchanged and until Release. Offs is shared
// with the target oiod table.
type SplitReq struct {
	StartShard uint32
	TgtIdx     uint32
	Iods       []Iod
	// IodCsums is nil when the request carries no checksums.
	IodCsums []IodCsums
	Offs     []uint64

	table *TgtOiodTable
	arena *splitArena
	size  int64
	alloc Allocator
}

// Shard is the absolute shard index of the target.
func (sr *SplitReq) Shard() uint32 {
	return sr.StartShard + sr.TgtIdx
}

// Release returns the split buffers and drops the request's reference on
// the target oiod table. Calling it more than once is harmless.
func (sr *SplitReq) Release() {
	if sr == nil || sr.arena == nil {
		return
	}
	putArena(sr.arena)
	sr.arena = nil
	sr.Iods, sr.IodCsums, sr.Offs = nil, nil, nil
	sr.alloc.Free(sr.size)
	sr.table.Release()
	sr.table = nil
}

// ReleaseSplitReqs releases every split request of a request.
func ReleaseSplitReqs(reqs []*SplitReq) {
	for _, sr := range reqs {
		sr.Release()
	}
}

func (s *Splitter) splitTarget(req *RwReq, table *TgtOiodTable, tgtIdx uint32) (*SplitReq, error) {
	tgt, found := table.Get(tgtIdx)
	if !found {
		return nil, fmt.Errorf("%w: target %d is not part of the request %v", ErrShardNotFound, tgtIdx, table.Bits())
	}

	iodNr := len(req.Iods)
	withCsums := req.IodCsums != nil
	size := newSplitLayout(iodNr, withCsums).size()
	if err := s.alloc.Alloc(size); err != nil {
		return nil, fmt.Errorf("%w: split request of %d bytes for target %d: %v", ErrNoMem, size, tgtIdx, err)
	}
	stats.EcSplitBytesHistogram.Observe(float64(size))

	arena := getArena(iodNr, withCsums)
	sr := &SplitReq{
		StartShard: req.StartShard,
		TgtIdx:     tgtIdx,
		Iods:       arena.iods,
		Offs:       tgt.Offs,
		arena:      arena,
		size:       size,
		alloc:      s.alloc,
	}
	if withCsums {
		sr.IodCsums = arena.csums
	}

	var singles int
	for i := range req.Iods {
		if err := splitIod(req, tgt, sr, i); err != nil {
			sr.Release()
			return nil, err
		}
		if tgt.Oiods[i].IsSingv() {
			singles++
		}
	}
	stats.EcSplitRequestCounter.WithLabelValues(stats.SplitTypeSingle).Add(float64(singles))
	stats.EcSplitRequestCounter.WithLabelValues(stats.SplitTypeArray).Add(float64(iodNr - singles))

	table.acquire()
	sr.table = table
	return sr, nil
}

func splitIod(req *RwReq, tgt *TgtOiod, sr *SplitReq, i int) error {
	iod := &req.Iods[i]
	split := &sr.Iods[i]
	split.Name = iod.Name
	split.Type = iod.Type
	split.Size = iod.Size

	var csum, splitCsum *IodCsums
	if sr.IodCsums != nil {
		csum = &req.IodCsums[i]
		splitCsum = &sr.IodCsums[i]
		*splitCsum = *csum
	}

	oiod := &tgt.Oiods[i]
	if oiod.IsSingv() {
		if iod.Type != IodSingle {
			return fmt.Errorf("%w: iod %d %q is striped as a single value but has type %s",
				ErrInvariant, i, iod.Name, iod.Type)
		}
		split.Nr = 1
		if len(iod.Recxs) > 0 {
			split.Recxs = iod.Recxs[:1:1]
		}
		if csum != nil {
			if len(csum.Data) != 1 {
				return fmt.Errorf("%w: single value iod %d %q has %d checksum entries",
					ErrInvariant, i, iod.Name, len(csum.Data))
			}
			derived := &sr.arena.singvCis[i]
			ci, err := splitSingvCsum(&csum.Data[0], sr.TgtIdx, req.Scheme, derived)
			if err != nil {
				return fmt.Errorf("iod %d %q: %w", i, iod.Name, err)
			}
			if ci == derived {
				splitCsum.Data = sr.arena.singvCis[i : i+1 : i+1]
			}
		}
		return nil
	}

	if len(oiod.Siods) != 1 {
		return fmt.Errorf("%w: iod %d %q has %d ranges for target %d",
			ErrInvariant, i, iod.Name, len(oiod.Siods), sr.TgtIdx)
	}
	siod := oiod.Siods[0]
	idx, end := int(siod.Idx), int(siod.Idx)+int(siod.Nr)
	if end > int(iod.Nr) {
		return fmt.Errorf("%w: iod %d %q range [%d,%d) of target %d exceeds %d extents",
			ErrInvariant, i, iod.Name, idx, end, sr.TgtIdx, iod.Nr)
	}
	split.Nr = siod.Nr
	if iod.Recxs != nil {
		split.Recxs = iod.Recxs[idx:end:end]
	}
	if csum != nil {
		if end > len(csum.Data) {
			return fmt.Errorf("%w: iod %d %q range [%d,%d) of target %d exceeds %d checksums",
				ErrInvariant, i, iod.Name, idx, end, sr.TgtIdx, len(csum.Data))
		}
		splitCsum.Data = csum.Data[idx:end:end]
	}
	return nil
}

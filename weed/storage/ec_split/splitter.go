package ec_split

import (
	"fmt"

	"github.com/seaweedfs/ecsplit/weed/glog"
	"github.com/seaweedfs/ecsplit/weed/stats"
	"github.com/seaweedfs/ecsplit/weed/storage/erasure_coding"
)

// Splitter decomposes group-wide EC updates into per-target requests.
// It holds no per-request state and may be shared by concurrent requests.
type Splitter struct {
	opts  Options
	alloc Allocator
}

func NewSplitter(opts Options) *Splitter {
	if opts.MaxShardCount <= 0 {
		opts.MaxShardCount = erasure_coding.MaxShardCount
	}
	if opts.ForwardConcurrency <= 0 {
		opts.ForwardConcurrency = defaultForwardConcurrency
	}
	alloc := opts.Allocator
	if alloc == nil {
		alloc = unlimitedAllocator{}
	}
	return &Splitter{opts: opts, alloc: alloc}
}

// BuildTgtOiods builds the target oiod table of a request: one entry per
// forward target plus the leader, in ascending shard order. The caller owns
// one reference and must Release it.
func (s *Splitter) BuildTgtOiods(req *RwReq) (*TgtOiodTable, error) {
	table, err := s.buildTgtOiods(req)
	if err != nil {
		return nil, s.fail(err)
	}
	return table, nil
}

// SplitTarget builds the split request of the target at shard offset tgtIdx.
// The split request holds its own reference on table.
func (s *Splitter) SplitTarget(req *RwReq, table *TgtOiodTable, tgtIdx uint32) (*SplitReq, error) {
	sr, err := s.splitTarget(req, table, tgtIdx)
	if err != nil {
		return nil, s.fail(err)
	}
	return sr, nil
}

// Split builds the split requests of every participating target, in
// ascending shard order. On error nothing is left allocated: a half split
// request must not be sent to any target.
func (s *Splitter) Split(req *RwReq) ([]*SplitReq, error) {
	table, err := s.buildTgtOiods(req)
	if err != nil {
		return nil, s.fail(err)
	}
	defer table.Release()

	reqs := make([]*SplitReq, 0, table.Len())
	for i := 0; i < table.Len(); i++ {
		sr, err := s.splitTarget(req, table, table.At(i).TgtIdx)
		if err != nil {
			ReleaseSplitReqs(reqs)
			return nil, s.fail(err)
		}
		reqs = append(reqs, sr)
	}
	stats.EcSplitTargetsHistogram.Observe(float64(len(reqs)))
	glog.V(3).Infof("split %d iods of shard %d over targets %v", len(req.Iods), req.Shard, table.Bits())
	return reqs, nil
}

// SplitLeader builds only the leader's own split request, the part the
// leader executes locally.
func (s *Splitter) SplitLeader(req *RwReq) (*SplitReq, error) {
	table, err := s.buildTgtOiods(req)
	if err != nil {
		return nil, s.fail(err)
	}
	defer table.Release()

	sr, err := s.splitTarget(req, table, req.leaderIdx())
	if err != nil {
		return nil, s.fail(err)
	}
	return sr, nil
}

func (s *Splitter) fail(err error) error {
	reason := errorReason(err)
	stats.EcSplitErrorCounter.WithLabelValues(reason).Inc()
	if reason == stats.ErrorNoMem {
		glog.V(1).Infof("ec split: %v", err)
	} else {
		glog.Errorf("ec split: %v", err)
	}
	return err
}

func (s *Splitter) buildTgtOiods(req *RwReq) (*TgtOiodTable, error) {
	if err := validateRwReq(req); err != nil {
		return nil, err
	}
	bits, err := s.targetBits(req)
	if err != nil {
		return nil, err
	}
	if err := checkLeaderRange(req); err != nil {
		return nil, err
	}
	return newTgtOiodTable(req.Oiods, bits, s.alloc)
}

func validateRwReq(req *RwReq) error {
	if err := req.Scheme.Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvariant, err)
	}
	if len(req.ShardTgts) < 1 {
		return fmt.Errorf("%w: no forward target", ErrInvariant)
	}
	if len(req.Iods) == 0 || len(req.Oiods) != len(req.Iods) {
		return fmt.Errorf("%w: %d iods with %d group oiods", ErrInvariant, len(req.Iods), len(req.Oiods))
	}
	// the leader is the last parity shard and owns a range of every update,
	// unless the value is evenly striped
	if first := &req.Oiods[0]; !first.IsSingv() && len(first.Siods) < 2 {
		return fmt.Errorf("%w: first iod %q has %d shard ranges", ErrInvariant, req.Iods[0].Name, len(first.Siods))
	}
	if req.IodCsums != nil && len(req.IodCsums) != len(req.Iods) {
		return fmt.Errorf("%w: %d iods with %d checksum entries", ErrInvariant, len(req.Iods), len(req.IodCsums))
	}
	for i := range req.Iods {
		if iod := &req.Iods[i]; iod.Recxs != nil && len(iod.Recxs) != int(iod.Nr) {
			return fmt.Errorf("%w: iod %d %q has nr %d but %d extents", ErrInvariant, i, iod.Name, iod.Nr, len(iod.Recxs))
		}
	}
	return nil
}

// checkLeaderRange requires the first iod to carry a range for the leader.
// Offsets must already be bounds checked.
func checkLeaderRange(req *RwReq) error {
	first := &req.Oiods[0]
	if first.IsSingv() {
		return nil
	}
	leader := req.leaderIdx()
	for _, siod := range first.Siods {
		if siod.TgtIdx == leader {
			return nil
		}
	}
	return fmt.Errorf("%w: first iod %q has no range for leader offset %d", ErrInvariant, req.Iods[0].Name, leader)
}

// targetBits marks the forward targets and the leader, as offsets from the
// request's start shard.
func (s *Splitter) targetBits(req *RwReq) (*erasure_coding.TargetBits, error) {
	bits, err := erasure_coding.NewTargetBits(req.Scheme.TotalShards(), s.opts.MaxShardCount)
	if err != nil {
		return nil, fmt.Errorf("%w: ec scheme %s: %w", ErrInvariant, req.Scheme, err)
	}

	if req.Shard < req.StartShard {
		return nil, fmt.Errorf("%w: leader shard %d below start shard %d", ErrShardNotFound, req.Shard, req.StartShard)
	}
	leader := req.leaderIdx()
	if leader >= uint32(bits.Width()) {
		return nil, fmt.Errorf("%w: leader offset %d: %w", ErrShardNotFound, leader, erasure_coding.ErrBitOutOfRange)
	}

	for _, tgt := range req.ShardTgts {
		if tgt.Shard < req.StartShard {
			return nil, fmt.Errorf("%w: forward shard %d below start shard %d", ErrShardNotFound, tgt.Shard, req.StartShard)
		}
		idx := tgt.Shard - req.StartShard
		if idx >= leader {
			return nil, fmt.Errorf("%w: forward shard offset %d not below leader offset %d", ErrInvariant, idx, leader)
		}
		id := erasure_coding.ShardId(idx)
		if bits.HasShardId(id) {
			return nil, fmt.Errorf("%w: forward shard %d listed twice", ErrInvariant, tgt.Shard)
		}
		if err := bits.AddShardId(id); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrShardNotFound, err)
		}
	}
	if err := bits.AddShardId(erasure_coding.ShardId(leader)); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrShardNotFound, err)
	}

	if bits.ShardIdCount() != len(req.ShardTgts)+1 {
		return nil, fmt.Errorf("%w: %d target bits for %d forward targets", ErrInvariant, bits.ShardIdCount(), len(req.ShardTgts))
	}
	if highest, _ := bits.Highest(); uint32(highest) != leader {
		return nil, fmt.Errorf("%w: leader offset %d is not the highest target %d", ErrInvariant, leader, highest)
	}
	return bits, nil
}

package ec_split

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/seaweedfs/ecsplit/weed/glog"
	"github.com/seaweedfs/ecsplit/weed/stats"
	"github.com/seaweedfs/ecsplit/weed/util/request_id"
)

// Sender hands one split request to the transport. The split request is
// released as soon as SendSplit returns, so anything kept must be copied.
type Sender interface {
	SendSplit(ctx context.Context, tgt ShardTgt, split *SplitReq) error
}

type SenderFunc func(ctx context.Context, tgt ShardTgt, split *SplitReq) error

func (f SenderFunc) SendSplit(ctx context.Context, tgt ShardTgt, split *SplitReq) error {
	return f(ctx, tgt, split)
}

// Forward splits req and sends every target its part, the leader included.
// Nothing is sent when the split fails. Sends run concurrently and the first
// send error is returned after all sends have finished.
func (s *Splitter) Forward(ctx context.Context, req *RwReq, sender Sender) error {
	ctx = request_id.Ensure(ctx)

	splits, err := s.Split(req)
	if err != nil {
		glog.ErrorfCtx(ctx, "forward update of shard %d: %v", req.Shard, err)
		return err
	}

	tgts := make(map[uint32]ShardTgt, len(req.ShardTgts)+1)
	for _, tgt := range req.ShardTgts {
		tgts[tgt.Shard-req.StartShard] = tgt
	}
	tgts[req.leaderIdx()] = req.LeaderTgt()

	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(s.opts.ForwardConcurrency)
	for _, split := range splits {
		g.Go(func() error {
			defer split.Release()
			if err := sender.SendSplit(gCtx, tgts[split.TgtIdx], split); err != nil {
				stats.EcForwardCounter.WithLabelValues(stats.FailedToSend).Inc()
				return fmt.Errorf("send split to shard %d: %w", split.Shard(), err)
			}
			stats.EcForwardCounter.WithLabelValues(stats.Sent).Inc()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		glog.WarningfCtx(ctx, "forward update of shard %d: %v", req.Shard, err)
		return err
	}
	glog.V(3).InfofCtx(ctx, "forwarded update of shard %d to %d targets", req.Shard, len(splits))
	return nil
}

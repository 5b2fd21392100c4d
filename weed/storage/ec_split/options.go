package ec_split

import (
	"fmt"

	"github.com/dustin/go-humanize"

	"github.com/seaweedfs/ecsplit/weed/storage/erasure_coding"
	"github.com/seaweedfs/ecsplit/weed/util"
)

const (
	ConfigMaxShardCount      = "ec.split.max_shard_count"
	ConfigMemoryLimit        = "ec.split.memory_limit"
	ConfigForwardConcurrency = "ec.split.forward_concurrency"

	defaultForwardConcurrency = 8
)

type Options struct {
	// MaxShardCount bounds the width of a redundancy group.
	MaxShardCount int
	// ForwardConcurrency limits concurrent sends in Forward.
	ForwardConcurrency int
	// Allocator reserves memory for split buffers. Nil means unlimited.
	Allocator Allocator
}

func DefaultOptions() Options {
	return Options{
		MaxShardCount:      erasure_coding.MaxShardCount,
		ForwardConcurrency: defaultForwardConcurrency,
	}
}

// LoadOptions reads the ec.split.* keys, e.g. from ec_split.toml:
//
//	[ec.split]
//	max_shard_count = 32
//	memory_limit = "64MiB"
//	forward_concurrency = 8
func LoadOptions(conf util.Configuration) (Options, error) {
	conf.SetDefault(ConfigMaxShardCount, erasure_coding.MaxShardCount)
	conf.SetDefault(ConfigForwardConcurrency, defaultForwardConcurrency)

	opts := Options{
		MaxShardCount:      conf.GetInt(ConfigMaxShardCount),
		ForwardConcurrency: conf.GetInt(ConfigForwardConcurrency),
	}
	if opts.MaxShardCount <= 0 || opts.MaxShardCount > erasure_coding.MaxShardCountLimit {
		return opts, fmt.Errorf("%s %d out of range (0,%d]", ConfigMaxShardCount, opts.MaxShardCount, erasure_coding.MaxShardCountLimit)
	}
	if opts.ForwardConcurrency <= 0 {
		opts.ForwardConcurrency = defaultForwardConcurrency
	}
	if limit := conf.GetString(ConfigMemoryLimit); limit != "" {
		bytes, err := humanize.ParseBytes(limit)
		if err != nil {
			return opts, fmt.Errorf("parse %s %q: %w", ConfigMemoryLimit, limit, err)
		}
		opts.Allocator = NewLimitedAllocator(int64(bytes))
	}
	return opts, nil
}

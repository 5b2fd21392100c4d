package ec_split

import (
	"sync"
	"sync/atomic"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seaweedfs/ecsplit/weed/storage/erasure_coding"
	"github.com/seaweedfs/ecsplit/weed/util"
)

func TestSplitLayoutIsAligned(t *testing.T) {
	for iodNr := 1; iodNr < 9; iodNr++ {
		plain := newSplitLayout(iodNr, false)
		withCsums := newSplitLayout(iodNr, true)

		for _, n := range []int64{plain.hdr, plain.iods, withCsums.csums, withCsums.singvCis} {
			assert.Zero(t, n%splitAlign)
		}
		assert.Zero(t, plain.csums)
		assert.Zero(t, plain.singvCis)
		assert.Equal(t, plain.hdr+plain.iods, plain.size())
		assert.Greater(t, withCsums.size(), plain.size())
		assert.Greater(t, newSplitLayout(iodNr+1, true).size(), withCsums.size())
	}
	assert.Greater(t, tgtOiodTableSize(3, 2), tgtOiodTableSize(2, 2))
	assert.Zero(t, tgtOiodTableSize(3, 2)%splitAlign)
}

func TestLimitedAllocatorConcurrent(t *testing.T) {
	a := NewLimitedAllocator(500)
	var granted atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if a.Alloc(10) == nil {
				granted.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(50), granted.Load())
	assert.Equal(t, int64(500), a.InUse())
	assert.ErrorIs(t, a.Alloc(1), ErrNoMem)

	a.Free(500)
	assert.Equal(t, int64(0), a.InUse())
	assert.NoError(t, a.Alloc(500))
}

func TestArenaPoolClearsReferences(t *testing.T) {
	a := getArena(2, true)
	require.Len(t, a.iods, 2)
	require.Len(t, a.csums, 2)
	a.iods[0] = Iod{Name: "akey", Recxs: []Recx{{1, 1}}}
	a.csums[1] = IodCsums{Data: []CsumInfo{{Nr: 1}}}
	a.singvCis[0] = CsumInfo{Buf: []byte{1}}
	putArena(a)

	assert.Zero(t, a.iods[0])
	assert.Zero(t, a.csums[1])
	assert.Zero(t, a.singvCis[0])

	b := getArena(3, false)
	assert.Len(t, b.iods, 3)
	assert.Empty(t, b.csums)
	assert.Empty(t, b.singvCis)
	putArena(b)
}

func TestLoadOptionsDefaults(t *testing.T) {
	opts, err := LoadOptions(util.NewViperProxy(viper.New()))
	require.NoError(t, err)

	assert.Equal(t, erasure_coding.MaxShardCount, opts.MaxShardCount)
	assert.Equal(t, defaultForwardConcurrency, opts.ForwardConcurrency)
	assert.Nil(t, opts.Allocator)
}

func TestLoadOptionsMemoryLimit(t *testing.T) {
	v := viper.New()
	v.Set(ConfigMemoryLimit, "1KiB")
	v.Set(ConfigMaxShardCount, 64)
	v.Set(ConfigForwardConcurrency, 2)

	opts, err := LoadOptions(util.NewViperProxy(v))
	require.NoError(t, err)
	assert.Equal(t, 64, opts.MaxShardCount)
	assert.Equal(t, 2, opts.ForwardConcurrency)

	limited, ok := opts.Allocator.(*LimitedAllocator)
	require.True(t, ok)
	assert.NoError(t, limited.Alloc(1024))
	assert.ErrorIs(t, limited.Alloc(1), ErrNoMem)
}

func TestLoadOptionsErrors(t *testing.T) {
	for key, value := range map[string]interface{}{
		ConfigMemoryLimit:   "lots",
		ConfigMaxShardCount: 1000,
	} {
		v := viper.New()
		v.Set(key, value)
		_, err := LoadOptions(util.NewViperProxy(v))
		assert.Error(t, err, key)
	}
}

func TestNewSplitterDefaults(t *testing.T) {
	s := NewSplitter(Options{})
	assert.Equal(t, erasure_coding.MaxShardCount, s.opts.MaxShardCount)
	assert.Equal(t, defaultForwardConcurrency, s.opts.ForwardConcurrency)
	assert.IsType(t, unlimitedAllocator{}, s.alloc)
}

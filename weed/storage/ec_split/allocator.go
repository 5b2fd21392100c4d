package ec_split

import (
	"sync"
	"sync/atomic"
	"unsafe"
)

// Allocator reserves memory for split buffers. Free is called once with the
// size of every successful Alloc. Implementations must be safe for
// concurrent use, splits of different requests run in parallel.
type Allocator interface {
	Alloc(size int64) error
	Free(size int64)
}

type unlimitedAllocator struct{}

func (unlimitedAllocator) Alloc(int64) error { return nil }
func (unlimitedAllocator) Free(int64)        {}

// LimitedAllocator fails reservations once limit bytes are in use.
type LimitedAllocator struct {
	limit int64
	used  atomic.Int64
}

func NewLimitedAllocator(limit int64) *LimitedAllocator {
	return &LimitedAllocator{limit: limit}
}

func (a *LimitedAllocator) Alloc(size int64) error {
	for {
		used := a.used.Load()
		if used+size > a.limit {
			return ErrNoMem
		}
		if a.used.CompareAndSwap(used, used+size) {
			return nil
		}
	}
}

func (a *LimitedAllocator) Free(size int64) {
	a.used.Add(-size)
}

func (a *LimitedAllocator) InUse() int64 {
	return a.used.Load()
}

const splitAlign = 8

func roundup(n uintptr) int64 {
	return int64((n + splitAlign - 1) &^ (splitAlign - 1))
}

// splitLayout is the byte size of each region of one split request:
// header, trimmed iods, trimmed checksums and derived single value checksums.
type splitLayout struct {
	hdr      int64
	iods     int64
	csums    int64
	singvCis int64
}

func newSplitLayout(iodNr int, withCsums bool) splitLayout {
	n := uintptr(iodNr)
	l := splitLayout{
		hdr:  roundup(unsafe.Sizeof(SplitReq{})),
		iods: roundup(unsafe.Sizeof(Iod{}) * n),
	}
	if withCsums {
		l.csums = roundup(unsafe.Sizeof(IodCsums{}) * n)
		l.singvCis = roundup(unsafe.Sizeof(CsumInfo{}) * n)
	}
	return l
}

func (l splitLayout) size() int64 {
	return l.hdr + l.iods + l.csums + l.singvCis
}

func tgtOiodTableSize(tgtNr, iodNr int) int64 {
	perIod := unsafe.Sizeof(ObjIoDesc{}) + unsafe.Sizeof(ShardIod{}) + unsafe.Sizeof(uint64(0))
	return roundup(unsafe.Sizeof(TgtOiodTable{})) +
		int64(tgtNr)*(roundup(unsafe.Sizeof(TgtOiod{}))+roundup(perIod*uintptr(iodNr)))
}

// splitArena backs the arrays of one split request. Arenas are pooled so the
// per-target hot path reuses earlier buffers instead of allocating.
type splitArena struct {
	iods     []Iod
	csums    []IodCsums
	singvCis []CsumInfo
}

var arenaPool = sync.Pool{
	New: func() interface{} {
		return new(splitArena)
	},
}

func resize[T any](s []T, n int) []T {
	if cap(s) < n {
		return make([]T, n)
	}
	return s[:n]
}

func getArena(iodNr int, withCsums bool) *splitArena {
	a := arenaPool.Get().(*splitArena)
	a.iods = resize(a.iods, iodNr)
	if withCsums {
		a.csums = resize(a.csums, iodNr)
		a.singvCis = resize(a.singvCis, iodNr)
	} else {
		a.csums = a.csums[:0]
		a.singvCis = a.singvCis[:0]
	}
	return a
}

// putArena drops every reference into caller arrays before pooling.
func putArena(a *splitArena) {
	clear(a.iods)
	clear(a.csums)
	clear(a.singvCis)
	arenaPool.Put(a)
}

package ec_split

import (
	"fmt"

	"github.com/seaweedfs/ecsplit/weed/storage/erasure_coding"
)

type IodType uint8

const (
	IodNone IodType = iota
	IodSingle
	IodArray
)

func (t IodType) String() string {
	switch t {
	case IodSingle:
		return "single"
	case IodArray:
		return "array"
	}
	return "none"
}

// Recx is a record extent: Nr records starting at record index Idx.
type Recx struct {
	Idx uint64 `json:"idx"`
	Nr  uint64 `json:"nr"`
}

// Iod describes the records of one attribute being read or written.
type Iod struct {
	Name  string  `json:"name"`
	Type  IodType `json:"type"`
	Size  uint64  `json:"size"` // record size in bytes
	Nr    uint32  `json:"nr"`
	Recxs []Recx  `json:"recxs,omitempty"`
}

// CsumInfo describes Nr checksums of Len bytes each, the i-th one stored at
// Buf[Offset+i*Len:]. Buf is shared with the caller and never copied.
type CsumInfo struct {
	Type      uint16 `json:"type"`
	ChunkSize uint32 `json:"chunkSize"`
	Nr        uint32 `json:"nr"`
	Len       uint16 `json:"len"`
	BufLen    uint32 `json:"bufLen"`
	Offset    int    `json:"offset"`
	Buf       []byte `json:"buf"`
}

// Checksum returns the i-th checksum of the info.
func (ci *CsumInfo) Checksum(i int) []byte {
	start := ci.Offset + i*int(ci.Len)
	return ci.Buf[start : start+int(ci.Len)]
}

func (ci *CsumInfo) String() string {
	return fmt.Sprintf("csum{nr:%d len:%d off:%d buflen:%d}", ci.Nr, ci.Len, ci.Offset, ci.BufLen)
}

// IodCsums holds the checksums of one Iod, positionally aligned with its
// extents for arrays, a single entry for single values.
type IodCsums struct {
	Akey CsumInfo   `json:"akey"`
	Data []CsumInfo `json:"data"`
}

const (
	// SiodSingv marks a single value evenly striped over the data shards.
	SiodSingv uint32 = 1 << iota
)

// ShardIod is the slice [Idx, Idx+Nr) of an Iod's extents owned by the shard
// at offset TgtIdx. Off is the byte offset of its first record in the
// request's record buffer.
type ShardIod struct {
	TgtIdx uint32 `json:"tgtIdx"`
	Idx    uint32 `json:"idx"`
	Nr     uint32 `json:"nr"`
	Off    uint64 `json:"off"`
}

// ObjIoDesc is the group layout of one Iod: the shard ranges, or the
// SiodSingv flag for an evenly striped single value.
type ObjIoDesc struct {
	TgtIdx uint32     `json:"tgtIdx"`
	Flags  uint32     `json:"flags"`
	Siods  []ShardIod `json:"siods,omitempty"`
}

func (o *ObjIoDesc) IsSingv() bool {
	return o.Flags&SiodSingv != 0
}

// ShardTgt addresses one forward target of a request.
type ShardTgt struct {
	Rank   uint32 `json:"rank"`
	Shard  uint32 `json:"shard"`
	TgtIdx uint32 `json:"tgtIdx"`
}

// RwReq is a group-wide update as received by the leader.
type RwReq struct {
	// Shard and Rank address the leader itself.
	Shard      uint32                `json:"shard"`
	Rank       uint32                `json:"rank"`
	StartShard uint32                `json:"startShard"`
	Scheme     erasure_coding.Scheme `json:"scheme"`
	Iods       []Iod                 `json:"iods"`
	Oiods      []ObjIoDesc           `json:"oiods"`
	IodCsums   []IodCsums            `json:"iodCsums,omitempty"`
	ShardTgts  []ShardTgt            `json:"shardTgts"`
}

func (req *RwReq) leaderIdx() uint32 {
	return req.Shard - req.StartShard
}

// LeaderTgt addresses the leader the way ShardTgts address forward targets.
func (req *RwReq) LeaderTgt() ShardTgt {
	return ShardTgt{Rank: req.Rank, Shard: req.Shard, TgtIdx: req.leaderIdx()}
}

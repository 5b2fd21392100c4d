package main

import (
	"context"
	"encoding/binary"
	"flag"
	"fmt"
	"hash/crc32"
	"math/rand"
	"os"
	"reflect"
	"sort"
	"sync"

	"github.com/dustin/go-humanize"
	jsoniter "github.com/json-iterator/go"

	"github.com/seaweedfs/ecsplit/weed/glog"
	"github.com/seaweedfs/ecsplit/weed/stats"
	"github.com/seaweedfs/ecsplit/weed/storage/ec_split"
	"github.com/seaweedfs/ecsplit/weed/storage/erasure_coding"
	"github.com/seaweedfs/ecsplit/weed/util"
)

var (
	json = jsoniter.ConfigCompatibleWithStandardLibrary

	input       = flag.String("input", "", "json encoded request to split, a sample request is generated if empty")
	dataShards  = flag.Int("data", erasure_coding.DefaultScheme.DataShards, "data shards of the sample request")
	parity      = flag.Int("parity", erasure_coding.DefaultScheme.ParityShards, "parity shards of the sample request")
	startShard  = flag.Uint("startShard", 0, "first shard of the sample request's group")
	cellRecords = flag.Uint64("cell", 64, "records per cell")
	recordSize  = flag.Uint64("recordSize", 8, "record size in bytes")
	start       = flag.Uint64("start", 0, "first record updated by the sample request")
	count       = flag.Uint64("count", 0, "records updated by the sample request, defaults to one full stripe")
	valueSize   = flag.Int("valueSize", 4096, "size of the sample single value, 0 for none")
	checksums   = flag.Bool("checksums", true, "attach crc32 checksums to the sample request")
	asJson      = flag.Bool("json", false, "print the split requests as json")
	metricsPort = flag.Int("metricsPort", 0, "serve prometheus metrics on this port and keep running")
)

func init() {
	flag.Var(&util.ConfigurationFileDirectory, "config_dir", "directory with ec_split.toml")
}

// dumped is what the sender keeps of a split request; split requests are
// released once sent.
type dumped struct {
	Shard    uint32              `json:"shard"`
	Rank     uint32              `json:"rank"`
	Iods     []ec_split.Iod      `json:"iods"`
	IodCsums []ec_split.IodCsums `json:"iodCsums,omitempty"`
	Offs     []uint64            `json:"offs"`
}

type dumper struct {
	sync.Mutex
	splits []dumped
}

func (d *dumper) SendSplit(_ context.Context, tgt ec_split.ShardTgt, split *ec_split.SplitReq) error {
	out := dumped{
		Shard: split.Shard(),
		Rank:  tgt.Rank,
		Iods:  make([]ec_split.Iod, len(split.Iods)),
		Offs:  append([]uint64(nil), split.Offs...),
	}
	for i, iod := range split.Iods {
		out.Iods[i] = iod
		out.Iods[i].Recxs = append([]ec_split.Recx(nil), iod.Recxs...)
	}
	if split.IodCsums != nil {
		out.IodCsums = make([]ec_split.IodCsums, len(split.IodCsums))
		for i, csum := range split.IodCsums {
			out.IodCsums[i] = csum
			out.IodCsums[i].Data = append([]ec_split.CsumInfo(nil), csum.Data...)
		}
	}

	d.Lock()
	defer d.Unlock()
	d.splits = append(d.splits, out)
	return nil
}

func main() {
	flag.Parse()
	defer glog.Flush()

	util.LoadConfiguration("ec_split", false)
	opts, err := ec_split.LoadOptions(util.GetViper())
	if err != nil {
		glog.Fatalf("load options: %v", err)
	}

	var req *ec_split.RwReq
	if *input != "" {
		req, err = readRequest(*input)
	} else {
		req, err = sampleRequest()
	}
	if err != nil {
		glog.Fatalf("request: %v", err)
	}

	d := &dumper{}
	if err := ec_split.NewSplitter(opts).Forward(context.Background(), req, d); err != nil {
		glog.Fatalf("split: %v", err)
	}
	sort.Slice(d.splits, func(i, j int) bool { return d.splits[i].Shard < d.splits[j].Shard })

	if *asJson {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(d.splits); err != nil {
			glog.Fatalf("encode: %v", err)
		}
	} else {
		printSplits(req, d.splits)
	}

	if err := verify(req, d.splits); err != nil {
		glog.Errorf("verify: %v", err)
		glog.Flush()
		os.Exit(1)
	}
	fmt.Fprintf(os.Stderr, "%d split requests reassemble the %d iods of shard %d\n", len(d.splits), len(req.Iods), req.Shard)

	if *metricsPort > 0 {
		stats.StartMetricsServer("", *metricsPort)
	}
}

func readRequest(fileName string) (*ec_split.RwReq, error) {
	data, err := os.ReadFile(fileName)
	if err != nil {
		return nil, err
	}
	req := &ec_split.RwReq{}
	if err := json.Unmarshal(data, req); err != nil {
		return nil, fmt.Errorf("decode %s: %w", fileName, err)
	}
	return req, nil
}

func checksumOf(data []byte) []byte {
	b := make([]byte, crc32.Size)
	binary.BigEndian.PutUint32(b, crc32.ChecksumIEEE(data))
	return b
}

// sampleRequest builds an update of one array attribute covering the data
// cells of [start, start+count) plus one parity cell per parity shard, and
// optionally a single value striped over the data shards. The leader is the
// last parity shard; every other shard is a forward target.
func sampleRequest() (*ec_split.RwReq, error) {
	scheme, err := erasure_coding.NewScheme(*dataShards, *parity)
	if err != nil {
		return nil, err
	}
	cell, recSize := *cellRecords, *recordSize
	records := *count
	if records == 0 {
		records = cell * uint64(scheme.DataShards)
	}
	first := uint32(*startShard)
	req := &ec_split.RwReq{
		StartShard: first,
		Shard:      first + uint32(scheme.LeaderShard()),
		Rank:       uint32(1000 + int(scheme.LeaderShard())),
		Scheme:     scheme,
	}
	for i := 0; i < int(scheme.LeaderShard()); i++ {
		req.ShardTgts = append(req.ShardTgts, ec_split.ShardTgt{Rank: uint32(1000 + i), Shard: first + uint32(i), TgtIdx: uint32(i)})
	}

	extents := erasure_coding.LocateExtents(cell, *start, records)
	stripe := *start / (cell * uint64(scheme.DataShards))
	for p := 0; p < scheme.ParityShards; p++ {
		parityCell := stripe*uint64(scheme.ParityShards) + uint64(p)
		extents = append(extents, erasure_coding.Extent{
			Start: erasure_coding.ParityIndicator | parityCell*cell,
			Count: cell,
		})
	}
	ranges, err := erasure_coding.LocateShardRanges(scheme, cell, recSize, extents)
	if err != nil {
		return nil, err
	}

	iod := ec_split.Iod{Name: "dkey/array", Type: ec_split.IodArray, Size: recSize, Nr: uint32(len(extents))}
	csum := ec_split.IodCsums{Akey: ec_split.CsumInfo{Nr: 1, Len: crc32.Size, BufLen: crc32.Size, Buf: checksumOf([]byte(iod.Name))}}
	buf := make([]byte, 0, crc32.Size*len(extents))
	for i, e := range extents {
		iod.Recxs = append(iod.Recxs, ec_split.Recx{Idx: e.Start, Nr: e.Count})
		record := make([]byte, e.Count*recSize)
		rand.Read(record)
		buf = append(buf, checksumOf(record)...)
		csum.Data = append(csum.Data, ec_split.CsumInfo{
			ChunkSize: uint32(e.Count * recSize),
			Nr:        1,
			Len:       crc32.Size,
			BufLen:    crc32.Size,
			Offset:    crc32.Size * i,
			Buf:       buf[:cap(buf)],
		})
	}
	var oiod ec_split.ObjIoDesc
	for _, r := range ranges {
		oiod.Siods = append(oiod.Siods, ec_split.ShardIod{
			TgtIdx: uint32(r.ShardId),
			Idx:    uint32(r.Index),
			Nr:     uint32(r.Count),
			Off:    r.Offset,
		})
	}
	req.Iods = append(req.Iods, iod)
	req.Oiods = append(req.Oiods, oiod)
	req.IodCsums = append(req.IodCsums, csum)

	if *valueSize > 0 {
		value := make([]byte, *valueSize)
		rand.Read(value)
		enc, err := scheme.NewEncoder()
		if err != nil {
			return nil, err
		}
		shards, err := enc.Split(value)
		if err != nil {
			return nil, err
		}
		sumBuf := make([]byte, 0, crc32.Size*scheme.DataShards)
		for _, chunk := range shards[:scheme.DataShards] {
			sumBuf = append(sumBuf, checksumOf(chunk)...)
		}
		req.Iods = append(req.Iods, ec_split.Iod{Name: "dkey/single", Type: ec_split.IodSingle, Size: uint64(*valueSize), Nr: 1})
		req.Oiods = append(req.Oiods, ec_split.ObjIoDesc{Flags: ec_split.SiodSingv})
		req.IodCsums = append(req.IodCsums, ec_split.IodCsums{Data: []ec_split.CsumInfo{{
			ChunkSize: uint32(len(shards[0])),
			Nr:        uint32(scheme.DataShards),
			Len:       crc32.Size,
			BufLen:    uint32(len(sumBuf)),
			Buf:       sumBuf,
		}}})
	}

	if !*checksums {
		req.IodCsums = nil
	}
	return req, nil
}

func printSplits(req *ec_split.RwReq, splits []dumped) {
	fmt.Printf("ec %s, leader shard %d, %d forward targets\n", req.Scheme, req.Shard, len(req.ShardTgts))
	for _, split := range splits {
		role := "forward"
		if split.Shard == req.Shard {
			role = "leader"
		}
		fmt.Printf("shard %d (%s, rank %d)\n", split.Shard, role, split.Rank)
		for i, iod := range split.Iods {
			var records uint64
			for _, recx := range iod.Recxs {
				records += recx.Nr
			}
			line := fmt.Sprintf("  %-12s %-6s nr:%-3d", iod.Name, iod.Type, iod.Nr)
			if iod.Type == ec_split.IodArray {
				line += fmt.Sprintf(" records:%s bytes:%s off:%d",
					humanize.Comma(int64(records)), humanize.IBytes(records*iod.Size), split.Offs[i])
			} else {
				line += fmt.Sprintf(" bytes:%s", humanize.IBytes(iod.Size))
			}
			if split.IodCsums != nil {
				for _, ci := range split.IodCsums[i].Data {
					line += fmt.Sprintf(" %v", &ci)
				}
			}
			fmt.Println(line)
		}
	}
}

// verify checks that the array extents and checksums of all split requests,
// in shard order, concatenate to the request's.
func verify(req *ec_split.RwReq, splits []dumped) error {
	for i, iod := range req.Iods {
		if iod.Type != ec_split.IodArray {
			continue
		}
		var recxs []ec_split.Recx
		var csums []ec_split.CsumInfo
		for _, split := range splits {
			recxs = append(recxs, split.Iods[i].Recxs...)
			if split.IodCsums != nil {
				csums = append(csums, split.IodCsums[i].Data...)
			}
		}
		if !reflect.DeepEqual(recxs, iod.Recxs) {
			return fmt.Errorf("iod %q: extents %v reassemble to %v", iod.Name, iod.Recxs, recxs)
		}
		if req.IodCsums != nil && !reflect.DeepEqual(csums, req.IodCsums[i].Data) {
			return fmt.Errorf("iod %q: %d checksums reassemble to %d", iod.Name, len(req.IodCsums[i].Data), len(csums))
		}
	}
	return nil
}

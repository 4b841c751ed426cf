package testutil

import (
	"encoding/binary"
	"testing"

	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// Module layout constants.
const (
	ModuleMagic          uint32 = 0x64686F6D // "mohd"
	ModuleVersionSeason3 int32  = 53
	moduleHeaderSize            = 72
	moduleEntrySize             = 88
	moduleBlockSize             = 20
	payloadAlign                = 0x1000
)

// Compression methods as stored in block records.
const (
	MethodStored uint32 = 0
	MethodKraken uint32 = 1
	MethodZstd   uint32 = 2
	MethodLZ4    uint32 = 3
)

// Entry flags.
const (
	FlagCompressed uint8 = 1
	FlagHasBlocks  uint8 = 2
	FlagRawFile    uint8 = 4
)

// Chunk is one block of an entry: Size uncompressed bytes of the payload
// compressed with Method.
type Chunk struct {
	Size   int
	Method uint32
}

// ModuleEntry describes one entry of a synthetic module.
type ModuleEntry struct {
	Group         string
	GlobalID      int32
	Parent        int32
	Flags         uint8
	NameOffset    uint32
	ResourceIndex int32
	ResourceCount int32
	AssetHash     [16]byte

	// Payload is the uncompressed entry content.
	Payload []byte

	// Chunks splits Payload into blocks. Without chunks the payload is one
	// region compressed with Method.
	Chunks []Chunk
	Method uint32

	// Companion stores the entry in the _hd1 file.
	Companion bool

	// Tweak adjusts the encoded 88-byte record before it is written.
	Tweak func(rec []byte)
}

// Module describes a synthetic module archive.
type Module struct {
	Version      int32
	ModuleID     int64
	BuildVersion uint64
	Entries      []ModuleEntry
	Resources    []uint32
	Strings      []byte

	// HD1Delta is the companion base offset. Companion files begin with
	// HD1Delta zero bytes.
	HD1Delta uint64
}

// NewEntry returns a stored entry without a parent.
func NewEntry(group string, id int32, payload []byte) ModuleEntry {
	return ModuleEntry{Group: group, GlobalID: id, Parent: -1, ResourceIndex: -1, Payload: payload}
}

type builtEntry struct {
	region []byte
	blocks []byte
	nblock int
}

// Build encodes the module. The companion is nil when no entry uses it.
func (m *Module) Build(tb testing.TB) (primary, companion []byte) {
	tb.Helper()

	version := m.Version
	if version == 0 {
		version = ModuleVersionSeason3
	}

	built := make([]builtEntry, len(m.Entries))
	var blockTable []byte
	blockCount := 0
	for i := range m.Entries {
		e := &m.Entries[i]
		var b builtEntry
		if len(e.Chunks) == 0 {
			b.region = Compress(tb, e.Method, e.Payload)
		} else {
			off := 0
			for _, c := range e.Chunks {
				piece := e.Payload[off : off+c.Size]
				comp := Compress(tb, c.Method, piece)
				rec := le32(nil, uint32(len(b.region))) //nolint:gosec // test sizes are small
				rec = le32(rec, uint32(len(comp)))      //nolint:gosec // test sizes are small
				rec = le32(rec, uint32(off))            //nolint:gosec // test sizes are small
				rec = le32(rec, uint32(c.Size))         //nolint:gosec // test sizes are small
				rec = le32(rec, c.Method)
				b.blocks = append(b.blocks, rec...)
				b.region = append(b.region, comp...)
				off += c.Size
				b.nblock++
			}
		}
		built[i] = b
	}

	var payload, hd1 []byte
	var entries []byte
	for i := range m.Entries {
		e := &m.Entries[i]
		b := built[i]

		var dataOffset uint64
		var location uint64
		if e.Companion {
			dataOffset = uint64(len(hd1))
			hd1 = append(hd1, b.region...)
			location = 1
		} else {
			dataOffset = uint64(len(payload))
			payload = append(payload, b.region...)
		}

		flags := e.Flags
		if e.Method != MethodStored {
			flags |= FlagCompressed
		}
		for _, c := range e.Chunks {
			if c.Method != MethodStored {
				flags |= FlagCompressed
			}
		}
		blockIndex := int32(-1)
		if b.nblock > 0 {
			flags |= FlagHasBlocks
			blockIndex = int32(blockCount) //nolint:gosec // test sizes are small
			blockTable = append(blockTable, b.blocks...)
			blockCount += b.nblock
		}

		rec := make([]byte, 0, moduleEntrySize)
		rec = append(rec, 0, flags)
		rec = le16(rec, uint16(b.nblock)) //nolint:gosec // test sizes are small
		rec = le32(rec, uint32(blockIndex)) //nolint:gosec // two's complement
		rec = le32(rec, uint32(e.ResourceIndex)) //nolint:gosec // two's complement
		rec = append(rec, Group(e.Group)...)
		rec = binary.LittleEndian.AppendUint64(rec, dataOffset|location<<48)
		rec = le32(rec, uint32(len(b.region)))    //nolint:gosec // test sizes are small
		rec = le32(rec, uint32(len(e.Payload)))   //nolint:gosec // test sizes are small
		rec = le32(rec, uint32(e.GlobalID))       //nolint:gosec // two's complement
		rec = le32(rec, 0)                        // header size
		rec = le32(rec, uint32(len(e.Payload)))   //nolint:gosec // test sizes are small
		rec = le32(rec, 0)                        // resource data size
		rec = le32(rec, 0)                        // actual resource size
		rec = le32(rec, 0)                        // alignment
		rec = le32(rec, e.NameOffset)
		rec = le32(rec, uint32(e.Parent)) //nolint:gosec // two's complement
		rec = append(rec, e.AssetHash[:]...)
		rec = le32(rec, uint32(e.ResourceCount)) //nolint:gosec // two's complement
		rec = le32(rec, 0)
		if e.Tweak != nil {
			e.Tweak(rec)
		}
		entries = append(entries, rec...)
	}

	names := m.Strings
	if version > 52 {
		names = nil
	}

	out := le32(nil, ModuleMagic)
	out = le32(out, uint32(version)) //nolint:gosec // positive
	out = binary.LittleEndian.AppendUint64(out, uint64(m.ModuleID)) //nolint:gosec // two's complement
	out = le32(out, uint32(len(m.Entries))) //nolint:gosec // test sizes are small
	out = le32(out, 0)
	out = le32(out, 0)
	out = le32(out, 0)
	out = le32(out, 0xFFFFFFFF) // resource index
	out = le32(out, uint32(len(names)))         //nolint:gosec // test sizes are small
	out = le32(out, uint32(len(m.Resources))) //nolint:gosec // test sizes are small
	out = le32(out, uint32(blockCount))       //nolint:gosec // test sizes are small
	out = binary.LittleEndian.AppendUint64(out, m.BuildVersion)
	out = binary.LittleEndian.AppendUint64(out, m.HD1Delta)
	out = binary.LittleEndian.AppendUint64(out, uint64(len(payload)))
	if version >= 51 {
		out = append(out, make([]byte, 8)...)
	}
	out = append(out, entries...)
	out = append(out, names...)
	for _, r := range m.Resources {
		out = le32(out, r)
	}
	out = append(out, blockTable...)
	start := (len(out)/payloadAlign + 1) * payloadAlign
	out = append(out, make([]byte, start-len(out))...)
	out = append(out, payload...)

	if len(hd1) > 0 {
		companion = append(make([]byte, m.HD1Delta), hd1...)
	}
	return out, companion
}

// Compress encodes data with a block method. Kraken is simulated with
// XorKraken since no Go encoder exists.
func Compress(tb testing.TB, method uint32, data []byte) []byte {
	tb.Helper()
	switch method {
	case MethodStored:
		return append([]byte(nil), data...)
	case MethodKraken:
		return xor(data)
	case MethodZstd:
		enc, err := zstd.NewWriter(nil)
		if err != nil {
			tb.Fatalf("zstd writer: %v", err)
		}
		defer enc.Close()
		return enc.EncodeAll(data, nil)
	case MethodLZ4:
		dst := make([]byte, lz4.CompressBlockBound(len(data)))
		n, err := lz4.CompressBlock(data, dst, nil)
		if err != nil {
			tb.Fatalf("lz4 compress: %v", err)
		}
		if n == 0 {
			tb.Fatalf("lz4 compress: %d bytes are incompressible", len(data))
		}
		return dst[:n]
	default:
		return append([]byte(nil), data...)
	}
}

// XorKraken is a stand-in Kraken decoder matching Compress(MethodKraken).
func XorKraken(src []byte, _ int) ([]byte, error) {
	return xor(src), nil
}

func xor(data []byte) []byte {
	out := make([]byte, len(data))
	for i, b := range data {
		out[i] = b ^ 0x5A
	}
	return out
}

// Package testutil builds synthetic module archives and tag payloads for tests.
//
// The builders write the on-disk layout directly with their own constants so
// that parser tests do not depend on the code under test.
package testutil

import (
	"encoding/binary"
)

// Tag header field offsets, for tests that corrupt a built payload.
const (
	TagMagicOffset           = 0
	TagVersionOffset         = 4
	TagRootOffset            = 8
	TagChecksumOffset        = 24
	TagStructSizeOffset      = 32
	TagFieldSizeOffset       = 36
	TagDataSizeOffset        = 40
	TagResourceSizeOffset    = 44
	TagDependencySizeOffset  = 48
	TagHeaderSize            = 52
	tagStructRecordSize      = 32
	tagFieldRecordSize       = 16
	tagDataBlockRecordSize   = 12
	tagResourceRecordSize    = 8
	tagDependencyRecordSize  = 24
	defaultTagMagic          = "ucsh"
	defaultTagVersion uint32 = 27
)

// Field kinds as stored in field blocks.
const (
	KindInt8 uint16 = iota
	KindUint8
	KindInt16
	KindUint16
	KindInt32
	KindUint32
	KindInt64
	KindUint64
	KindFloat32
	KindFloat64
	KindEnum
	KindFlags
	KindStruct
	KindArray
	KindString
	KindData
	KindResource
	KindTagRef
)

// NoTarget marks a field without a child struct.
const NoTarget = ^uint32(0)

// TagField is one field block record.
type TagField struct {
	Kind   uint16
	Offset uint32
	Size   uint32
	Target uint32
}

// TagStruct is one struct definition. Its fields are appended to the field
// table in order.
type TagStruct struct {
	GUID   [16]byte
	Size   uint32
	Fields []TagField
}

// TagDataBlock is one entry of the data section's block table.
type TagDataBlock struct {
	Offset  uint32
	Size    uint32
	Section uint16
}

// TagResource is one resource reference record.
type TagResource struct {
	Slot  int32
	Flags uint32
}

// TagDependency is one dependency record.
type TagDependency struct {
	Group      string
	NameOffset uint32
	AssetID    uint64
	GlobalID   int32
	Parent     int32
}

// Tag describes a tag payload.
//
// The data section is laid out as the block table, then Instance (data
// block 0, the root instance), then Heap. Use HeapOffset to compute offsets
// of heap content relative to the data section start.
type Tag struct {
	Magic        string
	Version      uint32
	Root         [16]byte
	Checksum     uint64
	Structs      []TagStruct
	Instance     []byte
	Heap         []byte
	ExtraBlocks  []TagDataBlock
	Resources    []TagResource
	Dependencies []TagDependency
}

// HeapOffset returns the offset of Heap[0] relative to the data section start.
func (t *Tag) HeapOffset() uint32 {
	return DataTableSize(1+len(t.ExtraBlocks)) + uint32(len(t.Instance)) //nolint:gosec // test sizes are small
}

// InstanceOffset returns the offset of Instance[0] relative to the data section start.
func (t *Tag) InstanceOffset() uint32 {
	return DataTableSize(1 + len(t.ExtraBlocks))
}

// DataTableSize returns the size of a data block table with n blocks.
func DataTableSize(n int) uint32 {
	return uint32(4 + n*tagDataBlockRecordSize) //nolint:gosec // test sizes are small
}

// DataStart returns the payload offset where the data section begins.
func (t *Tag) DataStart() int {
	fields := 0
	for _, s := range t.Structs {
		fields += len(s.Fields)
	}
	return TagHeaderSize + len(t.Structs)*tagStructRecordSize + fields*tagFieldRecordSize
}

// Bytes encodes the tag payload.
func (t *Tag) Bytes() []byte {
	magic := t.Magic
	if magic == "" {
		magic = defaultTagMagic
	}
	version := t.Version
	if version == 0 {
		version = defaultTagVersion
	}

	var structs, fields []byte
	first := uint32(0)
	for _, s := range t.Structs {
		structs = append(structs, s.GUID[:]...)
		structs = le32(structs, first)
		structs = le32(structs, uint32(len(s.Fields))) //nolint:gosec // test sizes are small
		structs = le32(structs, s.Size)
		structs = le32(structs, 0)
		for _, f := range s.Fields {
			fields = le16(fields, f.Kind)
			fields = le16(fields, 0)
			fields = le32(fields, f.Offset)
			fields = le32(fields, f.Size)
			fields = le32(fields, f.Target)
		}
		first += uint32(len(s.Fields)) //nolint:gosec // test sizes are small
	}

	blocks := append([]TagDataBlock{{
		Offset:  t.InstanceOffset(),
		Size:    uint32(len(t.Instance)), //nolint:gosec // test sizes are small
		Section: 1,
	}}, t.ExtraBlocks...)
	data := le32(nil, uint32(len(blocks))) //nolint:gosec // test sizes are small
	for _, b := range blocks {
		data = le32(data, b.Offset)
		data = le32(data, b.Size)
		data = le16(data, b.Section)
		data = le16(data, 0)
	}
	data = append(data, t.Instance...)
	data = append(data, t.Heap...)

	var resources []byte
	for _, r := range t.Resources {
		resources = le32(resources, uint32(r.Slot)) //nolint:gosec // two's complement
		resources = le32(resources, r.Flags)
	}
	var deps []byte
	for _, d := range t.Dependencies {
		deps = append(deps, Group(d.Group)...)
		deps = le32(deps, d.NameOffset)
		deps = binary.LittleEndian.AppendUint64(deps, d.AssetID)
		deps = le32(deps, uint32(d.GlobalID)) //nolint:gosec // two's complement
		deps = le32(deps, uint32(d.Parent))   //nolint:gosec // two's complement
	}

	var out []byte
	out = append(out, []byte(magic)[:4]...)
	out = le32(out, version)
	out = append(out, t.Root[:]...)
	out = binary.LittleEndian.AppendUint64(out, t.Checksum)
	out = le32(out, uint32(len(structs)))   //nolint:gosec // test sizes are small
	out = le32(out, uint32(len(fields)))    //nolint:gosec // test sizes are small
	out = le32(out, uint32(len(data)))      //nolint:gosec // test sizes are small
	out = le32(out, uint32(len(resources))) //nolint:gosec // test sizes are small
	out = le32(out, uint32(len(deps)))      //nolint:gosec // test sizes are small
	out = append(out, structs...)
	out = append(out, fields...)
	out = append(out, data...)
	out = pad(out, 4)
	out = append(out, resources...)
	out = pad(out, 8)
	out = append(out, deps...)
	return out
}

// Group encodes a 4-character group code reversed, as the engine stores it.
// An empty group encodes as all 0xFF.
func Group(g string) []byte {
	if g == "" {
		return []byte{0xFF, 0xFF, 0xFF, 0xFF}
	}
	var b [4]byte
	copy(b[:], g)
	return []byte{b[3], b[2], b[1], b[0]}
}

// Ref encodes an (offset, length) pair for array, string and data fields.
func Ref(offset, length uint32) []byte {
	return le32(le32(nil, offset), length)
}

func le16(b []byte, v uint16) []byte { return binary.LittleEndian.AppendUint16(b, v) }
func le32(b []byte, v uint32) []byte { return binary.LittleEndian.AppendUint32(b, v) }

// LE32 appends v little-endian; exported for tests assembling instances.
func LE32(b []byte, v uint32) []byte { return le32(b, v) }

// LE16 appends v little-endian; exported for tests assembling instances.
func LE16(b []byte, v uint16) []byte { return le16(b, v) }

func pad(b []byte, align int) []byte {
	for len(b)%align != 0 {
		b = append(b, 0)
	}
	return b
}

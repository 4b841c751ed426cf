// Package tag parses the structured payload of a single module entry.
//
// A tag payload is a fixed header followed by a struct definition table, a
// field block table, a data section, and reference tables. Parse validates
// every structural offset up front, so a *File it returns can be walked
// without further bounds surprises: any inconsistency is reported as
// ErrMalformedTag rather than producing a partially valid structure.
package tag

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/meigma/infinite/bytereader"
	"github.com/meigma/infinite/internal/modtype"
	"github.com/meigma/infinite/internal/sizing"
)

// Sentinel errors re-exported from internal/modtype.
var (
	ErrInvalidMagic       = modtype.ErrInvalidMagic
	ErrUnsupportedVersion = modtype.ErrUnsupportedVersion
	ErrMalformedTag       = modtype.ErrMalformedTag
)

// File is the decoded form of one tag payload.
type File struct {
	Header       Header
	Structs      []StructDefinition
	Fields       []FieldBlock
	DataBlocks   []DataBlock
	Resources    []ResourceReference
	Dependencies []Dependency

	// Data is the whole data section, including its block table. Field
	// offsets into variable-length content are relative to its start.
	// It aliases the payload passed to Parse.
	Data []byte

	root int
}

// Root returns the index of the root struct definition.
// ok is false for a tag without structs.
func (f *File) Root() (int, bool) {
	return f.root, f.root >= 0
}

// FieldsOf returns the field blocks owned by struct i in declaration order.
func (f *File) FieldsOf(i int) []FieldBlock {
	s := f.Structs[i]
	return f.Fields[s.FirstField : s.FirstField+s.FieldCount]
}

// StructByGUID returns the index of the struct definition with the given GUID.
func (f *File) StructByGUID(id uuid.UUID) (int, bool) {
	for i := range f.Structs {
		if f.Structs[i].GUID == id {
			return i, true
		}
	}
	return -1, false
}

// Block returns the bytes of data block i.
func (f *File) Block(i int) []byte {
	b := f.DataBlocks[i]
	return f.Data[b.Offset : b.Offset+b.Size]
}

// section is a byte range of the payload.
type section struct {
	name  string
	start uint64
	size  uint64
}

// Parse decodes a tag payload.
//
// The magic is checked before anything else is read or allocated, then the
// version. Every later inconsistency is reported as ErrMalformedTag.
func Parse(data []byte, opts ...Option) (*File, error) {
	cfg := newConfig(opts)
	r := bytereader.New(data)

	h, err := readHeader(r, cfg)
	if err != nil {
		return nil, err
	}

	sections, err := layout(&h, uint64(len(data)))
	if err != nil {
		return nil, err
	}

	f := &File{Header: h, root: -1}
	if f.Structs, err = readTable[StructDefinition](data, sections[0], StructDefinitionSize); err != nil {
		return nil, err
	}
	if f.Fields, err = readTable[FieldBlock](data, sections[1], FieldBlockSize); err != nil {
		return nil, err
	}
	ds := sections[2]
	f.Data = data[ds.start : ds.start+ds.size]
	if f.DataBlocks, err = readDataBlocks(f.Data); err != nil {
		return nil, err
	}
	if f.Resources, err = readTable[ResourceReference](data, sections[3], ResourceReferenceSize); err != nil {
		return nil, err
	}
	if f.Dependencies, err = readTable[Dependency](data, sections[4], DependencySize); err != nil {
		return nil, err
	}

	if err := f.validate(); err != nil {
		return nil, err
	}
	return f, nil
}

// layout computes section positions and checks they fit the payload.
func layout(h *Header, total uint64) ([5]section, error) {
	var s [5]section
	pos := uint64(HeaderSize)
	place := func(i int, name string, size uint32, align uint64) error {
		start, ok := sizing.Align(pos, align)
		if !ok || !sizing.InRange(start, uint64(size), total) {
			return fmt.Errorf("%w: %s section (%d bytes at %d) exceeds payload of %d bytes",
				ErrMalformedTag, name, size, start, total)
		}
		s[i] = section{name: name, start: start, size: uint64(size)}
		pos = start + uint64(size)
		return nil
	}
	if err := place(0, "struct", h.StructTableSize, 1); err != nil {
		return s, err
	}
	if err := place(1, "field", h.FieldTableSize, 1); err != nil {
		return s, err
	}
	if err := place(2, "data", h.DataSize, 1); err != nil {
		return s, err
	}
	if err := place(3, "resource", h.ResourceTableSize, 4); err != nil {
		return s, err
	}
	if err := place(4, "dependency", h.DependencyTableSize, 8); err != nil {
		return s, err
	}
	return s, nil
}

// readTable decodes a section holding whole fixed-size records.
func readTable[T any, PT interface {
	*T
	bytereader.Decodable
}](data []byte, s section, recordSize uint64) ([]T, error) {
	if s.size%recordSize != 0 {
		return nil, fmt.Errorf("%w: %s table size %d is not a multiple of %d",
			ErrMalformedTag, s.name, s.size, recordSize)
	}
	r := bytereader.New(data[s.start : s.start+s.size])
	out, err := bytereader.ReadEnumerable[T, PT](r, int(s.size/recordSize)) //nolint:gosec // bounded by payload length
	if err != nil {
		return nil, fmt.Errorf("%w: %s table: %v", ErrMalformedTag, s.name, err)
	}
	return out, nil
}

// readDataBlocks decodes the sub-offset table at the start of the data section.
func readDataBlocks(data []byte) ([]DataBlock, error) {
	if len(data) == 0 {
		return nil, nil
	}
	r := bytereader.New(data)
	count, err := r.Uint32()
	if err != nil {
		return nil, fmt.Errorf("%w: data block count: %v", ErrMalformedTag, err)
	}
	if !sizing.InRange(4, uint64(count)*DataBlockEntrySize, uint64(len(data))) {
		return nil, fmt.Errorf("%w: %d data blocks exceed data section of %d bytes",
			ErrMalformedTag, count, len(data))
	}
	blocks, err := bytereader.ReadEnumerable[DataBlock](r, int(count))
	if err != nil {
		return nil, fmt.Errorf("%w: data blocks: %v", ErrMalformedTag, err)
	}
	for i, b := range blocks {
		if !sizing.InRange(uint64(b.Offset), uint64(b.Size), uint64(len(data))) {
			return nil, fmt.Errorf("%w: data block %d (%d bytes at %d) exceeds data section of %d bytes",
				ErrMalformedTag, i, b.Size, b.Offset, len(data))
		}
	}
	return blocks, nil
}

// validate checks cross-table references: field ranges, field extents,
// kinds and targets, and the root struct.
func (f *File) validate() error {
	nFields := uint64(len(f.Fields))
	for i, s := range f.Structs {
		if !sizing.InRange(uint64(s.FirstField), uint64(s.FieldCount), nFields) {
			return fmt.Errorf("%w: struct %d fields [%d,+%d) exceed field table of %d",
				ErrMalformedTag, i, s.FirstField, s.FieldCount, nFields)
		}
		for j, fb := range f.FieldsOf(i) {
			if err := f.validateField(s, fb); err != nil {
				return fmt.Errorf("%w: struct %d field %d: %v", ErrMalformedTag, i, j, err)
			}
		}
	}

	if len(f.Structs) == 0 {
		if f.Header.RootStruct != uuid.Nil {
			return fmt.Errorf("%w: root struct %s not defined", ErrMalformedTag, f.Header.RootStruct)
		}
		return nil
	}

	root, ok := f.StructByGUID(f.Header.RootStruct)
	if !ok {
		return fmt.Errorf("%w: root struct %s not defined", ErrMalformedTag, f.Header.RootStruct)
	}
	if len(f.DataBlocks) == 0 {
		return fmt.Errorf("%w: no data block for root instance", ErrMalformedTag)
	}
	if f.DataBlocks[0].Size < f.Structs[root].Size {
		return fmt.Errorf("%w: root instance needs %d bytes, data block 0 has %d",
			ErrMalformedTag, f.Structs[root].Size, f.DataBlocks[0].Size)
	}
	f.root = root
	return nil
}

func (f *File) validateField(owner StructDefinition, fb FieldBlock) error {
	if !fb.Kind.Valid() {
		return fmt.Errorf("unknown kind %d", uint16(fb.Kind))
	}
	if !sizing.InRange(uint64(fb.Offset), uint64(fb.Size), uint64(owner.Size)) {
		return fmt.Errorf("%s field (%d bytes at %d) exceeds struct size %d",
			fb.Kind, fb.Size, fb.Offset, owner.Size)
	}
	if !fb.Kind.validSize(fb.Size) {
		return fmt.Errorf("%s field has invalid size %d", fb.Kind, fb.Size)
	}
	switch fb.Kind {
	case KindStruct, KindArray:
		if uint64(fb.Target) >= uint64(len(f.Structs)) {
			return fmt.Errorf("%s field targets struct %d of %d", fb.Kind, fb.Target, len(f.Structs))
		}
		if fb.Kind == KindStruct && f.Structs[fb.Target].Size != fb.Size {
			return fmt.Errorf("struct field size %d does not match child size %d",
				fb.Size, f.Structs[fb.Target].Size)
		}
	}
	return nil
}

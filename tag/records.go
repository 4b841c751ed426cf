package tag

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/meigma/infinite/bytereader"
)

// Encoded record sizes.
const (
	StructDefinitionSize  = 32
	FieldBlockSize        = 16
	DataBlockEntrySize    = 12
	ResourceReferenceSize = 8
	DependencySize        = 24
)

// NoTarget marks a field block without a child struct.
const NoTarget = ^uint32(0)

// StructDefinition describes the layout of one struct.
type StructDefinition struct {
	// GUID identifies the struct type.
	GUID uuid.UUID

	// FirstField is the index of the struct's first field block.
	FirstField uint32

	// FieldCount is the number of consecutive field blocks owned by the struct.
	FieldCount uint32

	// Size is the byte size of one instance.
	Size uint32
}

// Decode implements bytereader.Decodable.
func (s *StructDefinition) Decode(r *bytereader.Reader) error {
	guid, err := r.FixedBytes(16)
	if err != nil {
		return err
	}
	copy(s.GUID[:], guid)
	if s.FirstField, err = r.Uint32(); err != nil {
		return err
	}
	if s.FieldCount, err = r.Uint32(); err != nil {
		return err
	}
	if s.Size, err = r.Uint32(); err != nil {
		return err
	}
	return r.Skip(4)
}

// FieldBlock describes one field slot of a struct.
type FieldBlock struct {
	// Kind is the field's type discriminant.
	Kind FieldKind

	// Offset is the byte offset relative to the owning struct's base.
	Offset uint32

	// Size is the inline byte size.
	Size uint32

	// Target is the child struct index for struct and array kinds, NoTarget otherwise.
	Target uint32
}

// Decode implements bytereader.Decodable.
func (f *FieldBlock) Decode(r *bytereader.Reader) error {
	kind, err := r.Uint16()
	if err != nil {
		return err
	}
	f.Kind = FieldKind(kind)
	if err = r.Skip(2); err != nil {
		return err
	}
	if f.Offset, err = r.Uint32(); err != nil {
		return err
	}
	if f.Size, err = r.Uint32(); err != nil {
		return err
	}
	f.Target, err = r.Uint32()
	return err
}

// SectionType names the region a data block belongs to.
type SectionType uint16

const (
	SectionHeader SectionType = iota
	SectionTagData
	SectionResourceData
	SectionActualResource
)

// String returns the name of the section.
func (s SectionType) String() string {
	switch s {
	case SectionHeader:
		return "header"
	case SectionTagData:
		return "tag_data"
	case SectionResourceData:
		return "resource_data"
	case SectionActualResource:
		return "actual_resource"
	default:
		return fmt.Sprintf("unknown(%d)", uint16(s))
	}
}

// DataBlock is a named sub-region of the data section.
type DataBlock struct {
	// Offset is relative to the start of the data section.
	Offset uint32

	// Size is the byte length of the block.
	Size uint32

	// Section names the region the block belongs to.
	Section SectionType
}

// Decode implements bytereader.Decodable.
func (d *DataBlock) Decode(r *bytereader.Reader) error {
	var err error
	if d.Offset, err = r.Uint32(); err != nil {
		return err
	}
	if d.Size, err = r.Uint32(); err != nil {
		return err
	}
	section, err := r.Uint16()
	if err != nil {
		return err
	}
	d.Section = SectionType(section)
	return r.Skip(2)
}

// ResourceReference points at one of the owning entry's resource slots.
type ResourceReference struct {
	// Slot indexes the owning entry's resource range in the module.
	Slot int32

	// Flags are carried verbatim.
	Flags uint32
}

// Decode implements bytereader.Decodable.
func (rr *ResourceReference) Decode(r *bytereader.Reader) error {
	var err error
	if rr.Slot, err = r.Int32(); err != nil {
		return err
	}
	rr.Flags, err = r.Uint32()
	return err
}

// Dependency names another tag this tag refers to.
type Dependency struct {
	// Group is the referenced tag's 4-character group.
	Group string

	// NameOffset locates the name in pre-Season 3 string tables.
	NameOffset uint32

	// AssetID is the referenced asset's 64-bit identifier.
	AssetID uint64

	// GlobalID is the referenced entry's global ID.
	GlobalID int64

	// Parent is the dependency's parent index, -1 when none.
	Parent int32
}

// Decode implements bytereader.Decodable.
func (d *Dependency) Decode(r *bytereader.Reader) error {
	group, err := ReadGroup(r)
	if err != nil {
		return err
	}
	d.Group = group
	if d.NameOffset, err = r.Uint32(); err != nil {
		return err
	}
	if d.AssetID, err = r.Uint64(); err != nil {
		return err
	}
	id, err := r.Int32()
	if err != nil {
		return err
	}
	d.GlobalID = int64(id)
	d.Parent, err = r.Int32()
	return err
}

// ReadGroup reads a 4-character group code, which the engine stores
// reversed. An all-0xFF group means "unset" and reads as "".
func ReadGroup(r *bytereader.Reader) (string, error) {
	raw, err := r.FixedBytes(4)
	if err != nil {
		return "", err
	}
	if raw[0] == 0xFF && raw[1] == 0xFF && raw[2] == 0xFF && raw[3] == 0xFF {
		return "", nil
	}
	rev := []byte{raw[3], raw[2], raw[1], raw[0]}
	s, err := bytereader.New(rev).FixedString(4)
	if err != nil {
		return "", err
	}
	return s, nil
}

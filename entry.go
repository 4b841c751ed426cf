package infinite

import (
	"github.com/meigma/infinite/bytereader"
	"github.com/meigma/infinite/tag"
	"github.com/meigma/infinite/tagstruct"
)

// EntryFlags describe how an entry's data is stored.
type EntryFlags uint8

const (
	// EntryCompressed marks entries whose data is compressed.
	EntryCompressed EntryFlags = 1 << iota

	// EntryHasBlocks marks entries split into blocks.
	EntryHasBlocks

	// EntryRawFile marks entries without a tag header.
	EntryRawFile
)

// LocationFlags select which file an entry's data lives in.
type LocationFlags uint16

const (
	// LocationHD1 places the entry in the _hd1 companion file.
	LocationHD1 LocationFlags = 1 << iota

	// LocationHD2 is carried but not read; no companion exists for it.
	LocationHD2
)

const (
	dataOffsetBits = 48
	dataOffsetMask = 1<<dataOffsetBits - 1
)

// Entry is one asset slot of a module.
//
// Metadata is immutable after Open. ReadTag fills in the loaded data and
// parsed tag; until then Data, Tag and Decode return ErrNotLoaded.
type Entry struct {
	Flags         EntryFlags
	BlockCount    uint16
	BlockIndex    int32
	ResourceIndex int32

	// Group is the 4-character tag group, empty when unset.
	Group string

	// DataOffset is relative to the payload base of the file named by Location.
	DataOffset uint64
	Location   LocationFlags

	TotalCompressed   uint32
	TotalUncompressed uint32

	// GlobalID identifies the tag across modules. -1 marks a raw resource
	// without tag structure.
	GlobalID int64

	HeaderSize         uint32
	TagDataSize        uint32
	ResourceDataSize   uint32
	ActualResourceSize uint32
	NameOffset         uint32

	// Parent is the owning entry's index, -1 when none.
	Parent int32

	AssetHash     [16]byte
	ResourceCount int32

	// Name is the entry name from the module string table. Modules without
	// a string table leave it empty; see Module.Path.
	Name string

	resources []uint32
	data      []byte
	tag       *tag.File
	loaded    bool
}

// entryRecord decodes the on-disk record without exposing Decode on Entry.
type entryRecord Entry

// Decode implements bytereader.Decodable.
func (e *entryRecord) Decode(r *bytereader.Reader) error {
	if err := r.Skip(1); err != nil {
		return err
	}
	flags, err := r.Uint8()
	if err != nil {
		return err
	}
	e.Flags = EntryFlags(flags)
	if e.BlockCount, err = r.Uint16(); err != nil {
		return err
	}
	if e.BlockIndex, err = r.Int32(); err != nil {
		return err
	}
	if e.ResourceIndex, err = r.Int32(); err != nil {
		return err
	}
	if e.Group, err = tag.ReadGroup(r); err != nil {
		return err
	}
	offset, err := r.Uint64()
	if err != nil {
		return err
	}
	e.DataOffset = offset & dataOffsetMask
	e.Location = LocationFlags(offset >> dataOffsetBits)
	if e.TotalCompressed, err = r.Uint32(); err != nil {
		return err
	}
	if e.TotalUncompressed, err = r.Uint32(); err != nil {
		return err
	}
	id, err := r.Int32()
	if err != nil {
		return err
	}
	e.GlobalID = int64(id)
	for _, dst := range []*uint32{&e.HeaderSize, &e.TagDataSize, &e.ResourceDataSize, &e.ActualResourceSize} {
		if *dst, err = r.Uint32(); err != nil {
			return err
		}
	}
	if err = r.Skip(4); err != nil {
		return err
	}
	if e.NameOffset, err = r.Uint32(); err != nil {
		return err
	}
	if e.Parent, err = r.Int32(); err != nil {
		return err
	}
	hash, err := r.FixedBytes(16)
	if err != nil {
		return err
	}
	copy(e.AssetHash[:], hash)
	if e.ResourceCount, err = r.Int32(); err != nil {
		return err
	}
	return r.Skip(4)
}

// IsRaw reports whether the entry is a raw resource without tag structure.
func (e *Entry) IsRaw() bool { return e.GlobalID == -1 }

// Loaded reports whether ReadTag has stored data on the entry.
func (e *Entry) Loaded() bool { return e.loaded }

// Resources returns the entry indices of the entry's resources.
// The slice aliases the module's resource table and must not be modified.
func (e *Entry) Resources() []uint32 { return e.resources }

// Data returns the decompressed entry bytes.
func (e *Entry) Data() ([]byte, error) {
	if !e.loaded {
		return nil, ErrNotLoaded
	}
	return e.data, nil
}

// Tag returns the parsed tag.
func (e *Entry) Tag() (*tag.File, error) {
	if !e.loaded {
		return nil, ErrNotLoaded
	}
	if e.tag == nil {
		return nil, ErrNoTagInfo
	}
	return e.tag, nil
}

// Decode populates rec from the entry's root struct.
func (e *Entry) Decode(rec tagstruct.Record) error {
	f, err := e.Tag()
	if err != nil {
		return err
	}
	return tagstruct.Decode(f, rec)
}

package infinite

import (
	"fmt"

	"github.com/meigma/infinite/bytereader"
)

// Module format constants.
const (
	// Magic is the container signature, "mohd" read as a little-endian uint32.
	Magic uint32 = 0x64686F6D

	// HeaderSize is the fixed part of the header. Release and later append
	// 8 reserved bytes.
	HeaderSize = 72

	// EntrySize is the encoded size of one entry record.
	EntrySize = 88

	// BlockSize is the encoded size of one block record.
	BlockSize = 20

	payloadAlign = 0x1000
)

// Version is the module format revision.
type Version int32

// Supported module versions.
const (
	VersionFlight1        Version = 48
	VersionRelease        Version = 51
	VersionCampaignFlight Version = 52
	VersionSeason3        Version = 53
)

// String returns the version name.
func (v Version) String() string {
	switch v {
	case VersionFlight1:
		return "flight1"
	case VersionRelease:
		return "release"
	case VersionCampaignFlight:
		return "campaign-flight"
	case VersionSeason3:
		return "season3"
	default:
		return fmt.Sprintf("unknown(%d)", int32(v))
	}
}

// Supported reports whether v can be read.
func (v Version) Supported() bool {
	switch v {
	case VersionFlight1, VersionRelease, VersionCampaignFlight, VersionSeason3:
		return true
	default:
		return false
	}
}

// HasStringTable reports whether entry names are stored in the module.
func (v Version) HasStringTable() bool { return v <= VersionCampaignFlight }

// Header is the module file header.
type Header struct {
	Magic         uint32
	Version       Version
	ModuleID      int64
	EntryCount    uint32
	Manifest      [3]uint32
	ResourceIndex int32
	StringsSize   uint32
	ResourceCount uint32
	BlockCount    uint32
	BuildVersion  uint64

	// HD1Delta is the base offset of entry data in the companion file.
	HD1Delta uint64

	// DataSize is the size of the payload region in the primary file.
	DataSize uint64
}

// Decode implements bytereader.Decodable. It checks the magic before the
// version and reads the reserved tail only for versions that have one.
func (h *Header) Decode(r *bytereader.Reader) error {
	var err error
	if h.Magic, err = r.Uint32(); err != nil {
		return err
	}
	if h.Magic != Magic {
		return fmt.Errorf("%w: module magic %#08x", ErrInvalidMagic, h.Magic)
	}
	v, err := r.Int32()
	if err != nil {
		return err
	}
	h.Version = Version(v)
	if !h.Version.Supported() {
		return fmt.Errorf("%w: module version %d", ErrUnsupportedVersion, v)
	}
	if h.ModuleID, err = r.Int64(); err != nil {
		return err
	}
	if h.EntryCount, err = r.Uint32(); err != nil {
		return err
	}
	for i := range h.Manifest {
		if h.Manifest[i], err = r.Uint32(); err != nil {
			return err
		}
	}
	if h.ResourceIndex, err = r.Int32(); err != nil {
		return err
	}
	if h.StringsSize, err = r.Uint32(); err != nil {
		return err
	}
	if h.ResourceCount, err = r.Uint32(); err != nil {
		return err
	}
	if h.BlockCount, err = r.Uint32(); err != nil {
		return err
	}
	if h.BuildVersion, err = r.Uint64(); err != nil {
		return err
	}
	if h.HD1Delta, err = r.Uint64(); err != nil {
		return err
	}
	if h.DataSize, err = r.Uint64(); err != nil {
		return err
	}
	if h.Version >= VersionRelease {
		return r.Skip(8)
	}
	return nil
}

// Block is one compressed region of an entry.
type Block struct {
	// CompressedOffset is relative to the start of the owning entry's data.
	CompressedOffset uint32
	CompressedSize   uint32

	// DecompressedOffset is the block's position in the entry's output.
	DecompressedOffset uint32
	DecompressedSize   uint32

	Method Method
}

// Decode implements bytereader.Decodable.
func (b *Block) Decode(r *bytereader.Reader) error {
	var err error
	if b.CompressedOffset, err = r.Uint32(); err != nil {
		return err
	}
	if b.CompressedSize, err = r.Uint32(); err != nil {
		return err
	}
	if b.DecompressedOffset, err = r.Uint32(); err != nil {
		return err
	}
	if b.DecompressedSize, err = r.Uint32(); err != nil {
		return err
	}
	m, err := r.Uint32()
	b.Method = Method(m)
	return err
}

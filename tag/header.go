package tag

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/meigma/infinite/bytereader"
)

// Tag format constants.
const (
	// HeaderSize is the encoded size of Header.
	HeaderSize = 52

	// DefaultMagic is the signature at the start of every tag payload.
	DefaultMagic = "ucsh"

	// DefaultVersion is the only tag version shipped by the engine.
	DefaultVersion = 27
)

// Header is the fixed-size prefix of a tag payload.
type Header struct {
	// Magic is the 4-byte signature.
	Magic [4]byte

	// Version is the tag format revision.
	Version uint32

	// RootStruct identifies the struct definition describing the root instance.
	RootStruct uuid.UUID

	// Checksum is the engine's 64-bit content checksum. It is carried but not verified.
	Checksum uint64

	// StructTableSize is the byte size of the struct definition table.
	StructTableSize uint32

	// FieldTableSize is the byte size of the field block table.
	FieldTableSize uint32

	// DataSize is the byte size of the data section, including its block table.
	DataSize uint32

	// ResourceTableSize is the byte size of the resource reference table.
	ResourceTableSize uint32

	// DependencyTableSize is the byte size of the dependency table.
	DependencyTableSize uint32
}

// readHeader decodes the header, checking the magic before reading anything
// else and the version before the section sizes.
func readHeader(r *bytereader.Reader, cfg *config) (Header, error) {
	var h Header

	magic, err := r.FixedBytes(4)
	if err != nil {
		return h, fmt.Errorf("%w: header: %v", ErrMalformedTag, err)
	}
	copy(h.Magic[:], magic)
	if h.Magic != cfg.magic {
		return h, fmt.Errorf("%w: expected %q, found %q", ErrInvalidMagic, cfg.magic[:], h.Magic[:])
	}

	if h.Version, err = r.Uint32(); err != nil {
		return h, fmt.Errorf("%w: header: %v", ErrMalformedTag, err)
	}
	if !cfg.supports(h.Version) {
		return h, fmt.Errorf("%w: tag version %d", ErrUnsupportedVersion, h.Version)
	}

	rest, err := r.FixedBytes(HeaderSize - 8)
	if err != nil {
		return h, fmt.Errorf("%w: header: %v", ErrMalformedTag, err)
	}
	hr := bytereader.New(rest)
	guid, _ := hr.FixedBytes(16) //nolint:errcheck // length checked above
	copy(h.RootStruct[:], guid)
	h.Checksum, _ = hr.Uint64()
	h.StructTableSize, _ = hr.Uint32()
	h.FieldTableSize, _ = hr.Uint32()
	h.DataSize, _ = hr.Uint32()
	h.ResourceTableSize, _ = hr.Uint32()
	h.DependencyTableSize, _ = hr.Uint32()
	return h, nil
}

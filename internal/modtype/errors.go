// Package modtype holds the error taxonomy shared by the module, tag and
// decoding packages. Public packages re-export these values so callers can
// match them with errors.Is regardless of which layer produced them.
package modtype

import (
	"errors"
	"fmt"
)

// Sentinel errors for module and tag operations.
var (
	// ErrOutOfBounds is returned when a read would pass the end of a buffer.
	ErrOutOfBounds = errors.New("infinite: out of bounds")

	// ErrInvalidMagic is returned when a container or tag signature does not match.
	ErrInvalidMagic = errors.New("infinite: invalid magic")

	// ErrUnsupportedVersion is returned when a format version is not supported.
	ErrUnsupportedVersion = errors.New("infinite: unsupported version")

	// ErrInvalidEncoding is returned when a fixed string is not valid UTF-8.
	ErrInvalidEncoding = errors.New("infinite: invalid encoding")

	// ErrIndexOutOfRange is returned when an entry index does not exist.
	ErrIndexOutOfRange = errors.New("infinite: index out of range")

	// ErrTagNotFound is returned when no entry carries the requested global ID.
	ErrTagNotFound = errors.New("infinite: tag not found")

	// ErrDecompression is returned when a block fails to decompress or
	// decompresses to a size other than the declared one.
	ErrDecompression = errors.New("infinite: decompression failed")

	// ErrMalformedTag is returned when a tag's structural offsets or sizes are inconsistent.
	ErrMalformedTag = errors.New("infinite: malformed tag")

	// ErrTypeMismatch is returned when a record's declared fields disagree with the tag layout.
	ErrTypeMismatch = errors.New("infinite: type mismatch")

	// ErrSizeOverflow is returned when byte counts exceed supported limits.
	ErrSizeOverflow = errors.New("infinite: size overflow")

	// ErrNotLoaded is returned when entry data is requested before ReadTag.
	ErrNotLoaded = errors.New("infinite: entry not loaded")

	// ErrNoTagInfo is returned when a raw resource entry is decoded as a tag.
	ErrNoTagInfo = errors.New("infinite: entry has no tag structure")

	// ErrDuplicateID is returned when two entries share a global ID.
	ErrDuplicateID = errors.New("infinite: duplicate global id")
)

// ErrCompanionMissing is returned when an entry lives in the companion file
// and none was loaded. It matches ErrOutOfBounds.
var ErrCompanionMissing = fmt.Errorf("%w: companion file not loaded", ErrOutOfBounds)

package infinite

import "github.com/meigma/infinite/internal/modtype"

// Sentinel errors re-exported from internal/modtype.
var (
	// ErrOutOfBounds is returned when a table or region overruns its buffer.
	ErrOutOfBounds = modtype.ErrOutOfBounds

	// ErrInvalidMagic is returned when the container or tag signature does not match.
	ErrInvalidMagic = modtype.ErrInvalidMagic

	// ErrUnsupportedVersion is returned for container or tag versions that are not supported.
	ErrUnsupportedVersion = modtype.ErrUnsupportedVersion

	// ErrInvalidEncoding is returned when a string is not valid UTF-8.
	ErrInvalidEncoding = modtype.ErrInvalidEncoding

	// ErrIndexOutOfRange is returned when an entry index does not exist.
	ErrIndexOutOfRange = modtype.ErrIndexOutOfRange

	// ErrTagNotFound is returned when no entry carries a global ID.
	ErrTagNotFound = modtype.ErrTagNotFound

	// ErrDecompression is returned when a block fails to decompress to its declared size.
	ErrDecompression = modtype.ErrDecompression

	// ErrMalformedTag is returned when a tag's structure is inconsistent.
	ErrMalformedTag = modtype.ErrMalformedTag

	// ErrTypeMismatch is returned when a record disagrees with a tag's field layout.
	ErrTypeMismatch = modtype.ErrTypeMismatch

	// ErrSizeOverflow is returned when an entry exceeds the configured size limit.
	ErrSizeOverflow = modtype.ErrSizeOverflow

	// ErrNotLoaded is returned when entry content is requested before ReadTag.
	ErrNotLoaded = modtype.ErrNotLoaded

	// ErrNoTagInfo is returned when a raw resource entry is decoded as a tag.
	ErrNoTagInfo = modtype.ErrNoTagInfo

	// ErrDuplicateID is returned by Open when two entries share a global ID.
	ErrDuplicateID = modtype.ErrDuplicateID

	// ErrCompanionMissing is returned when reading an entry stored in a
	// companion file that was not loaded. It matches ErrOutOfBounds.
	ErrCompanionMissing = modtype.ErrCompanionMissing
)

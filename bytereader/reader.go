// Package bytereader provides a bounds-checked little-endian cursor over an
// in-memory byte buffer.
//
// A Reader never mutates its buffer and is scoped to a single decode pass.
// Every read either returns the requested value and advances the cursor, or
// fails with ErrOutOfBounds and leaves the cursor where it was.
package bytereader

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math"
	"unicode/utf8"

	"github.com/meigma/infinite/internal/modtype"
)

// Sentinel errors re-exported from internal/modtype.
var (
	// ErrOutOfBounds is returned when fewer bytes remain than a read requires.
	ErrOutOfBounds = modtype.ErrOutOfBounds

	// ErrInvalidEncoding is returned when a fixed string is not valid UTF-8.
	ErrInvalidEncoding = modtype.ErrInvalidEncoding
)

// Reader is a sequential cursor over an immutable byte slice.
type Reader struct {
	buf []byte
	pos int
}

// New returns a Reader positioned at the start of buf.
func New(buf []byte) *Reader {
	return &Reader{buf: buf}
}

// Len returns the length of the underlying buffer.
func (r *Reader) Len() int { return len(r.buf) }

// Tell returns the absolute cursor position.
func (r *Reader) Tell() int { return r.pos }

// Remaining returns the number of unread bytes.
func (r *Reader) Remaining() int { return len(r.buf) - r.pos }

// Seek moves the cursor to an absolute offset. Seeking to Len is allowed.
func (r *Reader) Seek(offset int) error {
	if offset < 0 || offset > len(r.buf) {
		return fmt.Errorf("%w: seek to %d in %d bytes", ErrOutOfBounds, offset, len(r.buf))
	}
	r.pos = offset
	return nil
}

// Skip advances the cursor by n bytes.
func (r *Reader) Skip(n int) error {
	if _, err := r.take(n); err != nil {
		return err
	}
	return nil
}

// take returns the next n bytes and advances the cursor.
func (r *Reader) take(n int) ([]byte, error) {
	if n < 0 || n > r.Remaining() {
		return nil, fmt.Errorf("%w: need %d bytes at offset %d, have %d", ErrOutOfBounds, n, r.pos, r.Remaining())
	}
	b := r.buf[r.pos : r.pos+n]
	r.pos += n
	return b, nil
}

// Uint8 reads one byte.
func (r *Reader) Uint8() (uint8, error) {
	b, err := r.take(1)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

// Uint16 reads a little-endian uint16.
func (r *Reader) Uint16() (uint16, error) {
	b, err := r.take(2)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint16(b), nil
}

// Uint32 reads a little-endian uint32.
func (r *Reader) Uint32() (uint32, error) {
	b, err := r.take(4)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b), nil
}

// Uint64 reads a little-endian uint64.
func (r *Reader) Uint64() (uint64, error) {
	b, err := r.take(8)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(b), nil
}

// Int8 reads a signed byte.
func (r *Reader) Int8() (int8, error) {
	v, err := r.Uint8()
	return int8(v), err //nolint:gosec // two's complement reinterpretation
}

// Int16 reads a little-endian int16.
func (r *Reader) Int16() (int16, error) {
	v, err := r.Uint16()
	return int16(v), err //nolint:gosec // two's complement reinterpretation
}

// Int32 reads a little-endian int32.
func (r *Reader) Int32() (int32, error) {
	v, err := r.Uint32()
	return int32(v), err //nolint:gosec // two's complement reinterpretation
}

// Int64 reads a little-endian int64.
func (r *Reader) Int64() (int64, error) {
	v, err := r.Uint64()
	return int64(v), err //nolint:gosec // two's complement reinterpretation
}

// Float32 reads a little-endian IEEE 754 float32.
func (r *Reader) Float32() (float32, error) {
	v, err := r.Uint32()
	return math.Float32frombits(v), err
}

// Float64 reads a little-endian IEEE 754 float64.
func (r *Reader) Float64() (float64, error) {
	v, err := r.Uint64()
	return math.Float64frombits(v), err
}

// FixedBytes returns exactly n bytes.
// The returned slice aliases the buffer and must be treated as immutable.
func (r *Reader) FixedBytes(n int) ([]byte, error) {
	return r.take(n)
}

// FixedString reads n bytes as UTF-8 and trims trailing NUL padding.
func (r *Reader) FixedString(n int) (string, error) {
	start := r.pos
	b, err := r.take(n)
	if err != nil {
		return "", err
	}
	b = bytes.TrimRight(b, "\x00")
	if !utf8.Valid(b) {
		r.pos = start
		return "", fmt.Errorf("%w: %d-byte string at offset %d", ErrInvalidEncoding, n, start)
	}
	return string(b), nil
}

// CString reads a NUL-terminated UTF-8 string and consumes the terminator.
func (r *Reader) CString() (string, error) {
	rest := r.buf[r.pos:]
	n := bytes.IndexByte(rest, 0)
	if n < 0 {
		return "", fmt.Errorf("%w: unterminated string at offset %d", ErrOutOfBounds, r.pos)
	}
	if !utf8.Valid(rest[:n]) {
		return "", fmt.Errorf("%w: string at offset %d", ErrInvalidEncoding, r.pos)
	}
	s := string(rest[:n])
	r.pos += n + 1
	return s, nil
}

// Decodable is implemented by fixed-size records that read themselves from a Reader.
type Decodable interface {
	Decode(r *Reader) error
}

// ReadEnumerable decodes count consecutive records of type T.
// It fails on the first element error and never returns a partial slice.
func ReadEnumerable[T any, PT interface {
	*T
	Decodable
}](r *Reader, count int) ([]T, error) {
	if count < 0 {
		return nil, fmt.Errorf("%w: negative count %d", ErrOutOfBounds, count)
	}
	// Cap the preallocation by what the buffer could possibly hold.
	out := make([]T, 0, min(count, r.Remaining()))
	for i := range count {
		var v T
		if err := PT(&v).Decode(r); err != nil {
			return nil, fmt.Errorf("element %d: %w", i, err)
		}
		out = append(out, v)
	}
	return out, nil
}

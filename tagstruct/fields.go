package tagstruct

import (
	"bytes"
	"fmt"
	"math/bits"

	"github.com/meigma/infinite/bytereader"
	"github.com/meigma/infinite/tag"
)

func scalar[T any](kind tag.FieldKind, dst *T, read func(*bytereader.Reader) (T, error)) Field {
	return Field{kind: kind, decode: func(c *Cursor) error {
		v, err := read(c.Reader())
		if err != nil {
			return err
		}
		*dst = v
		return nil
	}}
}

// Int8 binds an int8 field.
func Int8(dst *int8) Field { return scalar(tag.KindInt8, dst, (*bytereader.Reader).Int8) }

// Uint8 binds a uint8 field.
func Uint8(dst *uint8) Field { return scalar(tag.KindUint8, dst, (*bytereader.Reader).Uint8) }

// Int16 binds an int16 field.
func Int16(dst *int16) Field { return scalar(tag.KindInt16, dst, (*bytereader.Reader).Int16) }

// Uint16 binds a uint16 field.
func Uint16(dst *uint16) Field { return scalar(tag.KindUint16, dst, (*bytereader.Reader).Uint16) }

// Int32 binds an int32 field.
func Int32(dst *int32) Field { return scalar(tag.KindInt32, dst, (*bytereader.Reader).Int32) }

// Uint32 binds a uint32 field.
func Uint32(dst *uint32) Field { return scalar(tag.KindUint32, dst, (*bytereader.Reader).Uint32) }

// Int64 binds an int64 field.
func Int64(dst *int64) Field { return scalar(tag.KindInt64, dst, (*bytereader.Reader).Int64) }

// Uint64 binds a uint64 field.
func Uint64(dst *uint64) Field { return scalar(tag.KindUint64, dst, (*bytereader.Reader).Uint64) }

// Float32 binds a float32 field.
func Float32(dst *float32) Field { return scalar(tag.KindFloat32, dst, (*bytereader.Reader).Float32) }

// Float64 binds a float64 field.
func Float64(dst *float64) Field { return scalar(tag.KindFloat64, dst, (*bytereader.Reader).Float64) }

// Enum binds an enum field of any stored width. Raw values missing from
// mapping decode as unknown and keep their raw value.
func Enum[T comparable](dst *EnumValue[T], mapping map[uint32]T) Field {
	return Field{kind: tag.KindEnum, decode: func(c *Cursor) error {
		raw, err := c.unsigned()
		if err != nil {
			return err
		}
		*dst = lookup(uint32(raw), mapping) //nolint:gosec // enum widths are at most 4 bytes
		return nil
	}}
}

// Unsigned is the set of types a flags field can decode into.
type Unsigned interface {
	~uint8 | ~uint16 | ~uint32 | ~uint64
}

// Flags binds a bit-flag field. Every bit is kept, defined or not.
// The width of T must equal the stored width.
func Flags[T Unsigned](dst *T) Field {
	width := uint32(bits.Len64(uint64(^T(0))) / 8) //nolint:gosec // at most 8
	return Field{kind: tag.KindFlags, decode: func(c *Cursor) error {
		if c.field.Size != width {
			return fmt.Errorf("%w: flags stored in %d bytes, destination holds %d",
				ErrTypeMismatch, c.field.Size, width)
		}
		v, err := c.unsigned()
		if err != nil {
			return err
		}
		*dst = T(v)
		return nil
	}}
}

// Struct binds an inline nested struct.
func Struct(rec Record) Field {
	return Field{kind: tag.KindStruct, decode: func(c *Cursor) error {
		return c.DecodeStruct(c.field.Target, c.Inline(), rec)
	}}
}

// Array binds an array of struct instances stored in the data section.
// The inline bytes hold the data offset and the element count.
func Array[T any, PT interface {
	*T
	Record
}](dst *[]T) Field {
	return Field{kind: tag.KindArray, decode: func(c *Cursor) error {
		offset, count, err := c.ref()
		if err != nil {
			return err
		}
		if count == 0 {
			*dst = nil
			return nil
		}
		size := uint64(c.file.Structs[c.field.Target].Size)
		if size == 0 && uint64(count) > uint64(len(c.file.Data)) {
			return fmt.Errorf("%w: %d empty elements exceed data section", ErrMalformedTag, count)
		}
		if uint64(count) > uint64(max(*c.budget, 0)) {
			return fmt.Errorf("%w: %d elements exceed the remaining instance budget", ErrMalformedTag, count)
		}
		raw, err := c.Deref(uint64(offset), uint64(count)*size)
		if err != nil {
			return err
		}
		out := make([]T, count)
		for i := range out {
			start := uint64(i) * size
			if err := c.DecodeStruct(c.field.Target, raw[start:start+size], PT(&out[i])); err != nil {
				return fmt.Errorf("element %d: %w", i, err)
			}
		}
		*dst = out
		return nil
	}}
}

// String binds a string stored in the data section.
// Trailing NUL padding is dropped; the bytes must be valid UTF-8.
func String(dst *string) Field {
	return Field{kind: tag.KindString, decode: func(c *Cursor) error {
		offset, n, err := c.ref()
		if err != nil {
			return err
		}
		raw, err := c.Deref(uint64(offset), uint64(n))
		if err != nil {
			return err
		}
		s, err := bytereader.New(raw).FixedString(int(n))
		if err != nil {
			return err
		}
		*dst = s
		return nil
	}}
}

// Bytes binds an opaque byte run stored in the data section.
// The result is a copy and does not alias the entry payload.
func Bytes(dst *[]byte) Field {
	return Field{kind: tag.KindData, decode: func(c *Cursor) error {
		offset, n, err := c.ref()
		if err != nil {
			return err
		}
		raw, err := c.Deref(uint64(offset), uint64(n))
		if err != nil {
			return err
		}
		*dst = bytes.Clone(raw)
		return nil
	}}
}

// Resource binds a resource reference. A stored index of -1 yields NoResource.
func Resource(dst *ResourceRef) Field {
	return Field{kind: tag.KindResource, decode: func(c *Cursor) error {
		idx, err := c.Reader().Int32()
		if err != nil {
			return err
		}
		if idx == -1 {
			*dst = NoResource
			return nil
		}
		if idx < 0 || int(idx) >= len(c.file.Resources) {
			return fmt.Errorf("%w: resource reference %d of %d", ErrMalformedTag, idx, len(c.file.Resources))
		}
		rr := c.file.Resources[idx]
		*dst = ResourceRef{Index: idx, Slot: rr.Slot, Flags: rr.Flags}
		return nil
	}}
}

// TagReference binds a tag reference. A stored index of -1 yields NoTag.
func TagReference(dst *TagRef) Field {
	return Field{kind: tag.KindTagRef, decode: func(c *Cursor) error {
		idx, err := c.Reader().Int32()
		if err != nil {
			return err
		}
		if idx == -1 {
			*dst = NoTag
			return nil
		}
		if idx < 0 || int(idx) >= len(c.file.Dependencies) {
			return fmt.Errorf("%w: tag reference %d of %d", ErrMalformedTag, idx, len(c.file.Dependencies))
		}
		dep := c.file.Dependencies[idx]
		*dst = TagRef{Dependency: idx, GlobalID: dep.GlobalID, Group: dep.Group, AssetID: dep.AssetID}
		return nil
	}}
}

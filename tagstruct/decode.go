// Package tagstruct populates caller-defined records from a parsed tag.
//
// A record implements Record by listing one Field per field block of the
// struct it mirrors, in declaration order. Decode walks the tag's field
// table alongside that list and hands each field's bytes to the bound
// decode step. No reflection is involved: the record states its own shape,
// and any disagreement with the tag is reported as ErrTypeMismatch.
//
//	type Weapon struct {
//		Damage int32
//		Kind   tagstruct.EnumValue[string]
//		Mask   uint32
//	}
//
//	func (w *Weapon) Fields() []tagstruct.Field {
//		return []tagstruct.Field{
//			tagstruct.Int32(&w.Damage),
//			tagstruct.Enum(&w.Kind, weaponKinds),
//			tagstruct.Flags(&w.Mask),
//		}
//	}
package tagstruct

import (
	"fmt"

	"github.com/meigma/infinite/bytereader"
	"github.com/meigma/infinite/internal/modtype"
	"github.com/meigma/infinite/internal/sizing"
	"github.com/meigma/infinite/tag"
)

// MaxDepth bounds struct nesting so self-referencing layouts terminate.
const MaxDepth = 64

// instancesPerByte scales the struct instance budget of one Decode call.
// Array elements occupy data bytes, so a well-formed tag decodes far fewer
// instances than its data section and field table have entries.
const instancesPerByte = 4

// Sentinel errors re-exported from internal/modtype.
var (
	ErrTypeMismatch = modtype.ErrTypeMismatch
	ErrMalformedTag = modtype.ErrMalformedTag
)

// Record is implemented by types that can be populated from a tag struct.
type Record interface {
	// Fields returns one binding per field block, in declaration order.
	Fields() []Field
}

// Field binds one field block to a destination.
type Field struct {
	kind   tag.FieldKind
	decode func(c *Cursor) error
}

// Kind returns the field kind the binding expects.
func (f Field) Kind() tag.FieldKind {
	return f.kind
}

// Func binds a hand-written decode step for a field of the given kind.
func Func(kind tag.FieldKind, fn func(c *Cursor) error) Field {
	return Field{kind: kind, decode: fn}
}

// Skip accepts a field of the given kind without reading it.
func Skip(kind tag.FieldKind) Field {
	return Field{kind: kind, decode: func(*Cursor) error { return nil }}
}

// Decode populates rec from the root struct of f.
func Decode(f *tag.File, rec Record) error {
	root, ok := f.Root()
	if !ok {
		return fmt.Errorf("%w: tag has no root struct", ErrMalformedTag)
	}
	budget := instancesPerByte * (len(f.Data) + len(f.Fields) + 1)
	return decodeStruct(f, root, f.Block(0), rec, 0, &budget)
}

// decodeStruct decodes one struct instance and charges it to budget, which
// is shared by the whole Decode call.
func decodeStruct(f *tag.File, index int, instance []byte, rec Record, depth int, budget *int) error {
	if depth > MaxDepth {
		return fmt.Errorf("%w: struct nesting exceeds %d levels", ErrMalformedTag, MaxDepth)
	}
	if *budget <= 0 {
		return fmt.Errorf("%w: struct instances exceed what the data section can hold", ErrMalformedTag)
	}
	*budget--
	def := f.Structs[index]
	if uint64(len(instance)) < uint64(def.Size) {
		return fmt.Errorf("%w: struct %d instance has %d bytes, needs %d",
			ErrMalformedTag, index, len(instance), def.Size)
	}

	blocks := f.FieldsOf(index)
	fields := rec.Fields()
	if len(fields) != len(blocks) {
		return fmt.Errorf("%w: record declares %d fields, struct %d has %d",
			ErrTypeMismatch, len(fields), index, len(blocks))
	}

	c := &Cursor{file: f, instance: instance, depth: depth, budget: budget}
	for i, fb := range blocks {
		if fields[i].kind != fb.Kind {
			return fmt.Errorf("%w: struct %d field %d is %s, record declares %s",
				ErrTypeMismatch, index, i, fb.Kind, fields[i].kind)
		}
		c.field = fb
		if fields[i].decode == nil {
			continue
		}
		if err := fields[i].decode(c); err != nil {
			return fmt.Errorf("struct %d field %d (%s): %w", index, i, fb.Kind, err)
		}
	}
	return nil
}

// Cursor exposes the bytes of the field being decoded.
type Cursor struct {
	file     *tag.File
	instance []byte
	field    tag.FieldBlock
	depth    int
	budget   *int
}

// File returns the tag being decoded.
func (c *Cursor) File() *tag.File { return c.file }

// Field returns the field block being decoded.
func (c *Cursor) Field() tag.FieldBlock { return c.field }

// Inline returns the field's bytes within the current struct instance.
// Parse has already checked that they lie within the struct.
func (c *Cursor) Inline() []byte {
	return c.instance[c.field.Offset : c.field.Offset+c.field.Size]
}

// Reader returns a reader over the field's inline bytes.
func (c *Cursor) Reader() *bytereader.Reader {
	return bytereader.New(c.Inline())
}

// Deref returns n bytes of the data section starting at offset.
func (c *Cursor) Deref(offset, n uint64) ([]byte, error) {
	data := c.file.Data
	if !sizing.InRange(offset, n, uint64(len(data))) {
		return nil, fmt.Errorf("%w: %d bytes at %d exceed data section of %d bytes",
			ErrMalformedTag, n, offset, len(data))
	}
	return data[offset : offset+n], nil
}

// DecodeStruct populates rec from an instance of struct index laid out in
// instance. It counts as one level of nesting below the current struct
// and draws on the same instance budget as the rest of the Decode call.
func (c *Cursor) DecodeStruct(index uint32, instance []byte, rec Record) error {
	if uint64(index) >= uint64(len(c.file.Structs)) {
		return fmt.Errorf("%w: struct %d of %d", ErrMalformedTag, index, len(c.file.Structs))
	}
	return decodeStruct(c.file, int(index), instance, rec, c.depth+1, c.budget)
}

// unsigned reads the inline bytes as a little-endian unsigned integer of
// the field's width.
func (c *Cursor) unsigned() (uint64, error) {
	r := c.Reader()
	switch c.field.Size {
	case 1:
		v, err := r.Uint8()
		return uint64(v), err
	case 2:
		v, err := r.Uint16()
		return uint64(v), err
	case 4:
		v, err := r.Uint32()
		return uint64(v), err
	case 8:
		return r.Uint64()
	default:
		return 0, fmt.Errorf("%w: unsupported width %d", ErrTypeMismatch, c.field.Size)
	}
}

// ref reads an (offset, count) pair stored inline.
func (c *Cursor) ref() (offset, count uint32, err error) {
	r := c.Reader()
	if offset, err = r.Uint32(); err != nil {
		return 0, 0, err
	}
	count, err = r.Uint32()
	return offset, count, err
}

package tagstruct

import "fmt"

// EnumValue is a decoded enum. The raw value is always kept; the mapped
// value is present only when the raw value was known to the mapping.
type EnumValue[T comparable] struct {
	raw   uint32
	value T
	known bool
}

// NewEnumValue returns the known enum value v stored as raw.
func NewEnumValue[T comparable](raw uint32, v T) EnumValue[T] {
	return EnumValue[T]{raw: raw, value: v, known: true}
}

// UnknownEnum returns an enum value holding an unmapped raw value.
func UnknownEnum[T comparable](raw uint32) EnumValue[T] {
	return EnumValue[T]{raw: raw}
}

func lookup[T comparable](raw uint32, mapping map[uint32]T) EnumValue[T] {
	if v, ok := mapping[raw]; ok {
		return NewEnumValue(raw, v)
	}
	return UnknownEnum[T](raw)
}

// Raw returns the stored integer.
func (e EnumValue[T]) Raw() uint32 { return e.raw }

// Value returns the mapped value. ok is false for unknown values.
func (e EnumValue[T]) Value() (v T, ok bool) { return e.value, e.known }

// Known reports whether the raw value was mapped.
func (e EnumValue[T]) Known() bool { return e.known }

// String formats the mapped value, or unknown(raw).
func (e EnumValue[T]) String() string {
	if !e.known {
		return fmt.Sprintf("unknown(%d)", e.raw)
	}
	return fmt.Sprint(e.value)
}

// ResourceRef is a decoded resource reference. It names a slot in the owning
// entry's resource range; Module.ResolveResource turns it into an entry index.
type ResourceRef struct {
	// Index is the position in the tag's resource table, -1 when null.
	Index int32

	// Slot indexes the owning entry's resource range.
	Slot int32

	// Flags are carried verbatim from the resource table.
	Flags uint32
}

// NoResource is the null resource reference.
var NoResource = ResourceRef{Index: -1, Slot: -1}

// Valid reports whether the reference names a resource.
func (r ResourceRef) Valid() bool { return r.Index >= 0 }

// TagRef is a decoded reference to another tag. It is resolved lazily:
// Module.ResolveTag maps it to an entry index without decoding anything.
type TagRef struct {
	// Dependency is the position in the tag's dependency table, -1 when null.
	Dependency int32

	// GlobalID is the referenced entry's global ID, -1 when null.
	GlobalID int64

	// Group is the referenced tag's group, empty when null.
	Group string

	// AssetID is the referenced asset's identifier.
	AssetID uint64
}

// NoTag is the null tag reference.
var NoTag = TagRef{Dependency: -1, GlobalID: -1}

// Valid reports whether the reference names a tag.
func (r TagRef) Valid() bool { return r.Dependency >= 0 }

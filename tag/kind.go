package tag

import "fmt"

// FieldKind discriminates how a field block's bytes are interpreted.
type FieldKind uint16

const (
	KindInt8 FieldKind = iota
	KindUint8
	KindInt16
	KindUint16
	KindInt32
	KindUint32
	KindInt64
	KindUint64
	KindFloat32
	KindFloat64
	KindEnum
	KindFlags
	KindStruct
	KindArray
	KindString
	KindData
	KindResource
	KindTagRef

	kindCount
)

var kindNames = [...]string{
	KindInt8:     "int8",
	KindUint8:    "uint8",
	KindInt16:    "int16",
	KindUint16:   "uint16",
	KindInt32:    "int32",
	KindUint32:   "uint32",
	KindInt64:    "int64",
	KindUint64:   "uint64",
	KindFloat32:  "float32",
	KindFloat64:  "float64",
	KindEnum:     "enum",
	KindFlags:    "flags",
	KindStruct:   "struct",
	KindArray:    "array",
	KindString:   "string",
	KindData:     "data",
	KindResource: "resource",
	KindTagRef:   "tag_ref",
}

// String returns the name of the kind.
func (k FieldKind) String() string {
	if k < kindCount {
		return kindNames[k]
	}
	return fmt.Sprintf("unknown(%d)", uint16(k))
}

// Valid reports whether k is a known kind.
func (k FieldKind) Valid() bool { return k < kindCount }

// IsPrimitive reports whether k is a fixed-width scalar.
func (k FieldKind) IsPrimitive() bool { return k <= KindFloat64 }

// Width returns the inline size a kind requires.
// Struct returns 0 because its width is the child struct size; enum and
// flags return 0 because several widths are legal.
func (k FieldKind) Width() uint32 {
	switch k {
	case KindInt8, KindUint8:
		return 1
	case KindInt16, KindUint16:
		return 2
	case KindInt32, KindUint32, KindFloat32, KindResource, KindTagRef:
		return 4
	case KindInt64, KindUint64, KindFloat64, KindArray, KindString, KindData:
		return 8
	default:
		return 0
	}
}

// validSize reports whether size is a legal inline width for k.
// Struct sizes are checked against the child definition separately.
func (k FieldKind) validSize(size uint32) bool {
	switch k {
	case KindEnum:
		return size == 1 || size == 2 || size == 4
	case KindFlags:
		return size == 1 || size == 2 || size == 4 || size == 8
	case KindStruct:
		return true
	default:
		return size == k.Width()
	}
}

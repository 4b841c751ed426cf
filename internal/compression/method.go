// Package compression implements the bridge between the module reader and
// block decompression algorithms.
//
// The module reader never decodes bytes itself; it hands each block and its
// declared uncompressed size to a Decompressor and then checks the length of
// what came back. Stored, zstd and lz4 blocks are handled natively. Kraken,
// the engine's own codec, has no pure Go implementation and must be
// registered by the caller.
package compression

import "fmt"

// Method identifies the compression algorithm of a block.
// Values are stored in the module block table.
type Method uint32

const (
	MethodStored Method = iota
	MethodKraken
	MethodZstd
	MethodLZ4
)

// String returns the human-readable name of the method.
func (m Method) String() string {
	switch m {
	case MethodStored:
		return "stored"
	case MethodKraken:
		return "kraken"
	case MethodZstd:
		return "zstd"
	case MethodLZ4:
		return "lz4"
	default:
		return fmt.Sprintf("unknown(%d)", uint32(m))
	}
}

package compression

import (
	"fmt"

	"github.com/pierrec/lz4/v4"

	"github.com/meigma/infinite/internal/modtype"
)

// ErrDecompression is returned when a block fails to decompress.
var ErrDecompression = modtype.ErrDecompression

// DecodeFunc decompresses src, which is expected to expand to exactly size bytes.
// Implementations must be safe for concurrent use and keep no state between calls.
type DecodeFunc func(src []byte, size int) ([]byte, error)

// Decompressor turns one compressed block into its uncompressed bytes.
type Decompressor interface {
	Decompress(src []byte, size int, method Method) ([]byte, error)
}

// Bridge dispatches blocks to per-method decoders and enforces the declared
// output size. The zero value is not usable; call NewBridge.
type Bridge struct {
	decoders map[Method]DecodeFunc
	pool     *DecompressPool
}

// NewBridge returns a Bridge with stored, zstd and lz4 decoders registered.
func NewBridge(pool *DecompressPool) *Bridge {
	if pool == nil {
		pool = NewDecompressPool(0)
	}
	b := &Bridge{
		decoders: make(map[Method]DecodeFunc, 4),
		pool:     pool,
	}
	b.decoders[MethodStored] = decodeStored
	b.decoders[MethodZstd] = pool.decodeZstd
	b.decoders[MethodLZ4] = decodeLZ4
	return b
}

// Register installs fn as the decoder for method, replacing any previous one.
// Registration must complete before the bridge is shared.
func (b *Bridge) Register(method Method, fn DecodeFunc) {
	if fn == nil {
		delete(b.decoders, method)
		return
	}
	b.decoders[method] = fn
}

// Decompress implements Decompressor.
//
// Any decoder error, a missing decoder, or an output whose length differs
// from size is reported as ErrDecompression. A short or long result is never
// truncated or padded.
func (b *Bridge) Decompress(src []byte, size int, method Method) ([]byte, error) {
	if size < 0 {
		return nil, fmt.Errorf("%w: negative size %d", ErrDecompression, size)
	}
	fn, ok := b.decoders[method]
	if !ok {
		return nil, fmt.Errorf("%w: no decoder registered for %s", ErrDecompression, method)
	}
	out, err := fn(src, size)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrDecompression, method, err)
	}
	if len(out) != size {
		return nil, fmt.Errorf("%w: %s: got %d bytes, expected %d", ErrDecompression, method, len(out), size)
	}
	return out, nil
}

func decodeStored(src []byte, size int) ([]byte, error) {
	if len(src) != size {
		return nil, fmt.Errorf("stored block: size %d does not match expected %d", len(src), size)
	}
	out := make([]byte, size)
	copy(out, src)
	return out, nil
}

func decodeLZ4(src []byte, size int) ([]byte, error) {
	dst := make([]byte, size)
	n, err := lz4.UncompressBlock(src, dst)
	if err != nil {
		return nil, err
	}
	return dst[:n], nil
}

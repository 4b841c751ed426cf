package infinite

import "github.com/meigma/infinite/internal/compression"

// Method identifies how a block is compressed.
type Method = compression.Method

// Block compression methods.
const (
	MethodStored = compression.MethodStored
	MethodKraken = compression.MethodKraken
	MethodZstd   = compression.MethodZstd
	MethodLZ4    = compression.MethodLZ4
)

// DecodeFunc decompresses src into exactly size bytes.
// It must be safe for concurrent use.
type DecodeFunc = compression.DecodeFunc

package compression

import (
	"sync"

	"github.com/klauspost/compress/zstd"
)

// DecompressPool manages reusable zstd decoders to reduce allocation overhead.
type DecompressPool struct {
	pool                  *sync.Pool
	maxDecoderMemory      uint64
	decoderConcurrencySet bool
	decoderConcurrency    int
	decoderLowmemSet      bool
	decoderLowmem         bool
}

// PoolOption configures a DecompressPool.
type PoolOption func(*DecompressPool)

// WithDecoderConcurrency sets the decoder concurrency level.
// Values < 0 are treated as 0 (use GOMAXPROCS).
func WithDecoderConcurrency(n int) PoolOption {
	return func(p *DecompressPool) {
		if n < 0 {
			n = 0
		}
		p.decoderConcurrency = n
		p.decoderConcurrencySet = true
	}
}

// WithDecoderLowmem enables or disables low-memory mode for decoders.
func WithDecoderLowmem(b bool) PoolOption {
	return func(p *DecompressPool) {
		p.decoderLowmem = b
		p.decoderLowmemSet = true
	}
}

// NewDecompressPool creates a new pool for zstd decoders.
// If maxMemory is 0, no memory limit is applied to decoders.
func NewDecompressPool(maxMemory uint64, opts ...PoolOption) *DecompressPool {
	p := &DecompressPool{
		maxDecoderMemory:      maxMemory,
		decoderConcurrencySet: true,
		decoderConcurrency:    1,
		decoderLowmemSet:      true,
		decoderLowmem:         false,
	}
	for _, opt := range opts {
		opt(p)
	}
	p.pool = &sync.Pool{
		New: func() any {
			dec, err := p.newDecoder()
			if err != nil {
				return nil
			}
			return dec
		},
	}
	return p
}

// Get returns a decoder for DecodeAll use.
// The caller must call the returned release function when done.
// If an error is returned, no release function needs to be called.
func (p *DecompressPool) Get() (*zstd.Decoder, func(), error) {
	if p == nil || p.pool == nil {
		dec, err := p.newDecoder()
		if err != nil {
			return nil, nil, err
		}
		return dec, dec.Close, nil
	}

	dec, ok := p.pool.Get().(*zstd.Decoder)
	if !ok || dec == nil {
		// Pool's New function failed or held something unexpected.
		newDec, err := p.newDecoder()
		if err != nil {
			return nil, nil, err
		}
		return newDec, newDec.Close, nil
	}

	return dec, func() { p.pool.Put(dec) }, nil
}

// newDecoder creates a new zstd decoder with the configured memory limit.
func (p *DecompressPool) newDecoder() (*zstd.Decoder, error) {
	if p == nil {
		return zstd.NewReader(nil)
	}

	opts := make([]zstd.DOption, 0, 3)
	if p.decoderConcurrencySet {
		opts = append(opts, zstd.WithDecoderConcurrency(p.decoderConcurrency))
	}
	if p.decoderLowmemSet {
		opts = append(opts, zstd.WithDecoderLowmem(p.decoderLowmem))
	}
	if p.maxDecoderMemory != 0 {
		opts = append(opts, zstd.WithDecoderMaxMemory(p.maxDecoderMemory))
	}
	return zstd.NewReader(nil, opts...)
}

// decodeZstd decompresses a whole zstd frame into a buffer of exactly size bytes.
func (p *DecompressPool) decodeZstd(src []byte, size int) ([]byte, error) {
	dec, release, err := p.Get()
	if err != nil {
		return nil, err
	}
	defer release()
	return dec.DecodeAll(src, make([]byte, 0, size))
}

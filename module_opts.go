package infinite

import (
	"log/slog"

	"github.com/meigma/infinite/internal/compression"
	"github.com/meigma/infinite/tag"
)

const (
	// DefaultMaxEntrySize is the default limit on an entry's uncompressed size (256MB).
	DefaultMaxEntrySize = 256 << 20

	// DefaultMaxDecoderMemory is the default zstd decoder memory limit (256MB).
	DefaultMaxDecoderMemory = 256 << 20
)

// Option configures a Module.
type Option func(*Module)

// WithLogger sets the logger for debug and warning output.
// By default nothing is logged.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Module) {
		m.logger = logger
	}
}

// WithCompanion supplies companion (_hd1) data directly.
// Open does not look for a companion file when this is set.
func WithCompanion(data []byte) Option {
	return func(m *Module) {
		m.companion = data
		m.companionSet = true
	}
}

// WithCompanionPath overrides the companion file Open looks for
// (default: the module path with an "_hd1" suffix).
func WithCompanionPath(path string) Option {
	return func(m *Module) {
		m.companionPath = path
	}
}

// WithoutCompanion stops Open from loading a companion file.
func WithoutCompanion() Option {
	return func(m *Module) {
		m.companionDisabled = true
	}
}

// WithMaxEntrySize limits the uncompressed size of a single entry.
// Set limit to 0 to disable the limit.
func WithMaxEntrySize(limit uint64) Option {
	return func(m *Module) {
		m.maxEntrySize = limit
	}
}

// WithDecoder registers fn as the decoder for method, replacing the
// built-in one. Kraken blocks can only be read once a decoder is registered.
// A nil fn removes the decoder.
func WithDecoder(method Method, fn DecodeFunc) Option {
	return func(m *Module) {
		if m.decoders == nil {
			m.decoders = make(map[Method]DecodeFunc)
		}
		m.decoders[method] = fn
	}
}

// WithEntryMethod sets the method assumed for entries that have no block
// table and whose compressed and uncompressed sizes differ (default: Kraken).
func WithEntryMethod(method Method) Option {
	return func(m *Module) {
		m.entryMethod = method
	}
}

// WithMaxDecoderMemory limits the maximum memory used by the zstd decoder.
// Set limit to 0 to disable the limit.
func WithMaxDecoderMemory(limit uint64) Option {
	return func(m *Module) {
		m.maxDecoderMemory = limit
	}
}

// WithDecoderConcurrency sets the zstd decoder concurrency (default: 1).
// Values < 0 are treated as 0 (use GOMAXPROCS).
func WithDecoderConcurrency(n int) Option {
	return func(m *Module) {
		m.poolOpts = append(m.poolOpts, compression.WithDecoderConcurrency(n))
	}
}

// WithDecoderLowmem sets whether the zstd decoder should use low-memory mode (default: false).
func WithDecoderLowmem(enabled bool) Option {
	return func(m *Module) {
		m.poolOpts = append(m.poolOpts, compression.WithDecoderLowmem(enabled))
	}
}

// WithTagOptions passes options to tag.Parse for every entry read.
func WithTagOptions(opts ...tag.Option) Option {
	return func(m *Module) {
		m.tagOpts = append(m.tagOpts, opts...)
	}
}

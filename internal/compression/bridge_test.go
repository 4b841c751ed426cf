package compression

import (
	"bytes"
	"errors"
	"testing"

	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func zstdCompress(t *testing.T, data []byte) []byte {
	t.Helper()
	enc, err := zstd.NewWriter(nil)
	require.NoError(t, err)
	defer enc.Close()
	return enc.EncodeAll(data, nil)
}

func lz4Compress(t *testing.T, data []byte) []byte {
	t.Helper()
	dst := make([]byte, lz4.CompressBlockBound(len(data)))
	n, err := lz4.CompressBlock(data, dst, nil)
	require.NoError(t, err)
	require.NotZero(t, n, "test data must be compressible")
	return dst[:n]
}

func TestBridge_RoundTrip(t *testing.T) {
	t.Parallel()

	data := bytes.Repeat([]byte("tag data block "), 200)
	tests := []struct {
		name   string
		method Method
		src    []byte
	}{
		{name: "stored", method: MethodStored, src: data},
		{name: "zstd", method: MethodZstd, src: zstdCompress(t, data)},
		{name: "lz4", method: MethodLZ4, src: lz4Compress(t, data)},
	}

	b := NewBridge(nil)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			out, err := b.Decompress(tt.src, len(data), tt.method)
			require.NoError(t, err)
			assert.Equal(t, data, out)
		})
	}
}

func TestBridge_SizeMismatch(t *testing.T) {
	t.Parallel()

	data := bytes.Repeat([]byte{0xAB}, 512)
	b := NewBridge(NewDecompressPool(0, WithDecoderLowmem(true)))

	tests := []struct {
		name   string
		method Method
		src    []byte
		size   int
	}{
		{name: "stored short", method: MethodStored, src: data[:100], size: 512},
		{name: "zstd declared smaller", method: MethodZstd, src: zstdCompress(t, data), size: 500},
		{name: "zstd declared larger", method: MethodZstd, src: zstdCompress(t, data), size: 600},
		{name: "lz4 declared larger", method: MethodLZ4, src: lz4Compress(t, data), size: 600},
		{name: "lz4 declared smaller", method: MethodLZ4, src: lz4Compress(t, data), size: 100},
		{name: "corrupt zstd", method: MethodZstd, src: []byte{1, 2, 3, 4}, size: 512},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			out, err := b.Decompress(tt.src, tt.size, tt.method)
			require.ErrorIs(t, err, ErrDecompression)
			assert.Nil(t, out)
		})
	}
}

func TestBridge_KrakenRequiresRegistration(t *testing.T) {
	t.Parallel()

	b := NewBridge(nil)
	_, err := b.Decompress([]byte{1}, 4, MethodKraken)
	require.ErrorIs(t, err, ErrDecompression)
	assert.Contains(t, err.Error(), "kraken")

	b.Register(MethodKraken, func(src []byte, size int) ([]byte, error) {
		return bytes.Repeat(src, size), nil
	})
	out, err := b.Decompress([]byte{7}, 4, MethodKraken)
	require.NoError(t, err)
	assert.Equal(t, []byte{7, 7, 7, 7}, out)

	b.Register(MethodKraken, nil)
	_, err = b.Decompress([]byte{7}, 4, MethodKraken)
	require.ErrorIs(t, err, ErrDecompression)
}

func TestBridge_DecoderErrorWrapped(t *testing.T) {
	t.Parallel()

	codecErr := errors.New("codec exploded")
	b := NewBridge(nil)
	b.Register(MethodKraken, func([]byte, int) ([]byte, error) { return nil, codecErr })

	_, err := b.Decompress([]byte{1}, 1, MethodKraken)
	require.ErrorIs(t, err, ErrDecompression)
	assert.Contains(t, err.Error(), "codec exploded")
}

func TestMethod_String(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "stored", MethodStored.String())
	assert.Equal(t, "kraken", MethodKraken.String())
	assert.Equal(t, "zstd", MethodZstd.String())
	assert.Equal(t, "lz4", MethodLZ4.String())
	assert.Equal(t, "unknown(9)", Method(9).String())
}

func TestDecompressPool_Reuse(t *testing.T) {
	t.Parallel()

	pool := NewDecompressPool(1<<20, WithDecoderConcurrency(-1))
	data := bytes.Repeat([]byte("abc"), 1000)
	src := zstdCompress(t, data)

	for range 3 {
		out, err := pool.decodeZstd(src, len(data))
		require.NoError(t, err)
		assert.Equal(t, data, out)
	}
}

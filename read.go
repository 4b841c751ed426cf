package infinite

import (
	"cmp"
	"fmt"
	"slices"

	"github.com/meigma/infinite/internal/sizing"
	"github.com/meigma/infinite/tag"
)

// ReadTag loads entry index: its blocks are decompressed, and unless the
// entry is a raw resource the bytes are parsed as a tag. The result is
// stored on the entry.
//
// Every call decodes again and replaces what a previous call stored; use
// TagCache to memoize. On error the entry is left as it was and no other
// entry is touched.
func (m *Module) ReadTag(index int) error {
	e, err := m.Entry(index)
	if err != nil {
		return fmt.Errorf("read tag: %w", err)
	}

	data, err := m.extract(e)
	if err != nil {
		return fmt.Errorf("read tag %d: %w", index, err)
	}

	var f *tag.File
	if !e.IsRaw() {
		if f, err = tag.Parse(data, m.tagOpts...); err != nil {
			return fmt.Errorf("read tag %d: %w", index, err)
		}
	}

	e.data, e.tag, e.loaded = data, f, true
	m.log().Debug("tag read", "index", index, "group", e.Group, "id", e.GlobalID, "size", len(data))
	return nil
}

// ReadTagByID loads the entry with the given global ID and returns its index.
func (m *Module) ReadTagByID(globalID int64) (int, error) {
	i, ok := m.byID[globalID]
	if !ok {
		return -1, fmt.Errorf("read tag by id: %w: %d", ErrTagNotFound, globalID)
	}
	if err := m.ReadTag(i); err != nil {
		return -1, err
	}
	return i, nil
}

// extract returns the decompressed bytes of e.
func (m *Module) extract(e *Entry) ([]byte, error) {
	src, base := m.data, m.payloadBase
	if e.Location&LocationHD1 != 0 {
		if m.companion == nil {
			return nil, ErrCompanionMissing
		}
		src, base = m.companion, m.Header.HD1Delta
	}

	if m.maxEntrySize > 0 && uint64(e.TotalUncompressed) > m.maxEntrySize {
		return nil, fmt.Errorf("%w: entry of %d bytes exceeds limit of %d",
			ErrSizeOverflow, e.TotalUncompressed, m.maxEntrySize)
	}

	start, ok := sizing.AddUint64(base, e.DataOffset)
	if !ok || !sizing.InRange(start, uint64(e.TotalCompressed), uint64(len(src))) {
		return nil, fmt.Errorf("%w: entry data (%d bytes at %d+%d) exceeds file of %d bytes",
			ErrOutOfBounds, e.TotalCompressed, base, e.DataOffset, len(src))
	}
	region := src[start : start+uint64(e.TotalCompressed)]
	size, err := sizing.ToInt(uint64(e.TotalUncompressed), ErrSizeOverflow)
	if err != nil {
		return nil, err
	}

	if e.BlockCount == 0 {
		method := MethodStored
		if e.TotalCompressed != e.TotalUncompressed {
			method = m.entryMethod
		}
		return m.bridge.Decompress(region, size, method)
	}

	first := int(e.BlockIndex)
	blocks := m.blocks[first : first+int(e.BlockCount)]
	for i, b := range blocks {
		if !sizing.InRange(uint64(b.CompressedOffset), uint64(b.CompressedSize), uint64(len(region))) {
			return nil, fmt.Errorf("%w: block %d (%d bytes at %d) exceeds entry data of %d bytes",
				ErrOutOfBounds, first+i, b.CompressedSize, b.CompressedOffset, len(region))
		}
		if !sizing.InRange(uint64(b.DecompressedOffset), uint64(b.DecompressedSize), uint64(size)) {
			return nil, fmt.Errorf("%w: block %d output (%d bytes at %d) exceeds entry size %d",
				ErrOutOfBounds, first+i, b.DecompressedSize, b.DecompressedOffset, size)
		}
	}
	if err := checkCoverage(blocks, size); err != nil {
		return nil, err
	}

	out := make([]byte, size)
	for i, b := range blocks {
		chunk, err := m.bridge.Decompress(
			region[b.CompressedOffset:b.CompressedOffset+b.CompressedSize],
			int(b.DecompressedSize), b.Method)
		if err != nil {
			return nil, fmt.Errorf("block %d: %w", first+i, err)
		}
		copy(out[b.DecompressedOffset:], chunk)
	}
	return out, nil
}

// checkCoverage reports ErrDecompression unless the output ranges of blocks
// tile [0, size) exactly, so a block table can neither pad nor overwrite
// entry bytes.
func checkCoverage(blocks []Block, size int) error {
	spans := slices.Clone(blocks)
	slices.SortFunc(spans, func(a, b Block) int {
		return cmp.Compare(a.DecompressedOffset, b.DecompressedOffset)
	})
	var end uint64
	for _, b := range spans {
		if b.DecompressedSize == 0 {
			continue
		}
		switch off := uint64(b.DecompressedOffset); {
		case off > end:
			return fmt.Errorf("%w: entry bytes [%d,%d) are not covered by any block", ErrDecompression, end, off)
		case off < end:
			return fmt.Errorf("%w: blocks overlap at entry byte %d", ErrDecompression, off)
		}
		end += uint64(b.DecompressedSize)
	}
	if end != uint64(size) {
		return fmt.Errorf("%w: blocks produce %d bytes, entry declares %d", ErrDecompression, end, size)
	}
	return nil
}

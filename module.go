package infinite

import (
	"errors"
	"fmt"
	"io/fs"
	"iter"
	"log/slog"
	"os"
	"sync"

	"github.com/opencontainers/go-digest"

	"github.com/meigma/infinite/bytereader"
	"github.com/meigma/infinite/internal/compression"
	"github.com/meigma/infinite/internal/sizing"
	"github.com/meigma/infinite/tag"
)

// CompanionSuffix is appended to a module path to name its companion file.
const CompanionSuffix = "_hd1"

// Module is an indexed module archive held in memory.
//
// Entry metadata and the block table are immutable after Open. ReadTag
// stores loaded data on individual entries; see the package documentation
// for the concurrency rules.
type Module struct {
	Header Header

	entries   []Entry
	blocks    []Block
	resources []uint32
	byID      map[int64]int

	data        []byte
	payloadBase uint64
	companion   []byte

	bridge *compression.Bridge

	digestOnce sync.Once
	digest     digest.Digest

	logger            *slog.Logger
	companionPath     string
	companionDisabled bool
	companionSet      bool
	maxEntrySize      uint64
	entryMethod       Method
	maxDecoderMemory  uint64
	poolOpts          []compression.PoolOption
	decoders          map[Method]DecodeFunc
	tagOpts           []tag.Option
}

// log returns the logger, falling back to a discard logger if nil.
func (m *Module) log() *slog.Logger {
	if m.logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return m.logger
}

// Open reads the module at path into memory and indexes it.
//
// When the header declares companion data, path+"_hd1" (or the path given
// by WithCompanionPath) is loaded best-effort. A missing companion is not
// an error here; entries stored in it fail with ErrCompanionMissing when read.
func Open(path string, opts ...Option) (*Module, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("open module: %w", err)
	}
	m, err := newModule(data, opts)
	if err != nil {
		return nil, fmt.Errorf("open module %s: %w", path, err)
	}
	if m.companionSet || m.companionDisabled || m.Header.HD1Delta == 0 {
		return m, nil
	}

	cpath := m.companionPath
	if cpath == "" {
		cpath = path + CompanionSuffix
	}
	companion, err := os.ReadFile(cpath)
	switch {
	case err == nil:
		m.companion = companion
		m.log().Debug("companion loaded", "path", cpath, "size", len(companion))
	case errors.Is(err, fs.ErrNotExist):
		m.log().Warn("companion file not found", "path", cpath)
	default:
		m.log().Warn("companion file unreadable", "path", cpath, "error", err)
	}
	return m, nil
}

// New indexes a module already held in memory. The module keeps a
// reference to data, which must not be modified afterwards.
// Companion data is only available through WithCompanion.
func New(data []byte, opts ...Option) (*Module, error) {
	return newModule(data, opts)
}

func newModule(data []byte, opts []Option) (*Module, error) {
	m := &Module{
		data:             data,
		maxEntrySize:     DefaultMaxEntrySize,
		maxDecoderMemory: DefaultMaxDecoderMemory,
		entryMethod:      MethodKraken,
	}
	for _, opt := range opts {
		opt(m)
	}

	m.bridge = compression.NewBridge(compression.NewDecompressPool(m.maxDecoderMemory, m.poolOpts...))
	for method, fn := range m.decoders {
		m.bridge.Register(method, fn)
	}

	if err := m.load(); err != nil {
		return nil, err
	}
	m.log().Debug("module opened",
		"version", m.Header.Version.String(),
		"entries", len(m.entries),
		"blocks", len(m.blocks),
		"resources", len(m.resources))
	return m, nil
}

// load decodes the header and tables and validates cross references.
func (m *Module) load() error {
	r := bytereader.New(m.data)
	if err := m.Header.Decode(r); err != nil {
		return fmt.Errorf("read header: %w", err)
	}
	h := &m.Header

	records, err := bytereader.ReadEnumerable[entryRecord](r, int(h.EntryCount))
	if err != nil {
		return fmt.Errorf("read entry table: %w", err)
	}
	m.entries = make([]Entry, len(records))
	for i := range records {
		m.entries[i] = Entry(records[i])
	}

	var names []byte
	if h.Version.HasStringTable() {
		if names, err = r.FixedBytes(int(h.StringsSize)); err != nil {
			return fmt.Errorf("read string table: %w", err)
		}
	}

	if need, ok := sizing.MulUint64(uint64(h.ResourceCount), 4); !ok || need > uint64(r.Remaining()) {
		return fmt.Errorf("read resource table: %w: %d indices", ErrOutOfBounds, h.ResourceCount)
	}
	m.resources = make([]uint32, h.ResourceCount)
	for i := range m.resources {
		m.resources[i], _ = r.Uint32() //nolint:errcheck // length checked above
	}

	if m.blocks, err = bytereader.ReadEnumerable[Block](r, int(h.BlockCount)); err != nil {
		return fmt.Errorf("read block table: %w", err)
	}

	m.payloadBase = uint64(r.Tell()/payloadAlign+1) * payloadAlign
	if !sizing.InRange(m.payloadBase, h.DataSize, uint64(len(m.data))) {
		return fmt.Errorf("%w: payload region (%d bytes at %d) exceeds file of %d bytes",
			ErrOutOfBounds, h.DataSize, m.payloadBase, len(m.data))
	}

	m.byID = make(map[int64]int, len(m.entries))
	for i := range m.entries {
		if err := m.index(i, names); err != nil {
			return fmt.Errorf("entry %d: %w", i, err)
		}
	}
	return nil
}

// index validates entry i and links its name, resources and global ID.
func (m *Module) index(i int, names []byte) error {
	e := &m.entries[i]

	if e.Parent != -1 && (e.Parent < 0 || int(e.Parent) > i) {
		return fmt.Errorf("%w: parent %d", ErrIndexOutOfRange, e.Parent)
	}

	if e.BlockCount > 0 {
		if e.BlockIndex < 0 || !sizing.InRange(uint64(e.BlockIndex), uint64(e.BlockCount), uint64(len(m.blocks))) {
			return fmt.Errorf("%w: blocks [%d,+%d) of %d", ErrOutOfBounds, e.BlockIndex, e.BlockCount, len(m.blocks))
		}
	}

	if e.ResourceCount > 0 {
		if e.ResourceIndex < 0 || !sizing.InRange(uint64(e.ResourceIndex), uint64(e.ResourceCount), uint64(len(m.resources))) {
			return fmt.Errorf("%w: resources [%d,+%d) of %d",
				ErrOutOfBounds, e.ResourceIndex, e.ResourceCount, len(m.resources))
		}
		e.resources = m.resources[int(e.ResourceIndex) : int(e.ResourceIndex)+int(e.ResourceCount)]
		for _, ri := range e.resources {
			if uint64(ri) >= uint64(len(m.entries)) {
				return fmt.Errorf("%w: resource entry %d", ErrIndexOutOfRange, ri)
			}
		}
	}

	if len(names) > 0 {
		if uint64(e.NameOffset) >= uint64(len(names)) {
			return fmt.Errorf("%w: name offset %d exceeds string table of %d bytes",
				ErrOutOfBounds, e.NameOffset, len(names))
		}
		r := bytereader.New(names[e.NameOffset:])
		name, err := r.CString()
		if err != nil {
			return fmt.Errorf("name: %w", err)
		}
		e.Name = name
	}

	if e.GlobalID != -1 {
		if prev, ok := m.byID[e.GlobalID]; ok {
			return fmt.Errorf("%w: %d also used by entry %d", ErrDuplicateID, e.GlobalID, prev)
		}
		m.byID[e.GlobalID] = i
	}
	return nil
}

// Len returns the number of entries.
func (m *Module) Len() int { return len(m.entries) }

// Blocks returns the module block table. It must not be modified.
func (m *Module) Blocks() []Block { return m.blocks }

// Entry returns entry i.
func (m *Module) Entry(i int) (*Entry, error) {
	if i < 0 || i >= len(m.entries) {
		return nil, fmt.Errorf("%w: %d of %d", ErrIndexOutOfRange, i, len(m.entries))
	}
	return &m.entries[i], nil
}

// Lookup returns the index of the entry with the given global ID.
func (m *Module) Lookup(globalID int64) (int, bool) {
	i, ok := m.byID[globalID]
	return i, ok
}

// Entries iterates entries in archive order.
func (m *Module) Entries() iter.Seq2[int, *Entry] {
	return func(yield func(int, *Entry) bool) {
		for i := range m.entries {
			if !yield(i, &m.entries[i]) {
				return
			}
		}
	}
}

// EntriesInGroup iterates entries whose tag group equals group.
func (m *Module) EntriesInGroup(group string) iter.Seq2[int, *Entry] {
	return func(yield func(int, *Entry) bool) {
		for i := range m.entries {
			if m.entries[i].Group != group {
				continue
			}
			if !yield(i, &m.entries[i]) {
				return
			}
		}
	}
}

// HasCompanion reports whether companion data is loaded.
func (m *Module) HasCompanion() bool { return m.companion != nil }

// Digest returns the sha256 digest of the primary module bytes.
// It is computed once on first use.
func (m *Module) Digest() digest.Digest {
	m.digestOnce.Do(func() {
		m.digest = digest.FromBytes(m.data)
	})
	return m.digest
}

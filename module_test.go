package infinite

import (
	"bytes"
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"

	"github.com/opencontainers/go-digest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meigma/infinite/internal/testutil"
	"github.com/meigma/infinite/tag"
	"github.com/meigma/infinite/tagstruct"
)

var recordGUID = [16]byte{0xAB, 0xCD}

// weapon mirrors a struct with an int32, a 2-byte enum and a 4-byte flag set.
type weapon struct {
	Damage int32
	Kind   tagstruct.EnumValue[string]
	Mask   uint32
}

var weaponKinds = map[uint32]string{0: "melee", 1: "rifle", 2: "pistol"}

func (w *weapon) Fields() []tagstruct.Field {
	return []tagstruct.Field{
		tagstruct.Int32(&w.Damage),
		tagstruct.Enum(&w.Kind, weaponKinds),
		tagstruct.Flags(&w.Mask),
	}
}

// weaponTag encodes a tag whose root is a weapon.
func weaponTag(damage int32, kind uint16, mask uint32) *testutil.Tag {
	inst := testutil.LE32(nil, uint32(damage)) //nolint:gosec // two's complement
	inst = testutil.LE16(inst, kind)
	inst = testutil.LE32(inst, mask)
	return &testutil.Tag{
		Root: recordGUID,
		Structs: []testutil.TagStruct{{
			GUID: recordGUID,
			Size: 10,
			Fields: []testutil.TagField{
				{Kind: testutil.KindInt32, Offset: 0, Size: 4, Target: testutil.NoTarget},
				{Kind: testutil.KindEnum, Offset: 4, Size: 2, Target: testutil.NoTarget},
				{Kind: testutil.KindFlags, Offset: 6, Size: 4, Target: testutil.NoTarget},
			},
		}},
		Instance: inst,
	}
}

func weaponPayload(damage int32) []byte {
	return weaponTag(damage, 1, 0).Bytes()
}

// padded appends zeros so lz4 always finds something to compress.
func padded(b []byte) []byte {
	return append(append([]byte(nil), b...), make([]byte, 512)...)
}

func buildModule(t *testing.T, mod *testutil.Module, opts ...Option) *Module {
	t.Helper()
	primary, companion := mod.Build(t)
	if companion != nil {
		opts = append(opts, WithCompanion(companion))
	}
	m, err := New(primary, opts...)
	require.NoError(t, err)
	return m
}

func TestReadTagEndToEnd(t *testing.T) {
	t.Parallel()

	src := weaponTag(42, 7, 0b0000_0101)
	src.Magic = "ABCD"
	src.Version = 1
	payload := src.Bytes()

	m := buildModule(t, &testutil.Module{
		Entries: []testutil.ModuleEntry{testutil.NewEntry("weap", 1000, payload)},
	}, WithTagOptions(tag.WithMagic("ABCD"), tag.WithVersions(1)))

	require.Equal(t, 1, m.Len())
	require.NoError(t, m.ReadTag(0))

	e, err := m.Entry(0)
	require.NoError(t, err)
	assert.True(t, e.Loaded())
	data, err := e.Data()
	require.NoError(t, err)
	assert.Equal(t, payload, data)

	var w weapon
	require.NoError(t, e.Decode(&w))
	assert.Equal(t, int32(42), w.Damage)
	assert.Equal(t, uint32(7), w.Kind.Raw())
	assert.False(t, w.Kind.Known())
	assert.Equal(t, "unknown(7)", w.Kind.String())
	assert.Equal(t, uint32(0b0000_0101), w.Mask)
}

func TestReadTagWrongTagMagic(t *testing.T) {
	t.Parallel()

	src := weaponTag(42, 7, 5)
	src.Magic = "ABCD"
	m := buildModule(t, &testutil.Module{
		Entries: []testutil.ModuleEntry{testutil.NewEntry("weap", 1, src.Bytes())},
	})

	require.ErrorIs(t, m.ReadTag(0), ErrInvalidMagic)
	e, err := m.Entry(0)
	require.NoError(t, err)
	assert.False(t, e.Loaded())
}

func fiveEntries() *testutil.Module {
	mod := &testutil.Module{}
	for i := range 5 {
		mod.Entries = append(mod.Entries,
			testutil.NewEntry("weap", int32(100+i), weaponPayload(int32(i*10)))) //nolint:gosec // small
	}
	return mod
}

func TestReadTagByID(t *testing.T) {
	t.Parallel()

	mod := fiveEntries()
	byID := buildModule(t, mod)
	byIndex := buildModule(t, mod)

	idx, err := byID.ReadTagByID(103)
	require.NoError(t, err)
	assert.Equal(t, 3, idx)
	require.NoError(t, byIndex.ReadTag(3))

	a, err := byID.Entry(3)
	require.NoError(t, err)
	b, err := byIndex.Entry(3)
	require.NoError(t, err)

	aData, err := a.Data()
	require.NoError(t, err)
	bData, err := b.Data()
	require.NoError(t, err)
	assert.Equal(t, bData, aData)

	var wa, wb weapon
	require.NoError(t, a.Decode(&wa))
	require.NoError(t, b.Decode(&wb))
	assert.Equal(t, wb, wa)
	assert.Equal(t, int32(30), wa.Damage)

	_, err = byID.ReadTagByID(999)
	require.ErrorIs(t, err, ErrTagNotFound)
}

func TestReadTagOutOfRange(t *testing.T) {
	t.Parallel()

	m := buildModule(t, fiveEntries())
	require.NoError(t, m.ReadTag(0))
	before, err := m.Entry(0)
	require.NoError(t, err)
	beforeData, err := before.Data()
	require.NoError(t, err)
	beforeData = bytes.Clone(beforeData)

	require.ErrorIs(t, m.ReadTag(m.Len()), ErrIndexOutOfRange)
	require.ErrorIs(t, m.ReadTag(-1), ErrIndexOutOfRange)

	for i, e := range m.Entries() {
		if i == 0 {
			require.True(t, e.Loaded())
			data, err := e.Data()
			require.NoError(t, err)
			assert.Equal(t, beforeData, data)
			continue
		}
		assert.False(t, e.Loaded(), "entry %d", i)
	}
}

func TestReadTagIdempotent(t *testing.T) {
	t.Parallel()

	m := buildModule(t, fiveEntries())
	e, err := m.Entry(2)
	require.NoError(t, err)

	require.NoError(t, m.ReadTag(2))
	first, err := e.Tag()
	require.NoError(t, err)
	var w1 weapon
	require.NoError(t, e.Decode(&w1))

	require.NoError(t, m.ReadTag(2))
	second, err := e.Tag()
	require.NoError(t, err)
	var w2 weapon
	require.NoError(t, e.Decode(&w2))

	assert.NotSame(t, first, second, "each read decodes again")
	assert.Equal(t, first, second)
	assert.Equal(t, w1, w2)
}

func TestReadTagDeterministic(t *testing.T) {
	t.Parallel()

	mod := fiveEntries()
	mod.Entries[1].Payload = []byte("not a tag")
	primary, _ := mod.Build(t)

	run := func() []string {
		m, err := New(primary)
		require.NoError(t, err)
		var out []string
		for i := range m.Len() {
			if err := m.ReadTag(i); err != nil {
				out = append(out, err.Error())
				continue
			}
			e, _ := m.Entry(i)
			data, _ := e.Data()
			out = append(out, string(data))
		}
		return out
	}

	first := run()
	assert.Equal(t, first, run())
	assert.Contains(t, first[1], ErrInvalidMagic.Error())
}

func TestReadTagBlocks(t *testing.T) {
	t.Parallel()

	payload := padded(weaponPayload(77))
	n := len(payload)

	tests := []struct {
		name   string
		chunks []testutil.Chunk
		opts   []Option
	}{
		{name: "stored block", chunks: []testutil.Chunk{{Size: n, Method: testutil.MethodStored}}},
		{name: "zstd block", chunks: []testutil.Chunk{{Size: n, Method: testutil.MethodZstd}}},
		{name: "lz4 block", chunks: []testutil.Chunk{{Size: n, Method: testutil.MethodLZ4}}},
		{
			name: "mixed blocks",
			chunks: []testutil.Chunk{
				{Size: 40, Method: testutil.MethodStored},
				{Size: 100, Method: testutil.MethodZstd},
				{Size: n - 140, Method: testutil.MethodLZ4},
			},
		},
		{
			name:   "kraken with registered decoder",
			chunks: []testutil.Chunk{{Size: n, Method: testutil.MethodKraken}},
			opts:   []Option{WithDecoder(MethodKraken, testutil.XorKraken)},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			entry := testutil.NewEntry("weap", 5, payload)
			entry.Chunks = tt.chunks
			m := buildModule(t, &testutil.Module{Entries: []testutil.ModuleEntry{entry}}, tt.opts...)

			require.NoError(t, m.ReadTag(0))
			e, _ := m.Entry(0)
			assert.Equal(t, len(tt.chunks), int(e.BlockCount))
			data, err := e.Data()
			require.NoError(t, err)
			assert.Equal(t, payload, data)

			var w weapon
			require.NoError(t, e.Decode(&w))
			assert.Equal(t, int32(77), w.Damage)
		})
	}
}

func TestReadTagSingleRegion(t *testing.T) {
	t.Parallel()

	payload := padded(weaponPayload(9))
	entry := testutil.NewEntry("weap", 5, payload)
	entry.Method = testutil.MethodZstd
	mod := &testutil.Module{Entries: []testutil.ModuleEntry{entry}}

	m := buildModule(t, mod, WithEntryMethod(MethodZstd))
	require.NoError(t, m.ReadTag(0))
	e, _ := m.Entry(0)
	data, err := e.Data()
	require.NoError(t, err)
	assert.Equal(t, payload, data)

	// Kraken is the default entry method and has no built-in decoder.
	m = buildModule(t, mod)
	require.ErrorIs(t, m.ReadTag(0), ErrDecompression)
}

func TestReadTagDecompressionFailures(t *testing.T) {
	t.Parallel()

	payload := padded(weaponPayload(1))

	tests := []struct {
		name  string
		entry func() testutil.ModuleEntry
		opts  []Option
	}{
		{
			name: "decoder returns short output",
			entry: func() testutil.ModuleEntry {
				e := testutil.NewEntry("weap", 1, payload)
				e.Chunks = []testutil.Chunk{{Size: len(payload), Method: testutil.MethodKraken}}
				return e
			},
			opts: []Option{WithDecoder(MethodKraken, func(src []byte, size int) ([]byte, error) {
				out, _ := testutil.XorKraken(src, size)
				return out[:size-1], nil
			})},
		},
		{
			name: "declared size larger than stored region",
			entry: func() testutil.ModuleEntry {
				e := testutil.NewEntry("weap", 1, payload)
				e.Tweak = func(rec []byte) {
					binary.LittleEndian.PutUint32(rec[28:], uint32(len(payload)+1)) //nolint:gosec // small
				}
				return e
			},
			opts: []Option{WithEntryMethod(MethodStored)},
		},
		{
			name: "blocks leave output uncovered",
			entry: func() testutil.ModuleEntry {
				e := testutil.NewEntry("weap", 1, payload)
				e.Chunks = []testutil.Chunk{{Size: len(payload), Method: testutil.MethodStored}}
				e.Tweak = func(rec []byte) {
					binary.LittleEndian.PutUint32(rec[28:], uint32(len(payload)+4)) //nolint:gosec // small
				}
				return e
			},
		},
		{
			name: "decoder error",
			entry: func() testutil.ModuleEntry {
				e := testutil.NewEntry("weap", 1, payload)
				e.Chunks = []testutil.Chunk{{Size: len(payload), Method: testutil.MethodStored}}
				return e
			},
			opts: []Option{WithDecoder(MethodStored, func([]byte, int) ([]byte, error) {
				return nil, assert.AnError
			})},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			m := buildModule(t, &testutil.Module{Entries: []testutil.ModuleEntry{tt.entry()}}, tt.opts...)
			require.ErrorIs(t, m.ReadTag(0), ErrDecompression)
			e, _ := m.Entry(0)
			assert.False(t, e.Loaded())
		})
	}
}

func TestCheckCoverage(t *testing.T) {
	t.Parallel()

	block := func(off, size uint32) Block {
		return Block{DecompressedOffset: off, DecompressedSize: size}
	}
	tests := []struct {
		name    string
		blocks  []Block
		size    int
		wantErr bool
	}{
		{name: "in order", blocks: []Block{block(0, 4), block(4, 6)}, size: 10},
		{name: "out of order", blocks: []Block{block(4, 6), block(0, 4)}, size: 10},
		{name: "empty block ignored", blocks: []Block{block(0, 10), block(3, 0)}, size: 10},
		{name: "gap", blocks: []Block{block(0, 4), block(5, 5)}, size: 10, wantErr: true},
		{name: "overlap", blocks: []Block{block(0, 6), block(4, 6)}, size: 10, wantErr: true},
		{name: "short tail", blocks: []Block{block(0, 4)}, size: 10, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			err := checkCoverage(tt.blocks, tt.size)
			if tt.wantErr {
				require.ErrorIs(t, err, ErrDecompression)
				return
			}
			require.NoError(t, err)
		})
	}
}

func TestReadTagMaxEntrySize(t *testing.T) {
	t.Parallel()

	m := buildModule(t, fiveEntries(), WithMaxEntrySize(16))
	require.ErrorIs(t, m.ReadTag(0), ErrSizeOverflow)

	m = buildModule(t, fiveEntries(), WithMaxEntrySize(0))
	require.NoError(t, m.ReadTag(0))
}

func companionModule() *testutil.Module {
	inHD1 := testutil.NewEntry("weap", 2, weaponPayload(2))
	inHD1.Companion = true
	return &testutil.Module{
		HD1Delta: 0x40,
		Entries: []testutil.ModuleEntry{
			testutil.NewEntry("weap", 1, weaponPayload(1)),
			inHD1,
		},
	}
}

func TestCompanion(t *testing.T) {
	t.Parallel()

	m := buildModule(t, companionModule())
	require.True(t, m.HasCompanion())
	require.NoError(t, m.ReadTag(1))
	e, _ := m.Entry(1)
	assert.Equal(t, LocationHD1, e.Location)
	var w weapon
	require.NoError(t, e.Decode(&w))
	assert.Equal(t, int32(2), w.Damage)
}

func TestCompanionMissing(t *testing.T) {
	t.Parallel()

	primary, _ := companionModule().Build(t)
	m, err := New(primary)
	require.NoError(t, err)
	assert.False(t, m.HasCompanion())

	err = m.ReadTag(1)
	require.ErrorIs(t, err, ErrCompanionMissing)
	require.ErrorIs(t, err, ErrOutOfBounds)

	// Entries in the primary file are unaffected.
	require.NoError(t, m.ReadTag(0))
}

func TestOpenFromDisk(t *testing.T) {
	t.Parallel()

	primary, companion := companionModule().Build(t)
	dir := t.TempDir()
	path := filepath.Join(dir, "weapons.module")
	require.NoError(t, os.WriteFile(path, primary, 0o600))
	require.NoError(t, os.WriteFile(path+CompanionSuffix, companion, 0o600))

	m, err := Open(path)
	require.NoError(t, err)
	require.True(t, m.HasCompanion())
	require.NoError(t, m.ReadTag(1))

	m, err = Open(path, WithoutCompanion())
	require.NoError(t, err)
	require.ErrorIs(t, m.ReadTag(1), ErrCompanionMissing)

	alt := filepath.Join(dir, "elsewhere")
	require.NoError(t, os.WriteFile(alt, companion, 0o600))
	m, err = Open(path, WithCompanionPath(alt))
	require.NoError(t, err)
	require.NoError(t, m.ReadTag(1))

	m, err = Open(path, WithCompanionPath(filepath.Join(dir, "missing")))
	require.NoError(t, err)
	require.ErrorIs(t, m.ReadTag(1), ErrCompanionMissing)

	_, err = Open(filepath.Join(dir, "nope.module"))
	require.ErrorIs(t, err, os.ErrNotExist)
}

func TestOpenErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		build func(t *testing.T) []byte
		want  error
	}{
		{
			name: "bad magic",
			build: func(t *testing.T) []byte {
				b, _ := fiveEntries().Build(t)
				b[0] = 'M'
				return b
			},
			want: ErrInvalidMagic,
		},
		{
			name: "unsupported version",
			build: func(t *testing.T) []byte {
				mod := fiveEntries()
				mod.Version = 50
				b, _ := mod.Build(t)
				return b
			},
			want: ErrUnsupportedVersion,
		},
		{
			name: "truncated header",
			build: func(t *testing.T) []byte {
				b, _ := fiveEntries().Build(t)
				return b[:40]
			},
			want: ErrOutOfBounds,
		},
		{
			name: "truncated payload",
			build: func(t *testing.T) []byte {
				b, _ := fiveEntries().Build(t)
				return b[:len(b)-1]
			},
			want: ErrOutOfBounds,
		},
		{
			name: "entry table overruns file",
			build: func(t *testing.T) []byte {
				b, _ := fiveEntries().Build(t)
				binary.LittleEndian.PutUint32(b[16:], 1<<20)
				return b
			},
			want: ErrOutOfBounds,
		},
		{
			name: "duplicate global id",
			build: func(t *testing.T) []byte {
				mod := fiveEntries()
				mod.Entries[4].GlobalID = 100
				b, _ := mod.Build(t)
				return b
			},
			want: ErrDuplicateID,
		},
		{
			name: "parent after entry",
			build: func(t *testing.T) []byte {
				mod := fiveEntries()
				mod.Entries[1].Parent = 3
				b, _ := mod.Build(t)
				return b
			},
			want: ErrIndexOutOfRange,
		},
		{
			name: "block range past table",
			build: func(t *testing.T) []byte {
				mod := fiveEntries()
				mod.Entries[0].Chunks = []testutil.Chunk{{Size: len(mod.Entries[0].Payload)}}
				mod.Entries[0].Tweak = func(rec []byte) { binary.LittleEndian.PutUint32(rec[4:], 7) }
				b, _ := mod.Build(t)
				return b
			},
			want: ErrOutOfBounds,
		},
		{
			name: "resource range past table",
			build: func(t *testing.T) []byte {
				mod := fiveEntries()
				mod.Entries[0].ResourceIndex = 0
				mod.Entries[0].ResourceCount = 2
				b, _ := mod.Build(t)
				return b
			},
			want: ErrOutOfBounds,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := New(tt.build(t))
			require.ErrorIs(t, err, tt.want)
		})
	}
}

func TestHeader(t *testing.T) {
	t.Parallel()

	m := buildModule(t, &testutil.Module{
		Version:      int32(VersionRelease),
		ModuleID:     -7,
		BuildVersion: 0xBEEF,
		Entries:      fiveEntries().Entries,
	})
	assert.Equal(t, Magic, m.Header.Magic)
	assert.Equal(t, VersionRelease, m.Header.Version)
	assert.Equal(t, int64(-7), m.Header.ModuleID)
	assert.Equal(t, uint64(0xBEEF), m.Header.BuildVersion)
	assert.Equal(t, uint32(5), m.Header.EntryCount)
	require.NoError(t, m.ReadTag(4))

	assert.Equal(t, "release", VersionRelease.String())
	assert.Equal(t, "season3", VersionSeason3.String())
	assert.Equal(t, "unknown(49)", Version(49).String())
	assert.True(t, VersionFlight1.HasStringTable())
	assert.False(t, VersionSeason3.HasStringTable())
}

// resourceModule holds a tag with two raw resources, the second of which
// has a resource of its own.
func resourceModule() *testutil.Module {
	owner := testutil.NewEntry("bitm", 500, weaponPayload(5))
	owner.ResourceIndex = 0
	owner.ResourceCount = 2

	first := testutil.NewEntry("", -1, []byte("first resource"))
	first.Parent = 0
	second := testutil.NewEntry("", -1, []byte("second resource"))
	second.Parent = 0
	second.ResourceIndex = 2
	second.ResourceCount = 1
	nested := testutil.NewEntry("", -1, []byte("nested"))
	nested.Parent = 2

	return &testutil.Module{
		Entries:   []testutil.ModuleEntry{owner, first, second, nested},
		Resources: []uint32{1, 2, 3},
	}
}

func TestRawResourceEntry(t *testing.T) {
	t.Parallel()

	m := buildModule(t, resourceModule())
	e, err := m.Entry(1)
	require.NoError(t, err)
	assert.True(t, e.IsRaw())

	_, err = e.Data()
	require.ErrorIs(t, err, ErrNotLoaded)
	require.ErrorIs(t, e.Decode(&weapon{}), ErrNotLoaded)

	require.NoError(t, m.ReadTag(1))
	data, err := e.Data()
	require.NoError(t, err)
	assert.Equal(t, []byte("first resource"), data)
	_, err = e.Tag()
	require.ErrorIs(t, err, ErrNoTagInfo)
	require.ErrorIs(t, e.Decode(&weapon{}), ErrNoTagInfo)
}

func TestPath(t *testing.T) {
	t.Parallel()

	m := buildModule(t, resourceModule())
	want := []string{
		"bitm/500.bitm",
		"bitm/500.bitm[0:resource]",
		"bitm/500.bitm[1:resource]",
		"bitm/500.bitm[1:resource][0:resource]",
	}
	for i, w := range want {
		got, err := m.Path(i)
		require.NoError(t, err)
		assert.Equal(t, w, got)
	}

	_, err := m.Path(9)
	require.ErrorIs(t, err, ErrIndexOutOfRange)
}

func TestPathDepthLimit(t *testing.T) {
	t.Parallel()

	mod := &testutil.Module{}
	for i := range 6 {
		e := testutil.NewEntry("", -1, []byte{byte(i)})
		if i > 0 {
			e.Parent = int32(i - 1) //nolint:gosec // small
			mod.Entries[i-1].ResourceIndex = int32(i - 1) //nolint:gosec // small
			mod.Entries[i-1].ResourceCount = 1
			mod.Resources = append(mod.Resources, uint32(i)) //nolint:gosec // small
		}
		mod.Entries = append(mod.Entries, e)
	}
	m := buildModule(t, mod)

	_, err := m.Path(3)
	require.NoError(t, err)
	_, err = m.Path(5)
	require.ErrorIs(t, err, ErrIndexOutOfRange)
}

func TestStringTableNames(t *testing.T) {
	t.Parallel()

	a := testutil.NewEntry("weap", 1, weaponPayload(1))
	b := testutil.NewEntry("weap", 2, weaponPayload(2))
	b.NameOffset = 14
	m := buildModule(t, &testutil.Module{
		Version: int32(VersionCampaignFlight),
		Strings: []byte("objects\\rifle\x00objects\\pistol\x00"),
		Entries: []testutil.ModuleEntry{a, b},
	})

	e, _ := m.Entry(1)
	assert.Equal(t, "objects\\pistol", e.Name)
	p, err := m.Path(0)
	require.NoError(t, err)
	assert.Equal(t, "objects\\rifle", p)
	require.NoError(t, m.ReadTag(1))
}

func TestEntriesIteration(t *testing.T) {
	t.Parallel()

	m := buildModule(t, resourceModule())

	var all []int
	for i := range m.Entries() {
		all = append(all, i)
	}
	assert.Equal(t, []int{0, 1, 2, 3}, all)

	var groups []int
	for i, e := range m.EntriesInGroup("bitm") {
		assert.Equal(t, "bitm", e.Group)
		groups = append(groups, i)
	}
	assert.Equal(t, []int{0}, groups)

	var raw []int
	for i := range m.EntriesInGroup("") {
		raw = append(raw, i)
		break
	}
	assert.Equal(t, []int{1}, raw)

	owner, _ := m.Entry(0)
	assert.Equal(t, []uint32{1, 2}, owner.Resources())
	i, ok := m.Lookup(500)
	assert.True(t, ok)
	assert.Equal(t, 0, i)
}

func TestResolve(t *testing.T) {
	t.Parallel()

	m := buildModule(t, resourceModule())

	i, err := m.ResolveTag(tagstruct.TagRef{Dependency: 0, GlobalID: 500, Group: "bitm"})
	require.NoError(t, err)
	assert.Equal(t, 0, i)

	_, err = m.ResolveTag(tagstruct.NoTag)
	require.ErrorIs(t, err, ErrTagNotFound)
	_, err = m.ResolveTag(tagstruct.TagRef{Dependency: 0, GlobalID: 4})
	require.ErrorIs(t, err, ErrTagNotFound)

	i, err = m.ResolveResource(0, tagstruct.ResourceRef{Index: 0, Slot: 1})
	require.NoError(t, err)
	assert.Equal(t, 2, i)

	_, err = m.ResolveResource(0, tagstruct.ResourceRef{Index: 0, Slot: 2})
	require.ErrorIs(t, err, ErrIndexOutOfRange)
	_, err = m.ResolveResource(0, tagstruct.NoResource)
	require.ErrorIs(t, err, ErrIndexOutOfRange)
	_, err = m.ResolveResource(10, tagstruct.ResourceRef{Slot: 0})
	require.ErrorIs(t, err, ErrIndexOutOfRange)

	// Resolving loads nothing.
	e, _ := m.Entry(0)
	assert.False(t, e.Loaded())
}

func TestDigest(t *testing.T) {
	t.Parallel()

	primary, _ := fiveEntries().Build(t)
	a, err := New(primary)
	require.NoError(t, err)
	b, err := New(bytes.Clone(primary))
	require.NoError(t, err)

	assert.Equal(t, digest.FromBytes(primary), a.Digest())
	assert.Equal(t, a.Digest(), b.Digest())
	require.NoError(t, a.Digest().Validate())
}

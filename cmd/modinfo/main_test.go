package main

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"
	"github.com/zeebo/blake3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meigma/infinite/internal/testutil"
)

var rootGUID = [16]byte{9}

func writeModule(t *testing.T) string {
	t.Helper()

	src := &testutil.Tag{
		Root: rootGUID,
		Structs: []testutil.TagStruct{{
			GUID:   rootGUID,
			Size:   4,
			Fields: []testutil.TagField{{Kind: testutil.KindUint32, Size: 4, Target: testutil.NoTarget}},
		}},
		Instance:     testutil.LE32(nil, 12),
		Dependencies: []testutil.TagDependency{{Group: "bitm", GlobalID: 77, Parent: -1}},
	}
	owner := testutil.NewEntry("weap", 10, src.Bytes())
	owner.ResourceIndex = 0
	owner.ResourceCount = 1
	res := testutil.NewEntry("", -1, []byte("resource bytes"))
	res.Parent = 0
	kraken := testutil.NewEntry("bitm", 11, []byte("kraken payload"))
	kraken.Chunks = []testutil.Chunk{{Size: 14, Method: testutil.MethodKraken}}

	primary, _ := (&testutil.Module{
		Entries:   []testutil.ModuleEntry{owner, res, kraken},
		Resources: []uint32{1},
	}).Build(t)
	path := filepath.Join(t.TempDir(), "test.module")
	require.NoError(t, os.WriteFile(path, primary, 0o600))
	return path
}

func TestList(t *testing.T) {
	t.Parallel()

	path := writeModule(t)
	var stdout, stderr bytes.Buffer
	require.NoError(t, run([]string{"list", path}, &stdout, &stderr))

	out := stdout.String()
	assert.Contains(t, out, "version season3, 3 entries, 1 blocks")
	assert.Contains(t, out, "weap/10.weap")
	assert.Contains(t, out, "weap/10.weap[0:resource]")
	assert.Contains(t, out, "bitm/11.bitm")

	stdout.Reset()
	require.NoError(t, run([]string{"list", "--group", "bitm", path}, &stdout, &stderr))
	assert.NotContains(t, stdout.String(), "weap/10.weap")
}

func TestExtract(t *testing.T) {
	t.Parallel()

	path := writeModule(t)
	dir := t.TempDir()
	var stdout, stderr bytes.Buffer
	require.NoError(t, run([]string{"extract", path, dir}, &stdout, &stderr))

	assert.Contains(t, stdout.String(), "extracted 2 entries, 1 failed")
	assert.Contains(t, stderr.String(), "entry 2")

	data, err := os.ReadFile(filepath.Join(dir, "weap", "10.weap[0:resource]"))
	require.NoError(t, err)
	assert.Equal(t, []byte("resource bytes"), data)
	_, err = os.Stat(filepath.Join(dir, "weap", "10.weap"))
	require.NoError(t, err)
}

func TestExtractSums(t *testing.T) {
	t.Parallel()

	path := writeModule(t)
	dir := t.TempDir()
	var stdout, stderr bytes.Buffer
	require.NoError(t, run([]string{"extract", "--sums", path, dir}, &stdout, &stderr))

	sums, err := os.ReadFile(filepath.Join(dir, sumsFile))
	require.NoError(t, err)
	want := fmt.Sprintf("%x  weap/10.weap[0:resource]\n", blake3.Sum256([]byte("resource bytes")))
	assert.Contains(t, string(sums), want)
	assert.Len(t, bytes.Split(bytes.TrimSpace(sums), []byte("\n")), 2)
	assert.NotContains(t, string(sums), "bitm")
}

func TestTag(t *testing.T) {
	t.Parallel()

	path := writeModule(t)
	var stdout, stderr bytes.Buffer
	require.NoError(t, run([]string{"tag", path, "0"}, &stdout, &stderr))

	out := stdout.String()
	assert.Contains(t, out, `magic "ucsh" version 27`)
	assert.Contains(t, out, "structs 1, fields 1, data blocks 1, resources 0, dependencies 1")
	assert.Contains(t, out, "uint32")
	assert.Contains(t, out, "bitm")

	require.Error(t, run([]string{"tag", path, "1"}, &stdout, &stderr))
	require.Error(t, run([]string{"tag", path, "x"}, &stdout, &stderr))
}

func TestRunErrors(t *testing.T) {
	t.Parallel()

	var stdout, stderr bytes.Buffer
	require.Error(t, run(nil, &stdout, &stderr))
	require.Error(t, run([]string{"frobnicate"}, &stdout, &stderr))
	require.Error(t, run([]string{"list"}, &stdout, &stderr))
	require.Error(t, run([]string{"list", "--entry-method", "brotli", writeModule(t)}, &stdout, &stderr))
	require.ErrorIs(t, run([]string{"list", "--help"}, &stdout, &stderr), pflag.ErrHelp)
	require.Error(t, run([]string{"list", filepath.Join(t.TempDir(), "missing")}, &stdout, &stderr))
}

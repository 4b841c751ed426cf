package pathutil

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "objects/weapons/rifle", Normalize(`objects\weapons\rifle`))
	assert.Equal(t, "bitm/12.bitm[0:resource]", Normalize("bitm/12.bitm[0:resource]"))
	assert.Equal(t, "a/b", Normalize("/a/b"))
}

func TestLocal(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   string
		want string
		ok   bool
	}{
		{name: "tag path", in: "weap/1.weap", want: filepath.Join("weap", "1.weap"), ok: true},
		{name: "string table name", in: `objects\rifle`, want: filepath.Join("objects", "rifle"), ok: true},
		{name: "empty", in: "", ok: false},
		{name: "parent escape", in: `..\..\etc\passwd`, ok: false},
		{name: "inner escape", in: "a/../../b", ok: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, ok := Local(tt.in)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

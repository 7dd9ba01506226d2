package r4

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tombrisland/r4/pkg/compiler"
	"github.com/tombrisland/r4/pkg/registry"
)

// TestEndToEnd_TestdataFixture compiles testdata/mime-types.xml, round-trips
// it through an in-memory Store, and checks the literal scenarios spec out
// the detector's behavior against a real (if trimmed) Tika-shaped document.
func TestEndToEnd_TestdataFixture(t *testing.T) {
	reg, err := compiler.CompileFile("testdata/mime-types.xml")
	require.NoError(t, err)

	store := registry.NewMemory()
	require.NoError(t, store.Save(reg))
	loaded, err := store.Load()
	require.NoError(t, err)

	d := NewDetector(loaded)

	cases := []struct {
		name string
		buf  []byte
		want MediaType
	}{
		{
			name: "image_jpeg",
			buf:  []byte{0xFF, 0xD8, 0xFF, 0xE0, 0x00, 0x10, 0x4A, 0x46, 0x49, 0x46, 0x00, 0x01, 0x01, 0x00, 0x00, 0x01},
			want: "image/jpeg",
		},
		{
			name: "image.png",
			buf:  []byte{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A, 0x00, 0x00, 0x00, 0x0D, 0x49, 0x48, 0x44, 0x52},
			want: "image/png",
		},
		{
			name: "image_png",
			buf:  []byte{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A, 0x00, 0x00, 0x00, 0x0D, 0x49, 0x48, 0x44, 0x52},
			want: "image/png",
		},
		{
			name: "file.json",
			buf:  []byte(`{"foo":1}`),
			want: "application/json",
		},
		{
			name: "image_heic",
			buf:  append(append(make([]byte, 4), []byte("ftypheic")...), make([]byte, 4)...),
			want: "image/heic",
		},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			mt, ok := d.Detect(c.name, c.buf)
			require.True(t, ok)
			assert.Equal(t, c.want, mt)
		})
	}
}

// TestEndToEnd_JSONGlobFallback matches spec.md's "anything with .json name
// and unrelated binary bytes" row: magic finds nothing, the glob still wins.
func TestEndToEnd_JSONGlobFallback(t *testing.T) {
	reg, err := compiler.CompileFile("testdata/mime-types.xml")
	require.NoError(t, err)

	d := NewDetector(reg)
	mt, ok := d.Detect("payload.json", []byte{0x00, 0x01, 0x02, 0x03, 0x04})
	require.True(t, ok)
	assert.Equal(t, MediaType("application/json"), mt)
}

// TestEndToEnd_SpecificityPrefersRawOverTIFF matches spec.md's invariant 9:
// a matched descendant (image/x-raw-panasonic) wins over its matched
// ancestor (image/tiff).
func TestEndToEnd_SpecificityPrefersRawOverTIFF(t *testing.T) {
	reg, err := compiler.CompileFile("testdata/mime-types.xml")
	require.NoError(t, err)

	d := NewDetector(reg)
	buf := []byte{0x49, 0x49, 0, 0, 0, 0, 0, 0, 0x55, 0, 0, 0}
	mt, ok := d.Detect("", buf)
	require.True(t, ok)
	assert.Equal(t, MediaType("image/x-raw-panasonic"), mt)
}

func TestEndToEnd_FixtureLoads(t *testing.T) {
	_, err := os.Stat("testdata/mime-types.xml")
	require.NoError(t, err)
}

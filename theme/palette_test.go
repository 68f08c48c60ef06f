package theme

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testGPL = `GIMP Palette
Name: Mono
Columns: 2
#
  0   0   0	black
255 255 255	white
`

func TestLoadGPL(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mono.gpl")
	require.NoError(t, os.WriteFile(path, []byte(testGPL), 0644))

	p, err := LoadGPL(path)
	require.NoError(t, err)
	assert.Equal(t, "Mono", p.Name)
	assert.Equal(t, []RGB{{0, 0, 0}, {255, 255, 255}}, p.Colors)

	assert.Equal(t, RGB{127, 127, 127}, p.Lookup(0.5))
	assert.Equal(t, RGB{0, 0, 0}, p.Lookup(-1))
	assert.Equal(t, RGB{255, 255, 255}, p.Lookup(2))
	assert.Equal(t, RGB{255, 255, 255}, p.Index(9))
}

func TestLoadGPL_Empty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.gpl")
	require.NoError(t, os.WriteFile(path, []byte("GIMP Palette\n"), 0644))

	_, err := LoadGPL(path)
	assert.Error(t, err)
}

func TestLoadOrDefault(t *testing.T) {
	p, err := LoadOrDefault("")
	require.NoError(t, err)
	assert.Equal(t, "builtin", p.Name)

	p, err = LoadOrDefault(filepath.Join(t.TempDir(), "missing.gpl"))
	assert.Error(t, err)
	require.NotNil(t, p, "falls back even on error")
	assert.Equal(t, "builtin", p.Name)
}

func TestSingleColourPalette(t *testing.T) {
	p := &Palette{Colors: []RGB{{10, 20, 30}}}
	assert.Equal(t, RGB{10, 20, 30}, p.Lookup(0.7))
}

func TestTheme(t *testing.T) {
	th := New(nil)
	assert.Equal(t, Hex(th.Palette.Colors[0]), th.BG())
	assert.Equal(t, th.Muted(), th.Velocity(0))
	assert.Equal(t, th.Success(), th.Velocity(127))
	assert.Equal(t, th.Success(), th.Velocity(500))
	assert.Equal(t, "#0a141e", string(Hex(RGB{10, 20, 30})))
}

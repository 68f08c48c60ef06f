package debug

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnableFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "debug.log")

	Log("arp", "dropped %d", 1)
	require.False(t, Enabled())

	require.NoError(t, EnableFile(path))
	assert.True(t, Enabled())
	require.NoError(t, EnableFile(path), "second enable is a no-op")

	Log("arp", "step %d", 3)
	for i := 0; i < 4; i++ {
		LogEvery(2, "tick", "late")
	}
	Disable()
	assert.False(t, Enabled())
	Disable()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	out := string(data)
	assert.Contains(t, out, "Debug logging started")
	assert.Contains(t, out, "step 3")
	assert.NotContains(t, out, "dropped")
	assert.Equal(t, 2, strings.Count(out, "late (every 2"))
}

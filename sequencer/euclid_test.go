package sequencer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEuclid_ThreeOfFour(t *testing.T) {
	e, ok := Euclid(3, 4)
	require.True(t, ok)
	assert.Equal(t, 1, e.Rotate())
	assert.Equal(t, "3/4", e.String())

	var silent []int
	for i := 0; i < 8; i++ {
		if !e.Hit(i) {
			silent = append(silent, i)
		}
	}
	assert.Equal(t, []int{3, 7}, silent)
}

func TestEuclid_Lookup(t *testing.T) {
	_, ok := Euclid(2, 4)
	assert.False(t, ok, "not in the table")

	_, ok = Euclid(0, 8)
	assert.False(t, ok)

	assert.Equal(t, "Off", EuclidOff.String())
	assert.True(t, EuclidOff.Hit(5))
}

func TestEuclid_EveryPattern(t *testing.T) {
	for e := EuclidPattern(1); int(e) < NumEuclidPatterns; e++ {
		hits := 0
		for i := 0; i < e.Length(); i++ {
			if e.Hit(i) {
				hits++
			}
		}
		assert.Equal(t, e.Fill(), hits, "pattern %s", e)
		assert.True(t, e.Hit(0), "pattern %s starts on a pulse", e)
	}
}

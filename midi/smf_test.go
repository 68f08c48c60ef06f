package midi

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	gomidi "gitlab.com/gomidi/midi/v2"
)

func TestSMFRecorder_Build(t *testing.T) {
	rec := NewSMFRecorder(120)
	require.NoError(t, rec.Send(NewNoteOn(0, 60, 100).At(10.0)))
	require.NoError(t, rec.Send(NewNoteOff(0, 60).At(10.5)))
	require.NoError(t, rec.Send(Event{Type: 0xE0}))
	assert.Equal(t, 2, rec.Len(), "events without a wire form are skipped")

	sm, err := rec.Build()
	require.NoError(t, err)
	require.Len(t, sm.Tracks, 1)

	track := sm.Tracks[0]
	require.Len(t, track, 5, "meter, tempo, two notes, end of track")

	on, off := track[2], track[3]
	assert.Zero(t, on.Delta, "the first event is time zero")
	assert.Equal(t, uint32(SMFResolution), off.Delta, "half a second at 120 is one beat")

	var ch, key, vel uint8
	assert.True(t, gomidi.Message(on.Message).GetNoteStart(&ch, &key, &vel))
	assert.Equal(t, uint8(60), key)
	assert.True(t, gomidi.Message(off.Message).GetNoteEnd(&ch, &key))
}

func TestSMFRecorder_Write(t *testing.T) {
	rec := NewSMFRecorder(0)
	rec.SetTempo(90)
	rec.Send(NewNoteOn(0, 60, 100).At(0))
	rec.Send(NewNoteOff(0, 60).At(1))

	var buf bytes.Buffer
	n, err := rec.WriteTo(&buf)
	require.NoError(t, err)
	assert.Positive(t, n)
	assert.True(t, bytes.HasPrefix(buf.Bytes(), []byte("MThd")))

	path := filepath.Join(t.TempDir(), "out.mid")
	assert.NoError(t, rec.WriteFile(path))
}

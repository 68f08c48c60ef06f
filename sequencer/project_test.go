package sequencer

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) (*ProjectStore, *time.Time) {
	t.Helper()
	s := NewProjectStore(t.TempDir())
	now := time.Date(2024, 1, 15, 14, 30, 0, 0, time.UTC)
	s.now = func() time.Time { return now }
	return s, &now
}

func TestProjectStore_SaveAndLoadLatest(t *testing.T) {
	s, now := newTestStore(t)

	p := Project{Params: DefaultParams()}
	p.Params.Bpm = 90
	p.Params.SeqPlay = true
	p.Params.Armed = true
	p.Steps[3] = chordStep(67, 60)

	first, err := s.Save("my song", "", p)
	require.NoError(t, err)
	assert.Equal(t, "2024-01-15_14-30-00.json", first)

	*now = now.Add(time.Minute)
	p.Params.Bpm = 100
	second, err := s.Save("my song", "take two", p)
	require.NoError(t, err)
	assert.Equal(t, "2024-01-15_14-31-00_take-two.json", second)

	got, err := s.Load("my song", "")
	require.NoError(t, err)
	assert.Equal(t, 100.0, got.Params.Bpm)
	assert.False(t, got.Params.SeqPlay, "transport is not restored")
	assert.False(t, got.Params.Armed)
	assert.True(t, got.Steps[3].Enabled)
	assert.Equal(t, []int{67, 60}, noteNumbers(got.Steps[3]))
	assert.False(t, got.Steps[4].Enabled)

	older, err := s.Load("my song", first)
	require.NoError(t, err)
	assert.Equal(t, 90.0, older.Params.Bpm)
}

func TestProjectStore_ListSaves(t *testing.T) {
	s, now := newTestStore(t)
	for i := 0; i < 3; i++ {
		_, err := s.Save("demo", "", Project{Params: DefaultParams()})
		require.NoError(t, err)
		*now = now.Add(time.Hour)
	}
	require.NoError(t, os.WriteFile(filepath.Join(s.ProjectDir("demo"), "notes.txt"), []byte("x"), 0644))

	saves, err := s.ListSaves("demo")
	require.NoError(t, err)
	require.Len(t, saves, 3)
	assert.True(t, saves[0].Timestamp.After(saves[1].Timestamp))
	assert.True(t, saves[1].Timestamp.After(saves[2].Timestamp))

	projects, err := s.ListProjects()
	require.NoError(t, err)
	assert.Equal(t, []string{"demo"}, projects)

	empty, err := s.ListSaves("nothing")
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestProjectStore_LoadWithoutSaves(t *testing.T) {
	s, _ := newTestStore(t)
	_, err := s.Load("ghost", "")
	assert.True(t, errors.Is(err, ErrNoSaves))
}

func TestProjectStore_LoadCorrupt(t *testing.T) {
	s, _ := newTestStore(t)
	dir := s.ProjectDir("broken")
	require.NoError(t, os.MkdirAll(dir, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "2024-01-15_14-30-00.json"), []byte("{"), 0644))

	_, err := s.Load("broken", "")
	assert.Error(t, err)
}

func TestProjectStore_RenameAndDelete(t *testing.T) {
	s, _ := newTestStore(t)
	name, err := s.Save("demo", "draft", Project{Params: DefaultParams()})
	require.NoError(t, err)

	renamed, err := s.RenameSave("demo", name, "final mix")
	require.NoError(t, err)
	assert.Equal(t, "2024-01-15_14-30-00_final-mix.json", renamed)

	saves, err := s.ListSaves("demo")
	require.NoError(t, err)
	require.Len(t, saves, 1)
	assert.Equal(t, "final-mix", saves[0].Name)

	_, err = s.RenameSave("demo", "bogus.json", "x")
	assert.Error(t, err)

	require.NoError(t, s.DeleteSave("demo", renamed))
	saves, _ = s.ListSaves("demo")
	assert.Empty(t, saves)

	require.NoError(t, s.DeleteProject("demo"))
	projects, _ := s.ListProjects()
	assert.Empty(t, projects)
}

func TestParseSaveName(t *testing.T) {
	tests := []struct {
		filename string
		name     string
		ok       bool
	}{
		{"2024-01-15_14-30-00.json", "", true},
		{"2024-01-15_14-30-00_verse.json", "verse", true},
		{"2024-01-15_14-30-00.txt", "", false},
		{"short.json", "", false},
		{"2024-13-45_14-30-00.json", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.filename, func(t *testing.T) {
			info, ok := parseSaveName(tt.filename)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.name, info.Name)
		})
	}
}

func TestSanitizeFilename(t *testing.T) {
	assert.Equal(t, "my-song-v2", sanitizeFilename("my song/v2"))
	assert.Equal(t, "whatnow", sanitizeFilename("what*now?"))
}

func TestArpSeq_ProjectRoundTrip(t *testing.T) {
	src := NewArpSeq(Options{Clock: &ManualClock{}})
	src.SetStep(3, chordStep(67, 60))
	p := src.Params()
	p.Bpm = 90
	p.SeqLength = 8
	src.ApplyParams(p)

	dst := NewArpSeq(Options{Clock: &ManualClock{}})
	dst.LoadProject(src.Project())

	assert.Equal(t, 90.0, dst.Bpm())
	assert.Equal(t, 8, dst.Seq().PendingLength())
	assert.Equal(t, []int{67, 60}, noteNumbers(dst.Seq().Step(3)))
	assert.False(t, dst.SequencerTicking())
}

package sequencer

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// ErrNoSaves is returned when a project has nothing to load.
var ErrNoSaves = errors.New("no saves found")

const saveTimeLayout = "2006-01-02_15-04-05"

// Project is what gets written to disk: the control snapshot and the step
// bank.
type Project struct {
	Params Params              `json:"params"`
	Steps  [MaxLength]PolyStep `json:"steps"`
}

// SaveInfo represents a saved project file (for listing)
type SaveInfo struct {
	Filename  string
	Name      string // parsed from filename (empty if unnamed)
	Timestamp time.Time
}

// ProjectStore keeps projects as folders of timestamped JSON saves under Dir.
type ProjectStore struct {
	Dir string
	now func() time.Time
}

func NewProjectStore(dir string) *ProjectStore {
	return &ProjectStore{Dir: dir, now: time.Now}
}

// ProjectDir returns the path to a specific project
func (s *ProjectStore) ProjectDir(projectName string) string {
	return filepath.Join(s.Dir, sanitizeFilename(projectName))
}

// ListProjects returns all project folder names
func (s *ProjectStore) ListProjects() ([]string, error) {
	entries, err := os.ReadDir(s.Dir)
	if err != nil {
		if os.IsNotExist(err) {
			return []string{}, nil
		}
		return nil, err
	}

	var projects []string
	for _, entry := range entries {
		if entry.IsDir() {
			projects = append(projects, entry.Name())
		}
	}

	sort.Strings(projects)
	return projects, nil
}

// ListSaves returns timestamped saves for a project, newest first
func (s *ProjectStore) ListSaves(projectName string) ([]SaveInfo, error) {
	entries, err := os.ReadDir(s.ProjectDir(projectName))
	if err != nil {
		if os.IsNotExist(err) {
			return []SaveInfo{}, nil
		}
		return nil, err
	}

	var saves []SaveInfo
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		info, ok := parseSaveName(entry.Name())
		if ok {
			saves = append(saves, info)
		}
	}

	sort.SliceStable(saves, func(i, j int) bool {
		return saves[i].Timestamp.After(saves[j].Timestamp)
	})

	return saves, nil
}

// parseSaveName reads 2024-01-15_14-30-00.json or 2024-01-15_14-30-00_name.json
func parseSaveName(filename string) (SaveInfo, bool) {
	if !strings.HasSuffix(filename, ".json") {
		return SaveInfo{}, false
	}
	base := strings.TrimSuffix(filename, ".json")
	if len(base) < len(saveTimeLayout) {
		return SaveInfo{}, false
	}
	ts, err := time.Parse(saveTimeLayout, base[:len(saveTimeLayout)])
	if err != nil {
		return SaveInfo{}, false
	}
	name := ""
	if rest := base[len(saveTimeLayout):]; len(rest) > 1 && rest[0] == '_' {
		name = rest[1:]
	}
	return SaveInfo{Filename: filename, Name: name, Timestamp: ts}, true
}

// Save writes p as a new timestamped save and returns its filename.
func (s *ProjectStore) Save(projectName, saveName string, p Project) (string, error) {
	if projectName == "" {
		projectName = "untitled"
	}
	dir := s.ProjectDir(projectName)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", err
	}

	data, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return "", err
	}

	filename := s.now().Format(saveTimeLayout)
	if saveName != "" {
		filename += "_" + sanitizeFilename(saveName)
	}
	filename += ".json"

	if err := os.WriteFile(filepath.Join(dir, filename), data, 0644); err != nil {
		return "", err
	}
	return filename, nil
}

// Load reads a specific save, or the most recent one if filename is empty.
func (s *ProjectStore) Load(projectName, filename string) (Project, error) {
	if filename == "" {
		saves, err := s.ListSaves(projectName)
		if err != nil {
			return Project{}, err
		}
		if len(saves) == 0 {
			return Project{}, fmt.Errorf("%w in project %s", ErrNoSaves, projectName)
		}
		filename = saves[0].Filename
	}

	data, err := os.ReadFile(filepath.Join(s.ProjectDir(projectName), filename))
	if err != nil {
		return Project{}, err
	}

	p := Project{Params: DefaultParams()}
	for i := range p.Steps {
		p.Steps[i] = NewPolyStep()
	}
	if err := json.Unmarshal(data, &p); err != nil {
		return Project{}, fmt.Errorf("parse %s: %w", filename, err)
	}

	// transport state is never restored
	p.Params.SeqPlay = false
	p.Params.Armed = false
	p.Params = p.Params.Clamped()
	return p, nil
}

// DeleteSave deletes a specific save file
func (s *ProjectStore) DeleteSave(projectName, filename string) error {
	return os.Remove(filepath.Join(s.ProjectDir(projectName), filename))
}

// RenameSave changes the name part of a save, keeping its timestamp.
func (s *ProjectStore) RenameSave(projectName, oldFilename, newName string) (string, error) {
	info, ok := parseSaveName(oldFilename)
	if !ok {
		return "", fmt.Errorf("invalid save filename %q", oldFilename)
	}

	newFilename := info.Timestamp.Format(saveTimeLayout)
	if newName != "" {
		newFilename += "_" + sanitizeFilename(newName)
	}
	newFilename += ".json"

	dir := s.ProjectDir(projectName)
	if err := os.Rename(filepath.Join(dir, oldFilename), filepath.Join(dir, newFilename)); err != nil {
		return "", err
	}
	return newFilename, nil
}

// DeleteProject deletes entire project folder
func (s *ProjectStore) DeleteProject(name string) error {
	return os.RemoveAll(s.ProjectDir(name))
}

// sanitizeFilename removes/replaces characters that are problematic in filenames
func sanitizeFilename(name string) string {
	r := strings.NewReplacer(
		" ", "-", "/", "-", "\\", "-", ":", "-",
		"*", "", "?", "", "\"", "", "<", "", ">", "", "|", "",
	)
	return r.Replace(name)
}

// Project captures the current controls and step bank.
func (a *ArpSeq) Project() Project {
	return Project{Params: a.params, Steps: a.seq.Steps()}
}

// LoadProject stops the transport and installs p.
func (a *ArpSeq) LoadProject(p Project) {
	a.AllNotesOff()
	a.StopSequencer()
	for i, s := range p.Steps {
		a.seq.SetStep(i, s)
	}
	a.ApplyParams(p.Params)
}

package sequencer

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// Registration is a stored panel setup: the selectors a performer recalls
// between songs
type Registration struct {
	Name         string `json:"name,omitempty"`
	Style        int    `json:"style"`
	Variation    int    `json:"variation"`
	AcompPattern int    `json:"acompPattern"`
	Octave       int    `json:"octave"`
}

// RegistrationInfo describes a saved registration file (for listing)
type RegistrationInfo struct {
	Filename  string
	Name      string // parsed from filename (empty if unnamed)
	Timestamp time.Time
}

const timestampLayout = "2006-01-02_15-04-05"

// RegistrationsDir returns the default registrations directory
func RegistrationsDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "electone", "registrations"), nil
}

// ListRegistrations returns the saves in dir, newest first
func ListRegistrations(dir string) ([]RegistrationInfo, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return []RegistrationInfo{}, nil
		}
		return nil, err
	}

	var regs []RegistrationInfo
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, ".json") {
			continue
		}

		// 2024-01-15_14-30-00.json or 2024-01-15_14-30-00_name.json
		base := strings.TrimSuffix(name, ".json")
		if len(base) < len(timestampLayout) {
			continue
		}
		ts, err := time.Parse(timestampLayout, base[:len(timestampLayout)])
		if err != nil {
			continue
		}
		var label string
		if rest := base[len(timestampLayout):]; len(rest) > 1 && rest[0] == '_' {
			label = rest[1:]
		}

		regs = append(regs, RegistrationInfo{Filename: name, Name: label, Timestamp: ts})
	}

	sort.Slice(regs, func(i, j int) bool {
		if regs[i].Timestamp.Equal(regs[j].Timestamp) {
			return regs[i].Filename > regs[j].Filename
		}
		return regs[i].Timestamp.After(regs[j].Timestamp)
	})
	return regs, nil
}

// SaveRegistration writes r to a timestamped file in dir and returns the
// file name
func SaveRegistration(dir string, r Registration, now time.Time) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", err
	}
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return "", err
	}

	name := now.Format(timestampLayout)
	if r.Name != "" {
		name += "_" + sanitizeFilename(r.Name)
	}
	name += ".json"

	if err := os.WriteFile(filepath.Join(dir, name), data, 0644); err != nil {
		return "", err
	}
	return name, nil
}

// LoadRegistration reads a save from dir, the newest when filename is empty
func LoadRegistration(dir, filename string) (Registration, error) {
	var r Registration
	if filename == "" {
		regs, err := ListRegistrations(dir)
		if err != nil {
			return r, err
		}
		if len(regs) == 0 {
			return r, fmt.Errorf("no registrations in %s", dir)
		}
		filename = regs[0].Filename
	}

	data, err := os.ReadFile(filepath.Join(dir, filename))
	if err != nil {
		return r, err
	}
	if err := json.Unmarshal(data, &r); err != nil {
		return r, fmt.Errorf("%s: %w", filename, err)
	}
	return r, nil
}

// sanitizeFilename replaces characters that are problematic in filenames
func sanitizeFilename(name string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case ' ', '/', '\\', ':':
			return '-'
		case '*', '?', '"', '<', '>', '|':
			return -1
		}
		return r
	}, name)
}

// Registration captures the current selectors
func (e *Engine) Registration() Registration {
	e.mu.Lock()
	defer e.mu.Unlock()
	return Registration{
		Style:        e.st.Style,
		Variation:    e.st.Variation,
		AcompPattern: e.st.AcompPattern,
		Octave:       e.st.Octave,
	}
}

// Recall applies a registration in one step. The accompaniment program is
// sent once, for the recalled style and pattern.
func (e *Engine) Recall(r Registration) {
	e.begin()
	e.st.Style = r.Style
	e.st.Variation = r.Variation
	e.st.AcompPattern = r.AcompPattern
	e.st.Octave = min(max(r.Octave, MinOctave), MaxOctave)
	e.programChange()
	e.end()
}

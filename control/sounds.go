package control

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"electone/midi"
)

// SoundPatch is a synth voice selection for one channel
type SoundPatch struct {
	Bank           uint8
	Program        uint8
	Portamento     bool
	PortamentoTime uint8
}

// Events returns the messages that select the patch on channel: bank
// select, program change, portamento switch, and portamento time when the
// switch is on.
func (p SoundPatch) Events(channel uint8) []midi.Event {
	events := []midi.Event{
		midi.Control(channel, midi.CCBankSelect, p.Bank),
		midi.Program(channel, p.Program),
	}
	if p.Portamento {
		events = append(events,
			midi.Control(channel, midi.CCPortamento, 127),
			midi.Control(channel, midi.CCPortamentoTime, p.PortamentoTime))
	} else {
		events = append(events, midi.Control(channel, midi.CCPortamento, 0))
	}
	return events
}

// Sounds is the patch library. General patches serve the upper and lower
// manuals, lead patches the solo voice.
type Sounds struct {
	General map[int]SoundPatch
	Lead    map[int]SoundPatch
}

// NewSounds returns an empty library
func NewSounds() *Sounds {
	return &Sounds{
		General: make(map[int]SoundPatch),
		Lead:    make(map[int]SoundPatch),
	}
}

type soundsFile struct {
	Sounds map[int][]int `yaml:"sounds"`      // id: [bank, program]
	Lead   map[int][]int `yaml:"lead_sounds"` // id: [bank, program, portamento, time]
}

// LoadSounds reads a sounds.yaml file
func LoadSounds(path string) (*Sounds, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	s, err := ParseSounds(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return s, nil
}

// ParseSounds decodes sounds YAML. Entries with fewer than two values keep
// bank and program 0.
func ParseSounds(data []byte) (*Sounds, error) {
	var f soundsFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, err
	}

	s := NewSounds()
	for id, v := range f.Sounds {
		s.General[id] = patch(v)
	}
	for id, v := range f.Lead {
		p := patch(v)
		if len(v) >= 4 {
			p.Portamento = v[2] == 1
			p.PortamentoTime = clamp7(v[3])
		}
		s.Lead[id] = p
	}
	return s, nil
}

func patch(v []int) SoundPatch {
	var p SoundPatch
	if len(v) >= 2 {
		p.Bank = clamp7(v[0])
		p.Program = clamp7(v[1])
	}
	return p
}

func clamp7(v int) uint8 {
	return uint8(min(max(v, 0), 127))
}

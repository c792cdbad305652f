package sequencer

import "fmt"

// MaxID bounds every style, variation, fill and pattern id. Ids arrive as
// 7-bit controller values, so tables are fixed arrays indexed by id.
const MaxID = 128

// NoFill is the fill selector's "none" sentinel
const NoFill = 0

// DefaultVelocity is used for drum steps with value 1
const DefaultVelocity = 100

// DrumTrack is one drum note and its per-step values: 0 silent,
// 1 default velocity, >1 explicit velocity.
type DrumTrack struct {
	Note  uint8
	Steps []uint8
}

// DrumPattern holds tracks in ascending note order
type DrumPattern struct {
	Tracks []DrumTrack
}

// Hit is a one-shot drum note (resolution entries)
type Hit struct {
	Note     uint8
	Velocity uint8
}

// DrumStyle is one rhythm: a bar of Steps steps, base variations, fills,
// and the resolution hits played on the downbeat after a fill.
type DrumStyle struct {
	Steps      int
	Variations [MaxID]*DrumPattern
	Fills      [MaxID]*DrumPattern
	Resolution []Hit
}

// NewDrumStyle creates an empty style with the given bar length
func NewDrumStyle(steps int) *DrumStyle {
	return &DrumStyle{Steps: steps}
}

// Variation returns the base pattern for id
func (s *DrumStyle) Variation(id int) (*DrumPattern, bool) {
	if id < 0 || id >= MaxID || s.Variations[id] == nil {
		return nil, false
	}
	return s.Variations[id], true
}

// Fill returns the fill pattern for id
func (s *DrumStyle) Fill(id int) (*DrumPattern, bool) {
	if id < 0 || id >= MaxID || s.Fills[id] == nil {
		return nil, false
	}
	return s.Fills[id], true
}

// Mode selects how an accompaniment pattern turns held notes into output
type Mode int

const (
	ModeChord   Mode = iota // every held note at once
	ModeArpOnce             // trigger indexes held notes with wraparound
	ModeArpLoop             // trigger walks up then down without repeating the ends
)

var modeNames = [...]string{
	ModeChord:   "chord",
	ModeArpOnce: "arp-once",
	ModeArpLoop: "arp-loop",
}

func (m Mode) String() string {
	if m < 0 || int(m) >= len(modeNames) {
		return fmt.Sprintf("Mode(%d)", int(m))
	}
	return modeNames[m]
}

// ParseMode converts a style file mode name
func ParseMode(name string) (Mode, error) {
	for m, n := range modeNames {
		if n == name {
			return Mode(m), nil
		}
	}
	return ModeChord, fmt.Errorf("unknown accompaniment mode %q", name)
}

// AcompPattern is one accompaniment figure. Pattern holds a trigger per
// step: 0 rest, n>0 the 1-based arpeggio index (any positive value sounds
// in chord mode).
type AcompPattern struct {
	Program  uint8
	Mode     Mode
	Velocity uint8
	Steps    int
	Pattern  []int
}

// AcompStyle maps pattern ids to accompaniment patterns
type AcompStyle struct {
	Patterns [MaxID]*AcompPattern
}

// Pattern returns the accompaniment pattern for id
func (s *AcompStyle) Pattern(id int) (*AcompPattern, bool) {
	if id < 0 || id >= MaxID || s.Patterns[id] == nil {
		return nil, false
	}
	return s.Patterns[id], true
}

// Store is the read-only style library. It is filled by a loader and then
// handed to New; after that nothing may modify it.
type Store struct {
	drums [MaxID]*DrumStyle
	acomp [MaxID]*AcompStyle
}

func NewStore() *Store {
	return &Store{}
}

// SetDrumStyle registers a drum style (loader use only)
func (s *Store) SetDrumStyle(id int, ds *DrumStyle) error {
	if id < 0 || id >= MaxID {
		return fmt.Errorf("drum style id %d out of range", id)
	}
	s.drums[id] = ds
	return nil
}

// SetAcompStyle registers an accompaniment style (loader use only)
func (s *Store) SetAcompStyle(id int, as *AcompStyle) error {
	if id < 0 || id >= MaxID {
		return fmt.Errorf("accompaniment style id %d out of range", id)
	}
	s.acomp[id] = as
	return nil
}

// Drum returns the drum style for id
func (s *Store) Drum(id int) (*DrumStyle, bool) {
	if s == nil || id < 0 || id >= MaxID || s.drums[id] == nil {
		return nil, false
	}
	return s.drums[id], true
}

// Acomp returns the accompaniment style for id
func (s *Store) Acomp(id int) (*AcompStyle, bool) {
	if s == nil || id < 0 || id >= MaxID || s.acomp[id] == nil {
		return nil, false
	}
	return s.acomp[id], true
}

// stepCounts lists every positive bar and pattern length in the store
func (s *Store) stepCounts() []int {
	var counts []int
	if s == nil {
		return counts
	}
	for _, ds := range s.drums {
		if ds != nil && ds.Steps > 0 {
			counts = append(counts, ds.Steps)
		}
	}
	for _, as := range s.acomp {
		if as == nil {
			continue
		}
		for _, ap := range as.Patterns {
			if ap != nil && ap.Steps > 0 {
				counts = append(counts, ap.Steps)
			}
		}
	}
	return counts
}

// DrumIDs lists the ids that have a drum style, ascending
func (s *Store) DrumIDs() []int {
	var ids []int
	for id, ds := range s.drums {
		if ds != nil {
			ids = append(ids, id)
		}
	}
	return ids
}

// AcompIDs lists the ids that have an accompaniment style, ascending
func (s *Store) AcompIDs() []int {
	var ids []int
	for id, as := range s.acomp {
		if as != nil {
			ids = append(ids, id)
		}
	}
	return ids
}

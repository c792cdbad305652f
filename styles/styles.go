// Package styles loads the rhythm and accompaniment libraries from YAML
// into a sequencer.Store.
//
// Rhythm file (ritmos.yaml), keyed by style id:
//
//	1:
//	  steps: 16
//	  0:                    # variation id -> note -> per-step values
//	    36: [1, 0, 0, 0, 1, 0, 0, 0]
//	  fills:
//	    resolution: {49: 110}
//	    1:                  # fill id -> note -> per-step values
//	      38: [0, 0, 90, 90]
//
// Accompaniment file (chords.yaml), keyed by style id then pattern id:
//
//	1:
//	  0: {program: 0, mode: arp-loop, velocity: 90, steps: 8, pattern: [1, 2, 3, 4, 5, 6, 7, 8]}
package styles

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"strconv"

	"gopkg.in/yaml.v3"

	"electone/sequencer"
)

// Defaults for fields a style file leaves out
const (
	DefaultSteps    = 16
	DefaultVelocity = 100
	DefaultMode     = "chord"
)

// Load reads both libraries into a new store. A broken style is left out
// and the rest of its file still loads; a missing file leaves its half of
// the store empty. The errors are joined.
func Load(rhythmsPath, chordsPath string) (*sequencer.Store, error) {
	store := sequencer.NewStore()
	var errs []error

	drums, err := LoadDrumStyles(rhythmsPath)
	if err != nil {
		errs = append(errs, err)
	}
	for id, ds := range drums {
		if err := store.SetDrumStyle(id, ds); err != nil {
			errs = append(errs, err)
		}
	}

	acomp, err := LoadAcompStyles(chordsPath)
	if err != nil {
		errs = append(errs, err)
	}
	for id, as := range acomp {
		if err := store.SetAcompStyle(id, as); err != nil {
			errs = append(errs, err)
		}
	}

	return store, errors.Join(errs...)
}

// LoadDrumStyles reads a rhythm file. Styles that parsed are returned
// even when others failed.
func LoadDrumStyles(path string) (map[int]*sequencer.DrumStyle, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	styles, err := ParseDrumStyles(data)
	if err != nil {
		return styles, fmt.Errorf("%s: %w", path, err)
	}
	return styles, nil
}

// LoadAcompStyles reads an accompaniment file, keeping the styles that
// parsed
func LoadAcompStyles(path string) (map[int]*sequencer.AcompStyle, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	styles, err := ParseAcompStyles(data)
	if err != nil {
		return styles, fmt.Errorf("%s: %w", path, err)
	}
	return styles, nil
}

// ParseDrumStyles decodes rhythm YAML. A style with an error is skipped
// and the remaining styles are still decoded.
func ParseDrumStyles(data []byte) (map[int]*sequencer.DrumStyle, error) {
	root, err := mapping(data)
	if err != nil {
		return nil, err
	}

	styles := make(map[int]*sequencer.DrumStyle)
	err = eachStyle(root, func(key string, val *yaml.Node) error {
		id, err := parseID(key)
		if err != nil {
			return fmt.Errorf("style %q: %w", key, err)
		}
		ds, err := parseDrumStyle(val)
		if err != nil {
			return fmt.Errorf("style %d: %w", id, err)
		}
		styles[id] = ds
		return nil
	})
	return styles, err
}

func parseDrumStyle(node *yaml.Node) (*sequencer.DrumStyle, error) {
	ds := sequencer.NewDrumStyle(DefaultSteps)
	err := eachPair(node, func(key string, val *yaml.Node) error {
		switch key {
		case "steps":
			if err := val.Decode(&ds.Steps); err != nil {
				return fmt.Errorf("steps: %w", err)
			}
			if ds.Steps <= 0 {
				return fmt.Errorf("steps must be positive, got %d", ds.Steps)
			}
			return nil
		case "fills":
			return parseFills(ds, val)
		}
		id, err := parseID(key)
		if err != nil {
			return nil // not a variation
		}
		p, err := parsePattern(val)
		if err != nil {
			return fmt.Errorf("variation %d: %w", id, err)
		}
		ds.Variations[id] = p
		return nil
	})
	return ds, err
}

func parseFills(ds *sequencer.DrumStyle, node *yaml.Node) error {
	return eachPair(node, func(key string, val *yaml.Node) error {
		if key == "resolution" {
			var res map[int]int
			if err := val.Decode(&res); err != nil {
				return fmt.Errorf("resolution: %w", err)
			}
			ds.Resolution = ds.Resolution[:0]
			for note, vel := range res {
				if note < 0 || note > 127 {
					return fmt.Errorf("resolution note %d out of range", note)
				}
				ds.Resolution = append(ds.Resolution, sequencer.Hit{Note: uint8(note), Velocity: clamp7(vel)})
			}
			sort.Slice(ds.Resolution, func(i, j int) bool {
				return ds.Resolution[i].Note < ds.Resolution[j].Note
			})
			return nil
		}
		id, err := parseID(key)
		if err != nil {
			return fmt.Errorf("fill %q: %w", key, err)
		}
		p, err := parsePattern(val)
		if err != nil {
			return fmt.Errorf("fill %d: %w", id, err)
		}
		ds.Fills[id] = p
		return nil
	})
}

func parsePattern(node *yaml.Node) (*sequencer.DrumPattern, error) {
	var tracks map[int][]int
	if err := node.Decode(&tracks); err != nil {
		return nil, err
	}
	p := &sequencer.DrumPattern{}
	for note, values := range tracks {
		if note < 0 || note > 127 {
			return nil, fmt.Errorf("note %d out of range", note)
		}
		tr := sequencer.DrumTrack{Note: uint8(note), Steps: make([]uint8, len(values))}
		for i, v := range values {
			tr.Steps[i] = clamp7(v)
		}
		p.Tracks = append(p.Tracks, tr)
	}
	sort.Slice(p.Tracks, func(i, j int) bool { return p.Tracks[i].Note < p.Tracks[j].Note })
	return p, nil
}

type acompPatternYAML struct {
	Program  *int   `yaml:"program"`
	Mode     string `yaml:"mode"`
	Velocity *int   `yaml:"velocity"`
	Steps    *int   `yaml:"steps"`
	Pattern  []int  `yaml:"pattern"`
}

// ParseAcompStyles decodes accompaniment YAML, skipping broken styles
func ParseAcompStyles(data []byte) (map[int]*sequencer.AcompStyle, error) {
	root, err := mapping(data)
	if err != nil {
		return nil, err
	}

	styles := make(map[int]*sequencer.AcompStyle)
	err = eachStyle(root, func(key string, val *yaml.Node) error {
		id, err := parseID(key)
		if err != nil {
			return fmt.Errorf("style %q: %w", key, err)
		}
		as := &sequencer.AcompStyle{}
		err = eachPair(val, func(pkey string, pval *yaml.Node) error {
			pid, err := parseID(pkey)
			if err != nil {
				return fmt.Errorf("pattern %q: %w", pkey, err)
			}
			ap, err := parseAcompPattern(pval)
			if err != nil {
				return fmt.Errorf("pattern %d: %w", pid, err)
			}
			as.Patterns[pid] = ap
			return nil
		})
		if err != nil {
			return fmt.Errorf("style %d: %w", id, err)
		}
		styles[id] = as
		return nil
	})
	return styles, err
}

func parseAcompPattern(node *yaml.Node) (*sequencer.AcompPattern, error) {
	var raw acompPatternYAML
	if err := node.Decode(&raw); err != nil {
		return nil, err
	}

	ap := &sequencer.AcompPattern{
		Velocity: DefaultVelocity,
		Steps:    DefaultSteps,
		Pattern:  raw.Pattern,
	}
	if raw.Program != nil {
		ap.Program = clamp7(*raw.Program)
	}
	if raw.Velocity != nil {
		ap.Velocity = max(clamp7(*raw.Velocity), 1)
	}
	if raw.Steps != nil {
		if *raw.Steps <= 0 {
			return nil, fmt.Errorf("steps must be positive, got %d", *raw.Steps)
		}
		ap.Steps = *raw.Steps
	}
	mode := raw.Mode
	if mode == "" {
		mode = DefaultMode
	}
	m, err := sequencer.ParseMode(mode)
	if err != nil {
		return nil, err
	}
	ap.Mode = m
	return ap, nil
}

// mapping unmarshals data and returns its top-level mapping node (nil for
// an empty document)
func mapping(data []byte) (*yaml.Node, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	if doc.Kind == 0 || len(doc.Content) == 0 {
		return nil, nil
	}
	root := doc.Content[0]
	if root.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("line %d: expected a mapping of style ids", root.Line)
	}
	return root, nil
}

// eachPair calls fn for every key/value of a mapping node, in file order
func eachPair(node *yaml.Node, fn func(key string, val *yaml.Node) error) error {
	if node == nil {
		return nil
	}
	if node.Kind != yaml.MappingNode {
		return fmt.Errorf("line %d: expected a mapping", node.Line)
	}
	for i := 0; i+1 < len(node.Content); i += 2 {
		if err := fn(node.Content[i].Value, node.Content[i+1]); err != nil {
			return err
		}
	}
	return nil
}

// eachStyle is eachPair for the top level of a style file: an error in one
// style does not stop the others, and all errors are joined
func eachStyle(root *yaml.Node, fn func(key string, val *yaml.Node) error) error {
	var errs []error
	err := eachPair(root, func(key string, val *yaml.Node) error {
		if err := fn(key, val); err != nil {
			errs = append(errs, err)
		}
		return nil
	})
	if err != nil {
		return err
	}
	return errors.Join(errs...)
}

func parseID(key string) (int, error) {
	id, err := strconv.Atoi(key)
	if err != nil {
		return 0, errors.New("id is not an integer")
	}
	if id < 0 || id >= sequencer.MaxID {
		return 0, fmt.Errorf("id %d out of range 0-%d", id, sequencer.MaxID-1)
	}
	return id, nil
}

func clamp7(v int) uint8 {
	return uint8(min(max(v, 0), 127))
}

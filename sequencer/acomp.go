package sequencer

import (
	"slices"

	"electone/midi"
)

// playAcompStep emits the accompaniment for the current tick from the held
// notes. The pattern keeps its own step count, independent of the drum bar.
func (s *State) playAcompStep(as *AcompStyle, out []midi.Event) []midi.Event {
	ap, ok := as.Pattern(s.AcompPattern)
	if !ok || ap.Steps <= 0 || len(s.held) == 0 {
		return out
	}

	step := (s.Tick / PulsesPerStep) % ap.Steps
	if step >= len(ap.Pattern) {
		return out
	}
	trigger := ap.Pattern[step]
	if trigger <= 0 {
		return out
	}

	shift := s.Octave * 12

	if ap.Mode == ModeChord {
		for _, n := range s.held {
			// held notes can clamp onto the same pitch at the range ends
			note := clampNote(int(n) + shift)
			if slices.Contains(s.acomp.sounding, note) {
				continue
			}
			out = s.acomp.play(out, note, ap.Velocity)
		}
		return out
	}

	note := arpNote(ap.Mode, s.held, trigger-1)
	return s.acomp.play(out, clampNote(int(note)+shift), ap.Velocity)
}

// arpNote selects one held note for a 0-based arpeggio index. held must be
// non-empty and ascending.
func arpNote(mode Mode, held []uint8, idx int) uint8 {
	n := len(held)
	if mode == ModeArpLoop {
		if n == 1 {
			return held[0]
		}
		// up then down without repeating the top and bottom notes
		cycle := 2*n - 2
		pos := idx % cycle
		if pos < n {
			return held[pos]
		}
		return held[cycle-pos]
	}
	return held[idx%n]
}

package sequencer

import "electone/midi"

// play appends a note-on (note-off when velocity is 0) and records the note
// as sounding on this voice
func (v *voice) play(out []midi.Event, note, velocity uint8) []midi.Event {
	v.sounding = append(v.sounding, note)
	return append(out, midi.Note(v.channel, note, velocity))
}

// silence appends a note-off for every sounding note and clears the set
func (v *voice) silence(out []midi.Event) []midi.Event {
	for _, n := range v.sounding {
		out = append(out, midi.Note(v.channel, n, 0))
	}
	v.sounding = v.sounding[:0]
	return out
}

// silenceAll silences both output channels
func (s *State) silenceAll(out []midi.Event) []midi.Event {
	out = s.drums.silence(out)
	return s.acomp.silence(out)
}

// clampNote keeps a shifted pitch inside the MIDI note range
func clampNote(n int) uint8 {
	if n < 0 {
		return 0
	}
	if n > 127 {
		return 127
	}
	return uint8(n)
}

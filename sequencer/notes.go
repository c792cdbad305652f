package sequencer

import "slices"

// hold inserts note into the held set, keeping it ascending and unique.
// The set is pre-sized for all 128 pitches so this never allocates.
func (s *State) hold(note uint8) {
	i, found := slices.BinarySearch(s.held, note)
	if found {
		return
	}
	s.held = slices.Insert(s.held, i, note)
}

// release removes note from the held set
func (s *State) release(note uint8) {
	s.held = slices.DeleteFunc(s.held, func(n uint8) bool { return n == note })
}

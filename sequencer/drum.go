package sequencer

import "electone/midi"

// playDrumStep emits the drum hits for the current step. On the downbeat
// after a fill the resolution hits replace the pattern; otherwise the
// armed fill (falling back to the variation when the fill id is unknown)
// or the variation plays.
func (s *State) playDrumStep(ds *DrumStyle, out []midi.Event) []midi.Event {
	if s.Step == 0 && s.Resolution > 0 {
		resolved := len(ds.Resolution) > 0
		for _, h := range ds.Resolution {
			out = s.drums.play(out, h.Note, h.Velocity)
		}
		s.Resolution = 0
		s.releaseDeferredFill()
		if resolved {
			return out
		}
	}

	target := s.drumTarget(ds)
	if target == nil {
		return out
	}

	for _, tr := range target.Tracks {
		if s.Step >= len(tr.Steps) || tr.Steps[s.Step] == 0 {
			continue
		}
		vel := tr.Steps[s.Step]
		if vel == 1 {
			vel = DefaultVelocity
		}
		out = s.drums.play(out, tr.Note, vel)
	}
	return out
}

// drumTarget picks the pattern for this step and advances the fill state
// on the last step of the bar
func (s *State) drumTarget(ds *DrumStyle) *DrumPattern {
	if s.Fill > 0 {
		if fill, ok := ds.Fill(s.Fill); ok {
			if s.Step == ds.Steps-1 {
				s.Resolution = s.Fill
				s.Fill = NoFill
			}
			return fill
		}
	}
	if v, ok := ds.Variation(s.Variation); ok {
		return v
	}
	return nil
}

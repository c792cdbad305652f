package sequencer

import (
	"electone/midi"
)

// Sink receives the engine's outbound events, in emission order. Send is
// called while the engine lock is held, so it must only hand events off
// (midi.Output queues them) and must not keep the slice.
type Sink interface {
	Send(events ...midi.Event)
}

// Options fixes the engine's output channels (0-based)
type Options struct {
	DrumChannel  uint8
	AcompChannel uint8
}

// DefaultOptions returns drums on channel 10 and accompaniment on 5
// (0-based 9 and 4)
func DefaultOptions() Options {
	return Options{
		DrumChannel:  9,
		AcompChannel: 4,
	}
}

package midi

import (
	"fmt"

	"electone/debug"

	gomidi "gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/drivers"
)

// Handler receives decoded input. Each method is called on the driver's
// callback thread and must return quickly.
type Handler interface {
	Clock()
	Start()
	Stop()
	NoteOn(channel, note, velocity uint8)
	NoteOff(channel, note uint8)
	ControlChange(channel, controller, value uint8)
}

// Source listens on one input port and dispatches to a Handler
type Source struct {
	id       string
	inPort   drivers.In
	handler  Handler
	stopFunc func()
}

// NewSource wraps an input port. Call Open to start listening.
func NewSource(id string, inPort drivers.In, h Handler) *Source {
	return &Source{id: id, inPort: inPort, handler: h}
}

// Open starts listening. Clock and transport (realtime) messages are
// enabled, since the rtmidi driver filters them by default.
func (s *Source) Open() error {
	if s.inPort == nil {
		return fmt.Errorf("open input %s: no port", s.id)
	}
	stop, err := gomidi.ListenTo(s.inPort, func(msg gomidi.Message, timestampms int32) {
		s.Dispatch(msg)
	}, gomidi.UseTimeCode(), gomidi.HandleError(func(err error) {
		debug.Log("input", "%s: %v", s.id, err)
	}))
	if err != nil {
		return fmt.Errorf("open input %s: %w", s.id, err)
	}
	s.stopFunc = stop
	return nil
}

func (s *Source) ID() string {
	return s.id
}

// Dispatch decodes one message and calls the matching handler method
func (s *Source) Dispatch(msg gomidi.Message) {
	var channel, note, velocity uint8
	var cc, value uint8

	switch {
	case msg.Is(gomidi.TimingClockMsg):
		s.handler.Clock()
	case msg.Is(gomidi.StartMsg), msg.Is(gomidi.ContinueMsg):
		s.handler.Start()
	case msg.Is(gomidi.StopMsg):
		s.handler.Stop()
	case msg.GetNoteStart(&channel, &note, &velocity):
		s.handler.NoteOn(channel, note, velocity)
	case msg.GetNoteEnd(&channel, &note):
		s.handler.NoteOff(channel, note)
	case msg.GetControlChange(&channel, &cc, &value):
		s.handler.ControlChange(channel, cc, value)
	}
}

func (s *Source) Close() error {
	if s.stopFunc != nil {
		s.stopFunc()
		s.stopFunc = nil
	}
	return nil
}

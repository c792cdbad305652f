package midi

import (
	"fmt"

	gomidi "gitlab.com/gomidi/midi/v2"
)

// MIDI message types
const (
	NoteOn        uint8 = 0x90
	NoteOff       uint8 = 0x80
	CC            uint8 = 0xB0
	ProgramChange uint8 = 0xC0
	SysEx         uint8 = 0xF0
	Realtime      uint8 = 0xF8 // clock, start, continue, stop passed through unchanged
)

// Control change numbers used by the engine and the router
const (
	CCBankSelect     uint8 = 0
	CCModulation     uint8 = 1
	CCPortamentoTime uint8 = 5
	CCVolume         uint8 = 7
	CCPortamento     uint8 = 65
	CCAllNotesOff    uint8 = 123
)

// Event is one outbound channel voice or control message. Value is the
// velocity for notes, the value for CC and the program for program change.
// Raw carries pass-through bytes for SysEx and Realtime.
type Event struct {
	Type    uint8
	Channel uint8 // 0-15
	Note    uint8 // key for notes, controller number for CC
	Value   uint8
	Raw     []byte
}

// Note builds a note event: velocity 0 is a note-off
func Note(channel, note, velocity uint8) Event {
	if velocity == 0 {
		return Event{Type: NoteOff, Channel: channel, Note: note}
	}
	return Event{Type: NoteOn, Channel: channel, Note: note, Value: velocity}
}

// Control builds a control change event
func Control(channel, controller, value uint8) Event {
	return Event{Type: CC, Channel: channel, Note: controller, Value: value}
}

// Program builds a program change event
func Program(channel, program uint8) Event {
	return Event{Type: ProgramChange, Channel: channel, Value: program}
}

// Message converts the event to its gomidi wire form
func (e Event) Message() gomidi.Message {
	switch e.Type {
	case NoteOn:
		return gomidi.NoteOn(e.Channel, e.Note, e.Value)
	case NoteOff:
		return gomidi.NoteOff(e.Channel, e.Note)
	case CC:
		return gomidi.ControlChange(e.Channel, e.Note, e.Value)
	case ProgramChange:
		return gomidi.ProgramChange(e.Channel, e.Value)
	case SysEx:
		return gomidi.SysEx(e.Raw)
	case Realtime:
		return gomidi.Message(e.Raw)
	}
	return nil
}

func (e Event) String() string {
	switch e.Type {
	case NoteOn:
		return fmt.Sprintf("note-on ch=%d key=%d vel=%d", e.Channel, e.Note, e.Value)
	case NoteOff:
		return fmt.Sprintf("note-off ch=%d key=%d", e.Channel, e.Note)
	case CC:
		return fmt.Sprintf("cc ch=%d num=%d val=%d", e.Channel, e.Note, e.Value)
	case ProgramChange:
		return fmt.Sprintf("program ch=%d prog=%d", e.Channel, e.Value)
	case SysEx:
		return fmt.Sprintf("sysex % X", e.Raw)
	case Realtime:
		return fmt.Sprintf("realtime % X", e.Raw)
	}
	return fmt.Sprintf("unknown type=0x%02X", e.Type)
}

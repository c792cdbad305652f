// Package control maps the performer's hardware onto the sequencer and
// the synth: the organ's selector buttons and sound buttons, and the fader
// box's mixer.
package control

import (
	"sync"

	"electone/debug"
	"electone/midi"
	"electone/sequencer"
)

// Organ controller numbers
const (
	CCLowerSound  uint8 = 51
	CCUpperSound  uint8 = 52
	CCLeadSound   uint8 = 54
	CCStyle       uint8 = 55
	CCVariation   uint8 = 56
	CCFill        uint8 = 57
	CCAcomp       uint8 = 58
	CCLeadVibrato uint8 = 17 // also on the fader box
)

// Fader box controller numbers
const (
	CCDrumVolume   uint8 = 12
	CCUpperVolume  uint8 = 3
	CCLowerVolume  uint8 = 2
	CCLeadVolume   uint8 = 4
	CCAcompVolume  uint8 = 6
	CCMasterVolume uint8 = 13
	CCOctaveUp     uint8 = 27
	CCOctaveDown   uint8 = 37
	CCQuit         uint8 = 44
)

// Engine is the part of the sequencer the router drives
type Engine interface {
	Clock()
	Start()
	Stop()
	NoteInput(note uint8, on bool)
	SetStyle(id int)
	SetVariation(id int)
	SetFill(id int)
	SetAcompPattern(id int)
	ChangeOctave(delta int)
}

// Channels are the 0-based MIDI channels of each part
type Channels struct {
	AcompInput uint8
	Drums      uint8
	Upper      uint8
	Lower      uint8
	Lead       uint8
	Acomp      uint8
}

// Mixer is what the router last sent for each part. Sound ids are -1 until
// a patch is selected.
type Mixer struct {
	Drums, Upper, Lower, Lead, Acomp, Master uint8
	UpperSound, LowerSound, LeadSound        int
}

// Router turns controller input into engine calls and synth messages.
// Its methods may be called from several driver callbacks at once.
type Router struct {
	engine Engine
	out    sequencer.Sink
	sounds *Sounds
	ch     Channels
	quit   func()

	mu  sync.Mutex
	mix Mixer
}

// NewRouter creates a router. quit is called when the quit button is
// pressed and may be nil.
func NewRouter(engine Engine, out sequencer.Sink, sounds *Sounds, ch Channels, quit func()) *Router {
	if sounds == nil {
		sounds = NewSounds()
	}
	return &Router{
		engine: engine,
		out:    out,
		sounds: sounds,
		ch:     ch,
		quit:   quit,
		mix: Mixer{
			Drums: 100, Upper: 100, Lower: 100, Lead: 100, Acomp: 100, Master: 127,
			UpperSound: -1, LowerSound: -1, LeadSound: -1,
		},
	}
}

// Mixer returns a copy of the current levels and sound selections
func (r *Router) Mixer() Mixer {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.mix
}

// Organ handles a control change from the organ
func (r *Router) Organ(cc, val uint8) {
	switch cc {
	case CCLowerSound:
		r.applySound(r.sounds.General, int(val), r.ch.Lower, &r.mix.LowerSound)
	case CCUpperSound:
		r.applySound(r.sounds.General, int(val), r.ch.Upper, &r.mix.UpperSound)
	case CCLeadSound:
		r.applySound(r.sounds.Lead, int(val), r.ch.Lead, &r.mix.LeadSound)
	case CCStyle:
		r.engine.SetStyle(int(val))
	case CCVariation:
		r.engine.SetVariation(int(val))
	case CCFill:
		if val > 0 {
			r.engine.SetFill(int(val))
		}
	case CCAcomp:
		r.engine.SetAcompPattern(int(val))
	case CCLeadVibrato:
		r.out.Send(midi.Control(r.ch.Lead, midi.CCModulation, val))
	}
}

// Faders handles a control change from the fader box
func (r *Router) Faders(cc, val uint8) {
	switch cc {
	case CCQuit:
		if val == 127 && r.quit != nil {
			debug.Log("control", "quit requested")
			r.quit()
		}
	case CCDrumVolume:
		r.volume(r.ch.Drums, val, &r.mix.Drums)
	case CCUpperVolume:
		r.volume(r.ch.Upper, val, &r.mix.Upper)
	case CCLowerVolume:
		r.volume(r.ch.Lower, val, &r.mix.Lower)
	case CCLeadVolume:
		r.volume(r.ch.Lead, val, &r.mix.Lead)
	case CCAcompVolume:
		r.volume(r.ch.Acomp, val, &r.mix.Acomp)
	case CCOctaveUp:
		if val == 127 {
			r.engine.ChangeOctave(1)
		}
	case CCOctaveDown:
		if val == 127 {
			r.engine.ChangeOctave(-1)
		}
	case CCMasterVolume:
		r.mu.Lock()
		r.mix.Master = val
		r.mu.Unlock()
		r.out.Send(MasterVolume(val))
	case CCLeadVibrato:
		r.out.Send(midi.Control(r.ch.Lead, midi.CCModulation, val))
	}
}

// MasterVolume builds the universal real-time master volume message
// (F0 7F 7F 04 01 00 vv F7; only the MSB is set)
func MasterVolume(val uint8) midi.Event {
	return midi.Event{Type: midi.SysEx, Raw: []byte{0x7F, 0x7F, 0x04, 0x01, 0x00, val & 0x7F}}
}

func (r *Router) volume(channel, val uint8, level *uint8) {
	r.mu.Lock()
	*level = val
	r.mu.Unlock()
	r.out.Send(midi.Control(channel, midi.CCVolume, val))
}

func (r *Router) applySound(lib map[int]SoundPatch, id int, channel uint8, selected *int) {
	p, ok := lib[id]
	if !ok {
		debug.Log("control", "no sound %d for channel %d", id, channel)
		return
	}
	r.mu.Lock()
	*selected = id
	r.mu.Unlock()
	r.out.Send(p.Events(channel)...)
	debug.Log("control", "sound %d on channel %d: bank=%d program=%d", id, channel, p.Bank, p.Program)
}

// OrganInput returns the handler for the organ port: realtime messages go
// through to the synth before reaching the engine, notes on the
// accompaniment channel feed the held notes.
func (r *Router) OrganInput() midi.Handler {
	return organInput{r}
}

// FaderInput returns the handler for the fader box port
func (r *Router) FaderInput() midi.Handler {
	return faderInput{r}
}

var (
	clockByte = []byte{0xF8}
	startByte = []byte{0xFA}
	stopByte  = []byte{0xFC}
)

type organInput struct{ r *Router }

func (o organInput) Clock() {
	o.r.out.Send(midi.Event{Type: midi.Realtime, Raw: clockByte})
	o.r.engine.Clock()
}

func (o organInput) Start() {
	o.r.engine.Start()
	o.r.out.Send(midi.Event{Type: midi.Realtime, Raw: startByte})
}

func (o organInput) Stop() {
	o.r.engine.Stop()
	o.r.out.Send(midi.Event{Type: midi.Realtime, Raw: stopByte})
}

func (o organInput) NoteOn(channel, note, velocity uint8) {
	if channel == o.r.ch.AcompInput {
		o.r.engine.NoteInput(note, true)
	}
}

func (o organInput) NoteOff(channel, note uint8) {
	if channel == o.r.ch.AcompInput {
		o.r.engine.NoteInput(note, false)
	}
}

func (o organInput) ControlChange(channel, cc, val uint8) {
	o.r.Organ(cc, val)
}

// faderInput ignores everything but control changes
type faderInput struct{ r *Router }

func (faderInput) Clock()               {}
func (faderInput) Start()               {}
func (faderInput) Stop()                {}
func (faderInput) NoteOn(_, _, _ uint8) {}
func (faderInput) NoteOff(_, _ uint8)   {}

func (f faderInput) ControlChange(channel, cc, val uint8) {
	f.r.Faders(cc, val)
}

package sequencer

import (
	"sync"

	"electone/debug"
	"electone/midi"
)

// Engine is the arrangement sequencer. Every public method takes the one
// engine lock, updates state, and hands the resulting events to the sink
// before releasing it, so events from different callers never interleave
// and silencing always precedes the new notes of a step.
//
// The clock source, the note input and the selector controls may call in
// from different goroutines.
type Engine struct {
	mu    sync.Mutex
	store *Store
	sink  Sink
	opts  Options
	st    State
	out   []midi.Event // reused emission buffer
	wrap  int          // tick count that resets to zero, 0 never

	updates chan struct{}
}

// New creates an engine that owns store from now on
func New(store *Store, sink Sink, opts Options) *Engine {
	if store == nil {
		store = NewStore()
	}
	return &Engine{
		store: store,
		sink:  sink,
		opts:  opts,
		st:    newState(opts),
		out:   make([]midi.Event, 0, 512),
		wrap:  wrapTicks(store),

		updates: make(chan struct{}, 1),
	}
}

// Updates signals after every step and selector change. Signals coalesce
// when nobody is reading.
func (e *Engine) Updates() <-chan struct{} {
	return e.updates
}

func (e *Engine) notify() {
	select {
	case e.updates <- struct{}{}:
	default:
	}
}

// begin locks the engine and resets the emission buffer
func (e *Engine) begin() {
	e.mu.Lock()
	e.out = e.out[:0]
}

// end flushes pending events to the sink and unlocks
func (e *Engine) end() {
	if len(e.out) > 0 && e.sink != nil {
		e.sink.Send(e.out...)
	}
	e.mu.Unlock()
	e.notify()
}

// Start resets the transport to the top of the bar and starts playback.
// All-notes-off goes out on both channels regardless of what is tracked.
func (e *Engine) Start() {
	e.begin()
	e.st.Tick = 0
	e.st.Step = 0
	e.st.Resolution = 0
	e.st.releaseDeferredFill()
	e.out = append(e.out,
		midi.Control(e.opts.DrumChannel, midi.CCAllNotesOff, 0),
		midi.Control(e.opts.AcompChannel, midi.CCAllNotesOff, 0),
	)
	e.st.Playing = true
	e.end()
	debug.Log("transport", "start")
}

// Stop halts playback and silences every sounding note
func (e *Engine) Stop() {
	e.begin()
	e.st.Playing = false
	e.st.Resolution = 0
	e.st.releaseDeferredFill()
	e.out = e.st.silenceAll(e.out)
	e.end()
	debug.Log("transport", "stop")
}

// Panic silences every tracked note without touching the transport
func (e *Engine) Panic() {
	e.begin()
	e.out = e.st.silenceAll(e.out)
	e.end()
}

// Clock handles one clock pulse. Every PulsesPerStep pulses the previous
// step is silenced and the next step plays.
func (e *Engine) Clock() {
	e.begin()
	if !e.st.Playing {
		e.mu.Unlock()
		return
	}

	stepped := e.st.Tick%PulsesPerStep == 0
	if stepped {
		e.boundary()
	}

	e.st.Tick++
	if e.wrap > 0 && e.st.Tick >= e.wrap {
		e.st.Tick = 0
	}
	if len(e.out) > 0 && e.sink != nil {
		e.sink.Send(e.out...)
	}
	step := e.st.Step
	e.mu.Unlock()
	if stepped {
		e.notify()
		debug.LogEvery(16, "clock", "step=%d", step)
	}
}

func (e *Engine) boundary() {
	e.out = e.st.silenceAll(e.out)

	ds, ok := e.store.Drum(e.st.Style)
	if !ok || ds.Steps <= 0 {
		return
	}
	e.st.Step = (e.st.Tick / PulsesPerStep) % ds.Steps
	e.out = e.st.playDrumStep(ds, e.out)

	if as, ok := e.store.Acomp(e.st.Style); ok {
		e.out = e.st.playAcompStep(as, e.out)
	}
}

// NoteInput updates the held notes from the accompaniment input channel
func (e *Engine) NoteInput(note uint8, on bool) {
	e.begin()
	if on {
		e.st.hold(note)
	} else {
		e.st.release(note)
	}
	e.end()
}

// SetStyle selects the style. If the current accompaniment pattern exists
// in the new style its program is sent right away.
func (e *Engine) SetStyle(id int) {
	e.begin()
	e.st.Style = id
	e.programChange()
	e.end()
	debug.Log("select", "style=%d", id)
}

// SetVariation selects the base drum pattern
func (e *Engine) SetVariation(id int) {
	e.begin()
	e.st.Variation = id
	e.end()
	debug.Log("select", "variation=%d", id)
}

// SetFill arms a fill for the rest of the bar. NoFill is ignored, and a
// fill requested while a resolution is pending waits for it to play.
func (e *Engine) SetFill(id int) {
	if id == NoFill {
		return
	}
	e.begin()
	if e.st.Resolution > 0 {
		e.st.DeferredFill = id
	} else {
		e.st.Fill = id
	}
	e.end()
	debug.Log("select", "fill=%d", id)
}

// SetAcompPattern selects the accompaniment pattern and sends its program
func (e *Engine) SetAcompPattern(id int) {
	e.begin()
	e.st.AcompPattern = id
	e.programChange()
	e.end()
	debug.Log("select", "acomp=%d", id)
}

// ChangeOctave shifts the accompaniment by delta octaves, within ±3
func (e *Engine) ChangeOctave(delta int) {
	e.begin()
	e.st.Octave = min(max(e.st.Octave+delta, MinOctave), MaxOctave)
	e.end()
}

func (e *Engine) programChange() {
	as, ok := e.store.Acomp(e.st.Style)
	if !ok {
		return
	}
	if ap, ok := as.Pattern(e.st.AcompPattern); ok {
		e.out = append(e.out, midi.Program(e.opts.AcompChannel, ap.Program))
	}
}

// Snapshot returns a copy of the current state
func (e *Engine) Snapshot() Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.st.snapshot()
}

// Store returns the style library
func (e *Engine) Store() *Store {
	return e.store
}

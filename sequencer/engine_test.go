package sequencer

import (
	"math/rand"
	"reflect"
	"slices"
	"sync"
	"testing"

	"electone/midi"
)

type recorder struct {
	mu     sync.Mutex
	events []midi.Event
}

func (r *recorder) Send(events ...midi.Event) {
	r.mu.Lock()
	r.events = append(r.events, events...)
	r.mu.Unlock()
}

// take returns and clears the recorded events
func (r *recorder) take() []midi.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	ev := r.events
	r.events = nil
	return ev
}

const (
	drumCh  = 9
	acompCh = 4
)

func track(note uint8, steps ...uint8) DrumTrack {
	return DrumTrack{Note: note, Steps: steps}
}

// testStore has style 1: a 16 step bar, variation 0 with a kick on every
// quarter, fill 1 with a snare on every step, resolution crash 49 at 110
func testStore() *Store {
	ds := NewDrumStyle(16)
	ds.Variations[0] = &DrumPattern{Tracks: []DrumTrack{
		track(36, 1, 0, 0, 0, 1, 0, 0, 0, 1, 0, 0, 0, 1, 0, 0, 0),
	}}
	ds.Fills[1] = &DrumPattern{Tracks: []DrumTrack{
		track(38, 90, 90, 90, 90, 90, 90, 90, 90, 90, 90, 90, 90, 90, 90, 90, 90),
	}}
	ds.Resolution = []Hit{{Note: 49, Velocity: 110}}

	s := NewStore()
	s.SetDrumStyle(1, ds)
	return s
}

func newTestEngine(store *Store) (*Engine, *recorder) {
	rec := &recorder{}
	return New(store, rec, Options{DrumChannel: drumCh, AcompChannel: acompCh}), rec
}

// advance plays n whole steps
func advance(e *Engine, n int) {
	for i := 0; i < n*PulsesPerStep; i++ {
		e.Clock()
	}
}

func noteOns(events []midi.Event, channel uint8) []uint8 {
	var notes []uint8
	for _, ev := range events {
		if ev.Type == midi.NoteOn && ev.Channel == channel {
			notes = append(notes, ev.Note)
		}
	}
	return notes
}

func TestHeldNotesStaySortedAndUnique(t *testing.T) {
	e, _ := newTestEngine(testStore())
	rng := rand.New(rand.NewSource(1))
	for i := 0; i < 5000; i++ {
		e.NoteInput(uint8(48+rng.Intn(24)), rng.Intn(3) > 0)
		held := e.Snapshot().Held
		if !slices.IsSorted(held) {
			t.Fatalf("held notes not sorted after %d inputs: %v", i, held)
		}
		if len(slices.Compact(slices.Clone(held))) != len(held) {
			t.Fatalf("held notes have duplicates after %d inputs: %v", i, held)
		}
	}
}

func TestNoteOffRemovesPitch(t *testing.T) {
	e, _ := newTestEngine(testStore())
	for _, n := range []uint8{67, 60, 64, 60} {
		e.NoteInput(n, true)
	}
	e.NoteInput(64, false)
	e.NoteInput(72, false) // not held
	if got := e.Snapshot().Held; !reflect.DeepEqual(got, []uint8{60, 67}) {
		t.Fatalf("got %v, expected [60 67]", got)
	}
}

func TestStopClearsSoundingNotes(t *testing.T) {
	store := testStore()
	as := &AcompStyle{}
	as.Patterns[0] = &AcompPattern{Mode: ModeChord, Velocity: 80, Steps: 1, Pattern: []int{1}}
	store.SetAcompStyle(1, as)

	e, rec := newTestEngine(store)
	e.SetStyle(1)
	e.NoteInput(60, true)
	e.NoteInput(64, true)
	e.Start()
	advance(e, 1)

	snap := e.Snapshot()
	if len(snap.DrumSounding) == 0 || len(snap.AcompSounding) == 0 {
		t.Fatalf("expected sounding notes before stop, got %+v", snap)
	}
	rec.take()

	e.Stop()
	snap = e.Snapshot()
	if len(snap.DrumSounding) != 0 || len(snap.AcompSounding) != 0 {
		t.Fatalf("sounding notes left after stop: %+v", snap)
	}
	want := []midi.Event{midi.Note(drumCh, 36, 0), midi.Note(acompCh, 60, 0), midi.Note(acompCh, 64, 0)}
	if got := rec.take(); !reflect.DeepEqual(got, want) {
		t.Fatalf("stop emitted %v, expected %v", got, want)
	}
}

func TestClockWhileStoppedDoesNothing(t *testing.T) {
	e, rec := newTestEngine(testStore())
	e.SetStyle(1)
	rec.take()
	before := e.Snapshot()
	advance(e, 4)
	if after := e.Snapshot(); !reflect.DeepEqual(before, after) {
		t.Fatalf("state changed while stopped: %+v -> %+v", before, after)
	}
	if got := rec.take(); len(got) != 0 {
		t.Fatalf("events emitted while stopped: %v", got)
	}
}

func TestStartSendsAllNotesOff(t *testing.T) {
	e, rec := newTestEngine(testStore())
	e.Start()
	want := []midi.Event{
		midi.Control(drumCh, midi.CCAllNotesOff, 0),
		midi.Control(acompCh, midi.CCAllNotesOff, 0),
	}
	if got := rec.take(); !reflect.DeepEqual(got, want) {
		t.Fatalf("got %v, expected %v", got, want)
	}
	if !e.Snapshot().Playing {
		t.Fatal("not playing after start")
	}
}

func TestStepIndexVisitsBarOnce(t *testing.T) {
	e, _ := newTestEngine(testStore())
	e.SetStyle(1)
	e.Start()

	var steps []int
	for pulse := 0; pulse < 96; pulse++ {
		e.Clock()
		if pulse%PulsesPerStep == 0 {
			steps = append(steps, e.Snapshot().Step)
		}
	}
	want := []int{0, 1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14, 15}
	if !reflect.DeepEqual(steps, want) {
		t.Fatalf("got steps %v, expected %v", steps, want)
	}

	e.Clock()
	if got := e.Snapshot().Step; got != 0 {
		t.Fatalf("after 97 pulses got step %d, expected 0", got)
	}
}

func TestTickWrapKeepsStepContinuous(t *testing.T) {
	e, _ := newTestEngine(testStore())
	e.SetStyle(1)
	e.Start()
	e.mu.Lock()
	e.st.Tick = e.wrap - PulsesPerStep
	e.mu.Unlock()

	advance(e, 1)
	if got := e.Snapshot(); got.Step != 15 || got.Tick != 0 {
		t.Fatalf("before wrap: step %d tick %d, expected step 15 tick 0", got.Step, got.Tick)
	}
	e.Clock()
	if got := e.Snapshot().Step; got != 0 {
		t.Fatalf("after wrap got step %d, expected 0", got)
	}
}

func TestTickWrapLongBars(t *testing.T) {
	long := NewDrumStyle(32)
	long.Variations[0] = &DrumPattern{}
	store := NewStore()
	store.SetDrumStyle(1, long)
	as := &AcompStyle{}
	as.Patterns[0] = &AcompPattern{Steps: 24, Pattern: []int{1}}
	store.SetAcompStyle(1, as)

	tests := []struct {
		name  string
		start func(e *Engine) int
		want  []int
	}{
		{"past the old bound", func(e *Engine) int { return tickBound - 3*PulsesPerStep }, []int{13, 14, 15, 16, 17}},
		{"across the wrap", func(e *Engine) int { return e.wrap - 3*PulsesPerStep }, []int{29, 30, 31, 0, 1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e, _ := newTestEngine(store)
			if e.wrap%(PulsesPerStep*32) != 0 || e.wrap%(PulsesPerStep*24) != 0 {
				t.Fatalf("wrap %d is not a whole number of bars", e.wrap)
			}
			e.SetStyle(1)
			e.Start()
			e.mu.Lock()
			e.st.Tick = tt.start(e)
			e.mu.Unlock()

			var got []int
			for i := 0; i < len(tt.want); i++ {
				advance(e, 1)
				got = append(got, e.Snapshot().Step)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Fatalf("got steps %v, expected %v", got, tt.want)
			}
		})
	}
}

func TestWrapTicks(t *testing.T) {
	if got := wrapTicks(NewStore()); got != tickBound {
		t.Errorf("empty store: got %d, expected %d", got, tickBound)
	}
	if got := wrapTicks(testStore()); got != tickBound {
		t.Errorf("16 steps: got %d, expected %d", got, tickBound)
	}

	// pairwise coprime lengths push the common cycle past maxCycle
	store := NewStore()
	for i, n := range []int{101, 103, 107, 109, 113, 127} {
		store.SetDrumStyle(i, NewDrumStyle(n))
	}
	if got := wrapTicks(store); got != 0 {
		t.Errorf("huge cycle: got %d, expected no wrap", got)
	}
}

func TestDrumVelocities(t *testing.T) {
	ds := NewDrumStyle(2)
	ds.Variations[0] = &DrumPattern{Tracks: []DrumTrack{
		track(36, 1, 0),
		track(38, 0, 1),
		track(42, 64, 127),
		track(46, 1), // shorter than the bar
	}}
	store := NewStore()
	store.SetDrumStyle(0, ds)

	e, rec := newTestEngine(store)
	e.Start()
	rec.take()

	advance(e, 1)
	want := []midi.Event{midi.Note(drumCh, 36, 100), midi.Note(drumCh, 42, 64), midi.Note(drumCh, 46, 100)}
	if got := rec.take(); !reflect.DeepEqual(got, want) {
		t.Fatalf("step 0: got %v, expected %v", got, want)
	}

	advance(e, 1)
	want = []midi.Event{
		midi.Note(drumCh, 36, 0), midi.Note(drumCh, 42, 0), midi.Note(drumCh, 46, 0),
		midi.Note(drumCh, 38, 100), midi.Note(drumCh, 42, 127),
	}
	if got := rec.take(); !reflect.DeepEqual(got, want) {
		t.Fatalf("step 1: got %v, expected %v", got, want)
	}
}

func TestSilenceComesBeforeNewNotes(t *testing.T) {
	e, rec := newTestEngine(testStore())
	e.SetStyle(1)
	e.Start()
	e.SetFill(1) // snare on every step
	advance(e, 1)
	rec.take()

	advance(e, 1)
	got := rec.take()
	want := []midi.Event{midi.Note(drumCh, 38, 0), midi.Note(drumCh, 38, 90)}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %v, expected %v", got, want)
	}
}

func TestFillThenResolution(t *testing.T) {
	store := testStore()
	ds, _ := store.Drum(1)
	ds.Resolution = []Hit{{Note: 60, Velocity: 100}}

	e, rec := newTestEngine(store)
	e.SetStyle(1)
	e.Start()
	e.SetFill(1)
	if got := e.Snapshot().FillState; got != FillArmed {
		t.Fatalf("got %v, expected fill armed", got)
	}

	advance(e, 15)
	rec.take()
	advance(e, 1) // last step of the bar
	if got := noteOns(rec.take(), drumCh); !reflect.DeepEqual(got, []uint8{38}) {
		t.Fatalf("last step played %v, expected the fill snare", got)
	}
	snap := e.Snapshot()
	if snap.Fill != NoFill || snap.Resolution != 1 || snap.FillState != FillResolutionPending {
		t.Fatalf("after fill: fill=%d resolution=%d state=%v", snap.Fill, snap.Resolution, snap.FillState)
	}

	advance(e, 1) // downbeat
	got := rec.take()
	want := []midi.Event{midi.Note(drumCh, 38, 0), midi.Note(drumCh, 60, 100)}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("downbeat: got %v, expected %v", got, want)
	}
	if snap := e.Snapshot(); snap.Resolution != 0 || snap.FillState != FillNormal {
		t.Fatalf("resolution not cleared: %+v", snap)
	}

	advance(e, 4) // back on the variation
	if got := noteOns(rec.take(), drumCh); !reflect.DeepEqual(got, []uint8{36}) {
		t.Fatalf("after resolution got %v, expected the variation kick", got)
	}
}

func TestEmptyResolutionPlaysPattern(t *testing.T) {
	store := testStore()
	ds, _ := store.Drum(1)
	ds.Resolution = nil

	e, rec := newTestEngine(store)
	e.SetStyle(1)
	e.Start()
	e.SetFill(1)
	advance(e, 16)
	rec.take()

	advance(e, 1)
	if got := noteOns(rec.take(), drumCh); !reflect.DeepEqual(got, []uint8{36}) {
		t.Fatalf("got %v, expected the variation on the downbeat", got)
	}
	if got := e.Snapshot().Resolution; got != 0 {
		t.Fatalf("resolution still pending: %d", got)
	}
}

func TestUnknownFillFallsBackToVariation(t *testing.T) {
	e, rec := newTestEngine(testStore())
	e.SetStyle(1)
	e.Start()
	e.SetFill(7)
	rec.take()

	advance(e, 16)
	if got := noteOns(rec.take(), drumCh); !reflect.DeepEqual(got, []uint8{36, 36, 36, 36}) {
		t.Fatalf("got %v, expected the variation", got)
	}
	snap := e.Snapshot()
	if snap.Fill != 7 || snap.Resolution != 0 {
		t.Fatalf("unknown fill changed state: %+v", snap)
	}
}

func TestNoFillIsIgnored(t *testing.T) {
	e, _ := newTestEngine(testStore())
	e.SetFill(1)
	e.SetFill(NoFill)
	if got := e.Snapshot().Fill; got != 1 {
		t.Fatalf("got fill %d, expected 1", got)
	}
}

func TestFillDuringResolutionIsDeferred(t *testing.T) {
	store := testStore()
	ds, _ := store.Drum(1)
	ds.Fills[2] = &DrumPattern{Tracks: []DrumTrack{track(50, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1)}}

	e, rec := newTestEngine(store)
	e.SetStyle(1)
	e.Start()
	e.SetFill(1)
	advance(e, 16)

	e.SetFill(2)
	snap := e.Snapshot()
	if snap.Resolution != 1 || snap.Fill != NoFill || snap.DeferredFill != 2 {
		t.Fatalf("fill not deferred: %+v", snap)
	}
	rec.take()

	advance(e, 1) // resolution
	if got := noteOns(rec.take(), drumCh); !reflect.DeepEqual(got, []uint8{49}) {
		t.Fatalf("downbeat got %v, expected the resolution crash", got)
	}
	snap = e.Snapshot()
	if snap.Fill != 2 || snap.DeferredFill != 0 || snap.FillState != FillArmed {
		t.Fatalf("deferred fill not armed: %+v", snap)
	}

	advance(e, 1)
	if got := noteOns(rec.take(), drumCh); !reflect.DeepEqual(got, []uint8{50}) {
		t.Fatalf("got %v, expected the deferred fill", got)
	}
}

func TestStopDropsPendingResolution(t *testing.T) {
	e, _ := newTestEngine(testStore())
	e.SetStyle(1)
	e.Start()
	e.SetFill(1)
	advance(e, 16)
	e.SetFill(1)
	e.Stop()
	snap := e.Snapshot()
	if snap.Resolution != 0 || snap.Fill != 1 || snap.DeferredFill != 0 {
		t.Fatalf("got %+v", snap)
	}
}

func TestMissingStyleIsSilent(t *testing.T) {
	e, rec := newTestEngine(testStore())
	e.SetStyle(99)
	e.Start()
	rec.take()
	advance(e, 4)
	if got := rec.take(); len(got) != 0 {
		t.Fatalf("missing style emitted %v", got)
	}
	e.SetStyle(1)
	e.SetVariation(5)
	advance(e, 4)
	if got := rec.take(); len(got) != 0 {
		t.Fatalf("missing variation emitted %v", got)
	}
}

func TestUpdatesSignalOnStepsOnly(t *testing.T) {
	e, _ := newTestEngine(testStore())
	e.SetStyle(1)
	e.Start()
	<-e.Updates()

	e.Clock() // boundary
	select {
	case <-e.Updates():
	default:
		t.Fatal("no update after a step")
	}
	for i := 1; i < PulsesPerStep; i++ {
		e.Clock()
	}
	select {
	case <-e.Updates():
		t.Fatal("update between steps")
	default:
	}
}

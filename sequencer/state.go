package sequencer

// PulsesPerStep is the clock divisor: 24 PPQN clock, 16th-note steps
const PulsesPerStep = 6

// tickBound is how far the tick counter runs before it may wrap
const tickBound = PulsesPerStep * 720720

// maxCycle caps the common step cycle; past it the counter never wraps
const maxCycle = 1 << 40

// wrapTicks returns the tick count at which the counter resets to zero: the
// first whole number of cycles of every step count in store at or past
// tickBound, so no derived step index jumps. 0 means never wrap.
func wrapTicks(store *Store) int {
	cycle := 1
	for _, n := range store.stepCounts() {
		cycle = lcm(cycle, n)
		if cycle > maxCycle {
			return 0
		}
	}
	span := PulsesPerStep * cycle
	return (tickBound + span - 1) / span * span
}

func lcm(a, b int) int {
	x, y := a, b
	for y != 0 {
		x, y = y, x%y
	}
	return a / x * b
}

// Octave shift bounds
const (
	MinOctave = -3
	MaxOctave = 3
)

// FillState is the drum fill protocol:
//
//	Normal            --SetFill(f)------------------> FillArmed(f)
//	FillArmed(f)      --SetFill(g)------------------> FillArmed(g)
//	FillArmed(f)      --last step, f is a fill------> ResolutionPending(f)
//	FillArmed(f)      --f unknown-------------------> FillArmed(f), variation plays
//	ResolutionPending --SetFill(g)------------------> ResolutionPending, g deferred
//	ResolutionPending --step 0----------------------> Normal, or FillArmed(g) if deferred
//	any               --Start/Stop------------------> pending resolution dropped, deferred fill armed
type FillState int

const (
	FillNormal FillState = iota
	FillArmed
	FillResolutionPending
)

func (f FillState) String() string {
	switch f {
	case FillNormal:
		return "normal"
	case FillArmed:
		return "fill"
	case FillResolutionPending:
		return "resolution"
	}
	return "unknown"
}

// voice tracks the notes currently sounding on one output channel
type voice struct {
	channel  uint8
	sounding []uint8
}

// State is the engine's runtime state. It is owned by one Engine and only
// touched with the engine lock held.
type State struct {
	Playing bool
	Tick    int
	Step    int

	Style        int
	Variation    int
	Fill         int
	AcompPattern int
	Resolution   int // fill id whose resolution plays on the next downbeat, 0 none
	DeferredFill int // fill requested while a resolution was pending
	Octave       int

	held  []uint8
	drums voice
	acomp voice
}

func newState(opts Options) State {
	return State{
		held:  make([]uint8, 0, 128),
		drums: voice{channel: opts.DrumChannel, sounding: make([]uint8, 0, 128)},
		acomp: voice{channel: opts.AcompChannel, sounding: make([]uint8, 0, 128)},
	}
}

// FillState derives the protocol state from the selectors
func (s *State) FillState() FillState {
	switch {
	case s.Resolution > 0:
		return FillResolutionPending
	case s.Fill > 0:
		return FillArmed
	}
	return FillNormal
}

// releaseDeferredFill arms a fill that was requested during a pending
// resolution
func (s *State) releaseDeferredFill() {
	if s.DeferredFill > 0 {
		s.Fill = s.DeferredFill
		s.DeferredFill = 0
	}
}

// Snapshot is a copy of the state for display and tests
type Snapshot struct {
	Playing      bool
	Tick         int
	Step         int
	Style        int
	Variation    int
	Fill         int
	AcompPattern int
	Resolution   int
	DeferredFill int
	FillState    FillState
	Octave       int

	Held          []uint8
	DrumSounding  []uint8
	AcompSounding []uint8
}

func (s *State) snapshot() Snapshot {
	return Snapshot{
		Playing:       s.Playing,
		Tick:          s.Tick,
		Step:          s.Step,
		Style:         s.Style,
		Variation:     s.Variation,
		Fill:          s.Fill,
		AcompPattern:  s.AcompPattern,
		Resolution:    s.Resolution,
		DeferredFill:  s.DeferredFill,
		FillState:     s.FillState(),
		Octave:        s.Octave,
		Held:          append([]uint8(nil), s.held...),
		DrumSounding:  append([]uint8(nil), s.drums.sounding...),
		AcompSounding: append([]uint8(nil), s.acomp.sounding...),
	}
}

package sequencer

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"electone/midi"
)

func TestRegistrationFiles(t *testing.T) {
	dir := t.TempDir()
	t0 := time.Date(2025, 3, 1, 20, 15, 0, 0, time.Local)

	first, err := SaveRegistration(dir, Registration{Style: 1, Variation: 2}, t0)
	if err != nil {
		t.Fatal(err)
	}
	second, err := SaveRegistration(dir, Registration{Name: "bossa nova: slow", Style: 3, Octave: -1}, t0.Add(time.Minute))
	if err != nil {
		t.Fatal(err)
	}
	if second != "2025-03-01_20-16-00_bossa-nova--slow.json" {
		t.Fatalf("got file name %q", second)
	}
	// not a registration
	if err := os.WriteFile(filepath.Join(dir, "notes.json"), []byte("{}"), 0644); err != nil {
		t.Fatal(err)
	}

	regs, err := ListRegistrations(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(regs) != 2 || regs[0].Filename != second || regs[1].Filename != first {
		t.Fatalf("got %+v", regs)
	}
	if regs[0].Name != "bossa-nova--slow" || regs[1].Name != "" {
		t.Fatalf("names: got %q and %q", regs[0].Name, regs[1].Name)
	}

	newest, err := LoadRegistration(dir, "")
	if err != nil {
		t.Fatal(err)
	}
	want := Registration{Name: "bossa nova: slow", Style: 3, Octave: -1}
	if !reflect.DeepEqual(newest, want) {
		t.Fatalf("got %+v", newest)
	}
	older, err := LoadRegistration(dir, first)
	if err != nil || older.Variation != 2 {
		t.Fatalf("got %+v, %v", older, err)
	}
}

func TestListRegistrationsMissingDir(t *testing.T) {
	regs, err := ListRegistrations(filepath.Join(t.TempDir(), "none"))
	if err != nil || len(regs) != 0 {
		t.Fatalf("got %v, %v", regs, err)
	}
	if _, err := LoadRegistration(filepath.Join(t.TempDir(), "none"), ""); err == nil {
		t.Fatal("expected an error with nothing saved")
	}
}

func TestRecall(t *testing.T) {
	store := testStore()
	as := &AcompStyle{}
	as.Patterns[1] = &AcompPattern{Program: 33, Mode: ModeChord, Velocity: 90, Steps: 1, Pattern: []int{1}}
	store.SetAcompStyle(1, as)

	e, rec := newTestEngine(store)
	e.Recall(Registration{Style: 1, Variation: 0, AcompPattern: 1, Octave: 9})

	if got := rec.take(); !reflect.DeepEqual(got, []midi.Event{midi.Program(acompCh, 33)}) {
		t.Fatalf("got %v, expected one program change", got)
	}
	got := e.Registration()
	want := Registration{Style: 1, AcompPattern: 1, Octave: MaxOctave}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %+v, expected %+v", got, want)
	}
}

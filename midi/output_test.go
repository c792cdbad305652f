package midi_test

import (
	"bytes"
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"electone/midi"

	gomidi "gitlab.com/gomidi/midi/v2"
)

type wire struct {
	mu   sync.Mutex
	msgs [][]byte
	fail bool
}

func (w *wire) send(msg gomidi.Message) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.fail {
		return errors.New("port gone")
	}
	w.msgs = append(w.msgs, append([]byte(nil), msg...))
	return nil
}

func (w *wire) snapshot() [][]byte {
	w.mu.Lock()
	defer w.mu.Unlock()
	return append([][]byte(nil), w.msgs...)
}

func runOutput(t *testing.T, out *midi.Output) func() {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		out.Run(ctx)
		close(done)
	}()
	return func() {
		cancel()
		select {
		case <-done:
		case <-time.After(time.Second):
			t.Fatal("output did not stop")
		}
	}
}

func TestOutputPreservesOrder(t *testing.T) {
	w := &wire{}
	out := midi.NewOutput(w.send, 4)
	stop := runOutput(t, out)

	var sent []midi.Event
	for i := uint8(0); i < 32; i++ {
		e := midi.Note(9, 36+i%8, i%2*100)
		sent = append(sent, e)
		out.Send(e)
	}
	stop()

	got := w.snapshot()
	if len(got) != len(sent) {
		t.Fatalf("got %d messages, expected %d", len(got), len(sent))
	}
	for i, e := range sent {
		if !bytes.Equal(got[i], e.Message()) {
			t.Fatalf("message %d: got % X, expected % X", i, got[i], []byte(e.Message()))
		}
	}
	if written, _, _ := out.Stats(); written != 32 {
		t.Fatalf("written: got %d", written)
	}
}

func TestOutputWithoutSenderDrops(t *testing.T) {
	out := midi.NewOutput(nil, 8)
	out.Send(midi.Note(0, 60, 100), midi.Note(0, 60, 0))
	stop := runOutput(t, out)
	stop()
	if _, dropped, _ := out.Stats(); dropped != 2 {
		t.Fatalf("dropped: got %d, expected 2", dropped)
	}
}

func TestOutputCountsErrorsAndContinues(t *testing.T) {
	w := &wire{fail: true}
	out := midi.NewOutput(w.send, 8)
	out.Send(midi.Program(4, 1))
	stop := runOutput(t, out)
	stop()
	if _, _, errs := out.Stats(); errs != 1 {
		t.Fatalf("errors: got %d, expected 1", errs)
	}
	if got := out.Errors(); got != 1 {
		t.Fatalf("Errors(): got %d, expected 1", got)
	}

	w.fail = false
	out.SetSender(w.send)
	out.Send(midi.Program(4, 2))
	stop = runOutput(t, out)
	stop()
	if got := w.snapshot(); len(got) != 1 || !bytes.Equal(got[0], []byte{0xC4, 2}) {
		t.Fatalf("got %v after recovery", got)
	}
}

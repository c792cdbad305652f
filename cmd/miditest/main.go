package main

import (
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"time"

	"gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/drivers"
	_ "gitlab.com/gomidi/midi/v2/drivers/rtmididrv"

	"electone/config"
	"electone/control"
	emidi "electone/midi"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		return
	}

	switch os.Args[1] {
	case "list":
		listPorts()
	case "detect":
		detectConfigured()
	case "monitor":
		monitor(arg(2, "Maple"))
	case "clock":
		bpm, err := strconv.Atoi(arg(3, "120"))
		if err != nil || bpm <= 0 {
			fmt.Println("bpm must be a positive number")
			return
		}
		sendClock(arg(2, "FLUID"), bpm)
	case "volume":
		v, err := strconv.Atoi(arg(3, "100"))
		if err != nil || v < 0 || v > 127 {
			fmt.Println("volume must be 0-127")
			return
		}
		masterVolume(arg(2, "FLUID"), uint8(v))
	case "poll":
		pollDevices()
	default:
		usage()
	}
}

func arg(i int, def string) string {
	if len(os.Args) > i {
		return os.Args[i]
	}
	return def
}

func usage() {
	fmt.Println("MIDI Test Scripts")
	fmt.Println("")
	fmt.Println("Commands:")
	fmt.Println("  list                  - List all MIDI ports")
	fmt.Println("  detect                - Check the ports named in the config")
	fmt.Println("  monitor [port]        - Print clock, transport, notes and CC from an input")
	fmt.Println("  clock [port] [bpm]    - Send start and 24 PPQN clock to an output")
	fmt.Println("  volume [port] [0-127] - Send universal master volume")
	fmt.Println("  poll                  - Poll for device changes")
}

type ports struct {
	ins  []drivers.In
	outs []drivers.Out
}

// scan lists ports, giving up after 3 seconds (CoreMIDI can hang)
func scan() (ports, bool) {
	ch := make(chan ports, 1)
	go func() {
		ch <- ports{ins: midi.GetInPorts(), outs: midi.GetOutPorts()}
	}()
	select {
	case r := <-ch:
		return r, true
	case <-time.After(3 * time.Second):
		fmt.Println("\nTIMEOUT! The MIDI system is not answering.")
		return ports{}, false
	}
}

func names[P interface{ String() string }](ps []P) []string {
	out := make([]string, len(ps))
	for i, p := range ps {
		out[i] = p.String()
	}
	return out
}

func listPorts() {
	fmt.Println("=== MIDI Input Ports ===")
	fmt.Println("(waiting up to 3 seconds...)")

	r, ok := scan()
	if !ok {
		return
	}
	for i, p := range r.ins {
		fmt.Printf("  %d: %s\n", i, p.String())
	}
	fmt.Println("\n=== MIDI Output Ports ===")
	for i, p := range r.outs {
		fmt.Printf("  %d: %s\n", i, p.String())
	}
}

func detectConfigured() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Config error: %v (using defaults)\n", err)
		cfg = config.DefaultConfig()
	}

	r, ok := scan()
	if !ok {
		return
	}
	ins, outs := names(r.ins), names(r.outs)

	check := func(label, pattern string, list []string) {
		if idx := emidi.MatchPort(list, pattern); idx >= 0 {
			fmt.Printf("  %-10s %q -> %s\n", label, pattern, list[idx])
		} else {
			fmt.Printf("  %-10s %q -> not found\n", label, pattern)
		}
	}
	check("input", cfg.Ports.Input, ins)
	check("controller", cfg.Ports.Controller, ins)
	check("output", cfg.Ports.Output, outs)
}

// printer is a Handler that prints everything it receives
type printer struct {
	clocks int
}

func (p *printer) Clock() {
	p.clocks++
	if p.clocks%24 == 0 {
		fmt.Printf("clock  beat %d\n", p.clocks/24)
	}
}

func (p *printer) Start() {
	p.clocks = 0
	fmt.Println("start")
}

func (p *printer) Stop() { fmt.Println("stop") }

func (p *printer) NoteOn(ch, note, vel uint8) {
	fmt.Printf("note-on  ch=%-2d key=%-3d vel=%d\n", ch, note, vel)
}

func (p *printer) NoteOff(ch, note uint8) {
	fmt.Printf("note-off ch=%-2d key=%d\n", ch, note)
}

func (p *printer) ControlChange(ch, cc, val uint8) {
	fmt.Printf("cc       ch=%-2d num=%-3d val=%d\n", ch, cc, val)
}

func monitor(pattern string) {
	r, ok := scan()
	if !ok {
		return
	}
	idx := emidi.MatchPort(names(r.ins), pattern)
	if idx < 0 {
		fmt.Printf("No input matching %q\n", pattern)
		return
	}

	src := emidi.NewSource(r.ins[idx].String(), r.ins[idx], &printer{})
	if err := src.Open(); err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	defer src.Close()

	fmt.Printf("Monitoring %s. Ctrl+C to exit.\n", src.ID())
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt)
	<-sig
}

func openOutput(pattern string) (func(midi.Message) error, string, bool) {
	r, ok := scan()
	if !ok {
		return nil, "", false
	}
	idx := emidi.MatchPort(names(r.outs), pattern)
	if idx < 0 {
		fmt.Printf("No output matching %q\n", pattern)
		return nil, "", false
	}
	send, err := midi.SendTo(r.outs[idx])
	if err != nil {
		fmt.Printf("Error opening port: %v\n", err)
		return nil, "", false
	}
	return send, r.outs[idx].String(), true
}

func sendClock(pattern string, bpm int) {
	send, name, ok := openOutput(pattern)
	if !ok {
		return
	}

	fmt.Printf("Clocking %s at %d BPM. Press Enter to stop.\n", name, bpm)
	send(midi.Start())

	done := make(chan struct{})
	go func() {
		fmt.Scanln()
		close(done)
	}()

	ticker := time.NewTicker(time.Minute / time.Duration(bpm*24))
	defer ticker.Stop()
	for {
		select {
		case <-done:
			send(midi.Stop())
			fmt.Println("Stopped")
			return
		case <-ticker.C:
			send(midi.TimingClock())
		}
	}
}

func masterVolume(pattern string, v uint8) {
	send, name, ok := openOutput(pattern)
	if !ok {
		return
	}
	msg := control.MasterVolume(v).Message()
	fmt.Printf("Sending % X to %s\n", []byte(msg), name)
	if err := send(msg); err != nil {
		fmt.Printf("Error: %v\n", err)
	}
}

func pollDevices() {
	fmt.Println("Polling for device changes every 2 seconds...")
	fmt.Println("Connect/disconnect devices to test. Ctrl+C to exit.")

	lastIn := ""
	lastOut := ""

	for {
		r, ok := scan()
		if !ok {
			time.Sleep(2 * time.Second)
			continue
		}
		inNames, outNames := names(r.ins), names(r.outs)

		currentIn := strings.Join(inNames, ",")
		currentOut := strings.Join(outNames, ",")

		if currentIn != lastIn || currentOut != lastOut {
			fmt.Printf("\n[%s] Device change detected!\n", time.Now().Format("15:04:05"))
			fmt.Printf("  Inputs: %v\n", inNames)
			fmt.Printf("  Outputs: %v\n", outNames)

			lastIn = currentIn
			lastOut = currentOut
		}

		time.Sleep(2 * time.Second)
	}
}

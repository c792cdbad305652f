package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	_ "gitlab.com/gomidi/midi/v2/drivers/rtmididrv"

	"electone/config"
	"electone/control"
	"electone/debug"
	"electone/midi"
	"electone/sequencer"
	"electone/styles"
	"electone/theme"
	"electone/tui"
)

func main() {
	configPath := flag.String("config", "", "config file (default ~/.config/electone/config.json)")
	headless := flag.Bool("headless", false, "run without the terminal display")
	debugLog := flag.Bool("debug", false, "write ~/.config/electone/debug.log")
	palettePath := flag.String("palette", "", "GIMP palette (.gpl) for the display")
	flag.Parse()

	cfg, err := loadConfig(*configPath)
	if err != nil {
		fmt.Printf("Error: config: %v\n", err)
		os.Exit(1)
	}

	if *debugLog || cfg.Debug {
		if err := debug.Enable(); err != nil {
			fmt.Printf("Warning: debug log: %v\n", err)
		}
		defer debug.Disable()
	}

	fmt.Println("electone")

	// Broken styles are left out and reported; the engine plays silence for
	// missing styles.
	store, err := styles.Load(resolve(cfg.Files.Rhythms), resolve(cfg.Files.Chords))
	if err != nil {
		fmt.Printf("Warning: styles: %v\n", err)
	}
	fmt.Printf("  %d rhythms, %d accompaniment styles\n", len(store.DrumIDs()), len(store.AcompIDs()))

	sounds, err := control.LoadSounds(resolve(cfg.Files.Sounds))
	if err != nil {
		fmt.Printf("Warning: sounds: %v\n", err)
		sounds = control.NewSounds()
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	out := midi.NewOutput(nil, cfg.OutputQueue)
	writerDone := make(chan struct{})
	go func() {
		out.Run(ctx)
		close(writerDone)
	}()

	engine := sequencer.New(store, out, sequencer.Options{
		DrumChannel:  cfg.Channels.DrumOut,
		AcompChannel: cfg.Channels.AcompOut,
	})

	// quit is replaced once the display exists
	quit := cancel
	router := control.NewRouter(engine, out, sounds, control.Channels{
		AcompInput: cfg.Channels.AcompInput,
		Drums:      cfg.Channels.DrumOut,
		Upper:      cfg.Channels.Upper,
		Lower:      cfg.Channels.Lower,
		Lead:       cfg.Channels.Lead,
		Acomp:      cfg.Channels.AcompOut,
	}, func() { quit() })

	deviceMgr := midi.NewDeviceManager(out,
		midi.Binding{Role: midi.RoleInput, Match: cfg.Ports.Input, Handler: router.OrganInput()},
		midi.Binding{Role: midi.RoleController, Match: cfg.Ports.Controller, Handler: router.FaderInput()},
		midi.Binding{Role: midi.RoleOutput, Match: cfg.Ports.Output},
	)

	fmt.Printf("  waiting for %q (organ), %q (faders), %q (synth)\n",
		cfg.Ports.Input, cfg.Ports.Controller, cfg.Ports.Output)

	if *headless {
		go deviceMgr.Run(ctx)
		runHeadless(ctx, deviceMgr)
	} else {
		th := theme.New(nil)
		if *palettePath != "" {
			palette, err := theme.LoadGPL(*palettePath)
			if err != nil {
				fmt.Printf("Warning: palette: %v\n", err)
			} else {
				th = theme.New(palette)
			}
		}

		m := tui.NewModel(engine, router, out, deviceMgr, th)
		if dir, err := sequencer.RegistrationsDir(); err == nil {
			m.Registrations = dir
		}
		p := tea.NewProgram(m, tea.WithAltScreen())
		quit = func() { p.Send(tui.QuitMsg{}) }

		go deviceMgr.Run(ctx)
		if _, err := p.Run(); err != nil {
			fmt.Printf("Error: %v\n", err)
		}
	}

	engine.Stop()
	cancel()
	<-writerDone
}

// runHeadless prints device changes until interrupted or ctx is done
func runHeadless(ctx context.Context, deviceMgr *midi.DeviceManager) {
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sig)

	events := deviceMgr.Events()
	for {
		select {
		case <-sig:
			return
		case <-ctx.Done():
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			state := "connected"
			if ev.Type == midi.DeviceDisconnected {
				state = "disconnected"
			}
			fmt.Printf("  %s %s: %s\n", ev.Role, state, ev.ID)
		}
	}
}

func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.LoadFile(path)
	}
	return config.Load()
}

// resolve finds a data file in the working directory, then in the config
// directory
func resolve(name string) string {
	if filepath.IsAbs(name) {
		return name
	}
	if _, err := os.Stat(name); err == nil {
		return name
	}
	if dir, err := config.ConfigDir(); err == nil {
		return filepath.Join(dir, name)
	}
	return name
}

package tui

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"electone/control"
	"electone/midi"
	"electone/sequencer"
	"electone/theme"
	"electone/widgets"
)

// refreshRate redraws mixer and output counters, which change without an
// engine update
const refreshRate = 250 * time.Millisecond

type Model struct {
	Engine    *sequencer.Engine
	Router    *control.Router
	Output    *midi.Output
	DeviceMgr *midi.DeviceManager
	Theme     *theme.Theme

	// Registrations is the directory for saved panel setups ("" disables)
	Registrations string

	devices  map[midi.PortRole]string
	status   string
	showHelp bool
	quitting bool
}

type UpdateMsg struct{}

type DeviceEventMsg midi.DeviceEvent

type refreshMsg time.Time

// QuitMsg asks the program to exit (sent by the fader box quit button)
type QuitMsg struct{}

func NewModel(engine *sequencer.Engine, router *control.Router, out *midi.Output, deviceMgr *midi.DeviceManager, th *theme.Theme) Model {
	return Model{
		Engine:    engine,
		Router:    router,
		Output:    out,
		DeviceMgr: deviceMgr,
		Theme:     th,
		devices:   make(map[midi.PortRole]string),
	}
}

func ListenForUpdates(engine *sequencer.Engine) tea.Cmd {
	return func() tea.Msg {
		<-engine.Updates()
		return UpdateMsg{}
	}
}

func ListenForDevices(deviceMgr *midi.DeviceManager) tea.Cmd {
	return func() tea.Msg {
		event, ok := <-deviceMgr.Events()
		if !ok {
			return nil
		}
		return DeviceEventMsg(event)
	}
}

func refresh() tea.Cmd {
	return tea.Tick(refreshRate, func(t time.Time) tea.Msg {
		return refreshMsg(t)
	})
}

func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{ListenForUpdates(m.Engine), refresh()}
	if m.DeviceMgr != nil {
		cmds = append(cmds, ListenForDevices(m.DeviceMgr))
	}
	return tea.Batch(cmds...)
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		snap := m.Engine.Snapshot()
		store := m.Engine.Store()

		switch msg.String() {
		case "q", "ctrl+c":
			m.quitting = true
			m.Engine.Stop()
			return m, tea.Quit

		case "s":
			m.Engine.SetStyle(cycle(store.DrumIDs(), snap.Style, 1))
		case "S":
			m.Engine.SetStyle(cycle(store.DrumIDs(), snap.Style, -1))

		case "v":
			m.Engine.SetVariation(cycle(variations(store, snap.Style), snap.Variation, 1))
		case "V":
			m.Engine.SetVariation(cycle(variations(store, snap.Style), snap.Variation, -1))

		case "f":
			m.Engine.SetFill(1)

		case "a":
			m.Engine.SetAcompPattern(cycle(acompPatterns(store, snap.Style), snap.AcompPattern, 1))
		case "A":
			m.Engine.SetAcompPattern(cycle(acompPatterns(store, snap.Style), snap.AcompPattern, -1))

		case "o":
			m.Engine.ChangeOctave(1)
		case "O":
			m.Engine.ChangeOctave(-1)

		case "x":
			m.Engine.Panic()

		case "w":
			m.status = m.saveRegistration()
		case "r":
			m.status = m.recallRegistration()

		case "?":
			m.showHelp = !m.showHelp
		}

	case QuitMsg:
		m.quitting = true
		m.Engine.Stop()
		return m, tea.Quit

	case UpdateMsg:
		return m, ListenForUpdates(m.Engine)

	case refreshMsg:
		return m, refresh()

	case DeviceEventMsg:
		event := midi.DeviceEvent(msg)
		if event.Type == midi.DeviceConnected {
			m.devices[event.Role] = event.ID
		} else if m.devices[event.Role] == event.ID {
			delete(m.devices, event.Role)
		}
		if m.DeviceMgr == nil {
			return m, nil
		}
		return m, ListenForDevices(m.DeviceMgr)
	}

	return m, nil
}

func (m Model) saveRegistration() string {
	if m.Registrations == "" {
		return "registrations disabled"
	}
	name, err := sequencer.SaveRegistration(m.Registrations, m.Engine.Registration(), time.Now())
	if err != nil {
		return fmt.Sprintf("save failed: %v", err)
	}
	return "saved " + name
}

func (m Model) recallRegistration() string {
	if m.Registrations == "" {
		return "registrations disabled"
	}
	reg, err := sequencer.LoadRegistration(m.Registrations, "")
	if err != nil {
		return fmt.Sprintf("recall failed: %v", err)
	}
	m.Engine.Recall(reg)
	return fmt.Sprintf("recalled style %d var %d acomp %d", reg.Style, reg.Variation, reg.AcompPattern)
}

// cycle steps through ids from cur, wrapping. cur need not be in ids.
func cycle(ids []int, cur, dir int) int {
	if len(ids) == 0 {
		return cur
	}
	for i, id := range ids {
		if id == cur {
			return ids[(i+dir+len(ids))%len(ids)]
		}
		if id > cur {
			if dir > 0 {
				return id
			}
			return ids[(i-1+len(ids))%len(ids)]
		}
	}
	if dir > 0 {
		return ids[0]
	}
	return ids[len(ids)-1]
}

func variations(store *sequencer.Store, style int) []int {
	ds, ok := store.Drum(style)
	if !ok {
		return nil
	}
	var ids []int
	for id, p := range ds.Variations {
		if p != nil {
			ids = append(ids, id)
		}
	}
	return ids
}

func acompPatterns(store *sequencer.Store, style int) []int {
	as, ok := store.Acomp(style)
	if !ok {
		return nil
	}
	var ids []int
	for id, p := range as.Patterns {
		if p != nil {
			ids = append(ids, id)
		}
	}
	return ids
}

// stepVelocities returns the loudest hit of each step of the pattern that
// is playing, and whether it is a fill
func stepVelocities(store *sequencer.Store, snap sequencer.Snapshot) ([]uint8, bool) {
	ds, ok := store.Drum(snap.Style)
	if !ok || ds.Steps <= 0 {
		return nil, false
	}
	p, fill := ds.Fill(snap.Fill)
	if !fill {
		if p, ok = ds.Variation(snap.Variation); !ok {
			return make([]uint8, ds.Steps), false
		}
	}
	vels := make([]uint8, ds.Steps)
	for _, tr := range p.Tracks {
		for i, v := range tr.Steps {
			if i >= ds.Steps {
				break
			}
			if v == 1 {
				v = sequencer.DefaultVelocity
			}
			vels[i] = max(vels[i], v)
		}
	}
	return vels, fill
}

func (m Model) View() string {
	if m.quitting {
		return ""
	}

	snap := m.Engine.Snapshot()
	store := m.Engine.Store()

	headerStyle := lipgloss.NewStyle().Foreground(m.Theme.Accent()).Bold(true)
	labelStyle := lipgloss.NewStyle().Foreground(m.Theme.Muted())
	valueStyle := lipgloss.NewStyle().Foreground(m.Theme.FG())
	warnStyle := lipgloss.NewStyle().Foreground(m.Theme.Warning())
	okStyle := lipgloss.NewStyle().Foreground(m.Theme.Success())

	playState := warnStyle.Render("STOP")
	if snap.Playing {
		playState = okStyle.Render("PLAY")
	}
	header := headerStyle.Render("electone") + "  " + playState

	field := func(label string, v any) string {
		return labelStyle.Render(label+" ") + valueStyle.Render(fmt.Sprint(v))
	}

	fill := snap.FillState.String()
	switch snap.FillState {
	case sequencer.FillArmed:
		fill = fmt.Sprintf("fill %d", snap.Fill)
	case sequencer.FillResolutionPending:
		fill = fmt.Sprintf("resolution %d", snap.Resolution)
		if snap.DeferredFill > 0 {
			fill += fmt.Sprintf(" (next fill %d)", snap.DeferredFill)
		}
	}
	selectors := strings.Join([]string{
		field("style", snap.Style),
		field("var", snap.Variation),
		field("acomp", snap.AcompPattern),
		field("oct", fmt.Sprintf("%+d", snap.Octave)),
		field("drums", fill),
	}, "  ")

	vels, isFill := stepVelocities(store, snap)
	playhead := -1
	if snap.Playing {
		playhead = snap.Step
	}
	steps := labelStyle.Render("step    ")
	if vels == nil {
		steps += warnStyle.Render(fmt.Sprintf("no rhythm for style %d", snap.Style))
	} else {
		steps += widgets.RenderStepRow(m.Theme, vels, playhead, isFill)
	}

	held := make([]string, len(snap.Held))
	for i, n := range snap.Held {
		held[i] = sequencer.PitchName(n)
	}
	hits := make([]string, len(snap.DrumSounding))
	for i, n := range snap.DrumSounding {
		hits[i] = sequencer.DrumName(n)
	}
	notes := labelStyle.Render("held    ") + valueStyle.Render(strings.Join(held, " ")) + "\n" +
		labelStyle.Render("drums   ") + valueStyle.Render(strings.Join(hits, ", "))

	var mixer string
	if m.Router != nil {
		mix := m.Router.Mixer()
		mixer = strings.Join([]string{
			widgets.RenderMeter(m.Theme, "drums", mix.Drums, 16),
			widgets.RenderMeter(m.Theme, "upper", mix.Upper, 16),
			widgets.RenderMeter(m.Theme, "lower", mix.Lower, 16),
			widgets.RenderMeter(m.Theme, "lead", mix.Lead, 16),
			widgets.RenderMeter(m.Theme, "acomp", mix.Acomp, 16),
			widgets.RenderMeter(m.Theme, "master", mix.Master, 16),
		}, "\n")
	}

	var devs []string
	for _, role := range []midi.PortRole{midi.RoleInput, midi.RoleController, midi.RoleOutput} {
		if id, ok := m.devices[role]; ok {
			devs = append(devs, okStyle.Render("● ")+field(role.String(), id))
		} else {
			devs = append(devs, warnStyle.Render("○ ")+labelStyle.Render(role.String()+" waiting"))
		}
	}
	if m.Output != nil {
		written, dropped, errs := m.Output.Stats()
		devs = append(devs, labelStyle.Render(fmt.Sprintf("sent %d  dropped %d  errors %d  queued %d",
			written, dropped, errs, m.Output.Pending())))
	}

	help := labelStyle.Render("s/S style  v/V var  f fill  a/A acomp  o/O octave  w/r save/recall  x panic  ? keys  q quit")
	if m.showHelp {
		help = labelStyle.Render(widgets.RenderKeyHelp(keyHelp))
	}

	var out strings.Builder
	out.WriteString("\n")
	out.WriteString(header)
	out.WriteString("\n\n")
	out.WriteString(selectors)
	out.WriteString("\n")
	out.WriteString(steps)
	out.WriteString("\n\n")
	out.WriteString(notes)
	out.WriteString("\n\n")
	if mixer != "" {
		out.WriteString(mixer)
		out.WriteString("\n\n")
	}
	out.WriteString(strings.Join(devs, "\n"))
	out.WriteString("\n\n")
	if m.status != "" {
		out.WriteString(valueStyle.Render(m.status))
		out.WriteString("\n")
	}
	out.WriteString(help)
	return out.String()
}

var keyHelp = []widgets.KeySection{
	{Title: "Style", Keys: []widgets.KeyBinding{
		{Key: "s / S", Desc: "next / previous style"},
		{Key: "v / V", Desc: "next / previous variation"},
		{Key: "f", Desc: "fill at the end of the bar"},
	}},
	{Title: "Accompaniment", Keys: []widgets.KeyBinding{
		{Key: "a / A", Desc: "next / previous pattern"},
		{Key: "o / O", Desc: "octave up / down"},
	}},
	{Title: "Registration", Keys: []widgets.KeyBinding{
		{Key: "w", Desc: "save the current setup"},
		{Key: "r", Desc: "recall the newest setup"},
	}},
	{Title: "", Keys: []widgets.KeyBinding{
		{Key: "x", Desc: "silence everything"},
		{Key: "q", Desc: "quit"},
	}},
}

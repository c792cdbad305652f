package midi

import (
	"context"
	"strings"
	"sync"
	"time"

	"electone/debug"

	gomidi "gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/drivers"
)

// PortRole identifies what a configured port is used for
type PortRole int

const (
	RoleInput      PortRole = iota // organ: clock, transport, notes, selectors
	RoleController                 // fader box
	RoleOutput                     // synth
)

func (r PortRole) String() string {
	switch r {
	case RoleInput:
		return "input"
	case RoleController:
		return "controller"
	case RoleOutput:
		return "output"
	}
	return "unknown"
}

// Binding maps a port name substring to a role. Handler is used for
// input roles only.
type Binding struct {
	Role    PortRole
	Match   string
	Handler Handler
}

// DeviceEvent is emitted when ports connect/disconnect
type DeviceEvent struct {
	Type DeviceEventType
	Role PortRole
	ID   string
}

type DeviceEventType int

const (
	DeviceConnected DeviceEventType = iota
	DeviceDisconnected
)

type connection struct {
	id     string
	source *Source // nil for the output role
}

// DeviceManager handles hot-plug detection of the configured ports
type DeviceManager struct {
	bindings []Binding
	output   *Output

	conns    map[PortRole]*connection
	mu       sync.RWMutex
	events   chan DeviceEvent
	pollRate time.Duration
}

// NewDeviceManager creates a new device manager. Output port writes are
// routed into out.
func NewDeviceManager(out *Output, bindings ...Binding) *DeviceManager {
	return &DeviceManager{
		bindings: bindings,
		output:   out,
		conns:    make(map[PortRole]*connection),
		events:   make(chan DeviceEvent, 16),
		pollRate: time.Second,
	}
}

// Events returns a channel of device connect/disconnect events
func (dm *DeviceManager) Events() <-chan DeviceEvent {
	return dm.events
}

// Connected returns the port name bound to a role ("" if none)
func (dm *DeviceManager) Connected(role PortRole) string {
	dm.mu.RLock()
	defer dm.mu.RUnlock()
	if c, ok := dm.conns[role]; ok {
		return c.id
	}
	return ""
}

// Run starts the polling loop (blocking - run in goroutine)
func (dm *DeviceManager) Run(ctx context.Context) {
	ticker := time.NewTicker(dm.pollRate)
	defer ticker.Stop()

	// Initial scan
	dm.scan()

	for {
		select {
		case <-ctx.Done():
			dm.closeAll()
			close(dm.events)
			return
		case <-ticker.C:
			dm.scan()
		}
	}
}

func (dm *DeviceManager) scan() {
	// Get current MIDI ports with timeout (CoreMIDI can hang)
	type portsResult struct {
		inPorts  []drivers.In
		outPorts []drivers.Out
	}

	ch := make(chan portsResult, 1)
	go func() {
		ch <- portsResult{inPorts: gomidi.GetInPorts(), outPorts: gomidi.GetOutPorts()}
	}()

	var result portsResult
	select {
	case result = <-ch:
	case <-time.After(3 * time.Second):
		debug.Log("devices", "port scan timed out")
		return
	}

	inNames := make([]string, len(result.inPorts))
	for i, p := range result.inPorts {
		inNames[i] = p.String()
	}
	outNames := make([]string, len(result.outPorts))
	for i, p := range result.outPorts {
		outNames[i] = p.String()
	}

	for _, b := range dm.bindings {
		var id string
		if b.Role == RoleOutput {
			if idx := MatchPort(outNames, b.Match); idx >= 0 {
				id = outNames[idx]
				dm.connectOutput(b, id, result.outPorts[idx])
			}
		} else {
			if idx := MatchPort(inNames, b.Match); idx >= 0 {
				id = inNames[idx]
				dm.connectInput(b, id, result.inPorts[idx])
			}
		}
		dm.checkDisconnect(b.Role, id)
	}
}

func (dm *DeviceManager) connectInput(b Binding, id string, port drivers.In) {
	dm.mu.RLock()
	c, exists := dm.conns[b.Role]
	dm.mu.RUnlock()
	if exists && c.id == id {
		return
	}

	src := NewSource(id, port, b.Handler)
	if err := src.Open(); err != nil {
		debug.Log("devices", "%s %s: %v", b.Role, id, err)
		return
	}

	dm.mu.Lock()
	dm.conns[b.Role] = &connection{id: id, source: src}
	dm.mu.Unlock()

	if exists && c.source != nil {
		c.source.Close()
	}

	debug.Log("devices", "%s connected: %s", b.Role, id)
	dm.events <- DeviceEvent{Type: DeviceConnected, Role: b.Role, ID: id}
}

func (dm *DeviceManager) connectOutput(b Binding, id string, port drivers.Out) {
	dm.mu.RLock()
	c, exists := dm.conns[b.Role]
	dm.mu.RUnlock()
	if exists && c.id == id {
		return
	}

	send, err := gomidi.SendTo(port)
	if err != nil {
		debug.Log("devices", "%s %s: %v", b.Role, id, err)
		return
	}
	dm.output.SetSender(send)

	dm.mu.Lock()
	dm.conns[b.Role] = &connection{id: id}
	dm.mu.Unlock()

	debug.Log("devices", "%s connected: %s", b.Role, id)
	dm.events <- DeviceEvent{Type: DeviceConnected, Role: b.Role, ID: id}
}

// checkDisconnect drops the connection for role if its port is gone
func (dm *DeviceManager) checkDisconnect(role PortRole, seen string) {
	dm.mu.Lock()
	c, ok := dm.conns[role]
	if !ok || c.id == seen {
		dm.mu.Unlock()
		return
	}
	if seen != "" {
		// replaced by a different port in this scan
		dm.mu.Unlock()
		return
	}
	delete(dm.conns, role)
	dm.mu.Unlock()

	if c.source != nil {
		c.source.Close()
	}
	if role == RoleOutput {
		dm.output.SetSender(nil)
	}
	debug.Log("devices", "%s disconnected: %s", role, c.id)
	dm.events <- DeviceEvent{Type: DeviceDisconnected, Role: role, ID: c.id}
}

func (dm *DeviceManager) closeAll() {
	dm.mu.Lock()
	defer dm.mu.Unlock()
	for _, c := range dm.conns {
		if c.source != nil {
			c.source.Close()
		}
	}
	dm.conns = make(map[PortRole]*connection)
}

// MatchPort returns the index of the first name containing pattern
// (case-insensitive), or -1
func MatchPort(names []string, pattern string) int {
	if pattern == "" {
		return -1
	}
	pattern = strings.ToLower(pattern)
	for i, name := range names {
		if strings.Contains(strings.ToLower(name), pattern) {
			return i
		}
	}
	return -1
}

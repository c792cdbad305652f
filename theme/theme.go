package theme

import "github.com/charmbracelet/lipgloss"

type Theme struct {
	Palette *Palette
	Symbols Symbols
}

type Symbols struct {
	// Step row
	StepEmpty    rune // · silent step
	StepActive   rune // ● step with a hit
	StepPlayhead rune // ▶ current step
	StepFill     rune // ◆ step played from a fill

	// Meters
	MeterFull  rune
	MeterEmpty rune
}

func New(palette *Palette) *Theme {
	if palette == nil {
		palette = Builtin()
	}
	return &Theme{
		Palette: palette,
		Symbols: Symbols{
			StepEmpty:    '·',
			StepActive:   '●',
			StepPlayhead: '▶',
			StepFill:     '◆',

			MeterFull:  '█',
			MeterEmpty: '░',
		},
	}
}

// Color roles mapped to palette positions (0-1)
const (
	RoleBG      = 0.0
	RoleMuted   = 0.2
	RoleFG      = 0.4
	RoleAccent  = 0.5
	RoleWarning = 0.8
	RoleSuccess = 1.0
)

func (t *Theme) FG() lipgloss.Color {
	return t.Palette.Lookup(RoleFG).Color()
}

func (t *Theme) Accent() lipgloss.Color {
	return t.Palette.Lookup(RoleAccent).Color()
}

func (t *Theme) Muted() lipgloss.Color {
	return t.Palette.Lookup(RoleMuted).Color()
}

func (t *Theme) Warning() lipgloss.Color {
	return t.Palette.Lookup(RoleWarning).Color()
}

func (t *Theme) Success() lipgloss.Color {
	return t.Palette.Lookup(RoleSuccess).Color()
}

// Velocity maps a MIDI velocity onto the palette, quiet hits toward the
// muted end
func (t *Theme) Velocity(vel uint8) lipgloss.Color {
	norm := RoleMuted + (1-RoleMuted)*float64(vel)/127
	return t.Palette.Lookup(norm).Color()
}

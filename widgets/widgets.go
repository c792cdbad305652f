package widgets

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"electone/theme"
)

// RenderStepRow renders one symbol per step. vels holds the loudest hit of
// each step (0 for none); playhead < 0 hides the playhead.
func RenderStepRow(th *theme.Theme, vels []uint8, playhead int, fill bool) string {
	playStyle := lipgloss.NewStyle().Foreground(th.Accent()).Bold(true)
	dimStyle := lipgloss.NewStyle().Foreground(th.Muted())

	var out strings.Builder
	for i, v := range vels {
		if i > 0 && i%4 == 0 {
			out.WriteString(" ")
		}
		switch {
		case i == playhead:
			out.WriteString(playStyle.Render(string(th.Symbols.StepPlayhead)))
		case v == 0:
			out.WriteString(dimStyle.Render(string(th.Symbols.StepEmpty)))
		default:
			sym := th.Symbols.StepActive
			if fill {
				sym = th.Symbols.StepFill
			}
			out.WriteString(lipgloss.NewStyle().Foreground(th.Velocity(v)).Render(string(sym)))
		}
	}
	return out.String()
}

// RenderMeter renders a labelled horizontal bar for a 7-bit level
func RenderMeter(th *theme.Theme, label string, level uint8, width int) string {
	full := int(level) * width / 127
	bar := lipgloss.NewStyle().Foreground(th.Velocity(level)).
		Render(strings.Repeat(string(th.Symbols.MeterFull), full))
	rest := lipgloss.NewStyle().Foreground(th.Muted()).
		Render(strings.Repeat(string(th.Symbols.MeterEmpty), width-full))
	return fmt.Sprintf("%-7s %s%s %3d", label, bar, rest, level)
}

// RenderKeyHelp formats key bindings in a friendly way
func RenderKeyHelp(sections []KeySection) string {
	var lines []string
	for _, sec := range sections {
		if sec.Title != "" {
			lines = append(lines, sec.Title)
		}
		for _, k := range sec.Keys {
			lines = append(lines, fmt.Sprintf("  %-12s %s", k.Key, k.Desc))
		}
	}
	return strings.Join(lines, "\n")
}

// KeySection groups related key bindings
type KeySection struct {
	Title string
	Keys  []KeyBinding
}

// KeyBinding is a single key and its description
type KeyBinding struct {
	Key  string
	Desc string
}

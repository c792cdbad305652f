package theme

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

type RGB [3]uint8

// Color converts to a lipgloss hex color
func (c RGB) Color() lipgloss.Color {
	return lipgloss.Color(fmt.Sprintf("#%02x%02x%02x", c[0], c[1], c[2]))
}

// Palette is an ordered color ramp. Display roles and velocities pick a
// position along it.
type Palette struct {
	Name   string
	Colors []RGB
}

// LoadGPL reads a GIMP palette file
func LoadGPL(path string) (*Palette, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	p, err := ParseGPL(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return p, nil
}

// ParseGPL decodes GIMP palette text: a "GIMP Palette" header, optional
// Name/Columns lines and "#" comments, then one "R G B [label]" per line.
func ParseGPL(r io.Reader) (*Palette, error) {
	p := &Palette{}
	scanner := bufio.NewScanner(r)
	for line := 1; scanner.Scan(); line++ {
		text := strings.TrimSpace(scanner.Text())
		switch {
		case text == "", text[0] == '#', text == "GIMP Palette", strings.HasPrefix(text, "Columns:"):
			continue
		case strings.HasPrefix(text, "Name:"):
			p.Name = strings.TrimSpace(strings.TrimPrefix(text, "Name:"))
			continue
		}

		fields := strings.Fields(text)
		if len(fields) < 3 {
			return nil, fmt.Errorf("line %d: expected R G B, got %q", line, text)
		}
		var c RGB
		for i := range c {
			v, err := strconv.Atoi(fields[i])
			if err != nil || v < 0 || v > 255 {
				return nil, fmt.Errorf("line %d: bad color component %q", line, fields[i])
			}
			c[i] = uint8(v)
		}
		p.Colors = append(p.Colors, c)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	if len(p.Colors) == 0 {
		return nil, errors.New("no colors in palette")
	}
	return p, nil
}

// Builtin is a warm organ-panel palette, dark wood to amber, used when no
// GPL file is configured
func Builtin() *Palette {
	return &Palette{
		Name: "electone",
		Colors: []RGB{
			{0x1a, 0x12, 0x0e},
			{0x3b, 0x2a, 0x20},
			{0x6b, 0x4f, 0x3a},
			{0x9c, 0x7a, 0x5b},
			{0xc8, 0x8e, 0x4a},
			{0xe0, 0x6c, 0x2e},
			{0xe8, 0x45, 0x3c},
			{0xf2, 0xa1, 0x3b},
			{0xf7, 0xd0, 0x6a},
		},
	}
}

// Lookup blends the two colors either side of pos (0 first, 1 last)
func (p *Palette) Lookup(pos float64) RGB {
	last := len(p.Colors) - 1
	if last <= 0 || pos <= 0 {
		return p.Colors[0]
	}
	if pos >= 1 {
		return p.Colors[last]
	}

	at := pos * float64(last)
	i := int(at)
	t := at - float64(i)
	var c RGB
	for k := range c {
		a, b := float64(p.Colors[i][k]), float64(p.Colors[i+1][k])
		c[k] = uint8(math.Round(a + (b-a)*t))
	}
	return c
}

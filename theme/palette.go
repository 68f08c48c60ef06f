package theme

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

type RGB [3]uint8

type Palette struct {
	Name   string
	Colors []RGB
}

// LoadGPL reads a GIMP palette file.
func LoadGPL(path string) (*Palette, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	p, err := ParseGPL(f)
	if err != nil {
		return nil, fmt.Errorf("palette %s: %w", path, err)
	}
	return p, nil
}

// ParseGPL reads "R G B [name]" rows, skipping the header and comments.
func ParseGPL(r io.Reader) (*Palette, error) {
	p := &Palette{}
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		switch {
		case strings.HasPrefix(line, "Name:"):
			p.Name = strings.TrimSpace(line[len("Name:"):])
		case line == "", line[0] == '#', strings.HasPrefix(line, "GIMP"), strings.HasPrefix(line, "Columns"):
		default:
			if c, ok := parseRGB(strings.Fields(line)); ok {
				p.Colors = append(p.Colors, c)
			}
		}
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	if len(p.Colors) == 0 {
		return nil, errors.New("no colors")
	}
	return p, nil
}

func parseRGB(fields []string) (RGB, bool) {
	var c RGB
	if len(fields) < 3 {
		return c, false
	}
	for i := range c {
		v, err := strconv.Atoi(fields[i])
		if err != nil || v < 0 || v > 255 {
			return c, false
		}
		c[i] = uint8(v)
	}
	return c, true
}

// DefaultPalette is a built-in plasma-like ramp, used when no palette file
// is configured.
func DefaultPalette() *Palette {
	return &Palette{
		Name: "builtin",
		Colors: []RGB{
			{13, 8, 135},
			{84, 2, 163},
			{139, 10, 165},
			{185, 50, 137},
			{219, 92, 104},
			{244, 136, 73},
			{254, 188, 43},
			{240, 249, 33},
		},
	}
}

// LoadOrDefault reads a GPL palette, falling back to DefaultPalette when path
// is empty or unreadable.
func LoadOrDefault(path string) (*Palette, error) {
	if path == "" {
		return DefaultPalette(), nil
	}
	p, err := LoadGPL(path)
	if err != nil {
		return DefaultPalette(), err
	}
	return p, nil
}

// Lookup interpolates along the palette for norm in 0..1.
func (p *Palette) Lookup(norm float64) RGB {
	last := len(p.Colors) - 1
	switch {
	case norm <= 0 || last == 0:
		return p.Colors[0]
	case norm >= 1:
		return p.Colors[last]
	}

	pos := norm * float64(last)
	i := int(pos)
	frac := pos - float64(i)
	var out RGB
	for ch := range out {
		out[ch] = lerp(p.Colors[i][ch], p.Colors[i+1][ch], frac)
	}
	return out
}

func lerp(a, b uint8, t float64) uint8 {
	return uint8(float64(a)*(1-t) + float64(b)*t)
}

// Index returns the colour at i, clamped to the palette.
func (p *Palette) Index(i int) RGB {
	return p.Colors[min(max(i, 0), len(p.Colors)-1)]
}

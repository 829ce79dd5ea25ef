package inkdoc

import (
	"strconv"
	"strings"
)

// PlainColor is an opaque RGB color.
// It implements color.Color.
type PlainColor struct{ R, G, B uint8 }

// Black is the fallback for invalid colors.
var Black = PlainColor{}

// RGBA implements color.Color.
func (c PlainColor) RGBA() (r, g, b, a uint32) {
	r, g, b = uint32(c.R), uint32(c.G), uint32(c.B)
	return r | r<<8, g | g<<8, b | b<<8, 0xffff
}

// ColorStatus tells how a color string was understood.
type ColorStatus uint8

const (
	ColorParsed    ColorStatus = iota // every channel was read
	ColorPartial                      // some channels defaulted to 0
	ColorDefaulted                    // unknown syntax, black is used
)

func (s ColorStatus) String() string {
	switch s {
	case ColorParsed:
		return "parsed"
	case ColorPartial:
		return "partial"
	case ColorDefaulted:
		return "defaulted"
	default:
		return "<unknown ColorStatus>"
	}
}

// ParseColor reads colors in the "#rrggbb" and "rgb(r, g, b)" forms.
// It never fails: invalid channels are set to 0, and unknown
// syntaxes give black.
func ParseColor(s string) (PlainColor, ColorStatus) {
	var (
		channels [3]string
		base     int
	)
	switch {
	case len(s) == 7 && s[0] == '#':
		channels = [3]string{s[1:3], s[3:5], s[5:7]}
		base = 16
	case strings.HasPrefix(s, "rgb("):
		inner := s
		for strings.HasPrefix(inner, "rgb(") {
			inner = inner[len("rgb("):]
		}
		inner = strings.TrimRight(inner, ")")
		parts := strings.Split(inner, ",")
		if len(parts) != 3 {
			return Black, ColorDefaulted
		}
		for i, part := range parts {
			channels[i] = strings.TrimSpace(part)
		}
		base = 10
	default:
		return Black, ColorDefaulted
	}

	var (
		rgb    [3]uint8
		status = ColorParsed
	)
	for i, ch := range channels {
		// a single sign is accepted, as in "#+f+f+f"
		v, err := strconv.ParseUint(strings.TrimPrefix(ch, "+"), base, 8)
		if err != nil {
			status = ColorPartial
			continue // channel stays at 0
		}
		rgb[i] = uint8(v)
	}
	return PlainColor{R: rgb[0], G: rgb[1], B: rgb[2]}, status
}

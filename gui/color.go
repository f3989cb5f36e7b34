package gui

import (
	"fmt"
	"image/color"
)

// parseHex turns "#rrggbb" into an opaque colour.
func parseHex(s string) (color.NRGBA, error) {
	c := color.NRGBA{A: 0xff}
	if len(s) != 7 || s[0] != '#' {
		return c, fmt.Errorf("bad colour %q", s)
	}
	if _, err := fmt.Sscanf(s[1:], "%02x%02x%02x", &c.R, &c.G, &c.B); err != nil {
		return c, fmt.Errorf("bad colour %q: %w", s, err)
	}
	return c, nil
}

func mustHex(s string) color.NRGBA {
	c, err := parseHex(s)
	if err != nil {
		panic(err)
	}
	return c
}

// withAlpha scales a colour's alpha by f in [0, 1].
func withAlpha(c color.NRGBA, f float64) color.NRGBA {
	if f < 0 {
		f = 0
	} else if f > 1 {
		f = 1
	}
	c.A = uint8(float64(c.A) * f)
	return c
}

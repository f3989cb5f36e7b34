package gui

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"math"

	"limbo/dictation"
)

const iconSize = 22

// trayIcon draws the tray icon: a ready-green dot with a dark ring.
func trayIcon() []byte {
	img := image.NewNRGBA(image.Rect(0, 0, iconSize, iconSize))
	core := mustHex(dictation.ColorReady)
	ring := mustHex(dictation.ColorBackground)

	center := float64(iconSize) / 2
	for y := 0; y < iconSize; y++ {
		for x := 0; x < iconSize; x++ {
			dx := float64(x) - center + 0.5
			dy := float64(y) - center + 0.5
			dist := math.Sqrt(dx*dx + dy*dy)

			switch {
			case dist < 6:
				img.Set(x, y, core)
			case dist < 8:
				t := (dist - 6) / 2
				img.Set(x, y, withAlpha(core, 1-t*0.6))
			case dist < 10:
				img.Set(x, y, ring)
			default:
				img.Set(x, y, color.Transparent)
			}
		}
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		panic(err)
	}
	return buf.Bytes()
}

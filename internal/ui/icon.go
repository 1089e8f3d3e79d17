package ui

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
)

// iconBytes is the tray icon, rendered once at startup: a 16x16 dark
// square with a lighter cut mark, enough to be recognisable until design
// supplies a real asset.
var iconBytes = renderIcon()

func renderIcon() []byte {
	img := image.NewRGBA(image.Rect(0, 0, 16, 16))
	bg := color.RGBA{R: 30, G: 30, B: 34, A: 255}
	fg := color.RGBA{R: 235, G: 110, B: 60, A: 255}

	for y := 0; y < 16; y++ {
		for x := 0; x < 16; x++ {
			img.SetRGBA(x, y, bg)
		}
	}
	// Diagonal cut mark.
	for i := 3; i < 13; i++ {
		img.SetRGBA(i, i, fg)
		img.SetRGBA(i, i-1, fg)
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil
	}
	return buf.Bytes()
}

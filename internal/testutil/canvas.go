package testutil

import (
	"bytes"
	"encoding/base64"
	"image"
	"image/color"
	"image/png"
)

// CanvasData returns a small white PNG encoded the way browsers send canvas
// contents (a base64 data URL).
func CanvasData() string {
	img := image.NewGray(image.Rect(0, 0, 32, 32))
	for i := range img.Pix {
		img.Pix[i] = 255
	}
	img.SetGray(16, 16, color.Gray{Y: 0})

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		panic(err)
	}
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(buf.Bytes())
}

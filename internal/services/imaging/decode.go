package imaging

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"strings"

	"golang.org/x/image/draw"

	"github.com/mcoot/drawguess/internal/model"
)

// Decode turns canvas data (a base64 image, optionally a data URL) into the
// classifier's 28x28 grayscale input scaled to [0,1].
func Decode(canvas string) (model.Image, error) {
	var out model.Image

	if i := strings.IndexByte(canvas, ','); i >= 0 {
		canvas = canvas[i+1:]
	}
	canvas = strings.TrimSpace(canvas)
	if canvas == "" {
		return out, model.ErrInvalidDrawing
	}

	raw, err := base64.StdEncoding.DecodeString(canvas)
	if err != nil {
		return out, fmt.Errorf("%w: %v", model.ErrInvalidDrawing, err)
	}

	src, _, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		return out, fmt.Errorf("%w: %v", model.ErrInvalidDrawing, err)
	}
	if src.Bounds().Empty() {
		return out, model.ErrInvalidDrawing
	}

	dst := image.NewGray(image.Rect(0, 0, model.ImageSize, model.ImageSize))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Src, nil)

	for y := 0; y < model.ImageSize; y++ {
		for x := 0; x < model.ImageSize; x++ {
			out[y*model.ImageSize+x] = float32(dst.GrayAt(x, y).Y) / 255
		}
	}
	return out, nil
}

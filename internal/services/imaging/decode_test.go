package imaging

import (
	"bytes"
	"encoding/base64"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/mcoot/drawguess/internal/model"
)

type DecodeSuite struct {
	suite.Suite
}

func TestDecodeSuite(t *testing.T) {
	suite.Run(t, new(DecodeSuite))
}

func (s *DecodeSuite) encodePNG(img image.Image) string {
	var buf bytes.Buffer
	s.Require().NoError(png.Encode(&buf, img))
	return base64.StdEncoding.EncodeToString(buf.Bytes())
}

func (s *DecodeSuite) solid(size int, c color.Color) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, size, size))
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			img.Set(x, y, c)
		}
	}
	return img
}

func (s *DecodeSuite) TestDecodeWhiteCanvas() {
	data := s.encodePNG(s.solid(280, color.White))

	img, err := Decode(data)
	s.Require().NoError(err)
	for _, v := range img {
		s.InDelta(1.0, v, 0.01)
	}
}

func (s *DecodeSuite) TestDecodeAcceptsDataURL() {
	data := "data:image/png;base64," + s.encodePNG(s.solid(64, color.Black))

	img, err := Decode(data)
	s.Require().NoError(err)
	for _, v := range img {
		s.InDelta(0.0, v, 0.01)
	}
}

func (s *DecodeSuite) TestDecodeKeepsLayout() {
	// Left half white, right half black
	src := image.NewGray(image.Rect(0, 0, 56, 56))
	for y := 0; y < 56; y++ {
		for x := 0; x < 28; x++ {
			src.SetGray(x, y, color.Gray{Y: 255})
		}
	}

	img, err := Decode(s.encodePNG(src))
	s.Require().NoError(err)
	s.InDelta(1.0, img[14*model.ImageSize+2], 0.05)
	s.InDelta(0.0, img[14*model.ImageSize+25], 0.05)
}

func (s *DecodeSuite) TestDecodeRejectsBadBase64() {
	_, err := Decode("data:image/png;base64,!!!not-base64!!!")
	s.ErrorIs(err, model.ErrInvalidDrawing)
}

func (s *DecodeSuite) TestDecodeRejectsNonImage() {
	_, err := Decode(base64.StdEncoding.EncodeToString([]byte("hello world")))
	s.ErrorIs(err, model.ErrInvalidDrawing)
}

func (s *DecodeSuite) TestDecodeRejectsEmpty() {
	_, err := Decode("")
	s.ErrorIs(err, model.ErrInvalidDrawing)

	_, err = Decode("data:image/png;base64,")
	s.ErrorIs(err, model.ErrInvalidDrawing)
}

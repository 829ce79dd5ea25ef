package inkdoc

import (
	"bytes"
	"image"
	_ "image/gif" // register decoders
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// Raster is a decoded image, stored as 8-bit RGB samples,
// row by row, without padding nor alpha.
type Raster struct {
	Width, Height int
	Pix           []uint8 // len(Pix) == 3 * Width * Height
}

// NewRaster copies `img` into a Raster, dropping the alpha channel.
// Color channels are taken as stored (not premultiplied).
func NewRaster(img image.Image) *Raster {
	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()

	nrgba := image.NewNRGBA(image.Rect(0, 0, w, h))
	draw.Draw(nrgba, nrgba.Bounds(), img, bounds.Min, draw.Src)

	out := &Raster{Width: w, Height: h, Pix: make([]uint8, 0, 3*w*h)}
	for i := 0; i < len(nrgba.Pix); i += 4 {
		out.Pix = append(out.Pix, nrgba.Pix[i], nrgba.Pix[i+1], nrgba.Pix[i+2])
	}
	return out
}

// RGBA returns an opaque image with the content of the raster.
func (r *Raster) RGBA() *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, r.Width, r.Height))
	for i, j := 0, 0; i+2 < len(r.Pix); i, j = i+3, j+4 {
		img.Pix[j], img.Pix[j+1], img.Pix[j+2], img.Pix[j+3] = r.Pix[i], r.Pix[i+1], r.Pix[i+2], 0xff
	}
	return img
}

// Decoder turns encoded image bytes into a Raster.
type Decoder interface {
	Decode(data []byte) (*Raster, error)
}

// DecoderFunc adapts a function to the Decoder interface.
type DecoderFunc func(data []byte) (*Raster, error)

// Decode implements Decoder.
func (f DecoderFunc) Decode(data []byte) (*Raster, error) { return f(data) }

// ImageDecoder decodes the formats registered in the image package:
// PNG, JPEG, GIF, BMP, TIFF and WebP.
var ImageDecoder Decoder = DecoderFunc(decodeImage)

func decodeImage(data []byte) (*Raster, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	return NewRaster(img), nil
}

// BackgroundStatus tells what happened to the background of a page.
type BackgroundStatus uint8

const (
	NoBackground       BackgroundStatus = iota // absent or empty
	BackgroundEmbedded                         // decoded and drawn
	BackgroundInvalid                          // present but not decodable, ignored
)

func (s BackgroundStatus) String() string {
	switch s {
	case NoBackground:
		return "none"
	case BackgroundEmbedded:
		return "embedded"
	case BackgroundInvalid:
		return "invalid"
	default:
		return "<unknown BackgroundStatus>"
	}
}

// decodeBackground never fails: invalid images
// are reported and ignored.
func decodeBackground(dec Decoder, data []byte) (*Raster, BackgroundStatus, error) {
	if len(data) == 0 {
		return nil, NoBackground, nil
	}
	raster, err := dec.Decode(data)
	if err != nil {
		return nil, BackgroundInvalid, err
	}
	if raster == nil || raster.Width <= 0 || raster.Height <= 0 {
		return nil, BackgroundInvalid, errEmptyImage
	}
	return raster, BackgroundEmbedded, nil
}

// Implements a raster backend to preview annotated pages,
// by wrapping rasterx.
package inkraster

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"
	"math"

	"github.com/benoitkugler/okink/inkdoc"
	"github.com/benoitkugler/okink/inkpath"
	"github.com/srwiley/rasterx"
	"golang.org/x/image/draw"
	"golang.org/x/image/math/fixed"
)

var _ inkdoc.Driver = (*Renderer)(nil) // assert interface conformance

// DefaultDPI is the resolution used when none is given.
// At 72 DPI, a page has the size of its canvas or background.
const DefaultDPI = 72.

const (
	// MaxDPI is the highest accepted resolution.
	MaxDPI = 1200.
	// MaxPagePixels bounds the size of one page image (256 MB in RGBA).
	MaxPagePixels = 1 << 26
)

var (
	// ErrInvalidDPI is returned for negative, infinite or too high resolutions.
	ErrInvalidDPI = errors.New("invalid resolution")
	// ErrPageRange is returned when previewing a page which does not exist.
	ErrPageRange = errors.New("page index out of range")
	// ErrPageTooLarge is returned when a page would exceed MaxPagePixels.
	ErrPageTooLarge = errors.New("page too large")
)

type Renderer struct {
	dpi   float64
	pages []*image.RGBA
	err   error // first page too large, further drawing is skipped

	// per page state
	dasher *rasterx.Dasher // to avoid shared state
	height float64         // current page height, in millimeters
}

// NewRenderer returns a renderer drawing pages at
// the given resolution, in dots per inch.
func NewRenderer(dpi float64) *Renderer {
	if dpi <= 0 {
		dpi = DefaultDPI
	}
	return &Renderer{dpi: dpi}
}

// Pages returns the images drawn so far, in page order.
func (rd *Renderer) Pages() []*image.RGBA { return rd.pages }

// Err returns the error which stopped the rendering, if any.
func (rd *Renderer) Err() error { return rd.err }

func (rd *Renderer) current() *image.RGBA { return rd.pages[len(rd.pages)-1] }

// mmToPx converts a length to device pixels
func (rd *Renderer) mmToPx(mm float64) float64 { return mm * rd.dpi / inkdoc.MmPerInch }

func fToFixed(x, y float64) fixed.Point26_6 {
	return fixed.Point26_6{X: fixed.Int26_6(x * 64), Y: fixed.Int26_6(y * 64)}
}

// AddPage implements inkdoc.Driver. Pages start white.
func (rd *Renderer) AddPage(size inkdoc.Size) {
	if rd.err != nil {
		return
	}
	fw, fh := math.Round(rd.mmToPx(size.W)), math.Round(rd.mmToPx(size.H))
	if fw*fh > MaxPagePixels {
		rd.err = fmt.Errorf("%w: page %d would be %.0fx%.0f pixels at %g DPI",
			ErrPageTooLarge, len(rd.pages)+1, fw, fh, rd.dpi)
		return
	}
	w, h := int(fw), int(fh)
	if w < 1 {
		w = 1
	}
	if h < 1 {
		h = 1
	}
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(img, img.Bounds(), image.White, image.Point{}, draw.Src)
	rd.pages = append(rd.pages, img)

	scanner := rasterx.NewScannerGV(w, h, img, img.Bounds())
	rd.dasher = rasterx.NewDasher(w, h, scanner)
	rd.height = size.H
}

// DrawImage implements inkdoc.Driver, scaling the raster
// to cover the whole page.
func (rd *Renderer) DrawImage(img *inkdoc.Raster) {
	if rd.err != nil {
		return
	}
	dst := rd.current()
	draw.ApproxBiLinear.Scale(dst, dst.Bounds(), img.RGBA(), image.Rect(0, 0, img.Width, img.Height), draw.Src, nil)
}

// DrawPolyline implements inkdoc.Driver.
func (rd *Renderer) DrawPolyline(path inkpath.Polyline, style inkdoc.StrokeStyle) {
	if len(path) == 0 || rd.err != nil {
		return
	}
	width := style.Width * rd.dpi / inkdoc.PixelsPerInch
	if width < 1 {
		width = 1 // keep hairlines visible
	}
	rd.dasher.Clear()
	rd.dasher.SetStroke(fixed.Int26_6(width*64), 4*64, rasterx.RoundCap, rasterx.RoundCap,
		rasterx.RoundGap, rasterx.Round, nil, 0)
	rd.dasher.Scanner.SetColor(color.Color(style.Color))

	// images use a top-left origin
	toDevice := func(p inkpath.Point) fixed.Point26_6 {
		return fToFixed(rd.mmToPx(p.X), rd.mmToPx(rd.height-p.Y))
	}
	rd.dasher.Start(toDevice(path[0]))
	for _, p := range path[1:] {
		rd.dasher.Line(toDevice(p))
	}
	rd.dasher.Stop(false)
	rd.dasher.Draw()
}

// RenderPages composes `req` into one image per page.
// A `dpi` of 0 means DefaultDPI. Pages larger than
// MaxPagePixels fail with ErrPageTooLarge.
func RenderPages(req *inkpath.Request, dpi float64, comp inkdoc.Compositor) ([]*image.RGBA, *inkdoc.Report, error) {
	if !(dpi >= 0 && dpi <= MaxDPI) { // also rejects NaN
		return nil, nil, fmt.Errorf("%w: %g not in [0, %g]", ErrInvalidDPI, dpi, MaxDPI)
	}
	rd := NewRenderer(dpi)
	report, err := comp.Compose(req, rd)
	if err != nil {
		return nil, nil, err
	}
	if rd.err != nil {
		return nil, nil, rd.err
	}
	return rd.Pages(), report, nil
}

// RenderPage composes `req` and returns the page at index `i`.
func RenderPage(req *inkpath.Request, i int, dpi float64, comp inkdoc.Compositor) (*image.RGBA, error) {
	if err := inkdoc.Validate(req); err != nil {
		return nil, err
	}
	if i < 0 || i >= len(req.Pages) {
		return nil, fmt.Errorf("%w: %d not in [0, %d)", ErrPageRange, i, len(req.Pages))
	}
	// only the requested page is drawn
	single := &inkpath.Request{
		OriginalPath: req.OriginalPath,
		Pages:        req.Pages[i : i+1],
		Backgrounds:  [][]byte{req.Background(i)},
	}
	pages, _, err := RenderPages(single, dpi, comp)
	if err != nil {
		return nil, err
	}
	return pages[0], nil
}

// EncodePNG writes `img` as a PNG image.
func EncodePNG(w io.Writer, img image.Image) error {
	enc := png.Encoder{CompressionLevel: png.BestSpeed}
	return enc.Encode(w, img)
}

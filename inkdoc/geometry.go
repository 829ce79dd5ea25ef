package inkdoc

import (
	"fmt"

	"github.com/benoitkugler/okink/inkpath"
)

// Pixels are converted to physical units assuming a 72 DPI screen,
// so that one pixel is one PDF point.
const (
	PixelsPerInch = 72.
	MmPerInch     = 25.4
)

// PxToMm converts a length in pixels to millimeters.
func PxToMm(px float64) float64 { return px * MmPerInch / PixelsPerInch }

// MmToPt converts a length in millimeters to PDF points.
func MmToPt(mm float64) float64 { return mm * PixelsPerInch / MmPerInch }

// Size is a width and height, whose unit depends on the context.
type Size struct{ W, H float64 }

func (s Size) String() string { return fmt.Sprintf("%gx%g", s.W, s.H) }

// SizeSource records where the size of a page comes from.
type SizeSource uint8

const (
	FromCanvas     SizeSource = iota // declared canvas size (no usable background)
	FromBackground                   // native size of the background image
)

func (s SizeSource) String() string {
	switch s {
	case FromCanvas:
		return "canvas"
	case FromBackground:
		return "background"
	default:
		return "<unknown SizeSource>"
	}
}

// Geometry is the resolved layout of one page.
type Geometry struct {
	Page   Size // physical size, in millimeters
	Canvas Size // declared canvas, in pixels
	Source SizeSource
}

// ResolveGeometry computes the physical size of `page`.
// When `bg` is not nil, its pixel size is used instead of the
// declared canvas size.
func ResolveGeometry(page inkpath.Page, bg *Raster) Geometry {
	g := Geometry{
		Canvas: Size{W: float64(page.Width), H: float64(page.Height)},
		Source: FromCanvas,
	}
	px := g.Canvas
	if bg != nil {
		px = Size{W: float64(bg.Width), H: float64(bg.Height)}
		g.Source = FromBackground
	}
	g.Page = Size{W: PxToMm(px.W), H: PxToMm(px.H)}
	return g
}

// MapPoint transforms a point from canvas pixels (top-left origin)
// to page millimeters (bottom-left origin), scaling each axis
// so that the canvas covers the whole page.
func MapPoint(p inkpath.Point, canvas, page Size) inkpath.Point {
	scaleX := page.W / canvas.W
	scaleY := page.H / canvas.H
	return inkpath.Point{
		X: p.X * scaleX,
		Y: (canvas.H - p.Y) * scaleY,
	}
}

// MapStroke transforms every point of `stroke`, in order,
// and returns the resulting path in page space.
func (g Geometry) MapStroke(stroke inkpath.Stroke) inkpath.Polyline {
	out := make(inkpath.Polyline, 0, len(stroke.Points))
	for _, p := range stroke.Points {
		out.Line(MapPoint(p, g.Canvas, g.Page))
	}
	return out
}

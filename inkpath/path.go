// Implements an abstract representation of
// freehand ink, which can then be consumed
// by painting drivers.
package inkpath

import (
	"fmt"
	"math"
	"strings"
)

// Point is a position in a 2D space. Depending on the context,
// it is expressed in canvas pixels (top-left origin) or
// in page millimeters (bottom-left origin).
type Point struct{ X, Y float64 }

func (p Point) String() string { return fmt.Sprintf("(%g, %g)", p.X, p.Y) }

// Polyline is an open path made of straight segments.
// The first point starts the path, each following point
// adds a segment from the previous one.
type Polyline []Point

// ToSVGPath returns a string representation of the path
func (p Polyline) ToSVGPath() string {
	chunks := make([]string, len(p))
	for i, pt := range p {
		cmd := "L"
		if i == 0 {
			cmd = "M"
		}
		chunks[i] = fmt.Sprintf("%s%4.3f,%4.3f", cmd, pt.X, pt.Y)
	}
	return strings.Join(chunks, " ")
}

// String returns a readable representation of a Polyline.
func (p Polyline) String() string {
	return p.ToSVGPath()
}

// Clear zeros the path slice
func (p *Polyline) Clear() {
	*p = (*p)[:0]
}

// Start starts a new path at the given point,
// discarding any previous content.
func (p *Polyline) Start(a Point) {
	*p = append((*p)[:0], a)
}

// Line adds a linear segment to the current path.
func (p *Polyline) Line(b Point) {
	*p = append(*p, b)
}

// Bounds returns the smallest rectangle containing every point.
// It is empty for an empty path.
func (p Polyline) Bounds() Rect {
	if len(p) == 0 {
		return Rect{}
	}
	r := Rect{Min: p[0], Max: p[0]}
	for _, pt := range p[1:] {
		r.Min.X, r.Min.Y = math.Min(r.Min.X, pt.X), math.Min(r.Min.Y, pt.Y)
		r.Max.X, r.Max.Y = math.Max(r.Max.X, pt.X), math.Max(r.Max.Y, pt.Y)
	}
	return r
}

// Rect is an axis aligned bounding box.
// The zero value is the empty rectangle.
type Rect struct{ Min, Max Point }

// Empty returns true for the zero rectangle.
func (r Rect) Empty() bool { return r == Rect{} }

// Dx returns the width of r.
func (r Rect) Dx() float64 { return r.Max.X - r.Min.X }

// Dy returns the height of r.
func (r Rect) Dy() float64 { return r.Max.Y - r.Min.Y }

// Union returns the smallest rectangle containing both r and s.
// An empty rectangle is neutral.
func (r Rect) Union(s Rect) Rect {
	if r.Empty() {
		return s
	}
	if s.Empty() {
		return r
	}
	return Rect{
		Min: Point{math.Min(r.Min.X, s.Min.X), math.Min(r.Min.Y, s.Min.Y)},
		Max: Point{math.Max(r.Max.X, s.Max.X), math.Max(r.Max.Y, s.Max.Y)},
	}
}

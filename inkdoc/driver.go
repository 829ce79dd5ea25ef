// Provides the composition of freehand annotations
// and background scans into paginated documents.
// Pages are resolved and mapped to physical units, then
// pushed to a painting Driver. See for example okink/inkpdf
// or okink/inkraster.
package inkdoc

import "github.com/benoitkugler/okink/inkpath"

// StrokeStyle holds the settings used to draw one stroke.
type StrokeStyle struct {
	Color PlainColor
	Width float64 // line width, in PDF points (one canvas pixel per point)
}

// Driver knows how to do the actual draw operations
// but doesn't need any knowledge about the editor canvas.
// In particular, points are already expressed in page space,
// in millimeters, with a bottom-left origin.
type Driver interface {
	// AddPage starts a new page with the given size, in millimeters.
	// The first call also fixes the initial size of the document.
	// Following draw operations target this page.
	AddPage(size Size)

	// DrawImage paints `img` over the whole current page,
	// one image pixel per PDF point.
	DrawImage(img *Raster)

	// DrawPolyline strokes the open path `path`.
	DrawPolyline(path inkpath.Polyline, style StrokeStyle)
}

// ErrorMode controls how degraded inputs are reported,
// in addition to the Report returned by Compose.
type ErrorMode uint8

const (
	IgnoreErrorMode ErrorMode = iota // only the Report records problems
	WarnErrorMode                    // problems are also logged
)

func (m ErrorMode) String() string {
	switch m {
	case IgnoreErrorMode:
		return "ignore"
	case WarnErrorMode:
		return "warn"
	default:
		return "<unknown ErrorMode>"
	}
}

// ParseErrorMode reads the names returned by ErrorMode.String.
func ParseErrorMode(s string) (ErrorMode, bool) {
	switch s {
	case "", "ignore":
		return IgnoreErrorMode, true
	case "warn":
		return WarnErrorMode, true
	default:
		return 0, false
	}
}

// Info is the metadata written in the output document.
type Info struct {
	Title   string
	Author  string
	Subject string
	Creator string
}

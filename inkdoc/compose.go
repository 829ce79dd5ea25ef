package inkdoc

import (
	"errors"
	"fmt"
	"log"

	"github.com/benoitkugler/okink/inkpath"
)

var (
	// ErrNoPages is returned when composing a request without pages.
	ErrNoPages = errors.New("no pages to save")

	// ErrInvalidCanvas is returned for pages whose declared
	// canvas has a null width or height.
	ErrInvalidCanvas = errors.New("invalid canvas size")

	errEmptyImage = errors.New("image has no pixels")
)

// PageReport describes how one page was rendered.
type PageReport struct {
	Index           int // position in the request and in the output
	Number          int // page number declared by the editor
	Geometry        Geometry
	Background      BackgroundStatus
	Drawn           int          // strokes painted
	Skipped         int          // strokes with less than two points
	ColorsDefaulted int          // strokes whose color was (partially) invalid
	Ink             inkpath.Rect // extent of the painted strokes, in page space
}

// Report is the outcome of a composition.
type Report struct {
	Pages []PageReport
}

// Degraded returns true if some input was ignored or approximated.
func (r *Report) Degraded() bool {
	for _, p := range r.Pages {
		if p.Background == BackgroundInvalid || p.Skipped != 0 || p.ColorsDefaulted != 0 {
			return true
		}
	}
	return false
}

// Compositor maps requests to draw operations.
// The zero value is ready to use, with ImageDecoder and IgnoreErrorMode.
// A Compositor has no mutable state and may be shared between goroutines,
// as long as each call uses its own Driver.
type Compositor struct {
	Decoder   Decoder     // nil means ImageDecoder
	ErrorMode ErrorMode   // used for degraded inputs
	Logger    *log.Logger // nil means the standard logger
}

// Compose renders `req` with the default Compositor.
func Compose(req *inkpath.Request, d Driver) (*Report, error) {
	return Compositor{}.Compose(req, d)
}

// Validate checks the structural constraints of `req`,
// which are the only causes of failure of Compose.
func Validate(req *inkpath.Request) error {
	if req == nil || len(req.Pages) == 0 {
		return ErrNoPages
	}
	for i, page := range req.Pages {
		if page.Width == 0 || page.Height == 0 {
			return fmt.Errorf("page %d: %w (%dx%d)", i+1, ErrInvalidCanvas, page.Width, page.Height)
		}
	}
	return nil
}

// Compose validates `req`, then draws its pages, in order, into `d`.
// Nothing is sent to `d` if validation fails.
// Invalid backgrounds, colors or strokes never cause an error:
// they are recorded in the returned Report.
func (c Compositor) Compose(req *inkpath.Request, d Driver) (*Report, error) {
	if err := Validate(req); err != nil {
		return nil, err
	}
	dec := c.Decoder
	if dec == nil {
		dec = ImageDecoder
	}

	report := &Report{Pages: make([]PageReport, len(req.Pages))}
	for i, page := range req.Pages {
		pr := &report.Pages[i]
		pr.Index, pr.Number = i, page.Number

		bg, status, err := decodeBackground(dec, req.Background(i))
		if err != nil {
			c.warnf("page %d: ignoring background: %s", i+1, err)
		}
		pr.Background = status
		pr.Geometry = ResolveGeometry(page, bg)

		d.AddPage(pr.Geometry.Page)
		if bg != nil {
			d.DrawImage(bg)
		}
		c.drawStrokes(d, page, pr)
	}
	return report, nil
}

func (c Compositor) drawStrokes(d Driver, page inkpath.Page, pr *PageReport) {
	for j, stroke := range page.Strokes {
		if !stroke.Drawable() {
			pr.Skipped++
			continue
		}
		color, status := ParseColor(stroke.Color)
		if status != ColorParsed {
			pr.ColorsDefaulted++
			c.warnf("page %d, stroke %d: invalid color %q (%s)", pr.Index+1, j+1, stroke.Color, status)
		}
		path := pr.Geometry.MapStroke(stroke)
		d.DrawPolyline(path, StrokeStyle{Color: color, Width: stroke.Width})
		pr.Drawn++
		pr.Ink = pr.Ink.Union(path.Bounds())
	}
}

func (c Compositor) warnf(format string, args ...interface{}) {
	if c.ErrorMode != WarnErrorMode {
		return
	}
	if c.Logger != nil {
		c.Logger.Printf(format, args...)
		return
	}
	log.Printf(format, args...)
}

// Alternative implementation of PDF rendering, writing
// content streams with github.com/benoitkugler/pdf.
package alt

import (
	"io"

	"github.com/benoitkugler/okink/inkdoc"
	"github.com/benoitkugler/okink/inkpath"
	"github.com/benoitkugler/pdf/contentstream"
	"github.com/benoitkugler/pdf/model"
)

// assert interface conformance
var _ inkdoc.Driver = (*Renderer)(nil)

// line styles, as defined in the PDF reference
const (
	roundCap  = 1
	roundJoin = 1
)

// Renderer builds one appearance stream per page.
// Coordinates are converted from millimeters to PDF points,
// whose origin is already at the bottom-left corner.
type Renderer struct {
	doc      model.Document
	compress bool

	page *contentstream.Appearance // current page, nil before the first AddPage
}

// NewRenderer returns an empty renderer. The document
// will carry the given metadata.
func NewRenderer(info inkdoc.Info, compress bool) *Renderer {
	r := &Renderer{compress: compress}
	r.doc.Trailer.Info = model.Info{
		Title:   info.Title,
		Author:  info.Author,
		Subject: info.Subject,
		Creator: info.Creator,
	}
	return r
}

func ptPoint(p inkpath.Point) (float64, float64) {
	return inkdoc.MmToPt(p.X), inkdoc.MmToPt(p.Y)
}

// flush appends the current page, if any, to the document.
func (r *Renderer) flush() {
	if r.page == nil {
		return
	}
	page := new(model.PageObject) // MediaBox is the appearance BBox
	r.page.ApplyToPageObject(page, r.compress)
	r.doc.Catalog.Pages.Kids = append(r.doc.Catalog.Pages.Kids, page)
	r.page = nil
}

// AddPage implements inkdoc.Driver.
func (r *Renderer) AddPage(size inkdoc.Size) {
	r.flush()
	ap := contentstream.NewAppearance(inkdoc.MmToPt(size.W), inkdoc.MmToPt(size.H))
	r.page = &ap
}

// DrawImage implements inkdoc.Driver. The raster is
// stored as an uncompressed RGB image, scaled to
// one point per pixel.
func (r *Renderer) DrawImage(img *inkdoc.Raster) {
	xobj := &model.XObjectImage{
		Image: model.Image{
			Stream:           model.Stream{Content: img.Pix},
			Width:            img.Width,
			Height:           img.Height,
			BitsPerComponent: 8,
			Interpolate:      true,
		},
		ColorSpace: model.ColorSpaceRGB,
	}
	r.page.AddXObjectDims(xobj, 0, 0, float64(img.Width), float64(img.Height))
}

// DrawPolyline implements inkdoc.Driver.
func (r *Renderer) DrawPolyline(path inkpath.Polyline, style inkdoc.StrokeStyle) {
	if len(path) == 0 {
		return
	}
	r.page.SetColorStroke(style.Color)
	r.page.Ops(
		contentstream.OpSetLineWidth{W: style.Width},
		contentstream.OpSetLineCap{Style: roundCap},
		contentstream.OpSetLineJoin{Style: roundJoin},
	)
	x, y := ptPoint(path[0])
	r.page.Ops(contentstream.OpMoveTo{X: x, Y: y})
	for _, p := range path[1:] {
		x, y = ptPoint(p)
		r.page.Ops(contentstream.OpLineTo{X: x, Y: y})
	}
	r.page.Ops(contentstream.OpStroke{})
}

// PageCount returns the number of pages added so far.
func (r *Renderer) PageCount() int {
	n := len(r.doc.Catalog.Pages.Kids)
	if r.page != nil {
		n++
	}
	return n
}

// Output closes the document and writes it to `w`.
// The renderer should not be used afterwards.
func (r *Renderer) Output(w io.Writer) error {
	r.flush()
	if len(r.doc.Catalog.Pages.Kids) == 0 {
		return inkdoc.ErrNoPages
	}
	return r.doc.Write(w, nil)
}

// Implements a PDF backend to render annotated pages,
// by wrapping github.com/jung-kurt/gofpdf.
package inkpdf

import (
	"bytes"
	"fmt"
	"image/png"
	"io"

	"github.com/benoitkugler/okink/inkdoc"
	"github.com/benoitkugler/okink/inkpath"
	"github.com/jung-kurt/gofpdf"
)

// assert interface conformance
var _ inkdoc.Driver = (*Renderer)(nil)

// Renderer draws pages in a gofpdf document, using millimeters.
// The document is created by the first call to AddPage,
// with the size of the first page.
type Renderer struct {
	pdf      *gofpdf.Fpdf
	info     inkdoc.Info
	compress bool

	pageH  float64 // height of the current page, used to flip the y axis
	images int     // number of registered images, used to name them
}

// NewRenderer returns an empty renderer. The document
// will carry the given metadata.
func NewRenderer(info inkdoc.Info, compress bool) *Renderer {
	return &Renderer{info: info, compress: compress}
}

func (r *Renderer) init(size inkdoc.Size) {
	r.pdf = gofpdf.NewCustom(&gofpdf.InitType{
		OrientationStr: "P",
		UnitStr:        "mm",
		Size:           gofpdf.SizeType{Wd: size.W, Ht: size.H},
	})
	r.pdf.SetAutoPageBreak(false, 0)
	r.pdf.SetMargins(0, 0, 0)
	r.pdf.SetCompression(r.compress)
	if r.info.Title != "" {
		r.pdf.SetTitle(r.info.Title, true)
	}
	if r.info.Author != "" {
		r.pdf.SetAuthor(r.info.Author, true)
	}
	if r.info.Subject != "" {
		r.pdf.SetSubject(r.info.Subject, true)
	}
	if r.info.Creator != "" {
		r.pdf.SetCreator(r.info.Creator, true)
	}
}

// AddPage implements inkdoc.Driver.
func (r *Renderer) AddPage(size inkdoc.Size) {
	if r.pdf == nil {
		r.init(size)
	}
	r.pdf.AddPageFormat("P", gofpdf.SizeType{Wd: size.W, Ht: size.H})
	r.pageH = size.H
}

// DrawImage implements inkdoc.Driver. The raster is
// embedded as an RGB PNG stream.
func (r *Renderer) DrawImage(img *inkdoc.Raster) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img.RGBA()); err != nil {
		r.pdf.SetError(fmt.Errorf("encoding background: %w", err))
		return
	}
	r.images++
	name := fmt.Sprintf("background-%d", r.images)
	opts := gofpdf.ImageOptions{ImageType: "PNG", ReadDpi: false}
	r.pdf.RegisterImageOptionsReader(name, opts, &buf)

	w, h := inkdoc.PxToMm(float64(img.Width)), inkdoc.PxToMm(float64(img.Height))
	r.pdf.ImageOptions(name, 0, 0, w, h, false, opts, 0, "")
}

// DrawPolyline implements inkdoc.Driver.
func (r *Renderer) DrawPolyline(path inkpath.Polyline, style inkdoc.StrokeStyle) {
	if len(path) == 0 {
		return
	}
	r.pdf.SetDrawColor(int(style.Color.R), int(style.Color.G), int(style.Color.B))
	r.pdf.SetLineWidth(inkdoc.PxToMm(style.Width)) // points to millimeters
	r.pdf.SetLineCapStyle("round")
	r.pdf.SetLineJoinStyle("round")

	// gofpdf uses a top-left origin
	r.pdf.MoveTo(path[0].X, r.pageH-path[0].Y)
	for _, p := range path[1:] {
		r.pdf.LineTo(p.X, r.pageH-p.Y)
	}
	r.pdf.DrawPath("D")
}

// PageCount returns the number of pages added so far.
func (r *Renderer) PageCount() int {
	if r.pdf == nil {
		return 0
	}
	return r.pdf.PageCount()
}

// PageSize returns the size, in millimeters, of the
// page at index `i` (starting at 0).
func (r *Renderer) PageSize(i int) inkdoc.Size {
	if r.pdf == nil {
		return inkdoc.Size{}
	}
	w, h, _ := r.pdf.PageSize(i + 1)
	return inkdoc.Size{W: w, H: h}
}

// Output closes the document and writes it to `w`.
func (r *Renderer) Output(w io.Writer) error {
	if r.pdf == nil {
		return inkdoc.ErrNoPages
	}
	if err := r.pdf.Error(); err != nil {
		return fmt.Errorf("building PDF: %w", err)
	}
	if err := r.pdf.Output(w); err != nil {
		return fmt.Errorf("writing PDF: %w", err)
	}
	return nil
}

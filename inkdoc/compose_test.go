package inkdoc

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"log"
	"strings"
	"testing"

	"github.com/benoitkugler/okink/inkpath"
)

// recorder is a Driver logging the operations it receives.
type recorder struct {
	ops    []string
	pages  []Size
	images []*Raster
	paths  []inkpath.Polyline
	styles []StrokeStyle
}

func (r *recorder) AddPage(size Size) {
	r.ops = append(r.ops, "page")
	r.pages = append(r.pages, size)
}

func (r *recorder) DrawImage(img *Raster) {
	r.ops = append(r.ops, "image")
	r.images = append(r.images, img)
}

func (r *recorder) DrawPolyline(path inkpath.Polyline, style StrokeStyle) {
	r.ops = append(r.ops, "stroke")
	r.paths = append(r.paths, path)
	r.styles = append(r.styles, style)
}

func encodePNG(t *testing.T, w, h int, c color.Color) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, c)
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func line(color string, width float64, pts ...float64) inkpath.Stroke {
	s := inkpath.Stroke{Color: color, Width: width}
	for i := 0; i+1 < len(pts); i += 2 {
		s.Points = append(s.Points, inkpath.Point{X: pts[i], Y: pts[i+1]})
	}
	return s
}

func TestComposeNoPages(t *testing.T) {
	for _, req := range []*inkpath.Request{nil, {}, {OriginalPath: "scan.png"}} {
		var rec recorder
		report, err := Compose(req, &rec)
		if !errors.Is(err, ErrNoPages) {
			t.Errorf("expected ErrNoPages, got %v", err)
		}
		if report != nil || len(rec.ops) != 0 {
			t.Errorf("nothing should be drawn: %v", rec.ops)
		}
	}
	if ErrNoPages.Error() != "no pages to save" {
		t.Errorf("unexpected message %q", ErrNoPages)
	}
}

func TestComposeInvalidCanvas(t *testing.T) {
	req := &inkpath.Request{Pages: []inkpath.Page{
		{Width: 100, Height: 100},
		{Width: 0, Height: 100},
	}}
	var rec recorder
	_, err := Compose(req, &rec)
	if !errors.Is(err, ErrInvalidCanvas) {
		t.Fatalf("expected ErrInvalidCanvas, got %v", err)
	}
	if !strings.Contains(err.Error(), "page 2") {
		t.Errorf("error should name the page: %s", err)
	}
	if len(rec.ops) != 0 {
		t.Errorf("nothing should be drawn before validation: %v", rec.ops)
	}
}

func TestComposeOperationsOrder(t *testing.T) {
	req := &inkpath.Request{
		Pages: []inkpath.Page{
			{Number: 0, Width: 200, Height: 100, Strokes: []inkpath.Stroke{
				line("#ff0000", 2, 0, 0, 10, 10),
				line("#00ff00", 1, 5, 5, 6, 6, 7, 7),
			}},
			{Number: 1, Width: 200, Height: 100, Strokes: []inkpath.Stroke{
				line("#0000ff", 3, 1, 1, 2, 2),
			}},
		},
		Backgrounds: [][]byte{nil, encodePNG(t, 4, 2, color.White)},
	}
	var rec recorder
	report, err := Compose(req, &rec)
	if err != nil {
		t.Fatal(err)
	}
	want := "page stroke stroke page image stroke"
	if got := strings.Join(rec.ops, " "); got != want {
		t.Errorf("expected operations %q, got %q", want, got)
	}
	if len(report.Pages) != 2 {
		t.Fatalf("expected 2 page reports, got %d", len(report.Pages))
	}
	if report.Pages[0].Background != NoBackground || report.Pages[1].Background != BackgroundEmbedded {
		t.Errorf("unexpected backgrounds %s, %s", report.Pages[0].Background, report.Pages[1].Background)
	}
	if report.Pages[1].Number != 1 || report.Pages[1].Index != 1 {
		t.Errorf("unexpected page identity %+v", report.Pages[1])
	}
	if rec.styles[0] != (StrokeStyle{Color: PlainColor{R: 255}, Width: 2}) {
		t.Errorf("unexpected style %+v", rec.styles[0])
	}
	if rec.styles[2].Width != 3 {
		t.Errorf("stroke width should be passed through, got %g", rec.styles[2].Width)
	}
	if report.Degraded() {
		t.Error("valid request should not be degraded")
	}
}

func TestComposeBackgroundSizing(t *testing.T) {
	req := &inkpath.Request{
		Pages: []inkpath.Page{
			{Number: 0, Width: 800, Height: 600},
			{Number: 1, Width: 800, Height: 600},
			{Number: 2, Width: 800, Height: 600},
		},
		Backgrounds: [][]byte{
			encodePNG(t, 144, 72, color.White),
			[]byte("not an image"),
			encodePNG(t, 72, 144, color.Black),
		},
	}
	var rec recorder
	report, err := Compose(req, &rec)
	if err != nil {
		t.Fatal(err)
	}
	if len(rec.pages) != 3 || len(rec.images) != 2 {
		t.Fatalf("expected 3 pages and 2 images, got %d and %d", len(rec.pages), len(rec.images))
	}
	wantSizes := []Size{{50.8, 25.4}, {PxToMm(800), PxToMm(600)}, {25.4, 50.8}}
	wantSources := []SizeSource{FromBackground, FromCanvas, FromBackground}
	wantStatus := []BackgroundStatus{BackgroundEmbedded, BackgroundInvalid, BackgroundEmbedded}
	for i, size := range rec.pages {
		if !almostEqual(size.W, wantSizes[i].W) || !almostEqual(size.H, wantSizes[i].H) {
			t.Errorf("page %d: expected size %s, got %s", i, wantSizes[i], size)
		}
		if pr := report.Pages[i]; pr.Geometry.Source != wantSources[i] || pr.Background != wantStatus[i] {
			t.Errorf("page %d: unexpected report %s, %s", i, pr.Geometry.Source, pr.Background)
		}
	}
	if !report.Degraded() {
		t.Error("invalid background should degrade the report")
	}
}

func TestComposeBackgroundBeyondPages(t *testing.T) {
	req := &inkpath.Request{
		Pages:       []inkpath.Page{{Width: 10, Height: 10}},
		Backgrounds: [][]byte{nil, encodePNG(t, 5, 5, color.White)},
	}
	var rec recorder
	if _, err := Compose(req, &rec); err != nil {
		t.Fatal(err)
	}
	if len(rec.images) != 0 {
		t.Error("extra backgrounds should be ignored")
	}
}

func TestComposeSkipsShortStrokes(t *testing.T) {
	req := &inkpath.Request{Pages: []inkpath.Page{{Width: 100, Height: 100, Strokes: []inkpath.Stroke{
		line("#000000", 1),
		line("#000000", 1, 5, 5),
		line("#000000", 1, 0, 0, 100, 100),
	}}}}
	var rec recorder
	report, err := Compose(req, &rec)
	if err != nil {
		t.Fatal(err)
	}
	pr := report.Pages[0]
	if pr.Drawn != 1 || pr.Skipped != 2 || len(rec.paths) != 1 {
		t.Errorf("expected 1 drawn and 2 skipped, got %d, %d", pr.Drawn, pr.Skipped)
	}
	size := PxToMm(100)
	if !almostEqual(pr.Ink.Min.X, 0) || !almostEqual(pr.Ink.Max.X, size) ||
		!almostEqual(pr.Ink.Min.Y, 0) || !almostEqual(pr.Ink.Max.Y, size) {
		t.Errorf("unexpected ink extent %v", pr.Ink)
	}
}

func TestComposeWarnings(t *testing.T) {
	req := &inkpath.Request{
		Pages:       []inkpath.Page{{Width: 100, Height: 100, Strokes: []inkpath.Stroke{line("nope", 1, 0, 0, 1, 1)}}},
		Backgrounds: [][]byte{[]byte("garbage")},
	}

	var buf bytes.Buffer
	c := Compositor{ErrorMode: WarnErrorMode, Logger: log.New(&buf, "", 0)}
	var rec recorder
	report, err := c.Compose(req, &rec)
	if err != nil {
		t.Fatal(err)
	}
	if rec.styles[0].Color != Black || report.Pages[0].ColorsDefaulted != 1 {
		t.Errorf("invalid color should be drawn in black")
	}
	out := buf.String()
	if !strings.Contains(out, "ignoring background") || !strings.Contains(out, `invalid color "nope"`) {
		t.Errorf("missing warnings in %q", out)
	}

	buf.Reset()
	c.ErrorMode = IgnoreErrorMode
	if _, err = c.Compose(req, &recorder{}); err != nil {
		t.Fatal(err)
	}
	if buf.Len() != 0 {
		t.Errorf("ignore mode should not log, got %q", buf.String())
	}
}

func TestComposeCustomDecoder(t *testing.T) {
	calls := 0
	dec := DecoderFunc(func(data []byte) (*Raster, error) {
		calls++
		if string(data) == "empty" {
			return &Raster{}, nil
		}
		return nil, fmt.Errorf("unsupported %q", data)
	})
	req := &inkpath.Request{
		Pages:       []inkpath.Page{{Width: 10, Height: 10}, {Width: 10, Height: 10}},
		Backgrounds: [][]byte{[]byte("empty"), []byte("other")},
	}
	report, err := Compositor{Decoder: dec}.Compose(req, &recorder{})
	if err != nil {
		t.Fatal(err)
	}
	if calls != 2 {
		t.Errorf("expected 2 decoder calls, got %d", calls)
	}
	for _, pr := range report.Pages {
		if pr.Background != BackgroundInvalid || pr.Geometry.Source != FromCanvas {
			t.Errorf("unexpected page report %+v", pr)
		}
	}
}

func TestNewRasterDropsAlpha(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 2, 1))
	img.SetNRGBA(0, 0, color.NRGBA{R: 10, G: 20, B: 30, A: 0x80})
	img.SetNRGBA(1, 0, color.NRGBA{R: 200, G: 100, B: 50, A: 0xff})

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatal(err)
	}
	r, err := ImageDecoder.Decode(buf.Bytes())
	if err != nil {
		t.Fatal(err)
	}
	if r.Width != 2 || r.Height != 1 || len(r.Pix) != 6 {
		t.Fatalf("unexpected raster %dx%d (%d samples)", r.Width, r.Height, len(r.Pix))
	}
	// translucent samples go through premultiplication
	want := []uint8{10, 20, 30, 200, 100, 50}
	for i := range want {
		if d := int(r.Pix[i]) - int(want[i]); d < -1 || d > 1 {
			t.Errorf("sample %d: expected %d, got %d", i, want[i], r.Pix[i])
		}
	}

	rgba := r.RGBA()
	if c := rgba.RGBAAt(1, 0); c != (color.RGBA{R: 200, G: 100, B: 50, A: 0xff}) {
		t.Errorf("unexpected opaque pixel %v", c)
	}
}

func TestParseErrorMode(t *testing.T) {
	for _, mode := range []ErrorMode{IgnoreErrorMode, WarnErrorMode} {
		got, ok := ParseErrorMode(mode.String())
		if !ok || got != mode {
			t.Errorf("expected %s, got %s", mode, got)
		}
	}
	if _, ok := ParseErrorMode("strict"); ok {
		t.Error("unknown mode should be rejected")
	}
}

package inkpath

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
)

// Stroke is one freehand line, as captured by the editor.
// Points are in canvas pixels, in drawing order.
type Stroke struct {
	Points   []Point   `json:"points"`
	Color    string    `json:"color"`    // "#rrggbb" or "rgb(r, g, b)"
	Width    float64   `json:"width"`    // in pixels
	Pressure []float64 `json:"pressure"` // one sample per point, not rendered
}

// Drawable returns false for strokes with less than two points,
// which are not painted.
func (s Stroke) Drawable() bool { return len(s.Points) >= 2 }

// Page holds the strokes drawn on one page, and the size
// of the canvas they were captured on.
type Page struct {
	Number  int      `json:"page_number"` // informative only
	Strokes []Stroke `json:"strokes"`
	Width   uint32   `json:"width"`  // canvas width, in pixels
	Height  uint32   `json:"height"` // canvas height, in pixels
}

// Request is the input of a save or print operation.
// The index in Pages gives the physical order of the output pages;
// Backgrounds is aligned on Pages, and may be shorter.
type Request struct {
	OriginalPath string // metadata only
	Pages        []Page
	Backgrounds  [][]byte // encoded images, nil or empty for none
}

// Background returns the encoded background for the page at index i,
// or nil if there is none.
func (r *Request) Background(i int) []byte {
	if i < 0 || i >= len(r.Backgrounds) {
		return nil
	}
	return r.Backgrounds[i]
}

// MarshalJSON writes the point as a [x, y] pair.
func (p Point) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]float64{p.X, p.Y})
}

// UnmarshalJSON reads a [x, y] pair.
func (p *Point) UnmarshalJSON(data []byte) error {
	var xy [2]float64
	if err := json.Unmarshal(data, &xy); err != nil {
		return fmt.Errorf("invalid point %s: %w", data, err)
	}
	p.X, p.Y = xy[0], xy[1]
	return nil
}

// wire format of Request: backgrounds travel as data URLs
type requestJSON struct {
	OriginalPath *string   `json:"original_path"`
	Pages        []Page    `json:"pages"`
	Backgrounds  []*string `json:"background_images"`
}

// MarshalJSON encodes backgrounds as data URLs.
func (r Request) MarshalJSON() ([]byte, error) {
	var out requestJSON
	if r.OriginalPath != "" {
		out.OriginalPath = &r.OriginalPath
	}
	out.Pages = r.Pages
	if out.Pages == nil {
		out.Pages = []Page{}
	}
	out.Backgrounds = make([]*string, len(r.Backgrounds))
	for i, bg := range r.Backgrounds {
		s := ""
		if len(bg) != 0 {
			s = EncodeDataURL(bg)
		}
		out.Backgrounds[i] = &s
	}
	return json.Marshal(out)
}

// UnmarshalJSON decodes a request as sent by the editor.
// Background slots which are not valid base64 are kept
// as empty slots, meaning no background for the page.
func (r *Request) UnmarshalJSON(data []byte) error {
	var in requestJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	r.OriginalPath = ""
	if in.OriginalPath != nil {
		r.OriginalPath = *in.OriginalPath
	}
	r.Pages = in.Pages
	r.Backgrounds = make([][]byte, len(in.Backgrounds))
	for i, s := range in.Backgrounds {
		if s == nil || *s == "" {
			continue
		}
		r.Backgrounds[i], _ = DecodeDataURL(*s)
	}
	return nil
}

// DecodeDataURL returns the bytes embedded in a base64 data URL,
// such as "data:image/png;base64,iVBOR...". A string without
// comma is read as bare base64.
func DecodeDataURL(s string) ([]byte, bool) {
	if i := strings.IndexByte(s, ','); i != -1 {
		s = s[i+1:]
	}
	out, err := base64.StdEncoding.DecodeString(strings.TrimSpace(s))
	if err != nil {
		return nil, false
	}
	return out, true
}

// EncodeDataURL returns a base64 data URL for data, using
// the sniffed MIME type.
func EncodeDataURL(data []byte) string {
	mime := http.DetectContentType(data)
	if i := strings.IndexByte(mime, ';'); i != -1 {
		mime = mime[:i]
	}
	return "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(data)
}

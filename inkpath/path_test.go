package inkpath

import "testing"

func TestPolyline(t *testing.T) {
	var p Polyline
	p.Start(Point{1, 2})
	p.Line(Point{3.5, -4})
	p.Line(Point{0, 10})

	if got := p.ToSVGPath(); got != "M1.000,2.000 L3.500,-4.000 L0.000,10.000" {
		t.Errorf("unexpected path %s", got)
	}
	b := p.Bounds()
	if b != (Rect{Min: Point{0, -4}, Max: Point{3.5, 10}}) {
		t.Errorf("unexpected bounds %v", b)
	}
	if b.Dx() != 3.5 || b.Dy() != 14 {
		t.Errorf("unexpected extent %g x %g", b.Dx(), b.Dy())
	}

	p.Start(Point{5, 5})
	if len(p) != 1 {
		t.Errorf("Start should discard the previous content, got %s", p)
	}
	p.Clear()
	if len(p) != 0 || !p.Bounds().Empty() {
		t.Errorf("expected empty path, got %s", p)
	}
}

func TestBoundsAtOrigin(t *testing.T) {
	p := Polyline{{0, 0}, {2, 3}}
	if b := p.Bounds(); b.Min != (Point{}) || b.Max != (Point{2, 3}) {
		t.Errorf("origin should be included, got %v", b)
	}
}

func TestRectUnion(t *testing.T) {
	a := Rect{Min: Point{1, 1}, Max: Point{2, 2}}
	b := Rect{Min: Point{-1, 1.5}, Max: Point{1.5, 5}}
	if u := a.Union(b); u != (Rect{Min: Point{-1, 1}, Max: Point{2, 5}}) {
		t.Errorf("unexpected union %v", u)
	}
	if u := (Rect{}).Union(a); u != a {
		t.Errorf("empty rect should be neutral, got %v", u)
	}
	if u := a.Union(Rect{}); u != a {
		t.Errorf("empty rect should be neutral, got %v", u)
	}
}

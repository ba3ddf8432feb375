package contour

import (
	"image"
)

// Contour is a closed polygon. The last point connects back to the first.
type Contour []image.Point

// neighbours lists the 8-neighbourhood offsets in clockwise order as seen on
// screen (y grows downwards), starting east.
var neighbours = [8]image.Point{
	{1, 0}, {1, 1}, {0, 1}, {-1, 1}, {-1, 0}, {-1, -1}, {0, -1}, {1, -1},
}

// direction returns the neighbour index of d, or -1 if d is not a unit step.
func direction(d image.Point) int {
	for i, n := range neighbours {
		if n == d {
			return i
		}
	}
	return -1
}

type border struct {
	hole   bool
	parent int
}

// tracer holds the labelled, zero padded copy of the mask being traced.
type tracer struct {
	w, h   int // padded dimensions
	labels []int32
}

func (t *tracer) at(p image.Point) int32 {
	return t.labels[p.Y*t.w+p.X]
}

func (t *tracer) set(p image.Point, v int32) {
	t.labels[p.Y*t.w+p.X] = v
}

// Find returns the outer borders of the 8-connected foreground components of
// mask. Any non-zero pixel is foreground. Borders of holes, and of components
// nested inside holes, are traced but not returned.
//
// Each contour starts at the top-most, left-most pixel of its component and
// keeps only the end points of horizontal, vertical and diagonal runs. An
// isolated pixel yields a single point contour.
//
// Arguments:
//   - mask: The binary mask. Its bounds need not start at the origin.
//
// Returns:
//   - The outer contours in raster order of their starting pixel, in the
//     coordinate space of mask.
//
// @example
// contours := Find(mask)
func Find(mask *image.Gray) []Contour {
	b := mask.Rect
	if b.Empty() {
		return nil
	}
	t := &tracer{w: b.Dx() + 2, h: b.Dy() + 2}
	t.labels = make([]int32, t.w*t.h)
	for y := 0; y < b.Dy(); y++ {
		src := mask.Pix[y*mask.Stride : y*mask.Stride+b.Dx()]
		dst := t.labels[(y+1)*t.w+1:]
		for x, v := range src {
			if v != 0 {
				dst[x] = 1
			}
		}
	}

	// Border 1 is the frame around the image and behaves like a hole.
	borders := []border{{}, {hole: true}}
	var out []Contour
	offset := b.Min.Sub(image.Pt(1, 1))

	for y := 1; y < t.h-1; y++ {
		lnbd := int32(1)
		for x := 1; x < t.w-1; x++ {
			p := image.Pt(x, y)
			v := t.at(p)
			if v == 0 {
				continue
			}

			var from image.Point
			var hole bool
			switch {
			case v == 1 && t.at(p.Add(neighbours[4])) == 0:
				from = p.Add(neighbours[4])
			case v >= 1 && t.at(p.Add(neighbours[0])) == 0:
				from = p.Add(neighbours[0])
				hole = true
				if v > 1 {
					lnbd = v
				}
			default:
				if v != 1 {
					lnbd = abs32(v)
				}
				continue
			}

			nbd := int32(len(borders))
			prev := borders[lnbd]
			parent := int(lnbd)
			if prev.hole == hole {
				parent = prev.parent
			}
			borders = append(borders, border{hole: hole, parent: parent})

			points := t.follow(p, from, nbd)
			if !hole && parent == 1 {
				c := simplify(points)
				for i := range c {
					c[i] = c[i].Add(offset)
				}
				out = append(out, c)
			}

			if v := t.at(p); v != 1 {
				lnbd = abs32(v)
			}
		}
	}
	return out
}

// follow traces one border starting at start, whose zero neighbour from was
// found by the raster scan, labelling it with nbd. It returns the visited
// pixels in order without repeating the start.
func (t *tracer) follow(start, from image.Point, nbd int32) []image.Point {
	// Search clockwise from the zero neighbour for the first non-zero pixel.
	d0 := direction(from.Sub(start))
	first := image.Point{-1, -1}
	for i := 0; i < 8; i++ {
		q := start.Add(neighbours[(d0+i)%8])
		if t.at(q) != 0 {
			first = q
			break
		}
	}
	if first.X < 0 {
		t.set(start, -nbd)
		return []image.Point{start}
	}

	var points []image.Point
	prev, cur := first, start
	for {
		points = append(points, cur)

		// Search counter-clockwise around cur, starting just after prev.
		d := direction(prev.Sub(cur))
		var next image.Point
		eastZero := false
		for i := 1; i <= 8; i++ {
			k := (d - i + 16) % 8
			q := cur.Add(neighbours[k])
			if t.at(q) != 0 {
				next = q
				break
			}
			if k == 0 {
				eastZero = true
			}
		}

		if eastZero {
			t.set(cur, -nbd)
		} else if t.at(cur) == 1 {
			t.set(cur, nbd)
		}

		if next == start && cur == first {
			return points
		}
		prev, cur = cur, next
	}
}

// simplify keeps only the points where the chain changes direction. The input
// is a closed pixel chain; consecutive points are 8-neighbours.
func simplify(chain []image.Point) Contour {
	n := len(chain)
	if n <= 2 {
		return append(Contour(nil), chain...)
	}
	out := make(Contour, 0, n/2+1)
	for i := 0; i < n; i++ {
		prev := chain[(i-1+n)%n]
		cur := chain[i]
		next := chain[(i+1)%n]
		if cur.Sub(prev) != next.Sub(cur) {
			out = append(out, cur)
		}
	}
	return out
}

func abs32(v int32) int32 {
	if v < 0 {
		return -v
	}
	return v
}

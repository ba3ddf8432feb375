package contour

import (
	"image"
	"math"
	"sort"
)

// Fill paints the interior and the outline of every polygon in polys into dst
// with value. Pixels are inside when their centre lies inside the polygon
// (even-odd rule per polygon); outline pixels are always painted, so a filled
// polygon covers the same pixels as the contour it came from. Polygons are
// filled independently and their union is painted. Parts outside dst are
// clipped.
func Fill(dst *image.Gray, polys []Contour, value uint8) {
	for _, poly := range polys {
		fillPolygon(dst, poly, value)
		for i := range poly {
			drawLine(dst, poly[i], poly[(i+1)%len(poly)], value)
		}
	}
}

func fillPolygon(dst *image.Gray, poly Contour, value uint8) {
	if len(poly) < 3 {
		return
	}
	b := dst.Rect
	r := BoundingRect(poly).Intersect(b)
	if r.Empty() {
		return
	}

	xs := make([]float64, 0, 8)
	for y := r.Min.Y; y < r.Max.Y; y++ {
		xs = xs[:0]
		fy := float64(y)
		for i, p := range poly {
			q := poly[(i+1)%len(poly)]
			if p.Y == q.Y {
				continue
			}
			// Half-open in y so shared vertices are counted once.
			lo, hi := p, q
			if lo.Y > hi.Y {
				lo, hi = hi, lo
			}
			if y < lo.Y || y >= hi.Y {
				continue
			}
			t := (fy - float64(lo.Y)) / float64(hi.Y-lo.Y)
			xs = append(xs, float64(lo.X)+t*float64(hi.X-lo.X))
		}
		sort.Float64s(xs)
		off := (y - b.Min.Y) * dst.Stride
		for i := 0; i+1 < len(xs); i += 2 {
			x0 := max(int(math.Ceil(xs[i])), b.Min.X)
			x1 := min(int(math.Floor(xs[i+1])), b.Max.X-1)
			for x := x0; x <= x1; x++ {
				dst.Pix[off+x-b.Min.X] = value
			}
		}
	}
}

// drawLine paints the 8-connected Bresenham line from a to b inclusive.
func drawLine(dst *image.Gray, a, b image.Point, value uint8) {
	dx := abs(b.X - a.X)
	dy := -abs(b.Y - a.Y)
	sx, sy := 1, 1
	if a.X > b.X {
		sx = -1
	}
	if a.Y > b.Y {
		sy = -1
	}
	e := dx + dy
	for {
		if a.In(dst.Rect) {
			dst.Pix[dst.PixOffset(a.X, a.Y)] = value
		}
		if a == b {
			return
		}
		e2 := 2 * e
		if e2 >= dy {
			e += dy
			a.X += sx
		}
		if e2 <= dx {
			e += dx
			a.Y += sy
		}
	}
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

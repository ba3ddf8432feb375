package contour

import (
	"image"
	"math"

	"github.com/golang/geo/r2"
)

func toR2(p image.Point) r2.Point {
	return r2.Point{X: float64(p.X), Y: float64(p.Y)}
}

// Area returns the absolute area enclosed by c, measured over its vertices
// with the shoelace formula. Contours with fewer than 3 points have zero area.
func Area(c Contour) float64 {
	if len(c) < 3 {
		return 0
	}
	var twice int64
	for i, p := range c {
		q := c[(i+1)%len(c)]
		twice += int64(p.X)*int64(q.Y) - int64(q.X)*int64(p.Y)
	}
	return math.Abs(float64(twice)) / 2
}

// ArcLength returns the perimeter of c. When closed is false the segment from
// the last point back to the first is not counted.
func ArcLength(c Contour, closed bool) float64 {
	if len(c) < 2 {
		return 0
	}
	total := 0.0
	for i := 1; i < len(c); i++ {
		total += toR2(c[i]).Sub(toR2(c[i-1])).Norm()
	}
	if closed {
		total += toR2(c[0]).Sub(toR2(c[len(c)-1])).Norm()
	}
	return total
}

// BoundingRect returns the smallest rectangle containing every point of c.
// Max is exclusive, so a single point yields a 1x1 rectangle.
func BoundingRect(c Contour) image.Rectangle {
	if len(c) == 0 {
		return image.Rectangle{}
	}
	r := image.Rectangle{Min: c[0], Max: c[0]}
	for _, p := range c[1:] {
		r.Min.X = min(r.Min.X, p.X)
		r.Min.Y = min(r.Min.Y, p.Y)
		r.Max.X = max(r.Max.X, p.X)
		r.Max.Y = max(r.Max.Y, p.Y)
	}
	r.Max = r.Max.Add(image.Pt(1, 1))
	return r
}

// IsConvex reports whether c is a convex polygon.
//
// Every turn must bend the same way, except that straight continuations are
// allowed. The turns must also add up to a single revolution, which rejects
// self-intersecting shapes such as pentagrams whose turns all share a sign.
// Repeated points are ignored. Fewer than three distinct vertices, spikes that
// double back on themselves and polygons without any turn are not convex.
func IsConvex(c Contour) bool {
	pts := make([]r2.Point, 0, len(c))
	for i, p := range c {
		if i > 0 && p == c[i-1] {
			continue
		}
		pts = append(pts, toR2(p))
	}
	if len(pts) > 1 && pts[0] == pts[len(pts)-1] {
		pts = pts[:len(pts)-1]
	}
	n := len(pts)
	if n < 3 {
		return false
	}

	sign := 0
	turning := 0.0
	for i := 0; i < n; i++ {
		a := pts[(i+1)%n].Sub(pts[i])
		b := pts[(i+2)%n].Sub(pts[(i+1)%n])
		cross := a.Cross(b)
		dot := a.Dot(b)
		switch {
		case cross > 0:
			if sign < 0 {
				return false
			}
			sign = 1
		case cross < 0:
			if sign > 0 {
				return false
			}
			sign = -1
		case dot < 0:
			return false
		}
		turning += math.Atan2(cross, dot)
	}
	if sign == 0 {
		return false
	}
	return math.Abs(math.Abs(turning)-2*math.Pi) < 1e-6
}

// ApproxPoly simplifies the closed polygon c with the Douglas-Peucker
// algorithm so that no removed point lies further than epsilon from the
// simplified outline.
//
// The polygon is first split at the point furthest from c[0]; each half is
// then simplified recursively. An epsilon <= 0, or fewer than three points,
// returns a copy of c.
//
// Arguments:
//   - c: The closed polygon to simplify.
//   - epsilon: Maximum distance, in pixels, between c and the result.
//
// Returns:
//   - The simplified polygon, a subsequence of c starting at c[0].
//
// @example
// simplified := ApproxPoly(c, 0.02*ArcLength(c, true))
func ApproxPoly(c Contour, epsilon float64) Contour {
	if epsilon <= 0 || len(c) < 3 {
		return append(Contour(nil), c...)
	}

	pts := make([]r2.Point, len(c))
	for i, p := range c {
		pts[i] = toR2(p)
	}

	far, farDist := 0, -1.0
	for i := 1; i < len(pts); i++ {
		if d := pts[i].Sub(pts[0]).Norm(); d > farDist {
			far, farDist = i, d
		}
	}
	if farDist == 0 {
		return Contour{c[0]}
	}

	keep := make([]bool, len(c))
	keep[0], keep[far] = true, true
	douglasPeucker(pts, 0, far, epsilon, keep)

	// Second half wraps around to c[0].
	ring := append(pts[far:len(pts):len(pts)], pts[0])
	ringKeep := make([]bool, len(ring))
	douglasPeucker(ring, 0, len(ring)-1, epsilon, ringKeep)
	for i := 1; i < len(ring)-1; i++ {
		if ringKeep[i] {
			keep[far+i] = true
		}
	}

	out := make(Contour, 0, 8)
	for i, k := range keep {
		if k {
			out = append(out, c[i])
		}
	}
	return out
}

// douglasPeucker marks in keep the points of pts[first:last+1] that must stay
// so every dropped point is within epsilon of the kept chain.
func douglasPeucker(pts []r2.Point, first, last int, epsilon float64, keep []bool) {
	for last-first > 1 {
		idx, dist := -1, 0.0
		for i := first + 1; i < last; i++ {
			if d := segmentDistance(pts[i], pts[first], pts[last]); d > dist {
				idx, dist = i, d
			}
		}
		if idx < 0 || dist <= epsilon {
			return
		}
		keep[idx] = true
		douglasPeucker(pts, first, idx, epsilon, keep)
		first = idx
	}
}

// segmentDistance is the distance from p to the line through a and b, or to a
// when the two coincide.
func segmentDistance(p, a, b r2.Point) float64 {
	ab := b.Sub(a)
	length := ab.Norm()
	if length == 0 {
		return p.Sub(a).Norm()
	}
	return math.Abs(ab.Cross(p.Sub(a))) / length
}

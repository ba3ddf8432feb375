package boundary

import (
	"image"

	"github.com/nvr-ai/go-silhouette/contour"
)

// MinRegionArea is the noise floor in pixels². Contours enclosing this much
// area or less are never filled and never boxed.
const MinRegionArea = 500.0

// Closure is the verdict for one simplified contour.
type Closure int

const (
	// Degenerate contours have fewer than three vertices or no area.
	Degenerate Closure = iota
	// TooSmall contours enclose MinRegionArea or less.
	TooSmall
	// Open contours are large enough but neither convex nor complex.
	Open
	// Closed contours are filled.
	Closed
)

func (c Closure) String() string {
	switch c {
	case Degenerate:
		return "degenerate"
	case TooSmall:
		return "too_small"
	case Open:
		return "open"
	case Closed:
		return "closed"
	default:
		return "unknown"
	}
}

// Classify decides whether a simplified contour outlines a closed region.
//
// Outlines with more than MinRegionArea are closed when they are convex or
// still have more than four vertices after simplification; loose scribbles
// tend to collapse to very few vertices.
func Classify(c contour.Contour) Closure {
	if len(c) < 3 {
		return Degenerate
	}
	area := contour.Area(c)
	if area == 0 {
		return Degenerate
	}
	if area <= MinRegionArea {
		return TooSmall
	}
	if len(c) > 4 || contour.IsConvex(c) {
		return Closed
	}
	return Open
}

// ClosureStats counts the verdicts of one frame.
type ClosureStats struct {
	Closed     int `json:"closed"`
	Open       int `json:"open"`
	TooSmall   int `json:"too_small"`
	Degenerate int `json:"degenerate"`
}

// FillClosed returns a fresh mask of the given bounds with every closed
// contour filled with 255, interior and outline. Everything else stays 0.
func FillClosed(bounds image.Rectangle, contours []contour.Contour) (*image.Gray, ClosureStats) {
	fill := image.NewGray(bounds)
	var stats ClosureStats
	closed := make([]contour.Contour, 0, len(contours))
	for _, c := range contours {
		switch Classify(c) {
		case Closed:
			stats.Closed++
			closed = append(closed, c)
		case Open:
			stats.Open++
		case TooSmall:
			stats.TooSmall++
		default:
			stats.Degenerate++
		}
	}
	contour.Fill(fill, closed, 255)
	return fill, stats
}

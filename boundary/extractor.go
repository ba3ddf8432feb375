package boundary

import (
	"image"

	"github.com/nvr-ai/go-silhouette/contour"
)

// Extraction holds the outer contours of one mask. Simplified[i] is the
// simplified form of Raw[i].
type Extraction struct {
	Raw        []contour.Contour
	Simplified []contour.Contour
}

// Extract finds the outer boundary of every foreground component of mask and
// simplifies each one with a tolerance of epsilonFactor times its perimeter.
// An epsilonFactor of zero leaves the outlines untouched. Nested contours are
// not returned.
func Extract(mask *image.Gray, epsilonFactor float64) Extraction {
	raw := contour.Find(mask)
	simplified := make([]contour.Contour, len(raw))
	for i, c := range raw {
		simplified[i] = contour.ApproxPoly(c, epsilonFactor*contour.ArcLength(c, true))
	}
	return Extraction{Raw: raw, Simplified: simplified}
}

package boundary

import (
	"image"
	"image/color"

	"github.com/fogleman/gg"
	"github.com/lucasb-eyer/go-colorful"
	"github.com/pkg/errors"

	"github.com/nvr-ai/go-silhouette/contour"
	"github.com/nvr-ai/go-silhouette/images"
)

// Style controls how the overlay is drawn.
type Style struct {
	// Background fills the stabilized regions.
	Background color.RGBA
	// Accent colours the bounding boxes.
	Accent color.RGBA
	// StrokeWidth of the bounding boxes in pixels.
	StrokeWidth float64
	// SoftEdges scales Background by the mask intensity instead of painting
	// every non-zero mask pixel at full strength.
	SoftEdges bool
}

// DefaultStyle is red regions with green 2 px boxes.
func DefaultStyle() Style {
	return Style{
		Background:  color.RGBA{R: 255, A: 255},
		Accent:      color.RGBA{G: 255, A: 255},
		StrokeWidth: 2,
	}
}

// ParseColor parses a hex colour such as "#ff0000".
func ParseColor(hex string) (color.RGBA, error) {
	c, err := colorful.Hex(hex)
	if err != nil {
		return color.RGBA{}, errors.Wrapf(err, "parse colour %q", hex)
	}
	r, g, b := c.RGB255()
	return color.RGBA{R: r, G: g, B: b, A: 255}, nil
}

// Composite renders the overlay frame.
//
// Pixels where smoothed is non-zero get the background colour, all others are
// black. Then every raw contour enclosing more than MinRegionArea gets its
// bounding rectangle stroked in the accent colour.
//
// Arguments:
//   - smoothed: The stabilized mask.
//   - raw: The unsimplified contours of the frame.
//   - style: Colours, stroke width and SoftEdges.
//
// Returns:
//   - A new *image.RGBA with the dimensions of smoothed.
//   - The number of boxes drawn.
func Composite(smoothed *image.Gray, raw []contour.Contour, style Style) (*image.RGBA, int) {
	w, h := smoothed.Rect.Dx(), smoothed.Rect.Dy()
	out := image.NewRGBA(image.Rect(0, 0, w, h))
	bg := style.Background

	images.Parallel(h, func(partStart, partEnd int) {
		for y := partStart; y < partEnd; y++ {
			in := smoothed.Pix[y*smoothed.Stride : y*smoothed.Stride+w]
			dst := out.Pix[y*out.Stride : y*out.Stride+4*w]
			for x, v := range in {
				p := dst[4*x : 4*x+4 : 4*x+4]
				p[3] = 255
				switch {
				case v == 0:
				case style.SoftEdges:
					p[0] = scale(bg.R, v)
					p[1] = scale(bg.G, v)
					p[2] = scale(bg.B, v)
				default:
					p[0], p[1], p[2] = bg.R, bg.G, bg.B
				}
			}
		}
	})

	boxes := 0
	var dc *gg.Context
	for _, c := range raw {
		if contour.Area(c) <= MinRegionArea {
			continue
		}
		if dc == nil {
			dc = gg.NewContextForRGBA(out)
		}
		drawRectangleEmpty(dc, contour.BoundingRect(c), style.Accent, style.StrokeWidth)
		boxes++
	}
	return out, boxes
}

func scale(c, v uint8) uint8 {
	return uint8((uint32(c)*uint32(v) + 127) / 255)
}

// drawRectangleEmpty strokes the four edges of r. Square caps extend each
// edge by half the width so the corners are filled.
func drawRectangleEmpty(dc *gg.Context, r image.Rectangle, c color.Color, width float64) {
	dc.SetColor(c)
	dc.SetLineWidth(width)
	dc.SetLineCapSquare()

	x0, y0 := float64(r.Min.X), float64(r.Min.Y)
	x1, y1 := float64(r.Max.X), float64(r.Max.Y)
	for _, edge := range [4][4]float64{
		{x0, y0, x1, y0},
		{x0, y0, x0, y1},
		{x1, y0, x1, y1},
		{x0, y1, x1, y1},
	} {
		dc.DrawLine(edge[0], edge[1], edge[2], edge[3])
		dc.Stroke()
	}
}

// DrawContours returns a copy of frame with every contour outlined in c.
// It backs the contour debug view and leaves frame untouched.
func DrawContours(frame image.Image, contours []contour.Contour, c color.Color, width float64) *image.RGBA {
	src := images.ToRGBA(frame)
	out := image.NewRGBA(image.Rect(0, 0, src.Rect.Dx(), src.Rect.Dy()))
	for y := 0; y < out.Rect.Dy(); y++ {
		copy(out.Pix[y*out.Stride:y*out.Stride+4*out.Rect.Dx()], src.Pix[src.PixOffset(src.Rect.Min.X, src.Rect.Min.Y+y):])
	}

	dc := gg.NewContextForRGBA(out)
	dc.SetColor(c)
	dc.SetLineWidth(width)
	dc.SetLineJoinRound()
	for _, ct := range contours {
		if len(ct) == 0 {
			continue
		}
		dc.MoveTo(float64(ct[0].X)+0.5, float64(ct[0].Y)+0.5)
		for _, p := range ct[1:] {
			dc.LineTo(float64(p.X)+0.5, float64(p.Y)+0.5)
		}
		dc.ClosePath()
		dc.Stroke()
	}
	return out
}

// Package contour extracts and measures the outlines of foreground regions in
// binary masks.
//
// Find traces the outer border of every 8-connected foreground component using
// the Suzuki-Abe border following algorithm and compresses straight runs so
// only their end points remain. The remaining helpers operate on the resulting
// closed polygons: Area, ArcLength, ApproxPoly (Douglas-Peucker), IsConvex,
// BoundingRect and Fill.
//
// Coordinates are pixel coordinates of the mask; a polygon vertex is the centre
// of the pixel it names.
package contour

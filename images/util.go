package images

import (
	"crypto/md5"
	"fmt"
	"image"
)

// ComputeChecksum generates a deterministic checksum over the pixel data of an
// image, used to verify idempotency and to detect repeated frames.
//
// Arguments:
// - img: The image to compute checksum for. *image.Gray and *image.RGBA are
// hashed row by row over their visible bounds; other types are converted first.
//
// Returns:
// - A hex-encoded MD5 checksum string, or "empty" for a zero-sized image.
//
// Example:
//
// ```go
//
//	checksum := ComputeChecksum(frame)
//	fmt.Printf("Frame checksum: %s\n", checksum)
//
// ```
func ComputeChecksum(img image.Image) string {
	b := img.Bounds()
	if b.Empty() {
		return "empty"
	}

	var (
		pix    []byte
		stride int
		bpp    int
	)
	switch m := img.(type) {
	case *image.Gray:
		pix, stride, bpp = m.Pix, m.Stride, 1
		pix = pix[m.PixOffset(b.Min.X, b.Min.Y):]
	case *image.RGBA:
		pix, stride, bpp = m.Pix, m.Stride, 4
		pix = pix[m.PixOffset(b.Min.X, b.Min.Y):]
	default:
		rgba := ToRGBA(img)
		pix, stride, bpp = rgba.Pix, rgba.Stride, 4
	}

	hash := md5.New()
	// Hash the size too so that a 2x8 and a 4x4 image with the same bytes differ.
	fmt.Fprintf(hash, "%dx%d:", b.Dx(), b.Dy())
	rowLen := b.Dx() * bpp
	for y := 0; y < b.Dy(); y++ {
		hash.Write(pix[y*stride : y*stride+rowLen])
	}
	return fmt.Sprintf("%x", hash.Sum(nil))
}

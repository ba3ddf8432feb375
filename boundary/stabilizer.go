package boundary

import (
	"image"

	"github.com/nvr-ai/go-silhouette/images/kernels"
)

// StabilizerKernelSize is the side of the square opening element.
const StabilizerKernelSize = 5

// Stabilize opens the accumulated mask with a 5x5 square, removing bright
// speckles smaller than the element while restoring the extent of larger
// regions.
func Stabilize(accumulated *image.Gray, opt kernels.Options) *image.Gray {
	return kernels.Open(accumulated, StabilizerKernelSize, opt)
}

// Package images provides type definitions and lookups for the capture
// resolutions webcams commonly expose. Sources use them to request a capture
// size by name and to describe the size of the frames they actually deliver.
package images

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// AspectRatio represents an aspect ratio by name (e.g., "16:9").
type AspectRatio string

// Defines the aspect ratios of the supported capture modes.
const (
	AspectRatio169 AspectRatio = "16:9"
	AspectRatio43  AspectRatio = "4:3"
)

// ResolutionType represents the common name of a capture resolution.
type ResolutionType string

// Defines the unique type for each supported capture resolution.
const (
	ResolutionTypeQVGA     ResolutionType = "QVGA"
	ResolutionTypeNHD      ResolutionType = "nHD"
	ResolutionTypeVGA      ResolutionType = "VGA"
	ResolutionTypeSVGA     ResolutionType = "SVGA"
	ResolutionTypeHD720p   ResolutionType = "HD 720p"
	ResolutionTypeFHD1080p ResolutionType = "Full HD 1080p"
)

// ErrUnknownResolution is returned by ParseResolution for unknown names.
var ErrUnknownResolution = errors.New("unknown resolution")

// ResolutionPixels describes the exact dimensions of a resolution.
type ResolutionPixels struct {
	Width  int `json:"width" yaml:"width"`
	Height int `json:"height" yaml:"height"`
}

// Resolution describes a capture resolution.
type Resolution struct {
	Name        ResolutionType   `json:"name" yaml:"name"`
	AspectRatio AspectRatio      `json:"aspectRatio" yaml:"aspect_ratio"`
	Pixels      ResolutionPixels `json:"pixels" yaml:"pixels"`
}

// GetMegaPixels calculates the megapixel value based on the resolution's pixel dimensions.
// It returns the value rounded to two decimal places (e.g., 2.07 for 1080p).
func (r Resolution) GetMegaPixels() float64 {
	if r.Pixels.Width <= 0 || r.Pixels.Height <= 0 {
		return 0.0
	}
	mp := float64(r.Pixels.Width*r.Pixels.Height) / 1_000_000.0
	return math.Round(mp*100) / 100
}

// String returns a human-readable summary of the resolution.
func (r Resolution) String() string {
	if r.Name == "" {
		return fmt.Sprintf("%dx%d", r.Pixels.Width, r.Pixels.Height)
	}
	return fmt.Sprintf("%s (%dx%d, %.2fMP)", r.Name, r.Pixels.Width, r.Pixels.Height, r.GetMegaPixels())
}

// resolutions stores the supported capture modes keyed by type.
var resolutions = map[ResolutionType]Resolution{
	ResolutionTypeQVGA: {
		Name:        ResolutionTypeQVGA,
		AspectRatio: AspectRatio43,
		Pixels:      ResolutionPixels{Width: 320, Height: 240},
	},
	ResolutionTypeNHD: {
		Name:        ResolutionTypeNHD,
		AspectRatio: AspectRatio169,
		Pixels:      ResolutionPixels{Width: 640, Height: 360},
	},
	ResolutionTypeVGA: {
		Name:        ResolutionTypeVGA,
		AspectRatio: AspectRatio43,
		Pixels:      ResolutionPixels{Width: 640, Height: 480},
	},
	ResolutionTypeSVGA: {
		Name:        ResolutionTypeSVGA,
		AspectRatio: AspectRatio43,
		Pixels:      ResolutionPixels{Width: 800, Height: 600},
	},
	ResolutionTypeHD720p: {
		Name:        ResolutionTypeHD720p,
		AspectRatio: AspectRatio169,
		Pixels:      ResolutionPixels{Width: 1280, Height: 720},
	},
	ResolutionTypeFHD1080p: {
		Name:        ResolutionTypeFHD1080p,
		AspectRatio: AspectRatio169,
		Pixels:      ResolutionPixels{Width: 1920, Height: 1080},
	},
}

// aliases maps short lower-case names to resolution types.
var aliases = map[string]ResolutionType{
	"qvga":  ResolutionTypeQVGA,
	"360p":  ResolutionTypeNHD,
	"nhd":   ResolutionTypeNHD,
	"vga":   ResolutionTypeVGA,
	"480p":  ResolutionTypeVGA,
	"svga":  ResolutionTypeSVGA,
	"720p":  ResolutionTypeHD720p,
	"hd":    ResolutionTypeHD720p,
	"1080p": ResolutionTypeFHD1080p,
	"fhd":   ResolutionTypeFHD1080p,
}

// GetSupportedResolutions returns all capture modes ordered by pixel count.
func GetSupportedResolutions() []Resolution {
	all := make([]Resolution, 0, len(resolutions))
	for _, res := range resolutions {
		all = append(all, res)
	}
	sort.Slice(all, func(i, j int) bool {
		return all[i].Pixels.Width*all[i].Pixels.Height < all[j].Pixels.Width*all[j].Pixels.Height
	})
	return all
}

// AliasesOf returns the short names ParseResolution accepts for t, sorted.
func AliasesOf(t ResolutionType) []string {
	var names []string
	for alias, target := range aliases {
		if target == t {
			names = append(names, alias)
		}
	}
	sort.Strings(names)
	return names
}

// GetResolutionByType retrieves a specific resolution by its type.
func GetResolutionByType(t ResolutionType) (Resolution, bool) {
	res, ok := resolutions[t]
	return res, ok
}

// ParseResolution resolves a user supplied resolution. It accepts a type name
// ("HD 720p"), an alias ("720p", "vga") or explicit dimensions ("1024x768").
//
// Arguments:
//   - s: The resolution string.
//
// Returns:
//   - Resolution: The matching resolution. Explicit dimensions that do not
//     match a known mode yield an unnamed Resolution.
//   - error: ErrUnknownResolution when s cannot be interpreted.
func ParseResolution(s string) (Resolution, error) {
	s = strings.TrimSpace(s)
	if res, ok := resolutions[ResolutionType(s)]; ok {
		return res, nil
	}
	if t, ok := aliases[strings.ToLower(s)]; ok {
		return resolutions[t], nil
	}

	w, h, found := strings.Cut(strings.ToLower(s), "x")
	if found {
		width, errW := strconv.Atoi(strings.TrimSpace(w))
		height, errH := strconv.Atoi(strings.TrimSpace(h))
		if errW == nil && errH == nil && width > 0 && height > 0 {
			return IdentifyResolution(width, height), nil
		}
	}
	return Resolution{}, errors.Wrapf(ErrUnknownResolution, "%q", s)
}

// IdentifyResolution names a frame size when it matches a known capture mode,
// otherwise it returns an unnamed Resolution carrying the dimensions.
func IdentifyResolution(width, height int) Resolution {
	for _, res := range resolutions {
		if res.Pixels.Width == width && res.Pixels.Height == height {
			return res
		}
	}
	return Resolution{Pixels: ResolutionPixels{Width: width, Height: height}}
}

// Package params - Tunable parameters of the boundary pipeline, their valid
// ranges and a concurrency-safe store operators can change while frames are
// being processed.
package params

import (
	"math"
	"sort"

	"github.com/pkg/errors"
)

// ErrUnknownParameter is returned by SetNamed for names that are not in Specs.
var ErrUnknownParameter = errors.New("unknown parameter")

// Set holds one value for every tunable. The pipeline reads a Set once per
// frame and never mutates it.
type Set struct {
	// LowThreshold is a reserved edge threshold. It is carried and exposed
	// but no stage reads it.
	LowThreshold int `json:"low_threshold" yaml:"low_threshold"`
	// HighThreshold is the reserved upper edge threshold. Unused, like LowThreshold.
	HighThreshold int `json:"high_threshold" yaml:"high_threshold"`
	// DilationKernelSize is the side of the square element used to bridge gaps
	// in the segmented boundaries.
	DilationKernelSize int `json:"dilation_kernel_size" yaml:"dilation_kernel_size"`
	// EpsilonFactor is the contour simplification tolerance as a fraction of the
	// contour perimeter. Zero disables simplification.
	EpsilonFactor float64 `json:"epsilon_factor" yaml:"epsilon_factor"`
	// FadeOutRate is the weight of the accumulated history.
	FadeOutRate float64 `json:"fade_out_rate" yaml:"fade_out_rate"`
	// NewMaskContribution is the weight of the current frame's fill mask.
	NewMaskContribution float64 `json:"new_mask_contribution" yaml:"new_mask_contribution"`
}

// Defaults returns the parameter values the pipeline starts with.
func Defaults() Set {
	return Set{
		LowThreshold:        50,
		HighThreshold:       150,
		DilationKernelSize:  1,
		EpsilonFactor:       0,
		FadeOutRate:         0.7,
		NewMaskContribution: 0.3,
	}
}

// Spec describes one tunable.
type Spec struct {
	// Name is the snake_case key used in files, JSON and trackbars.
	Name string
	// Label is the human readable name shown on sliders.
	Label string

	Min     float64
	Max     float64
	Default float64
	// Integer tunables are rounded to the nearest whole number when set.
	Integer bool
	// Scale converts the value to an integer slider position (value * Scale).
	Scale float64

	get func(*Set) float64
	set func(*Set, float64)
}

// Get reads the tunable from s.
func (sp Spec) Get(s Set) float64 { return sp.get(&s) }

// Position converts a value to a slider position in [0, MaxPosition].
func (sp Spec) Position(v float64) int {
	return int(math.Round(sp.clampValue(v) * sp.Scale))
}

// FromPosition converts a slider position back to a clamped value. Sliders
// start at zero even when the range does not, so position 0 of a tunable with
// Min 1 reads as 1.
func (sp Spec) FromPosition(pos int) float64 {
	return sp.clampValue(float64(pos) / sp.Scale)
}

// MaxPosition is the largest slider position.
func (sp Spec) MaxPosition() int {
	return int(math.Round(sp.Max * sp.Scale))
}

// Specs lists every tunable in display order.
var Specs = []Spec{
	{
		Name: "low_threshold", Label: "Low Threshold",
		Min: 0, Max: 255, Default: 50, Integer: true, Scale: 1,
		get: func(s *Set) float64 { return float64(s.LowThreshold) },
		set: func(s *Set, v float64) { s.LowThreshold = int(v) },
	},
	{
		Name: "high_threshold", Label: "High Threshold",
		Min: 0, Max: 255, Default: 150, Integer: true, Scale: 1,
		get: func(s *Set) float64 { return float64(s.HighThreshold) },
		set: func(s *Set, v float64) { s.HighThreshold = int(v) },
	},
	{
		Name: "dilation_kernel_size", Label: "Dilation Kernel",
		Min: 1, Max: 10, Default: 1, Integer: true, Scale: 1,
		get: func(s *Set) float64 { return float64(s.DilationKernelSize) },
		set: func(s *Set, v float64) { s.DilationKernelSize = int(v) },
	},
	{
		Name: "epsilon_factor", Label: "Contour Approx (x0.01)",
		Min: 0, Max: 0.2, Default: 0, Scale: 100,
		get: func(s *Set) float64 { return s.EpsilonFactor },
		set: func(s *Set, v float64) { s.EpsilonFactor = v },
	},
	{
		Name: "fade_out_rate", Label: "Fade-out (Old Mask)",
		Min: 0, Max: 1, Default: 0.7, Scale: 100,
		get: func(s *Set) float64 { return s.FadeOutRate },
		set: func(s *Set, v float64) { s.FadeOutRate = v },
	},
	{
		Name: "new_mask_contribution", Label: "New Mask Contribution",
		Min: 0, Max: 1, Default: 0.3, Scale: 100,
		get: func(s *Set) float64 { return s.NewMaskContribution },
		set: func(s *Set, v float64) { s.NewMaskContribution = v },
	},
}

// Lookup returns the Spec with the given name.
func Lookup(name string) (Spec, bool) {
	for _, sp := range Specs {
		if sp.Name == name {
			return sp, true
		}
	}
	return Spec{}, false
}

// Names returns the tunable names sorted alphabetically.
func Names() []string {
	names := make([]string, len(Specs))
	for i, sp := range Specs {
		names[i] = sp.Name
	}
	sort.Strings(names)
	return names
}

// clampValue maps v into the tunable's range. NaN falls back to the default and
// infinities clamp to the nearest bound.
func (sp Spec) clampValue(v float64) float64 {
	if math.IsNaN(v) {
		return sp.Default
	}
	if sp.Integer {
		v = math.Round(v)
	}
	return math.Max(sp.Min, math.Min(sp.Max, v))
}

// Clamp returns a copy of s with every tunable moved to the nearest bound of
// its range. Out-of-range values are never an error.
//
// @example
// p := params.Set{DilationKernelSize: 0, FadeOutRate: 1.5}.Clamp()
// // p.DilationKernelSize == 1, p.FadeOutRate == 1
func (s Set) Clamp() Set {
	for _, sp := range Specs {
		sp.set(&s, sp.clampValue(sp.get(&s)))
	}
	return s
}

// SetNamed assigns value to the tunable called name, clamping it to range.
func (s *Set) SetNamed(name string, value float64) error {
	sp, ok := Lookup(name)
	if !ok {
		return errors.Wrapf(ErrUnknownParameter, "%q", name)
	}
	sp.set(s, sp.clampValue(value))
	return nil
}

// Values returns the tunables keyed by name.
func (s Set) Values() map[string]float64 {
	out := make(map[string]float64, len(Specs))
	for _, sp := range Specs {
		out[sp.Name] = sp.get(&s)
	}
	return out
}

// BlendWeights returns the history and new-mask weights the accumulator uses.
// Both are clamped to [0, 1]; when they add up to more than one they are
// rescaled so their sum is exactly one.
//
// Returns:
//   - fade: The weight of the accumulated history.
//   - contribution: The weight of the current fill mask.
func (s Set) BlendWeights() (fade, contribution float64) {
	c := s.Clamp()
	fade, contribution = c.FadeOutRate, c.NewMaskContribution
	if sum := fade + contribution; sum > 1 {
		fade /= sum
		contribution = 1 - fade
	}
	return fade, contribution
}

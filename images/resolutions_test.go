package images

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestResolution_GetMegaPixels performs table-driven tests on the GetMegaPixels method
// to ensure its calculations are accurate across the capture modes.
func TestResolution_GetMegaPixels(t *testing.T) {
	testCases := []struct {
		name     string
		res      Resolution
		expected float64
	}{
		{
			name: "Full HD 1080p",
			res:  resolutions[ResolutionTypeFHD1080p],
			// 1920 * 1080 = 2,073,600 -> 2.07 MP
			expected: 2.07,
		},
		{
			name: "VGA",
			res:  resolutions[ResolutionTypeVGA],
			// 640 * 480 = 307,200 -> 0.31 MP
			expected: 0.31,
		},
		{
			name:     "Zero Width",
			res:      Resolution{Pixels: ResolutionPixels{Width: 0, Height: 1080}},
			expected: 0.0,
		},
		{
			name:     "Negative Height",
			res:      Resolution{Pixels: ResolutionPixels{Width: 1920, Height: -1}},
			expected: 0.0,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.InDelta(t, tc.expected, tc.res.GetMegaPixels(), 1e-9)
		})
	}
}

func TestParseResolution(t *testing.T) {
	tests := []struct {
		in     string
		width  int
		height int
		named  bool
	}{
		{"HD 720p", 1280, 720, true},
		{"720p", 1280, 720, true},
		{"VGA", 640, 480, true},
		{" 640x480 ", 640, 480, true},
		{"1024x768", 1024, 768, false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			res, err := ParseResolution(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.width, res.Pixels.Width)
			assert.Equal(t, tt.height, res.Pixels.Height)
			assert.Equal(t, tt.named, res.Name != "")
		})
	}

	for _, bad := range []string{"", "huge", "0x480", "axb"} {
		_, err := ParseResolution(bad)
		assert.ErrorIs(t, err, ErrUnknownResolution, bad)
	}
}

func TestGetSupportedResolutionsOrdered(t *testing.T) {
	all := GetSupportedResolutions()
	require.Len(t, all, len(resolutions))
	for i := 1; i < len(all); i++ {
		prev := all[i-1].Pixels.Width * all[i-1].Pixels.Height
		cur := all[i].Pixels.Width * all[i].Pixels.Height
		assert.LessOrEqual(t, prev, cur)
	}
}

func TestAliasesOf(t *testing.T) {
	assert.Equal(t, []string{"720p", "hd"}, AliasesOf(ResolutionTypeHD720p))
	assert.Equal(t, []string{"qvga"}, AliasesOf(ResolutionTypeQVGA))
	assert.Empty(t, AliasesOf("8K"))
	for _, alias := range AliasesOf(ResolutionTypeVGA) {
		res, err := ParseResolution(alias)
		require.NoError(t, err)
		assert.Equal(t, ResolutionTypeVGA, res.Name)
	}
}

func TestResolution_String(t *testing.T) {
	assert.Equal(t, "VGA (640x480, 0.31MP)", resolutions[ResolutionTypeVGA].String())
	assert.Equal(t, "1024x768", IdentifyResolution(1024, 768).String())
}

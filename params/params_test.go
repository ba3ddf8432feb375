package params

import (
	"context"
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func TestDefaultsAreInRange(t *testing.T) {
	d := Defaults()
	assert.Equal(t, d, d.Clamp())
	for _, sp := range Specs {
		assert.Equal(t, sp.Default, sp.Get(d), sp.Name)
	}
}

func TestClamp(t *testing.T) {
	tests := []struct {
		name string
		in   Set
		want Set
	}{
		{
			name: "below range",
			in:   Set{LowThreshold: -5, HighThreshold: -1, DilationKernelSize: 0, EpsilonFactor: -0.1, FadeOutRate: -1, NewMaskContribution: -2},
			want: Set{LowThreshold: 0, HighThreshold: 0, DilationKernelSize: 1, EpsilonFactor: 0, FadeOutRate: 0, NewMaskContribution: 0},
		},
		{
			name: "above range",
			in:   Set{LowThreshold: 300, HighThreshold: 256, DilationKernelSize: 25, EpsilonFactor: 0.5, FadeOutRate: 1.5, NewMaskContribution: 9},
			want: Set{LowThreshold: 255, HighThreshold: 255, DilationKernelSize: 10, EpsilonFactor: 0.2, FadeOutRate: 1, NewMaskContribution: 1},
		},
		{
			name: "not a number",
			in:   Set{LowThreshold: 10, HighThreshold: 20, DilationKernelSize: 3, EpsilonFactor: math.NaN(), FadeOutRate: math.NaN(), NewMaskContribution: 0.5},
			want: Set{LowThreshold: 10, HighThreshold: 20, DilationKernelSize: 3, EpsilonFactor: 0, FadeOutRate: 0.7, NewMaskContribution: 0.5},
		},
		{
			name: "infinities clamp to bounds",
			in:   Set{LowThreshold: 10, HighThreshold: 20, DilationKernelSize: 3, EpsilonFactor: math.Inf(1), FadeOutRate: math.Inf(-1), NewMaskContribution: math.Inf(1)},
			want: Set{LowThreshold: 10, HighThreshold: 20, DilationKernelSize: 3, EpsilonFactor: 0.2, FadeOutRate: 0, NewMaskContribution: 1},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.in.Clamp())
		})
	}
}

func TestBlendWeightsNormalization(t *testing.T) {
	tests := []struct {
		fade, contribution float64
		wantFade, wantNew  float64
	}{
		{0.7, 0.3, 0.7, 0.3},
		{0.5, 0.2, 0.5, 0.2},
		{1, 1, 0.5, 0.5},
		{0.9, 0.6, 0.6, 0.4},
		{0.33, 0.99, 0.25, 0.75},
		{2, 0, 1, 0},
	}
	for _, tt := range tests {
		s := Defaults()
		s.FadeOutRate, s.NewMaskContribution = tt.fade, tt.contribution
		f, n := s.BlendWeights()
		assert.InDelta(t, tt.wantFade, f, 1e-12)
		assert.InDelta(t, tt.wantNew, n, 1e-12)
		assert.LessOrEqual(t, f+n, 1.0)
		if tt.fade+tt.contribution > 1 {
			assert.Equal(t, 1.0, f+n, "weights above one must sum to exactly one")
		}
	}
}

func TestSetNamed(t *testing.T) {
	s := Defaults()
	require.NoError(t, s.SetNamed("dilation_kernel_size", 3.6))
	assert.Equal(t, 4, s.DilationKernelSize)
	require.NoError(t, s.SetNamed("epsilon_factor", 0.9))
	assert.Equal(t, 0.2, s.EpsilonFactor)

	err := s.SetNamed("gamma", 1)
	assert.ErrorIs(t, err, ErrUnknownParameter)
	assert.Len(t, Names(), len(Specs))
}

func TestStoreUpdateAndSubscribe(t *testing.T) {
	store := NewStore(Set{DilationKernelSize: 99})
	assert.Equal(t, 10, store.Snapshot().DilationKernelSize, "initial set is clamped")

	ch, cancel := store.Subscribe()
	defer cancel()

	store.Update(func(s *Set) { s.FadeOutRate = 0.2 })
	got, err := store.SetNamed("fade_out_rate", 0.4)
	require.NoError(t, err)
	assert.Equal(t, 0.4, got.FadeOutRate)

	// Only the latest value is pending.
	select {
	case s := <-ch:
		assert.Equal(t, 0.4, s.FadeOutRate)
	case <-time.After(time.Second):
		t.Fatal("no notification")
	}

	_, err = store.SetNamed("nope", 1)
	assert.ErrorIs(t, err, ErrUnknownParameter)

	assert.Equal(t, Defaults(), store.Reset())
	cancel()
	_, open := <-drain(ch)
	assert.False(t, open)
}

// drain discards pending values and returns the channel for a final receive.
func drain(ch <-chan Set) <-chan Set {
	for {
		select {
		case _, ok := <-ch:
			if !ok {
				return ch
			}
		default:
			return ch
		}
	}
}

func TestParseKeepsDefaultsForMissingKeys(t *testing.T) {
	set, err := Parse([]byte("fade_out_rate: 0.5\ndilation_kernel_size: 40\n"))
	require.NoError(t, err)
	want := Defaults()
	want.FadeOutRate = 0.5
	want.DilationKernelSize = 10
	assert.Equal(t, want, set)

	_, err = Parse([]byte("fade_out_rate: [oops"))
	assert.Error(t, err)
}

func TestSaveAndLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "params.yaml")
	s := Defaults()
	s.EpsilonFactor = 0.05
	require.NoError(t, SaveFile(path, s))

	got, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, s, got)

	_, err = LoadFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestWatchReloadsOnWrite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "params.yaml")
	require.NoError(t, os.WriteFile(path, []byte("fade_out_rate: 0.4\n"), 0o644))

	store := NewStore(Defaults())
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- Watch(ctx, path, store, zaptest.NewLogger(t).Sugar()) }()

	require.Eventually(t, func() bool {
		return store.Snapshot().FadeOutRate == 0.4
	}, 5*time.Second, 10*time.Millisecond)

	require.NoError(t, os.WriteFile(path, []byte("fade_out_rate: 0.6\n"), 0o644))
	require.Eventually(t, func() bool {
		return store.Snapshot().FadeOutRate == 0.6
	}, 5*time.Second, 10*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("watch did not stop")
	}
}

func TestSliderPositions(t *testing.T) {
	tests := []struct {
		name    string
		value   float64
		pos     int
		max     int
		fromPos int
		back    float64
	}{
		{"low_threshold", 50, 50, 255, 50, 50},
		{"dilation_kernel_size", 3, 3, 10, 0, 1},
		{"epsilon_factor", 0.05, 5, 20, 20, 0.2},
		{"fade_out_rate", 0.7, 70, 100, 70, 0.7},
		{"new_mask_contribution", 1.4, 100, 100, 30, 0.3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sp, ok := Lookup(tt.name)
			require.True(t, ok)
			assert.Equal(t, tt.pos, sp.Position(tt.value))
			assert.Equal(t, tt.max, sp.MaxPosition())
			assert.InDelta(t, tt.back, sp.FromPosition(tt.fromPos), 1e-9)
			assert.NotEmpty(t, sp.Label)
		})
	}
}

package pixel

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AsaTyr2018/VisionSuit-sub004/internal/models"
)

var (
	skinTone = color.RGBA{R: 220, G: 170, B: 140, A: 255}
	gray     = color.RGBA{R: 100, G: 100, B: 100, A: 255}
)

// encodePNG renders a test image where fill decides the color per pixel.
func encodePNG(t *testing.T, w, h int, fill func(x, y int) color.Color) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, fill(x, y))
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestAnalyzeUniformSkinImage(t *testing.T) {
	buf := encodePNG(t, 128, 128, func(int, int) color.Color { return skinTone })

	a := NewAnalyzer(DefaultConfig())
	result, err := a.Analyze(context.Background(), buf, Options{Mode: ModeFull})
	require.NoError(t, err)

	assert.Greater(t, result.SkinRatio, 0.9)
	assert.Less(t, result.CoverageScore, 0.3)
	assert.Greater(t, result.Pose.TorsoPresenceConfidence, 0.6)
	assert.True(t, result.Decisions.IsAdult)
	assert.False(t, result.Decisions.IsSuggestive)
	assert.False(t, result.Decisions.NeedsReview)
	assert.InDelta(t, 1.0, result.DominantSkinRatio, 0.01)
	assert.Equal(t, 128, result.Width)
	assert.Equal(t, 128*128, result.TotalPixelCount)
}

func TestAnalyzeLimbDominantImage(t *testing.T) {
	// Skin confined to two vertical edge bands with a non-skin center.
	buf := encodePNG(t, 128, 128, func(x, _ int) color.Color {
		if x < 24 || x >= 104 {
			return skinTone
		}
		return gray
	})

	a := NewAnalyzer(DefaultConfig())
	result, err := a.Analyze(context.Background(), buf, Options{Mode: ModeFull})
	require.NoError(t, err)

	assert.False(t, result.Decisions.IsAdult)
	assert.False(t, result.Decisions.IsSuggestive)
	assert.True(t, result.Decisions.NeedsReview)
	assert.True(t, result.HasFlag(models.FlagLimbDominant))
	assert.Greater(t, result.Pose.LimbDominanceConfidence, 0.4)
	assert.Less(t, result.Pose.TorsoPresenceConfidence, 0.1)
}

func TestAnalyzeNonSkinImage(t *testing.T) {
	buf := encodePNG(t, 64, 64, func(int, int) color.Color { return gray })

	a := NewAnalyzer(DefaultConfig())
	result, err := a.Analyze(context.Background(), buf, Options{Mode: ModeFull})
	require.NoError(t, err)

	assert.Zero(t, result.SkinPixelCount)
	assert.False(t, result.Decisions.IsAdult)
	assert.False(t, result.Decisions.IsSuggestive)
	assert.False(t, result.Decisions.NeedsReview)
}

func TestAnalyzeFastModeKeepsResultShape(t *testing.T) {
	buf := encodePNG(t, 128, 128, func(int, int) color.Color { return skinTone })
	a := NewAnalyzer(DefaultConfig())

	t.Run("heuristic only", func(t *testing.T) {
		result, err := a.Analyze(context.Background(), buf, Options{Mode: ModeFast, HeuristicOnly: true})
		require.NoError(t, err)

		assert.Equal(t, models.AnalysisModeFast, result.Mode)
		assert.True(t, result.HasFlag(models.FlagFastPath))
		// Cheap path approximates region weighting with the global ratio.
		assert.Equal(t, result.SkinRatio, result.DominantSkinRatio)
		// Pose fields are populated in every mode.
		assert.Greater(t, result.Pose.TorsoPresenceConfidence, 0.6)
		assert.True(t, result.Decisions.IsAdult)
	})

	t.Run("reduced-cost full pass", func(t *testing.T) {
		result, err := a.Analyze(context.Background(), buf, Options{Mode: ModeFast})
		require.NoError(t, err)

		assert.Equal(t, models.AnalysisModeFast, result.Mode)
		assert.True(t, result.HasFlag(models.FlagFastPath))
		assert.InDelta(t, 1.0, result.DominantSkinRatio, 0.01)
		assert.True(t, result.Decisions.IsAdult)
	})
}

func TestAnalyzeRejectsUndecodableBuffer(t *testing.T) {
	a := NewAnalyzer(DefaultConfig())
	_, err := a.Analyze(context.Background(), []byte("not an image"), Options{Mode: ModeFull})
	assert.Error(t, err)
}

func TestAnalyzeHonorsCancelledContext(t *testing.T) {
	buf := encodePNG(t, 32, 32, func(int, int) color.Color { return gray })
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	a := NewAnalyzer(DefaultConfig())
	_, err := a.Analyze(ctx, buf, Options{Mode: ModeFull})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestIsSkin(t *testing.T) {
	tests := []struct {
		name    string
		r, g, b float64
		want    bool
	}{
		{"light skin tone", 220, 170, 140, true},
		{"darker skin tone", 140, 100, 80, true},
		{"neutral gray", 100, 100, 100, false},
		{"saturated blue", 30, 60, 220, false},
		{"saturated green", 40, 200, 40, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, isSkin(tt.r, tt.g, tt.b))
		})
	}
}

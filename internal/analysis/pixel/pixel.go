// Package pixel implements the heuristic image analyzer behind content
// screening. Given an encoded image buffer it computes skin-exposure and
// structural metrics plus raw adult/suggestive/needs-review decisions. The
// analyzer is synchronous and stateless; the screening scheduler owns all
// queueing and retry behavior around it.
package pixel

import (
	"bytes"
	"context"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"github.com/AsaTyr2018/VisionSuit-sub004/internal/models"
)

// Mode selects the analysis cost profile
type Mode string

const (
	// ModeFull runs the complete pixel pass: skin classification, region
	// clustering, edge field, and pose heuristics.
	ModeFull Mode = models.AnalysisModeFull
	// ModeFast runs the cheap subset (subsampled skin ratio and coarse
	// coverage) while still populating the full result shape.
	ModeFast Mode = models.AnalysisModeFast
)

// Options carries per-invocation analyzer parameters
type Options struct {
	Mode Mode

	// HeuristicOnly applies in fast mode: when set, only the cheap
	// heuristics run; when clear, fast mode runs the full pass at reduced
	// sampling cost instead.
	HeuristicOnly bool
}

// Config holds the analyzer thresholds. All instances receive their
// configuration at construction; there is no package-level mutable state.
type Config struct {
	// Sampling caps: the longer image side is downsampled to at most this
	// many samples per mode.
	MaxSampleDim  int
	FastSampleDim int

	// Adult decision: near-total, low-detail skin exposure with a
	// plausible torso.
	AdultSkinRatio   float64
	AdultCoverageMax float64
	AdultTorsoMin    float64

	// Suggestive decision: moderate skin with non-trivial texture detail.
	SuggestiveSkinMin   float64
	SuggestiveSkinMax   float64
	SuggestiveDetailMin float64

	// Needs-review escalation: skin concentrated in limb bands without a
	// confident torso.
	ReviewSkinMin    float64
	LimbDominanceMin float64
	TorsoAbsentMax   float64

	// CoverageGain scales mean gradient magnitude near skin into the
	// 0..1 coverage score.
	CoverageGain float64
}

// DefaultConfig returns the analyzer thresholds used in production
func DefaultConfig() Config {
	return Config{
		MaxSampleDim:        256,
		FastSampleDim:       64,
		AdultSkinRatio:      0.6,
		AdultCoverageMax:    0.3,
		AdultTorsoMin:       0.45,
		SuggestiveSkinMin:   0.3,
		SuggestiveSkinMax:   0.85,
		SuggestiveDetailMin: 0.15,
		ReviewSkinMin:       0.15,
		LimbDominanceMin:    0.4,
		TorsoAbsentMax:      0.35,
		CoverageGain:        6.0,
	}
}

// Analyzer computes skin and structure heuristics over decoded images
type Analyzer struct {
	cfg Config
}

// NewAnalyzer creates an analyzer with the given thresholds
func NewAnalyzer(cfg Config) *Analyzer {
	if cfg.MaxSampleDim <= 0 {
		cfg.MaxSampleDim = DefaultConfig().MaxSampleDim
	}
	if cfg.FastSampleDim <= 0 {
		cfg.FastSampleDim = DefaultConfig().FastSampleDim
	}
	return &Analyzer{cfg: cfg}
}

// Analyze decodes the image buffer and computes the analysis result for the
// requested mode. Decode failures and cancelled contexts are returned as
// errors; the caller decides whether to retry.
func (a *Analyzer) Analyze(ctx context.Context, buf []byte, opts Options) (*models.ImageAnalysisResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	img, _, err := image.Decode(bytes.NewReader(buf))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}

	mode := opts.Mode
	if mode != ModeFast {
		mode = ModeFull
	}

	sampleDim := a.cfg.MaxSampleDim
	if mode == ModeFast {
		sampleDim = a.cfg.FastSampleDim
	}

	f, err := sampleFrame(ctx, img, sampleDim)
	if err != nil {
		return nil, err
	}

	result := &models.ImageAnalysisResult{
		Width:           img.Bounds().Dx(),
		Height:          img.Bounds().Dy(),
		TotalPixelCount: img.Bounds().Dx() * img.Bounds().Dy(),
		Mode:            string(mode),
	}

	skinCount := f.skinCount()
	sampleTotal := f.w * f.h
	if sampleTotal > 0 {
		result.SkinRatio = float64(skinCount) / float64(sampleTotal)
	}
	// Scale the sampled count back to full-image terms so the result is
	// comparable across sampling resolutions.
	result.SkinPixelCount = int(result.SkinRatio * float64(result.TotalPixelCount))
	result.ColorStdDev = f.colorStdDev

	gradients := f.gradientField()
	result.EdgeDensity = meanAll(gradients)
	result.CoverageScore = clamp01(f.meanGradientNearSkin(gradients) * a.cfg.CoverageGain)

	if mode == ModeFast && opts.HeuristicOnly {
		// Cheap subset: approximate region weighting with the global
		// ratio instead of clustering.
		result.DominantSkinRatio = result.SkinRatio
	} else {
		result.DominantSkinRatio = f.dominantSkinRatio()
	}
	if mode == ModeFast {
		result.Flags = append(result.Flags, models.FlagFastPath)
	}

	result.Pose = f.poseMetrics()

	a.decide(result)
	return result, nil
}

// decide applies the decision policy over the computed metrics
func (a *Analyzer) decide(r *models.ImageAnalysisResult) {
	cfg := a.cfg

	r.Scores.Adult = clamp01(0.6*r.SkinRatio + 0.25*(1-r.CoverageScore) + 0.15*r.Pose.TorsoPresenceConfidence)
	r.Scores.Suggestive = clamp01(r.SkinRatio * (0.5 + 0.5*clamp01(r.EdgeDensity*4)))

	r.Decisions.IsAdult = r.SkinRatio >= cfg.AdultSkinRatio &&
		r.CoverageScore <= cfg.AdultCoverageMax &&
		r.Pose.TorsoPresenceConfidence >= cfg.AdultTorsoMin

	if !r.Decisions.IsAdult &&
		r.SkinRatio >= cfg.ReviewSkinMin &&
		r.Pose.LimbDominanceConfidence >= cfg.LimbDominanceMin &&
		r.Pose.TorsoPresenceConfidence < cfg.TorsoAbsentMax {
		r.Decisions.NeedsReview = true
		r.Flags = append(r.Flags, models.FlagLimbDominant)
	}

	r.Decisions.IsSuggestive = !r.Decisions.IsAdult && !r.Decisions.NeedsReview &&
		r.SkinRatio >= cfg.SuggestiveSkinMin &&
		r.SkinRatio <= cfg.SuggestiveSkinMax &&
		r.CoverageScore >= cfg.SuggestiveDetailMin
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func meanAll(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

package models

// Analysis modes for image screening
const (
	AnalysisModeFull = "full"
	AnalysisModeFast = "fast"
)

// Diagnostic flags attached to an analysis result
const (
	FlagLimbDominant = "LIMB_DOMINANT"
	FlagFastPath     = "FAST_PATH"
)

// PoseMetrics holds spatial-distribution confidence estimates for an image
type PoseMetrics struct {
	TorsoPresenceConfidence float64 `json:"torso_presence_confidence"`
	LimbDominanceConfidence float64 `json:"limb_dominance_confidence"`
}

// AnalysisDecisions holds the raw per-image decisions of the pixel analyzer
type AnalysisDecisions struct {
	IsAdult      bool `json:"is_adult"`
	IsSuggestive bool `json:"is_suggestive"`
	NeedsReview  bool `json:"needs_review"`
}

// AnalysisScores holds the numeric scores backing the decisions
type AnalysisScores struct {
	Adult      float64 `json:"adult"`
	Suggestive float64 `json:"suggestive"`
}

// ImageAnalysisResult is the outcome of one pixel-analysis attempt.
// It is produced once per attempt and never mutated afterwards.
type ImageAnalysisResult struct {
	Width  int `json:"width"`
	Height int `json:"height"`

	SkinPixelCount  int     `json:"skin_pixel_count"`
	TotalPixelCount int     `json:"total_pixel_count"`
	SkinRatio       float64 `json:"skin_ratio"`

	// DominantSkinRatio is the share of skin pixels belonging to the
	// largest contiguous skin region.
	DominantSkinRatio float64 `json:"dominant_skin_ratio"`

	// CoverageScore is an inverse measure of clothing/texture detail over
	// skin regions; lower means less clothing detail.
	CoverageScore float64 `json:"coverage_score"`

	EdgeDensity float64 `json:"edge_density"`
	ColorStdDev float64 `json:"color_std_dev"`

	Pose      PoseMetrics       `json:"pose"`
	Decisions AnalysisDecisions `json:"decisions"`
	Scores    AnalysisScores    `json:"scores"`

	// Flags carries diagnostic tags such as LIMB_DOMINANT.
	Flags []string `json:"flags,omitempty"`

	// Mode records which analysis mode produced this result.
	Mode string `json:"mode"`
}

// HasFlag reports whether a diagnostic flag is present on the result
func (r *ImageAnalysisResult) HasFlag(flag string) bool {
	for _, f := range r.Flags {
		if f == flag {
			return true
		}
	}
	return false
}

// Package moderation combines metadata screening, direct keyword scanning,
// and pixel analysis into one auditable moderation decision. The aggregator
// is a pure function of its inputs plus an immutable configuration snapshot;
// it keeps no state of its own.
package moderation

import (
	"github.com/AsaTyr2018/VisionSuit-sub004/internal/analysis/frequency"
	"github.com/AsaTyr2018/VisionSuit-sub004/internal/models"
)

// Thresholds holds the metadata score cutoffs per category
type Thresholds struct {
	Adult int `json:"adult"`
	Minor int `json:"minor"`
	Beast int `json:"beast"`
}

// DefaultThresholds returns the production metadata score cutoffs
func DefaultThresholds() Thresholds {
	return Thresholds{Adult: 10, Minor: 2, Beast: 2}
}

// Config is the aggregator's immutable configuration snapshot
type Config struct {
	Thresholds Thresholds
	Packs      frequency.KeywordPacks

	// BypassFilter relaxes adult-content visibility gating. It never
	// affects the zero-tolerance illegal flags or the moderation queue.
	BypassFilter bool
}

// Input gathers everything known about one asset at evaluation time
type Input struct {
	Title       string
	Description string
	Prompt      string
	Tags        []string
	Metadata    map[string]interface{}

	// Screening is the metadata evaluation, nil when none was run.
	Screening *models.MetadataEvaluation
	// Image is the pixel analysis result, nil for metadata-only assets.
	Image *models.ImageAnalysisResult
}

// Evaluate computes the moderation decision for one asset.
//
// Illegal categories are zero tolerance: a direct keyword match anywhere in
// the asset's text, tags, or nested metadata sets the corresponding flag
// regardless of any score, threshold, or bypass setting.
func Evaluate(cfg Config, in Input) models.ModerationDecision {
	decision := models.ModerationDecision{
		MetadataScreening: in.Screening,
	}

	texts := collectTexts(in)
	decision.IllegalMinor = anyTextMatches(texts, cfg.Packs.Minor)
	decision.IllegalBeast = anyTextMatches(texts, cfg.Packs.Beast)

	if in.Screening != nil {
		decision.MetadataAdult = in.Screening.AdultScore >= cfg.Thresholds.Adult
		decision.MetadataMinor = in.Screening.MinorScore >= cfg.Thresholds.Minor
		decision.MetadataBeast = in.Screening.BeastScore >= cfg.Thresholds.Beast
	}

	pixelAdult := in.Image != nil && in.Image.Decisions.IsAdult
	pixelReview := in.Image != nil && in.Image.Decisions.NeedsReview

	// BypassFilter only relaxes the metadata-adult visibility gate; the
	// flag itself stays reported for audit.
	metadataAdultGate := decision.MetadataAdult && !cfg.BypassFilter

	// Illegal-category signals always imply adult-level restriction,
	// whether they came from a direct keyword match or a score threshold.
	decision.IsAdult = pixelAdult || metadataAdultGate ||
		decision.IllegalMinor || decision.IllegalBeast ||
		decision.MetadataMinor || decision.MetadataBeast

	decision.RequiresModeration = decision.IllegalMinor || decision.IllegalBeast ||
		decision.MetadataMinor || decision.MetadataBeast || pixelReview

	return decision
}

// collectTexts flattens every textual surface of the input: the named text
// fields, the tag list, and all strings nested anywhere in the metadata.
func collectTexts(in Input) []string {
	texts := make([]string, 0, 4+len(in.Tags))
	for _, s := range []string{in.Title, in.Description, in.Prompt} {
		if s != "" {
			texts = append(texts, s)
		}
	}
	texts = append(texts, in.Tags...)
	texts = appendMetadataStrings(texts, in.Metadata)
	return texts
}

// appendMetadataStrings walks nested metadata collecting string values and
// string keys of frequency-style mappings.
func appendMetadataStrings(texts []string, value interface{}) []string {
	switch v := value.(type) {
	case string:
		if v != "" {
			texts = append(texts, v)
		}
	case map[string]interface{}:
		for key, nested := range v {
			texts = append(texts, key)
			texts = appendMetadataStrings(texts, nested)
		}
	case []interface{}:
		for _, nested := range v {
			texts = appendMetadataStrings(texts, nested)
		}
	}
	return texts
}

func anyTextMatches(texts []string, pack []string) bool {
	for _, text := range texts {
		if TextMatchesPack(text, pack) {
			return true
		}
	}
	return false
}

package moderation

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/AsaTyr2018/VisionSuit-sub004/internal/analysis/frequency"
	"github.com/AsaTyr2018/VisionSuit-sub004/internal/models"
)

func testConfig() Config {
	return Config{
		Thresholds: DefaultThresholds(),
		Packs:      frequency.DefaultKeywordPacks(),
	}
}

func TestEvaluateMetadataAdultThreshold(t *testing.T) {
	decision := Evaluate(testConfig(), Input{
		Screening: &models.MetadataEvaluation{AdultScore: 12},
	})

	assert.True(t, decision.MetadataAdult)
	assert.True(t, decision.IsAdult)
	assert.False(t, decision.RequiresModeration)
	assert.False(t, decision.IllegalMinor)
	assert.False(t, decision.IllegalBeast)
}

func TestEvaluateMetadataMinorThreshold(t *testing.T) {
	// Minor threshold trips independently of the adult threshold.
	decision := Evaluate(testConfig(), Input{
		Screening: &models.MetadataEvaluation{MinorScore: 3},
	})

	assert.True(t, decision.MetadataMinor)
	assert.True(t, decision.RequiresModeration)
	assert.True(t, decision.IsAdult)
}

func TestEvaluateBelowThresholds(t *testing.T) {
	decision := Evaluate(testConfig(), Input{
		Screening: &models.MetadataEvaluation{AdultScore: 9, MinorScore: 1, BeastScore: 1},
	})

	assert.False(t, decision.MetadataAdult)
	assert.False(t, decision.MetadataMinor)
	assert.False(t, decision.MetadataBeast)
	assert.False(t, decision.IsAdult)
	assert.False(t, decision.RequiresModeration)
}

func TestEvaluateDirectKeywordScan(t *testing.T) {
	tests := []struct {
		name  string
		input Input
	}{
		{
			name:  "title",
			input: Input{Title: "cute loli portrait"},
		},
		{
			name:  "tags",
			input: Input{Tags: []string{"portrait", "lolita_fashion"}},
		},
		{
			name: "underscore keyword matches prose",
			input: Input{Description: "a young girl in a meadow"},
		},
		{
			name: "nested metadata",
			input: Input{Metadata: map[string]interface{}{
				"training": map[string]interface{}{
					"notes": []interface{}{"contains shota imagery"},
				},
			}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			decision := Evaluate(testConfig(), tt.input)
			assert.True(t, decision.IllegalMinor)
			assert.True(t, decision.IsAdult)
			assert.True(t, decision.RequiresModeration)
		})
	}
}

func TestEvaluateBeastKeyword(t *testing.T) {
	decision := Evaluate(testConfig(), Input{Prompt: "bestiality scene"})

	assert.True(t, decision.IllegalBeast)
	assert.False(t, decision.IllegalMinor)
	assert.True(t, decision.IsAdult)
	assert.True(t, decision.RequiresModeration)
}

func TestEvaluatePixelDecisions(t *testing.T) {
	t.Run("pixel adult implies adult only", func(t *testing.T) {
		decision := Evaluate(testConfig(), Input{
			Image: &models.ImageAnalysisResult{
				Decisions: models.AnalysisDecisions{IsAdult: true},
			},
		})
		assert.True(t, decision.IsAdult)
		assert.False(t, decision.RequiresModeration)
	})

	t.Run("needs review queues moderation", func(t *testing.T) {
		decision := Evaluate(testConfig(), Input{
			Image: &models.ImageAnalysisResult{
				Decisions: models.AnalysisDecisions{NeedsReview: true},
			},
		})
		assert.False(t, decision.IsAdult)
		assert.True(t, decision.RequiresModeration)
	})
}

func TestBypassFilterNeverSuppressesZeroTolerance(t *testing.T) {
	inputs := []Input{
		{Title: "underage content"},
		{Prompt: "zoophilia"},
		{Screening: &models.MetadataEvaluation{MinorScore: 5}},
		{Image: &models.ImageAnalysisResult{
			Decisions: models.AnalysisDecisions{NeedsReview: true},
		}},
	}

	for _, in := range inputs {
		strict := Evaluate(testConfig(), in)

		bypassed := testConfig()
		bypassed.BypassFilter = true
		relaxed := Evaluate(bypassed, in)

		assert.Equal(t, strict.IllegalMinor, relaxed.IllegalMinor)
		assert.Equal(t, strict.IllegalBeast, relaxed.IllegalBeast)
		assert.Equal(t, strict.RequiresModeration, relaxed.RequiresModeration)
	}
}

func TestBypassFilterRelaxesMetadataAdultGate(t *testing.T) {
	in := Input{Screening: &models.MetadataEvaluation{AdultScore: 12}}

	bypassed := testConfig()
	bypassed.BypassFilter = true
	decision := Evaluate(bypassed, in)

	// The flag stays reported for audit; only the visibility gate relaxes.
	assert.True(t, decision.MetadataAdult)
	assert.False(t, decision.IsAdult)
	assert.False(t, decision.RequiresModeration)
}

func TestDecisionStatus(t *testing.T) {
	assert.Equal(t, models.ModerationStatusFlagged,
		models.ModerationDecision{RequiresModeration: true}.Status())
	assert.Equal(t, models.ModerationStatusPublished,
		models.ModerationDecision{IsAdult: true}.Status())
}

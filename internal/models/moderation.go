package models

import "time"

// Moderation status constants for screened assets
const (
	ModerationStatusPending   = "pending"
	ModerationStatusPublished = "published"
	ModerationStatusFlagged   = "flagged"
)

// ModerationDecision is the final, auditable outcome of screening one asset.
// It is computed fresh on every evaluation and never partially updated.
type ModerationDecision struct {
	IsAdult            bool `json:"is_adult"`
	IllegalMinor       bool `json:"illegal_minor"`
	IllegalBeast       bool `json:"illegal_beast"`
	RequiresModeration bool `json:"requires_moderation"`

	MetadataAdult bool `json:"metadata_adult"`
	MetadataMinor bool `json:"metadata_minor"`
	MetadataBeast bool `json:"metadata_beast"`

	// MetadataScreening is the evaluation that produced the metadata flags,
	// nil when no metadata was screened.
	MetadataScreening *MetadataEvaluation `json:"metadata_screening,omitempty"`
}

// Status derives the persisted asset state from the decision.
// Zero-tolerance and review outcomes hold the asset back; everything else
// is publishable (adult-only visibility is handled by the CRUD layer).
func (d ModerationDecision) Status() string {
	if d.RequiresModeration {
		return ModerationStatusFlagged
	}
	return ModerationStatusPublished
}

// ScreeningRecord is the persisted row for one screened asset
type ScreeningRecord struct {
	ID      int64  `json:"id" db:"id"`
	AssetID string `json:"asset_id" db:"asset_id"`

	Status string `json:"status" db:"status"`

	IsAdult            bool `json:"is_adult" db:"is_adult"`
	IllegalMinor       bool `json:"illegal_minor" db:"illegal_minor"`
	IllegalBeast       bool `json:"illegal_beast" db:"illegal_beast"`
	RequiresModeration bool `json:"requires_moderation" db:"requires_moderation"`
	MetadataAdult      bool `json:"metadata_adult" db:"metadata_adult"`
	MetadataMinor      bool `json:"metadata_minor" db:"metadata_minor"`
	MetadataBeast      bool `json:"metadata_beast" db:"metadata_beast"`

	// ScreeningJSON holds the serialized MetadataEvaluation for audit review
	ScreeningJSON string `json:"screening_json,omitempty" db:"screening_json"`
	// AnalysisJSON holds the serialized ImageAnalysisResult when an image
	// was analyzed
	AnalysisJSON string `json:"analysis_json,omitempty" db:"analysis_json"`

	ErrorMessage string `json:"error_message,omitempty" db:"error_message"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

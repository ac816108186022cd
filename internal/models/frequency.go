package models

// NormalizedTagCount is one entry of a canonical frequency table.
// Tags are lowercase, trimmed, and unique within one normalized sequence.
type NormalizedTagCount struct {
	Tag   string `json:"tag"`
	Count int    `json:"count"`
}

// CategoryMatches lists the normalized entries that matched each keyword pack
type CategoryMatches struct {
	Adult []NormalizedTagCount `json:"adult"`
	Minor []NormalizedTagCount `json:"minor"`
	Beast []NormalizedTagCount `json:"beast"`
}

// MetadataEvaluation is the scored view of an asset's tag-frequency metadata.
// It is derived, read-only, and recomputed whenever the metadata changes.
type MetadataEvaluation struct {
	AdultScore int `json:"adult_score"`
	MinorScore int `json:"minor_score"`
	BeastScore int `json:"beast_score"`

	Matches CategoryMatches `json:"matches"`

	// Normalized is the merged frequency table the scores were computed from.
	Normalized []NormalizedTagCount `json:"normalized"`
}

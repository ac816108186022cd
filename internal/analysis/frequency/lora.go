package frequency

import (
	"encoding/json"

	"github.com/AsaTyr2018/VisionSuit-sub004/internal/models"
)

// LoRA trainers write tag statistics under a handful of metadata keys; the
// safetensors convention is ss_tag_frequency with one nested table per
// training dataset.
var tagFrequencyKeys = []string{"ss_tag_frequency", "tag_frequency", "tags"}

// sourceKind tags the two wire shapes tag-frequency data arrives in.
type sourceKind int

const (
	sourceMapping sourceKind = iota // {"tag": count, ...}
	sourcePairs                     // [["tag", count], ...]
)

// tagSource is the tagged variant a raw frequency representation resolves to.
// The shape is decided once here, at the ingestion boundary; nothing deeper in
// the pipeline inspects raw metadata again.
type tagSource struct {
	kind    sourceKind
	mapping map[string]interface{}
	pairs   []interface{}
}

// normalize renders the source as a canonical frequency table.
func (s tagSource) normalize() []models.NormalizedTagCount {
	switch s.kind {
	case sourcePairs:
		return Normalize(pairsToMapping(s.pairs))
	default:
		return Normalize(s.mapping)
	}
}

// EvaluateLoRaMetadata extracts tag-frequency information from raw upload
// metadata, normalizes each representation independently, merges them, and
// scores the merged table. Malformed or shape-less input degrades to an empty
// evaluation with zero scores; metadata screening must never block the
// surrounding asset-creation flow.
func EvaluateLoRaMetadata(raw interface{}, packs KeywordPacks) *models.MetadataEvaluation {
	sources := collectTagSources(raw)

	tables := make([][]models.NormalizedTagCount, 0, len(sources))
	for _, src := range sources {
		tables = append(tables, src.normalize())
	}

	return Score(Merge(tables...), packs)
}

// collectTagSources walks the raw metadata and resolves every tag-frequency
// representation it can find into tagged sources.
func collectTagSources(raw interface{}) []tagSource {
	switch value := raw.(type) {
	case map[string]interface{}:
		sources := make([]tagSource, 0)
		for _, key := range tagFrequencyKeys {
			nested, ok := value[key]
			if !ok {
				continue
			}
			sources = append(sources, resolveSources(nested)...)
		}
		return sources
	case []interface{}:
		return resolveSources(value)
	case string:
		return collectTagSources(decodeJSONValue(value))
	default:
		return nil
	}
}

// resolveSources turns one metadata value into tag sources. A mapping whose
// values are themselves mappings is the per-dataset safetensors layout; each
// dataset table becomes its own source.
func resolveSources(value interface{}) []tagSource {
	switch v := value.(type) {
	case map[string]interface{}:
		if nested := nestedMappings(v); len(nested) > 0 {
			sources := make([]tagSource, 0, len(nested))
			for _, m := range nested {
				sources = append(sources, tagSource{kind: sourceMapping, mapping: m})
			}
			return sources
		}
		return []tagSource{{kind: sourceMapping, mapping: v}}
	case []interface{}:
		return []tagSource{{kind: sourcePairs, pairs: v}}
	case string:
		decoded := decodeJSONValue(v)
		if decoded == nil {
			return nil
		}
		return resolveSources(decoded)
	default:
		return nil
	}
}

// nestedMappings returns the sub-mappings of a per-dataset frequency table,
// or nil if the mapping is a flat tag->count table.
func nestedMappings(value map[string]interface{}) []map[string]interface{} {
	nested := make([]map[string]interface{}, 0, len(value))
	for _, v := range value {
		m, ok := v.(map[string]interface{})
		if !ok {
			return nil
		}
		nested = append(nested, m)
	}
	return nested
}

// pairsToMapping folds a [tag, count] pair sequence into a raw mapping,
// summing duplicate tags so normalization aggregates them the same way it
// aggregates mapping keys.
func pairsToMapping(pairs []interface{}) map[string]interface{} {
	mapping := make(map[string]interface{}, len(pairs))
	for _, item := range pairs {
		pair, ok := item.([]interface{})
		if !ok || len(pair) < 2 {
			continue
		}
		tag, ok := pair[0].(string)
		if !ok {
			continue
		}
		if existing, ok := mapping[tag]; ok {
			mapping[tag] = coerceCount(existing) + coerceCount(pair[1])
			continue
		}
		mapping[tag] = pair[1]
	}
	return mapping
}

// decodeJSONValue parses an embedded JSON string, returning nil when the
// payload is not valid JSON.
func decodeJSONValue(s string) interface{} {
	var decoded interface{}
	if err := json.Unmarshal([]byte(s), &decoded); err != nil {
		return nil
	}
	return decoded
}

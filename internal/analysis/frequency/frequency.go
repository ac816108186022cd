// Package frequency builds and scores canonical tag-frequency tables from
// raw upload metadata. Tables are the input to metadata screening: tags are
// normalized once at the boundary and every downstream consumer works on the
// same canonical shape.
package frequency

import (
	"encoding/json"
	"sort"
	"strconv"
	"strings"

	"github.com/AsaTyr2018/VisionSuit-sub004/internal/models"
)

// Normalize sanitizes a raw tag->count mapping into a canonical frequency
// table: keys are trimmed and lowercased, empty keys are dropped, values are
// coerced to non-negative integers, and counts for keys that normalize to the
// same tag are aggregated. The result is sorted by descending count, ties
// broken by tag.
func Normalize(raw map[string]interface{}) []models.NormalizedTagCount {
	if len(raw) == 0 {
		return []models.NormalizedTagCount{}
	}

	counts := make(map[string]int, len(raw))
	for key, value := range raw {
		tag := strings.ToLower(strings.TrimSpace(key))
		if tag == "" {
			continue
		}
		counts[tag] += coerceCount(value)
	}

	normalized := make([]models.NormalizedTagCount, 0, len(counts))
	for tag, count := range counts {
		normalized = append(normalized, models.NormalizedTagCount{Tag: tag, Count: count})
	}

	sort.Slice(normalized, func(i, j int) bool {
		if normalized[i].Count != normalized[j].Count {
			return normalized[i].Count > normalized[j].Count
		}
		return normalized[i].Tag < normalized[j].Tag
	})

	return normalized
}

// Merge unions already-normalized frequency tables, summing counts for tags
// that match case-insensitively. First-seen order across the inputs is
// preserved rather than re-sorting by count, so merged tables stay readable
// as an audit trail of where each tag came from.
func Merge(tables ...[]models.NormalizedTagCount) []models.NormalizedTagCount {
	merged := make([]models.NormalizedTagCount, 0)
	index := make(map[string]int)

	for _, table := range tables {
		for _, entry := range table {
			tag := strings.ToLower(entry.Tag)
			if i, ok := index[tag]; ok {
				merged[i].Count += entry.Count
				continue
			}
			index[tag] = len(merged)
			merged = append(merged, models.NormalizedTagCount{Tag: tag, Count: entry.Count})
		}
	}

	return merged
}

// coerceCount converts a raw frequency value to a non-negative integer.
// Numeric strings are accepted; anything unparseable counts as zero.
func coerceCount(value interface{}) int {
	switch v := value.(type) {
	case int:
		return clampCount(v)
	case int64:
		return clampCount(int(v))
	case float64:
		return clampCount(int(v))
	case json.Number:
		f, err := v.Float64()
		if err != nil {
			return 0
		}
		return clampCount(int(f))
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return 0
		}
		return clampCount(int(f))
	default:
		return 0
	}
}

func clampCount(n int) int {
	if n < 0 {
		return 0
	}
	return n
}

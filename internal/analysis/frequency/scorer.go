package frequency

import (
	"strings"

	"github.com/AsaTyr2018/VisionSuit-sub004/internal/models"
)

// KeywordPacks holds the configured keyword lists per moderation category.
// Packs are read-only at runtime; the pipeline never mutates them.
type KeywordPacks struct {
	Adult []string `json:"adult"`
	Minor []string `json:"minor"`
	Beast []string `json:"beast"`
}

// DefaultKeywordPacks returns the built-in moderation keyword lists.
// Deployments override them through configuration.
func DefaultKeywordPacks() KeywordPacks {
	return KeywordPacks{
		Adult: []string{
			"nude", "naked", "nsfw", "topless", "nipples", "lingerie",
			"explicit", "hentai", "erotic", "sex", "pussy", "penis",
			"cum", "bondage", "fetish",
		},
		Minor: []string{
			"loli", "lolita", "shota", "child", "underage", "minor",
			"young_girl", "young_boy", "schoolgirl", "toddler", "preteen",
		},
		Beast: []string{
			"bestiality", "zoophilia", "beastiality", "feral_sex",
			"animal_penis", "knotting",
		},
	}
}

// MatchesKeyword reports whether a normalized tag matches any keyword of a
// pack. Matching is case-insensitive substring containment, so compound
// booru-style tags ("young_girl_smiling") still hit their base keyword.
func MatchesKeyword(tag string, pack []string) bool {
	tag = strings.ToLower(tag)
	for _, keyword := range pack {
		keyword = strings.ToLower(strings.TrimSpace(keyword))
		if keyword == "" {
			continue
		}
		if strings.Contains(tag, keyword) {
			return true
		}
	}
	return false
}

// Score evaluates a normalized frequency table against the keyword packs.
// Each category's score is the sum of the counts of entries whose tag matches
// that category's pack; the matching entries are recorded for audit review.
func Score(normalized []models.NormalizedTagCount, packs KeywordPacks) *models.MetadataEvaluation {
	eval := &models.MetadataEvaluation{
		Normalized: normalized,
		Matches: models.CategoryMatches{
			Adult: []models.NormalizedTagCount{},
			Minor: []models.NormalizedTagCount{},
			Beast: []models.NormalizedTagCount{},
		},
	}

	for _, entry := range normalized {
		if MatchesKeyword(entry.Tag, packs.Adult) {
			eval.AdultScore += entry.Count
			eval.Matches.Adult = append(eval.Matches.Adult, entry)
		}
		if MatchesKeyword(entry.Tag, packs.Minor) {
			eval.MinorScore += entry.Count
			eval.Matches.Minor = append(eval.Matches.Minor, entry)
		}
		if MatchesKeyword(entry.Tag, packs.Beast) {
			eval.BeastScore += entry.Count
			eval.Matches.Beast = append(eval.Matches.Beast, entry)
		}
	}

	return eval
}

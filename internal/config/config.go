package config

import (
	"os"
	"strconv"
	"strings"
)

// Config holds the application configuration
type Config struct {
	Port        string
	DBPath      string
	JWTSecret   string
	Environment string
	LogLevel    string

	Screening  ScreeningConfig
	Moderation ModerationConfig
}

// ScreeningConfig holds the analysis scheduler knobs
type ScreeningConfig struct {
	MaxWorkers            int
	MaxBatchSize          int
	QueueSoftLimit        int
	QueueHardLimit        int
	MaxRetries            int
	BackoffMs             int
	PressureCooldownMs    int
	PressureHeuristicOnly bool
}

// ModerationConfig holds the aggregator thresholds and keyword overrides.
// Empty keyword lists fall back to the built-in packs.
type ModerationConfig struct {
	AdultThreshold int
	MinorThreshold int
	BeastThreshold int
	BypassFilter   bool

	AdultKeywords []string
	MinorKeywords []string
	BeastKeywords []string
}

// Load reads configuration from the environment with sensible defaults
func Load() *Config {
	return &Config{
		Port:        envString("PORT", ":8080"),
		DBPath:      envString("DB_PATH", "./data/visionsuit/moderation.db"),
		JWTSecret:   envString("JWT_SECRET", "change-me-in-production"),
		Environment: envString("ENVIRONMENT", "development"),
		LogLevel:    envString("LOG_LEVEL", "info"),
		Screening: ScreeningConfig{
			MaxWorkers:            envInt("SCREENING_MAX_WORKERS", 2),
			MaxBatchSize:          envInt("SCREENING_MAX_BATCH_SIZE", 4),
			QueueSoftLimit:        envInt("SCREENING_QUEUE_SOFT_LIMIT", 8),
			QueueHardLimit:        envInt("SCREENING_QUEUE_HARD_LIMIT", 64),
			MaxRetries:            envInt("SCREENING_MAX_RETRIES", 2),
			BackoffMs:             envInt("SCREENING_BACKOFF_MS", 250),
			PressureCooldownMs:    envInt("SCREENING_PRESSURE_COOLDOWN_MS", 5000),
			PressureHeuristicOnly: envBool("SCREENING_PRESSURE_HEURISTIC_ONLY", true),
		},
		Moderation: ModerationConfig{
			AdultThreshold: envInt("MODERATION_ADULT_THRESHOLD", 10),
			MinorThreshold: envInt("MODERATION_MINOR_THRESHOLD", 2),
			BeastThreshold: envInt("MODERATION_BEAST_THRESHOLD", 2),
			BypassFilter:   envBool("MODERATION_BYPASS_FILTER", false),
			AdultKeywords:  envList("MODERATION_ADULT_KEYWORDS"),
			MinorKeywords:  envList("MODERATION_MINOR_KEYWORDS"),
			BeastKeywords:  envList("MODERATION_BEAST_KEYWORDS"),
		},
	}
}

func envString(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func envBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return b
}

// envList parses a comma-separated keyword list, dropping empty entries
func envList(key string) []string {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	parts := strings.Split(v, ",")
	list := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			list = append(list, p)
		}
	}
	return list
}
